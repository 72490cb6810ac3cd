package hashtag

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"

	"github.com/bstardust/htgen/internal/logger"
)

const (
	DefaultRegion = "us-central1"
	DefaultModel  = "gemini-1.5-flash"
)

// VertexConfig configures the Vertex AI Gemini generator
type VertexConfig struct {
	Project         string
	Region          string
	Model           string
	CredentialsFile string
}

// Vertex is a Generator backed by Vertex AI Gemini
type Vertex struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

var _ Generator = (*Vertex)(nil)

// safetySettings relax every category to block only high-severity content, so ordinary
// photos are not refused
var safetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockOnlyHigh},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockOnlyHigh},
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockOnlyHigh},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockOnlyHigh},
}

// NewVertex creates a Vertex AI client for the given project and region
func NewVertex(ctx context.Context, cfg VertexConfig) (*Vertex, error) {
	if cfg.Project == "" {
		return nil, fmt.Errorf("vertex: project is required")
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, cfg.Project, cfg.Region, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SafetySettings = safetySettings

	logger.Info("Vertex AI initialized (project=%s, region=%s, model=%s)", cfg.Project, cfg.Region, cfg.Model)

	return &Vertex{client: client, model: model}, nil
}

// Generate sends the prompt and the image in a single request
func (v *Vertex) Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	resp, err := v.model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: mimeType, Data: image},
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

// Close releases the underlying client
func (v *Vertex) Close() error {
	return v.client.Close()
}
