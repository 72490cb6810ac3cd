package hashtag

import (
	"context"
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/bstardust/htgen/internal/logger"
	"github.com/bstardust/htgen/pkg/common"
	"github.com/bstardust/htgen/pkg/s3client"
)

// MaxHashtags caps the list returned to callers
const MaxHashtags = 20

// ErrEmptyResponse is returned when the model answers without any text
var ErrEmptyResponse = errors.New("hashtag: model returned no text")

// Generator sends a prompt plus one image to a hosted multimodal model and
// returns its raw text answer
type Generator interface {
	Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// Image is the payload handed to the model
type Image struct {
	Data []byte
	// Filename and ContentType are hints used when the bytes cannot be sniffed
	Filename    string
	ContentType string
}

// Client turns images into hashtag lists
type Client struct {
	generator Generator
}

// NewClient creates a new hashtag client
func NewClient(generator Generator) *Client {
	return &Client{generator: generator}
}

// Hashtags asks the model once, without retries, and parses its answer.
// Failures come back as *common.GenerationError.
func (c *Client) Hashtags(ctx context.Context, prompt string, img Image) ([]string, error) {
	mimeType := DetectMIMEType(img)
	logger.Debug("Sending %d bytes (%s) to the model", len(img.Data), mimeType)

	text, err := c.generator.Generate(ctx, prompt, img.Data, mimeType)
	if err != nil {
		return nil, common.NewGenerationError(err)
	}

	tags := Parse(text)
	if len(tags) == 0 {
		return nil, common.NewGenerationError(ErrEmptyResponse)
	}
	return tags, nil
}

// Parse splits the model's answer on whitespace, prefixes '#' where missing and keeps
// at most MaxHashtags entries in the original order
func Parse(text string) []string {
	tags := make([]string, 0, MaxHashtags)
	for _, token := range strings.Fields(text) {
		if token == "#" {
			continue
		}
		if !strings.HasPrefix(token, "#") {
			token = "#" + token
		}
		tags = append(tags, token)
		if len(tags) == MaxHashtags {
			break
		}
	}
	return tags
}

// DetectMIMEType sniffs the image bytes, falling back to the declared content type
// and then to the file extension
func DetectMIMEType(img Image) string {
	if len(img.Data) > 0 {
		mt := mimetype.Detect(img.Data)
		if strings.HasPrefix(mt.String(), "image/") {
			return baseMIMEType(mt.String())
		}
	}
	if ct := baseMIMEType(img.ContentType); strings.HasPrefix(ct, "image/") {
		return ct
	}
	if img.Filename != "" {
		return s3client.DetectContentType(img.Filename)
	}
	return "application/octet-stream"
}

func baseMIMEType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(strings.ToLower(ct))
}
