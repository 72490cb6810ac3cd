package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bstardust/htgen/internal/tagger"
	"github.com/bstardust/htgen/pkg/s3client"
)

type tagOptions struct {
	language string
	topic    string
	asJSON   bool
}

func newTagCommand(a *app) *cobra.Command {
	opts := &tagOptions{}

	cmd := &cobra.Command{
		Use:   "tag [flags] <image>",
		Short: "Generate hashtags for a local image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTag(cmd.Context(), a, opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.language, "language", "l", "English", "Language of the hashtags")
	cmd.Flags().StringVarP(&opts.topic, "topic", "t", "", "Topic the hashtags must relate to")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print hashtags, metadata and prompt as JSON")

	return cmd
}

func runTag(ctx context.Context, a *app, opts *tagOptions, path string, out io.Writer) error {
	if strings.TrimSpace(opts.language) == "" {
		return fmt.Errorf("no language selected")
	}
	if !extensionMatcher(a.cfg.Upload.AllowedExtensions)(path) {
		return fmt.Errorf("file type not allowed: %s", filepath.Base(path))
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image file: %w", err)
	}

	t, closeModel, err := newTagger(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer closeModel()

	res, err := t.Tag(ctx, tagger.Request{
		Image:       data,
		Filename:    filepath.Base(path),
		ContentType: s3client.DetectContentType(path),
		Language:    opts.language,
		Topic:       opts.topic,
	})
	if err != nil {
		return fmt.Errorf("error analyzing image: %w", err)
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err = fmt.Fprintln(out, strings.Join(res.Hashtags, " "))
	return err
}
