package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bstardust/htgen/internal/fshelper"
	"github.com/bstardust/htgen/internal/progress"
	"github.com/bstardust/htgen/internal/tagger"
	"github.com/bstardust/htgen/internal/worker"
	"github.com/bstardust/htgen/pkg/s3client"
)

type imageTagger interface {
	Tag(ctx context.Context, req tagger.Request) (tagger.Result, error)
}

type batchOptions struct {
	language    string
	topic       string
	concurrency int
}

// batchLine is one JSON line of batch output
type batchLine struct {
	File     string   `json:"file"`
	Hashtags []string `json:"hashtags,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func newBatchCommand(a *app) *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch [flags] <image|dir|zip|glob>...",
		Short: "Generate hashtags for many images, one JSON line per image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(opts.language) == "" {
				return fmt.Errorf("no language selected")
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			files, err := fshelper.Collect(args, extensionMatcher(a.cfg.Upload.AllowedExtensions))
			if err != nil {
				return err
			}
			defer files.Close()

			t, closeModel, err := newTagger(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeModel()

			return runBatch(cmd.Context(), t, files.Entries, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.language, "language", "l", "English", "Language of the hashtags")
	cmd.Flags().StringVarP(&opts.topic, "topic", "t", "", "Topic the hashtags must relate to")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 2, "Number of images tagged at once")

	return cmd
}

func runBatch(ctx context.Context, t imageTagger, entries []fshelper.Entry, opts *batchOptions, out io.Writer) error {
	pool := worker.NewPool(opts.concurrency)
	reporter := progress.New()
	reporter.Start(len(entries))

	lines := make([]batchLine, len(entries))
	for i, entry := range entries {
		i, entry := i, entry
		err := pool.Submit(ctx, func() {
			lines[i] = tagEntry(ctx, t, entry, opts)
			if lines[i].Error != "" {
				reporter.Error(entry.String(), errors.New(lines[i].Error))
			} else {
				reporter.Complete(entry.String())
			}
		})
		if err != nil {
			pool.Wait()
			return err
		}
	}
	pool.Wait()

	enc := json.NewEncoder(out)
	for _, line := range lines {
		if err := enc.Encode(line); err != nil {
			return err
		}
	}

	if s := reporter.Finish(); s.Failed > 0 {
		return fmt.Errorf("%d of %d images failed", s.Failed, s.Total)
	}
	return nil
}

func tagEntry(ctx context.Context, t imageTagger, entry fshelper.Entry, opts *batchOptions) batchLine {
	line := batchLine{File: entry.String()}

	data, err := entry.Read()
	if err != nil {
		line.Error = err.Error()
		return line
	}

	res, err := t.Tag(ctx, tagger.Request{
		Image:       data,
		Filename:    filepath.Base(entry.Name),
		ContentType: s3client.DetectContentType(entry.Name),
		Language:    opts.language,
		Topic:       opts.topic,
	})
	if err != nil {
		line.Error = err.Error()
		return line
	}
	line.Hashtags = res.Hashtags
	return line
}

func extensionMatcher(extensions []string) func(string) bool {
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return func(name string) bool {
		return allowed[strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))]
	}
}
