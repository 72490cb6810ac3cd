// Package tagger runs the full pipeline for one image: metadata, prompt, model call, archive.
package tagger

import (
	"context"
	"strings"
	"time"

	"github.com/bstardust/htgen/internal/archive"
	"github.com/bstardust/htgen/internal/hashtag"
	"github.com/bstardust/htgen/internal/logger"
	"github.com/bstardust/htgen/internal/metadata"
	"github.com/bstardust/htgen/internal/prompt"
)

// Request is a single image to tag
type Request struct {
	Image       []byte
	Filename    string
	ContentType string
	Language    string
	Topic       string
}

// Result holds the hashtags and what they were generated from
type Result struct {
	Hashtags []string               `json:"hashtags"`
	Metadata metadata.ImageMetadata `json:"metadata"`
	Prompt   string                 `json:"prompt"`
}

// Tagger wires the pipeline stages together
type Tagger struct {
	extractor *metadata.Extractor
	client    *hashtag.Client
	archive   archive.Archive
	now       func() time.Time
}

// New creates a Tagger. A nil extractor skips metadata, a nil archive disables archiving.
func New(extractor *metadata.Extractor, client *hashtag.Client, arch archive.Archive) *Tagger {
	if arch == nil {
		arch = archive.Nop{}
	}
	return &Tagger{
		extractor: extractor,
		client:    client,
		archive:   arch,
		now:       time.Now,
	}
}

// Tag generates hashtags for the image. Only model failures are returned as errors.
func (t *Tagger) Tag(ctx context.Context, req Request) (Result, error) {
	var res Result

	if t.extractor != nil {
		res.Metadata = t.extractor.FromBytes(ctx, req.Image)
	}

	res.Prompt = prompt.Build(req.Language, req.Topic, res.Metadata.Place())
	logger.Debug("Prompt: %s", res.Prompt)

	tags, err := t.client.Hashtags(ctx, res.Prompt, hashtag.Image{
		Data:        req.Image,
		Filename:    req.Filename,
		ContentType: req.ContentType,
	})
	if err != nil {
		logger.Error("Failed to generate hashtags for %s: %v", req.Filename, err)
		return res, err
	}
	res.Hashtags = tags
	logger.Info("Generated %d hashtags for %s", len(tags), req.Filename)

	rec := archive.Record{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Data:        req.Image,
		Hashtags:    tags,
		Topic:       strings.TrimSpace(req.Topic),
		CreatedAt:   t.now(),
	}
	if err := t.archive.Save(ctx, rec); err != nil {
		logger.Warn("Failed to archive %s: %v", req.Filename, err)
	}

	return res, nil
}
