package cli

import (
	"context"
	"fmt"

	"github.com/bstardust/htgen/internal/archive"
	"github.com/bstardust/htgen/internal/config"
	"github.com/bstardust/htgen/internal/geocode"
	"github.com/bstardust/htgen/internal/hashtag"
	"github.com/bstardust/htgen/internal/logger"
	"github.com/bstardust/htgen/internal/metadata"
	"github.com/bstardust/htgen/internal/tagger"
	"github.com/bstardust/htgen/pkg/s3client"
)

func newExtractor(cfg *config.Config) *metadata.Extractor {
	if !cfg.Geocode.Enabled {
		return metadata.NewExtractor(nil)
	}
	return metadata.NewExtractor(geocode.NewNominatim(geocode.Config{
		BaseURL:   cfg.Geocode.URL,
		UserAgent: cfg.Geocode.UserAgent,
		Delay:     cfg.Geocode.Delay,
		Timeout:   cfg.Geocode.Timeout,
	}))
}

func newArchive(ctx context.Context, cfg *config.Config) (archive.Archive, error) {
	switch {
	case cfg.Archive.Bucket != "":
		client, err := s3client.New(ctx, s3client.Config{
			Endpoint:  cfg.Archive.Endpoint,
			Region:    cfg.Archive.Region,
			Bucket:    cfg.Archive.Bucket,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			UseSSL:    cfg.Archive.UseSSL,
			Prefix:    cfg.Archive.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		logger.Info("Archiving uploads to bucket %s", client.GetBucketName())
		return archive.NewBucket(client), nil
	case cfg.Archive.Dir != "":
		logger.Info("Archiving uploads to %s", cfg.Archive.Dir)
		return archive.NewDir(cfg.Archive.Dir)
	default:
		return archive.Nop{}, nil
	}
}

// newTagger builds the full pipeline. The returned close func releases the model client.
func newTagger(ctx context.Context, cfg *config.Config) (*tagger.Tagger, func() error, error) {
	arch, err := newArchive(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	vertex, err := hashtag.NewVertex(ctx, hashtag.VertexConfig{
		Project:         cfg.Vertex.Project,
		Region:          cfg.Vertex.Region,
		Model:           cfg.Vertex.Model,
		CredentialsFile: cfg.Vertex.CredentialsFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize Vertex AI: %w", err)
	}

	t := tagger.New(newExtractor(cfg), hashtag.NewClient(vertex), arch)
	return t, vertex.Close, nil
}
