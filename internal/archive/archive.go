// Package archive keeps a best-effort copy of each upload and the hashtags generated for it.
package archive

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bstardust/htgen/internal/logger"
	"github.com/bstardust/htgen/pkg/s3client"
)

// ErrCredentials means the bucket refused the configured keys
var ErrCredentials = errors.New("archive: bucket credentials rejected")

// Record is one processed upload
type Record struct {
	Filename    string
	ContentType string
	Data        []byte
	Hashtags    []string
	Topic       string
	CreatedAt   time.Time
}

// Archive stores records
type Archive interface {
	Save(ctx context.Context, rec Record) error
}

// ObjectName returns "<YYYYMMDD_HHMMSS>_<sanitized filename>"
func (r Record) ObjectName() string {
	ts := r.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.Format("20060102_150405") + "_" + SecureFilename(r.Filename)
}

// CSVName is the object name with its extension replaced by .csv
func (r Record) CSVName() string {
	name := r.ObjectName()
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".csv"
}

// CSV renders the hashtag summary: a header row and one data row
func (r Record) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"hashtags", "topic"}); err != nil {
		return nil, err
	}
	if err := w.Write([]string{strings.Join(r.Hashtags, " "), r.Topic}); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces a client-supplied name to a safe, flat file name
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean("/" + name))
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}

// Nop discards everything
type Nop struct{}

func (Nop) Save(context.Context, Record) error { return nil }

// Dir writes records into a local directory
type Dir struct {
	path string
}

// NewDir creates the directory if needed
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", path, err)
	}
	return &Dir{path: path}, nil
}

func (d *Dir) Save(ctx context.Context, rec Record) error {
	csvData, err := rec.CSV()
	if err != nil {
		return fmt.Errorf("failed to render csv: %w", err)
	}

	if err := os.WriteFile(filepath.Join(d.path, rec.ObjectName()), rec.Data, 0o644); err != nil {
		return fmt.Errorf("failed to save upload: %w", err)
	}
	if err := os.WriteFile(filepath.Join(d.path, rec.CSVName()), csvData, 0o644); err != nil {
		return fmt.Errorf("failed to save csv: %w", err)
	}

	logger.Debug("Archived %s in %s", rec.ObjectName(), d.path)
	return nil
}

// Bucket writes records to an S3-compatible bucket
type Bucket struct {
	client s3client.S3Interface
}

// NewBucket wraps an S3 client
func NewBucket(client s3client.S3Interface) *Bucket {
	return &Bucket{client: client}
}

func (b *Bucket) Save(ctx context.Context, rec Record) error {
	csvData, err := rec.CSV()
	if err != nil {
		return fmt.Errorf("failed to render csv: %w", err)
	}

	contentType := rec.ContentType
	if contentType == "" {
		contentType = s3client.DetectContentType(rec.Filename)
	}

	name := rec.ObjectName()
	exists, err := b.client.ObjectExists(ctx, name)
	if err != nil {
		logger.Warn("Could not check %s in %s: %s", name, b.client.GetBucketName(), s3client.FormatError(err))
	}
	if exists {
		logger.Debug("Object %s already archived, skipping upload", name)
	} else if err := b.client.UploadFile(ctx, bytes.NewReader(rec.Data), name, int64(len(rec.Data)), nil, contentType); err != nil {
		return b.uploadError(name, err)
	}

	csvName := rec.CSVName()
	if err := b.client.UploadFile(ctx, bytes.NewReader(csvData), csvName, int64(len(csvData)), nil, "text/csv"); err != nil {
		return b.uploadError(csvName, err)
	}

	return nil
}

func (b *Bucket) uploadError(name string, err error) error {
	if s3client.IsAuthError(err) {
		return fmt.Errorf("credentials rejected by bucket %s: %s: %w", b.client.GetBucketName(), s3client.FormatError(err), ErrCredentials)
	}
	return fmt.Errorf("upload %s to %s: %s", name, b.client.GetBucketName(), s3client.FormatError(err))
}
