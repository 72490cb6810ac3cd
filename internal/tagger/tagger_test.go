package tagger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bstardust/htgen/internal/archive"
	"github.com/bstardust/htgen/internal/exif/exiftest"
	"github.com/bstardust/htgen/internal/geocode"
	"github.com/bstardust/htgen/internal/hashtag"
	"github.com/bstardust/htgen/internal/metadata"
	"github.com/bstardust/htgen/pkg/common"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	args := m.Called(ctx, prompt, image, mimeType)
	return args.String(0), args.Error(1)
}

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Reverse(ctx context.Context, c geocode.Coordinates) (geocode.Place, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(geocode.Place), args.Error(1)
}

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Save(ctx context.Context, rec archive.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func TestTagWithLocationAndTopic(t *testing.T) {
	geo := &MockGeocoder{}
	geo.On("Reverse", mock.Anything, mock.Anything).Return(geocode.Place{City: "Santiago", Country: "Chile"}, nil)

	gen := &MockGenerator{}
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "the picture is taken in Santiago, Chile.") &&
			strings.Contains(p, "user-provided topic: wine.")
	}), mock.Anything, mock.Anything).Return("#vino #andes", nil).Once()

	arch := &MockArchive{}
	arch.On("Save", mock.Anything, mock.MatchedBy(func(rec archive.Record) bool {
		return rec.Filename == "pic.tiff" && rec.Topic == "wine" && len(rec.Hashtags) == 2
	})).Return(nil).Once()

	tg := New(metadata.NewExtractor(geo), hashtag.NewClient(gen), arch)
	img := exiftest.GPSTIFF("S", exiftest.DMS(33, 51, 54), "W", exiftest.DMS(70, 40, 12))

	res, err := tg.Tag(context.Background(), Request{Image: img, Filename: "pic.tiff", Language: "Spanish", Topic: " wine "})

	require.NoError(t, err)
	assert.Equal(t, []string{"#vino", "#andes"}, res.Hashtags)
	assert.Equal(t, "Santiago", res.Metadata.City)
	assert.Contains(t, res.Prompt, "The language of the hashtag must be: Spanish")
	gen.AssertExpectations(t)
	arch.AssertExpectations(t)
}

func TestTagWithoutExtractor(t *testing.T) {
	gen := &MockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("#cat", nil)

	res, err := New(nil, hashtag.NewClient(gen), nil).Tag(context.Background(), Request{
		Image:    exiftest.PlainJPEG(),
		Filename: "cat.jpg",
		Language: "English",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"#cat"}, res.Hashtags)
	assert.NotContains(t, res.Prompt, "taken in")
	assert.NotContains(t, res.Prompt, "topic")
}

func TestTagGenerationErrorSkipsArchive(t *testing.T) {
	gen := &MockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))
	arch := &MockArchive{}

	_, err := New(nil, hashtag.NewClient(gen), arch).Tag(context.Background(), Request{Image: []byte("x"), Language: "en"})

	var genErr *common.GenerationError
	assert.ErrorAs(t, err, &genErr)
	arch.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestTagArchiveFailureIsNotFatal(t *testing.T) {
	gen := &MockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("#ok", nil)
	arch := &MockArchive{}
	arch.On("Save", mock.Anything, mock.Anything).Return(errors.New("bucket unreachable"))

	tg := New(nil, hashtag.NewClient(gen), arch)
	tg.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	res, err := tg.Tag(context.Background(), Request{Image: []byte("x"), Filename: "a.png", Language: "en"})

	require.NoError(t, err)
	assert.Equal(t, []string{"#ok"}, res.Hashtags)
	rec := arch.Calls[0].Arguments.Get(1).(archive.Record)
	assert.Equal(t, "20240102_030405_a.png", rec.ObjectName())
}
