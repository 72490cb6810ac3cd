package hashtag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bstardust/htgen/internal/exif/exiftest"
	"github.com/bstardust/htgen/pkg/common"
)

// MockGenerator is a mock implementation of Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	args := m.Called(ctx, prompt, image, mimeType)
	return args.String(0), args.Error(1)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"already prefixed", "#sunset #beach #travel", []string{"#sunset", "#beach", "#travel"}},
		{"missing prefix", "sunset #beach travel", []string{"#sunset", "#beach", "#travel"}},
		{"extra whitespace", "  #a\n\n#b\t c  ", []string{"#a", "#b", "#c"}},
		{"bare hash dropped", "# #a #", []string{"#a"}},
		{"empty", "   ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestParseCapsAtMax(t *testing.T) {
	var tokens []string
	for i := 0; i < 35; i++ {
		tokens = append(tokens, fmt.Sprintf("tag%d", i))
	}

	tags := Parse(strings.Join(tokens, " "))

	require.Len(t, tags, MaxHashtags)
	assert.Equal(t, "#tag0", tags[0])
	assert.Equal(t, "#tag19", tags[MaxHashtags-1])
	for _, tag := range tags {
		assert.True(t, strings.HasPrefix(tag, "#"))
		assert.Greater(t, len(tag), 1)
	}
}

func TestHashtags(t *testing.T) {
	img := Image{Data: exiftest.PlainJPEG(), Filename: "photo.jpg"}
	gen := &MockGenerator{}
	gen.On("Generate", mock.Anything, "the prompt", img.Data, "image/jpeg").
		Return("#food pizza #napoli", nil).Once()

	tags, err := NewClient(gen).Hashtags(context.Background(), "the prompt", img)

	require.NoError(t, err)
	assert.Equal(t, []string{"#food", "#pizza", "#napoli"}, tags)
	gen.AssertExpectations(t)
}

func TestHashtagsGeneratorError(t *testing.T) {
	gen := &MockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("blocked by safety filters")).Once()

	_, err := NewClient(gen).Hashtags(context.Background(), "p", Image{Data: []byte("x")})

	var genErr *common.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.EqualError(t, err, "blocked by safety filters")
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestHashtagsEmptyAnswer(t *testing.T) {
	gen := &MockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(" \n ", nil)

	_, err := NewClient(gen).Hashtags(context.Background(), "p", Image{Data: []byte("x")})

	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestDetectMIMEType(t *testing.T) {
	assert.Equal(t, "image/jpeg", DetectMIMEType(Image{Data: exiftest.PlainJPEG()}))
	assert.Equal(t, "image/webp", DetectMIMEType(Image{Data: []byte("not an image"), ContentType: "image/webp; q=1"}))
	assert.Equal(t, "image/heic", DetectMIMEType(Image{Data: []byte("not an image"), Filename: "IMG_1.HEIC"}))
	assert.Equal(t, "application/octet-stream", DetectMIMEType(Image{}))
}
