package hashtag

import (
	"testing"

	"cloud.google.com/go/vertexai/genai"
	"github.com/stretchr/testify/assert"
)

func TestSafetySettingsBlockOnlyHigh(t *testing.T) {
	want := []genai.HarmCategory{
		genai.HarmCategoryHateSpeech,
		genai.HarmCategoryDangerousContent,
		genai.HarmCategoryHarassment,
		genai.HarmCategorySexuallyExplicit,
	}

	var got []genai.HarmCategory
	for _, s := range safetySettings {
		got = append(got, s.Category)
		assert.Equal(t, genai.HarmBlockOnlyHigh, s.Threshold, s.Category)
	}
	assert.ElementsMatch(t, want, got)
}
