package gemini_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"example/vision-batch/internal/gemini"
)

func TestGetConfig(t *testing.T) {
	t.Parallel()

	cfg := gemini.GetConfig()
	require.NotNil(t, cfg.ResponseSchema)

	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	assert.Equal(t, genai.TypeObject, cfg.ResponseSchema.Type)
	assert.ElementsMatch(t, []string{"categories", "description", "color"}, cfg.ResponseSchema.Required)
	assert.Contains(t, cfg.ResponseSchema.Properties["description"].Properties, "captions")
}

func TestGetPrompt(t *testing.T) {
	t.Parallel()

	assert.Contains(t, gemini.GetPrompt("es"), `code "es"`)
	assert.Contains(t, gemini.GetPrompt(""), `code "en"`)
}
