// internal/llm/providers/gemini/gemini_test.go
package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/Corphon/VeoPromptStudio/internal/llm"
)

func TestRegistered(t *testing.T) {
	assert.Contains(t, llm.ListProviders(), ProviderName)
	assert.Contains(t, llm.GetSupportedModelsForProvider(ProviderName), "gemini-2.5-flash")
}

func TestInitializeRequiresKey(t *testing.T) {
	_, err := llm.GetProvider(ProviderName, map[string]string{})
	assert.Error(t, err)
}

func TestCompleteTextBeforeInitialize(t *testing.T) {
	p := &Provider{}
	_, err := p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "x"})
	assert.Error(t, err)
}

func TestBuildConfig(t *testing.T) {
	cfg := buildConfig(llm.CompletionRequest{
		SystemPrompt:     "sys",
		Temperature:      0.9,
		TopP:             0.95,
		ResponseMIMEType: "application/json",
		ResponseSchema: &llm.Schema{
			Type:     llm.TypeObject,
			Required: []string{"plot"},
			Properties: map[string]*llm.Schema{
				"plot": {Type: llm.TypeString, Description: "d"},
			},
		},
	})

	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "sys", cfg.SystemInstruction.Parts[0].Text)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.9, *cfg.Temperature, 0.0001)
	require.NotNil(t, cfg.TopP)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	require.NotNil(t, cfg.ResponseSchema)
	assert.Equal(t, genai.TypeObject, cfg.ResponseSchema.Type)
	assert.Equal(t, genai.TypeString, cfg.ResponseSchema.Properties["plot"].Type)
	assert.Equal(t, []string{"plot"}, cfg.ResponseSchema.Required)
}

func TestBuildConfigSchemaNeedsJSON(t *testing.T) {
	cfg := buildConfig(llm.CompletionRequest{
		ResponseMIMEType: "text/plain",
		ResponseSchema:   &llm.Schema{Type: llm.TypeObject},
	})
	assert.Nil(t, cfg.ResponseSchema)
	assert.Nil(t, cfg.Temperature)
	assert.Nil(t, cfg.SystemInstruction)
}

func TestBuildContentsWithImage(t *testing.T) {
	contents := buildContents(llm.CompletionRequest{
		Prompt: "idea",
		Images: []llm.InlineImage{{MIMEType: "image/webp", Data: []byte("img")}},
	})

	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].Role)
	require.Len(t, contents[0].Parts, 2)
	assert.Equal(t, "idea", contents[0].Parts[0].Text)
	require.NotNil(t, contents[0].Parts[1].InlineData)
	assert.Equal(t, "image/webp", contents[0].Parts[1].InlineData.MIMEType)
}
