// internal/services/script_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Corphon/VeoPromptStudio/internal/errors"
	"github.com/Corphon/VeoPromptStudio/internal/llm"
	"github.com/Corphon/VeoPromptStudio/internal/models"
	"github.com/Corphon/VeoPromptStudio/internal/prompt"
)

const scriptReply = "```json\n" + `{
  "character": "Lan, một cô bé bán hoa",
  "setting": "Phố cổ Hà Nội",
  "plot": "Lan tìm lại chiếc ô bị mất",
  "atmosphere": "Ấm áp",
  "styleSuggestion": "Anime"
}` + "\n```"

func TestScriptGenerateParsesFencedJSON(t *testing.T) {
	provider := &fakeProvider{reply: scriptReply}
	history := newTestHistory(t, nil)
	svc := NewScriptService(newTestLLM(provider), history, time.Second)

	result, err := svc.Generate(context.Background(), "cô bé bán hoa", nil)
	require.NoError(t, err)

	assert.Equal(t, "Phố cổ Hà Nội", result.Script.Setting)
	assert.Equal(t, models.StyleAnime, result.SuggestedStyle)
	assert.Contains(t, result.Formatted, "Nhân vật:\nLan, một cô bé bán hoa\n\nBối cảnh:\nPhố cổ Hà Nội")

	sent := provider.lastRequest()
	assert.Equal(t, "application/json", sent.ResponseMIMEType)
	require.NotNil(t, sent.ResponseSchema)
	assert.Equal(t, prompt.ScriptTemperature, sent.Temperature)

	items, err := history.List(context.Background(), models.HistoryTypeScript)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, result.Formatted, items[0].Prompt)
	assert.Equal(t, result.HistoryID, items[0].ID)
}

func TestScriptGenerateInputMissing(t *testing.T) {
	provider := &fakeProvider{reply: scriptReply}
	svc := NewScriptService(newTestLLM(provider), newTestHistory(t, nil), time.Second)

	_, err := svc.Generate(context.Background(), "  ", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsInputMissingError(err))
	assert.Equal(t, apperrors.MsgScriptInputMissing, err.Error())
	assert.EqualValues(t, 0, provider.calls.Load())
}

func TestScriptGenerateImageOnly(t *testing.T) {
	provider := &fakeProvider{reply: scriptReply}
	svc := NewScriptService(newTestLLM(provider), newTestHistory(t, nil), time.Second)

	image := &llm.InlineImage{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
	_, err := svc.Generate(context.Background(), "", image)
	require.NoError(t, err)

	sent := provider.lastRequest()
	require.Len(t, sent.Images, 1)
	assert.Equal(t, "image/png", sent.Images[0].MIMEType)
}

func TestScriptGenerateRejectsUnsupportedImage(t *testing.T) {
	provider := &fakeProvider{reply: scriptReply}
	svc := NewScriptService(newTestLLM(provider), newTestHistory(t, nil), time.Second)

	_, err := svc.Generate(context.Background(), "idea", &llm.InlineImage{MIMEType: "image/gif", Data: []byte("GIF89a")})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.MsgUnsupportedImage, appErr.Message)
	assert.EqualValues(t, 0, provider.calls.Load())
}

func TestScriptGenerateMalformedReply(t *testing.T) {
	provider := &fakeProvider{reply: "Sorry, I cannot help with that."}
	history := newTestHistory(t, nil)
	svc := NewScriptService(newTestLLM(provider), history, time.Second)

	_, err := svc.Generate(context.Background(), "idea", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsExternalCallError(err))
	assert.Contains(t, err.Error(), apperrors.MsgScriptFailed+": ")

	items, err := history.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestIsSupportedImageType(t *testing.T) {
	assert.True(t, IsSupportedImageType("image/jpeg"))
	assert.True(t, IsSupportedImageType(" IMAGE/WEBP "))
	assert.False(t, IsSupportedImageType("image/gif"))
}

func TestSanitizeLLMJSONResponse(t *testing.T) {
	assert.Equal(t, `{"a":1}`, SanitizeLLMJSONResponse("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, SanitizeLLMJSONResponse("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, SanitizeLLMJSONResponse(`  {"a":1} `))
}
