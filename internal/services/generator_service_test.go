// internal/services/generator_service_test.go
package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Corphon/VeoPromptStudio/internal/errors"
	"github.com/Corphon/VeoPromptStudio/internal/models"
	"github.com/Corphon/VeoPromptStudio/internal/prompt"
)

func veoRequest(idea string) models.GenerationRequest {
	return models.NewGenerationRequest(idea, "", "", "", "")
}

func TestGenerateVeoBlankIdeaMakesNoCall(t *testing.T) {
	provider := &fakeProvider{reply: "unused"}
	gen := NewGeneratorService(newTestLLM(provider), newTestHistory(t, nil), time.Second)

	for _, idea := range []string{"", "   ", "\n\t "} {
		_, err := gen.GenerateVeo(context.Background(), veoRequest(idea))
		require.Error(t, err)
		assert.True(t, apperrors.IsInputMissingError(err))
		assert.Equal(t, apperrors.MsgVeoInputMissing, err.Error())
	}
	assert.EqualValues(t, 0, provider.calls.Load())
}

func TestGenerateVeoSavesSeamlessPrompt(t *testing.T) {
	provider := &fakeProvider{reply: "C.\n**Scene 1:** A.\nScene 2: B."}
	history := newTestHistory(t, nil)
	gen := NewGeneratorService(newTestLLM(provider), history, time.Second)

	result, err := gen.GenerateVeo(context.Background(), veoRequest("a cat\nin the rain, at night!"))
	require.NoError(t, err)

	assert.Equal(t, "C.", result.Preamble)
	assert.Equal(t, []string{"Scene 1: A.", "Scene 2: B."}, result.Scenes)
	assert.Equal(t, "C. Scene 1: A.\n\nC. Scene 2: B.", result.Seamless)
	assert.NotContains(t, result.Raw, "**")
	assert.EqualValues(t, 1, provider.calls.Load())

	items, err := history.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, result.HistoryID, items[0].ID)
	assert.Equal(t, models.HistoryTypeVeo, items[0].Type)
	assert.Equal(t, "C. Scene 1: A.\n\nC. Scene 2: B.", items[0].Prompt)
}

func TestGenerateVeoSendsComposedInstruction(t *testing.T) {
	provider := &fakeProvider{reply: "Scene 1: A."}
	gen := NewGeneratorService(newTestLLM(provider), newTestHistory(t, nil), time.Second)

	req := veoRequest("a lighthouse keeper")
	_, err := gen.GenerateVeo(context.Background(), req)
	require.NoError(t, err)

	composed := prompt.ComposeVeo(req)
	sent := provider.lastRequest()
	assert.Equal(t, composed.SystemInstruction, sent.SystemPrompt)
	assert.Equal(t, composed.UserContent, sent.Prompt)
	assert.Equal(t, prompt.VeoTemperature, sent.Temperature)
	assert.Equal(t, prompt.VeoTopP, sent.TopP)
	assert.Equal(t, "fake-model", sent.Model)
}

func TestGenerateVeoProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("quota exceeded")}
	history := newTestHistory(t, nil)
	gen := NewGeneratorService(newTestLLM(provider), history, time.Second)

	_, err := gen.GenerateVeo(context.Background(), veoRequest("idea"))
	require.Error(t, err)
	assert.True(t, apperrors.IsExternalCallError(err))
	assert.Equal(t, "Đã xảy ra lỗi khi tạo prompt: quota exceeded", err.Error())

	items, err := history.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGenerateVeoProviderErrorWithoutMessage(t *testing.T) {
	provider := &fakeProvider{err: errors.New("")}
	gen := NewGeneratorService(newTestLLM(provider), newTestHistory(t, nil), time.Second)

	_, err := gen.GenerateVeo(context.Background(), veoRequest("idea"))
	require.Error(t, err)
	assert.Equal(t, apperrors.MsgVeoUnknown, err.Error())
}

func TestGenerateVeoNotConfigured(t *testing.T) {
	gen := NewGeneratorService(NewEmptyLLMService(), newTestHistory(t, nil), time.Second)

	_, err := gen.GenerateVeo(context.Background(), veoRequest("idea"))
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailableError(err))
}

func TestGenerateVeoReportsProgress(t *testing.T) {
	provider := &fakeProvider{reply: "Scene 1: A."}
	gen := NewGeneratorService(newTestLLM(provider), newTestHistory(t, nil), time.Second)

	var steps []int
	_, err := gen.GenerateVeoWithProgress(context.Background(), veoRequest("idea"), func(p int, _ string) {
		steps = append(steps, p)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 30, 80, 100}, steps)
}

func TestCallErrorTimeout(t *testing.T) {
	err := callError(context.DeadlineExceeded, apperrors.MsgVeoFailed, apperrors.MsgVeoUnknown)
	assert.Equal(t, apperrors.ErrorTypeTimeout, err.Type)
}
