// internal/services/script_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Corphon/VeoPromptStudio/internal/config"
	apperrors "github.com/Corphon/VeoPromptStudio/internal/errors"
	"github.com/Corphon/VeoPromptStudio/internal/llm"
	"github.com/Corphon/VeoPromptStudio/internal/models"
	"github.com/Corphon/VeoPromptStudio/internal/prompt"
	"github.com/Corphon/VeoPromptStudio/internal/utils"
)

// MaxImageBytes upper bound of an uploaded reference image
const MaxImageBytes = 10 << 20

var supportedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// IsSupportedImageType reports whether mime is png, jpeg or webp
func IsSupportedImageType(mime string) bool {
	return supportedImageTypes[strings.ToLower(strings.TrimSpace(mime))]
}

// ScriptService writes a short structured script from an idea and/or an image
type ScriptService struct {
	llm     Completer
	history *HistoryService
	timeout time.Duration
	metrics *utils.APIMetrics
	usage   UsageRecorder
}

func NewScriptService(completer Completer, history *HistoryService, timeout time.Duration) *ScriptService {
	if timeout <= 0 {
		timeout = config.DefaultGenerationTimeout
	}
	return &ScriptService{
		llm:     completer,
		history: history,
		timeout: timeout,
		metrics: utils.NewAPIMetrics(),
		usage:   nopUsage{},
	}
}

func (s *ScriptService) SetUsageRecorder(r UsageRecorder) {
	if r != nil {
		s.usage = r
	}
}

// Generate asks the model for a JSON script, formats it and saves it to history
func (s *ScriptService) Generate(ctx context.Context, idea string, image *llm.InlineImage) (*models.ScriptResult, error) {
	if strings.TrimSpace(idea) == "" && image == nil {
		return nil, apperrors.NewInputMissingError(apperrors.MsgScriptInputMissing)
	}

	req := llm.CompletionRequest{
		Temperature:      prompt.ScriptTemperature,
		TopP:             prompt.ScriptTopP,
		ResponseMIMEType: "application/json",
		ResponseSchema:   prompt.ScriptSchema(),
	}
	if image != nil {
		if !IsSupportedImageType(image.MIMEType) {
			return nil, apperrors.NewValidationError(apperrors.MsgUnsupportedImage, nil)
		}
		if len(image.Data) == 0 || len(image.Data) > MaxImageBytes {
			return nil, apperrors.NewValidationError(apperrors.MsgUnsupportedImage,
				fmt.Errorf("image size %d bytes", len(image.Data)))
		}
		req.Images = []llm.InlineImage{*image}
	}

	composed := prompt.ComposeScript(idea)
	req.SystemPrompt = composed.SystemInstruction
	req.Prompt = composed.UserContent

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.llm.Complete(callCtx, req)
	if err != nil {
		appErr := callError(err, apperrors.MsgScriptFailed, apperrors.MsgScriptUnknown)
		s.metrics.RecordError("script", string(appErr.Type))
		utils.GetLogger().Error("script generation failed", map[string]interface{}{
			"error":     err.Error(),
			"has_image": image != nil,
		})
		return nil, appErr
	}

	script, err := ParseScript(resp.Text)
	if err != nil {
		s.metrics.RecordError("script", string(apperrors.ErrorTypeExternalCall))
		utils.GetLogger().Error("script response is not valid JSON", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, apperrors.NewExternalCallError(apperrors.MsgScriptFailed, apperrors.MsgScriptUnknown, err)
	}

	result := &models.ScriptResult{
		Script:    script,
		Formatted: script.Format(),
	}
	if style, ok := script.SuggestedStyle(); ok {
		result.SuggestedStyle = style
	}

	if item, err := s.history.Add(ctx, models.HistoryTypeScript, result.Formatted); err != nil {
		utils.GetLogger().Warn("saving script to history failed", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		result.HistoryID = item.ID
	}

	s.usage.RecordGeneration(models.HistoryTypeScript, resp.TokensUsed)
	s.metrics.RecordGeneration("script", resp.ProviderName, resp.ModelName, resp.TokensUsed, time.Since(start))
	return result, nil
}

// ParseScript decodes a model reply, tolerating a ```json fence around it
func ParseScript(raw string) (models.Script, error) {
	var script models.Script
	if err := json.Unmarshal([]byte(SanitizeLLMJSONResponse(raw)), &script); err != nil {
		return models.Script{}, fmt.Errorf("malformed script response: %w", err)
	}
	return script, nil
}
