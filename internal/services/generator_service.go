// internal/services/generator_service.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/Corphon/VeoPromptStudio/internal/config"
	apperrors "github.com/Corphon/VeoPromptStudio/internal/errors"
	"github.com/Corphon/VeoPromptStudio/internal/llm"
	"github.com/Corphon/VeoPromptStudio/internal/models"
	"github.com/Corphon/VeoPromptStudio/internal/prompt"
	"github.com/Corphon/VeoPromptStudio/internal/segment"
	"github.com/Corphon/VeoPromptStudio/internal/utils"
)

// Completer is the part of LLMService the generators need
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
	GetProviderName() string
}

// ProgressFunc receives pipeline progress (0-100) with a short message
type ProgressFunc func(progress int, message string)

func noProgress(int, string) {}

// GeneratorService turns a GenerationRequest into a segmented Veo prompt
type GeneratorService struct {
	llm     Completer
	history *HistoryService
	timeout time.Duration
	metrics *utils.APIMetrics
	usage   UsageRecorder
}

// NewGeneratorService timeout bounds every model call; zero means the default
func NewGeneratorService(completer Completer, history *HistoryService, timeout time.Duration) *GeneratorService {
	if timeout <= 0 {
		timeout = config.DefaultGenerationTimeout
	}
	return &GeneratorService{
		llm:     completer,
		history: history,
		timeout: timeout,
		metrics: utils.NewAPIMetrics(),
		usage:   nopUsage{},
	}
}

// SetUsageRecorder counts successful generations in r
func (s *GeneratorService) SetUsageRecorder(r UsageRecorder) {
	if r != nil {
		s.usage = r
	}
}

// GenerateVeo runs the full pipeline: validate, compose, call, strip emphasis,
// segment, save to history
func (s *GeneratorService) GenerateVeo(ctx context.Context, req models.GenerationRequest) (*models.VeoResult, error) {
	return s.GenerateVeoWithProgress(ctx, req, nil)
}

// GenerateVeoWithProgress is GenerateVeo reporting each pipeline step
func (s *GeneratorService) GenerateVeoWithProgress(ctx context.Context, req models.GenerationRequest, report ProgressFunc) (*models.VeoResult, error) {
	if report == nil {
		report = noProgress
	}
	if !req.HasIdea() {
		return nil, apperrors.NewInputMissingError(apperrors.MsgVeoInputMissing)
	}

	report(10, "composing instruction")
	composed := prompt.ComposeVeo(req)

	report(30, "waiting for the model")
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.llm.Complete(callCtx, llm.CompletionRequest{
		SystemPrompt: composed.SystemInstruction,
		Prompt:       composed.UserContent,
		Temperature:  prompt.VeoTemperature,
		TopP:         prompt.VeoTopP,
	})
	if err != nil {
		appErr := callError(err, apperrors.MsgVeoFailed, apperrors.MsgVeoUnknown)
		s.metrics.RecordError("veo", string(appErr.Type))
		utils.GetLogger().Error("veo generation failed", map[string]interface{}{
			"error":    err.Error(),
			"provider": s.llm.GetProviderName(),
		})
		return nil, appErr
	}

	report(80, "splitting scenes")
	text := segment.StripEmphasis(resp.Text)
	segmented := segment.Segment(text)

	result := &models.VeoResult{
		Preamble: segmented.Preamble,
		Scenes:   segmented.Scenes,
		Seamless: segmented.Seamless,
		Raw:      text,
		Model:    resp.ModelName,
	}

	if item, err := s.history.Add(ctx, models.HistoryTypeVeo, segmented.Seamless); err != nil {
		utils.GetLogger().Warn("saving veo prompt to history failed", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		result.HistoryID = item.ID
	}

	s.usage.RecordGeneration(models.HistoryTypeVeo, resp.TokensUsed)
	s.metrics.RecordGeneration("veo", resp.ProviderName, resp.ModelName, resp.TokensUsed, time.Since(start))
	report(100, "done")
	return result, nil
}

// callError maps a provider failure onto the application taxonomy
func callError(err error, prefix, unknown string) *apperrors.AppError {
	if errors.Is(err, ErrLLMNotReady) {
		return apperrors.NewUnavailableError(apperrors.MsgLLMNotAvailable, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewAppError(apperrors.ErrorTypeTimeout, prefix, err)
	}
	return apperrors.NewExternalCallError(prefix, unknown, err)
}
