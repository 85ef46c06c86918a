// internal/services/llm_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Corphon/VeoPromptStudio/internal/config"
	"github.com/Corphon/VeoPromptStudio/internal/llm"
	"github.com/Corphon/VeoPromptStudio/internal/utils"
)

// ErrLLMNotReady no provider is configured yet
var ErrLLMNotReady = errors.New("llm service not ready")

const (
	modelsCacheTTL = 10 * time.Minute
	modelsCacheKey = "models"
)

// LLMService owns the active provider and switches it at runtime
type LLMService struct {
	providerMutex sync.RWMutex
	provider      llm.Provider
	providerName  string
	defaultModel  string
	isReady       bool
	readyState    string

	// remote model listings per provider
	modelsCache *gocache.Cache
}

// ProviderStatus is reported by /api/llm/status
type ProviderStatus struct {
	Ready    bool   `json:"ready"`
	State    string `json:"state"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// NewLLMService initializes the provider from the current config. A missing key
// yields a service that is not ready instead of an error.
func NewLLMService() (*LLMService, error) {
	service := newBaseLLMService()

	cfg := config.GetCurrentConfig()
	if cfg.LLMProvider == "" {
		service.readyState = "LLM provider not configured"
		return service, nil
	}
	if !cfg.HasAPIKey() {
		service.providerName = cfg.LLMProvider
		service.readyState = "API key not configured"
		return service, nil
	}

	if err := service.UpdateProvider(cfg.LLMProvider, cfg.ProviderSettings()); err != nil {
		utils.GetLogger().Warn("LLM provider initialization failed", map[string]interface{}{
			"provider": cfg.LLMProvider,
			"error":    err.Error(),
		})
	}
	return service, nil
}

// NewLLMServiceWithProvider wraps an already initialized provider
func NewLLMServiceWithProvider(provider llm.Provider, defaultModel string) *LLMService {
	service := newBaseLLMService()
	service.provider = provider
	service.providerName = provider.GetName()
	service.defaultModel = defaultModel
	service.isReady = true
	service.readyState = "Ready"
	return service
}

// NewEmptyLLMService fallback when configuration failed entirely
func NewEmptyLLMService() *LLMService {
	service := newBaseLLMService()
	service.providerName = "empty"
	service.readyState = "Standby mode, configure the API key in settings"
	return service
}

func newBaseLLMService() *LLMService {
	return &LLMService{
		readyState:  "Uninitialized",
		modelsCache: gocache.New(modelsCacheTTL, 2*modelsCacheTTL),
	}
}

func (s *LLMService) IsReady() bool {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.provider != nil && s.isReady
}

func (s *LLMService) GetReadyState() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.readyState
}

// Status snapshot of the active provider
func (s *LLMService) Status() ProviderStatus {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return ProviderStatus{
		Ready:    s.provider != nil && s.isReady,
		State:    s.readyState,
		Provider: s.providerName,
		Model:    s.defaultModel,
	}
}

func (s *LLMService) GetProviderName() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.providerName
}

// GetDefaultModel model used when a request names none
func (s *LLMService) GetDefaultModel() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.defaultModel
}

// UpdateProvider replaces the active provider. On failure the previous provider
// is dropped and the service reports the error as its state.
func (s *LLMService) UpdateProvider(providerName string, settings map[string]string) error {
	provider, err := llm.GetProvider(providerName, settings)
	if err != nil {
		s.providerMutex.Lock()
		s.provider = nil
		s.providerName = providerName
		s.isReady = false
		s.readyState = fmt.Sprintf("Configuration failed: %v", err)
		s.providerMutex.Unlock()
		return err
	}

	s.providerMutex.Lock()
	s.provider = provider
	s.providerName = providerName
	s.defaultModel = strings.TrimSpace(settings["default_model"])
	s.isReady = true
	s.readyState = "Ready"
	s.providerMutex.Unlock()

	s.modelsCache.Flush()
	return nil
}

// OnConfigChanged follows saved settings; without a key the service stays not ready
func (s *LLMService) OnConfigChanged(_, newConfig *config.AppConfig) error {
	if !newConfig.HasAPIKey() {
		s.providerMutex.Lock()
		s.providerName = newConfig.LLMProvider
		s.isReady = false
		s.readyState = "API key not configured"
		s.providerMutex.Unlock()
		return nil
	}
	return s.UpdateProvider(newConfig.LLMProvider, newConfig.ProviderSettings())
}

func (s *LLMService) resolveModel(requested string) string {
	if trimmed := strings.TrimSpace(requested); trimmed != "" {
		return trimmed
	}
	s.providerMutex.RLock()
	provider, model := s.provider, s.defaultModel
	s.providerMutex.RUnlock()

	if model != "" {
		return model
	}
	if provider != nil {
		if models := provider.GetSupportedModels(); len(models) > 0 {
			return models[0]
		}
	}
	return config.DefaultModel
}

// Complete runs one completion on the active provider. No retries.
func (s *LLMService) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.providerMutex.RLock()
	provider, ready := s.provider, s.isReady
	s.providerMutex.RUnlock()

	if provider == nil || !ready {
		return nil, ErrLLMNotReady
	}

	req.Model = s.resolveModel(req.Model)
	return provider.CompleteText(ctx, req)
}

// ListModels returns the provider's models, refreshed from the remote API at
// most every modelsCacheTTL. A failed refresh falls back to the static list.
func (s *LLMService) ListModels(ctx context.Context) []string {
	s.providerMutex.RLock()
	provider, name := s.provider, s.providerName
	s.providerMutex.RUnlock()

	if provider == nil {
		return llm.GetSupportedModelsForProvider(name)
	}

	key := modelsCacheKey + ":" + name
	if cached, ok := s.modelsCache.Get(key); ok {
		return cached.([]string)
	}

	if err := provider.FetchAvailableModels(ctx); err != nil {
		utils.GetLogger().Warn("fetching model list failed", map[string]interface{}{
			"provider": name,
			"error":    err.Error(),
		})
		return provider.GetSupportedModels()
	}

	models := provider.GetSupportedModels()
	s.modelsCache.SetDefault(key, models)
	return models
}

// TestConnection sends a tiny prompt to verify the key and model
func (s *LLMService) TestConnection(ctx context.Context) (*llm.CompletionResponse, error) {
	return s.Complete(ctx, llm.CompletionRequest{
		Prompt:    "Reply with the single word: ok",
		MaxTokens: 16,
	})
}

// SanitizeLLMJSONResponse strips a surrounding ``` or ```json fence
func SanitizeLLMJSONResponse(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```"))
	if len(cleaned) >= 4 && strings.EqualFold(cleaned[:4], "json") {
		cleaned = cleaned[4:]
	}
	if idx := strings.LastIndex(cleaned, "```"); idx != -1 {
		cleaned = cleaned[:idx]
	}
	return strings.TrimSpace(cleaned)
}
