// internal/api/settings_handlers.go
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/VeoPromptStudio/internal/config"
	"github.com/Corphon/VeoPromptStudio/internal/llm"
	"github.com/Corphon/VeoPromptStudio/internal/services"
	"github.com/Corphon/VeoPromptStudio/internal/utils"
)

// UpdateLLMRequest body of PUT /api/settings/llm. An empty api_key keeps the stored key.
type UpdateLLMRequest struct {
	Provider string            `json:"provider" binding:"required"`
	Model    string            `json:"model"`
	APIKey   string            `json:"api_key"`
	Config   map[string]string `json:"config"`
}

// GetSettings GET /api/settings
func (h *Handler) GetSettings(c *gin.Context) {
	cfg := config.GetCurrentConfig()

	h.Response.Success(c, gin.H{
		"llm_provider":        cfg.LLMProvider,
		"llm_model":           cfg.LLMModel,
		"has_api_key":         cfg.HasAPIKey(),
		"debug_mode":          cfg.DebugMode,
		"port":                cfg.Port,
		"access_gate_enabled": cfg.AccessGateEnabled,
		"rate_limit_rpm":      cfg.RateLimitRPM,
		"generation_timeout":  cfg.GenerationTimeout.String(),
		"providers":           llm.ListProviders(),
	})
}

// UpdateLLMSettings PUT /api/settings/llm
func (h *Handler) UpdateLLMSettings(c *gin.Context) {
	var req UpdateLLMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	provider := strings.TrimSpace(req.Provider)
	if !providerRegistered(provider) {
		h.Response.Error(c, http.StatusBadRequest, ErrorLLMConfigInvalid, "unsupported LLM provider: "+provider)
		return
	}

	cfg, err := h.ConfigService.UpdateLLMConfig(provider, strings.TrimSpace(req.Model),
		strings.TrimSpace(req.APIKey), req.Config, changedBy(c))
	switch {
	case errors.Is(err, services.ErrConfigNotApplied):
		h.Response.Error(c, http.StatusBadRequest, ErrorLLMConfigInvalid,
			"settings saved, but the provider could not be initialized", err.Error())
		return
	case err != nil:
		h.Response.AppError(c, err, ErrorLLMConfigInvalid)
		return
	}

	if !cfg.HasAPIKey() {
		h.Response.Success(c, h.LLMService.Status(), "settings saved, API key still missing")
		return
	}

	utils.GetLogger().Info("LLM provider updated", map[string]interface{}{
		"provider": cfg.LLMProvider,
		"model":    cfg.LLMModel,
	})
	h.Response.Success(c, h.LLMService.Status(), "LLM settings updated")
}

// GetSettingsHistory GET /api/settings/history?limit=N
func (h *Handler) GetSettingsHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	h.Response.Success(c, h.ConfigService.GetChangeHistory(limit))
}

// changedBy names the actor of a settings change: the session when unlocked, else the client IP
func changedBy(c *gin.Context) string {
	if session, ok := GetSessionFromContext(c); ok {
		return "session:" + session
	}
	return c.ClientIP()
}

// TestConnection POST /api/settings/test-connection
func (h *Handler) TestConnection(c *gin.Context) {
	if !h.LLMService.IsReady() {
		h.Response.Error(c, http.StatusServiceUnavailable, ErrorLLMServiceUnavailable,
			"LLM service not ready", h.LLMService.GetReadyState())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	start := time.Now()
	resp, err := h.LLMService.TestConnection(ctx)
	if err != nil {
		h.Response.Error(c, http.StatusBadGateway, ErrorConnectionFailed, "connection test failed", err.Error())
		return
	}

	h.Response.Success(c, gin.H{
		"provider":   h.LLMService.GetProviderName(),
		"model":      resp.ModelName,
		"latency_ms": time.Since(start).Milliseconds(),
		"status":     "connected",
	})
}

// GetLLMStatus GET /api/llm/status
func (h *Handler) GetLLMStatus(c *gin.Context) {
	h.Response.Success(c, h.LLMService.Status())
}

// GetLLMModels GET /api/llm/models[?provider=name]
// Without a provider the active provider's live list is returned.
func (h *Handler) GetLLMModels(c *gin.Context) {
	provider := strings.TrimSpace(c.Query("provider"))
	if provider == "" || provider == h.LLMService.GetProviderName() {
		models := h.LLMService.ListModels(c.Request.Context())
		h.Response.Success(c, gin.H{
			"provider": h.LLMService.GetProviderName(),
			"models":   models,
			"count":    len(models),
		})
		return
	}

	if !providerRegistered(provider) {
		h.Response.Error(c, http.StatusBadRequest, ErrorLLMConfigInvalid, "unsupported LLM provider: "+provider)
		return
	}
	models := llm.GetSupportedModelsForProvider(provider)
	h.Response.Success(c, gin.H{
		"provider": provider,
		"models":   models,
		"count":    len(models),
	})
}

// GetMetrics GET /api/metrics
func (h *Handler) GetMetrics(c *gin.Context) {
	h.Response.Success(c, utils.GetMetricsCollector().Snapshot())
}

// GetStats GET /api/stats
func (h *Handler) GetStats(c *gin.Context) {
	h.Response.Success(c, h.StatsService.GetUsageStats())
}

// ResetStats DELETE /api/stats
func (h *Handler) ResetStats(c *gin.Context) {
	if err := h.StatsService.ResetStats(); err != nil {
		h.Response.AppError(c, err)
		return
	}
	h.Response.Success(c, h.StatsService.GetUsageStats())
}

func providerRegistered(name string) bool {
	for _, p := range llm.ListProviders() {
		if p == name {
			return true
		}
	}
	return false
}
