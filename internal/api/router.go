// internal/api/router.go
package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/VeoPromptStudio/internal/auth"
	"github.com/Corphon/VeoPromptStudio/internal/config"
	"github.com/Corphon/VeoPromptStudio/internal/di"
	"github.com/Corphon/VeoPromptStudio/internal/services"
	"github.com/Corphon/VeoPromptStudio/internal/utils"
)

// Dependencies everything the router serves
type Dependencies struct {
	LLM       *services.LLMService
	Generator *services.GeneratorService
	Script    *services.ScriptService
	History   *services.HistoryService
	Jobs      *services.JobService
	Access    *services.AccessService
	Tokens    *auth.TokenManager
	Stats     *services.StatsService
	Config    *services.ConfigService
	WebSocket *WebSocketManager

	GateEnabled  bool
	RateLimitRPM int
	DebugMode    bool
}

// SetupRouter builds the router from the services registered in container
func SetupRouter(container *di.Container, cfg *config.AppConfig, wsManager *WebSocketManager) (*gin.Engine, error) {
	deps := Dependencies{
		WebSocket:    wsManager,
		GateEnabled:  cfg.AccessGateEnabled,
		RateLimitRPM: cfg.RateLimitRPM,
		DebugMode:    cfg.DebugMode,
	}

	var err error
	if deps.LLM, err = di.Resolve[*services.LLMService](container, di.ServiceLLM); err != nil {
		return nil, err
	}
	if deps.Generator, err = di.Resolve[*services.GeneratorService](container, di.ServiceGenerator); err != nil {
		return nil, err
	}
	if deps.Script, err = di.Resolve[*services.ScriptService](container, di.ServiceScript); err != nil {
		return nil, err
	}
	if deps.History, err = di.Resolve[*services.HistoryService](container, di.ServiceHistory); err != nil {
		return nil, err
	}
	if deps.Jobs, err = di.Resolve[*services.JobService](container, di.ServiceJobs); err != nil {
		return nil, err
	}
	if deps.Access, err = di.Resolve[*services.AccessService](container, di.ServiceAccess); err != nil {
		return nil, err
	}
	if deps.Tokens, err = di.Resolve[*auth.TokenManager](container, di.ServiceTokens); err != nil {
		return nil, err
	}
	if deps.Stats, err = di.Resolve[*services.StatsService](container, di.ServiceStats); err != nil {
		return nil, err
	}
	if deps.Config, err = di.Resolve[*services.ConfigService](container, di.ServiceConfig); err != nil {
		return nil, err
	}

	if deps.GateEnabled && !deps.Access.Enabled() {
		return nil, fmt.Errorf("access gate enabled but neither ACCESS_KEYS_URL nor ACCESS_KEYS is set")
	}

	return NewRouter(deps), nil
}

// NewRouter wires middleware and routes
func NewRouter(deps Dependencies) *gin.Engine {
	if !deps.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.WebSocket == nil {
		deps.WebSocket = NewWebSocketManager()
	}
	if deps.Config == nil {
		deps.Config = services.NewConfigService()
		deps.Config.SubscribeToChanges(deps.LLM)
	}

	wsHandler := NewWebSocketHandler(deps.Jobs, deps.WebSocket)
	handler := &Handler{
		LLMService:       deps.LLM,
		GeneratorService: deps.Generator,
		ScriptService:    deps.Script,
		HistoryService:   deps.History,
		JobService:       deps.Jobs,
		AccessService:    deps.Access,
		Tokens:           deps.Tokens,
		StatsService:     deps.Stats,
		ConfigService:    deps.Config,
		WebSocketHandler: wsHandler,
		Response:         NewResponseHelper(),
		startedAt:        time.Now(),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger(utils.NewAPIMetrics()))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())

	r.GET("/health", handler.Health)

	requireSession := AuthMiddleware(deps.Tokens, deps.GateEnabled)
	limiter := NewRateLimiter(deps.RateLimitRPM)

	r.GET("/ws/jobs/:id", requireSession, wsHandler.JobWebSocket)

	api := r.Group("/api")
	{
		api.GET("/options", handler.GetOptions)
		api.GET("/llm/status", handler.GetLLMStatus)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/unlock", RateLimitByIP(NewRateLimiter(10)), handler.Unlock)
			authGroup.POST("/logout", handler.Logout)
		}

		protected := api.Group("", requireSession)

		veo := protected.Group("/veo")
		{
			veo.POST("/generate", RateLimitByIP(limiter), handler.GenerateVeo)
			veo.POST("/jobs", RateLimitByIP(limiter), handler.StartVeoJob)
			veo.POST("/segment", handler.SegmentText)
			veo.POST("/download", handler.DownloadText)
		}

		protected.POST("/script/generate", RateLimitByIP(limiter), handler.GenerateScript)

		jobs := protected.Group("/jobs")
		{
			jobs.GET("/:id", handler.GetJob)
			jobs.GET("/:id/progress", handler.SubscribeJobProgress)
		}

		history := protected.Group("/history")
		{
			history.GET("", handler.ListHistory)
			history.DELETE("", handler.ClearHistory)
			history.GET("/:id", handler.GetHistoryItem)
			history.GET("/:id/download", handler.DownloadHistoryItem)
			history.DELETE("/:id", handler.DeleteHistoryItem)
		}

		settings := protected.Group("/settings")
		{
			settings.GET("", handler.GetSettings)
			settings.PUT("/llm", handler.UpdateLLMSettings)
			settings.POST("/test-connection", handler.TestConnection)
			settings.GET("/history", handler.GetSettingsHistory)
		}

		protected.GET("/llm/models", handler.GetLLMModels)
		protected.GET("/metrics", handler.GetMetrics)
		if deps.Stats != nil {
			protected.GET("/stats", handler.GetStats)
			protected.DELETE("/stats", handler.ResetStats)
		}
		protected.GET("/ws/status", wsHandler.Status)
	}

	return r
}
