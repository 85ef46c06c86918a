// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/Corphon/VeoPromptStudio/internal/api"
	"github.com/Corphon/VeoPromptStudio/internal/config"
	"github.com/Corphon/VeoPromptStudio/internal/di"
	"github.com/Corphon/VeoPromptStudio/internal/events"
	"github.com/Corphon/VeoPromptStudio/internal/services"
	"github.com/Corphon/VeoPromptStudio/internal/storage"
	"github.com/Corphon/VeoPromptStudio/internal/utils"

	// provider registrations
	_ "github.com/Corphon/VeoPromptStudio/internal/llm/providers/gemini"
	_ "github.com/Corphon/VeoPromptStudio/internal/llm/providers/google"
)

const (
	shutdownTimeout         = 30 * time.Second
	jobCleanupInterval      = 10 * time.Minute
	metricsReportInterval   = 5 * time.Minute
	readHeaderTimeout       = 10 * time.Second
	criticalServicesMissing = "critical service not registered: %s"
)

var criticalServices = []string{
	di.ServiceLLM,
	di.ServiceHistory,
	di.ServiceGenerator,
	di.ServiceScript,
	di.ServiceJobs,
	di.ServiceAccess,
	di.ServiceTokens,
	di.ServiceStats,
	di.ServiceConfig,
}

// App owns the service graph and the HTTP server lifecycle
type App struct {
	config    *config.AppConfig
	container *di.Container
	publisher events.Publisher
	jobs      *services.JobService
	stats     *services.StatsService
	wsManager *api.WebSocketManager

	server   *http.Server
	stopChan chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
}

var (
	instance   *App
	instanceMu sync.Mutex
)

// GetApp returns the process-wide application
func GetApp() *App {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance == nil {
		instance = New()
	}
	return instance
}

func New() *App {
	return &App{
		wsManager: api.NewWebSocketManager(),
		stopChan:  make(chan struct{}),
	}
}

// InitServices builds the service graph into the global container from the current config
func InitServices() error {
	return GetApp().Initialize(di.GetContainer(), config.GetCurrentConfig())
}

// InitLogger opens logs/server_<date>.log and applies LOG_LEVEL
func InitLogger(cfg *config.AppConfig) error {
	logFile := filepath.Join(cfg.LogDir, fmt.Sprintf("server_%s.log", time.Now().Format("2006-01-02")))
	if err := utils.InitLogger(logFile); err != nil {
		return err
	}
	utils.GetLogger().SetLogLevel(utils.ParseLogLevel(cfg.LogLevel))
	return nil
}

// Initialize creates every service in dependency order and registers it in container
func (a *App) Initialize(container *di.Container, cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	logger := utils.GetLogger()

	fileStorage, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	container.Register(di.ServiceStorage, fileStorage)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			logger.Warn("NATS unavailable, history events disabled", map[string]interface{}{
				"url":   cfg.NATSURL,
				"error": err.Error(),
			})
		} else {
			publisher = natsPublisher
		}
	}
	a.publisher = publisher
	container.Register(di.ServicePublisher, publisher)

	llmService, err := services.NewLLMService()
	if err != nil {
		logger.Warn("LLM service unavailable, starting in standby", map[string]interface{}{
			"error": err.Error(),
		})
		llmService = services.NewEmptyLLMService()
	}
	container.Register(di.ServiceLLM, llmService)

	configService := services.NewConfigService()
	configService.SubscribeToChanges(llmService)
	container.Register(di.ServiceConfig, configService)

	history := services.NewHistoryService(fileStorage, publisher)
	container.Register(di.ServiceHistory, history)

	a.stats = services.NewStatsService(fileStorage)
	container.Register(di.ServiceStats, a.stats)

	generator := services.NewGeneratorService(llmService, history, cfg.GenerationTimeout)
	generator.SetUsageRecorder(a.stats)
	container.Register(di.ServiceGenerator, generator)

	script := services.NewScriptService(llmService, history, cfg.GenerationTimeout)
	script.SetUsageRecorder(a.stats)
	container.Register(di.ServiceScript, script)

	progress := services.NewProgressService()
	container.Register(di.ServiceProgress, progress)

	a.jobs = services.NewJobService(generator, progress)
	container.Register(di.ServiceJobs, a.jobs)

	access := services.NewAccessService(cfg.AccessKeysURL, cfg.AccessKeys)
	container.Register(di.ServiceAccess, access)

	tokens, err := api.NewTokenManagerFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init token manager: %w", err)
	}
	container.Register(di.ServiceTokens, tokens)

	a.config = cfg
	a.container = container

	logger.Info("services initialized", map[string]interface{}{
		"services":    len(container.GetNames()),
		"provider":    llmService.GetProviderName(),
		"llm_ready":   llmService.IsReady(),
		"access_gate": cfg.AccessGateEnabled,
		"nats":        cfg.NATSURL != "",
	})
	return nil
}

// HealthCheck verifies the services the router needs are registered
func (a *App) HealthCheck() error {
	container := a.GetDIContainer()
	if container == nil {
		return errors.New("app not initialized")
	}
	for _, name := range criticalServices {
		if !container.Has(name) {
			return fmt.Errorf(criticalServicesMissing, name)
		}
	}
	return nil
}

// Run serves HTTP on cfg.Port until ctx is done or Stop is called, then shuts down
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.container == nil {
		a.mu.Unlock()
		return errors.New("app not initialized")
	}
	router, err := api.SetupRouter(a.container, a.config, a.wsManager)
	if err != nil {
		a.mu.Unlock()
		return fmt.Errorf("setup router: %w", err)
	}
	a.server = &http.Server{
		Addr:              ":" + a.config.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	server := a.server
	a.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.wsManager.Run(runCtx)
	a.jobs.StartCleanup(runCtx, jobCleanupInterval)
	a.stats.StartPeriodicSave(runCtx)
	utils.NewAPIMetrics().StartMetricsCollection(runCtx, metricsReportInterval)

	serveErr := make(chan error, 1)
	go func() {
		utils.GetLogger().Infof("server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	case <-a.stopChan:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	return a.Shutdown(shutdownCtx)
}

// Stop asks Run to shut down
func (a *App) Stop() {
	a.stopOnce.Do(func() { close(a.stopChan) })
}

// Shutdown stops accepting requests, waits for running jobs and releases resources
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	server := a.server
	jobs := a.jobs
	stats := a.stats
	publisher := a.publisher
	a.mu.Unlock()

	var shutdownErr error
	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown: %w", err)
		}
	}
	a.wsManager.Shutdown()

	if jobs != nil {
		done := make(chan struct{})
		go func() {
			jobs.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			utils.GetLogger().Warn("shutdown timed out waiting for jobs", nil)
		}
	}

	if stats != nil {
		if err := stats.Flush(); err != nil {
			utils.GetLogger().Warn("flushing usage stats failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	if publisher != nil {
		publisher.Close()
	}
	if server != nil {
		utils.GetLogger().Infof("server on %s stopped", server.Addr)
	}
	return shutdownErr
}

func (a *App) GetConfig() *config.AppConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config
}

func (a *App) GetDIContainer() *di.Container {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.container
}

func (a *App) IsDebugMode() bool {
	cfg := a.GetConfig()
	return cfg != nil && cfg.DebugMode
}
