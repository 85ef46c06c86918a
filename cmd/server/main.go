// cmd/server/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Corphon/VeoPromptStudio/internal/app"
	"github.com/Corphon/VeoPromptStudio/internal/config"
	"github.com/Corphon/VeoPromptStudio/internal/utils"
)

func main() {
	log.Println("starting Veo Prompt Studio server...")

	// 1. base configuration from the environment
	baseConfig, err := config.Load()
	if err != nil {
		log.Fatalf("loading config failed: %v", err)
	}
	log.Printf("base config loaded, port: %s", baseConfig.Port)

	// 2. directories
	createDirectories(baseConfig)

	// 3. merged config (env + saved settings)
	if err := config.InitConfig(baseConfig.DataDir); err != nil {
		log.Fatalf("initializing config failed: %v", err)
	}
	cfg := config.GetCurrentConfig()

	if err := app.InitLogger(cfg); err != nil {
		log.Printf("warning: file logging disabled: %v", err)
	}
	defer utils.CloseLogger()

	// 4. services
	if err := app.InitServices(); err != nil {
		log.Fatalf("initializing services failed: %v", err)
	}
	application := app.GetApp()

	if err := application.HealthCheck(); err != nil {
		log.Fatalf("health check failed: %v", err)
	}
	log.Println("services initialized")

	// 5. serve until SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("listening on http://localhost:%s", cfg.Port)
	if err := application.Run(ctx); err != nil {
		log.Printf("server stopped with error: %v", err)
		utils.CloseLogger()
		os.Exit(1)
	}
	log.Println("server shut down cleanly")
}

func createDirectories(cfg *config.Config) {
	dirs := []string{
		cfg.DataDir,
		filepath.Join(cfg.DataDir, "history"),
		cfg.LogDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("creating directory %s failed: %v", dir, err)
		}
	}
}
