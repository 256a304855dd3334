// Package main implements the entry point for the Bible AI API server,
// which serves Bible chat, daily verses and prayers, speech-to-text chat and
// text-to-speech clips on top of external AI backends.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vilisasu/bibleai-api/internal/config"
	"github.com/vilisasu/bibleai-api/internal/platform/logger"
)

// configPathEnv names an optional YAML config file.
const configPathEnv = "BIBLEAI_CONFIG_FILE"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// run loads configuration, builds the application and serves until ctx is
// canceled.
func run(ctx context.Context) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"llm_provider", cfg.LLM.Provider,
		"environment", cfg.App.Environment)

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		l.Error("Failed to initialize application", "error", err)
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}

// loadAppConfig reads configuration from the file named by
// BIBLEAI_CONFIG_FILE when set, and from the default search path otherwise.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(os.Getenv(configPathEnv))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
