package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/desertthunder/nextup/internal/metrics"
	"github.com/desertthunder/nextup/internal/services"
	"github.com/desertthunder/nextup/internal/shared"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load .env", "error", err)
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(defaultConfigPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(defaultConfigPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	config.ApplyEnv(os.Getenv)
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	if err := config.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}

	collector := metrics.New()
	httpClient := &http.Client{Timeout: config.Provider.Timeout()}

	var provider services.Provider
	if p, err := services.NewProvider(config.Provider, httpClient); err == nil {
		provider = services.NewGuard(p, services.GuardOpts{
			Timeout:   config.Provider.Timeout(),
			RateLimit: config.Provider.RateLimit,
			Burst:     config.Provider.Burst,
			Logger:    shared.WithLogger(logger, "component", "provider"),
			Metrics:   collector,
		})
	} else {
		logger.Warn("content provider not configured", "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: defaultConfigPath,
		Provider:   provider,
		HTTPClient: httpClient,
		Logger:     logger,
		Metrics:    collector,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "nextup",
		Usage:    "Music discovery: ranked search, up next queues and cached audio streams",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			runner.Close()
			logger.Fatalf("application error: %v", err)
		}
	}
}
