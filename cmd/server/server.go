package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"taskpilot/chat-api/internal/config"
	"taskpilot/chat-api/internal/infrastructure/logger"
	"taskpilot/chat-api/internal/infrastructure/observability"
)

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	appLogger := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Setup(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to set up tracing")
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			appLogger.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	app, err := buildApplication(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to build application")
	}

	if cfg.RetentionEnabled {
		go func() {
			if err := app.Sweeper.Run(ctx); err != nil {
				appLogger.Error().Err(err).Msg("retention sweeper stopped")
			}
		}()
	}

	if err := app.HTTPServer.Run(ctx); err != nil {
		appLogger.Fatal().Err(err).Msg("http server failed")
	}
	appLogger.Info().Msg("server stopped")
}

// loadEnvFiles loads optional dotenv files. Missing files are fine; real
// environments set variables directly.
func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
		}
	}
}
