package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"triage-assistant/handler"
	"triage-assistant/internal/bootstrap"
	"triage-assistant/internal/config"
	"triage-assistant/internal/sessions"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("failed to read configuration", "err", err)
		os.Exit(1)
	}
	logger := bootstrap.NewLogger(os.Stderr, cfg.LogLevel, true)
	slog.SetDefault(logger)

	// ---- Clients ----
	components, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build triage service", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	// Sessions live in the warm container's memory.
	store := sessions.New(cfg.SessionIdleTTL)
	h, err := handler.NewHandler(components.Service, store,
		handler.WithTimeout(cfg.ModelTimeout),
		handler.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
