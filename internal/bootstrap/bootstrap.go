// Package bootstrap wires configuration into the running components. Both
// entry points share it.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/prometheus/client_golang/prometheus"

	"triage-assistant/internal/config"
	"triage-assistant/internal/integrations/credentials"
	"triage-assistant/internal/integrations/openai"
	"triage-assistant/internal/metrics"
	"triage-assistant/internal/usecase"
)

const apiKeyEnv = "OPENAI_API_KEY"

type Components struct {
	Service  *usecase.TriageService
	Registry *prometheus.Registry
	Recorder *metrics.Recorder
}

// NewLogger builds the process logger. JSON is used for the server and Lambda,
// text for the terminal.
func NewLogger(w io.Writer, level slog.Level, asJSON bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// APIKey resolves the provider key once. A key in the environment wins over
// the SSM parameter.
func APIKey(ctx context.Context, cfg config.Config) (string, error) {
	if cfg.APIKey != "" {
		return credentials.ResolveAPIKey(ctx, credentials.EnvSource{}, apiKeyEnv)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("bootstrap: load AWS config: %w", err)
	}
	src, err := credentials.NewSSMSource(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return "", fmt.Errorf("bootstrap: create SSM source: %w", err)
	}
	return credentials.ResolveAPIKey(ctx, src, cfg.APIKeyParam)
}

// Build resolves credentials and assembles the triage service with metrics
// attached.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Components, error) {
	apiKey, err := APIKey(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return assemble(apiKey, cfg, logger)
}

func assemble(apiKey string, cfg config.Config, logger *slog.Logger) (*Components, error) {
	client, err := openai.NewClient(apiKey, openai.WithBaseURL(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create OpenAI client: %w", err)
	}

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)

	svc, err := usecase.NewTriageService(client, cfg.Model, cfg.MaxInputLength,
		usecase.WithObserver(rec),
		usecase.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create triage service: %w", err)
	}
	return &Components{Service: svc, Registry: reg, Recorder: rec}, nil
}
