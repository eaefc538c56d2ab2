package main

import (
	"context"
	"fmt"
	"os"

	"triage-assistant/internal/bootstrap"
	"triage-assistant/internal/cli"
	"triage-assistant/internal/config"
)

var (
	version = "dev" // Overwritten at build time
)

func main() {
	rootCmd := cli.NewRootCmd(load, version)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func load(ctx context.Context) (*cli.Runtime, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	logger := bootstrap.NewLogger(os.Stderr, cfg.LogLevel, len(os.Args) > 1 && os.Args[1] == "serve")

	components, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &cli.Runtime{
		Service:  components.Service,
		Timeout:  cfg.ModelTimeout,
		IdleTTL:  cfg.SessionIdleTTL,
		Addr:     cfg.HTTPAddr,
		Logger:   logger,
		Registry: components.Registry,
		Recorder: components.Recorder,
	}, nil
}
