// Package cli is the terminal front end: one-shot analysis, an interactive
// follow-up chat and the HTTP server.
package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"triage-assistant/internal/domain"
	"triage-assistant/internal/metrics"
	"triage-assistant/internal/usecase"
)

// Triage runs the submit and ask pipelines. usecase.TriageService implements it.
type Triage interface {
	Submit(ctx context.Context, sess domain.Session, in usecase.SubmitInput) (domain.Session, error)
	Ask(ctx context.Context, sess domain.Session, question string) (domain.Session, error)
}

// Runtime holds what the commands need once configuration has been read.
type Runtime struct {
	Service  Triage
	Timeout  time.Duration
	IdleTTL  time.Duration
	Addr     string
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Recorder *metrics.Recorder
}

// Loader builds the Runtime. It runs inside each command so that --help works
// without credentials.
type Loader func(ctx context.Context) (*Runtime, error)

func NewRootCmd(load Loader, version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "triage",
		Short: "Symptom triage assistant",
		Long: `triage sends a symptom description and optional clinical context to a
language model and shows a ranked differential with follow-up questions.

It is not medical advice.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(
		newAnalyzeCmd(load),
		newChatCmd(load),
		newServeCmd(load),
		newVersionCmd(version),
	)
	return rootCmd
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("triage version %s\n", version)
		},
	}
}

func (rt *Runtime) logger() *slog.Logger {
	if rt.Logger == nil {
		return slog.Default()
	}
	return rt.Logger
}

// withTimeout bounds one oracle-backed operation.
func (rt *Runtime) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if rt.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, rt.Timeout)
}
