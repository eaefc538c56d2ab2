package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"triage-assistant/handler"
	"triage-assistant/internal/metrics"
	"triage-assistant/internal/sessions"
)

const shutdownGrace = 10 * time.Second

func newServeCmd(load Loader) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := load(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") || rt.Addr == "" {
				rt.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, rt)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address (overrides HTTP_ADDR)")
	return cmd
}

func serve(ctx context.Context, rt *Runtime) error {
	store := sessions.New(rt.IdleTTL)
	if rt.Registry != nil {
		metrics.RegisterSessionGauge(rt.Registry, store.Len)
	}

	h, err := handler.NewHandler(rt.Service, store,
		handler.WithTimeout(rt.Timeout),
		handler.WithLogger(rt.logger()),
	)
	if err != nil {
		return fmt.Errorf("cli: create handler: %w", err)
	}

	srv := &http.Server{
		Addr:              rt.Addr,
		Handler:           h.Router(rt.Recorder),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger().Info("http server listening", "addr", rt.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("cli: http server: %w", err)
	case <-ctx.Done():
	}

	rt.logger().Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("cli: shutdown: %w", err)
	}
	return nil
}
