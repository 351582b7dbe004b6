package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/strefethen/music-agent-go/internal/server"
	"github.com/strefethen/music-agent-go/internal/tools"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(app *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = app.cfg.Gateway.Addr()
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.serve(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default GATEWAY_HOST:GATEWAY_PORT)")
	return cmd
}

// serve runs the gateway until ctx is cancelled, then drains connections
// and stops background jobs.
func (a *App) serve(ctx context.Context, addr string) error {
	registry, err := a.registry(string(tools.ToolsetAll), false)
	if err != nil {
		return err
	}
	handler, shutdownHandler, err := server.NewHandler(a.cfg, server.Deps{
		Registry: registry,
		Sonos:    a.sonos("", 0, ""),
		Version:  a.Version,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("gateway listening", zap.String("addr", addr), zap.Int("tools", registry.Len()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		_ = shutdownHandler(context.Background())
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown error", zap.Error(err))
	}
	return shutdownHandler(shutdownCtx)
}
