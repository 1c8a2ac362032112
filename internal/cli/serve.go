package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"rosie/internal/app"
	"rosie/internal/platform/logger"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			log := newLogger(cfg)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := app.Build(ctx, cfg, log)
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				_ = a.Close()
				return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
			}

			bgCtx, cancel := context.WithCancel(ctx)
			a.Start(bgCtx)

			srv := &http.Server{
				Handler:           a.Handler,
				ReadHeaderTimeout: 5 * time.Second,
				IdleTimeout:       120 * time.Second,
			}
			log.Info("server listening", map[string]any{"addr": ln.Addr().String()})

			err = runServer(ctx, srv, ln, log)
			cancel()
			if cerr := a.Close(); cerr != nil {
				log.Warn("shutdown cleanup failed", map[string]any{"err": cerr.Error()})
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "dirección de escucha (pisa PORT)")
	return cmd
}

// runServer sirve hasta que ctx se cancela y luego apaga con timeout.
func runServer(ctx context.Context, srv *http.Server, ln net.Listener, log logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down server", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}
