package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/szaher/cxassist/internal/runtime"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP chat service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer app.close()

			if addr != "" {
				app.config.Addr = addr
			}

			server := runtime.NewServer(app.config, app.agent, app.sessions, app.registry,
				runtime.WithLogger(app.logger),
				runtime.WithMetrics(app.metrics),
			)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := server.ListenAndServe(app.config.Addr); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				app.logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}
