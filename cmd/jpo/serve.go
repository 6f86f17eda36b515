package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpo-explorer/backend/internal/api/handlers"
	"github.com/jpo-explorer/backend/internal/api/routes"
	"github.com/jpo-explorer/backend/internal/application/services"
	"github.com/jpo-explorer/backend/internal/infrastructure/observability"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if err := cfg.LLM.RequireLLMKey(); err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logger := observability.LoggerFromContext(ctx)

			if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
				shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
				if err != nil {
					logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
				} else {
					defer func() {
						shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
						defer cancel()
						if err := shutdown(shutdownCtx); err != nil {
							logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
						}
					}()
				}
			}

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			warmer := services.NewCacheWarmingService(a.search, cfg.Search.WarmQueries, cfg.Search.WarmConcurrency)
			warmer.StartPeriodicWarming(ctx, cfg.Search.CacheTTL)

			var embedHandler *handlers.EmbedHandler
			if a.model.embedder != nil {
				embedHandler = handlers.NewEmbedHandler(a.model.embedder)
			}
			router := routes.NewRouter(
				handlers.NewSearchHandler(a.search),
				handlers.NewRecordsHandler(a.search),
				embedHandler,
				cfg.CORS.AllowedOrigins,
				a.metrics,
			)

			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			srv := &http.Server{
				Addr:              addr,
				Handler:           router.SetupRoutes(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       15 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       60 * time.Second,
				BaseContext: func(net.Listener) context.Context {
					return ctx
				},
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info().Str("addr", addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
				logger.Info().Msg("server shutting down")
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "listen port (overrides SERVER_PORT)")
	return cmd
}
