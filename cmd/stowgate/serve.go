package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/b2"
	"github.com/sagarc03/stowgate/config"
	stowgatehttp "github.com/sagarc03/stowgate/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the stowgate HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5001, "HTTP server port (env: STOWGATE_SERVER_PORT)")
	serveCmd.Flags().String("static-dir", "", "directory served at / (env: STOWGATE_SERVER_STATIC_DIR)")
	serveCmd.Flags().String("authorize-url", "", "account authorization endpoint (env: STOWGATE_UPSTREAM_AUTHORIZE_URL)")
	serveCmd.Flags().String("path-prefix", "", "upstream API path prefix, b2api for the real provider (env: STOWGATE_UPSTREAM_PATH_PREFIX)")
	serveCmd.Flags().Int("timeout", 30, "upstream call timeout in seconds (env: STOWGATE_UPSTREAM_TIMEOUT)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	handler, err := newHandler(cfg)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// upstream calls may take the full upstream timeout
		WriteTimeout: cfg.Upstream.TimeoutDuration() + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", addr,
			"authorize_url", cfg.Upstream.AuthorizeURL,
			"path_prefix", cfg.Upstream.PathPrefix,
			"metrics", cfg.Metrics.Enabled,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return <-errCh
}

// newHandler wires the provider client, the gateway service and the HTTP
// boundary from cfg.
func newHandler(cfg *config.Config) (*stowgatehttp.Handler, error) {
	client := b2.NewClient(
		b2.WithTimeout(cfg.Upstream.TimeoutDuration()),
		b2.WithAuthorizeURL(cfg.Upstream.AuthorizeURL),
		b2.WithUserAgent("stowgate/"+version),
	)

	service, err := stowgate.NewGatewayService(client, stowgate.ServiceConfig{
		UpstreamTimeout: cfg.Upstream.TimeoutDuration(),
		PathPrefix:      cfg.Upstream.PathPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	handlerConfig := stowgatehttp.HandlerConfig{
		CORS:         cfg.CORS,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		StaticDir:    cfg.Server.StaticDir,
		MetricsPath:  cfg.Metrics.Path,
		Logger:       slog.Default(),
	}

	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		handlerConfig.Registry = registry
	}

	handler, err := stowgatehttp.NewHandler(&handlerConfig, service)
	if err != nil {
		return nil, fmt.Errorf("create handler: %w", err)
	}

	return handler, nil
}
