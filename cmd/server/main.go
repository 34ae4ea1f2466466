package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pep299/article-markdown/internal/config"
	"github.com/pep299/article-markdown/internal/handlers"
	"github.com/pep299/article-markdown/internal/logging"
)

var (
	Version   string = "dev"
	Commit    string = "unknown"
	BuildTime string = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var host, port string

	cmd := &cobra.Command{
		Use:          "server",
		Short:        "HTML to Markdown Converter web server",
		Long:         "Serves a page that fetches a URL, extracts the readable article and shows it as Markdown.\n\nEnvironment variables:\n  HOST, PORT, FETCH_TIMEOUT, FETCH_MAX_BYTES, USER_AGENT, LOG_LEVEL, LOG_FORMAT, CONFIG_FILE",
		Version:      fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load configuration
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			logging.Setup(cfg.LogLevel, cfg.LogFormat)
			handlers.Version = Version

			return serve(cfg)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides HOST)")
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")

	return cmd
}

func serve(cfg *config.Config) error {
	// Create server
	server, err := handlers.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Create HTTP server. WriteTimeout leaves room for a slow upstream fetch.
	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      server.SetupRoutes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.FetchTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server
	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("version", Version).Msg("🚀 Starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for shutdown signal
	select {
	case err := <-errChan:
		return fmt.Errorf("server failed to start: %w", err)
	case <-sigChan:
	}
	log.Info().Msg("🛑 Shutting down server...")

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("✅ Server stopped")
	return nil
}
