package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/knoguchi/rankeval/internal/auth"
	"github.com/knoguchi/rankeval/internal/history"
	"github.com/knoguchi/rankeval/internal/server"
	"github.com/knoguchi/rankeval/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.HTTPPort = port
		}

		logger := newServerLogger(os.Stdout, cfg.LogLevel)
		slog.SetDefault(logger)

		logger.Info("starting rankeval",
			"http_port", cfg.HTTPPort,
			"environment", cfg.Environment,
			"llm_provider", cfg.LLMProvider,
			"auth_enabled", cfg.AuthEnabled(),
		)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		var opts []service.CompareOption
		var recent server.History
		if cfg.HistorySize > 0 {
			store := history.NewStore(cfg.HistorySize, cfg.HistoryTTL)
			defer store.Close()
			opts = append(opts, service.WithRecorder(store))
			recent = store
		}

		svc, err := buildCompareService(ctx, cfg, logger, opts...)
		if err != nil {
			return err
		}

		var jwtManager *auth.JWTManager
		if cfg.JWTSecret != "" {
			jwtManager = auth.NewJWTManager(&auth.JWTConfig{
				Secret: cfg.JWTSecret,
				Expiry: cfg.JWTExpiry,
				Issuer: cfg.JWTIssuer,
			})
		}

		httpServer := server.NewHTTPServer(server.HTTPServerConfig{
			Port:           cfg.HTTPPort,
			Logger:         logger,
			AllowedOrigins: cfg.CORSOrigins,
			Authenticator:  auth.NewAuthenticator(cfg.APIKeys, jwtManager, logger),
			JWT:            jwtManager,
			History:        recent,
		}, svc)

		errCh := make(chan error, 1)
		go func() {
			if err := httpServer.Start(); err != nil {
				errCh <- err
			}
		}()

		// Wait for shutdown signal
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "HTTP port (overrides HTTP_PORT)")
}
