package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vitalsense/rppg-analyzer/configs"
	"github.com/vitalsense/rppg-analyzer/internal/analysis"
	"github.com/vitalsense/rppg-analyzer/internal/server"
	"github.com/vitalsense/rppg-analyzer/pkg/logging"
)

var (
	// Serve command flags
	serveHost         string
	servePort         int
	serveAuthSecret   string
	serveAuthDisabled bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP analysis API",
	Long: `Run the HTTP API that accepts RGB traces and returns heart rate estimates.

The server exposes:
- POST /api/v1/analyze  submit a trace for analysis (JWT protected)
- GET  /health          liveness probe, no auth
- GET  /metrics         Prometheus metrics

Requests run on a bounded worker pool so a flood of traces degrades into
503 responses instead of unbounded goroutines. Authentication uses HS256
bearer tokens; mint one with the token command.

Examples:
  # Serve on the configured address
  rppg-analyzer serve

  # Override the bind address
  rppg-analyzer serve --host 127.0.0.1 --port 9090

  # Development mode without authentication
  rppg-analyzer serve --auth-disabled`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// A .env file may carry RPPG_SERVER_JWT_SECRET for local runs.
	_ = godotenv.Load()

	config, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cmd.Flags().Changed("host") {
		config.Server.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		config.Server.Port = servePort
	}
	if cmd.Flags().Changed("auth-secret") {
		config.Server.JWTSecret = serveAuthSecret
	}
	if cmd.Flags().Changed("auth-disabled") {
		config.Server.AuthEnabled = !serveAuthDisabled
	}

	if verbose {
		config.LogLevel = "debug"
	} else if quiet {
		config.LogLevel = "error"
	}

	if err := configs.ValidateConfig(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  config.LogLevel,
		Format: config.LogFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	engine := analysis.NewEngine(&analysis.EngineConfig{
		Analysis: config.Analysis,
		Logger:   logger,
	})

	srv, err := server.NewServer(config, engine, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown did not complete cleanly: %w", err)
	}
	return <-errCh
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "",
		"bind address (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0,
		"bind port (overrides config)")
	serveCmd.Flags().StringVar(&serveAuthSecret, "auth-secret", "",
		"JWT signing secret (overrides config)")
	serveCmd.Flags().BoolVar(&serveAuthDisabled, "auth-disabled", false,
		"disable bearer token authentication")
}
