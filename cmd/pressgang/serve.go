package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/PressGang/internal/api"
	"github.com/IshaanNene/PressGang/internal/config"
	"github.com/IshaanNene/PressGang/internal/dashboard"
	"github.com/IshaanNene/PressGang/internal/observability"
)

var (
	servePort     int
	serveDashPort int
	serveNoDash   bool
)

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API with the dashboard and optional metrics",
		Long: `Serve the REST API for submitting topic jobs and reading results,
plus a live dashboard. Prometheus metrics are exposed when enabled in the
configuration.`,
		RunE: runServe,
	}
	cmd.Flags().IntVar(&servePort, "port", 0, "API port (0 = config default)")
	cmd.Flags().IntVar(&serveDashPort, "dashboard-port", 8081, "dashboard port")
	cmd.Flags().BoolVar(&serveNoDash, "no-dashboard", false, "disable the dashboard")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort > 0 {
		cfg.API.Port = servePort
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	eng, err := buildEngine(cfg, logger, true)
	if err != nil {
		return err
	}

	srv := api.NewServer(eng, cfg.API.Port, logger)
	if err := srv.Start(); err != nil {
		_ = eng.Close()
		return fmt.Errorf("start api: %w", err)
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(eng.Stats(), logger)
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("metrics server not started", "error", err)
		}
	}

	var dash *dashboard.Dashboard
	if !serveNoDash {
		dash = dashboard.NewDashboard(serveDashPort, eng, logger)
		if err := dash.Start(); err != nil {
			logger.Warn("dashboard not started", "error", err)
		}
	}

	fmt.Printf("🚀 PressGang serving\n")
	fmt.Printf("   API:       http://localhost:%d/api/health\n", cfg.API.Port)
	fmt.Printf("   Submit:    POST http://localhost:%d/api/topics {\"topic\": \"...\"}\n", cfg.API.Port)
	if dash != nil {
		fmt.Printf("   Dashboard: http://localhost:%d/\n", serveDashPort)
	}
	if metrics != nil {
		fmt.Printf("   Metrics:   http://localhost:%d%s\n", cfg.Metrics.Port, cfg.Metrics.Path)
	}
	fmt.Println("\nCtrl-C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down...", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api shutdown error", "error", err)
	}
	if dash != nil {
		if err := dash.Shutdown(shutdownCtx); err != nil {
			logger.Warn("dashboard shutdown error", "error", err)
		}
	}
	if metrics != nil {
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown error", "error", err)
		}
	}
	if err := eng.Close(); err != nil {
		logger.Warn("engine shutdown error", "error", err)
	}

	fmt.Println("✅ Stopped cleanly.")
	return nil
}
