package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/PressGang/internal/config"
	"github.com/IshaanNene/PressGang/internal/engine"
	"github.com/IshaanNene/PressGang/internal/pipeline"
	"github.com/IshaanNene/PressGang/internal/storage"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pressgang",
		Short: "PressGang — topical content acquisition for AI blog generation",
		Long: `PressGang turns a topic into a content bundle: scraped articles, short
social posts, a formatted digest, and a writing-style hint.

Features:
  • Browser-based scraping with pooled tabs and stealth navigation
  • Search result discovery with domain filtering and deduplication
  • Layered extraction: readability, selector chain, block accumulation
  • Twitter and Reddit aggregation with mock substitution on failure
  • JSON, JSONL, CSV, SQLite, and MongoDB storage
  • Topic watching with change detection and webhook notifications
  • REST API, Prometheus metrics, and a live dashboard`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(topicCmd())
	rootCmd.AddCommand(articlesCmd())
	rootCmd.AddCommand(socialCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("PressGang %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Browser:\n")
			fmt.Printf("  Tabs:              %d\n", cfg.Browser.Tabs)
			fmt.Printf("  Headless:          %v\n", cfg.Browser.Headless)
			fmt.Printf("  Load Timeout:      %s\n", cfg.Browser.LoadTimeout)
			fmt.Printf("  Nav Retries:       %d\n", cfg.Browser.NavRetries)
			fmt.Printf("  Challenge Cap:     %s\n", cfg.Browser.ChallengeCap)
			fmt.Printf("\nSearch:\n")
			fmt.Printf("  Max Results:       %d\n", cfg.Search.MaxResults)
			fmt.Printf("  Respect robots.txt: %v\n", cfg.Search.RespectRobotsTxt)
			fmt.Printf("  Excluded Domains:  %d configured\n", len(cfg.Search.ExcludedDomains))
			fmt.Printf("\nExtract:\n")
			fmt.Printf("  Readability:       %v\n", cfg.Extract.UseReadability)
			fmt.Printf("  Capture Markdown:  %v\n", cfg.Extract.CaptureMarkdown)
			fmt.Printf("\nSocial:\n")
			fmt.Printf("  Platforms:         %v\n", cfg.Social.Platforms)
			fmt.Printf("  Posts/Platform:    %d\n", cfg.Social.Count)
			fmt.Printf("  HTTP Fallback:     %v\n", cfg.Social.HTTPFallback)
			fmt.Printf("\nEngine:\n")
			fmt.Printf("  Workers:           %d\n", cfg.Engine.Workers)
			fmt.Printf("  Job Timeout:       %s\n", cfg.Engine.JobTimeout)
			fmt.Printf("  Max Attempts:      %d\n", cfg.Engine.MaxAttempts)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:              %s\n", cfg.Storage.Type)
			fmt.Printf("  Output Path:       %s\n", cfg.Storage.OutputPath)
			fmt.Printf("\nWatch:\n")
			fmt.Printf("  Interval:          %s\n", cfg.Watch.Interval)
			fmt.Printf("  State Dir:         %s\n", cfg.Watch.StateDir)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			fmt.Printf("\nAPI:\n")
			fmt.Printf("  Port:              %d\n", cfg.API.Port)
			return nil
		},
	}
}

// setupLogger creates a structured logger.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// buildEngine assembles and starts an engine from the effective config.
func buildEngine(cfg *config.Config, logger *slog.Logger, persist bool) (*engine.Engine, error) {
	eng := engine.New(cfg, logger)
	eng.SetPipeline(pipeline.Default(logger))

	if persist {
		store, err := storage.Open(cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		eng.SetStorage(store)
	}

	if err := eng.Start(); err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}
	return eng, nil
}
