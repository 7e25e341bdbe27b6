package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/PressGang/internal/config"
	"github.com/IshaanNene/PressGang/internal/monitor"
	"github.com/IshaanNene/PressGang/internal/types"
)

var (
	watchInterval time.Duration
	watchWebhook  string
	watchStateDir string
)

// watchCmd creates the "watch" subcommand.
func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [query]",
		Short: "Re-run a topic on an interval and report new or changed content",
		Long: `Watch a topic: run the full acquisition immediately and then on every
interval tick, comparing results against the previous cycle. Only new or
modified records are reported. State survives restarts.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runWatch,
	}
	addRunFlags(cmd)
	cmd.Flags().DurationVarP(&watchInterval, "interval", "i", 0, "time between cycles (0 = config default)")
	cmd.Flags().StringVar(&watchWebhook, "webhook", "", "POST changes to this URL")
	cmd.Flags().StringVar(&watchStateDir, "state-dir", "", "directory for watch snapshots")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyRunOverrides(cfg)
	if watchInterval > 0 {
		cfg.Watch.Interval = watchInterval
	}
	if watchWebhook != "" {
		cfg.Watch.WebhookURL = watchWebhook
	}
	if watchStateDir != "" {
		cfg.Watch.StateDir = watchStateDir
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	topic := strings.Join(args, " ")

	eng, err := buildEngine(cfg, logger, !runNoStore)
	if err != nil {
		return err
	}

	watcher, err := monitor.NewWatcher(eng, cfg.Watch, logger)
	if err != nil {
		_ = eng.Close()
		return fmt.Errorf("create watcher: %w", err)
	}
	watcher.SetHandler(func(topic string, fresh []*types.ContentRecord, changes []monitor.Change) {
		fmt.Printf("\n🔔 %s — %d change(s) at %s\n", topic, len(changes), time.Now().Format("15:04:05"))
		for _, change := range changes {
			label := change.Title
			if label == "" {
				label = change.URL
			}
			fmt.Printf("   [%s] %s\n", change.Type, label)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, stopping watch...", "signal", sig)
		cancel()
		eng.Stop()
	}()

	fmt.Printf("👀 Watching %q every %s (Ctrl-C to stop)\n", topic, cfg.Watch.Interval)

	watchErr := watcher.Run(ctx, topic, 0)
	if closeErr := eng.Close(); closeErr != nil {
		logger.Warn("shutdown error", "error", closeErr)
	}
	if watchErr != nil && !errors.Is(watchErr, context.Canceled) {
		return watchErr
	}
	return nil
}
