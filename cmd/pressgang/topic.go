package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/PressGang/internal/config"
	"github.com/IshaanNene/PressGang/internal/engine"
	"github.com/IshaanNene/PressGang/internal/types"
)

var (
	runTabs      int
	runWorkers   int
	runCount     int
	runPlatforms string
	runFormat    string
	runOutput    string
	runNoStore   bool
	runMarkdown  bool
	runThumbs    bool
	runHeadful   bool
)

// addRunFlags attaches the flags shared by the acquisition commands.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&runTabs, "tabs", 0, "browser tab pool size (0 = config default)")
	cmd.Flags().IntVarP(&runWorkers, "workers", "n", 0, "concurrent article workers (0 = config default)")
	cmd.Flags().IntVarP(&runCount, "count", "k", 0, "posts per platform (0 = config default)")
	cmd.Flags().StringVarP(&runPlatforms, "platforms", "p", "", "comma-separated social platforms")
	cmd.Flags().StringVarP(&runFormat, "format", "f", "", "storage format: json, jsonl, csv, sqlite, mongodb, multi")
	cmd.Flags().StringVarP(&runOutput, "output", "o", "", "output directory")
	cmd.Flags().BoolVar(&runNoStore, "no-store", false, "skip persistence, print results only")
	cmd.Flags().BoolVar(&runMarkdown, "markdown", false, "capture Markdown article bodies")
	cmd.Flags().BoolVar(&runThumbs, "thumbs", false, "download article thumbnails")
	cmd.Flags().BoolVar(&runHeadful, "headful", false, "run the browser with a visible window")
}

// applyRunOverrides folds the shared flags into the config.
func applyRunOverrides(cfg *config.Config) {
	if runTabs > 0 {
		cfg.Browser.Tabs = runTabs
	}
	if runWorkers > 0 {
		cfg.Engine.Workers = runWorkers
	}
	if runCount > 0 {
		cfg.Social.Count = runCount
	}
	if runPlatforms != "" {
		var platforms []string
		for _, p := range strings.Split(runPlatforms, ",") {
			if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
				platforms = append(platforms, p)
			}
		}
		cfg.Social.Platforms = platforms
	}
	if runFormat != "" {
		cfg.Storage.Type = strings.ToLower(runFormat)
	}
	if runOutput != "" {
		cfg.Storage.OutputPath = runOutput
	}
	if runMarkdown {
		cfg.Extract.CaptureMarkdown = true
	}
	if runThumbs {
		cfg.Media.DownloadThumbs = true
	}
	if runHeadful {
		cfg.Browser.Headless = false
	}
}

// topicCmd creates the "topic" subcommand.
func topicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topic [query]",
		Short: "Full acquisition: articles, social posts, and the digest",
		Long: `Run the whole acquisition for a topic: discover and scrape articles,
aggregate short social posts, classify the writing style, and build the
post digest. Results are persisted per the storage configuration.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runTopic,
	}
	addRunFlags(cmd)
	return cmd
}

func runTopic(cmd *cobra.Command, args []string) error {
	res, cfg, elapsed, err := acquire(args, engine.RunOptions{})
	if err != nil {
		return err
	}

	fmt.Printf("\n✅ Topic acquired in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Articles:  %d scraped\n", len(res.Articles))
	fmt.Printf("   Social:    %s\n", summarizeSocial(res.Social))
	fmt.Printf("   Style:     %s\n", res.Style)
	if !runNoStore {
		fmt.Printf("   Output:    %s (%s)\n", cfg.Storage.OutputPath, cfg.Storage.Type)
	}
	if _, mocked := res.Social["mock"]; mocked {
		fmt.Println("\n💡 Social feeds were unreachable; the digest uses stand-in posts.")
	}
	if res.Digest != "" {
		fmt.Printf("\n%s\n", res.Digest)
	}
	return nil
}

// articlesCmd creates the "articles" subcommand.
func articlesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "articles [query]",
		Short: "Scrape topical articles only",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runArticles,
	}
	addRunFlags(cmd)
	return cmd
}

func runArticles(cmd *cobra.Command, args []string) error {
	res, cfg, elapsed, err := acquire(args, engine.RunOptions{ArticlesOnly: true})
	if err != nil {
		return err
	}

	fmt.Printf("\n📰 %d article(s) in %s\n", len(res.Articles), elapsed.Round(time.Millisecond))
	for i, article := range res.Articles {
		fmt.Printf("   %d. %s\n      %s (%d words)\n", i+1, article.Title, article.URL, article.WordCount)
	}
	if len(res.Articles) == 0 {
		fmt.Println("\n💡 Nothing usable came back. Try a broader query, or raise search.max_results.")
	} else if !runNoStore {
		fmt.Printf("\n   Output: %s (%s)\n", cfg.Storage.OutputPath, cfg.Storage.Type)
	}
	return nil
}

// socialCmd creates the "social" subcommand.
func socialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "social [query]",
		Short: "Aggregate short social posts and print the digest",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSocial,
	}
	addRunFlags(cmd)
	return cmd
}

func runSocial(cmd *cobra.Command, args []string) error {
	res, _, elapsed, err := acquire(args, engine.RunOptions{SocialOnly: true})
	if err != nil {
		return err
	}

	fmt.Printf("\n💬 Social posts in %s — %s\n", elapsed.Round(time.Millisecond), summarizeSocial(res.Social))
	if _, mocked := res.Social["mock"]; mocked {
		fmt.Println("💡 Social feeds were unreachable; showing stand-in posts.")
	}
	fmt.Printf("\n%s\n", res.Digest)
	return nil
}

// acquire loads config, runs the engine once, and shuts it down so storage
// is flushed before anything is reported.
func acquire(args []string, opts engine.RunOptions) (*types.TopicResult, *config.Config, time.Duration, error) {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("load config: %w", err)
	}
	applyRunOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, nil, 0, fmt.Errorf("invalid config: %w", err)
	}

	topic := strings.Join(args, " ")
	logger.Info("starting acquisition",
		"topic", topic,
		"tabs", cfg.Browser.Tabs,
		"workers", cfg.Engine.Workers,
		"platforms", cfg.Social.Platforms,
	)

	eng, err := buildEngine(cfg, logger, !runNoStore)
	if err != nil {
		return nil, nil, 0, err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, stopping...", "signal", sig)
		eng.Stop()
	}()

	start := time.Now()
	res, runErr := eng.RunWith(context.Background(), topic, opts)
	elapsed := time.Since(start)

	if closeErr := eng.Close(); closeErr != nil {
		logger.Warn("shutdown error", "error", closeErr)
	}
	if runErr != nil {
		return nil, nil, 0, runErr
	}
	return res, cfg, elapsed, nil
}

// summarizeSocial renders per-platform counts in a stable order.
func summarizeSocial(social map[string][]*types.ContentRecord) string {
	if len(social) == 0 {
		return "none"
	}
	platforms := make([]string, 0, len(social))
	for platform := range social {
		platforms = append(platforms, platform)
	}
	sort.Strings(platforms)

	parts := make([]string, 0, len(platforms))
	for _, platform := range platforms {
		parts = append(parts, fmt.Sprintf("%s: %d", platform, len(social[platform])))
	}
	return strings.Join(parts, ", ")
}
