package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults from struct
	setDefaults(v, cfg)

	// Environment variable support
	v.SetEnvPrefix("PRESSGANG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Search default locations
		v.SetConfigName("pressgang")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".pressgang"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	return Load(path)
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.tabs", cfg.Browser.Tabs)
	v.SetDefault("browser.nav_retries", cfg.Browser.NavRetries)
	v.SetDefault("browser.nav_retry_delay", cfg.Browser.NavRetryDelay)
	v.SetDefault("browser.load_timeout", cfg.Browser.LoadTimeout)
	v.SetDefault("browser.settle_delay", cfg.Browser.SettleDelay)
	v.SetDefault("browser.scroll_steps", cfg.Browser.ScrollSteps)
	v.SetDefault("browser.scroll_pause", cfg.Browser.ScrollPause)
	v.SetDefault("browser.challenge_cap", cfg.Browser.ChallengeCap)

	v.SetDefault("search.max_results", cfg.Search.MaxResults)
	v.SetDefault("search.excluded_domains", cfg.Search.ExcludedDomains)
	v.SetDefault("search.respect_robots_txt", cfg.Search.RespectRobotsTxt)

	v.SetDefault("extract.min_fragment_len", cfg.Extract.MinFragmentLen)
	v.SetDefault("extract.min_block_len", cfg.Extract.MinBlockLen)
	v.SetDefault("extract.min_block_words", cfg.Extract.MinBlockWords)
	v.SetDefault("extract.max_block_nesting", cfg.Extract.MaxBlockNesting)
	v.SetDefault("extract.accumulate_cap", cfg.Extract.AccumulateCap)
	v.SetDefault("extract.short_body_len", cfg.Extract.ShortBodyLen)
	v.SetDefault("extract.use_readability", cfg.Extract.UseReadability)
	v.SetDefault("extract.capture_markdown", cfg.Extract.CaptureMarkdown)

	v.SetDefault("social.platforms", cfg.Social.Platforms)
	v.SetDefault("social.count", cfg.Social.Count)
	v.SetDefault("social.http_fallback", cfg.Social.HTTPFallback)

	v.SetDefault("engine.workers", cfg.Engine.Workers)
	v.SetDefault("engine.job_timeout", cfg.Engine.JobTimeout)
	v.SetDefault("engine.max_attempts", cfg.Engine.MaxAttempts)

	v.SetDefault("fetcher.timeout", cfg.Fetcher.Timeout)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)

	v.SetDefault("proxy.enabled", cfg.Proxy.Enabled)
	v.SetDefault("proxy.rotation", cfg.Proxy.Rotation)
	v.SetDefault("proxy.rotate_on_fail", cfg.Proxy.RotateOnFail)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.sqlite_path", cfg.Storage.SQLitePath)
	v.SetDefault("storage.mongo_db", cfg.Storage.MongoDB)
	v.SetDefault("storage.mongo_coll", cfg.Storage.MongoColl)
	v.SetDefault("storage.timeout", cfg.Storage.Timeout)

	v.SetDefault("media.download_thumbs", cfg.Media.DownloadThumbs)
	v.SetDefault("media.dir", cfg.Media.Dir)
	v.SetDefault("media.max_bytes", cfg.Media.MaxBytes)

	v.SetDefault("watch.interval", cfg.Watch.Interval)
	v.SetDefault("watch.state_dir", cfg.Watch.StateDir)
	v.SetDefault("watch.webhook_url", cfg.Watch.WebhookURL)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)

	v.SetDefault("api.port", cfg.API.Port)
}
