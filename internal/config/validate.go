package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Browser.Tabs < 1 {
		return fmt.Errorf("browser.tabs must be >= 1, got %d", cfg.Browser.Tabs)
	}
	if cfg.Browser.Tabs > 32 {
		return fmt.Errorf("browser.tabs must be <= 32, got %d", cfg.Browser.Tabs)
	}
	if cfg.Browser.NavRetries < 1 {
		return fmt.Errorf("browser.nav_retries must be >= 1, got %d", cfg.Browser.NavRetries)
	}
	if cfg.Browser.LoadTimeout <= 0 {
		return fmt.Errorf("browser.load_timeout must be > 0")
	}
	if cfg.Browser.ChallengeCap <= 0 {
		return fmt.Errorf("browser.challenge_cap must be > 0")
	}
	if cfg.Browser.ScrollSteps < 0 {
		return fmt.Errorf("browser.scroll_steps must be >= 0, got %d", cfg.Browser.ScrollSteps)
	}

	if cfg.Search.MaxResults < 1 {
		return fmt.Errorf("search.max_results must be >= 1, got %d", cfg.Search.MaxResults)
	}

	if cfg.Extract.MinFragmentLen < 0 {
		return fmt.Errorf("extract.min_fragment_len must be >= 0")
	}
	if cfg.Extract.AccumulateCap <= 0 {
		return fmt.Errorf("extract.accumulate_cap must be > 0")
	}

	if cfg.Social.Count < 1 {
		return fmt.Errorf("social.count must be >= 1, got %d", cfg.Social.Count)
	}
	for _, p := range cfg.Social.Platforms {
		if p != "twitter" && p != "reddit" {
			return fmt.Errorf("social.platforms entry %q is not supported (valid: twitter, reddit)", p)
		}
	}

	if cfg.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers must be >= 1, got %d", cfg.Engine.Workers)
	}
	if cfg.Engine.Workers > 64 {
		return fmt.Errorf("engine.workers must be <= 64, got %d", cfg.Engine.Workers)
	}
	if cfg.Engine.JobTimeout <= 0 {
		return fmt.Errorf("engine.job_timeout must be > 0")
	}
	if cfg.Engine.MaxAttempts < 1 {
		return fmt.Errorf("engine.max_attempts must be >= 1, got %d", cfg.Engine.MaxAttempts)
	}

	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	if cfg.Proxy.Enabled {
		if cfg.Proxy.Rotation != "round_robin" && cfg.Proxy.Rotation != "random" {
			return fmt.Errorf("proxy.rotation must be 'round_robin' or 'random', got %q", cfg.Proxy.Rotation)
		}
		for _, proxyURL := range cfg.Proxy.URLs {
			if _, err := url.Parse(proxyURL); err != nil {
				return fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
			}
		}
	}

	validStorageTypes := map[string]bool{
		"json": true, "jsonl": true, "csv": true,
		"sqlite": true, "mongodb": true, "multi": true,
	}
	if !validStorageTypes[cfg.Storage.Type] {
		return fmt.Errorf("storage.type %q is not supported (valid: json, jsonl, csv, sqlite, mongodb, multi)", cfg.Storage.Type)
	}
	if cfg.Storage.Type == "mongodb" && cfg.Storage.MongoURI == "" {
		return fmt.Errorf("storage.mongo_uri is required for mongodb storage")
	}

	if cfg.Media.MaxBytes <= 0 {
		return fmt.Errorf("media.max_bytes must be > 0")
	}

	if cfg.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be > 0")
	}
	if cfg.Watch.WebhookURL != "" {
		if err := ValidateURL(cfg.Watch.WebhookURL); err != nil {
			return fmt.Errorf("watch.webhook_url: %w", err)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}
	if cfg.API.Port < 1 || cfg.API.Port > 65535 {
		return fmt.Errorf("api.port must be 1-65535, got %d", cfg.API.Port)
	}

	return nil
}

// ValidateURL checks if a URL string is usable as an http(s) request target.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
