package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for PressGang.
type Config struct {
	Browser  BrowserConfig  `mapstructure:"browser"  yaml:"browser"`
	Search   SearchConfig   `mapstructure:"search"   yaml:"search"`
	Extract  ExtractConfig  `mapstructure:"extract"  yaml:"extract"`
	Social   SocialConfig   `mapstructure:"social"   yaml:"social"`
	Engine   EngineConfig   `mapstructure:"engine"   yaml:"engine"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"  yaml:"fetcher"`
	Proxy    ProxyConfig    `mapstructure:"proxy"    yaml:"proxy"`
	Storage  StorageConfig  `mapstructure:"storage"  yaml:"storage"`
	Media    MediaConfig    `mapstructure:"media"    yaml:"media"`
	Watch    WatchConfig    `mapstructure:"watch"    yaml:"watch"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
}

// BrowserConfig controls the headless browser and navigation behavior.
type BrowserConfig struct {
	Headless       bool          `mapstructure:"headless"         yaml:"headless"`
	Tabs           int           `mapstructure:"tabs"             yaml:"tabs"`
	NavRetries     int           `mapstructure:"nav_retries"      yaml:"nav_retries"`
	NavRetryDelay  time.Duration `mapstructure:"nav_retry_delay"  yaml:"nav_retry_delay"`
	LoadTimeout    time.Duration `mapstructure:"load_timeout"     yaml:"load_timeout"`
	SettleDelay    time.Duration `mapstructure:"settle_delay"     yaml:"settle_delay"`
	ScrollSteps    int           `mapstructure:"scroll_steps"     yaml:"scroll_steps"`
	ScrollPause    time.Duration `mapstructure:"scroll_pause"     yaml:"scroll_pause"`
	ChallengeCap   time.Duration `mapstructure:"challenge_cap"    yaml:"challenge_cap"`
	UserAgent      string        `mapstructure:"user_agent"       yaml:"user_agent"`
	ProxyURL       string        `mapstructure:"proxy_url"        yaml:"proxy_url"`
	BinPath        string        `mapstructure:"bin_path"         yaml:"bin_path"`
}

// SearchConfig controls link discovery.
type SearchConfig struct {
	MaxResults       int      `mapstructure:"max_results"        yaml:"max_results"`
	ExcludedDomains  []string `mapstructure:"excluded_domains"   yaml:"excluded_domains"`
	RespectRobotsTxt bool     `mapstructure:"respect_robots_txt" yaml:"respect_robots_txt"`
}

// ExtractConfig controls the extraction chain. The defaults are the contract;
// overrides exist for tuning against unusual layouts.
type ExtractConfig struct {
	MinFragmentLen  int  `mapstructure:"min_fragment_len"  yaml:"min_fragment_len"`
	MinBlockLen     int  `mapstructure:"min_block_len"     yaml:"min_block_len"`
	MinBlockWords   int  `mapstructure:"min_block_words"   yaml:"min_block_words"`
	MaxBlockNesting int  `mapstructure:"max_block_nesting" yaml:"max_block_nesting"`
	AccumulateCap   int  `mapstructure:"accumulate_cap"    yaml:"accumulate_cap"`
	ShortBodyLen    int  `mapstructure:"short_body_len"    yaml:"short_body_len"`
	UseReadability  bool `mapstructure:"use_readability"   yaml:"use_readability"`
	CaptureMarkdown bool `mapstructure:"capture_markdown"  yaml:"capture_markdown"`
}

// SocialConfig controls the short-post fetchers.
type SocialConfig struct {
	Platforms    []string `mapstructure:"platforms"     yaml:"platforms"`
	Count        int      `mapstructure:"count"         yaml:"count"`
	HTTPFallback bool     `mapstructure:"http_fallback" yaml:"http_fallback"`
}

// EngineConfig controls orchestration.
type EngineConfig struct {
	Workers     int           `mapstructure:"workers"      yaml:"workers"`
	JobTimeout  time.Duration `mapstructure:"job_timeout"  yaml:"job_timeout"`
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// FetcherConfig controls the plain HTTP transport.
type FetcherConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"           yaml:"timeout"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
}

// ProxyConfig controls proxy rotation for the plain HTTP transport.
type ProxyConfig struct {
	Enabled      bool     `mapstructure:"enabled"        yaml:"enabled"`
	Rotation     string   `mapstructure:"rotation"       yaml:"rotation"`
	URLs         []string `mapstructure:"urls"           yaml:"urls"`
	RotateOnFail bool     `mapstructure:"rotate_on_fail" yaml:"rotate_on_fail"`
}

// StorageConfig controls record sinks.
type StorageConfig struct {
	Type       string        `mapstructure:"type"        yaml:"type"`
	OutputPath string        `mapstructure:"output_path" yaml:"output_path"`
	SQLitePath string        `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	MongoURI   string        `mapstructure:"mongo_uri"   yaml:"mongo_uri"`
	MongoDB    string        `mapstructure:"mongo_db"    yaml:"mongo_db"`
	MongoColl  string        `mapstructure:"mongo_coll"  yaml:"mongo_coll"`
	Timeout    time.Duration `mapstructure:"timeout"     yaml:"timeout"`
}

// MediaConfig controls thumbnail resolution and download.
type MediaConfig struct {
	DownloadThumbs bool   `mapstructure:"download_thumbs" yaml:"download_thumbs"`
	Dir            string `mapstructure:"dir"             yaml:"dir"`
	MaxBytes       int64  `mapstructure:"max_bytes"       yaml:"max_bytes"`
}

// WatchConfig controls topic watching.
type WatchConfig struct {
	Interval   time.Duration `mapstructure:"interval"    yaml:"interval"`
	StateDir   string        `mapstructure:"state_dir"   yaml:"state_dir"`
	WebhookURL string        `mapstructure:"webhook_url" yaml:"webhook_url"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls Prometheus metrics exposition.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// APIConfig controls the REST API server.
type APIConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:      true,
			Tabs:          3,
			NavRetries:    3,
			NavRetryDelay: 2 * time.Second,
			LoadTimeout:   15 * time.Second,
			SettleDelay:   3 * time.Second,
			ScrollSteps:   3,
			ScrollPause:   1 * time.Second,
			ChallengeCap:  300 * time.Second,
		},
		Search: SearchConfig{
			MaxResults: 5,
			ExcludedDomains: []string{
				"google.com", "youtube.com", "facebook.com",
				"twitter.com", "instagram.com", "linkedin.com",
			},
			RespectRobotsTxt: false,
		},
		Extract: ExtractConfig{
			MinFragmentLen:  20,
			MinBlockLen:     100,
			MinBlockWords:   20,
			MaxBlockNesting: 6,
			AccumulateCap:   2000,
			ShortBodyLen:    100,
			UseReadability:  false,
			CaptureMarkdown: false,
		},
		Social: SocialConfig{
			Platforms:    []string{"twitter", "reddit"},
			Count:        5,
			HTTPFallback: false,
		},
		Engine: EngineConfig{
			Workers:     3,
			JobTimeout:  90 * time.Second,
			MaxAttempts: 3,
		},
		Fetcher: FetcherConfig{
			Timeout:         30 * time.Second,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
		},
		Proxy: ProxyConfig{
			Enabled:      false,
			Rotation:     "round_robin",
			RotateOnFail: true,
		},
		Storage: StorageConfig{
			Type:       "jsonl",
			OutputPath: "./output",
			SQLitePath: "./output/pressgang.db",
			MongoDB:    "pressgang",
			MongoColl:  "records",
			Timeout:    10 * time.Second,
		},
		Media: MediaConfig{
			DownloadThumbs: false,
			Dir:            "./output/thumbs",
			MaxBytes:       5 * 1024 * 1024, // 5MB
		},
		Watch: WatchConfig{
			Interval: 30 * time.Minute,
			StateDir: "./output/watch",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
		API: APIConfig{
			Port: 8080,
		},
	}
}
