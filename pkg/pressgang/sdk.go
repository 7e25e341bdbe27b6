// Package pressgang provides a public SDK for embedding the content
// acquisition engine as a library.
//
// Example usage:
//
//	client := pressgang.New(
//	    pressgang.WithTabs(2),
//	    pressgang.WithPlatforms("twitter", "reddit"),
//	    pressgang.WithStorage("jsonl", "./output"),
//	)
//	defer client.Close()
//
//	result, err := client.Topic(context.Background(), "ai regulation")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Digest)
package pressgang

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/IshaanNene/PressGang/internal/config"
	"github.com/IshaanNene/PressGang/internal/engine"
	"github.com/IshaanNene/PressGang/internal/pipeline"
	"github.com/IshaanNene/PressGang/internal/storage"
	"github.com/IshaanNene/PressGang/internal/types"
)

// Client is the high-level API for topic acquisition. The underlying
// browser starts lazily on the first fetch and is reused across calls.
type Client struct {
	cfg     *config.Config
	logger  *slog.Logger
	persist bool

	mu     sync.Mutex
	engine *engine.Engine
}

// Option configures a Client.
type Option func(*Client)

// WithConfig replaces the whole configuration. Apply it before other
// options or it overwrites them.
func WithConfig(cfg *config.Config) Option {
	return func(c *Client) { c.cfg = cfg }
}

// WithTabs sets the browser tab pool size.
func WithTabs(n int) Option {
	return func(c *Client) { c.cfg.Browser.Tabs = n }
}

// WithWorkers sets the number of concurrent article workers.
func WithWorkers(n int) Option {
	return func(c *Client) { c.cfg.Engine.Workers = n }
}

// WithHeadless controls whether the browser runs headless.
func WithHeadless(headless bool) Option {
	return func(c *Client) { c.cfg.Browser.Headless = headless }
}

// WithPlatforms sets the social platforms to aggregate.
func WithPlatforms(platforms ...string) Option {
	return func(c *Client) { c.cfg.Social.Platforms = platforms }
}

// WithCount sets how many posts to fetch per platform.
func WithCount(n int) Option {
	return func(c *Client) { c.cfg.Social.Count = n }
}

// WithHTTPFallback enables the plain-HTTP fallback for platforms that
// support it.
func WithHTTPFallback() Option {
	return func(c *Client) { c.cfg.Social.HTTPFallback = true }
}

// WithStorage persists every run to the given format ("json", "jsonl",
// "csv", "sqlite", "mongodb", "multi") under path.
func WithStorage(format, path string) Option {
	return func(c *Client) {
		c.cfg.Storage.Type = format
		c.cfg.Storage.OutputPath = path
		c.persist = true
	}
}

// WithSQLite persists every run to a SQLite database at path.
func WithSQLite(path string) Option {
	return func(c *Client) {
		c.cfg.Storage.Type = "sqlite"
		c.cfg.Storage.SQLitePath = path
		c.persist = true
	}
}

// WithMongo persists every run to MongoDB.
func WithMongo(uri, db, collection string) Option {
	return func(c *Client) {
		c.cfg.Storage.Type = "mongodb"
		c.cfg.Storage.MongoURI = uri
		c.cfg.Storage.MongoDB = db
		c.cfg.Storage.MongoColl = collection
		c.persist = true
	}
}

// WithMarkdown captures a Markdown rendition of article bodies.
func WithMarkdown() Option {
	return func(c *Client) { c.cfg.Extract.CaptureMarkdown = true }
}

// WithReadability prefers readability extraction over the selector chain.
func WithReadability() Option {
	return func(c *Client) { c.cfg.Extract.UseReadability = true }
}

// WithThumbnails downloads article thumbnails into dir.
func WithThumbnails(dir string) Option {
	return func(c *Client) {
		c.cfg.Media.DownloadThumbs = true
		if dir != "" {
			c.cfg.Media.Dir = dir
		}
	}
}

// WithProxies enables proxy rotation over the given URLs.
func WithProxies(urls ...string) Option {
	return func(c *Client) {
		c.cfg.Proxy.Enabled = true
		c.cfg.Proxy.URLs = urls
	}
}

// WithUserAgent pins the User-Agent for plain HTTP requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.cfg.Fetcher.UserAgents = []string{ua} }
}

// WithRobots enables robots.txt filtering of discovered URLs.
func WithRobots() Option {
	return func(c *Client) { c.cfg.Search.RespectRobotsTxt = true }
}

// WithTimeout sets the per-article job timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.cfg.Engine.JobTimeout = d }
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *Client) { c.cfg.Logging.Level = "debug" }
}

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	c := &Client{cfg: config.DefaultConfig()}
	for _, opt := range opts {
		opt(c)
	}

	level := slog.LevelInfo
	if c.cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return c
}

// ensure brings the engine up on first use.
func (c *Client) ensure() (*engine.Engine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine != nil {
		return c.engine, nil
	}

	eng := engine.New(c.cfg, c.logger)
	eng.SetPipeline(pipeline.Default(c.logger))

	if c.persist {
		store, err := storage.Open(c.cfg.Storage, c.logger)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		eng.SetStorage(store)
	}

	if err := eng.Start(); err != nil {
		return nil, err
	}
	c.engine = eng
	return eng, nil
}

// Topic runs the full acquisition for one topic: articles, social posts,
// style classification, and the digest.
func (c *Client) Topic(ctx context.Context, topic string) (*types.TopicResult, error) {
	eng, err := c.ensure()
	if err != nil {
		return nil, err
	}
	return eng.Run(ctx, topic)
}

// FetchArticles scrapes topical articles only.
func (c *Client) FetchArticles(ctx context.Context, topic string) ([]*types.ContentRecord, error) {
	eng, err := c.ensure()
	if err != nil {
		return nil, err
	}
	res, err := eng.RunWith(ctx, topic, engine.RunOptions{ArticlesOnly: true})
	if err != nil {
		return nil, err
	}
	return res.Articles, nil
}

// FetchSocial aggregates short posts only, keyed by platform. The mock
// batch appears under the "mock" key when every platform comes up empty.
func (c *Client) FetchSocial(ctx context.Context, topic string) (map[string][]*types.ContentRecord, error) {
	eng, err := c.ensure()
	if err != nil {
		return nil, err
	}
	res, err := eng.RunWith(ctx, topic, engine.RunOptions{SocialOnly: true})
	if err != nil {
		return nil, err
	}
	return res.Social, nil
}

// Digest aggregates short posts and returns the formatted digest text.
func (c *Client) Digest(ctx context.Context, topic string) (string, error) {
	eng, err := c.ensure()
	if err != nil {
		return "", err
	}
	res, err := eng.RunWith(ctx, topic, engine.RunOptions{SocialOnly: true})
	if err != nil {
		return "", err
	}
	return res.Digest, nil
}

// Stats returns acquisition counters, or nil before the first fetch.
func (c *Client) Stats() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine == nil {
		return nil
	}
	return c.engine.Stats().Snapshot()
}

// Close shuts the browser and storage down. The client is not reusable
// afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine == nil {
		return nil
	}
	err := c.engine.Close()
	c.engine = nil
	return err
}
