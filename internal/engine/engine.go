// Package engine orchestrates a topic run: link discovery, frontier-ordered
// article acquisition over pooled browser tabs, social aggregation, and the
// digest/storage tail.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/PressGang/internal/analyze"
	"github.com/IshaanNene/PressGang/internal/browser"
	"github.com/IshaanNene/PressGang/internal/config"
	"github.com/IshaanNene/PressGang/internal/extract"
	"github.com/IshaanNene/PressGang/internal/fetcher"
	"github.com/IshaanNene/PressGang/internal/media"
	"github.com/IshaanNene/PressGang/internal/platform"
	"github.com/IshaanNene/PressGang/internal/render"
	"github.com/IshaanNene/PressGang/internal/search"
	"github.com/IshaanNene/PressGang/internal/types"
)

// ErrNotStarted is returned by Run before Start has brought the browser up.
var ErrNotStarted = errors.New("engine not started")

// State represents the engine's current lifecycle state.
type State int32

const (
	StateIdle     State = 0
	StateRunning  State = 1
	StateStopping State = 2
	StateStopped  State = 3
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stats tracks acquisition counters across runs.
type Stats struct {
	Searches          atomic.Int64
	URLsDiscovered    atomic.Int64
	URLsFiltered      atomic.Int64
	Navigations       atomic.Int64
	NavRetries        atomic.Int64
	Challenges        atomic.Int64
	RecordsExtracted  atomic.Int64
	RecordsEmpty      atomic.Int64
	RecordsProcessed  atomic.Int64
	RecordsDropped    atomic.Int64
	MockSubstitutions atomic.Int64
	RecordsStored     atomic.Int64
	ActiveWorkers     atomic.Int32
	StartTime         time.Time

	mu     sync.RWMutex
	phases map[string]time.Duration
}

// NewStats creates a zeroed stats block.
func NewStats() *Stats {
	return &Stats{phases: make(map[string]time.Duration)}
}

// markPhase accumulates wall time spent in a named phase.
func (s *Stats) markPhase(name string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phases[name] += d
}

// Snapshot returns a copy of stats safe for reading.
func (s *Stats) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	elapsed := "0s"
	if !s.StartTime.IsZero() {
		elapsed = time.Since(s.StartTime).String()
	}
	snap := map[string]any{
		"searches":           s.Searches.Load(),
		"urls_discovered":    s.URLsDiscovered.Load(),
		"urls_filtered":      s.URLsFiltered.Load(),
		"navigations":        s.Navigations.Load(),
		"nav_retries":        s.NavRetries.Load(),
		"challenges":         s.Challenges.Load(),
		"records_extracted":  s.RecordsExtracted.Load(),
		"records_empty":      s.RecordsEmpty.Load(),
		"records_processed":  s.RecordsProcessed.Load(),
		"records_dropped":    s.RecordsDropped.Load(),
		"mock_substitutions": s.MockSubstitutions.Load(),
		"records_stored":     s.RecordsStored.Load(),
		"active_workers":     s.ActiveWorkers.Load(),
		"elapsed":            elapsed,
	}
	for name, d := range s.phases {
		snap["phase_"+name] = d.String()
	}
	return snap
}

// Pipeline processes one record. A nil record drops it from the output.
type Pipeline interface {
	Process(record *types.ContentRecord) (*types.ContentRecord, error)
}

// Storage is the interface for record sinks.
type Storage interface {
	Store(records []*types.ContentRecord) error
	Close() error
	Name() string
}

// Aggregator fans a topic out to the social platforms.
type Aggregator interface {
	Fetch(ctx context.Context, topic string, count int, platforms []string) map[string][]*types.ContentRecord
}

// Engine is the topic-run orchestrator.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger

	browser   *browser.Browser
	pool      *browser.TabPool
	nav       *browser.Navigator
	extractor *extract.Extractor
	http      fetcher.Fetcher
	thumbs    *media.Thumbnailer

	searcher   search.Provider
	aggregator Aggregator
	pipeline   Pipeline
	storage    Storage

	runJob jobRunner

	state atomic.Int32
	stats *Stats

	mu        sync.RWMutex
	frontier  *Frontier
	runCancel context.CancelFunc
	started   bool
}

// New creates an Engine. Collaborators may be swapped with the setters
// before Start; anything left unset gets the default wiring.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	e := &Engine{
		cfg:    cfg,
		logger: logger.With("component", "engine"),
		stats:  NewStats(),
	}
	e.runJob = e.visitAndExtract
	return e
}

// SetSearcher overrides the link discovery provider.
func (e *Engine) SetSearcher(p search.Provider) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.searcher = p
}

// SetAggregator overrides the social aggregator.
func (e *Engine) SetAggregator(a Aggregator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.aggregator = a
}

// SetPipeline sets the record pipeline.
func (e *Engine) SetPipeline(p Pipeline) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pipeline = p
}

// SetStorage sets the storage sink.
func (e *Engine) SetStorage(s Storage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.storage = s
}

// Start launches the browser, warms the tab pool, and wires default
// collaborators for anything not overridden. Safe to call once.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}

	e.logger.Info("engine starting",
		"tabs", e.cfg.Browser.Tabs,
		"workers", e.cfg.Engine.Workers,
		"headless", e.cfg.Browser.Headless,
	)

	b, err := browser.Launch(e.cfg.Browser, e.logger)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	pool := b.TabPool(e.cfg.Browser.Tabs)
	if err := pool.Start(); err != nil {
		_ = b.Close()
		return fmt.Errorf("start tab pool: %w", err)
	}

	e.browser = b
	e.pool = pool
	e.nav = browser.NewNavigator(e.cfg.Browser, e.logger)
	e.extractor = extract.New(e.cfg.Extract, e.logger)

	// The plain HTTP transport backs the reddit fallback and thumbnail
	// downloads. Losing it degrades those paths without stopping the engine.
	httpFetcher, err := fetcher.NewHTTPFetcher(e.cfg, e.logger)
	if err != nil {
		e.logger.Warn("http fetcher unavailable, fallback paths disabled", "error", err)
	} else {
		e.http = httpFetcher
	}

	if e.searcher == nil {
		e.searcher = search.NewGoogleProvider(pool, e.nav, e.cfg.Search, e.logger)
	}
	if e.aggregator == nil {
		registry := platform.NewRegistry(e.logger)
		if err := registry.Register(platform.NewTwitterFetcher(pool, e.nav, e.logger)); err != nil {
			return err
		}
		if err := registry.Register(platform.NewRedditFetcher(pool, e.nav, e.http, e.cfg.Social, e.logger)); err != nil {
			return err
		}
		e.aggregator = platform.NewAggregator(registry, e.logger)
	}
	if e.cfg.Media.DownloadThumbs && e.http != nil {
		thumbs, err := media.NewThumbnailer(e.cfg.Media, e.http, e.logger)
		if err != nil {
			e.logger.Warn("thumbnail downloads disabled", "error", err)
		} else {
			e.thumbs = thumbs
		}
	}

	e.stats.StartTime = time.Now()
	e.started = true
	return nil
}

// RunOptions narrows a topic run. The zero value means a full run with the
// configured defaults.
type RunOptions struct {
	// SocialCount overrides the per-platform post count. Zero keeps the
	// configured default.
	SocialCount int
	// Platforms overrides the platform list. Empty keeps the default.
	Platforms []string
	// ArticlesOnly skips social aggregation and the digest.
	ArticlesOnly bool
	// SocialOnly skips search and article scraping.
	SocialOnly bool
}

// Run executes one full topic acquisition: search, ordered article jobs,
// social aggregation, style annotation, digest, storage.
func (e *Engine) Run(parent context.Context, topic string) (*types.TopicResult, error) {
	return e.RunWith(parent, topic, RunOptions{})
}

// RunTopic is Run with per-call social overrides.
func (e *Engine) RunTopic(parent context.Context, topic string, count int, platforms []string) (*types.TopicResult, error) {
	return e.RunWith(parent, topic, RunOptions{SocialCount: count, Platforms: platforms})
}

// RunWith executes a topic acquisition shaped by opts. Only one run may be
// active at a time.
func (e *Engine) RunWith(parent context.Context, topic string, opts RunOptions) (*types.TopicResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, types.ErrEmptyTopic
	}
	count := opts.SocialCount
	if count <= 0 {
		count = e.cfg.Social.Count
	}
	platforms := opts.Platforms
	if len(platforms) == 0 {
		platforms = e.cfg.Social.Platforms
	}

	e.mu.RLock()
	started := e.started
	e.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		state := e.GetState()
		if state == StateStopping || state == StateStopped {
			return nil, fmt.Errorf("engine is in state %s: %w", state, types.ErrEngineStopped)
		}
		return nil, fmt.Errorf("engine is in state %s, cannot run", state)
	}

	ctx, cancel := context.WithCancel(parent)
	e.mu.Lock()
	e.runCancel = cancel
	e.mu.Unlock()
	defer func() {
		cancel()
		e.mu.Lock()
		e.runCancel = nil
		e.mu.Unlock()
		if !e.state.CompareAndSwap(int32(StateRunning), int32(StateIdle)) {
			e.state.CompareAndSwap(int32(StateStopping), int32(StateStopped))
		}
	}()

	start := time.Now()
	e.logger.Info("topic run starting", "topic", topic)

	var articles []*types.ContentRecord
	if !opts.SocialOnly {
		articles = e.collectArticles(ctx, topic)
		articles = e.processRecords(articles)
	}

	social := map[string][]*types.ContentRecord{}
	var digest string
	if !opts.ArticlesOnly {
		socialStart := time.Now()
		social = e.aggregator.Fetch(ctx, topic, count, platforms)
		e.stats.markPhase("social", time.Since(socialStart))
		if _, ok := social["mock"]; ok {
			e.stats.MockSubstitutions.Add(1)
		}
		digest = render.Digest(social, count)
	}

	style := analyze.Classify(topic)
	analyze.Annotate(style, articles)
	for _, posts := range social {
		analyze.Annotate(style, posts)
	}

	if e.thumbs != nil {
		thumbStart := time.Now()
		all := make([]*types.ContentRecord, 0, len(articles))
		all = append(all, articles...)
		for _, posts := range social {
			all = append(all, posts...)
		}
		if saved := e.thumbs.Process(ctx, all); saved > 0 {
			e.logger.Info("thumbnails downloaded", "count", saved)
		}
		e.stats.markPhase("thumbs", time.Since(thumbStart))
	}

	stored := e.storeRecords(articles, social)

	result := &types.TopicResult{
		Topic:    topic,
		Articles: articles,
		Social:   social,
		Digest:   digest,
		Style:    style,
		Duration: time.Since(start),
	}

	e.logger.Info("topic run complete",
		"topic", topic,
		"articles", len(articles),
		"records", result.RecordCount(),
		"stored", stored,
		"style", style,
		"duration", result.Duration,
	)
	return result, nil
}

// Stop interrupts a running topic and moves the engine toward Stopped.
// In-flight jobs are abandoned at their next context check.
func (e *Engine) Stop() {
	if e.state.CompareAndSwap(int32(StateIdle), int32(StateStopped)) {
		return
	}
	if !e.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return
	}

	e.logger.Info("engine stopping")
	e.mu.RLock()
	cancel := e.runCancel
	frontier := e.frontier
	e.mu.RUnlock()

	// Close the frontier first so polling workers see it and exit.
	if frontier != nil {
		frontier.Close()
	}
	if cancel != nil {
		cancel()
	}
}

// Close stops the engine and releases the browser, pool, transport, and
// storage. Safe to call more than once.
func (e *Engine) Close() error {
	e.Stop()

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return nil
	}
	e.started = false

	var firstErr error
	if e.pool != nil {
		if err := e.pool.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.browser != nil {
		if err := e.browser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.http != nil {
		if err := e.http.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.storage != nil {
		if err := e.storage.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	e.logger.Info("engine closed", "stats", e.stats.Snapshot())
	return firstErr
}

// Stats returns the live counters.
func (e *Engine) Stats() *Stats {
	return e.stats
}

// GetState returns the current lifecycle state.
func (e *Engine) GetState() State {
	return State(e.state.Load())
}

// PoolStats reports tab pool occupancy. Zero value before Start.
func (e *Engine) PoolStats() browser.PoolStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.pool == nil {
		return browser.PoolStats{}
	}
	return e.pool.Stats()
}

// collectArticles searches for candidate URLs and drains them through the
// worker pool in discovery order.
func (e *Engine) collectArticles(ctx context.Context, topic string) []*types.ContentRecord {
	searchStart := time.Now()
	res, err := e.searcher.Search(ctx, topic, e.cfg.Search.MaxResults)
	e.stats.Searches.Add(1)
	e.stats.markPhase("search", time.Since(searchStart))
	if err != nil {
		e.logger.Error("search failed", "topic", topic, "error", err)
		return nil
	}

	e.stats.URLsDiscovered.Add(int64(len(res.URLs)))
	e.stats.URLsFiltered.Add(int64(res.Filtered))
	if len(res.URLs) == 0 {
		e.logger.Warn("no candidate URLs", "topic", topic)
		return nil
	}

	frontier := NewFrontier()
	for i, link := range res.URLs {
		job, err := types.NewScrapeJob(link, i)
		if err != nil {
			e.stats.URLsFiltered.Add(1)
			continue
		}
		if e.cfg.Engine.MaxAttempts > 0 {
			job.MaxAttempts = e.cfg.Engine.MaxAttempts
		}
		frontier.Push(job)
	}

	e.mu.Lock()
	e.frontier = frontier
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.frontier = nil
		e.mu.Unlock()
	}()

	articleStart := time.Now()
	sched := NewScheduler(e, frontier, len(res.URLs))
	sched.Start(ctx)
	sched.Wait()
	e.stats.markPhase("articles", time.Since(articleStart))

	return sched.Results()
}

// visitAndExtract is the default job runner: borrow a tab, render the page,
// run the extraction chain, shape the record.
func (e *Engine) visitAndExtract(ctx context.Context, job *types.ScrapeJob) (*types.ContentRecord, error) {
	tab, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer e.pool.Release(tab)

	e.stats.Navigations.Add(1)
	visit, err := e.nav.Visit(ctx, tab.Page(), job.URL)
	if err != nil {
		return nil, err
	}
	if visit.Challenged {
		e.stats.Challenges.Add(1)
	}

	res, err := e.extractor.Extract(visit.HTML, visit.FinalURL)
	if err != nil {
		if errors.Is(err, types.ErrNoContent) {
			return nil, nil
		}
		return nil, err
	}

	record := types.NewRecord(visit.FinalURL, types.SourceArticle, "web")
	record.Title = res.Title
	record.Body = res.Body
	record.Markdown = res.Markdown
	record.Author = res.Meta.Author
	record.PublishedAt = res.Meta.PublishedAt
	record.ImageURL = res.Meta.ImageURL
	// Meta tags can be absent or hold a relative path; the resolver covers
	// both and falls through to the first content image.
	if !strings.HasPrefix(record.ImageURL, "http") {
		record.ImageURL = media.Resolve(visit.HTML, visit.FinalURL)
	}
	if record.IsEmpty() {
		return nil, nil
	}
	return record, nil
}

// processRecords runs the article records through the pipeline.
func (e *Engine) processRecords(records []*types.ContentRecord) []*types.ContentRecord {
	if e.pipeline == nil || len(records) == 0 {
		return records
	}

	out := make([]*types.ContentRecord, 0, len(records))
	for _, record := range records {
		processed, err := e.pipeline.Process(record)
		if err != nil {
			e.stats.RecordsDropped.Add(1)
			e.logger.Warn("pipeline dropped record", "url", record.URL, "error", err)
			continue
		}
		if processed == nil {
			e.stats.RecordsDropped.Add(1)
			continue
		}
		e.stats.RecordsProcessed.Add(1)
		out = append(out, processed)
	}
	return out
}

// storeRecords persists everything from the run in one batch.
func (e *Engine) storeRecords(articles []*types.ContentRecord, social map[string][]*types.ContentRecord) int {
	if e.storage == nil {
		return 0
	}

	batch := make([]*types.ContentRecord, 0, len(articles))
	batch = append(batch, articles...)
	for _, posts := range social {
		batch = append(batch, posts...)
	}
	if len(batch) == 0 {
		return 0
	}

	if err := e.storage.Store(batch); err != nil {
		e.logger.Error("storage error", "backend", e.storage.Name(), "error", err, "batch_size", len(batch))
		return 0
	}
	e.stats.RecordsStored.Add(int64(len(batch)))
	return len(batch)
}
