package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IshaanNene/PressGang/internal/config"
	"github.com/IshaanNene/PressGang/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

func mustJob(t *testing.T, url string, index int) *types.ScrapeJob {
	t.Helper()
	job, err := types.NewScrapeJob(url, index)
	if err != nil {
		t.Fatalf("NewScrapeJob(%q): %v", url, err)
	}
	return job
}

// --- Frontier Tests ---

func TestFrontierOrdersByIndex(t *testing.T) {
	f := NewFrontier()
	for _, i := range []int{3, 0, 2, 1} {
		f.Push(mustJob(t, fmt.Sprintf("https://example.com/%d", i), i))
	}

	if f.Len() != 4 {
		t.Fatalf("Len = %d, want 4", f.Len())
	}
	for want := 0; want < 4; want++ {
		job := f.TryPop()
		if job == nil {
			t.Fatalf("TryPop returned nil at %d", want)
		}
		if job.Index != want {
			t.Errorf("popped index %d, want %d", job.Index, want)
		}
	}
	if !f.IsEmpty() {
		t.Error("frontier should be empty after draining")
	}
}

func TestFrontierTryPopEmpty(t *testing.T) {
	f := NewFrontier()
	if job := f.TryPop(); job != nil {
		t.Errorf("TryPop on empty frontier = %+v, want nil", job)
	}
}

func TestFrontierPopWaitsForPush(t *testing.T) {
	f := NewFrontier()
	go func() {
		time.Sleep(100 * time.Millisecond)
		f.Push(mustJob(t, "https://example.com/late", 7))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	job := f.Pop(ctx)
	if job == nil {
		t.Fatal("Pop returned nil, want the late job")
	}
	if job.Index != 7 {
		t.Errorf("Index = %d, want 7", job.Index)
	}
}

func TestFrontierPopContextCanceled(t *testing.T) {
	f := NewFrontier()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan *types.ScrapeJob, 1)
	go func() { done <- f.Pop(ctx) }()

	select {
	case job := <-done:
		if job != nil {
			t.Errorf("Pop = %+v, want nil on canceled context", job)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after context cancel")
	}
}

func TestFrontierCloseUnblocksPop(t *testing.T) {
	f := NewFrontier()
	done := make(chan *types.ScrapeJob, 1)
	go func() { done <- f.Pop(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	f.Close()

	select {
	case job := <-done:
		if job != nil {
			t.Errorf("Pop = %+v, want nil after close", job)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after Close")
	}
}

func TestFrontierCloseDrainsRemaining(t *testing.T) {
	f := NewFrontier()
	f.Push(mustJob(t, "https://example.com/a", 0))
	f.Close()

	// Queued jobs stay poppable after close; only new pushes are refused.
	if job := f.Pop(context.Background()); job == nil {
		t.Fatal("Pop after close should drain queued jobs")
	}
	if job := f.Pop(context.Background()); job != nil {
		t.Errorf("second Pop = %+v, want nil", job)
	}
}

func TestFrontierPushAfterCloseDropped(t *testing.T) {
	f := NewFrontier()
	f.Close()
	f.Push(mustJob(t, "https://example.com/a", 0))
	if f.Len() != 0 {
		t.Errorf("Len = %d after push-on-closed, want 0", f.Len())
	}
	if !f.IsClosed() {
		t.Error("IsClosed = false, want true")
	}
}

// --- State Tests ---

func TestStateString(t *testing.T) {
	cases := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateRunning, "running"},
		{StateStopping, "stopping"},
		{StateStopped, "stopped"},
		{State(42), "unknown"},
	}
	for _, tc := range cases {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("State(%d).String() = %q, want %q", tc.state, got, tc.want)
		}
	}
}

// --- Stats Tests ---

func TestStatsSnapshot(t *testing.T) {
	s := NewStats()
	s.StartTime = time.Now().Add(-time.Minute)
	s.Searches.Add(2)
	s.URLsDiscovered.Add(10)
	s.RecordsExtracted.Add(7)
	s.MockSubstitutions.Add(1)
	s.markPhase("search", 3*time.Second)
	s.markPhase("search", 2*time.Second)

	snap := s.Snapshot()
	if snap["searches"].(int64) != 2 {
		t.Errorf("searches = %v, want 2", snap["searches"])
	}
	if snap["urls_discovered"].(int64) != 10 {
		t.Errorf("urls_discovered = %v, want 10", snap["urls_discovered"])
	}
	if snap["records_extracted"].(int64) != 7 {
		t.Errorf("records_extracted = %v, want 7", snap["records_extracted"])
	}
	if snap["mock_substitutions"].(int64) != 1 {
		t.Errorf("mock_substitutions = %v, want 1", snap["mock_substitutions"])
	}
	if snap["phase_search"].(string) != "5s" {
		t.Errorf("phase_search = %v, want 5s", snap["phase_search"])
	}
	if snap["elapsed"].(string) == "0s" {
		t.Error("elapsed should be non-zero with StartTime set")
	}

	for _, key := range []string{"nav_retries", "challenges", "records_empty", "records_stored", "active_workers"} {
		if _, ok := snap[key]; !ok {
			t.Errorf("snapshot missing key %q", key)
		}
	}
}

func TestStatsSnapshotZeroStartTime(t *testing.T) {
	snap := NewStats().Snapshot()
	if snap["elapsed"].(string) != "0s" {
		t.Errorf("elapsed = %v, want 0s before start", snap["elapsed"])
	}
}

// --- Scheduler Tests ---

func schedulerEngine(workers int, runner jobRunner) *Engine {
	cfg := config.DefaultConfig()
	cfg.Engine.Workers = workers
	cfg.Engine.JobTimeout = 5 * time.Second
	e := New(cfg, testLogger)
	e.runJob = runner
	return e
}

func runScheduler(t *testing.T, e *Engine, jobs []*types.ScrapeJob) []*types.ContentRecord {
	t.Helper()
	frontier := NewFrontier()
	slots := 0
	for _, job := range jobs {
		frontier.Push(job)
		if job.Index >= slots {
			slots = job.Index + 1
		}
	}

	sched := NewScheduler(e, frontier, slots)
	sched.Start(context.Background())

	done := make(chan struct{})
	go func() {
		sched.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("scheduler did not drain in time")
	}
	return sched.Results()
}

func TestSchedulerCollectsInDiscoveryOrder(t *testing.T) {
	runner := func(ctx context.Context, job *types.ScrapeJob) (*types.ContentRecord, error) {
		// Stagger completions so later indexes finish first.
		time.Sleep(time.Duration(3-job.Index) * 20 * time.Millisecond)
		rec := types.NewRecord(job.URL, types.SourceArticle, "web")
		rec.Title = fmt.Sprintf("article %d", job.Index)
		rec.Body = "body"
		return rec, nil
	}

	e := schedulerEngine(4, runner)
	jobs := make([]*types.ScrapeJob, 4)
	for i := range jobs {
		jobs[i] = mustJob(t, fmt.Sprintf("https://example.com/%d", i), i)
	}

	results := runScheduler(t, e, jobs)
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for i, rec := range results {
		want := fmt.Sprintf("article %d", i)
		if rec.Title != want {
			t.Errorf("results[%d].Title = %q, want %q", i, rec.Title, want)
		}
	}
	if got := e.stats.RecordsExtracted.Load(); got != 4 {
		t.Errorf("RecordsExtracted = %d, want 4", got)
	}
}

func TestSchedulerRetriesUntilExhausted(t *testing.T) {
	var calls atomic.Int64
	runner := func(ctx context.Context, job *types.ScrapeJob) (*types.ContentRecord, error) {
		calls.Add(1)
		return nil, &types.NavigationError{URL: job.URL, Attempt: job.Attempt, Err: errors.New("net down"), Retryable: true}
	}

	e := schedulerEngine(1, runner)
	job := mustJob(t, "https://example.com/flaky", 0)
	job.MaxAttempts = 2

	results := runScheduler(t, e, []*types.ScrapeJob{job})
	if len(results) != 0 {
		t.Fatalf("got %d results, want 0", len(results))
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("runner called %d times, want 2", got)
	}
	if got := e.stats.NavRetries.Load(); got != 1 {
		t.Errorf("NavRetries = %d, want 1", got)
	}
	if got := e.stats.RecordsEmpty.Load(); got != 1 {
		t.Errorf("RecordsEmpty = %d, want 1", got)
	}
}

func TestSchedulerPermanentErrorNotRetried(t *testing.T) {
	var calls atomic.Int64
	runner := func(ctx context.Context, job *types.ScrapeJob) (*types.ContentRecord, error) {
		calls.Add(1)
		return nil, errors.New("parse exploded")
	}

	e := schedulerEngine(1, runner)
	results := runScheduler(t, e, []*types.ScrapeJob{mustJob(t, "https://example.com/broken", 0)})
	if len(results) != 0 {
		t.Fatalf("got %d results, want 0", len(results))
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("runner called %d times, want 1", got)
	}
	if got := e.stats.NavRetries.Load(); got != 0 {
		t.Errorf("NavRetries = %d, want 0", got)
	}
}

func TestSchedulerTimeoutAbandonsJob(t *testing.T) {
	var calls atomic.Int64
	runner := func(ctx context.Context, job *types.ScrapeJob) (*types.ContentRecord, error) {
		calls.Add(1)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	e := schedulerEngine(1, runner)
	e.cfg.Engine.JobTimeout = 50 * time.Millisecond

	results := runScheduler(t, e, []*types.ScrapeJob{mustJob(t, "https://example.com/slow", 0)})
	if len(results) != 0 {
		t.Fatalf("got %d results, want 0", len(results))
	}
	// Overruns are abandoned outright, never requeued.
	if got := calls.Load(); got != 1 {
		t.Errorf("runner called %d times, want 1", got)
	}
	if got := e.stats.RecordsEmpty.Load(); got != 1 {
		t.Errorf("RecordsEmpty = %d, want 1", got)
	}
	if got := e.stats.NavRetries.Load(); got != 0 {
		t.Errorf("NavRetries = %d, want 0", got)
	}
}

func TestSchedulerNilRecordCountsEmpty(t *testing.T) {
	runner := func(ctx context.Context, job *types.ScrapeJob) (*types.ContentRecord, error) {
		return nil, nil
	}

	e := schedulerEngine(2, runner)
	results := runScheduler(t, e, []*types.ScrapeJob{
		mustJob(t, "https://example.com/a", 0),
		mustJob(t, "https://example.com/b", 1),
	})
	if len(results) != 0 {
		t.Fatalf("got %d results, want 0", len(results))
	}
	if got := e.stats.RecordsEmpty.Load(); got != 2 {
		t.Errorf("RecordsEmpty = %d, want 2", got)
	}
}

func TestSchedulerEmptyFrontierDrains(t *testing.T) {
	e := schedulerEngine(2, func(ctx context.Context, job *types.ScrapeJob) (*types.ContentRecord, error) {
		t.Error("runner should never be called")
		return nil, nil
	})
	results := runScheduler(t, e, nil)
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

// --- Run Tests ---

type stubSearcher struct {
	res   *types.SearchResult
	err   error
	calls int
}

func (s *stubSearcher) Search(ctx context.Context, query string, limit int) (*types.SearchResult, error) {
	s.calls++
	return s.res, s.err
}

type stubAggregator struct {
	out map[string][]*types.ContentRecord

	mu           sync.Mutex
	calls        int
	gotCount     int
	gotPlatforms []string
}

func (a *stubAggregator) Fetch(ctx context.Context, topic string, count int, platforms []string) map[string][]*types.ContentRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	a.gotCount = count
	a.gotPlatforms = platforms
	return a.out
}

type blockingAggregator struct {
	entered chan struct{}
	release chan struct{}
}

func (a *blockingAggregator) Fetch(ctx context.Context, topic string, count int, platforms []string) map[string][]*types.ContentRecord {
	close(a.entered)
	<-a.release
	return map[string][]*types.ContentRecord{}
}

type stubStorage struct {
	mu     sync.Mutex
	stored []*types.ContentRecord
	err    error
}

func (s *stubStorage) Store(records []*types.ContentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.stored = append(s.stored, records...)
	return nil
}

func (s *stubStorage) Close() error { return nil }
func (s *stubStorage) Name() string { return "stub" }

func (s *stubStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stored)
}

func shortPost(url, body string) *types.ContentRecord {
	rec := types.NewRecord(url, types.SourceShortPost, "twitter")
	rec.Author = "@tester"
	rec.Body = body
	return rec
}

// runReadyEngine builds an engine with every collaborator stubbed so Run
// exercises the whole flow without a browser.
func runReadyEngine(urls []string, social map[string][]*types.ContentRecord) (*Engine, *stubStorage) {
	cfg := config.DefaultConfig()
	cfg.Engine.Workers = 2
	e := New(cfg, testLogger)
	e.runJob = func(ctx context.Context, job *types.ScrapeJob) (*types.ContentRecord, error) {
		rec := types.NewRecord(job.URL, types.SourceArticle, "web")
		rec.Title = fmt.Sprintf("article %d", job.Index)
		rec.Body = "some extracted body text"
		return rec, nil
	}
	e.searcher = &stubSearcher{res: &types.SearchResult{Query: "q", URLs: urls, Filtered: 1}}
	e.aggregator = &stubAggregator{out: social}
	storage := &stubStorage{}
	e.storage = storage
	e.started = true
	return e, storage
}

func TestRunEmptyTopic(t *testing.T) {
	e := New(config.DefaultConfig(), testLogger)
	e.started = true
	if _, err := e.Run(context.Background(), "   "); !errors.Is(err, types.ErrEmptyTopic) {
		t.Errorf("Run with blank topic: err = %v, want ErrEmptyTopic", err)
	}
}

func TestRunBeforeStart(t *testing.T) {
	e := New(config.DefaultConfig(), testLogger)
	if _, err := e.Run(context.Background(), "golang"); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Run before Start: err = %v, want ErrNotStarted", err)
	}
}

func TestRunFullFlow(t *testing.T) {
	social := map[string][]*types.ContentRecord{
		"twitter": {
			shortPost("https://twitter.com/a/status/1", "post one"),
			shortPost("https://twitter.com/a/status/2", "post two"),
		},
	}
	e, storage := runReadyEngine([]string{"https://example.com/a", "https://example.com/b"}, social)

	result, err := e.Run(context.Background(), "Enterprise infrastructure analysis")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Topic != "Enterprise infrastructure analysis" {
		t.Errorf("Topic = %q", result.Topic)
	}
	if len(result.Articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(result.Articles))
	}
	if result.Articles[0].Title != "article 0" || result.Articles[1].Title != "article 1" {
		t.Errorf("articles out of order: %q, %q", result.Articles[0].Title, result.Articles[1].Title)
	}
	if result.RecordCount() != 4 {
		t.Errorf("RecordCount = %d, want 4", result.RecordCount())
	}
	if result.Style != "professional" {
		t.Errorf("Style = %q, want professional", result.Style)
	}
	for _, rec := range result.Articles {
		if rec.Style != "professional" {
			t.Errorf("article style = %q, want professional", rec.Style)
		}
	}
	if !strings.Contains(result.Digest, "## Recent Social Media Updates") {
		t.Errorf("Digest missing header:\n%s", result.Digest)
	}
	if !strings.Contains(result.Digest, "post one") {
		t.Errorf("Digest missing post body:\n%s", result.Digest)
	}
	if result.Duration <= 0 {
		t.Error("Duration should be positive")
	}

	if storage.count() != 4 {
		t.Errorf("stored %d records, want 4", storage.count())
	}
	if got := e.stats.RecordsStored.Load(); got != 4 {
		t.Errorf("RecordsStored = %d, want 4", got)
	}
	if got := e.stats.URLsDiscovered.Load(); got != 2 {
		t.Errorf("URLsDiscovered = %d, want 2", got)
	}
	if got := e.stats.URLsFiltered.Load(); got != 1 {
		t.Errorf("URLsFiltered = %d, want 1", got)
	}
	if got := e.GetState(); got != StateIdle {
		t.Errorf("state after run = %v, want idle", got)
	}
}

func TestRunCountsMockSubstitution(t *testing.T) {
	social := map[string][]*types.ContentRecord{
		"mock": {shortPost("https://twitter.com/m/status/1", "mock body")},
	}
	e, _ := runReadyEngine(nil, social)
	e.searcher = &stubSearcher{res: &types.SearchResult{Query: "q"}}

	if _, err := e.Run(context.Background(), "quiet topic"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := e.stats.MockSubstitutions.Load(); got != 1 {
		t.Errorf("MockSubstitutions = %d, want 1", got)
	}
}

func TestRunSearchFailureStillAggregates(t *testing.T) {
	social := map[string][]*types.ContentRecord{
		"reddit": {shortPost("https://www.reddit.com/r/golang/comments/x/y/", "thread body")},
	}
	e, storage := runReadyEngine(nil, social)
	e.searcher = &stubSearcher{err: errors.New("search engine walled us")}

	result, err := e.Run(context.Background(), "golang generics")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Articles) != 0 {
		t.Errorf("got %d articles, want 0", len(result.Articles))
	}
	if len(result.Social["reddit"]) != 1 {
		t.Errorf("social posts = %d, want 1", len(result.Social["reddit"]))
	}
	if storage.count() != 1 {
		t.Errorf("stored %d, want 1", storage.count())
	}
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	agg := &blockingAggregator{entered: make(chan struct{}), release: make(chan struct{})}
	e, _ := runReadyEngine(nil, nil)
	e.searcher = &stubSearcher{res: &types.SearchResult{Query: "q"}}
	e.aggregator = agg

	errCh := make(chan error, 1)
	go func() {
		_, err := e.Run(context.Background(), "first topic")
		errCh <- err
	}()

	select {
	case <-agg.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first run never reached the aggregator")
	}

	if got := e.GetState(); got != StateRunning {
		t.Errorf("state during run = %v, want running", got)
	}
	if _, err := e.Run(context.Background(), "second topic"); err == nil {
		t.Error("concurrent Run should be rejected")
	}

	close(agg.release)
	if err := <-errCh; err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if got := e.GetState(); got != StateIdle {
		t.Errorf("state after run = %v, want idle", got)
	}
}

func TestStopIdleEngine(t *testing.T) {
	e := New(config.DefaultConfig(), testLogger)
	e.started = true
	e.Stop()
	if got := e.GetState(); got != StateStopped {
		t.Errorf("state = %v, want stopped", got)
	}
	if _, err := e.Run(context.Background(), "anything"); !errors.Is(err, types.ErrEngineStopped) {
		t.Errorf("Run on stopped engine = %v, want ErrEngineStopped", err)
	}
}

// --- Pipeline Integration Tests ---

type dropOddPipeline struct{}

func (dropOddPipeline) Process(record *types.ContentRecord) (*types.ContentRecord, error) {
	var idx int
	fmt.Sscanf(record.Title, "article %d", &idx)
	if idx%2 == 1 {
		return nil, nil
	}
	return record, nil
}

func TestRunAppliesPipelineToArticles(t *testing.T) {
	e, storage := runReadyEngine([]string{
		"https://example.com/0",
		"https://example.com/1",
		"https://example.com/2",
	}, map[string][]*types.ContentRecord{
		"twitter": {shortPost("https://twitter.com/a/status/9", "untouched post")},
	})
	e.pipeline = dropOddPipeline{}

	result, err := e.Run(context.Background(), "pipeline topic")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Articles) != 2 {
		t.Fatalf("got %d articles, want 2 after pipeline drop", len(result.Articles))
	}
	// Social records bypass the pipeline.
	if len(result.Social["twitter"]) != 1 {
		t.Errorf("social posts = %d, want 1", len(result.Social["twitter"]))
	}
	if got := e.stats.RecordsDropped.Load(); got != 1 {
		t.Errorf("RecordsDropped = %d, want 1", got)
	}
	if got := e.stats.RecordsProcessed.Load(); got != 2 {
		t.Errorf("RecordsProcessed = %d, want 2", got)
	}
	if storage.count() != 3 {
		t.Errorf("stored %d, want 3", storage.count())
	}
}

func TestRunWithArticlesOnly(t *testing.T) {
	social := map[string][]*types.ContentRecord{
		"twitter": {shortPost("https://twitter.com/u/status/1", "should not appear")},
	}
	e, storage := runReadyEngine([]string{"https://example.com/a", "https://example.com/b"}, social)
	agg := e.aggregator.(*stubAggregator)

	result, err := e.RunWith(context.Background(), "topic", RunOptions{ArticlesOnly: true})
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}

	if len(result.Articles) != 2 {
		t.Errorf("articles = %d, want 2", len(result.Articles))
	}
	if len(result.Social) != 0 {
		t.Errorf("social = %v, want empty", result.Social)
	}
	if result.Digest != "" {
		t.Errorf("digest = %q, want empty", result.Digest)
	}
	if agg.calls != 0 {
		t.Errorf("aggregator called %d times, want 0", agg.calls)
	}
	if storage.count() != 2 {
		t.Errorf("stored %d records, want 2 articles", storage.count())
	}
}

func TestRunWithSocialOnly(t *testing.T) {
	social := map[string][]*types.ContentRecord{
		"reddit": {shortPost("https://www.reddit.com/r/a/comments/1/t/", "thread body")},
	}
	e, storage := runReadyEngine([]string{"https://example.com/a"}, social)
	searcher := e.searcher.(*stubSearcher)

	result, err := e.RunWith(context.Background(), "topic", RunOptions{SocialOnly: true})
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}

	if len(result.Articles) != 0 {
		t.Errorf("articles = %d, want 0", len(result.Articles))
	}
	if searcher.calls != 0 {
		t.Errorf("searcher called %d times, want 0", searcher.calls)
	}
	if len(result.Social["reddit"]) != 1 {
		t.Errorf("social = %v", result.Social)
	}
	if result.Digest == "" {
		t.Error("digest should still be built for social-only runs")
	}
	if storage.count() != 1 {
		t.Errorf("stored %d records, want 1", storage.count())
	}
}

func TestRunTopicOverrides(t *testing.T) {
	e, _ := runReadyEngine(nil, map[string][]*types.ContentRecord{})
	e.searcher = &stubSearcher{res: &types.SearchResult{Query: "q"}}
	agg := e.aggregator.(*stubAggregator)

	if _, err := e.RunTopic(context.Background(), "topic", 9, []string{"reddit"}); err != nil {
		t.Fatalf("RunTopic: %v", err)
	}
	if agg.gotCount != 9 {
		t.Errorf("count passed = %d, want 9", agg.gotCount)
	}
	if len(agg.gotPlatforms) != 1 || agg.gotPlatforms[0] != "reddit" {
		t.Errorf("platforms passed = %v, want [reddit]", agg.gotPlatforms)
	}

	if _, err := e.Run(context.Background(), "topic"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if agg.gotCount != e.cfg.Social.Count {
		t.Errorf("default count = %d, want %d", agg.gotCount, e.cfg.Social.Count)
	}
	if len(agg.gotPlatforms) != len(e.cfg.Social.Platforms) {
		t.Errorf("default platforms = %v", agg.gotPlatforms)
	}
}

// --- Benchmarks ---

func BenchmarkFrontierPushPop(b *testing.B) {
	f := NewFrontier()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		job, _ := types.NewScrapeJob("https://example.com/page", i%64)
		f.Push(job)
	}
	for i := 0; i < b.N; i++ {
		f.TryPop()
	}
}
