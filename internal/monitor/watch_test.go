package monitor

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/IshaanNene/PressGang/internal/config"
	"github.com/IshaanNene/PressGang/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func watchRecord(url, body string) *types.ContentRecord {
	rec := types.NewRecord(url, types.SourceArticle, "web")
	rec.Title = "Title for " + url
	rec.Body = body
	return rec
}

// fakeRunner returns one scripted batch per call, repeating the last batch
// when the script runs out.
type fakeRunner struct {
	mu      sync.Mutex
	batches [][]*types.ContentRecord
	calls   int
}

func (f *fakeRunner) Run(ctx context.Context, topic string) (*types.TopicResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if idx >= len(f.batches) {
		idx = len(f.batches) - 1
	}
	return &types.TopicResult{
		Topic:    topic,
		Articles: f.batches[idx],
		Social:   map[string][]*types.ContentRecord{},
	}, nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type capture struct {
	mu      sync.Mutex
	fresh   [][]*types.ContentRecord
	changes [][]Change
}

func (c *capture) handler(topic string, fresh []*types.ContentRecord, changes []Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fresh = append(c.fresh, fresh)
	c.changes = append(c.changes, changes)
}

func (c *capture) emits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fresh)
}

func newTestWatcher(t *testing.T, runner Runner) (*Watcher, *capture) {
	t.Helper()
	w, err := NewWatcher(runner, config.WatchConfig{
		Interval: time.Minute,
		StateDir: t.TempDir(),
	}, testLogger)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	cap := &capture{}
	w.SetHandler(cap.handler)
	return w, cap
}

func TestWatcherFirstCycleEmitsEverything(t *testing.T) {
	runner := &fakeRunner{batches: [][]*types.ContentRecord{{
		watchRecord("https://example.com/a", "body a"),
		watchRecord("https://example.com/b", "body b"),
	}}}
	w, cap := newTestWatcher(t, runner)

	if err := w.cycle(context.Background(), "golang"); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	if cap.emits() != 1 {
		t.Fatalf("handler called %d times, want 1", cap.emits())
	}
	if len(cap.fresh[0]) != 2 {
		t.Errorf("first cycle emitted %d records, want 2", len(cap.fresh[0]))
	}
	for _, ch := range cap.changes[0] {
		if ch.Type != ChangeAdded {
			t.Errorf("change type = %q, want added", ch.Type)
		}
	}
}

func TestWatcherSecondCycleEmitsOnlyNew(t *testing.T) {
	a := watchRecord("https://example.com/a", "body a")
	b := watchRecord("https://example.com/b", "body b")
	c := watchRecord("https://example.com/c", "body c")
	runner := &fakeRunner{batches: [][]*types.ContentRecord{{a, b}, {a, b, c}}}
	w, cap := newTestWatcher(t, runner)

	ctx := context.Background()
	if err := w.cycle(ctx, "golang"); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if err := w.cycle(ctx, "golang"); err != nil {
		t.Fatalf("second cycle: %v", err)
	}

	if cap.emits() != 2 {
		t.Fatalf("handler called %d times, want 2", cap.emits())
	}
	second := cap.fresh[1]
	if len(second) != 1 {
		t.Fatalf("second cycle emitted %d records, want 1", len(second))
	}
	if second[0].URL != "https://example.com/c" {
		t.Errorf("emitted %q, want the new record", second[0].URL)
	}
}

func TestWatcherNoChangesNoEmit(t *testing.T) {
	a := watchRecord("https://example.com/a", "body a")
	runner := &fakeRunner{batches: [][]*types.ContentRecord{{a}}}
	w, cap := newTestWatcher(t, runner)

	ctx := context.Background()
	w.cycle(ctx, "golang")
	w.cycle(ctx, "golang")

	if cap.emits() != 1 {
		t.Errorf("handler called %d times, want 1 (nothing new on second pass)", cap.emits())
	}
}

func TestWatcherDetectsModifiedBody(t *testing.T) {
	runner := &fakeRunner{batches: [][]*types.ContentRecord{
		{watchRecord("https://example.com/a", "original body")},
		{watchRecord("https://example.com/a", "edited body")},
	}}
	w, cap := newTestWatcher(t, runner)

	ctx := context.Background()
	w.cycle(ctx, "golang")
	w.cycle(ctx, "golang")

	if cap.emits() != 2 {
		t.Fatalf("handler called %d times, want 2", cap.emits())
	}
	if cap.changes[1][0].Type != ChangeModified {
		t.Errorf("change type = %q, want modified", cap.changes[1][0].Type)
	}
}

func TestWatcherURLVariantsNotReEmitted(t *testing.T) {
	runner := &fakeRunner{batches: [][]*types.ContentRecord{
		{watchRecord("https://Example.COM/page?b=2&a=1", "same body")},
		{watchRecord("https://example.com/page?a=1&b=2", "same body")},
	}}
	w, cap := newTestWatcher(t, runner)

	ctx := context.Background()
	w.cycle(ctx, "golang")
	w.cycle(ctx, "golang")

	if cap.emits() != 1 {
		t.Errorf("canonically equal URL re-emitted; handler called %d times", cap.emits())
	}
}

func TestWatcherSnapshotSurvivesRestart(t *testing.T) {
	stateDir := t.TempDir()
	a := watchRecord("https://example.com/a", "body a")

	w1, err := NewWatcher(&fakeRunner{batches: [][]*types.ContentRecord{{a}}}, config.WatchConfig{
		Interval: time.Minute,
		StateDir: stateDir,
	}, testLogger)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w1.cycle(context.Background(), "golang"); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	// Fresh watcher over the same state dir sees the old snapshot.
	w2, err := NewWatcher(&fakeRunner{batches: [][]*types.ContentRecord{{a}}}, config.WatchConfig{
		Interval: time.Minute,
		StateDir: stateDir,
	}, testLogger)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	cap := &capture{}
	w2.SetHandler(cap.handler)
	if err := w2.cycle(context.Background(), "golang"); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	if cap.emits() != 0 {
		t.Errorf("restarted watcher re-emitted %d batches, want 0", cap.emits())
	}
}

func TestWatcherSnapshotFileIsAtomic(t *testing.T) {
	stateDir := t.TempDir()
	runner := &fakeRunner{batches: [][]*types.ContentRecord{{watchRecord("https://example.com/a", "b")}}}
	w, err := NewWatcher(runner, config.WatchConfig{Interval: time.Minute, StateDir: stateDir}, testLogger)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.cycle(context.Background(), "golang"); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	entries, _ := os.ReadDir(stateDir)
	var snapshots, temps int
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			snapshots++
		} else {
			temps++
		}
	}
	if snapshots != 1 {
		t.Errorf("snapshot files = %d, want 1", snapshots)
	}
	if temps != 0 {
		t.Errorf("leftover temp files = %d, want 0", temps)
	}
}

func TestWatcherRunTicks(t *testing.T) {
	runner := &fakeRunner{batches: [][]*types.ContentRecord{{watchRecord("https://example.com/a", "b")}}}
	w, _ := newTestWatcher(t, runner)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Millisecond)
	defer cancel()

	err := w.Run(ctx, "golang", 25*time.Millisecond)
	if err != context.DeadlineExceeded {
		t.Errorf("Run returned %v, want context.DeadlineExceeded", err)
	}
	if runner.callCount() < 2 {
		t.Errorf("runner called %d times, want at least the first pass plus one tick", runner.callCount())
	}
}

// --- Webhook Tests ---

func TestWebhookChannelPosts(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := &WebhookChannel{URL: srv.URL, Client: srv.Client(), logger: testLogger}
	changes := []Change{{URL: "https://example.com/a", Type: ChangeAdded, Timestamp: time.Now()}}
	if err := ch.Send(context.Background(), changes); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got["count"].(float64) != 1 {
		t.Errorf("count = %v, want 1", got["count"])
	}
}

func TestWebhookChannelRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ch := &WebhookChannel{URL: srv.URL, Client: srv.Client(), logger: testLogger}
	err := ch.Send(context.Background(), []Change{{URL: "https://example.com/a", Type: ChangeAdded}})
	if err == nil {
		t.Error("Send should fail on 502")
	}
}
