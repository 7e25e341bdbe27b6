package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/IshaanNene/PressGang/internal/browser"
	"github.com/IshaanNene/PressGang/internal/engine"
	"github.com/IshaanNene/PressGang/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// stubEngine records RunTopic calls and returns a canned result.
type stubEngine struct {
	mu        sync.Mutex
	topics    []string
	counts    []int
	platforms [][]string

	res   *types.TopicResult
	err   error
	stats *engine.Stats
}

func newStubEngine(res *types.TopicResult, err error) *stubEngine {
	return &stubEngine{res: res, err: err, stats: engine.NewStats()}
}

func (s *stubEngine) RunTopic(ctx context.Context, topic string, count int, platforms []string) (*types.TopicResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics = append(s.topics, topic)
	s.counts = append(s.counts, count)
	s.platforms = append(s.platforms, platforms)
	return s.res, s.err
}

func (s *stubEngine) GetState() engine.State       { return engine.StateIdle }
func (s *stubEngine) Stats() *engine.Stats         { return s.stats }
func (s *stubEngine) PoolStats() browser.PoolStats { return browser.PoolStats{} }

func (s *stubEngine) lastCall() (string, int, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.topics) == 0 {
		return "", 0, nil
	}
	i := len(s.topics) - 1
	return s.topics[i], s.counts[i], s.platforms[i]
}

func articleSet(n int) *types.TopicResult {
	articles := make([]*types.ContentRecord, n)
	for i := range articles {
		articles[i] = &types.ContentRecord{
			URL:   fmt.Sprintf("https://example.com/story/%d", i),
			Title: fmt.Sprintf("story %d", i),
			Body:  "body text",
		}
	}
	return &types.TopicResult{
		Topic:    "test topic",
		Articles: articles,
		Social: map[string][]*types.ContentRecord{
			"twitter": {{URL: "https://twitter.com/u/status/1", Body: "a post", Platform: "twitter"}},
		},
		Style: "casual",
	}
}

func do(t *testing.T, s *Server, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))

	var decoded map[string]any
	json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func waitForJob(t *testing.T, s *Server, id string, want JobStatus) Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/"+id, nil))

		var job Job
		if err := json.Unmarshal(rec.Body.Bytes(), &job); err == nil && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s", id, want)
	return Job{}
}

// --- Route Tests ---

func TestHealth(t *testing.T) {
	s := NewServer(newStubEngine(nil, nil), 0, testLogger)
	rec, body := do(t, s, http.MethodGet, "/api/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestHealthRejectsPost(t *testing.T) {
	s := NewServer(newStubEngine(nil, nil), 0, testLogger)
	rec, _ := do(t, s, http.MethodPost, "/api/health", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /api/health = %d, want 405", rec.Code)
	}
}

func TestStatus(t *testing.T) {
	eng := newStubEngine(nil, nil)
	eng.stats.Navigations.Add(4)
	s := NewServer(eng, 0, testLogger)

	rec, body := do(t, s, http.MethodGet, "/api/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["state"] != "idle" {
		t.Errorf("state = %v", body["state"])
	}
	stats, ok := body["stats"].(map[string]any)
	if !ok || stats["navigations"] != float64(4) {
		t.Errorf("stats = %v", body["stats"])
	}
	if _, ok := body["pool"].(map[string]any); !ok {
		t.Errorf("pool = %v", body["pool"])
	}
}

func TestStats(t *testing.T) {
	eng := newStubEngine(nil, nil)
	eng.stats.RecordsStored.Add(9)
	s := NewServer(eng, 0, testLogger)

	_, body := do(t, s, http.MethodGet, "/api/stats", nil)
	if body["records_stored"] != float64(9) {
		t.Errorf("records_stored = %v", body["records_stored"])
	}
}

// --- Topic Job Tests ---

func TestCreateTopicValidation(t *testing.T) {
	s := NewServer(newStubEngine(nil, nil), 0, testLogger)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/topics", bytes.NewBufferString("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON = %d, want 400", rec.Code)
	}

	rec2, _ := do(t, s, http.MethodPost, "/api/topics", map[string]any{"topic": "   "})
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("blank topic = %d, want 400", rec2.Code)
	}
}

func TestCreateTopicRunsJob(t *testing.T) {
	eng := newStubEngine(articleSet(2), nil)
	s := NewServer(eng, 0, testLogger)

	rec, body := do(t, s, http.MethodPost, "/api/topics", map[string]any{
		"topic":     "cloud outages",
		"count":     3,
		"platforms": []string{"reddit"},
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("no job id in response: %v", body)
	}
	if body["status"] != string(JobPending) {
		t.Errorf("initial status = %v", body["status"])
	}

	job := waitForJob(t, s, id, JobDone)
	if job.Records != 3 {
		t.Errorf("job records = %d, want 3", job.Records)
	}
	if job.Style != "casual" {
		t.Errorf("job style = %q", job.Style)
	}
	if job.StartedAt == nil || job.FinishedAt == nil {
		t.Error("timestamps not set on finished job")
	}

	topic, count, platforms := eng.lastCall()
	if topic != "cloud outages" || count != 3 {
		t.Errorf("engine called with (%q, %d)", topic, count)
	}
	if len(platforms) != 1 || platforms[0] != "reddit" {
		t.Errorf("engine called with platforms %v", platforms)
	}
}

func TestJobFailure(t *testing.T) {
	eng := newStubEngine(nil, fmt.Errorf("no browser"))
	s := NewServer(eng, 0, testLogger)

	_, body := do(t, s, http.MethodPost, "/api/topics", map[string]any{"topic": "anything"})
	id, _ := body["id"].(string)

	job := waitForJob(t, s, id, JobFailed)
	if job.Error != "no browser" {
		t.Errorf("job error = %q", job.Error)
	}
}

func TestGetJobNotFound(t *testing.T) {
	s := NewServer(newStubEngine(nil, nil), 0, testLogger)
	rec, _ := do(t, s, http.MethodGet, "/api/jobs/job-999", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListJobsOrdered(t *testing.T) {
	eng := newStubEngine(articleSet(1), nil)
	s := NewServer(eng, 0, testLogger)

	_, first := do(t, s, http.MethodPost, "/api/topics", map[string]any{"topic": "first"})
	_, second := do(t, s, http.MethodPost, "/api/topics", map[string]any{"topic": "second"})

	waitForJob(t, s, first["id"].(string), JobDone)
	waitForJob(t, s, second["id"].(string), JobDone)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))

	var jobs []Job
	if err := json.Unmarshal(rec.Body.Bytes(), &jobs); err != nil {
		t.Fatalf("decoding job list: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("listed %d jobs, want 2", len(jobs))
	}
	if jobs[0].Topic != "first" || jobs[1].Topic != "second" {
		t.Errorf("jobs out of order: %q, %q", jobs[0].Topic, jobs[1].Topic)
	}
}

func TestShutdownFailsQueuedJobs(t *testing.T) {
	eng := newStubEngine(articleSet(1), nil)
	s := NewServer(eng, 0, testLogger)

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}

	_, body := do(t, s, http.MethodPost, "/api/topics", map[string]any{"topic": "late"})
	job := waitForJob(t, s, body["id"].(string), JobFailed)
	if job.Error == "" {
		t.Error("queued job after shutdown should carry an error")
	}
}

// --- Record Ring Tests ---

func TestRecordsEmpty(t *testing.T) {
	s := NewServer(newStubEngine(nil, nil), 0, testLogger)
	_, body := do(t, s, http.MethodGet, "/api/records", nil)
	if body["count"] != float64(0) {
		t.Errorf("count = %v, want 0", body["count"])
	}
}

func TestRecordsAfterJob(t *testing.T) {
	eng := newStubEngine(articleSet(2), nil)
	s := NewServer(eng, 0, testLogger)

	_, created := do(t, s, http.MethodPost, "/api/topics", map[string]any{"topic": "x"})
	waitForJob(t, s, created["id"].(string), JobDone)

	_, body := do(t, s, http.MethodGet, "/api/records", nil)
	if body["count"] != float64(3) {
		t.Fatalf("count = %v, want 3 (2 articles + 1 post)", body["count"])
	}
	records, _ := body["records"].([]any)
	first, _ := records[0].(map[string]any)
	if first["platform"] != "twitter" {
		t.Errorf("newest record should come first, got %v", first["url"])
	}
}

func TestRecordsRingCapped(t *testing.T) {
	eng := newStubEngine(articleSet(recordRing+40), nil)
	eng.res.Social = nil
	s := NewServer(eng, 0, testLogger)

	_, created := do(t, s, http.MethodPost, "/api/topics", map[string]any{"topic": "x"})
	waitForJob(t, s, created["id"].(string), JobDone)

	_, body := do(t, s, http.MethodGet, "/api/records", nil)
	if body["count"] != float64(recordRing) {
		t.Errorf("count = %v, want %d", body["count"], recordRing)
	}
	records, _ := body["records"].([]any)
	first, _ := records[0].(map[string]any)
	wantNewest := fmt.Sprintf("https://example.com/story/%d", recordRing+39)
	if first["url"] != wantNewest {
		t.Errorf("newest = %v, want %s", first["url"], wantNewest)
	}
}
