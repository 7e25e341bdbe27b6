// Package api serves the REST control surface: topic submission, job
// tracking, engine status, and recently acquired records.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/PressGang/internal/browser"
	"github.com/IshaanNene/PressGang/internal/engine"
	"github.com/IshaanNene/PressGang/internal/types"
)

// recordRing caps how many recent records the server retains for /api/records.
const recordRing = 100

// Engine is the surface the API needs from the acquisition engine.
// *engine.Engine satisfies it.
type Engine interface {
	RunTopic(ctx context.Context, topic string, count int, platforms []string) (*types.TopicResult, error)
	GetState() engine.State
	Stats() *engine.Stats
	PoolStats() browser.PoolStats
}

// JobStatus tracks a topic job through its lifecycle.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job is one submitted topic acquisition.
type Job struct {
	ID         string     `json:"id"`
	Topic      string     `json:"topic"`
	Count      int        `json:"count,omitempty"`
	Platforms  []string   `json:"platforms,omitempty"`
	Status     JobStatus  `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Records    int        `json:"records,omitempty"`
	Style      string     `json:"style,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Server is the REST API server. Jobs run one at a time in submission
// order; the engine rejects overlapping runs anyway.
type Server struct {
	engine Engine
	port   int
	logger *slog.Logger
	mux    *http.ServeMux

	jobsMu sync.RWMutex
	jobs   map[string]*Job

	runMu sync.Mutex
	seq   atomic.Int64

	recMu   sync.Mutex
	records []*types.ContentRecord

	srvMu      sync.Mutex
	srv        *http.Server
	baseCtx    context.Context
	baseCancel context.CancelFunc
}

// NewServer creates an API server bound to the given engine.
func NewServer(eng Engine, port int, logger *slog.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		engine:     eng,
		port:       port,
		logger:     logger.With("component", "api"),
		mux:        http.NewServeMux(),
		jobs:       make(map[string]*Job),
		baseCtx:    ctx,
		baseCancel: cancel,
	}
	s.registerRoutes()
	return s
}

// ServeHTTP makes the server usable as a handler directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start serves the API on the configured port until Shutdown.
func (s *Server) Start() error {
	s.srvMu.Lock()
	defer s.srvMu.Unlock()
	if s.srv != nil {
		return fmt.Errorf("api server already running")
	}

	addr := fmt.Sprintf(":%d", s.port)
	s.srv = &http.Server{Addr: addr, Handler: s.mux}
	s.logger.Info("api server starting", "addr", addr)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("api server error", "error", err)
		}
	}()
	return nil
}

// Shutdown stops the listener and cancels any queued or running jobs.
func (s *Server) Shutdown(ctx context.Context) error {
	s.baseCancel()

	s.srvMu.Lock()
	srv := s.srv
	s.srv = nil
	s.srvMu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/records", s.handleRecords)

	s.mux.HandleFunc("POST /api/topics", s.handleCreateTopic)
	s.mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	s.mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts := map[JobStatus]int{}
	s.jobsMu.RLock()
	for _, j := range s.jobs {
		counts[j.Status]++
	}
	s.jobsMu.RUnlock()

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"state": s.engine.GetState().String(),
		"stats": s.engine.Stats().Snapshot(),
		"pool":  s.engine.PoolStats(),
		"jobs":  counts,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.engine.Stats().Snapshot())
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	s.recMu.Lock()
	records := make([]*types.ContentRecord, len(s.records))
	// Newest first.
	for i, rec := range s.records {
		records[len(s.records)-1-i] = rec
	}
	s.recMu.Unlock()

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"records": records,
	})
}

func (s *Server) handleCreateTopic(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Topic     string   `json:"topic"`
		Count     int      `json:"count"`
		Platforms []string `json:"platforms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	body.Topic = strings.TrimSpace(body.Topic)
	if body.Topic == "" {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "topic is required"})
		return
	}

	job := &Job{
		ID:        fmt.Sprintf("job-%d", s.seq.Add(1)),
		Topic:     body.Topic,
		Count:     body.Count,
		Platforms: body.Platforms,
		Status:    JobPending,
		CreatedAt: time.Now(),
	}

	// Respond with a copy; the job goroutine mutates the stored one.
	accepted := *job

	s.jobsMu.Lock()
	s.jobs[job.ID] = job
	s.jobsMu.Unlock()

	go s.runJob(job.ID)

	s.logger.Info("topic job accepted", "id", job.ID, "topic", job.Topic)
	s.jsonResponse(w, http.StatusAccepted, accepted)
}

// runJob executes one job. The run mutex serializes jobs in roughly
// submission order without holding HTTP handlers open.
func (s *Server) runJob(id string) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.baseCtx.Err() != nil {
		s.finishJob(id, nil, fmt.Errorf("server shutting down"))
		return
	}

	job := s.snapshotJob(id)
	if job == nil {
		return
	}
	s.markRunning(id)

	res, err := s.engine.RunTopic(s.baseCtx, job.Topic, job.Count, job.Platforms)
	s.finishJob(id, res, err)
	if res != nil {
		s.keepRecords(res)
	}
}

func (s *Server) snapshotJob(id string) *Job {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

func (s *Server) markRunning(id string) {
	now := time.Now()
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = JobRunning
		job.StartedAt = &now
	}
}

func (s *Server) finishJob(id string, res *types.TopicResult, err error) {
	now := time.Now()
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return
	}
	job.FinishedAt = &now
	if err != nil {
		job.Status = JobFailed
		job.Error = err.Error()
		s.logger.Warn("topic job failed", "id", id, "error", err)
		return
	}
	job.Status = JobDone
	job.Records = res.RecordCount()
	job.Style = res.Style
	s.logger.Info("topic job done", "id", id, "records", job.Records)
}

// keepRecords appends a run's output to the ring, dropping the oldest
// entries past the cap.
func (s *Server) keepRecords(res *types.TopicResult) {
	s.recMu.Lock()
	defer s.recMu.Unlock()

	s.records = append(s.records, res.Articles...)
	for _, posts := range res.Social {
		s.records = append(s.records, posts...)
	}
	if overflow := len(s.records) - recordRing; overflow > 0 {
		s.records = append(s.records[:0:0], s.records[overflow:]...)
	}
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	s.jobsMu.RLock()
	jobs := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, *j)
	}
	s.jobsMu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
	s.jsonResponse(w, http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job := s.snapshotJob(r.PathValue("id"))
	if job == nil {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
