// Package observability exposes engine counters over HTTP in Prometheus
// text exposition format.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/IshaanNene/PressGang/internal/engine"
)

// Metrics serves the engine's live counters. It holds no counters of its
// own; every scrape reads the engine stats directly.
type Metrics struct {
	stats  *engine.Stats
	logger *slog.Logger

	mu  sync.Mutex
	srv *http.Server
}

// NewMetrics wraps the given stats block for exposition.
func NewMetrics(stats *engine.Stats, logger *slog.Logger) *Metrics {
	return &Metrics{
		stats:  stats,
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP writes the scrape body.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	s := m.stats
	rows := []struct {
		name  string
		help  string
		typ   string
		value int64
	}{
		{"pressgang_searches_total", "Search queries issued", "counter", s.Searches.Load()},
		{"pressgang_urls_discovered_total", "Candidate URLs returned by search", "counter", s.URLsDiscovered.Load()},
		{"pressgang_urls_filtered_total", "Candidate URLs rejected before scraping", "counter", s.URLsFiltered.Load()},
		{"pressgang_navigations_total", "Browser navigations attempted", "counter", s.Navigations.Load()},
		{"pressgang_nav_retries_total", "Navigations retried after transient failure", "counter", s.NavRetries.Load()},
		{"pressgang_challenges_total", "Challenge pages waited out", "counter", s.Challenges.Load()},
		{"pressgang_records_extracted_total", "Records produced by extraction", "counter", s.RecordsExtracted.Load()},
		{"pressgang_records_empty_total", "Jobs that yielded no usable record", "counter", s.RecordsEmpty.Load()},
		{"pressgang_records_processed_total", "Records that passed the pipeline", "counter", s.RecordsProcessed.Load()},
		{"pressgang_records_dropped_total", "Records dropped by the pipeline", "counter", s.RecordsDropped.Load()},
		{"pressgang_mock_substitutions_total", "Social batches served from mock data", "counter", s.MockSubstitutions.Load()},
		{"pressgang_records_stored_total", "Records written to storage", "counter", s.RecordsStored.Load()},
		{"pressgang_active_workers", "Workers currently processing a job", "gauge", int64(s.ActiveWorkers.Load())},
		{"pressgang_uptime_seconds", "Seconds since engine start", "gauge", uptimeSeconds(s)},
	}

	for _, row := range rows {
		fmt.Fprintf(w, "# HELP %s %s\n", row.name, row.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", row.name, row.typ)
		fmt.Fprintf(w, "%s %d\n", row.name, row.value)
	}
}

func uptimeSeconds(s *engine.Stats) int64 {
	if s.StartTime.IsZero() {
		return 0
	}
	return int64(time.Since(s.StartTime).Seconds())
}

// Handler returns the full metrics mux: the scrape path plus /health.
func (m *Metrics) Handler(path string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	return mux
}

// StartServer serves metrics on the given port until Shutdown.
func (m *Metrics) StartServer(port int, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.srv != nil {
		return fmt.Errorf("metrics server already running")
	}

	addr := fmt.Sprintf(":%d", port)
	m.srv = &http.Server{Addr: addr, Handler: m.Handler(path)}
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := m.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
	return nil
}

// Shutdown stops the metrics server, waiting for in-flight scrapes.
func (m *Metrics) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	srv := m.srv
	m.srv = nil
	m.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
