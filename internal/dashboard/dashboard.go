// Package dashboard serves a self-refreshing HTML status page over the
// engine's live counters.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/IshaanNene/PressGang/internal/engine"
)

// StatsProvider is the slice of the engine the dashboard reads.
// *engine.Engine satisfies it.
type StatsProvider interface {
	Stats() *engine.Stats
	GetState() engine.State
}

// Dashboard serves the status page and its stats feed.
type Dashboard struct {
	port     int
	provider StatsProvider
	logger   *slog.Logger

	mu  sync.Mutex
	srv *http.Server
}

// NewDashboard creates a dashboard server. The provider may be nil; the
// page then renders zeros.
func NewDashboard(port int, provider StatsProvider, logger *slog.Logger) *Dashboard {
	return &Dashboard{
		port:     port,
		provider: provider,
		logger:   logger.With("component", "dashboard"),
	}
}

// Handler returns the dashboard routes.
func (d *Dashboard) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", d.handlePage)
	mux.HandleFunc("/api/stats", d.handleStats)
	return mux
}

// Start serves the dashboard until Shutdown.
func (d *Dashboard) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.srv != nil {
		return fmt.Errorf("dashboard already running")
	}

	addr := fmt.Sprintf(":%d", d.port)
	d.srv = &http.Server{Addr: addr, Handler: d.Handler()}
	d.logger.Info("dashboard starting", "addr", addr)

	go func() {
		if err := d.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			d.logger.Error("dashboard error", "error", err)
		}
	}()
	return nil
}

// Shutdown stops the dashboard server.
func (d *Dashboard) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	srv := d.srv
	d.srv = nil
	d.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (d *Dashboard) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(dashboardHTML))
}

func (d *Dashboard) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if d.provider != nil {
		stats["state"] = d.provider.GetState().String()
		for k, v := range d.provider.Stats().Snapshot() {
			stats[k] = v
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(stats)
}
