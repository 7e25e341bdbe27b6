// Package platform acquires short social posts per platform and guarantees
// the caller never walks away empty: when every real platform comes back
// blank, generated fallback content stands in.
package platform

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IshaanNene/PressGang/internal/types"
)

// Fetcher pulls short posts for a topic from one platform.
type Fetcher interface {
	// Platform returns the platform name ("twitter", "reddit").
	Platform() string

	// Fetch returns up to count posts about the topic. An empty slice is a
	// valid outcome; the aggregator decides what to do about it.
	Fetch(ctx context.Context, topic string, count int) ([]*types.ContentRecord, error)
}

// Registry holds the available platform fetchers by name.
type Registry struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
	order    []string
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		fetchers: make(map[string]Fetcher),
		logger:   logger.With("component", "platform_registry"),
	}
}

// Register adds a fetcher under its platform name.
func (r *Registry) Register(f Fetcher) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := f.Platform()
	if _, exists := r.fetchers[name]; exists {
		return fmt.Errorf("platform %q already registered", name)
	}

	r.fetchers[name] = f
	r.order = append(r.order, name)
	r.logger.Info("platform registered", "platform", name)
	return nil
}

// Get returns a fetcher by platform name.
func (r *Registry) Get(name string) (Fetcher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fetchers[name]
	return f, ok
}

// Names returns the registered platform names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
