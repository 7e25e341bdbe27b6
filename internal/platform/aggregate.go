package platform

import (
	"context"
	"log/slog"
	"sync"

	"github.com/IshaanNene/PressGang/internal/types"
)

// Aggregator fans a topic out to every requested platform and collects the
// results. It never returns an empty map: a platform failure becomes an
// empty slice, and an all-empty outcome is replaced with generated content
// under the "mock" key.
type Aggregator struct {
	registry *Registry
	logger   *slog.Logger
}

// NewAggregator builds an aggregator over the registry.
func NewAggregator(registry *Registry, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		registry: registry,
		logger:   logger.With("component", "aggregator"),
	}
}

// Fetch gathers posts from each named platform in parallel. Every named
// platform gets a key in the result; the "mock" key appears only when no
// platform produced anything.
func (a *Aggregator) Fetch(ctx context.Context, topic string, count int, platforms []string) map[string][]*types.ContentRecord {
	if len(platforms) == 0 {
		platforms = a.registry.Names()
	}

	results := make(map[string][]*types.ContentRecord, len(platforms))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, name := range platforms {
		f, ok := a.registry.Get(name)
		if !ok {
			a.logger.Warn("unknown platform requested", "platform", name)
			results[name] = nil
			continue
		}

		wg.Add(1)
		go func(name string, f Fetcher) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("platform fetch panicked", "platform", name, "panic", r)
					mu.Lock()
					results[name] = nil
					mu.Unlock()
				}
			}()

			records, err := f.Fetch(ctx, topic, count)
			if err != nil {
				a.logger.Error("platform fetch failed", "platform", name, "error", err)
				records = nil
			}

			mu.Lock()
			results[name] = records
			mu.Unlock()
			a.logger.Info("platform collected", "platform", name, "posts", len(records))
		}(name, f)
	}
	wg.Wait()

	allEmpty := true
	for _, records := range results {
		if len(records) > 0 {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		a.logger.Warn("no content found on any platform, using generated content", "topic", topic)
		results["mock"] = GenerateMock(topic, count)
	}

	return results
}
