// Package search turns a topic into candidate article URLs. The only
// shipping provider drives Google through a pooled browser tab; results
// are deduplicated by canonical URL and can be gated on robots.txt.
package search

import (
	"context"
	"math/rand"
	"time"

	"github.com/IshaanNene/PressGang/internal/types"
)

// Provider finds candidate URLs for a query.
type Provider interface {
	// Search returns up to limit URLs for the query, best first.
	Search(ctx context.Context, query string, limit int) (*types.SearchResult, error)
}

// jitter sleeps a random duration in [lo, hi], honoring the context.
// Search traffic with metronome timing is what gets a client walled.
func jitter(ctx context.Context, lo, hi time.Duration) error {
	d := lo
	if hi > lo {
		d += time.Duration(rand.Int63n(int64(hi - lo)))
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
