package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"

	"github.com/IshaanNene/PressGang/internal/types"
)

// Tab is a pooled browser page with bookkeeping for LRU rotation.
type Tab struct {
	page     *rod.Page
	id       int
	lastUsed time.Time
	busy     bool
}

// Page returns the underlying rod page.
func (t *Tab) Page() *rod.Page { return t.page }

// ID returns the tab's index within the pool.
func (t *Tab) ID() int { return t.id }

// LastUsed returns the tab's rotation timestamp. Callers that share the
// pool must not rely on it while other goroutines acquire.
func (t *Tab) LastUsed() time.Time { return t.lastUsed }

// Busy reports whether the tab is checked out.
func (t *Tab) Busy() bool { return t.busy }

// PageFactory opens a fresh page, usually Browser.NewPage.
type PageFactory func() (*rod.Page, error)

// TabPool multiplexes a fixed set of tabs across workers. Acquire hands out
// the least recently used tab and stamps it, so overlapping callers rotate
// through the pool instead of piling onto one page. It is not a lock: when
// every tab is checked out the oldest one is shared, and callers tolerate
// that the same way a human tolerates a stolen browser tab.
type TabPool struct {
	mu      sync.Mutex
	tabs    []*Tab
	closed  bool
	ready   chan struct{}
	newPage PageFactory
	size    int
	now     func() time.Time
	logger  *slog.Logger
}

// PoolStats is a point-in-time view of the pool.
type PoolStats struct {
	// Size is the number of tabs the pool was started with.
	Size int `json:"size"`
	// InUse counts tabs currently checked out.
	InUse int `json:"in_use"`
}

// NewTabPool creates a pool of the given size. Start must be called before
// tabs can be acquired.
func NewTabPool(size int, newPage PageFactory, logger *slog.Logger) *TabPool {
	if size < 1 {
		size = 1
	}
	return &TabPool{
		ready:   make(chan struct{}),
		newPage: newPage,
		size:    size,
		now:     time.Now,
		logger:  logger.With("component", "tabpool"),
	}
}

// TabPool builds a pool backed by this browser's stealth pages.
func (b *Browser) TabPool(size int) *TabPool {
	return NewTabPool(size, b.NewPage, b.logger)
}

// Start opens the pool's tabs. On partial failure every opened tab is
// closed and the error is returned.
func (p *TabPool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return types.ErrTabPoolClosed
	}
	if p.tabs != nil {
		return nil
	}

	tabs := make([]*Tab, 0, p.size)
	born := p.now()
	for i := 0; i < p.size; i++ {
		page, err := p.newPage()
		if err != nil {
			for _, t := range tabs {
				closePage(t.page)
			}
			return fmt.Errorf("open tab %d: %w", i, err)
		}
		tabs = append(tabs, &Tab{page: page, id: i, lastUsed: born})
	}

	p.tabs = tabs
	close(p.ready)
	p.logger.Info("tab pool started", "tabs", p.size)
	return nil
}

// Acquire returns the least recently used tab, marks it busy, and stamps
// its rotation timestamp. It blocks until Start has run or the context is
// done. Acquire never waits for a busy tab.
func (p *TabPool) Acquire(ctx context.Context) (*Tab, error) {
	select {
	case <-p.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, types.ErrTabPoolClosed
	}

	var oldest *Tab
	for _, t := range p.tabs {
		if oldest == nil || t.lastUsed.Before(oldest.lastUsed) {
			oldest = t
		}
	}

	oldest.busy = true
	oldest.lastUsed = p.now()
	return oldest, nil
}

// Release parks the tab on about:blank, clears its busy mark, and stamps
// its timestamp so it rotates to the back of the pool.
func (p *TabPool) Release(tab *Tab) {
	if tab == nil {
		return
	}
	blankPage(tab.page)

	p.mu.Lock()
	defer p.mu.Unlock()

	tab.busy = false
	tab.lastUsed = p.now()
}

// Stats reports pool occupancy.
func (p *TabPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := PoolStats{Size: len(p.tabs)}
	for _, t := range p.tabs {
		if t.busy {
			stats.InUse++
		}
	}
	return stats
}

// Close shuts every tab. Acquire fails with ErrTabPoolClosed afterwards.
func (p *TabPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, t := range p.tabs {
		closePage(t.page)
	}
	p.logger.Info("tab pool closed", "tabs", len(p.tabs))
	return nil
}

func closePage(page *rod.Page) {
	if page == nil {
		return
	}
	_ = page.Close()
}
