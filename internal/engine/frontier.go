package engine

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/IshaanNene/PressGang/internal/types"
)

// Frontier is a thread-safe queue of scrape jobs ordered by discovery
// index. Retried jobs keep their original index, so a requeued early
// discovery jumps ahead of later ones.
type Frontier struct {
	mu     sync.Mutex
	jobs   jobHeap
	closed bool
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	f := &Frontier{jobs: make(jobHeap, 0, 16)}
	heap.Init(&f.jobs)
	return f
}

// Push adds a job. Pushes after Close are dropped.
func (f *Frontier) Push(job *types.ScrapeJob) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	heap.Push(&f.jobs, job)
}

// Pop removes and returns the lowest-index job, polling until one is
// available. Returns nil once the frontier is closed and empty, or when
// the context ends.
func (f *Frontier) Pop(ctx context.Context) *types.ScrapeJob {
	for {
		f.mu.Lock()
		if f.jobs.Len() > 0 {
			job := heap.Pop(&f.jobs).(*types.ScrapeJob)
			f.mu.Unlock()
			return job
		}
		closed := f.closed
		f.mu.Unlock()

		if closed {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// TryPop attempts a non-blocking dequeue. Returns nil if empty.
func (f *Frontier) TryPop() *types.ScrapeJob {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.jobs.Len() == 0 {
		return nil
	}
	return heap.Pop(&f.jobs).(*types.ScrapeJob)
}

// Len returns the number of queued jobs.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs.Len()
}

// IsEmpty reports whether the frontier holds no jobs.
func (f *Frontier) IsEmpty() bool {
	return f.Len() == 0
}

// Close closes the frontier, unblocking waiting Pop calls.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// IsClosed reports whether Close has been called.
func (f *Frontier) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// --- Heap Implementation ---

type jobHeap []*types.ScrapeJob

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	// Lower index = earlier discovery = higher priority.
	return h[i].Index < h[j].Index
}

func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x any) {
	*h = append(*h, x.(*types.ScrapeJob))
}

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	job := old[n-1]
	old[n-1] = nil // GC
	*h = old[:n-1]
	return job
}
