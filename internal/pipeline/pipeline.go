// Package pipeline normalizes and validates content records between
// extraction and storage.
package pipeline

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/IshaanNene/PressGang/internal/search"
	"github.com/IshaanNene/PressGang/internal/types"
)

// Middleware processes a record and returns the (possibly modified) record.
// Return nil to drop the record from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a record. Return nil to drop the record.
	Process(record *types.ContentRecord) (*types.ContentRecord, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
	processed   atomic.Int64
	dropped     atomic.Int64
}

// New creates an empty Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Default creates a Pipeline with the standard article chain: trim,
// HTML sanitize, date normalize, required fields, dedup, word count.
func Default(logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(&TrimMiddleware{})
	p.Use(NewHTMLSanitizeMiddleware())
	p.Use(NewDateNormalizeMiddleware())
	p.Use(&RequiredFieldsMiddleware{})
	p.Use(NewDedupMiddleware())
	p.Use(&WordCountMiddleware{})
	return p
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the record through all middleware in order.
func (p *Pipeline) Process(record *types.ContentRecord) (*types.ContentRecord, error) {
	current := record

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			p.dropped.Add(1)
			return nil, &types.PipelineError{
				Stage:  mw.Name(),
				Record: current,
				Err:    err,
			}
		}
		if result == nil {
			p.dropped.Add(1)
			p.logger.Debug("record dropped", "stage", mw.Name(), "url", record.URL)
			return nil, nil
		}
		current = result
	}

	p.processed.Add(1)
	return current, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// Counts returns how many records passed the full chain and how many were
// dropped or errored out.
func (p *Pipeline) Counts() (processed, dropped int64) {
	return p.processed.Load(), p.dropped.Load()
}

// --- Built-in Middleware ---

// TrimMiddleware trims whitespace from the record's text fields.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(record *types.ContentRecord) (*types.ContentRecord, error) {
	record.Title = strings.TrimSpace(record.Title)
	record.Body = strings.TrimSpace(record.Body)
	record.Author = strings.TrimSpace(record.Author)
	return record, nil
}

// RequiredFieldsMiddleware drops records missing a URL or body text.
type RequiredFieldsMiddleware struct{}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(record *types.ContentRecord) (*types.ContentRecord, error) {
	if strings.TrimSpace(record.URL) == "" {
		return nil, nil
	}
	if record.IsEmpty() {
		return nil, nil
	}
	return record, nil
}

// DedupMiddleware drops records whose canonical URL was already processed.
type DedupMiddleware struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDedupMiddleware() *DedupMiddleware {
	return &DedupMiddleware{
		seen: make(map[string]struct{}),
	}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(record *types.ContentRecord) (*types.ContentRecord, error) {
	key := search.Canonicalize(record.URL)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.seen[key]; exists {
		return nil, nil
	}
	m.seen[key] = struct{}{}
	return record, nil
}

// WordCountMiddleware stamps the body word count onto the record.
type WordCountMiddleware struct{}

func (m *WordCountMiddleware) Name() string { return "word_count" }

func (m *WordCountMiddleware) Process(record *types.ContentRecord) (*types.ContentRecord, error) {
	record.WordCount = len(strings.Fields(record.Body))
	return record, nil
}
