package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrEmptyTopic       = errors.New("topic is empty")
	ErrNoContent        = errors.New("no content extracted")
	ErrMaxRetries       = errors.New("max retries exceeded")
	ErrTabPoolClosed    = errors.New("tab pool is closed")
	ErrInvalidURL       = errors.New("invalid URL")
	ErrEngineStopped    = errors.New("engine has been stopped")
	ErrChallengeBlocked = errors.New("page blocked by anti-bot challenge")
)

// NavigationError wraps failures while driving a page to a URL.
type NavigationError struct {
	URL       string
	Attempt   int
	Err       error
	Retryable bool
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation error for %s (attempt %d): %v", e.URL, e.Attempt, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

func (e *NavigationError) IsRetryable() bool { return e.Retryable }

// ChallengeError reports an anti-bot challenge encountered on a page. Wait is
// the backoff applied before the reload.
type ChallengeError struct {
	URL     string
	Attempt int
	Wait    time.Duration
}

func (e *ChallengeError) Error() string {
	return fmt.Sprintf("challenge detected on %s (attempt %d, backing off %s)", e.URL, e.Attempt, e.Wait)
}

func (e *ChallengeError) Unwrap() error { return ErrChallengeBlocked }

// IsRetryable is always true: challenges clear after backoff, so the job may
// try again within its attempt budget.
func (e *ChallengeError) IsRetryable() bool { return true }

// ExtractError wraps failures of the extraction chain for a document.
type ExtractError struct {
	URL      string
	Strategy string
	Err      error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract error for %s (strategy=%q): %v", e.URL, e.Strategy, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// FetchError wraps errors from the plain HTTP transport.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
	// RetryAfter carries the server-requested wait on rate limits.
	RetryAfter time.Duration
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s/%s): %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PipelineError wraps errors that occur in the record pipeline.
type PipelineError struct {
	Stage  string
	Record *ContentRecord
	Err    error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
