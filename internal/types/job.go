package types

import (
	"fmt"
	"net/url"
	"time"
)

// ScrapeJob is one unit of acquisition work: a URL to visit (article path) or
// a query to run (platform path). Jobs are ephemeral and terminal on success,
// permanent failure, or timeout.
type ScrapeJob struct {
	// URL is the target URL for navigation jobs.
	URL string

	// Query is the topic query for platform fetch jobs.
	Query string

	// Platform names the producing fetcher ("article", "twitter", "reddit").
	Platform string

	// Index is the discovery position of this job. Results are reassembled
	// in Index order regardless of completion order.
	Index int

	// Attempt tracks how many times this job has been tried.
	Attempt int

	// MaxAttempts bounds retries. Exhaustion yields an empty result, never
	// an error surfaced to the caller.
	MaxAttempts int

	// CreatedAt is when this job was enqueued.
	CreatedAt time.Time

	// ID uniquely identifies the job.
	ID string
}

// NewScrapeJob creates a navigation job with default retry bounds.
func NewScrapeJob(rawURL string, index int) (*ScrapeJob, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, ErrInvalidURL)
	}
	return &ScrapeJob{
		URL:         u.String(),
		Platform:    "article",
		Index:       index,
		MaxAttempts: 3,
		CreatedAt:   time.Now(),
		ID:          fmt.Sprintf("%s-%d", u.Hostname(), time.Now().UnixNano()),
	}, nil
}

// Exhausted reports whether the job has used up its attempts.
func (j *ScrapeJob) Exhausted() bool {
	return j.Attempt >= j.MaxAttempts
}

// SearchResult is an ordered, deduplicated set of candidate URLs for a query.
type SearchResult struct {
	// Query is the search query that produced these links.
	Query string

	// URLs are candidate links in discovery order.
	URLs []string

	// Selector records which ladder selector yielded the links.
	Selector string

	// Filtered counts raw links rejected by the denylist, scheme check, or
	// duplicate detection.
	Filtered int

	// Duration is how long the search took.
	Duration time.Duration
}

// TopicResult is the combined output of one topic run.
type TopicResult struct {
	// Topic is the input topic.
	Topic string `json:"topic"`

	// Articles are long-form records in discovery order.
	Articles []*ContentRecord `json:"articles"`

	// Social maps platform name to short-post records. When every live
	// platform came up empty the single key is "mock".
	Social map[string][]*ContentRecord `json:"social"`

	// Digest is the rendered Markdown social summary.
	Digest string `json:"digest,omitempty"`

	// Style is the topic's tone classification.
	Style string `json:"style,omitempty"`

	// Duration is the wall time of the whole run.
	Duration time.Duration `json:"duration"`
}

// RecordCount returns the total number of records across articles and social.
func (t *TopicResult) RecordCount() int {
	n := len(t.Articles)
	for _, records := range t.Social {
		n += len(records)
	}
	return n
}
