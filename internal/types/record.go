package types

import (
	"encoding/json"
	"strings"
	"time"
)

// SourceKind distinguishes long-form articles from short social posts.
type SourceKind string

const (
	SourceArticle   SourceKind = "article"
	SourceShortPost SourceKind = "short_post"
)

// ContentRecord is a single unit of acquired content. Every producer upholds
// two invariants: Body is non-empty (empty extractions are discarded upstream)
// and URL is the absolute URL that was actually visited.
type ContentRecord struct {
	// URL is the absolute source URL of the content.
	URL string `json:"url" bson:"url"`

	// Title is the extracted or derived title. May be empty for short posts.
	Title string `json:"title,omitempty" bson:"title,omitempty"`

	// Body is the extracted text content. Never empty in a stored record.
	Body string `json:"body" bson:"body"`

	// Kind reports whether this is an article or a short post.
	Kind SourceKind `json:"kind" bson:"kind"`

	// Platform identifies the producing source ("article", "twitter",
	// "reddit", "mock").
	Platform string `json:"platform" bson:"platform"`

	// Author is the attributed author handle, when one could be determined.
	Author string `json:"author,omitempty" bson:"author,omitempty"`

	// PublishedAt is the publication timestamp. Zero when unknown.
	PublishedAt time.Time `json:"published_at,omitempty" bson:"published_at,omitempty"`

	// FetchedAt is when the record was acquired.
	FetchedAt time.Time `json:"fetched_at" bson:"fetched_at"`

	// Markdown is an optional sanitized Markdown rendition of the content
	// container. Populated only when markdown capture is enabled.
	Markdown string `json:"markdown,omitempty" bson:"markdown,omitempty"`

	// ImageURL is the resolved lead image (og:image), when present.
	ImageURL string `json:"image_url,omitempty" bson:"image_url,omitempty"`

	// Style is the analyzer's tone label (professional, casual, simple).
	Style string `json:"style,omitempty" bson:"style,omitempty"`

	// WordCount is the number of words in Body, stamped by the pipeline.
	WordCount int `json:"word_count,omitempty" bson:"word_count,omitempty"`
}

// NewRecord creates a ContentRecord stamped with the current time.
func NewRecord(url string, kind SourceKind, platform string) *ContentRecord {
	return &ContentRecord{
		URL:       url,
		Kind:      kind,
		Platform:  platform,
		FetchedAt: time.Now(),
	}
}

// IsEmpty reports whether the record carries no usable body text.
func (r *ContentRecord) IsEmpty() bool {
	return strings.TrimSpace(r.Body) == ""
}

// Snippet returns the first n runes of the body with an ellipsis when
// truncated.
func (r *ContentRecord) Snippet(n int) string {
	runes := []rune(r.Body)
	if len(runes) <= n {
		return r.Body
	}
	return string(runes[:n]) + "..."
}

// ToJSON serializes the record to JSON bytes.
func (r *ContentRecord) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// ToFlatMap returns a flat string map suitable for CSV export.
func (r *ContentRecord) ToFlatMap() map[string]string {
	flat := map[string]string{
		"url":        r.URL,
		"title":      r.Title,
		"body":       r.Body,
		"kind":       string(r.Kind),
		"platform":   r.Platform,
		"author":     r.Author,
		"style":      r.Style,
		"image_url":  r.ImageURL,
		"fetched_at": r.FetchedAt.Format(time.RFC3339),
	}
	if !r.PublishedAt.IsZero() {
		flat["published_at"] = r.PublishedAt.Format(time.RFC3339)
	} else {
		flat["published_at"] = ""
	}
	return flat
}

// Clone creates a copy of the record.
func (r *ContentRecord) Clone() *ContentRecord {
	clone := *r
	return &clone
}
