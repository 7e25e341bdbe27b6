package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request represents a plain HTTP request for the non-browser transport
// (robots probes, thumbnail downloads, HTML fallback fetches).
type Request struct {
	// URL is the target URL to fetch.
	URL *url.URL

	// Method is the HTTP method. Defaults to GET.
	Method string

	// Headers are custom HTTP headers to send with the request.
	Headers http.Header

	// Timeout overrides the client timeout for this request.
	Timeout time.Duration

	// Tag categorizes the request ("robots", "thumbnail", "fallback").
	Tag string

	// CreatedAt is when this request was created.
	CreatedAt time.Time

	// ID is a unique identifier for this request.
	ID string
}

// NewRequest creates a Request with defaults.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	return &Request{
		URL:       u,
		Method:    http.MethodGet,
		Headers:   make(http.Header),
		CreatedAt: time.Now(),
		ID:        fmt.Sprintf("%s-%d", u.String(), time.Now().UnixNano()),
	}, nil
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Domain returns the hostname of the request URL.
func (r *Request) Domain() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Hostname()
}

// Clone creates a deep copy of the request.
func (r *Request) Clone() *Request {
	clone := *r
	if r.URL != nil {
		u := *r.URL
		clone.URL = &u
	}
	clone.Headers = r.Headers.Clone()
	return &clone
}
