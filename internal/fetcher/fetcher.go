// Package fetcher is the plain HTTP transport. Robots probes, thumbnail
// downloads, and the old.reddit fallback go through here instead of
// burning a browser tab.
package fetcher

import (
	"context"

	"github.com/IshaanNene/PressGang/internal/types"
)

// Fetcher retrieves documents over plain HTTP.
type Fetcher interface {
	// Fetch retrieves the content at the given request's URL.
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}
