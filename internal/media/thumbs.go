// Package media resolves and downloads article thumbnails. Records always
// carry the thumbnail URL; fetching the bytes is opt-in via configuration.
package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/PressGang/internal/config"
	"github.com/IshaanNene/PressGang/internal/fetcher"
	"github.com/IshaanNene/PressGang/internal/types"
)

// Resolve picks the best thumbnail URL out of a page: og:image first, then
// twitter:image, then the first content image. Relative URLs are resolved
// against baseURL. Returns "" when the page has no usable image.
func Resolve(html, baseURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	if v, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok {
		if abs := absolutize(baseURL, v); abs != "" {
			return abs
		}
	}
	if v, ok := doc.Find(`meta[name="twitter:image"], meta[property="twitter:image"]`).First().Attr("content"); ok {
		if abs := absolutize(baseURL, v); abs != "" {
			return abs
		}
	}

	// Fall back to images inside the content area before anything else on
	// the page; headers and sidebars are full of logos.
	for _, selector := range []string{"article img[src]", "main img[src]", "img[src]"} {
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			src, _ := sel.Attr("src")
			if strings.HasPrefix(src, "data:") {
				return true
			}
			if abs := absolutize(baseURL, src); abs != "" {
				found = abs
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}

	return ""
}

func absolutize(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if refURL.IsAbs() {
		return refURL.String()
	}
	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return ""
	}
	return baseURL.ResolveReference(refURL).String()
}

// Thumbnailer downloads thumbnails through the HTTP fetcher, capped by size
// and restricted to image content types. Safe for concurrent use.
type Thumbnailer struct {
	cfg     config.MediaConfig
	fetcher fetcher.Fetcher
	logger  *slog.Logger

	mu   sync.Mutex
	seen map[string]string // URL -> local path

	downloaded atomic.Int64
	skipped    atomic.Int64
}

// NewThumbnailer creates the target directory up front so that a bad path
// fails at construction, not mid-run.
func NewThumbnailer(cfg config.MediaConfig, f fetcher.Fetcher, logger *slog.Logger) (*Thumbnailer, error) {
	if f == nil {
		return nil, fmt.Errorf("thumbnailer requires a fetcher")
	}
	if cfg.Dir == "" {
		cfg.Dir = "./output/thumbs"
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating thumbnail dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Thumbnailer{
		cfg:     cfg,
		fetcher: f,
		logger:  logger.With("component", "media"),
		seen:    make(map[string]string),
	}, nil
}

// Download fetches a single image and writes it under the configured
// directory. The filename is derived from the URL hash, so downloading the
// same URL twice returns the existing path without refetching.
func (t *Thumbnailer) Download(ctx context.Context, rawURL string) (string, error) {
	t.mu.Lock()
	if path, ok := t.seen[rawURL]; ok {
		t.mu.Unlock()
		return path, nil
	}
	t.mu.Unlock()

	req, err := types.NewRequest(rawURL)
	if err != nil {
		return "", err
	}
	req.Tag = "thumbnail"

	resp, err := t.fetcher.Fetch(ctx, req)
	if err != nil {
		return "", err
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("thumbnail fetch returned %d for %s", resp.StatusCode, rawURL)
	}
	if !strings.HasPrefix(mediaType(resp.ContentType), "image/") {
		t.skipped.Add(1)
		return "", fmt.Errorf("not an image: %s served %s", rawURL, resp.ContentType)
	}
	if max := t.cfg.MaxBytes; max > 0 && int64(len(resp.Body)) > max {
		t.skipped.Add(1)
		return "", fmt.Errorf("thumbnail too large: %s is %d bytes", rawURL, len(resp.Body))
	}

	hash := sha256.Sum256([]byte(rawURL))
	name := hex.EncodeToString(hash[:8]) + extensionFor(resp.ContentType)
	path := filepath.Join(t.cfg.Dir, name)

	if err := os.WriteFile(path, resp.Body, 0o644); err != nil {
		return "", fmt.Errorf("writing thumbnail: %w", err)
	}

	t.mu.Lock()
	t.seen[rawURL] = path
	t.mu.Unlock()
	t.downloaded.Add(1)

	t.logger.Debug("thumbnail saved", "url", rawURL, "path", path, "bytes", len(resp.Body))
	return path, nil
}

// Process downloads thumbnails for every record that carries an image URL.
// Failures are logged and skipped; the records themselves are never modified.
// Returns the number of successful downloads.
func (t *Thumbnailer) Process(ctx context.Context, records []*types.ContentRecord) int {
	const concurrency = 3

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var saved atomic.Int64

	for _, record := range records {
		if record == nil || record.ImageURL == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(imageURL string) {
			defer wg.Done()
			defer func() { <-sem }()

			if _, err := t.Download(ctx, imageURL); err != nil {
				t.logger.Debug("thumbnail skipped", "url", imageURL, "error", err)
				return
			}
			saved.Add(1)
		}(record.ImageURL)
	}

	wg.Wait()
	return int(saved.Load())
}

// Counts reports downloads and rejections since construction.
func (t *Thumbnailer) Counts() (downloaded, skipped int64) {
	return t.downloaded.Load(), t.skipped.Load()
}

// mediaType strips parameters like charset from a Content-Type header.
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

var imageExtensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/avif":    ".avif",
}

func extensionFor(contentType string) string {
	if ext, ok := imageExtensions[mediaType(contentType)]; ok {
		return ext
	}
	return ".img"
}
