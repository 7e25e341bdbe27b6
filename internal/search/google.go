package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/PressGang/internal/browser"
	"github.com/IshaanNene/PressGang/internal/config"
	"github.com/IshaanNene/PressGang/internal/types"
)

const (
	googleURL         = "https://www.google.com"
	searchBoxSelector = "[name=q]"
	searchSettle      = 3 * time.Second
)

// resultSelectors is the ladder of result-link selectors, most specific
// first. Google reshuffles its markup often enough that any single
// selector rots; the ladder stops at the first rung that yields links.
var resultSelectors = []string{
	"div.g div.yuRUbf > a",
	"div.tF2Cxc > div.yuRUbf > a",
	"div.g a[href^='http']",
	"a[jsname]",
	"a[ping]",
	"a[href^='http']",
}

// GoogleProvider searches Google through a pooled browser tab.
type GoogleProvider struct {
	pool   *browser.TabPool
	nav    *browser.Navigator
	cfg    config.SearchConfig
	dedup  *Deduplicator
	robots *RobotsGate
	logger *slog.Logger
}

// NewGoogleProvider builds a provider over the shared tab pool and
// navigation controller. The robots.txt gate is attached only when the
// config enables it.
func NewGoogleProvider(pool *browser.TabPool, nav *browser.Navigator, cfg config.SearchConfig, logger *slog.Logger) *GoogleProvider {
	p := &GoogleProvider{
		pool:   pool,
		nav:    nav,
		cfg:    cfg,
		dedup:  NewDeduplicator(64),
		logger: logger.With("component", "search"),
	}
	if cfg.RespectRobotsTxt {
		p.robots = NewRobotsGate("", logger)
	}
	return p
}

// Search submits the query and walks the selector ladder over the result
// page. Returned URLs are unwrapped from redirect links, filtered against
// the excluded domains, and deduplicated across calls.
func (p *GoogleProvider) Search(ctx context.Context, query string, limit int) (*types.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, types.ErrEmptyTopic
	}
	if limit <= 0 {
		limit = p.cfg.MaxResults
	}
	start := time.Now()

	tab, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.pool.Release(tab)
	page := tab.Page()

	p.logger.Info("searching", "query", query, "limit", limit)

	if err := jitter(ctx, 5*time.Second, 8*time.Second); err != nil {
		return nil, err
	}
	if err := p.nav.Navigate(ctx, page, googleURL); err != nil {
		return nil, err
	}
	if err := jitter(ctx, 2*time.Second, 4*time.Second); err != nil {
		return nil, err
	}
	if _, err := p.nav.HandleChallenge(ctx, page, googleURL); err != nil {
		return nil, err
	}

	actions := browser.NewActions(page, p.logger)
	if err := actions.TypeText(searchBoxSelector, query); err != nil {
		return nil, fmt.Errorf("search box: %w", err)
	}
	if err := actions.PressEnter(); err != nil {
		return nil, fmt.Errorf("submit search: %w", err)
	}
	if err := sleepCtx(ctx, searchSettle); err != nil {
		return nil, err
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("capture results: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}

	urls, selector, filtered := harvestResults(doc, limit, p.cfg.ExcludedDomains, p.dedup)
	if p.robots != nil {
		allowed := p.robots.Filter(urls)
		filtered += len(urls) - len(allowed)
		urls = allowed
	}

	p.logger.Info("search complete",
		"query", query,
		"urls", len(urls),
		"filtered", filtered,
		"selector", selector,
		"duration", time.Since(start))

	return &types.SearchResult{
		Query:    query,
		URLs:     urls,
		Selector: selector,
		Filtered: filtered,
		Duration: time.Since(start),
	}, nil
}

// harvestResults walks the selector ladder and collects result links.
// Each rung probes only its first limit elements; the first rung that
// yields anything wins. The filtered count covers rejected and duplicate
// links on the winning rung.
func harvestResults(doc *goquery.Document, limit int, excluded []string, dedup *Deduplicator) ([]string, string, int) {
	for _, selector := range resultSelectors {
		found := doc.Find(selector)
		if found.Length() == 0 {
			continue
		}

		urls := make([]string, 0, limit)
		filtered := 0
		found.EachWithBreak(func(i int, sel *goquery.Selection) bool {
			if i >= limit {
				return false
			}
			href, ok := sel.Attr("href")
			if !ok {
				return true
			}
			target := UnwrapRedirect(href)
			if !allowedURL(target, excluded) {
				filtered++
				return true
			}
			if dedup.IsSeen(target) {
				filtered++
				return true
			}
			dedup.MarkSeen(target)
			urls = append(urls, target)
			return len(urls) < limit
		})

		if len(urls) > 0 {
			return urls, selector, filtered
		}
	}
	return nil, "", 0
}

// UnwrapRedirect resolves Google's /url?q= redirect links to their target.
func UnwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.Path == "/url" {
		if q := u.Query().Get("q"); q != "" {
			return q
		}
	}
	return href
}

// allowedURL keeps absolute http(s) links that hit none of the excluded
// domains. Matching is a substring check over the lowercased URL.
func allowedURL(rawURL string, excluded []string) bool {
	if !strings.HasPrefix(rawURL, "http") {
		return false
	}
	lower := strings.ToLower(rawURL)
	for _, domain := range excluded {
		if strings.Contains(lower, domain) {
			return false
		}
	}
	return true
}

// sleepCtx waits for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
