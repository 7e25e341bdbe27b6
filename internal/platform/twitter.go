package platform

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/PressGang/internal/browser"
	"github.com/IshaanNene/PressGang/internal/search"
	"github.com/IshaanNene/PressGang/internal/types"
)

// TwitterFetcher finds recent posts by running a Google site-search for
// x.com/twitter.com status links, then visiting each one. Going through
// Google sidesteps the login wall on the platform's own search.
type TwitterFetcher struct {
	pool   *browser.TabPool
	nav    *browser.Navigator
	logger *slog.Logger
}

// NewTwitterFetcher builds the fetcher over the shared pool and navigator.
func NewTwitterFetcher(pool *browser.TabPool, nav *browser.Navigator, logger *slog.Logger) *TwitterFetcher {
	return &TwitterFetcher{
		pool:   pool,
		nav:    nav,
		logger: logger.With("component", "twitter"),
	}
}

// Platform returns the platform name.
func (f *TwitterFetcher) Platform() string { return "twitter" }

// Fetch searches for status links and extracts each post.
func (f *TwitterFetcher) Fetch(ctx context.Context, topic string, count int) ([]*types.ContentRecord, error) {
	tab, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer f.pool.Release(tab)
	page := tab.Page()

	query := url.Values{"q": {topic + " site:x.com OR site:twitter.com recent"}}
	searchURL := "https://www.google.com/search?" + query.Encode()

	visit, err := f.nav.Visit(ctx, page, searchURL)
	if err != nil {
		return nil, err
	}

	links := harvestStatusLinks(visit.HTML, count)
	f.logger.Info("found status links", "topic", topic, "links", len(links))

	posts := make([]*types.ContentRecord, 0, len(links))
	for _, link := range links {
		tweetVisit, err := f.nav.Visit(ctx, page, link)
		if err != nil {
			f.logger.Warn("failed to open post", "url", link, "error", err)
			continue
		}
		if post := parseTweet(tweetVisit.HTML, link); post != nil {
			posts = append(posts, post)
		}
	}

	f.logger.Info("twitter fetch complete", "topic", topic, "posts", len(posts))
	return posts, nil
}

// harvestStatusLinks pulls status permalinks out of a search result page,
// unwrapping redirect links and skipping search-page links. Order is kept;
// duplicates are dropped.
func harvestStatusLinks(html string, limit int) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	links := make([]string, 0, limit)

	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		href = search.UnwrapRedirect(href)
		if !isStatusLink(href) {
			return true
		}
		if _, dup := seen[href]; dup {
			return true
		}
		seen[href] = struct{}{}
		links = append(links, href)
		return len(links) < limit
	})

	return links
}

// isStatusLink matches x.com and twitter.com post permalinks.
func isStatusLink(href string) bool {
	if !strings.HasPrefix(href, "http") {
		return false
	}
	if strings.Contains(href, "/search?") {
		return false
	}
	if !strings.Contains(href, "twitter.com/") && !strings.Contains(href, "x.com/") {
		return false
	}
	return strings.Contains(href, "/status/")
}

// parseTweet extracts one post from a rendered status page.
func parseTweet(html, link string) *types.ContentRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	author := strings.TrimSpace(doc.Find(`a[role='link'][tabindex='-1']`).First().Text())
	if author == "" {
		author = "Unknown"
	}
	if !strings.HasPrefix(author, "@") {
		author = "@" + author
	}

	text := "No text available"
	if article := doc.Find("article").First(); article.Length() > 0 {
		if langDiv := article.Find("div[lang]").First(); langDiv.Length() > 0 {
			text = strings.TrimSpace(langDiv.Text())
		} else {
			article.Find("p, span").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
				candidate := strings.TrimSpace(sel.Text())
				if len(candidate) > 20 {
					text = candidate
					return false
				}
				return true
			})
		}
	}

	record := types.NewRecord(link, types.SourceShortPost, "twitter")
	record.Author = author
	record.Body = text
	if datetime, ok := doc.Find("time").First().Attr("datetime"); ok {
		if ts, err := time.Parse(time.RFC3339, datetime); err == nil {
			record.PublishedAt = ts
		}
	}
	return record
}
