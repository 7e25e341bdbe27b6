package platform

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/PressGang/internal/browser"
	"github.com/IshaanNene/PressGang/internal/config"
	"github.com/IshaanNene/PressGang/internal/fetcher"
	"github.com/IshaanNene/PressGang/internal/types"
)

// Class-name probes for reddit's churning DOM. The markup changes with
// every redesign wave, so matching falls back from the stable data-testid
// hook to fuzzy class patterns.
var (
	redditPostClassRe    = regexp.MustCompile(`Post|post-container|Post__post|Post-item`)
	redditTitleClassRe   = regexp.MustCompile(`title|Title`)
	redditAuthorClassRe  = regexp.MustCompile(`author|AuthorLink`)
	redditTimeClassRe    = regexp.MustCompile(`time|Time|date|Date|ago`)
	redditContentClassRe = regexp.MustCompile(`content|Content|body|Body|text-body`)

	relativeDateRe = regexp.MustCompile(`(\d+)\s+(\w+)`)
)

const redditPreviewLen = 150

// RedditFetcher pulls posts from reddit's search feed through the browser,
// with a plain-HTTP fallback against old.reddit.com when the rendered feed
// yields nothing.
type RedditFetcher struct {
	pool     *browser.TabPool
	nav      *browser.Navigator
	http     fetcher.Fetcher
	fallback bool
	logger   *slog.Logger
}

// NewRedditFetcher builds the fetcher. httpFetcher may be nil to disable
// the old.reddit fallback regardless of config.
func NewRedditFetcher(pool *browser.TabPool, nav *browser.Navigator, httpFetcher fetcher.Fetcher, cfg config.SocialConfig, logger *slog.Logger) *RedditFetcher {
	return &RedditFetcher{
		pool:     pool,
		nav:      nav,
		http:     httpFetcher,
		fallback: cfg.HTTPFallback && httpFetcher != nil,
		logger:   logger.With("component", "reddit"),
	}
}

// Platform returns the platform name.
func (f *RedditFetcher) Platform() string { return "reddit" }

// Fetch loads the search feed sorted by new, scrolls posts into the DOM,
// and parses them out.
func (f *RedditFetcher) Fetch(ctx context.Context, topic string, count int) ([]*types.ContentRecord, error) {
	tab, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer f.pool.Release(tab)
	page := tab.Page()

	query := url.Values{"q": {topic}, "sort": {"new"}}
	searchURL := "https://www.reddit.com/search/?" + query.Encode()

	visit, err := f.nav.Visit(ctx, page, searchURL)
	if err != nil {
		if f.fallback {
			return f.fetchOldReddit(ctx, topic, count)
		}
		return nil, err
	}

	// Feed pages keep loading as you scroll; pull in a few more screens.
	scrolls := count
	if scrolls > 3 {
		scrolls = 3
	}
	actions := browser.NewActions(page, f.logger)
	if _, err := actions.InfiniteScroll(scrolls, time.Second); err == nil {
		if html, herr := page.HTML(); herr == nil {
			visit.HTML = html
		}
	}

	posts := parseRedditPosts(visit.HTML, count)
	if len(posts) == 0 && f.fallback {
		f.logger.Info("rendered feed empty, trying old.reddit fallback", "topic", topic)
		return f.fetchOldReddit(ctx, topic, count)
	}

	f.logger.Info("reddit fetch complete", "topic", topic, "posts", len(posts))
	return posts, nil
}

// parseRedditPosts extracts posts from a rendered search feed.
func parseRedditPosts(html string, count int) []*types.ContentRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	containers := doc.Find(`div[data-testid='post-container']`)
	if containers.Length() == 0 {
		containers = doc.Find("div").FilterFunction(func(_ int, sel *goquery.Selection) bool {
			class, ok := sel.Attr("class")
			return ok && redditPostClassRe.MatchString(class)
		})
	}

	posts := make([]*types.ContentRecord, 0, count)
	containers.EachWithBreak(func(_ int, container *goquery.Selection) bool {
		titleSel := container.Find("h1, h2, h3").FilterFunction(classMatches(redditTitleClassRe)).First()
		title := strings.TrimSpace(titleSel.Text())
		if title == "" {
			title = "No title"
		}

		author := strings.TrimSpace(container.Find("a").FilterFunction(classMatches(redditAuthorClassRe)).First().Text())
		if author == "" {
			author = "Unknown"
		}
		if !strings.HasPrefix(author, "u/") {
			author = "u/" + author
		}

		postURL := ""
		if href, ok := titleSel.Closest("a").Attr("href"); ok {
			postURL = absoluteRedditURL(href)
		}

		dateText := strings.TrimSpace(container.Find("time, span").FilterFunction(classMatches(redditTimeClassRe)).First().Text())

		content := strings.TrimSpace(container.Find("div, p").FilterFunction(classMatches(redditContentClassRe)).First().Text())
		if content == "" {
			content = title
		}

		record := types.NewRecord(postURL, types.SourceShortPost, "reddit")
		record.Title = title
		record.Author = author
		record.Body = title + "\n\n" + truncateRunes(content, redditPreviewLen) + "..."
		record.PublishedAt = parseRelativeDate(dateText, time.Now())

		posts = append(posts, record)
		return len(posts) < count
	})

	return posts
}

// fetchOldReddit queries old.reddit.com search over plain HTTP. The legacy
// frontend renders server side, so no browser is needed.
func (f *RedditFetcher) fetchOldReddit(ctx context.Context, topic string, count int) ([]*types.ContentRecord, error) {
	query := url.Values{"q": {topic}, "sort": {"new"}}
	req, err := types.NewRequest("https://old.reddit.com/search?" + query.Encode())
	if err != nil {
		return nil, err
	}
	req.Tag = "fallback"

	resp, err := f.http.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, nil
	}

	doc, err := resp.Document()
	if err != nil {
		return nil, err
	}

	posts := make([]*types.ContentRecord, 0, count)
	doc.Find("div.search-result").EachWithBreak(func(_ int, result *goquery.Selection) bool {
		titleSel := result.Find("a.search-title").First()
		title := strings.TrimSpace(titleSel.Text())
		if title == "" {
			return true
		}

		author := strings.TrimSpace(result.Find("a.author").First().Text())
		if author == "" {
			author = "Unknown"
		}
		if !strings.HasPrefix(author, "u/") {
			author = "u/" + author
		}

		postURL := absoluteRedditURL(titleSel.AttrOr("href", ""))

		record := types.NewRecord(postURL, types.SourceShortPost, "reddit")
		record.Title = title
		record.Author = author
		record.Body = title + "\n\n" + truncateRunes(title, redditPreviewLen) + "..."
		if datetime, ok := result.Find("time").First().Attr("datetime"); ok {
			if ts, terr := time.Parse(time.RFC3339, datetime); terr == nil {
				record.PublishedAt = ts
			}
		}

		posts = append(posts, record)
		return len(posts) < count
	})

	f.logger.Info("old.reddit fallback complete", "topic", topic, "posts", len(posts))
	return posts, nil
}

// classMatches builds a selection filter on the class attribute.
func classMatches(re *regexp.Regexp) func(int, *goquery.Selection) bool {
	return func(_ int, sel *goquery.Selection) bool {
		class, ok := sel.Attr("class")
		return ok && re.MatchString(class)
	}
}

// absoluteRedditURL resolves relative post paths against www.reddit.com.
func absoluteRedditURL(href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return "https://www.reddit.com" + href
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// parseRelativeDate turns reddit's "5 hours ago" style stamps into a
// timestamp relative to now. Anything unparseable is treated as now.
func parseRelativeDate(dateText string, now time.Time) time.Time {
	if dateText == "" {
		return now
	}

	match := relativeDateRe.FindStringSubmatch(dateText)
	if match == nil {
		return now
	}

	num, err := strconv.Atoi(match[1])
	if err != nil {
		return now
	}
	unit := strings.TrimSuffix(strings.ToLower(match[2]), "s")

	var delta time.Duration
	switch unit {
	case "second":
		delta = time.Second
	case "minute":
		delta = time.Minute
	case "hour":
		delta = time.Hour
	case "day":
		delta = 24 * time.Hour
	case "week":
		delta = 7 * 24 * time.Hour
	case "month":
		delta = 30 * 24 * time.Hour
	case "year":
		delta = 365 * 24 * time.Hour
	default:
		return now
	}

	return now.Add(-time.Duration(num) * delta)
}
