// Package extract turns rendered HTML into article text through an ordered
// chain of fallback strategies.
package extract

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/PressGang/internal/config"
	"github.com/IshaanNene/PressGang/internal/types"
)

// Result is the outcome of one extraction.
type Result struct {
	Title    string
	Body     string
	Strategy string
	Markdown string
	Meta     Meta
}

// Extractor runs the extraction chain over rendered HTML.
type Extractor struct {
	cfg    config.ExtractConfig
	chain  []Strategy
	logger *slog.Logger
}

// New creates an Extractor with the configured chain.
func New(cfg config.ExtractConfig, logger *slog.Logger) *Extractor {
	return &Extractor{
		cfg:    cfg,
		chain:  Chain(cfg),
		logger: logger.With("component", "extractor"),
	}
}

// noiseSelector matches subtrees that never carry article content.
const noiseSelector = "script, style, nav, footer, header, iframe, noscript"

// Extract parses rawHTML and runs the strategy chain. The returned body is
// cleaned; when it comes out shorter than the configured floor, the title is
// prepended so downstream consumers always see the strongest signal first.
// An all-empty chain yields ErrNoContent.
func (e *Extractor) Extract(rawHTML, pageURL string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, &types.ExtractError{URL: pageURL, Strategy: "parse", Err: err}
	}

	u, err := url.Parse(pageURL)
	if err != nil {
		u = &url.URL{}
	}

	meta := ScanMeta(doc)

	doc.Find(noiseSelector).Remove()

	title := e.extractTitle(doc)

	src := &Source{Doc: doc, Raw: rawHTML, URL: u, Cfg: e.cfg}

	var body, winner string
	for _, strategy := range e.chain {
		if text := strategy.Extract(src); text != "" {
			body = text
			winner = strategy.Name
			break
		}
	}

	if body != "" {
		body = CleanText(body)
	}

	if title != "" && len(body) < e.cfg.ShortBodyLen {
		body = title + "\n\n" + body
	}

	result := &Result{
		Title:    title,
		Body:     strings.TrimSpace(body),
		Strategy: winner,
		Meta:     meta,
	}

	if e.cfg.CaptureMarkdown {
		if md, err := CaptureMarkdown(doc); err == nil {
			result.Markdown = md
		} else {
			e.logger.Debug("markdown capture failed", "url", pageURL, "error", err)
		}
	}

	if result.Body == "" {
		return result, &types.ExtractError{
			URL:      pageURL,
			Strategy: "chain",
			Err:      types.ErrNoContent,
		}
	}

	e.logger.Debug("extracted content",
		"url", pageURL,
		"strategy", winner,
		"title_len", len(title),
		"body_len", len(result.Body))

	return result, nil
}

// extractTitle resolves the page title: og:title meta, then the <title> tag,
// then the first <h1>.
func (e *Extractor) extractTitle(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if title := strings.TrimSpace(content); title != "" {
			return title
		}
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}
