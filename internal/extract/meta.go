package extract

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Meta holds page-level metadata gathered from OpenGraph, Twitter Card, and
// JSON-LD blocks. All fields are best-effort and may be empty.
type Meta struct {
	Author      string
	PublishedAt time.Time
	ImageURL    string
	Description string
	SiteName    string
}

// publishedFormats are the timestamp layouts seen in the wild for
// article:published_time and JSON-LD datePublished.
var publishedFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"02 Jan 2006",
}

// ScanMeta collects metadata from the document. Call before stripping script
// tags: JSON-LD lives inside them.
func ScanMeta(doc *goquery.Document) Meta {
	var m Meta

	og := scanProperties(doc, `meta[property^="og:"]`, "property", "og:")
	tw := scanTwitter(doc)

	m.Description = firstNonEmpty(og["description"], tw["description"],
		metaContent(doc, `meta[name="description"]`))
	m.ImageURL = firstNonEmpty(og["image"], tw["image"])
	m.SiteName = og["site_name"]
	m.Author = firstNonEmpty(metaContent(doc, `meta[name="author"]`), tw["creator"])

	if published := metaContent(doc, `meta[property="article:published_time"]`); published != "" {
		m.PublishedAt = parsePublished(published)
	}

	scanJSONLD(doc, &m)

	return m
}

func scanProperties(doc *goquery.Document, selector, attr, prefix string) map[string]string {
	data := make(map[string]string)
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr(attr)
		content, _ := sel.Attr("content")
		if name != "" && content != "" {
			data[strings.TrimPrefix(name, prefix)] = content
		}
	})
	return data
}

func scanTwitter(doc *goquery.Document) map[string]string {
	data := make(map[string]string)
	doc.Find(`meta[name^="twitter:"], meta[property^="twitter:"]`).Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		if name == "" {
			name, _ = sel.Attr("property")
		}
		content, _ := sel.Attr("content")
		if name != "" && content != "" {
			data[strings.TrimPrefix(name, "twitter:")] = content
		}
	})
	return data
}

// scanJSONLD fills author and publication date from ld+json blocks when the
// meta tags came up empty.
func scanJSONLD(doc *goquery.Document, m *Meta) {
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return true
		}

		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			var arr []map[string]any
			if err := json.Unmarshal([]byte(raw), &arr); err != nil || len(arr) == 0 {
				return true
			}
			data = arr[0]
		}

		if m.Author == "" {
			m.Author = jsonLDAuthor(data["author"])
		}
		if m.PublishedAt.IsZero() {
			if published, ok := data["datePublished"].(string); ok {
				m.PublishedAt = parsePublished(published)
			}
		}
		return m.Author == "" || m.PublishedAt.IsZero()
	})
}

// jsonLDAuthor handles the three common author encodings: a plain string, an
// object with a name, or an array of either.
func jsonLDAuthor(v any) string {
	switch author := v.(type) {
	case string:
		return strings.TrimSpace(author)
	case map[string]any:
		if name, ok := author["name"].(string); ok {
			return strings.TrimSpace(name)
		}
	case []any:
		for _, entry := range author {
			if name := jsonLDAuthor(entry); name != "" {
				return name
			}
		}
	}
	return ""
}

func parsePublished(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range publishedFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
