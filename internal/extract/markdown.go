package extract

import (
	"errors"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// mdPolicy strips scripts, event handlers, and styling before conversion;
// what remains is user-content-grade HTML.
var mdPolicy = bluemonday.UGCPolicy()

var errNoContainer = errors.New("no content container found")

// CaptureMarkdown renders the page's content container as sanitized Markdown.
// The container search reuses the extraction chain's selector list; pages
// without a recognizable container yield an error, not whole-page noise.
func CaptureMarkdown(doc *goquery.Document) (string, error) {
	container := findContainer(doc)
	if container == nil {
		return "", errNoContainer
	}

	rawHTML, err := goquery.OuterHtml(container)
	if err != nil {
		return "", err
	}

	return htmltomarkdown.ConvertString(mdPolicy.Sanitize(rawHTML))
}

// findContainer returns the first matching content container, using the same
// ordered selector list as the container strategy.
func findContainer(doc *goquery.Document) *goquery.Selection {
	for _, selector := range containerSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}
