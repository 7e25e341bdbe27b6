package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/IshaanNene/PressGang/internal/config"
)

// Source is the shared input to all strategies: one parsed document plus the
// raw HTML it came from.
type Source struct {
	Doc *goquery.Document
	Raw string
	URL *url.URL
	Cfg config.ExtractConfig
}

// Strategy is one step of the extraction chain. Strategies are pure: they
// read the source and return body text, or "" when they find nothing usable.
type Strategy struct {
	Name    string
	Extract func(src *Source) string
}

// Chain returns the ordered strategy list. The first non-empty result wins;
// order defines the quality contract, from targeted containers down to the
// whole-document sweep.
func Chain(cfg config.ExtractConfig) []Strategy {
	chain := make([]Strategy, 0, 5)
	if cfg.UseReadability {
		chain = append(chain, Strategy{Name: "readability", Extract: fromReadability})
	}
	chain = append(chain,
		Strategy{Name: "container", Extract: fromContainers},
		Strategy{Name: "paragraph", Extract: fromParagraphs},
		Strategy{Name: "text_block", Extract: fromTextBlocks},
		Strategy{Name: "document", Extract: fromDocument},
	)
	return chain
}

// containerSelectors are tried in order; the first selector whose first match
// yields fragments wins.
var containerSelectors = []string{
	"main",
	"article",
	`div[class*="content"]`,
	`div[class*="article"]`,
	`div[class*="post"]`,
	`div[id*="content"]`,
	`div[id*="article"]`,
	".blog-content",
	".post-content",
}

// fromContainers pulls paragraph-level fragments out of the first matching
// content container.
func fromContainers(src *Source) string {
	for _, selector := range containerSelectors {
		container := src.Doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}

		var fragments []string
		container.Find("p, li, h2, h3, h4").Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if len(text) > src.Cfg.MinFragmentLen {
				fragments = append(fragments, text)
			}
		})
		if len(fragments) > 0 {
			return strings.Join(fragments, "\n\n")
		}
	}
	return ""
}

// fromParagraphs collects every substantial <p> on the page.
func fromParagraphs(src *Source) string {
	var fragments []string
	src.Doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) > src.Cfg.MinFragmentLen {
			fragments = append(fragments, text)
		}
	})
	if len(fragments) == 0 {
		return ""
	}
	return strings.Join(fragments, "\n\n")
}

// fromTextBlocks walks div blocks, skipping heavily nested wrappers, and
// accumulates substantial text until the cap is reached.
func fromTextBlocks(src *Source) string {
	root := docRoot(src.Doc)
	if root == nil {
		return ""
	}

	var blocks []string
	total := 0
	for _, div := range htmlquery.Find(root, "//div") {
		if len(htmlquery.Find(div, ".//div")) >= src.Cfg.MaxBlockNesting {
			continue
		}
		text := CollapseSpaces(htmlquery.InnerText(div))
		if len(text) > src.Cfg.MinBlockLen && WordCount(text) > src.Cfg.MinBlockWords {
			blocks = append(blocks, text)
			total += len(text)
			if total > src.Cfg.AccumulateCap {
				break
			}
		}
	}
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n")
}

// fromDocument is the last resort: every substantial text line in the body.
func fromDocument(src *Source) string {
	body := src.Doc.Find("body")
	if body.Length() == 0 {
		body = src.Doc.Selection
	}

	var lines []string
	for _, line := range strings.Split(body.Text(), "\n") {
		if len(strings.TrimSpace(line)) > src.Cfg.MinFragmentLen {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n\n")
}

// fromReadability runs the readability article scorer over the raw HTML.
// Opt-in: it sits in front of the container strategy when enabled.
func fromReadability(src *Source) string {
	if src.Raw == "" {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(src.Raw), src.URL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

// docRoot exposes the underlying html node of a goquery document for xpath
// traversal.
func docRoot(doc *goquery.Document) *html.Node {
	if doc == nil || len(doc.Nodes) == 0 {
		return nil
	}
	return doc.Nodes[0]
}
