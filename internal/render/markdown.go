// Package render turns aggregated social content into Markdown ready for
// embedding in a generated post.
package render

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/IshaanNene/PressGang/internal/types"
)

const digestHeader = "## Recent Social Media Updates\n\n"

// Digest renders a Markdown summary of short-post content grouped by
// platform. Platforms with more records come first; the "mock" bucket is
// presented as generic social media. An all-empty input yields "".
func Digest(content map[string][]*types.ContentRecord, maxItems int) string {
	if len(content) == 0 {
		return ""
	}

	platforms := make([]string, 0, len(content))
	total := 0
	for name, posts := range content {
		platforms = append(platforms, name)
		total += len(posts)
	}
	if total == 0 {
		return ""
	}

	sort.Slice(platforms, func(i, j int) bool {
		ci, cj := len(content[platforms[i]]), len(content[platforms[j]])
		if ci != cj {
			return ci > cj
		}
		return platforms[i] < platforms[j]
	})

	var sb strings.Builder
	sb.WriteString(digestHeader)

	for _, platform := range platforms {
		posts := content[platform]
		if maxItems > 0 && len(posts) > maxItems {
			posts = posts[:maxItems]
		}
		if len(posts) == 0 {
			continue
		}

		name := capitalize(platform)
		if platform == "mock" {
			name = "Social Media"
		}
		fmt.Fprintf(&sb, "### Recent %s Posts\n\n", name)

		for _, post := range posts {
			author := post.Author
			if author == "" {
				author = "Unknown"
			}
			fmt.Fprintf(&sb, "**%s**\n\n", author)

			text := strings.ReplaceAll(post.Body, "\n", "\n\n")
			fmt.Fprintf(&sb, "%s\n\n", text)

			if !post.PublishedAt.IsZero() {
				fmt.Fprintf(&sb, "*%s*\n\n", post.PublishedAt.Format("Jan 02, 2006"))
			}

			if post.URL != "" {
				fmt.Fprintf(&sb, "[View Original Post](%s)\n\n", post.URL)
			}

			sb.WriteString("---\n\n")
		}
	}

	return sb.String()
}

// capitalize uppercases the first rune and lowercases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
