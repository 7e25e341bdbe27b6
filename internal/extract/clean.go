package extract

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	tagRe        = regexp.MustCompile(`<[^>]+>`)

	// Mis-decoded UTF-8 punctuation as it commonly survives in page text.
	// Order matters: the bare "â€" pair must come after the longer ones.
	mojibake = strings.NewReplacer(
		"â€™", "'",
		"â€\"", "-",
		"â€œ", "\"",
		"â€", "\"",
	)
)

// CleanText normalizes extracted body text: collapses runs of whitespace,
// strips residual markup, and repairs mis-encoded punctuation.
func CleanText(s string) string {
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = tagRe.ReplaceAllString(s, "")
	return mojibake.Replace(s)
}

// CollapseSpaces collapses runs of whitespace into single spaces.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
