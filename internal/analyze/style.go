// Package analyze classifies a topic's tone so downstream consumers can
// shape their output to match. Classification is keyword scoring over the
// cleaned topic; no remote calls.
package analyze

import (
	"regexp"
	"strings"

	"github.com/IshaanNene/PressGang/internal/types"
)

// Style labels.
const (
	StyleProfessional = "professional"
	StyleCasual       = "casual"
	StyleSimple       = "simple"
)

var nonWordSpace = regexp.MustCompile(`[^\w\s]`)

// styleKeywords maps each style to its signal words. Order matters: ties go
// to the earlier entry, and professional is the default for a zero score.
var styleKeywords = []struct {
	style    string
	keywords []string
}{
	{StyleProfessional, []string{
		"technical", "analysis", "research", "enterprise", "industry", "infrastructure",
		"implementation", "architecture", "strategy", "corporate", "methodology",
		"framework", "performance", "optimization", "protocol", "standard", "compliance",
	}},
	{StyleCasual, []string{
		"experience", "journey", "story", "life", "personal", "adventure", "creative",
		"inspiration", "lifestyle", "trend", "culture", "perspective", "thoughts",
		"reflections", "opinion", "review", "recommendation",
	}},
	{StyleSimple, []string{
		"guide", "tutorial", "how to", "learn", "beginners", "introduction", "basics",
		"simple", "easy", "step by step", "explained", "understand", "quick", "tips",
		"help", "start", "fundamental",
	}},
}

// Classify returns the style label whose keywords best match the topic.
// Matching is substring containment over the lowercased topic with
// punctuation stripped, so multi-word keywords like "step by step" work.
func Classify(topic string) string {
	cleaned := nonWordSpace.ReplaceAllString(strings.ToLower(topic), "")

	best := StyleProfessional
	bestScore := 0
	for _, set := range styleKeywords {
		score := 0
		for _, kw := range set.keywords {
			if strings.Contains(cleaned, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = set.style
		}
	}
	return best
}

// Annotate stamps the style label onto every record.
func Annotate(style string, records []*types.ContentRecord) {
	for _, r := range records {
		if r != nil {
			r.Style = style
		}
	}
}
