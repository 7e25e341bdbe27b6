package browser

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/PressGang/internal/retry"
)

// challengeProbes are DOM markers for anti-bot walls, checked in order.
var challengeProbes = []struct {
	kind     string
	selector string
}{
	{"recaptcha", "iframe[title*='reCAPTCHA']"},
	{"recaptcha", "iframe[src*='recaptcha']"},
	{"recaptcha", "div.g-recaptcha"},
	{"hcaptcha", "iframe[src*='hcaptcha']"},
	{"hcaptcha", "div.h-captcha"},
	{"turnstile", "iframe[src*='turnstile']"},
	{"turnstile", "div.cf-turnstile"},
	{"cloudflare", "#challenge-form"},
	{"cloudflare", "#cf-challenge-running"},
}

// challengeMarkers is the raw-string fallback when the HTML won't parse.
var challengeMarkers = []struct {
	marker string
	kind   string
}{
	{"g-recaptcha", "recaptcha"},
	{"recaptcha", "recaptcha"},
	{"h-captcha", "hcaptcha"},
	{"hcaptcha", "hcaptcha"},
	{"cf-turnstile", "turnstile"},
	{"turnstile", "turnstile"},
}

// DetectChallenge reports whether the page is an anti-bot interstitial
// rather than content, and which kind.
func DetectChallenge(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		lower := strings.ToLower(html)
		for _, m := range challengeMarkers {
			if strings.Contains(lower, m.marker) {
				return m.kind, true
			}
		}
		return "", false
	}

	for _, probe := range challengeProbes {
		if doc.Find(probe.selector).Length() > 0 {
			return probe.kind, true
		}
	}
	return "", false
}

// ChallengeBackoff paces retries after challenge detections. The counter
// belongs to one navigation controller and never resets, so a site that
// keeps walling us gets progressively longer waits up to the cap.
type ChallengeBackoff struct {
	policy retry.Policy
	count  atomic.Int64
}

// NewChallengeBackoff builds a backoff that doubles from one second up to cap.
func NewChallengeBackoff(cap time.Duration) *ChallengeBackoff {
	if cap <= 0 {
		cap = 300 * time.Second
	}
	return &ChallengeBackoff{policy: retry.Exponential(time.Second, cap)}
}

// Next returns the wait for the current detection and advances the counter.
func (b *ChallengeBackoff) Next() time.Duration {
	attempt := b.count.Add(1) - 1
	return b.policy(int(attempt))
}

// Attempts returns how many detections this backoff has paced.
func (b *ChallengeBackoff) Attempts() int64 {
	return b.count.Load()
}
