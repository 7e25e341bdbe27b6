package pipeline

import (
	"html"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/IshaanNene/PressGang/internal/types"
)

// --- Advanced Middleware ---

// HTMLSanitizeMiddleware strips residual markup and entities from the
// record's title and body. Extraction normally emits plain text; this
// catches the rungs that hand back innerHTML-ish fragments.
type HTMLSanitizeMiddleware struct {
	policy *bluemonday.Policy
}

func NewHTMLSanitizeMiddleware() *HTMLSanitizeMiddleware {
	return &HTMLSanitizeMiddleware{
		policy: bluemonday.StrictPolicy(),
	}
}

func (m *HTMLSanitizeMiddleware) Name() string { return "html_sanitize" }

func (m *HTMLSanitizeMiddleware) Process(record *types.ContentRecord) (*types.ContentRecord, error) {
	record.Title = m.clean(record.Title)
	record.Body = m.clean(record.Body)
	return record, nil
}

// clean strips tags, decodes entities, and collapses runs of spaces while
// preserving line breaks. Paragraph structure in Body must survive.
func (m *HTMLSanitizeMiddleware) clean(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	stripped := html.UnescapeString(m.policy.Sanitize(s))
	lines := strings.Split(stripped, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}

// DateNormalizeMiddleware pins PublishedAt to UTC and zeroes implausible
// values. Pages lie about dates; a post from 2087 or 1970 is a parse
// artifact, not information.
type DateNormalizeMiddleware struct {
	earliest time.Time
	slack    time.Duration
}

func NewDateNormalizeMiddleware() *DateNormalizeMiddleware {
	return &DateNormalizeMiddleware{
		earliest: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		slack:    24 * time.Hour,
	}
}

func (m *DateNormalizeMiddleware) Name() string { return "date_normalize" }

func (m *DateNormalizeMiddleware) Process(record *types.ContentRecord) (*types.ContentRecord, error) {
	if record.PublishedAt.IsZero() {
		return record, nil
	}
	normalized := record.PublishedAt.UTC()
	if normalized.Before(m.earliest) || normalized.After(time.Now().Add(m.slack)) {
		record.PublishedAt = time.Time{}
		return record, nil
	}
	record.PublishedAt = normalized
	return record, nil
}

// PIIRedactMiddleware masks personally identifiable information in record
// text. Scraped pages embed contact details that have no business reaching
// generated output. Not part of the default chain; opt in with Use.
type PIIRedactMiddleware struct {
	patterns map[string]*regexp.Regexp
	logger   *slog.Logger
}

func NewPIIRedactMiddleware(logger *slog.Logger) *PIIRedactMiddleware {
	return &PIIRedactMiddleware{
		patterns: map[string]*regexp.Regexp{
			"email":       regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
			"phone_us":    regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`),
			"ssn":         regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
			"credit_card": regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`),
		},
		logger: logger.With("component", "pii_redact"),
	}
}

func (m *PIIRedactMiddleware) Name() string { return "pii_redact" }

func (m *PIIRedactMiddleware) Process(record *types.ContentRecord) (*types.ContentRecord, error) {
	record.Title = m.redact("title", record.Title)
	record.Body = m.redact("body", record.Body)
	return record, nil
}

func (m *PIIRedactMiddleware) redact(field, s string) string {
	if s == "" {
		return s
	}
	for piiType, re := range m.patterns {
		if re.MatchString(s) {
			s = re.ReplaceAllString(s, "[REDACTED_"+strings.ToUpper(piiType)+"]")
			m.logger.Debug("PII redacted", "field", field, "type", piiType)
		}
	}
	return s
}
