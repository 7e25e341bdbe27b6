package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/PressGang/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func articleRecord(url, title, body string) *types.ContentRecord {
	rec := types.NewRecord(url, types.SourceArticle, "web")
	rec.Title = title
	rec.Body = body
	return rec
}

func TestPipelineDefaultChain(t *testing.T) {
	p := Default(testLogger)

	rec := articleRecord("https://example.com/post", "  Breaking <b>News</b>  ", "  <p>First para</p>\n\n<p>Second   para</p>  ")
	result, err := p.Process(rec)
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if result == nil {
		t.Fatal("record should survive the default chain")
	}
	if result.Title != "Breaking News" {
		t.Errorf("Title = %q", result.Title)
	}
	if result.Body != "First para\n\nSecond para" {
		t.Errorf("Body = %q", result.Body)
	}
	if result.WordCount != 4 {
		t.Errorf("WordCount = %d, want 4", result.WordCount)
	}

	processed, dropped := p.Counts()
	if processed != 1 || dropped != 0 {
		t.Errorf("Counts = (%d, %d), want (1, 0)", processed, dropped)
	}
}

func TestTrimMiddleware(t *testing.T) {
	m := &TrimMiddleware{}
	rec := articleRecord("https://example.com", "  Hello World  ", "\n\tbody text\n")
	rec.Author = " someone "

	result, err := m.Process(rec)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if result.Title != "Hello World" {
		t.Errorf("Title = %q", result.Title)
	}
	if result.Body != "body text" {
		t.Errorf("Body = %q", result.Body)
	}
	if result.Author != "someone" {
		t.Errorf("Author = %q", result.Author)
	}
}

func TestRequiredFieldsMiddleware(t *testing.T) {
	m := &RequiredFieldsMiddleware{}

	good := articleRecord("https://example.com", "Title", "has a body")
	if result, err := m.Process(good); err != nil || result == nil {
		t.Error("record with URL and body should pass")
	}

	noBody := articleRecord("https://example.com", "Title", "   ")
	if result, _ := m.Process(noBody); result != nil {
		t.Error("record with blank body should be dropped")
	}

	noURL := articleRecord("", "Title", "body")
	if result, _ := m.Process(noURL); result != nil {
		t.Error("record without URL should be dropped")
	}
}

func TestHTMLSanitizeMiddleware(t *testing.T) {
	m := NewHTMLSanitizeMiddleware()

	rec := articleRecord("https://example.com", "Hi", `<p>Hello <b>World</b></p> &amp; <a href="x">link</a>`)
	result, err := m.Process(rec)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if result.Body != "Hello World & link" {
		t.Errorf("Body = %q, want %q", result.Body, "Hello World & link")
	}
}

func TestHTMLSanitizePreservesParagraphBreaks(t *testing.T) {
	m := NewHTMLSanitizeMiddleware()

	rec := articleRecord("https://example.com", "Hi", "<p>Para one</p>\n\n<p>Para   two</p>")
	result, _ := m.Process(rec)
	if result.Body != "Para one\n\nPara two" {
		t.Errorf("Body = %q", result.Body)
	}
}

func TestHTMLSanitizeLeavesPlainTextAlone(t *testing.T) {
	m := NewHTMLSanitizeMiddleware()

	body := "already clean text\n\nwith   odd spacing preserved"
	rec := articleRecord("https://example.com", "Hi", body)
	result, _ := m.Process(rec)
	// No markup markers means no rewrite at all.
	if result.Body != body {
		t.Errorf("Body = %q, want untouched input", result.Body)
	}
}

func TestDateNormalizeMiddleware(t *testing.T) {
	m := NewDateNormalizeMiddleware()

	t.Run("valid date pinned to UTC", func(t *testing.T) {
		loc := time.FixedZone("UTC+5", 5*3600)
		published := time.Date(2026, 3, 10, 12, 0, 0, 0, loc)
		rec := articleRecord("https://example.com", "T", "b")
		rec.PublishedAt = published

		result, _ := m.Process(rec)
		if result.PublishedAt.Location() != time.UTC {
			t.Errorf("location = %v, want UTC", result.PublishedAt.Location())
		}
		if !result.PublishedAt.Equal(published) {
			t.Error("instant should be unchanged by UTC conversion")
		}
	})

	t.Run("future date zeroed", func(t *testing.T) {
		rec := articleRecord("https://example.com", "T", "b")
		rec.PublishedAt = time.Now().Add(48 * time.Hour)

		result, _ := m.Process(rec)
		if !result.PublishedAt.IsZero() {
			t.Errorf("PublishedAt = %v, want zero", result.PublishedAt)
		}
	})

	t.Run("ancient date zeroed", func(t *testing.T) {
		rec := articleRecord("https://example.com", "T", "b")
		rec.PublishedAt = time.Date(1970, 1, 1, 0, 0, 1, 0, time.UTC)

		result, _ := m.Process(rec)
		if !result.PublishedAt.IsZero() {
			t.Errorf("PublishedAt = %v, want zero", result.PublishedAt)
		}
	})

	t.Run("zero date stays zero", func(t *testing.T) {
		rec := articleRecord("https://example.com", "T", "b")
		result, _ := m.Process(rec)
		if !result.PublishedAt.IsZero() {
			t.Error("zero PublishedAt should pass through")
		}
	})
}

func TestDedupMiddleware(t *testing.T) {
	m := NewDedupMiddleware()

	first := articleRecord("https://Example.COM/Path?b=2&a=1", "First", "body")
	if result, err := m.Process(first); err != nil || result == nil {
		t.Fatal("first record should pass dedup")
	}

	// Same page, trivially different spelling.
	dupe := articleRecord("https://example.com/Path?a=1&b=2", "Again", "body")
	if result, _ := m.Process(dupe); result != nil {
		t.Error("canonically equal URL should be dropped")
	}

	other := articleRecord("https://example.com/other", "Different", "body")
	if result, err := m.Process(other); err != nil || result == nil {
		t.Fatal("different URL should pass dedup")
	}
}

func TestWordCountMiddleware(t *testing.T) {
	m := &WordCountMiddleware{}

	rec := articleRecord("https://example.com", "T", "The quick brown fox jumps over the lazy dog")
	result, _ := m.Process(rec)
	if result.WordCount != 9 {
		t.Errorf("WordCount = %d, want 9", result.WordCount)
	}
}

func TestPIIRedactMiddleware(t *testing.T) {
	m := NewPIIRedactMiddleware(testLogger)

	rec := articleRecord("https://example.com", "T",
		"Contact john@example.com or call 555-123-4567. SSN: 123-45-6789")
	result, err := m.Process(rec)
	if err != nil {
		t.Fatalf("error: %v", err)
	}

	if strings.Contains(result.Body, "john@example.com") {
		t.Error("email should be redacted")
	}
	if strings.Contains(result.Body, "123-45-6789") {
		t.Error("SSN should be redacted")
	}
	if !strings.Contains(result.Body, "[REDACTED_EMAIL]") {
		t.Error("expected [REDACTED_EMAIL] placeholder")
	}
	if !strings.Contains(result.Body, "[REDACTED_SSN]") {
		t.Error("expected [REDACTED_SSN] placeholder")
	}
}

type explodingMiddleware struct{}

func (explodingMiddleware) Name() string { return "exploding" }
func (explodingMiddleware) Process(record *types.ContentRecord) (*types.ContentRecord, error) {
	return nil, errors.New("boom")
}

func TestPipelineWrapsErrors(t *testing.T) {
	p := New(testLogger)
	p.Use(explodingMiddleware{})

	_, err := p.Process(articleRecord("https://example.com", "T", "b"))
	if err == nil {
		t.Fatal("expected an error")
	}
	var perr *types.PipelineError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *types.PipelineError", err)
	}
	if perr.Stage != "exploding" {
		t.Errorf("Stage = %q", perr.Stage)
	}

	_, dropped := p.Counts()
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
}

func TestPipelineDropShortCircuits(t *testing.T) {
	p := New(testLogger)
	p.Use(&RequiredFieldsMiddleware{})
	p.Use(explodingMiddleware{})

	result, err := p.Process(articleRecord("https://example.com", "T", ""))
	if err != nil {
		t.Fatalf("drop should not reach the exploding stage: %v", err)
	}
	if result != nil {
		t.Error("empty-body record should be dropped")
	}
}

// --- Benchmarks ---

func BenchmarkPipeline(b *testing.B) {
	p := New(testLogger)
	p.Use(&TrimMiddleware{})
	p.Use(NewHTMLSanitizeMiddleware())
	p.Use(NewDateNormalizeMiddleware())
	p.Use(&WordCountMiddleware{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := articleRecord("https://example.com/post", "  Hello <b>World</b>  ", "  <p>Content body text</p>  ")
		rec.PublishedAt = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
		p.Process(rec)
	}
}
