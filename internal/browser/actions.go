package browser

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

const elementTimeout = 10 * time.Second

// Actions wraps a page with the interaction helpers the search and social
// flows need: typing queries, submitting, and feeding infinite scrollers.
type Actions struct {
	page   *rod.Page
	logger *slog.Logger
}

// NewActions wraps a Rod page with interaction helpers.
func NewActions(page *rod.Page, logger *slog.Logger) *Actions {
	return &Actions{
		page:   page,
		logger: logger.With("component", "actions"),
	}
}

// Click clicks an element matched by the CSS selector.
func (a *Actions) Click(selector string) error {
	el, err := a.page.Timeout(elementTimeout).Element(selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// TypeText replaces the content of an input field with text.
func (a *Actions) TypeText(selector, text string) error {
	el, err := a.page.Timeout(elementTimeout).Element(selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}
	el.MustSelectAllText()
	return el.Input(text)
}

// PressEnter submits whatever currently has focus.
func (a *Actions) PressEnter() error {
	return a.page.Keyboard.Press(input.Enter)
}

// ScrollToBottom scrolls to the bottom of the page.
func (a *Actions) ScrollToBottom() error {
	_, err := a.page.Eval(`window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

// InfiniteScroll keeps scrolling until the page stops growing or maxScrolls
// is reached, returning how many scrolls ran.
func (a *Actions) InfiniteScroll(maxScrolls int, waitBetween time.Duration) (int, error) {
	lastHeight := 0
	scrollCount := 0

	for scrollCount < maxScrolls {
		result, err := a.page.Eval(`document.body.scrollHeight`)
		if err != nil {
			return scrollCount, err
		}
		currentHeight := result.Value.Int()

		if currentHeight == lastHeight {
			break
		}
		lastHeight = currentHeight

		if err := a.ScrollToBottom(); err != nil {
			return scrollCount, err
		}
		scrollCount++

		time.Sleep(waitBetween)
	}

	return scrollCount, nil
}

// Eval executes JavaScript and returns the result as a string.
func (a *Actions) Eval(js string) (string, error) {
	result, err := a.page.Eval(js)
	if err != nil {
		return "", fmt.Errorf("eval failed: %w", err)
	}
	return result.Value.String(), nil
}
