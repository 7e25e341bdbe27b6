package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"github.com/IshaanNene/PressGang/internal/config"
	"github.com/IshaanNene/PressGang/internal/retry"
	"github.com/IshaanNene/PressGang/internal/types"
)

// popupCloseSelectors are clicked first when clearing overlays.
var popupCloseSelectors = []string{
	"button[aria-label='Close']",
	"[data-testid='dialog-close-button']",
	".close-button",
	".modal__close",
	"[data-testid='modal-close']",
}

// popupDismissTexts are consent and nag button labels, tried after selectors.
var popupDismissTexts = []string{
	"Not Now",
	"No Thanks",
	"I Agree",
	"Accept",
	"Close",
	"Skip",
	"Continue",
}

const popupProbeTimeout = 500 * time.Millisecond

// Visit is the outcome of driving a page through a full load cycle.
type Visit struct {
	// URL is the address that was requested.
	URL string
	// FinalURL is where the page ended up after redirects.
	FinalURL string
	// Title is the document title.
	Title string
	// HTML is the rendered document, post scroll and popup clearing.
	HTML string
	// Text is the rendered body text, kept as a last-resort extraction source.
	Text string
	// Challenged reports whether an anti-bot wall was hit on the way.
	Challenged bool
	// Duration covers navigation through capture.
	Duration time.Duration
}

// Navigator drives pooled tabs through the load cycle: navigate with
// retries, wait for readiness, back off through challenges, clear popups,
// and scroll content into the DOM. One Navigator is shared per engine so
// the challenge counter spans the whole run.
type Navigator struct {
	cfg     config.BrowserConfig
	backoff *ChallengeBackoff
	logger  *slog.Logger
}

// NewNavigator builds a navigator with a fresh challenge counter.
func NewNavigator(cfg config.BrowserConfig, logger *slog.Logger) *Navigator {
	return &Navigator{
		cfg:     cfg,
		backoff: NewChallengeBackoff(cfg.ChallengeCap),
		logger:  logger.With("component", "navigator"),
	}
}

// Visit runs the full cycle against the given page and captures the result.
func (n *Navigator) Visit(ctx context.Context, page *rod.Page, url string) (*Visit, error) {
	start := time.Now()

	if err := n.Navigate(ctx, page, url); err != nil {
		return nil, err
	}
	n.WaitReady(page, url)
	if err := sleepCtx(ctx, n.cfg.SettleDelay); err != nil {
		return nil, err
	}

	challenged, err := n.HandleChallenge(ctx, page, url)
	if err != nil {
		return nil, err
	}

	n.DismissPopups(page)
	n.ScrollProgressive(ctx, page)

	html, err := page.HTML()
	if err != nil {
		return nil, &types.NavigationError{URL: url, Err: fmt.Errorf("capture html: %w", err)}
	}

	visit := &Visit{
		URL:        url,
		FinalURL:   pageURL(page, url),
		Title:      pageTitle(page),
		HTML:       html,
		Text:       bodyText(page),
		Challenged: challenged,
		Duration:   time.Since(start),
	}

	n.logger.Debug("visit complete",
		"url", url,
		"final_url", visit.FinalURL,
		"duration", visit.Duration,
		"challenged", challenged)

	return visit, nil
}

// Navigate drives the page to the URL, retrying transient failures with a
// fixed delay between attempts.
func (n *Navigator) Navigate(ctx context.Context, page *rod.Page, url string) error {
	attempt := 0
	err := retry.Do(ctx, n.cfg.NavRetries, retry.Fixed(n.cfg.NavRetryDelay), func() error {
		attempt++
		if navErr := page.Timeout(n.cfg.LoadTimeout).Navigate(url); navErr != nil {
			n.logger.Warn("navigation attempt failed", "url", url, "attempt", attempt, "error", navErr)
			return navErr
		}
		return nil
	})
	if err != nil {
		return &types.NavigationError{URL: url, Attempt: attempt, Err: err, Retryable: true}
	}
	return nil
}

// WaitReady waits for the load event. A slow page is not fatal; whatever
// rendered by the deadline is still worth extracting.
func (n *Navigator) WaitReady(page *rod.Page, url string) {
	if err := page.Timeout(n.cfg.LoadTimeout).WaitLoad(); err != nil {
		n.logger.Warn("page did not finish loading", "url", url, "timeout", n.cfg.LoadTimeout)
	}
}

// HandleChallenge checks the page for an anti-bot wall. Each detection
// waits out the shared backoff and reloads; if the wall survives every
// round a ChallengeError is returned so the job can be retried later.
func (n *Navigator) HandleChallenge(ctx context.Context, page *rod.Page, url string) (bool, error) {
	challenged := false
	var lastWait time.Duration

	for round := 0; round < n.cfg.NavRetries; round++ {
		html, err := page.HTML()
		if err != nil {
			return challenged, nil
		}
		kind, found := DetectChallenge(html)
		if !found {
			return challenged, nil
		}

		challenged = true
		lastWait = n.backoff.Next()
		n.logger.Warn("challenge detected",
			"url", url,
			"kind", kind,
			"wait", lastWait,
			"detections", n.backoff.Attempts())

		if err := sleepCtx(ctx, lastWait); err != nil {
			return challenged, err
		}
		if err := page.Timeout(n.cfg.LoadTimeout).Reload(); err != nil {
			n.logger.Warn("reload after challenge failed", "url", url, "error", err)
		}
		n.WaitReady(page, url)
	}

	return challenged, &types.ChallengeError{
		URL:     url,
		Attempt: int(n.backoff.Attempts()),
		Wait:    lastWait,
	}
}

// DismissPopups clears overlays: close buttons by selector, then consent
// buttons by label, then Escape. The first successful click wins.
func (n *Navigator) DismissPopups(page *rod.Page) {
	for _, sel := range popupCloseSelectors {
		if clickFirst(page.Timeout(popupProbeTimeout).Element(sel)) {
			return
		}
	}

	for _, text := range popupDismissTexts {
		xpath := fmt.Sprintf(`//*[contains(text(), '%s')]`, text)
		if clickFirst(page.Timeout(popupProbeTimeout).ElementX(xpath)) {
			return
		}
	}

	_ = page.Keyboard.Press(input.Escape)
	time.Sleep(popupProbeTimeout)
}

// clickFirst clicks the element if the lookup found one that is visible.
func clickFirst(el *rod.Element, err error) bool {
	if err != nil || el == nil {
		return false
	}
	if visible, verr := el.Visible(); verr != nil || !visible {
		return false
	}
	if cerr := el.Click(proto.InputMouseButtonLeft, 1); cerr != nil {
		return false
	}
	time.Sleep(popupProbeTimeout)
	return true
}

// ScrollProgressive walks the viewport down the page in steps so lazy
// content loads, then returns to the top.
func (n *Navigator) ScrollProgressive(ctx context.Context, page *rod.Page) {
	steps := n.cfg.ScrollSteps
	if steps < 1 {
		return
	}
	for i := 0; i < steps; i++ {
		js := fmt.Sprintf(`window.scrollTo(0, document.body.scrollHeight / %d * %d)`, steps, i+1)
		if _, err := page.Eval(js); err != nil {
			return
		}
		if err := sleepCtx(ctx, n.cfg.ScrollPause); err != nil {
			return
		}
	}
	_, _ = page.Eval(`window.scrollTo(0, 0)`)
}

func pageTitle(page *rod.Page) string {
	result, err := page.Eval(`document.title`)
	if err != nil || result == nil {
		return ""
	}
	return result.Value.String()
}

func bodyText(page *rod.Page) string {
	result, err := page.Eval(`document.body ? document.body.innerText : ""`)
	if err != nil || result == nil {
		return ""
	}
	return result.Value.String()
}

// sleepCtx waits for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
