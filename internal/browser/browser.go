// Package browser owns the headless browser: launch flags, stealth pages,
// the tab pool, and the navigation controller that drives a page through
// load, challenge backoff, popup dismissal, and scrolling.
package browser

import (
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/PressGang/internal/config"
)

// Browser wraps a launched Chromium instance.
type Browser struct {
	browser *rod.Browser
	cfg     config.BrowserConfig
	profile *StealthProfile
	logger  *slog.Logger
}

// Option configures the Browser.
type Option func(*Browser)

// WithProfile overrides the generated stealth profile.
func WithProfile(p *StealthProfile) Option {
	return func(b *Browser) { b.profile = p }
}

// Launch starts Chromium with the hardened flag set and connects to it.
func Launch(cfg config.BrowserConfig, logger *slog.Logger, opts ...Option) (*Browser, error) {
	b := &Browser{
		cfg:     cfg,
		profile: NewStealthProfile(cfg.UserAgent),
		logger:  logger.With("component", "browser"),
	}
	for _, opt := range opts {
		opt(b)
	}

	controlURL, err := b.launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	b.browser = browser

	b.logger.Info("browser ready",
		"headless", cfg.Headless,
		"proxy", cfg.ProxyURL != "",
		"user_agent", b.profile.UserAgent)

	return b, nil
}

// launch builds the Chromium command line. The flag set keeps automation
// markers out of the renderer and survives containerized environments.
func (b *Browser) launch() (string, error) {
	l := launcher.New().
		Headless(b.cfg.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("disable-infobars").
		Set("disable-extensions").
		Set("disable-popup-blocking").
		Set("disable-notifications").
		Set("ignore-certificate-errors").
		Set("window-size", b.profile.WindowSize)

	if b.cfg.BinPath != "" {
		l = l.Bin(b.cfg.BinPath)
	}
	if b.cfg.ProxyURL != "" {
		l = l.Proxy(b.cfg.ProxyURL)
	}

	return l.Launch()
}

// NewPage opens a stealth-wrapped page and applies the profile.
func (b *Browser) NewPage() (*rod.Page, error) {
	page, err := stealth.Page(b.browser)
	if err != nil {
		return nil, fmt.Errorf("stealth page: %w", err)
	}

	if err := b.profile.Apply(page); err != nil {
		b.logger.Warn("failed to apply stealth profile", "error", err)
	}

	return page, nil
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	if b.browser == nil {
		return nil
	}
	return b.browser.Close()
}

// blankPage parks a page on about:blank to free renderer memory.
func blankPage(page *rod.Page) {
	if page == nil {
		return
	}
	_ = page.Navigate("about:blank")
}

// pageURL reads the page's current URL, falling back to the given default.
func pageURL(page *rod.Page, fallback string) string {
	info, err := page.Info()
	if err != nil || info == nil {
		return fallback
	}
	return info.URL
}
