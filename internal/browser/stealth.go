package browser

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Viewport is a plausible desktop screen size.
type Viewport struct {
	Width  int
	Height int
}

// StealthProfile is the fingerprint a page presents: user agent, platform,
// language, and viewport. One profile is generated per browser so all tabs
// agree with each other.
type StealthProfile struct {
	// UserAgent is the navigator.userAgent string.
	UserAgent string
	// Platform is the navigator.platform string, matched to the user agent.
	Platform string
	// AcceptLanguage is sent with requests and mirrored in navigator.languages.
	AcceptLanguage string
	// Viewport is applied to every page.
	Viewport Viewport
	// WindowSize is the launch flag form "width,height".
	WindowSize string
}

var stealthUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
}

var stealthViewports = []Viewport{
	{1920, 1080},
	{1536, 864},
	{1440, 900},
	{1366, 768},
}

// NewStealthProfile builds a profile with a random user agent and viewport.
// A non-empty userAgent pins the agent instead of rolling one.
func NewStealthProfile(userAgent string) *StealthProfile {
	if userAgent == "" {
		userAgent = stealthUserAgents[rand.Intn(len(stealthUserAgents))]
	}
	vp := stealthViewports[rand.Intn(len(stealthViewports))]

	return &StealthProfile{
		UserAgent:      userAgent,
		Platform:       platformFor(userAgent),
		AcceptLanguage: "en-US,en;q=0.9",
		Viewport:       vp,
		WindowSize:     fmt.Sprintf("%d,%d", vp.Width, vp.Height),
	}
}

// platformFor keeps navigator.platform consistent with the user agent.
func platformFor(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Windows"):
		return "Win32"
	case strings.Contains(userAgent, "Macintosh"):
		return "MacIntel"
	default:
		return "Linux x86_64"
	}
}

// Apply stamps the profile onto a page: user agent override plus viewport.
func (p *StealthProfile) Apply(page *rod.Page) error {
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      p.UserAgent,
		AcceptLanguage: p.AcceptLanguage,
		Platform:       p.Platform,
	}); err != nil {
		return fmt.Errorf("set user agent: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             p.Viewport.Width,
		Height:            p.Viewport.Height,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}

	return nil
}
