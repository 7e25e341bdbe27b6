package fetcher

import (
	"errors"
	"testing"

	"github.com/IshaanNene/PressGang/internal/config"
)

func newTestProxyManager(t *testing.T, rotation string, urls ...string) *ProxyManager {
	t.Helper()
	return NewProxyManager(&config.ProxyConfig{
		Enabled:      true,
		Rotation:     rotation,
		URLs:         urls,
		RotateOnFail: true,
	}, testLogger)
}

// --- ProxyManager Tests ---

func TestProxyRoundRobin(t *testing.T) {
	pm := newTestProxyManager(t, "round_robin",
		"http://proxy-a:8080", "http://proxy-b:8080")

	seen := make(map[string]int)
	for i := 0; i < 4; i++ {
		u := pm.Next()
		if u == nil {
			t.Fatal("Next() = nil with healthy proxies")
		}
		seen[u.Host]++
	}

	if seen["proxy-a:8080"] != 2 || seen["proxy-b:8080"] != 2 {
		t.Errorf("rotation uneven: %v", seen)
	}
}

func TestProxySkipsInvalidURLs(t *testing.T) {
	pm := newTestProxyManager(t, "round_robin",
		"http://good:8080", "://broken")

	if got := pm.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1 (invalid skipped)", got)
	}
}

func TestProxyMarkFailedRemovesFromRotation(t *testing.T) {
	pm := newTestProxyManager(t, "round_robin",
		"http://proxy-a:8080", "http://proxy-b:8080")

	var target *proxyEntry
	for _, p := range pm.proxies {
		if p.URL.Host == "proxy-a:8080" {
			target = p
		}
	}
	pm.MarkFailed(target.URL, errors.New("connect refused"))

	if got := pm.HealthyCount(); got != 1 {
		t.Errorf("HealthyCount() = %d, want 1", got)
	}
	for i := 0; i < 4; i++ {
		if u := pm.Next(); u.Host == "proxy-a:8080" {
			t.Fatal("failed proxy still in rotation")
		}
	}

	pm.MarkHealthy(target.URL)
	if got := pm.HealthyCount(); got != 2 {
		t.Errorf("HealthyCount() after recovery = %d, want 2", got)
	}
}

func TestProxyAllFailedMeansDirect(t *testing.T) {
	pm := newTestProxyManager(t, "round_robin", "http://only:8080")
	pm.MarkFailed(pm.proxies[0].URL, errors.New("down"))

	if u := pm.Next(); u != nil {
		t.Errorf("Next() = %v with no healthy proxies, want nil (direct)", u)
	}
}

func TestProxyNoteFailureSidelinesLastUsed(t *testing.T) {
	pm := newTestProxyManager(t, "round_robin", "http://only:8080")

	fn := pm.ProxyFunc()
	if _, err := fn(nil); err != nil {
		t.Fatalf("ProxyFunc() error = %v", err)
	}

	pm.NoteFailure(errors.New("tls handshake failed"))
	if got := pm.HealthyCount(); got != 0 {
		t.Errorf("HealthyCount() = %d after NoteFailure, want 0", got)
	}
}

func TestProxyRandomRotation(t *testing.T) {
	pm := newTestProxyManager(t, "random",
		"http://proxy-a:8080", "http://proxy-b:8080")

	for i := 0; i < 10; i++ {
		if pm.Next() == nil {
			t.Fatal("Next() = nil with healthy proxies")
		}
	}
}
