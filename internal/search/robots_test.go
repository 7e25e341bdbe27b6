package search

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// --- RobotsGate Tests ---

func TestRobotsGateEnforcesDisallow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	}))
	defer srv.Close()

	gate := NewRobotsGate("PressGang", testLogger)

	if !gate.Allowed(srv.URL + "/public/article") {
		t.Error("public path should be allowed")
	}
	if gate.Allowed(srv.URL + "/private/secret") {
		t.Error("disallowed path should be blocked")
	}
}

func TestRobotsGateMissingFileAllows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	gate := NewRobotsGate("PressGang", testLogger)
	if !gate.Allowed(srv.URL + "/anything") {
		t.Error("404 robots.txt should open the gate")
	}
}

func TestRobotsGateUnreachableHostAllows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	gate := NewRobotsGate("PressGang", testLogger)
	if !gate.Allowed(url + "/anything") {
		t.Error("unreachable robots.txt should open the gate")
	}
}

func TestRobotsGateInvalidURLAllows(t *testing.T) {
	gate := NewRobotsGate("PressGang", testLogger)
	if !gate.Allowed("not a url") {
		t.Error("unparseable URL should pass through the gate")
	}
}

func TestRobotsGateCachesPerHost(t *testing.T) {
	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /blocked\n"))
	}))
	defer srv.Close()

	gate := NewRobotsGate("PressGang", testLogger)
	for i := 0; i < 5; i++ {
		gate.Allowed(srv.URL + "/page")
	}

	if got := fetches.Load(); got != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", got)
	}
}

func TestRobotsGateAgentSpecificRules(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: PressGang\nDisallow: /\n\nUser-agent: *\nDisallow:\n"))
	}))
	defer srv.Close()

	gate := NewRobotsGate("PressGang", testLogger)
	if gate.Allowed(srv.URL + "/anything") {
		t.Error("agent-specific disallow should block")
	}

	open := NewRobotsGate("SomeoneElse", testLogger)
	if !open.Allowed(srv.URL + "/anything") {
		t.Error("other agents should pass")
	}
}

func TestRobotsGateFilterPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /skip\n"))
	}))
	defer srv.Close()

	gate := NewRobotsGate("PressGang", testLogger)
	in := []string{
		srv.URL + "/first",
		srv.URL + "/skip/me",
		srv.URL + "/second",
	}
	got := gate.Filter(in)

	want := []string{srv.URL + "/first", srv.URL + "/second"}
	if len(got) != len(want) {
		t.Fatalf("Filter() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Filter()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
