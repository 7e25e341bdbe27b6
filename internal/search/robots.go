package search

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsGate filters candidate URLs through each host's robots.txt.
// Rules are cached per host. A robots.txt that cannot be fetched or
// parsed opens the gate: only an explicit disallow blocks a URL.
type RobotsGate struct {
	mu     sync.RWMutex
	cache  map[string]*robotstxt.RobotsData
	client *http.Client
	agent  string
	logger *slog.Logger
}

// NewRobotsGate builds a gate that evaluates rules for the given agent.
func NewRobotsGate(agent string, logger *slog.Logger) *RobotsGate {
	if agent == "" {
		agent = "PressGang"
	}
	return &RobotsGate{
		cache:  make(map[string]*robotstxt.RobotsData),
		client: &http.Client{Timeout: 10 * time.Second},
		agent:  agent,
		logger: logger.With("component", "robots"),
	}
}

// Allowed reports whether the URL's host permits fetching its path.
func (g *RobotsGate) Allowed(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	data := g.rulesFor(u.Scheme + "://" + u.Host)
	if data == nil {
		return true
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return data.TestAgent(path, g.agent)
}

// Filter returns the subset of urls the gate allows, preserving order.
func (g *RobotsGate) Filter(urls []string) []string {
	allowed := make([]string, 0, len(urls))
	for _, u := range urls {
		if g.Allowed(u) {
			allowed = append(allowed, u)
		} else {
			g.logger.Debug("robots.txt disallows url", "url", u)
		}
	}
	return allowed
}

// rulesFor returns cached rules for an origin, fetching on first use.
func (g *RobotsGate) rulesFor(origin string) *robotstxt.RobotsData {
	g.mu.RLock()
	data, ok := g.cache[origin]
	g.mu.RUnlock()
	if ok {
		return data
	}

	data = g.fetch(origin)

	g.mu.Lock()
	g.cache[origin] = data
	g.mu.Unlock()
	return data
}

// fetch downloads and parses an origin's robots.txt. Any failure is
// treated as no rules.
func (g *RobotsGate) fetch(origin string) *robotstxt.RobotsData {
	resp, err := g.client.Get(origin + "/robots.txt")
	if err != nil {
		g.logger.Debug("robots.txt unreachable", "origin", origin, "error", err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		g.logger.Debug("robots.txt unparseable", "origin", origin, "error", err)
		return nil
	}
	return data
}
