// Package monitor re-runs topics on an interval and surfaces what changed
// since the last pass.
package monitor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/IshaanNene/PressGang/internal/config"
	"github.com/IshaanNene/PressGang/internal/search"
	"github.com/IshaanNene/PressGang/internal/types"
)

// ChangeType identifies what kind of change occurred.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
)

// Change represents a detected content change.
type Change struct {
	URL       string     `json:"url"`
	Type      ChangeType `json:"type"`
	Title     string     `json:"title,omitempty"`
	Platform  string     `json:"platform,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Runner executes one topic acquisition. *engine.Engine satisfies this.
type Runner interface {
	Run(ctx context.Context, topic string) (*types.TopicResult, error)
}

// Handler receives the records that are new or changed since the last tick.
type Handler func(topic string, fresh []*types.ContentRecord, changes []Change)

// snapshot is the persisted seen-set for one topic. Keys are canonical URLs,
// values are body hashes so edited pages count as changes.
type snapshot struct {
	Topic     string            `json:"topic"`
	UpdatedAt time.Time         `json:"updated_at"`
	Seen      map[string]string `json:"seen"`
}

// Watcher re-runs a topic on an interval and emits only records not seen in
// earlier passes.
type Watcher struct {
	runner   Runner
	cfg      config.WatchConfig
	logger   *slog.Logger
	handler  Handler
	notifier *Notifier
	mu       sync.Mutex
}

// NewWatcher creates a Watcher. The state directory is created eagerly so a
// bad path fails at construction, not mid-watch.
func NewWatcher(runner Runner, cfg config.WatchConfig, logger *slog.Logger) (*Watcher, error) {
	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create watch state dir: %w", err)
	}

	w := &Watcher{
		runner: runner,
		cfg:    cfg,
		logger: logger.With("component", "watcher"),
	}
	if cfg.WebhookURL != "" {
		w.notifier = NewNotifier(logger)
		w.notifier.AddChannel(&WebhookChannel{URL: cfg.WebhookURL, logger: logger})
	}
	return w, nil
}

// SetHandler registers the fresh-record callback.
func (w *Watcher) SetHandler(h Handler) {
	w.handler = h
}

// Run watches the topic until the context is canceled. The first pass emits
// everything; later passes emit only new or modified records.
func (w *Watcher) Run(ctx context.Context, topic string, interval time.Duration) error {
	if interval <= 0 {
		interval = w.cfg.Interval
	}

	w.logger.Info("watch starting", "topic", topic, "interval", interval)

	// First pass runs immediately; the ticker covers the rest.
	if err := w.cycle(ctx, topic); err != nil {
		w.logger.Error("watch cycle failed", "topic", topic, "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped", "topic", topic)
			return ctx.Err()
		case <-ticker.C:
			if err := w.cycle(ctx, topic); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger.Error("watch cycle failed", "topic", topic, "error", err)
			}
		}
	}
}

// cycle runs the topic once and diffs the results against the snapshot.
func (w *Watcher) cycle(ctx context.Context, topic string) error {
	result, err := w.runner.Run(ctx, topic)
	if err != nil {
		return err
	}

	records := make([]*types.ContentRecord, 0, result.RecordCount())
	records = append(records, result.Articles...)
	for _, posts := range result.Social {
		records = append(records, posts...)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	snap := w.loadSnapshot(topic)
	var fresh []*types.ContentRecord
	var changes []Change

	for _, record := range records {
		key := search.Canonicalize(record.URL)
		hash := bodyHash(record.Body)
		prev, seen := snap.Seen[key]

		switch {
		case !seen:
			fresh = append(fresh, record)
			changes = append(changes, Change{
				URL: record.URL, Type: ChangeAdded,
				Title: record.Title, Platform: record.Platform,
				Timestamp: time.Now(),
			})
		case prev != hash:
			fresh = append(fresh, record)
			changes = append(changes, Change{
				URL: record.URL, Type: ChangeModified,
				Title: record.Title, Platform: record.Platform,
				Timestamp: time.Now(),
			})
		}
		snap.Seen[key] = hash
	}

	if err := w.saveSnapshot(topic, snap); err != nil {
		w.logger.Error("snapshot save failed", "topic", topic, "error", err)
	}

	w.logger.Info("watch cycle complete",
		"topic", topic,
		"records", len(records),
		"fresh", len(fresh),
	)

	if len(fresh) == 0 {
		return nil
	}
	if w.handler != nil {
		w.handler(topic, fresh, changes)
	}
	if w.notifier != nil {
		w.notifier.Notify(ctx, changes)
	}
	return nil
}

// loadSnapshot reads the topic's seen-set. Missing or corrupt files start a
// fresh snapshot, which makes the next emit a full one.
func (w *Watcher) loadSnapshot(topic string) *snapshot {
	snap := &snapshot{Topic: topic, Seen: make(map[string]string)}

	data, err := os.ReadFile(w.snapshotPath(topic))
	if err != nil {
		return snap
	}
	if err := json.Unmarshal(data, snap); err != nil {
		w.logger.Warn("snapshot unreadable, starting over", "topic", topic, "error", err)
		return &snapshot{Topic: topic, Seen: make(map[string]string)}
	}
	if snap.Seen == nil {
		snap.Seen = make(map[string]string)
	}
	return snap
}

// saveSnapshot writes the seen-set atomically: temp file, then rename. A
// crash mid-write leaves the previous snapshot intact.
func (w *Watcher) saveSnapshot(topic string, snap *snapshot) error {
	snap.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(w.cfg.StateDir, ".snapshot-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), w.snapshotPath(topic))
}

func (w *Watcher) snapshotPath(topic string) string {
	hash := sha256.Sum256([]byte(topic))
	return filepath.Join(w.cfg.StateDir, hex.EncodeToString(hash[:])+".json")
}

func bodyHash(body string) string {
	h := sha256.Sum256([]byte(body))
	return hex.EncodeToString(h[:16])
}

// --- Notification System ---

// NotificationType specifies the notification channel.
type NotificationType string

const NotifyWebhook NotificationType = "webhook"

// NotificationChannel is an interface for notification delivery.
type NotificationChannel interface {
	Send(ctx context.Context, changes []Change) error
	Type() NotificationType
}

// Notifier sends change notifications to all registered channels.
type Notifier struct {
	channels []NotificationChannel
	logger   *slog.Logger
}

// NewNotifier creates a new change notifier.
func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{
		logger: logger.With("component", "notifier"),
	}
}

// AddChannel registers a notification channel.
func (n *Notifier) AddChannel(ch NotificationChannel) {
	n.channels = append(n.channels, ch)
}

// Notify sends changes to all registered channels.
func (n *Notifier) Notify(ctx context.Context, changes []Change) {
	if len(changes) == 0 {
		return
	}
	for _, ch := range n.channels {
		if err := ch.Send(ctx, changes); err != nil {
			n.logger.Error("notification failed", "channel", ch.Type(), "error", err)
		}
	}
}

// WebhookChannel POSTs change batches as JSON.
type WebhookChannel struct {
	URL    string
	Client *http.Client
	logger *slog.Logger
}

func (c *WebhookChannel) Type() NotificationType { return NotifyWebhook }

func (c *WebhookChannel) Send(ctx context.Context, changes []Change) error {
	payload, err := json.Marshal(map[string]any{
		"changes":   changes,
		"count":     len(changes),
		"timestamp": time.Now(),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
