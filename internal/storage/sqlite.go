package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/IshaanNene/PressGang/internal/search"
	"github.com/IshaanNene/PressGang/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	canonical_url TEXT PRIMARY KEY,
	url           TEXT NOT NULL,
	title         TEXT,
	body          TEXT NOT NULL,
	kind          TEXT NOT NULL,
	platform      TEXT NOT NULL,
	author        TEXT,
	published_at  TEXT,
	fetched_at    TEXT NOT NULL,
	markdown      TEXT,
	image_url     TEXT,
	style         TEXT,
	word_count    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_records_platform ON records(platform);
CREATE INDEX IF NOT EXISTS idx_records_fetched_at ON records(fetched_at);
`

const sqliteUpsert = `
INSERT OR REPLACE INTO records
	(canonical_url, url, title, body, kind, platform, author, published_at,
	 fetched_at, markdown, image_url, style, word_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// SQLiteStorage writes records to an embedded SQLite database. Rows are
// keyed by canonical URL, so re-acquiring a page updates in place instead
// of accumulating duplicates.
type SQLiteStorage struct {
	db      *sql.DB
	timeout time.Duration
	mu      sync.Mutex
	count   int
	logger  *slog.Logger
}

// NewSQLiteStorage opens (and migrates) the database at path.
func NewSQLiteStorage(path string, timeout time.Duration, logger *slog.Logger) (*SQLiteStorage, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Op: "mkdir", Err: err}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Op: "open", Err: err}
	}
	// SQLite serializes writers; a single connection avoids busy churn.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, &types.StorageError{Backend: "sqlite", Op: "migrate", Err: err}
	}

	return &SQLiteStorage{
		db:      db,
		timeout: timeout,
		logger:  logger.With("component", "sqlite_storage"),
	}, nil
}

func (s *SQLiteStorage) Name() string { return "sqlite" }

func (s *SQLiteStorage) Store(records []*types.ContentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &types.StorageError{Backend: "sqlite", Op: "begin", Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return &types.StorageError{Backend: "sqlite", Op: "prepare", Err: err}
	}
	defer stmt.Close()

	for _, record := range records {
		var published any
		if !record.PublishedAt.IsZero() {
			published = record.PublishedAt.UTC().Format(time.RFC3339)
		}

		_, err := stmt.ExecContext(ctx,
			search.Canonicalize(record.URL),
			record.URL,
			record.Title,
			record.Body,
			string(record.Kind),
			record.Platform,
			record.Author,
			published,
			record.FetchedAt.UTC().Format(time.RFC3339),
			record.Markdown,
			record.ImageURL,
			record.Style,
			record.WordCount,
		)
		if err != nil {
			return &types.StorageError{Backend: "sqlite", Op: "insert", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &types.StorageError{Backend: "sqlite", Op: "commit", Err: err}
	}

	s.count += len(records)
	s.logger.Debug("records stored in sqlite", "count", len(records), "total", s.count)
	return nil
}

func (s *SQLiteStorage) Close() error {
	s.logger.Info("sqlite storage closing", "total_records", s.count)
	return s.db.Close()
}
