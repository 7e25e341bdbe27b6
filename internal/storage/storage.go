// Package storage persists content records to file, SQLite, and MongoDB
// sinks behind one interface.
package storage

import (
	"fmt"
	"log/slog"

	"github.com/IshaanNene/PressGang/internal/config"
	"github.com/IshaanNene/PressGang/internal/types"
)

// Storage is the interface for all storage backends.
type Storage interface {
	// Store persists a batch of records.
	Store(records []*types.ContentRecord) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// Open creates the backend named by cfg.Type. The "multi" type fans out to
// jsonl and sqlite, plus mongodb when a URI is configured.
func Open(cfg config.StorageConfig, logger *slog.Logger) (Storage, error) {
	switch cfg.Type {
	case "json", "jsonl", "csv":
		return NewFileStorage(cfg.Type, cfg.OutputPath, logger)
	case "sqlite":
		return NewSQLiteStorage(cfg.SQLitePath, cfg.Timeout, logger)
	case "mongodb":
		return NewMongoStorage(cfg.MongoURI, cfg.MongoDB, cfg.MongoColl, logger)
	case "multi":
		return openMulti(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func openMulti(cfg config.StorageConfig, logger *slog.Logger) (Storage, error) {
	var backends []Storage

	closeAll := func() {
		for _, b := range backends {
			_ = b.Close()
		}
	}

	jsonl, err := NewFileStorage("jsonl", cfg.OutputPath, logger)
	if err != nil {
		return nil, err
	}
	backends = append(backends, jsonl)

	sqlite, err := NewSQLiteStorage(cfg.SQLitePath, cfg.Timeout, logger)
	if err != nil {
		closeAll()
		return nil, err
	}
	backends = append(backends, sqlite)

	if cfg.MongoURI != "" {
		mongo, err := NewMongoStorage(cfg.MongoURI, cfg.MongoDB, cfg.MongoColl, logger)
		if err != nil {
			closeAll()
			return nil, err
		}
		backends = append(backends, mongo)
	}

	return NewMultiStorage(backends, logger), nil
}
