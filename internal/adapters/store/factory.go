package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agora-ai/agora/internal/config"
	"github.com/agora-ai/agora/internal/core"
)

// New creates the debate store selected by cfg. Backend "json" keeps one file
// per debate under cfg.Dir; "sqlite" keeps everything in the database at
// cfg.DSN.
func New(cfg config.StateConfig) (core.DebateStore, error) {
	switch cfg.Backend {
	case "json", "":
		return NewJSONStore(cfg.Dir)
	case "sqlite":
		dsn := cfg.DSN
		// Ensure the path has a .db extension for SQLite
		if !strings.HasSuffix(dsn, ".db") {
			dsn = strings.TrimSuffix(dsn, filepath.Ext(dsn)) + ".db"
		}
		return NewSQLiteStore(dsn)
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}

// Closeable is an optional interface for stores that need cleanup.
type Closeable interface {
	Close() error
}

// CloseStore safely closes a store if it implements Closeable.
func CloseStore(s core.DebateStore) error {
	if closeable, ok := s.(Closeable); ok {
		return closeable.Close()
	}
	return nil
}
