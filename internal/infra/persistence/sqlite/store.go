// Package sqlite keeps the local filter-list catalog in an embedded SQLite
// file using the pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"proteomecore/internal/infra/persistence/sqlcatalog"
)

// DefaultPath is used when no path is configured.
const DefaultPath = "proteome.db"

var dialect = sqlcatalog.Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
	DDL: []string{
		`CREATE TABLE IF NOT EXISTS filter_lists (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			is_default INTEGER NOT NULL DEFAULT 0,
			data TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS filter_lists_category ON filter_lists(category)`,
	},
}

// Store is the SQLite-backed filterlist.Store.
type Store struct {
	*sqlcatalog.Catalog
	path string
}

// NewStore opens (creating if needed) the database at path.
func NewStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	cat, err := sqlcatalog.Open(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Catalog: cat, path: path}, nil
}

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
