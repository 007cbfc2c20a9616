package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/me/authkit/internal/logging"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	scope  string
	logger *slog.Logger
	closed atomic.Bool
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database (useful in tests).
// Call Migrate before first use.
func NewSQLiteStore(dbPath, scope string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		scope:  scope,
		logger: logging.Component(logger, "store").With("driver", "sqlite"),
	}, nil
}

// Migrate creates the required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// Scope returns the scope all keys are stored under.
func (s *SQLiteStore) Scope() string {
	return s.scope
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.closed.Load() {
		return "", false, ErrClosed
	}
	s.logger.Debug("sql", "op", "select", "table", "kv", "scope", s.scope, "key", key)

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE scope = ? AND key = ?`, s.scope, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.logger.Debug("sql", "op", "upsert", "table", "kv", "scope", s.scope, "key", key)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.scope, key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.logger.Debug("sql", "op", "delete", "table", "kv", "scope", s.scope, "key", key)

	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE scope = ? AND key = ?`, s.scope, key)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
