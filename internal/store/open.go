package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// Options selects and locates a store backend.
type Options struct {
	Driver string
	Path   string
	Scope  string
}

// Open constructs the store named by opts.Driver and prepares it for use.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (Store, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil

	case DriverFile:
		if opts.Path == "" {
			return nil, fmt.Errorf("file store requires a path")
		}
		return NewFileStore(opts.Path, opts.Scope, logger), nil

	case DriverSQLite, "":
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite store requires a path")
		}
		if opts.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(opts.Path), 0o700); err != nil {
				return nil, fmt.Errorf("create store directory: %w", err)
			}
		}
		st, err := NewSQLiteStore(opts.Path, opts.Scope, logger)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("migrate store: %w", err)
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
