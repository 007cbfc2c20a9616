// Package store provides the scoped key/value persistence the session
// manager mirrors its state into. Values survive process restarts in the
// SQLite and file backends.
package store

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store: closed")

// Store is a key to string mapping scoped to one origin.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set overwrites the value for key.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// Close releases the underlying resources.
	Close() error
}

// ScopeFromURL derives a store scope from a server URL: scheme://host[:port].
// Unparseable input is returned trimmed so distinct servers still get
// distinct scopes.
func ScopeFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(raw)
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}
