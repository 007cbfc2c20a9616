package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/me/authkit/internal/logging"
)

// fileDocument is the on-disk layout: scope -> key -> value.
type fileDocument struct {
	Scopes map[string]map[string]string `json:"scopes"`
}

// FileStore keeps all scopes in a single JSON document. Writes replace the
// file atomically via rename.
type FileStore struct {
	path   string
	scope  string
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewFileStore returns a store backed by the JSON file at path. The file and
// its directory are created on first write.
func NewFileStore(path, scope string, logger *slog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		scope:  scope,
		logger: logging.Component(logger, "store").With("driver", "file"),
	}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, ErrClosed
	}

	doc, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := doc.Scopes[s.scope][key]
	return v, ok, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	doc, err := s.load()
	if err != nil {
		return err
	}
	if doc.Scopes[s.scope] == nil {
		doc.Scopes[s.scope] = make(map[string]string)
	}
	doc.Scopes[s.scope][key] = value
	return s.save(doc)
}

func (s *FileStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	doc, err := s.load()
	if err != nil {
		return err
	}
	entries, ok := doc.Scopes[s.scope]
	if !ok {
		return nil
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	if len(entries) == 0 {
		delete(doc.Scopes, s.scope)
	}
	return s.save(doc)
}

// Close marks the store closed. The file is left in place.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FileStore) load() (*fileDocument, error) {
	doc := &fileDocument{Scopes: make(map[string]map[string]string)}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse store file %s: %w", s.path, err)
	}
	if doc.Scopes == nil {
		doc.Scopes = make(map[string]map[string]string)
	}
	return doc, nil
}

func (s *FileStore) save(doc *fileDocument) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".store-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write store file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close store file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace store file: %w", err)
	}

	s.logger.Debug("store file written", "path", s.path, "scopes", len(doc.Scopes))
	return nil
}
