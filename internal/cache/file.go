// ABOUTME: Local file crawl cache written with temp-file-then-rename
// ABOUTME: A concurrent reader sees either the old file or the new one, never a torn write
package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/harper/notion-rag/internal/models"
)

// FileStore keeps the crawl cache in a single JSON file
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the cache file; a missing file is a miss, not an error
func (s *FileStore) Load(_ context.Context) ([]models.RawUnit, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	units, err := decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", s.path, err)
	}
	return units, true, nil
}

// Save atomically replaces the cache file
func (s *FileStore) Save(_ context.Context, units []models.RawUnit) error {
	data, err := encode(units)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op
func (s *FileStore) Close() error { return nil }
