// Package storage reads snapshot documents and persists result documents on
// the local filesystem, in Google Cloud Storage, or (read-only) from git.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/buildtrace/buildtrace/internal/domain"
)

const fileScheme = "file://"

// FileStore is a filesystem implementation of domain.SnapshotReader and
// domain.ResultWriter. Relative paths resolve against Root.
type FileStore struct {
	Root string
}

// NewFileStore creates a file store rooted at root ("" means the working directory).
func NewFileStore(root string) *FileStore {
	return &FileStore{Root: root}
}

// Read returns the raw document at uri.
func (s *FileStore) Read(_ context.Context, uri string) ([]byte, error) {
	path := s.path(uri)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrSnapshotNotFound)
		}
		return nil, err
	}
	return data, nil
}

// Write stores v as indented JSON at uri, creating directories as needed.
func (s *FileStore) Write(_ context.Context, uri string, v any) error {
	path := s.path(uri)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	return os.WriteFile(path, data, 0644)
}

func (s *FileStore) path(uri string) string {
	p := filepath.FromSlash(strings.TrimPrefix(uri, fileScheme))
	if s.Root == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.Root, p)
}
