// Package filestore persists the location set as a JSON document on local disk.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/couchcryptid/location-risk-service/internal/domain"
)

// Store implements registry.Persister over a single JSON file.
type Store struct {
	path string
}

// New creates a Store writing to path. The parent directory is created on
// first save.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted locations. A missing file is an empty set.
func (s *Store) Load(_ context.Context) ([]domain.Location, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var locs []domain.Location
	if err := json.Unmarshal(data, &locs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return locs, nil
}

// Save replaces the file contents. The write goes to a temp file in the same
// directory and is renamed over the target so readers never see a partial
// document.
func (s *Store) Save(_ context.Context, locations []domain.Location) error {
	if locations == nil {
		locations = []domain.Location{}
	}
	data, err := json.MarshalIndent(locations, "", "  ")
	if err != nil {
		return fmt.Errorf("encode locations: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename into %s: %w", s.path, err)
	}
	return nil
}
