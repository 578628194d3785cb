package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FilePickupStorage keeps the whole collection in a single JSON document.
// The file and its directory are created on the first Save.
type FilePickupStorage struct {
	path string
	mu   sync.Mutex
}

// NewFilePickupStorage creates a file-backed storage at path
func NewFilePickupStorage(path string) *FilePickupStorage {
	return &FilePickupStorage{path: path}
}

// Path returns the location of the JSON document
func (f *FilePickupStorage) Path() string {
	return f.path
}

func (f *FilePickupStorage) Load(ctx context.Context) ([]*Pickup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []*Pickup{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	var pickups []*Pickup
	if err := json.Unmarshal(data, &pickups); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
	}
	if pickups == nil {
		pickups = []*Pickup{}
	}

	return pickups, nil
}

func (f *FilePickupStorage) Save(ctx context.Context, pickups []*Pickup) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if pickups == nil {
		pickups = []*Pickup{}
	}

	data, err := json.MarshalIndent(pickups, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal pickups: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write pickups: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write pickups: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}

	return nil
}
