package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileRepo stores the save blob in a single file. Writes go through a
// temp file and rename so a crash mid-save never truncates the slot.
type FileRepo struct {
	mu   sync.Mutex
	path string
}

func NewFileRepo(path string) (*FileRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("save dir: %w", err)
	}
	return &FileRepo{path: path}, nil
}

func (r *FileRepo) Load(_ context.Context) ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read save: %w", err)
	}
	blob, err := decompressBlob(stored)
	if err != nil {
		return nil, false, err
	}
	return blob, true, nil
}

func (r *FileRepo) Save(_ context.Context, blob []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := compressBlob(blob)
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, stored, 0o644); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (r *FileRepo) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear save: %w", err)
	}
	return nil
}
