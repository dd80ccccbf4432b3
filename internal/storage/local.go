package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStorage keeps objects on the local filesystem under a root directory.
// Used for development and single-node deployments.
type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{root: root}
}

func (l *LocalStorage) fullPath(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

func (l *LocalStorage) Upload(ctx context.Context, path string, data io.Reader, contentType string) error {
	dst := l.fullPath(path)
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp object: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		return fmt.Errorf("write object: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close object: %w", err)
	}
	// Rename so readers never observe a partial object.
	if err := os.Rename(f.Name(), dst); err != nil {
		return fmt.Errorf("finalize object: %w", err)
	}
	return nil
}

func (l *LocalStorage) Fetch(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(l.fullPath(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("fetch %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	return data, nil
}

func (l *LocalStorage) Delete(ctx context.Context, path string) error {
	if err := os.Remove(l.fullPath(path)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}
