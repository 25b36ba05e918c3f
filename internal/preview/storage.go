package preview

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Storage holds rendered preview blobs
type Storage interface {
	// Save stores data under name and returns the key to read it back
	Save(name string, data []byte) (string, error)

	// Get retrieves a blob by key
	Get(key string) ([]byte, error)

	// Delete removes a blob
	Delete(key string) error
}

// LocalStorage keeps previews as flat files in one directory
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the preview directory and removes previews left by a previous run
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("creating preview directory: %w", err)
	}

	l := &LocalStorage{basePath: basePath}
	if err := l.clear(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *LocalStorage) clear() error {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return fmt.Errorf("listing preview directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), previewSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(l.basePath, e.Name())); err != nil {
			return fmt.Errorf("removing stale preview: %w", err)
		}
	}
	return nil
}

// path resolves a key inside the base directory; keys are flat file names
func (l *LocalStorage) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid preview key %q", key)
	}
	return filepath.Join(l.basePath, key), nil
}

// Save writes a preview to disk
func (l *LocalStorage) Save(name string, data []byte) (string, error) {
	path, err := l.path(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return name, nil
}

// Get reads a preview from disk
func (l *LocalStorage) Get(key string) ([]byte, error) {
	path, err := l.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a preview from disk
func (l *LocalStorage) Delete(key string) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
