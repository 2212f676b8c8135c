package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/okian/encore/pkg/metrics"
)

const backendLocal = "local"

// LocalStore implements Store on a local directory tree.
type LocalStore struct {
	root     string
	fileMode os.FileMode
	dirMode  os.FileMode
}

// NewLocalStore creates a store rooted at dir, creating it if needed.
func NewLocalStore(dir string, opts ...LocalOption) (*LocalStore, error) {
	s := &LocalStore{
		root:     dir,
		fileMode: 0o644,
		dirMode:  0o755,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(s.root, s.dirMode); err != nil {
		return nil, fmt.Errorf("%w: create root %s: %w", ErrStorage, s.root, err)
	}
	return s, nil
}

// Put writes data under key, creating parent directories as needed.
func (s *LocalStore) Put(_ context.Context, key string, data []byte) error {
	start := time.Now()
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), s.dirMode); err != nil {
		metrics.RecordStorageError(backendLocal, "put")
		return fmt.Errorf("%w: mkdir for %s: %w", ErrStorage, key, err)
	}
	if err := os.WriteFile(path, data, s.fileMode); err != nil {
		metrics.RecordStorageError(backendLocal, "put")
		return fmt.Errorf("%w: write %s: %w", ErrStorage, key, err)
	}
	metrics.RecordStorageOp(backendLocal, "put", float64(time.Since(start).Milliseconds()))
	return nil
}

// Get returns the bytes stored under key.
func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	start := time.Now()
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		metrics.RecordStorageError(backendLocal, "get")
		return nil, fmt.Errorf("%w: read %s: %w", ErrStorage, key, err)
	}
	metrics.RecordStorageOp(backendLocal, "get", float64(time.Since(start).Milliseconds()))
	return data, nil
}

// List returns all keys under prefix in lexical order. A prefix with no
// matching files yields an empty slice, not an error.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	start := time.Now()

	// Walk from the deepest directory implied by the prefix.
	walkRoot := s.path(prefix)
	if info, err := os.Stat(walkRoot); err != nil || !info.IsDir() {
		walkRoot = filepath.Dir(walkRoot)
	}
	if _, err := os.Stat(walkRoot); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var keys []string
	err := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		metrics.RecordStorageError(backendLocal, "list")
		return nil, fmt.Errorf("%w: list %s: %w", ErrStorage, prefix, err)
	}
	sort.Strings(keys)
	metrics.RecordStorageOp(backendLocal, "list", float64(time.Since(start).Milliseconds()))
	return keys, nil
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}
