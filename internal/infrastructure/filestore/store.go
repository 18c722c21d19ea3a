// Package filestore persists JSON documents as files under a base directory,
// one subdirectory per collection: <base>/<collection>/<key>.json.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-api-flatfile/internal/domain"
)

const ext = ".json"

// Store is a DocumentStore backed by the local filesystem.
type Store struct {
	baseDir string
}

// New returns a Store rooted at baseDir, creating the directory if needed.
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %w", domain.ErrStorage, err)
	}
	return &Store{baseDir: baseDir}, nil
}

// BaseDir returns the directory the store writes under.
func (s *Store) BaseDir() string { return s.baseDir }

func (s *Store) path(collection, key string) (string, error) {
	if err := domain.ValidateName(collection); err != nil {
		return "", err
	}
	if err := domain.ValidateName(key); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, collection, key+ext), nil
}

// Create writes doc under collection/key. It fails with domain.ErrAlreadyExists
// when the key is taken, leaving the existing document untouched.
func (s *Store) Create(_ context.Context, collection, key string, doc any) error {
	target, err := s.path(collection, key)
	if err != nil {
		return err
	}
	data, err := encode(doc)
	if err != nil {
		return err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: create collection %s: %w", domain.ErrStorage, collection, err)
	}
	tmp, err := writeTemp(dir, data)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	// Link fails if target exists, so two concurrent creators cannot both win
	// and readers never observe a partially written file.
	if err := os.Link(tmp, target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s/%s: %w", collection, key, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("%w: create %s/%s: %w", domain.ErrStorage, collection, key, err)
	}
	return nil
}

// Read decodes the document at collection/key into out.
func (s *Store) Read(_ context.Context, collection, key string, out any) error {
	target, err := s.path(collection, key)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s/%s: %w", collection, key, domain.ErrNotFound)
		}
		return fmt.Errorf("%w: read %s/%s: %w", domain.ErrStorage, collection, key, err)
	}
	if len(data) == 0 {
		return fmt.Errorf("%s/%s is empty: %w", collection, key, domain.ErrEncoding)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s/%s: %w", domain.ErrEncoding, collection, key, err)
	}
	return nil
}

// Update replaces the document at collection/key. The key must already exist.
func (s *Store) Update(_ context.Context, collection, key string, doc any) error {
	target, err := s.path(collection, key)
	if err != nil {
		return err
	}
	data, err := encode(doc)
	if err != nil {
		return err
	}
	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s/%s: %w", collection, key, domain.ErrNotFound)
		}
		return fmt.Errorf("%w: stat %s/%s: %w", domain.ErrStorage, collection, key, err)
	}
	tmp, err := writeTemp(filepath.Dir(target), data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: replace %s/%s: %w", domain.ErrStorage, collection, key, err)
	}
	return nil
}

// Delete removes the document at collection/key.
func (s *Store) Delete(_ context.Context, collection, key string) error {
	target, err := s.path(collection, key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s/%s: %w", collection, key, domain.ErrNotFound)
		}
		return fmt.Errorf("%w: delete %s/%s: %w", domain.ErrStorage, collection, key, err)
	}
	return nil
}

// List returns the keys in collection in lexical order. A collection that
// has never been written to is empty, not an error.
func (s *Store) List(_ context.Context, collection string) ([]string, error) {
	if err := domain.ValidateName(collection); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.baseDir, collection))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: list %s: %w", domain.ErrStorage, collection, err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ext))
	}
	sort.Strings(keys)
	return keys, nil
}

func encode(doc any) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEncoding, err)
	}
	return data, nil
}

// writeTemp writes data to a hidden, synced file in dir and returns its path.
func writeTemp(dir string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %w", domain.ErrStorage, err)
	}
	name := f.Name()
	_, werr := f.Write(data)
	if werr == nil {
		werr = f.Sync()
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("%w: write temp file: %w", domain.ErrStorage, werr)
	}
	return name, nil
}
