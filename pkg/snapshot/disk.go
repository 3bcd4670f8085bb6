package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const (
	dataExt = ".snap"
	metaExt = ".meta"
)

// DiskStore stores snapshots on the local filesystem.
type DiskStore struct {
	dir string
	mu  sync.RWMutex
}

// NewDiskStore creates the directory if needed and returns a store rooted
// there.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) path(name string) string {
	return filepath.Join(s.dir, filepath.FromSlash(name)+dataExt)
}

func (s *DiskStore) metaPath(name string) string {
	return filepath.Join(s.dir, filepath.FromSlash(name)+metaExt)
}

// Put writes data and its metadata, replacing any previous snapshot.
func (s *DiskStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.path(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return err
	}
	meta, err := json.Marshal(newMeta(data))
	if err != nil {
		return err
	}
	return writeFileAtomic(s.metaPath(name), meta)
}

// Get reads a snapshot and verifies it against the stored hash.
func (s *DiskStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	meta, err := s.loadMeta(name)
	if err != nil {
		// Snapshots written by hand have no metadata.
		return data, nil
	}
	if meta.SHA256 != digest(data) {
		return nil, ErrCorrupt
	}
	return data, nil
}

// Stat returns a snapshot's metadata.
func (s *DiskStore) Stat(name string) (Meta, error) {
	if err := ValidateName(name); err != nil {
		return Meta{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, err := s.loadMeta(name)
	if errors.Is(err, fs.ErrNotExist) {
		return Meta{}, ErrNotFound
	}
	return m, err
}

// List returns every snapshot name in sorted order.
func (s *DiskStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, dataExt) {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(strings.TrimSuffix(rel, dataExt)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a snapshot and its metadata.
func (s *DiskStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	os.Remove(s.metaPath(name))
	return nil
}

func (s *DiskStore) loadMeta(name string) (Meta, error) {
	data, err := os.ReadFile(s.metaPath(name))
	if err != nil {
		return Meta{}, err
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
