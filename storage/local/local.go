// Package localstore persists the client-local keyed state that must survive
// restarts: the pending verification record and the backend session tokens.
package localstore

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileStore is a keyed string-valued store backed by a single JSON file. Values
// are held in memory; every mutation rewrites the file atomically.
type FileStore struct {
	path string

	mu     sync.RWMutex
	values map[string]string
}

// Open loads (or creates) the store at path.
func Open(path string) (*FileStore, error) {
	fs := &FileStore{
		path:   path,
		values: make(map[string]string),
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &fs.values); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
	}
	return fs, nil
}

func (fs *FileStore) Get(key string) (string, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	val, ok := fs.values[key]
	return val, ok
}

func (fs *FileStore) Set(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.values[key] = value
	return fs.flush()
}

func (fs *FileStore) Delete(keys ...string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, key := range keys {
		delete(fs.values, key)
	}
	return fs.flush()
}

// flush writes the whole map via a temp file + rename so a crash mid-write never
// corrupts the store. Callers must hold the write lock.
func (fs *FileStore) flush() error {
	data, err := json.Marshal(fs.values)
	if err != nil {
		return errors.Wrap(err, "marshalling local state")
	}
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(fs.path))
	}
	tmp := fs.path + ".tmp"
	if err := ioutil.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	return errors.Wrapf(os.Rename(tmp, fs.path), "renaming %s", tmp)
}

// MemStore is the in-memory implementation, for tests.
type MemStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string]string)}
}

func (ms *MemStore) Get(key string) (string, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	val, ok := ms.values[key]
	return val, ok
}

func (ms *MemStore) Set(key, value string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.values[key] = value
	return nil
}

func (ms *MemStore) Delete(keys ...string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, key := range keys {
		delete(ms.values, key)
	}
	return nil
}

func (ms *MemStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.values)
}
