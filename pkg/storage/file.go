package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File persists all keys as a single JSON document. Writes go through a
// temporary file and rename so a crash never leaves a torn document behind.
type File struct {
	path string

	mu     sync.Mutex
	values map[string]string
	loaded bool
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) load() error {
	if f.loaded {
		return nil
	}
	f.values = map[string]string{}
	f.loaded = true

	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("unable to read storage file %s: %w", f.path, err)
	}
	if err := json.Unmarshal(raw, &f.values); err != nil {
		return fmt.Errorf("unable to parse storage file %s: %w", f.path, err)
	}
	return nil
}

func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(); err != nil {
		return nil, false, err
	}
	v, ok := f.values[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

func (f *File) Save(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(); err != nil {
		return err
	}
	f.values[key] = string(value)

	doc, err := json.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("unable to marshal storage document: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".unleash-*")
	if err != nil {
		return fmt.Errorf("unable to create temporary storage file: %w", err)
	}
	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("unable to write storage file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("unable to close storage file: %w", err)
	}
	return os.Rename(tmp.Name(), f.path)
}
