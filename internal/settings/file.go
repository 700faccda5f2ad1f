package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is a Backend persisted as one JSON object on disk. Every Set
// rewrites the whole file through a temp file and a rename, so a crash
// leaves either the old or the new content.
type File struct {
	path string
	mu   sync.Mutex
	data map[string]string
}

// OpenFile loads path, or starts empty when it does not exist yet.
func OpenFile(path string) (*File, error) {
	f := &File{path: path, data: make(map[string]string)}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	if len(content) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(content, &f.data); err != nil {
		return nil, fmt.Errorf("parse settings file %s: %w", path, err)
	}
	return f, nil
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.data[key]
	f.data[key] = value
	if err := f.persist(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

func (f *File) Close() error { return nil }

func (f *File) persist() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
