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

// File keeps all slots in one JSON document, <dir>/session.json, written
// atomically with a temp file and rename. The file is private to the user.
type File struct {
	mu   sync.Mutex
	path string
}

const sessionFile = "session.json"

// NewFile creates dir if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	return &File{path: filepath.Join(dir, sessionFile)}, nil
}

func (f *File) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slots, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := slots[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	slots, err := f.load()
	if err != nil {
		return err
	}
	slots[key] = value
	return f.save(slots)
}

func (f *File) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	slots, err := f.load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(slots, k)
	}
	if len(slots) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}
	return f.save(slots)
}

func (f *File) Close() error { return nil }

// load treats a missing or corrupt file as empty.
func (f *File) load() (map[string]string, error) {
	slots := map[string]string{}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return slots, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if json.Unmarshal(data, &slots) != nil {
		return map[string]string{}, nil
	}
	return slots, nil
}

func (f *File) save(slots map[string]string) error {
	data, err := json.MarshalIndent(slots, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
