package prefs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore keeps preferences in a YAML file. A missing file reads as empty.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (f *FileStore) load() (Preferences, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Preferences{}, nil
	}
	if err != nil {
		return Preferences{}, err
	}
	var p Preferences
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Preferences{}, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return p, nil
}

func (f *FileStore) PGNFolder(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.load()
	return p.PGNFolder, err
}

func (f *FileStore) SetPGNFolder(_ context.Context, dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.load()
	if err != nil {
		return err
	}
	p.PGNFolder = strings.TrimSpace(dir)
	raw, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	if d := filepath.Dir(f.path); d != "" {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(f.path, raw, 0o644)
}
