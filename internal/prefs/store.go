// Package prefs remembers user preferences between runs, currently the
// folder last used for PGN export.
package prefs

import (
	"context"
	"strings"
	"sync"
)

// Store keeps the remembered PGN folder. An unset folder is "".
type Store interface {
	PGNFolder(ctx context.Context) (string, error)
	SetPGNFolder(ctx context.Context, dir string) error
}

// Preferences is the persisted document.
type Preferences struct {
	PGNFolder string `json:"pgn_folder" yaml:"pgn_folder"`
}

// MemoryStore keeps preferences for the process lifetime.
type MemoryStore struct {
	mu  sync.Mutex
	dir string
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) PGNFolder(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dir, nil
}

func (m *MemoryStore) SetPGNFolder(_ context.Context, dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dir = strings.TrimSpace(dir)
	return nil
}
