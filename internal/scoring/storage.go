package scoring

import (
	"sync"
)

// ScoreStorage defines the interface for loading and saving score data.
// This allows for mocking the storage layer during tests.
type ScoreStorage interface {
	// LoadAll loads all score entries.
	LoadAll() ([]ScoreHistoryEntry, error)
	// SaveAll replaces the stored entries with the given slice.
	SaveAll(entries []ScoreHistoryEntry) error
}

// MemoryStorage keeps score entries for the lifetime of the process.
// Entries are lost on exit.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries []ScoreHistoryEntry
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// LoadAll returns a copy of the stored entries.
func (m *MemoryStorage) LoadAll() ([]ScoreHistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ScoreHistoryEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

// SaveAll replaces the stored entries with a copy of entries.
func (m *MemoryStorage) SaveAll(entries []ScoreHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make([]ScoreHistoryEntry, len(entries))
	copy(m.entries, entries)
	return nil
}
