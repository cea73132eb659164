package journal

import (
	"context"
	"sync"

	"evonft/internal/evolution/models"
)

type InMemoryJournal struct {
	mu      sync.RWMutex
	entries []models.JournalEntry
}

func NewInMemory() *InMemoryJournal {
	return &InMemoryJournal{}
}

func (j *InMemoryJournal) Append(_ context.Context, entry models.JournalEntry) (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	entry.Sequence = uint64(len(j.entries)) + 1
	j.entries = append(j.entries, entry)
	return entry.Sequence, nil
}

func (j *InMemoryJournal) List(_ context.Context, from uint64, limit int) ([]models.JournalEntry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if from == 0 {
		from = 1
	}
	if from > uint64(len(j.entries)) || limit <= 0 {
		return []models.JournalEntry{}, nil
	}
	start := from - 1
	end := min(start+uint64(limit), uint64(len(j.entries)))
	return append([]models.JournalEntry{}, j.entries[start:end]...), nil
}

// Checkpoint remembers the journal length; restore truncates back to it.
func (j *InMemoryJournal) Checkpoint() (restore, release func()) {
	j.mu.RLock()
	n := len(j.entries)
	j.mu.RUnlock()

	restore = func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		j.entries = j.entries[:n]
	}
	return restore, func() {}
}
