package rare

import (
	"context"
	"sort"
	"sync"

	"evonft/internal/evolution/models"
	id "evonft/pkg/domain"
)

type InMemoryRareStore struct {
	mu       sync.RWMutex
	balances map[id.OwnerID]uint64
	undo     []func()
}

func NewInMemory() *InMemoryRareStore {
	return &InMemoryRareStore{balances: make(map[id.OwnerID]uint64)}
}

func (s *InMemoryRareStore) Balance(_ context.Context, owner id.OwnerID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[owner], nil
}

func (s *InMemoryRareStore) SetBalance(_ context.Context, owner id.OwnerID, balance uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.undo != nil {
		previous, held := s.balances[owner]
		s.undo = append(s.undo, func() {
			if held {
				s.balances[owner] = previous
			} else {
				delete(s.balances, owner)
			}
		})
	}
	if balance == 0 {
		delete(s.balances, owner)
		return nil
	}
	s.balances[owner] = balance
	return nil
}

func (s *InMemoryRareStore) List(_ context.Context) ([]models.RareBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.RareBalance, 0, len(s.balances))
	for owner, balance := range s.balances {
		out = append(out, models.RareBalance{Owner: owner, Balance: balance})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Owner < out[j].Owner })
	return out, nil
}

// Checkpoint opens an undo log of balance writes; see the asset store.
func (s *InMemoryRareStore) Checkpoint() (restore, release func()) {
	s.mu.Lock()
	s.undo = make([]func(), 0, 2)
	s.mu.Unlock()

	restore = func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := len(s.undo) - 1; i >= 0; i-- {
			s.undo[i]()
		}
		s.undo = nil
	}
	release = func() {
		s.mu.Lock()
		s.undo = nil
		s.mu.Unlock()
	}
	return restore, release
}
