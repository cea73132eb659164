package asset

import (
	"context"
	"sort"
	"sync"

	"evonft/internal/evolution/models"
	id "evonft/pkg/domain"
	"evonft/pkg/platform/sentinel"
)

// InMemoryAssetStore keeps assets in an arena keyed by id plus an owner index.
type InMemoryAssetStore struct {
	mu      sync.RWMutex
	nextID  id.AssetID
	assets  map[id.AssetID]models.Asset
	byOwner map[id.OwnerID]id.AssetID

	// undo holds inverse writes since the open checkpoint, nil when none is open.
	undo []func()
}

func NewInMemory() *InMemoryAssetStore {
	return &InMemoryAssetStore{
		nextID:  1,
		assets:  make(map[id.AssetID]models.Asset),
		byOwner: make(map[id.OwnerID]id.AssetID),
	}
}

func (s *InMemoryAssetStore) Create(_ context.Context, owner id.OwnerID) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byOwner[owner]; exists {
		return nil, sentinel.ErrConflict
	}
	asset := models.NewAsset(s.nextID, owner)
	s.assets[asset.ID] = *asset
	s.byOwner[owner] = asset.ID
	s.nextID++
	s.record(func() {
		delete(s.assets, asset.ID)
		delete(s.byOwner, owner)
		s.nextID = asset.ID
	})
	return asset, nil
}

func (s *InMemoryAssetStore) FindByID(_ context.Context, assetID id.AssetID) (*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	asset, ok := s.assets[assetID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &asset, nil
}

func (s *InMemoryAssetStore) FindByOwner(_ context.Context, owner id.OwnerID) (*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assetID, ok := s.byOwner[owner]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	asset := s.assets[assetID]
	return &asset, nil
}

func (s *InMemoryAssetStore) Update(_ context.Context, asset *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.assets[asset.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	previous := current
	current.Stage = asset.Stage
	current.Activity = asset.Activity
	s.assets[asset.ID] = current
	s.record(func() { s.assets[previous.ID] = previous })
	return nil
}

func (s *InMemoryAssetStore) List(_ context.Context) ([]models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Asset, 0, len(s.assets))
	for _, asset := range s.assets {
		out = append(out, asset)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// record appends an inverse write. Callers hold mu.
func (s *InMemoryAssetStore) record(inverse func()) {
	if s.undo != nil {
		s.undo = append(s.undo, inverse)
	}
}

// Checkpoint opens an undo log. restore reverts every write made since, in
// reverse order; release drops the log once the unit has committed.
func (s *InMemoryAssetStore) Checkpoint() (restore, release func()) {
	s.mu.Lock()
	s.undo = make([]func(), 0, 4)
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
