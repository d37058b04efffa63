package store

import (
	"context"
	"sync"

	"curio/internal/registry/models"
	id "curio/pkg/domain"
	"curio/pkg/platform/sentinel"
	"curio/pkg/requestcontext"
)

// InMemoryStore keeps the asset table in process memory. It is the store the
// unit tests and local development run against.
type InMemoryStore struct {
	mu     sync.RWMutex
	assets map[id.AssetID]*models.Asset
	nextID id.AssetID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		assets: make(map[id.AssetID]*models.Asset),
		nextID: 1,
	}
}

func (s *InMemoryStore) Create(ctx context.Context, holder id.AccountID, attrs models.Attributes) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset := &models.Asset{
		ID:         s.nextID,
		Holder:     holder,
		Attributes: attrs,
		MintedAt:   requestcontext.Now(ctx),
	}
	s.assets[asset.ID] = asset
	s.nextID++

	out := *asset
	return &out, nil
}

func (s *InMemoryStore) Get(_ context.Context, assetID id.AssetID) (*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	asset, ok := s.assets[assetID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *asset
	return &out, nil
}

func (s *InMemoryStore) UpdateHolder(_ context.Context, assetID id.AssetID, from, to id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[assetID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if asset.Holder != from {
		return sentinel.ErrInvalidState
	}
	asset.Holder = to
	return nil
}

func (s *InMemoryStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.assets)), nil
}
