package store

import (
	"context"
	"sync"

	"curio/internal/sale/models"
	id "curio/pkg/domain"
	"curio/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	listings map[id.AssetID]*models.Listing
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{listings: make(map[id.AssetID]*models.Listing)}
}

func (s *InMemoryStore) Put(_ context.Context, listing *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.listings[listing.AssetID]; exists {
		return sentinel.ErrConflict
	}
	stored := *listing
	s.listings[listing.AssetID] = &stored
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, assetID id.AssetID) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, ok := s.listings[assetID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *listing
	return &out, nil
}

func (s *InMemoryStore) Clear(_ context.Context, assetID id.AssetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.listings, assetID)
	return nil
}
