package memory

import (
	"context"
	"sync"

	id "curio/pkg/domain"
	audit "curio/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.AssetID][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.AssetID][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.AssetID][]audit.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.Asset] = append(s.events[event.Asset], event)
	return nil
}

func (s *InMemoryStore) ListByAsset(_ context.Context, assetID id.AssetID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[assetID]...), nil
}

// ListAll returns all events across all assets (operator-only operation).
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []audit.Event
	for _, assetEvents := range s.events {
		all = append(all, assetEvents...)
	}
	return all, nil
}
