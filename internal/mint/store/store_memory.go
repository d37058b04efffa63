package store

import (
	"context"
	"sync"

	"curio/internal/mint/models"
	id "curio/pkg/domain"
	"curio/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[id.RequestToken]*models.PendingRequest
	order    []id.RequestToken
	params   models.Params
}

func NewInMemory(params models.Params) *InMemoryStore {
	return &InMemoryStore{
		requests: make(map[id.RequestToken]*models.PendingRequest),
		params:   params,
	}
}

func (s *InMemoryStore) CreateRequest(_ context.Context, req *models.PendingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.Token]; exists {
		return sentinel.ErrConflict
	}
	stored := *req
	s.requests[req.Token] = &stored
	s.order = append(s.order, req.Token)
	return nil
}

func (s *InMemoryStore) ConsumeRequest(_ context.Context, token id.RequestToken) (*models.PendingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[token]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if req.Fulfilled {
		return nil, sentinel.ErrConsumed
	}
	req.Fulfilled = true

	out := *req
	return &out, nil
}

func (s *InMemoryStore) ListPending(_ context.Context, limit int) ([]*models.PendingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []*models.PendingRequest
	for _, token := range s.order {
		req := s.requests[token]
		if req.Fulfilled {
			continue
		}
		out := *req
		pending = append(pending, &out)
		if limit > 0 && len(pending) >= limit {
			break
		}
	}
	return pending, nil
}

func (s *InMemoryStore) CountPending(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count uint64
	for _, req := range s.requests {
		if !req.Fulfilled {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) Params(_ context.Context) (models.Params, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params, nil
}

func (s *InMemoryStore) SetParams(_ context.Context, params models.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = params
	return nil
}
