package store

import (
	"context"
	"sync"

	"curio/internal/auction/models"
	id "curio/pkg/domain"
	"curio/pkg/platform/sentinel"
)

// refundKey scopes an owed refund to one asset's auction.
type refundKey struct {
	asset   id.AssetID
	account id.AccountID
}

type InMemoryStore struct {
	mu       sync.RWMutex
	auctions map[id.AssetID]*models.Auction
	refunds  map[refundKey]uint64
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		auctions: make(map[id.AssetID]*models.Auction),
		refunds:  make(map[refundKey]uint64),
	}
}

func (s *InMemoryStore) CreateAuction(_ context.Context, auction *models.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.auctions[auction.AssetID]; ok && !existing.Finalized {
		return sentinel.ErrConflict
	}
	stored := *auction
	s.auctions[auction.AssetID] = &stored
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, assetID id.AssetID) (*models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auction, ok := s.auctions[assetID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *auction
	return &out, nil
}

func (s *InMemoryStore) UpdateHighest(_ context.Context, assetID id.AssetID, bidder id.AccountID, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	auction, ok := s.auctions[assetID]
	if !ok {
		return sentinel.ErrNotFound
	}
	auction.HighestBidder = bidder
	auction.HighestBid = amount
	return nil
}

func (s *InMemoryStore) MarkFinalized(_ context.Context, assetID id.AssetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	auction, ok := s.auctions[assetID]
	if !ok {
		return sentinel.ErrNotFound
	}
	auction.Finalized = true
	return nil
}

func (s *InMemoryStore) AddRefund(_ context.Context, assetID id.AssetID, account id.AccountID, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refunds[refundKey{asset: assetID, account: account}] += amount
	return nil
}

func (s *InMemoryStore) TakeRefund(_ context.Context, assetID id.AssetID, account id.AccountID) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := refundKey{asset: assetID, account: account}
	owed := s.refunds[key]
	delete(s.refunds, key)
	return owed, nil
}

func (s *InMemoryStore) RefundBalance(_ context.Context, assetID id.AssetID, account id.AccountID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refunds[refundKey{asset: assetID, account: account}], nil
}
