package store

import (
	"context"
	"sync"
	"time"

	id "curio/pkg/domain"
	"curio/pkg/requestcontext"
)

type journalEntry struct {
	Account id.AccountID
	Amount  uint64
	Reason  string
	At      time.Time
}

type InMemoryStore struct {
	mu       sync.RWMutex
	balances map[id.AccountID]uint64
	journal  []journalEntry
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{balances: make(map[id.AccountID]uint64)}
}

func (s *InMemoryStore) Credit(ctx context.Context, account id.AccountID, amount uint64, reason string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.balances[account] += amount
	s.journal = append(s.journal, journalEntry{
		Account: account,
		Amount:  amount,
		Reason:  reason,
		At:      requestcontext.Now(ctx),
	})
	return s.balances[account], nil
}

func (s *InMemoryStore) BalanceOf(_ context.Context, account id.AccountID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[account], nil
}

// JournalLen reports how many credits have ever been recorded. Tests use it
// to assert payout ordering and conservation.
func (s *InMemoryStore) JournalLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.journal)
}
