package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auctionstore "curio/internal/auction/store"
	registrymodels "curio/internal/registry/models"
	registryservice "curio/internal/registry/service"
	registrystore "curio/internal/registry/store"
	treasuryservice "curio/internal/treasury/service"
	treasurystore "curio/internal/treasury/store"
	id "curio/pkg/domain"
	dErrors "curio/pkg/domain-errors"
	audit "curio/pkg/platform/audit"
	auditmemory "curio/pkg/platform/audit/store/memory"
	"curio/pkg/platform/audit/publisher"
	"curio/pkg/platform/locks"
	"curio/pkg/requestcontext"
)

const (
	seller = id.AccountID("alice")
	bidder = id.AccountID("bob")
	rival  = id.AccountID("carol")
)

var startTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	registry *registryservice.Service
	treasury *treasuryservice.Service
	events   *auditmemory.InMemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	assetLocks := locks.NewKeyed()
	events := auditmemory.NewInMemoryStore()
	auditor := publisher.NewPublisher(events)

	registry, err := registryservice.New(registrystore.NewInMemory(), assetLocks,
		registryservice.WithAuditPublisher(auditor))
	require.NoError(t, err)

	treasury, err := treasuryservice.New(treasurystore.NewInMemory())
	require.NoError(t, err)

	svc, err := New(auctionstore.NewInMemory(), registry, treasury,
		WithAuditPublisher(auditor))
	require.NoError(t, err)

	return &fixture{svc: svc, registry: registry, treasury: treasury, events: events}
}

func (f *fixture) mint(t *testing.T, holder id.AccountID) id.AssetID {
	t.Helper()
	asset, err := f.registry.Mint(context.Background(), holder, registrymodels.Attributes{Seed: "test"})
	require.NoError(t, err)
	return asset.ID
}

func at(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), startTime.Add(offset))
}

func TestStart(t *testing.T) {
	t.Run("holder starts an auction and the asset moves to escrow", func(t *testing.T) {
		f := newFixture(t)
		assetID := f.mint(t, seller)

		auction, err := f.svc.Start(at(0), assetID, seller, time.Hour)

		require.NoError(t, err)
		assert.Equal(t, startTime.Add(time.Hour), auction.EndsAt)
		assert.Zero(t, auction.HighestBid)

		holder, err := f.registry.HolderOf(at(0), assetID)
		require.NoError(t, err)
		assert.Equal(t, id.Escrow, holder)
	})

	t.Run("non-holder cannot start", func(t *testing.T) {
		f := newFixture(t)
		assetID := f.mint(t, seller)

		_, err := f.svc.Start(at(0), assetID, bidder, time.Hour)

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePrecondition))
	})

	t.Run("non-positive duration is rejected", func(t *testing.T) {
		f := newFixture(t)
		assetID := f.mint(t, seller)

		_, err := f.svc.Start(at(0), assetID, seller, 0)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValue))

		_, err = f.svc.Start(at(0), assetID, seller, -time.Minute)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValue))
	})

	t.Run("one auction per asset at a time", func(t *testing.T) {
		f := newFixture(t)
		assetID := f.mint(t, seller)
		_, err := f.svc.Start(at(0), assetID, seller, time.Hour)
		require.NoError(t, err)

		// The asset sits in escrow, so the seller is no longer the holder.
		_, err = f.svc.Start(at(0), assetID, seller, time.Hour)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePrecondition))
	})

	t.Run("finalized auction allows a new one", func(t *testing.T) {
		f := newFixture(t)
		assetID := f.mint(t, seller)
		_, err := f.svc.Start(at(0), assetID, seller, time.Hour)
		require.NoError(t, err)
		require.NoError(t, f.svc.Finalize(at(2*time.Hour), assetID, seller))

		_, err = f.svc.Start(at(3*time.Hour), assetID, seller, time.Hour)
		require.NoError(t, err)
	})
}

func TestBid(t *testing.T) {
	setup := func(t *testing.T) (*fixture, id.AssetID) {
		f := newFixture(t)
		assetID := f.mint(t, seller)
		_, err := f.svc.Start(at(0), assetID, seller, time.Hour)
		require.NoError(t, err)
		return f, assetID
	}

	t.Run("first bid must exceed zero", func(t *testing.T) {
		f, assetID := setup(t)

		err := f.svc.Bid(at(time.Minute), assetID, bidder, 0)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValue))

		require.NoError(t, f.svc.Bid(at(time.Minute), assetID, bidder, 1))
	})

	t.Run("each bid must strictly beat the standing one", func(t *testing.T) {
		f, assetID := setup(t)
		require.NoError(t, f.svc.Bid(at(time.Minute), assetID, bidder, 100))

		err := f.svc.Bid(at(2*time.Minute), assetID, rival, 100)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValue))

		require.NoError(t, f.svc.Bid(at(2*time.Minute), assetID, rival, 101))
	})

	t.Run("outbid bidder accumulates a refund", func(t *testing.T) {
		f, assetID := setup(t)
		require.NoError(t, f.svc.Bid(at(time.Minute), assetID, bidder, 100))
		require.NoError(t, f.svc.Bid(at(2*time.Minute), assetID, rival, 150))

		owed, err := f.svc.RefundBalance(at(2*time.Minute), assetID, bidder)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), owed)
	})

	t.Run("refunds accumulate across repeated outbids", func(t *testing.T) {
		f, assetID := setup(t)
		require.NoError(t, f.svc.Bid(at(time.Minute), assetID, bidder, 100))
		require.NoError(t, f.svc.Bid(at(2*time.Minute), assetID, rival, 150))
		require.NoError(t, f.svc.Bid(at(3*time.Minute), assetID, bidder, 200))
		require.NoError(t, f.svc.Bid(at(4*time.Minute), assetID, rival, 250))

		owed, err := f.svc.RefundBalance(at(4*time.Minute), assetID, bidder)
		require.NoError(t, err)
		assert.Equal(t, uint64(300), owed)

		owed, err = f.svc.RefundBalance(at(4*time.Minute), assetID, rival)
		require.NoError(t, err)
		assert.Equal(t, uint64(150), owed)
	})

	t.Run("bid at or after the deadline is rejected", func(t *testing.T) {
		f, assetID := setup(t)

		err := f.svc.Bid(at(time.Hour), assetID, bidder, 100)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeState))

		err = f.svc.Bid(at(2*time.Hour), assetID, bidder, 100)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeState))
	})

	t.Run("bid without an auction is rejected", func(t *testing.T) {
		f := newFixture(t)
		assetID := f.mint(t, seller)

		err := f.svc.Bid(at(0), assetID, bidder, 100)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeState))
	})

	t.Run("concurrent bids keep the standing bid strictly increasing", func(t *testing.T) {
		f, assetID := setup(t)

		var wg sync.WaitGroup
		for i := uint64(1); i <= 50; i++ {
			wg.Add(1)
			go func(amount uint64) {
				defer wg.Done()
				// Losers fail the strictly-greater check; that's expected.
				_ = f.svc.Bid(at(time.Minute), assetID, bidder, amount)
			}(i)
		}
		wg.Wait()

		auction, err := f.svc.AuctionOf(at(time.Minute), assetID)
		require.NoError(t, err)
		assert.Equal(t, uint64(50), auction.HighestBid)
	})
}

func TestFinalize(t *testing.T) {
	setup := func(t *testing.T) (*fixture, id.AssetID) {
		f := newFixture(t)
		assetID := f.mint(t, seller)
		_, err := f.svc.Start(at(0), assetID, seller, time.Hour)
		require.NoError(t, err)
		return f, assetID
	}

	t.Run("winner takes the asset and the seller is paid", func(t *testing.T) {
		f, assetID := setup(t)
		require.NoError(t, f.svc.Bid(at(time.Minute), assetID, bidder, 300))

		require.NoError(t, f.svc.Finalize(at(2*time.Hour), assetID, seller))

		holder, err := f.registry.HolderOf(at(2*time.Hour), assetID)
		require.NoError(t, err)
		assert.Equal(t, bidder, holder)

		balance, err := f.treasury.BalanceOf(at(2*time.Hour), seller)
		require.NoError(t, err)
		assert.Equal(t, uint64(300), balance)
	})

	t.Run("no bids returns the asset to the seller", func(t *testing.T) {
		f, assetID := setup(t)

		require.NoError(t, f.svc.Finalize(at(2*time.Hour), assetID, seller))

		holder, err := f.registry.HolderOf(at(2*time.Hour), assetID)
		require.NoError(t, err)
		assert.Equal(t, seller, holder)

		balance, err := f.treasury.BalanceOf(at(2*time.Hour), seller)
		require.NoError(t, err)
		assert.Zero(t, balance)
	})

	t.Run("cannot finalize before the deadline", func(t *testing.T) {
		f, assetID := setup(t)

		err := f.svc.Finalize(at(30*time.Minute), assetID, seller)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeState))
	})

	t.Run("finalization is exactly once", func(t *testing.T) {
		f, assetID := setup(t)
		require.NoError(t, f.svc.Bid(at(time.Minute), assetID, bidder, 300))
		require.NoError(t, f.svc.Finalize(at(2*time.Hour), assetID, seller))

		err := f.svc.Finalize(at(2*time.Hour), assetID, seller)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeState))

		balance, err := f.treasury.BalanceOf(at(2*time.Hour), seller)
		require.NoError(t, err)
		assert.Equal(t, uint64(300), balance, "seller is paid exactly once")
	})

	t.Run("winning bidder may finalize", func(t *testing.T) {
		f, assetID := setup(t)
		require.NoError(t, f.svc.Bid(at(time.Minute), assetID, bidder, 300))

		require.NoError(t, f.svc.Finalize(at(2*time.Hour), assetID, bidder))
	})

	t.Run("operator may finalize on anyone's behalf", func(t *testing.T) {
		f, assetID := setup(t)

		ctx := requestcontext.WithOperator(at(2 * time.Hour))
		require.NoError(t, f.svc.Finalize(ctx, assetID, "ops"))
	})

	t.Run("uninvolved caller cannot finalize", func(t *testing.T) {
		f, assetID := setup(t)
		require.NoError(t, f.svc.Bid(at(time.Minute), assetID, bidder, 300))

		err := f.svc.Finalize(at(2*time.Hour), assetID, rival)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePrecondition))
	})

	t.Run("concurrent finalizers settle exactly once", func(t *testing.T) {
		f, assetID := setup(t)
		require.NoError(t, f.svc.Bid(at(time.Minute), assetID, bidder, 300))

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := f.svc.Finalize(at(2*time.Hour), assetID, seller); err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)

		balance, err := f.treasury.BalanceOf(at(2*time.Hour), seller)
		require.NoError(t, err)
		assert.Equal(t, uint64(300), balance)
	})
}

func TestWithdrawRefund(t *testing.T) {
	setup := func(t *testing.T) (*fixture, id.AssetID) {
		f := newFixture(t)
		assetID := f.mint(t, seller)
		_, err := f.svc.Start(at(0), assetID, seller, time.Hour)
		require.NoError(t, err)
		require.NoError(t, f.svc.Bid(at(time.Minute), assetID, bidder, 100))
		require.NoError(t, f.svc.Bid(at(2*time.Minute), assetID, rival, 150))
		return f, assetID
	}

	t.Run("outbid bidder withdraws their refund once", func(t *testing.T) {
		f, assetID := setup(t)

		owed, err := f.svc.WithdrawRefund(at(3*time.Minute), assetID, bidder)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), owed)

		balance, err := f.treasury.BalanceOf(at(3*time.Minute), bidder)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), balance)
	})

	t.Run("second withdrawal finds nothing", func(t *testing.T) {
		f, assetID := setup(t)
		_, err := f.svc.WithdrawRefund(at(3*time.Minute), assetID, bidder)
		require.NoError(t, err)

		_, err = f.svc.WithdrawRefund(at(3*time.Minute), assetID, bidder)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeState))

		balance, err := f.treasury.BalanceOf(at(3*time.Minute), bidder)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), balance, "balance must not double")
	})

	t.Run("withdrawal with no refund fails", func(t *testing.T) {
		f, assetID := setup(t)

		_, err := f.svc.WithdrawRefund(at(3*time.Minute), assetID, rival)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeState))
	})

	t.Run("refund on one asset cannot be withdrawn through another", func(t *testing.T) {
		f, _ := setup(t)
		otherID := f.mint(t, seller)
		_, err := f.svc.Start(at(0), otherID, seller, time.Hour)
		require.NoError(t, err)

		_, err = f.svc.WithdrawRefund(at(3*time.Minute), otherID, bidder)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeState))

		balance, err := f.treasury.BalanceOf(at(3*time.Minute), bidder)
		require.NoError(t, err)
		assert.Zero(t, balance, "no payout may cross auctions")
	})

	t.Run("refunds on different assets are tracked independently", func(t *testing.T) {
		f, assetID := setup(t)
		otherID := f.mint(t, seller)
		_, err := f.svc.Start(at(0), otherID, seller, time.Hour)
		require.NoError(t, err)
		require.NoError(t, f.svc.Bid(at(time.Minute), otherID, bidder, 40))
		require.NoError(t, f.svc.Bid(at(2*time.Minute), otherID, rival, 60))

		owed, err := f.svc.WithdrawRefund(at(3*time.Minute), assetID, bidder)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), owed)

		owed, err = f.svc.WithdrawRefund(at(3*time.Minute), otherID, bidder)
		require.NoError(t, err)
		assert.Equal(t, uint64(40), owed)
	})

	t.Run("concurrent withdrawals pay exactly once", func(t *testing.T) {
		f, assetID := setup(t)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = f.svc.WithdrawRefund(at(3*time.Minute), assetID, bidder)
			}()
		}
		wg.Wait()

		balance, err := f.treasury.BalanceOf(at(3*time.Minute), bidder)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), balance)
	})

	t.Run("refund survives finalization", func(t *testing.T) {
		f, assetID := setup(t)
		require.NoError(t, f.svc.Finalize(at(2*time.Hour), assetID, seller))

		owed, err := f.svc.WithdrawRefund(at(3*time.Hour), assetID, bidder)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), owed)
	})
}

func TestAuctionAuditTrail(t *testing.T) {
	f := newFixture(t)
	assetID := f.mint(t, seller)

	_, err := f.svc.Start(at(0), assetID, seller, time.Hour)
	require.NoError(t, err)
	require.NoError(t, f.svc.Bid(at(time.Minute), assetID, bidder, 100))
	require.NoError(t, f.svc.Finalize(at(2*time.Hour), assetID, seller))

	events, err := f.events.ListByAsset(context.Background(), assetID)
	require.NoError(t, err)

	var actions []string
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, string(audit.EventAuctionStarted))
	assert.Contains(t, actions, string(audit.EventBidPlaced))
	assert.Contains(t, actions, string(audit.EventAuctionFinalized))
}
