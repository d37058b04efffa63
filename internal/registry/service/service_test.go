package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curio/internal/registry/models"
	registrystore "curio/internal/registry/store"
	id "curio/pkg/domain"
	dErrors "curio/pkg/domain-errors"
	audit "curio/pkg/platform/audit"
	auditmemory "curio/pkg/platform/audit/store/memory"
	"curio/pkg/platform/audit/publisher"
	"curio/pkg/platform/locks"
)

const (
	alice = id.AccountID("alice")
	bob   = id.AccountID("bob")
)

func newService(t *testing.T, opts ...Option) (*Service, *auditmemory.InMemoryStore) {
	t.Helper()

	events := auditmemory.NewInMemoryStore()
	opts = append(opts, WithAuditPublisher(publisher.NewPublisher(events)))
	svc, err := New(registrystore.NewInMemory(), locks.NewKeyed(), opts...)
	require.NoError(t, err)
	return svc, events
}

func TestMint(t *testing.T) {
	t.Run("identifiers are sequential from one", func(t *testing.T) {
		svc, _ := newService(t)
		ctx := context.Background()

		for want := uint64(1); want <= 3; want++ {
			asset, err := svc.Mint(ctx, alice, models.Attributes{Seed: "s"})
			require.NoError(t, err)
			assert.Equal(t, id.AssetID(want), asset.ID)
		}

		minted, err := svc.TotalMinted(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), minted)
	})

	t.Run("zero holder is rejected", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.Mint(context.Background(), id.Nobody, models.Attributes{})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValue))
	})

	t.Run("attributes are immutable through reads", func(t *testing.T) {
		svc, _ := newService(t)
		ctx := context.Background()

		asset, err := svc.Mint(ctx, alice, models.Attributes{Seed: "abc", Edition: 3})
		require.NoError(t, err)

		got, err := svc.Get(ctx, asset.ID)
		require.NoError(t, err)
		got.Attributes.Seed = "mutated"

		again, err := svc.Get(ctx, asset.ID)
		require.NoError(t, err)
		assert.Equal(t, "abc", again.Attributes.Seed)
	})
}

func TestOwnerTransfer(t *testing.T) {
	t.Run("holder moves their asset", func(t *testing.T) {
		svc, events := newService(t)
		ctx := context.Background()
		asset, err := svc.Mint(ctx, alice, models.Attributes{})
		require.NoError(t, err)

		require.NoError(t, svc.OwnerTransfer(ctx, asset.ID, alice, bob))

		holder, err := svc.HolderOf(ctx, asset.ID)
		require.NoError(t, err)
		assert.Equal(t, bob, holder)

		recorded, err := events.ListByAsset(ctx, asset.ID)
		require.NoError(t, err)
		require.Len(t, recorded, 1)
		assert.Equal(t, string(audit.EventAssetTransferred), recorded[0].Action)
	})

	t.Run("non-holder cannot move the asset", func(t *testing.T) {
		svc, _ := newService(t)
		ctx := context.Background()
		asset, err := svc.Mint(ctx, alice, models.Attributes{})
		require.NoError(t, err)

		err = svc.OwnerTransfer(ctx, asset.ID, bob, bob)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePrecondition))

		holder, err := svc.HolderOf(ctx, asset.ID)
		require.NoError(t, err)
		assert.Equal(t, alice, holder)
	})

	t.Run("zero target is rejected", func(t *testing.T) {
		svc, _ := newService(t)
		ctx := context.Background()
		asset, err := svc.Mint(ctx, alice, models.Attributes{})
		require.NoError(t, err)

		err = svc.OwnerTransfer(ctx, asset.ID, alice, id.Nobody)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValue))
	})

	t.Run("unminted asset is not found", func(t *testing.T) {
		svc, _ := newService(t)

		err := svc.OwnerTransfer(context.Background(), id.AssetID(7), alice, bob)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("concurrent transfers of one asset keep a single holder", func(t *testing.T) {
		svc, _ := newService(t)
		ctx := context.Background()
		asset, err := svc.Mint(ctx, alice, models.Attributes{})
		require.NoError(t, err)

		targets := []id.AccountID{"t1", "t2", "t3", "t4", "t5"}
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded []id.AccountID
		)
		for _, target := range targets {
			wg.Add(1)
			go func(target id.AccountID) {
				defer wg.Done()
				if err := svc.OwnerTransfer(ctx, asset.ID, alice, target); err == nil {
					mu.Lock()
					succeeded = append(succeeded, target)
					mu.Unlock()
				}
			}(target)
		}
		wg.Wait()

		require.Len(t, succeeded, 1, "only the first transfer away from alice can win")

		holder, err := svc.HolderOf(ctx, asset.ID)
		require.NoError(t, err)
		assert.Equal(t, succeeded[0], holder)
	})
}

func TestHolderOf(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.HolderOf(context.Background(), id.AssetID(1))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
