package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mintmodels "curio/internal/mint/models"
	mintservice "curio/internal/mint/service"
	mintstore "curio/internal/mint/store"
	registryservice "curio/internal/registry/service"
	registrystore "curio/internal/registry/store"
	treasuryservice "curio/internal/treasury/service"
	treasurystore "curio/internal/treasury/store"
	"curio/pkg/platform/locks"
)

func TestFulfillerSweep(t *testing.T) {
	assetLocks := locks.NewKeyed()
	registry, err := registryservice.New(registrystore.NewInMemory(), assetLocks)
	require.NoError(t, err)
	treasury, err := treasuryservice.New(treasurystore.NewInMemory())
	require.NoError(t, err)
	minter, err := mintservice.New(
		mintstore.NewInMemory(mintmodels.Params{MintingCost: 100, MaxSupply: 100}),
		registry, treasury, assetLocks)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := minter.RequestCreation(ctx, "alice", 100)
		require.NoError(t, err)
	}

	f := NewFulfiller(minter, time.Millisecond, nil)
	f.sweep(ctx)

	minted, err := registry.TotalMinted(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), minted)

	remaining, err := minter.ListPending(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestFulfillerStopsOnCancel(t *testing.T) {
	assetLocks := locks.NewKeyed()
	registry, err := registryservice.New(registrystore.NewInMemory(), assetLocks)
	require.NoError(t, err)
	treasury, err := treasuryservice.New(treasurystore.NewInMemory())
	require.NoError(t, err)
	minter, err := mintservice.New(
		mintstore.NewInMemory(mintmodels.Params{MintingCost: 100, MaxSupply: 100}),
		registry, treasury, assetLocks)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewFulfiller(minter, time.Millisecond, nil).Run(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("fulfiller did not stop on cancel")
	}
}
