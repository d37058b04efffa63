//go:build integration

package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auctionservice "curio/internal/auction/service"
	auctionstore "curio/internal/auction/store"
	mintmodels "curio/internal/mint/models"
	mintservice "curio/internal/mint/service"
	mintstore "curio/internal/mint/store"
	"curio/internal/platform/postgres"
	registryservice "curio/internal/registry/service"
	registrystore "curio/internal/registry/store"
	saleservice "curio/internal/sale/service"
	salestore "curio/internal/sale/store"
	treasuryservice "curio/internal/treasury/service"
	treasurystore "curio/internal/treasury/store"
	id "curio/pkg/domain"
	dErrors "curio/pkg/domain-errors"
	audit "curio/pkg/platform/audit"
	auditpublisher "curio/pkg/platform/audit/publisher"
	auditpostgres "curio/pkg/platform/audit/store/postgres"
	"curio/pkg/platform/locks"
	"curio/pkg/platform/tx"
	"curio/pkg/requestcontext"
	"curio/pkg/testutil/containers"
)

type env struct {
	registry   *registryservice.Service
	treasury   *treasuryservice.Service
	minter     *mintservice.Service
	market     *saleservice.Service
	auctioneer *auctionservice.Service
	audit      *auditpostgres.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()

	pc := containers.NewPostgresContainer(t)
	ctx := context.Background()
	require.NoError(t, postgres.Migrate(ctx, pc.DB))

	assetLocks := locks.NewKeyed()
	runner := tx.SQLRunner{DB: pc.DB}
	listings := salestore.NewPostgres(pc.DB)
	auditStore := auditpostgres.New(pc.DB)
	auditor := auditpublisher.NewPublisher(auditStore)

	registry, err := registryservice.New(registrystore.NewPostgres(pc.DB), assetLocks,
		registryservice.WithDelister(listings),
		registryservice.WithAuditPublisher(auditor))
	require.NoError(t, err)

	treasury, err := treasuryservice.New(treasurystore.NewPostgres(pc.DB))
	require.NoError(t, err)

	mintStore := mintstore.NewPostgres(pc.DB)
	require.NoError(t, mintStore.SetParams(ctx, mintmodels.Params{MintingCost: 100, MaxSupply: 10}))
	minter, err := mintservice.New(mintStore, registry, treasury, assetLocks,
		mintservice.WithRunner(runner),
		mintservice.WithAuditPublisher(auditor))
	require.NoError(t, err)

	market, err := saleservice.New(listings, registry, treasury,
		saleservice.WithRunner(runner),
		saleservice.WithAuditPublisher(auditor))
	require.NoError(t, err)

	auctioneer, err := auctionservice.New(auctionstore.NewPostgres(pc.DB), registry, treasury,
		auctionservice.WithRunner(runner),
		auctionservice.WithAuditPublisher(auditor))
	require.NoError(t, err)

	return &env{
		registry:   registry,
		treasury:   treasury,
		minter:     minter,
		market:     market,
		auctioneer: auctioneer,
		audit:      auditStore,
	}
}

func at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func TestPostgresLifecycles(t *testing.T) {
	e := newEnv(t)
	now := time.Now().UTC().Truncate(time.Millisecond)
	ctx := at(now)

	// Creation: request, fulfill, verify holder and proceeds.
	token, err := e.minter.RequestCreation(ctx, "alice", 120)
	require.NoError(t, err)

	asset, err := e.minter.Fulfill(ctx, token, 42)
	require.NoError(t, err)
	assert.Equal(t, id.AssetID(1), asset.ID)
	assert.Equal(t, id.AccountID("alice"), asset.Holder)

	_, err = e.minter.Fulfill(ctx, token, 42)
	require.Error(t, err, "token must be single-use")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeState))

	change, err := e.treasury.BalanceOf(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(20), change)

	escrowed, err := e.treasury.BalanceOf(ctx, id.Escrow)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), escrowed)

	// Fixed-price sale.
	require.NoError(t, e.market.List(ctx, asset.ID, "alice", 500))
	require.NoError(t, e.market.Buy(ctx, asset.ID, "bob", 500))

	holder, err := e.registry.HolderOf(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, id.AccountID("bob"), holder)

	aliceBalance, err := e.treasury.BalanceOf(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(520), aliceBalance)

	// Auction with an outbid refund.
	_, err = e.auctioneer.Start(ctx, asset.ID, "bob", time.Hour)
	require.NoError(t, err)
	require.NoError(t, e.auctioneer.Bid(ctx, asset.ID, "carol", 200))
	require.NoError(t, e.auctioneer.Bid(ctx, asset.ID, "dave", 300))

	later := at(now.Add(2 * time.Hour))
	require.NoError(t, e.auctioneer.Finalize(later, asset.ID, "bob"))

	holder, err = e.registry.HolderOf(later, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, id.AccountID("dave"), holder)

	owed, err := e.auctioneer.WithdrawRefund(later, asset.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, uint64(200), owed)

	_, err = e.auctioneer.WithdrawRefund(later, asset.ID, "carol")
	require.Error(t, err, "refund must pay exactly once")

	// The audit outbox recorded the whole history.
	events, err := e.audit.ListByAsset(context.Background(), asset.ID)
	require.NoError(t, err)

	var actions []string
	for _, ev := range events {
		actions = append(actions, ev.Action)
	}
	assert.Contains(t, actions, string(audit.EventAssetMinted))
	assert.Contains(t, actions, string(audit.EventAssetSold))
	assert.Contains(t, actions, string(audit.EventAuctionFinalized))
}

func TestPostgresSupplyCap(t *testing.T) {
	e := newEnv(t)
	ctx := at(time.Now().UTC())

	for i := 0; i < 10; i++ {
		_, err := e.minter.RequestCreation(ctx, "alice", 100)
		require.NoError(t, err)
	}

	_, err := e.minter.RequestCreation(ctx, "alice", 100)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeExhausted))
}
