package httptransport

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	auctionservice "curio/internal/auction/service"
	auctionstore "curio/internal/auction/store"
	mintmodels "curio/internal/mint/models"
	mintservice "curio/internal/mint/service"
	mintstore "curio/internal/mint/store"
	registryservice "curio/internal/registry/service"
	registrystore "curio/internal/registry/store"
	saleservice "curio/internal/sale/service"
	salestore "curio/internal/sale/store"
	treasuryservice "curio/internal/treasury/service"
	treasurystore "curio/internal/treasury/store"
	id "curio/pkg/domain"
	"curio/pkg/platform/locks"
	"curio/pkg/testutil"
)

// handlerFixture mounts the handlers on a bare router so tests can inject
// callers straight into the request context, bypassing the token middleware.
type handlerFixture struct {
	router chi.Router
	minter *mintservice.Service
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	assetLocks := locks.NewKeyed()
	listings := salestore.NewInMemory()

	registry, err := registryservice.New(registrystore.NewInMemory(), assetLocks,
		registryservice.WithDelister(listings))
	require.NoError(t, err)

	treasury, err := treasuryservice.New(treasurystore.NewInMemory())
	require.NoError(t, err)

	minter, err := mintservice.New(
		mintstore.NewInMemory(mintmodels.Params{MintingCost: 100, MaxSupply: 50}),
		registry, treasury, assetLocks)
	require.NoError(t, err)

	market, err := saleservice.New(listings, registry, treasury)
	require.NoError(t, err)

	auctioneer, err := auctionservice.New(auctionstore.NewInMemory(), registry, treasury)
	require.NoError(t, err)

	h := NewHandler(minter, registry, market, auctioneer, treasury, nil, nil)

	r := chi.NewRouter()
	r.Get("/assets/{id}", h.handleGetAsset)
	r.Post("/mint/requests", h.handleMintRequest)
	r.Post("/assets/{id}/listing", h.handleList)
	r.Delete("/assets/{id}/listing", h.handleDelist)
	r.Get("/treasury/balance", h.handleTreasuryBalance)
	r.Put("/admin/minting-cost", h.handleSetMintingCost)

	return &handlerFixture{router: r, minter: minter}
}

func (f *handlerFixture) mint(t *testing.T, holder id.AccountID) id.AssetID {
	t.Helper()
	ctx := context.Background()
	token, err := f.minter.RequestCreation(ctx, holder, 100)
	require.NoError(t, err)
	asset, err := f.minter.Fulfill(ctx, token, 1)
	require.NoError(t, err)
	return asset.ID
}

func TestListingHandlers(t *testing.T) {
	testutil.Given(t, "a minted asset held by alice", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.mint(t, "alice")

		testutil.When(t, "alice lists it", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/assets/1/listing", listBody{Price: 500})
			rr := testutil.DoRequest(f.router, testutil.WithCaller(req, "alice"))

			testutil.Then(t, "the listing is created", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusCreated)
			})
		})

		testutil.When(t, "bob tries to delist it", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodDelete, "/assets/1/listing")
			rr := testutil.DoRequest(f.router, testutil.WithCaller(req, "bob"))

			testutil.Then(t, "the request is rejected", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "precondition_violation")
			})
		})

		testutil.When(t, "the asset is fetched", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodGet, "/assets/1")
			rr := testutil.DoRequest(f.router, req)

			testutil.Then(t, "the view includes holder and listing", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				testutil.AssertJSONContains(t, rr, "holder", "alice")
				testutil.AssertJSONHasKey(t, rr, "listing")
			})
		})
	})
}

func TestMintRequestHandler(t *testing.T) {
	testutil.Given(t, "a registry with a minting cost of 100", func(t *testing.T) {
		f := newHandlerFixture(t)

		testutil.When(t, "alice underpays", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/mint/requests", mintRequestBody{Payment: 40})
			rr := testutil.DoRequest(f.router, testutil.WithCaller(req, "alice"))

			testutil.Then(t, "the request is rejected", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "value_violation")
			})
		})

		testutil.When(t, "alice overpays", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/mint/requests", mintRequestBody{Payment: 150})
			rr := testutil.DoRequest(f.router, testutil.WithCaller(req, "alice"))

			testutil.Then(t, "a creation token is issued", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusAccepted)
				testutil.AssertJSONHasKey(t, rr, "token")
			})

			testutil.Then(t, "the change lands on her balance", func(t *testing.T) {
				balanceReq := testutil.NewRequest(t, http.MethodGet, "/treasury/balance")
				balanceRR := testutil.DoRequest(f.router, testutil.WithCaller(balanceReq, "alice"))
				testutil.AssertStatusOK(t, balanceRR)
				testutil.AssertJSONContains(t, balanceRR, "balance", float64(50))
			})
		})
	})
}

func TestAdminHandlerRequiresOperator(t *testing.T) {
	f := newHandlerFixture(t)

	req := testutil.NewJSONRequest(t, http.MethodPut, "/admin/minting-cost", mintingCostBody{Cost: 250})
	rr := testutil.DoRequest(f.router, testutil.WithCaller(req, "alice"))
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "precondition_violation")

	req = testutil.NewJSONRequest(t, http.MethodPut, "/admin/minting-cost", mintingCostBody{Cost: 250})
	rr = testutil.DoRequest(f.router, testutil.WithOperator(req))
	testutil.AssertStatus(t, rr, http.StatusNoContent)
}
