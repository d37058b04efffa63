// Package httptransport is the thin HTTP layer over the registry services.
// Handlers decode input, resolve the caller from the request context, and
// delegate; no business rule lives here.
package httptransport

import (
	"context"
	"log/slog"
	"time"

	auctionmodels "curio/internal/auction/models"
	mintmodels "curio/internal/mint/models"
	"curio/internal/platform/metrics"
	registrymodels "curio/internal/registry/models"
	salemodels "curio/internal/sale/models"
	id "curio/pkg/domain"
)

// Minter is the minting unit surface the transport needs.
type Minter interface {
	RequestCreation(ctx context.Context, payer id.AccountID, payment uint64) (id.RequestToken, error)
	Fulfill(ctx context.Context, token id.RequestToken, word uint64) (*registrymodels.Asset, error)
	Params(ctx context.Context) (mintmodels.Params, error)
	SetMintingCost(ctx context.Context, cost uint64) error
	SetMaxSupply(ctx context.Context, maxSupply uint64) error
}

// Registry is the asset registry surface the transport needs.
type Registry interface {
	Get(ctx context.Context, assetID id.AssetID) (*registrymodels.Asset, error)
	OwnerTransfer(ctx context.Context, assetID id.AssetID, from, to id.AccountID) error
	TotalMinted(ctx context.Context) (uint64, error)
}

// Market is the fixed-price sale surface.
type Market interface {
	List(ctx context.Context, assetID id.AssetID, seller id.AccountID, price uint64) error
	Delist(ctx context.Context, assetID id.AssetID, seller id.AccountID) error
	Buy(ctx context.Context, assetID id.AssetID, buyer id.AccountID, payment uint64) error
	Quote(ctx context.Context, assetID id.AssetID) (*salemodels.Listing, error)
}

// Auctioneer is the auction engine surface.
type Auctioneer interface {
	Start(ctx context.Context, assetID id.AssetID, seller id.AccountID, duration time.Duration) (*auctionmodels.Auction, error)
	Bid(ctx context.Context, assetID id.AssetID, bidder id.AccountID, amount uint64) error
	Finalize(ctx context.Context, assetID id.AssetID, caller id.AccountID) error
	WithdrawRefund(ctx context.Context, assetID id.AssetID, account id.AccountID) (uint64, error)
	AuctionOf(ctx context.Context, assetID id.AssetID) (*auctionmodels.Auction, error)
}

// Treasury is the balance surface.
type Treasury interface {
	BalanceOf(ctx context.Context, account id.AccountID) (uint64, error)
}

type Handler struct {
	minter     Minter
	registry   Registry
	market     Market
	auctioneer Auctioneer
	treasury   Treasury
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewHandler(
	minter Minter,
	registry Registry,
	market Market,
	auctioneer Auctioneer,
	treasury Treasury,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		minter:     minter,
		registry:   registry,
		market:     market,
		auctioneer: auctioneer,
		treasury:   treasury,
		metrics:    m,
		logger:     logger,
	}
}
