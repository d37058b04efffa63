package store

import (
	"context"

	"curio/internal/auction/models"
	id "curio/pkg/domain"
)

// Store owns auction records and the refund ledger.
//
// One auction record exists per asset: creating a new one replaces a
// finalized predecessor and fails with sentinel.ErrConflict while an
// unfinalized one stands. Refund balances accumulate per asset and account;
// TakeRefund zeroes a balance exactly once even under concurrent
// withdrawals.
type Store interface {
	// CreateAuction records a new auction for the asset.
	CreateAuction(ctx context.Context, auction *models.Auction) error

	// Get returns the asset's current auction record, finalized or not.
	Get(ctx context.Context, assetID id.AssetID) (*models.Auction, error)

	// UpdateHighest replaces the standing bid.
	UpdateHighest(ctx context.Context, assetID id.AssetID, bidder id.AccountID, amount uint64) error

	// MarkFinalized flips the finalized flag.
	MarkFinalized(ctx context.Context, assetID id.AssetID) error

	// AddRefund accumulates an owed refund for the account on the asset's
	// auction.
	AddRefund(ctx context.Context, assetID id.AssetID, account id.AccountID, amount uint64) error

	// TakeRefund atomically zeroes and returns the account's refund balance
	// on the asset. Returns 0 when nothing is owed there.
	TakeRefund(ctx context.Context, assetID id.AssetID, account id.AccountID) (uint64, error)

	// RefundBalance reads the owed refund without clearing it.
	RefundBalance(ctx context.Context, assetID id.AssetID, account id.AccountID) (uint64, error)
}
