package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"curio/internal/auction/models"
	id "curio/pkg/domain"
	"curio/pkg/platform/sentinel"
	txcontext "curio/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) CreateAuction(ctx context.Context, auction *models.Auction) error {
	// The conditional upsert lets a finalized record be replaced in place
	// while an unfinalized one blocks the insert.
	const q = `
		INSERT INTO auctions (asset_id, seller, started_at, ends_at, highest_bid, highest_bidder, finalized)
		VALUES ($1, $2, $3, $4, 0, '', FALSE)
		ON CONFLICT (asset_id) DO UPDATE
		SET seller = EXCLUDED.seller,
		    started_at = EXCLUDED.started_at,
		    ends_at = EXCLUDED.ends_at,
		    highest_bid = 0,
		    highest_bidder = '',
		    finalized = FALSE
		WHERE auctions.finalized`

	res, err := s.execer(ctx).ExecContext(ctx, q,
		uint64(auction.AssetID), auction.Seller.String(), auction.StartedAt, auction.EndsAt,
	)
	if err != nil {
		return fmt.Errorf("create auction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create auction: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, assetID id.AssetID) (*models.Auction, error) {
	const q = `
		SELECT seller, started_at, ends_at, highest_bid, highest_bidder, finalized
		FROM auctions
		WHERE asset_id = $1`

	auction := &models.Auction{AssetID: assetID}
	var seller, bidder string
	err := s.execer(ctx).QueryRowContext(ctx, q, uint64(assetID)).Scan(
		&seller, &auction.StartedAt, &auction.EndsAt,
		&auction.HighestBid, &bidder, &auction.Finalized,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get auction: %w", err)
	}
	auction.Seller = id.AccountID(seller)
	auction.HighestBidder = id.AccountID(bidder)
	return auction, nil
}

func (s *PostgresStore) UpdateHighest(ctx context.Context, assetID id.AssetID, bidder id.AccountID, amount uint64) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE auctions SET highest_bid = $2, highest_bidder = $3 WHERE asset_id = $1`,
		uint64(assetID), amount, bidder.String(),
	)
	if err != nil {
		return fmt.Errorf("update highest bid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update highest bid: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkFinalized(ctx context.Context, assetID id.AssetID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE auctions SET finalized = TRUE WHERE asset_id = $1`, uint64(assetID),
	)
	if err != nil {
		return fmt.Errorf("mark auction finalized: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark auction finalized: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AddRefund(ctx context.Context, assetID id.AssetID, account id.AccountID, amount uint64) error {
	const q = `
		INSERT INTO auction_refunds (asset_id, account, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (asset_id, account) DO UPDATE
		SET amount = auction_refunds.amount + EXCLUDED.amount`
	if _, err := s.execer(ctx).ExecContext(ctx, q, uint64(assetID), account.String(), amount); err != nil {
		return fmt.Errorf("add refund: %w", err)
	}
	return nil
}

func (s *PostgresStore) TakeRefund(ctx context.Context, assetID id.AssetID, account id.AccountID) (uint64, error) {
	// Deleting the row returns the owed amount and clears it in one statement,
	// so concurrent withdrawals see at most one nonzero result.
	var owed uint64
	err := s.execer(ctx).QueryRowContext(ctx,
		`DELETE FROM auction_refunds WHERE asset_id = $1 AND account = $2 RETURNING amount`,
		uint64(assetID), account.String(),
	).Scan(&owed)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("take refund: %w", err)
	}
	return owed, nil
}

func (s *PostgresStore) RefundBalance(ctx context.Context, assetID id.AssetID, account id.AccountID) (uint64, error) {
	var owed uint64
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT amount FROM auction_refunds WHERE asset_id = $1 AND account = $2`,
		uint64(assetID), account.String(),
	).Scan(&owed)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("refund balance: %w", err)
	}
	return owed, nil
}
