package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"curio/internal/sale/models"
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

func (s *PostgresStore) Put(ctx context.Context, listing *models.Listing) error {
	const q = `
		INSERT INTO listings (asset_id, seller, price, listed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (asset_id) DO NOTHING`

	res, err := s.execer(ctx).ExecContext(ctx, q,
		uint64(listing.AssetID), listing.Seller.String(), listing.Price, listing.ListedAt,
	)
	if err != nil {
		return fmt.Errorf("put listing: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("put listing: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, assetID id.AssetID) (*models.Listing, error) {
	const q = `
		SELECT seller, price, listed_at
		FROM listings
		WHERE asset_id = $1`

	listing := &models.Listing{AssetID: assetID}
	var seller string
	err := s.execer(ctx).QueryRowContext(ctx, q, uint64(assetID)).
		Scan(&seller, &listing.Price, &listing.ListedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	listing.Seller = id.AccountID(seller)
	return listing, nil
}

func (s *PostgresStore) Clear(ctx context.Context, assetID id.AssetID) error {
	if _, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM listings WHERE asset_id = $1`, uint64(assetID),
	); err != nil {
		return fmt.Errorf("clear listing: %w", err)
	}
	return nil
}
