package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"curio/internal/registry/models"
	id "curio/pkg/domain"
	"curio/pkg/platform/sentinel"
	txcontext "curio/pkg/platform/tx"
	"curio/pkg/requestcontext"
)

// PostgresStore persists the asset table in PostgreSQL. Sequential asset
// identifiers come from the table's identity column, so concurrent mints
// never collide.
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

func (s *PostgresStore) Create(ctx context.Context, holder id.AccountID, attrs models.Attributes) (*models.Asset, error) {
	const q = `
		INSERT INTO assets (holder, seed, edition, hue, luminous, minted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	mintedAt := requestcontext.Now(ctx)

	var assetID uint64
	err := s.execer(ctx).QueryRowContext(ctx, q,
		holder.String(), attrs.Seed, attrs.Edition, attrs.Hue, attrs.Luminous, mintedAt,
	).Scan(&assetID)
	if err != nil {
		return nil, fmt.Errorf("create asset: %w", err)
	}

	return &models.Asset{
		ID:         id.AssetID(assetID),
		Holder:     holder,
		Attributes: attrs,
		MintedAt:   mintedAt,
	}, nil
}

func (s *PostgresStore) Get(ctx context.Context, assetID id.AssetID) (*models.Asset, error) {
	const q = `
		SELECT holder, seed, edition, hue, luminous, minted_at
		FROM assets
		WHERE id = $1`

	var (
		asset  models.Asset
		holder string
	)
	err := s.execer(ctx).QueryRowContext(ctx, q, uint64(assetID)).Scan(
		&holder, &asset.Attributes.Seed, &asset.Attributes.Edition,
		&asset.Attributes.Hue, &asset.Attributes.Luminous, &asset.MintedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	asset.ID = assetID
	asset.Holder = id.AccountID(holder)
	return &asset, nil
}

func (s *PostgresStore) UpdateHolder(ctx context.Context, assetID id.AssetID, from, to id.AccountID) error {
	const q = `
		UPDATE assets SET holder = $1
		WHERE id = $2 AND holder = $3`
	res, err := s.execer(ctx).ExecContext(ctx, q, to.String(), uint64(assetID), from.String())
	if err != nil {
		return fmt.Errorf("update holder: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update holder: %w", err)
	}
	if affected == 0 {
		// Either the asset does not exist or the holder moved underneath us.
		if _, err := s.Get(ctx, assetID); errors.Is(err, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (uint64, error) {
	var count uint64
	if err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM assets`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count assets: %w", err)
	}
	return count, nil
}
