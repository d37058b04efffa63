package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"curio/internal/mint/models"
	id "curio/pkg/domain"
	"curio/pkg/platform/sentinel"
	txcontext "curio/pkg/platform/tx"
)

// PostgresStore persists pending creation requests and minting parameters.
// The parameters live in a single-row table seeded at deploy time.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) CreateRequest(ctx context.Context, req *models.PendingRequest) error {
	const q = `
		INSERT INTO mint_requests (token, payer, payment, fulfilled, created_at)
		VALUES ($1, $2, $3, FALSE, $4)`
	if _, err := s.execer(ctx).ExecContext(ctx, q,
		uuid.UUID(req.Token), req.Payer.String(), req.Payment, req.CreatedAt,
	); err != nil {
		return fmt.Errorf("create mint request: %w", err)
	}
	return nil
}

func (s *PostgresStore) ConsumeRequest(ctx context.Context, token id.RequestToken) (*models.PendingRequest, error) {
	// The WHERE NOT fulfilled guard makes the consume atomic: a concurrent
	// consumer updates zero rows and is told the request is already used.
	const q = `
		UPDATE mint_requests
		SET fulfilled = TRUE
		WHERE token = $1 AND NOT fulfilled
		RETURNING payer, payment, created_at`

	req := &models.PendingRequest{Token: token, Fulfilled: true}
	var payer string
	err := s.execer(ctx).QueryRowContext(ctx, q, uuid.UUID(token)).Scan(&payer, &req.Payment, &req.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if checkErr := s.execer(ctx).QueryRowContext(ctx,
			`SELECT TRUE FROM mint_requests WHERE token = $1`, uuid.UUID(token),
		).Scan(&exists); checkErr == nil {
			return nil, sentinel.ErrConsumed
		}
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consume mint request: %w", err)
	}
	req.Payer = id.AccountID(payer)
	return req, nil
}

func (s *PostgresStore) ListPending(ctx context.Context, limit int) ([]*models.PendingRequest, error) {
	q := `
		SELECT token, payer, payment, created_at
		FROM mint_requests
		WHERE NOT fulfilled
		ORDER BY created_at ASC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.execer(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	var pending []*models.PendingRequest
	for rows.Next() {
		var (
			req   models.PendingRequest
			token uuid.UUID
			payer string
		)
		if err := rows.Scan(&token, &payer, &req.Payment, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending request: %w", err)
		}
		req.Token = id.RequestToken(token)
		req.Payer = id.AccountID(payer)
		pending = append(pending, &req)
	}
	return pending, rows.Err()
}

func (s *PostgresStore) CountPending(ctx context.Context) (uint64, error) {
	var count uint64
	if err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mint_requests WHERE NOT fulfilled`,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending requests: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Params(ctx context.Context) (models.Params, error) {
	var params models.Params
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT minting_cost, max_supply FROM mint_params WHERE singleton = TRUE`,
	).Scan(&params.MintingCost, &params.MaxSupply)
	if err != nil {
		return models.Params{}, fmt.Errorf("get mint params: %w", err)
	}
	return params, nil
}

func (s *PostgresStore) SetParams(ctx context.Context, params models.Params) error {
	const q = `
		INSERT INTO mint_params (singleton, minting_cost, max_supply)
		VALUES (TRUE, $1, $2)
		ON CONFLICT (singleton) DO UPDATE
		SET minting_cost = EXCLUDED.minting_cost, max_supply = EXCLUDED.max_supply`
	if _, err := s.execer(ctx).ExecContext(ctx, q, params.MintingCost, params.MaxSupply); err != nil {
		return fmt.Errorf("set mint params: %w", err)
	}
	return nil
}
