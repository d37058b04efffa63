package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "curio/pkg/domain"
	txcontext "curio/pkg/platform/tx"
	"curio/pkg/requestcontext"
)

// PostgresStore persists balances and the payout journal in PostgreSQL.
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

func (s *PostgresStore) Credit(ctx context.Context, account id.AccountID, amount uint64, reason string) (uint64, error) {
	const upsert = `
		INSERT INTO balances (account, amount)
		VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET amount = balances.amount + EXCLUDED.amount
		RETURNING amount`
	var balance uint64
	if err := s.execer(ctx).QueryRowContext(ctx, upsert, account.String(), amount).Scan(&balance); err != nil {
		return 0, fmt.Errorf("credit balance: %w", err)
	}

	const journal = `
		INSERT INTO payout_journal (account, amount, reason, created_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := s.execer(ctx).ExecContext(ctx, journal,
		account.String(), amount, reason, requestcontext.Now(ctx),
	); err != nil {
		return 0, fmt.Errorf("journal credit: %w", err)
	}
	return balance, nil
}

func (s *PostgresStore) BalanceOf(ctx context.Context, account id.AccountID) (uint64, error) {
	const q = `SELECT amount FROM balances WHERE account = $1`
	var balance uint64
	err := s.execer(ctx).QueryRowContext(ctx, q, account.String()).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}
