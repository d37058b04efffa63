// Package service exposes the treasury: the ledger of amounts the registry
// owes back to accounts. Other components credit it as the last step of
// their operations; callers read their balance through it.
package service

import (
	"context"
	"fmt"
	"log/slog"

	id "curio/pkg/domain"
	dErrors "curio/pkg/domain-errors"
)

type Store interface {
	Credit(ctx context.Context, account id.AccountID, amount uint64, reason string) (uint64, error)
	BalanceOf(ctx context.Context, account id.AccountID) (uint64, error)
}

type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("treasury store is required")
	}
	svc := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Credit records an amount owed to the account. Zero-amount credits are
// dropped silently so call sites don't need to special-case free operations.
func (s *Service) Credit(ctx context.Context, account id.AccountID, amount uint64, reason string) error {
	if amount == 0 {
		return nil
	}
	if account.IsZero() {
		return dErrors.New(dErrors.CodeValue, "cannot credit the zero identity")
	}
	balance, err := s.store.Credit(ctx, account, amount, reason)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit account")
	}
	s.logger.InfoContext(ctx, "account credited",
		"account", account,
		"amount", amount,
		"reason", reason,
		"balance", balance,
	)
	return nil
}

// BalanceOf returns the account's withdrawable balance.
func (s *Service) BalanceOf(ctx context.Context, account id.AccountID) (uint64, error) {
	balance, err := s.store.BalanceOf(ctx, account)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
	}
	return balance, nil
}
