// Package service implements the fixed-price sale ledger: listing an asset,
// withdrawing a listing, and the atomic pay-and-transfer purchase.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"curio/internal/platform/metrics"
	"curio/internal/sale/models"
	salestore "curio/internal/sale/store"
	id "curio/pkg/domain"
	dErrors "curio/pkg/domain-errors"
	audit "curio/pkg/platform/audit"
	"curio/pkg/platform/sentinel"
	tx "curio/pkg/platform/tx"
	"curio/pkg/requestcontext"
)

// Registry is the slice of the asset registry the sale ledger uses. Transfer
// is the lock-free primitive; the sale service holds the asset lock around it.
type Registry interface {
	LockAsset(assetID id.AssetID) func()
	HolderOf(ctx context.Context, assetID id.AssetID) (id.AccountID, error)
	Transfer(ctx context.Context, assetID id.AssetID, from, to id.AccountID) error
}

// Treasury credits sale proceeds and buyer change.
type Treasury interface {
	Credit(ctx context.Context, account id.AccountID, amount uint64, reason string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store    salestore.Store
	registry Registry
	treasury Treasury
	runner   tx.Runner
	auditor  AuditPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Service)

func WithRunner(runner tx.Runner) Option {
	return func(s *Service) { s.runner = runner }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store salestore.Store, registry Registry, treasury Treasury, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("sale store is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if treasury == nil {
		return nil, fmt.Errorf("treasury is required")
	}
	svc := &Service{
		store:    store,
		registry: registry,
		treasury: treasury,
		runner:   tx.NopRunner{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// List opens a fixed-price offer on the asset. Only the current holder may
// list, the price must be positive, and an asset carries at most one active
// listing.
func (s *Service) List(ctx context.Context, assetID id.AssetID, seller id.AccountID, price uint64) error {
	if price == 0 {
		return dErrors.Newf(dErrors.CodeValue, "listing price for asset %s must be greater than zero", assetID)
	}

	unlock := s.registry.LockAsset(assetID)
	defer unlock()

	holder, err := s.registry.HolderOf(ctx, assetID)
	if err != nil {
		return err
	}
	if holder != seller {
		return dErrors.Newf(dErrors.CodePrecondition, "%s is not the holder of asset %s", seller, assetID)
	}

	listing := &models.Listing{
		AssetID:  assetID,
		Seller:   seller,
		Price:    price,
		ListedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Put(ctx, listing); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Newf(dErrors.CodeState, "asset %s is already listed", assetID)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record listing")
	}

	s.emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Asset:     assetID,
		Actor:     seller,
		Action:    string(audit.EventAssetListed),
		Amount:    price,
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// Delist withdraws the seller's own listing without moving the asset.
func (s *Service) Delist(ctx context.Context, assetID id.AssetID, seller id.AccountID) error {
	unlock := s.registry.LockAsset(assetID)
	defer unlock()

	listing, err := s.store.Get(ctx, assetID)
	if err != nil {
		return translateLookup(err, assetID)
	}
	if listing.Seller != seller {
		return dErrors.Newf(dErrors.CodePrecondition, "%s did not list asset %s", seller, assetID)
	}

	if err := s.store.Clear(ctx, assetID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear listing")
	}

	s.emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Asset:     assetID,
		Actor:     seller,
		Action:    string(audit.EventAssetDelisted),
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// Buy performs the atomic purchase: the listing is torn down, the asset moves
// to the buyer, and only then do the seller's proceeds and the buyer's change
// become withdrawable. The payment must cover the listed price exactly or
// more; a listing changed since the buyer quoted it surfaces as a price
// mismatch, not a silent overcharge.
func (s *Service) Buy(ctx context.Context, assetID id.AssetID, buyer id.AccountID, payment uint64) error {
	if buyer.IsZero() {
		return dErrors.New(dErrors.CodePrecondition, "buyer identity is required")
	}

	unlock := s.registry.LockAsset(assetID)
	defer unlock()

	listing, err := s.store.Get(ctx, assetID)
	if err != nil {
		return translateLookup(err, assetID)
	}
	if buyer == listing.Seller {
		return dErrors.Newf(dErrors.CodePrecondition, "holder of asset %s cannot buy their own listing", assetID)
	}
	if payment < listing.Price {
		return dErrors.Newf(dErrors.CodeValue,
			"payment %d below listed price %d for asset %s", payment, listing.Price, assetID)
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		// Transfer clears the listing through the registry's delister before
		// flipping the holder; the credits are the final effects.
		if err := s.registry.Transfer(ctx, assetID, listing.Seller, buyer); err != nil {
			return err
		}
		if err := s.treasury.Credit(ctx, listing.Seller, listing.Price, "sale proceeds"); err != nil {
			return err
		}
		return s.treasury.Credit(ctx, buyer, payment-listing.Price, "purchase change")
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.SalesTotal.Inc()
	}
	s.emit(ctx, audit.Event{
		Timestamp:    requestcontext.Now(ctx),
		Asset:        assetID,
		Actor:        buyer,
		Counterparty: listing.Seller,
		Action:       string(audit.EventAssetSold),
		Amount:       listing.Price,
		RequestID:    requestcontext.RequestID(ctx),
	})
	return nil
}

// Quote returns the active listing for the asset.
func (s *Service) Quote(ctx context.Context, assetID id.AssetID) (*models.Listing, error) {
	listing, err := s.store.Get(ctx, assetID)
	if err != nil {
		return nil, translateLookup(err, assetID)
	}
	return listing, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", event.Action,
			"asset", event.Asset,
			"error", err,
		)
	}
}

func translateLookup(err error, assetID id.AssetID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeState, "asset %s is not listed for sale", assetID)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load listing")
}
