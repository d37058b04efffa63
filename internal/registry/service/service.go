// Package service implements the Asset Registry: the single authority over
// which account holds which asset. Every holder transition in the system goes
// through Transfer, whether initiated by an owner, the sale ledger, or the
// auction engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"curio/internal/platform/metrics"
	"curio/internal/registry/models"
	id "curio/pkg/domain"
	dErrors "curio/pkg/domain-errors"
	audit "curio/pkg/platform/audit"
	"curio/pkg/platform/locks"
	"curio/pkg/platform/sentinel"
	"curio/pkg/requestcontext"
)

// Store is the asset table contract the service depends on.
type Store interface {
	Create(ctx context.Context, holder id.AccountID, attrs models.Attributes) (*models.Asset, error)
	Get(ctx context.Context, assetID id.AssetID) (*models.Asset, error)
	UpdateHolder(ctx context.Context, assetID id.AssetID, from, to id.AccountID) error
	Count(ctx context.Context) (uint64, error)
}

// Delister clears an asset's active sale listing. The sale ledger owns
// listing records; this interface keeps the write on its side while letting
// the registry honor the rule that a transferred asset is no longer for sale
// under its old terms.
type Delister interface {
	Clear(ctx context.Context, assetID id.AssetID) error
}

// AuditPublisher records custody transitions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// ViewCache holds asset views close to the read path. Misses and cache
// faults fall through to the store; the cache is never authoritative.
type ViewCache interface {
	Get(ctx context.Context, assetID id.AssetID) (*models.Asset, error)
	Set(ctx context.Context, asset *models.Asset) error
	Invalidate(ctx context.Context, assetID id.AssetID) error
}

type Service struct {
	store    Store
	listings Delister
	cache    ViewCache
	locks    *locks.Keyed
	auditor  AuditPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Service)

func WithDelister(d Delister) Option {
	return func(s *Service) { s.listings = d }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithViewCache(c ViewCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs the registry service. The keyed lock set must be the one
// shared with the sale and auction services: it is what makes operations on
// the same asset totally ordered across components.
func New(store Store, assetLocks *locks.Keyed, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("registry store is required")
	}
	if assetLocks == nil {
		return nil, fmt.Errorf("asset lock set is required")
	}
	svc := &Service{
		store:  store,
		locks:  assetLocks,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// LockAsset acquires the per-asset mutex. Components that orchestrate
// multi-step operations (sale, auction) hold it for the whole operation and
// call the lock-free primitives underneath.
func (s *Service) LockAsset(assetID id.AssetID) func() {
	key := "asset:" + assetID.String()
	s.locks.Lock(key)
	return func() { s.locks.Unlock(key) }
}

// Mint creates a new asset under a sequential identifier and assigns its
// first holder. Called exclusively by the minting unit.
func (s *Service) Mint(ctx context.Context, holder id.AccountID, attrs models.Attributes) (*models.Asset, error) {
	if holder.IsZero() {
		return nil, dErrors.New(dErrors.CodeValue, "mint target cannot be the zero identity")
	}
	asset, err := s.store.Create(ctx, holder, attrs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint asset")
	}
	if s.metrics != nil {
		s.metrics.AssetsMintedTotal.Inc()
	}
	s.logger.InfoContext(ctx, "asset minted",
		"asset", asset.ID,
		"holder", holder,
		"request_id", requestcontext.RequestID(ctx),
	)
	return asset, nil
}

// Transfer moves an asset between holders and clears any active sale listing.
// It is the lock-free primitive: the caller must already hold the asset lock.
// Fails with a precondition violation if from is not the current holder and a
// value violation if to is the zero identity.
func (s *Service) Transfer(ctx context.Context, assetID id.AssetID, from, to id.AccountID) error {
	if to.IsZero() {
		return dErrors.Newf(dErrors.CodeValue, "invalid transfer target for asset %s", assetID)
	}

	asset, err := s.store.Get(ctx, assetID)
	if err != nil {
		return translateLookup(err, assetID)
	}
	if asset.Holder != from {
		return dErrors.Newf(dErrors.CodePrecondition, "%s is not the holder of asset %s", from, assetID)
	}

	// Bookkeeping order: listing teardown, then the holder flip. No payment
	// moves here, so either write failing leaves a consistent ledger.
	if s.listings != nil {
		if err := s.listings.Clear(ctx, assetID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear listing on transfer")
		}
	}
	if err := s.store.UpdateHolder(ctx, assetID, from, to); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update holder")
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, assetID); err != nil {
			s.logger.WarnContext(ctx, "cache invalidation failed", "asset", assetID, "error", err)
		}
	}
	return nil
}

// OwnerTransfer is the externally visible transfer operation: the caller
// moves their own asset to another account. It takes the asset lock and
// emits the custody record.
func (s *Service) OwnerTransfer(ctx context.Context, assetID id.AssetID, from, to id.AccountID) error {
	unlock := s.LockAsset(assetID)
	defer unlock()

	if err := s.Transfer(ctx, assetID, from, to); err != nil {
		return err
	}

	s.emit(ctx, audit.Event{
		Timestamp:    requestcontext.Now(ctx),
		Asset:        assetID,
		Actor:        from,
		Counterparty: to,
		Action:       string(audit.EventAssetTransferred),
		RequestID:    requestcontext.RequestID(ctx),
	})
	return nil
}

// HolderOf returns the current holder of the asset.
func (s *Service) HolderOf(ctx context.Context, assetID id.AssetID) (id.AccountID, error) {
	asset, err := s.store.Get(ctx, assetID)
	if err != nil {
		return id.Nobody, translateLookup(err, assetID)
	}
	return asset.Holder, nil
}

// Get returns the full asset record, serving from the view cache when it can.
func (s *Service) Get(ctx context.Context, assetID id.AssetID) (*models.Asset, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, assetID); err == nil && cached != nil {
			return cached, nil
		}
	}
	asset, err := s.store.Get(ctx, assetID)
	if err != nil {
		return nil, translateLookup(err, assetID)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, asset); err != nil {
			s.logger.WarnContext(ctx, "cache write failed", "asset", assetID, "error", err)
		}
	}
	return asset, nil
}

// TotalMinted returns the number of assets ever created.
func (s *Service) TotalMinted(ctx context.Context) (uint64, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count assets")
	}
	return count, nil
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
		return dErrors.Newf(dErrors.CodeNotFound, "asset %s was never minted", assetID)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load asset")
}
