// Package service implements the timed auction engine. Starting an auction
// escrows the asset with the registry; bids must strictly beat the standing
// one; outbid bidders accumulate a refund they withdraw themselves; and
// finalization after the deadline settles the asset and the proceeds.
//
// The refund ledger follows the withdrawal pattern: the engine never pushes
// funds to an outbid bidder, it records what is owed on that asset's auction
// and lets the bidder pull it. The balance is zeroed before the treasury
// credit so a repeated withdrawal can never pay twice.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"curio/internal/auction/models"
	auctionstore "curio/internal/auction/store"
	"curio/internal/platform/metrics"
	id "curio/pkg/domain"
	dErrors "curio/pkg/domain-errors"
	audit "curio/pkg/platform/audit"
	"curio/pkg/platform/sentinel"
	tx "curio/pkg/platform/tx"
	"curio/pkg/requestcontext"
)

// Registry is the slice of the asset registry the auction engine uses.
type Registry interface {
	LockAsset(assetID id.AssetID) func()
	HolderOf(ctx context.Context, assetID id.AssetID) (id.AccountID, error)
	Transfer(ctx context.Context, assetID id.AssetID, from, to id.AccountID) error
}

// Treasury credits auction proceeds and withdrawn refunds.
type Treasury interface {
	Credit(ctx context.Context, account id.AccountID, amount uint64, reason string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store    auctionstore.Store
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

func New(store auctionstore.Store, registry Registry, treasury Treasury, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("auction store is required")
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

// Start opens a timed auction and escrows the asset with the registry. Only
// the current holder may start one, the duration must be positive, and an
// asset carries at most one unfinalized auction.
func (s *Service) Start(ctx context.Context, assetID id.AssetID, seller id.AccountID, duration time.Duration) (*models.Auction, error) {
	if duration <= 0 {
		return nil, dErrors.Newf(dErrors.CodeValue, "auction duration %s must be positive", duration)
	}

	unlock := s.registry.LockAsset(assetID)
	defer unlock()

	holder, err := s.registry.HolderOf(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if holder != seller {
		return nil, dErrors.Newf(dErrors.CodePrecondition, "%s is not the holder of asset %s", seller, assetID)
	}

	now := requestcontext.Now(ctx)
	auction := &models.Auction{
		AssetID:   assetID,
		Seller:    seller,
		StartedAt: now,
		EndsAt:    now.Add(duration),
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreateAuction(ctx, auction); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Newf(dErrors.CodeState, "asset %s already has a running auction", assetID)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create auction")
		}
		return s.registry.Transfer(ctx, assetID, seller, id.Escrow)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AuctionsStarted.Inc()
	}
	s.emit(ctx, audit.Event{
		Timestamp: now,
		Asset:     assetID,
		Actor:     seller,
		Action:    string(audit.EventAuctionStarted),
		RequestID: requestcontext.RequestID(ctx),
	})
	return auction, nil
}

// Bid places a new standing bid. The amount must strictly exceed the current
// highest bid, so the first bid needs at least one base unit. The previously
// standing bidder's escrowed amount moves to the refund ledger.
func (s *Service) Bid(ctx context.Context, assetID id.AssetID, bidder id.AccountID, amount uint64) error {
	if bidder.IsZero() {
		return dErrors.New(dErrors.CodePrecondition, "bidder identity is required")
	}

	unlock := s.registry.LockAsset(assetID)
	defer unlock()

	auction, err := s.store.Get(ctx, assetID)
	if err != nil {
		return translateLookup(err, assetID)
	}
	if auction.Finalized {
		return dErrors.Newf(dErrors.CodeState, "asset %s has no running auction", assetID)
	}
	now := requestcontext.Now(ctx)
	if !now.Before(auction.EndsAt) {
		return dErrors.Newf(dErrors.CodeState, "auction for asset %s has ended", assetID)
	}
	if amount <= auction.HighestBid {
		return dErrors.Newf(dErrors.CodeValue,
			"bid %d does not beat the standing bid %d on asset %s", amount, auction.HighestBid, assetID)
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateHighest(ctx, assetID, bidder, amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record bid")
		}
		if !auction.HighestBidder.IsZero() {
			if err := s.store.AddRefund(ctx, assetID, auction.HighestBidder, auction.HighestBid); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record refund")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.BidsTotal.Inc()
	}
	s.emit(ctx, audit.Event{
		Timestamp: now,
		Asset:     assetID,
		Actor:     bidder,
		Action:    string(audit.EventBidPlaced),
		Amount:    amount,
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// Finalize settles an ended auction exactly once. With a standing bid the
// asset leaves escrow for the winner and the seller is credited the winning
// amount; without one the asset returns to the seller. Only the seller, the
// winning bidder, or the registry operator may finalize. The finalized flag
// is flipped before any funds move.
func (s *Service) Finalize(ctx context.Context, assetID id.AssetID, caller id.AccountID) error {
	unlock := s.registry.LockAsset(assetID)
	defer unlock()

	auction, err := s.store.Get(ctx, assetID)
	if err != nil {
		return translateLookup(err, assetID)
	}
	if auction.Finalized {
		return dErrors.Newf(dErrors.CodeState, "auction for asset %s is already finalized", assetID)
	}
	now := requestcontext.Now(ctx)
	if now.Before(auction.EndsAt) {
		return dErrors.Newf(dErrors.CodeState, "auction for asset %s has not ended yet", assetID)
	}
	if caller != auction.Seller && caller != auction.HighestBidder && !requestcontext.IsOperator(ctx) {
		return dErrors.Newf(dErrors.CodePrecondition, "%s may not finalize the auction for asset %s", caller, assetID)
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.MarkFinalized(ctx, assetID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to finalize auction")
		}
		if auction.HighestBidder.IsZero() {
			return s.registry.Transfer(ctx, assetID, id.Escrow, auction.Seller)
		}
		if err := s.registry.Transfer(ctx, assetID, id.Escrow, auction.HighestBidder); err != nil {
			return err
		}
		return s.treasury.Credit(ctx, auction.Seller, auction.HighestBid, "auction proceeds")
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.AuctionsFinalized.Inc()
	}
	s.emit(ctx, audit.Event{
		Timestamp:    now,
		Asset:        assetID,
		Actor:        caller,
		Counterparty: auction.HighestBidder,
		Action:       string(audit.EventAuctionFinalized),
		Amount:       auction.HighestBid,
		RequestID:    requestcontext.RequestID(ctx),
	})
	return nil
}

// WithdrawRefund pays out the caller's accumulated outbid refunds on one
// asset's auction. The ledger balance is zeroed before the treasury credit,
// so a concurrent or repeated withdrawal finds nothing to take.
func (s *Service) WithdrawRefund(ctx context.Context, assetID id.AssetID, account id.AccountID) (uint64, error) {
	if account.IsZero() {
		return 0, dErrors.New(dErrors.CodePrecondition, "account identity is required")
	}

	var owed uint64
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		owed, err = s.store.TakeRefund(ctx, assetID, account)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to take refund")
		}
		if owed == 0 {
			return dErrors.Newf(dErrors.CodeState, "no refund available for %s on asset %s", account, assetID)
		}
		return s.treasury.Credit(ctx, account, owed, "auction refund")
	})
	if err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.RefundsWithdrawn.Inc()
	}
	s.emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Asset:     assetID,
		Actor:     account,
		Action:    string(audit.EventRefundWithdrawn),
		Amount:    owed,
		RequestID: requestcontext.RequestID(ctx),
	})
	return owed, nil
}

// AuctionOf returns the asset's current auction record.
func (s *Service) AuctionOf(ctx context.Context, assetID id.AssetID) (*models.Auction, error) {
	auction, err := s.store.Get(ctx, assetID)
	if err != nil {
		return nil, translateLookup(err, assetID)
	}
	return auction, nil
}

// RefundBalance reads the account's owed refunds on the asset's auction
// without withdrawing them.
func (s *Service) RefundBalance(ctx context.Context, assetID id.AssetID, account id.AccountID) (uint64, error) {
	owed, err := s.store.RefundBalance(ctx, assetID, account)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read refund balance")
	}
	return owed, nil
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
		return dErrors.Newf(dErrors.CodeState, "asset %s has no running auction", assetID)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load auction")
}
