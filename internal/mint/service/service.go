// Package service implements the Randomized Minting Unit: paid creation
// requests, oracle fulfillment, and the operator's supply controls.
//
// A request escrows the payment and waits for the external random value. The
// request token is single-use: fulfillment consumes it before the asset is
// minted, so a replayed fulfillment can never mint twice.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"curio/internal/mint/models"
	"curio/internal/platform/metrics"
	registrymodels "curio/internal/registry/models"
	id "curio/pkg/domain"
	dErrors "curio/pkg/domain-errors"
	audit "curio/pkg/platform/audit"
	"curio/pkg/platform/locks"
	"curio/pkg/platform/sentinel"
	tx "curio/pkg/platform/tx"
	"curio/pkg/requestcontext"
)

// mintLockKey serializes supply accounting across concurrent creation
// requests and fulfillments.
const mintLockKey = "mint:supply"

// Store is the pending-request and parameter storage contract.
type Store interface {
	CreateRequest(ctx context.Context, req *models.PendingRequest) error
	ConsumeRequest(ctx context.Context, token id.RequestToken) (*models.PendingRequest, error)
	ListPending(ctx context.Context, limit int) ([]*models.PendingRequest, error)
	CountPending(ctx context.Context) (uint64, error)
	Params(ctx context.Context) (models.Params, error)
	SetParams(ctx context.Context, params models.Params) error
}

// Registry is the slice of the asset registry the minting unit uses.
type Registry interface {
	Mint(ctx context.Context, holder id.AccountID, attrs registrymodels.Attributes) (*registrymodels.Asset, error)
	TotalMinted(ctx context.Context) (uint64, error)
}

// Treasury credits change back to payers and accrues minting proceeds.
type Treasury interface {
	Credit(ctx context.Context, account id.AccountID, amount uint64, reason string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store    Store
	registry Registry
	treasury Treasury
	locks    *locks.Keyed
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

func New(store Store, registry Registry, treasury Treasury, supplyLocks *locks.Keyed, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("mint store is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if treasury == nil {
		return nil, fmt.Errorf("treasury is required")
	}
	if supplyLocks == nil {
		return nil, fmt.Errorf("lock set is required")
	}
	svc := &Service{
		store:    store,
		registry: registry,
		treasury: treasury,
		locks:    supplyLocks,
		runner:   tx.NopRunner{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RequestCreation escrows a paid creation request and returns its token.
// No asset exists yet; the oracle's random value decides the outcome later.
// Payment above the minting cost is credited back to the payer as change,
// after the request is escrowed.
func (s *Service) RequestCreation(ctx context.Context, payer id.AccountID, payment uint64) (id.RequestToken, error) {
	if payer.IsZero() {
		return id.RequestToken{}, dErrors.New(dErrors.CodePrecondition, "payer identity is required")
	}

	s.locks.Lock(mintLockKey)
	defer s.locks.Unlock(mintLockKey)

	params, err := s.store.Params(ctx)
	if err != nil {
		return id.RequestToken{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load minting parameters")
	}
	if payment < params.MintingCost {
		return id.RequestToken{}, dErrors.Newf(dErrors.CodeValue,
			"payment %d below minting cost %d", payment, params.MintingCost)
	}

	minted, err := s.registry.TotalMinted(ctx)
	if err != nil {
		return id.RequestToken{}, err
	}
	pending, err := s.store.CountPending(ctx)
	if err != nil {
		return id.RequestToken{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count pending requests")
	}
	// Pending requests count against the cap: each one is an asset the
	// registry is already committed to mint.
	if minted+pending >= params.MaxSupply {
		return id.RequestToken{}, dErrors.Newf(dErrors.CodeExhausted,
			"supply exhausted: %d minted, %d pending, cap %d", minted, pending, params.MaxSupply)
	}

	req := &models.PendingRequest{
		Token:     id.NewRequestToken(),
		Payer:     payer,
		Payment:   params.MintingCost,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return id.RequestToken{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to escrow creation request")
	}

	if s.metrics != nil {
		s.metrics.MintRequestsTotal.Inc()
	}
	s.emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Actor:     payer,
		Action:    string(audit.EventCreationRequested),
		Amount:    params.MintingCost,
		Token:     req.Token.String(),
		RequestID: requestcontext.RequestID(ctx),
	})

	// Change is the only outbound movement and comes last.
	if payment > params.MintingCost {
		if err := s.treasury.Credit(ctx, payer, payment-params.MintingCost, "mint overpayment change"); err != nil {
			return id.RequestToken{}, err
		}
	}
	return req.Token, nil
}

// Fulfill consumes the request token and mints exactly one asset to the
// original payer, with attributes derived deterministically from the random
// word. Only the trusted randomness source reaches this path; the transport
// enforces that. A second fulfillment of the same token fails without
// minting. Consume, mint, and the proceeds credit commit as one unit: a
// failure anywhere rolls the token and the asset back together.
func (s *Service) Fulfill(ctx context.Context, token id.RequestToken, word uint64) (*registrymodels.Asset, error) {
	if token.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "request token is required")
	}

	s.locks.Lock(mintLockKey)
	defer s.locks.Unlock(mintLockKey)

	var (
		req   *models.PendingRequest
		asset *registrymodels.Asset
	)
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.store.ConsumeRequest(ctx, token)
		if err != nil {
			switch {
			case errors.Is(err, sentinel.ErrNotFound):
				return dErrors.Newf(dErrors.CodeState, "unknown creation request %s", token)
			case errors.Is(err, sentinel.ErrConsumed):
				return dErrors.Newf(dErrors.CodeState, "creation request %s already fulfilled", token)
			default:
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume creation request")
			}
		}

		asset, err = s.registry.Mint(ctx, req.Payer, deriveAttributes(token, word))
		if err != nil {
			return err
		}

		// Minting proceeds accrue to the registry's own treasury balance, last.
		return s.treasury.Credit(ctx, id.Escrow, req.Payment, "minting proceeds")
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Asset:     asset.ID,
		Actor:     req.Payer,
		Action:    string(audit.EventAssetMinted),
		Amount:    req.Payment,
		Token:     token.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return asset, nil
}

// Params returns the current minting cost and supply cap.
func (s *Service) Params(ctx context.Context) (models.Params, error) {
	params, err := s.store.Params(ctx)
	if err != nil {
		return models.Params{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load minting parameters")
	}
	return params, nil
}

// SetMintingCost is the operator's price control.
func (s *Service) SetMintingCost(ctx context.Context, cost uint64) error {
	if !requestcontext.IsOperator(ctx) {
		return dErrors.New(dErrors.CodePrecondition, "only the registry operator may change the minting cost")
	}
	if cost == 0 {
		return dErrors.New(dErrors.CodeValue, "minting cost must be greater than zero")
	}

	s.locks.Lock(mintLockKey)
	defer s.locks.Unlock(mintLockKey)

	params, err := s.store.Params(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load minting parameters")
	}
	params.MintingCost = cost
	if err := s.store.SetParams(ctx, params); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update minting cost")
	}

	s.emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    string(audit.EventMintingCostUpdated),
		Amount:    cost,
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// SetMaxSupply is the operator's supply control. The cap can never drop
// below what is already minted or committed.
func (s *Service) SetMaxSupply(ctx context.Context, maxSupply uint64) error {
	if !requestcontext.IsOperator(ctx) {
		return dErrors.New(dErrors.CodePrecondition, "only the registry operator may change the max supply")
	}

	s.locks.Lock(mintLockKey)
	defer s.locks.Unlock(mintLockKey)

	minted, err := s.registry.TotalMinted(ctx)
	if err != nil {
		return err
	}
	pending, err := s.store.CountPending(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count pending requests")
	}
	if maxSupply < minted+pending {
		return dErrors.Newf(dErrors.CodeValue,
			"max supply %d below committed supply %d", maxSupply, minted+pending)
	}

	params, err := s.store.Params(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load minting parameters")
	}
	params.MaxSupply = maxSupply
	if err := s.store.SetParams(ctx, params); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update max supply")
	}

	s.emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    string(audit.EventMaxSupplyUpdated),
		Amount:    maxSupply,
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// ListPending exposes unfulfilled requests to the randomness fulfiller.
func (s *Service) ListPending(ctx context.Context, limit int) ([]*models.PendingRequest, error) {
	pending, err := s.store.ListPending(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending requests")
	}
	return pending, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", event.Action,
			"error", err,
		)
	}
}
