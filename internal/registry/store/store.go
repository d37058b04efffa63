package store

import (
	"context"

	"curio/internal/registry/models"
	id "curio/pkg/domain"
)

// Store owns the asset table: identifiers, holders, attributes. It is the
// only place holder fields are written.
//
// Implementations return pkg/platform/sentinel errors for factual failures
// (ErrNotFound, ErrInvalidState); the service layer translates them into
// domain errors.
type Store interface {
	// Create persists a new asset under the next sequential identifier and
	// returns it. Identifiers start at 1 and never repeat.
	Create(ctx context.Context, holder id.AccountID, attrs models.Attributes) (*models.Asset, error)

	// Get returns the asset or sentinel.ErrNotFound if it was never minted.
	Get(ctx context.Context, assetID id.AssetID) (*models.Asset, error)

	// UpdateHolder moves the asset to a new holder. The expected current
	// holder guards against lost updates: sentinel.ErrInvalidState is
	// returned when the stored holder differs.
	UpdateHolder(ctx context.Context, assetID id.AssetID, from, to id.AccountID) error

	// Count returns the total number of assets ever minted.
	Count(ctx context.Context) (uint64, error)
}
