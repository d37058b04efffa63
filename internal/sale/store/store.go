package store

import (
	"context"

	"curio/internal/sale/models"
	id "curio/pkg/domain"
)

// Store owns the listing table.
//
// Implementations return sentinel.ErrConflict when a listing already exists
// for the asset and sentinel.ErrNotFound when none does. Clear is idempotent
// so the registry can call it on every transfer without checking first.
type Store interface {
	// Put records a new active listing. Fails with sentinel.ErrConflict if
	// the asset is already listed.
	Put(ctx context.Context, listing *models.Listing) error

	// Get returns the active listing for the asset.
	Get(ctx context.Context, assetID id.AssetID) (*models.Listing, error)

	// Clear removes the asset's listing if one exists. Removing a
	// nonexistent listing is not an error.
	Clear(ctx context.Context, assetID id.AssetID) error
}
