package store

import (
	"context"

	"curio/internal/mint/models"
	id "curio/pkg/domain"
)

// Store owns pending creation requests and the global minting parameters.
//
// Implementations return pkg/platform/sentinel errors for factual failures:
// ErrNotFound for unknown tokens, ErrConsumed for a second consume of the
// same token.
type Store interface {
	// CreateRequest escrows a new pending request.
	CreateRequest(ctx context.Context, req *models.PendingRequest) error

	// ConsumeRequest marks the request fulfilled exactly once and returns it.
	// The check-and-set is atomic: two concurrent consumers see one success
	// and one sentinel.ErrConsumed.
	ConsumeRequest(ctx context.Context, token id.RequestToken) (*models.PendingRequest, error)

	// ListPending returns unfulfilled requests, oldest first. The local
	// randomness fulfiller polls this.
	ListPending(ctx context.Context, limit int) ([]*models.PendingRequest, error)

	// CountPending returns the number of unfulfilled requests. Together with
	// the minted count it bounds future supply.
	CountPending(ctx context.Context) (uint64, error)

	// Params returns the current minting cost and max supply.
	Params(ctx context.Context) (models.Params, error)

	// SetParams replaces the global minting parameters.
	SetParams(ctx context.Context, params models.Params) error
}
