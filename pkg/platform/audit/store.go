package audit

import (
	"context"

	id "curio/pkg/domain"
)

// Store persists the transition record. Implementations must be safe for
// concurrent use; ordering within one asset follows the per-asset operation
// ordering of the ledger.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAsset(ctx context.Context, assetID id.AssetID) ([]Event, error)
}
