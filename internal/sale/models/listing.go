package models

import (
	"time"

	id "curio/pkg/domain"
)

// Listing is an open fixed-price offer. At most one active listing exists per
// asset; listing again overwrites nothing and fails instead.
type Listing struct {
	AssetID  id.AssetID   `json:"asset_id"`
	Seller   id.AccountID `json:"seller"`
	Price    uint64       `json:"price"`
	ListedAt time.Time    `json:"listed_at"`
}
