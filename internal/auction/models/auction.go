package models

import (
	"time"

	id "curio/pkg/domain"
)

// Auction is the record of a timed sale. While it runs the asset sits in the
// registry's escrow account; the record remembers the seller so finalization
// knows where proceeds, or the unsold asset, go.
//
// HighestBidder is the zero identity until the first bid lands.
type Auction struct {
	AssetID       id.AssetID   `json:"asset_id"`
	Seller        id.AccountID `json:"seller"`
	StartedAt     time.Time    `json:"started_at"`
	EndsAt        time.Time    `json:"ends_at"`
	HighestBid    uint64       `json:"highest_bid"`
	HighestBidder id.AccountID `json:"highest_bidder,omitempty"`
	Finalized     bool         `json:"finalized"`
}

// Open reports whether the auction still accepts bids at the given instant.
func (a *Auction) Open(now time.Time) bool {
	return !a.Finalized && now.Before(a.EndsAt)
}
