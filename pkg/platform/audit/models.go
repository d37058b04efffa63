package audit

import (
	"time"

	id "curio/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCustody covers events that move an asset between holders:
	// mints, transfers, escrow on auction start, settlement. These are the
	// externally verifiable record of every ownership transition.
	CategoryCustody EventCategory = "custody"

	// CategoryMarket covers market activity that does not by itself move
	// custody: listings, delistings, bids, refund withdrawals.
	CategoryMarket EventCategory = "market"

	// CategoryAdmin covers operator mutations of global registry state:
	// minting cost and max supply changes.
	CategoryAdmin EventCategory = "admin"
)

// Event is emitted from domain logic to capture a state transition. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Asset     id.AssetID
	Actor     id.AccountID
	// Counterparty is the other side of a custody move: the recipient of a
	// transfer, the outbid bidder of a bid, the winner of a finalization.
	Counterparty id.AccountID
	Action       string
	// Amount carries the monetary magnitude of the transition where one
	// exists (price, bid, refund, payment).
	Amount uint64
	// Token carries the creation request token for minting events.
	Token string
	// RequestID is the correlation ID from the originating call.
	RequestID string
}

type AuditEvent string

const (
	// Minting events
	EventCreationRequested AuditEvent = "creation_requested"
	EventAssetMinted       AuditEvent = "asset_minted"

	// Custody events
	EventAssetTransferred AuditEvent = "asset_transferred"
	EventAssetEscrowed    AuditEvent = "asset_escrowed"

	// Sale events
	EventAssetListed   AuditEvent = "asset_listed"
	EventAssetDelisted AuditEvent = "asset_delisted"
	EventAssetSold     AuditEvent = "asset_sold"

	// Auction events
	EventAuctionStarted   AuditEvent = "auction_started"
	EventBidPlaced        AuditEvent = "bid_placed"
	EventAuctionFinalized AuditEvent = "auction_finalized"
	EventRefundWithdrawn  AuditEvent = "refund_withdrawn"

	// Operator events
	EventMintingCostUpdated AuditEvent = "minting_cost_updated"
	EventMaxSupplyUpdated   AuditEvent = "max_supply_updated"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventCreationRequested: CategoryMarket,
	EventAssetMinted:       CategoryCustody,

	EventAssetTransferred: CategoryCustody,
	EventAssetEscrowed:    CategoryCustody,

	EventAssetListed:   CategoryMarket,
	EventAssetDelisted: CategoryMarket,
	EventAssetSold:     CategoryCustody,

	EventAuctionStarted:   CategoryCustody,
	EventBidPlaced:        CategoryMarket,
	EventAuctionFinalized: CategoryCustody,
	EventRefundWithdrawn:  CategoryMarket,

	EventMintingCostUpdated: CategoryAdmin,
	EventMaxSupplyUpdated:   CategoryAdmin,
}

// Category returns the category for the event, defaulting to market for
// unknown actions.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryMarket
}
