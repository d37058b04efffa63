package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	auctionmodels "curio/internal/auction/models"
	registrymodels "curio/internal/registry/models"
	salemodels "curio/internal/sale/models"
	id "curio/pkg/domain"
	dErrors "curio/pkg/domain-errors"
	"curio/pkg/requestcontext"
)

type listingView struct {
	Seller string `json:"seller"`
	Price  uint64 `json:"price"`
}

type auctionView struct {
	Seller        string    `json:"seller"`
	EndsAt        time.Time `json:"ends_at"`
	HighestBid    uint64    `json:"highest_bid"`
	HighestBidder string    `json:"highest_bidder,omitempty"`
	Finalized     bool      `json:"finalized"`
}

type assetView struct {
	ID         uint64                    `json:"id"`
	Holder     string                    `json:"holder"`
	Attributes registrymodels.Attributes `json:"attributes"`
	MintedAt   time.Time                 `json:"minted_at"`
	Listing    *listingView              `json:"listing,omitempty"`
	Auction    *auctionView              `json:"auction,omitempty"`
}

func newAssetView(asset *registrymodels.Asset, listing *salemodels.Listing, auction *auctionmodels.Auction) assetView {
	view := assetView{
		ID:         uint64(asset.ID),
		Holder:     asset.Holder.String(),
		Attributes: asset.Attributes,
		MintedAt:   asset.MintedAt,
	}
	if listing != nil {
		view.Listing = &listingView{Seller: listing.Seller.String(), Price: listing.Price}
	}
	if auction != nil && !auction.Finalized {
		view.Auction = newAuctionView(auction)
	}
	return view
}

func newAuctionView(auction *auctionmodels.Auction) *auctionView {
	return &auctionView{
		Seller:        auction.Seller.String(),
		EndsAt:        auction.EndsAt,
		HighestBid:    auction.HighestBid,
		HighestBidder: auction.HighestBidder.String(),
		Finalized:     auction.Finalized,
	}
}

func (h *Handler) assetID(w http.ResponseWriter, r *http.Request) (id.AssetID, bool) {
	assetID, err := id.ParseAssetID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed asset id"))
		return 0, false
	}
	return assetID, true
}

// handleGetAsset returns the asset with its open listing and auction, when
// either exists.
func (h *Handler) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetID(w, r)
	if !ok {
		return
	}

	asset, err := h.registry.Get(r.Context(), assetID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Listing and auction lookups are best-effort views; their absence is
	// part of the normal response shape.
	listing, _ := h.market.Quote(r.Context(), assetID)
	auction, _ := h.auctioneer.AuctionOf(r.Context(), assetID)

	writeJSON(w, http.StatusOK, newAssetView(asset, listing, auction))
}

func (h *Handler) handleGetAuction(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetID(w, r)
	if !ok {
		return
	}

	auction, err := h.auctioneer.AuctionOf(r.Context(), assetID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAuctionView(auction))
}

type transferBody struct {
	To string `json:"to"`
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetID(w, r)
	if !ok {
		return
	}

	var body transferBody
	if !decodeBody(w, r, &body) {
		return
	}
	to, err := id.ParseAccountID(body.To)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed target account"))
		return
	}

	caller := requestcontext.Caller(r.Context())
	if err := h.registry.OwnerTransfer(r.Context(), assetID, caller, to); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statsResponse struct {
	TotalMinted uint64 `json:"total_minted"`
	MintingCost uint64 `json:"minting_cost"`
	MaxSupply   uint64 `json:"max_supply"`
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	minted, err := h.registry.TotalMinted(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	params, err := h.minter.Params(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalMinted: minted,
		MintingCost: params.MintingCost,
		MaxSupply:   params.MaxSupply,
	})
}

type balanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

func (h *Handler) handleTreasuryBalance(w http.ResponseWriter, r *http.Request) {
	caller := requestcontext.Caller(r.Context())
	balance, err := h.treasury.BalanceOf(r.Context(), caller)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Account: caller.String(), Balance: balance})
}
