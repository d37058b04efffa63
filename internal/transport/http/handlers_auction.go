package httptransport

import (
	"net/http"
	"time"

	"curio/pkg/requestcontext"
)

type startAuctionBody struct {
	DurationSeconds uint64 `json:"duration_seconds"`
}

func (h *Handler) handleStartAuction(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetID(w, r)
	if !ok {
		return
	}
	var body startAuctionBody
	if !decodeBody(w, r, &body) {
		return
	}

	caller := requestcontext.Caller(r.Context())
	duration := time.Duration(body.DurationSeconds) * time.Second
	auction, err := h.auctioneer.Start(r.Context(), assetID, caller, duration)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAuctionView(auction))
}

type bidBody struct {
	Amount uint64 `json:"amount"`
}

func (h *Handler) handleBid(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetID(w, r)
	if !ok {
		return
	}
	var body bidBody
	if !decodeBody(w, r, &body) {
		return
	}

	caller := requestcontext.Caller(r.Context())
	if err := h.auctioneer.Bid(r.Context(), assetID, caller, body.Amount); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetID(w, r)
	if !ok {
		return
	}

	caller := requestcontext.Caller(r.Context())
	if err := h.auctioneer.Finalize(r.Context(), assetID, caller); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type refundResponse struct {
	Amount uint64 `json:"amount"`
}

// handleWithdrawRefund pays out the caller's outbid refunds accrued on this
// asset's auction.
func (h *Handler) handleWithdrawRefund(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetID(w, r)
	if !ok {
		return
	}

	caller := requestcontext.Caller(r.Context())
	amount, err := h.auctioneer.WithdrawRefund(r.Context(), assetID, caller)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refundResponse{Amount: amount})
}
