package httptransport

import (
	"net/http"

	"curio/pkg/requestcontext"
)

type listBody struct {
	Price uint64 `json:"price"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetID(w, r)
	if !ok {
		return
	}
	var body listBody
	if !decodeBody(w, r, &body) {
		return
	}

	caller := requestcontext.Caller(r.Context())
	if err := h.market.List(r.Context(), assetID, caller, body.Price); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) handleDelist(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetID(w, r)
	if !ok {
		return
	}

	caller := requestcontext.Caller(r.Context())
	if err := h.market.Delist(r.Context(), assetID, caller); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type buyBody struct {
	Payment uint64 `json:"payment"`
}

func (h *Handler) handleBuy(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetID(w, r)
	if !ok {
		return
	}
	var body buyBody
	if !decodeBody(w, r, &body) {
		return
	}

	caller := requestcontext.Caller(r.Context())
	if err := h.market.Buy(r.Context(), assetID, caller, body.Payment); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
