package httptransport

import (
	"net/http"
)

type mintingCostBody struct {
	Cost uint64 `json:"cost"`
}

func (h *Handler) handleSetMintingCost(w http.ResponseWriter, r *http.Request) {
	var body mintingCostBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := h.minter.SetMintingCost(r.Context(), body.Cost); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type maxSupplyBody struct {
	MaxSupply uint64 `json:"max_supply"`
}

func (h *Handler) handleSetMaxSupply(w http.ResponseWriter, r *http.Request) {
	var body maxSupplyBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := h.minter.SetMaxSupply(r.Context(), body.MaxSupply); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
