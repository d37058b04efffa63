package httptransport

import (
	"net/http"

	id "curio/pkg/domain"
	dErrors "curio/pkg/domain-errors"
	"curio/pkg/requestcontext"
)

type mintRequestBody struct {
	Payment uint64 `json:"payment"`
}

type mintRequestResponse struct {
	Token string `json:"token"`
}

// handleMintRequest accepts a paid creation request. The asset does not
// exist yet; the caller polls the asset endpoints after fulfillment.
func (h *Handler) handleMintRequest(w http.ResponseWriter, r *http.Request) {
	caller := requestcontext.Caller(r.Context())

	var body mintRequestBody
	if !decodeBody(w, r, &body) {
		return
	}

	token, err := h.minter.RequestCreation(r.Context(), caller, body.Payment)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, mintRequestResponse{Token: token.String()})
}

type fulfillBody struct {
	Token      string `json:"token"`
	RandomWord uint64 `json:"random_word"`
}

// handleMintFulfill is reachable only through the oracle token gate.
func (h *Handler) handleMintFulfill(w http.ResponseWriter, r *http.Request) {
	var body fulfillBody
	if !decodeBody(w, r, &body) {
		return
	}

	token, err := id.ParseRequestToken(body.Token)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed request token"))
		return
	}

	asset, err := h.minter.Fulfill(r.Context(), token, body.RandomWord)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAssetView(asset, nil, nil))
}
