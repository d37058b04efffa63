package httptransport

import (
	"encoding/json"
	"net/http"

	dErrors "curio/pkg/domain-errors"
)

// statusOf maps domain failure codes to HTTP status codes. Every rejection
// reaches the caller with the code and the offending values in the body.
func statusOf(code dErrors.Code) int {
	switch code {
	case dErrors.CodePrecondition:
		return http.StatusForbidden
	case dErrors.CodeState, dErrors.CodeExhausted:
		return http.StatusConflict
	case dErrors.CodeValue:
		return http.StatusUnprocessableEntity
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	if h.metrics != nil {
		h.metrics.IncrementFailure(string(code))
	}

	reason := dErrors.ReasonOf(err)
	if code == dErrors.CodeInternal {
		// Infrastructure details stay in the logs.
		reason = ""
	}
	writeJSON(w, statusOf(code), errorResponse{Error: string(code), Reason: reason})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  string(dErrors.CodeInvalidInput),
			Reason: "malformed request body",
		})
		return false
	}
	return true
}
