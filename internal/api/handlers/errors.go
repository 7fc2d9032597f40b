package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/andrey/compressed-state/internal/xerr"
)

// ErrorResponse is the structure of every non-2xx response this API
// returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

// writeErrorResponse maps err's xerr.Kind (spec §7) onto an HTTP status and
// writes a structured JSON body.
func writeErrorResponse(w http.ResponseWriter, err error, message string) {
	w.Header().Set("Content-Type", "application/json")

	status := http.StatusInternalServerError
	switch xerr.KindOf(err) {
	case xerr.KindStructuralInvalid, xerr.KindAuthorizationInvalid:
		status = http.StatusBadRequest
	case xerr.KindNotFound:
		status = http.StatusNotFound
	case xerr.KindTransient:
		status = http.StatusServiceUnavailable
	case xerr.KindConsistencyViolation, xerr.KindProofFailure:
		status = http.StatusConflict
	}

	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: status, Details: err.Error()})
}
