// Package shared holds JSON response helpers used by every handler
// package.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "safeline/pkg/domain-errors"
)

// errorResponse is the wire shape for all error payloads.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// WriteJSON writes v with the given status. Encoding failures are
// ignored since the header is already committed.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into its HTTP status and a JSON
// envelope. Non-domain errors surface as a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		WriteJSON(w, http.StatusInternalServerError, errorResponse{
			Error:            string(dErrors.CodeInternal),
			ErrorDescription: "internal server error",
		})
		return
	}
	WriteJSON(w, dErrors.ToHTTPStatus(de.Code), errorResponse{
		Error:            string(de.Code),
		ErrorDescription: de.Message,
	})
}
