// Package httputil centralizes JSON response writing so every handler emits
// the same envelopes.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "veil/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope. Uncoded
// errors are reported as internal so infrastructure details never reach the
// caller.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error": string(code),
	})
}
