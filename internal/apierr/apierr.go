// Package apierr centralizes the gateway's JSON error-body helpers,
// generalized from the teacher's writeJSON/writeJSONError/writeJSONStatus
// trio in internal/handlers/utils.go into a single shared package so
// every handler writes error bodies the same way.
package apierr

import (
	"encoding/json"
	"net/http"

	"hlsgateway/internal/logging"
)

// WriteJSON encodes v as JSON and writes it to w. Encoding or write
// failures are logged since a handler has no way to recover from them
// once headers may already be sent.
func WriteJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("apierr: failed to encode JSON response: %v", err)
	}
}

// WriteError writes {"error": message} at statusCode.
func WriteError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	WriteJSON(w, map[string]string{"error": message})
}

// WriteStatus writes {"status": status} at 200.
func WriteStatus(w http.ResponseWriter, status string) {
	WriteJSON(w, map[string]string{"status": status})
}

// BadRequest is a convenience wrapper for the gateway's most common
// error shape: a missing or invalid parameter, with no state change.
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, message, http.StatusBadRequest)
}

// InvalidSession writes the {"status":"invalid_session"} 404 body the
// ping endpoint returns for an unknown session.
func InvalidSession(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	WriteJSON(w, map[string]string{"status": "invalid_session"})
}
