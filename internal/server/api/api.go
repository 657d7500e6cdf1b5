// Package api implements the JSON handlers for the engine and spell journal.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/exoform/internal/app"
	"github.com/ayusman/exoform/internal/store"
)

// Engine is the shell surface the handlers drive.
type Engine interface {
	Start() error
	Stop() error
	Snapshot() app.Snapshot
	Resize(width, height int) error
	Spells(limit int) ([]*store.SpellEntry, error)
}

// errorResponse represents an error in API responses.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
