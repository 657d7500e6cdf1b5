package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/exoform/internal/store"
)

// DefaultSpellLimit bounds GET /api/spells without a limit parameter.
const DefaultSpellLimit = 50

// SpellHandler serves the session spell journal.
type SpellHandler struct {
	engine Engine
}

// NewSpellHandler creates a new SpellHandler.
func NewSpellHandler(engine Engine) *SpellHandler {
	return &SpellHandler{engine: engine}
}

// listSpellsResponse is the response for listing spells.
type listSpellsResponse struct {
	Spells []*store.SpellEntry `json:"spells"`
	Count  int                 `json:"count"`
}

// ServeHTTP handles GET /api/spells?limit=N.
func (h *SpellHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := DefaultSpellLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	spells, err := h.engine.Spells(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list spells")
		return
	}
	if spells == nil {
		spells = []*store.SpellEntry{}
	}
	writeJSON(w, http.StatusOK, listSpellsResponse{Spells: spells, Count: len(spells)})
}
