package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ayusman/exoform/internal/app"
)

// EngineHandler serves the engine lifecycle endpoints.
type EngineHandler struct {
	engine Engine
	logger *zap.Logger
}

// NewEngineHandler creates a new EngineHandler.
func NewEngineHandler(engine Engine, logger *zap.Logger) *EngineHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EngineHandler{engine: engine, logger: logger}
}

// resizeRequest is the body of POST /api/resize.
type resizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// State handles GET /api/state.
func (h *EngineHandler) State(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// Init handles POST /api/init. It blocks until the engine is active or has
// failed; a failure is reported with the error snapshot.
func (h *EngineHandler) Init(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := h.engine.Start(); err != nil {
		if errors.Is(err, app.ErrStarting) {
			writeJSON(w, http.StatusAccepted, h.engine.Snapshot())
			return
		}
		h.logger.Warn("engine init failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, h.engine.Snapshot())
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// Stop handles POST /api/stop.
func (h *EngineHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := h.engine.Stop(); err != nil {
		h.logger.Warn("engine stop reported errors", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// Resize handles POST /api/resize.
func (h *EngineHandler) Resize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.engine.Resize(req.Width, req.Height); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
