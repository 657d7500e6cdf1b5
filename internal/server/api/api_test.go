package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/exoform/internal/app"
	"github.com/ayusman/exoform/internal/spell"
	"github.com/ayusman/exoform/internal/store"
)

type fakeEngine struct {
	state    app.State
	startErr error
	width    int
	height   int
	spells   []*store.SpellEntry
	limit    int
	spellErr error
}

func (e *fakeEngine) Start() error {
	if e.startErr != nil {
		if !errors.Is(e.startErr, app.ErrStarting) {
			e.state = app.StateError
		}
		return e.startErr
	}
	e.state = app.StateActive
	return nil
}

func (e *fakeEngine) Stop() error {
	e.state = app.StateIdle
	return nil
}

func (e *fakeEngine) Snapshot() app.Snapshot {
	snap := app.Snapshot{State: e.state}
	if e.startErr != nil && e.state == app.StateError {
		snap.Error = e.startErr.Error()
	}
	return snap
}

func (e *fakeEngine) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.New("invalid viewport")
	}
	e.width, e.height = width, height
	return nil
}

func (e *fakeEngine) Spells(limit int) ([]*store.SpellEntry, error) {
	e.limit = limit
	return e.spells, e.spellErr
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) app.Snapshot {
	t.Helper()
	var snap app.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	return snap
}

func TestEngineHandler_InitAndStop(t *testing.T) {
	engine := &fakeEngine{state: app.StateIdle}
	h := NewEngineHandler(engine, nil)

	rec := httptest.NewRecorder()
	h.Init(rec, httptest.NewRequest(http.MethodPost, "/api/init", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, app.StateActive, decodeSnapshot(t, rec).State)

	rec = httptest.NewRecorder()
	h.State(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, app.StateActive, decodeSnapshot(t, rec).State)

	rec = httptest.NewRecorder()
	h.Stop(rec, httptest.NewRequest(http.MethodPost, "/api/stop", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, app.StateIdle, decodeSnapshot(t, rec).State)
}

func TestEngineHandler_InitFailure(t *testing.T) {
	engine := &fakeEngine{state: app.StateIdle, startErr: errors.New("open camera: no device")}
	h := NewEngineHandler(engine, nil)

	rec := httptest.NewRecorder()
	h.Init(rec, httptest.NewRequest(http.MethodPost, "/api/init", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	snap := decodeSnapshot(t, rec)
	assert.Equal(t, app.StateError, snap.State)
	assert.Contains(t, snap.Error, "no device")
}

func TestEngineHandler_InitWhileStarting(t *testing.T) {
	engine := &fakeEngine{state: app.StateLoading, startErr: app.ErrStarting}
	h := NewEngineHandler(engine, nil)

	rec := httptest.NewRecorder()
	h.Init(rec, httptest.NewRequest(http.MethodPost, "/api/init", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, app.StateLoading, decodeSnapshot(t, rec).State)
}

func TestEngineHandler_Resize(t *testing.T) {
	engine := &fakeEngine{}
	h := NewEngineHandler(engine, nil)

	rec := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"width":1280,"height":720}`)
	h.Resize(rec, httptest.NewRequest(http.MethodPost, "/api/resize", body))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1280, engine.width)
	assert.Equal(t, 720, engine.height)

	rec = httptest.NewRecorder()
	h.Resize(rec, httptest.NewRequest(http.MethodPost, "/api/resize", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Resize(rec, httptest.NewRequest(http.MethodPost, "/api/resize", bytes.NewBufferString(`{"width":0,"height":1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEngineHandler_MethodNotAllowed(t *testing.T) {
	h := NewEngineHandler(&fakeEngine{}, nil)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		method  string
	}{
		{"state", h.State, http.MethodPost},
		{"init", h.Init, http.MethodGet},
		{"stop", h.Stop, http.MethodGet},
		{"resize", h.Resize, http.MethodGet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(tt.method, "/", nil))
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		})
	}
}

func TestSpellHandler(t *testing.T) {
	engine := &fakeEngine{spells: []*store.SpellEntry{
		{ID: "a", SessionID: "s", Record: spell.Fallback(), Fallback: true, HoldSeconds: 3},
	}}
	h := NewSpellHandler(engine)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/spells", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, DefaultSpellLimit, engine.limit)

	var resp listSpellsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, spell.Fallback(), resp.Spells[0].Record)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/spells?limit=5", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, engine.limit)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/spells?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSpellHandler_EmptyAndErrors(t *testing.T) {
	engine := &fakeEngine{}
	h := NewSpellHandler(engine)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/spells", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"spells":[],"count":0}`, rec.Body.String())

	engine.spellErr = errors.New("db gone")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/spells", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/spells", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
