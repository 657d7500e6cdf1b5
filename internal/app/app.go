// Package app is the presentation shell: it owns one engine session at a time
// and moves between idle, loading, active and error.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/exoform/internal/capture"
	"github.com/ayusman/exoform/internal/config"
	"github.com/ayusman/exoform/internal/detector"
	"github.com/ayusman/exoform/internal/driver"
	"github.com/ayusman/exoform/internal/formation"
	"github.com/ayusman/exoform/internal/gesture"
	"github.com/ayusman/exoform/internal/metrics"
	"github.com/ayusman/exoform/internal/pose"
	"github.com/ayusman/exoform/internal/render"
	"github.com/ayusman/exoform/internal/spell"
	"github.com/ayusman/exoform/internal/store"
	"github.com/ayusman/exoform/internal/tracker"
)

// State is the shell's lifecycle state.
type State string

// Shell states.
const (
	StateIdle    State = "IDLE"
	StateLoading State = "LOADING_MODEL"
	StateActive  State = "ACTIVE"
	StateError   State = "ERROR"
)

var allStates = []string{string(StateIdle), string(StateLoading), string(StateActive), string(StateError)}

// ErrStarting is returned when Start is called while a start is in progress.
var ErrStarting = errors.New("engine is already starting")

// Snapshot is what the shell shows to the user.
type Snapshot struct {
	State        State         `json:"state"`
	Spell        *spell.Record `json:"spell,omitempty"`
	FPS          int           `json:"fps"`
	HandDetected bool          `json:"handDetected"`
	Transition   float32       `json:"transition"`
	Gesture      string        `json:"gesture,omitempty"`
	SessionID    string        `json:"sessionId,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Options holds the shell's collaborators. Factories default to the real
// camera, MediaPipe detector and ticker scheduler built from Config.
type Options struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Store    *store.Store
	Surface  render.Surface
	Resolver gesture.Resolver

	NewCamera    func() capture.Camera
	NewDetector  func() (detector.Detector, error)
	NewScheduler func() driver.Scheduler
}

// session is one started engine.
type session struct {
	id      string
	tracker *tracker.Tracker
	slot    *gesture.Slot
	timer   *gesture.Timer
	driver  *driver.Driver
}

// App is the presentation shell.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	store    *store.Store
	surface  render.Surface
	resolver gesture.Resolver

	newCamera    func() capture.Camera
	newDetector  func() (detector.Detector, error)
	newScheduler func() driver.Scheduler

	mu       sync.RWMutex
	state    State
	lastErr  error
	sess     *session
	viewport *render.Viewport
}

// New creates an idle App.
func New(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		cfg:          cfg,
		logger:       logger,
		metrics:      opts.Metrics,
		store:        opts.Store,
		surface:      opts.Surface,
		resolver:     opts.Resolver,
		newCamera:    opts.NewCamera,
		newDetector:  opts.NewDetector,
		newScheduler: opts.NewScheduler,
		state:        StateIdle,
	}

	if a.surface == nil {
		a.surface = render.Multi{}
	}
	if a.resolver == nil {
		a.resolver = spell.NewResolver(nil, cfg.Analyzer.Timeout, logger.Named("spell"))
	}
	if a.newCamera == nil {
		a.newCamera = func() capture.Camera { return capture.NewCamera(cfg.Capture) }
	}
	if a.newDetector == nil {
		a.newDetector = func() (detector.Detector, error) {
			return detector.NewMediaPipeDetector(cfg.Detector, logger.Named("detector"))
		}
	}
	if a.newScheduler == nil {
		a.newScheduler = func() driver.Scheduler { return driver.NewTickerScheduler(cfg.Driver.TickFPS) }
	}

	a.metrics.SetState(string(StateIdle), allStates...)
	return a
}

// Start acquires the camera and detector and starts the frame loop. It is a
// no-op while active. After a failure the App is in StateError and Start may
// be called again.
func (a *App) Start() error {
	a.mu.Lock()
	switch a.state {
	case StateActive:
		a.mu.Unlock()
		return nil
	case StateLoading:
		a.mu.Unlock()
		return ErrStarting
	}
	a.setStateLocked(StateLoading, nil)
	a.mu.Unlock()

	a.logger.Info("starting engine")
	sess, err := a.startSession()

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.setStateLocked(StateError, err)
		a.logger.Error("engine failed to start", zap.Error(err))
		return err
	}
	a.sess = sess
	if a.viewport != nil {
		sess.driver.Resize(a.viewport.Width, a.viewport.Height)
	}
	sess.driver.Start()
	a.setStateLocked(StateActive, nil)
	a.logger.Info("engine started", zap.String("session", sess.id))
	return nil
}

func (a *App) startSession() (*session, error) {
	engine, err := formation.NewEngine(a.cfg.Formation)
	if err != nil {
		return nil, fmt.Errorf("failed to build formation: %w", err)
	}

	det, err := a.newDetector()
	if err != nil {
		return nil, fmt.Errorf("failed to create detector: %w", err)
	}

	tr := tracker.New(a.newCamera(), det, a.logger.Named("tracker"))
	if err := tr.Start(); err != nil {
		det.Close()
		return nil, err
	}

	sess := &session{tracker: tr, slot: gesture.NewSlot()}
	if a.store != nil {
		s, err := a.store.Sessions().Begin()
		if err != nil {
			a.logger.Warn("failed to open journal session", zap.Error(err))
		} else {
			sess.id = s.ID
		}
	}

	sess.timer = gesture.NewTimer(a.cfg.Gesture, a.resolver, sess.slot, a.logger.Named("gesture"))
	sess.timer.OnResolve = func(rec spell.Record, seconds float64) {
		a.journal(sess.id, rec, seconds)
	}

	sess.driver, err = driver.New(driver.Options{
		Source:    tr,
		Estimator: pose.NewEstimator(),
		Engine:    engine,
		Timer:     sess.timer,
		Surface:   a.surface,
		Scheduler: a.newScheduler(),
		Logger:    a.logger.Named("driver"),
		Metrics:   a.metrics,
		FPSWindow: a.cfg.Driver.FPSWindow,
	})
	if err != nil {
		sess.timer.Close()
		tr.Stop()
		a.endJournal(sess.id, "error")
		return nil, err
	}

	// The shown record belongs to the hand that earned it.
	sess.driver.OnHandChange = func(detected bool) {
		if !detected {
			sess.slot.Clear()
		}
	}
	return sess, nil
}

func (a *App) journal(sessionID string, rec spell.Record, seconds float64) {
	a.metrics.ObserveSpell(rec.IsFallback())
	a.logger.Info("spell revealed",
		zap.String("name", rec.Name),
		zap.String("type", rec.Type),
		zap.Bool("fallback", rec.IsFallback()))

	if a.store == nil || sessionID == "" {
		return
	}
	if _, err := a.store.Spells().Append(sessionID, rec, seconds); err != nil {
		a.logger.Warn("failed to journal spell", zap.Error(err))
	}
}

func (a *App) endJournal(sessionID, reason string) {
	if a.store == nil || sessionID == "" {
		return
	}
	if err := a.store.Sessions().End(sessionID, reason); err != nil {
		a.logger.Warn("failed to close journal session", zap.Error(err))
	}
}

// Stop tears down the active session and returns to idle. Late spell results
// from the stopped session are dropped.
func (a *App) Stop() error {
	a.mu.Lock()
	sess := a.sess
	a.sess = nil
	if sess == nil {
		if a.state == StateError {
			a.setStateLocked(StateIdle, nil)
		}
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	sess.driver.Stop()
	sess.timer.Close()
	err := sess.tracker.Stop()
	a.endJournal(sess.id, "stopped")

	a.mu.Lock()
	a.setStateLocked(StateIdle, nil)
	a.mu.Unlock()

	a.logger.Info("engine stopped", zap.String("session", sess.id))
	return err
}

// Close stops the engine. The App must not be used afterwards.
func (a *App) Close(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- a.Stop() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *App) setStateLocked(s State, err error) {
	a.state = s
	a.lastErr = err
	a.metrics.SetState(string(s), allStates...)
}

// State returns the current lifecycle state.
func (a *App) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Snapshot returns the current readout.
func (a *App) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snap := Snapshot{State: a.state}
	if a.lastErr != nil {
		snap.Error = a.lastErr.Error()
	}
	if a.sess == nil {
		return snap
	}

	st := a.sess.driver.Status()
	snap.FPS = st.FPS
	snap.HandDetected = st.HandDetected
	snap.Transition = st.Transition
	snap.Gesture = st.Gesture
	snap.SessionID = a.sess.id
	if rec, ok := a.sess.slot.Get(); ok {
		snap.Spell = &rec
	}
	return snap
}

// Resize records the viewport and forwards it to the running session.
func (a *App) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", width, height)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.viewport = &render.Viewport{Width: width, Height: height}
	if a.sess != nil {
		a.sess.driver.Resize(width, height)
	}
	return nil
}

// Spells returns up to limit journal entries, newest first.
func (a *App) Spells(limit int) ([]*store.SpellEntry, error) {
	if a.store == nil {
		return nil, nil
	}
	return a.store.Spells().List(limit)
}

// LatestJPEG returns the newest camera frame of the active session.
func (a *App) LatestJPEG() ([]byte, int64, bool) {
	a.mu.RLock()
	sess := a.sess
	a.mu.RUnlock()
	if sess == nil {
		return nil, 0, false
	}
	return sess.tracker.LatestJPEG()
}
