// Package gesture turns a stream of hand-activity flags into spell requests.
//
// A Timer accumulates hold time while a hand is tracked. Once the hold passes
// the threshold it issues a single asynchronous analysis and publishes the
// resolved record into a Slot.
package gesture

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ayusman/exoform/internal/spell"
)

// State is the Timer's lifecycle state.
type State int

const (
	// Idle means no hand is tracked.
	Idle State = iota
	// Accumulating means a hold is in progress.
	Accumulating
	// Pending means an analysis request is outstanding.
	Pending
	// Cooldown means the request resolved and its record is on display.
	Cooldown
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Accumulating:
		return "accumulating"
	case Pending:
		return "pending"
	case Cooldown:
		return "cooldown"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const (
	// TickIncrementMs approximates one display frame.
	TickIncrementMs = 16
	// TriggerThresholdMs is the hold time that triggers a request.
	TriggerThresholdMs = 3000
	// CooldownSentinelMs is written to the accumulator on trigger.
	CooldownSentinelMs = -10000
)

// Config holds the Timer's tuning values.
type Config struct {
	IncrementMs int64  `yaml:"increment_ms"`
	ThresholdMs int64  `yaml:"threshold_ms"`
	SentinelMs  int64  `yaml:"sentinel_ms"`
	Label       string `yaml:"label"`
}

// DefaultConfig returns the standard hold timing.
func DefaultConfig() Config {
	return Config{
		IncrementMs: TickIncrementMs,
		ThresholdMs: TriggerThresholdMs,
		SentinelMs:  CooldownSentinelMs,
		Label:       spell.DefaultLabel,
	}
}

// Validate checks the timing values.
func (c Config) Validate() error {
	if c.IncrementMs <= 0 {
		return fmt.Errorf("gesture increment must be positive, got %d", c.IncrementMs)
	}
	if c.ThresholdMs <= 0 {
		return fmt.Errorf("gesture threshold must be positive, got %d", c.ThresholdMs)
	}
	if c.SentinelMs >= 0 {
		return fmt.Errorf("gesture sentinel must be negative, got %d", c.SentinelMs)
	}
	if c.Label == "" {
		return fmt.Errorf("gesture label is required")
	}
	return nil
}

// Resolver turns a label and hold duration into a record without failing.
type Resolver interface {
	Resolve(ctx context.Context, label string, seconds float64) spell.Record
}

// Timer tracks a gesture hold. Tick must be called from a single goroutine.
type Timer struct {
	cfg      Config
	resolver Resolver
	slot     *Slot
	logger   *zap.Logger

	state         State
	accumulatedMs int64
	requests      int

	inFlight atomic.Bool
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc

	// OnResolve is called from the request goroutine after a record is
	// published. It is not called for dropped results.
	OnResolve func(rec spell.Record, seconds float64)
}

// NewTimer creates a Timer that publishes into slot.
func NewTimer(cfg Config, resolver Resolver, slot *Slot, logger *zap.Logger) *Timer {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Timer{
		cfg:      cfg,
		resolver: resolver,
		slot:     slot,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Tick advances the timer by one frame and reports whether a request was
// issued on this tick.
func (t *Timer) Tick(active bool) bool {
	if !active {
		t.accumulatedMs = 0
		t.state = Idle
		return false
	}

	switch t.state {
	case Idle:
		t.state = Accumulating
	case Pending:
		if !t.inFlight.Load() {
			t.state = Cooldown
		}
	}

	t.accumulatedMs += t.cfg.IncrementMs

	if t.state != Accumulating || t.accumulatedMs <= t.cfg.ThresholdMs {
		return false
	}
	if t.slot.Held() || t.inFlight.Load() {
		return false
	}

	seconds := math.Round(float64(t.accumulatedMs)/100) / 10
	t.accumulatedMs = t.cfg.SentinelMs
	t.state = Pending
	t.issue(seconds)
	return true
}

func (t *Timer) issue(seconds float64) {
	t.requests++
	t.inFlight.Store(true)
	ticket := t.slot.Ticket()
	label := t.cfg.Label

	t.logger.Info("gesture hold triggered analysis",
		zap.String("label", label),
		zap.Float64("seconds", seconds))

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.inFlight.Store(false)

		rec := t.resolver.Resolve(t.ctx, label, seconds)
		if !t.slot.Publish(ticket, rec) {
			t.logger.Debug("dropped stale spell record", zap.String("name", rec.Name))
			return
		}
		if t.OnResolve != nil {
			t.OnResolve(rec, seconds)
		}
	}()
}

// State returns the current state.
func (t *Timer) State() State {
	return t.state
}

// AccumulatedMs returns the current hold accumulator.
func (t *Timer) AccumulatedMs() int64 {
	return t.accumulatedMs
}

// Requests returns how many requests the timer has issued.
func (t *Timer) Requests() int {
	return t.requests
}

// InFlight reports whether a request is outstanding.
func (t *Timer) InFlight() bool {
	return t.inFlight.Load()
}

// Wait blocks until any outstanding request goroutine has returned.
func (t *Timer) Wait() {
	t.wg.Wait()
}

// Close closes the slot, cancels any outstanding request and waits for the
// request goroutine to exit.
func (t *Timer) Close() {
	t.slot.Close()
	t.cancel()
	t.wg.Wait()
}
