// Package driver runs the per-frame loop: detect, estimate, time the gesture,
// animate and render, once per scheduled tick.
package driver

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/exoform/internal/formation"
	"github.com/ayusman/exoform/internal/gesture"
	"github.com/ayusman/exoform/internal/hand"
	"github.com/ayusman/exoform/internal/metrics"
	"github.com/ayusman/exoform/internal/pose"
	"github.com/ayusman/exoform/internal/render"
)

// LandmarkSource yields the newest frame's timestamp and runs detection on
// the newest frame. Detect reports the timestamp of the frame it actually
// examined, which may be newer than the last FrameTimestamp. The sample is nil
// without error when no hand is visible.
type LandmarkSource interface {
	FrameTimestamp() (int64, bool)
	Detect() (sample *hand.Sample, timestampMs int64, err error)
}

// Status is the driver's externally visible readout.
type Status struct {
	FPS          int           `json:"fps"`
	HandDetected bool          `json:"handDetected"`
	Ticks        uint64        `json:"ticks"`
	Transition   float32       `json:"transition"`
	Estimate     pose.Estimate `json:"estimate"`
	Gesture      string        `json:"gesture"`
}

// Options holds a Driver's collaborators. Source, Engine, Timer, Surface and
// Scheduler are required.
type Options struct {
	Source    LandmarkSource
	Estimator *pose.Estimator
	Engine    *formation.Engine
	Timer     *gesture.Timer
	Surface   render.Surface
	Scheduler Scheduler
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Clock     func() time.Time
	FPSWindow time.Duration
}

// Driver owns one session's frame loop. Step must only run on the scheduler's
// goroutine; Status, Resize, Start and Stop are safe from any goroutine.
type Driver struct {
	source    LandmarkSource
	estimator *pose.Estimator
	engine    *formation.Engine
	timer     *gesture.Timer
	surface   render.Surface
	sched     Scheduler
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	fps       *FPSCounter

	lastStamp    int64
	seenFrame    bool
	estimate     pose.Estimate
	handDetected bool
	ticks        uint64

	running atomic.Bool

	mu            sync.Mutex
	status        Status
	pendingResize *render.Viewport

	// OnHandChange is called on the tick goroutine when the hand appears or
	// disappears.
	OnHandChange func(detected bool)
}

// New creates a Driver from opts.
func New(opts Options) (*Driver, error) {
	if opts.Source == nil || opts.Engine == nil || opts.Timer == nil || opts.Surface == nil || opts.Scheduler == nil {
		return nil, errors.New("driver: source, engine, timer, surface and scheduler are required")
	}
	if opts.Estimator == nil {
		opts.Estimator = pose.NewEstimator()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Driver{
		source:    opts.Source,
		estimator: opts.Estimator,
		engine:    opts.Engine,
		timer:     opts.Timer,
		surface:   opts.Surface,
		sched:     opts.Scheduler,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		now:       opts.Clock,
		fps:       NewFPSCounter(opts.FPSWindow),
		estimate:  opts.Estimator.Current(),
	}, nil
}

// Start schedules the first tick. Each tick schedules the next until Stop.
func (d *Driver) Start() {
	if d.running.Swap(true) {
		return
	}
	d.sched.RequestTick(d.tick)
}

// Stop cancels scheduling. When the scheduler exposes Done, Stop waits for an
// in-progress tick to finish; it must not be called from within a tick.
func (d *Driver) Stop() {
	if !d.running.Swap(false) {
		return
	}
	d.sched.Cancel()
	if w, ok := d.sched.(interface{ Done() <-chan struct{} }); ok {
		<-w.Done()
	}
}

// Running reports whether the loop is scheduled.
func (d *Driver) Running() bool {
	return d.running.Load()
}

func (d *Driver) tick() {
	if !d.running.Load() {
		return
	}
	d.Step()
	if d.running.Load() {
		d.sched.RequestTick(d.tick)
	}
}

// Resize queues a viewport change for the next tick.
func (d *Driver) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	d.mu.Lock()
	d.pendingResize = &render.Viewport{Width: width, Height: height}
	d.mu.Unlock()
}

// Status returns the readout published by the last tick.
func (d *Driver) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// Step runs one tick and returns the rendered frame.
func (d *Driver) Step() *formation.Frame {
	start := d.now()

	if d.fps.Tick(start) && d.metrics != nil {
		d.metrics.FPS.Set(float64(d.fps.FPS()))
	}

	d.mu.Lock()
	resize := d.pendingResize
	d.pendingResize = nil
	d.mu.Unlock()
	if resize != nil {
		d.engine.Resize(resize.Width, resize.Height)
		d.surface.Resize(resize.Width, resize.Height)
	}

	if stamp, ok := d.source.FrameTimestamp(); ok && (!d.seenFrame || stamp != d.lastStamp) {
		d.lastStamp, d.seenFrame = stamp, true
		d.processFrame()
	}

	frame := d.engine.Update(d.estimate)
	d.surface.Render(frame)
	d.ticks++

	d.mu.Lock()
	d.status = Status{
		FPS:          d.fps.FPS(),
		HandDetected: d.handDetected,
		Ticks:        d.ticks,
		Transition:   frame.Transition,
		Estimate:     d.estimate,
		Gesture:      d.timer.State().String(),
	}
	d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.Ticks.Inc()
		d.metrics.Transition.Set(float64(frame.Transition))
		d.metrics.TickDuration.Observe(d.now().Sub(start).Seconds())
	}
	return frame
}

// processFrame runs detection and estimation for a new frame, then drives the
// gesture timer. A detection error leaves the estimate and timer untouched.
func (d *Driver) processFrame() {
	sample, stamp, err := d.source.Detect()
	if err != nil {
		d.logger.Warn("hand detection failed", zap.Int64("timestamp_ms", d.lastStamp), zap.Error(err))
		d.metrics.ObserveDetection(metrics.DetectionError)
		return
	}
	// A frame grabbed after FrameTimestamp was the one examined; it must not
	// count as new on the next tick.
	d.lastStamp = stamp

	degenerate := d.estimator.DegenerateFrames()
	d.estimate = d.estimator.Update(sample)
	if d.estimator.DegenerateFrames() != degenerate {
		d.logger.Debug("degenerate palm geometry, keeping orientation", zap.Int64("timestamp_ms", stamp))
		if d.metrics != nil {
			d.metrics.DegenerateFrames.Inc()
		}
	}

	detected := sample != nil
	if detected {
		d.metrics.ObserveDetection(metrics.DetectionHand)
	} else {
		d.metrics.ObserveDetection(metrics.DetectionNone)
	}
	if detected != d.handDetected {
		d.handDetected = detected
		if d.OnHandChange != nil {
			d.OnHandChange(detected)
		}
	}

	d.timer.Tick(d.estimate.Active)
}
