// Package tracker runs the camera grab loop and serves the latest frame to
// the animation driver for hand detection.
package tracker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/exoform/internal/capture"
	"github.com/ayusman/exoform/internal/detector"
	"github.com/ayusman/exoform/internal/hand"
)

var (
	// ErrAlreadyRunning is returned by Start when the grab loop is running.
	ErrAlreadyRunning = errors.New("tracker already running")
	// ErrNoFrame is returned by Detect before the first frame or after Stop.
	ErrNoFrame = errors.New("no frame available")
)

// Starter is implemented by detectors that can load their model eagerly.
type Starter interface {
	Start() error
}

// Tracker grabs frames on its own goroutine and keeps only the newest one.
// Detect runs on the caller's goroutine against a copy of that frame.
type Tracker struct {
	camera   capture.Camera
	detector detector.Detector
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	latest  *gocv.Mat
	stamp   int64
	hasData bool
	started time.Time
	stopCh  chan struct{}
	done    chan struct{}
}

// New creates a Tracker over a camera and a detector.
func New(camera capture.Camera, det detector.Detector, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		camera:   camera,
		detector: det,
		logger:   logger,
		now:      time.Now,
	}
}

// Start opens the camera, loads the detector model and starts the grab loop.
// Any failure leaves the tracker stopped.
func (t *Tracker) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopCh != nil {
		return ErrAlreadyRunning
	}

	if err := t.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	if s, ok := t.detector.(Starter); ok {
		if err := s.Start(); err != nil {
			t.camera.Close()
			return fmt.Errorf("start detector: %w", err)
		}
	}

	t.started = t.now()
	t.stamp = 0
	t.hasData = false
	t.stopCh = make(chan struct{})
	t.done = make(chan struct{})

	interval := time.Second / time.Duration(max(t.camera.FPS(), 1))
	go t.grabLoop(interval, t.stopCh, t.done)

	t.logger.Info("tracker started", zap.Duration("interval", interval))
	return nil
}

// Stop halts the grab loop and releases the camera and the detector.
func (t *Tracker) Stop() error {
	t.mu.Lock()
	stopCh, done := t.stopCh, t.done
	t.stopCh, t.done = nil, nil
	t.mu.Unlock()

	if stopCh == nil {
		return nil
	}
	close(stopCh)
	<-done

	var errs []error
	if err := t.camera.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close camera: %w", err))
	}
	if err := t.detector.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close detector: %w", err))
	}

	t.mu.Lock()
	if t.latest != nil {
		t.latest.Close()
		t.latest = nil
	}
	t.hasData = false
	t.mu.Unlock()

	t.logger.Info("tracker stopped")
	return errors.Join(errs...)
}

// Running reports whether the grab loop is active.
func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopCh != nil
}

func (t *Tracker) grabLoop(interval time.Duration, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame, err := t.camera.ReadFrame()
			if err != nil {
				// Log the first failure of a run and then every 100th.
				if failures%100 == 0 {
					t.logger.Warn("error reading frame", zap.Error(err), zap.Int("failures", failures+1))
				}
				failures++
				continue
			}
			failures = 0
			t.store(frame)
		}
	}
}

// store swaps in a new latest frame with a strictly increasing timestamp.
func (t *Tracker) store(frame *gocv.Mat) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts := t.now().Sub(t.started).Milliseconds()
	if t.hasData && ts <= t.stamp {
		ts = t.stamp + 1
	}
	if t.latest != nil {
		t.latest.Close()
	}
	t.latest = frame
	t.stamp = ts
	t.hasData = true
}

// FrameTimestamp returns the timestamp of the newest frame.
func (t *Tracker) FrameTimestamp() (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stamp, t.hasData
}

// Detect runs the detector on the newest frame and returns the first hand, or
// nil when none is visible, along with that frame's timestamp. The frame and
// its timestamp are taken together so a grab landing after FrameTimestamp is
// reported under its own stamp.
func (t *Tracker) Detect() (*hand.Sample, int64, error) {
	frame, ts, ok := t.cloneLatest()
	if !ok {
		return nil, 0, ErrNoFrame
	}
	defer frame.Close()

	hands, err := t.detector.Detect(&frame, ts)
	if err != nil {
		return nil, ts, err
	}
	return detector.First(hands), ts, nil
}

// LatestJPEG encodes the newest frame for the preview stream.
func (t *Tracker) LatestJPEG() ([]byte, int64, bool) {
	frame, ts, ok := t.cloneLatest()
	if !ok {
		return nil, 0, false
	}
	defer frame.Close()

	buf, err := gocv.IMEncode(".jpg", frame)
	if err != nil {
		return nil, 0, false
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), ts, true
}

// cloneLatest copies the newest frame and its timestamp under one lock.
func (t *Tracker) cloneLatest() (gocv.Mat, int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.latest == nil || t.latest.Empty() {
		return gocv.Mat{}, 0, false
	}
	return t.latest.Clone(), t.stamp, true
}
