package driver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ayusman/exoform/internal/formation"
	"github.com/ayusman/exoform/internal/gesture"
	"github.com/ayusman/exoform/internal/hand"
	"github.com/ayusman/exoform/internal/metrics"
	"github.com/ayusman/exoform/internal/render"
	"github.com/ayusman/exoform/internal/spell"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// fakeSource is a LandmarkSource whose frames advance only when told to.
type fakeSource struct {
	mu     sync.Mutex
	stamp  int64
	has    bool
	sample *hand.Sample
	err    error
	calls  int

	// afterTimestamp runs between FrameTimestamp and Detect, like a grab
	// landing mid-tick.
	afterTimestamp func()
}

func (s *fakeSource) FrameTimestamp() (int64, bool) {
	s.mu.Lock()
	stamp, has, hook := s.stamp, s.has, s.afterTimestamp
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return stamp, has
}

func (s *fakeSource) Detect() (*hand.Sample, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.stamp, s.err
	}
	return s.sample, s.stamp, nil
}

// advance publishes a new frame showing sample (nil for no hand).
func (s *fakeSource) advance(sample *hand.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp += 33
	s.has = true
	s.sample = sample
}

func (s *fakeSource) detectCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type countingResolver struct {
	mu    sync.Mutex
	calls int
}

func (r *countingResolver) Resolve(context.Context, string, float64) spell.Record {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return spell.Fallback()
}

type fixture struct {
	driver   *Driver
	source   *fakeSource
	surface  *render.Recorder
	timer    *gesture.Timer
	slot     *gesture.Slot
	resolver *countingResolver
	sched    *ManualScheduler
	clock    *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := formation.DefaultConfig()
	cfg.DecorCount = 10
	cfg.DustCount = 20
	engine, err := formation.NewEngine(cfg)
	require.NoError(t, err)

	f := &fixture{
		source:   &fakeSource{},
		surface:  render.NewRecorder(),
		slot:     gesture.NewSlot(),
		resolver: &countingResolver{},
		sched:    NewManualScheduler(),
		clock:    &fakeClock{now: time.Unix(1000, 0)},
	}
	f.timer = gesture.NewTimer(gesture.DefaultConfig(), f.resolver, f.slot, nil)
	t.Cleanup(f.timer.Close)

	f.driver, err = New(Options{
		Source:    f.source,
		Engine:    engine,
		Timer:     f.timer,
		Surface:   f.surface,
		Scheduler: f.sched,
		Metrics:   metrics.New(),
		Clock:     f.clock.Now,
	})
	require.NoError(t, err)
	return f
}

func palm() *hand.Sample {
	s := hand.OpenPalmSample()
	return &s
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestDriver_RendersOncePerTick(t *testing.T) {
	f := newFixture(t)

	for i := 1; i <= 5; i++ {
		frame := f.driver.Step()
		assert.Equal(t, uint64(i), frame.Tick)
		assert.Equal(t, i, f.surface.Renders())
	}
	assert.Equal(t, 0, f.source.detectCalls(), "no frame yet, no detection")
}

func TestDriver_DetectsOnlyNewFrames(t *testing.T) {
	f := newFixture(t)

	f.source.advance(palm())
	for i := 0; i < 5; i++ {
		f.driver.Step()
	}
	assert.Equal(t, 1, f.source.detectCalls())
	assert.Equal(t, int64(gesture.TickIncrementMs), f.timer.AccumulatedMs(),
		"the timer advances once per new frame")

	f.source.advance(palm())
	f.driver.Step()
	assert.Equal(t, 2, f.source.detectCalls())
	assert.Equal(t, int64(2*gesture.TickIncrementMs), f.timer.AccumulatedMs())
}

func TestDriver_FrameGrabbedMidTickCountsOnce(t *testing.T) {
	f := newFixture(t)

	f.source.advance(palm())
	grabbed := false
	f.source.afterTimestamp = func() {
		if !grabbed {
			grabbed = true
			f.source.advance(palm())
		}
	}

	// The first tick sees the old stamp but detects on the newer frame.
	f.driver.Step()
	assert.Equal(t, 1, f.source.detectCalls())
	assert.Equal(t, int64(gesture.TickIncrementMs), f.timer.AccumulatedMs())

	// That newer frame is not detected or timed again.
	f.driver.Step()
	assert.Equal(t, 1, f.source.detectCalls())
	assert.Equal(t, int64(gesture.TickIncrementMs), f.timer.AccumulatedMs())

	f.source.advance(palm())
	f.driver.Step()
	assert.Equal(t, 2, f.source.detectCalls())
	assert.Equal(t, int64(2*gesture.TickIncrementMs), f.timer.AccumulatedMs())
}

func TestDriver_HoldTriggersOneRequest(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 400; i++ {
		f.source.advance(palm())
		f.driver.Step()
	}
	f.timer.Wait()

	assert.Equal(t, 1, f.timer.Requests())
	f.resolver.mu.Lock()
	assert.Equal(t, 1, f.resolver.calls)
	f.resolver.mu.Unlock()

	rec, ok := f.slot.Get()
	require.True(t, ok)
	assert.Equal(t, spell.Fallback(), rec)
}

func TestDriver_HandLoss(t *testing.T) {
	f := newFixture(t)

	var changes []bool
	f.driver.OnHandChange = func(detected bool) { changes = append(changes, detected) }

	for i := 0; i < 50; i++ {
		f.source.advance(palm())
		f.driver.Step()
	}
	active := f.driver.Status()
	require.True(t, active.HandDetected)
	require.True(t, active.Estimate.Active)
	formed := active.Transition

	f.source.advance(nil)
	f.driver.Step()

	st := f.driver.Status()
	assert.False(t, st.HandDetected)
	assert.False(t, st.Estimate.Active)
	assert.Equal(t, active.Estimate.Position, st.Estimate.Position, "position is frozen")
	assert.Equal(t, active.Estimate.Orientation, st.Estimate.Orientation, "orientation is frozen")
	assert.Less(t, st.Transition, formed)
	assert.Equal(t, int64(0), f.timer.AccumulatedMs())
	assert.Equal(t, "idle", st.Gesture)
	assert.Equal(t, []bool{true, false}, changes)
}

func TestDriver_DetectionErrorKeepsEstimate(t *testing.T) {
	f := newFixture(t)

	f.source.advance(palm())
	f.driver.Step()
	before := f.driver.Status()

	f.source.mu.Lock()
	f.source.err = errors.New("inference failed")
	f.source.mu.Unlock()
	f.source.advance(nil)
	f.driver.Step()

	after := f.driver.Status()
	assert.Equal(t, before.Estimate, after.Estimate)
	assert.True(t, after.HandDetected)
	assert.Equal(t, int64(gesture.TickIncrementMs), f.timer.AccumulatedMs(), "timer not driven on error")
	assert.Equal(t, 2, f.surface.Renders())
}

func TestDriver_TransitionMonotonicWhileActive(t *testing.T) {
	f := newFixture(t)

	prev := float32(-1)
	for i := 0; i < 300; i++ {
		f.source.advance(palm())
		frame := f.driver.Step()
		require.GreaterOrEqual(t, frame.Transition, prev)
		require.LessOrEqual(t, frame.Transition, float32(1))
		prev = frame.Transition
	}
}

func TestDriver_FPS(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 50; i++ {
		f.driver.Step()
		f.clock.Add(20 * time.Millisecond)
	}
	assert.Equal(t, 0, f.driver.Status().FPS)

	// The 51st frame lands exactly one second after the first.
	f.driver.Step()
	assert.Equal(t, 51, f.driver.Status().FPS)
}

func TestDriver_Resize(t *testing.T) {
	f := newFixture(t)

	f.driver.Resize(1024, 768)
	f.driver.Resize(0, 100)
	assert.Equal(t, render.Viewport{}, f.surface.Viewport(), "applied on the next tick")

	f.driver.Step()
	assert.Equal(t, render.Viewport{Width: 1024, Height: 768}, f.surface.Viewport())
}

func TestDriver_ManualScheduling(t *testing.T) {
	f := newFixture(t)

	f.driver.Start()
	assert.True(t, f.driver.Running())
	assert.Equal(t, 10, f.sched.Run(10))
	assert.Equal(t, 10, f.surface.Renders())

	f.driver.Stop()
	assert.False(t, f.driver.Running())
	assert.False(t, f.sched.Pending())
	assert.Equal(t, 0, f.sched.Run(10))
	assert.Equal(t, 10, f.surface.Renders())
}

func TestDriver_TickerScheduling(t *testing.T) {
	cfg := formation.DefaultConfig()
	cfg.DecorCount = 4
	cfg.DustCount = 4
	engine, err := formation.NewEngine(cfg)
	require.NoError(t, err)

	timer := gesture.NewTimer(gesture.DefaultConfig(), &countingResolver{}, gesture.NewSlot(), nil)
	defer timer.Close()

	surface := render.NewRecorder()
	d, err := New(Options{
		Source:    &fakeSource{},
		Engine:    engine,
		Timer:     timer,
		Surface:   surface,
		Scheduler: NewTickerScheduler(500),
	})
	require.NoError(t, err)

	d.Start()
	require.Eventually(t, func() bool { return surface.Renders() >= 5 }, 2*time.Second, time.Millisecond)
	d.Stop()

	n := surface.Renders()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, surface.Renders(), "no ticks after Stop")
}
