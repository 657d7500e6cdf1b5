package gesture

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ayusman/exoform/internal/spell"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

var testRecord = spell.Record{
	Name:        "Aegis of the Digital Void",
	Type:        "Defensive",
	Description: "A lattice of light.",
	EnergyLevel: "3,000 kWh",
	ColorHex:    "#00FFCC",
}

// recordingResolver counts calls and optionally blocks until released.
type recordingResolver struct {
	mu      sync.Mutex
	calls   []float64
	labels  []string
	release chan struct{}
	rec     spell.Record
}

func (r *recordingResolver) Resolve(ctx context.Context, label string, seconds float64) spell.Record {
	r.mu.Lock()
	r.calls = append(r.calls, seconds)
	r.labels = append(r.labels, label)
	r.mu.Unlock()

	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return spell.Fallback()
		}
	}
	return r.rec
}

func (r *recordingResolver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func tickN(timer *Timer, n int, active bool) int {
	issued := 0
	for i := 0; i < n; i++ {
		if timer.Tick(active) {
			issued++
		}
	}
	return issued
}

func TestTimer_ThresholdScenario(t *testing.T) {
	res := &recordingResolver{rec: testRecord}
	slot := NewSlot()
	timer := NewTimer(DefaultConfig(), res, slot, nil)
	defer timer.Close()

	// 187 * 16 = 2992, not yet past the threshold.
	assert.Equal(t, 0, tickN(timer, 187, true))
	assert.Equal(t, Accumulating, timer.State())
	assert.Equal(t, int64(2992), timer.AccumulatedMs())

	// Tick 188 reaches 3008.
	assert.True(t, timer.Tick(true))
	assert.Equal(t, Pending, timer.State())
	assert.Equal(t, int64(CooldownSentinelMs), timer.AccumulatedMs())
	assert.Equal(t, 1, timer.Requests())

	timer.Wait()
	require.Equal(t, 1, res.count())
	assert.Equal(t, 3.0, res.calls[0])
	assert.Equal(t, spell.DefaultLabel, res.labels[0])

	rec, ok := slot.Get()
	require.True(t, ok)
	assert.Equal(t, testRecord, rec)

	timer.Tick(true)
	assert.Equal(t, Cooldown, timer.State())
}

func TestTimer_NoSecondRequestWhilePending(t *testing.T) {
	res := &recordingResolver{rec: testRecord, release: make(chan struct{})}
	timer := NewTimer(DefaultConfig(), res, NewSlot(), nil)
	defer timer.Close()

	issued := tickN(timer, 5000, true)
	assert.Equal(t, 1, issued)
	assert.Equal(t, Pending, timer.State())
	assert.True(t, timer.InFlight())

	close(res.release)
	timer.Wait()

	// The record is now held, so a long hold still does not re-trigger.
	assert.Equal(t, 0, tickN(timer, 5000, true))
	assert.Equal(t, 1, res.count())
}

func TestTimer_InFlightBlocksNewHold(t *testing.T) {
	res := &recordingResolver{rec: testRecord, release: make(chan struct{})}
	slot := NewSlot()
	timer := NewTimer(DefaultConfig(), res, slot, nil)
	defer timer.Close()

	require.Equal(t, 1, tickN(timer, 200, true))

	// Hand leaves, the shell clears the slot, hand returns and holds again.
	timer.Tick(false)
	slot.Clear()
	assert.Equal(t, 0, tickN(timer, 400, true))

	close(res.release)
	timer.Wait()

	// The late result belonged to the ended hold and is dropped.
	assert.False(t, slot.Held())

	assert.Equal(t, 1, tickN(timer, 1, true))
	timer.Wait()
	assert.Equal(t, 2, res.count())
	assert.True(t, slot.Held())
}

func TestTimer_ResetOnInactive(t *testing.T) {
	for _, n := range []int{1, 50, 187, 188, 1000} {
		timer := NewTimer(DefaultConfig(), &recordingResolver{rec: testRecord}, NewSlot(), nil)
		tickN(timer, n, true)
		timer.Tick(false)
		assert.Equal(t, int64(0), timer.AccumulatedMs(), "after %d active ticks", n)
		assert.Equal(t, Idle, timer.State())
		timer.Close()
	}
}

func TestTimer_ToggleScenario(t *testing.T) {
	timer := NewTimer(DefaultConfig(), &recordingResolver{rec: testRecord}, NewSlot(), nil)
	defer timer.Close()

	tickN(timer, 100, true)
	assert.Equal(t, int64(1600), timer.AccumulatedMs())

	timer.Tick(true)
	assert.Equal(t, int64(1616), timer.AccumulatedMs())
	timer.Tick(false)
	assert.Equal(t, int64(0), timer.AccumulatedMs())
	timer.Tick(true)
	assert.Equal(t, int64(TickIncrementMs), timer.AccumulatedMs())
	assert.Equal(t, Accumulating, timer.State())
}

func TestTimer_FallbackOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		analyzer spell.AnalyzerFunc
	}{
		{"error", func(context.Context, string, float64) (spell.Record, error) {
			return spell.Record{}, errors.New("network interference")
		}},
		{"panic", func(context.Context, string, float64) (spell.Record, error) {
			panic("thrown")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := NewSlot()
			timer := NewTimer(DefaultConfig(), spell.NewResolver(tt.analyzer, 0, nil), slot, nil)
			defer timer.Close()

			var resolved []spell.Record
			var mu sync.Mutex
			timer.OnResolve = func(rec spell.Record, _ float64) {
				mu.Lock()
				resolved = append(resolved, rec)
				mu.Unlock()
			}

			require.Equal(t, 1, tickN(timer, 188, true))
			timer.Wait()

			rec, ok := slot.Get()
			require.True(t, ok)
			assert.Equal(t, spell.Fallback(), rec)
			mu.Lock()
			assert.Equal(t, []spell.Record{spell.Fallback()}, resolved)
			mu.Unlock()
		})
	}
}

func TestTimer_CloseDropsLateResult(t *testing.T) {
	res := &recordingResolver{rec: testRecord, release: make(chan struct{})}
	slot := NewSlot()
	timer := NewTimer(DefaultConfig(), res, slot, nil)

	called := false
	timer.OnResolve = func(spell.Record, float64) { called = true }

	require.Equal(t, 1, tickN(timer, 188, true))
	timer.Close()

	assert.False(t, slot.Held())
	assert.True(t, slot.Closed())
	assert.False(t, called)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.SentinelMs = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.IncrementMs = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.Label = ""
	assert.Error(t, bad.Validate())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "State(9)", State(9).String())
}
