// Package render publishes formation frames to whatever draws them.
//
// The production surface is a WebSocket Hub that streams binary frames to a
// browser client; the client owns bloom and tone mapping.
package render

import (
	"sync"

	"github.com/ayusman/exoform/internal/formation"
)

// Surface consumes one frame per tick and follows viewport changes.
// Render must not retain f or its batches after returning.
type Surface interface {
	Render(f *formation.Frame)
	Resize(width, height int)
}

// Viewport is a surface size in pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Multi fans a frame out to several surfaces in order.
type Multi []Surface

// Render implements Surface.
func (m Multi) Render(f *formation.Frame) {
	for _, s := range m {
		s.Render(f)
	}
}

// Resize implements Surface.
func (m Multi) Resize(width, height int) {
	for _, s := range m {
		s.Resize(width, height)
	}
}

// Recorder is a Surface that remembers what it was asked to draw.
type Recorder struct {
	mu         sync.Mutex
	renders    int
	last       Snapshot
	viewport   Viewport
	resizes    int
	transforms map[formation.Mesh]int
}

// Snapshot is a copy of the scalar parts of a frame.
type Snapshot struct {
	Tick       uint64
	Time       float32
	Transition float32
	Light      formation.Light
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{transforms: make(map[formation.Mesh]int)}
}

// Render implements Surface.
func (r *Recorder) Render(f *formation.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.renders++
	r.last = Snapshot{Tick: f.Tick, Time: f.Time, Transition: f.Transition, Light: f.Light}
	for _, b := range f.Batches {
		r.transforms[b.Mesh] = len(b.Transforms)
	}
}

// Resize implements Surface.
func (r *Recorder) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewport = Viewport{Width: width, Height: height}
	r.resizes++
}

// Renders returns the number of Render calls.
func (r *Recorder) Renders() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renders
}

// Last returns the most recently rendered frame's scalars.
func (r *Recorder) Last() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Instances returns the transform count last seen for mesh.
func (r *Recorder) Instances(mesh formation.Mesh) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transforms[mesh]
}

// Viewport returns the last size passed to Resize.
func (r *Recorder) Viewport() Viewport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewport
}
