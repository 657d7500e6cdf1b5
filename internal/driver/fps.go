package driver

import "time"

// FPSCounter counts frames over a fixed window and publishes the count when
// the window closes.
type FPSCounter struct {
	window time.Duration
	start  time.Time
	frames int
	fps    int
}

// NewFPSCounter creates a counter over window. Zero means one second.
func NewFPSCounter(window time.Duration) *FPSCounter {
	if window <= 0 {
		window = time.Second
	}
	return &FPSCounter{window: window}
}

// Tick records one frame at now and reports whether a new value was published.
func (c *FPSCounter) Tick(now time.Time) bool {
	if c.start.IsZero() {
		c.start = now
	}
	c.frames++
	if now.Sub(c.start) < c.window {
		return false
	}
	c.fps = c.frames
	c.frames = 0
	c.start = now
	return true
}

// FPS returns the last published value.
func (c *FPSCounter) FPS() int {
	return c.fps
}
