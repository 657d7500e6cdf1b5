package hand

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func TestPoint3D_Distance(t *testing.T) {
	a := Point3D{X: 10.0, Y: 20.0, Z: 5.0}
	b := Point3D{X: 13.0, Y: 24.0, Z: 5.0}

	if got := a.Distance(b); math.Abs(got-5.0) > epsilon {
		t.Errorf("Distance() = %f, want 5.0", got)
	}
}

func TestPoint3D_IsFinite(t *testing.T) {
	tests := []struct {
		name string
		p    Point3D
		want bool
	}{
		{"regular point", Point3D{X: 0.5, Y: 0.5, Z: 0}, true},
		{"NaN x", Point3D{X: math.NaN()}, false},
		{"infinite z", Point3D{Z: math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.IsFinite(); got != tt.want {
				t.Errorf("IsFinite() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPresets_WorldCenteredOnMiddleMCP(t *testing.T) {
	for name, s := range map[string]Sample{
		"thumbs up": ThumbsUpSample(),
		"open palm": OpenPalmSample(),
	} {
		t.Run(name, func(t *testing.T) {
			mid := s.World[MiddleMCP]
			if mid.Distance(Point3D{}) > epsilon {
				t.Errorf("expected middle MCP at world origin, got %+v", mid)
			}

			// Wrist sits below the knuckles in both presets.
			if s.World[Wrist].Y <= 0 {
				t.Errorf("expected wrist world Y > 0 (image Y grows downward), got %f", s.World[Wrist].Y)
			}
		})
	}
}

func TestLandmarks_Anchors(t *testing.T) {
	s := OpenPalmSample()
	w, i, p := s.Image.Anchors()

	if w != s.Image[Wrist] || i != s.Image[IndexMCP] || p != s.Image[PinkyMCP] {
		t.Error("Anchors() did not return wrist, index MCP and pinky MCP")
	}
}
