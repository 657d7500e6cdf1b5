// Package hand defines the hand landmark types shared by the detector, the
// tracker and the pose estimator.
package hand

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns p - o.
func (p Point3D) Sub(o Point3D) Point3D {
	return Point3D{X: p.X - o.X, Y: p.Y - o.Y, Z: p.Z - o.Z}
}

// Distance returns the Euclidean distance between p and o.
func (p Point3D) Distance(o Point3D) float64 {
	d := p.Sub(o)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

// IsFinite reports whether none of the coordinates are NaN or infinite.
func (p Point3D) IsFinite() bool {
	for _, f := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Landmarks is the ordered set of 21 points for one hand in one coordinate space.
type Landmarks [NumLandmarks]Point3D

// Anchors returns the wrist, index MCP and pinky MCP points, the stable palm
// triangle used for position and orientation.
func (l *Landmarks) Anchors() (wrist, index, pinky Point3D) {
	return l[Wrist], l[IndexMCP], l[PinkyMCP]
}

// Sample is one frame's detection result for a single hand.
//
// Image points are normalized to the frame: x and y in [0,1] with depth relative
// to the wrist. World points are metric (meters) around the hand's center.
type Sample struct {
	Image      Landmarks `json:"landmarks"`
	World      Landmarks `json:"worldLandmarks"`
	Handedness string    `json:"handedness"` // "Left" or "Right"
	Score      float64   `json:"score"`
}
