// Package pose turns one frame's hand landmarks into a rigid-body pose estimate
// (palm center position plus palm orientation) that drives the visual scene.
package pose

import (
	"github.com/ayusman/exoform/internal/geom"
	"github.com/ayusman/exoform/internal/hand"
)

// Estimate is the derived pose of the tracked hand.
//
// Position is the palm center in normalized image space. Orientation is derived
// from world-space landmarks. When Active is false the position and orientation
// hold their last values and must not be treated as meaningful.
type Estimate struct {
	Position    geom.Vec3 `json:"position"`
	Orientation geom.Quat `json:"orientation"`
	Active      bool      `json:"active"`
}

// Initial returns the estimate before any hand has been seen: centered,
// unrotated and inactive.
func Initial() Estimate {
	return Estimate{
		Position:    geom.V3(0.5, 0.5, 0),
		Orientation: geom.IdentityQuat(),
	}
}

// Estimator converts landmark samples into pose estimates. It keeps the last
// estimate so that absent hands and degenerate frames can carry values over.
// It is not safe for concurrent use; the frame loop owns it.
type Estimator struct {
	current    Estimate
	degenerate int
}

// NewEstimator creates an Estimator holding the Initial estimate.
func NewEstimator() *Estimator {
	return &Estimator{current: Initial()}
}

// Current returns the most recent estimate.
func (e *Estimator) Current() Estimate {
	return e.current
}

// DegenerateFrames returns how many frames had a hand whose palm orientation
// could not be resolved.
func (e *Estimator) DegenerateFrames() int {
	return e.degenerate
}

// Update computes the estimate for one frame. A nil sample means no hand was
// detected: the estimate goes inactive and keeps its position and orientation.
func (e *Estimator) Update(s *hand.Sample) Estimate {
	if s == nil {
		e.current.Active = false
		return e.current
	}

	if pos, ok := Centroid(&s.Image); ok {
		e.current.Position = pos
	}

	if q, ok := Orientation(&s.World); ok {
		e.current.Orientation = q
	} else {
		e.degenerate++
	}

	e.current.Active = true
	return e.current
}

// Centroid returns the mean of the wrist, index MCP and pinky MCP points.
// It reports false if any anchor coordinate is not finite.
func Centroid(l *hand.Landmarks) (geom.Vec3, bool) {
	w, i, p := l.Anchors()
	if !w.IsFinite() || !i.IsFinite() || !p.IsFinite() {
		return geom.Vec3{}, false
	}
	return geom.Vec3{
		X: float32((w.X + i.X + p.X) / 3),
		Y: float32((w.Y + i.Y + p.Y) / 3),
		Z: float32((w.Z + i.Z + p.Z) / 3),
	}, true
}

// Basis builds the palm frame from world-space anchors: Y points from the wrist
// toward the index MCP, Z points out of the palm and X completes a right-handed
// orthonormal basis. It reports false when the anchors are collinear or coincide.
func Basis(l *hand.Landmarks) (xAxis, yAxis, zAxis geom.Vec3, ok bool) {
	w, i, p := l.Anchors()
	wrist, index, pinky := toVec(w), toVec(i), toVec(p)

	v1, ok1 := index.Sub(wrist).Normal()
	v2, ok2 := pinky.Sub(wrist).Normal()
	if !ok1 || !ok2 {
		return
	}

	n, okN := v1.Cross(v2).Normal()
	if !okN {
		return
	}

	zAxis = n.Negate()
	yAxis = v1
	xAxis, ok = yAxis.Cross(zAxis).Normal()
	return
}

// Orientation returns the unit quaternion of the palm basis.
func Orientation(l *hand.Landmarks) (geom.Quat, bool) {
	x, y, z, ok := Basis(l)
	if !ok {
		return geom.Quat{}, false
	}
	q := geom.QuatFromBasis(x, y, z).Normalized()
	if !q.IsFinite() {
		return geom.Quat{}, false
	}
	return q, true
}

func toVec(p hand.Point3D) geom.Vec3 {
	return geom.Vec3{X: float32(p.X), Y: float32(p.Y), Z: float32(p.Z)}
}
