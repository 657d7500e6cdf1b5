package formation

import (
	"math/rand/v2"

	"github.com/chewxy/math32"

	"github.com/ayusman/exoform/internal/geom"
)

// ScatterCloud returns n points spread uniformly over directions, at a radius
// drawn uniformly from [minR, maxR]. The polar angle uses acos(2v-1) so points do
// not bunch at the poles.
func ScatterCloud(rng *rand.Rand, n int, minR, maxR float32) []geom.Vec3 {
	points := make([]geom.Vec3, n)
	for i := range points {
		theta := 2 * math32.Pi * rng.Float32()
		phi := math32.Acos(2*rng.Float32() - 1)
		r := minR + rng.Float32()*(maxR-minR)

		points[i] = geom.Vec3{
			X: r * math32.Sin(phi) * math32.Cos(theta),
			Y: r * math32.Sin(phi) * math32.Sin(theta),
			Z: r * math32.Cos(phi),
		}
	}
	return points
}

// stroke is one piece of glyph geometry, parameterized over t in [0,1).
type stroke interface {
	at(t float32) geom.Vec3
}

type line struct {
	from, to geom.Vec3
}

func (l line) at(t float32) geom.Vec3 {
	return l.from.Lerp(l.to, t)
}

// arc is an axis-aligned ellipse traced once around as t goes from 0 to 1.
type arc struct {
	center geom.Vec3
	rx, ry float32
}

func (a arc) at(t float32) geom.Vec3 {
	angle := t * 2 * math32.Pi
	return geom.Vec3{
		X: a.center.X + math32.Cos(angle)*a.rx,
		Y: a.center.Y + math32.Sin(angle)*a.ry,
		Z: a.center.Z,
	}
}

// glyph is a letterform built from weighted strokes. Weights are the share of
// the glyph's points placed on each stroke and sum to 1.
type glyph struct {
	name    string
	strokes []stroke
	weights []float32
}

func (g glyph) sample(rng *rand.Rand) geom.Vec3 {
	pick := rng.Float32()
	for i, w := range g.weights {
		if pick < w || i == len(g.weights)-1 {
			return g.strokes[i].at(rng.Float32())
		}
		pick -= w
	}
	return geom.Vec3{}
}

// glyphs spells "EXO" along the x-axis, three units tall.
var glyphs = []glyph{
	{
		name: "E",
		strokes: []stroke{
			line{geom.V3(-2.5, -1.5, 0), geom.V3(-2.5, 1.5, 0)},
			line{geom.V3(-2.5, 1.5, 0), geom.V3(-1.3, 1.5, 0)},
			line{geom.V3(-2.5, 0, 0), geom.V3(-1.5, 0, 0)},
			line{geom.V3(-2.5, -1.5, 0), geom.V3(-1.3, -1.5, 0)},
		},
		weights: []float32{0.4, 0.2, 0.2, 0.2},
	},
	{
		name: "X",
		strokes: []stroke{
			line{geom.V3(-1.2, -1.5, 0), geom.V3(1.2, 1.5, 0)},
			line{geom.V3(-1.2, 1.5, 0), geom.V3(1.2, -1.5, 0)},
		},
		weights: []float32{0.5, 0.5},
	},
	{
		name:    "O",
		strokes: []stroke{arc{center: geom.V3(2.5, 0, 0), rx: 1.2, ry: 1.5}},
		weights: []float32{1},
	},
}

// Jitter applied to target points: planar spread and depth for volume.
const (
	planarJitter = 0.2
	depthJitter  = 0.5
)

// GlyphCloud returns n points, each assigned to a random glyph and placed on
// one of its strokes with a little jitter.
func GlyphCloud(rng *rand.Rand, n int) []geom.Vec3 {
	points := make([]geom.Vec3, n)
	for i := range points {
		g := glyphs[rng.IntN(len(glyphs))]
		p := g.sample(rng)

		p.X += (rng.Float32() - 0.5) * planarJitter
		p.Y += (rng.Float32() - 0.5) * planarJitter
		p.Z += (rng.Float32() - 0.5) * depthJitter
		points[i] = p
	}
	return points
}
