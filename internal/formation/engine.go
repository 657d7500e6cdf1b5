// Package formation animates the particle scene: two populations blending
// between a scattered shell and the "EXO" letterforms, with the whole group
// following the tracked hand.
package formation

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/chewxy/math32"

	"github.com/ayusman/exoform/internal/geom"
	"github.com/ayusman/exoform/internal/pose"
)

// Mesh names the instanced geometry a batch of transforms is drawn with.
type Mesh string

const (
	// MeshHeart is the silver heart used for the first half of the decorations.
	MeshHeart Mesh = "heart"
	// MeshCup is the emerald cup used for the second half of the decorations.
	MeshCup Mesh = "cup"
	// MeshShard is the small octahedron used for dust.
	MeshShard Mesh = "shard"
)

// Thresholds on the transition scalar for dust behavior.
const (
	dustOrbitAbove = 0.8
	dustGrowAbove  = 0.5
)

// Config holds the population sizes and the feel-tuning rates.
type Config struct {
	DecorCount int    `yaml:"decor_count"`
	DustCount  int    `yaml:"dust_count"`
	Seed       uint64 `yaml:"seed"`

	// FollowRate is the per-tick approach toward the hand pose while active.
	FollowRate float32 `yaml:"follow_rate"`
	// SettleRate is the per-tick relaxation toward the origin while inactive.
	SettleRate float32 `yaml:"settle_rate"`
	// FormRate and ScatterRate drive the transition scalar. FormRate must be
	// the larger so locking in reacts faster than falling apart.
	FormRate    float32 `yaml:"form_rate"`
	ScatterRate float32 `yaml:"scatter_rate"`

	TimeStep         float32 `yaml:"time_step"`
	ScatterMinRadius float32 `yaml:"scatter_min_radius"`
	ScatterMaxRadius float32 `yaml:"scatter_max_radius"`

	// Camera used to project the normalized hand position into the scene.
	FOV          float32 `yaml:"fov"`
	CameraZ      float32 `yaml:"camera_z"`
	Aspect       float32 `yaml:"aspect"`
	FollowSpread float32 `yaml:"follow_spread"`
}

// DefaultConfig returns a Config with the tuned default values.
func DefaultConfig() Config {
	return Config{
		DecorCount:       200,
		DustCount:        1500,
		Seed:             1,
		FollowRate:       0.1,
		SettleRate:       0.05,
		FormRate:         0.05,
		ScatterRate:      0.03,
		TimeStep:         0.01,
		ScatterMinRadius: 4,
		ScatterMaxRadius: 8,
		FOV:              75,
		CameraZ:          8,
		Aspect:           16.0 / 9.0,
		FollowSpread:     1.5,
	}
}

// Validate checks that the configuration can drive an engine.
func (c Config) Validate() error {
	if c.DecorCount <= 0 || c.DustCount <= 0 {
		return fmt.Errorf("population sizes must be positive (decor=%d, dust=%d)", c.DecorCount, c.DustCount)
	}
	for name, r := range map[string]float32{
		"follow_rate":  c.FollowRate,
		"settle_rate":  c.SettleRate,
		"form_rate":    c.FormRate,
		"scatter_rate": c.ScatterRate,
	} {
		if r <= 0 || r > 1 {
			return fmt.Errorf("%s must be in (0,1], got %v", name, r)
		}
	}
	if c.FormRate <= c.ScatterRate {
		return errors.New("form_rate must be greater than scatter_rate")
	}
	if c.ScatterMinRadius < 0 || c.ScatterMaxRadius < c.ScatterMinRadius {
		return fmt.Errorf("invalid scatter radius range [%v, %v]", c.ScatterMinRadius, c.ScatterMaxRadius)
	}
	if c.FOV <= 0 || c.FOV >= 180 || c.Aspect <= 0 || c.TimeStep <= 0 {
		return errors.New("fov, aspect and time_step must be positive (fov < 180)")
	}
	return nil
}

// Particle is the fixed description of one instance. It never changes after
// the engine is built.
type Particle struct {
	Scattered geom.Vec3
	Target    geom.Vec3
	Axis      geom.Vec3 // spin axis, decorations only
	Speed     float32   // orbit speed, dust only
}

// population is a set of particles with a transform buffer of the same length.
type population struct {
	particles  []Particle
	transforms []geom.Mat4
}

func newPopulation(rng *rand.Rand, n int, cfg Config) population {
	scattered := ScatterCloud(rng, n, cfg.ScatterMinRadius, cfg.ScatterMaxRadius)
	targets := GlyphCloud(rng, n)

	p := population{
		particles:  make([]Particle, n),
		transforms: make([]geom.Mat4, n),
	}
	for i := range p.particles {
		axis, ok := geom.V3(rng.Float32(), rng.Float32(), rng.Float32()).Normal()
		if !ok {
			axis = geom.V3(0, 1, 0)
		}
		p.particles[i] = Particle{
			Scattered: scattered[i],
			Target:    targets[i],
			Axis:      axis,
			Speed:     0.5 + rng.Float32()*1.5,
		}
		p.transforms[i] = geom.IdentityMat4()
	}
	return p
}

// Light is the animated point light that orbits the formation.
type Light struct {
	Position  geom.Vec3 `json:"position"`
	Intensity float32   `json:"intensity"`
}

// Batch is the transform list for one instanced mesh. The instance ID is the
// index into Transforms.
type Batch struct {
	Mesh       Mesh
	Transforms []geom.Mat4
}

// Frame is everything the rendering surface needs for one display frame.
// Batches alias the engine's buffers and are only valid until the next Update.
type Frame struct {
	Tick       uint64
	Time       float32
	Transition float32
	Group      geom.Mat4
	Light      Light
	Batches    []Batch
}

// Engine owns both particle populations and the transition state. It is not
// safe for concurrent use; the frame loop calls Update once per tick.
type Engine struct {
	cfg   Config
	decor population
	dust  population

	groupPos   geom.Vec3
	groupRot   geom.Quat
	transition float32
	time       float32
	tick       uint64

	frame Frame
}

// NewEngine generates both populations from cfg.Seed and returns a ready engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid formation config: %w", err)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	e := &Engine{
		cfg:      cfg,
		decor:    newPopulation(rng, cfg.DecorCount, cfg),
		dust:     newPopulation(rng, cfg.DustCount, cfg),
		groupRot: geom.IdentityQuat(),
	}

	half := cfg.DecorCount / 2
	e.frame.Batches = []Batch{
		{Mesh: MeshHeart, Transforms: e.decor.transforms[:half]},
		{Mesh: MeshCup, Transforms: e.decor.transforms[half:]},
		{Mesh: MeshShard, Transforms: e.dust.transforms},
	}
	e.frame.Group = geom.IdentityMat4()
	return e, nil
}

// Resize updates the projection aspect ratio for a new viewport.
func (e *Engine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.cfg.Aspect = float32(width) / float32(height)
}

// Transition returns the current blend between scattered (0) and formed (1).
func (e *Engine) Transition() float32 {
	return e.transition
}

// Decorations returns the decorative particles. The slice must not be modified.
func (e *Engine) Decorations() []Particle {
	return e.decor.particles
}

// Dust returns the dust particles. The slice must not be modified.
func (e *Engine) Dust() []Particle {
	return e.dust.particles
}

// Update advances the animation by one tick toward the given pose and returns
// the frame to render.
func (e *Engine) Update(est pose.Estimate) *Frame {
	e.tick++
	e.time += e.cfg.TimeStep
	t := e.time

	if est.Active {
		e.transition = geom.Lerp(e.transition, 1, e.cfg.FormRate)
		e.groupPos = e.groupPos.Lerp(e.followTarget(est.Position), e.cfg.FollowRate)
		e.groupRot = e.groupRot.Slerp(est.Orientation, e.cfg.FollowRate)
	} else {
		e.transition = geom.Lerp(e.transition, 0, e.cfg.ScatterRate)
		e.groupPos = e.groupPos.Lerp(geom.Vec3{}, e.cfg.SettleRate)
		e.groupRot = e.groupRot.Slerp(geom.IdentityQuat(), e.cfg.SettleRate)

		// idle sway: yaw is driven directly, the other angles keep relaxing
		euler := e.groupRot.Euler()
		euler.Y = math32.Sin(t*0.2) * 0.1
		e.groupRot = geom.QuatFromEuler(euler)
	}
	e.transition = geom.Clamp(e.transition, 0, 1)

	e.updateDecorations(t)
	e.updateDust(t)

	e.frame.Tick = e.tick
	e.frame.Time = t
	e.frame.Transition = e.transition
	e.frame.Group.Compose(e.groupPos, e.groupRot, 1)
	e.frame.Light = Light{
		Position:  geom.V3(math32.Sin(t)*5, math32.Cos(t*0.7)*5, 0),
		Intensity: 2 + math32.Sin(t*3),
	}
	return &e.frame
}

// followTarget projects a normalized image position onto the z=0 plane of the
// scene. X is mirrored so moving the hand right moves the scene right.
func (e *Engine) followTarget(p geom.Vec3) geom.Vec3 {
	height := 2 * math32.Tan(geom.DegToRad(e.cfg.FOV)/2) * e.cfg.CameraZ
	width := height * e.cfg.Aspect
	return geom.Vec3{
		X: (0.5 - p.X) * width * e.cfg.FollowSpread,
		Y: (0.5 - p.Y) * height * e.cfg.FollowSpread,
	}
}

func (e *Engine) updateDecorations(t float32) {
	f := e.transition
	loose := 1 - f
	for i := range e.decor.particles {
		p := &e.decor.particles[i]
		fi := float32(i)

		pos := p.Scattered.Lerp(p.Target, f)
		pos.X += math32.Sin(t+fi) * 0.05 * loose
		pos.Y += math32.Cos(t+fi*2) * 0.05 * loose

		rot := geom.QuatFromEuler(geom.V3(t*p.Axis.X, t*p.Axis.Y, 0))
		scale := 1 + math32.Sin(t*2+fi)*0.2

		e.decor.transforms[i].Compose(pos, rot, scale)
	}
}

func (e *Engine) updateDust(t float32) {
	f := e.transition
	scale := float32(0.5)
	if f > dustGrowAbove {
		scale = 1
	}
	for i := range e.dust.particles {
		p := &e.dust.particles[i]
		fi := float32(i)

		pos := p.Scattered.Lerp(p.Target, f)
		if f > dustOrbitAbove {
			pos.X += math32.Sin(t*p.Speed+fi) * 0.02
			pos.Y += math32.Cos(t*p.Speed+fi) * 0.02
		} else {
			pos.Y += math32.Sin(t+fi) * 0.01
		}

		rot := geom.QuatFromEuler(geom.V3(t*fi, t, 0))
		e.dust.transforms[i].Compose(pos, rot, scale)
	}
}
