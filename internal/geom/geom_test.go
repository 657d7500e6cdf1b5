package geom

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

const tol = 1e-5

func TestVec3_Normal(t *testing.T) {
	t.Run("unit length", func(t *testing.T) {
		n, ok := V3(3, 4, 0).Normal()
		assert.True(t, ok)
		assert.InDelta(t, 0.6, n.X, tol)
		assert.InDelta(t, 0.8, n.Y, tol)
		assert.InDelta(t, 1.0, n.Length(), tol)
	})

	t.Run("zero vector has no direction", func(t *testing.T) {
		_, ok := Vec3{}.Normal()
		assert.False(t, ok)
	})

	t.Run("NaN vector has no direction", func(t *testing.T) {
		_, ok := V3(math32.NaN(), 0, 0).Normal()
		assert.False(t, ok)
	})
}

func TestVec3_Cross(t *testing.T) {
	got := V3(1, 0, 0).Cross(V3(0, 1, 0))
	assert.Equal(t, V3(0, 0, 1), got)
}

func TestQuatFromBasis_Identity(t *testing.T) {
	q := QuatFromBasis(V3(1, 0, 0), V3(0, 1, 0), V3(0, 0, 1))
	assert.InDelta(t, 1.0, q.W, tol)
	assert.InDelta(t, 0.0, q.X, tol)
	assert.InDelta(t, 0.0, q.Y, tol)
	assert.InDelta(t, 0.0, q.Z, tol)
}

func TestQuatFromBasis_RotatesAxes(t *testing.T) {
	// 90 degrees about Z: x -> y, y -> -x.
	x, y, z := V3(0, 1, 0), V3(-1, 0, 0), V3(0, 0, 1)
	q := QuatFromBasis(x, y, z)

	assert.InDelta(t, 1.0, q.Length(), tol)
	for _, tc := range []struct{ in, want Vec3 }{
		{V3(1, 0, 0), x},
		{V3(0, 1, 0), y},
		{V3(0, 0, 1), z},
	} {
		got := q.Rotate(tc.in)
		assert.InDelta(t, tc.want.X, got.X, tol)
		assert.InDelta(t, tc.want.Y, got.Y, tol)
		assert.InDelta(t, tc.want.Z, got.Z, tol)
	}
}

func TestQuat_EulerRoundTrip(t *testing.T) {
	e := V3(0.3, -0.4, 0.2)
	got := QuatFromEuler(e).Euler()
	assert.InDelta(t, e.X, got.X, tol)
	assert.InDelta(t, e.Y, got.Y, tol)
	assert.InDelta(t, e.Z, got.Z, tol)
}

func TestQuat_Slerp(t *testing.T) {
	a := IdentityQuat()
	b := QuatFromEuler(V3(0, math32.Pi/2, 0))

	assert.Equal(t, a, a.Slerp(b, 0))
	assert.Equal(t, b, a.Slerp(b, 1))

	mid := a.Slerp(b, 0.5)
	assert.InDelta(t, 1.0, mid.Length(), tol)
	assert.InDelta(t, math32.Pi/4, mid.Euler().Y, 1e-4)
}

func TestMat4_Compose(t *testing.T) {
	var m Mat4
	m.Compose(V3(1, 2, 3), IdentityQuat(), 2)

	assert.Equal(t, V3(1, 2, 3), m.Translation())
	assert.Equal(t, V3(3, 2, 3), m.MulPoint(V3(1, 0, 0)))

	m.Compose(Vec3{}, QuatFromEuler(V3(0, 0, math32.Pi/2)), 1)
	p := m.MulPoint(V3(1, 0, 0))
	assert.InDelta(t, 0.0, p.X, tol)
	assert.InDelta(t, 1.0, p.Y, tol)
}
