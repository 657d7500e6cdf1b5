package geom

import "github.com/chewxy/math32"

// Quat is a rotation quaternion with X, Y, Z and W components.
type Quat struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
	W float32 `json:"w"`
}

// IdentityQuat returns the quaternion for no rotation.
func IdentityQuat() Quat {
	return Quat{W: 1}
}

// Length returns the magnitude of q.
func (q Quat) Length() float32 {
	return math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// Normalized returns q scaled to unit length, or the identity if q has no length.
func (q Quat) Normalized() Quat {
	l := q.Length()
	if !IsFinite(l) || l < Epsilon {
		return IdentityQuat()
	}
	inv := 1 / l
	return Quat{q.X * inv, q.Y * inv, q.Z * inv, q.W * inv}
}

// Dot returns the 4D dot product of q and o.
func (q Quat) Dot(o Quat) float32 {
	return q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
}

// IsFinite reports whether all components of q are finite.
func (q Quat) IsFinite() bool {
	return IsFinite(q.X) && IsFinite(q.Y) && IsFinite(q.Z) && IsFinite(q.W)
}

// QuatFromBasis returns the rotation taking the standard axes onto the given
// orthonormal basis. The axes become the columns of the rotation matrix.
func QuatFromBasis(xAxis, yAxis, zAxis Vec3) Quat {
	m11, m12, m13 := xAxis.X, yAxis.X, zAxis.X
	m21, m22, m23 := xAxis.Y, yAxis.Y, zAxis.Y
	m31, m32, m33 := xAxis.Z, yAxis.Z, zAxis.Z
	trace := m11 + m22 + m33

	var q Quat
	switch {
	case trace > 0:
		s := 0.5 / math32.Sqrt(trace+1)
		q.W = 0.25 / s
		q.X = (m32 - m23) * s
		q.Y = (m13 - m31) * s
		q.Z = (m21 - m12) * s
	case m11 > m22 && m11 > m33:
		s := 2 * math32.Sqrt(1+m11-m22-m33)
		q.W = (m32 - m23) / s
		q.X = 0.25 * s
		q.Y = (m12 + m21) / s
		q.Z = (m13 + m31) / s
	case m22 > m33:
		s := 2 * math32.Sqrt(1+m22-m11-m33)
		q.W = (m13 - m31) / s
		q.X = (m12 + m21) / s
		q.Y = 0.25 * s
		q.Z = (m23 + m32) / s
	default:
		s := 2 * math32.Sqrt(1+m33-m11-m22)
		q.W = (m21 - m12) / s
		q.X = (m13 + m31) / s
		q.Y = (m23 + m32) / s
		q.Z = 0.25 * s
	}
	return q
}

// QuatFromEuler returns the quaternion for rotations applied in XYZ order.
func QuatFromEuler(e Vec3) Quat {
	c1, s1 := math32.Cos(e.X/2), math32.Sin(e.X/2)
	c2, s2 := math32.Cos(e.Y/2), math32.Sin(e.Y/2)
	c3, s3 := math32.Cos(e.Z/2), math32.Sin(e.Z/2)
	return Quat{
		X: s1*c2*c3 + c1*s2*s3,
		Y: c1*s2*c3 - s1*c2*s3,
		Z: c1*c2*s3 + s1*s2*c3,
		W: c1*c2*c3 - s1*s2*s3,
	}
}

// Euler returns the XYZ Euler angles of the unit quaternion q.
func (q Quat) Euler() Vec3 {
	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	m11 := 1 - 2*(yy+zz)
	m12 := 2 * (q.X*q.Y - q.W*q.Z)
	m13 := 2 * (q.X*q.Z + q.W*q.Y)
	m22 := 1 - 2*(xx+zz)
	m23 := 2 * (q.Y*q.Z - q.W*q.X)
	m32 := 2 * (q.Y*q.Z + q.W*q.X)
	m33 := 1 - 2*(xx+yy)

	var e Vec3
	e.Y = math32.Asin(Clamp(m13, -1, 1))
	if math32.Abs(m13) < 0.9999999 {
		e.X = math32.Atan2(-m23, m33)
		e.Z = math32.Atan2(-m12, m11)
	} else {
		e.X = math32.Atan2(m32, m22)
	}
	return e
}

// Slerp returns the spherical interpolation from q toward o by t.
func (q Quat) Slerp(o Quat, t float32) Quat {
	if t <= 0 {
		return q
	}
	if t >= 1 {
		return o
	}

	cosHalf := q.Dot(o)
	if cosHalf < 0 {
		o = Quat{-o.X, -o.Y, -o.Z, -o.W}
		cosHalf = -cosHalf
	}
	if cosHalf >= 1 {
		return q
	}

	sqrSinHalf := 1 - cosHalf*cosHalf
	if sqrSinHalf < 0.001 {
		s := 1 - t
		return Quat{
			X: s*q.X + t*o.X,
			Y: s*q.Y + t*o.Y,
			Z: s*q.Z + t*o.Z,
			W: s*q.W + t*o.W,
		}.Normalized()
	}

	sinHalf := math32.Sqrt(sqrSinHalf)
	halfTheta := math32.Atan2(sinHalf, cosHalf)
	a := math32.Sin((1-t)*halfTheta) / sinHalf
	b := math32.Sin(t*halfTheta) / sinHalf
	return Quat{
		X: q.X*a + o.X*b,
		Y: q.Y*a + o.Y*b,
		Z: q.Z*a + o.Z*b,
		W: q.W*a + o.W*b,
	}
}

// Rotate applies the rotation q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	// t = 2 * cross(q.xyz, v); v' = v + w*t + cross(q.xyz, t)
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).MulScalar(2)
	return v.Add(t.MulScalar(q.W)).Add(u.Cross(t))
}
