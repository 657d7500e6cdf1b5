package geom

// Mat4 is a 4x4 transform matrix in column-major order.
type Mat4 [16]float32

// IdentityMat4 returns the identity matrix.
func IdentityMat4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Compose sets m to the transform that scales uniformly by s, rotates by q and
// then translates by pos.
func (m *Mat4) Compose(pos Vec3, q Quat, s float32) {
	x2, y2, z2 := q.X+q.X, q.Y+q.Y, q.Z+q.Z
	xx, xy, xz := q.X*x2, q.X*y2, q.X*z2
	yy, yz, zz := q.Y*y2, q.Y*z2, q.Z*z2
	wx, wy, wz := q.W*x2, q.W*y2, q.W*z2

	m[0] = (1 - (yy + zz)) * s
	m[1] = (xy + wz) * s
	m[2] = (xz - wy) * s
	m[3] = 0

	m[4] = (xy - wz) * s
	m[5] = (1 - (xx + zz)) * s
	m[6] = (yz + wx) * s
	m[7] = 0

	m[8] = (xz + wy) * s
	m[9] = (yz - wx) * s
	m[10] = (1 - (xx + yy)) * s
	m[11] = 0

	m[12] = pos.X
	m[13] = pos.Y
	m[14] = pos.Z
	m[15] = 1
}

// Translation returns the translation column of m.
func (m *Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// MulPoint transforms the point p by m.
func (m *Mat4) MulPoint(p Vec3) Vec3 {
	return Vec3{
		X: m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12],
		Y: m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13],
		Z: m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14],
	}
}
