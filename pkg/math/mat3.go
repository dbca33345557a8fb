package math

// Mat3 is a 3x3 homogeneous 2D affine matrix in column-major order, the same
// layout as Mat4. It maps UV coordinates (u, v, 1).
// Layout: [m0 m3 m6]
//
//	[m1 m4 m7]
//	[m2 m5 m8]
//
// Elements are float64: UV offsets at deep quadtree levels need more than
// float32's 24-bit mantissa.
type Mat3 [9]float64

// Identity3 returns the 3x3 identity matrix.
func Identity3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// UVTransform returns the matrix that scales (u, v) by (su, sv) and then
// offsets it by (tu, tv).
func UVTransform(tu, tv, su, sv float64) Mat3 {
	return Mat3{
		su, 0, 0,
		0, sv, 0,
		tu, tv, 1,
	}
}

// Mul multiplies this matrix by another (m * other). Applying the product
// applies other first.
func (m Mat3) Mul(other Mat3) Mat3 {
	var result Mat3
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			result[col*3+row] =
				m[0*3+row]*other[col*3+0] +
					m[1*3+row]*other[col*3+1] +
					m[2*3+row]*other[col*3+2]
		}
	}
	return result
}

// Apply transforms the point (u, v).
func (m Mat3) Apply(u, v float64) (float64, float64) {
	return m[0]*u + m[3]*v + m[6], m[1]*u + m[4]*v + m[7]
}
