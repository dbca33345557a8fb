package quadtree

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/quadterrain/pkg/math"
)

// MaxUVLevel is the deepest level a UVTransform can address while Apply stays
// exact for dyadic inputs (float64 mantissa).
const MaxUVLevel = 52

// UVTransform maps a tile's local UV square onto root UV space:
//
//	root = (local + Offset) / 2^Level
//
// Offsets are integer numerators, so composing transforms never accumulates
// rounding error. For quadtree tiles Level equals the tile depth and the
// offsets are the tile's column and row at that depth.
type UVTransform struct {
	Level   uint8
	OffsetU uint64
	OffsetV uint64
}

// IdentityUV maps [0,1]² onto itself.
func IdentityUV() UVTransform {
	return UVTransform{}
}

// QuadrantUV maps [0,1]² onto the half-size sub-square at quadrant (x, y).
func QuadrantUV(x, y int) UVTransform {
	return UVTransform{Level: 1, OffsetU: uint64(x & 1), OffsetV: uint64(y & 1)}
}

// Compose returns the transform that applies inner first and then t. The
// levels of both transforms must sum to at most MaxUVLevel.
func (t UVTransform) Compose(inner UVTransform) UVTransform {
	return UVTransform{
		Level:   t.Level + inner.Level,
		OffsetU: t.OffsetU<<inner.Level + inner.OffsetU,
		OffsetV: t.OffsetV<<inner.Level + inner.OffsetV,
	}
}

// Apply maps a local coordinate to root UV space.
func (t UVTransform) Apply(u, v float64) (float64, float64) {
	e := -int(t.Level)
	return gomath.Ldexp(u+float64(t.OffsetU), e), gomath.Ldexp(v+float64(t.OffsetV), e)
}

// Scale returns the side length of the mapped square, 2^-Level.
func (t UVTransform) Scale() float64 {
	return gomath.Ldexp(1, -int(t.Level))
}

// Center returns the middle of the mapped square relative to the root centre,
// so the root is (0, 0) and every coordinate lies in (-0.5, 0.5). The result
// is exact for every level up to MaxUVLevel.
func (t UVTransform) Center() (float64, float64) {
	e := -int(t.Level) - 1
	u := gomath.Ldexp(float64(2*t.OffsetU+1), e)
	v := gomath.Ldexp(float64(2*t.OffsetV+1), e)
	return u - 0.5, v - 0.5
}

// Region returns the root-space rectangle [u0,u1] x [v0,v1] the tile covers.
func (t UVTransform) Region() (u0, v0, u1, v1 float64) {
	u0, v0 = t.Apply(0, 0)
	u1, v1 = t.Apply(1, 1)
	return u0, v0, u1, v1
}

// Matrix returns the equivalent homogeneous 3x3 matrix.
func (t UVTransform) Matrix() math.Mat3 {
	s := t.Scale()
	return math.UVTransform(float64(t.OffsetU)*s, float64(t.OffsetV)*s, s, s)
}

func (t UVTransform) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Level, t.OffsetU, t.OffsetV)
}
