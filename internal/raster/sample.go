package raster

import (
	gomath "math"

	"github.com/Faultbox/quadterrain/pkg/math"
)

// ClampUV clamps (u, v) into [0,1]². The flag reports whether clamping was
// needed; out-of-range coordinates are recovered here and never reach the
// buffer index arithmetic.
func ClampUV(u, v float64) (float64, float64, bool) {
	cu, cv := clamp01(u), clamp01(v)
	return cu, cv, cu != u || cv != v
}

// Sample returns the bilinearly interpolated value of one channel at the
// normalized coordinate (u, v), in [0, 255].
//
// Coordinates are scaled by (resolution-1) and the two neighbouring texels
// along each axis are found with floor and ceil. The interpolation weight is
// inset by half a texel: a fraction f becomes 0.5/R + f*(1-1/R). When floor
// and ceil coincide the texel value is returned unweighted, so (0,0) and
// (1,1) yield the first and last texel exactly.
func Sample(u, v float64, buf []byte, resolution, stride, offset int) float64 {
	u, v, _ = ClampUV(u, v)

	last := resolution - 1
	x0, x1, wx := neighbours(u*float64(last), resolution)
	y0, y1, wy := neighbours(v*float64(last), resolution)

	row0 := y0 * resolution
	row1 := y1 * resolution
	v00 := float64(buf[(row0+x0)*stride+offset])
	v10 := float64(buf[(row0+x1)*stride+offset])
	v01 := float64(buf[(row1+x0)*stride+offset])
	v11 := float64(buf[(row1+x1)*stride+offset])

	top := lerp(v00, v10, wx)
	bottom := lerp(v01, v11, wx)
	return lerp(top, bottom, wy)
}

// SampleVec3 samples channels 0, 1 and 2 of a 4-channel buffer.
func SampleVec3(u, v float64, buf []byte, resolution int) [3]float64 {
	return [3]float64{
		Sample(u, v, buf, resolution, NormalChannels, 0),
		Sample(u, v, buf, resolution, NormalChannels, 1),
		Sample(u, v, buf, resolution, NormalChannels, 2),
	}
}

// DecodeNormal maps an encoded [0,255] triple to a unit vector in engine
// space. The buffer stores texture-space normals whose second and third
// components are swapped relative to the engine's Y-up axis.
func DecodeNormal(c [3]float64) math.Vec3 {
	n := math.Vec3{
		X: float32(c[0]/255*2 - 1),
		Y: float32(c[1]/255*2 - 1),
		Z: float32(c[2]/255*2 - 1),
	}.Normalize()
	return math.Vec3{X: n.X, Y: n.Z, Z: n.Y}
}

// neighbours returns the clamped floor and ceil indices of a continuous texel
// coordinate together with the half-texel inset weight between them.
func neighbours(x float64, resolution int) (int, int, float64) {
	last := resolution - 1
	i0 := clampIndex(int(gomath.Floor(x)), last)
	i1 := clampIndex(int(gomath.Ceil(x)), last)
	if i0 == i1 {
		return i0, i1, 0
	}
	half := 0.5 / float64(resolution)
	f := x - float64(i0)
	return i0, i1, half + f*(1-2*half)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(x float64) float64 {
	// NaN compares false everywhere; pin it to the origin.
	if !(x >= 0) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func clampIndex(i, last int) int {
	if i < 0 {
		return 0
	}
	if i > last {
		return last
	}
	return i
}
