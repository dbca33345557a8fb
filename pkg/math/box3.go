package math

import gomath "math"

// Box3 is an axis-aligned bounding box.
type Box3 struct {
	Min Vec3
	Max Vec3
}

// EmptyBox returns an inverted box that any Expand call will overwrite.
func EmptyBox() Box3 {
	inf := float32(gomath.Inf(1))
	return Box3{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box contains no points.
func (b Box3) IsEmpty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

// Expand grows the box to contain p.
func (b Box3) Expand(p Vec3) Box3 {
	return Box3{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the smallest box containing both boxes.
func (b Box3) Union(other Box3) Box3 {
	if b.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return b
	}
	return Box3{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Size returns the extent along each axis.
func (b Box3) Size() Vec3 {
	if b.IsEmpty() {
		return Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Diagonal returns the length of the box diagonal.
func (b Box3) Diagonal() float32 {
	return b.Size().Length()
}

// Center returns the box midpoint.
func (b Box3) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// ClampPoint returns the point inside the box nearest to p.
func (b Box3) ClampPoint(p Vec3) Vec3 {
	return p.Max(b.Min).Min(b.Max)
}

// HorizontalDistance returns the XZ distance from p to the nearest point of
// the box, ignoring height.
func (b Box3) HorizontalDistance(p Vec3) float32 {
	c := b.ClampPoint(p)
	return c.XZ().Distance(p.XZ())
}

// Transform returns the bounds of the box after an affine matrix is applied
// to its eight corners.
func (b Box3) Transform(m Mat4) Box3 {
	out := EmptyBox()
	for i := 0; i < 8; i++ {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		out = out.Expand(m.TransformVec3(c))
	}
	return out
}
