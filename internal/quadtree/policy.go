package quadtree

import "github.com/Faultbox/quadterrain/pkg/math"

// DefaultThreshold is the size/distance ratio above which a tile subdivides.
const DefaultThreshold = 5

// minDistance keeps the LOD ratio finite when the viewer is inside a box.
const minDistance = 1e-6

// Decision is the outcome of evaluating the LOD policy for one tile.
type Decision int

const (
	Keep Decision = iota
	Split
	Merge
)

func (d Decision) String() string {
	switch d {
	case Split:
		return "split"
	case Merge:
		return "merge"
	default:
		return "keep"
	}
}

// Policy decides when tiles split and merge. A tile splits when its LOD ratio
// exceeds SubdivideThreshold and merges when the ratio is at most
// UnifyThreshold. Equal thresholds give a single hard cut-off; a lower
// UnifyThreshold adds a dead band that stops tiles near the boundary from
// splitting and merging on alternate frames.
type Policy struct {
	SubdivideThreshold float64
	UnifyThreshold     float64
}

// DefaultPolicy returns the hard threshold of 5 with no dead band.
func DefaultPolicy() Policy {
	return Policy{SubdivideThreshold: DefaultThreshold, UnifyThreshold: DefaultThreshold}
}

// Hysteresis reports whether the policy has a dead band.
func (p Policy) Hysteresis() bool {
	return p.UnifyThreshold < p.SubdivideThreshold
}

func (p Policy) valid() bool {
	return p.SubdivideThreshold > 0 && p.UnifyThreshold > 0 && p.UnifyThreshold <= p.SubdivideThreshold
}

// Decide evaluates the policy for a tile at depth with the given LOD ratio.
func (p Policy) Decide(ratio float64, depth, maxDepth int) Decision {
	if ratio > p.SubdivideThreshold && depth < maxDepth {
		return Split
	}
	if ratio <= p.UnifyThreshold {
		return Merge
	}
	return Keep
}

// LODRatio returns the box diagonal divided by the horizontal distance from
// the viewer to the box. Height is ignored so that tiles directly below a
// high viewer are not over-refined.
func LODRatio(box math.Box3, viewer math.Vec3) float64 {
	size := float64(box.Diagonal())
	distance := float64(box.HorizontalDistance(viewer))
	if distance < minDistance {
		distance = minDistance
	}
	return size / distance
}
