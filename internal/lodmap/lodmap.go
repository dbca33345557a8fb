// Package lodmap renders the leaf partition of a quadtree as a top-down image,
// each leaf filled with its depth colour, and writes it as PNG or WebP.
package lodmap

import (
	"image"
	"image/color"

	"github.com/Faultbox/quadterrain/internal/quadtree"
	"github.com/Faultbox/quadterrain/pkg/math"
)

var (
	borderColor = color.NRGBA{R: 16, G: 16, B: 16, A: 255}
	viewerColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Options controls how a map is drawn.
type Options struct {
	Size    int        // edge length in pixels
	Borders bool       // outline every leaf
	Viewer  *math.Vec3 // world position to mark, nil for none
}

// DefaultOptions returns a 512 pixel map with leaf outlines.
func DefaultOptions() Options {
	return Options{Size: 512, Borders: true}
}

// Render draws the current leaves of q. Image x follows root u (world +X) and
// image y follows root v (world +Z).
func Render(q *quadtree.QuadTree, opts Options) *image.NRGBA {
	size := max(opts.Size, 1)
	img := image.NewNRGBA(image.Rect(0, 0, size, size))

	for _, leaf := range q.Leaves(nil) {
		r := leafRect(leaf.UV(), size)
		fill(img, r, leafColor(leaf))
		if opts.Borders && r.Dx() > 2 && r.Dy() > 2 {
			outline(img, r, borderColor)
		}
	}

	if opts.Viewer != nil {
		if x, y, ok := project(q.Root().Bounds(), *opts.Viewer, size); ok {
			cross(img, x, y, max(size/64, 2), viewerColor)
		}
	}
	return img
}

// leafRect returns the pixel rectangle covering a tile's UV region. Edges are
// rounded so adjacent leaves share boundaries without gaps.
func leafRect(uv quadtree.UVTransform, size int) image.Rectangle {
	u0, v0, u1, v1 := uv.Region()
	px := func(f float64) int { return int(f*float64(size) + 0.5) }
	return image.Rect(px(u0), px(v0), px(u1), px(v1))
}

func leafColor(t *quadtree.Tile) color.NRGBA {
	m := t.Mesh()
	if m == nil {
		return color.NRGBA{A: 255}
	}
	c := m.Material.Color
	return color.NRGBA{
		R: uint8(c[0]*255 + 0.5),
		G: uint8(c[1]*255 + 0.5),
		B: uint8(c[2]*255 + 0.5),
		A: 255,
	}
}

// project maps a world position onto the image through the root's XZ extent.
func project(root math.Box3, p math.Vec3, size int) (int, int, bool) {
	ext := root.Size()
	if ext.X <= 0 || ext.Z <= 0 {
		return 0, 0, false
	}
	u := (p.X - root.Min.X) / ext.X
	v := (p.Z - root.Min.Z) / ext.Z
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return 0, 0, false
	}
	x := min(int(u*float32(size)), size-1)
	y := min(int(v*float32(size)), size-1)
	return x, y, true
}

func fill(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func outline(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetNRGBA(x, r.Min.Y, c)
		img.SetNRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetNRGBA(r.Min.X, y, c)
		img.SetNRGBA(r.Max.X-1, y, c)
	}
}

func cross(img *image.NRGBA, cx, cy, arm int, c color.NRGBA) {
	for d := -arm; d <= arm; d++ {
		img.SetNRGBA(cx+d, cy, c)
		img.SetNRGBA(cx, cy+d, c)
	}
}
