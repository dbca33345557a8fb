package quadtree

import (
	"fmt"

	"github.com/Faultbox/quadterrain/internal/raster"
	"github.com/Faultbox/quadterrain/pkg/math"
)

// Vertex is one tile mesh vertex. Position is in tile-local space; the mesh's
// World matrix places it in the scene.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32 // root UV the vertex was sampled at
	Color    [4]float32
}

// Material describes how a tile mesh should be drawn.
type Material struct {
	Color     [4]float32
	Wireframe bool
}

// Mesh is the geometry owned by a leaf tile.
type Mesh struct {
	Vertices []Vertex
	// Indices is shared by every mesh of a tree and must not be modified.
	Indices  []uint32
	Material Material
	World    math.Mat4
	Bounds   math.Box3 // world space

	// Resolution is the number of vertices along each edge.
	Resolution int

	disposed bool
}

// Disposed reports whether the mesh has been released.
func (m *Mesh) Disposed() bool {
	return m.disposed
}

var (
	debugRed   = math.Vec3{X: 1, Y: 0, Z: 0}
	debugGreen = math.Vec3{X: 0, Y: 1, Z: 0}
)

// maxFreeMeshes bounds how many released vertex buffers are kept for reuse.
const maxFreeMeshes = 64

// meshAllocator hands out vertex storage for tile meshes, recycles released
// buffers and enforces the optional live-mesh budget.
type meshAllocator struct {
	resolution int
	indices    []uint32
	free       [][]Vertex
	limit      int
	live       int

	created  int
	released int
}

func newMeshAllocator(resolution, limit int) *meshAllocator {
	return &meshAllocator{
		resolution: resolution,
		indices:    gridIndices(resolution),
		limit:      limit,
	}
}

func (a *meshAllocator) alloc() (*Mesh, error) {
	if a.limit > 0 && a.live >= a.limit {
		return nil, fmt.Errorf("%w: %d live meshes, budget %d", ErrResourceAllocation, a.live, a.limit)
	}

	var verts []Vertex
	if n := len(a.free); n > 0 {
		verts = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		verts = make([]Vertex, a.resolution*a.resolution)
	}

	a.live++
	a.created++
	return &Mesh{
		Vertices:   verts,
		Indices:    a.indices,
		Resolution: a.resolution,
	}, nil
}

func (a *meshAllocator) release(m *Mesh) {
	if m == nil || m.disposed {
		return
	}
	if len(a.free) < maxFreeMeshes && len(m.Vertices) == a.resolution*a.resolution {
		a.free = append(a.free, m.Vertices)
	}
	m.Vertices = nil
	m.Indices = nil
	m.disposed = true
	a.live--
	a.released++
}

// gridIndices triangulates an n x n vertex grid, two triangles per cell,
// counter-clockwise when viewed from +Y.
func gridIndices(n int) []uint32 {
	cells := n - 1
	indices := make([]uint32, 0, cells*cells*6)
	for j := 0; j < cells; j++ {
		for i := 0; i < cells; i++ {
			a := uint32(j*n + i)
			b := a + 1
			c := a + uint32(n)
			d := c + 1
			indices = append(indices, a, c, b, b, c, d)
		}
	}
	return indices
}

// synthesizer fills tile meshes from the tree's raster buffers.
type synthesizer struct {
	height      *raster.Buffer
	normal      *raster.Buffer
	rootScale   float32
	heightScale float32
	colorDepth  int
	wireframe   bool
}

// fill writes the vertex grid, material and transforms for a tile whose centre
// sits at world (root-normalized) offset center and whose UV mapping is uv.
func (s *synthesizer) fill(m *Mesh, depth int, center math.Vec2, uv UVTransform) {
	n := m.Resolution
	size := float32(uv.Scale())
	last := float64(n - 1)
	step := 1 / last
	color := s.debugColor(depth)

	local := math.EmptyBox()
	for j := 0; j < n; j++ {
		lv := float64(j) / last
		for i := 0; i < n; i++ {
			lu := float64(i) / last
			u, v := uv.Apply(lu, lv)

			pos := math.Vec3{
				X: (float32(lu) - 0.5) * size,
				Y: s.elevation(u, v),
				Z: (float32(lv) - 0.5) * size,
			}
			local = local.Expand(pos)

			vert := &m.Vertices[j*n+i]
			vert.Position = pos.Array()
			vert.Normal = s.normalAt(u, v, step*uv.Scale()).Array()
			vert.UV = [2]float32{float32(u), float32(v)}
			vert.Color = [4]float32{color.X, color.Y, color.Z, 1}
		}
	}

	m.Material = Material{
		Color:     [4]float32{color.X, color.Y, color.Z, 1},
		Wireframe: s.wireframe,
	}
	m.World = math.Scale(s.rootScale, s.rootScale, s.rootScale).
		Mul(math.Translate(center.X, 0, center.Y))
	m.Bounds = local.Transform(m.World)
}

func (s *synthesizer) elevation(u, v float64) float32 {
	return float32(s.height.Sample(u, v)/255) * s.heightScale
}

// normalAt reads the normal map when there is one and otherwise derives the
// normal from central differences of the height field, d apart in root UV.
func (s *synthesizer) normalAt(u, v, d float64) math.Vec3 {
	if s.normal != nil {
		return s.normal.NormalAt(u, v)
	}
	dx := s.elevation(u+d, v) - s.elevation(u-d, v)
	dz := s.elevation(u, v+d) - s.elevation(u, v-d)
	span := float32(2 * d)
	return math.Vec3{X: -dx / span, Y: 1, Z: -dz / span}.Normalize()
}

func (s *synthesizer) debugColor(depth int) math.Vec3 {
	t := float32(depth) / float32(s.colorDepth)
	if t > 1 {
		t = 1
	}
	return debugRed.Lerp(debugGreen, t)
}
