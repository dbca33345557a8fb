// Package quadtree implements an adaptive level-of-detail terrain: a quadtree
// of square tiles, each leaf holding a small regular mesh sampled from shared
// height and normal rasters, refined and coarsened every frame according to
// the viewer's position.
//
// The tree is single-threaded. Update must run to completion before any other
// method is called and must not be called from more than one goroutine.
package quadtree

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/quadterrain/internal/logger"
	"github.com/Faultbox/quadterrain/internal/raster"
	"github.com/Faultbox/quadterrain/pkg/math"
)

// Options configures a QuadTree. Start from DefaultOptions.
type Options struct {
	Height *raster.Buffer // required, 1 channel
	Normal *raster.Buffer // optional, 4 channels

	RootScale      float32 // world size of the root tile
	HeightScale    float32 // elevation of a 255 sample, in root-normalized units
	MaxDepth       int
	TileResolution int // vertices per tile edge
	Policy         Policy
	Scene          Scene // nil means NopScene
	MaxMeshes      int   // live mesh budget, 0 for none
	ColorDepth     int   // depth at which the debug colour is fully green
	Wireframe      bool
}

// DefaultOptions returns options for a 128-unit terrain, five levels deep,
// with 64x64-vertex tiles.
func DefaultOptions() Options {
	return Options{
		RootScale:      128,
		HeightScale:    0.1,
		MaxDepth:       5,
		TileResolution: 64,
		Policy:         DefaultPolicy(),
		ColorDepth:     4,
		Wireframe:      true,
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidOptions.
func (o Options) Validate() error {
	switch {
	case o.Height == nil:
		return fmt.Errorf("%w: height buffer is required", ErrInvalidOptions)
	case o.Height.Channels() != raster.HeightChannels:
		return fmt.Errorf("%w: height buffer has %d channels", ErrInvalidOptions, o.Height.Channels())
	case o.Normal != nil && o.Normal.Channels() != raster.NormalChannels:
		return fmt.Errorf("%w: normal buffer has %d channels", ErrInvalidOptions, o.Normal.Channels())
	case o.RootScale <= 0:
		return fmt.Errorf("%w: root scale %v", ErrInvalidOptions, o.RootScale)
	case o.TileResolution < 2:
		return fmt.Errorf("%w: tile resolution %d", ErrInvalidOptions, o.TileResolution)
	case o.MaxDepth < 0 || o.MaxDepth > MaxUVLevel:
		return fmt.Errorf("%w: max depth %d outside [0, %d]", ErrInvalidOptions, o.MaxDepth, MaxUVLevel)
	case !o.Policy.valid():
		return fmt.Errorf("%w: thresholds subdivide=%v unify=%v", ErrInvalidOptions,
			o.Policy.SubdivideThreshold, o.Policy.UnifyThreshold)
	case o.ColorDepth <= 0:
		return fmt.Errorf("%w: color depth %d", ErrInvalidOptions, o.ColorDepth)
	case o.MaxMeshes < 0:
		return fmt.Errorf("%w: mesh budget %d", ErrInvalidOptions, o.MaxMeshes)
	}
	return nil
}

// FrameStats summarises one Update.
type FrameStats struct {
	Frame          uint64
	Visited        int
	Subdivided     int
	Unified        int
	MeshesCreated  int
	MeshesReleased int
	Leaves         int
	LiveMeshes     int
	MaxLeafDepth   int
}

// Changed reports whether the frame altered the hierarchy.
func (s FrameStats) Changed() bool {
	return s.Subdivided > 0 || s.Unified > 0
}

// QuadTree owns the root tile, the LOD policy and every tile mesh.
type QuadTree struct {
	root     *Tile
	maxDepth int
	policy   Policy

	scene  Scene
	synth  synthesizer
	meshes *meshAllocator

	scratch Scratch
	frame   uint64
	stats   FrameStats
	closed  bool
}

// New builds the root tile over the whole raster, synthesizes its mesh and
// attaches it to the scene.
func New(opts Options) (*QuadTree, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	scene := opts.Scene
	if scene == nil {
		scene = NopScene{}
	}

	q := &QuadTree{
		maxDepth: opts.MaxDepth,
		policy:   opts.Policy,
		scene:    scene,
		synth: synthesizer{
			height:      opts.Height,
			normal:      opts.Normal,
			rootScale:   opts.RootScale,
			heightScale: opts.HeightScale,
			colorDepth:  opts.ColorDepth,
			wireframe:   opts.Wireframe,
		},
		meshes: newMeshAllocator(opts.TileResolution, opts.MaxMeshes),
	}

	q.root = newRoot(q)
	if err := q.root.createMesh(); err != nil {
		return nil, fmt.Errorf("quadtree: root mesh: %w", err)
	}

	logger.Info("quadtree created",
		zap.Int("raster", opts.Height.Resolution()),
		zap.Bool("normals", opts.Normal != nil),
		zap.Int("maxDepth", opts.MaxDepth),
		zap.Int("tileResolution", opts.TileResolution),
		zap.Float64("subdivideThreshold", opts.Policy.SubdivideThreshold),
		zap.Float64("unifyThreshold", opts.Policy.UnifyThreshold),
	)
	return q, nil
}

// Root returns the root tile.
func (q *QuadTree) Root() *Tile { return q.root }

// MaxDepth returns the deepest level a tile may reach.
func (q *QuadTree) MaxDepth() int { return q.maxDepth }

// Policy returns the LOD policy in use.
func (q *QuadTree) Policy() Policy { return q.policy }

// LiveMeshes returns how many tile meshes are currently allocated.
func (q *QuadTree) LiveMeshes() int { return q.meshes.live }

// LastStats returns the statistics of the most recent Update.
func (q *QuadTree) LastStats() FrameStats { return q.stats }

// Update re-evaluates the LOD policy for every tile against the viewer
// position, children before parents, splitting and merging as needed. Tiles
// created during the frame are not visited until the next one.
//
// An error wrapping ErrResourceAllocation aborts the frame; the hierarchy is
// left valid and the caller may simply try again next frame.
func (q *QuadTree) Update(viewer math.Vec3) error {
	if q.closed {
		return ErrClosed
	}
	q.frame++
	q.stats = FrameStats{Frame: q.frame}

	for _, t := range q.scratch.PostOrder(q.root) {
		q.stats.Visited++
		t.refreshBounds()

		ratio := LODRatio(t.bounds, viewer)
		var err error
		switch q.policy.Decide(ratio, t.depth, q.maxDepth) {
		case Split:
			err = t.Subdivide(q.maxDepth)
		case Merge:
			err = t.Unify()
		}
		if err != nil {
			q.finishStats()
			return fmt.Errorf("quadtree: frame %d: %w", q.frame, err)
		}
	}

	q.finishStats()
	if q.stats.Changed() {
		logger.Debug("quadtree frame",
			zap.Uint64("frame", q.stats.Frame),
			zap.Int("visited", q.stats.Visited),
			zap.Int("subdivided", q.stats.Subdivided),
			zap.Int("unified", q.stats.Unified),
			zap.Int("leaves", q.stats.Leaves),
			zap.Int("liveMeshes", q.stats.LiveMeshes),
		)
	}
	return nil
}

func (q *QuadTree) finishStats() {
	q.stats.LiveMeshes = q.meshes.live
	q.stats.Leaves = 0
	q.stats.MaxLeafDepth = 0
	q.scratch.walk(q.root, func(t *Tile) bool {
		if t.IsLeaf() {
			q.stats.Leaves++
			q.stats.MaxLeafDepth = max(q.stats.MaxLeafDepth, t.depth)
		}
		return true
	})
}

// Leaves appends the current leaf tiles to dst in quadrant order and returns
// the extended slice. Each leaf's Mesh is what the renderer should draw.
func (q *QuadTree) Leaves(dst []*Tile) []*Tile {
	Walk(q.root, func(t *Tile) bool {
		if t.IsLeaf() {
			dst = append(dst, t)
		}
		return true
	})
	return dst
}

// Walk visits every tile in pre-order.
func (q *QuadTree) Walk(fn func(*Tile) bool) {
	Walk(q.root, fn)
}

// Close releases every tile mesh and detaches it from the scene. Further
// Update calls return ErrClosed.
func (q *QuadTree) Close() {
	if q.closed {
		return
	}
	q.root.release()
	q.closed = true
	logger.Info("quadtree closed", zap.Int("liveMeshes", q.meshes.live))
}
