package quadtree

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/quadterrain/internal/logger"
	"github.com/Faultbox/quadterrain/pkg/math"
)

// TileState is either *Leaf or *Internal.
type TileState interface {
	tileState()
}

// Leaf is the state of a tile with no children. It owns the tile's mesh and
// the scene handle the mesh is attached under.
type Leaf struct {
	Mesh   *Mesh
	Handle Handle
}

// Internal is the state of a subdivided tile. Children are in quadrant order:
// index = y*2 + x for (x, y) in {0,1}².
type Internal struct {
	Children [4]*Tile
}

func (*Leaf) tileState()     {}
func (*Internal) tileState() {}

// Tile is one node of the terrain quadtree: a square region of the root at a
// given depth, either a leaf holding a mesh or the parent of four tiles.
type Tile struct {
	tree   *QuadTree
	parent *Tile

	depth    int
	quadrant int
	offset   math.Vec2 // relative to parent, root-normalized units
	center   math.Vec2 // offset from the root centre, derived from uv
	uv       UVTransform

	state  TileState
	bounds math.Box3
}

func newRoot(tree *QuadTree) *Tile {
	return &Tile{tree: tree, uv: IdentityUV()}
}

// newChild places quadrant (x, y) inside t. The child is half the size of its
// parent and centred in its quadrant.
func (t *Tile) newChild(x, y int) *Tile {
	half := float32(UVTransform{Level: uint8(t.depth + 2)}.Scale())
	offset := math.Vec2{X: float32(2*x-1) * half, Y: float32(2*y-1) * half}
	uv := t.uv.Compose(QuadrantUV(x, y))
	cu, cv := uv.Center()
	return &Tile{
		tree:     t.tree,
		parent:   t,
		depth:    t.depth + 1,
		quadrant: y*2 + x,
		offset:   offset,
		center:   math.Vec2{X: float32(cu), Y: float32(cv)},
		uv:       uv,
	}
}

// Depth returns the tile's level; the root is 0.
func (t *Tile) Depth() int { return t.depth }

// Quadrant returns the tile's index in its parent's child array.
func (t *Tile) Quadrant() int { return t.quadrant }

// Parent returns the enclosing tile, or nil for the root.
func (t *Tile) Parent() *Tile { return t.parent }

// Offset returns the tile centre relative to its parent's centre.
func (t *Tile) Offset() math.Vec2 { return t.offset }

// Center returns the tile centre relative to the root centre, in
// root-normalized units.
func (t *Tile) Center() math.Vec2 { return t.center }

// UV returns the composed transform from the tile's local UV to root UV.
func (t *Tile) UV() UVTransform { return t.uv }

// State returns the tile's current state.
func (t *Tile) State() TileState { return t.state }

// Bounds returns the world-space box of the tile's mesh, or of its subtree
// when the tile is internal.
func (t *Tile) Bounds() math.Box3 { return t.bounds }

// IsLeaf reports whether the tile has no children.
func (t *Tile) IsLeaf() bool {
	_, ok := t.state.(*Leaf)
	return ok
}

// Children returns the four children of an internal tile, or nil for a leaf.
func (t *Tile) Children() []*Tile {
	if in, ok := t.state.(*Internal); ok {
		return in.Children[:]
	}
	return nil
}

// Mesh returns the leaf mesh, or nil when the tile is internal.
func (t *Tile) Mesh() *Mesh {
	if leaf, ok := t.state.(*Leaf); ok {
		return leaf.Mesh
	}
	return nil
}

func (t *Tile) String() string {
	return "tile " + t.uv.String()
}

// Subdivide splits a leaf into four children, each with its own mesh, and
// releases the tile's mesh. It does nothing for internal tiles or when the
// tile is already at maxDepth. If any child mesh cannot be built the tile is
// left unchanged and the error wraps ErrResourceAllocation.
func (t *Tile) Subdivide(maxDepth int) error {
	leaf, ok := t.state.(*Leaf)
	if !ok || t.depth >= maxDepth || t.depth >= MaxUVLevel {
		return nil
	}

	var children [4]*Tile
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			child := t.newChild(x, y)
			if err := child.createMesh(); err != nil {
				for _, built := range children {
					if built != nil {
						built.release()
					}
				}
				return fmt.Errorf("subdivide %s: %w", t, err)
			}
			children[child.quadrant] = child
		}
	}

	t.releaseLeaf(leaf)
	t.state = &Internal{Children: children}
	t.refreshBounds()
	t.tree.stats.Subdivided++

	logger.Debug("tile subdivided", zap.Stringer("tile", t), zap.Int("depth", t.depth))
	return nil
}

// Unify collapses four leaf children back into this tile and rebuilds its
// mesh. It does nothing for a leaf, or while any child still has children of
// its own: subtrees collapse one level per call.
func (t *Tile) Unify() error {
	in, ok := t.state.(*Internal)
	if !ok {
		return nil
	}
	for _, c := range in.Children {
		if !c.IsLeaf() {
			return nil
		}
	}

	leaf, err := t.buildLeaf()
	if err != nil {
		return fmt.Errorf("unify %s: %w", t, err)
	}

	for _, c := range in.Children {
		c.release()
	}
	t.state = leaf
	t.bounds = leaf.Mesh.Bounds
	t.tree.stats.Unified++

	logger.Debug("tile unified", zap.Stringer("tile", t), zap.Int("depth", t.depth))
	return nil
}

// createMesh turns a fresh tile into a leaf with a synthesized mesh.
func (t *Tile) createMesh() error {
	leaf, err := t.buildLeaf()
	if err != nil {
		return err
	}
	t.state = leaf
	t.bounds = leaf.Mesh.Bounds
	return nil
}

func (t *Tile) buildLeaf() (*Leaf, error) {
	tree := t.tree
	m, err := tree.meshes.alloc()
	if err != nil {
		return nil, err
	}
	tree.synth.fill(m, t.depth, t.center, t.uv)

	h, err := tree.scene.Attach(t, m)
	if err != nil {
		tree.meshes.release(m)
		return nil, fmt.Errorf("%w: attach %s: %v", ErrResourceAllocation, t, err)
	}
	tree.stats.MeshesCreated++
	return &Leaf{Mesh: m, Handle: h}, nil
}

func (t *Tile) releaseLeaf(leaf *Leaf) {
	t.tree.scene.Detach(leaf.Handle)
	t.tree.meshes.release(leaf.Mesh)
	t.tree.stats.MeshesReleased++
}

// release frees every mesh in the subtree and detaches the tile from its
// tree. The tile must not be used afterwards.
func (t *Tile) release() {
	switch s := t.state.(type) {
	case *Leaf:
		t.releaseLeaf(s)
	case *Internal:
		for _, c := range s.Children {
			c.release()
		}
	}
	t.state = nil
	t.parent = nil
}

// refreshBounds recomputes an internal tile's box from its children.
func (t *Tile) refreshBounds() {
	in, ok := t.state.(*Internal)
	if !ok {
		return
	}
	b := math.EmptyBox()
	for _, c := range in.Children {
		b = b.Union(c.bounds)
	}
	t.bounds = b
}
