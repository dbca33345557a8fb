package quadtree

import (
	"errors"
	"testing"

	"github.com/Faultbox/quadterrain/pkg/math"
)

func TestSubdivideChildPlacement(t *testing.T) {
	q := newTestTree(t, testOptions(t))
	root := q.Root()
	if err := root.Subdivide(q.MaxDepth()); err != nil {
		t.Fatalf("subdivide failed: %v", err)
	}

	want := []math.Vec2{
		{X: -0.25, Y: -0.25},
		{X: 0.25, Y: -0.25},
		{X: -0.25, Y: 0.25},
		{X: 0.25, Y: 0.25},
	}
	for i, c := range root.Children() {
		if c.Offset() != want[i] {
			t.Errorf("child %d: expected offset %v, got %v", i, want[i], c.Offset())
		}
		if c.Center() != want[i] {
			t.Errorf("child %d: expected center %v, got %v", i, want[i], c.Center())
		}
	}

	grand := root.Children()[3]
	if err := grand.Subdivide(q.MaxDepth()); err != nil {
		t.Fatalf("subdivide failed: %v", err)
	}
	c := grand.Children()[0]
	if want := (math.Vec2{X: 0.125, Y: 0.125}); c.Center() != want {
		t.Errorf("expected grandchild center %v, got %v", want, c.Center())
	}
	checkTree(t, q)
}

// The centre of every tile sits at the middle of its UV region, shifted so the
// root is centred on the origin.
func TestTileCenterMatchesUV(t *testing.T) {
	q := newTestTree(t, testOptions(t))
	for i := 0; i < q.MaxDepth(); i++ {
		if err := q.Update(math.Vec3{X: 20, Z: -30}); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}

	q.Walk(func(tile *Tile) bool {
		u, v := tile.UV().Apply(0.5, 0.5)
		want := math.Vec2{X: float32(u - 0.5), Y: float32(v - 0.5)}
		if tile.Center() != want {
			t.Errorf("%v: expected center %v, got %v", tile, want, tile.Center())
		}
		return true
	})
}

func TestSubdivideNoOps(t *testing.T) {
	opts := testOptions(t)
	opts.MaxDepth = 1
	q := newTestTree(t, opts)
	root := q.Root()

	if err := root.Subdivide(0); err != nil {
		t.Fatalf("subdivide failed: %v", err)
	}
	if !root.IsLeaf() {
		t.Fatal("expected subdivide at max depth to do nothing")
	}

	if err := root.Subdivide(1); err != nil {
		t.Fatalf("subdivide failed: %v", err)
	}
	children := root.Children()
	if err := root.Subdivide(1); err != nil {
		t.Fatalf("subdivide failed: %v", err)
	}
	if root.Children()[0] != children[0] {
		t.Error("expected subdividing an internal tile to keep its children")
	}
	if err := children[0].Unify(); err != nil {
		t.Fatalf("unify failed: %v", err)
	}
	if !children[0].IsLeaf() {
		t.Error("expected unifying a leaf to do nothing")
	}
	checkTree(t, q)
}

func TestSubdivideUnifyRoundTrip(t *testing.T) {
	scene := newRecordingScene()
	opts := testOptions(t)
	opts.Height = flatBuffer(t, 16, 200)
	opts.Scene = scene
	q := newTestTree(t, opts)
	root := q.Root()
	before := root.Bounds()

	if err := root.Subdivide(q.MaxDepth()); err != nil {
		t.Fatalf("subdivide failed: %v", err)
	}
	root.refreshBounds()
	if got := root.Bounds(); got != before {
		t.Errorf("expected children to span %v, got %v", before, got)
	}

	if err := root.Unify(); err != nil {
		t.Fatalf("unify failed: %v", err)
	}
	after := root.Bounds()
	if after.Min.X != before.Min.X || after.Max.X != before.Max.X ||
		after.Min.Z != before.Min.Z || after.Max.Z != before.Max.Z {
		t.Errorf("expected same XZ extent %v after round trip, got %v", before, after)
	}
	if len(scene.live) != 1 || scene.attached != 6 || scene.detached != 5 {
		t.Errorf("expected 1 live of 6 attached, 5 detached; got %d live, %d attached, %d detached",
			len(scene.live), scene.attached, scene.detached)
	}
	checkTree(t, q)
}

func TestUnifyWaitsForGrandchildren(t *testing.T) {
	q := newTestTree(t, testOptions(t))
	root := q.Root()
	if err := root.Subdivide(q.MaxDepth()); err != nil {
		t.Fatalf("subdivide failed: %v", err)
	}
	if err := root.Children()[2].Subdivide(q.MaxDepth()); err != nil {
		t.Fatalf("subdivide failed: %v", err)
	}

	if err := root.Unify(); err != nil {
		t.Fatalf("unify failed: %v", err)
	}
	if root.IsLeaf() {
		t.Error("expected unify to wait until every child is a leaf")
	}
	checkTree(t, q)
}

func TestSubdivideSceneFailureRollsBack(t *testing.T) {
	scene := newRecordingScene()
	opts := testOptions(t)
	opts.Scene = scene
	q := newTestTree(t, opts)
	root := q.Root()
	mesh := root.Mesh()

	scene.failAfter = 2
	err := root.Subdivide(q.MaxDepth())
	if !errors.Is(err, ErrResourceAllocation) {
		t.Fatalf("expected ErrResourceAllocation, got %v", err)
	}
	if root.Mesh() != mesh || mesh.Disposed() {
		t.Error("expected the original mesh to survive")
	}
	if len(scene.live) != 1 {
		t.Errorf("expected partial children detached, %d attached", len(scene.live))
	}
	checkTree(t, q)
}

func TestUnifySceneFailureKeepsChildren(t *testing.T) {
	scene := newRecordingScene()
	opts := testOptions(t)
	opts.Scene = scene
	q := newTestTree(t, opts)
	root := q.Root()
	if err := root.Subdivide(q.MaxDepth()); err != nil {
		t.Fatalf("subdivide failed: %v", err)
	}

	scene.failAfter = 0
	if err := root.Unify(); !errors.Is(err, ErrResourceAllocation) {
		t.Fatalf("expected ErrResourceAllocation, got %v", err)
	}
	if root.IsLeaf() {
		t.Fatal("expected the children to be kept")
	}
	if q.LiveMeshes() != 4 || len(scene.live) != 4 {
		t.Errorf("expected 4 live meshes, got %d (scene %d)", q.LiveMeshes(), len(scene.live))
	}
	checkTree(t, q)
}

func TestInternalBoundsAreUnionOfChildren(t *testing.T) {
	q := newTestTree(t, testOptions(t))
	for i := 0; i < 3; i++ {
		if err := q.Update(math.Vec3{X: 50, Z: 50}); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}
	// One more frame so every internal tile has refreshed after its
	// children last changed.
	if err := q.Update(math.Vec3{X: 50, Z: 50}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	q.Walk(func(tile *Tile) bool {
		if tile.IsLeaf() {
			if tile.Bounds() != tile.Mesh().Bounds {
				t.Errorf("%v: leaf bounds differ from mesh bounds", tile)
			}
			return true
		}
		want := math.EmptyBox()
		for _, c := range tile.Children() {
			want = want.Union(c.Bounds())
		}
		if tile.Bounds() != want {
			t.Errorf("%v: expected bounds %v, got %v", tile, want, tile.Bounds())
		}
		return true
	})
}

// Deep tiles get a centre rounded once from the exact dyadic value, not a
// float32 running sum of half-sizes.
func TestDeepTileCenter(t *testing.T) {
	tile := newRoot(nil)
	var wantU, wantV float64
	for depth := 1; depth <= 40; depth++ {
		x, y := depth%2, (depth/3)%2
		tile = tile.newChild(x, y)

		half := 1 / float64(uint64(1)<<(depth+1))
		wantU += float64(2*x-1) * half
		wantV += float64(2*y-1) * half

		want := math.Vec2{X: float32(wantU), Y: float32(wantV)}
		if tile.Center() != want {
			t.Fatalf("depth %d: expected center %v, got %v", depth, want, tile.Center())
		}
	}
}
