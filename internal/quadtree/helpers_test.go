package quadtree

import (
	"errors"
	"testing"

	"github.com/Faultbox/quadterrain/internal/raster"
)

var errSceneFull = errors.New("scene full")

// recordingScene tracks attached meshes and can be told to refuse attaches.
type recordingScene struct {
	live      map[Handle]*Mesh
	next      Handle
	failAfter int // attaches allowed before failing; negative for unlimited
	attached  int
	detached  int
	unknown   int
}

func newRecordingScene() *recordingScene {
	return &recordingScene{live: make(map[Handle]*Mesh), failAfter: -1}
}

func (s *recordingScene) Attach(_ *Tile, m *Mesh) (Handle, error) {
	if s.failAfter == 0 {
		return 0, errSceneFull
	}
	if s.failAfter > 0 {
		s.failAfter--
	}
	s.next++
	s.live[s.next] = m
	s.attached++
	return s.next, nil
}

func (s *recordingScene) Detach(h Handle) {
	if _, ok := s.live[h]; !ok {
		s.unknown++
		return
	}
	delete(s.live, h)
	s.detached++
}

func flatBuffer(t *testing.T, resolution int, value byte) *raster.Buffer {
	t.Helper()
	data := make([]byte, resolution*resolution)
	for i := range data {
		data[i] = value
	}
	buf, err := raster.NewBuffer(data, resolution, raster.HeightChannels)
	if err != nil {
		t.Fatalf("failed to create buffer: %v", err)
	}
	return buf
}

func testOptions(t *testing.T) Options {
	t.Helper()
	opts := DefaultOptions()
	opts.Height = flatBuffer(t, 16, 0)
	opts.TileResolution = 5
	opts.MaxDepth = 4
	return opts
}

func newTestTree(t *testing.T, opts Options) *QuadTree {
	t.Helper()
	q, err := New(opts)
	if err != nil {
		t.Fatalf("failed to create quadtree: %v", err)
	}
	t.Cleanup(q.Close)
	return q
}

// checkTree verifies the structural invariants of the whole tree and that the
// leaves partition the root square exactly once.
func checkTree(t *testing.T, q *QuadTree) int {
	t.Helper()

	side := 1 << q.MaxDepth()
	covered := make([]int, side*side)
	leaves := 0

	q.Walk(func(tile *Tile) bool {
		if int(tile.UV().Level) != tile.Depth() {
			t.Errorf("%v: uv level %d at depth %d", tile, tile.UV().Level, tile.Depth())
		}
		if tile.Depth() > q.MaxDepth() {
			t.Errorf("%v: depth %d beyond max %d", tile, tile.Depth(), q.MaxDepth())
		}

		children := tile.Children()
		if tile.IsLeaf() {
			leaves++
			if children != nil {
				t.Errorf("%v: leaf has children", tile)
			}
			m := tile.Mesh()
			if m == nil {
				t.Errorf("%v: leaf without mesh", tile)
			} else if m.Disposed() {
				t.Errorf("%v: leaf mesh disposed", tile)
			}

			span := side >> tile.Depth()
			uv := tile.UV()
			for y := 0; y < span; y++ {
				for x := 0; x < span; x++ {
					covered[(int(uv.OffsetV)*span+y)*side+int(uv.OffsetU)*span+x]++
				}
			}
			return true
		}

		if len(children) != 4 {
			t.Errorf("%v: internal tile with %d children", tile, len(children))
			return false
		}
		if tile.Mesh() != nil {
			t.Errorf("%v: internal tile holds a mesh", tile)
		}
		for i, c := range children {
			if c.Parent() != tile {
				t.Errorf("%v: child %d has wrong parent", tile, i)
			}
			if c.Depth() != tile.Depth()+1 {
				t.Errorf("%v: child %d at depth %d", tile, i, c.Depth())
			}
			if c.Quadrant() != i {
				t.Errorf("%v: child %d reports quadrant %d", tile, i, c.Quadrant())
			}
			if want := tile.UV().Compose(QuadrantUV(i%2, i/2)); c.UV() != want {
				t.Errorf("%v: child %d uv %v, expected %v", tile, i, c.UV(), want)
			}
		}
		return true
	})

	for i, n := range covered {
		if n != 1 {
			t.Fatalf("cell (%d,%d) covered %d times", i%side, i/side, n)
		}
	}
	if live := q.LiveMeshes(); live != leaves {
		t.Errorf("expected %d live meshes for %d leaves, got %d", leaves, leaves, live)
	}
	return leaves
}
