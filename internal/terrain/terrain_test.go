package terrain

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/quadterrain/internal/config"
	"github.com/Faultbox/quadterrain/internal/quadtree"
	"github.com/Faultbox/quadterrain/internal/raster"
)

func TestSynthetic(t *testing.T) {
	buf := Synthetic(64)
	if buf.Resolution() != 64 || buf.Channels() != raster.HeightChannels {
		t.Fatalf("expected 64x64 height buffer, got %dx%d channels", buf.Resolution(), buf.Channels())
	}

	lo, hi := byte(255), byte(0)
	for _, b := range buf.Bytes() {
		lo = min(lo, b)
		hi = max(hi, b)
	}
	if lo != 0 || hi != 255 {
		t.Errorf("expected the full 8-bit range, got [%d, %d]", lo, hi)
	}

	again := Synthetic(64)
	for i := range buf.Bytes() {
		if buf.Bytes()[i] != again.Bytes()[i] {
			t.Fatal("expected the synthetic field to be deterministic")
		}
	}
}

func TestNewFromDefaults(t *testing.T) {
	cfg := config.Default().Terrain
	cfg.Resolution = 32
	cfg.TileResolution = 9

	q, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("failed to build terrain: %v", err)
	}
	defer q.Close()

	if q.MaxDepth() != cfg.MaxDepth {
		t.Errorf("expected max depth %d, got %d", cfg.MaxDepth, q.MaxDepth())
	}
	p := q.Policy()
	if p.SubdivideThreshold != 5 || p.UnifyThreshold != 4 {
		t.Errorf("expected policy 5/4, got %+v", p)
	}
	if m := q.Root().Mesh(); m == nil || m.Resolution != 9 {
		t.Error("expected a 9x9 root mesh")
	}
}

func TestLoadRastersFromFiles(t *testing.T) {
	dir := t.TempDir()
	heightPath := filepath.Join(dir, "terrain_height.data")
	normalPath := filepath.Join(dir, "terrain_normal.raw")

	if err := os.WriteFile(heightPath, make([]byte, 8*8), 0644); err != nil {
		t.Fatalf("failed to write height: %v", err)
	}
	if err := os.WriteFile(normalPath, make([]byte, 4*4*4), 0644); err != nil {
		t.Fatalf("failed to write normal: %v", err)
	}

	cfg := config.Default().Terrain
	cfg.HeightPath = heightPath
	cfg.NormalPath = normalPath

	height, normal, err := LoadRasters(cfg)
	if err != nil {
		t.Fatalf("failed to load rasters: %v", err)
	}
	if height.Resolution() != 8 {
		t.Errorf("expected height resolution 8, got %d", height.Resolution())
	}
	if normal == nil || normal.Resolution() != 4 || normal.Channels() != raster.NormalChannels {
		t.Error("expected a 4x4 normal buffer")
	}
}

func TestLoadRastersMissing(t *testing.T) {
	cfg := config.Default().Terrain
	cfg.HeightPath = filepath.Join(t.TempDir(), "missing.data")

	if _, _, err := LoadRasters(cfg); err == nil {
		t.Error("expected error for missing height raster")
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	cfg := config.Default().Terrain
	cfg.Resolution = 8
	cfg.ColorDepth = 0

	if _, err := New(cfg, nil); !errors.Is(err, quadtree.ErrInvalidOptions) {
		t.Errorf("expected ErrInvalidOptions, got %v", err)
	}
}

// cappedScene accepts at most limit attached meshes, like a renderer with a
// tile cap.
type cappedScene struct {
	limit int
	live  map[quadtree.Handle]bool
	next  quadtree.Handle
}

func newCappedScene(limit int) *cappedScene {
	return &cappedScene{limit: limit, live: make(map[quadtree.Handle]bool)}
}

func (s *cappedScene) Attach(*quadtree.Tile, *quadtree.Mesh) (quadtree.Handle, error) {
	if len(s.live) >= s.limit {
		return 0, errors.New("tile cap reached")
	}
	s.next++
	s.live[s.next] = true
	return s.next, nil
}

func (s *cappedScene) Detach(h quadtree.Handle) {
	delete(s.live, h)
}

func TestReplaceFreesSceneFirst(t *testing.T) {
	cfg := config.Default().Terrain
	cfg.Resolution = 16
	cfg.TileResolution = 3
	scene := newCappedScene(1)

	old, err := New(cfg, scene)
	if err != nil {
		t.Fatalf("failed to build terrain: %v", err)
	}
	if len(scene.live) != 1 {
		t.Fatalf("expected 1 attached mesh, got %d", len(scene.live))
	}

	cfg.Resolution = 32
	tree, err := Replace(old, cfg, scene)
	if err != nil {
		t.Fatalf("expected replacement to fit the freed cap, got %v", err)
	}
	defer tree.Close()

	if tree == old {
		t.Error("expected a new tree")
	}
	if old.LiveMeshes() != 0 {
		t.Errorf("expected the old tree to be closed, got %d live meshes", old.LiveMeshes())
	}
	if len(scene.live) != 1 {
		t.Errorf("expected 1 attached mesh, got %d", len(scene.live))
	}
}

func TestReplaceKeepsCurrentOnBadInput(t *testing.T) {
	cfg := config.Default().Terrain
	cfg.Resolution = 16
	cfg.TileResolution = 3
	scene := newCappedScene(4)

	current, err := New(cfg, scene)
	if err != nil {
		t.Fatalf("failed to build terrain: %v", err)
	}
	defer current.Close()

	missing := cfg
	missing.HeightPath = filepath.Join(t.TempDir(), "missing.png")
	invalid := cfg
	invalid.ColorDepth = 0

	for name, next := range map[string]config.TerrainConfig{"missing raster": missing, "invalid options": invalid} {
		tree, err := Replace(current, next, scene)
		if err == nil {
			t.Errorf("%s: expected error, got nil", name)
		}
		if tree != current {
			t.Errorf("%s: expected the current tree back", name)
		}
		if current.LiveMeshes() != 1 || len(scene.live) != 1 {
			t.Errorf("%s: expected the current tree to stay attached, got %d meshes, %d attached",
				name, current.LiveMeshes(), len(scene.live))
		}
	}
}
