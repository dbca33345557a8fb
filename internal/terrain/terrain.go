// Package terrain builds a quadtree terrain from configuration: it loads or
// generates the rasters and translates the config into quadtree options.
package terrain

import (
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/quadterrain/internal/config"
	"github.com/Faultbox/quadterrain/internal/logger"
	"github.com/Faultbox/quadterrain/internal/quadtree"
	"github.com/Faultbox/quadterrain/internal/raster"
)

// New loads the configured rasters and builds a quadtree whose leaf meshes are
// attached to scene (nil for none).
func New(cfg config.TerrainConfig, scene quadtree.Scene) (*quadtree.QuadTree, error) {
	height, normal, err := LoadRasters(cfg)
	if err != nil {
		return nil, err
	}
	return quadtree.New(Options(cfg, height, normal, scene))
}

// Replace builds a tree from cfg to take the place of current, which may be
// nil. Rasters are loaded and options validated while current is still live;
// on those errors current is returned untouched. Otherwise current is closed
// before the new root is attached, so a scene with a tile cap has room for it.
// If the new root still cannot be attached the returned tree is nil.
func Replace(current *quadtree.QuadTree, cfg config.TerrainConfig, scene quadtree.Scene) (*quadtree.QuadTree, error) {
	height, normal, err := LoadRasters(cfg)
	if err != nil {
		return current, err
	}
	opts := Options(cfg, height, normal, scene)
	if err := opts.Validate(); err != nil {
		return current, err
	}
	if current != nil {
		current.Close()
	}
	return quadtree.New(opts)
}

// LoadRasters returns the height buffer and, when configured, the normal
// buffer. An empty height path yields a synthetic height field.
func LoadRasters(cfg config.TerrainConfig) (height, normal *raster.Buffer, err error) {
	if cfg.HeightPath == "" {
		height = Synthetic(cfg.Resolution)
		logger.Info("using synthetic height field", zap.Int("resolution", cfg.Resolution))
	} else {
		height, err = raster.Load(cfg.HeightPath, raster.KindHeight)
		if err != nil {
			return nil, nil, fmt.Errorf("terrain: height: %w", err)
		}
		logger.Info("loaded height raster",
			zap.String("path", cfg.HeightPath),
			zap.Int("resolution", height.Resolution()))
	}

	if cfg.NormalPath != "" {
		normal, err = raster.Load(cfg.NormalPath, raster.KindNormal)
		if err != nil {
			return nil, nil, fmt.Errorf("terrain: normal: %w", err)
		}
		if normal.Resolution() != height.Resolution() {
			// Both are sampled in UV space, so this still works.
			logger.Warn("normal raster resolution differs from height",
				zap.Int("height", height.Resolution()),
				zap.Int("normal", normal.Resolution()))
		}
	}
	return height, normal, nil
}

// Options maps the terrain config onto quadtree options.
func Options(cfg config.TerrainConfig, height, normal *raster.Buffer, scene quadtree.Scene) quadtree.Options {
	opts := quadtree.DefaultOptions()
	opts.Height = height
	opts.Normal = normal
	opts.Scene = scene
	opts.RootScale = cfg.RootScale
	opts.HeightScale = cfg.HeightScale
	opts.MaxDepth = cfg.MaxDepth
	opts.TileResolution = cfg.TileResolution
	opts.Policy = quadtree.Policy{
		SubdivideThreshold: cfg.SubdivideThreshold,
		UnifyThreshold:     cfg.UnifyThreshold,
	}
	opts.MaxMeshes = cfg.MaxMeshes
	opts.ColorDepth = cfg.ColorDepth
	opts.Wireframe = cfg.Wireframe
	return opts
}

// Synthetic returns a resolution x resolution height field made of a few
// octaves of sine waves, normalized to the full 8-bit range.
func Synthetic(resolution int) *raster.Buffer {
	resolution = max(resolution, 2)
	heights := make([]float64, resolution*resolution)
	lo, hi := gomath.Inf(1), gomath.Inf(-1)

	for y := 0; y < resolution; y++ {
		z := float64(y) / float64(resolution-1) * 2 * gomath.Pi
		for x := 0; x < resolution; x++ {
			u := float64(x) / float64(resolution-1) * 2 * gomath.Pi
			h := 15.0 * gomath.Sin(u) * gomath.Cos(z)
			h += 8.0 * gomath.Sin(u*2.5+1.0) * gomath.Cos(z*2.0+0.5)
			h += 4.0 * gomath.Sin(u*5.0+2.0) * gomath.Sin(z*4.0+1.0)
			heights[y*resolution+x] = h
			lo = gomath.Min(lo, h)
			hi = gomath.Max(hi, h)
		}
	}

	data := make([]byte, len(heights))
	span := hi - lo
	for i, h := range heights {
		if span > 0 {
			data[i] = byte(gomath.Round((h - lo) / span * 255))
		}
	}

	buf, err := raster.NewBuffer(data, resolution, raster.HeightChannels)
	if err != nil {
		// Sizes are computed above; this cannot fail.
		panic(err)
	}
	return buf
}
