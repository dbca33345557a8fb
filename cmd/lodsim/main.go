// Package main flies a viewer over the terrain without a window, logs how the
// quadtree refines and coarsens, and writes the final LOD map.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/quadterrain/internal/config"
	"github.com/Faultbox/quadterrain/internal/engine/camera"
	"github.com/Faultbox/quadterrain/internal/lodmap"
	"github.com/Faultbox/quadterrain/internal/logger"
	"github.com/Faultbox/quadterrain/internal/quadtree"
	"github.com/Faultbox/quadterrain/internal/sim"
	"github.com/Faultbox/quadterrain/internal/terrain"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
		fileCfg.JSON = cfg.Logging.JSON
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("simulation failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	tree, err := terrain.New(cfg.Terrain, nil)
	if err != nil {
		return err
	}
	defer tree.Close()

	path := camera.PathFromConfig(cfg.Simulation)
	logger.Info("flying viewer",
		zap.Int("frames", cfg.Simulation.Frames),
		zap.Float32s("start", cfg.Simulation.Start[:]),
		zap.Float32s("end", cfg.Simulation.End[:]),
	)

	report, err := sim.Run(tree, path, cfg.Simulation.Frames, func(s quadtree.FrameStats) {
		if s.Changed() {
			logger.Info("frame",
				zap.Uint64("frame", s.Frame),
				zap.Int("subdivided", s.Subdivided),
				zap.Int("unified", s.Unified),
				zap.Int("leaves", s.Leaves),
				zap.Int("liveMeshes", s.LiveMeshes),
				zap.Int("maxLeafDepth", s.MaxLeafDepth),
			)
		}
	})
	if err != nil {
		return err
	}

	fmt.Printf("frames %d (skipped %d, changed %d)\n", report.Frames, report.SkippedFrames, report.ChangedFrames)
	fmt.Printf("subdivisions %d, unifications %d\n", report.Subdivided, report.Unified)
	fmt.Printf("meshes created %d, released %d, peak live %d\n",
		report.MeshesCreated, report.MeshesReleased, report.PeakLiveMeshes)
	fmt.Printf("final leaves %d, deepest level %d\n", report.Final.Leaves, report.MaxLeafDepth)

	if cfg.Simulation.Output == "" {
		return nil
	}
	format := lodmap.FormatFromPath(cfg.Simulation.Output)
	if cfg.Simulation.Format != "" {
		if format, err = lodmap.ParseFormat(cfg.Simulation.Format); err != nil {
			return err
		}
	}

	end := path.At(cfg.Simulation.Frames-1, cfg.Simulation.Frames)
	img := lodmap.Render(tree, lodmap.Options{
		Size:    cfg.Simulation.MapSize,
		Borders: true,
		Viewer:  &end,
	})
	if err := lodmap.Save(cfg.Simulation.Output, img, format); err != nil {
		return fmt.Errorf("writing LOD map: %w", err)
	}
	logger.Info("LOD map written", zap.String("path", cfg.Simulation.Output), zap.String("format", string(format)))
	return nil
}
