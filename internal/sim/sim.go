// Package sim flies a viewer over a quadtree terrain without a window and
// records how the level of detail evolves.
package sim

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/quadterrain/internal/engine/camera"
	"github.com/Faultbox/quadterrain/internal/logger"
	"github.com/Faultbox/quadterrain/internal/quadtree"
)

// Report summarises a flight.
type Report struct {
	Frames         int
	SkippedFrames  int // aborted by ErrResourceAllocation
	ChangedFrames  int
	Subdivided     int
	Unified        int
	MeshesCreated  int
	MeshesReleased int
	PeakLeaves     int
	PeakLiveMeshes int
	MaxLeafDepth   int
	Final          quadtree.FrameStats
}

// Run updates tree once per frame with the viewer moving along path. Each
// frame's statistics are passed to observe when it is not nil. Allocation
// failures skip the frame; any other error stops the run.
func Run(tree *quadtree.QuadTree, path camera.Path, frames int, observe func(quadtree.FrameStats)) (Report, error) {
	var r Report
	log := logger.Named("sim")

	for i := 0; i < frames; i++ {
		viewer := path.At(i, frames)
		err := tree.Update(viewer)
		stats := tree.LastStats()
		r.Frames++

		switch {
		case errors.Is(err, quadtree.ErrResourceAllocation):
			r.SkippedFrames++
			log.Warn("frame skipped", zap.Int("frame", i), zap.Error(err))
		case err != nil:
			return r, fmt.Errorf("sim: frame %d: %w", i, err)
		}

		if stats.Changed() {
			r.ChangedFrames++
		}
		r.Subdivided += stats.Subdivided
		r.Unified += stats.Unified
		r.MeshesCreated += stats.MeshesCreated
		r.MeshesReleased += stats.MeshesReleased
		r.PeakLeaves = max(r.PeakLeaves, stats.Leaves)
		r.PeakLiveMeshes = max(r.PeakLiveMeshes, stats.LiveMeshes)
		r.MaxLeafDepth = max(r.MaxLeafDepth, stats.MaxLeafDepth)
		r.Final = stats

		if observe != nil {
			observe(stats)
		}
	}

	log.Info("flight finished",
		zap.Int("frames", r.Frames),
		zap.Int("skipped", r.SkippedFrames),
		zap.Int("changed", r.ChangedFrames),
		zap.Int("meshesCreated", r.MeshesCreated),
		zap.Int("peakLeaves", r.PeakLeaves),
		zap.Int("maxLeafDepth", r.MaxLeafDepth),
	)
	return r, nil
}
