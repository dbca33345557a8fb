package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagHeightMap  = flag.String("heightmap", "", "Height raster (.data, .raw, .png, .tga, .webp)")
	flagNormalMap  = flag.String("normalmap", "", "Normal raster")
	flagMaxDepth   = flag.Int("max-depth", -1, "Deepest quadtree level")
	flagHardCutoff = flag.Bool("hard-cutoff", false, "Merge at the subdivide threshold (no dead band)")
	flagSolid      = flag.Bool("solid", false, "Draw filled tiles instead of wireframe")
	flagFrames     = flag.Int("frames", 0, "Simulated frames")
	flagOutput     = flag.String("out", "", "LOD map output path")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagHeightMap != "" {
		cfg.Terrain.HeightPath = *flagHeightMap
	}
	if *flagNormalMap != "" {
		cfg.Terrain.NormalPath = *flagNormalMap
	}
	if *flagMaxDepth >= 0 {
		cfg.Terrain.MaxDepth = *flagMaxDepth
	}
	if *flagHardCutoff {
		cfg.Terrain.UnifyThreshold = cfg.Terrain.SubdivideThreshold
	}
	if *flagSolid {
		cfg.Terrain.Wireframe = false
	}
	if *flagFrames > 0 {
		cfg.Simulation.Frames = *flagFrames
	}
	if *flagOutput != "" {
		cfg.Simulation.Output = *flagOutput
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
}
