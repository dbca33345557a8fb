// Package config handles terrain viewer and simulator configuration.
package config

// Config holds all settings.
type Config struct {
	Terrain    TerrainConfig    `yaml:"terrain"`
	Graphics   GraphicsConfig   `yaml:"graphics"`
	Camera     CameraConfig     `yaml:"camera"`
	Simulation SimulationConfig `yaml:"simulation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// TerrainConfig holds the raster sources and quadtree parameters.
type TerrainConfig struct {
	HeightPath string `yaml:"height_path"` // empty generates a synthetic height field
	NormalPath string `yaml:"normal_path"` // empty derives normals from height
	// Resolution of raw .data/.raw rasters and of the synthetic field.
	Resolution int `yaml:"resolution"`

	RootScale          float32 `yaml:"root_scale"`
	HeightScale        float32 `yaml:"height_scale"`
	MaxDepth           int     `yaml:"max_depth"`
	TileResolution     int     `yaml:"tile_resolution"`
	SubdivideThreshold float64 `yaml:"subdivide_threshold"`
	UnifyThreshold     float64 `yaml:"unify_threshold"`
	MaxMeshes          int     `yaml:"max_meshes"` // 0 for no budget
	ColorDepth         int     `yaml:"color_depth"`
	Wireframe          bool    `yaml:"wireframe"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"`
}

// CameraConfig holds the initial orbit camera.
type CameraConfig struct {
	Distance    float32 `yaml:"distance"`
	Yaw         float32 `yaml:"yaw"`   // radians
	Pitch       float32 `yaml:"pitch"` // radians
	FOV         float32 `yaml:"fov"`   // degrees
	MinDistance float32 `yaml:"min_distance"`
	MaxDistance float32 `yaml:"max_distance"`
}

// SimulationConfig drives the headless simulator: a viewer flying in a
// straight line from Start to End over Frames updates.
type SimulationConfig struct {
	Frames int        `yaml:"frames"`
	Start  [3]float32 `yaml:"start"`
	End    [3]float32 `yaml:"end"`
	Output string     `yaml:"output"` // LOD map path, empty to skip
	Format string     `yaml:"format"` // png or webp; empty picks from the extension
	// MapSize is the LOD map edge length in pixels.
	MapSize int `yaml:"map_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"` // JSON lines in the log file
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Terrain: TerrainConfig{
			Resolution:         256,
			RootScale:          128,
			HeightScale:        0.1,
			MaxDepth:           5,
			TileResolution:     64,
			SubdivideThreshold: 5,
			UnifyThreshold:     4,
			ColorDepth:         4,
			Wireframe:          true,
		},
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
		},
		Camera: CameraConfig{
			Distance:    96,
			Yaw:         0.6,
			Pitch:       0.5,
			FOV:         60,
			MinDistance: 2,
			MaxDistance: 400,
		},
		Simulation: SimulationConfig{
			Frames:  120,
			Start:   [3]float32{-96, 8, -96},
			End:     [3]float32{96, 8, 96},
			Output:  "",
			MapSize: 512,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
