package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working and config directories.
const FileName = "quadterrain.yaml"

// ErrInvalid reports a config value that can never produce a working terrain.
var ErrInvalid = errors.New("invalid config")

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	// Explicit path takes priority over the search.
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that the loaders and the quadtree would otherwise
// reject later with a less helpful message.
func (c *Config) Validate() error {
	t := c.Terrain
	switch {
	case t.RootScale <= 0:
		return fmt.Errorf("%w: terrain.root_scale must be positive, got %v", ErrInvalid, t.RootScale)
	case t.MaxDepth < 0:
		return fmt.Errorf("%w: terrain.max_depth must not be negative, got %d", ErrInvalid, t.MaxDepth)
	case t.TileResolution < 2:
		return fmt.Errorf("%w: terrain.tile_resolution must be at least 2, got %d", ErrInvalid, t.TileResolution)
	case t.SubdivideThreshold <= 0 || t.UnifyThreshold <= 0:
		return fmt.Errorf("%w: terrain thresholds must be positive", ErrInvalid)
	case t.UnifyThreshold > t.SubdivideThreshold:
		return fmt.Errorf("%w: terrain.unify_threshold %v above subdivide_threshold %v",
			ErrInvalid, t.UnifyThreshold, t.SubdivideThreshold)
	case t.Resolution < 2:
		return fmt.Errorf("%w: terrain.resolution must be at least 2, got %d", ErrInvalid, t.Resolution)
	}

	switch strings.ToLower(c.Simulation.Format) {
	case "", "png", "webp":
	default:
		return fmt.Errorf("%w: simulation.format %q (want png or webp)", ErrInvalid, c.Simulation.Format)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		FileName,
		filepath.Join(ConfigDir(), FileName),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "QuadTerrain")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "QuadTerrain")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "quadterrain")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "quadterrain")
	}
}

// loadFromFile merges a YAML file into cfg. Unknown keys are rejected so that
// a misspelt threshold does not silently fall back to its default.
func loadFromFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
