// Package main is the entry point for the interactive terrain viewer.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/quadterrain/internal/config"
	"github.com/Faultbox/quadterrain/internal/logger"
	"github.com/Faultbox/quadterrain/internal/viewer"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := initLogger(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== QuadTerrain Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	v, err := viewer.New(cfg)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if err := v.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}

func initLogger(cfg config.LoggingConfig) error {
	if cfg.LogFile == "" || !cfg.JSON {
		return logger.Init(cfg.Level, cfg.LogFile)
	}
	fileCfg := logger.DefaultFileConfig(cfg.LogFile)
	fileCfg.JSON = true
	return logger.InitWithFileConfig(cfg.Level, fileCfg, true)
}
