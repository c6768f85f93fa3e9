// Package main is the entry point for the meshview interactive viewer.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/meshcache/internal/config"
	"github.com/Faultbox/meshcache/internal/logger"
	"github.com/Faultbox/meshcache/internal/mesh"
	"github.com/Faultbox/meshcache/internal/viewer"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== meshview ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	// A positional argument overrides the configured mesh.
	name := cfg.Viewer.Mesh
	if args := config.Args(); len(args) > 0 {
		name = args[0]
	}
	if config.OpenDialog() {
		path, err := dialog.File().
			Filter("Wavefront OBJ", "obj").
			Filter("All Files", "*").
			Title("Open Mesh").
			Load()
		if errors.Is(err, dialog.ErrCancelled) {
			logger.Info("no mesh chosen")
			return
		}
		if err != nil {
			logger.Error("file dialog failed", zap.Error(err))
			os.Exit(1)
		}
		name = path
	}
	m, err := mesh.Open(name)
	if err != nil {
		logger.Error("failed to open mesh", zap.Error(err))
		os.Exit(1)
	}

	v, err := viewer.New(cfg, m)
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
