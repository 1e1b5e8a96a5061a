// Command meshview displays meshes and point clouds in an OpenGL window.
//
// Usage:
//
//	meshview [flags] [file.obj ...]
//	scanner | meshview --stream
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/config"
	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/internal/viewer"
)

func main() {
	flags := config.RegisterFlags(pflag.CommandLine)
	streamPoints := pflag.Bool("stream", false, `read "x y z" points from stdin`)
	pflag.Parse()

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitWithFileConfig(cfg.Logging.Level, cfg.Logging.FileConfig(), true); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== meshview ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	v, err := viewer.New(cfg)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if err := v.Load(pflag.Args()...); err != nil {
		logger.Error("some files could not be loaded", zap.Error(err))
	}
	if *streamPoints {
		v.StreamPoints(os.Stdin)
	}

	if err := v.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}
