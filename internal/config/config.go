// Package config handles viewer configuration loading and management.
package config

import (
	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Render  RenderConfig  `yaml:"render"`
	Mesh    MeshConfig    `yaml:"mesh"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	Samples    int    `yaml:"samples"`
}

// RenderConfig holds lighting and shadow settings.
type RenderConfig struct {
	ShadowResolution int        `yaml:"shadow_resolution"`
	LightDir         [3]float32 `yaml:"light_dir,flow"`
	Background       [3]float32 `yaml:"background,flow"`
}

// MeshConfig holds defaults applied to every loaded mesh.
type MeshConfig struct {
	Vis mesh.VisOptions `yaml:"vis"`
	// StreamCapacity preallocates V for streamed point clouds.
	StreamCapacity int `yaml:"stream_capacity"`
	// NormalRadius is the neighbourhood used to estimate point cloud normals.
	NormalRadius float64 `yaml:"normal_radius"`
	// DecimateRatio is the fraction of faces kept by decimation.
	DecimateRatio float64 `yaml:"decimate_ratio"`
	LabelFile     string  `yaml:"label_file"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// FileConfig converts the settings for logger.InitWithFileConfig. File
// output is disabled when LogFile is empty.
func (l LoggingConfig) FileConfig() logger.FileConfig {
	if l.LogFile == "" {
		return logger.FileConfig{}
	}
	fc := logger.DefaultFileConfig(l.LogFile)
	if l.MaxSizeMB > 0 {
		fc.MaxSizeMB = l.MaxSizeMB
	}
	if l.MaxBackups > 0 {
		fc.MaxBackups = l.MaxBackups
	}
	return fc
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:   "meshview",
			Width:   1280,
			Height:  720,
			VSync:   true,
			Samples: 4,
		},
		Render: RenderConfig{
			ShadowResolution: 2048,
			LightDir:         [3]float32{0.4, 1.0, 0.6},
			Background:       [3]float32{0.1, 0.1, 0.15},
		},
		Mesh: MeshConfig{
			Vis:            mesh.DefaultVisOptions(),
			StreamCapacity: 1 << 20,
			NormalRadius:   0.05,
			DecimateRatio:  0.5,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  20,
			MaxBackups: 5,
		},
	}
}
