package config

import "github.com/spf13/pflag"

// Flags are the command-line overrides shared by the viewer and the CLI.
// Only flags the user actually set override the file.
type Flags struct {
	fs *pflag.FlagSet

	ConfigPath string
	Debug      bool
	LogFile    string
	Fullscreen bool
	VSync      bool
	Width      int
	Height     int
	Samples    int
}

// RegisterFlags declares the shared flags on fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "also write logs to this file")
	fs.BoolVar(&f.Fullscreen, "fullscreen", false, "run in fullscreen mode")
	fs.BoolVar(&f.VSync, "vsync", true, "synchronize with the display refresh")
	fs.IntVar(&f.Width, "width", 0, "window width")
	fs.IntVar(&f.Height, "height", 0, "window height")
	fs.IntVar(&f.Samples, "samples", 0, "MSAA samples, 0 disables")
	return f
}

func (f *Flags) changed(name string) bool {
	return f != nil && f.fs != nil && f.fs.Changed(name)
}

// apply copies set flags into cfg.
func (f *Flags) apply(cfg *Config) {
	if f.changed("debug") && f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.changed("log-file") {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.changed("fullscreen") {
		cfg.Window.Fullscreen = f.Fullscreen
	}
	if f.changed("vsync") {
		cfg.Window.VSync = f.VSync
	}
	if f.changed("width") && f.Width > 0 {
		cfg.Window.Width = f.Width
	}
	if f.changed("height") && f.Height > 0 {
		cfg.Window.Height = f.Height
	}
	if f.changed("samples") {
		cfg.Window.Samples = f.Samples
	}
}
