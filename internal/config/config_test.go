package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"

	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/pkg/mesh"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Window.Height)
	}
	if cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if !cfg.Window.VSync {
		t.Error("expected vsync to be true by default")
	}
	if diff := cmp.Diff(mesh.DefaultVisOptions(), cfg.Mesh.Vis); diff != "" {
		t.Errorf("default vis options mismatch (-want +got):\n%s", diff)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)

	yamlContent := `
window:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false

render:
  light_dir: [0, 1, 0]

mesh:
  normal_radius: 0.2
  vis:
    show_points: true
    point_size: 2
    color_type: Height
    color_scheme: Viridis

logging:
  level: "debug"
  log_file: "meshview.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Width != 1920 || cfg.Window.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if !cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Window.VSync {
		t.Error("expected vsync to be false")
	}
	if cfg.Window.Title != "meshview" {
		t.Errorf("unset title should keep its default, got %q", cfg.Window.Title)
	}
	if cfg.Render.LightDir != [3]float32{0, 1, 0} {
		t.Errorf("expected light dir (0,1,0), got %v", cfg.Render.LightDir)
	}
	if cfg.Mesh.NormalRadius != 0.2 {
		t.Errorf("expected normal radius 0.2, got %v", cfg.Mesh.NormalRadius)
	}

	want := mesh.DefaultVisOptions()
	want.ShowPoints = true
	want.PointSize = 2
	want.ColorType = mesh.ColorHeight
	want.ColorScheme = mesh.SchemeViridis
	if diff := cmp.Diff(want, cfg.Mesh.Vis); diff != "" {
		t.Errorf("vis options mismatch (-want +got):\n%s", diff)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "meshview.log" {
		t.Errorf("expected log file 'meshview.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "window:\n  width: not a number\n  invalid syntax here\n"},
		{"unknown color type", "mesh:\n  vis:\n    color_type: Rainbow\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "invalid.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if err := loadFromFile(Default(), configPath); err == nil {
				t.Error("expected error loading invalid config, got nil")
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/meshview.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(FileName, []byte("window:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path != FileName {
		t.Errorf("expected to find %s in current directory, got %q", FileName, path)
	}
}

func newFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return f
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"--debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "vsync can be switched off",
			args: []string{"--vsync=false"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.VSync {
					t.Error("expected vsync to be false")
				}
			},
		},
		{
			name: "unset flags keep the config",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Window.VSync || cfg.Window.Width != 1280 || cfg.Window.Samples != 4 {
					t.Errorf("config changed without flags: %+v", cfg.Window)
				}
			},
		},
		{
			name: "width and height flags",
			args: []string{"--width", "2560", "--height=1440", "--fullscreen"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Width != 2560 || cfg.Window.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Window.Width, cfg.Window.Height)
				}
				if !cfg.Window.Fullscreen {
					t.Error("expected fullscreen to be true")
				}
			},
		},
		{
			name: "log file",
			args: []string{"--log-file", "/tmp/mv.log", "--samples", "0"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.LogFile != "/tmp/mv.log" {
					t.Errorf("expected log file /tmp/mv.log, got %s", cfg.Logging.LogFile)
				}
				if cfg.Window.Samples != 0 {
					t.Errorf("expected samples 0, got %d", cfg.Window.Samples)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			newFlags(t, tt.args...).apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "custom.yaml")
	yamlContent := "window:\n  width: 1600\n  height: 900\n"
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(newFlags(t, "--config", configPath, "--width", "1920"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width comes from the flag, height from the file.
	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Window.Height)
	}
}

func TestLoadWithoutFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load(nil): %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config without file or flags differs from defaults:\n%s", diff)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", FileName)

	want := Default()
	want.Window.Width = 640
	want.Mesh.Vis.ColorType = mesh.ColorNormalVector
	if err := want.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	got := Default()
	if err := loadFromFile(got, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSave(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	if err := Default().Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ConfigDir(), FileName)); err != nil {
		t.Errorf("saved config not found: %v", err)
	}
}

func TestLoggingFileConfig(t *testing.T) {
	if got := (LoggingConfig{MaxSizeMB: 3}).FileConfig(); got.Path != "" {
		t.Errorf("expected file output disabled, got path %q", got.Path)
	}

	got := LoggingConfig{LogFile: "view.log", MaxSizeMB: 3}.FileConfig()
	want := logger.DefaultFileConfig("view.log")
	want.MaxSizeMB = 3
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("file config mismatch (-want +got):\n%s", diff)
	}
}
