package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds persistent editor settings
type Config struct {
	ExportFormat string  `yaml:"export_format"` // "svg", "png" or "dot"
	LastDir      string  `yaml:"last_dir"`
	SnapRadius   float64 `yaml:"snap_radius"` // viewport units, divided by zoom
	LogFile      string  `yaml:"log_file,omitempty"`
	CellWidth    float64 `yaml:"cell_width"` // canvas units per terminal column at 100%
	CellHeight   float64 `yaml:"cell_height"`
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	cwd, _ := os.Getwd()
	return Config{
		ExportFormat: "svg",
		LastDir:      cwd,
		SnapRadius:   24,
		CellWidth:    8,
		CellHeight:   16,
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flowedit.yaml"
	}
	return filepath.Join(home, ".flowedit.yaml")
}

// LoadConfig loads configuration from the YAML file, falling back to
// defaults for anything missing or invalid.
func LoadConfig() Config {
	return loadConfigFrom(ConfigPath())
}

func loadConfigFrom(path string) Config {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg
	}

	switch file.ExportFormat {
	case "svg", "png", "dot":
		cfg.ExportFormat = file.ExportFormat
	}
	if file.LastDir != "" {
		cfg.LastDir = file.LastDir
	}
	if file.SnapRadius > 0 {
		cfg.SnapRadius = file.SnapRadius
	}
	if file.CellWidth > 0 {
		cfg.CellWidth = file.CellWidth
	}
	if file.CellHeight > 0 {
		cfg.CellHeight = file.CellHeight
	}
	cfg.LogFile = file.LogFile
	return cfg
}

// SaveConfig saves configuration to the YAML file
func SaveConfig(cfg Config) error {
	return saveConfigTo(ConfigPath(), cfg)
}

func saveConfigTo(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	content := append([]byte("# flowedit configuration\n"), data...)
	return os.WriteFile(path, content, 0644)
}

// openLog returns the gesture logger. tcell owns the terminal, so without a
// log file everything is discarded.
func openLog(cfg Config) (*slog.Logger, io.Closer) {
	if cfg.LogFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), nopCloser{}
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), nopCloser{}
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})), f
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
