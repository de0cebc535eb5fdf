// Package config loads and persists the user-editable application
// configuration. It lives in a YAML file in the user scope; environment
// variables act as read-only overrides at runtime.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// GeneralConfig holds UI-level preferences.
type GeneralConfig struct {
	Theme            string `yaml:"theme"` // "system" | "light" | "dark"
	RecentProjectMax int    `yaml:"recent_project_max"`
}

// SegmentationConfig holds the default automatic detection settings. A
// project file can override them per image.
type SegmentationConfig struct {
	MinArea           float64 `yaml:"min_area"`
	SimplifyTolerance float64 `yaml:"simplify_tolerance"`
	BlurKernel        int     `yaml:"blur_kernel"`
	MorphIterations   int     `yaml:"morph_iterations"`
	InvertThreshold   bool    `yaml:"invert_threshold"`
}

// EditorConfig holds interaction tolerances, in screen pixels at zoom 1.
type EditorConfig struct {
	VertexHitRadius  float64 `yaml:"vertex_hit_radius"`
	CloseDistance    float64 `yaml:"close_distance"`
	EdgeHitThreshold float64 `yaml:"edge_hit_threshold"`
	AutoPointSpacing float64 `yaml:"auto_point_spacing"`
}

// LoggingConfig mirrors the log package options.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// AppConfig is the persisted configuration root.
type AppConfig struct {
	ConfigVersion int                `yaml:"config_version"`
	General       GeneralConfig      `yaml:"general"`
	Segmentation  SegmentationConfig `yaml:"segmentation"`
	Editor        EditorConfig       `yaml:"editor"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system", RecentProjectMax: 8},
		Segmentation: SegmentationConfig{
			MinArea:           100,
			SimplifyTolerance: 1.5,
			BlurKernel:        5,
			MorphIterations:   2,
		},
		Editor: EditorConfig{
			VertexHitRadius:  10,
			CloseDistance:    15,
			EdgeHitThreshold: 8,
			AutoPointSpacing: 20,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvMinArea         = "CELLSEG_MIN_AREA"
	EnvSimplifyTol     = "CELLSEG_SIMPLIFY_TOLERANCE"
	EnvInvertThreshold = "CELLSEG_INVERT_THRESHOLD"
	EnvLogLevel        = "CELLSEG_LOG_LEVEL"
	EnvLogFormat       = "CELLSEG_LOG_FORMAT"
	EnvLogSource       = "CELLSEG_LOG_SOURCE"
	EnvLogFile         = "CELLSEG_LOG_FILE"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "CellSeg")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "CellSeg")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "cellseg")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file if present, applies defaults, and merges
// environment overrides.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	if src.General.RecentProjectMax != 0 {
		dst.General.RecentProjectMax = src.General.RecentProjectMax
	}
	if src.Segmentation.MinArea != 0 {
		dst.Segmentation.MinArea = src.Segmentation.MinArea
	}
	if src.Segmentation.SimplifyTolerance != 0 {
		dst.Segmentation.SimplifyTolerance = src.Segmentation.SimplifyTolerance
	}
	if src.Segmentation.BlurKernel != 0 {
		dst.Segmentation.BlurKernel = src.Segmentation.BlurKernel
	}
	if src.Segmentation.MorphIterations != 0 {
		dst.Segmentation.MorphIterations = src.Segmentation.MorphIterations
	}
	dst.Segmentation.InvertThreshold = src.Segmentation.InvertThreshold
	if src.Editor.VertexHitRadius != 0 {
		dst.Editor.VertexHitRadius = src.Editor.VertexHitRadius
	}
	if src.Editor.CloseDistance != 0 {
		dst.Editor.CloseDistance = src.Editor.CloseDistance
	}
	if src.Editor.EdgeHitThreshold != 0 {
		dst.Editor.EdgeHitThreshold = src.Editor.EdgeHitThreshold
	}
	if src.Editor.AutoPointSpacing != 0 {
		dst.Editor.AutoPointSpacing = src.Editor.AutoPointSpacing
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvMinArea)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Segmentation.MinArea = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSimplifyTol)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Segmentation.SimplifyTolerance = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvInvertThreshold)); v != "" {
		cfg.Segmentation.InvertThreshold = isTruthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = isTruthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
