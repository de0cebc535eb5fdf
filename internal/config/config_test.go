package config

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Segmentation.MinArea != 100 {
		t.Errorf("default min area %v", cfg.Segmentation.MinArea)
	}
	if cfg.Editor.VertexHitRadius != 10 {
		t.Errorf("default vertex hit radius %v", cfg.Editor.VertexHitRadius)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default log level %q", cfg.Logging.Level)
	}
}

func TestMergePreservesDefaultsForZeroFields(t *testing.T) {
	cfg := Defaults()
	var partial AppConfig
	if err := yaml.Unmarshal([]byte("segmentation:\n  min_area: 250\n"), &partial); err != nil {
		t.Fatal(err)
	}
	mergeInto(&cfg, &partial)

	if cfg.Segmentation.MinArea != 250 {
		t.Errorf("min area %v, want 250", cfg.Segmentation.MinArea)
	}
	if cfg.Segmentation.SimplifyTolerance != 1.5 {
		t.Errorf("simplify tolerance lost: %v", cfg.Segmentation.SimplifyTolerance)
	}
	if cfg.Editor.CloseDistance != 15 {
		t.Errorf("editor defaults lost: %v", cfg.Editor.CloseDistance)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvMinArea, "333.5")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvInvertThreshold, "yes")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	if cfg.Segmentation.MinArea != 333.5 {
		t.Errorf("env min area %v", cfg.Segmentation.MinArea)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("env log level %q", cfg.Logging.Level)
	}
	if !cfg.Segmentation.InvertThreshold {
		t.Error("env invert threshold not applied")
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.General.Theme = "dark"
	cfg.Segmentation.InvertThreshold = true

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	var back AppConfig
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.General.Theme != "dark" || !back.Segmentation.InvertThreshold {
		t.Errorf("round trip lost fields: %+v", back)
	}
}
