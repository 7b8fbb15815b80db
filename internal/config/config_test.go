package config

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "personalmanager" {
		t.Errorf("expected Name=personalmanager, got %s", cfg.Name)
	}
	if cfg.Routing.LowThreshold != 0.5 {
		t.Errorf("expected LowThreshold=0.5, got %v", cfg.Routing.LowThreshold)
	}
	if cfg.Routing.HighThreshold != 0.8 {
		t.Errorf("expected HighThreshold=0.8, got %v", cfg.Routing.HighThreshold)
	}
	if cfg.Execution.Shell != "sh" {
		t.Errorf("expected Shell=sh, got %s", cfg.Execution.Shell)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Routing.Locale = "en-US"
	cfg.Routing.HighThreshold = 0.9

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Routing.Locale != "en-US" {
		t.Errorf("expected Locale=en-US, got %s", loaded.Routing.Locale)
	}
	if loaded.Routing.HighThreshold != 0.9 {
		t.Errorf("expected HighThreshold=0.9, got %v", loaded.Routing.HighThreshold)
	}
}

func TestConfig_LoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Routing.LowThreshold != 0.5 {
		t.Errorf("expected defaults for missing file, got LowThreshold=%v", cfg.Routing.LowThreshold)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PM_LOCALE", "en-US")
	t.Setenv("PM_THRESHOLD_LOW", "0.3")
	t.Setenv("PM_THRESHOLD_HIGH", "0.95")
	t.Setenv("PM_CATALOG", "/tmp/custom-intents.yaml")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Routing.Locale != "en-US" {
		t.Errorf("expected Locale=en-US, got %s", cfg.Routing.Locale)
	}
	if cfg.Routing.LowThreshold != 0.3 {
		t.Errorf("expected LowThreshold=0.3, got %v", cfg.Routing.LowThreshold)
	}
	if cfg.Routing.HighThreshold != 0.95 {
		t.Errorf("expected HighThreshold=0.95, got %v", cfg.Routing.HighThreshold)
	}
	if cfg.Catalog.Path != "/tmp/custom-intents.yaml" {
		t.Errorf("expected catalog path override, got %s", cfg.Catalog.Path)
	}
}

func TestConfig_EnvOverrideWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Routing.Locale = "zh-CN"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("PM_LOCALE", "en-US")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Routing.Locale != "en-US" {
		t.Errorf("expected env override to win over file, got %s", loaded.Routing.Locale)
	}
}

func TestConfig_EnvOverrideIgnoresUnparsable(t *testing.T) {
	t.Setenv("PM_THRESHOLD_LOW", "not-a-number")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Routing.LowThreshold != 0.5 {
		t.Errorf("unparsable override should be ignored, got %v", cfg.Routing.LowThreshold)
	}
}

func TestConfig_ValidateThresholdOrdering(t *testing.T) {
	tests := []struct {
		name    string
		low     float64
		high    float64
		wantErr bool
	}{
		{"defaults", 0.5, 0.8, false},
		{"equal", 0.7, 0.7, false},
		{"zero and one", 0, 1, false},
		{"low above high", 0.9, 0.5, true},
		{"low negative", -0.1, 0.8, true},
		{"high above one", 0.5, 1.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Routing.LowThreshold = tt.low
			cfg.Routing.HighThreshold = tt.high

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("expected validation error for low=%v high=%v", tt.low, tt.high)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected valid config, got: %v", err)
			}
			if tt.wantErr {
				var cfgErr *ConfigurationError
				if !errors.As(err, &cfgErr) {
					t.Errorf("expected ConfigurationError, got %T", err)
				}
			}
		})
	}
}

func TestConfig_ValidateExecution(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Execution.Shell = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty shell")
	}

	cfg = DefaultConfig()
	cfg.Execution.DefaultTimeout = "not-a-duration"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for invalid timeout")
	}

	cfg = DefaultConfig()
	cfg.Execution.MaxOutputBytes = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for zero output cap")
	}
}

func TestConfig_Helpers(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.GetExecTimeout() == 0 {
		t.Error("GetExecTimeout should return non-zero duration")
	}
	if cfg.GetMaxTimeout() == 0 {
		t.Error("GetMaxTimeout should return non-zero duration")
	}

	cfg.Execution.DefaultTimeout = "garbage"
	if cfg.GetExecTimeout() == 0 {
		t.Error("GetExecTimeout should fall back on parse failure")
	}
}
