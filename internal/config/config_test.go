package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestConfig(t *testing.T, data string) {
	t.Helper()
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, ".config", "matchbox")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "default.json"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	// Override HOME so LoadConfig reads our temp file.
	t.Setenv("HOME", dir)
}

func TestLoadConfig(t *testing.T) {
	writeTestConfig(t, `{"region":"eu-west-1","max_results":5,"cost_weight":0.6}`)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Region != "eu-west-1" {
		t.Errorf("Region = %q, want %q", cfg.Region, "eu-west-1")
	}
	if cfg.MaxResults != 5 {
		t.Errorf("MaxResults = %d, want 5", cfg.MaxResults)
	}
	if cfg.CostWeight != 0.6 {
		t.Errorf("CostWeight = %v, want 0.6", cfg.CostWeight)
	}
	// Non-overridden fields keep defaults.
	if cfg.PerformanceWeight != 0.4 {
		t.Errorf("PerformanceWeight = %v, want default 0.4", cfg.PerformanceWeight)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Region != "us-east-2" {
		t.Errorf("default Region = %q, want %q", cfg.Region, "us-east-2")
	}
	if cfg.MaxResults != 10 {
		t.Errorf("default MaxResults = %d, want 10", cfg.MaxResults)
	}
	if cfg.DisableSpot {
		t.Error("spot pricing should be enabled by default")
	}
	if cfg.PerformanceWeight+cfg.CostWeight+cfg.EfficiencyWeight != 1.0 {
		t.Error("default weights should sum to 1")
	}
}

func TestLoadConfigBadJSON(t *testing.T) {
	writeTestConfig(t, "{bad json")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for bad JSON")
	}
}
