package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type MatchboxConfig struct {
	Region            string  `json:"region"`
	MaxResults        int     `json:"max_results"`
	PerformanceWeight float64 `json:"performance_weight"`
	CostWeight        float64 `json:"cost_weight"`
	EfficiencyWeight  float64 `json:"efficiency_weight"`
	DisableSpot       bool    `json:"disable_spot"`
	DefaultWorkload   string  `json:"default_workload"`
}

func LoadConfig() (MatchboxConfig, error) {
	cfg := MatchboxConfig{
		Region:            "us-east-2",
		MaxResults:        10,
		PerformanceWeight: 0.4,
		CostWeight:        0.4,
		EfficiencyWeight:  0.2,
		DefaultWorkload:   "dev-box",
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, nil
	}

	path := filepath.Join(home, ".config", "matchbox", "default.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
