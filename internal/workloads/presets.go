// Package workloads holds the static workload presets the CLI offers as
// shortcuts for common requirement sets.
package workloads

import (
	"github.com/emaland/matchbox/internal/catalog"
	"github.com/emaland/matchbox/internal/matcher"
)

var presets = []matcher.Workload{
	{
		Name:        "web-server",
		Description: "General purpose web serving, moderate CPU and memory",
		Requirements: catalog.Requirements{
			MinVCPUs:           2,
			MinMemoryGiB:       4,
			NetworkPerformance: []string{"High", "Up to 10 Gigabit"},
		},
	},
	{
		Name:        "batch",
		Description: "CPU-bound batch processing",
		Requirements: catalog.Requirements{
			MinVCPUs:     8,
			MinMemoryGiB: 16,
		},
	},
	{
		Name:        "ml-training",
		Description: "GPU model training with large VRAM",
		Requirements: catalog.Requirements{
			MinVCPUs:        8,
			MinMemoryGiB:    32,
			RequireGPU:      true,
			MinGPUMemoryGiB: 16,
		},
	},
	{
		Name:        "ml-inference",
		Description: "GPU inference serving",
		Requirements: catalog.Requirements{
			MinVCPUs:     4,
			MinMemoryGiB: 16,
			RequireGPU:   true,
		},
	},
	{
		Name:        "database",
		Description: "Memory-heavy transactional database",
		Requirements: catalog.Requirements{
			MinVCPUs:     4,
			MinMemoryGiB: 32,
			StorageType:  catalog.StorageEBS,
		},
	},
	{
		Name:        "dev-box",
		Description: "Interactive development workstation",
		Requirements: catalog.Requirements{
			MinVCPUs:     4,
			MinMemoryGiB: 8,
			MaxVCPUs:     16,
		},
	},
}

// All returns every preset in display order.
func All() []matcher.Workload {
	out := make([]matcher.Workload, len(presets))
	copy(out, presets)
	return out
}

// Find looks up a preset by name.
func Find(name string) (matcher.Workload, bool) {
	for _, w := range presets {
		if w.Name == name {
			return w, true
		}
	}
	return matcher.Workload{}, false
}
