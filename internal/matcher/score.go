package matcher

import (
	"fmt"
	"math"
	"strings"

	"github.com/emaland/matchbox/internal/catalog"
	"github.com/emaland/matchbox/internal/pricing"
)

const baseScore = 50

// performanceScore rates how well an instance covers the requested hardware.
// Starts at 50; every triggered rule adds points and a reason. Never drops
// below 50, capped at 100.
func performanceScore(inst catalog.InstanceType, req catalog.Requirements) (int, []string) {
	score := baseScore
	var reasons []string

	if req.MinVCPUs > 0 {
		ratio := float64(inst.VCPUs) / float64(req.MinVCPUs)
		switch {
		case ratio >= 2:
			score += 20
			reasons = append(reasons, fmt.Sprintf("Excellent CPU capacity: %d vCPUs (%.1fx requested)", inst.VCPUs, ratio))
		case ratio >= 1.5:
			score += 15
			reasons = append(reasons, fmt.Sprintf("Good CPU capacity: %d vCPUs (%.1fx requested)", inst.VCPUs, ratio))
		case ratio >= 1:
			score += 10
			reasons = append(reasons, fmt.Sprintf("Adequate CPU capacity: %d vCPUs", inst.VCPUs))
		}
	}

	if req.MinMemoryGiB > 0 {
		ratio := inst.MemoryGiB() / req.MinMemoryGiB
		switch {
		case ratio >= 2:
			score += 20
			reasons = append(reasons, fmt.Sprintf("Excellent memory capacity: %.0f GiB (%.1fx requested)", inst.MemoryGiB(), ratio))
		case ratio >= 1.5:
			score += 15
			reasons = append(reasons, fmt.Sprintf("Good memory capacity: %.0f GiB (%.1fx requested)", inst.MemoryGiB(), ratio))
		case ratio >= 1:
			score += 10
			reasons = append(reasons, fmt.Sprintf("Adequate memory capacity: %.0f GiB", inst.MemoryGiB()))
		}
	}

	if req.RequireGPU && inst.GPU != nil {
		score += 15
		reasons = append(reasons, fmt.Sprintf("GPU available: %s (%.0f GiB VRAM)", inst.GPU.Name, inst.GPUMemoryGiB()))
		if req.MinGPUMemoryGiB > 0 && inst.GPUMemoryGiB()/float64(req.MinGPUMemoryGiB) >= 1.5 {
			score += 10
			reasons = append(reasons, fmt.Sprintf("Ample GPU memory: %.0f GiB", inst.GPUMemoryGiB()))
		}
	}

	for _, label := range req.NetworkPerformance {
		if label != "" && strings.Contains(inst.NetworkPerformance, label) {
			score += 5
			reasons = append(reasons, fmt.Sprintf("Network performance matches %q", label))
			break
		}
	}

	if inst.CurrentGeneration {
		score += 5
		reasons = append(reasons, "Current generation instance")
	}

	return clamp(score), reasons
}

// costScore rates hourly cost efficiency from the fused pricing snapshot.
// An unknown on-demand price yields a neutral 50 with no reasons; missing
// data must not reward or penalize.
func costScore(inst catalog.InstanceType, info pricing.Info) (int, []string) {
	if info.OnDemand <= 0 {
		return baseScore, nil
	}
	score := baseScore
	var reasons []string

	perVCPU := info.OnDemand / float64(inst.VCPUs)
	switch {
	case perVCPU < 0.05:
		score += 25
		reasons = append(reasons, fmt.Sprintf("Excellent cost per vCPU: $%.3f/hr", perVCPU))
	case perVCPU < 0.10:
		score += 15
		reasons = append(reasons, fmt.Sprintf("Good cost per vCPU: $%.3f/hr", perVCPU))
	case perVCPU < 0.20:
		score += 5
		reasons = append(reasons, fmt.Sprintf("Reasonable cost per vCPU: $%.3f/hr", perVCPU))
	}

	perGiB := info.OnDemand / inst.MemoryGiB()
	switch {
	case perGiB < 0.02:
		score += 15
		reasons = append(reasons, fmt.Sprintf("Excellent cost per GiB memory: $%.3f/hr", perGiB))
	case perGiB < 0.05:
		score += 10
		reasons = append(reasons, fmt.Sprintf("Good cost per GiB memory: $%.3f/hr", perGiB))
	}

	if info.SpotCurrent > 0 && info.SpotCurrent < info.OnDemand*0.5 {
		score += 10
		saved := int(math.Round((info.OnDemand - info.SpotCurrent) / info.OnDemand * 100))
		reasons = append(reasons, fmt.Sprintf("Spot pricing saves %d%% over on-demand", saved))
	}

	return clamp(score), reasons
}

// efficiencyScore rewards right-sized instances and penalizes
// over-provisioning, the inverse concern of performanceScore. The only axis
// that can fall below 50, floored at 0.
func efficiencyScore(inst catalog.InstanceType, req catalog.Requirements) (int, []string) {
	score := baseScore
	var reasons []string

	if req.MinVCPUs > 0 {
		ratio := float64(inst.VCPUs) / float64(req.MinVCPUs)
		switch {
		case ratio > 3:
			score -= 15
			reasons = append(reasons, fmt.Sprintf("Significantly over-provisioned CPU (%.1fx requested)", ratio))
		case ratio > 2:
			score -= 5
			reasons = append(reasons, fmt.Sprintf("Over-provisioned CPU (%.1fx requested)", ratio))
		case ratio >= 1 && ratio <= 1.5:
			score += 10
			reasons = append(reasons, "Efficient CPU sizing")
		}
	}

	if req.MinMemoryGiB > 0 {
		ratio := inst.MemoryGiB() / req.MinMemoryGiB
		switch {
		case ratio > 3:
			score -= 15
			reasons = append(reasons, fmt.Sprintf("Significantly over-provisioned memory (%.1fx requested)", ratio))
		case ratio > 2:
			score -= 5
			reasons = append(reasons, fmt.Sprintf("Over-provisioned memory (%.1fx requested)", ratio))
		case ratio >= 1 && ratio <= 1.5:
			score += 10
			reasons = append(reasons, "Efficient memory sizing")
		}
	}

	if inst.VCPUs > 0 {
		perVCPU := inst.MemoryGiB() / float64(inst.VCPUs)
		if perVCPU >= 4 && perVCPU <= 8 {
			score += 5
			reasons = append(reasons, fmt.Sprintf("Balanced memory-to-vCPU ratio (%.1f GiB/vCPU)", perVCPU))
		}
	}

	return clamp(score), reasons
}

func clamp(score int) int {
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}
