// Package insights turns a scored match into qualitative notes about the
// instance family and its pricing posture. Display-only: nothing here feeds
// back into scoring.
package insights

import (
	"fmt"
	"strings"

	"github.com/emaland/matchbox/internal/matcher"
)

// familyNotes maps an instance family's leading letter to its broad
// characteristic. Families not listed get no note.
var familyNotes = map[string]string{
	"c": "compute optimized: highest per-core performance",
	"m": "general purpose: balanced compute and memory",
	"r": "memory optimized: high memory-to-vCPU ratio",
	"x": "memory optimized: extra-large memory footprint",
	"t": "burstable: baseline CPU with credit-based bursting",
	"g": "GPU accelerated: graphics and ML inference",
	"p": "GPU accelerated: ML training workloads",
	"i": "storage optimized: local NVMe instance storage",
	"d": "storage optimized: dense HDD instance storage",
}

// For produces human-readable notes for a match.
func For(m matcher.Match) []string {
	var notes []string

	if note, ok := familyNotes[family(m.Instance.Name)]; ok {
		notes = append(notes, note)
	}

	if m.Pricing.OnDemand > 0 && m.Pricing.SpotCurrent > 0 {
		saved := (m.Pricing.OnDemand - m.Pricing.SpotCurrent) / m.Pricing.OnDemand * 100
		if saved >= 50 {
			notes = append(notes, fmt.Sprintf("spot capacity is currently deeply discounted (%.0f%% below on-demand)", saved))
		}
	}
	if m.Pricing.OnDemand > 0 && m.Pricing.Reserved3yr > 0 {
		notes = append(notes, fmt.Sprintf("3-year reservation brings the rate to $%.4f/hr", m.Pricing.Reserved3yr))
	}

	if m.Instance.VCPUs > 0 {
		perVCPU := m.Instance.MemoryGiB() / float64(m.Instance.VCPUs)
		switch {
		case perVCPU >= 8:
			notes = append(notes, fmt.Sprintf("memory-heavy shape (%.0f GiB per vCPU)", perVCPU))
		case perVCPU < 2:
			notes = append(notes, fmt.Sprintf("compute-heavy shape (%.1f GiB per vCPU)", perVCPU))
		}
	}

	return notes
}

// family extracts the leading letter of the instance family, e.g. "c" from
// "c6i.large".
func family(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToLower(name[:1])
}
