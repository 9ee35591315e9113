// Package matcher scores instance types against hardware requirements and
// multi-tier pricing, producing a ranked list of candidates with
// human-readable justifications.
package matcher

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/emaland/matchbox/internal/catalog"
	"github.com/emaland/matchbox/internal/pricing"
)

// Catalog supplies instance type records. InstanceTypesByRequirements applies
// the hard constraints; the matcher only scores what comes back.
type Catalog interface {
	InstanceTypes(ctx context.Context) ([]catalog.InstanceType, error)
	InstanceTypesByRequirements(ctx context.Context, req catalog.Requirements) ([]catalog.InstanceType, error)
}

// PriceSource supplies raw price list documents and spot quotes. PriceList
// may return (nil, nil) when no record exists.
type PriceSource interface {
	PriceList(ctx context.Context, instanceType string) (*pricing.PriceList, error)
	SpotPrices(ctx context.Context, instanceTypes []string) (map[string]float64, error)
}

// WeightFactors blends the three scoring axes. Weights are applied as given
// and deliberately not normalized; callers own making them sum to 1.
type WeightFactors struct {
	Performance float64
	Cost        float64
	Efficiency  float64
}

// DefaultWeights favors performance and cost equally with a smaller
// right-sizing component.
var DefaultWeights = WeightFactors{Performance: 0.4, Cost: 0.4, Efficiency: 0.2}

// Options tunes a match call. Use DefaultOptions as the starting point; a nil
// *Options means all defaults.
type Options struct {
	MaxResults         int
	IncludeSpotPricing bool
	Weights            WeightFactors
}

func DefaultOptions() *Options {
	return &Options{
		MaxResults:         10,
		IncludeSpotPricing: true,
		Weights:            DefaultWeights,
	}
}

// Match is one scored candidate. Reasons are ordered by the rule that fired
// them (performance first, then cost, then efficiency) and must not be
// re-sorted.
type Match struct {
	Instance catalog.InstanceType
	Pricing  pricing.Info
	// SpotAverage24h currently mirrors SpotCurrent; a real 24h average
	// needs history the spot collaborator does not expose yet.
	SpotAverage24h float64
	Score          int
	Reasons        []string
}

// Workload is a named preset bundling a requirement set.
type Workload struct {
	Name         string
	Description  string
	Requirements catalog.Requirements
}

// Matcher orchestrates catalog lookup, pricing fusion, scoring and ranking.
type Matcher struct {
	catalog Catalog
	prices  PriceSource

	// pricingConcurrency bounds the per-candidate price list fan-out.
	pricingConcurrency int
}

func New(cat Catalog, prices PriceSource) *Matcher {
	return &Matcher{catalog: cat, prices: prices, pricingConcurrency: 8}
}

// MatchInstances returns candidates for req ranked by weighted score,
// highest first. An empty catalog response yields an empty result, not an
// error. Per-candidate pricing failures degrade to unknown pricing and never
// drop a candidate.
func (m *Matcher) MatchInstances(ctx context.Context, req catalog.Requirements, opts *Options) ([]Match, error) {
	opts = normalize(opts)

	candidates, err := m.catalog.InstanceTypesByRequirements(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetching candidate instance types: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	matches := m.score(ctx, candidates, req, opts)

	// Stable sort keeps catalog order among equal scores.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if opts.MaxResults > 0 && len(matches) > opts.MaxResults {
		matches = matches[:opts.MaxResults]
	}
	return matches, nil
}

// MatchForWorkload runs MatchInstances with the preset's requirements.
func (m *Matcher) MatchForWorkload(ctx context.Context, w Workload, opts *Options) ([]Match, error) {
	return m.MatchInstances(ctx, w.Requirements, opts)
}

// BestMatch returns the single highest-scoring candidate, or nil when the
// catalog has nothing for the given requirements.
func (m *Matcher) BestMatch(ctx context.Context, req catalog.Requirements, opts *Options) (*Match, error) {
	opts = normalize(opts)
	opts.MaxResults = 1
	matches, err := m.MatchInstances(ctx, req, opts)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// CompareInstances scores the named instance types against req using default
// weights, returned in catalog order rather than by score: the caller picked
// the candidates, the matcher only explains them. Unknown names are skipped;
// an empty or unresolvable list yields an empty result.
func (m *Matcher) CompareInstances(ctx context.Context, instanceTypes []string, req catalog.Requirements) ([]Match, error) {
	if len(instanceTypes) == 0 {
		return nil, nil
	}
	all, err := m.catalog.InstanceTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching instance catalog: %w", err)
	}
	wanted := map[string]bool{}
	for _, name := range instanceTypes {
		wanted[name] = true
	}
	var candidates []catalog.InstanceType
	for _, inst := range all {
		if wanted[inst.Name] {
			candidates = append(candidates, inst)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return m.score(ctx, candidates, req, DefaultOptions()), nil
}

// score fuses pricing and computes the blended score for each candidate,
// preserving candidate order.
func (m *Matcher) score(ctx context.Context, candidates []catalog.InstanceType, req catalog.Requirements, opts *Options) []Match {
	spot := map[string]float64{}
	if opts.IncludeSpotPricing {
		names := make([]string, len(candidates))
		for i, inst := range candidates {
			names[i] = inst.Name
		}
		if quotes, err := m.prices.SpotPrices(ctx, names); err == nil {
			spot = quotes
		}
		// A failed spot lookup degrades to no spot data.
	}

	// Fan out price list fetches, one result slot per candidate. Failures
	// land as zero-valued pricing; they never abort the batch.
	infos := make([]pricing.Info, len(candidates))
	g := new(errgroup.Group)
	g.SetLimit(m.pricingConcurrency)
	for i, inst := range candidates {
		g.Go(func() error {
			pl, err := m.prices.PriceList(ctx, inst.Name)
			if err != nil {
				pl = nil
			}
			infos[i] = pricing.Extract(pl, spot[inst.Name])
			return nil
		})
	}
	_ = g.Wait() // goroutines never return an error

	matches := make([]Match, len(candidates))
	for i, inst := range candidates {
		perf, reasons := performanceScore(inst, req)
		cost, costReasons := costScore(inst, infos[i])
		eff, effReasons := efficiencyScore(inst, req)
		reasons = append(reasons, costReasons...)
		reasons = append(reasons, effReasons...)

		w := opts.Weights
		blended := float64(perf)*w.Performance + float64(cost)*w.Cost + float64(eff)*w.Efficiency
		matches[i] = Match{
			Instance:       inst,
			Pricing:        infos[i],
			SpotAverage24h: infos[i].SpotCurrent,
			Score:          clamp(int(math.Round(blended))),
			Reasons:        reasons,
		}
	}
	return matches
}

func normalize(opts *Options) *Options {
	if opts == nil {
		return DefaultOptions()
	}
	out := *opts
	if out.MaxResults <= 0 {
		out.MaxResults = 10
	}
	if out.Weights == (WeightFactors{}) {
		out.Weights = DefaultWeights
	}
	return &out
}
