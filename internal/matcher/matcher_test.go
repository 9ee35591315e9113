package matcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emaland/matchbox/internal/catalog"
	"github.com/emaland/matchbox/internal/pricing"
)

// fakeCatalog returns its fixed lists; the matcher trusts the catalog to
// have applied hard filters already.
type fakeCatalog struct {
	all      []catalog.InstanceType
	filtered []catalog.InstanceType
	err      error
}

func (f *fakeCatalog) InstanceTypes(ctx context.Context) ([]catalog.InstanceType, error) {
	return f.all, f.err
}

func (f *fakeCatalog) InstanceTypesByRequirements(ctx context.Context, req catalog.Requirements) ([]catalog.InstanceType, error) {
	return f.filtered, f.err
}

type fakePrices struct {
	lists   map[string]*pricing.PriceList
	listErr map[string]error
	spot    map[string]float64
	spotErr error
}

func (f *fakePrices) PriceList(ctx context.Context, instanceType string) (*pricing.PriceList, error) {
	if err := f.listErr[instanceType]; err != nil {
		return nil, err
	}
	return f.lists[instanceType], nil
}

func (f *fakePrices) SpotPrices(ctx context.Context, instanceTypes []string) (map[string]float64, error) {
	if f.spotErr != nil {
		return nil, f.spotErr
	}
	return f.spot, nil
}

// onDemandList builds a minimal price list document with one on-demand rate.
func onDemandList(rate float64) *pricing.PriceList {
	return &pricing.PriceList{
		Terms: pricing.Terms{
			OnDemand: map[string]pricing.Term{
				"SKU.JRTCKXETXF": {
					PriceDimensions: map[string]pricing.PriceDimension{
						"SKU.JRTCKXETXF.6YS6EN2CT7": {
							Unit:         "Hrs",
							PricePerUnit: map[string]string{"USD": fmt.Sprintf("%f", rate)},
						},
					},
				},
			},
		},
	}
}

func testCandidates() []catalog.InstanceType {
	return []catalog.InstanceType{
		{Name: "m5.large", VCPUs: 2, MemoryMiB: 8 * 1024, CurrentGeneration: true},
		{Name: "m5.xlarge", VCPUs: 4, MemoryMiB: 16 * 1024, CurrentGeneration: true},
		{Name: "m5.2xlarge", VCPUs: 8, MemoryMiB: 32 * 1024, CurrentGeneration: true},
	}
}

func testMatcher(cat *fakeCatalog, prices *fakePrices) *Matcher {
	return New(cat, prices)
}

func TestMatchInstancesRanksDescending(t *testing.T) {
	m := testMatcher(
		&fakeCatalog{filtered: testCandidates()},
		&fakePrices{lists: map[string]*pricing.PriceList{
			"m5.large":   onDemandList(0.096),
			"m5.xlarge":  onDemandList(0.192),
			"m5.2xlarge": onDemandList(0.384),
		}},
	)

	matches, err := m.MatchInstances(context.Background(), catalog.Requirements{MinVCPUs: 2, MinMemoryGiB: 8}, nil)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	for i, match := range matches {
		assert.GreaterOrEqual(t, match.Score, 0)
		assert.LessOrEqual(t, match.Score, 100)
		if i > 0 {
			assert.GreaterOrEqual(t, matches[i-1].Score, match.Score, "scores must be non-increasing")
		}
	}
}

func TestMatchInstancesEmptyCatalog(t *testing.T) {
	m := testMatcher(&fakeCatalog{}, &fakePrices{})

	matches, err := m.MatchInstances(context.Background(), catalog.Requirements{MinVCPUs: 512}, nil)
	require.NoError(t, err)
	assert.Empty(t, matches)

	best, err := m.BestMatch(context.Background(), catalog.Requirements{MinVCPUs: 512}, nil)
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestMatchInstancesCatalogError(t *testing.T) {
	m := testMatcher(&fakeCatalog{err: errors.New("throttled")}, &fakePrices{})
	_, err := m.MatchInstances(context.Background(), catalog.Requirements{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestMatchInstancesIdempotent(t *testing.T) {
	cat := &fakeCatalog{filtered: testCandidates()}
	prices := &fakePrices{
		lists: map[string]*pricing.PriceList{"m5.xlarge": onDemandList(0.192)},
		spot:  map[string]float64{"m5.xlarge": 0.058},
	}
	m := testMatcher(cat, prices)
	req := catalog.Requirements{MinVCPUs: 2, MinMemoryGiB: 8}

	first, err := m.MatchInstances(context.Background(), req, nil)
	require.NoError(t, err)
	second, err := m.MatchInstances(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMatchInstancesPricingFailureResilience(t *testing.T) {
	m := testMatcher(
		&fakeCatalog{filtered: testCandidates()},
		&fakePrices{
			lists: map[string]*pricing.PriceList{
				"m5.large":   onDemandList(0.096),
				"m5.2xlarge": onDemandList(0.384),
			},
			listErr: map[string]error{"m5.xlarge": errors.New("pricing unavailable")},
		},
	)

	matches, err := m.MatchInstances(context.Background(), catalog.Requirements{MinVCPUs: 2}, nil)
	require.NoError(t, err)
	require.Len(t, matches, 3, "a pricing failure must not drop the candidate")

	var failed *Match
	for i := range matches {
		if matches[i].Instance.Name == "m5.xlarge" {
			failed = &matches[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, pricing.Info{}, failed.Pricing)
	// With unknown pricing the cost axis stays neutral: no cost reasons.
	for _, r := range failed.Reasons {
		assert.NotContains(t, r, "cost")
	}
}

func TestMatchInstancesSpotFailureDegrades(t *testing.T) {
	m := testMatcher(
		&fakeCatalog{filtered: testCandidates()[:1]},
		&fakePrices{
			lists:   map[string]*pricing.PriceList{"m5.large": onDemandList(0.096)},
			spotErr: errors.New("spot API down"),
		},
	)

	matches, err := m.MatchInstances(context.Background(), catalog.Requirements{}, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Zero(t, matches[0].Pricing.SpotCurrent)
	assert.Zero(t, matches[0].SpotAverage24h)
}

func TestMatchInstancesSpotAverageMirrorsCurrent(t *testing.T) {
	m := testMatcher(
		&fakeCatalog{filtered: testCandidates()[:1]},
		&fakePrices{
			lists: map[string]*pricing.PriceList{"m5.large": onDemandList(0.096)},
			spot:  map[string]float64{"m5.large": 0.0288},
		},
	)

	matches, err := m.MatchInstances(context.Background(), catalog.Requirements{}, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0.0288, matches[0].Pricing.SpotCurrent)
	assert.Equal(t, matches[0].Pricing.SpotCurrent, matches[0].SpotAverage24h)
}

func TestMatchInstancesSkipsSpotWhenDisabled(t *testing.T) {
	m := testMatcher(
		&fakeCatalog{filtered: testCandidates()[:1]},
		&fakePrices{
			lists: map[string]*pricing.PriceList{"m5.large": onDemandList(0.096)},
			spot:  map[string]float64{"m5.large": 0.0288},
		},
	)

	opts := DefaultOptions()
	opts.IncludeSpotPricing = false
	matches, err := m.MatchInstances(context.Background(), catalog.Requirements{}, opts)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Zero(t, matches[0].Pricing.SpotCurrent)
}

func TestMatchInstancesMaxResults(t *testing.T) {
	m := testMatcher(&fakeCatalog{filtered: testCandidates()}, &fakePrices{})

	opts := DefaultOptions()
	opts.MaxResults = 2
	matches, err := m.MatchInstances(context.Background(), catalog.Requirements{}, opts)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestMatchInstancesStableOrderOnTies(t *testing.T) {
	// Identical instances score identically; catalog order must survive.
	cands := []catalog.InstanceType{
		{Name: "a1.large", VCPUs: 2, MemoryMiB: 4 * 1024},
		{Name: "b1.large", VCPUs: 2, MemoryMiB: 4 * 1024},
		{Name: "c1.large", VCPUs: 2, MemoryMiB: 4 * 1024},
	}
	m := testMatcher(&fakeCatalog{filtered: cands}, &fakePrices{})

	matches, err := m.MatchInstances(context.Background(), catalog.Requirements{MinVCPUs: 2}, nil)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "a1.large", matches[0].Instance.Name)
	assert.Equal(t, "b1.large", matches[1].Instance.Name)
	assert.Equal(t, "c1.large", matches[2].Instance.Name)
}

// Scenario from the scoring design: 4 vCPU / 16 GiB at $0.10/hr against a
// 2 vCPU / 8 GiB requirement hits the top CPU, memory and cost tiers.
func TestMatchScenarioTopTiers(t *testing.T) {
	cands := []catalog.InstanceType{{Name: "m7g.xlarge", VCPUs: 4, MemoryMiB: 16 * 1024}}
	m := testMatcher(
		&fakeCatalog{filtered: cands},
		&fakePrices{lists: map[string]*pricing.PriceList{"m7g.xlarge": onDemandList(0.10)}},
	)

	matches, err := m.MatchInstances(context.Background(), catalog.Requirements{MinVCPUs: 2, MinMemoryGiB: 8}, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	perf, _ := performanceScore(cands[0], catalog.Requirements{MinVCPUs: 2, MinMemoryGiB: 8})
	assert.GreaterOrEqual(t, perf, 90)

	cost, costReasons := costScore(cands[0], pricing.Info{OnDemand: 0.10})
	assert.GreaterOrEqual(t, cost, 75)
	assert.Contains(t, strings.Join(costReasons, " "), "vCPU")

	joined := strings.Join(matches[0].Reasons, " ")
	assert.Contains(t, joined, "CPU")
	assert.Contains(t, joined, "memory")
}

// Reasons keep firing order: performance rules first, then cost, then
// efficiency.
func TestMatchReasonOrdering(t *testing.T) {
	cands := []catalog.InstanceType{{Name: "m5.xlarge", VCPUs: 4, MemoryMiB: 16 * 1024}}
	m := testMatcher(
		&fakeCatalog{filtered: cands},
		&fakePrices{lists: map[string]*pricing.PriceList{"m5.xlarge": onDemandList(0.192)}},
	)

	matches, err := m.MatchInstances(context.Background(), catalog.Requirements{MinVCPUs: 4, MinMemoryGiB: 16}, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	reasons := matches[0].Reasons
	require.NotEmpty(t, reasons)
	assert.Contains(t, reasons[0], "CPU capacity")
	assert.Contains(t, reasons[len(reasons)-1], "Balanced")
}

func TestMatchForWorkloadDelegates(t *testing.T) {
	cands := testCandidates()
	m := testMatcher(&fakeCatalog{filtered: cands}, &fakePrices{})
	w := Workload{Name: "batch", Requirements: catalog.Requirements{MinVCPUs: 2}}

	viaWorkload, err := m.MatchForWorkload(context.Background(), w, nil)
	require.NoError(t, err)
	direct, err := m.MatchInstances(context.Background(), w.Requirements, nil)
	require.NoError(t, err)
	assert.Equal(t, direct, viaWorkload)
}

func TestBestMatchPicksHighestScore(t *testing.T) {
	m := testMatcher(
		&fakeCatalog{filtered: testCandidates()},
		&fakePrices{lists: map[string]*pricing.PriceList{
			"m5.large":   onDemandList(0.096),
			"m5.xlarge":  onDemandList(0.192),
			"m5.2xlarge": onDemandList(0.384),
		}},
	)
	req := catalog.Requirements{MinVCPUs: 2, MinMemoryGiB: 8}

	all, err := m.MatchInstances(context.Background(), req, nil)
	require.NoError(t, err)
	best, err := m.BestMatch(context.Background(), req, nil)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, all[0], *best)
}

func TestCompareInstancesEmptyInput(t *testing.T) {
	m := testMatcher(&fakeCatalog{all: testCandidates()}, &fakePrices{})

	matches, err := m.CompareInstances(context.Background(), nil, catalog.Requirements{})
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = m.CompareInstances(context.Background(), []string{"nope.large"}, catalog.Requirements{})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCompareInstancesKeepsCatalogOrder(t *testing.T) {
	m := testMatcher(
		&fakeCatalog{all: testCandidates()},
		&fakePrices{lists: map[string]*pricing.PriceList{
			"m5.large":   onDemandList(0.096),
			"m5.2xlarge": onDemandList(0.384),
		}},
	)

	// Requested out of order; results follow catalog order, not score order.
	matches, err := m.CompareInstances(context.Background(), []string{"m5.2xlarge", "m5.large"}, catalog.Requirements{MinVCPUs: 2})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "m5.large", matches[0].Instance.Name)
	assert.Equal(t, "m5.2xlarge", matches[1].Instance.Name)
}

func TestMatchWeightsAppliedAsGiven(t *testing.T) {
	cands := []catalog.InstanceType{{Name: "m5.xlarge", VCPUs: 4, MemoryMiB: 16 * 1024}}
	cat := &fakeCatalog{filtered: cands}
	m := testMatcher(cat, &fakePrices{})
	req := catalog.Requirements{MinVCPUs: 4}

	perf, _ := performanceScore(cands[0], req)
	cost, _ := costScore(cands[0], pricing.Info{})
	eff, _ := efficiencyScore(cands[0], req)

	opts := DefaultOptions()
	opts.Weights = WeightFactors{Performance: 0.1, Cost: 0.1, Efficiency: 0.1}
	matches, err := m.MatchInstances(context.Background(), req, opts)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	// Weights are not normalized; a 0.3 total weight shrinks the score.
	want := int(math.Round(0.1*float64(perf) + 0.1*float64(cost) + 0.1*float64(eff)))
	assert.Equal(t, want, matches[0].Score)
}

// Raising the vCPU requirement can only lower (or hold) the CPU bonus tier
// for a fixed candidate.
func TestPerformanceCPUBonusMonotonic(t *testing.T) {
	fixed := catalog.InstanceType{Name: "c5.2xlarge", VCPUs: 8, MemoryMiB: 16 * 1024}
	prev := 101
	for minVCPUs := 1; minVCPUs <= 16; minVCPUs++ {
		score, _ := performanceScore(fixed, catalog.Requirements{MinVCPUs: minVCPUs})
		assert.LessOrEqual(t, score, prev, "minVCPUs=%d", minVCPUs)
		prev = score
	}
}

// A GPU-less candidate under a GPU requirement is scored, not rejected;
// exclusion is the catalog's call.
func TestGPURequirementDoesNotRejectCandidates(t *testing.T) {
	cands := []catalog.InstanceType{{Name: "m5.xlarge", VCPUs: 4, MemoryMiB: 16 * 1024}}
	m := testMatcher(&fakeCatalog{filtered: cands}, &fakePrices{})

	matches, err := m.MatchInstances(context.Background(), catalog.Requirements{RequireGPU: true}, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	for _, r := range matches[0].Reasons {
		assert.NotContains(t, r, "GPU")
	}
}
