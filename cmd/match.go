package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emaland/matchbox/internal/catalog"
	"github.com/emaland/matchbox/internal/matcher"
	"github.com/emaland/matchbox/internal/workloads"
)

// requirementFlags collects the hardware requirement flags shared by the
// match and best commands.
type requirementFlags struct {
	minVCPU   int
	maxVCPU   int
	minMem    float64
	maxMem    float64
	gpu       bool
	minGPUMem int
	arch      string
	network   []string
	storage   string
}

func (f *requirementFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.minVCPU, "min-vcpu", 0, "Minimum vCPUs")
	cmd.Flags().IntVar(&f.maxVCPU, "max-vcpu", 0, "Maximum vCPUs (0 = no limit)")
	cmd.Flags().Float64Var(&f.minMem, "min-mem", 0, "Minimum memory (GiB)")
	cmd.Flags().Float64Var(&f.maxMem, "max-mem", 0, "Maximum memory (GiB, 0 = no limit)")
	cmd.Flags().BoolVar(&f.gpu, "gpu", false, "Require GPU")
	cmd.Flags().IntVar(&f.minGPUMem, "min-gpu-mem", 0, "Minimum GPU memory (GiB, implies --gpu)")
	cmd.Flags().StringVar(&f.arch, "arch", "", "Architecture (x86_64 or arm64)")
	cmd.Flags().StringSliceVar(&f.network, "network", nil, "Required network performance labels")
	cmd.Flags().StringVar(&f.storage, "storage", "any", "Storage type: ebs, instance or any")
}

func (f *requirementFlags) requirements() catalog.Requirements {
	req := catalog.Requirements{
		MinVCPUs:           f.minVCPU,
		MaxVCPUs:           f.maxVCPU,
		MinMemoryGiB:       f.minMem,
		MaxMemoryGiB:       f.maxMem,
		RequireGPU:         f.gpu || f.minGPUMem > 0,
		MinGPUMemoryGiB:    f.minGPUMem,
		Architecture:       catalog.Architecture(f.arch),
		NetworkPerformance: f.network,
		StorageType:        catalog.StorageType(f.storage),
	}
	return req
}

func newMatchCmd() *cobra.Command {
	var (
		reqFlags requirementFlags
		workload string
		limit    int
		noSpot   bool
		weights  string
		reasons  bool
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Rank instance types against hardware requirements",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := buildOptions(limit, noSpot, weights)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			var matches []matcher.Match
			if workload != "" {
				w, ok := workloads.Find(workload)
				if !ok {
					return fmt.Errorf("unknown workload %q (see 'matchbox workloads')", workload)
				}
				matches, err = mtch.MatchForWorkload(ctx, w, opts)
			} else {
				matches, err = mtch.MatchInstances(ctx, reqFlags.requirements(), opts)
			}
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Println("No instance types match the given requirements.")
				return nil
			}
			printMatches(matches, reasons)
			return nil
		},
	}

	reqFlags.register(cmd)
	cmd.Flags().StringVar(&workload, "workload", "", "Use a workload preset instead of requirement flags")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results (defaults to config)")
	cmd.Flags().BoolVar(&noSpot, "no-spot", false, "Skip spot price lookup")
	cmd.Flags().StringVar(&weights, "weights", "", "Score weights as perf,cost,eff (e.g. 0.4,0.4,0.2)")
	cmd.Flags().BoolVar(&reasons, "reasons", false, "Show score reasons per instance")

	return cmd
}

// buildOptions merges flag values over the user config.
func buildOptions(limit int, noSpot bool, weights string) (*matcher.Options, error) {
	opts := matcher.DefaultOptions()
	if mcfg.MaxResults > 0 {
		opts.MaxResults = mcfg.MaxResults
	}
	if limit > 0 {
		opts.MaxResults = limit
	}
	opts.IncludeSpotPricing = !noSpot && !mcfg.DisableSpot
	opts.Weights = matcher.WeightFactors{
		Performance: mcfg.PerformanceWeight,
		Cost:        mcfg.CostWeight,
		Efficiency:  mcfg.EfficiencyWeight,
	}
	if weights != "" {
		parsed, err := parseWeights(weights)
		if err != nil {
			return nil, err
		}
		opts.Weights = parsed
	}
	return opts, nil
}

func parseWeights(s string) (matcher.WeightFactors, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return matcher.WeightFactors{}, fmt.Errorf("weights must be three comma-separated numbers, got %q", s)
	}
	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return matcher.WeightFactors{}, fmt.Errorf("parsing weight %q: %w", p, err)
		}
		vals[i] = v
	}
	return matcher.WeightFactors{Performance: vals[0], Cost: vals[1], Efficiency: vals[2]}, nil
}

func printMatches(matches []matcher.Match, showReasons bool) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INSTANCE TYPE\tVCPU\tMEMORY\tON-DEMAND\tSPOT\tRI-1YR\tRI-3YR\tSCORE")
	for _, m := range matches {
		fmt.Fprintf(w, "%s\t%d\t%.0f GiB\t%s\t%s\t%s\t%s\t%d\n",
			m.Instance.Name,
			m.Instance.VCPUs,
			m.Instance.MemoryGiB(),
			price(m.Pricing.OnDemand),
			price(m.Pricing.SpotCurrent),
			price(m.Pricing.Reserved1yr),
			price(m.Pricing.Reserved3yr),
			m.Score,
		)
	}
	w.Flush()

	if showReasons {
		for _, m := range matches {
			fmt.Printf("\n%s:\n", m.Instance.Name)
			for _, r := range m.Reasons {
				fmt.Printf("  - %s\n", r)
			}
		}
	}
}

// price renders an hourly rate, "-" when unknown.
func price(v float64) string {
	if v <= 0 {
		return "-"
	}
	return fmt.Sprintf("$%.4f", v)
}
