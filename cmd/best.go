package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emaland/matchbox/internal/insights"
	"github.com/emaland/matchbox/internal/matcher"
)

func newBestCmd() *cobra.Command {
	var (
		reqFlags requirementFlags
		noSpot   bool
		weights  string
	)

	cmd := &cobra.Command{
		Use:   "best",
		Short: "Show the single best instance type for the requirements",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := buildOptions(1, noSpot, weights)
			if err != nil {
				return err
			}
			best, err := mtch.BestMatch(cmd.Context(), reqFlags.requirements(), opts)
			if err != nil {
				return err
			}
			if best == nil {
				fmt.Println("No instance types match the given requirements.")
				return nil
			}
			printBest(*best)
			return nil
		},
	}

	reqFlags.register(cmd)
	cmd.Flags().BoolVar(&noSpot, "no-spot", false, "Skip spot price lookup")
	cmd.Flags().StringVar(&weights, "weights", "", "Score weights as perf,cost,eff (e.g. 0.4,0.4,0.2)")

	return cmd
}

func printBest(m matcher.Match) {
	fmt.Printf("%s (score %d)\n", m.Instance.Name, m.Score)
	fmt.Printf("  %d vCPUs, %.0f GiB memory", m.Instance.VCPUs, m.Instance.MemoryGiB())
	if m.Instance.GPU != nil {
		fmt.Printf(", %s GPU (%.0f GiB VRAM)", m.Instance.GPU.Name, m.Instance.GPUMemoryGiB())
	}
	fmt.Println()
	fmt.Printf("  on-demand %s  spot %s  ri-1yr %s  ri-3yr %s\n",
		price(m.Pricing.OnDemand),
		price(m.Pricing.SpotCurrent),
		price(m.Pricing.Reserved1yr),
		price(m.Pricing.Reserved3yr),
	)
	for _, r := range m.Reasons {
		fmt.Printf("  - %s\n", r)
	}
	if notes := insights.For(m); len(notes) > 0 {
		fmt.Println("Insights:")
		for _, n := range notes {
			fmt.Printf("  * %s\n", n)
		}
	}
}
