package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emaland/matchbox/internal/workloads"
)

func newWorkloadsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workloads",
		Short: "List available workload presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVCPU\tMEMORY\tGPU\tDESCRIPTION")
			for _, preset := range workloads.All() {
				gpu := "-"
				if preset.Requirements.RequireGPU {
					gpu = "yes"
				}
				fmt.Fprintf(w, "%s\t%d+\t%.0f+ GiB\t%s\t%s\n",
					preset.Name,
					preset.Requirements.MinVCPUs,
					preset.Requirements.MinMemoryGiB,
					gpu,
					preset.Description,
				)
			}
			w.Flush()
			return nil
		},
	}
}
