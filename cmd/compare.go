package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCompareCmd() *cobra.Command {
	var reqFlags requirementFlags

	cmd := &cobra.Command{
		Use:   "compare TYPE [TYPE...]",
		Short: "Score named instance types side by side",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matches, err := mtch.CompareInstances(cmd.Context(), args, reqFlags.requirements())
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Println("None of the given instance types were found in the catalog.")
				return nil
			}
			printMatches(matches, true)
			return nil
		},
	}

	reqFlags.register(cmd)
	return cmd
}
