package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"spindelay/target"
)

// NewProfilesCommand creates the profiles command.
func NewProfilesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List built-in target profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range target.Names() {
				p, _ := target.Builtin(name)
				fmt.Fprintf(out, "%-16s %12d Hz  %3d cycles/iter  %2d overhead  counter max %d\n",
					p.Name, p.ClockHz, p.PerIteration, p.FixedOverhead, p.CounterMax)
			}
			return nil
		},
	}
}
