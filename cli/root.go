// Package cli implements the spindelay command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the spindelay CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "spindelay",
		Short: "Busy-wait delay planner and code generator for microcontrollers",
		Long: `spindelay turns delay requests (milliseconds, microseconds, or raw
cycles) into loop constants for a target processor, and emits Go source
in which those constants are already folded in. Planning happens here,
before compilation; nothing about the delay depends on optimizer flags.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewGenCommand(opts))
	cmd.AddCommand(NewProfilesCommand(opts))
	cmd.AddCommand(NewCalibrateCommand(opts))

	return cmd
}
