package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// GenOptions holds flags for the gen command.
type GenOptions struct {
	*RootOptions
	Output string
}

// NewGenCommand creates the gen command.
func NewGenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "gen <requests.yaml>",
		Short: "Generate a Go source file from a delay request list",
		Long: `Gen plans every request in a YAML request list against its target
profile and writes a Go source file with the loop constants folded in.

Intended for go:generate:

	//go:generate spindelay gen -o delays.go delays.yaml

Overflow or an unplannable delay makes generation fail, so a bad
request breaks the build instead of shipping a wrong delay.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path (default: stdout)")

	return cmd
}

func runGen(opts *GenOptions, requestsPath string, cmd *cobra.Command) error {
	f, err := LoadRequests(requestsPath)
	if err != nil {
		return err
	}

	if opts.Verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "planning %d delay(s) for %s (%d Hz)\n",
			len(f.Delays), f.Profile.Name, f.Profile.ClockHz)
	}

	if opts.Output == "" {
		data, err := f.Generate()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	if err := f.WriteFile(opts.Output); err != nil {
		return err
	}
	if opts.Verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", opts.Output)
	}
	return nil
}
