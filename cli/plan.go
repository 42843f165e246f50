package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"spindelay/cycles"
	"spindelay/plan"
	"spindelay/target"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Profile string
	MS      uint64
	US      uint64
	S       uint64
	Cycles  uint64
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the loop plan for one delay request",
		Long: `Plan computes the cycle count for a delay request against a target
profile and prints the loop structure that covers it, including the
exact executed cycle cost and the rounding overshoot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Profile, "profile", "p", "", "built-in profile name or profile YAML path (required)")
	cmd.Flags().Uint64Var(&opts.MS, "ms", 0, "delay in milliseconds")
	cmd.Flags().Uint64Var(&opts.US, "us", 0, "delay in microseconds")
	cmd.Flags().Uint64Var(&opts.S, "s", 0, "delay in seconds")
	cmd.Flags().Uint64Var(&opts.Cycles, "cycles", 0, "delay in raw cycles")
	cmd.MarkFlagRequired("profile")

	return cmd
}

func runPlan(opts *PlanOptions, cmd *cobra.Command) error {
	magnitude, unit, err := requestedDelay(cmd, opts)
	if err != nil {
		return err
	}

	profile, err := target.Resolve(opts.Profile)
	if err != nil {
		return err
	}

	targetCycles, err := cycles.Compute(magnitude, unit, profile.ClockHz)
	if err != nil {
		return err
	}

	p, err := plan.Synthesize(targetCycles, profile.Costs())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "target:  %s (%d Hz)\n", profile.Name, profile.ClockHz)
	fmt.Fprintf(out, "request: %d %s\n", magnitude, unit)
	fmt.Fprintf(out, "cycles:  %d\n", targetCycles)
	fmt.Fprintf(out, "plan:    %s\n", p)

	cost := p.Cost(profile.Costs())
	fmt.Fprintf(out, "cost:    %d cycles", cost)
	if cost > uint64(targetCycles) {
		fmt.Fprintf(out, " (+%d overshoot)", cost-uint64(targetCycles))
	}
	fmt.Fprintln(out)

	if opts.Verbose {
		fmt.Fprintf(out, "model:   %d cycles/iteration, %d fixed overhead, counter max %d\n",
			profile.PerIteration, profile.FixedOverhead, profile.CounterMax)
	}
	return nil
}

// requestedDelay resolves the unit flags into a single request. Exactly
// one unit flag must be set; a zero magnitude is a valid request, so
// flag presence is what counts, not the value.
func requestedDelay(cmd *cobra.Command, opts *PlanOptions) (uint64, cycles.Unit, error) {
	type candidate struct {
		flag      string
		magnitude uint64
		unit      cycles.Unit
	}
	candidates := []candidate{
		{"ms", opts.MS, cycles.Milliseconds},
		{"us", opts.US, cycles.Microseconds},
		{"s", opts.S, cycles.Seconds},
		{"cycles", opts.Cycles, cycles.Cycles},
	}

	var picked []candidate
	for _, c := range candidates {
		if cmd.Flags().Changed(c.flag) {
			picked = append(picked, c)
		}
	}
	if len(picked) != 1 {
		return 0, 0, fmt.Errorf("exactly one of --ms, --us, --s, --cycles is required")
	}
	return picked[0].magnitude, picked[0].unit, nil
}
