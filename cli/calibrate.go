package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"spindelay/host/calibrate"
	"spindelay/host/serial"
	"spindelay/target"
)

// CalibrateOptions holds flags for the calibrate command.
type CalibrateOptions struct {
	*RootOptions
	Device  string
	Baud    int
	ClockHz uint32
	Profile string
	Low     uint32
	High    uint32
}

// NewCalibrateCommand creates the calibrate command.
func NewCalibrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CalibrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Measure real loop costs against responder firmware",
		Long: `Calibrate talks to a target running the responder firmware, samples
timed nap runs at two iteration counts, and fits the per-iteration and
fixed-overhead cycle costs. The result is printed as a profile YAML
snippet ready for the gen command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalibrate(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Device, "device", "d", "/dev/ttyACM0", "serial device path")
	cmd.Flags().IntVarP(&opts.Baud, "baud", "b", 115200, "baud rate (ignored for USB CDC)")
	cmd.Flags().Uint32Var(&opts.ClockHz, "clock-hz", 0, "target clock frequency")
	cmd.Flags().StringVarP(&opts.Profile, "profile", "p", "", "take clock frequency from this profile")
	cmd.Flags().Uint32Var(&opts.Low, "low", 1000, "iteration count for the small sample")
	cmd.Flags().Uint32Var(&opts.High, "high", 101000, "iteration count for the large sample")

	return cmd
}

func runCalibrate(opts *CalibrateOptions, cmd *cobra.Command) error {
	clockHz := opts.ClockHz
	name := "calibrated"
	if opts.Profile != "" {
		profile, err := target.Resolve(opts.Profile)
		if err != nil {
			return err
		}
		clockHz = profile.ClockHz
		name = profile.Name
	}
	if clockHz == 0 {
		return fmt.Errorf("one of --clock-hz or --profile is required")
	}

	cfg := serial.DefaultConfig(opts.Device)
	cfg.Baud = opts.Baud
	port, err := serial.Open(cfg)
	if err != nil {
		return err
	}
	defer port.Close()

	session := calibrate.NewSession(port)
	if opts.Verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "sampling %d and %d naps on %s\n", opts.Low, opts.High, opts.Device)
	}

	result, err := session.Fit(clockHz, opts.Low, opts.High)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# measured on %s\n", opts.Device)
	fmt.Fprintf(out, "name: %s\n", name)
	fmt.Fprintf(out, "clock_hz: %d\n", clockHz)
	fmt.Fprintf(out, "per_iteration: %d\n", result.PerIteration)
	fmt.Fprintf(out, "fixed_overhead: %d\n", result.FixedOverhead)
	return nil
}
