// Package gen emits Go source files in which delay requests are
// already folded down to loop constants. The emitted functions call the
// spin primitives with literal arguments, so the executed instruction
// count is fixed before the TinyGo compiler ever sees the code; nothing
// is left for the optimizer to get right or wrong.
package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"os"

	"spindelay/cycles"
	"spindelay/plan"
	"spindelay/target"
)

// Delay is one named delay request.
type Delay struct {
	Name      string
	Magnitude uint64
	Unit      cycles.Unit
}

// File describes one generated source file: a package of delay
// functions planned against a single target profile.
type File struct {
	Package string
	Profile target.Profile
	Delays  []Delay
	// Tags, when set, becomes a //go:build constraint so generated
	// hardware delays only compile for the target they were planned for.
	Tags string
}

// Requests at or below the fixed loop overhead cannot be honored by a
// loop. Up to this many cycles we approximate with straight-line nap
// calls; past it the request degrades to an empty function.
const maxInlineNops = 8

// Generate renders the file. Overflow or an unplannable iteration
// count fails generation, which in a go:generate setup fails the
// build instead of shipping a wrong delay.
func (f *File) Generate() ([]byte, error) {
	if f.Package == "" {
		return nil, fmt.Errorf("gen: no package name")
	}
	if err := f.Profile.Validate(); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	usesSpin := false
	for _, d := range f.Delays {
		if d.Name == "" {
			return nil, fmt.Errorf("gen: delay request with no name")
		}
		used, err := emitDelay(&body, d, f.Profile)
		if err != nil {
			return nil, fmt.Errorf("gen: %s: %w", d.Name, err)
		}
		usesSpin = usesSpin || used
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "// Code generated by spindelay. DO NOT EDIT.\n")
	fmt.Fprintf(&out, "//\n")
	fmt.Fprintf(&out, "// Target: %s at %d Hz\n", f.Profile.Name, f.Profile.ClockHz)
	fmt.Fprintf(&out, "// Loop cost model: %d cycles/iteration, %d cycles fixed overhead, counter max %d\n",
		f.Profile.PerIteration, f.Profile.FixedOverhead, f.Profile.CounterMax)
	if f.Tags != "" {
		fmt.Fprintf(&out, "\n//go:build %s\n", f.Tags)
	}
	fmt.Fprintf(&out, "\npackage %s\n", f.Package)
	if usesSpin {
		fmt.Fprintf(&out, "\nimport \"spindelay/spin\"\n")
	}
	out.Write(body.Bytes())

	// The emitter writes gofmt-shaped code; running it through
	// go/format catches emitter bugs rather than reformatting.
	formatted, err := format.Source(out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gen: emitted invalid Go: %w", err)
	}
	return formatted, nil
}

// WriteFile renders the file and writes it to path.
func (f *File) WriteFile(path string) error {
	data, err := f.Generate()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("gen: writing %s: %w", path, err)
	}
	return nil
}

// emitDelay writes one delay function. Reports whether the body calls
// into the spin package.
func emitDelay(out *bytes.Buffer, d Delay, profile target.Profile) (bool, error) {
	targetCycles, err := cycles.Compute(d.Magnitude, d.Unit, profile.ClockHz)
	if err != nil {
		return false, err
	}

	if d.Unit == cycles.Cycles {
		fmt.Fprintf(out, "\n// %s busy-waits for %d cycles.\n", d.Name, targetCycles)
	} else {
		fmt.Fprintf(out, "\n// %s busy-waits for %d %s (%d cycles).\n", d.Name, d.Magnitude, d.Unit, targetCycles)
	}
	fmt.Fprintf(out, "func %s() {\n", d.Name)
	defer fmt.Fprintf(out, "}\n")

	p, err := plan.Synthesize(targetCycles, profile.Costs())
	if err != nil {
		return false, err
	}

	switch p.Kind {
	case plan.Noop:
		if targetCycles == 0 {
			fmt.Fprintf(out, "\t// zero-length request; nothing to do\n")
			return false, nil
		}
		if targetCycles <= maxInlineNops {
			fmt.Fprintf(out, "\t// below the %d-cycle loop overhead; approximated with single naps\n", profile.FixedOverhead)
			for i := uint32(0); i < targetCycles; i++ {
				fmt.Fprintf(out, "\tspin.Nop()\n")
			}
			return true, nil
		}
		fmt.Fprintf(out, "\t// requested %d cycles is below the %d-cycle loop overhead; best effort no-op\n", targetCycles, profile.FixedOverhead)
		return false, nil
	case plan.Direct:
		fmt.Fprintf(out, "\t// %d + %d*%d = %d cycles\n",
			profile.FixedOverhead, p.Iterations, profile.PerIteration, p.Cost(profile.Costs()))
		fmt.Fprintf(out, "\tspin.Naps(%d)\n", p.Iterations)
		return true, nil
	case plan.Nested:
		fmt.Fprintf(out, "\t// %d + %d*%d*%d = %d cycles\n",
			profile.FixedOverhead, p.Outer, p.Inner, profile.PerIteration, p.Cost(profile.Costs()))
		fmt.Fprintf(out, "\tspin.NestedNaps(%d, %d)\n", p.Outer, p.Inner)
		return true, nil
	}
	return false, fmt.Errorf("unhandled plan kind %v", p.Kind)
}
