package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"spindelay/cycles"
	"spindelay/gen"
	"spindelay/target"
)

// requestFile is the YAML layout of a delay request list:
//
//	package: delays
//	profile: atmega328p     # built-in name or profile YAML path
//	build_tags: avr         # optional //go:build constraint
//	delays:
//	  - name: DelayBoot
//	    ms: 5
//	  - name: DelayBit
//	    us: 104
type requestFile struct {
	Package string         `yaml:"package"`
	Profile string         `yaml:"profile"`
	Tags    string         `yaml:"build_tags"`
	Delays  []requestEntry `yaml:"delays"`
}

// requestEntry uses pointers so a requested magnitude of zero is
// distinguishable from an absent field.
type requestEntry struct {
	Name   string  `yaml:"name"`
	Cycles *uint64 `yaml:"cycles"`
	US     *uint64 `yaml:"us"`
	MS     *uint64 `yaml:"ms"`
	S      *uint64 `yaml:"s"`
}

// LoadRequests reads a delay request list and resolves it into a
// generation job.
func LoadRequests(path string) (*gen.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading requests: %w", err)
	}

	var rf requestFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing requests: %w", err)
	}

	if rf.Package == "" {
		return nil, fmt.Errorf("%s: missing package name", path)
	}
	if rf.Profile == "" {
		return nil, fmt.Errorf("%s: missing profile", path)
	}
	if len(rf.Delays) == 0 {
		return nil, fmt.Errorf("%s: no delays requested", path)
	}

	profile, err := target.Resolve(rf.Profile)
	if err != nil {
		return nil, err
	}

	f := &gen.File{
		Package: rf.Package,
		Profile: profile,
		Tags:    rf.Tags,
	}

	seen := make(map[string]bool)
	for i, entry := range rf.Delays {
		if entry.Name == "" {
			return nil, fmt.Errorf("%s: delay %d has no name", path, i)
		}
		if seen[entry.Name] {
			return nil, fmt.Errorf("%s: duplicate delay name %q", path, entry.Name)
		}
		seen[entry.Name] = true

		d, err := entry.delay()
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", path, entry.Name, err)
		}
		f.Delays = append(f.Delays, d)
	}
	return f, nil
}

func (e requestEntry) delay() (gen.Delay, error) {
	type candidate struct {
		value *uint64
		unit  cycles.Unit
	}
	candidates := []candidate{
		{e.Cycles, cycles.Cycles},
		{e.US, cycles.Microseconds},
		{e.MS, cycles.Milliseconds},
		{e.S, cycles.Seconds},
	}

	d := gen.Delay{Name: e.Name}
	count := 0
	for _, c := range candidates {
		if c.value != nil {
			d.Magnitude = *c.value
			d.Unit = c.unit
			count++
		}
	}
	if count != 1 {
		return gen.Delay{}, fmt.Errorf("exactly one of cycles, us, ms, s is required")
	}
	return d, nil
}
