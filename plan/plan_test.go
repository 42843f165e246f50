package plan

import (
	"errors"
	"math"
	"testing"
)

// The cost model used by most cases: a 4-cycle loop body, 4 cycles of
// setup/teardown, 16-bit counter.
var m0Costs = Costs{PerIteration: 4, FixedOverhead: 4, CounterMax: 65535}

func TestSynthesizeDirectExact(t *testing.T) {
	// 1ms at 16MHz: 16000 cycles, 4+3999*4 hits the target exactly.
	p, err := Synthesize(16_000, m0Costs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Kind != Direct {
		t.Fatalf("expected direct plan, got %v", p.Kind)
	}
	if p.Iterations != 3999 {
		t.Errorf("expected 3999 iterations, got %d", p.Iterations)
	}
	if cost := p.Cost(m0Costs); cost != 16_000 {
		t.Errorf("expected exact cost 16000, got %d", cost)
	}
}

func TestSynthesizeNoop(t *testing.T) {
	testCases := []uint32{0, 1, 2, 3, 4}
	for _, target := range testCases {
		p, err := Synthesize(target, m0Costs)
		if err != nil {
			t.Errorf("target=%d: unexpected error: %v", target, err)
			continue
		}
		if p.Kind != Noop {
			t.Errorf("target=%d: expected noop at or below overhead, got %v", target, p)
		}
		if p.Cost(m0Costs) != 0 {
			t.Errorf("target=%d: noop must cost nothing", target)
		}
	}

	// One past the overhead must produce a real loop again.
	p, err := Synthesize(5, m0Costs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Kind != Direct || p.Iterations != 1 {
		t.Errorf("expected direct{1} just past overhead, got %v", p)
	}
}

// Executed cost must land in [target, target+PerIteration-1] for every
// target a single loop can cover.
func TestSynthesizeCostWindow(t *testing.T) {
	costModels := []Costs{
		m0Costs,
		{PerIteration: 41, FixedOverhead: 7, CounterMax: math.MaxUint32},
		{PerIteration: 3, FixedOverhead: 0, CounterMax: 255},
		{PerIteration: 1, FixedOverhead: 12, CounterMax: math.MaxUint32},
	}
	targets := []uint32{13, 100, 999, 16_000, 123_456, 1_000_000}

	for _, costs := range costModels {
		for _, target := range targets {
			p, err := Synthesize(target, costs)
			if errors.Is(err, ErrUnplannable) {
				// Narrow counters cannot reach the largest targets.
				continue
			}
			if err != nil {
				t.Errorf("target=%d costs=%+v: unexpected error: %v", target, costs, err)
				continue
			}
			if target <= costs.FixedOverhead {
				continue
			}
			cost := p.Cost(costs)
			if cost < uint64(target) {
				t.Errorf("target=%d costs=%+v: plan %v undershoots with cost %d", target, costs, p, cost)
			}
			if p.Kind == Direct && cost > uint64(target)+uint64(costs.PerIteration)-1 {
				t.Errorf("target=%d costs=%+v: plan %v overshoots window with cost %d", target, costs, p, cost)
			}
		}
	}
}

func TestSynthesizeNestedDecomposition(t *testing.T) {
	// 1000ms at 16MHz: 16_000_000 cycles, 3_999_999 iterations. A wide
	// counter holds that directly; a 16-bit counter forces the
	// square-root decomposition into 2000x2000.
	costs := Costs{PerIteration: 4, FixedOverhead: 4, CounterMax: math.MaxUint32}
	p, err := Synthesize(16_000_000, costs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Kind != Direct || p.Iterations != 3_999_999 {
		t.Fatalf("wide counter should stay direct, got %v", p)
	}

	costs.CounterMax = 65535
	p, err = Synthesize(16_000_000, costs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Kind != Nested {
		t.Fatalf("expected nested plan, got %v", p)
	}
	if p.Outer != 2000 || p.Inner != 2000 {
		t.Errorf("expected 2000x2000 factors, got %dx%d", p.Outer, p.Inner)
	}
	if uint64(p.Outer)*uint64(p.Inner) < 3_999_999 {
		t.Errorf("factors do not cover the iteration count")
	}
}

func TestSynthesizeNestedFactorBounds(t *testing.T) {
	costs := Costs{PerIteration: 4, FixedOverhead: 4, CounterMax: 255}
	// Iteration counts past 255 but within 255*255.
	targets := []uint32{4 + 256*4, 4 + 1000*4, 4 + 40_000*4, 4 + 65_025*4}

	for _, target := range targets {
		p, err := Synthesize(target, costs)
		if err != nil {
			t.Errorf("target=%d: unexpected error: %v", target, err)
			continue
		}
		if p.Kind != Nested {
			t.Errorf("target=%d: expected nested, got %v", target, p)
			continue
		}
		iterations := (target - costs.FixedOverhead + costs.PerIteration - 1) / costs.PerIteration
		if uint64(p.Outer)*uint64(p.Inner) < uint64(iterations) {
			t.Errorf("target=%d: %dx%d does not cover %d iterations", target, p.Outer, p.Inner, iterations)
		}
		if p.Outer > costs.CounterMax || p.Inner > costs.CounterMax {
			t.Errorf("target=%d: factor exceeds counter max: %dx%d", target, p.Outer, p.Inner)
		}
		if cost := p.Cost(costs); cost < uint64(target) {
			t.Errorf("target=%d: nested plan undershoots with cost %d", target, cost)
		}
	}
}

func TestSynthesizeUnplannable(t *testing.T) {
	// 65026 iterations cannot fit 255*255 = 65025.
	costs := Costs{PerIteration: 1, FixedOverhead: 0, CounterMax: 255}
	_, err := Synthesize(65_026, costs)
	if !errors.Is(err, ErrUnplannable) {
		t.Errorf("expected ErrUnplannable, got %v", err)
	}

	// The last plannable count still works.
	p, err := Synthesize(65_025, costs)
	if err != nil {
		t.Fatalf("unexpected error at boundary: %v", err)
	}
	if p.Kind != Nested || p.Outer != 255 || p.Inner != 255 {
		t.Errorf("expected nested{255x255}, got %v", p)
	}
}

func TestSynthesizeBadCosts(t *testing.T) {
	if _, err := Synthesize(1000, Costs{PerIteration: 0, CounterMax: 255}); !errors.Is(err, ErrBadCosts) {
		t.Errorf("expected ErrBadCosts for zero per-iteration, got %v", err)
	}
	if _, err := Synthesize(1000, Costs{PerIteration: 4, CounterMax: 0}); !errors.Is(err, ErrBadCosts) {
		t.Errorf("expected ErrBadCosts for zero counter max, got %v", err)
	}
}

func TestCeilSqrt(t *testing.T) {
	testCases := []struct {
		n        uint32
		expected uint32
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{4, 2},
		{5, 3},
		{9, 3},
		{10, 4},
		{3_999_999, 2000},
		{4_000_000, 2000},
		{4_000_001, 2001},
		{math.MaxUint32, 65536},
	}
	for _, tc := range testCases {
		if got := ceilSqrt(tc.n); got != tc.expected {
			t.Errorf("ceilSqrt(%d): expected %d, got %d", tc.n, tc.expected, got)
		}
	}
}
