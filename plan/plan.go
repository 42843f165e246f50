// Package plan derives busy-wait loop structures from target cycle
// counts. Given the fixed per-iteration cost of the spin primitive and
// the fixed entry/exit overhead of the loop bookkeeping, it produces an
// iteration bound (or a two-level nested decomposition when one counter
// cannot hold the bound) whose executed cycle count meets the target
// without undershooting.
package plan

import (
	"errors"
	"fmt"
)

// Kind discriminates the shapes a synthesized loop can take.
type Kind uint8

const (
	// Noop means the requested delay is at or below the fixed loop
	// overhead. No loop is emitted; the request is honored best-effort.
	Noop Kind = iota
	// Direct is a single counted loop.
	Direct
	// Nested is an outer/inner loop pair, used when the iteration count
	// exceeds what a single counter register can hold.
	Nested
)

func (k Kind) String() string {
	switch k {
	case Noop:
		return "noop"
	case Direct:
		return "direct"
	case Nested:
		return "nested"
	}
	return "unknown"
}

// Costs holds the hardware facts synthesis is parameterized by. They
// are properties of the target instruction set, supplied per target,
// never global state.
type Costs struct {
	// PerIteration is the cycle cost of one full pass through the busy
	// loop: the nap body plus the decrement/compare/branch around it.
	PerIteration uint32
	// FixedOverhead is the cycle cost paid once regardless of iteration
	// count: counter setup plus the final failing loop test.
	FixedOverhead uint32
	// CounterMax is the largest iteration count one counter register
	// can hold (255 for an 8-bit counter, and so on).
	CounterMax uint32
}

// Plan is a synthesized loop skeleton. Only the fields relevant to its
// Kind are meaningful.
type Plan struct {
	Kind       Kind
	Iterations uint32 // Direct
	Outer      uint32 // Nested
	Inner      uint32 // Nested
}

func (p Plan) String() string {
	switch p.Kind {
	case Direct:
		return fmt.Sprintf("direct{iterations=%d}", p.Iterations)
	case Nested:
		return fmt.Sprintf("nested{outer=%d, inner=%d}", p.Outer, p.Inner)
	}
	return "noop"
}

var (
	// ErrBadCosts means the cost model is unusable: a zero per-iteration
	// cost or counter range cannot describe real hardware.
	ErrBadCosts = errors.New("plan: per-iteration cost and counter max must be positive")
	// ErrUnplannable means the iteration count exceeds even two nested
	// counters. With realistic counter widths this needs a delay of
	// days, so it is rejected rather than decomposed further.
	ErrUnplannable = errors.New("plan: iteration count exceeds two nested counters")
)

// Synthesize derives the loop structure covering targetCycles.
//
// For Direct and Nested plans the executed cycle count lands in
// [targetCycles, targetCycles + PerIteration - 1]: ceiling rounding may
// overshoot by less than one loop body but can never undershoot. A
// Nested plan may additionally overshoot by the slack its factor
// decomposition introduces; see Cost.
func Synthesize(targetCycles uint32, costs Costs) (Plan, error) {
	if costs.PerIteration == 0 || costs.CounterMax == 0 {
		return Plan{}, ErrBadCosts
	}

	// A delay shorter than the unavoidable fixed cost cannot be honored
	// by a loop at all; emitting one would overshoot disproportionately.
	if targetCycles <= costs.FixedOverhead {
		return Plan{Kind: Noop}, nil
	}

	remaining := targetCycles - costs.FixedOverhead
	iterations := ceilDiv(remaining, costs.PerIteration)
	if iterations <= costs.CounterMax {
		return Plan{Kind: Direct, Iterations: iterations}, nil
	}

	// One counter cannot hold the bound: factor into an outer/inner pair
	// with outer*inner >= iterations. Two levels always suffice because
	// the counter width bounds each level and the product of two such
	// bounds exceeds any realistic delay.
	outer := ceilSqrt(iterations)
	inner := ceilDiv(iterations, outer)
	if outer > costs.CounterMax || inner > costs.CounterMax {
		return Plan{}, fmt.Errorf("%w: %d iterations, counter max %d", ErrUnplannable, iterations, costs.CounterMax)
	}
	return Plan{Kind: Nested, Outer: outer, Inner: inner}, nil
}

// Cost returns the cycle count executing p will consume under the given
// cost model. Noop consumes nothing.
func (p Plan) Cost(costs Costs) uint64 {
	switch p.Kind {
	case Direct:
		return uint64(costs.FixedOverhead) + uint64(p.Iterations)*uint64(costs.PerIteration)
	case Nested:
		return uint64(costs.FixedOverhead) + uint64(p.Outer)*uint64(p.Inner)*uint64(costs.PerIteration)
	}
	return 0
}

// ceilDiv divides rounding up, widening to 64 bits so a+b-1 cannot wrap.
func ceilDiv(a, b uint32) uint32 {
	return uint32((uint64(a) + uint64(b) - 1) / uint64(b))
}

// ceilSqrt returns the smallest s with s*s >= n, by pure integer
// digit-by-digit square root. No floating point: results must be
// bit-exact on any host running the generator.
func ceilSqrt(n uint32) uint32 {
	v := uint64(n)
	var res uint64
	bit := uint64(1) << 62
	for bit > v {
		bit >>= 2
	}
	for bit != 0 {
		if v >= res+bit {
			v -= res + bit
			res = res>>1 + bit
		} else {
			res >>= 1
		}
		bit >>= 2
	}
	if res*res < uint64(n) {
		res++
	}
	return uint32(res)
}
