// Package cycles converts delay requests into processor cycle counts.
//
// All arithmetic is integer-only: delay constants must be exact and
// reproducible, and the targets this toolkit generates code for may not
// have a floating point unit. Conversions round up, so a computed cycle
// count always covers at least the requested duration.
package cycles

import (
	"errors"
	"math"
)

// Unit is the unit of a delay request's magnitude.
type Unit uint8

const (
	// Cycles passes the magnitude through unchanged. Escape hatch for
	// callers that already know the exact cycle count they want.
	Cycles Unit = iota
	Microseconds
	Milliseconds
	Seconds
)

func (u Unit) String() string {
	switch u {
	case Cycles:
		return "cycles"
	case Microseconds:
		return "us"
	case Milliseconds:
		return "ms"
	case Seconds:
		return "s"
	}
	return "unknown"
}

var (
	// ErrOverflow means the requested duration needs more cycles than a
	// 32-bit counter chain can represent. Surfaced at generation time so
	// the build fails instead of emitting a wrong delay.
	ErrOverflow = errors.New("cycles: cycle count exceeds 32-bit range")

	ErrZeroClock = errors.New("cycles: clock frequency must be positive")
	ErrBadUnit   = errors.New("cycles: unknown unit")
)

// Compute returns the number of clock cycles that cover a delay of
// magnitude units at the given clock frequency.
//
// The result is rounded up, never down: a delay may run slightly long
// due to loop granularity but must never run short.
func Compute(magnitude uint64, unit Unit, clockHz uint32) (uint32, error) {
	if clockHz == 0 {
		return 0, ErrZeroClock
	}

	switch unit {
	case Cycles:
		if magnitude > math.MaxUint32 {
			return 0, ErrOverflow
		}
		return uint32(magnitude), nil
	case Microseconds:
		return scale(magnitude, clockHz, 1_000_000)
	case Milliseconds:
		return scale(magnitude, clockHz, 1_000)
	case Seconds:
		return scale(magnitude, clockHz, 1)
	}
	return 0, ErrBadUnit
}

// scale computes ceil(magnitude * clockHz / unitsPerSecond) without the
// intermediate product overflowing.
//
// The magnitude is split into a whole-second part and a sub-second
// remainder. The remainder product is bounded by
// unitsPerSecond * 2^32 < 2^52, so it always fits in a uint64; the
// whole-second part is range-checked explicitly since the final result
// must fit a 32-bit counter chain anyway.
func scale(magnitude uint64, clockHz uint32, unitsPerSecond uint64) (uint32, error) {
	hz := uint64(clockHz)
	whole := magnitude / unitsPerSecond
	frac := magnitude % unitsPerSecond

	if whole > math.MaxUint32/hz {
		return 0, ErrOverflow
	}

	total := whole*hz + ceilDiv(frac*hz, unitsPerSecond)
	if total > math.MaxUint32 {
		return 0, ErrOverflow
	}
	return uint32(total), nil
}

// ceilDiv divides a by b rounding up instead of truncating.
func ceilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}
