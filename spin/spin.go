// Package spin provides the busy-wait primitives that generated delay
// code executes. The nap body is the opaque unit of cost: on hardware
// it is a volatile access the compiler must keep, so the loops below
// survive with the same shape whether or not the surrounding code is
// built with optimizations.
package spin

// Naps runs a single counted loop of n nap passes.
func Naps(n uint32) {
	for i := n; i != 0; i-- {
		nap()
	}
}

// NestedNaps runs outer*inner nap passes as two nested counted loops.
// Used when one counter register cannot hold the full iteration count.
func NestedNaps(outer, inner uint32) {
	for o := outer; o != 0; o-- {
		for i := inner; i != 0; i-- {
			nap()
		}
	}
}

// Nop executes a single nap pass with no loop around it. Generated
// code uses it for delays too short to amortize loop bookkeeping.
func Nop() {
	nap()
}
