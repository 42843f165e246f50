//go:build tinygo

package spin

import "runtime/volatile"

// sink exists only to be read. A volatile access cannot be elided or
// reordered, so every nap pass executes even under -opt=2.
var sink volatile.Register32

func nap() {
	sink.Get()
}
