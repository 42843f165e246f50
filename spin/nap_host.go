//go:build !tinygo

package spin

// Host builds have no cycle-exact nap. The pass counter lets tests
// verify that a plan executes exactly the number of passes it promises.
var napPasses uint64

func nap() {
	napPasses++
}
