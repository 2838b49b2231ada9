package stakehub

import "github.com/holiman/uint256"

// mulDivFloor computes floor(a*b/c) via a 256-bit intermediate, the
// same overflow-safe shape used by every leaf package (sharemath,
// strategy, slashing, tune) that does ratio math.
func mulDivFloor(a, b, c uint64) uint64 {
	if c == 0 {
		return 0
	}
	x := new(uint256.Int).SetUint64(a)
	x.Mul(x, new(uint256.Int).SetUint64(b))
	x.Div(x, new(uint256.Int).SetUint64(c))
	if !x.IsUint64() {
		panic("stakehub: mulDivFloor result does not fit in uint64")
	}
	return x.Uint64()
}
