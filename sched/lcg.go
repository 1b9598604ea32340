package sched

// lcg is the deterministic 64-bit linear congruential generator spec.md
// §4.2 calls for ("Draw a uniform integer ... using a deterministic 64-bit
// LCG"). Constants are Knuth's MMIX multiplier/increment, the same pair
// most freestanding kernels reach for when they need a fast, seedable,
// dependency-free PRNG with no hardware entropy source available this
// early in boot.
type lcg struct {
	state uint64
}

func newLCG(seed uint64) *lcg {
	return &lcg{state: seed}
}

const (
	lcgMultiplier = 6364136223846793005
	lcgIncrement  = 1442695040888963407
)

// next advances the generator and returns a uniform value in [0, bound).
// bound must be > 0.
func (g *lcg) next(bound uint64) uint64 {
	g.state = g.state*lcgMultiplier + lcgIncrement
	// Upper bits of an LCG are far more uniform than the low bits, which is
	// why the draw is taken from the top half rather than g.state%bound.
	return (g.state >> 32) % bound
}
