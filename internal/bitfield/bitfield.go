// Package bitfield packs and unpacks named bit ranges of a control word.
//
// The teacher kernel packs its page flags with a reflect-driven Pack/Unpack
// pair (one tag per struct field). Reflection allocates and walks type
// metadata, which is unsafe to call from the //go:nosplit paths that touch
// page tables, TRBs, and NVMe command words in this kernel, so this version
// keeps the same "named bit range over an integer" idea but does the
// packing with plain shifts and masks instead.
package bitfield

// Word64 is a control word accessed as named, fixed-width bit ranges.
type Word64 uint64

// Bit reports whether bit n is set.
func (w Word64) Bit(n uint) bool {
	return w&(1<<n) != 0
}

// WithBit returns w with bit n set to v.
func (w Word64) WithBit(n uint, v bool) Word64 {
	if v {
		return w | (1 << n)
	}
	return w &^ (1 << n)
}

// Bits extracts the value in the inclusive range [lo, hi].
func (w Word64) Bits(lo, hi uint) uint64 {
	width := hi - lo + 1
	mask := uint64(1)<<width - 1
	return (uint64(w) >> lo) & mask
}

// WithBits returns w with the inclusive range [lo, hi] set to val.
// val is masked to the range's width; out-of-range bits are silently
// dropped, matching the hardware registers this wraps (a field write never
// spills into its neighbor).
func (w Word64) WithBits(lo, hi uint, val uint64) Word64 {
	width := hi - lo + 1
	mask := uint64(1)<<width - 1
	cleared := uint64(w) &^ (mask << lo)
	return Word64(cleared | (val&mask)<<lo)
}

// Word32 is the 32-bit counterpart of Word64, used for PCI config-space
// words, PTE lower halves, and page-metadata flags.
type Word32 uint32

func (w Word32) Bit(n uint) bool {
	return w&(1<<n) != 0
}

func (w Word32) WithBit(n uint, v bool) Word32 {
	if v {
		return w | (1 << n)
	}
	return w &^ (1 << n)
}

func (w Word32) Bits(lo, hi uint) uint32 {
	width := hi - lo + 1
	mask := uint32(1)<<width - 1
	return (uint32(w) >> lo) & mask
}

func (w Word32) WithBits(lo, hi uint, val uint32) Word32 {
	width := hi - lo + 1
	mask := uint32(1)<<width - 1
	cleared := uint32(w) &^ (mask << lo)
	return Word32(cleared | (val&mask)<<lo)
}
