package cpuinit

import (
	"unsafe"

	"github.com/nyxkernel/nyxkernel/internal/bitfield"
)

// gdtEntries is null, kernel-code, kernel-data, an unused 32-bit-user-code
// placeholder, user-data, user-code, and the two-qword TSS descriptor. The
// placeholder and the user-data/user-code order are not arbitrary: SYSCALL
// and SYSRET derive all four segment selectors from the single STAR MSR by
// adding fixed offsets to a base (see syscall.go), and that hardware
// contract requires user-data to sit exactly 8 bytes below user-code in
// the table, with the placeholder occupying the slot a 32-bit compat
// segment would use.
const gdtEntries = 8

type gdtTable [gdtEntries]uint64

// descriptorPointer is the operand LGDT/LIDT load: a 16-bit limit followed
// by a 64-bit linear base, packed exactly as the CPU expects it in memory.
type descriptorPointer struct {
	Limit uint16
	Base  uint64
}

// segBit mirrors the standard x86_64 segment-descriptor access-byte and
// flags layout. Base and limit are ignored in long mode for code/data
// descriptors (the CPU treats the segment as flat), so only the access
// byte and the long-mode (L) flag carry meaning.
const (
	segBitAccessed  = 40
	segBitRW        = 41 // writable (data) / readable (code)
	segBitDC        = 42 // direction/conforming
	segBitExecute   = 43
	segBitDescType  = 44 // 1 = code/data, 0 = system
	segBitDPLLo     = 45
	segBitDPLHi     = 46
	segBitPresent   = 47
	segBitLongMode  = 53
	segBitDefSize   = 54
)

func codeDescriptor(dpl uint64) uint64 {
	var w bitfield.Word64
	w = w.WithBit(segBitAccessed, true)
	w = w.WithBit(segBitRW, true)
	w = w.WithBit(segBitExecute, true)
	w = w.WithBit(segBitDescType, true)
	w = w.WithBits(segBitDPLLo, segBitDPLHi, dpl)
	w = w.WithBit(segBitPresent, true)
	w = w.WithBit(segBitLongMode, true)
	return uint64(w)
}

func dataDescriptor(dpl uint64) uint64 {
	var w bitfield.Word64
	w = w.WithBit(segBitAccessed, true)
	w = w.WithBit(segBitRW, true)
	w = w.WithBit(segBitDescType, true)
	w = w.WithBits(segBitDPLLo, segBitDPLHi, dpl)
	w = w.WithBit(segBitPresent, true)
	return uint64(w)
}

// tssDescriptor packs a 64-bit-mode system descriptor (type 0x9, available
// TSS) spanning two consecutive qwords, base split across the low/mid/high
// fields the architecture defines.
func tssDescriptor(base uintptr, limit uint32) (lo, hi uint64) {
	var w bitfield.Word64
	w = w.WithBits(0, 15, uint64(limit)&0xFFFF)
	w = w.WithBits(16, 39, uint64(base)&0xFFFFFF)
	w = w.WithBits(40, 43, 0x9) // type = available 64-bit TSS
	w = w.WithBit(segBitDescType, false)
	w = w.WithBit(segBitPresent, true)
	w = w.WithBits(48, 51, uint64(limit)>>16&0xF)
	w = w.WithBits(56, 63, uint64(base)>>24&0xFF)
	return uint64(w), uint64(base) >> 32
}

func (c *CPU) buildGDT() {
	c.gdt[0] = 0
	c.gdt[SelectorKernelCode/8] = codeDescriptor(0)
	c.gdt[SelectorKernelData/8] = dataDescriptor(0)
	// c.gdt[3] (the 0x18 slot) stays the null descriptor: this kernel never
	// runs 32-bit compatibility-mode user code, it only occupies the STAR
	// base offset.
	c.gdt[(SelectorUserData&^3)/8] = dataDescriptor(3)
	c.gdt[(SelectorUserCode&^3)/8] = codeDescriptor(3)

	base := uintptr(unsafe.Pointer(&c.tss))
	lo, hi := tssDescriptor(base, uint32(tssSize-1))
	c.gdt[SelectorTSS/8] = lo
	c.gdt[SelectorTSS/8+1] = hi
}

func (c *CPU) loadGDTAndTSS() {
	c.gdtr = descriptorPointer{
		Limit: uint16(len(c.gdt)*8 - 1),
		Base:  uint64(uintptr(unsafe.Pointer(&c.gdt[0]))),
	}
	loadGDT(&c.gdtr)
	reloadSegments(SelectorKernelCode, SelectorKernelData)
	loadTR(SelectorTSS)
}
