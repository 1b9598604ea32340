package cpuinit

import (
	"unsafe"

	"github.com/nyxkernel/nyxkernel/internal/bitfield"
)

// Exception vector numbers. buildIDT leaves every gate zeroed (not
// present); a vector only gets a gate when the caller of Init passes a
// handler for it or calls SetHandler.
const (
	vectorDivideError  = 0
	vectorDebug        = 1
	vectorNMI          = 2
	vectorBreakpoint   = 3
	vectorOverflow     = 4
	vectorBoundRange   = 5
	vectorInvalidOp    = 6
	vectorDeviceNA     = 7
	vectorDoubleFault  = 8
	vectorInvalidTSS   = 10
	vectorSegmentNP    = 11
	vectorStackFault   = 12
	vectorGPFault      = 13
	vectorPageFault    = 14
	vectorFPError      = 16
	vectorAlignCheck   = 17
	vectorMachineCheck = 18
	vectorSIMDError    = 19

	// VectorTimer is the PIT's remapped IRQ0 vector, above the 32 CPU
	// exception vectors and the legacy PIC's default 8-15 range.
	VectorTimer = 0x20
	// VectorKeyboard is IRQ1's remapped vector.
	VectorKeyboard = 0x21
)

const idtEntries = 256

type idtTable [idtEntries]idtEntry

// idtEntry is one 16-byte x86_64 gate descriptor: a 64-bit handler address
// split low/mid/high around the selector and type/attribute byte.
type idtEntry struct {
	offsetLo uint16
	selector uint16
	istFlags uint16
	offsetMid uint16
	offsetHi uint32
	reserved uint32
}

const (
	idtBitPresent = 15
	idtDPLLo      = 13
	idtDPLHi      = 14
	idtTypeLo     = 8
	idtTypeHi     = 11
	idtISTLo      = 0
	idtISTHi      = 2

	gateTypeInterrupt = 0xE // interrupt gate: IF cleared on entry
)

func packGate(selector uint16, ist uint16, dpl uint64) uint16 {
	var w bitfield.Word32
	w = w.WithBits(idtTypeLo, idtTypeHi, gateTypeInterrupt)
	w = w.WithBits(uint(idtDPLLo), uint(idtDPLHi), uint32(dpl))
	w = w.WithBit(idtBitPresent, true)
	w = w.WithBits(uint(idtISTLo), uint(idtISTHi), uint32(ist))
	return uint16(w)
}

func (c *CPU) buildIDT() {
	for i := range c.idt {
		c.idt[i] = idtEntry{}
	}
}

// SetHandler installs handler at vector, routed through IST slot ist (0
// means "use the current stack, no IST switch").
func (c *CPU) SetHandler(vector int, handler uintptr, ist uint16) {
	c.idt[vector] = idtEntry{
		offsetLo:  uint16(handler),
		selector:  SelectorKernelCode,
		istFlags:  packGate(SelectorKernelCode, ist, 0),
		offsetMid: uint16(handler >> 16),
		offsetHi:  uint32(handler >> 32),
	}
}

func (c *CPU) loadIDT() {
	c.idtr = descriptorPointer{
		Limit: uint16(len(c.idt)*16 - 1),
		Base:  uint64(uintptr(unsafe.Pointer(&c.idt[0]))),
	}
	loadIDT(&c.idtr)
}
