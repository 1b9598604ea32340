package sched

import (
	"unsafe"

	"github.com/nyxkernel/nyxkernel/hwio"
)

// gprSlots is the number of general-purpose registers (all but RSP) the
// restore-and-return epilogue pops before the trailing IRETQ, per spec.md
// §4.2's "15 zero qwords" (one task-frame for every integer register this
// kernel's context switch preserves, exclusive of the five hardware iret
// fields below).
const gprSlots = 15

// defaultRFlags is RFLAGS with only the interrupt-enable bit (and the
// reserved-always-1 bit 1) set, matching spec.md's "RFLAGS=0x202".
const defaultRFlags = 0x202

// InitStack synthesizes, at the top of stackRegion, a frame that a
// restore-and-return sequence (pop gprSlots zero qwords, then IRETQ) turns
// into a jump to entry at kernel privilege with interrupts enabled. It
// returns the saved stack pointer schedule() should hand back the first
// time this task is selected.
//
// Layout from the returned pointer upward (low to high address, matching
// IRETQ's expected stack shape): gprSlots zero qwords, then RIP, CS,
// RFLAGS, RSP, SS — spec.md lists the iret fields high-to-low as
// {SS, RSP, RFLAGS, CS, RIP}, which is this same layout read the other
// way. RSP in the synthesized frame is stackTop itself: once IRETQ
// consumes the frame, the task's RSP snaps back to the full, untouched
// stack rather than continuing to point partway into the frame.
func InitStack(stackRegion []byte, entry uintptr, codeSelector uint16) uintptr {
	stackTop := regionEnd(stackRegion)
	frameBytes := uintptr((gprSlots + 5) * 8)
	base := stackTop - frameBytes

	off := base
	for i := 0; i < gprSlots; i++ {
		hwio.Write64(off, 0)
		off += 8
	}
	hwio.Write64(off, uint64(entry))
	off += 8
	hwio.Write64(off, uint64(codeSelector))
	off += 8
	hwio.Write64(off, defaultRFlags)
	off += 8
	hwio.Write64(off, uint64(stackTop))
	off += 8
	hwio.Write64(off, 0) // SS: kernel tasks never change stack segment

	return base
}

func regionEnd(region []byte) uintptr {
	if len(region) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&region[0])) + uintptr(len(region))
}
