package kernel

import (
	"unsafe"

	"github.com/nyxkernel/nyxkernel/hwio"
)

// bootFramebuffer is the handoff's framebuffer descriptor, kept for
// mapFramebufferSyscall; nil if the bootloader reported none.
var bootFramebuffer *FramebufferHandoff

// unsafePixelSlice views n packed 0xRRGGBBAA pixels starting at the
// user-virtual address virt, the same direct-memory-view idiom
// kernel.memReader uses for ACPI table bytes.
func unsafePixelSlice(virt uintptr, n int) []uint32 {
	if virt == 0 || n <= 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(virt)), n)
}

// disableAndHalt masks interrupts and executes HLT, the idle loop
// haltFinished spins in once a task exits.
//
//go:nosplit
func disableAndHalt() {
	hwio.DisableInterrupts()
	hwio.Halt()
}
