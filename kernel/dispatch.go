package kernel

import (
	"github.com/nyxkernel/nyxkernel/cpuinit"
	"github.com/nyxkernel/nyxkernel/fb"
	"github.com/nyxkernel/nyxkernel/memory"
	"github.com/nyxkernel/nyxkernel/timer"
	"github.com/nyxkernel/nyxkernel/userabi"
	"github.com/nyxkernel/nyxkernel/xhci"
)

// terminal, mouseSlot and framebufferMapped are the dispatcher's handles
// onto the subsystems Boot wires up; they're package-level rather than
// threaded through dispatchSyscall's signature because the signature
// itself is fixed by the asm wrapper's calling convention (one pointer
// argument, per spec.md §4.3 step 5).
var (
	terminal        *fb.Terminal
	mouseCtrl       *xhci.Controller
	mouseSlot       int
	framebufferMapped bool
)

// dispatchSyscall is spec.md §4.3 step 5's high-level dispatcher: switch
// on the number in regs.RAX, carry out the syscall, and write the result
// back into regs.RAX (the channel the asm wrapper restores into user AX
// on return). Unknown numbers are no-ops, per the dispatch table's note.
//
//go:nosplit
func dispatchSyscall(regs *cpuinit.SyscallRegisters) {
	switch regs.RAX {
	case userabi.SysExit:
		haltFinished()
		// unreachable: haltFinished never returns.
	case userabi.SysPutChar:
		if terminal != nil {
			terminal.PutChar(byte(regs.RDI))
		}
	case userabi.SysReadKey:
		regs.RAX = readKey()
	case userabi.SysGetMouse:
		regs.RAX = mousePacket()
	case userabi.SysPutPixel:
		fb.Global().PutPixel(int(regs.RDI), int(regs.RSI), uint32(regs.RDX))
	case userabi.SysBlitRect:
		blitRectSyscall(regs)
	case userabi.SysScreenInfo:
		regs.RAX = fb.Global().ScreenInfo()
	case userabi.SysMapFramebuffer:
		regs.RAX = uint64(mapFramebufferSyscall())
	case userabi.SysGetTicks:
		regs.RAX = timer.Ticks()
	}
}

// mousePacket implements dispatch entry 3, returning a zero-value packet
// (no buttons, origin position) if no USB mouse slot was enumerated.
func mousePacket() uint64 {
	if mouseCtrl == nil {
		return 0
	}
	return mouseCtrl.Mouse(mouseSlot).Pack()
}

// blitRectSyscall unpacks dispatch entry 5's (x, y, w, h, ptr) argument
// tuple; ptr is a user-virtual address of a packed-RGBA pixel array, valid
// because the kernel and the single user task share one address space
// (spec.md §3 "Address space").
func blitRectSyscall(regs *cpuinit.SyscallRegisters) {
	x, y, w, h := int(regs.RDI), int(regs.RSI), int(regs.RDX), int(regs.R10)
	if w <= 0 || h <= 0 {
		return
	}
	src := unsafePixelSlice(uintptr(regs.R8), w*h)
	fb.Global().BlitRect(x, y, w, h, src)
}

// mapFramebufferSyscall implements dispatch entry 7: a one-shot mapping
// of the compositor's physical framebuffer into the user address space.
// Returns 0 on failure or if already mapped (spec.md §4.3: "one-shot
// mapping").
func mapFramebufferSyscall() uintptr {
	if framebufferMapped || bootFramebuffer == nil {
		return 0
	}
	phys, err := memory.Global().VirtToPhys(bootFramebuffer.BaseVirt)
	if err != nil {
		return 0
	}
	size := uintptr(bootFramebuffer.Stride * bootFramebuffer.Height)
	virt, err := memory.Global().MapUserFramebuffer(phys, size)
	if err != nil {
		return 0
	}
	framebufferMapped = true
	return virt
}

// haltFinished implements dispatch entry 0: draw the "process finished"
// overlay and halt the CPU for good, per spec.md's "halts CPU with
// 'process finished' overlay" note. Never returns.
func haltFinished() {
	drawFinishedOverlay()
	for {
		disableAndHalt()
	}
}
