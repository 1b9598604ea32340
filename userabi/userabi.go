// Package userabi is the external GUI program's contract with this
// kernel: the fixed syscall numbers (spec.md §4.3's dispatch table) and a
// thin Go wrapper over the raw SYSCALL instruction for each one. Nothing
// in this package runs in kernel context — it is the user-mode side of
// the ABI boundary spec.md places out of kernel scope beyond "a single
// user-mode graphical program."
package userabi

// Syscall numbers, per spec.md §4.3. Unknown numbers are no-ops on the
// kernel side (return value unchanged).
const (
	SysExit            = 0
	SysPutChar         = 1
	SysReadKey         = 2
	SysGetMouse        = 3
	SysPutPixel        = 4
	SysBlitRect        = 5
	SysScreenInfo      = 6
	SysMapFramebuffer  = 7
	SysGetTicks        = 8
)

// Exit halts the calling task; spec.md: "never returns".
func Exit() {
	syscall6(SysExit, 0, 0, 0, 0, 0, 0)
	for {
	}
}

// PutChar appends c to the kernel's terminal window.
func PutChar(c byte) {
	syscall6(SysPutChar, uintptr(c), 0, 0, 0, 0, 0)
}

// ReadKey pops the next buffered key, or 0 if the keyboard ring is empty.
func ReadKey() byte {
	return byte(syscall6(SysReadKey, 0, 0, 0, 0, 0, 0))
}

// MousePacket is the decoded return value of GetMouse, unpacked from
// syscall 3's {left<<63 | right<<62 | x<<32 | y} word.
type MousePacket struct {
	Left, Right bool
	X, Y        uint32
}

// GetMouse returns the current mouse button/position snapshot.
func GetMouse() MousePacket {
	return decodeMousePacket(uint64(syscall6(SysGetMouse, 0, 0, 0, 0, 0, 0)))
}

// decodeMousePacket unpacks syscall 3's word. Bits 62-63 carry the
// buttons, so X is the 30 bits between them and Y.
func decodeMousePacket(w uint64) MousePacket {
	return MousePacket{
		Left:  w&(1<<63) != 0,
		Right: w&(1<<62) != 0,
		X:     uint32(w>>32) & 0x3FFFFFFF,
		Y:     uint32(w),
	}
}

// PutPixel sets one pixel to an 0xRRGGBBAA-packed color.
func PutPixel(x, y int, rgba uint32) {
	syscall6(SysPutPixel, uintptr(x), uintptr(y), uintptr(rgba), 0, 0, 0)
}

// BlitRect copies a w*h rect of packed 0xRRGGBBAA pixels from ptr into
// the framebuffer at (x, y); w and h must each be below 3000 per spec.md.
func BlitRect(x, y, w, h int, ptr uintptr) {
	syscall6(SysBlitRect, uintptr(x), uintptr(y), uintptr(w), uintptr(h), ptr, 0)
}

// ScreenInfo returns the framebuffer's (width, height).
func ScreenInfo() (width, height int) {
	w := uint64(syscall6(SysScreenInfo, 0, 0, 0, 0, 0, 0))
	return int(w >> 32), int(uint32(w))
}

// MapFramebuffer performs the one-shot framebuffer mapping, returning the
// mapped user-virtual address or 0 on failure.
func MapFramebuffer() uintptr {
	return syscall6(SysMapFramebuffer, 0, 0, 0, 0, 0, 0)
}

// GetTicks returns the monotonic 100 Hz tick count.
func GetTicks() uint64 {
	return uint64(syscall6(SysGetTicks, 0, 0, 0, 0, 0, 0))
}
