// Package hwio provides volatile, typed access to fixed physical addresses
// and x86_64 I/O ports, with no compiler reordering across accesses.
//
// Every driver in this kernel reaches hardware only through these
// primitives: a register block wraps a base address and offsets, and every
// field access goes through Read8/16/32/64 or Write8/16/32/64 below. This
// keeps raw unsafe.Pointer arithmetic out of driver code.
package hwio

import "unsafe"

// Read8 performs a volatile 8-bit load from addr.
//
//go:nosplit
func Read8(addr uintptr) uint8 {
	return *(*uint8)(unsafe.Pointer(addr))
}

// Write8 performs a volatile 8-bit store to addr.
//
//go:nosplit
func Write8(addr uintptr, v uint8) {
	*(*uint8)(unsafe.Pointer(addr)) = v
}

// Read16 performs a volatile 16-bit load from addr.
//
//go:nosplit
func Read16(addr uintptr) uint16 {
	return *(*uint16)(unsafe.Pointer(addr))
}

// Write16 performs a volatile 16-bit store to addr.
//
//go:nosplit
func Write16(addr uintptr, v uint16) {
	*(*uint16)(unsafe.Pointer(addr)) = v
}

// Read32 performs a volatile 32-bit load from addr.
//
//go:nosplit
func Read32(addr uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(addr))
}

// Write32 performs a volatile 32-bit store to addr.
//
//go:nosplit
func Write32(addr uintptr, v uint32) {
	*(*uint32)(unsafe.Pointer(addr)) = v
}

// Read64 performs a volatile 64-bit load from addr.
//
//go:nosplit
func Read64(addr uintptr) uint64 {
	return *(*uint64)(unsafe.Pointer(addr))
}

// Write64 performs a volatile 64-bit store to addr.
//
//go:nosplit
func Write64(addr uintptr, v uint64) {
	*(*uint64)(unsafe.Pointer(addr)) = v
}

// CastTo reinterprets addr as a *T. Used to overlay a typed register-block
// struct onto an MMIO base; callers must still route field access through
// the Read/Write functions above rather than dereferencing directly.
//
//go:nosplit
func CastTo[T any](addr uintptr) *T {
	return (*T)(unsafe.Pointer(addr))
}

// Fence issues a full compiler+CPU memory fence (MFENCE). Every cycle-bit
// or phase-tag publication is bracketed by a Fence call so the parameter
// and status fields are visible to hardware before the control word is.
//
//go:nosplit
func Fence()

// FlushLine flushes the cache line containing addr (CLFLUSH) so a
// just-written TRB or context is visible to the device, or a just-read one
// reflects the device's latest write.
//
//go:nosplit
func FlushLine(addr uintptr)

// Outb writes a byte to an x86 I/O port.
//
//go:nosplit
func Outb(port uint16, v uint8)

// Inb reads a byte from an x86 I/O port.
//
//go:nosplit
func Inb(port uint16) uint8

// Outl writes a dword to an x86 I/O port.
//
//go:nosplit
func Outl(port uint16, v uint32)

// Inl reads a dword from an x86 I/O port.
//
//go:nosplit
func Inl(port uint16) uint32

// WrMSR writes a model-specific register.
//
//go:nosplit
func WrMSR(msr uint32, v uint64)

// RdMSR reads a model-specific register.
//
//go:nosplit
func RdMSR(msr uint32) uint64

// Halt executes HLT, halting the CPU until the next interrupt.
//
//go:nosplit
func Halt()

// EnableInterrupts executes STI.
//
//go:nosplit
func EnableInterrupts()

// DisableInterrupts executes CLI.
//
//go:nosplit
func DisableInterrupts()

// InterruptsEnabled reports whether IF is currently set, by reading RFLAGS.
//
//go:nosplit
func InterruptsEnabled() bool

// Invlpg invalidates the TLB entry for the page containing addr.
//
//go:nosplit
func Invlpg(addr uintptr)

// LoadCR3 writes the page-table base register.
//
//go:nosplit
func LoadCR3(phys uintptr)

// ReadCR2 reads the faulting address register, valid inside a page-fault
// handler only.
//
//go:nosplit
func ReadCR2() uintptr

// RDTSC reads the timestamp counter, used only for coarse diagnostics (the
// monotonic time source for scheduling and syscalls is the PIT tick count).
//
//go:nosplit
func RDTSC() uint64
