package cpuinit

import "unsafe"

func uintptrOf(p *byte) uintptr {
	return uintptr(unsafe.Pointer(p))
}

// kernelGSBase returns the address the syscall wrapper's SWAPGS/GS-relative
// accesses resolve against: the CPU struct itself, whose scratch field (see
// syscall.go) holds the {kernel_stack, user_stack} pair spec.md §4.3 names.
func kernelGSBase(c *CPU) uintptr {
	return uintptr(unsafe.Pointer(&c.scratch))
}
