package kernel

import "unsafe"

// memReader satisfies acpi's reader interface against real memory: Bytes
// returns a slice aliasing [virt, virt+n), the same direct-memory-view
// idiom hwio.CastTo uses for MMIO register blocks.
type memReader struct{}

func (memReader) Bytes(virt uintptr, n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(virt)), n)
}
