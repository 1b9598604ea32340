package memory

import (
	"unsafe"
)

// newTestManager builds a Manager whose "physical memory" is really a Go
// byte slice: physOff is chosen so PhysToVirt(p) for p in [0, len(backing))
// lands inside backing, letting AllocPage/AllocPages actually zero
// addressable memory the way they would a real direct-mapped region.
func newTestManager(backing []byte) *Manager {
	m := &Manager{}
	m.frames = NewFrameAllocator([]Region{{Kind: Usable, Start: 0, End: uintptr(len(backing))}})
	m.physOff = uintptr(unsafe.Pointer(&backing[0]))
	m.mmio = make(map[uintptr]uintptr)
	m.userNext = UserBase
	m.ready = true
	return m
}
