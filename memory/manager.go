// Package memory implements the physical frame allocator and the x86_64
// virtual-memory mapper: MMIO mapping, user-page allocation, and
// virtual/physical address translation (spec.md §4.1).
package memory

import (
	"errors"
	"sync"
)

// Kernel-side virtual/physical layout constants. The kernel never moves
// these once chosen at boot, per spec.md §3's MMIO-region invariant.
const (
	// UserBase is the fixed load address of the embedded user-mode binary
	// and the base of its allocated page range (spec.md §6).
	UserBase = 0x1000000

	// UserFramebufferBase is a separate VA window reserved for the
	// one-shot framebuffer mapping (syscall 7), kept apart from UserBase
	// so ordinary user page growth never collides with it.
	UserFramebufferBase = 0x2000000000
)

// Manager is the kernel's single memory-management singleton. Per
// DESIGN.md's decision on spec.md §9's "global mutable state" note, it is
// explicitly initialized once and every operation except PhysToVirt checks
// that flag, rather than relying on package-level init ordering.
type Manager struct {
	mu sync.Mutex

	ready     bool
	physOff   uintptr
	frames    *FrameAllocator
	pml4Base  uintptr

	mmio   map[uintptr]uintptr // phys region start -> virt, for idempotency
	userNext uintptr
}

var global Manager

// Global returns the kernel's memory-manager singleton.
func Global() *Manager { return &global }

// Init attaches the manager to the bootloader-reported physical-memory
// offset and memory map, and records the active PML4's physical base so
// MapMMIO/AllocateUserPages can install entries into it. pml4Base is
// presumed already active in CR3 (installed by the early boot assembly).
func (m *Manager) Init(physOffset uintptr, regions []Region, pml4Base uintptr) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.physOff = physOffset
	m.frames = NewFrameAllocator(regions)
	m.pml4Base = pml4Base
	m.mmio = make(map[uintptr]uintptr)
	m.userNext = UserBase
	m.ready = true
}

var errNotReady = errors.New("memory: manager not initialized")

// errNonContiguous surfaces when AllocPages can't find n physically
// contiguous frames (spec.md is silent on this case; device DMA rings
// genuinely need contiguous memory, so this fails closed rather than
// silently handing back a non-contiguous run).
var errNonContiguous = errors.New("memory: could not allocate contiguous frame run")

// AllocateFrame hands out the next usable 4 KiB physical frame.
func (m *Manager) AllocateFrame() (Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return 0, errNotReady
	}
	return m.frames.Allocate()
}

// PhysToVirt adds the bootloader-established physical-memory offset; valid
// for any physical address, since the entire usable physical range is
// identity-offset-mapped at boot.
func (m *Manager) PhysToVirt(p uintptr) uintptr {
	return p + m.physOff
}

// VirtToPhys walks the active page hierarchy to translate v. Unlike
// PhysToVirt, this only succeeds for addresses that have actually been
// mapped (offset-mapped physical memory, MMIO windows, or user pages).
func (m *Manager) VirtToPhys(v uintptr) (uintptr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return 0, errNotReady
	}
	return m.translate(v)
}

// AllocPage hands out one zeroed physical frame along with its
// kernel-virtual (direct-mapped) alias, the seam nvme.PageAllocator and
// ahci.PageAllocator consume for fixed DMA pages.
func (m *Manager) AllocPage() (phys uintptr, virt uintptr, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return 0, 0, errNotReady
	}
	f, err := m.frames.Allocate()
	if err != nil {
		return 0, 0, err
	}
	phys = uintptr(f)
	virt = m.PhysToVirt(phys)
	zeroPage(virt)
	return phys, virt, nil
}

// AllocPages hands out n zeroed, physically contiguous frames, the seam
// xhci.PageAllocator needs for ring segments larger than one page. Relies
// on FrameAllocator handing out monotonically increasing frames absent a
// reserved hole spanning the request (documented in DESIGN.md).
func (m *Manager) AllocPages(n int) (phys uintptr, virt uintptr, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return 0, 0, errNotReady
	}

	first, err := m.frames.Allocate()
	if err != nil {
		return 0, 0, err
	}
	want := uintptr(first) + PageSize
	for i := 1; i < n; i++ {
		f, err := m.frames.Allocate()
		if err != nil {
			return 0, 0, err
		}
		if uintptr(f) != want {
			return 0, 0, errNonContiguous
		}
		want += PageSize
	}

	phys = uintptr(first)
	virt = m.PhysToVirt(phys)
	for p := phys; p < phys+uintptr(n)*PageSize; p += PageSize {
		zeroPage(m.PhysToVirt(p))
	}
	return phys, virt, nil
}

// MapMMIO installs a no-cache, write-through mapping covering
// [phys, phys+size) at the canonical virtual location phys+offset.
// Idempotent: calling it twice for an overlapping region is a no-op once
// the first call's pages are installed.
func (m *Manager) MapMMIO(phys, size uintptr) (uintptr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return 0, errNotReady
	}

	base := alignDown(phys)
	end := alignUp(phys + size)
	if v, ok := m.mmio[base]; ok {
		return v + (phys - base), nil
	}

	flags := PTEFlags{Writable: true, NoCache: true, WriteThrough: true, NoExecute: true}
	for p := base; p < end; p += PageSize {
		v := m.PhysToVirt(p)
		if err := m.mapPage(v, p, flags); err != nil {
			return 0, err
		}
	}
	m.mmio[base] = m.PhysToVirt(base)
	return m.PhysToVirt(phys), nil
}

// AllocateUserPages reserves a contiguous virtual range of n pages at the
// user base, backs each page with a fresh frame, and maps it user|writable.
func (m *Manager) AllocateUserPages(n int) (uintptr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return 0, errNotReady
	}

	start := m.userNext
	flags := PTEFlags{Writable: true, User: true}
	for i := 0; i < n; i++ {
		f, err := m.frames.Allocate()
		if err != nil {
			return 0, err
		}
		virt := start + uintptr(i)*PageSize
		phys := uintptr(f)
		if err := m.mapPage(virt, phys, flags); err != nil {
			return 0, err
		}
		zeroPage(m.PhysToVirt(phys))
	}
	m.userNext = start + uintptr(n)*PageSize
	return start, nil
}

// MapUserFramebuffer maps the compositor's physical framebuffer region
// into the user address space, user|writable. Full write-combining needs a
// PAT entry this kernel never programs (spec.md is silent on PAT setup);
// NoCache is left clear so the mapping stays normal write-back, which is
// the closest behavior reachable without a PAT slot — noted in DESIGN.md.
func (m *Manager) MapUserFramebuffer(phys, size uintptr) (uintptr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return 0, errNotReady
	}

	base := alignDown(phys)
	end := alignUp(phys + size)
	flags := PTEFlags{Writable: true, User: true, NoExecute: true}
	for p, i := base, uintptr(0); p < end; p, i = p+PageSize, i+1 {
		virt := UserFramebufferBase + i*PageSize
		if err := m.mapPage(virt, p, flags); err != nil {
			return 0, err
		}
	}
	return UserFramebufferBase + (phys - base), nil
}

func alignDown(v uintptr) uintptr { return v &^ (PageSize - 1) }
func alignUp(v uintptr) uintptr   { return (v + PageSize - 1) &^ (PageSize - 1) }
