package memory

import "testing"

// newTestManagerWithPageTables extends newTestManager with a real,
// zeroed PML4 page pulled from the same backing array, so mapPage/
// translate (MapMMIO, AllocateUserPages, VirtToPhys) have somewhere to
// walk rather than just the frame allocator AllocPage/AllocPages exercise.
func newTestManagerWithPageTables(backing []byte) *Manager {
	m := newTestManager(backing)
	pml4, err := m.frames.Allocate()
	if err != nil {
		panic(err)
	}
	m.pml4Base = uintptr(pml4)
	return m
}

// TestMapMMIORoundTrip covers spec.md §8 invariant 2: a phys address
// mapped through MapMMIO must translate back to itself through VirtToPhys,
// and the virtual address MapMMIO returns must itself be PhysToVirt(phys).
func TestMapMMIORoundTrip(t *testing.T) {
	backing := make([]byte, 4096*PageSize)
	m := newTestManagerWithPageTables(backing)

	const mmioPhys = 0x300000
	virt, err := m.MapMMIO(mmioPhys, PageSize)
	if err != nil {
		t.Fatalf("MapMMIO: %v", err)
	}
	if virt != m.PhysToVirt(mmioPhys) {
		t.Fatalf("MapMMIO returned %#x, want PhysToVirt(phys) = %#x", virt, m.PhysToVirt(mmioPhys))
	}

	got, err := m.VirtToPhys(virt)
	if err != nil {
		t.Fatalf("VirtToPhys(%#x): %v", virt, err)
	}
	if got != mmioPhys {
		t.Fatalf("VirtToPhys(MapMMIO(phys)) = %#x, want %#x", got, mmioPhys)
	}
}

// TestMapMMIOIsIdempotent covers MapMMIO's documented idempotency: mapping
// an overlapping region twice returns the same virtual address both times
// rather than installing a second, conflicting mapping.
func TestMapMMIOIsIdempotent(t *testing.T) {
	backing := make([]byte, 4096*PageSize)
	m := newTestManagerWithPageTables(backing)

	const mmioPhys = 0x2000
	v1, err := m.MapMMIO(mmioPhys, PageSize)
	if err != nil {
		t.Fatalf("MapMMIO #1: %v", err)
	}
	v2, err := m.MapMMIO(mmioPhys, PageSize)
	if err != nil {
		t.Fatalf("MapMMIO #2: %v", err)
	}
	if v1 != v2 {
		t.Fatalf("MapMMIO not idempotent: %#x != %#x", v1, v2)
	}
}

// TestVirtToPhysRoundTripsUserPage covers spec.md §8 invariant 7: for any
// currently-mapped virtual address, VirtToPhys recovers the physical frame
// the page table walker actually installed, independent of the MMIO path.
func TestVirtToPhysRoundTripsUserPage(t *testing.T) {
	backing := make([]byte, 4096*PageSize)
	m := newTestManagerWithPageTables(backing)

	virt, err := m.AllocateUserPages(1)
	if err != nil {
		t.Fatalf("AllocateUserPages: %v", err)
	}

	phys, err := m.VirtToPhys(virt)
	if err != nil {
		t.Fatalf("VirtToPhys(%#x): %v", virt, err)
	}
	if phys == 0 {
		t.Fatal("VirtToPhys returned 0 for a mapped user page")
	}
	if again, err := m.VirtToPhys(virt); err != nil || again != phys {
		t.Fatalf("VirtToPhys not stable across calls: %#x (err=%v), want %#x", again, err, phys)
	}
}

// TestVirtToPhysRejectsUnmappedAddress covers the negative case translate
// guards: an address nothing has mapped must fail rather than silently
// returning a bogus physical address.
func TestVirtToPhysRejectsUnmappedAddress(t *testing.T) {
	backing := make([]byte, 4096*PageSize)
	m := newTestManagerWithPageTables(backing)

	if _, err := m.VirtToPhys(0x7FFFFFFF0000); err == nil {
		t.Fatal("VirtToPhys succeeded for an address nothing ever mapped")
	}
}
