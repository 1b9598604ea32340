package memory

import "testing"

func TestAllocPageReturnsZeroedDistinctFrames(t *testing.T) {
	backing := make([]byte, 64*PageSize)
	for i := range backing {
		backing[i] = 0xAA
	}
	m := newTestManager(backing)

	phys1, virt1, err := m.AllocPage()
	if err != nil {
		t.Fatalf("AllocPage() #1: %v", err)
	}
	phys2, _, err := m.AllocPage()
	if err != nil {
		t.Fatalf("AllocPage() #2: %v", err)
	}
	if phys1 == phys2 {
		t.Fatal("AllocPage returned the same physical frame twice")
	}
	if virt1 != phys1+m.physOff {
		t.Fatalf("virt1 = 0x%x, want phys+physOff = 0x%x", virt1, phys1+m.physOff)
	}
	for i := 0; i < 16; i++ {
		if backing[phys1+uintptr(i)] != 0 {
			t.Fatalf("AllocPage did not zero frame 1 at offset %d", i)
		}
	}
}

func TestAllocPagesRequiresContiguity(t *testing.T) {
	backing := make([]byte, 8*PageSize)
	m := newTestManager(backing)

	phys, virt, err := m.AllocPages(4)
	if err != nil {
		t.Fatalf("AllocPages(4): %v", err)
	}
	if phys != 0 {
		t.Fatalf("phys = 0x%x, want 0 (first frame of a fresh allocator)", phys)
	}
	if virt != m.physOff {
		t.Fatalf("virt = 0x%x, want physOff 0x%x", virt, m.physOff)
	}

	// Next AllocPage must continue right after the 4-page run.
	nextPhys, _, err := m.AllocPage()
	if err != nil {
		t.Fatalf("AllocPage() after AllocPages(4): %v", err)
	}
	if nextPhys != 4*PageSize {
		t.Fatalf("nextPhys = 0x%x, want 0x%x", nextPhys, 4*PageSize)
	}
}

func TestAllocPagesExhaustionReturnsError(t *testing.T) {
	backing := make([]byte, 2*PageSize)
	m := newTestManager(backing)

	if _, _, err := m.AllocPages(4); err != ErrFramesExhausted {
		t.Fatalf("AllocPages(4) over 2 pages: err = %v, want ErrFramesExhausted", err)
	}
}
