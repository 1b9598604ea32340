package memory

import "testing"

// TestFrameAllocatorSkipsReservedHole matches spec.md §8 scenario 1: given
// [Usable 0x100000..0x200000, Reserved 0x200000..0x300000, Usable
// 0x300000..0x400000], the first three allocations return 0x100000,
// 0x101000, 0x102000, and after 256 calls the allocator has skipped the
// reserved hole and returns 0x300000.
func TestFrameAllocatorSkipsReservedHole(t *testing.T) {
	regions := []Region{
		{Kind: Usable, Start: 0x100000, End: 0x200000},
		{Kind: Reserved, Start: 0x200000, End: 0x300000},
		{Kind: Usable, Start: 0x300000, End: 0x400000},
	}
	fa := NewFrameAllocator(regions)

	want := []Frame{0x100000, 0x101000, 0x102000}
	for i, w := range want {
		got, err := fa.Allocate()
		if err != nil {
			t.Fatalf("Allocate() #%d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Fatalf("Allocate() #%d = 0x%x, want 0x%x", i, got, w)
		}
	}

	for i := 3; i < 256; i++ {
		if _, err := fa.Allocate(); err != nil {
			t.Fatalf("Allocate() #%d: unexpected error: %v", i, err)
		}
	}

	got, err := fa.Allocate()
	if err != nil {
		t.Fatalf("Allocate() #256: unexpected error: %v", err)
	}
	if got != Frame(0x300000) {
		t.Fatalf("Allocate() #256 = 0x%x, want 0x300000 (reserved hole not skipped)", got)
	}
}

// TestFrameAllocatorNeverRepeats verifies spec.md §8 invariant 1: every
// frame handed out is contained in a Usable region and is returned at most
// once.
func TestFrameAllocatorNeverRepeats(t *testing.T) {
	regions := []Region{
		{Kind: Usable, Start: 0x0, End: 0x10000},
	}
	fa := NewFrameAllocator(regions)

	seen := make(map[Frame]bool)
	for i := 0; i < 16; i++ {
		f, err := fa.Allocate()
		if err != nil {
			t.Fatalf("Allocate() #%d: unexpected error: %v", i, err)
		}
		if seen[f] {
			t.Fatalf("frame 0x%x handed out twice", f)
		}
		seen[f] = true
		if !fa.Contains(f) {
			t.Fatalf("frame 0x%x not contained in any Usable region", f)
		}
	}

	if _, err := fa.Allocate(); err != ErrFramesExhausted {
		t.Fatalf("Allocate() after exhaustion = %v, want ErrFramesExhausted", err)
	}
}
