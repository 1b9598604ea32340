package kmsg

import "testing"

func TestAppendRingWrapsAndCountsTotal(t *testing.T) {
	ring.write = 0
	ring.total = 0

	for i := 0; i < ringSize+5; i++ {
		appendRing(byte('a' + i%26))
	}

	if ring.total != uint64(ringSize+5) {
		t.Fatalf("total = %d, want %d", ring.total, ringSize+5)
	}
	if ring.write != 5 {
		t.Fatalf("write cursor = %d, want 5 after wrapping", ring.write)
	}
}

func TestSnapshotReturnsRequestedLength(t *testing.T) {
	ring.write = 0
	ring.total = 0
	for i := 0; i < 100; i++ {
		appendRing(byte(i))
	}

	dst := make([]byte, 50)
	n, total := Snapshot(dst)
	if n != 50 {
		t.Fatalf("n = %d, want 50", n)
	}
	if total != 100 {
		t.Fatalf("total = %d, want 100", total)
	}
}
