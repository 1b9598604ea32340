package timer

import "testing"

func TestTicksMonotonicNonDecreasing(t *testing.T) {
	before := Ticks()
	HandleTick()
	HandleTick()
	after := Ticks()
	if after < before {
		t.Fatalf("ticks went backward: before=%d after=%d", before, after)
	}
	if after != before+2 {
		t.Fatalf("ticks = %d, want %d", after, before+2)
	}
}
