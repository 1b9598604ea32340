package timer

import (
	"testing"
	"time"
)

func TestElapsedComputesWholeSeconds(t *testing.T) {
	earlier := Instant(0)
	later := Instant(TickRate * 3)

	got := Elapsed(earlier, later)
	want := 3 * time.Second
	if got != want {
		t.Fatalf("Elapsed() = %v, want %v", got, want)
	}
}

func TestElapsedReversedOrderReturnsZero(t *testing.T) {
	if got := Elapsed(Instant(50), Instant(10)); got != 0 {
		t.Fatalf("Elapsed(later, earlier) = %v, want 0", got)
	}
}
