package timer

import "time"

// TickRate is the PIT's programmed interrupt rate (spec.md §6: "100 Hz").
const TickRate = 100

// Instant is a tick-counter snapshot, letting callers compute elapsed
// wall-clock-equivalent durations without doing raw tick arithmetic
// inline — the supplemented feature this package adds from the original
// kernel's time.rs.
type Instant uint64

// Now captures the current tick count.
func Now() Instant {
	return Instant(Ticks())
}

// Since returns the duration elapsed from i to the current tick count. If
// the tick counter has somehow gone backwards (it never does in normal
// operation — HandleTick only increments), Since returns 0 rather than a
// negative duration.
func (i Instant) Since() time.Duration {
	now := Ticks()
	if uint64(i) > now {
		return 0
	}
	return ticksToDuration(now - uint64(i))
}

// Elapsed reports the duration between two Instants, earlier to later.
func Elapsed(earlier, later Instant) time.Duration {
	if earlier > later {
		return 0
	}
	return ticksToDuration(uint64(later - earlier))
}

func ticksToDuration(ticks uint64) time.Duration {
	return time.Duration(ticks) * (time.Second / TickRate)
}
