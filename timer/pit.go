// Package timer programs the legacy 8253/8254 Programmable Interval Timer
// and exposes the monotonic tick counter syscall 8 reads (spec.md §6
// "Timer", §4.3 dispatch #8).
package timer

import (
	"sync/atomic"

	"github.com/nyxkernel/nyxkernel/hwio"
)

const (
	channel0Data   = 0x40
	modeCommand    = 0x43
	divisor        = 11932 // 1193182 Hz / 11932 ~= 100 Hz, per spec.md §6
	mode3SquareWave = 0x36  // channel 0, lobyte/hibyte, mode 3, binary
)

// ticks is advanced only from the timer interrupt handler (single writer);
// syscalls and the scheduler read it with Ticks.
var ticks uint64

// Init programs PIT channel 0 for the ~100 Hz rate spec.md §6 specifies.
// Must run before interrupts are enabled and the IDT's timer vector is
// live, matching the teacher's boot-ordering idiom of "program device,
// then arm its IDT/GIC entry".
func Init() {
	hwio.Outb(modeCommand, mode3SquareWave)
	hwio.Outb(channel0Data, byte(divisor&0xFF))
	hwio.Outb(channel0Data, byte(divisor>>8))
}

// HandleTick is called from the timer interrupt vector; it advances the
// tick counter and must return quickly (spec.md §9 "interrupt handlers
// must never allocate, never block").
//
//go:nosplit
func HandleTick() {
	atomic.AddUint64(&ticks, 1)
}

// Ticks returns the current monotonic tick count (spec.md §4.3 syscall 8:
// "strictly monotonically non-decreasing value across repeated calls").
func Ticks() uint64 {
	return atomic.LoadUint64(&ticks)
}
