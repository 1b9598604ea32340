package kernel

import "github.com/nyxkernel/nyxkernel/timer"

// timerIRQBody runs on the kernel stack with interrupts disabled, called
// from the asm IRQ0 entry stub. The USB mouse has no interrupt endpoint
// wired up in this kernel, so its transfer ring is polled here, piggy-
// backed on the timer's 100Hz tick, rather than through a scheduled
// driver-helper task.
//
//go:nosplit
func timerIRQBody() {
	timer.HandleTick()
	if mouseCtrl != nil {
		mouseCtrl.PollMouse(mouseSlot)
	}
	sendEOI(false)
}
