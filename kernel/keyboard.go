package kernel

import (
	"sync/atomic"

	"github.com/nyxkernel/nyxkernel/hwio"
)

// The PS/2 keyboard's scancode-to-character translation and typematic
// handling is the "PS/2 keyboard/mouse legacy path" spec.md §1 names as an
// external collaborator. What the kernel itself owns is narrower: a
// single-producer (the IRQ1 handler below), single-consumer (syscall 2)
// ring of raw bytes read off the controller's data port, satisfying
// dispatch table entry 2's "non-blocking pop from keyboard ring" contract
// without attempting scancode-set translation.
const (
	ps2DataPort   = 0x60
	keyRingSize   = 64
)

var keyRing struct {
	buf   [keyRingSize]byte
	head  uint32 // next slot the ISR writes
	tail  uint32 // next slot readKey pops
	count int32  // atomic: bytes currently queued
}

// keyboardIRQBody runs on the kernel stack with interrupts disabled,
// called from the asm IRQ1 entry stub; it must never allocate or block
// (spec.md §9).
//
//go:nosplit
func keyboardIRQBody() {
	b := hwio.Inb(ps2DataPort)
	if atomic.LoadInt32(&keyRing.count) < keyRingSize {
		keyRing.buf[keyRing.head] = b
		keyRing.head = (keyRing.head + 1) % keyRingSize
		atomic.AddInt32(&keyRing.count, 1)
	}
	sendEOI(false)
}

// readKey implements dispatch table entry 2: pop the oldest queued byte,
// or 0 if the ring is empty.
func readKey() uint64 {
	if atomic.LoadInt32(&keyRing.count) == 0 {
		return 0
	}
	b := keyRing.buf[keyRing.tail]
	keyRing.tail = (keyRing.tail + 1) % keyRingSize
	atomic.AddInt32(&keyRing.count, -1)
	return uint64(b)
}
