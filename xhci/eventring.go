package xhci

import "github.com/nyxkernel/nyxkernel/hwio"

// eventRingCapacity is the single-segment event ring's size; spec.md §4.4
// step 5 describes a one-segment ERST ("a one-entry ERST descriptor").
const eventRingCapacity = 256

// eventRing is the consumer-owned counterpart to Ring: spec.md §4.4
// "For the event ring, the consumer (this driver) owns the cycle
// variable and flips it on wrap."
type eventRing struct {
	base  uintptr
	phys  uintptr
	index int
	cycle bool
}

func newEventRing(virt, phys uintptr) *eventRing {
	return &eventRing{base: virt, phys: phys, cycle: true}
}

func (e *eventRing) slotAddr(i int) uintptr { return e.base + uintptr(i)*TRBSize }

// rawEvent is one decoded event-ring entry.
type rawEvent struct {
	Parameter uint64
	Status    uint32
	TRBType   uint32
	Cycle     bool

	// SlotID is the Control dword's bits 24-31 (xHCI 1.2 Table 6.92): the
	// enabled slot id on an Enable Slot Command Completion Event. It
	// shares no bits with Status's Completion Code field (Status bits
	// 24-31), a different dword entirely.
	SlotID uint32
}

// peek reads the TRB at the current consumer index without advancing,
// reporting whether its cycle bit matches the consumer's expected value
// (i.e. whether it is ready to accept).
func (e *eventRing) peek() (rawEvent, bool) {
	addr := e.slotAddr(e.index)
	hwio.FlushLine(addr)
	hwio.Fence()
	ctrl := hwio.Read32(addr + 12)
	cycle := ctrl&(1<<trbBitCycle) != 0
	if cycle != e.cycle {
		return rawEvent{}, false
	}
	ev := rawEvent{
		Parameter: hwio.Read64(addr),
		Status:    hwio.Read32(addr + 8),
		TRBType:   (ctrl >> trbTypeShift) & trbTypeMask,
		Cycle:     cycle,
		SlotID:    ctrl >> 24,
	}
	return ev, true
}

// advance moves the consumer index forward by one slot, wrapping and
// flipping the expected cycle at the end of the single segment.
func (e *eventRing) advance() {
	e.index++
	if e.index == eventRingCapacity {
		e.index = 0
		e.cycle = !e.cycle
	}
}

// dequeuePointer is the physical address of the next slot the consumer
// will read, for ERDP programming.
func (e *eventRing) dequeuePointer() uintptr {
	return e.phys + uintptr(e.index)*TRBSize
}
