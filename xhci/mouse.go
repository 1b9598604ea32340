package xhci

import "github.com/nyxkernel/nyxkernel/hwio"

// maxEventsPerPoll bounds each timer-driven drain, per spec.md §4.4
// "Drain up to 32 event TRBs".
const maxEventsPerPoll = 32

// completionCodeSuccess and completionCodeShortPacket are the two
// Transfer Event codes that carry real mouse-report bytes (spec.md §4.4
// "on success (completion code 1) or short-packet (code 13)").
const (
	completionCodeSuccess     = 1
	completionCodeShortPacket = 13
)

// PollMouse implements spec.md §4.4's "Runtime polling (poll_mouse(slot)
// called from the timer)": drain pending event TRBs, update per-slot
// transfer state from Transfer Events, and if the endpoint is idle,
// queue another interrupt-IN Normal TRB.
//
// The controller shares one mouse DMA buffer across every configured
// slot (spec.md §9's documented limitation: "for multiple simultaneous
// mice the latest completion overwrites earlier data").
func (c *Controller) PollMouse(slotID int) {
	slot := c.slots[slotID]
	if slot == nil {
		return
	}

	for i := 0; i < maxEventsPerPoll; i++ {
		ev, ok := c.evtRing.peek()
		if !ok {
			break
		}
		c.evtRing.advance()
		c.ackEventRing()
		c.dispatchEvent(ev)
	}

	if slot.ep1Configured && !slot.transferPending {
		slot.ep1Ring.Push(TRB{
			Parameter: uint64(c.mouseBufPhys),
			Status:    8, // transfer length: 3 report bytes rounded to the 8-byte max-packet
			TRBType:   trbTypeNormal,
			IOC:       true,
		})
		c.ringDoorbell(slot.ID)
		slot.transferPending = true
	}
}

func (c *Controller) dispatchEvent(ev rawEvent) {
	switch ev.TRBType {
	case trbTypeTransferEvent, trbTypeCmdCompletion:
		slot := c.slots[ev.SlotID]
		if slot == nil {
			return
		}
		code := (ev.Status >> 24) & 0xFF
		slot.transferPending = false
		if code == completionCodeSuccess || code == completionCodeShortPacket {
			c.decodeMouseReport(slot)
		}
	}
}

// decodeMouseReport reads the shared 3-byte boot-protocol mouse report
// (button bitmap, relative X, relative Y — USB HID §B.2) and accumulates
// it into the slot's absolute-ish running position, matching the
// original nyx-kernel mouse.rs semantics this behavior is grounded on.
func (c *Controller) decodeMouseReport(slot *Slot) {
	buttons := hwio.Read8(c.mouseBufVirt)
	dx := int8(hwio.Read8(c.mouseBufVirt + 1))
	dy := int8(hwio.Read8(c.mouseBufVirt + 2))

	slot.mouseButtons = buttons
	slot.mouseX += int32(dx)
	slot.mouseY += int32(dy)
}

// MousePacket is the decoded state get_mouse (syscall 3) packs into its
// return word.
type MousePacket struct {
	Left, Right bool
	X, Y        uint32
}

// Mouse returns the latest decoded report for slotID, or the zero value
// if the slot is unknown.
func (c *Controller) Mouse(slotID int) MousePacket {
	slot := c.slots[slotID]
	if slot == nil {
		return MousePacket{}
	}
	const (
		buttonLeft  = 1 << 0
		buttonRight = 1 << 1
	)
	return MousePacket{
		Left:  slot.mouseButtons&buttonLeft != 0,
		Right: slot.mouseButtons&buttonRight != 0,
		X:     uint32(slot.mouseX),
		Y:     uint32(slot.mouseY),
	}
}

// Pack encodes a MousePacket into syscall 3's return word:
// {left<<63 | right<<62 | x<<32 | y} (spec.md §4.3 dispatch table).
func (m MousePacket) Pack() uint64 {
	var w uint64
	if m.Left {
		w |= 1 << 63
	}
	if m.Right {
		w |= 1 << 62
	}
	w |= uint64(m.X) << 32
	w |= uint64(m.Y)
	return w
}
