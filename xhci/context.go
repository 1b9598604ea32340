package xhci

import (
	"github.com/nyxkernel/nyxkernel/hwio"
	"github.com/nyxkernel/nyxkernel/internal/bitfield"
)

// Context sizes and layout (xHCI 1.2 §6.2, 32-byte contexts: this driver
// never sets CSZ, so every context below is the default 32-byte form).
const (
	contextSize = 32

	// Input Context = one Input Control Context slot followed by the
	// Slot Context and up to 31 Endpoint Contexts, all 32 bytes wide.
	inputContextSlots = 1 + 1 + 31
	inputContextSize  = inputContextSlots * contextSize

	slotContextIndex = 0  // within a device (output) context
	ep0ContextIndex  = 1
	ep1InContextIndex = 3 // "Device-Context-Index 3 for IN endpoints"
)

const (
	epTypeInterruptIn = 7
)

const (
	slotStateContextEntriesLo = 27 // dword0 bits 27-31: context entries
	slotStateRootPortLo       = 16 // dword1 bits 16-23: root hub port number
)

// writeInputControlContext sets the Add-Context-Flags bit for ctxIndex
// (and, implicitly, the Slot context per xHCI's rule that any add also
// marks the slot context for update) in the Input Control Context at the
// base of virt.
func writeInputControlContext(virt uintptr, ctxIndex uint) {
	addFlags := bitfield.Word32(0).WithBit(0, true).WithBit(ctxIndex, true)
	hwio.Write32(virt+4, uint32(addFlags)) // dword1: Add-Context-Flags
	hwio.Fence()
	hwio.FlushLine(virt)
}

// slotContextOffset/epContextOffset locate a device-context-index's
// 32-byte block within an Input or Device Context. Input Contexts are
// offset by one extra slot (the Input Control Context).
func slotContextOffset(isInput bool) uintptr {
	if isInput {
		return contextSize
	}
	return 0
}

func epContextOffset(index uint, isInput bool) uintptr {
	base := uintptr(0)
	if isInput {
		base = contextSize
	}
	return base + uintptr(1+index)*contextSize
}

// writeSlotContext fills dword0 (context entries, route string of 0 —
// this driver only supports directly-attached root-port devices) and
// dword1 (root hub port number), per spec.md §4.4's ADDRESS_DEVICE step.
func writeSlotContext(virt uintptr, rootPort int, contextEntries uint32) {
	dword0 := bitfield.Word32(0).WithBits(slotStateContextEntriesLo, 31, contextEntries)
	dword1 := bitfield.Word32(0).WithBits(slotStateRootPortLo, 23, uint32(rootPort))
	hwio.Write32(virt, uint32(dword0))
	hwio.Write32(virt+4, uint32(dword1))
	hwio.Fence()
	hwio.FlushLine(virt)
}

// writeEP0Context programs the default control endpoint: EP type is
// "Control" (4), error count 3, max packet per speed.
func writeEP0Context(virt uintptr, maxPacket uint16, trDequeue uintptr, dcs bool) {
	const epTypeControl = 4
	dword1 := bitfield.Word32(0).
		WithBits(1, 2, 3).                 // CErr = 3
		WithBits(3, 5, epTypeControl).
		WithBits(16, 31, uint32(maxPacket))
	hwio.Write32(virt+4, uint32(dword1))

	deq := uint64(trDequeue)
	if dcs {
		deq |= 1
	}
	hwio.Write64(virt+8, deq)
	hwio.Fence()
	hwio.FlushLine(virt)
}

// writeEP1InContext programs the interrupt-IN endpoint per spec.md
// §4.4's CONFIGURE_ENDPOINT step: type 7, max-packet 8, an interval, and
// the freshly allocated EP1 ring with DCS=1.
func writeEP1InContext(virt uintptr, interval uint8, maxPacket uint16, trDequeue uintptr, dcs bool) {
	dword0 := bitfield.Word32(0).WithBits(16, 23, uint32(interval))
	hwio.Write32(virt, uint32(dword0))

	dword1 := bitfield.Word32(0).
		WithBits(1, 2, 3). // CErr = 3
		WithBits(3, 5, epTypeInterruptIn).
		WithBits(16, 31, uint32(maxPacket))
	hwio.Write32(virt+4, uint32(dword1))

	deq := uint64(trDequeue)
	if dcs {
		deq |= 1
	}
	hwio.Write64(virt+8, deq)
	hwio.Fence()
	hwio.FlushLine(virt)
}

// defaultMaxPacket returns EP0's default max-packet size for speed, per
// spec.md §4.4: "pick a speed-dependent default max-packet (LS=8, HS=64,
// SS=512)".
func defaultMaxPacket(speed uint32) uint16 {
	switch speed {
	case speedLow:
		return 8
	case speedHigh:
		return 64
	case speedSuper:
		return 512
	default:
		return 8
	}
}

// Port speed values, as reported in PORTSC bits 10-13 (xHCI 1.2 Table
// 5-27, USB2/3 values this driver distinguishes between).
const (
	speedLow   = 2
	speedHigh  = 3
	speedSuper = 4
)
