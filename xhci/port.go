package xhci

import (
	"unsafe"

	"github.com/nyxkernel/nyxkernel/hwio"
)

// EnumeratePorts walks every root-hub port implementing spec.md §4.4's
// "Port enumeration" sequence, returning the slots it successfully
// configured. A port that fails is left out of the result and does not
// abort the scan of the remaining ports.
func (c *Controller) EnumeratePorts() []*Slot {
	var slots []*Slot
	for p := 0; p < int(c.maxPorts); p++ {
		slot, ok := c.enumeratePort(p)
		if ok {
			slots = append(slots, slot)
		}
	}
	return slots
}

func (c *Controller) portscAddr(port int) uintptr { return c.regs.portBase(port) }

func (c *Controller) enumeratePort(port int) (*Slot, bool) {
	addr := c.portscAddr(port)
	portsc := hwio.Read32(addr)

	if portsc&(1<<portscBitCCS) == 0 {
		return nil, false // nothing connected
	}

	// Acknowledge change bits (write-1-to-clear).
	ack := uint32(1<<portscBitCSC | 1<<portscBitPRC | 1<<portscBitPLC)
	hwio.Write32(addr, (portsc&^0xF)|ack) // preserve PED/PR, clear-on-write the rest

	if portsc&(1<<portscBitPED) == 0 {
		hwio.Write32(addr, portsc|1<<portscBitPR)
		ok := false
		for i := 0; i < spinBound; i++ {
			v := hwio.Read32(addr)
			if v&(1<<portscBitPRC) != 0 && v&(1<<portscBitPED) != 0 {
				ok = true
				break
			}
		}
		if !ok {
			return nil, false
		}
	}

	speed := (hwio.Read32(addr) >> portscBitSpeed) & 0xF

	slotID, err := c.enableSlot()
	if err != nil {
		return nil, false
	}

	slot := &Slot{ID: slotID, Port: port, Speed: speed}
	c.slots[slotID] = slot

	if err := c.addressDevice(slot, true, defaultMaxPacket(speed)); err != nil {
		return nil, false
	}

	realMaxPacket, err := c.fetchEP0MaxPacket(slot)
	if err != nil {
		realMaxPacket = defaultMaxPacket(speed)
	}
	if realMaxPacket != defaultMaxPacket(speed) {
		if err := c.addressDevice(slot, false, realMaxPacket); err != nil {
			return nil, false
		}
	}

	if err := c.fetchFullDeviceDescriptor(slot); err != nil {
		return nil, false
	}
	if err := c.setConfiguration(slot, 1); err != nil {
		return nil, false
	}
	if err := c.setBootProtocol(slot); err != nil {
		return nil, false
	}
	if err := c.configureInterruptEndpoint(slot); err != nil {
		return nil, false
	}

	return slot, true
}

// enableSlot issues ENABLE_SLOT and returns the slot id the Command
// Completion Event reports (spec.md §4.4 "parse the resulting Command
// Completion Event to learn the assigned slot id").
func (c *Controller) enableSlot() (int, error) {
	c.cmdRing.Push(TRB{TRBType: trbTypeEnableSlot})
	c.ringDoorbell(0)
	ev, err := c.waitCommandCompletion()
	if err != nil {
		return 0, err
	}
	return int(ev.SlotID), nil
}

// addressDevice issues ADDRESS_DEVICE per spec.md §4.4, optionally with
// BSR (block-set-address) set for the probe-only first pass.
func (c *Controller) addressDevice(slot *Slot, bsr bool, maxPacket uint16) error {
	inputPhys, inputVirt, err := c.pages.AllocPages(1)
	if err != nil {
		return err
	}
	devPhys, _, err := c.pages.AllocPage()
	if err != nil {
		return err
	}
	slot.inputContextPhys, slot.inputContextVirt = inputPhys, inputVirt
	slot.deviceContextPhys = devPhys

	writeInputControlContext(inputVirt, ep0ContextIndex)
	writeSlotContext(inputVirt+slotContextOffset(true), slot.Port, 2) // slot + EP0

	if slot.ep0Ring == nil {
		ringPhys, ringVirt, err := c.pages.AllocPages(1)
		if err != nil {
			return err
		}
		slot.ep0Ring = NewRing(ringVirt, ringPhys)
	}
	writeEP0Context(inputVirt+epContextOffset(ep0ContextIndex-1, true), maxPacket, slot.ep0Ring.Phys(), slot.ep0Ring.Cycle())

	hwio.Write64(c.dcbaaVirt+uintptr(slot.ID)*8, uint64(devPhys))
	hwio.Fence()
	hwio.FlushLine(c.dcbaaVirt + uintptr(slot.ID)*8)

	trb := TRB{Parameter: uint64(inputPhys), TRBType: trbTypeAddressDevice}
	if bsr {
		trb.ExtraControl = 1 << 9 // BSR: Control dword bit 9 of the Address Device TRB
	}
	c.cmdRing.Push(trb)
	c.ringDoorbell(0)
	_, err = c.waitCommandCompletion()
	return err
}

// fetchEP0MaxPacket performs the short 8-byte GET_DESCRIPTOR read spec.md
// §4.4 calls for to discover the real EP0 max-packet size.
func (c *Controller) fetchEP0MaxPacket(slot *Slot) (uint16, error) {
	buf := make([]byte, 8)
	if err := c.controlTransferIn(slot, requestGetDescriptor, descriptorTypeDevice<<8, 8, buf); err != nil {
		return 0, err
	}
	return uint16(buf[7]), nil
}

// fetchFullDeviceDescriptor performs the 18-byte GET_DEVICE_DESCRIPTOR
// read; this driver only needs it to have been fetched (boot-protocol
// mice need no fields from it beyond what enumeration already used).
func (c *Controller) fetchFullDeviceDescriptor(slot *Slot) error {
	buf := make([]byte, 18)
	return c.controlTransferIn(slot, requestGetDescriptor, descriptorTypeDevice<<8, 18, buf)
}

func (c *Controller) setConfiguration(slot *Slot, value uint8) error {
	return c.controlTransferNoData(slot, bmRequestTypeStandardOut, requestSetConfiguration, uint16(value))
}

func (c *Controller) setBootProtocol(slot *Slot) error {
	if err := c.controlTransferNoData(slot, bmRequestTypeClassInterfaceOut, requestSetIdle, 0); err != nil {
		return err
	}
	return c.controlTransferNoData(slot, bmRequestTypeClassInterfaceOut, requestSetProtocol, protocolBoot)
}

// configureInterruptEndpoint builds the Input Context CONFIGURE_ENDPOINT
// needs (spec.md §4.4's final enumeration step) and issues it.
func (c *Controller) configureInterruptEndpoint(slot *Slot) error {
	ringPhys, ringVirt, err := c.pages.AllocPages(1)
	if err != nil {
		return err
	}
	slot.ep1Ring = NewRing(ringVirt, ringPhys)

	writeInputControlContext(slot.inputContextVirt, ep1InContextIndex)
	writeSlotContext(slot.inputContextVirt+slotContextOffset(true), slot.Port, ep1InContextIndex+1)
	writeEP1InContext(
		slot.inputContextVirt+epContextOffset(ep1InContextIndex-1, true),
		defaultInterruptInterval,
		8, // max-packet for a boot-protocol mouse report
		slot.ep1Ring.Phys(),
		slot.ep1Ring.Cycle(),
	)

	c.cmdRing.Push(TRB{Parameter: uint64(slot.inputContextPhys), Status: uint32(slot.ID) << 24, TRBType: trbTypeConfigureEP})
	c.ringDoorbell(0)
	if _, err := c.waitCommandCompletion(); err != nil {
		return err
	}
	slot.ep1Configured = true
	return nil
}

const defaultInterruptInterval = 7 // 125us x 2^7 = 16ms; fits any boot mouse

// USB control-request constants this driver issues (USB 2.0 §9.4).
const (
	requestGetDescriptor    = 6
	requestSetConfiguration = 9
	requestSetIdle          = 0x0A // HID class request, wValue=(duration<<8|reportID)
	requestSetProtocol      = 0x0B // HID class request
	descriptorTypeDevice    = 1
	protocolBoot            = 0

	// bmRequestType values this driver's fixed request set needs (USB 2.0
	// §9.3 Table 9-2): direction in bit 7, type in bits 5-6, recipient in
	// bits 0-4.
	bmRequestTypeStandardIn        = 0x80 // device-to-host, standard, device
	bmRequestTypeStandardOut       = 0x00 // host-to-device, standard, device
	bmRequestTypeClassInterfaceOut = 0x21 // host-to-device, class, interface
)

// xHCI Setup/Data/Status Stage TRB control-dword bits this driver needs
// (xHCI 1.2 §6.4.1.2-.4), pre-shifted for TRB.ExtraControl.
const (
	ctrlBitIDT   = 1 << 6   // Setup Stage: Parameter holds the 8 setup bytes directly
	ctrlTRTShift = 16       // Setup Stage: Transfer Type
	ctrlTRTNone  = 0 << ctrlTRTShift
	ctrlTRTOut   = 2 << ctrlTRTShift
	ctrlTRTIn    = 3 << ctrlTRTShift
	ctrlDirIn    = 1 << 16 // Data/Status Stage: device-to-host
)

// pushSetupStage publishes the 8-byte SETUP packet (USB 2.0 §9.3) as a
// Setup Stage TRB; trt says whether a Data Stage TRB follows and in which
// direction, matching what the caller pushes next.
func (c *Controller) pushSetupStage(slot *Slot, bmRequestType, request uint8, value, index, length uint16, trt uint32) {
	setup := uint64(bmRequestType) | uint64(request)<<8 | uint64(value)<<16 | uint64(index)<<32 | uint64(length)<<48
	slot.ep0Ring.Push(TRB{
		Parameter:    setup,
		Status:       8,
		TRBType:      trbTypeSetupStage,
		ExtraControl: ctrlBitIDT | trt,
	})
}

// controlTransferIn and controlTransferNoData are simplified EP0 control
// transfers built from the standard Setup/Data/Status Stage TRB triple on
// the slot's EP0 ring; this driver only ever issues the fixed handful of
// requests spec.md names, so no general-purpose USB control pipe (OUT
// data stages, multi-packet transfers) is implemented.
func (c *Controller) controlTransferIn(slot *Slot, request uint8, value uint16, length uint16, buf []byte) error {
	c.pushSetupStage(slot, bmRequestTypeStandardIn, request, value, 0, length, ctrlTRTIn)
	slot.ep0Ring.Push(TRB{
		Parameter:    uint64(c.ctrlBufPhys),
		Status:       uint32(length),
		TRBType:      trbTypeDataStage,
		ExtraControl: ctrlDirIn,
	})
	slot.ep0Ring.Push(TRB{
		TRBType: trbTypeStatusStage,
		IOC:     true,
		// DIR left 0 (host-to-device): the status stage always runs
		// opposite the data stage, which was device-to-host above.
	})
	c.ringDoorbell(slot.ID)
	if _, err := c.waitTransferCompletion(slot); err != nil {
		return err
	}
	copy(buf, unsafe.Slice((*byte)(unsafe.Pointer(c.ctrlBufVirt)), len(buf)))
	return nil
}

func (c *Controller) controlTransferNoData(slot *Slot, bmRequestType, request uint8, value uint16) error {
	c.pushSetupStage(slot, bmRequestType, request, value, 0, 0, ctrlTRTNone)
	slot.ep0Ring.Push(TRB{
		TRBType:      trbTypeStatusStage,
		ExtraControl: ctrlDirIn, // no data stage: status runs device-to-host
		IOC:          true,
	})
	c.ringDoorbell(slot.ID)
	_, err := c.waitTransferCompletion(slot)
	return err
}

func (c *Controller) waitTransferCompletion(slot *Slot) (rawEvent, error) {
	for i := 0; i < spinBound; i++ {
		ev, ok := c.evtRing.peek()
		if !ok {
			continue
		}
		c.evtRing.advance()
		c.ackEventRing()
		if ev.TRBType == trbTypeTransferEvent {
			code := (ev.Status >> 24) & 0xFF
			if code != 1 && code != 13 { // Success or Short Packet
				return ev, errCommandFailed
			}
			return ev, nil
		}
	}
	return rawEvent{}, ErrTimeout
}
