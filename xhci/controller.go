package xhci

import (
	"errors"

	"github.com/nyxkernel/nyxkernel/hwio"
)

const spinBound = 5_000_000

var (
	// ErrTimeout mirrors spec.md §7's "Hardware timeout" variant.
	ErrTimeout = errors.New("xhci: operation timed out")
	// errCommandFailed is returned for a completion whose code is not
	// Success (spec.md §7 "Hardware error completion"); the completion
	// code itself is not carried in the error.
	errCommandFailed = errors.New("xhci: command completed with non-success completion code")
)

// PageAllocator supplies zeroed, physically-contiguous page runs, the
// same bump-allocator seam nvme.PageAllocator and ahci.PageAllocator use.
// Multi-page allocation relies on the underlying frame allocator handing
// out monotonically increasing frames (true of this kernel's
// memory.FrameAllocator absent a reserved hole spanning the request,
// exactly as the teacher's bump allocPhysFrame does for ARM64).
type PageAllocator interface {
	AllocPage() (phys uintptr, virt uintptr, err error)
	AllocPages(n int) (phys uintptr, virt uintptr, err error)
}

// Slot is one enabled device slot's driver-side state (spec.md §3 "xHCI
// slot state"): {slot id, port id, speed, EP0 ring, EP0 cycle/index, EP1
// ring, EP1 cycle/index, EP1 configured, transfer-pending flag}.
type Slot struct {
	ID    int
	Port  int
	Speed uint32

	ep0Ring *Ring
	ep1Ring *Ring

	ep1Configured   bool
	transferPending bool

	deviceContextPhys uintptr
	inputContextVirt  uintptr
	inputContextPhys  uintptr

	mouseButtons uint8
	mouseX, mouseY int32
}

// Controller is one initialized xHCI host controller.
type Controller struct {
	regs  regs
	pages PageAllocator

	maxSlots uint32
	maxPorts uint32

	cmdRing *Ring
	evtRing *eventRing

	dcbaaVirt uintptr
	dcbaaPhys uintptr

	erstVirt uintptr
	erstPhys uintptr

	scratchpadArrayPhys uintptr

	mouseBufVirt uintptr
	mouseBufPhys uintptr

	// ctrlBufVirt/ctrlBufPhys is the shared scratch page every EP0 control
	// transfer's Data Stage TRB points at; the driver copies out of it into
	// the caller's buf once the transfer completes, the same DMA-scratch-
	// then-copy idiom nvme.ReadBlock uses.
	ctrlBufVirt uintptr
	ctrlBufPhys uintptr

	slots [256]*Slot // index 0 reserved, per spec.md
}

// Init performs spec.md §4.4's eight-step initialization sequence,
// fail-closed at each step.
func (c *Controller) Init(bar0 uintptr, pages PageAllocator) error {
	c.regs = newRegs(bar0)
	c.pages = pages

	if err := c.biosHandoff(); err != nil {
		return err
	}
	if err := c.hostControllerReset(); err != nil {
		return err
	}

	capHCS1 := hwio.Read32(c.regs.bar0 + capHCSPARAMS1)
	c.maxSlots = hcsparams1MaxSlots(capHCS1)
	c.maxPorts = hcsparams1MaxPorts(capHCS1)

	if err := c.setupScratchpad(); err != nil {
		return err
	}
	if err := c.setupCommandRing(); err != nil {
		return err
	}
	if err := c.setupEventRing(); err != nil {
		return err
	}
	if err := c.setupDCBAAP(); err != nil {
		return err
	}
	if err := c.run(); err != nil {
		return err
	}
	if err := c.noOpProbe(); err != nil {
		return err
	}

	mouseBufPhys, mouseBufVirt, err := pages.AllocPage()
	if err != nil {
		return err
	}
	c.mouseBufPhys, c.mouseBufVirt = mouseBufPhys, mouseBufVirt

	ctrlBufPhys, ctrlBufVirt, err := pages.AllocPage()
	if err != nil {
		return err
	}
	c.ctrlBufPhys, c.ctrlBufVirt = ctrlBufPhys, ctrlBufVirt

	return nil
}

// biosHandoff implements spec.md §4.4 step 1: walk the extended
// capability list, and for the Legacy Support capability, request OS
// ownership and spin for the BIOS-owned bit to clear.
func (c *Controller) biosHandoff() error {
	hccp1 := hwio.Read32(c.regs.bar0 + capHCCPARAMS1)
	ptr := hccparams1ExtCapPtr(hccp1)
	if ptr == 0 {
		return nil // no extended capabilities at all
	}
	addr := c.regs.bar0 + uintptr(ptr)*4

	for {
		v := hwio.Read32(addr)
		capID := v & 0xFF
		next := (v >> 8) & 0xFF

		if capID == capIDLegacySupport {
			hwio.Write32(addr, v|1<<legacyBitOSOwned)
			ok := false
			for i := 0; i < spinBound; i++ {
				if hwio.Read32(addr)&(1<<legacyBitBIOSOwned) == 0 {
					ok = true
					break
				}
			}
			if !ok {
				return ErrTimeout
			}
			return nil
		}
		if next == 0 {
			return nil
		}
		addr += uintptr(next) * 4
	}
}

// hostControllerReset implements spec.md §4.4 step 2.
func (c *Controller) hostControllerReset() error {
	cmd := c.regs.opReg32(opUSBCMD)
	c.regs.setOpReg32(opUSBCMD, cmd|1<<usbCmdBitHCRST)

	for i := 0; i < spinBound; i++ {
		if c.regs.opReg32(opUSBCMD)&(1<<usbCmdBitHCRST) == 0 {
			break
		}
		if i == spinBound-1 {
			return ErrTimeout
		}
	}
	for i := 0; i < spinBound; i++ {
		if c.regs.opReg32(opUSBSTS)&(1<<usbStsBitCNR) == 0 {
			return nil
		}
	}
	return ErrTimeout
}

// setupScratchpad implements spec.md §4.4 step 3.
func (c *Controller) setupScratchpad() error {
	hcs2 := hwio.Read32(c.regs.bar0 + capHCSPARAMS2)
	n := hcsparams2ScratchpadCount(hcs2)
	if n == 0 {
		return nil
	}

	arrayPhys, arrayVirt, err := c.pages.AllocPages(1)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		pagePhys, _, err := c.pages.AllocPage()
		if err != nil {
			return err
		}
		hwio.Write64(arrayVirt+uintptr(i)*8, uint64(pagePhys))
	}
	hwio.Fence()
	hwio.FlushLine(arrayVirt)

	c.scratchpadArrayPhys = arrayPhys
	return nil
}

// setupCommandRing implements spec.md §4.4 step 4. The physical
// allocation is sized for RingCapacity+1 slots (see trb.go's Ring
// comment) rather than the literal "4 KiB" spec.md text, so that the
// producer side satisfies the 256-push wrap invariant exactly.
func (c *Controller) setupCommandRing() error {
	pagesNeeded := ((RingCapacity+1)*TRBSize + pageSize - 1) / pageSize
	phys, virt, err := c.pages.AllocPages(pagesNeeded)
	if err != nil {
		return err
	}
	c.cmdRing = NewRing(virt, phys)
	c.regs.setOpReg64(opCRCR, uint64(phys)|1<<crcrBitRCS)
	return nil
}

const pageSize = 4096

// setupEventRing implements spec.md §4.4 step 5.
func (c *Controller) setupEventRing() error {
	ringPages := (eventRingCapacity*TRBSize + pageSize - 1) / pageSize
	ringPhys, ringVirt, err := c.pages.AllocPages(ringPages)
	if err != nil {
		return err
	}
	c.evtRing = newEventRing(ringVirt, ringPhys)

	erstPhys, erstVirt, err := c.pages.AllocPages(1)
	if err != nil {
		return err
	}
	c.erstVirt, c.erstPhys = erstVirt, erstPhys
	hwio.Write64(erstVirt, uint64(ringPhys))          // ring segment base
	hwio.Write32(erstVirt+8, uint32(eventRingCapacity)) // ring segment size
	hwio.Fence()
	hwio.FlushLine(erstVirt)

	c.regs.setRtReg32(rtIR0ERSTSZ, 1)
	c.regs.setRtReg64(rtIR0ERDP, uint64(ringPhys)|1<<erdpBitEHB)
	c.regs.setRtReg64(rtIR0ERSTBA, uint64(erstPhys))
	c.regs.setRtReg32(rtIR0IMAN, 1<<imanBitIE)
	c.regs.setRtReg32(rtIR0IMOD, 0)
	return nil
}

// setupDCBAAP implements spec.md §4.4 step 6: the device-context-base-
// address array, one uint64 per slot (0..maxSlots) plus entry 0 for the
// scratchpad array.
func (c *Controller) setupDCBAAP() error {
	phys, virt, err := c.pages.AllocPages(1)
	if err != nil {
		return err
	}
	c.dcbaaPhys, c.dcbaaVirt = phys, virt
	if c.scratchpadArrayPhys != 0 {
		hwio.Write64(virt, uint64(c.scratchpadArrayPhys))
	}
	hwio.Fence()
	hwio.FlushLine(virt)
	c.regs.setOpReg64(opDCBAAP, uint64(phys))
	return nil
}

// run implements spec.md §4.4 step 7.
func (c *Controller) run() error {
	c.regs.setOpReg32(opCONFIG, c.maxSlots)
	cmd := c.regs.opReg32(opUSBCMD)
	c.regs.setOpReg32(opUSBCMD, cmd|1<<usbCmdBitRun|1<<usbCmdBitINTE)

	for i := 0; i < spinBound; i++ {
		if c.regs.opReg32(opUSBSTS)&(1<<usbStsBitHCH) == 0 {
			return nil
		}
	}
	return ErrTimeout
}

// noOpProbe implements spec.md §4.4 step 8: post a NO-OP command and
// verify its completion.
func (c *Controller) noOpProbe() error {
	c.cmdRing.Push(TRB{TRBType: trbTypeNoOp})
	c.ringDoorbell(0)
	_, err := c.waitCommandCompletion()
	return err
}

func (c *Controller) ringDoorbell(slot int) {
	hwio.Write32(c.regs.doorbell(slot), 0)
}

// waitCommandCompletion drains the event ring looking for the next
// Command Completion Event, per spec.md §4.4's ring protocol.
func (c *Controller) waitCommandCompletion() (rawEvent, error) {
	for i := 0; i < spinBound; i++ {
		ev, ok := c.evtRing.peek()
		if !ok {
			continue
		}
		c.evtRing.advance()
		c.ackEventRing()
		if ev.TRBType == trbTypeCmdCompletion {
			code := (ev.Status >> 24) & 0xFF
			if code != 1 { // 1 = Success
				return ev, errCommandFailed
			}
			return ev, nil
		}
	}
	return rawEvent{}, ErrTimeout
}

// ackEventRing implements spec.md §4.4's consumer protocol: "write ERDP
// with the physical address of the next unread TRB OR the Event-Handler-
// Busy bit, and set IMAN to clear pending."
func (c *Controller) ackEventRing() {
	c.regs.setRtReg64(rtIR0ERDP, uint64(c.evtRing.dequeuePointer())|1<<erdpBitEHB)
	c.regs.setRtReg32(rtIR0IMAN, c.regs.rtReg32(rtIR0IMAN)|1<<imanBitIP)
}
