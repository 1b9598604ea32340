package xhci

import (
	"sync/atomic"
	"testing"
	"time"
	"unsafe"

	"github.com/nyxkernel/nyxkernel/hwio"
)

// fakePageAllocator hands out pages from a fixed backing arena, the same
// bump-allocation seam memory.Manager fills at runtime. Tests use an
// identity virt==phys mapping: these "physical" addresses are only ever
// written back into the same process's memory by the simulated hardware
// below, never handed to real DMA.
type fakePageAllocator struct {
	next uintptr
}

func newFakePageAllocator(pages int) *fakePageAllocator {
	buf := make([]byte, (pages+2)*pageSize)
	base := uintptr(unsafe.Pointer(&buf[0]))
	return &fakePageAllocator{next: (base + pageSize - 1) &^ uintptr(pageSize-1)}
}

func (a *fakePageAllocator) AllocPages(n int) (uintptr, uintptr, error) {
	delta := uintptr(n) * pageSize
	end := atomic.AddUintptr(&a.next, delta)
	addr := end - delta
	return addr, addr, nil
}

func (a *fakePageAllocator) AllocPage() (uintptr, uintptr, error) {
	return a.AllocPages(1)
}

// pushRawEvent writes one event-ring entry by hand, playing the producer
// role the real controller hardware takes (the driver only ever consumes
// this ring, so eventRing itself exposes no Push method).
func pushRawEvent(base uintptr, idx int, trbType, slotID uint32, status uint32) {
	addr := base + uintptr(idx)*TRBSize
	hwio.Write64(addr, 0)
	hwio.Write32(addr+8, status)
	ctrl := trbType<<trbTypeShift | slotID<<24 | 1<<trbBitCycle
	hwio.Fence()
	hwio.Write32(addr+12, ctrl)
	hwio.FlushLine(addr)
}

// simulateHardware plays the role of the host controller plus an attached
// boot-protocol mouse for TestEnumeratePortScenario5 (spec.md §8 scenario
// 5): it completes the port reset, answers every command-ring TRB with a
// Command Completion Event (slot id 3 for ENABLE_SLOT), and answers every
// EP0 control transfer's Status Stage TRB with a Transfer Event. None of
// this lives past the test; it is not part of the driver.
func simulateHardware(t *testing.T, c *Controller, portAddr uintptr, prObserved chan<- struct{}, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}
		if hwio.Read32(portAddr)&(1<<portscBitPR) != 0 {
			break
		}
		time.Sleep(time.Microsecond)
	}
	select {
	case prObserved <- struct{}{}:
	default:
	}
	hwio.Write32(portAddr, 1<<portscBitCCS|1<<portscBitPED|1<<portscBitPRC|uint32(speedHigh)<<portscBitSpeed)

	evtIdx := 0
	cmdIdx := 0
	ep0Idx := 0
	for {
		select {
		case <-done:
			return
		default:
		}

		if cmdIdx < RingCapacity {
			addr := c.cmdRing.slotAddr(cmdIdx)
			ctrl := hwio.Read32(addr + 12)
			if ctrl&(1<<trbBitCycle) != 0 {
				trbType := (ctrl >> trbTypeShift) & trbTypeMask
				var slotID uint32
				if trbType == trbTypeEnableSlot {
					slotID = 3
				}
				pushRawEvent(c.evtRing.base, evtIdx, trbTypeCmdCompletion, slotID, 1<<24)
				evtIdx++
				cmdIdx++
				continue
			}
		}

		if slot := c.slots[3]; slot != nil && slot.ep0Ring != nil {
			addr := slot.ep0Ring.slotAddr(ep0Idx)
			ctrl := hwio.Read32(addr + 12)
			if ctrl&(1<<trbBitCycle) != 0 {
				if (ctrl>>trbTypeShift)&trbTypeMask == trbTypeStatusStage {
					pushRawEvent(c.evtRing.base, evtIdx, trbTypeTransferEvent, 0, 1<<24)
					evtIdx++
				}
				ep0Idx++
				continue
			}
		}

		time.Sleep(time.Microsecond)
	}
}

// TestEnumeratePortScenario5 implements spec.md §8 scenario 5: "given a
// simulated CCS=1, PED=0 input, driver writes PORTSC with PR=1 then
// observes PR=0; emits ENABLE_SLOT; on Command Completion Event with
// slot=3, creates EP0 ring and addresses device 3."
func TestEnumeratePortScenario5(t *testing.T) {
	opBuf := make([]byte, 0x1000)
	rtBuf := make([]byte, 0x1000)
	dbBuf := make([]byte, 0x1000)
	cmdBuf := make([]byte, (RingCapacity+1)*TRBSize)
	evtBuf := make([]byte, eventRingCapacity*TRBSize)
	dcbaaBuf := make([]byte, 256*8)

	opBase := uintptr(unsafe.Pointer(&opBuf[0]))
	rtBase := uintptr(unsafe.Pointer(&rtBuf[0]))
	dbBase := uintptr(unsafe.Pointer(&dbBuf[0]))
	cmdBase := uintptr(unsafe.Pointer(&cmdBuf[0]))
	evtBase := uintptr(unsafe.Pointer(&evtBuf[0]))
	dcbaaVirt := uintptr(unsafe.Pointer(&dcbaaBuf[0]))

	alloc := newFakePageAllocator(64)
	ctrlPhys, ctrlVirt, err := alloc.AllocPage()
	if err != nil {
		t.Fatalf("AllocPage: %v", err)
	}

	c := &Controller{
		regs:        regs{bar0: opBase, op: opBase, rt: rtBase, db: dbBase},
		pages:       alloc,
		maxSlots:    8,
		maxPorts:    1,
		cmdRing:     NewRing(cmdBase, cmdBase),
		evtRing:     newEventRing(evtBase, evtBase),
		dcbaaVirt:   dcbaaVirt,
		ctrlBufPhys: ctrlPhys,
		ctrlBufVirt: ctrlVirt,
	}

	portAddr := c.regs.portBase(0)
	hwio.Write32(portAddr, 1<<portscBitCCS) // connected (CCS=1), not enabled (PED=0)

	prObserved := make(chan struct{}, 1)
	done := make(chan struct{})
	go simulateHardware(t, c, portAddr, prObserved, done)
	defer close(done)

	slot, ok := c.enumeratePort(0)

	select {
	case <-prObserved:
	default:
		t.Fatal("enumeratePort never wrote PORTSC.PR to reset the port")
	}

	if slot == nil {
		t.Fatal("enumeratePort returned a nil slot")
	}
	if slot.ID != 3 {
		t.Fatalf("slot id = %d, want 3 (from the Command Completion Event)", slot.ID)
	}
	if slot.ep0Ring == nil {
		t.Fatal("addressDevice did not create an EP0 ring")
	}
	if slot.deviceContextPhys == 0 {
		t.Fatal("addressDevice did not install a device context")
	}
	if c.slots[3] != slot {
		t.Fatal("enableSlot's slot id was not used to index Controller.slots")
	}
	if !ok {
		t.Fatal("enumeratePort did not report success")
	}
}
