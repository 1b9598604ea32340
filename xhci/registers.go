package xhci

import "github.com/nyxkernel/nyxkernel/hwio"

// Capability registers (xHCI 1.2 §5.3), offsets from BAR0.
const (
	capCAPLENGTH  = 0x00 // byte 0: length of capability register block
	capHCSPARAMS1 = 0x04
	capHCSPARAMS2 = 0x08
	capHCCPARAMS1 = 0x10
	capDBOFF      = 0x14
	capRTSOFF     = 0x18
)

// Operational registers (xHCI 1.2 §5.4), offsets from BAR0+CAPLENGTH.
const (
	opUSBCMD  = 0x00
	opUSBSTS  = 0x04
	opDNCTRL  = 0x14
	opCRCR    = 0x18
	opDCBAAP  = 0x30
	opCONFIG  = 0x38
	opPortBase = 0x400
	opPortStride = 0x10
)

const (
	usbCmdBitRun   = 0
	usbCmdBitHCRST = 1
	usbCmdBitINTE  = 2

	usbStsBitHCH = 0 // HALT
	usbStsBitCNR = 11

	crcrBitRCS = 0 // ring cycle state

	portscBitCCS  = 0  // current connect status
	portscBitPED  = 1  // port enabled/disabled
	portscBitPR   = 4  // port reset
	portscBitPLS  = 5  // port link state, 4 bits
	portscBitSpeed = 10 // port speed, 4 bits
	portscBitCSC  = 17 // connect status change
	portscBitPRC  = 21 // port reset change
	portscBitPLC  = 22 // port link state change
)

// Runtime registers (xHCI 1.2 §5.5), offsets from BAR0+RTSOFF.
const (
	rtIR0ERSTSZ = 0x28
	rtIR0ERSTBA = 0x30
	rtIR0ERDP   = 0x38
	rtIR0IMAN   = 0x20
	rtIR0IMOD   = 0x24
)

const (
	imanBitIP  = 0 // interrupt pending
	imanBitIE  = 1 // interrupt enable
	erdpBitEHB = 3 // event handler busy
)

// Extended capability IDs (xHCI 1.2 §7).
const (
	capIDLegacySupport = 1
)

const (
	legacyBitBIOSOwned = 16
	legacyBitOSOwned   = 24
)

// regs holds the three derived base addresses every other file in this
// package indexes off of.
type regs struct {
	bar0 uintptr
	op   uintptr // operational registers base
	rt   uintptr // runtime registers base
	db   uintptr // doorbell array base
}

func newRegs(bar0 uintptr) regs {
	capLen := uintptr(hwio.Read8(bar0 + capCAPLENGTH))
	rtsoff := uintptr(hwio.Read32(bar0+capRTSOFF) &^ 0x1F)
	dboff := uintptr(hwio.Read32(bar0+capDBOFF) &^ 0x3)
	return regs{bar0: bar0, op: bar0 + capLen, rt: bar0 + rtsoff, db: bar0 + dboff}
}

func (r regs) opReg32(off uintptr) uint32      { return hwio.Read32(r.op + off) }
func (r regs) setOpReg32(off uintptr, v uint32) { hwio.Write32(r.op+off, v) }
func (r regs) opReg64(off uintptr) uint64      { return hwio.Read64(r.op + off) }
func (r regs) setOpReg64(off uintptr, v uint64) { hwio.Write64(r.op+off, v) }

func (r regs) rtReg32(off uintptr) uint32      { return hwio.Read32(r.rt + off) }
func (r regs) setRtReg32(off uintptr, v uint32) { hwio.Write32(r.rt+off, v) }
func (r regs) rtReg64(off uintptr) uint64      { return hwio.Read64(r.rt + off) }
func (r regs) setRtReg64(off uintptr, v uint64) { hwio.Write64(r.rt+off, v) }

func (r regs) portBase(port int) uintptr { return r.op + opPortBase + uintptr(port)*opPortStride }

func (r regs) doorbell(slot int) uintptr { return r.db + uintptr(slot)*4 }

// hcsparams1MaxSlots extracts the max device slots field (bits 0-7).
func hcsparams1MaxSlots(v uint32) uint32 { return v & 0xFF }

// hcsparams1MaxPorts extracts the max ports field (bits 24-31).
func hcsparams1MaxPorts(v uint32) uint32 { return (v >> 24) & 0xFF }

// hcsparams2ScratchpadCount concatenates the high (bits 21-25) and low
// (bits 27-31) scratchpad-count fields, per xHCI 1.2 §5.3.4.
func hcsparams2ScratchpadCount(v uint32) uint32 {
	hi := (v >> 21) & 0x1F
	lo := (v >> 27) & 0x1F
	return hi<<5 | lo
}

// hccparams1ExtCapPtr extracts the xECP field (bits 16-31), a dword
// offset from BAR0 to the first extended-capability entry.
func hccparams1ExtCapPtr(v uint32) uint32 { return (v >> 16) & 0xFFFF }
