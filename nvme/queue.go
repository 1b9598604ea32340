// Package nvme drives an NVMe controller: admin/IO queue-pair setup,
// namespace identify, and block read/write (spec.md §4.5), satisfying
// blockdev.Device. Grounded on the teacher's mmu.go bump-allocator idiom
// for the fixed DMA pages this driver needs, and on gic_qemu.go's
// register-offset-table dispatch style for the doorbell/CAP/CC/CSTS
// register layout.
package nvme

import (
	"errors"

	"github.com/nyxkernel/nyxkernel/hwio"
)

// Registers, offsets from BAR0 (NVMe 1.4 §3.1).
const (
	regCAP  = 0x00 // capabilities
	regCC   = 0x14 // controller configuration
	regCSTS = 0x1C // controller status
	regAQA  = 0x24 // admin queue attributes
	regASQ  = 0x28 // admin submission queue base
	regACQ  = 0x30 // admin completion queue base
	doorbellBase = 0x1000
)

const (
	ccBitEN     = 0
	cstsBitRDY  = 0

	ccIOSQESShift = 16
	ccIOCQESShift = 20
)

const (
	queueDepth = 32 // admin queue depth, per spec.md §4.5
	ioQueueDepth = 16
	cmdSize  = 64
	cqeSize  = 16
)

// Controller is one NVMe controller instance. All DMA pages are allocated
// once at Init time and never freed, matching spec.md §5's "single-shot
// kernel lifetime" for allocated DMA.
type Controller struct {
	bar0 uintptr

	dstrd uint32 // doorbell stride, 1 << (2+DSTRD)

	adminSQ, adminCQ uintptr
	adminSQTail      uint32
	adminCQHead      uint32
	adminPhase       bool

	ioSQ, ioCQ         uintptr
	ioSQPhys, ioCQPhys uintptr
	ioSQTail           uint32
	ioCQHead           uint32
	ioPhase            bool

	nsid uint32

	dmaBuf     uintptr // shared 4 KiB page (virtual) for identify + block read/write
	dmaBufPhys uintptr // same page's physical address, for PRP1
}

var (
	// ErrTimeout is spec.md §7's "Hardware timeout" variant.
	ErrTimeout = errors.New("nvme: operation timed out")
	// ErrCommandFailed is returned for a nonzero completion status code
	// (spec.md §7 "Hardware error completion"); the status code itself is
	// not carried in the error.
	ErrCommandFailed = errors.New("nvme: command completed with nonzero status")
)

const spinBound = 5_000_000

func (c *Controller) reg32(off uintptr) uint32    { return hwio.Read32(c.bar0 + off) }
func (c *Controller) setReg32(off uintptr, v uint32) { hwio.Write32(c.bar0+off, v) }
func (c *Controller) reg64(off uintptr) uint64    { return hwio.Read64(c.bar0 + off) }
func (c *Controller) setReg64(off uintptr, v uint64) { hwio.Write64(c.bar0+off, v) }

// reset implements spec.md §4.5 step 1: "If CC.EN=1, clear it and wait for
// CSTS.RDY=0."
func (c *Controller) reset() error {
	cc := c.reg32(regCC)
	if cc&(1<<ccBitEN) == 0 {
		return nil
	}
	c.setReg32(regCC, cc&^(1<<ccBitEN))
	for i := 0; i < spinBound; i++ {
		if c.reg32(regCSTS)&(1<<cstsBitRDY) == 0 {
			return nil
		}
	}
	return ErrTimeout
}

// PageAllocator is supplied by the caller of Init (the kernel's memory
// manager); nvme only knows it needs zeroed, 4 KiB-aligned physical pages
// and their kernel-virtual alias.
type PageAllocator interface {
	AllocPage() (phys uintptr, virt uintptr, err error)
}

// Init performs spec.md §4.5's full controller-init sequence: reset,
// allocate the four fixed queue pages plus a DMA scratch buffer, program
// AQA/ASQ/ACQ, set CC, and wait for CSTS.RDY=1.
func (c *Controller) Init(bar0 uintptr, pages PageAllocator) error {
	c.bar0 = bar0

	cap_ := c.reg64(regCAP)
	c.dstrd = 1 << (2 + uint32((cap_>>32)&0xF))

	if err := c.reset(); err != nil {
		return err
	}

	asqPhys, asqVirt, err := pages.AllocPage()
	if err != nil {
		return err
	}
	acqPhys, acqVirt, err := pages.AllocPage()
	if err != nil {
		return err
	}
	isqPhys, isqVirt, err := pages.AllocPage()
	if err != nil {
		return err
	}
	icqPhys, icqVirt, err := pages.AllocPage()
	if err != nil {
		return err
	}
	dmaPhys, dmaVirt, err := pages.AllocPage()
	if err != nil {
		return err
	}
	c.adminSQ, c.adminCQ = asqVirt, acqVirt
	c.ioSQ, c.ioCQ = isqVirt, icqVirt
	c.ioSQPhys, c.ioCQPhys = isqPhys, icqPhys
	c.dmaBuf = dmaVirt
	c.dmaBufPhys = dmaPhys

	// AQA: admin CQ size (bits 16-27) and admin SQ size (bits 0-11), both
	// encoded as (depth - 1), per spec.md "sub/cpl sizes 32 each = 31
	// encoded".
	aqa := uint32(queueDepth-1) | uint32(queueDepth-1)<<16
	c.setReg32(regAQA, aqa)
	c.setReg64(regASQ, uint64(asqPhys))
	c.setReg64(regACQ, uint64(acqPhys))

	cc := uint32(6)<<ccIOCQESShift | uint32(4)<<ccIOSQESShift | 1<<ccBitEN
	c.setReg32(regCC, cc)

	for i := 0; i < spinBound; i++ {
		if c.reg32(regCSTS)&(1<<cstsBitRDY) != 0 {
			c.adminPhase = true
			c.nsid = 1 // spec.md §4.5 fallback until DiscoverNamespace runs
			return nil
		}
	}
	return ErrTimeout
}

func (c *Controller) adminDoorbellSQ() uintptr { return doorbellBase }
func (c *Controller) adminDoorbellCQ() uintptr { return doorbellBase + uintptr(c.dstrd) }
func (c *Controller) ioDoorbellSQ() uintptr    { return doorbellBase + uintptr(2*c.dstrd) }
func (c *Controller) ioDoorbellCQ() uintptr    { return doorbellBase + uintptr(3*c.dstrd) }
