// Package ahci implements the alternate storage path spec.md §4.6
// describes in brief: port init and READ DMA EXT over BAR5, satisfying
// blockdev.Device as nvme does. Grounded on the same register-block/
// bump-DMA-allocator idiom as nvme, translated to AHCI's HBA/port-register
// layout (AHCI 1.3.1 §3).
package ahci

import (
	"errors"
	"fmt"

	"github.com/nyxkernel/nyxkernel/blockdev"
	"github.com/nyxkernel/nyxkernel/hwio"
)

const (
	regGHC = 0x04
	regPI  = 0x0C

	ghcBitAE = 31

	portBase   = 0x100
	portStride = 0x80

	portOffCLB  = 0x00
	portOffFB   = 0x08
	portOffIS   = 0x10
	portOffCMD  = 0x18
	portOffTFD  = 0x20
	portOffSIG  = 0x24
	portOffSSTS = 0x28
	portOffSCTL = 0x2C
	portOffSERR = 0x30
	portOffCI   = 0x38

	cmdBitST  = 0
	cmdBitFRE = 4
	cmdBitSUD = 1
	cmdBitFR  = 14 // FIS Receive Running
	cmdBitCR  = 15 // Command List Running

	fisH2DCommandRead = 0x25 // READ DMA EXT
)

var (
	// ErrTimeout mirrors spec.md §7's "Hardware timeout" variant.
	ErrTimeout = errors.New("ahci: operation timed out")
	errBufferSize = fmt.Errorf("ahci: buffer must be exactly 512 bytes: %w", blockdev.ErrBufferSize)
)

const spinBound = 2_000_000

// Port is one initialized AHCI port, ready to issue READ DMA EXT commands.
type Port struct {
	bar5  uintptr
	index int

	clb uintptr // virtual alias of the command list base
	fb  uintptr // virtual alias of the FIS receive base

	cmdTable uintptr // virtual alias of the single command table this driver uses
}

func (p *Port) base() uintptr { return p.bar5 + portBase + uintptr(p.index)*portStride }

func (p *Port) reg32(off uintptr) uint32     { return hwio.Read32(p.base() + off) }
func (p *Port) setReg32(off uintptr, v uint32) { hwio.Write32(p.base()+off, v) }

// stopEngine clears ST and FRE in PxCMD, per spec.md §4.6 "stop engine
// (clear ST|FRE)" and spec.md §9's explicit warning against the
// single-write antipattern: the standard sequence is ST then FRE, each
// interlocked against its own status bit (CR then FR) rather than polling
// the two bits software itself just cleared.
func (p *Port) stopEngine() error {
	cmd := p.reg32(portOffCMD)
	p.setReg32(portOffCMD, cmd&^(1<<cmdBitST))
	if err := p.waitClear(cmdBitCR); err != nil {
		return err
	}

	cmd = p.reg32(portOffCMD)
	p.setReg32(portOffCMD, cmd&^(1<<cmdBitFRE))
	return p.waitClear(cmdBitFR)
}

// waitClear polls PxCMD until the given bit reads 0.
func (p *Port) waitClear(bit uint) error {
	for i := 0; i < spinBound; i++ {
		if p.reg32(portOffCMD)&(1<<bit) == 0 {
			return nil
		}
	}
	return ErrTimeout
}

// PageAllocator is the same seam nvme.PageAllocator names: the caller's
// memory manager supplies zeroed, 4 KiB-aligned physical pages.
type PageAllocator interface {
	AllocPage() (phys uintptr, virt uintptr, err error)
}

// InitController sets GHC.AE (spec.md §4.6 "sets GHC.AE") once per
// controller, ahead of per-port Init calls.
func InitController(bar5 uintptr) {
	ghc := hwio.Read32(bar5 + regGHC)
	hwio.Write32(bar5+regGHC, ghc|(1<<ghcBitAE))
}

// ImplementedPorts reads PI and returns the set of port indices the
// controller implements.
func ImplementedPorts(bar5 uintptr) []int {
	pi := hwio.Read32(bar5 + regPI)
	var ports []int
	for i := 0; i < 32; i++ {
		if pi&(1<<uint(i)) != 0 {
			ports = append(ports, i)
		}
	}
	return ports
}

// Init brings up port index: stop engine, assert SUD, set interface power
// management active, COMRESET via SCTL, wait for SSTS.DET=3, clear SERR —
// spec.md §4.6's full per-port bring-up.
func Init(bar5 uintptr, index int, pages PageAllocator) (*Port, error) {
	p := &Port{bar5: bar5, index: index}

	if err := p.stopEngine(); err != nil {
		return nil, err
	}

	cmd := p.reg32(portOffCMD)
	p.setReg32(portOffCMD, cmd|(1<<cmdBitSUD))

	// Interface Communication Control (PxCMD bits 28-31) = 1: Active.
	cmd = p.reg32(portOffCMD)
	p.setReg32(portOffCMD, cmd&^(0xF<<28)|(1<<28))

	// COMRESET through SCTL.DET (SCTL bits 0-3).
	sctl := p.reg32(portOffSCTL)
	p.setReg32(portOffSCTL, (sctl&^0xF)|0x1) // DET=1: COMRESET
	p.setReg32(portOffSCTL, sctl&^0xF)       // DET=0: release

	for i := 0; i < spinBound; i++ {
		det := p.reg32(portOffSSTS) & 0xF
		if det == 3 {
			break
		}
		if i == spinBound-1 {
			return nil, ErrTimeout
		}
	}
	p.setReg32(portOffSERR, 0xFFFFFFFF) // clear SERR: write-1-to-clear

	clbPhys, clbVirt, err := pages.AllocPage()
	if err != nil {
		return nil, err
	}
	fbPhys, fbVirt, err := pages.AllocPage()
	if err != nil {
		return nil, err
	}
	tablePhys, tableVirt, err := pages.AllocPage()
	if err != nil {
		return nil, err
	}
	p.clb, p.fb, p.cmdTable = clbVirt, fbVirt, tableVirt
	p.setReg32(portOffCLB, uint32(clbPhys))
	p.setReg32(portOffFB, uint32(fbPhys))
	_ = tablePhys

	p.setReg32(portOffCMD, p.reg32(portOffCMD)|(1<<cmdBitFRE)|(1<<cmdBitST))
	return p, nil
}

// BlockSize implements blockdev.Device: AHCI's native sector size.
func (p *Port) BlockSize() int { return 512 }

// ReadBlock implements blockdev.Device (spec.md §4.6 read): build an
// FIS-H2D with command 0x25 (READ DMA EXT), LBA48 fields, count=1, issue
// via CI bit 0, poll CI clear or a task-file error.
func (p *Port) ReadBlock(lba uint64, buf []byte) error {
	if len(buf) != 512 {
		return errBufferSize
	}
	p.buildCommand(lba, fisH2DCommandRead, false)
	return p.issue()
}

// WriteBlock is not named in spec.md's brief AHCI description (only READ
// DMA EXT is specified); this kernel's storage path always prefers the
// NVMe driver and only falls back to AHCI for reads during the GPT probe,
// so WriteBlock is left unimplemented rather than guessing at an
// unspecified WRITE DMA EXT command layout.
func (p *Port) WriteBlock(lba uint64, buf []byte) error {
	return errors.New("ahci: WriteBlock is not part of this driver's specified surface")
}

func (p *Port) buildCommand(lba uint64, ataCommand uint8, write bool) {
	hwio.Write8(p.cmdTable+0, 0x27) // FIS type: Register H2D
	hwio.Write8(p.cmdTable+1, 0x80) // C bit: this is a command
	hwio.Write8(p.cmdTable+2, ataCommand)
	hwio.Write8(p.cmdTable+4, byte(lba))
	hwio.Write8(p.cmdTable+5, byte(lba>>8))
	hwio.Write8(p.cmdTable+6, byte(lba>>16))
	hwio.Write8(p.cmdTable+7, 1<<6) // device: LBA mode
	hwio.Write8(p.cmdTable+8, byte(lba>>24))
	hwio.Write8(p.cmdTable+9, byte(lba>>32))
	hwio.Write8(p.cmdTable+10, byte(lba>>40))
	hwio.Write16(p.cmdTable+12, 1) // sector count = 1
	hwio.Fence()
}

func (p *Port) issue() error {
	p.setReg32(portOffCI, 1)
	for i := 0; i < spinBound; i++ {
		ci := p.reg32(portOffCI)
		tfd := p.reg32(portOffTFD)
		if ci&1 == 0 {
			if tfd&0x1 != 0 { // ERR bit in the task-file status byte
				return errors.New("ahci: task-file error")
			}
			return nil
		}
	}
	return ErrTimeout
}
