package nvme

import "github.com/nyxkernel/nyxkernel/hwio"

// command is the 64-byte NVMe submission-queue entry layout (NVMe 1.4
// §4.2), packed as named fields instead of the teacher's reflect-based
// bitfield (see internal/bitfield's package doc for why reflect is
// avoided here).
type command struct {
	opcode  uint8
	flags   uint8
	cid     uint16
	nsid    uint32
	_rsvd2  uint64
	mptr    uint64
	prp1    uint64
	prp2    uint64
	cdw10   uint32
	cdw11   uint32
	cdw12   uint32
	cdw13   uint32
	cdw14   uint32
	cdw15   uint32
}

const (
	opIdentify = 0x06
	opWrite    = 0x01
	opRead     = 0x02

	opCreateCQ = 0x05
	opCreateSQ = 0x01
)

func writeCommand(queueVirt uintptr, slot uint32, cmd command) {
	base := queueVirt + uintptr(slot)*cmdSize
	hwio.Write32(base+0, uint32(cmd.opcode)|uint32(cmd.flags)<<8|uint32(cmd.cid)<<16)
	hwio.Write32(base+4, cmd.nsid)
	hwio.Write64(base+8, 0)
	hwio.Write64(base+16, cmd.mptr)
	hwio.Write64(base+24, cmd.prp1)
	hwio.Write64(base+32, cmd.prp2)
	hwio.Write32(base+40, cmd.cdw10)
	hwio.Write32(base+44, cmd.cdw11)
	hwio.Write32(base+48, cmd.cdw12)
	hwio.Write32(base+52, cmd.cdw13)
	hwio.Write32(base+56, cmd.cdw14)
	hwio.Write32(base+60, cmd.cdw15)
	hwio.Fence()
}

// completion mirrors the 16-byte NVMe completion-queue entry; only the
// status-phase dword is read by the poll loop.
func completionStatus(queueVirt uintptr, slot uint32) (statusCode uint16, phase bool) {
	word := hwio.Read32(queueVirt + uintptr(slot)*cqeSize + 12)
	phase = word&0x1 != 0
	statusCode = uint16((word >> 1) & 0x1FF) // bits 1..9, per spec.md §4.5
	return
}

// submitAdmin posts cmd to the admin SQ, rings its doorbell, and polls the
// admin CQ until the phase bit matches c.adminPhase, per spec.md §4.5's
// "Admin command protocol".
func (c *Controller) submitAdmin(cmd command) error {
	cmd.cid = uint16(c.adminSQTail)
	writeCommand(c.adminSQ, c.adminSQTail, cmd)
	c.adminSQTail = (c.adminSQTail + 1) % queueDepth
	c.setReg32(c.adminDoorbellSQ(), c.adminSQTail)

	for i := 0; i < spinBound; i++ {
		sc, phase := completionStatus(c.adminCQ, c.adminCQHead)
		if phase == c.adminPhase {
			c.adminCQHead = (c.adminCQHead + 1) % queueDepth
			if c.adminCQHead == 0 {
				c.adminPhase = !c.adminPhase
			}
			c.setReg32(c.adminDoorbellCQ(), c.adminCQHead)
			if sc != 0 {
				return ErrCommandFailed
			}
			return nil
		}
	}
	return ErrTimeout
}

// submitIO mirrors submitAdmin for the I/O queue pair (spec.md §4.5
// "read_block/write_block").
func (c *Controller) submitIO(cmd command) error {
	cmd.cid = uint16(c.ioSQTail)
	writeCommand(c.ioSQ, c.ioSQTail, cmd)
	c.ioSQTail = (c.ioSQTail + 1) % ioQueueDepth
	c.setReg32(c.ioDoorbellSQ(), c.ioSQTail)

	for i := 0; i < spinBound; i++ {
		sc, phase := completionStatus(c.ioCQ, c.ioCQHead)
		if phase == c.ioPhase {
			c.ioCQHead = (c.ioCQHead + 1) % ioQueueDepth
			if c.ioCQHead == 0 {
				c.ioPhase = !c.ioPhase
			}
			c.setReg32(c.ioDoorbellCQ(), c.ioCQHead)
			if sc != 0 {
				return ErrCommandFailed
			}
			return nil
		}
	}
	return ErrTimeout
}
