package nvme

import (
	"fmt"

	"github.com/nyxkernel/nyxkernel/blockdev"
	"github.com/nyxkernel/nyxkernel/hwio"
)

const (
	cnsActiveNamespaceList = 2
)

// DiscoverNamespace implements spec.md §4.5 "Namespace discovery": Identify
// with CNS=2 into the shared DMA buffer; first nonzero u32 is the active
// nsid; falls back to nsid=1 if the list is all zero.
func (c *Controller) DiscoverNamespace() error {
	cmd := command{
		opcode: opIdentify,
		prp1:   uint64(c.dmaBufPhys),
		cdw10:  cnsActiveNamespaceList,
	}
	if err := c.submitAdmin(cmd); err != nil {
		return err
	}

	for i := 0; i < 1024; i += 4 {
		nsid := hwio.Read32(c.dmaBuf + uintptr(i))
		if nsid != 0 {
			c.nsid = nsid
			return nil
		}
	}
	c.nsid = 1
	return nil
}

// CreateIOQueues implements spec.md §4.5 "I/O queue creation": CREATE_CQ
// then CREATE_SQ, both physically contiguous, queue size 16, QID/SQID/CQID
// all 1. Must run before any ReadBlock/WriteBlock call — those ring the
// I/O submission queue's doorbell, which is meaningless to the controller
// until this has told it the queue pair exists. Uses the I/O queue pages
// Init already allocated; there is no caller-supplied address to get
// wrong.
func (c *Controller) CreateIOQueues() error {
	createCQ := command{
		opcode: opCreateCQ,
		prp1:   uint64(c.ioCQPhys),
		cdw10:  uint32(ioQueueDepth-1)<<16 | 1, // QID=1, size-1 in bits 31:16
		cdw11:  1,                              // PC=1 (physically contiguous)
	}
	if err := c.submitAdmin(createCQ); err != nil {
		return err
	}

	createSQ := command{
		opcode: opCreateSQ,
		prp1:   uint64(c.ioSQPhys),
		cdw10:  uint32(ioQueueDepth-1)<<16 | 1, // SQID=1
		cdw11:  1<<16 | 1,                      // CQID=1 in bits 31:16, PC=1
	}
	return c.submitAdmin(createSQ)
}

var errBufferSize = fmt.Errorf("nvme: buffer must be exactly 4096 bytes: %w", blockdev.ErrBufferSize)

// BlockSize implements blockdev.Device: this kernel's target NVMe
// namespaces report a 4096-byte logical block (spec.md §3 "Namespace").
func (c *Controller) BlockSize() int { return 4096 }

// ReadBlock implements blockdev.Device (spec.md §4.5 read_block): post a
// READ command with PRP1 at the shared DMA buffer and CDW10/11 = LBA, poll
// completion, then copy the DMA buffer into buf.
func (c *Controller) ReadBlock(lba uint64, buf []byte) error {
	if len(buf) != 4096 {
		return errBufferSize
	}
	cmd := command{
		opcode: opRead,
		nsid:   c.nsid,
		prp1:   uint64(c.dmaBufPhys),
		cdw10:  uint32(lba),
		cdw11:  uint32(lba >> 32),
		cdw12:  0, // single 4 KiB block
	}
	if err := c.submitIO(cmd); err != nil {
		return err
	}
	for i := 0; i < 4096; i += 8 {
		v := hwio.Read64(c.dmaBuf + uintptr(i))
		buf[i] = byte(v)
		buf[i+1] = byte(v >> 8)
		buf[i+2] = byte(v >> 16)
		buf[i+3] = byte(v >> 24)
		buf[i+4] = byte(v >> 32)
		buf[i+5] = byte(v >> 40)
		buf[i+6] = byte(v >> 48)
		buf[i+7] = byte(v >> 56)
	}
	return nil
}

// WriteBlock implements blockdev.Device: copy buf into the shared DMA
// buffer, then post a WRITE command identical to ReadBlock's addressing.
func (c *Controller) WriteBlock(lba uint64, buf []byte) error {
	if len(buf) != 4096 {
		return errBufferSize
	}
	for i := 0; i < 4096; i += 8 {
		v := uint64(buf[i]) | uint64(buf[i+1])<<8 | uint64(buf[i+2])<<16 | uint64(buf[i+3])<<24 |
			uint64(buf[i+4])<<32 | uint64(buf[i+5])<<40 | uint64(buf[i+6])<<48 | uint64(buf[i+7])<<56
		hwio.Write64(c.dmaBuf+uintptr(i), v)
	}
	cmd := command{
		opcode: opWrite,
		nsid:   c.nsid,
		prp1:   uint64(c.dmaBufPhys),
		cdw10:  uint32(lba),
		cdw11:  uint32(lba >> 32),
	}
	return c.submitIO(cmd)
}
