// Package xhci drives a USB3 xHCI host controller: BIOS handoff, transfer
// and event ring management, slot/endpoint contexts, device enumeration,
// and interrupt-IN polling for a boot-protocol mouse (spec.md §4.4 — the
// largest subsystem at roughly 30% of the source).
//
// Grounded on the teacher's gic_qemu.go register-offset-table/handler-array
// dispatch idiom (here, TRB-type-indexed event dispatch) and pci_qemu.go's
// capability-list walk (here, the xHCI extended-capability list for BIOS
// handoff).
package xhci

import "github.com/nyxkernel/nyxkernel/hwio"

// TRBSize is the fixed 16-byte Transfer Request Block size (xHCI 1.2 §4.11).
const TRBSize = 16

// RingCapacity is the number of producer-addressable TRB slots per lap
// (spec.md §8 invariant 3: "after pushing 256 TRBs the producer index is 0
// and the cycle bit has flipped exactly once"). The LINK TRB that closes
// the lap is allocated one slot past this range rather than reusing
// slot 255, so every one of the 256 announced slots stays available to
// the producer; callers must size the backing allocation at
// (RingCapacity+1)*TRBSize.
const RingCapacity = 256

// linkIndex is the LINK-TRB slot, immediately past the addressable range.
const linkIndex = RingCapacity

const (
	trbBitCycle       = 0
	trbBitToggleCycle = 1
	trbBitIOC         = 5 // Interrupt On Completion

	trbTypeShift = 10
	trbTypeMask  = 0x3F

	trbTypeNormal        = 1
	trbTypeSetupStage    = 2
	trbTypeDataStage     = 3
	trbTypeStatusStage   = 4
	trbTypeLink          = 6
	trbTypeEnableSlot    = 9
	trbTypeAddressDevice = 11
	trbTypeConfigureEP   = 12
	trbTypeNoOp          = 23
	trbTypeTransferEvent = 32
	trbTypeCmdCompletion = 33
)

// Ring is a fixed-capacity producer/consumer TRB ring with the
// single-bit cycle protocol spec.md §3/§9 describes: "each ring owns
// (index, cycle); each slot stores its last-seen cycle. Only two
// operations exist — publish (producer) and accept (consumer) — both
// with a fence before the cycle-bit write/read."
type Ring struct {
	base  uintptr // virtual address of the (RingCapacity+1)-entry array
	phys  uintptr // physical address, for CRCR/TR-dequeue-pointer programming
	index int
	cycle bool
}

// NewRing installs the LINK TRB pointing back to index 0 with the
// Toggle-Cycle bit set (spec.md §4.4 step 4 "Command ring"), and starts
// the producer cycle state at true (ring cycle state = 1, matching
// "Program CRCR with its physical address OR 1").
func NewRing(virt, phys uintptr) *Ring {
	r := &Ring{base: virt, phys: phys, cycle: true}
	r.writeLink()
	return r
}

func (r *Ring) slotAddr(i int) uintptr { return r.base + uintptr(i)*TRBSize }

func (r *Ring) writeLink() {
	addr := r.slotAddr(linkIndex)
	hwio.Write64(addr, uint64(r.phys)) // ring segment pointer: back to slot 0
	hwio.Write32(addr+8, 0)
	ctrl := uint32(trbTypeLink)<<trbTypeShift | 1<<trbBitToggleCycle
	if r.cycle {
		ctrl |= 1 << trbBitCycle
	}
	hwio.Fence()
	hwio.Write32(addr+12, ctrl)
	hwio.FlushLine(addr)
}

// TRB is a producer's request before it is published into the ring.
type TRB struct {
	Parameter uint64
	Status    uint32
	TRBType   uint32
	IOC       bool

	// ExtraControl carries control-dword bits this ring's simplified TRB
	// types don't otherwise expose (IDT, TRT, DIR — xHCI 1.2 §6.4.1's
	// Setup/Data/Status Stage TRBs), pre-shifted to their final bit
	// position and clear of bits 10-15 (TRBType) and bits 0/5 (Cycle/IOC).
	ExtraControl uint32
}

// Push publishes trb at the current producer index, carrying the ring's
// current cycle bit, then advances the index. After filling the last of
// the RingCapacity addressable slots, it rewrites the LINK TRB's cycle bit
// to match (so the consumer's very next read observes the flip) and wraps
// to index 0, flipping the producer's own cycle state per the
// Toggle-Cycle hint (spec.md §3/§4.4). Returns the index the TRB was
// written at.
func (r *Ring) Push(trb TRB) int {
	idx := r.index
	addr := r.slotAddr(idx)

	hwio.Write64(addr, trb.Parameter)
	hwio.Write32(addr+8, trb.Status)
	ctrl := trb.TRBType<<trbTypeShift | trb.ExtraControl
	if trb.IOC {
		ctrl |= 1 << trbBitIOC
	}
	if r.cycle {
		ctrl |= 1 << trbBitCycle
	}
	hwio.Fence()
	hwio.Write32(addr+12, ctrl)
	hwio.FlushLine(addr)

	r.index++
	if r.index == RingCapacity {
		r.writeLink() // refresh the LINK TRB's cycle bit for this lap
		r.index = 0
		r.cycle = !r.cycle
	}
	return idx
}

// Index reports the ring's current producer index (0..RingCapacity-1).
func (r *Ring) Index() int { return r.index }

// Cycle reports the ring's current producer cycle bit.
func (r *Ring) Cycle() bool { return r.cycle }

// Phys returns the ring's physical base address, for CRCR/TR-dequeue
// programming.
func (r *Ring) Phys() uintptr { return r.phys }
