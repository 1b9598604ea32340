package memory

import (
	"errors"

	"github.com/nyxkernel/nyxkernel/hwio"
	"github.com/nyxkernel/nyxkernel/internal/bitfield"
)

// x86_64 page-table entry bits. Four levels (PML4, PDPT, PD, PT) share the
// same bit layout at the granularity this kernel uses: every leaf mapping
// is a 4 KiB page at the PT level, never a 2 MiB/1 GiB large page, which
// keeps one flag-packing routine correct for every level.
const (
	pteBitPresent      = 0
	pteBitWritable     = 1
	pteBitUser         = 2
	pteBitWriteThrough = 3
	pteBitCacheDisable = 4
	pteBitAccessed     = 5
	pteBitDirty        = 6
	pteBitNoExecute    = 63

	pteAddrLo = 12
	pteAddrHi = 51
)

// PTEFlags names the permission/caching bits spec.md §3 calls out: MMIO
// mappings always carry NoCache+WriteThrough, user pages always carry
// User+Writable.
type PTEFlags struct {
	Writable     bool
	User         bool
	NoCache      bool
	WriteThrough bool
	NoExecute    bool
}

func packPTE(phys uintptr, f PTEFlags) uint64 {
	var w bitfield.Word64
	w = w.WithBit(pteBitPresent, true)
	w = w.WithBit(pteBitWritable, f.Writable)
	w = w.WithBit(pteBitUser, f.User)
	w = w.WithBit(pteBitWriteThrough, f.WriteThrough)
	w = w.WithBit(pteBitCacheDisable, f.NoCache)
	w = w.WithBit(pteBitAccessed, true)
	w = w.WithBits(pteAddrLo, pteAddrHi, uint64(phys)>>pteAddrLo)
	w = w.WithBit(pteBitNoExecute, f.NoExecute)
	return uint64(w)
}

func pteAddr(entry uint64) uintptr {
	return uintptr(bitfield.Word64(entry).Bits(pteAddrLo, pteAddrHi) << pteAddrLo)
}

func pteValid(entry uint64) bool {
	return bitfield.Word64(entry).Bit(pteBitPresent)
}

const entriesPerTable = 512

// tableIndices splits a canonical virtual address into its four level
// indices and the page offset.
func tableIndices(v uintptr) (pml4, pdpt, pd, pt int) {
	pml4 = int((v >> 39) & 0x1FF)
	pdpt = int((v >> 30) & 0x1FF)
	pd = int((v >> 21) & 0x1FF)
	pt = int((v >> 12) & 0x1FF)
	return
}

var errNoMapping = errors.New("memory: virtual address is not mapped")

// tableEntry reads slot i of the table physically based at base. Table
// bases are physical addresses (as stored in a parent PTE or CR3); every
// table read/write converts to the kernel's offset-mapped virtual alias
// first, since Go pointers are always virtual.
func (m *Manager) tableEntry(base uintptr, i int) uint64 {
	return hwio.Read64(m.PhysToVirt(base) + uintptr(i)*8)
}

func (m *Manager) setTableEntry(base uintptr, i int, v uint64) {
	hwio.Write64(m.PhysToVirt(base)+uintptr(i)*8, v)
}

// walkOrCreate returns the physical base of the next-level table referenced
// by slot i of the table at base, allocating and zeroing a fresh table if
// the slot is not yet present. Intermediate (non-leaf) entries are always
// Present|Writable|User so permission is enforced only at the leaf.
func (m *Manager) walkOrCreate(base uintptr, i int) (uintptr, error) {
	e := m.tableEntry(base, i)
	if pteValid(e) {
		return pteAddr(e), nil
	}
	next, err := m.allocTablePage()
	if err != nil {
		return 0, err
	}
	flags := PTEFlags{Writable: true, User: true}
	m.setTableEntry(base, i, packPTE(next, flags))
	return next, nil
}

// mapPage installs a single 4 KiB leaf mapping. It is idempotent: mapping
// the same (virt, phys, flags) twice is a no-op. Remapping virt to a
// different phys is rejected, and so is a remap that would clear the
// no-cache or write-through bit the existing entry carries, so MMIO
// mappings are never downgraded. Any other flag change overwrites the entry.
func (m *Manager) mapPage(virt uintptr, phys uintptr, flags PTEFlags) error {
	pml4i, pdpti, pdi, pti := tableIndices(virt)

	pdpt, err := m.walkOrCreate(m.pml4Base, pml4i)
	if err != nil {
		return err
	}
	pd, err := m.walkOrCreate(pdpt, pdpti)
	if err != nil {
		return err
	}
	pt, err := m.walkOrCreate(pd, pdi)
	if err != nil {
		return err
	}

	existing := m.tableEntry(pt, pti)
	leaf := packPTE(phys, flags)
	if pteValid(existing) {
		if pteAddr(existing) == phys && existing == leaf {
			return nil // already mapped exactly this way: idempotent
		}
		if pteAddr(existing) != phys {
			return errors.New("memory: virtual address already mapped to a different frame")
		}
		const cacheBits = 1<<pteBitWriteThrough | 1<<pteBitCacheDisable
		if existing&cacheBits&^leaf != 0 {
			return errors.New("memory: remap would clear the existing no-cache/write-through flags")
		}
	}
	m.setTableEntry(pt, pti, leaf)
	hwio.Invlpg(virt)
	return nil
}

// translate walks the active hierarchy and returns the physical address
// virt currently maps to.
func (m *Manager) translate(virt uintptr) (uintptr, error) {
	pml4i, pdpti, pdi, pti := tableIndices(virt)
	offset := uintptr(virt) & 0xFFF

	e := m.tableEntry(m.pml4Base, pml4i)
	if !pteValid(e) {
		return 0, errNoMapping
	}
	e = m.tableEntry(pteAddr(e), pdpti)
	if !pteValid(e) {
		return 0, errNoMapping
	}
	e = m.tableEntry(pteAddr(e), pdi)
	if !pteValid(e) {
		return 0, errNoMapping
	}
	e = m.tableEntry(pteAddr(e), pti)
	if !pteValid(e) {
		return 0, errNoMapping
	}
	return pteAddr(e) + offset, nil
}

// allocTablePage pulls a fresh, zeroed 4 KiB page from the frame allocator
// to serve as an intermediate page table. Table pages are identity-mapped
// (virtual == physical + offset) so the kernel can zero and walk them
// without first mapping them.
func (m *Manager) allocTablePage() (uintptr, error) {
	f, err := m.frames.Allocate()
	if err != nil {
		return 0, err
	}
	phys := uintptr(f)
	virt := m.PhysToVirt(phys)
	zeroPage(virt)
	return phys, nil
}

func zeroPage(virt uintptr) {
	for off := uintptr(0); off < PageSize; off += 8 {
		hwio.Write64(virt+off, 0)
	}
}
