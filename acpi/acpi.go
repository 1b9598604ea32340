// Package acpi walks the firmware ACPI table chain far enough to locate
// the MCFG (PCIe ECAM base, unused by this kernel's legacy-CF8 enumerator
// but still discovered for completeness) and MADT (local-APIC/IO-APIC
// inventory) tables, per spec.md §2's "ACPI discovery: RSDP → RSDT/XSDT →
// MCFG/MADT addresses". Non-goal per spec.md §1: anything beyond MADT/MCFG
// discovery (no AML interpretation, no \_S5 shutdown method, etc).
package acpi

import (
	"encoding/binary"
	"errors"
	"sync"
)

// ErrNotFound is returned when a table search comes up empty; callers
// treat this as "Configuration absent" (spec.md §7): the feature is
// silently disabled and boot continues.
var ErrNotFound = errors.New("acpi: table not found")

// Info is the kernel's ACPI singleton: explicitly initialized once, like
// memory.Manager, per spec.md §9's "re-architect as explicitly-initialized
// once-settable cells" note.
type Info struct {
	mu    sync.Mutex
	ready bool

	rsdp uintptr
	mcfg uintptr
	madt uintptr
}

var global Info

// Global returns the kernel's ACPI-info singleton.
func Global() *Info { return &global }

// rsdpSignature is "RSD PTR " at the start of the Root System Description
// Pointer structure.
var rsdpSignature = [8]byte{'R', 'S', 'D', ' ', 'P', 'T', 'R', ' '}

// reader abstracts reading bytes at a physical-memory-mapped virtual
// address, satisfied by memory.Manager's PhysToVirt plus raw reads in
// production and by a byte-slice fake in tests.
type reader interface {
	Bytes(virt uintptr, n int) []byte
}

// Init scans the BIOS read-only area [0xE0000, 0xFFFFF] for the RSDP
// signature (the legacy BIOS search range; UEFI systems hand the address
// directly in the boot config, consumed the same way once found), then
// walks RSDT/XSDT to find MCFG and MADT.
func (i *Info) Init(r reader, biosAreaVirt uintptr, biosAreaLen int) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	rsdp, err := findRSDP(r, biosAreaVirt, biosAreaLen)
	if err != nil {
		return err
	}
	i.rsdp = rsdp

	sdtVirt, entries, is64, err := rootTable(r, rsdp)
	if err != nil {
		return err
	}
	for _, e := range entries {
		header := r.Bytes(e, 4)
		sig := string(header)
		switch sig {
		case "MCFG":
			i.mcfg = e
		case "APIC":
			i.madt = e
		}
	}
	_ = sdtVirt
	_ = is64
	i.ready = true
	return nil
}

func findRSDP(r reader, base uintptr, length int) (uintptr, error) {
	for off := 0; off+16 <= length; off += 16 { // RSDP is always 16-byte aligned
		buf := r.Bytes(base+uintptr(off), 8)
		if string(buf) == string(rsdpSignature[:]) {
			return base + uintptr(off), nil
		}
	}
	return 0, ErrNotFound
}

// rootTable reads the RSDT (32-bit entries) or XSDT (64-bit entries)
// pointed at by the RSDP, returning the list of subtable physical
// addresses.
func rootTable(r reader, rsdp uintptr) (uintptr, []uintptr, bool, error) {
	revision := r.Bytes(rsdp+15, 1)[0]
	is64 := revision >= 2

	var sdtAddr uintptr
	if is64 {
		xsdtAddr := binary.LittleEndian.Uint64(r.Bytes(rsdp+24, 8))
		sdtAddr = uintptr(xsdtAddr)
	} else {
		rsdtAddr := binary.LittleEndian.Uint32(r.Bytes(rsdp+16, 4))
		sdtAddr = uintptr(rsdtAddr)
	}

	header := r.Bytes(sdtAddr, 36)
	length := binary.LittleEndian.Uint32(header[4:8])
	entrySize := 4
	if is64 {
		entrySize = 8
	}
	count := (int(length) - 36) / entrySize

	entries := make([]uintptr, 0, count)
	body := r.Bytes(sdtAddr+36, count*entrySize)
	for i := 0; i < count; i++ {
		if is64 {
			entries = append(entries, uintptr(binary.LittleEndian.Uint64(body[i*8:])))
		} else {
			entries = append(entries, uintptr(binary.LittleEndian.Uint32(body[i*4:])))
		}
	}
	return sdtAddr, entries, is64, nil
}

// MCFG returns the discovered MCFG table's physical address and whether
// one was found.
func (i *Info) MCFG() (uintptr, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.mcfg, i.mcfg != 0
}

// MADT returns the discovered MADT table's physical address and whether
// one was found.
func (i *Info) MADT() (uintptr, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.madt, i.madt != 0
}
