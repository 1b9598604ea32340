package acpi

import (
	"encoding/binary"
	"testing"
)

// fakeMemory implements reader over a single flat byte slice, treating
// slice index == "physical/virtual address" for test simplicity.
type fakeMemory struct {
	data []byte
}

func (m *fakeMemory) Bytes(virt uintptr, n int) []byte {
	return m.data[virt : virt+uintptr(n)]
}

func buildFakeACPI() *fakeMemory {
	const (
		biosBase = 0
		biosLen  = 0x20000
		rsdpOff  = 0x1000
		xsdtOff  = 0x2000
		mcfgOff  = 0x3000
		madtOff  = 0x4000
	)
	data := make([]byte, 0x8000)

	copy(data[rsdpOff:], rsdpSignature[:])
	data[rsdpOff+15] = 2 // ACPI 2.0+: use XSDT
	binary.LittleEndian.PutUint64(data[rsdpOff+24:], uint64(xsdtOff))

	copy(data[xsdtOff:], []byte("XSDT"))
	binary.LittleEndian.PutUint32(data[xsdtOff+4:], 36+2*8) // header + 2 entries
	binary.LittleEndian.PutUint64(data[xsdtOff+36:], uint64(mcfgOff))
	binary.LittleEndian.PutUint64(data[xsdtOff+44:], uint64(madtOff))

	copy(data[mcfgOff:], []byte("MCFG"))
	copy(data[madtOff:], []byte("APIC"))

	_ = biosBase
	_ = biosLen
	return &fakeMemory{data: data}
}

func TestInitFindsMCFGAndMADT(t *testing.T) {
	mem := buildFakeACPI()
	var info Info
	if err := info.Init(mem, 0, 0x20000); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, ok := info.MCFG(); !ok {
		t.Fatal("MCFG not found")
	}
	if _, ok := info.MADT(); !ok {
		t.Fatal("MADT not found")
	}
}

func TestInitReturnsNotFoundWithNoRSDP(t *testing.T) {
	mem := &fakeMemory{data: make([]byte, 0x20000)}
	var info Info
	err := info.Init(mem, 0, 0x20000)
	if err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
