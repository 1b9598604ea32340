package ahci

import (
	"testing"
	"unsafe"

	"github.com/nyxkernel/nyxkernel/hwio"
)

func TestBuildCommandEncodesLBA48(t *testing.T) {
	table := make([]byte, 32)
	p := &Port{cmdTable: uintptr(unsafe.Pointer(&table[0]))}

	const lba = uint64(0x0102030405)
	p.buildCommand(lba, fisH2DCommandRead, false)

	if table[0] != 0x27 {
		t.Fatalf("FIS type = 0x%x, want 0x27", table[0])
	}
	if table[2] != fisH2DCommandRead {
		t.Fatalf("command = 0x%x, want 0x%x", table[2], fisH2DCommandRead)
	}
	gotLow := uint32(table[4]) | uint32(table[5])<<8 | uint32(table[6])<<16
	if gotLow != uint32(lba&0xFFFFFF) {
		t.Fatalf("low LBA bytes = 0x%x, want 0x%x", gotLow, lba&0xFFFFFF)
	}
	gotHigh := uint32(table[8]) | uint32(table[9])<<8 | uint32(table[10])<<16
	if gotHigh != uint32(lba>>24) {
		t.Fatalf("high LBA bytes = 0x%x, want 0x%x", gotHigh, lba>>24)
	}
	count := hwio.Read16(uintptr(unsafe.Pointer(&table[12])))
	if count != 1 {
		t.Fatalf("sector count = %d, want 1", count)
	}
}

func TestReadBlockRejectsWrongBufferSize(t *testing.T) {
	var p Port
	err := p.ReadBlock(0, make([]byte, 4096))
	if err != errBufferSize {
		t.Fatalf("err = %v, want errBufferSize", err)
	}
}

func TestImplementedPortsDecodesBitmap(t *testing.T) {
	region := make([]byte, 0x200)
	bar5 := uintptr(unsafe.Pointer(&region[0]))
	hwio.Write32(bar5+regPI, 0b1011)

	got := ImplementedPorts(bar5)
	want := []int{0, 1, 3}
	if len(got) != len(want) {
		t.Fatalf("ports = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ports = %v, want %v", got, want)
		}
	}
}
