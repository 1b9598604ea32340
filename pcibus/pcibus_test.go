package pcibus

import "testing"

func TestConfigAddressPacksBusDeviceFunction(t *testing.T) {
	f := Function{Bus: 1, Device: 2, Func: 3}
	addr := configAddress(f, 0x08)
	if addr&(1<<31) == 0 {
		t.Fatal("enable bit not set")
	}
	if (addr>>16)&0xFF != 1 {
		t.Fatalf("bus field = %d, want 1", (addr>>16)&0xFF)
	}
	if (addr>>11)&0x1F != 2 {
		t.Fatalf("device field = %d, want 2", (addr>>11)&0x1F)
	}
	if (addr>>8)&0x7 != 3 {
		t.Fatalf("function field = %d, want 3", (addr>>8)&0x7)
	}
	if addr&0xFC != 0x08 {
		t.Fatalf("offset field = 0x%x, want 0x08", addr&0xFC)
	}
}

func TestMaskBARMemorySpace(t *testing.T) {
	got := maskBAR(0xFEBFF00C) // memory BAR, prefetchable, 64-bit type bits set
	if got&0xF != 0 {
		t.Fatalf("memory BAR low bits not masked: 0x%x", got)
	}
}

func TestMaskBARIOSpace(t *testing.T) {
	got := maskBAR(0x0000D001) // I/O BAR
	if got&0x3 != 0 {
		t.Fatalf("I/O BAR low bits not masked: 0x%x", got)
	}
}

func TestFindClassMatches(t *testing.T) {
	all := []Info{
		{Function: Function{Bus: 0, Device: 1}, Class: 0x0C, Subclass: 0x03, ProgIF: 0x30},
		{Function: Function{Bus: 0, Device: 2}, Class: 0x01, Subclass: 0x08},
	}
	got, ok := FindClass(all, 0x01, 0x08)
	if !ok || got.Device != 2 {
		t.Fatalf("FindClass(0x01,0x08) = %+v, %v", got, ok)
	}
	_, ok = FindClass(all, 0x02, 0x00)
	if ok {
		t.Fatal("FindClass matched a class that isn't present")
	}
}
