package cpuinit

import "testing"

func TestCodeDescriptorFlatLongMode(t *testing.T) {
	d := codeDescriptor(0)
	if d&(1<<segBitPresent) == 0 {
		t.Fatal("code descriptor must be present")
	}
	if d&(1<<segBitLongMode) == 0 {
		t.Fatal("code descriptor must set the long-mode bit")
	}
	if d&(1<<segBitExecute) == 0 {
		t.Fatal("code descriptor must set the executable bit")
	}
}

func TestDataDescriptorDPL(t *testing.T) {
	user := dataDescriptor(3)
	dpl := (user >> segBitDPLLo) & 0x3
	if dpl != 3 {
		t.Fatalf("user data descriptor DPL = %d, want 3", dpl)
	}
	kernel := dataDescriptor(0)
	dpl = (kernel >> segBitDPLLo) & 0x3
	if dpl != 0 {
		t.Fatalf("kernel data descriptor DPL = %d, want 0", dpl)
	}
}

func TestTSSDescriptorSplitsBase(t *testing.T) {
	const base = uintptr(0x0000ABCD12345678)
	lo, hi := tssDescriptor(base, 0x67)
	gotLimit := lo & 0xFFFF
	if gotLimit != 0x67 {
		t.Fatalf("limit = 0x%x, want 0x67", gotLimit)
	}
	gotBaseLo := (lo >> 16) & 0xFFFFFF
	gotBaseHi := (lo >> 56) & 0xFF
	reassembled := gotBaseLo | gotBaseHi<<24 | hi<<32
	if reassembled != uint64(base) {
		t.Fatalf("reassembled base = 0x%x, want 0x%x", reassembled, uint64(base))
	}
}

func TestPackGateEncodesISTAndPresent(t *testing.T) {
	g := packGate(SelectorKernelCode, ISTDoubleFault, 0)
	if g&(1<<idtBitPresent) == 0 {
		t.Fatal("gate must be marked present")
	}
	if g&0x7 != ISTDoubleFault {
		t.Fatalf("IST field = %d, want %d", g&0x7, ISTDoubleFault)
	}
}
