package xhci

import "testing"

func TestHCSParams2ScratchpadCount(t *testing.T) {
	// hi=3 (bits 21-25), lo=5 (bits 27-31) -> count = 3<<5 | 5 = 101
	v := uint32(3<<21 | 5<<27)
	if got := hcsparams2ScratchpadCount(v); got != 101 {
		t.Fatalf("scratchpad count = %d, want 101", got)
	}
}

func TestHCSParams1MaxSlotsAndPorts(t *testing.T) {
	v := uint32(16 | 4<<24)
	if got := hcsparams1MaxSlots(v); got != 16 {
		t.Fatalf("max slots = %d, want 16", got)
	}
	if got := hcsparams1MaxPorts(v); got != 4 {
		t.Fatalf("max ports = %d, want 4", got)
	}
}

func TestHCCParams1ExtCapPtr(t *testing.T) {
	v := uint32(0x40 << 16)
	if got := hccparams1ExtCapPtr(v); got != 0x40 {
		t.Fatalf("ext cap ptr = 0x%x, want 0x40", got)
	}
}
