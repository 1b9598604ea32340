package bitfield

import "testing"

func TestWord32Bits(t *testing.T) {
	tests := []struct {
		name string
		w    Word32
		lo   uint
		hi   uint
		want uint32
	}{
		{"low nibble", 0xAB, 0, 3, 0xB},
		{"high nibble", 0xAB, 4, 7, 0xA},
		{"single bit set", 0x2, 1, 1, 1},
		{"single bit clear", 0x1, 1, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.w.Bits(tt.lo, tt.hi); got != tt.want {
				t.Errorf("Bits(%d,%d) = 0x%x, want 0x%x", tt.lo, tt.hi, got, tt.want)
			}
		})
	}
}

func TestWord32WithBitsRoundTrip(t *testing.T) {
	var w Word32
	w = w.WithBits(0, 3, 0xB)
	w = w.WithBits(4, 7, 0xA)
	if w != 0xAB {
		t.Errorf("got 0x%x, want 0xAB", w)
	}
	if got := w.Bits(0, 3); got != 0xB {
		t.Errorf("low nibble = 0x%x, want 0xB", got)
	}
	if got := w.Bits(4, 7); got != 0xA {
		t.Errorf("high nibble = 0x%x, want 0xA", got)
	}
}

func TestWord32Bit(t *testing.T) {
	var w Word32
	w = w.WithBit(0, true)
	w = w.WithBit(1, true)
	if !w.Bit(0) || !w.Bit(1) {
		t.Fatalf("expected bits 0 and 1 set, got 0x%x", w)
	}
	if w.Bit(2) {
		t.Fatalf("bit 2 should be clear, got 0x%x", w)
	}
	w = w.WithBit(0, false)
	if w.Bit(0) {
		t.Fatalf("bit 0 should have cleared")
	}
}

func TestWord64Bits(t *testing.T) {
	var w Word64
	w = w.WithBits(32, 63, 0xDEADBEEF)
	w = w.WithBits(0, 31, 0xCAFEBABE)
	if got := w.Bits(32, 63); got != 0xDEADBEEF {
		t.Errorf("high dword = 0x%x, want 0xDEADBEEF", got)
	}
	if got := w.Bits(0, 31); got != 0xCAFEBABE {
		t.Errorf("low dword = 0x%x, want 0xCAFEBABE", got)
	}
}
