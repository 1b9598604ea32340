package xhci

import "testing"

func TestMousePacketPackEncodesButtonsAndPosition(t *testing.T) {
	m := MousePacket{Left: true, Right: false, X: 100, Y: 200}
	got := m.Pack()

	want := uint64(1)<<63 | uint64(100)<<32 | uint64(200)
	if got != want {
		t.Fatalf("Pack() = 0x%x, want 0x%x", got, want)
	}
}

func TestMousePacketPackBothButtons(t *testing.T) {
	m := MousePacket{Left: true, Right: true, X: 0, Y: 0}
	got := m.Pack()

	want := uint64(1)<<63 | uint64(1)<<62
	if got != want {
		t.Fatalf("Pack() = 0x%x, want 0x%x", got, want)
	}
}

func TestMouseUnknownSlotReturnsZeroValue(t *testing.T) {
	var c Controller
	if got := c.Mouse(5); got != (MousePacket{}) {
		t.Fatalf("Mouse(unknown) = %+v, want zero value", got)
	}
}
