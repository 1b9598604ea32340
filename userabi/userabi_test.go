package userabi

import "testing"

func TestMousePacketDecodeMatchesPackLayout(t *testing.T) {
	w := uint64(1)<<63 | uint64(1)<<62 | uint64(42)<<32 | uint64(7)
	got := decodeMousePacket(w)
	want := MousePacket{Left: true, Right: true, X: 42, Y: 7}
	if got != want {
		t.Fatalf("decoded = %+v, want %+v", got, want)
	}
}
