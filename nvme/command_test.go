package nvme

import (
	"testing"
	"unsafe"

	"github.com/nyxkernel/nyxkernel/hwio"
)

func TestWriteCommandRoundTrips(t *testing.T) {
	queue := make([]byte, cmdSize*4)
	base := uintptr(unsafe.Pointer(&queue[0]))

	cmd := command{
		opcode: opRead,
		nsid:   7,
		prp1:   0xDEADBEEF000,
		cdw10:  0x1234,
		cdw11:  0x5678,
	}
	writeCommand(base, 1, cmd)

	gotOpcode := hwio.Read32(base+1*cmdSize) & 0xFF
	if gotOpcode != uint32(opRead) {
		t.Fatalf("opcode = %d, want %d", gotOpcode, opRead)
	}
	gotNsid := hwio.Read32(base + 1*cmdSize + 4)
	if gotNsid != 7 {
		t.Fatalf("nsid = %d, want 7", gotNsid)
	}
	gotPRP1 := hwio.Read64(base + 1*cmdSize + 24)
	if gotPRP1 != 0xDEADBEEF000 {
		t.Fatalf("prp1 = 0x%x, want 0xDEADBEEF000", gotPRP1)
	}
}

func TestCompletionStatusExtractsPhaseAndCode(t *testing.T) {
	queue := make([]byte, cqeSize*2)
	base := uintptr(unsafe.Pointer(&queue[0]))

	// status-phase dword: phase=1, status code = 5 (bits 1..9)
	hwio.Write32(base+cqeSize+12, (5<<1)|1)

	sc, phase := completionStatus(base, 1)
	if !phase {
		t.Fatal("expected phase bit set")
	}
	if sc != 5 {
		t.Fatalf("status code = %d, want 5", sc)
	}
}
