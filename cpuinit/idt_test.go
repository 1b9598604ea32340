package cpuinit

import "testing"

func TestSetHandlerSplitsOffset(t *testing.T) {
	var c CPU
	const handler = uintptr(0x1122334455667788)
	c.SetHandler(vectorPageFault, handler, 0)

	e := c.idt[vectorPageFault]
	got := uint64(e.offsetLo) | uint64(e.offsetMid)<<16 | uint64(e.offsetHi)<<32
	if got != uint64(handler) {
		t.Fatalf("reassembled handler = 0x%x, want 0x%x", got, uint64(handler))
	}
	if e.selector != SelectorKernelCode {
		t.Fatalf("selector = 0x%x, want 0x%x", e.selector, SelectorKernelCode)
	}
}

func TestSetHandlerEncodesIST(t *testing.T) {
	var c CPU
	c.SetHandler(vectorDoubleFault, 0, ISTDoubleFault)
	if c.idt[vectorDoubleFault].istFlags&0x7 != ISTDoubleFault {
		t.Fatalf("IST field not encoded in double-fault gate")
	}
}
