package kernel

import "testing"

func TestMousePacketNoControllerReturnsZero(t *testing.T) {
	saved := mouseCtrl
	mouseCtrl = nil
	defer func() { mouseCtrl = saved }()

	if got := mousePacket(); got != 0 {
		t.Fatalf("mousePacket() with no controller = %d, want 0", got)
	}
}

func TestMapFramebufferSyscallNoFramebufferReturnsZero(t *testing.T) {
	savedFB, savedMapped := bootFramebuffer, framebufferMapped
	bootFramebuffer, framebufferMapped = nil, false
	defer func() { bootFramebuffer, framebufferMapped = savedFB, savedMapped }()

	if got := mapFramebufferSyscall(); got != 0 {
		t.Fatalf("mapFramebufferSyscall() with no framebuffer = %d, want 0", got)
	}
}

func TestMapFramebufferSyscallAlreadyMappedReturnsZero(t *testing.T) {
	savedFB, savedMapped := bootFramebuffer, framebufferMapped
	bootFramebuffer = &FramebufferHandoff{}
	framebufferMapped = true
	defer func() { bootFramebuffer, framebufferMapped = savedFB, savedMapped }()

	if got := mapFramebufferSyscall(); got != 0 {
		t.Fatalf("mapFramebufferSyscall() already mapped = %d, want 0", got)
	}
}

func TestUnsafePixelSliceZeroAddressIsNil(t *testing.T) {
	if got := unsafePixelSlice(0, 4); got != nil {
		t.Fatalf("unsafePixelSlice(0, 4) = %v, want nil", got)
	}
}

func TestUnsafePixelSliceNonPositiveCountIsNil(t *testing.T) {
	if got := unsafePixelSlice(0x1000, 0); got != nil {
		t.Fatalf("unsafePixelSlice(addr, 0) = %v, want nil", got)
	}
}
