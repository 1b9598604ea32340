package fb

import (
	"testing"
	"unsafe"
)

func newTestDescriptor(backing []byte, w, h int, format PixelFormat, bpp int) Descriptor {
	return Descriptor{
		BaseVirt:      uintptr(unsafe.Pointer(&backing[0])),
		Width:         w,
		Height:        h,
		Stride:        w * bpp,
		BytesPerPixel: bpp,
		Format:        format,
	}
}

func TestWritePixelRGB(t *testing.T) {
	backing := make([]byte, 3*3*3)
	desc := newTestDescriptor(backing, 3, 3, FormatRGB, 3)

	writePixel(desc, 1, 1, 0x10203040)

	off := 1*desc.Stride + 1*3
	if backing[off] != 0x10 || backing[off+1] != 0x20 || backing[off+2] != 0x30 {
		t.Fatalf("RGB bytes = %x, want 10 20 30", backing[off:off+3])
	}
}

func TestWritePixelBGR(t *testing.T) {
	backing := make([]byte, 3*3*3)
	desc := newTestDescriptor(backing, 3, 3, FormatBGR, 3)

	writePixel(desc, 0, 0, 0x10203040)

	if backing[0] != 0x30 || backing[1] != 0x20 || backing[2] != 0x10 {
		t.Fatalf("BGR bytes = %x, want 30 20 10", backing[0:3])
	}
}

func TestWritePixelU8Luminance(t *testing.T) {
	backing := make([]byte, 3*3)
	desc := newTestDescriptor(backing, 3, 3, FormatU8, 1)

	writePixel(desc, 2, 0, 0xFFFFFF00)

	if backing[2] != 0xFF {
		t.Fatalf("U8 byte = %x, want ff (white)", backing[2])
	}
}
