package fb

import (
	"errors"

	"github.com/nyxkernel/nyxkernel/hwio"
)

var (
	errNotReady    = errors.New("fb: painter not initialized")
	errTooLarge    = errors.New("fb: blit_rect dimensions exceed the 3000x3000 bound")
	errShortBuffer = errors.New("fb: source buffer shorter than w*h")
)

// writePixel converts a 0xRRGGBBAA-packed color to desc's native pixel
// format and stores it at (x, y). Bounds are the caller's responsibility.
func writePixel(desc Descriptor, x, y int, rgba uint32) {
	addr := desc.BaseVirt + uintptr(y*desc.Stride) + uintptr(x*desc.BytesPerPixel)
	r := byte(rgba >> 24)
	g := byte(rgba >> 16)
	b := byte(rgba >> 8)

	switch desc.Format {
	case FormatRGB:
		hwio.Write8(addr, r)
		hwio.Write8(addr+1, g)
		hwio.Write8(addr+2, b)
	case FormatBGR:
		hwio.Write8(addr, b)
		hwio.Write8(addr+1, g)
		hwio.Write8(addr+2, r)
	case FormatU8:
		hwio.Write8(addr, luminance(r, g, b))
	}
}

// luminance converts RGB to a single grayscale byte using the standard
// Rec. 601 weights, for the U8 (single-channel) framebuffer format.
func luminance(r, g, b byte) byte {
	return byte((299*uint32(r) + 587*uint32(g) + 114*uint32(b)) / 1000)
}
