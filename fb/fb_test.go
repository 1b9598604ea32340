package fb

import "testing"

func TestScreenInfoPacksWidthHeight(t *testing.T) {
	var p Painter
	p.Init(Descriptor{Width: 1920, Height: 1080, BytesPerPixel: 4, Format: FormatRGB})

	got := p.ScreenInfo()
	want := uint64(1920)<<32 | uint64(1080)
	if got != want {
		t.Fatalf("ScreenInfo() = 0x%x, want 0x%x", got, want)
	}
}

func TestBlitRectRejectsOversizedDimensions(t *testing.T) {
	var p Painter
	p.Init(Descriptor{Width: 4000, Height: 4000, BytesPerPixel: 4, Format: FormatRGB})

	err := p.BlitRect(0, 0, maxBlitDim, 10, make([]uint32, maxBlitDim*10))
	if err != errTooLarge {
		t.Fatalf("err = %v, want errTooLarge", err)
	}
}

func TestBlitRectRejectsShortSource(t *testing.T) {
	var p Painter
	p.Init(Descriptor{Width: 100, Height: 100, BytesPerPixel: 4, Format: FormatRGB})

	err := p.BlitRect(0, 0, 10, 10, make([]uint32, 5))
	if err != errShortBuffer {
		t.Fatalf("err = %v, want errShortBuffer", err)
	}
}

func TestPutPixelOutOfBoundsIsNoOp(t *testing.T) {
	var p Painter
	p.Init(Descriptor{Width: 10, Height: 10, BytesPerPixel: 4, Format: FormatRGB})

	// Must not panic for out-of-range coordinates.
	p.PutPixel(-1, 0, 0xFF0000FF)
	p.PutPixel(0, 100, 0xFF0000FF)
}
