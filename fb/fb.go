// Package fb is the framebuffer painter (spec.md §4's "Framebuffer
// painter: pixel, rect, glyph operations over a raw buffer"): pixel-format
// conversion across the bootloader's three reported formats, a bounded
// rect blit, and a scrollback terminal window glyph renderer.
//
// Grounded on the teacher's `gg_circle_qemu.go`: a lazily-initialized
// `gg.Context` backed by an `image.RGBA`, drawn into and then flushed back
// to the real framebuffer with an explicit per-pixel format conversion —
// here generalized from "always Bochs BGRX" to any of spec.md's three
// reported pixel formats (RGB, BGR, U8).
package fb

import (
	"image"
	"sync"

	"github.com/fogleman/gg"
)

// PixelFormat identifies one of the bootloader-reported framebuffer
// layouts (spec.md §6 "pixel-format ∈ {RGB, BGR, U8}").
type PixelFormat int

const (
	FormatRGB PixelFormat = iota
	FormatBGR
	FormatU8
)

// Descriptor is the bootloader's framebuffer handoff record (spec.md §6).
type Descriptor struct {
	BaseVirt uintptr
	Width    int
	Height   int
	Stride   int
	BytesPerPixel int
	Format   PixelFormat
}

// Painter owns the shared framebuffer per spec.md §3's ownership summary:
// "shared between kernel (compositor, panic render) and one user task via
// an explicit virtual-address mapping". All paint operations serialize
// under mu, matching spec.md §4.3's "put_pixel ... serialized under
// interrupts-off" rule translated to this package's lock.
type Painter struct {
	mu   sync.Mutex
	desc Descriptor
	gg   *gg.Context
	ready bool
}

var global Painter

// Global returns the kernel's shared framebuffer painter singleton, per
// spec.md §9's global-mutable-state resolution (the same
// once-initialized, mutex-guarded pattern as memory.Manager).
func Global() *Painter { return &global }

// Init attaches the painter to the bootloader-reported framebuffer
// descriptor and allocates the gg backbuffer.
func (p *Painter) Init(desc Descriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.desc = desc
	p.gg = gg.NewContext(desc.Width, desc.Height)
	p.ready = true
}

// ScreenInfo implements syscall 6: "(w<<32)|h".
func (p *Painter) ScreenInfo() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return uint64(uint32(p.desc.Width))<<32 | uint64(uint32(p.desc.Height))
}

// PutPixel implements syscall 4: set one pixel to an 0xRRGGBBAA-packed
// color, converting to the descriptor's native pixel format.
func (p *Painter) PutPixel(x, y int, rgba uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready || x < 0 || y < 0 || x >= p.desc.Width || y >= p.desc.Height {
		return
	}
	writePixel(p.desc, x, y, rgba)
}

// maxBlitDim is spec.md §4.3's bound on blit_rect: "bounded (w<3000,
// h<3000)".
const maxBlitDim = 3000

// BlitRect implements syscall 5: copy a w*h rect of packed 0xRRGGBBAA
// pixels from src into the framebuffer at (x, y), converting per-pixel to
// the descriptor's native format. Fails closed if w or h is maxBlitDim or
// more, or src is short.
func (p *Painter) BlitRect(x, y, w, h int, src []uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		return errNotReady
	}
	if w < 0 || h < 0 || w >= maxBlitDim || h >= maxBlitDim {
		return errTooLarge
	}
	if len(src) < w*h {
		return errShortBuffer
	}
	for row := 0; row < h; row++ {
		py := y + row
		if py < 0 || py >= p.desc.Height {
			continue
		}
		for col := 0; col < w; col++ {
			px := x + col
			if px < 0 || px >= p.desc.Width {
				continue
			}
			writePixel(p.desc, px, py, src[row*w+col])
		}
	}
	return nil
}

// Context exposes the backing gg.Context for higher-level drawing (the
// compositor's window chrome, the panic-screen red-fill, and the
// terminal's glyph blits all draw through it before Flush copies the
// backbuffer out to the real framebuffer memory).
func (p *Painter) Context() *gg.Context {
	return p.gg
}

// Flush copies the gg RGBA backbuffer into the real framebuffer, applying
// the descriptor's pixel-format conversion per pixel — the same
// responsibility as the teacher's flushGGToFramebuffer, generalized
// beyond a single hardcoded Bochs BGRX layout.
func (p *Painter) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		return
	}
	im, ok := p.gg.Image().(*image.RGBA)
	if !ok {
		return
	}
	for py := 0; py < p.desc.Height; py++ {
		for px := 0; px < p.desc.Width; px++ {
			i := im.PixOffset(px, py)
			r, g, b, a := im.Pix[i], im.Pix[i+1], im.Pix[i+2], im.Pix[i+3]
			rgba := uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a)
			writePixel(p.desc, px, py, rgba)
		}
	}
}
