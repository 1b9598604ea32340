package fb

import (
	"image"
	"image/draw"
	"sync"

	"github.com/golang/freetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Terminal is the scrollback window syscall 1 (putchar) appends to
// (spec.md §4.3: "appends to terminal window"). Glyphs rasterize via a
// freetype.Context when a TTF has been embedded, falling back to
// golang.org/x/image/font/basicfont.Face7x13 otherwise — mirroring the
// teacher's gg_circle_qemu.go lazy-initialization idiom, generalized from
// "always draw a circle" to "always have a usable glyph source".
type Terminal struct {
	mu sync.Mutex

	painter *Painter
	face    font.Face
	ttf     *freetype.Context

	cols, rows   int
	cellW, cellH int
	col, row     int
}

const (
	defaultCellW = 7
	defaultCellH = 13
)

// NewTerminal builds a terminal window over p sized to fit its current
// framebuffer descriptor, using the basic bitmap font by default.
func NewTerminal(p *Painter) *Terminal {
	t := &Terminal{
		painter: p,
		face:    basicfont.Face7x13,
		cellW:   defaultCellW,
		cellH:   defaultCellH,
	}
	t.cols = p.desc.Width / t.cellW
	t.rows = p.desc.Height / t.cellH
	return t
}

// UseTTF switches glyph rendering to an embedded TrueType font, matching
// the teacher's freetype.Context initialization pattern. Passing nil data
// reverts to the basicfont fallback.
func (t *Terminal) UseTTF(data []byte, size float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if data == nil {
		t.ttf = nil
		return nil
	}
	f, err := freetype.ParseFont(data)
	if err != nil {
		return err
	}
	dst := t.painter.Context().Image().(*image.RGBA)
	ctx := freetype.NewContext()
	ctx.SetFont(f)
	ctx.SetFontSize(size)
	ctx.SetDst(dst)
	ctx.SetClip(dst.Bounds())
	ctx.SetSrc(image.White)
	t.ttf = ctx
	return nil
}

var _ draw.Image = (*image.RGBA)(nil) // freetype.Context.SetDst requires draw.Image

// PutChar implements syscall 1: append c to the terminal, advancing the
// cursor and wrapping back to the top row when the window fills, per
// spec.md's "appends to terminal window" note.
func (t *Terminal) PutChar(c byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c == '\n' {
		t.newline()
		return
	}

	t.drawGlyph(c)
	t.col++
	if t.col >= t.cols {
		t.newline()
	}
}

func (t *Terminal) newline() {
	t.col = 0
	t.row++
	if t.row >= t.rows {
		t.scroll()
	}
}

// scroll resets the drawing cursor to the top row. Rows already drawn are
// neither moved nor cleared, so new glyphs draw over them — a known
// simplification versus a true framebuffer memmove scroll.
func (t *Terminal) scroll() {
	t.row = 0
}

func (t *Terminal) drawGlyph(c byte) {
	x := t.col * t.cellW
	y := t.row * t.cellH

	if t.ttf != nil {
		pt := freetype.Pt(x, y+t.cellH)
		t.ttf.DrawString(string(c), pt)
		return
	}

	t.painter.Context().SetRGB(1, 1, 1)
	t.painter.Context().DrawString(string(c), float64(x), float64(y+t.cellH))
}
