package kernel

import "github.com/nyxkernel/nyxkernel/fb"

// drawFinishedOverlay paints a simple centered banner over the current
// framebuffer contents and flushes it, the "process finished" overlay
// dispatch entry 0 promises. Splash/overlay rendering is a trivial
// painter consumer per spec.md §1, so this stays a few gg calls rather
// than a dedicated compositor widget.
func drawFinishedOverlay() {
	p := fb.Global()
	ctx := p.Context()
	if ctx == nil {
		return
	}
	w, h := ctx.Width(), ctx.Height()
	ctx.SetRGBA(0, 0, 0, 0.75)
	ctx.DrawRectangle(0, float64(h)/2-20, float64(w), 40)
	ctx.Fill()
	ctx.SetRGB(1, 1, 1)
	ctx.DrawStringAnchored("process finished", float64(w)/2, float64(h)/2, 0.5, 0.5)
	p.Flush()
}

// abortBoot renders a red full-screen fault screen and halts, mirroring
// the teacher's abortBoot: a FATAL-class error (spec.md §7
// "Non-recoverable boot error") has no recovery path, so abortBoot never
// returns. Its caller is the double-fault handler, doubleFaultBody.
func abortBoot(stage string, err error) {
	kmsgWriteFatal(stage, err)
	p := fb.Global()
	if ctx := p.Context(); ctx != nil {
		ctx.SetRGB(0.6, 0, 0)
		ctx.Clear()
		ctx.SetRGB(1, 1, 1)
		ctx.DrawStringAnchored("FATAL: "+stage, float64(ctx.Width())/2, float64(ctx.Height())/2, 0.5, 0.5)
		p.Flush()
	}
	for {
		disableAndHalt()
	}
}
