package postprocess

import (
	"github.com/oxyforge/corerender/common"
	"github.com/oxyforge/corerender/engine/framegraph"
	"github.com/oxyforge/corerender/engine/gal"
)

// fsr3IdleFrameLimit is the number of consecutive idle frames after which
// an FSR3 context is retired (spec.md §4.9 "retired if unused for >=6
// frames"; spec.md §8 scenario 5).
const fsr3IdleFrameLimit = 6

type fsr3Context struct {
	width, height     uint32
	framesSinceLastUse uint32
}

// FSR3 runs color+depth+motion through UpscaleShader into an output of the
// same size as the input; no separate display resolution is configured, so
// the output is never larger than the input. It keeps one context per
// distinct render resolution, each with an idle-frame counter rather than a
// reference count, and retires contexts unused for fsr3IdleFrameLimit
// consecutive frames (spec.md §4.9
// "FSR3 Upscaling"). Real FidelityFX dispatch has no Go binding in this
// ecosystem; UpscaleShader stands in for the vendor kernel, matching
// spec.md §7's "plugin self-disables" fallback when it is nil.
type FSR3 struct {
	Enabled bool

	UpscaleShader *gal.Program

	contexts []*fsr3Context
}

// NewFSR3 builds the FSR3 plugin, registered as an alternative RenderAA
// hook to TAA (spec.md §9: "at most one" AA plugin should be active).
func NewFSR3(upscaleShader *gal.Program) *framegraph.Plugin {
	f := &FSR3{Enabled: true, UpscaleShader: upscaleShader}
	return &framegraph.Plugin{Name: "fsr3", RenderAA: f.renderAA}
}

// ContextCount reports the number of live contexts, used by tests
// asserting retirement (spec.md §8 scenario 5).
func (f *FSR3) ContextCount() int { return len(f.contexts) }

// Tick ages every context by one frame and retires any that have gone
// fsr3IdleFrameLimit frames without a matching renderAA call. Call once
// per engine frame even on frames where renderAA is not invoked for a
// given resolution (e.g. a pipeline paused or hidden).
func (f *FSR3) Tick() {
	live := f.contexts[:0]
	for _, ctx := range f.contexts {
		ctx.framesSinceLastUse++
		if ctx.framesSinceLastUse >= fsr3IdleFrameLimit {
			continue
		}
		live = append(live, ctx)
	}
	f.contexts = live
}

func (f *FSR3) contextFor(w, h uint32) *fsr3Context {
	for _, ctx := range f.contexts {
		if ctx.width == w && ctx.height == h {
			ctx.framesSinceLastUse = 0
			return ctx
		}
	}
	ctx := &fsr3Context{width: w, height: h}
	f.contexts = append(f.contexts, ctx)
	return ctx
}

func (f *FSR3) renderAA(fg *framegraph.FrameGraph, gb framegraph.GBuffer, input framegraph.RenderbufferHandle) framegraph.RenderbufferHandle {
	if !f.Enabled || f.UpscaleShader == nil {
		fg.EnablePixelJitter(false)
		return input
	}

	tex := fg.ToTexture(input)
	if tex == nil {
		return input
	}
	f.contextFor(tex.Width, tex.Height)

	fg.EnablePixelJitter(true)
	fg.BeginBlock("fsr3")
	out, _ := fg.CreateRenderbuffer(framegraph.RenderbufferDesc{Width: tex.Width, Height: tex.Height, Format: gal.FormatRGBA16Float})
	ub := struct {
		Color, Depth, Motion uint32
		Output               uint32
	}{fg.ToBindless(input), fg.ToBindless(gb.DS), fg.ToBindless(gb.D), fg.ToRWBindless(out)}
	fg.SetUniform(common.StructToBytes(&ub))
	fg.Stream().UseProgram(f.UpscaleShader)
	fg.Dispatch((tex.Width+15)/16, (tex.Height+15)/16, 1)
	fg.EndBlock()
	return out
}
