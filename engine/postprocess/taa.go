package postprocess

import (
	"github.com/oxyforge/corerender/common"
	"github.com/oxyforge/corerender/engine/framegraph"
	"github.com/oxyforge/corerender/engine/gal"
)

// TAA jitters the projection, blends against a history buffer with
// neighborhood clamp using motion vectors, and produces the current
// frame as the next frame's history. Disabling TAA also disables pixel
// jitter (spec.md §4.9 "TAA").
type TAA struct {
	Enabled bool

	ResolveShader      *gal.Program // compute: history blend + clamp
	TexturedQuadShader *gal.Program // graphics: blit resolved taa_tmp to output

	history framegraph.RenderbufferHandle
}

// NewTAA builds the TAA plugin, registered as the frame graph's sole
// RenderAA hook.
func NewTAA(resolve, texturedQuad *gal.Program) *framegraph.Plugin {
	t := &TAA{Enabled: true, ResolveShader: resolve, TexturedQuadShader: texturedQuad}
	return &framegraph.Plugin{Name: "taa", RenderAA: t.renderAA}
}

func (t *TAA) renderAA(fg *framegraph.FrameGraph, gb framegraph.GBuffer, hdr framegraph.RenderbufferHandle) framegraph.RenderbufferHandle {
	if t.ResolveShader == nil || t.TexturedQuadShader == nil {
		fg.EnablePixelJitter(false)
		return hdr
	}
	if !t.Enabled {
		t.history = 0
		fg.EnablePixelJitter(false)
		return hdr
	}

	fg.EnablePixelJitter(true)
	fg.BeginBlock("taa")

	hdrTex := fg.ToTexture(hdr)
	if hdrTex == nil {
		fg.EndBlock()
		return hdr
	}
	w, h := hdrTex.Width, hdrTex.Height
	desc := framegraph.RenderbufferDesc{Width: w, Height: h, Format: gal.FormatRGBA16Float, Flags: gal.TextureFlagRenderTarget | gal.TextureFlagNoMips | gal.TextureFlagComputeWrite}

	if t.history == 0 {
		t.history, _ = fg.CreateRenderbuffer(desc)
		fg.SetRenderTargets([]framegraph.RenderbufferHandle{t.history}, 0)
		fg.Stream().Clear([4]float32{1, 1, 1, 1}, 1, true, true)
	}

	taaTmp, _ := fg.CreateRenderbuffer(desc)
	ub := struct {
		Size          [2]float32
		History       uint32
		Current       uint32
		MotionVectors uint32
		Output        uint32
	}{[2]float32{float32(w), float32(h)}, fg.ToBindless(t.history), fg.ToBindless(hdr), fg.ToBindless(gb.D), fg.ToRWBindless(taaTmp)}
	fg.SetUniform(common.StructToBytes(&ub))
	fg.Stream().UseProgram(t.ResolveShader)
	fg.Dispatch((w+15)/16, (h+15)/16, 1)

	if tex := fg.ToTexture(taaTmp); tex != nil {
		fg.Stream().MemoryBarrier(tex)
	}

	taaOutput, _ := fg.CreateRenderbuffer(framegraph.RenderbufferDesc{Width: w, Height: h, Format: gal.FormatRGBA16Float})
	fg.SetRenderTargets([]framegraph.RenderbufferHandle{taaOutput}, 0)
	fg.SetUniform(common.StructToBytes(&struct{ Texture uint32 }{fg.ToBindless(taaTmp)}))
	useProgramAndDraw(fg, t.TexturedQuadShader, 0, 3)

	t.history = taaTmp
	fg.EndBlock()
	return taaOutput
}
