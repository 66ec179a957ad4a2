package postprocess

import (
	"github.com/oxyforge/corerender/common"
	"github.com/oxyforge/corerender/engine/framegraph"
	"github.com/oxyforge/corerender/engine/gal"
)

// SSAO computes an ambient occlusion buffer from the gbuffer normal
// channel and depth, then blits it back into gbuffer.B's AO channel
// (spec.md §4.9 "SSAO"). The occlusion buffer is RGBA8 at gbuffer.B's full
// resolution; it is not half-res and not R8.
type SSAO struct {
	Enabled   bool
	Radius    float32
	Intensity float32

	OcclusionShader *gal.Program // compute: writes an RGBA8 occlusion buffer
	BlitShader      *gal.Program // compute: merges occlusion into gbuffer.B
}

// NewSSAO builds the SSAO plugin.
func NewSSAO(occlusion, blit *gal.Program) *framegraph.Plugin {
	s := &SSAO{Enabled: true, Radius: 0.2, Intensity: 3, OcclusionShader: occlusion, BlitShader: blit}
	return &framegraph.Plugin{Name: "ssao", RenderBeforeLightPass: s.renderBeforeLightPass}
}

func (s *SSAO) renderBeforeLightPass(fg *framegraph.FrameGraph, gb framegraph.GBuffer) {
	if !s.Enabled || s.OcclusionShader == nil || s.BlitShader == nil {
		return
	}
	normalTex := fg.ToTexture(gb.B)
	if normalTex == nil {
		return
	}
	w, h := normalTex.Width, normalTex.Height

	fg.BeginBlock("ssao")
	ssaoRB, _ := fg.CreateRenderbuffer(framegraph.RenderbufferDesc{Width: w, Height: h, Format: gal.FormatRGBA8Unorm, Flags: gal.TextureFlagComputeWrite})

	ub := struct {
		Radius, Intensity, Width, Height float32
		NormalBuffer, DepthBuffer        uint32
		Output                           uint32
	}{s.Radius, s.Intensity, float32(w), float32(h), fg.ToBindless(gb.B), fg.ToBindless(gb.DS), fg.ToRWBindless(ssaoRB)}
	fg.SetUniform(common.StructToBytes(&ub))
	fg.Stream().UseProgram(s.OcclusionShader)
	fg.Dispatch((w+15)/16, (h+15)/16, 1)

	ub2 := struct {
		Size     [2]float32
		SSAOBuf  uint32
		GBufferB uint32
	}{[2]float32{float32(w), float32(h)}, fg.ToBindless(ssaoRB), fg.ToRWBindless(gb.B)}

	if t := fg.ToTexture(ssaoRB); t != nil {
		fg.Stream().MemoryBarrier(t)
	}
	fg.SetUniform(common.StructToBytes(&ub2))
	if t := fg.ToTexture(gb.B); t != nil {
		fg.Stream().BarrierWrite(t)
	}
	fg.Stream().UseProgram(s.BlitShader)
	fg.Dispatch((w+15)/16, (h+15)/16, 1)
	fg.EndBlock()
}
