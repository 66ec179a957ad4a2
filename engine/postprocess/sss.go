package postprocess

import (
	"github.com/oxyforge/corerender/common"
	"github.com/oxyforge/corerender/engine/framegraph"
	"github.com/oxyforge/corerender/engine/gal"
)

// SSS ray-marches screen-space shadows against depth and reprojects them
// against a history buffer (spec.md §4.9 "SSS").
type SSS struct {
	Enabled             bool
	MaxSteps            float32
	Stride              float32
	CurrentFrameWeight  float32

	Shader     *gal.Program // compute: ray-march into an R8 buffer
	BlitShader *gal.Program // compute: blend against history, write gbuffer.C

	history framegraph.RenderbufferHandle
}

// NewSSS builds the SSS plugin. CurrentFrameWeight defaults to 0.1,
// matching the fixed constant resolved in DESIGN.md's Open Question entry.
func NewSSS(shader, blit *gal.Program) *framegraph.Plugin {
	s := &SSS{MaxSteps: 20, Stride: 4, CurrentFrameWeight: 0.1, Shader: shader, BlitShader: blit}
	return &framegraph.Plugin{Name: "sss", RenderBeforeLightPass: s.renderBeforeLightPass}
}

func (s *SSS) renderBeforeLightPass(fg *framegraph.FrameGraph, gb framegraph.GBuffer) {
	if s.Shader == nil || s.BlitShader == nil {
		return
	}
	if !s.Enabled {
		s.history = 0
		return
	}

	depthTex := fg.ToTexture(gb.DS)
	if depthTex == nil {
		return
	}
	w, h := depthTex.Width, depthTex.Height

	fg.BeginBlock("sss")
	desc := framegraph.RenderbufferDesc{Width: w, Height: h, Format: gal.FormatR8Unorm, Flags: gal.TextureFlagComputeWrite | gal.TextureFlagRenderTarget}
	sssRB, _ := fg.CreateRenderbuffer(desc)

	if s.history == 0 {
		s.history, _ = fg.CreateRenderbuffer(desc)
		fg.SetRenderTargets([]framegraph.RenderbufferHandle{s.history}, 0)
		fg.Stream().Clear([4]float32{1, 1, 1, 1}, 1, true, true)
	}

	ub := struct {
		Size       [2]float32
		MaxSteps   float32
		Stride     float32
		Depth      uint32
		SSSBuffer  uint32
	}{[2]float32{float32(w), float32(h)}, s.MaxSteps, s.Stride, fg.ToBindless(gb.DS), fg.ToRWBindless(sssRB)}
	fg.SetUniform(common.StructToBytes(&ub))
	fg.Stream().UseProgram(s.Shader)
	fg.Dispatch((w+15)/16, (h+15)/16, 1)
	if t := fg.ToTexture(sssRB); t != nil {
		fg.Stream().MemoryBarrier(t)
	}

	ub2 := struct {
		Size               [2]float32
		CurrentFrameWeight float32
		_                  float32
		SSS                uint32
		History            uint32
		DepthBuf           uint32
		GBufferC           uint32
	}{[2]float32{float32(w), float32(h)}, s.CurrentFrameWeight, 0,
		fg.ToRWBindless(sssRB), fg.ToBindless(s.history), fg.ToBindless(gb.DS), fg.ToRWBindless(gb.C)}
	fg.SetUniform(common.StructToBytes(&ub2))
	fg.Stream().UseProgram(s.BlitShader)
	fg.Dispatch((w+15)/16, (h+15)/16, 1)
	if t := fg.ToTexture(gb.C); t != nil {
		fg.Stream().MemoryBarrier(t)
	}

	s.history = sssRB
	fg.EndBlock()
}
