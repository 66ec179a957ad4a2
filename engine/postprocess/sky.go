package postprocess

import (
	"github.com/oxyforge/corerender/common"
	"github.com/oxyforge/corerender/engine/framegraph"
	"github.com/oxyforge/corerender/engine/gal"
)

// CubemapSky draws a stencil-masked full-screen pass (only where the
// gbuffer stencil is zero, i.e. nothing was rasterized) sampling the
// environment's cubemap (spec.md §4.9 "Cubemap Sky"). The equal-to-zero
// stencil test is baked into the Shader's StateWord by the caller; this
// plugin only binds the target and draws.
type CubemapSky struct {
	Environment *Environment
	Shader      *gal.Program
}

// NewCubemapSky builds the CubemapSky plugin.
func NewCubemapSky(env *Environment, shader *gal.Program) *framegraph.Plugin {
	s := &CubemapSky{Environment: env, Shader: shader}
	return &framegraph.Plugin{Name: "sky", RenderBeforeTransparent: s.renderBeforeTransparent}
}

func (s *CubemapSky) renderBeforeTransparent(fg *framegraph.FrameGraph, gb framegraph.GBuffer, input framegraph.RenderbufferHandle) framegraph.RenderbufferHandle {
	if s.Shader == nil {
		return input
	}
	env := s.Environment
	if env == nil || !env.Enabled || env.CubemapSky == nil {
		return input
	}

	fg.BeginBlock("sky")
	fg.SetRenderTargets([]framegraph.RenderbufferHandle{input}, gb.DS)
	ub := struct {
		Intensity float32
		Texture   uint32
	}{env.SkyIntensity, env.CubemapSky.SRVSlot}
	fg.SetUniform(common.StructToBytes(&ub))
	useProgramAndDraw(fg, s.Shader, 0, 3)
	fg.EndBlock()
	return input
}
