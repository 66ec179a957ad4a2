package postprocess

import (
	"github.com/oxyforge/corerender/common"
	"github.com/oxyforge/corerender/engine/framegraph"
	"github.com/oxyforge/corerender/engine/gal"
)

// FilmGrain modulates the final image by blue noise scaled by luma;
// an intensity at or below the zero threshold short-circuits the pass
// (spec.md §4.9 "Film Grain").
type FilmGrain struct {
	Intensity float32
	LumaAmount float32

	Shader *gal.Program
	Noise  *gal.Texture
}

// NewFilmGrain builds the FilmGrain plugin. LumaAmount defaults to 0.1,
// matching the original's fixed constant.
func NewFilmGrain(shader *gal.Program, noise *gal.Texture) *framegraph.Plugin {
	f := &FilmGrain{LumaAmount: 0.1, Shader: shader, Noise: noise}
	return &framegraph.Plugin{Name: "film_grain", RenderAfterTonemap: f.renderAfterTonemap}
}

func (f *FilmGrain) renderAfterTonemap(fg *framegraph.FrameGraph, gb framegraph.GBuffer, input framegraph.RenderbufferHandle) framegraph.RenderbufferHandle {
	if f.Shader == nil || f.Noise == nil || f.Intensity <= 1e-5 {
		return input
	}

	tex := fg.ToTexture(input)
	if tex == nil {
		return input
	}
	w, h := tex.Width, tex.Height

	fg.BeginBlock("film_grain")
	res, _ := fg.CreateRenderbuffer(framegraph.RenderbufferDesc{Width: w, Height: h, Format: gal.FormatRGBA8Unorm, Flags: gal.TextureFlagComputeWrite | gal.TextureFlagNoMips | gal.TextureFlagRenderTarget})

	ub := struct {
		Intensity float32
		LumaAmount float32
		Source     uint32
		Noise      uint32
		Output     uint32
	}{f.Intensity, f.LumaAmount, fg.ToBindless(input), f.Noise.SRVSlot, fg.ToRWBindless(res)}

	fg.SetUniform(common.StructToBytes(&ub))
	fg.Stream().UseProgram(f.Shader)
	fg.Dispatch((w+15)/16, (h+15)/16, 1)
	fg.EndBlock()
	return res
}
