package postprocess

import (
	"github.com/oxyforge/corerender/common"
	"github.com/oxyforge/corerender/engine/framegraph"
	"github.com/oxyforge/corerender/engine/gal"
)

// opticalDepthW/H and inscatterW/H are the fixed LUT dimensions from
// spec.md §4.9 ("128x128 optical depth, 64x128 inscatter").
const (
	opticalDepthW, opticalDepthH = 128, 128
	inscatterW, inscatterH       = 64, 128
)

type atmoUniforms struct {
	Bot, Top                               float32
	DistributionRayleigh, DistributionMie  float32
	ScatterRayleigh, ScatterMie, AbsorbMie [4]float32
	Sunlight                               [4]float32
	Resolution                             [4]float32
	FogScattering                          [4]float32
	FogTop, FogEnabled, GodraysEnabled     float32
	Output                                 uint32
	OpticalDepth                           uint32
	DepthBuffer                            uint32
	InscatterPrecomputed                   uint32
}

// Atmo computes two fixed-size LUTs (optical depth transmittance,
// in-scatter) once per frame and blends the resulting sky/fog term into
// HDR with dual-source blending (spec.md §4.9 "Atmo").
type Atmo struct {
	Environment *Environment

	BlendShader   *gal.Program // full-screen blend into HDR
	ScatterShader *gal.Program // inscatter compute
	DepthShader   *gal.Program // optical-depth compute

	opticalDepth *gal.Texture
	inscatter    *gal.Texture
}

// NewAtmo builds the Atmo plugin. env is shared (not copied) so the caller
// can update it per frame without re-registering the plugin.
func NewAtmo(env *Environment, blend, scatter, depth *gal.Program) *framegraph.Plugin {
	a := &Atmo{Environment: env, BlendShader: blend, ScatterShader: scatter, DepthShader: depth}
	return &framegraph.Plugin{
		Name:                    "atmo",
		RenderBeforeTransparent: a.renderBeforeTransparent,
	}
}

func (a *Atmo) renderBeforeTransparent(fg *framegraph.FrameGraph, gb framegraph.GBuffer, hdr framegraph.RenderbufferHandle) framegraph.RenderbufferHandle {
	if a.BlendShader == nil || a.ScatterShader == nil || a.DepthShader == nil {
		return hdr
	}
	env := a.Environment
	if env == nil || !env.Enabled {
		return hdr
	}

	device := fg.Device()
	if a.opticalDepth == nil {
		var err error
		a.opticalDepth, err = device.CreateTexture(opticalDepthW, opticalDepthH, 1, gal.FormatRG32Float, gal.TextureFlagComputeWrite|gal.TextureFlagNoMips, "optical_depth_precomputed")
		if err != nil {
			return hdr
		}
		a.inscatter, err = device.CreateTexture(inscatterW, inscatterH, 1, gal.FormatRGBA32Float, gal.TextureFlagComputeWrite|gal.TextureFlagNoMips, "inscatter_precomputed")
		if err != nil {
			return hdr
		}
	}

	stream := fg.Stream()
	fg.BeginBlock("atmo")

	ub := atmoUniforms{
		Bot:                  env.GroundRadiusKm * 1000,
		Top:                  env.AtmoRadiusKm * 1000,
		DistributionRayleigh: env.HeightDistributionRayleigh,
		DistributionMie:      env.HeightDistributionMie,
		ScatterRayleigh:      scale4(env.ScatterRayleigh, 33.1e-6),
		ScatterMie:           scale4(env.ScatterMie, 3.996e-6),
		AbsorbMie:            scale4(env.AbsorbMie, 4.4e-6),
		Sunlight:             [4]float32{env.SunlightColor[0], env.SunlightColor[1], env.SunlightColor[2], env.SunlightStrength},
		Resolution:           [4]float32{opticalDepthW, opticalDepthH, 1, 0},
		FogScattering:        [4]float32{env.FogScattering[0], env.FogScattering[1], env.FogScattering[2], 0},
		FogTop:               env.FogTop,
		FogEnabled:           boolToF32(env.FogEnabled),
		GodraysEnabled:       boolToF32(env.GodraysEnabled),
		Output:               a.opticalDepth.UAVSlot,
		OpticalDepth:         a.opticalDepth.SRVSlot,
		DepthBuffer:          fg.ToBindless(gb.DS),
	}

	stream.BarrierWrite(a.opticalDepth)
	fg.BeginBlock("precompute_transmittance")
	fg.SetUniform(common.StructToBytes(&ub))
	stream.UseProgram(a.DepthShader)
	fg.Dispatch(opticalDepthW/16, opticalDepthH/16, 1)
	fg.EndBlock()

	stream.BarrierWrite(a.inscatter)
	stream.BarrierRead(a.opticalDepth)
	stream.MemoryBarrier(a.opticalDepth)

	fg.BeginBlock("precompute_inscatter")
	ub.Resolution = [4]float32{inscatterW, inscatterH, 1, 0}
	ub.Output = a.inscatter.UAVSlot
	fg.SetUniform(common.StructToBytes(&ub))
	stream.UseProgram(a.ScatterShader)
	fg.Dispatch(inscatterW/16, inscatterH/16, 1)
	fg.EndBlock()

	stream.BarrierRead(a.inscatter)
	stream.MemoryBarrier(a.inscatter)

	ub.InscatterPrecomputed = a.inscatter.SRVSlot
	fg.SetRenderTargets([]framegraph.RenderbufferHandle{hdr}, 0)
	fg.SetUniform(common.StructToBytes(&ub))
	useProgramAndDraw(fg, a.BlendShader, 0, 3)

	fg.EndBlock()
	return hdr
}

func scale4(v [3]float32, s float32) [4]float32 {
	return [4]float32{v[0] * s, v[1] * s, v[2] * s, 0}
}
