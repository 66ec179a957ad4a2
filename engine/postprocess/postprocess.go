// Package postprocess implements the fixed post-process pass library from
// spec.md §4.9: atmosphere, bloom, SSAO, TDAO, screen-space shadows, TAA,
// depth of field, film grain, a cubemap sky, and FSR3 upscaling. Each
// effect is a framegraph.Plugin built by one constructor in this package;
// every constructor takes the compiled gal.Program(s) it draws or
// dispatches with, so this package owns only per-frame hook behavior, not
// shader compilation or resource loading.
//
// Every hook follows spec.md §4.9's failure semantics: a plugin whose
// programs are nil, or whose Enabled flag is false, returns its input
// unchanged rather than erroring.
package postprocess

import (
	"github.com/oxyforge/corerender/engine/framegraph"
	"github.com/oxyforge/corerender/engine/gal"
)

// Environment carries the subset of spec.md §4.7's environment component
// that the atmosphere and sky plugins need: sun color/strength, fog, and
// the active sky cubemap. Callers populate one Environment per scene and
// pass it into the relevant plugin's Environment field before RunFrame.
type Environment struct {
	Enabled bool

	GroundRadiusKm, AtmoRadiusKm     float32
	HeightDistributionRayleigh       float32
	HeightDistributionMie            float32
	ScatterRayleigh, ScatterMie      [3]float32
	AbsorbMie                        [3]float32
	SunlightColor                    [3]float32
	SunlightStrength                 float32

	FogScattering [3]float32
	FogTop        float32
	FogEnabled    bool
	GodraysEnabled bool

	CubemapSky     *gal.Texture
	SkyIntensity   float32
}

func boolToF32(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func useProgramAndDraw(fg *framegraph.FrameGraph, p *gal.Program, first, count uint32) {
	fg.Stream().UseProgram(p)
	fg.DrawArray(first, count)
}
