package postprocess

import (
	"github.com/oxyforge/corerender/common"
	"github.com/oxyforge/corerender/engine/framegraph"
	"github.com/oxyforge/corerender/engine/gal"
)

// TDAOCuller renders depth-only geometry into the active render target
// for the given top-down view and returns a ViewID, mirroring the scene's
// normal cull/renderBucket split (spec.md §4.8). TDAO calls it once per
// frame with a CameraParams holding only Near = -YRange/2, Far = YRange/2
// and Aspect = 1; View, Proj and the origin are left zero, so TDAO builds no
// orthographic top-down matrix and does not center the view on the camera.
// The caller is responsible for sourcing scene instances
// (engine/rendermodule.Module.Cull).
type TDAOCuller func(fg *framegraph.FrameGraph, params framegraph.CameraParams) framegraph.ViewID

// TDAO maintains a fixed-resolution top-down shadow depth map and uses it
// to modulate gbuffer.B with a height-derived AO term (spec.md §4.9
// "TDAO").
type TDAO struct {
	Enabled  bool
	XZRange  float32
	YRange   float32
	Intensity float32

	Shader *gal.Program
	Cull   TDAOCuller

	depth framegraph.RenderbufferHandle
}

// NewTDAO builds the TDAO plugin with XZRange 100, YRange 200 and
// Intensity 0.3.
func NewTDAO(shader *gal.Program, cull TDAOCuller) *framegraph.Plugin {
	t := &TDAO{Enabled: true, XZRange: 100, YRange: 200, Intensity: 0.3, Shader: shader, Cull: cull}
	return &framegraph.Plugin{Name: "tdao", RenderBeforeLightPass: t.renderBeforeLightPass}
}

func (t *TDAO) renderBeforeLightPass(fg *framegraph.FrameGraph, gb framegraph.GBuffer) {
	if !t.Enabled {
		t.depth = 0
		return
	}
	if t.Shader == nil || t.Cull == nil {
		return
	}

	fg.BeginBlock("tdao")
	if t.depth == 0 {
		t.depth, _ = fg.CreateRenderbuffer(framegraph.RenderbufferDesc{Width: 512, Height: 512, Format: gal.FormatDepth32Float})
	}

	fg.SetRenderTargets(nil, t.depth)
	fg.Stream().Clear([4]float32{}, 0, false, true)

	params := framegraph.CameraParams{Near: -0.5 * t.YRange, Far: 0.5 * t.YRange, Aspect: 1}
	t.Cull(fg, params)

	ub := struct {
		Intensity, Width, Height           float32
		Offset0, Offset1, Offset2, XZRange float32
		HalfDepthRange, Scale, DepthOffset float32
		DepthBuffer                        uint32
		GBufferB                           uint32
		TopdownDepthmap                    uint32
	}{
		Intensity: t.Intensity, Width: 512, Height: 512,
		XZRange: t.XZRange, HalfDepthRange: t.YRange * 0.5, Scale: 0.01, DepthOffset: 0.02,
		DepthBuffer:     fg.ToBindless(gb.DS),
		GBufferB:        fg.ToRWBindless(gb.B),
		TopdownDepthmap: fg.ToBindless(t.depth),
	}
	fg.SetUniform(common.StructToBytes(&ub))
	fg.Stream().UseProgram(t.Shader)
	fg.Dispatch((512+15)/16, (512+15)/16, 1)
	fg.EndBlock()
}
