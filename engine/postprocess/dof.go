package postprocess

import (
	"github.com/oxyforge/corerender/common"
	"github.com/oxyforge/corerender/engine/framegraph"
	"github.com/oxyforge/corerender/engine/gal"
)

// DOF computes a per-pixel circle of confusion from linear depth and
// applies a variable-radius blur, ignoring samples closer than
// SharpRange (spec.md §4.9 "DOF").
type DOF struct {
	Enabled bool

	Distance    float32
	Range       float32
	MaxBlurSize float32
	SharpRange  float32

	Shader *gal.Program
}

// NewDOF builds the DOF plugin.
func NewDOF(shader *gal.Program) *framegraph.Plugin {
	d := &DOF{Enabled: true, Shader: shader}
	return &framegraph.Plugin{Name: "dof", RenderBeforeTonemap: d.renderBeforeTonemap}
}

func (d *DOF) renderBeforeTonemap(fg *framegraph.FrameGraph, gb framegraph.GBuffer, input framegraph.RenderbufferHandle) framegraph.RenderbufferHandle {
	if !d.Enabled || d.Shader == nil {
		return input
	}

	tex := fg.ToTexture(input)
	if tex == nil {
		return input
	}

	fg.BeginBlock("dof")
	dofRB, _ := fg.CreateRenderbuffer(framegraph.RenderbufferDesc{Width: tex.Width, Height: tex.Height, Format: gal.FormatRGBA16Float})
	ub := struct {
		Distance, Range, MaxBlurSize, SharpRange float32
		Texture, Depth                           uint32
	}{d.Distance, d.Range, d.MaxBlurSize, d.SharpRange, fg.ToBindless(input), fg.ToBindless(gb.DS)}

	fg.SetUniform(common.StructToBytes(&ub))
	fg.SetRenderTargets([]framegraph.RenderbufferHandle{dofRB}, 0)
	useProgramAndDraw(fg, d.Shader, 0, 3)

	fg.Copy(input, dofRB, true, true, true)
	fg.EndBlock()
	return input
}
