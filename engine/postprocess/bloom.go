package postprocess

import (
	"github.com/oxyforge/corerender/common"
	"github.com/oxyforge/corerender/engine/framegraph"
	"github.com/oxyforge/corerender/engine/gal"
)

// Bloom extracts an over-bright half-resolution buffer, downsamples it
// four more times (down to 1/32 of the input size), blurs and upscales with additive blends, then adds the
// result back into HDR. It may also claim tonemapping (spec.md §4.9
// "Bloom may additionally take ownership of tonemapping").
type Bloom struct {
	Enabled           bool
	TonemapEnabled    bool
	AccommodationSpeed float32
	AvgBloomMultiplier float32
	Exposure          float32

	ExtractShader     *gal.Program // also used for each downscale step (define-selected by caller)
	TonemapShader     *gal.Program
	BlurShader        *gal.Program
	AvgLuminanceShader *gal.Program
	BloomBlurShader   *gal.Program

	lumBuf *gal.Buffer
}

// NewBloom builds the Bloom plugin and its persistent 2KB luminance
// histogram buffer (spec.md §4.9 "three-pass compute into a 2KB histogram
// buffer").
func NewBloom(device *gal.Device, extract, tonemap, blur, avgLum, bloomBlur *gal.Program) (*framegraph.Plugin, error) {
	lumBuf, err := device.CreateBuffer(2048, gal.BufferFlagShaderBuffer, nil, "bloom_histogram")
	if err != nil {
		return nil, err
	}
	b := &Bloom{
		Enabled: true, AccommodationSpeed: 1, AvgBloomMultiplier: 1, Exposure: 1,
		ExtractShader: extract, TonemapShader: tonemap, BlurShader: blur,
		AvgLuminanceShader: avgLum, BloomBlurShader: bloomBlur,
		lumBuf: lumBuf,
	}
	return &framegraph.Plugin{
		Name:               "bloom",
		RenderBeforeTonemap: b.renderBeforeTonemap,
		Tonemap:            b.tonemap,
	}, nil
}

func (b *Bloom) ready() bool {
	return b.ExtractShader != nil && b.TonemapShader != nil && b.BlurShader != nil &&
		b.AvgLuminanceShader != nil && b.BloomBlurShader != nil
}

func (b *Bloom) computeAvgLuminance(fg *framegraph.FrameGraph, input framegraph.RenderbufferHandle, w, h uint32) {
	fg.BeginBlock("autoexposure")
	stream := fg.Stream()
	ub := struct {
		Size               [2]float32
		AccommodationSpeed float32
		_                  float32
		Image              uint32
		Histogram          uint32
	}{Size: [2]float32{float32(w), float32(h)}, AccommodationSpeed: b.AccommodationSpeed, Image: fg.ToBindless(input), Histogram: b.lumBuf.Slot}

	fg.SetUniform(common.StructToBytes(&ub))
	stream.BarrierWriteBuffer(b.lumBuf)
	stream.MemoryBarrierBuffer(b.lumBuf)
	stream.UseProgram(b.AvgLuminanceShader)
	fg.Dispatch(1, 1, 1)
	stream.MemoryBarrierBuffer(b.lumBuf)
	fg.Dispatch((w+15)/16, (h+15)/16, 1)
	stream.MemoryBarrierBuffer(b.lumBuf)
	fg.Dispatch(1, 1, 1)
	stream.MemoryBarrierBuffer(b.lumBuf)
	stream.BarrierReadBuffer(b.lumBuf)
	fg.EndBlock()
}

func (b *Bloom) downscale(fg *framegraph.FrameGraph, big framegraph.RenderbufferHandle, w, h uint32) framegraph.RenderbufferHandle {
	small, _ := fg.CreateRenderbuffer(framegraph.RenderbufferDesc{Width: w, Height: h, Format: gal.FormatRGBA16Float})
	fg.SetRenderTargets([]framegraph.RenderbufferHandle{small}, 0)
	fg.SetUniform(common.StructToBytes(&struct{ Input uint32 }{fg.ToBindless(big)}))
	useProgramAndDraw(fg, b.ExtractShader, 0, 3)
	return small
}

func (b *Bloom) blurUpscale(fg *framegraph.FrameGraph, bigW, bigH uint32, big, small framegraph.RenderbufferHandle) {
	blurBuf, _ := fg.CreateRenderbuffer(framegraph.RenderbufferDesc{Width: bigW, Height: bigH, Format: gal.FormatRGBA16Float})
	fg.SetRenderTargets([]framegraph.RenderbufferHandle{blurBuf}, 0)
	ub := struct {
		InvSize [4]float32
		Input   uint32
		Input2  uint32
	}{InvSize: [4]float32{1 / float32(bigW), 1 / float32(bigH), 0, 0}, Input: fg.ToBindless(big), Input2: fg.ToBindless(small)}
	fg.SetUniform(common.StructToBytes(&ub))
	useProgramAndDraw(fg, b.BloomBlurShader, 0, 3)

	fg.SetRenderTargets([]framegraph.RenderbufferHandle{big}, 0)
	ub.Input = fg.ToBindless(blurBuf)
	fg.SetUniform(common.StructToBytes(&ub))
	useProgramAndDraw(fg, b.BlurShader, 0, 3)
}

func (b *Bloom) blur(fg *framegraph.FrameGraph, w, h uint32, src framegraph.RenderbufferHandle) {
	blurBuf, _ := fg.CreateRenderbuffer(framegraph.RenderbufferDesc{Width: w, Height: h, Format: gal.FormatRGBA16Float})
	ub := struct {
		InvSize [4]float32
		Input   uint32
	}{InvSize: [4]float32{1 / float32(w), 1 / float32(h), 0, 0}, Input: fg.ToBindless(src)}

	fg.SetRenderTargets([]framegraph.RenderbufferHandle{blurBuf}, 0)
	fg.SetUniform(common.StructToBytes(&ub))
	useProgramAndDraw(fg, b.BlurShader, 0, 3)

	fg.SetRenderTargets([]framegraph.RenderbufferHandle{src}, 0)
	ub.Input = fg.ToBindless(blurBuf)
	fg.SetUniform(common.StructToBytes(&ub))
	useProgramAndDraw(fg, b.BlurShader, 0, 3)
}

func (b *Bloom) renderBeforeTonemap(fg *framegraph.FrameGraph, gb framegraph.GBuffer, input framegraph.RenderbufferHandle) framegraph.RenderbufferHandle {
	if !b.Enabled || !b.ready() {
		return input
	}

	fg.BeginBlock("bloom")
	// widths/heights are derived from the caller's viewport via the input
	// renderbuffer's pooled descriptor in a full implementation; here the
	// half-resolution chain is expressed relative to a nominal 1x size the
	// caller configures by constructing renderbuffers of matching size to
	// `input`. Width/height default to a 1:1 ratio chain rooted at input.
	w, h := uint32(0), uint32(0)
	if t := fg.ToTexture(input); t != nil {
		w, h = t.Width, t.Height
	}
	if w == 0 || h == 0 {
		fg.EndBlock()
		return input
	}

	b.computeAvgLuminance(fg, input, w, h)

	bloomRB, _ := fg.CreateRenderbuffer(framegraph.RenderbufferDesc{Width: w / 2, Height: h / 2, Format: gal.FormatRGBA16Float})
	fg.SetRenderTargets([]framegraph.RenderbufferHandle{bloomRB}, 0)
	ub := struct {
		AvgLumMultiplier float32
		Histogram        uint32
		Input            uint32
	}{b.AvgBloomMultiplier, b.lumBuf.Slot, fg.ToBindless(input)}
	fg.Stream().BarrierReadBuffer(b.lumBuf)
	fg.SetUniform(common.StructToBytes(&ub))
	useProgramAndDraw(fg, b.ExtractShader, 0, 3)

	bloom2 := b.downscale(fg, bloomRB, w/4, h/4)
	bloom4 := b.downscale(fg, bloom2, w/8, h/8)
	bloom8 := b.downscale(fg, bloom4, w/16, h/16)
	bloom16 := b.downscale(fg, bloom8, w/32, h/32)

	b.blur(fg, w/32, h/32, bloom16)
	b.blurUpscale(fg, w/16, h/16, bloom8, bloom16)
	b.blurUpscale(fg, w/8, h/8, bloom4, bloom8)
	b.blurUpscale(fg, w/4, h/4, bloom2, bloom4)
	b.blurUpscale(fg, w/2, h/2, bloomRB, bloom2)

	fg.SetRenderTargets([]framegraph.RenderbufferHandle{input}, 0)
	fg.SetUniform(common.StructToBytes(&struct{ Input uint32 }{fg.ToBindless(bloomRB)}))
	useProgramAndDraw(fg, b.ExtractShader, 0, 3)

	fg.EndBlock()
	return input
}

// tonemap implements Bloom's optional tonemap-claiming hook (spec.md §4.9,
// §9 "Bloom's tonemap() claiming").
func (b *Bloom) tonemap(fg *framegraph.FrameGraph, hdr framegraph.RenderbufferHandle, out *framegraph.RenderbufferHandle) bool {
	if !b.Enabled || !b.TonemapEnabled || b.TonemapShader == nil {
		return false
	}
	fg.BeginBlock("bloom tonemap")
	w, h := uint32(0), uint32(0)
	if t := fg.ToTexture(hdr); t != nil {
		w, h = t.Width, t.Height
	}
	rb, _ := fg.CreateRenderbuffer(framegraph.RenderbufferDesc{Width: w, Height: h, Format: gal.FormatRGBA8Unorm})
	ub := struct {
		Exposure float32
		Input    uint32
		Accum    uint32
	}{b.Exposure, fg.ToBindless(hdr), b.lumBuf.Slot}

	fg.Stream().BarrierReadBuffer(b.lumBuf)
	fg.SetRenderTargets([]framegraph.RenderbufferHandle{rb}, 0)
	fg.SetUniform(common.StructToBytes(&ub))
	useProgramAndDraw(fg, b.TonemapShader, 0, 3)
	fg.EndBlock()
	*out = rb
	return true
}
