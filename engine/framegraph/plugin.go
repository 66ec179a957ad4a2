package framegraph

// GBuffer is the fixed A/B/C/D/DS render target tuple the frame graph
// passes to every plugin hook (spec.md §4.8 "gbuffer" parameter).
type GBuffer struct {
	A, B, C, D RenderbufferHandle // A: albedo, B: normal+AO, C: metallic/roughness, D: motion vectors
	DS         RenderbufferHandle // depth-stencil
}

// Plugin is the capability-record encoding of spec.md §9's "Inheritance"
// guidance: a plugin implements only the hooks it needs by providing a
// non-nil function for that field, rather than a fat interface with no-op
// overrides. Every hook is optional; RegisterPlugin records it once and
// Run* only calls the hooks that are non-nil, in spec.md §4.8's fixed
// order. Plugins sharing a hook run in registration order, except
// RenderAfterTonemap, which runs in reverse registration order (see
// DESIGN.md's Open Question decision).
type Plugin struct {
	Name string

	// RenderBeforeLightPass may only write into existing gbuffer channels
	// (e.g. SSAO modulating gbuffer.B) or output its own renderbuffer to be
	// sampled later.
	RenderBeforeLightPass func(fg *FrameGraph, gb GBuffer)

	// RenderBeforeTransparent composites into HDR before the transparent
	// pass (e.g. sky/atmosphere) and returns the (possibly same) HDR handle.
	RenderBeforeTransparent func(fg *FrameGraph, gb GBuffer, hdr RenderbufferHandle) RenderbufferHandle

	// RenderBeforeTonemap runs DOF/bloom-style effects on HDR pre-tonemap.
	RenderBeforeTonemap func(fg *FrameGraph, gb GBuffer, hdr RenderbufferHandle) RenderbufferHandle

	// Tonemap claims tonemapping for this plugin. The first registered
	// plugin whose Tonemap returns true owns tonemapping for the frame;
	// a default tonemap runs if none claim it.
	Tonemap func(fg *FrameGraph, hdr RenderbufferHandle, ldrOut *RenderbufferHandle) bool

	// RenderAA implements TAA/FSR3/none; at most one plugin should set
	// this in a given registration list.
	RenderAA func(fg *FrameGraph, gb GBuffer, input RenderbufferHandle) RenderbufferHandle

	// RenderAfterTonemap runs after AA (film grain).
	RenderAfterTonemap func(fg *FrameGraph, gb GBuffer, input RenderbufferHandle) RenderbufferHandle

	// DebugOutput may replace the final output with a debug visualization;
	// returns true if it did.
	DebugOutput func(fg *FrameGraph, input RenderbufferHandle, out *RenderbufferHandle) bool

	data map[string]any // per-plugin instance data slot (spec.md §4.8 getData<T>)
}

// PluginData returns this plugin's typed per-pipeline-scoped slot, allocating
// a zero value of T on first access (spec.md §4.8: "TAA's history buffer
// or TDAO's top-down depth map across frames").
func PluginData[T any](p *Plugin, key string) *T {
	if p.data == nil {
		p.data = make(map[string]any)
	}
	if v, ok := p.data[key]; ok {
		return v.(*T)
	}
	v := new(T)
	p.data[key] = v
	return v
}
