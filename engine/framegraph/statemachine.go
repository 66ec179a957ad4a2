package framegraph

// FrameState enumerates the fixed per-frame, per-view states from spec.md
// §4.8's state machine diagram.
type FrameState uint8

const (
	StateIdle FrameState = iota
	StateBeginFrame
	StateGBufferPass
	StateBeforeLight
	StateLightPass
	StateBeforeTransparent
	StateTransparentPass
	StateBeforeTonemap
	StateTonemap
	StateAA
	StateAfterTonemap
	StateDebug
	StatePresent
	StateEndFrame
)

// FrameCallbacks supplies the pass bodies the state machine invokes
// between plugin hook groups; RunFrame owns the plugin ordering and debug
// markers, the caller owns the actual GBuffer/lighting/transparent/
// tonemap work.
type FrameCallbacks struct {
	GBufferPass        func(fg *FrameGraph, gb GBuffer)
	LightPass          func(fg *FrameGraph, gb GBuffer)
	TransparentPass    func(fg *FrameGraph, gb GBuffer, hdr RenderbufferHandle) RenderbufferHandle
	DefaultTonemap     func(fg *FrameGraph, hdr RenderbufferHandle) RenderbufferHandle
	Present            func(fg *FrameGraph, output RenderbufferHandle)
}

// RunFrame drives the fixed state machine of spec.md §4.8 for one view:
// BeginFrame -> GBufferPass -> BeforeLight* -> LightPass -> BeforeTransparent*
// -> TransparentPass -> BeforeTonemap* -> Tonemap -> AA -> AfterTonemap*
// -> Debug -> Present -> EndFrame. Every transition emits a matching debug
// group marker in the draw stream.
func (fg *FrameGraph) RunFrame(gb GBuffer, hdr RenderbufferHandle, cb FrameCallbacks) {
	fg.transition(StateBeginFrame)
	fg.pool.BeginFrame()
	fg.frameCount++

	fg.transition(StateGBufferPass)
	if cb.GBufferPass != nil {
		cb.GBufferPass(fg, gb)
	}

	fg.transition(StateBeforeLight)
	for _, p := range fg.plugins {
		if p.RenderBeforeLightPass != nil {
			p.RenderBeforeLightPass(fg, gb)
		}
	}

	fg.transition(StateLightPass)
	if cb.LightPass != nil {
		cb.LightPass(fg, gb)
	}

	fg.transition(StateBeforeTransparent)
	for _, p := range fg.plugins {
		if p.RenderBeforeTransparent != nil {
			hdr = p.RenderBeforeTransparent(fg, gb, hdr)
		}
	}

	fg.transition(StateTransparentPass)
	if cb.TransparentPass != nil {
		hdr = cb.TransparentPass(fg, gb, hdr)
	}

	fg.transition(StateBeforeTonemap)
	for _, p := range fg.plugins {
		if p.RenderBeforeTonemap != nil {
			hdr = p.RenderBeforeTonemap(fg, gb, hdr)
		}
	}

	fg.transition(StateTonemap)
	ldr := hdr
	claimed := false
	for _, p := range fg.plugins {
		if p.Tonemap == nil {
			continue
		}
		var out RenderbufferHandle
		if p.Tonemap(fg, hdr, &out) {
			ldr = out
			claimed = true
			break
		}
	}
	if !claimed && cb.DefaultTonemap != nil {
		ldr = cb.DefaultTonemap(fg, hdr)
	}

	fg.transition(StateAA)
	output := ldr
	if fg.pixelJitter {
		for _, p := range fg.plugins {
			if p.RenderAA != nil {
				output = p.RenderAA(fg, gb, output)
				break // spec.md §4.8: "at most one" AA plugin
			}
		}
	}

	fg.transition(StateAfterTonemap)
	for i := len(fg.plugins) - 1; i >= 0; i-- {
		p := fg.plugins[i]
		if p.RenderAfterTonemap != nil {
			output = p.RenderAfterTonemap(fg, gb, output)
		}
	}

	fg.transition(StateDebug)
	for _, p := range fg.plugins {
		if p.DebugOutput == nil {
			continue
		}
		var debugOut RenderbufferHandle
		if p.DebugOutput(fg, output, &debugOut) {
			output = debugOut
			break // spec.md §4.8: "at most one" debug plugin
		}
	}

	fg.transition(StatePresent)
	if cb.Present != nil {
		cb.Present(fg, output)
	}

	fg.transition(StateEndFrame)
	fg.EndBlock()
	fg.inBlock = false

	if fg.prof != nil {
		fg.prof.Tick()
	}
}

// transition closes the debug group opened for the previous state (if
// any) and opens one for s, so each state's draw-stream commands are
// wrapped by a debug marker named after it (spec.md §4.8: "every
// transition emits matching debug-group markers").
func (fg *FrameGraph) transition(s FrameState) {
	if fg.inBlock {
		fg.EndBlock()
	}
	fg.BeginBlock(stateName(s))
	fg.inBlock = true
}

func stateName(s FrameState) string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBeginFrame:
		return "begin-frame"
	case StateGBufferPass:
		return "gbuffer-pass"
	case StateBeforeLight:
		return "before-light"
	case StateLightPass:
		return "light-pass"
	case StateBeforeTransparent:
		return "before-transparent"
	case StateTransparentPass:
		return "transparent-pass"
	case StateBeforeTonemap:
		return "before-tonemap"
	case StateTonemap:
		return "tonemap"
	case StateAA:
		return "aa"
	case StateAfterTonemap:
		return "after-tonemap"
	case StateDebug:
		return "debug"
	case StatePresent:
		return "present"
	case StateEndFrame:
		return "end-frame"
	default:
		return "unknown"
	}
}
