package engine

import (
	"time"

	"github.com/oxyforge/corerender/engine/framegraph"
	"github.com/oxyforge/corerender/engine/rendermodule"
	"github.com/oxyforge/corerender/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// The tick callback will be called at this rate for game logic updates.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithFrameGraph attaches the frame graph the render loop drives via the
// render callback (spec.md §4.8). Without one, SetRenderCallback's fg
// argument is nil and the caller is responsible for constructing its own.
//
// Parameters:
//   - fg: a constructed FrameGraph bound to this engine's GAL device
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameGraph(fg *framegraph.FrameGraph) EngineBuilderOption {
	return func(e *engine) {
		e.fg = fg
	}
}

// WithModule attaches the render module (spec.md §4.7) backing camera,
// environment, light, and model-instance registration, and culling.
//
// Parameters:
//   - m: a constructed render Module
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithModule(m *rendermodule.Module) EngineBuilderOption {
	return func(e *engine) {
		e.module = m
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Second / time.Duration(fps)
	}
}
