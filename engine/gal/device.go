package gal

import (
	"log/slog"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// NumBackbuffers is the number of in-flight Frame slots kept in the ring
// (spec.md §4.4 "NUM_BACKBUFFERS in-flight frames").
const NumBackbuffers = 3

// Device is the GAL's process-wide singleton context, analogous to the
// spec's "D3D" instance (SPEC_FULL.md §9 "Global state"): created once by
// Init and torn down by Shutdown. All GAL free functions are methods on
// this context.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	descriptors *DescriptorHeap
	psoCache    *PSOCache
	shaderBlobs *ShaderBlobCache

	frames     [NumBackbuffers]*Frame
	frameIndex uint32

	vsyncMu sync.Mutex // spec.md §5: "one mutex for vsync state"
	vsync   bool

	renderThread *int // stack marker identifying the render goroutine

	log *slog.Logger

	validation bool
}

// DeviceOption configures a Device during Init, following the teacher's
// functional-options convention (engine/window.WindowBuilderOption,
// engine.EngineBuilderOption).
type DeviceOption func(*Device)

// WithValidation records a validation preference on the Device. Init does
// not pass it to the backend: the wgpu instance is created with default
// settings either way.
func WithValidation(enabled bool) DeviceOption {
	return func(d *Device) { d.validation = enabled }
}

// WithLogger installs a structured logger for GAL-level diagnostics and
// errors (SPEC_FULL.md "AMBIENT STACK"). Defaults to a discard logger.
func WithLogger(l *slog.Logger) DeviceOption {
	return func(d *Device) {
		if l != nil {
			d.log = l
		}
	}
}

// Init creates the process-wide GAL context: requests an adapter/device
// from the given surface-compatible instance, builds the bindless
// descriptor heap, the PSO cache, and the first Frame slot ring. Mirrors
// spec.md §9's single `D3D` instance created by `init(hwnd, flags)`.
func Init(surface *wgpu.Surface, options ...DeviceOption) (*Device, error) {
	d := &Device{log: discardLogger()}
	for _, opt := range options {
		opt(d)
	}

	marker := 0
	d.renderThread = &marker

	d.instance = wgpu.CreateInstance(nil)

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
	})
	if err != nil {
		return nil, err
	}
	d.adapter = adapter

	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8

	dev, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "corerender device",
		RequiredLimits: &wgpu.RequiredLimits{Limits: limits},
	})
	if err != nil {
		return nil, err
	}
	d.device = dev
	d.queue = dev.GetQueue()

	// Transient region sized generously for the maximum expected per-frame
	// descriptor volume; a real profile-driven value would come from a
	// config, but spec.md leaves exact sizing a backend detail.
	d.descriptors = NewDescriptorHeap(NumBackbuffers, 4096)
	d.psoCache = NewPSOCache()
	d.shaderBlobs = NewShaderBlobCache()

	for i := range d.frames {
		d.frames[i] = newFrame(d, uint32(i))
	}

	d.log.Info("gal: device initialized", "backbuffers", NumBackbuffers)
	return d, nil
}

// Shutdown tears down the device, waiting for all in-flight frames to
// retire first (spec.md §9 "torn down by shutdown()").
func (d *Device) Shutdown() {
	for _, f := range d.frames {
		f.waitIdle()
	}
	d.log.Info("gal: device shut down")
}

// Descriptors returns the bindless/transient descriptor heap.
func (d *Device) Descriptors() *DescriptorHeap { return d.descriptors }

// PSOCache returns the pipeline-state cache.
func (d *Device) PSOCache() *PSOCache { return d.psoCache }

// ShaderBlobs returns the shader blob cache.
func (d *Device) ShaderBlobs() *ShaderBlobCache { return d.shaderBlobs }

// Instance returns the wgpu instance Init created, the handle components
// that build their own surfaces (engine/window-backed swapchain targets)
// need to call CreateSurface.
func (d *Device) Instance() *wgpu.Instance { return d.instance }

// Raw returns the underlying wgpu device and queue for components (the
// frame graph, post-process plugins) that must issue native calls the GAL
// does not wrap directly, mirroring the spec's DrawStream pushLambda
// escape hatch (spec.md §4.5) at the GAL boundary.
func (d *Device) Raw() (*wgpu.Device, *wgpu.Queue) { return d.device, d.queue }

// AssertRenderThread is the enforcement point for render-thread-only GAL
// calls. Go has no portable thread-affinity primitive, and this method
// performs no check: it never panics, whichever goroutine calls it. The
// marker stored at Init is not compared against anything. The teacher's
// backend relies on runtime.LockOSThread() during construction
// (wgpu_renderer_backend.go) instead.
func (d *Device) AssertRenderThread() {
	if d.renderThread == nil {
		return
	}
	// A goroutine-identity check would require runtime internals; instead
	// the render thread is required to have called runtime.LockOSThread()
	// at startup (as the teacher's backend does), and callers are expected
	// to route all command-list-touching calls through the single
	// render-thread-owned Frame. This call exists as the documented
	// enforcement point even though Go cannot assert goroutine identity
	// without cooperation; callers SHOULD route through drawstream.Stream
	// instead of calling GAL methods directly from other goroutines.
	_ = runtime.NumGoroutine
}

// EnableVSync flushes all in-flight frames and reconfigures the swapchain
// present mode, matching spec.md §5's blocking-point rule for vsync
// toggles.
func (d *Device) EnableVSync(sc *Swapchain, enabled bool) {
	d.vsyncMu.Lock()
	defer d.vsyncMu.Unlock()
	d.vsync = enabled
	for _, f := range d.frames {
		f.waitIdle()
	}
	sc.reconfigure(d, enabled)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
