package gal

import (
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/oxyforge/corerender/engine/window"
)

// windowRetireAfter is how long a window slot may go undrawn before being
// retired, per spec.md §4.4: "Windows not drawn to for more than one frame
// are retired."
const windowRetireAfter = time.Duration(0) // any gap beyond the current frame retires it

// WindowSlot is one entry in the GAL's small table of windows (spec.md
// §4.4), each owning a swapchain of backbuffer textures.
type WindowSlot struct {
	Surface     *wgpu.Surface
	Format      wgpu.TextureFormat
	Width       uint32
	Height      uint32
	lastDrawnAt uint64 // frame counter value at last draw
}

// Swapchain manages the GAL's window table: surface configuration,
// resize, and retirement of stale windows.
type Swapchain struct {
	windows     map[uint64]*WindowSlot
	nextID      uint64
	frameCount  uint64
	presentMode wgpu.PresentMode
}

// NewSwapchain creates an empty window table.
func NewSwapchain() *Swapchain {
	return &Swapchain{windows: make(map[uint64]*WindowSlot), presentMode: wgpu.PresentModeFifo}
}

// AddWindow registers a new window slot and configures its surface.
func (s *Swapchain) AddWindow(d *Device, surface *wgpu.Surface, width, height uint32) uint64 {
	caps := surface.GetCapabilities(d.adapter)
	format := caps.Formats[0]
	surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       width,
		Height:      height,
		PresentMode: s.presentMode,
		AlphaMode:   caps.AlphaModes[0],
	})
	id := s.nextID
	s.nextID++
	s.windows[id] = &WindowSlot{Surface: surface, Format: format, Width: width, Height: height, lastDrawnAt: s.frameCount}
	return id
}

// AddOSWindow builds a surface from an engine/window.Window's platform
// descriptor and registers it as a window slot, so callers never have to
// reach for wgpu.Instance directly to bring a window onto the swapchain
// (spec.md §4.4 "Swapchain / windows"). Resizes delivered through the
// window's own resize callback are forwarded to Resize automatically.
func (s *Swapchain) AddOSWindow(d *Device, w window.Window) uint64 {
	surface := d.Instance().CreateSurface(w.SurfaceDescriptor())
	id := s.AddWindow(d, surface, uint32(w.Width()), uint32(w.Height()))
	w.SetResizeCallback(func(width, height int) {
		s.Resize(d, id, uint32(width), uint32(height))
	})
	return id
}

// MarkDrawn records that `id` was drawn to this frame, so RetireStale
// does not reclaim it.
func (s *Swapchain) MarkDrawn(id uint64) {
	if w, ok := s.windows[id]; ok {
		w.lastDrawnAt = s.frameCount
	}
}

// AdvanceFrame bumps the swapchain's frame counter and retires any window
// not drawn to in the prior frame.
func (s *Swapchain) AdvanceFrame() {
	s.frameCount++
	for id, w := range s.windows {
		if s.frameCount-w.lastDrawnAt > 1 {
			delete(s.windows, id)
		}
	}
}

// Resize reconfigures a window's swapchain buffers after the caller has
// flushed all in-flight frames (spec.md §4.4, §8 scenario 6).
func (s *Swapchain) Resize(d *Device, id uint64, width, height uint32) {
	w, ok := s.windows[id]
	if !ok {
		return
	}
	w.Width, w.Height = width, height
	w.Surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      w.Format,
		Width:       width,
		Height:      height,
		PresentMode: s.presentMode,
	})
}

// reconfigure re-applies the present mode to every live window, used by
// Device.EnableVSync after flushing the frame ring.
func (s *Swapchain) reconfigure(d *Device, vsync bool) {
	if vsync {
		s.presentMode = wgpu.PresentModeFifo
	} else {
		s.presentMode = wgpu.PresentModeImmediate
	}
	for id, w := range s.windows {
		_ = id
		s.Resize(d, id, w.Width, w.Height)
	}
}

// Count returns the number of live window slots, used by tests asserting
// stale-window retirement.
func (s *Swapchain) Count() int { return len(s.windows) }
