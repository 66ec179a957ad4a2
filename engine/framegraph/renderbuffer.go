// Package framegraph implements the Pipeline contract from spec.md §4.8:
// per-frame block scoping, transient renderbuffer pooling, render target
// binding, view culling/bucket drawing, and the fixed seven-hook
// post-process plugin chain. Named FrameGraph, not Pipeline, to avoid
// colliding with engine/renderer/pipeline.Pipeline (the PSO wrapper).
package framegraph

import (
	"github.com/oxyforge/corerender/engine/gal"
)

// RenderbufferDesc describes a transient texture request. A request is
// satisfied by a released pooled texture with an identical desc if one
// exists, otherwise by a newly created texture (spec.md §4.8 "same descriptor + same frame -> same resource may be
// returned if not concurrently used").
type RenderbufferDesc struct {
	Width, Height uint32
	Format        gal.FormatID
	Flags         gal.TextureFlags
}

// RenderbufferHandle identifies a transient texture for the lifetime of
// the frame that created it.
type RenderbufferHandle uint32

type pooledTexture struct {
	desc    RenderbufferDesc
	tex     *gal.Texture
	handle  RenderbufferHandle
	inUse   bool
	lastUse uint64 // frame counter at last checkout, for leak diagnostics
}

// renderbufferPool owns every transient texture the frame graph has ever
// allocated, checking them out by descriptor. An entry returns to the free
// list only through Release; nothing is returned automatically at the end
// of a frame.
type renderbufferPool struct {
	device  *gal.Device
	entries []*pooledTexture
	handles map[RenderbufferHandle]*pooledTexture
	nextID  RenderbufferHandle
	frame   uint64
}

func newRenderbufferPool(d *gal.Device) *renderbufferPool {
	return &renderbufferPool{device: d, handles: make(map[RenderbufferHandle]*pooledTexture)}
}

// Checkout returns a handle to a pooled texture matching desc, reusing a
// free entry if one exists, allocating a new one otherwise.
func (p *renderbufferPool) Checkout(desc RenderbufferDesc) (RenderbufferHandle, *gal.Texture, error) {
	for _, e := range p.entries {
		if !e.inUse && e.desc == desc {
			e.inUse = true
			e.lastUse = p.frame
			return e.handle, e.tex, nil
		}
	}
	tex, err := p.device.CreateTexture(desc.Width, desc.Height, 1, desc.Format, desc.Flags, "renderbuffer")
	if err != nil {
		return 0, nil, err
	}
	p.nextID++
	e := &pooledTexture{desc: desc, tex: tex, handle: p.nextID, inUse: true, lastUse: p.frame}
	p.entries = append(p.entries, e)
	p.handles[e.handle] = e
	return e.handle, tex, nil
}

// Texture resolves a handle to its underlying GAL texture.
func (p *renderbufferPool) Texture(h RenderbufferHandle) *gal.Texture {
	if e, ok := p.handles[h]; ok {
		return e.tex
	}
	return nil
}

// Release returns a checked-out texture to the free list; called when a
// pass that owns it finishes writing and nothing subsequent needs it
// exclusively.
func (p *renderbufferPool) Release(h RenderbufferHandle) {
	if e, ok := p.handles[h]; ok {
		e.inUse = false
	}
}

// BeginFrame advances the pool's frame counter. Entries are not freed here
// (transient lifetime is explicit via Release) to avoid aliasing a buffer
// a post-process plugin is still sampling from a previous stage this same
// frame.
func (p *renderbufferPool) BeginFrame() { p.frame++ }

// Destroy releases every pooled texture, used at device shutdown.
func (p *renderbufferPool) Destroy() {
	for _, e := range p.entries {
		e.tex.Destroy(p.device)
	}
	p.entries = nil
	p.handles = make(map[RenderbufferHandle]*pooledTexture)
}
