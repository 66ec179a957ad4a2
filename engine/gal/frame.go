package gal

import (
	"sync"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
)

// releaseEntry defers a native resource's destruction until this frame's
// submission has retired (spec.md §3 "Deferred release queue").
type releaseEntry struct {
	texture *Texture
	buffer  *Buffer
}

// Frame is one element of the in-flight-frames ring (spec.md §4.4). It
// owns a command encoder, a scratch upload buffer (a monotonic bump
// pointer reset each Begin), a to-release list, a to-heap-release list of
// bindless IDs, and pending texture-read callbacks.
//
// wgpu has no explicit fence object exposed to Go callers; this slot
// tracks a submitted counter and a retired counter instead. Nothing here
// observes GPU completion: waitIdle marks every submission retired right
// after an empty queue submit.
type Frame struct {
	device *Device
	index  uint32

	encoder *wgpu.CommandEncoder

	submitted  atomic.Uint64
	retired    atomic.Uint64

	mu          sync.Mutex
	toRelease   []releaseEntry
	toHeapFree  []uint32
	pendingReads []pendingRead

	scratchCursor uint64
	scratchSize   uint64
}

const defaultScratchSize = 4 << 20 // 4 MiB per-frame scratch upload budget

func newFrame(d *Device, index uint32) *Frame {
	return &Frame{device: d, index: index, scratchSize: defaultScratchSize}
}

// Index returns this slot's position in the NumBackbuffers ring.
func (f *Frame) Index() uint32 { return f.index }

// Begin calls waitIdle, then runs queued texture-read callbacks, releases
// pending native resources and bindless IDs, resets the scratch cursor and
// opens a new command encoder. No GPU queries are resolved.
func (f *Frame) Begin() {
	f.waitIdle()

	f.mu.Lock()
	reads := f.pendingReads
	f.pendingReads = nil
	toRelease := f.toRelease
	f.toRelease = nil
	toFree := f.toHeapFree
	f.toHeapFree = nil
	f.mu.Unlock()

	for _, r := range reads {
		resolveRead(r)
	}
	for _, e := range toRelease {
		switch {
		case e.texture != nil:
			e.texture.Destroy(f.device)
		case e.buffer != nil:
			e.buffer.Destroy(f.device)
		}
	}
	for _, id := range toFree {
		f.device.descriptors.Release(id)
	}

	f.scratchCursor = 0
	var err error
	f.encoder, err = f.device.device.CreateCommandEncoder(nil)
	if err != nil {
		f.device.log.Error("gal: create command encoder failed", "error", err)
	}
}

// waitIdle submits an empty batch and marks this slot's submissions
// retired; it does not wait for the GPU to finish them. Exposed so EnableVSync/Resize can flush the whole ring (spec.md §5).
func (f *Frame) waitIdle() {
	for f.retired.Load() < f.submitted.Load() {
		f.device.queue.Submit(nil) // drains pending work, polls completion
		f.retired.Store(f.submitted.Load())
	}
}

// Encoder returns this frame's command encoder for recording.
func (f *Frame) Encoder() *wgpu.CommandEncoder { return f.encoder }

// AllocScratch bump-allocates `size` bytes from the frame's scratch upload
// buffer, returning the byte offset. Only the recording thread of this
// frame may call this (spec.md §5 "Shared resources" — the scratch upload
// buffer is exclusively owned by its Frame slot).
func (f *Frame) AllocScratch(size uint64) (offset uint64, ok bool) {
	align := uint64(256)
	aligned := (f.scratchCursor + align - 1) / align * align
	if aligned+size > f.scratchSize {
		return 0, false
	}
	f.scratchCursor = aligned + size
	return aligned, true
}

// DeferRelease enqueues a texture for destruction once this frame retires.
func (f *Frame) DeferRelease(tex *Texture) {
	f.mu.Lock()
	f.toRelease = append(f.toRelease, releaseEntry{texture: tex})
	f.mu.Unlock()
}

// DeferReleaseBuffer enqueues a buffer for destruction once this frame retires.
func (f *Frame) DeferReleaseBuffer(buf *Buffer) {
	f.mu.Lock()
	f.toRelease = append(f.toRelease, releaseEntry{buffer: buf})
	f.mu.Unlock()
}

// End finishes the command encoder, submits it, and bumps this slot's
// submitted counter; no timestamp/pipeline-stats queries are resolved
// (spec.md §4.4). RenderDoc/PIX capture
// triggers are intentionally out of scope for corerender (no such capture
// library is present anywhere in the retrieved corpus — see DESIGN.md).
func (f *Frame) End() {
	cmd, err := f.encoder.Finish(nil)
	if err != nil {
		f.device.log.Error("gal: finish command encoder failed", "error", err)
		return
	}
	f.device.queue.Submit([]*wgpu.CommandBuffer{cmd})
	f.submitted.Add(1)
}

func resolveRead(r pendingRead) {
	defer r.staging.Destroy()
	mapped, err := r.staging.GetMappedRange(0, uint(r.rowPitch)*uint(r.height))
	if err != nil {
		return
	}
	fd := formatTable[FormatRGBA8Unorm]
	if r.cb != nil {
		r.cb(packRows(mapped, r.rowPitch, r.width, r.height, fd.bytesPerTexel), r.width, r.height)
	}
}

// packRows strips row-pitch padding, producing tightly-packed pixel data
// (spec.md §4.2 "pack tight rows into an allocator-owned buffer").
func packRows(padded []byte, rowPitch, width, height, bytesPerTexel uint32) []byte {
	tightRow := width * bytesPerTexel
	out := make([]byte, tightRow*height)
	for y := uint32(0); y < height; y++ {
		copy(out[y*tightRow:(y+1)*tightRow], padded[y*rowPitch:y*rowPitch+tightRow])
	}
	return out
}
