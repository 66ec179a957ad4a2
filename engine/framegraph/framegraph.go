package framegraph

import (
	"log/slog"

	"github.com/oxyforge/corerender/common"
	"github.com/oxyforge/corerender/engine/drawstream"
	"github.com/oxyforge/corerender/engine/gal"
	"github.com/oxyforge/corerender/engine/profiler"
)

// Bucket describes one sortable draw-list partition (spec.md §4.8 cull:
// "sort model instances into buckets described by {layer, define, sort}").
type Bucket struct {
	Layer  uint32
	Define uint64 // shader permutation define mask
	Sort   SortMode
}

// SortMode selects the ordering renderBucket uses when emitting draws.
type SortMode uint8

const (
	// SortFrontToBack hashes by material+mesh, used for opaque buckets.
	SortFrontToBack SortMode = iota
	// SortBackToFront is used for transparent buckets.
	SortBackToFront
)

// DrawInstance is one culled, bucketed model instance ready for emission
// by RenderBucket.
type DrawInstance struct {
	Program      *gal.Program
	VertexBuffer *gal.Buffer
	IndexBuffer  *gal.Buffer
	IndexCount   uint32
	InstanceData []byte // per-instance uniform payload (transform, material index)
	Depth        float32 // view-space depth, used for sort
	MaterialHash uint64
	MeshHash     uint64
}

// ViewID identifies one cull() result; renderBucket indexes into it by
// bucket position.
type ViewID uint32

type view struct {
	params  CameraParams
	buckets [][]DrawInstance
}

// FrameGraph implements the Pipeline contract of spec.md §4.8: block
// scoping, transient renderbuffers, render target binding, per-view
// culling/bucketed draw emission, and the fixed seven-hook post-process
// chain. Named FrameGraph (not Pipeline) to avoid colliding with
// engine/renderer/pipeline.Pipeline, the PSO wrapper (spec.md §4.3).
type FrameGraph struct {
	device *gal.Device
	stream *drawstream.Stream
	pool   *renderbufferPool
	log    *slog.Logger
	prof   *profiler.Profiler

	plugins []*Plugin

	views      map[ViewID]*view
	nextViewID ViewID

	pixelJitter bool
	frameCount  uint64

	boundColors [8]RenderbufferHandle
	boundDS     RenderbufferHandle
	numColors   int

	inBlock bool // statemachine.go: tracks the currently open state debug group
}

// FrameGraphOption configures a FrameGraph at construction, following the
// teacher's functional-options convention.
type FrameGraphOption func(*FrameGraph)

// WithLogger installs a structured logger (defaults to discard).
func WithLogger(l *slog.Logger) FrameGraphOption {
	return func(fg *FrameGraph) {
		if l != nil {
			fg.log = l
		}
	}
}

// WithProfiler attaches a frame profiler. RunFrame ticks it once per
// completed frame at the StateEndFrame boundary (spec.md §4.8 beginBlock
// mentions per-block timing; the profiler samples at the coarser
// per-frame grain the teacher's profiler package already supports).
func WithProfiler(p *profiler.Profiler) FrameGraphOption {
	return func(fg *FrameGraph) {
		fg.prof = p
	}
}

// New builds a FrameGraph bound to device, recording into stream.
func New(device *gal.Device, stream *drawstream.Stream, opts ...FrameGraphOption) *FrameGraph {
	fg := &FrameGraph{
		device: device,
		stream: stream,
		pool:   newRenderbufferPool(device),
		views:  make(map[ViewID]*view),
		log:    slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1})),
	}
	for _, o := range opts {
		o(fg)
	}
	return fg
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// RegisterPlugin appends a plugin to the fixed-order hook chain (spec.md
// §4.8 "Plugin hooks ... all called in fixed order").
func (fg *FrameGraph) RegisterPlugin(p *Plugin) { fg.plugins = append(fg.plugins, p) }

// BeginBlock pushes a scoped debug marker, also the boundary for
// per-block profiling timestamps (spec.md §4.8).
func (fg *FrameGraph) BeginBlock(name string) { fg.stream.BeginDebugGroup(name) }

// EndBlock pops the most recently pushed debug marker.
func (fg *FrameGraph) EndBlock() { fg.stream.EndDebugGroup() }

// CreateRenderbuffer returns a pool-allocated transient texture handle
// (spec.md §4.8 createRenderbuffer).
func (fg *FrameGraph) CreateRenderbuffer(desc RenderbufferDesc) (RenderbufferHandle, error) {
	h, _, err := fg.pool.Checkout(desc)
	return h, err
}

// ReleaseRenderbuffer returns a transient texture to the pool's free list
// once nothing subsequent in the frame needs it exclusively.
func (fg *FrameGraph) ReleaseRenderbuffer(h RenderbufferHandle) { fg.pool.Release(h) }

// SetRenderTargets binds up to 8 color targets plus an optional
// depth-stencil target, issuing state transitions for every attachment
// (spec.md §4.8 setRenderTargets). Pass a zero handle for ds to omit
// depth-stencil.
func (fg *FrameGraph) SetRenderTargets(colors []RenderbufferHandle, ds RenderbufferHandle) {
	if len(colors) > 8 {
		colors = colors[:8]
	}
	copy(fg.boundColors[:], colors)
	fg.numColors = len(colors)
	fg.boundDS = ds

	colorTex := make([]*gal.Texture, len(colors))
	for i, h := range colors {
		tex := fg.pool.Texture(h)
		colorTex[i] = tex
		if tex != nil {
			if _, changed := tex.SetState(gal.StateRenderTarget); changed {
				fg.stream.BarrierWrite(tex)
			}
		}
	}
	var dsTex *gal.Texture
	if ds != 0 {
		dsTex = fg.pool.Texture(ds)
		if dsTex != nil {
			if _, changed := dsTex.SetState(gal.StateDepthWrite); changed {
				fg.stream.BarrierWrite(dsTex)
			}
		}
	}
	fg.stream.SetFramebuffer(colorTex, dsTex)
}

// Pass uploads the per-view uniform block at slot 1 (spec.md §4.8 pass).
// Pixel jitter (spec.md "enablePixelJitter") is folded into params.Jitter
// by the caller before Pass is invoked.
func (fg *FrameGraph) Pass(params CameraParams) {
	fg.stream.SetUniform(1, common.StructToBytes(&params))
}

// Cull sorts model instances (already gathered and frustum-tested by the
// Render Module, see engine/rendermodule.Module.Cull) into the requested
// buckets and returns a ViewID for subsequent RenderBucket calls (spec.md
// §4.8 cull).
func (fg *FrameGraph) Cull(params CameraParams, buckets []Bucket, instances []DrawInstance) ViewID {
	v := &view{params: params, buckets: make([][]DrawInstance, len(buckets))}
	for _, inst := range instances {
		for bi, b := range buckets {
			if !matchesBucket(inst, b) {
				continue
			}
			v.buckets[bi] = append(v.buckets[bi], inst)
		}
	}
	for bi, b := range buckets {
		sortBucket(v.buckets[bi], b.Sort)
	}

	fg.nextViewID++
	id := fg.nextViewID
	fg.views[id] = v
	return id
}

func matchesBucket(inst DrawInstance, b Bucket) bool {
	return inst.MaterialHash&b.Define == b.Define || b.Define == 0
}

func sortBucket(instances []DrawInstance, mode SortMode) {
	// Simple insertion sort: bucket sizes are small per-frame partitions
	// and stability matters more than asymptotic complexity here.
	less := func(i, j int) bool {
		if instances[i].Depth != instances[j].Depth {
			if mode == SortFrontToBack {
				return instances[i].Depth < instances[j].Depth
			}
			return instances[i].Depth > instances[j].Depth
		}
		if instances[i].MaterialHash != instances[j].MaterialHash {
			return instances[i].MaterialHash < instances[j].MaterialHash
		}
		return instances[i].MeshHash < instances[j].MeshHash
	}
	for i := 1; i < len(instances); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			instances[j], instances[j-1] = instances[j-1], instances[j]
		}
	}
}

// RenderBucket emits instanced draws for one bucket of a prior Cull
// result, in the order Cull's sort already established (spec.md §4.8
// renderBucket).
func (fg *FrameGraph) RenderBucket(id ViewID, bucketIndex int) {
	v, ok := fg.views[id]
	if !ok || bucketIndex < 0 || bucketIndex >= len(v.buckets) {
		return
	}
	for _, inst := range v.buckets[bucketIndex] {
		fg.stream.UseProgram(inst.Program)
		fg.stream.BindVertexBuffer(inst.VertexBuffer, 0)
		if inst.IndexBuffer != nil {
			fg.stream.BindIndexBuffer(inst.IndexBuffer)
			fg.stream.DrawIndexedInstanced(0, int32(inst.IndexCount), 1)
		}
	}
}

// DrawArray forwards to the draw stream (spec.md §4.8 drawArray).
func (fg *FrameGraph) DrawArray(first, count uint32) { fg.stream.DrawArray(first, count) }

// DrawIndexed forwards to the draw stream.
func (fg *FrameGraph) DrawIndexed(firstIndex, indexCount int32) {
	fg.stream.DrawIndexed(firstIndex, indexCount)
}

// DrawIndexedInstanced forwards to the draw stream.
func (fg *FrameGraph) DrawIndexedInstanced(firstIndex, indexCount, instanceCount int32) {
	fg.stream.DrawIndexedInstanced(firstIndex, indexCount, instanceCount)
}

// DrawIndirect forwards to the draw stream.
func (fg *FrameGraph) DrawIndirect(indirect *gal.Buffer, offset uint64) {
	fg.stream.DrawIndirect(indirect, offset)
}

// Dispatch forwards to the draw stream.
func (fg *FrameGraph) Dispatch(x, y, z uint32) { fg.stream.Dispatch(x, y, z) }

// Copy performs a channel-swizzled blit from src to dst (spec.md §4.8
// copy). Swizzle masks select which of src's R/G/B channels feed dst's
// R/G/B; a backend lacking native swizzled blit performs this as a
// full-screen shader pass, left to the draw-stream executor.
func (fg *FrameGraph) Copy(dst, src RenderbufferHandle, rMask, gMask, bMask bool) {
	dstTex, srcTex := fg.pool.Texture(dst), fg.pool.Texture(src)
	if dstTex == nil || srcTex == nil {
		return
	}
	fg.stream.Copy(dstTex, srcTex, 0, 0, rMask, gMask, bMask)
}

// ToTexture unwraps a renderbuffer handle to its backing GAL texture for
// this frame (spec.md §4.8 toTexture).
func (fg *FrameGraph) ToTexture(h RenderbufferHandle) *gal.Texture { return fg.pool.Texture(h) }

// ToBindless returns the SRV bindless slot backing a renderbuffer handle
// (spec.md §4.8 toBindless).
func (fg *FrameGraph) ToBindless(h RenderbufferHandle) uint32 {
	if t := fg.pool.Texture(h); t != nil {
		return t.SRVSlot
	}
	return gal.NullTextureSRV
}

// ToRWBindless returns the UAV bindless slot backing a renderbuffer
// handle, for compute-writable renderbuffers (spec.md §4.8 toRWBindless).
func (fg *FrameGraph) ToRWBindless(h RenderbufferHandle) uint32 {
	if t := fg.pool.Texture(h); t != nil {
		return t.UAVSlot
	}
	return gal.NullTextureSRV
}

// EnablePixelJitter toggles sub-pixel jittering of the camera projection,
// required by TAA and upscalers (spec.md §4.8 enablePixelJitter).
// Disabling it also disables TAA (spec.md §4.9).
func (fg *FrameGraph) EnablePixelJitter(enabled bool) { fg.pixelJitter = enabled }

// PixelJitterEnabled reports the current jitter toggle.
func (fg *FrameGraph) PixelJitterEnabled() bool { return fg.pixelJitter }

// SetUniform writes an anonymous uniform block to scratch slot 5 using
// the current frame's upload buffer (spec.md §4.8 setUniform; slot 5 is
// the last of the root signature's six CBV slots 0..5 from spec.md §4.3).
func (fg *FrameGraph) SetUniform(data []byte) { fg.stream.SetUniform(5, data) }

// Stream exposes the draw stream plugins record additional commands into.
func (fg *FrameGraph) Stream() *drawstream.Stream { return fg.stream }

// Device exposes the GAL device plugins need for renderbuffer-adjacent
// GPU object creation (samplers, bind groups) the frame graph itself
// doesn't wrap.
func (fg *FrameGraph) Device() *gal.Device { return fg.device }
