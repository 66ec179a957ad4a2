package gal

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// TextureFlags mirrors spec.md §3 Texture flags.
type TextureFlags uint32

const (
	TextureFlagSRGB TextureFlags = 1 << iota
	TextureFlagNoMips
	TextureFlagIs3D
	TextureFlagIsCube
	TextureFlagRenderTarget
	TextureFlagComputeWrite
	TextureFlagReadback
)

func (f TextureFlags) has(bit TextureFlags) bool { return f&bit != 0 }

// formatDesc is the lookup-table entry spec.md §4.2 describes: "picks a
// native format from a lookup table (FormatDesc)". bytesPerTexel is used by
// Update/ReadTexture for scratch-buffer row pitch math.
type formatDesc struct {
	native        wgpu.TextureFormat
	bytesPerTexel uint32
	depth         bool
}

var formatTable = map[FormatID]formatDesc{
	FormatRGBA8Unorm:     {wgpu.TextureFormatRGBA8Unorm, 4, false},
	FormatRGBA8UnormSRGB: {wgpu.TextureFormatRGBA8UnormSrgb, 4, false},
	FormatRGBA16Float:    {wgpu.TextureFormatRGBA16Float, 8, false},
	FormatRGBA32Float:    {wgpu.TextureFormatRGBA32Float, 16, false},
	FormatRG32Float:      {wgpu.TextureFormatRG32Float, 8, false},
	FormatR32Float:       {wgpu.TextureFormatR32Float, 4, false},
	FormatR8Unorm:        {wgpu.TextureFormatR8Unorm, 1, false},
	FormatDepth32Float:   {wgpu.TextureFormatDepth32Float, 4, true},
	FormatDepth24Plus:    {wgpu.TextureFormatDepth24Plus, 4, true},
}

// FormatID is the engine-facing texture/buffer format enumeration; it is
// stable across backends even though the underlying wgpu.TextureFormat
// values are not part of this package's public contract.
type FormatID uint8

const (
	FormatRGBA8Unorm FormatID = iota
	FormatRGBA8UnormSRGB
	FormatRGBA16Float
	FormatRGBA32Float
	FormatRG32Float
	FormatR32Float
	FormatR8Unorm
	FormatDepth32Float
	FormatDepth24Plus
)

// ResourceState is the lazily-tracked state tag from spec.md §4.2:
// "A texture's current state reflects its last recorded transition in the
// Draw Stream, not the GPU's true state; transitions are emitted lazily on
// access."
type ResourceState uint8

const (
	StateUndefined ResourceState = iota
	StateCopyDst
	StateCopySrc
	StateShaderRead
	StateRenderTarget
	StateDepthWrite
	StateUAV
)

// Texture is a GAL resource object: an immutable descriptor plus an owned
// native image, a lazily-tracked state tag, and a bindless descriptor slot
// (spec.md §3). A texture view shares the native image and owns its own
// bindless slot without owning the image's lifetime.
type Texture struct {
	Width, Height, Depth, Layers, Mips uint32
	Format                             FormatID
	Flags                              TextureFlags
	Name                               string

	Native *wgpu.Texture
	View   *wgpu.TextureView

	state ResourceState

	// SRVSlot and UAVSlot are this texture's bindless IDs (spec.md §4.1,
	// §4.2: "writes SRV (+UAV if compute-writable) into the texture's
	// bindless pair"). UAVSlot is zero-value (NullTextureSRV) unless the
	// texture has TextureFlagComputeWrite.
	SRVSlot uint32
	UAVSlot uint32

	isView  bool
	parent  *Texture
}

// CreateTexture allocates a committed native texture, chooses its initial
// resource state from the supplied flags, and reserves SRV(+UAV) bindless
// slots, matching spec.md §4.2.
func (d *Device) CreateTexture(width, height, depth uint32, format FormatID, flags TextureFlags, name string) (*Texture, error) {
	fd, ok := formatTable[format]
	if !ok {
		return nil, fmt.Errorf("gal: unknown texture format %d", format)
	}

	usage := wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst
	initial := StateShaderRead
	switch {
	case fd.depth:
		usage |= wgpu.TextureUsageRenderAttachment
		initial = StateDepthWrite
	case flags.has(TextureFlagRenderTarget):
		usage |= wgpu.TextureUsageRenderAttachment
		initial = StateRenderTarget
	case flags.has(TextureFlagComputeWrite):
		usage |= wgpu.TextureUsageStorageBinding
		initial = StateUAV
	}
	if flags.has(TextureFlagReadback) {
		usage |= wgpu.TextureUsageCopySrc
	}

	dim := wgpu.TextureDimension2D
	mips := uint32(1)
	if !flags.has(TextureFlagNoMips) {
		mips = mipCount(width, height)
	}

	native, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         name,
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: max1(depth)},
		MipLevelCount: mips,
		SampleCount:   1,
		Dimension:     dim,
		Format:        fd.native,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gal: create texture %q: %w", name, err)
	}

	view, err := native.CreateView(nil)
	if err != nil {
		return nil, fmt.Errorf("gal: create texture view %q: %w", name, err)
	}

	t := &Texture{
		Width: width, Height: height, Depth: max1(depth), Layers: 1, Mips: mips,
		Format: format, Flags: flags, Name: name,
		Native: native, View: view, state: initial,
	}
	t.SRVSlot = d.descriptors.ReserveID()
	if flags.has(TextureFlagComputeWrite) {
		t.UAVSlot = d.descriptors.ReserveID()
	}
	return t, nil
}

// CreateTextureView creates a texture view sharing the native image; the
// view never releases the image and owns only its own bindless slot,
// matching spec.md §3's "texture view" invariant.
func (d *Device) CreateTextureView(parent *Texture) (*Texture, error) {
	view, err := parent.Native.CreateView(nil)
	if err != nil {
		return nil, fmt.Errorf("gal: create texture view of %q: %w", parent.Name, err)
	}
	v := &Texture{
		Width: parent.Width, Height: parent.Height, Depth: parent.Depth,
		Layers: parent.Layers, Mips: parent.Mips, Format: parent.Format,
		Flags: parent.Flags, Name: parent.Name + ":view",
		Native: parent.Native, View: view, state: parent.state,
		isView: true, parent: parent,
	}
	v.SRVSlot = d.descriptors.ReserveID()
	return v, nil
}

// State returns the texture's last-recorded state tag.
func (t *Texture) State() ResourceState { return t.state }

// SetState performs the lazy state tracking described in spec.md §4.2:
// emits a transition only if the cached state differs, returning the
// previous state so the caller (drawstream execution) can build the
// correct barrier. This does not itself record a GPU barrier — the
// draw-stream executor does that using the returned old state.
func (t *Texture) SetState(newState ResourceState) (old ResourceState, changed bool) {
	old = t.state
	if old == newState {
		return old, false
	}
	t.state = newState
	return old, true
}

// Destroy releases the native image (unless this is a non-owning view) and
// its bindless slot(s). Per spec.md §3, the caller (Frame graveyard) is
// responsible for deferring this call until no in-flight frame still
// references the texture.
func (t *Texture) Destroy(d *Device) {
	d.descriptors.Release(t.SRVSlot)
	if t.UAVSlot != 0 {
		d.descriptors.Release(t.UAVSlot)
	}
	if t.isView {
		t.View.Release()
		return
	}
	t.View.Release()
	t.Native.Destroy()
}

func mipCount(w, h uint32) uint32 {
	m := uint32(1)
	for w > 1 || h > 1 {
		w >>= 1
		h >>= 1
		m++
	}
	return m
}

func max1(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return v
}
