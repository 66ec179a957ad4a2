package gal

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// BufferFlags mirrors spec.md §3 Buffer flags.
type BufferFlags uint32

const (
	// BufferFlagMappable adds map-write usage to the native buffer; no
	// persistent mapping is created.
	BufferFlagMappable BufferFlags = 1 << iota
	// BufferFlagShaderBuffer additionally creates a UAV/storage view.
	BufferFlagShaderBuffer
)

// Buffer is a GAL resource object: size, flags, a lazily-tracked state tag,
// and a bindless slot (spec.md §3).
type Buffer struct {
	Size  uint64
	Flags BufferFlags
	Name  string

	Native *wgpu.Buffer
	state  ResourceState

	// Slot is the bindless ID for shader-buffer access; zero (NullBufferSRV)
	// for buffers that are only ever bound directly (vertex/index/uniform).
	Slot uint32

	mapped []byte // persistent pointer for mappable buffers
}

// CreateBuffer allocates a native buffer sized for `size` bytes, uploading
// `data` immediately if non-nil, and reserves a bindless slot for shader
// buffers, matching spec.md §4.2.
func (d *Device) CreateBuffer(size uint64, flags BufferFlags, data []byte, name string) (*Buffer, error) {
	usage := wgpu.BufferUsageCopyDst | wgpu.BufferUsageVertex | wgpu.BufferUsageIndex | wgpu.BufferUsageUniform | wgpu.BufferUsageIndirect
	if flags&BufferFlagShaderBuffer != 0 {
		usage |= wgpu.BufferUsageStorage
	}
	if flags&BufferFlagMappable != 0 {
		usage |= wgpu.BufferUsageMapWrite
	}

	native, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: name,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gal: create buffer %q: %w", name, err)
	}

	b := &Buffer{Size: size, Flags: flags, Name: name, Native: native, state: StateCopyDst}
	if flags&BufferFlagShaderBuffer != 0 {
		b.Slot = d.descriptors.ReserveID()
	}
	if data != nil {
		d.queue.WriteBuffer(native, 0, data)
	}
	return b, nil
}

// Update writes `data` at `offset` with Queue.WriteBuffer, tagging the
// buffer copy-dst for the write and restoring its prior state tag
// afterwards; the frame's scratch upload buffer is not used.
func (d *Device) Update(b *Buffer, offset uint64, data []byte) {
	prior, _ := b.SetState(StateCopyDst)
	d.queue.WriteBuffer(b.Native, offset, data)
	b.state = prior
}

// State returns the buffer's last-recorded state tag.
func (b *Buffer) State() ResourceState { return b.state }

// SetState implements the same lazy transition tracking as Texture.SetState.
func (b *Buffer) SetState(newState ResourceState) (old ResourceState, changed bool) {
	old = b.state
	if old == newState {
		return old, false
	}
	b.state = newState
	return old, true
}

// Destroy releases the native buffer and its bindless slot.
func (b *Buffer) Destroy(d *Device) {
	if b.Slot != 0 {
		d.descriptors.Release(b.Slot)
	}
	b.Native.Destroy()
}
