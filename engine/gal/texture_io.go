package gal

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// UpdateTexture uploads `data` into a sub-region of one mip level: tags
// the texture copy-dst, writes with Queue.WriteTexture using a 256-byte
// aligned row pitch, and restores the texture's previous state tag. The
// frame argument is not used; no scratch upload buffer is involved.
func (d *Device) UpdateTexture(f *Frame, tex *Texture, mip, x, y, z, w, h uint32, data []byte) error {
	fd, ok := formatTable[tex.Format]
	if !ok {
		return fmt.Errorf("gal: unknown format for texture %q", tex.Name)
	}
	prior, _ := tex.SetState(StateCopyDst)

	bytesPerRow := alignUp(w*fd.bytesPerTexel, 256)
	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex.Native,
			MipLevel: mip,
			Origin:   wgpu.Origin3D{X: x, Y: y, Z: z},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{BytesPerRow: bytesPerRow, RowsPerImage: h},
		&wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)

	tex.state = prior
	return nil
}

// UploadTexture writes `data` into mip 0 of `tex` outside the render
// frame's command stream, for resource-hub loads that happen on worker
// goroutines rather than the render thread (spec.md §4.6 asynchronous
// loading). WriteTexture is queue-level and safe to call concurrently
// with frame recording.
func (d *Device) UploadTexture(format FormatID, tex *Texture, mip, x, y, z, w, h uint32, data []byte) error {
	fd, ok := formatTable[format]
	if !ok {
		return fmt.Errorf("gal: unknown format for texture %q", tex.Name)
	}
	bytesPerRow := alignUp(w*fd.bytesPerTexel, 256)
	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex.Native,
			MipLevel: mip,
			Origin:   wgpu.Origin3D{X: x, Y: y, Z: z},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{BytesPerRow: bytesPerRow, RowsPerImage: h},
		&wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	_, _ = tex.SetState(StateShaderRead)
	return nil
}

// CopyTexture copies matching mip 0 / layer 0 regions between two textures
// of identical format, placing the destination origin at (dstX, dstY),
// matching spec.md §4.2's texture-to-texture copy.
func (d *Device) CopyTexture(enc *wgpu.CommandEncoder, dst, src *Texture, dstX, dstY uint32) {
	_, _ = src.SetState(StateCopySrc)
	_, _ = dst.SetState(StateCopyDst)
	w := src.Width
	if dst.Width-dstX < w {
		w = dst.Width - dstX
	}
	h := src.Height
	if dst.Height-dstY < h {
		h = dst.Height - dstY
	}
	enc.CopyTextureToTexture(
		&wgpu.ImageCopyTexture{Texture: src.Native},
		&wgpu.ImageCopyTexture{Texture: dst.Native, Origin: wgpu.Origin3D{X: dstX, Y: dstY}},
		&wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
}

// ReadCallback receives the tightly-packed pixel rows of a completed
// readback (spec.md §4.2 readTexture / §4.4 "pending texture-read
// callbacks").
type ReadCallback func(pixels []byte, width, height uint32)

// pendingRead is queued on a Frame and resolved in Frame.Begin once the
// frame that issued the copy has retired (spec.md §4.4).
type pendingRead struct {
	staging  *wgpu.Buffer
	width    uint32
	height   uint32
	rowPitch uint32
	cb       ReadCallback
}

// ReadTexture schedules a copy of the full extent of `tex` into a readback
// staging buffer; once the frame retires, rows are packed tight and `cb`
// is invoked (spec.md §4.2, §4.4). The staging buffer is released after
// the callback runs.
func (d *Device) ReadTexture(f *Frame, enc *wgpu.CommandEncoder, tex *Texture, cb ReadCallback) error {
	fd := formatTable[tex.Format]
	rowPitch := alignUp(tex.Width*fd.bytesPerTexel, 256)
	size := uint64(rowPitch) * uint64(tex.Height)

	staging, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: tex.Name + ":readback",
		Size:  size,
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return fmt.Errorf("gal: create readback buffer for %q: %w", tex.Name, err)
	}

	_, _ = tex.SetState(StateCopySrc)
	enc.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{Texture: tex.Native},
		&wgpu.ImageCopyBuffer{Buffer: staging, Layout: wgpu.TextureDataLayout{BytesPerRow: rowPitch, RowsPerImage: tex.Height}},
		&wgpu.Extent3D{Width: tex.Width, Height: tex.Height, DepthOrArrayLayers: 1},
	)

	f.pendingReads = append(f.pendingReads, pendingRead{staging: staging, width: tex.Width, height: tex.Height, rowPitch: rowPitch, cb: cb})
	return nil
}

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) / align * align
}
