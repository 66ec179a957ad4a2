package drawstream

import "github.com/oxyforge/corerender/engine/gal"

// The payload types below are the per-opcode data recorded by Stream's
// typed helper methods. Executors (engine/framegraph) type-assert
// Command.Payload against these when draining a merged stream.

type CreateBufferPayload struct {
	Size  uint64
	Flags gal.BufferFlags
	Data  []byte
	Name  string
	Out   **gal.Buffer // filled by the executor once the GAL call completes
}

type UpdateBufferPayload struct {
	Buffer *gal.Buffer
	Offset uint64
	Data   []byte
}

type CreateTexturePayload struct {
	Width, Height, Depth uint32
	Format               gal.FormatID
	Flags                gal.TextureFlags
	Name                 string
	Out                  **gal.Texture
}

type UpdateTexturePayload struct {
	Texture                  *gal.Texture
	Mip, X, Y, Z, W, H       uint32
	Data                     []byte
}

type BindVertexBufferPayload struct {
	Buffer *gal.Buffer
	Slot   uint32
}

type BindIndexBufferPayload struct {
	Buffer *gal.Buffer
}

type BindIndirectBufferPayload struct {
	Buffer *gal.Buffer
}

type BindUniformBufferPayload struct {
	Buffer *gal.Buffer
	Slot   uint32
	Offset uint64
}

type BindBindlessTablePayload struct{}

type SetFramebufferPayload struct {
	Colors []*gal.Texture
	Depth  *gal.Texture
}

type SetViewportPayload struct{ X, Y, W, H float32 }
type SetScissorPayload struct{ X, Y, W, H int32 }

type ClearPayload struct {
	Color         [4]float32
	Depth         float32
	Stencil       uint32
	ClearColor    bool
	ClearDepth    bool
	ClearStencil  bool
}

type UseProgramPayload struct{ Program *gal.Program }

type DrawArrayPayload struct{ First, Count uint32 }
type DrawIndexedPayload struct{ FirstIndex, IndexCount int32 }
type DrawIndexedInstancedPayload struct {
	FirstIndex, IndexCount, InstanceCount int32
}
type DrawIndirectPayload struct {
	IndirectBuffer *gal.Buffer
	Offset         uint64
}

type DispatchPayload struct{ X, Y, Z uint32 }

type CopyPayload struct {
	Dst, Src                *gal.Texture
	DstX, DstY               uint32
	RMask, GMask, BMask       bool
}

type BarrierPayload struct {
	Texture *gal.Texture
	Buffer  *gal.Buffer
}

type DebugGroupPayload struct{ Name string }

type QueryPayload struct{ QueryIndex uint32 }

type SetUniformPayload struct {
	Slot uint32
	Data []byte
}

// UseProgram records a program bind. The executor is idempotent: binding
// the same program twice in a row is a no-op (spec.md §8 "Idempotence of
// useProgram(p); useProgram(p)").
func (s *Stream) UseProgram(p *gal.Program) { s.push(OpUseProgram, UseProgramPayload{Program: p}) }

func (s *Stream) BindVertexBuffer(b *gal.Buffer, slot uint32) {
	s.push(OpBindVertexBuffer, BindVertexBufferPayload{Buffer: b, Slot: slot})
}

func (s *Stream) BindIndexBuffer(b *gal.Buffer) {
	s.push(OpBindIndexBuffer, BindIndexBufferPayload{Buffer: b})
}

func (s *Stream) BindUniformBuffer(b *gal.Buffer, slot uint32, offset uint64) {
	s.push(OpBindUniformBuffer, BindUniformBufferPayload{Buffer: b, Slot: slot, Offset: offset})
}

func (s *Stream) SetFramebuffer(colors []*gal.Texture, depth *gal.Texture) {
	s.push(OpSetFramebuffer, SetFramebufferPayload{Colors: colors, Depth: depth})
}

func (s *Stream) SetViewport(x, y, w, h float32) {
	s.push(OpSetViewport, SetViewportPayload{X: x, Y: y, W: w, H: h})
}

func (s *Stream) SetScissor(x, y, w, h int32) {
	s.push(OpSetScissor, SetScissorPayload{X: x, Y: y, W: w, H: h})
}

func (s *Stream) Clear(color [4]float32, depth float32, clearColor, clearDepth bool) {
	s.push(OpClear, ClearPayload{Color: color, Depth: depth, ClearColor: clearColor, ClearDepth: clearDepth})
}

func (s *Stream) DrawArray(first, count uint32) { s.push(OpDrawArray, DrawArrayPayload{First: first, Count: count}) }

func (s *Stream) DrawIndexed(firstIndex, indexCount int32) {
	s.push(OpDrawIndexed, DrawIndexedPayload{FirstIndex: firstIndex, IndexCount: indexCount})
}

func (s *Stream) DrawIndexedInstanced(firstIndex, indexCount, instanceCount int32) {
	s.push(OpDrawIndexedInstanced, DrawIndexedInstancedPayload{FirstIndex: firstIndex, IndexCount: indexCount, InstanceCount: instanceCount})
}

func (s *Stream) DrawIndirect(buf *gal.Buffer, offset uint64) {
	s.push(OpDrawIndirect, DrawIndirectPayload{IndirectBuffer: buf, Offset: offset})
}

func (s *Stream) Dispatch(x, y, z uint32) { s.push(OpDispatch, DispatchPayload{X: x, Y: y, Z: z}) }

func (s *Stream) Copy(dst, src *gal.Texture, dstX, dstY uint32, rMask, gMask, bMask bool) {
	s.push(OpCopy, CopyPayload{Dst: dst, Src: src, DstX: dstX, DstY: dstY, RMask: rMask, GMask: gMask, BMask: bMask})
}

func (s *Stream) BarrierRead(t *gal.Texture) { s.push(OpBarrierRead, BarrierPayload{Texture: t}) }
func (s *Stream) BarrierWrite(t *gal.Texture) { s.push(OpBarrierWrite, BarrierPayload{Texture: t}) }
func (s *Stream) MemoryBarrier(t *gal.Texture) { s.push(OpMemoryBarrier, BarrierPayload{Texture: t}) }

// BarrierReadBuffer, BarrierWriteBuffer and MemoryBarrierBuffer are the
// buffer-target analogues of the texture barrier helpers above; both
// target kinds share BarrierPayload, which already carries a Buffer field.
func (s *Stream) BarrierReadBuffer(b *gal.Buffer) { s.push(OpBarrierRead, BarrierPayload{Buffer: b}) }
func (s *Stream) BarrierWriteBuffer(b *gal.Buffer) { s.push(OpBarrierWrite, BarrierPayload{Buffer: b}) }
func (s *Stream) MemoryBarrierBuffer(b *gal.Buffer) { s.push(OpMemoryBarrier, BarrierPayload{Buffer: b}) }

func (s *Stream) BeginDebugGroup(name string) { s.push(OpDebugGroupPush, DebugGroupPayload{Name: name}) }
func (s *Stream) EndDebugGroup()               { s.push(OpDebugGroupPop, DebugGroupPayload{}) }

// SetUniform writes an anonymous uniform block to the given slot from the
// current frame's upload buffer (spec.md §4.8 setUniform).
func (s *Stream) SetUniform(slot uint32, data []byte) {
	s.push(OpSetUniform, SetUniformPayload{Slot: slot, Data: data})
}

func (s *Stream) BeginQuery(index uint32) { s.push(OpBeginQuery, QueryPayload{QueryIndex: index}) }
func (s *Stream) EndQuery(index uint32)   { s.push(OpEndQuery, QueryPayload{QueryIndex: index}) }
func (s *Stream) Timestamp(index uint32)  { s.push(OpTimestamp, QueryPayload{QueryIndex: index}) }

func (s *Stream) CreateBuffer(size uint64, flags gal.BufferFlags, data []byte, name string, out **gal.Buffer) {
	s.push(OpCreateBuffer, CreateBufferPayload{Size: size, Flags: flags, Data: data, Name: name, Out: out})
}

func (s *Stream) DestroyBuffer(b *gal.Buffer) { s.push(OpDestroyBuffer, BarrierPayload{Buffer: b}) }

func (s *Stream) UpdateBuffer(b *gal.Buffer, offset uint64, data []byte) {
	s.push(OpUpdateBuffer, UpdateBufferPayload{Buffer: b, Offset: offset, Data: data})
}

func (s *Stream) CreateTexture(w, h, depth uint32, format gal.FormatID, flags gal.TextureFlags, name string, out **gal.Texture) {
	s.push(OpCreateTexture, CreateTexturePayload{Width: w, Height: h, Depth: depth, Format: format, Flags: flags, Name: name, Out: out})
}

func (s *Stream) DestroyTexture(t *gal.Texture) { s.push(OpDestroyTexture, BarrierPayload{Texture: t}) }

func (s *Stream) UpdateTexture(t *gal.Texture, mip, x, y, z, w, h uint32, data []byte) {
	s.push(OpUpdateTexture, UpdateTexturePayload{Texture: t, Mip: mip, X: x, Y: y, Z: z, W: w, H: h, Data: data})
}
