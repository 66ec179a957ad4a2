// Package drawstream implements the engine's in-process command buffer
// (spec.md §4.5): an append-only stream of GAL calls that any thread may
// record into, merged and drained in a deterministic order on the render
// thread. It is distinct from the native API command list the GAL itself
// records into (see the GLOSSARY entry "Draw Stream" in spec.md).
package drawstream

import "sync"

// Op identifies one recorded command. The set mirrors spec.md §4.5's
// "required operations" list.
type Op uint8

const (
	OpCreateBuffer Op = iota
	OpDestroyBuffer
	OpUpdateBuffer
	OpCreateTexture
	OpDestroyTexture
	OpUpdateTexture
	OpBindVertexBuffer
	OpBindIndexBuffer
	OpBindIndirectBuffer
	OpBindUniformBuffer
	OpBindBindlessTable
	OpSetFramebuffer
	OpSetViewport
	OpSetScissor
	OpClear
	OpUseProgram
	OpDrawArray
	OpDrawIndexed
	OpDrawIndexedInstanced
	OpDrawIndirect
	OpDispatch
	OpCopy
	OpBarrierRead
	OpBarrierWrite
	OpMemoryBarrier
	OpDebugGroupPush
	OpDebugGroupPop
	OpBeginQuery
	OpEndQuery
	OpTimestamp
	OpSetUniform
	OpLambda
)

// Command is one entry in the stream: an opcode plus an opaque payload
// the render thread's executor switches on. Payload shapes live in ops.go.
type Command struct {
	Op      Op
	Payload any
}

// Stream is an append-only, single-producer command buffer. Each
// goroutine that records draw calls owns its own Stream (spec.md §4.5:
// "Any thread may record into its own stream"); segments are merged by
// the render thread via Merge, in the deterministic submission order
// defined by the frame graph's pass sequence.
type Stream struct {
	mu   sync.Mutex
	cmds []Command
}

// New creates an empty per-thread stream.
func New() *Stream { return &Stream{} }

func (s *Stream) push(op Op, payload any) {
	s.mu.Lock()
	s.cmds = append(s.cmds, Command{Op: op, Payload: payload})
	s.mu.Unlock()
}

// PushLambda records a backend-specific escape hatch: a function invoked
// directly by the render thread's executor with no GAL mediation, used
// for calling a foreign library (e.g. an upscaler) with backend-native
// handles (spec.md §4.5).
func (s *Stream) PushLambda(fn func()) { s.push(OpLambda, fn) }

// Commands returns a snapshot of the recorded commands in append order.
// Used by Merge and by tests asserting submission order.
func (s *Stream) Commands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Command, len(s.cmds))
	copy(out, s.cmds)
	return out
}

// Reset clears the stream for reuse across frames.
func (s *Stream) Reset() {
	s.mu.Lock()
	s.cmds = s.cmds[:0]
	s.mu.Unlock()
}

// Len reports the number of recorded commands.
func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cmds)
}
