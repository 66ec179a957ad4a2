package drawstream

// Merge concatenates ordered per-thread stream segments into one Stream in
// the given order. Ordering across threads is the caller's responsibility
// (spec.md §4.5: "streams merge on the render thread in a deterministic
// order (submission order == frame-graph topological order)"); the frame
// graph determines that order by construction (it records each pass's
// segment in the sequence it issues the pass), so Merge itself performs no
// reordering or synchronization beyond simple concatenation.
func Merge(segments ...*Stream) *Stream {
	out := New()
	for _, seg := range segments {
		out.cmds = append(out.cmds, seg.Commands()...)
	}
	return out
}

// Executor receives each drained Command in stream order. engine/framegraph
// implements this to translate opcodes into GAL calls; the render thread is
// the only caller (spec.md §4.5: "The render thread drains commands via a
// single switch, calling into the GAL").
type Executor interface {
	Execute(cmd Command)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(Command)

func (f ExecutorFunc) Execute(cmd Command) { f(cmd) }

// Drain feeds every recorded command to exec in order, then resets the
// stream for reuse next frame.
func (s *Stream) Drain(exec Executor) {
	for _, cmd := range s.Commands() {
		exec.Execute(cmd)
	}
	s.Reset()
}
