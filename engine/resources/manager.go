package resources

import "sync/atomic"

// Manager is the interface every resource (Texture/Shader/Material/Model)
// implements, per spec.md §4.6: "load(bytes) -> bool, unload(),
// onBeforeReady(), ready/failed flags, reference count, and a path hash."
type Manager interface {
	// Load parses raw bytes into this resource's GPU-ready or CPU-ready
	// form. Returns false on a parse/format failure; the resource then
	// enters StateFailed and consumers fall back to a default (spec.md §7).
	Load(data []byte) bool

	// Unload releases any resources this manager holds. Called once the
	// reference count drops to zero.
	Unload()

	// OnBeforeReady runs synchronously just before the resource transitions
	// to StateReady, giving dependants (e.g. a model waiting on a material)
	// a chance to finish wiring before any consumer observes Ready()==true.
	OnBeforeReady()

	// Dependencies returns the paths this resource must have loaded before
	// it can transition to ready (spec.md §4.6, §9 "Cyclic graphs": "an
	// arena of typed IDs with an explicit dependency list per resource").
	Dependencies() []Dependency
}

// Dependency names another resource this one requires before becoming
// ready (e.g. a model's materials, a material's textures, a shader's
// includes).
type Dependency struct {
	Type ResourceType
	Path string
}

// Base is embedded by concrete resource implementations to provide the
// shared state/refcount/path-hash bookkeeping spec.md §4.6 requires,
// mirroring the teacher's pattern of small embeddable structs for shared
// behavior (e.g. common.SliceToBytes helpers reused across resource kinds).
type Base struct {
	path     string
	pathHash uint64
	refs     atomic.Int32
	state    atomic.Uint32 // State
}

// NewBase initializes the embeddable resource bookkeeping for `path`.
func NewBase(path string) Base {
	return Base{path: path, pathHash: PathHash(path)}
}

func (b *Base) Path() string      { return b.path }
func (b *Base) PathHash() uint64  { return b.pathHash }
func (b *Base) Ready() bool       { return State(b.state.Load()) == StateReady }
func (b *Base) Failed() bool      { return State(b.state.Load()) == StateFailed }
func (b *Base) RefCount() int32   { return b.refs.Load() }

func (b *Base) IncRef() int32 { return b.refs.Add(1) }
func (b *Base) DecRef() int32 { return b.refs.Add(-1) }

func (b *Base) setState(s State) { b.state.Store(uint32(s)) }
