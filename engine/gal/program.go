package gal

import "github.com/cogentcore/webgpu/wgpu"

// ProgramKind distinguishes a graphics program from a compute program
// (spec.md §3: "compiled shader stages (vertex+pixel or compute)").
type ProgramKind uint8

const (
	ProgramGraphics ProgramKind = iota
	ProgramCompute
)

// Program is a GAL resource object combining compiled shader stages, an
// input-attribute layout, a StateWord, a primitive topology, and a stable
// hash used as the PSO cache key (spec.md §3, §4.3).
type Program struct {
	Kind ProgramKind

	VertexModule   *wgpu.ShaderModule
	FragmentModule *wgpu.ShaderModule
	ComputeModule  *wgpu.ShaderModule

	VertexLayout []wgpu.VertexBufferLayout
	State        StateWord
	Topology     wgpu.PrimitiveTopology

	// ShaderHash is the stable hash of the shader source/bytecode this
	// program wraps (SPEC_FULL.md §9: "(shader_id, defineMask) →
	// programHash"); DefineMask records which permutation was selected.
	ShaderHash uint64
	DefineMask uint32

	// stateHash is computed once at construction and folded into the PSO
	// cache key.
	stateHash uint64
}

// NewGraphicsProgram builds a graphics Program and precomputes its packed
// state hash.
func NewGraphicsProgram(vs, fs *wgpu.ShaderModule, layout []wgpu.VertexBufferLayout, state StateWord, topology wgpu.PrimitiveTopology, shaderHash uint64, defineMask uint32) *Program {
	return &Program{
		Kind: ProgramGraphics, VertexModule: vs, FragmentModule: fs,
		VertexLayout: layout, State: state, Topology: topology,
		ShaderHash: shaderHash, DefineMask: defineMask, stateHash: state.Pack(),
	}
}

// NewComputeProgram builds a compute Program.
func NewComputeProgram(cs *wgpu.ShaderModule, shaderHash uint64, defineMask uint32) *Program {
	return &Program{Kind: ProgramCompute, ComputeModule: cs, ShaderHash: shaderHash, DefineMask: defineMask}
}

// CacheKey computes the PSO cache key per spec.md §4.3:
//   - compute: the program's stable shader hash.
//   - graphics: hash(shader_hash, depth format, color formats[0..count]).
//
// State flags are already baked into ShaderHash's sibling, the state word,
// via stateHash, which is mixed in here so that two programs sharing a
// shader but differing in cull/blend/depth state never collide.
func (p *Program) CacheKey(dsFormat wgpu.TextureFormat, colorFormats []wgpu.TextureFormat) uint64 {
	if p.Kind == ProgramCompute {
		return p.ShaderHash
	}
	buf := make([]byte, 0, 8*(3+len(colorFormats)))
	buf = appendU64(buf, p.ShaderHash)
	buf = appendU64(buf, p.stateHash)
	buf = appendU64(buf, uint64(dsFormat))
	for _, f := range colorFormats {
		buf = appendU64(buf, uint64(f))
	}
	return StableHash(buf)
}

func appendU64(b []byte, v uint64) []byte {
	return append(b,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}
