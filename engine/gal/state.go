package gal

import "github.com/cogentcore/webgpu/wgpu"

// StencilOp mirrors the small set of stencil operations the state word can
// express (spec.md §4.3 "stencil sfail/zfail/zpass ops").
type StencilOp uint8

const (
	StencilOpKeep StencilOp = iota
	StencilOpZero
	StencilOpReplace
	StencilOpIncrementClamp
	StencilOpDecrementClamp
	StencilOpInvert
	StencilOpIncrementWrap
	StencilOpDecrementWrap
)

// StencilFunc mirrors the spec's "stencil function (disable/always/equal/not_equal)".
type StencilFunc uint8

const (
	StencilFuncDisable StencilFunc = iota
	StencilFuncAlways
	StencilFuncEqual
	StencilFuncNotEqual
)

// CullMode mirrors spec.md §4.3 "cull mode (none/back/front)".
type CullMode uint8

const (
	CullModeNone CullMode = iota
	CullModeBack
	CullModeFront
)

// DepthCompare mirrors spec.md §4.3 "depth test enable + comparison
// (always/greater/equal)". corerender standardizes on reverse-Z (see
// SPEC_FULL.md §9 Open Questions), so CompareGreater is the default for any
// depth-testing program.
type DepthCompare uint8

const (
	DepthCompareAlways DepthCompare = iota
	DepthCompareGreater
	DepthCompareEqual
)

// BlendFactor is the small subset of blend factors the state word encodes.
type BlendFactor uint8

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
	BlendFactorSrc1Color
)

// StateWord is the single 64-bit packed render state described in
// spec.md §4.3. Its bit layout is a backend implementation detail; the
// semantics of each field are normative. It is baked into a Program's
// stable hash, so two programs with identical shader bytecode but
// different StateWord values never collide in the PSO cache.
type StateWord struct {
	Cull          CullMode
	DepthTest     bool
	DepthCompare  DepthCompare
	DepthWrite    bool
	Wireframe     bool
	BlendEnabled  bool
	SrcRGB, DstRGB BlendFactor
	SrcA, DstA     BlendFactor
	StencilFunc    StencilFunc
	StencilReadMask, StencilWriteMask, StencilRef uint8
	StencilSFail, StencilZFail, StencilZPass      StencilOp
}

// Pack folds the StateWord into a single uint64 for hashing and equality
// comparisons. Field widths are generous rather than bit-tight: this is a
// cache key, not a wire format, so packing density does not matter.
func (s StateWord) Pack() uint64 {
	var w uint64
	w |= uint64(s.Cull) << 0
	w |= b2u(s.DepthTest) << 2
	w |= uint64(s.DepthCompare) << 3
	w |= b2u(s.DepthWrite) << 5
	w |= b2u(s.Wireframe) << 6
	w |= b2u(s.BlendEnabled) << 7
	w |= uint64(s.SrcRGB) << 8
	w |= uint64(s.DstRGB) << 11
	w |= uint64(s.SrcA) << 14
	w |= uint64(s.DstA) << 17
	w |= uint64(s.StencilFunc) << 20
	w |= uint64(s.StencilReadMask) << 22
	w |= uint64(s.StencilWriteMask) << 30
	w |= uint64(s.StencilRef) << 38
	w |= uint64(s.StencilSFail) << 46
	w |= uint64(s.StencilZFail) << 49
	w |= uint64(s.StencilZPass) << 52
	return w
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// WGPUCullMode converts the state word's cull mode into the backend's type.
func (s StateWord) WGPUCullMode() wgpu.CullMode {
	switch s.Cull {
	case CullModeBack:
		return wgpu.CullModeBack
	case CullModeFront:
		return wgpu.CullModeFront
	default:
		return wgpu.CullModeNone
	}
}

// WGPUDepthCompare converts the state word's depth comparison into the
// backend's type, folding DepthTest=false into always-pass per spec §4.3.
func (s StateWord) WGPUDepthCompare() wgpu.CompareFunction {
	if !s.DepthTest {
		return wgpu.CompareFunctionAlways
	}
	switch s.DepthCompare {
	case DepthCompareGreater:
		return wgpu.CompareFunctionGreater
	case DepthCompareEqual:
		return wgpu.CompareFunctionEqual
	default:
		return wgpu.CompareFunctionAlways
	}
}

func (f BlendFactor) wgpu() wgpu.BlendFactor {
	switch f {
	case BlendFactorOne:
		return wgpu.BlendFactorOne
	case BlendFactorSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case BlendFactorOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	case BlendFactorSrc1Color:
		return wgpu.BlendFactorSrc1Color
	default:
		return wgpu.BlendFactorZero
	}
}

// WGPUBlendState converts the state word's blend factors into a backend
// blend state, or nil when blending is disabled.
func (s StateWord) WGPUBlendState() *wgpu.BlendState {
	if !s.BlendEnabled {
		return nil
	}
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: s.SrcRGB.wgpu(),
			DstFactor: s.DstRGB.wgpu(),
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: s.SrcA.wgpu(),
			DstFactor: s.DstA.wgpu(),
			Operation: wgpu.BlendOperationAdd,
		},
	}
}

func (f StencilFunc) wgpu() wgpu.CompareFunction {
	switch f {
	case StencilFuncAlways:
		return wgpu.CompareFunctionAlways
	case StencilFuncEqual:
		return wgpu.CompareFunctionEqual
	case StencilFuncNotEqual:
		return wgpu.CompareFunctionNotEqual
	default:
		return wgpu.CompareFunctionAlways
	}
}

func (o StencilOp) wgpu() wgpu.StencilOperation {
	switch o {
	case StencilOpZero:
		return wgpu.StencilOperationZero
	case StencilOpReplace:
		return wgpu.StencilOperationReplace
	case StencilOpIncrementClamp:
		return wgpu.StencilOperationIncrementClamp
	case StencilOpDecrementClamp:
		return wgpu.StencilOperationDecrementClamp
	case StencilOpInvert:
		return wgpu.StencilOperationInvert
	case StencilOpIncrementWrap:
		return wgpu.StencilOperationIncrementWrap
	case StencilOpDecrementWrap:
		return wgpu.StencilOperationDecrementWrap
	default:
		return wgpu.StencilOperationKeep
	}
}

// WGPUDepthStencilState builds a full depth-stencil state for a render
// pipeline descriptor from the state word, using the given depth-stencil
// attachment format (spec.md §3 GBuffer.DS, or a renderbuffer's format).
func (s StateWord) WGPUDepthStencilState(dsFormat wgpu.TextureFormat) *wgpu.DepthStencilState {
	face := wgpu.StencilFaceState{
		Compare:     s.StencilFunc.wgpu(),
		FailOp:      s.StencilSFail.wgpu(),
		DepthFailOp: s.StencilZFail.wgpu(),
		PassOp:      s.StencilZPass.wgpu(),
	}
	return &wgpu.DepthStencilState{
		Format:              dsFormat,
		DepthWriteEnabled:   s.DepthWrite,
		DepthCompare:        s.WGPUDepthCompare(),
		StencilFront:        face,
		StencilBack:         face,
		StencilReadMask:     uint32(s.StencilReadMask),
		StencilWriteMask:    uint32(s.StencilWriteMask),
	}
}
