package gal

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestComputePipelineCacheRetriesFailedCreation(t *testing.T) {
	c := NewPSOCache()
	creations := 0
	create := func() (*wgpu.ComputePipeline, error) {
		creations++
		return nil, errors.New("stub: no real GPU in unit test")
	}
	// The factory errors (no GPU available in this unit test), so the
	// cache should not memoize a failed creation...
	_, err1 := c.GetComputePipeline(42, create)
	_, err2 := c.GetComputePipeline(42, create)
	if err1 == nil || err2 == nil {
		t.Fatal("expected stub creation error")
	}
	if creations != 2 {
		t.Fatalf("expected the factory to be retried after a failed creation, got %d calls", creations)
	}
}

func TestProgramCacheKeyStableAcrossFramebuffers(t *testing.T) {
	state := StateWord{Cull: CullModeBack}
	p := NewGraphicsProgram(nil, nil, nil, state, wgpu.PrimitiveTopologyTriangleList, 0xdeadbeef, 0)
	formats := []wgpu.TextureFormat{wgpu.TextureFormatRGBA8Unorm}
	k1 := p.CacheKey(wgpu.TextureFormatDepth32Float, formats)
	k2 := p.CacheKey(wgpu.TextureFormatDepth32Float, formats)
	if k1 != k2 {
		t.Fatal("identical shader+RT-layout must hash to the same PSO key across calls")
	}

	other := NewGraphicsProgram(nil, nil, nil, StateWord{Cull: CullModeFront}, wgpu.PrimitiveTopologyTriangleList, 0xdeadbeef, 0)
	if other.CacheKey(wgpu.TextureFormatDepth32Float, formats) == k1 {
		t.Fatal("differing state word must not collide in the PSO cache key")
	}
}
