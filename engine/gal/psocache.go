package gal

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// PSOCache deterministically maps (program, render-target layout) to a
// pipeline state object, per spec.md §4.3. The cache key is purely a
// function of the shader hash, state word, and render-target formats, so
// "identical shader + render-target-layout deterministically maps to one
// PSO regardless of which framebuffer object holds those targets."
type PSOCache struct {
	mu    sync.Mutex
	gfx   map[uint64]*wgpu.RenderPipeline
	compu map[uint64]*wgpu.ComputePipeline

	// disasmMu guards a cache of human-readable shader disassembly used
	// only for debug tooling (spec.md §5: "one mutex for program
	// disassembly caches").
	disasmMu sync.Mutex
	disasm   map[uint64]string
}

// NewPSOCache creates an empty cache.
func NewPSOCache() *PSOCache {
	return &PSOCache{
		gfx:    make(map[uint64]*wgpu.RenderPipeline),
		compu:  make(map[uint64]*wgpu.ComputePipeline),
		disasm: make(map[uint64]string),
	}
}

// GetGraphicsPipeline returns the cached pipeline for the key, creating it
// via `create` on a miss. Repeated calls with the same key return the same
// object (spec.md §8 "PSO cache determinism").
func (c *PSOCache) GetGraphicsPipeline(key uint64, create func() (*wgpu.RenderPipeline, error)) (*wgpu.RenderPipeline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.gfx[key]; ok {
		return p, nil
	}
	p, err := create()
	if err != nil {
		return nil, err
	}
	c.gfx[key] = p
	return p, nil
}

// GetComputePipeline is the compute-pipeline analogue of GetGraphicsPipeline.
func (c *PSOCache) GetComputePipeline(key uint64, create func() (*wgpu.ComputePipeline, error)) (*wgpu.ComputePipeline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.compu[key]; ok {
		return p, nil
	}
	p, err := create()
	if err != nil {
		return nil, err
	}
	c.compu[key] = p
	return p, nil
}

// SetDisassembly stores a shader's human-readable disassembly for debug
// tooling, keyed by the same stable hash used for the PSO cache.
func (c *PSOCache) SetDisassembly(shaderHash uint64, text string) {
	c.disasmMu.Lock()
	defer c.disasmMu.Unlock()
	c.disasm[shaderHash] = text
}

// Disassembly retrieves previously stored shader disassembly, if any.
func (c *PSOCache) Disassembly(shaderHash uint64) (string, bool) {
	c.disasmMu.Lock()
	defer c.disasmMu.Unlock()
	s, ok := c.disasm[shaderHash]
	return s, ok
}

// Count reports the number of cached graphics and compute pipelines, used
// by tests asserting PSO cache determinism (no duplicate entries created
// for the same key across frames).
func (c *PSOCache) Count() (graphics, compute int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.gfx), len(c.compu)
}
