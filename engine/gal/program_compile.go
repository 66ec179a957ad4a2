package gal

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/oxyforge/corerender/engine/renderer/shader"
)

// CompileGraphicsProgram bridges a parsed vertex+fragment shader.Shader
// pair into a GAL Program: it compiles both into wgpu.ShaderModules and
// wraps them with the input-attribute layout, StateWord, and topology a
// Program needs for PSO lookup (spec.md §3 "compiled shader stages" +
// §4.3 PSO cache key). vertexLayoutKey selects which of the vertex
// shader's parsed @oxy vertex layouts to bind, mirroring
// shader.Shader.VertexLayout's own per-key indexing.
func (d *Device) CompileGraphicsProgram(vs, fs shader.Shader, vertexLayoutKey int, state StateWord, topology wgpu.PrimitiveTopology, defineMask uint32) (*Program, error) {
	if vs.ShaderType() != shader.ShaderTypeVertex {
		return nil, fmt.Errorf("gal: CompileGraphicsProgram: %q is not a vertex shader", vs.Key())
	}
	if fs.ShaderType() != shader.ShaderTypeFragment {
		return nil, fmt.Errorf("gal: CompileGraphicsProgram: %q is not a fragment shader", fs.Key())
	}

	vsModule, err := d.device.CreateShaderModule(vs.Module())
	if err != nil {
		return nil, fmt.Errorf("gal: compiling vertex shader %q: %w", vs.Key(), err)
	}
	fsModule, err := d.device.CreateShaderModule(fs.Module())
	if err != nil {
		return nil, fmt.Errorf("gal: compiling fragment shader %q: %w", fs.Key(), err)
	}

	shaderHash := StableHashString(vs.Key(), fs.Key())
	layout := vs.VertexLayout(vertexLayoutKey)
	return NewGraphicsProgram(vsModule, fsModule, layout, state, topology, shaderHash, defineMask), nil
}

// CompileComputeProgram bridges a parsed compute shader.Shader into a GAL
// Program.
func (d *Device) CompileComputeProgram(cs shader.Shader, defineMask uint32) (*Program, error) {
	if cs.ShaderType() != shader.ShaderTypeCompute {
		return nil, fmt.Errorf("gal: CompileComputeProgram: %q is not a compute shader", cs.Key())
	}

	csModule, err := d.device.CreateShaderModule(cs.Module())
	if err != nil {
		return nil, fmt.Errorf("gal: compiling compute shader %q: %w", cs.Key(), err)
	}

	shaderHash := StableHashString(cs.Key())
	return NewComputeProgram(csModule, shaderHash, defineMask), nil
}
