package gal

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/oxyforge/corerender/engine/renderer/shader"
)

func TestCompileGraphicsProgramRejectsWrongShaderTypes(t *testing.T) {
	d := &Device{}
	vs := shader.NewShaderFromBytes("vs", shader.ShaderTypeVertex, []byte("@vertex fn main() {}"))
	fs := shader.NewShaderFromBytes("fs", shader.ShaderTypeFragment, []byte("@fragment fn main() {}"))

	if _, err := d.CompileGraphicsProgram(fs, fs, 0, StateWord{}, wgpu.PrimitiveTopologyTriangleList, 0); err == nil {
		t.Fatal("expected an error when the vertex slot is given a fragment shader")
	}
	if _, err := d.CompileGraphicsProgram(vs, vs, 0, StateWord{}, wgpu.PrimitiveTopologyTriangleList, 0); err == nil {
		t.Fatal("expected an error when the fragment slot is given a vertex shader")
	}
}

func TestCompileComputeProgramRejectsWrongShaderType(t *testing.T) {
	d := &Device{}
	vs := shader.NewShaderFromBytes("vs", shader.ShaderTypeVertex, []byte("@vertex fn main() {}"))
	if _, err := d.CompileComputeProgram(vs, 0); err == nil {
		t.Fatal("expected an error when a non-compute shader is passed to CompileComputeProgram")
	}
}
