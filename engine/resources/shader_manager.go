package resources

import (
	"github.com/oxyforge/corerender/engine/renderer/shader"
)

// ShaderManager parses a WGSL source file into a shader.Shader, using the
// resource hub's async read path instead of shader.NewShader's direct
// os.ReadFile.
type ShaderManager struct {
	Base

	key        string
	shaderType shader.ShaderType

	parsed shader.Shader
}

// NewShaderManager returns a Factory for shaders of the given kind. Each
// shader's key, used for pipeline-cache labeling, is its resource path.
func NewShaderManager(shaderType shader.ShaderType) Factory {
	return func(path string) Manager {
		return &ShaderManager{Base: NewBase(path), key: path, shaderType: shaderType}
	}
}

func (s *ShaderManager) resourceBase() *Base { return &s.Base }

func (s *ShaderManager) Load(data []byte) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	s.parsed = shader.NewShaderFromBytes(s.key, s.shaderType, data)
	return true
}

func (s *ShaderManager) OnBeforeReady() {}

func (s *ShaderManager) Unload() { s.parsed = nil }

func (s *ShaderManager) Dependencies() []Dependency { return nil }

// Shader returns the parsed shader, or nil until Ready().
func (s *ShaderManager) Shader() shader.Shader { return s.parsed }
