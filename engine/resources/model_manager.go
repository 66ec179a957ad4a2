package resources

import (
	"bytes"
	"strings"

	"github.com/oxyforge/corerender/engine/loader"
	"github.com/oxyforge/corerender/engine/model"
	"github.com/oxyforge/corerender/engine/renderer/shader"
)

// ModelManager imports a glTF/GLB model through the teacher's loader
// backend, gated on a fragment shader dependency whose bind group layouts
// drive the imported materials' GPU initialization (engine/loader's
// importedToModel / InitMaterialGPU).
type ModelManager struct {
	Base

	hub              *Hub
	ld               loader.Loader
	fragmentShaderAt string

	raw        []byte
	isGLB      bool
	builtModel model.Model
}

// NewModelManager returns a Factory building models through `ld`, using
// the shader at `fragmentShaderAt` for material GPU init. `hub` resolves
// that shader dependency.
func NewModelManager(hub *Hub, ld loader.Loader, fragmentShaderAt string) Factory {
	return func(path string) Manager {
		return &ModelManager{
			Base:             NewBase(path),
			hub:              hub,
			ld:               ld,
			fragmentShaderAt: fragmentShaderAt,
			isGLB:            strings.EqualFold(extOf(path), ".glb"),
		}
	}
}

func (m *ModelManager) resourceBase() *Base { return &m.Base }

func (m *ModelManager) Load(data []byte) bool {
	m.raw = data
	return true
}

func (m *ModelManager) Dependencies() []Dependency {
	if m.fragmentShaderAt == "" {
		return nil
	}
	return []Dependency{{Type: ResourceShader, Path: m.fragmentShaderAt}}
}

func (m *ModelManager) OnBeforeReady() {
	var frag shader.Shader
	if m.fragmentShaderAt != "" {
		if sm, ok := m.hub.Lookup(ResourceShader, m.fragmentShaderAt).(*ShaderManager); ok {
			frag = sm.Shader()
		}
	}
	built, err := m.ld.LoadReader(m.Path(), bytes.NewReader(m.raw), m.isGLB, frag)
	if err != nil {
		return
	}
	m.builtModel = built
}

func (m *ModelManager) Unload() {
	if m.fragmentShaderAt != "" {
		m.hub.Release(ResourceShader, m.fragmentShaderAt)
	}
	m.builtModel = nil
	m.raw = nil
}

// Model returns the imported model, or nil until Ready().
func (m *ModelManager) Model() model.Model { return m.builtModel }

func extOf(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i:]
	}
	return ""
}
