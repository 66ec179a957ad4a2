package resources

import (
	"encoding/json"

	"github.com/oxyforge/corerender/engine/renderer/material"
)

// materialDoc is the on-disk material descriptor: base color factors plus
// the paths of the textures the material binds. There is no serialization
// library anywhere in the example corpus to ground this on (the teacher's
// materials are always produced in-memory by the glTF extractor, never
// read from a standalone file), so this uses encoding/json directly — the
// one spot in this package without a third-party grounding.
type materialDoc struct {
	Name                     string  `json:"name"`
	BaseColor                [4]float32 `json:"baseColor"`
	Metallic                 float32 `json:"metallic"`
	Roughness                float32 `json:"roughness"`
	DiffuseTexture           string  `json:"diffuseTexture"`
	NormalTexture            string  `json:"normalTexture"`
	MetallicRoughnessTexture string  `json:"metallicRoughnessTexture"`
}

// MaterialManager decodes a material descriptor and waits on its
// referenced textures before exposing a material.Material.
type MaterialManager struct {
	Base

	hub *Hub

	doc materialDoc
	mat material.Material

	diffuse, normal, metalRough *TextureManager
}

// NewMaterialManager returns a Factory whose materials resolve texture
// dependencies through `hub`.
func NewMaterialManager(hub *Hub) Factory {
	return func(path string) Manager {
		return &MaterialManager{Base: NewBase(path), hub: hub}
	}
}

func (m *MaterialManager) resourceBase() *Base { return &m.Base }

func (m *MaterialManager) Load(data []byte) bool {
	if err := json.Unmarshal(data, &m.doc); err != nil {
		return false
	}
	return true
}

func (m *MaterialManager) Dependencies() []Dependency {
	var deps []Dependency
	if m.doc.DiffuseTexture != "" {
		deps = append(deps, Dependency{Type: ResourceTexture, Path: m.doc.DiffuseTexture})
	}
	if m.doc.NormalTexture != "" {
		deps = append(deps, Dependency{Type: ResourceTexture, Path: m.doc.NormalTexture})
	}
	if m.doc.MetallicRoughnessTexture != "" {
		deps = append(deps, Dependency{Type: ResourceTexture, Path: m.doc.MetallicRoughnessTexture})
	}
	return deps
}

// OnBeforeReady builds the material.Material after the hub's dependency walk
// has attempted to load every texture dependency. A texture that failed to
// load is left in StateFailed and its Texture() is nil.
func (m *MaterialManager) OnBeforeReady() {
	opts := []material.MaterialBuilderOption{
		material.WithName(m.doc.Name),
		material.WithBaseColor(m.doc.BaseColor),
		material.WithMetallic(m.doc.Metallic),
		material.WithRoughness(m.doc.Roughness),
	}

	if m.doc.DiffuseTexture != "" {
		if tm, ok := m.hub.Lookup(ResourceTexture, m.doc.DiffuseTexture).(*TextureManager); ok {
			m.diffuse = tm
		}
	}
	if m.doc.NormalTexture != "" {
		if tm, ok := m.hub.Lookup(ResourceTexture, m.doc.NormalTexture).(*TextureManager); ok {
			m.normal = tm
		}
	}
	if m.doc.MetallicRoughnessTexture != "" {
		if tm, ok := m.hub.Lookup(ResourceTexture, m.doc.MetallicRoughnessTexture).(*TextureManager); ok {
			m.metalRough = tm
		}
	}

	m.mat = material.NewMaterial(opts...)
}

func (m *MaterialManager) Unload() {
	if m.diffuse != nil {
		m.hub.Release(ResourceTexture, m.doc.DiffuseTexture)
	}
	if m.normal != nil {
		m.hub.Release(ResourceTexture, m.doc.NormalTexture)
	}
	if m.metalRough != nil {
		m.hub.Release(ResourceTexture, m.doc.MetallicRoughnessTexture)
	}
	m.mat = nil
}

// Material returns the built material, or nil until Ready().
func (m *MaterialManager) Material() material.Material { return m.mat }
