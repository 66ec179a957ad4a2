package rendermodule

import (
	"github.com/oxyforge/corerender/common"
	"github.com/oxyforge/corerender/engine/gal"
	"github.com/oxyforge/corerender/engine/game_object"
)

// FromGameObject builds a ModelInstance from a game_object.GameObject's
// current transform and model, for registration via AddModelInstance. It
// is the adapter between the teacher's scene-entity type
// (engine/game_object.GameObject, which derives its live transform from an
// Animator instance) and the Render Module's own ModelInstance, so a
// GameObject-based scene can still drive spec.md §4.7 culling without
// duplicating transform or model state.
//
// program, materialHash, and meshHash come from whatever pass is about to
// draw the instance (spec.md §4.8's DrawInstance fields are per-pass, not
// per-entity), so they are supplied by the caller rather than derived here.
func FromGameObject(obj game_object.GameObject, program *gal.Program, materialHash, meshHash uint64, transparent bool) *ModelInstance {
	pos, scale, rot, _ := obj.TransformData()

	var transform [16]float32
	common.BuildModelMatrix(transform[:], pos[0], pos[1], pos[2], rot[0], rot[1], rot[2], scale[0], scale[1], scale[2])

	inst := &ModelInstance{
		Program:      program,
		MaterialHash: materialHash,
		MeshHash:     meshHash,
		Transform:    transform,
		Center:       pos,
		Transparent:  transparent,
	}

	if mdl := obj.Model(); mdl != nil {
		inst.Radius = mdl.BoundingRadius()
		if provider := mdl.MeshProvider(); provider != nil {
			if vb := provider.VertexBuffer(); vb != nil {
				inst.VertexBuffer = &gal.Buffer{Native: vb}
			}
			if ib := provider.IndexBuffer(); ib != nil {
				inst.IndexBuffer = &gal.Buffer{Native: ib}
			}
			inst.IndexCount = uint32(provider.IndexCount())
		}
	}

	return inst
}
