package rendermodule

import (
	"testing"

	"github.com/oxyforge/corerender/engine/game_object"
)

func TestFromGameObjectCarriesTransformWithoutAnimator(t *testing.T) {
	obj := game_object.NewGameObject(
		game_object.WithPosition(1, 2, 3),
		game_object.WithScale(2, 2, 2),
	)

	inst := FromGameObject(obj, nil, 0xABC, 0xDEF, false)

	if inst.Center != [3]float32{1, 2, 3} {
		t.Fatalf("expected instance center to follow the object's position, got %v", inst.Center)
	}
	if inst.Transform[12] != 1 || inst.Transform[13] != 2 || inst.Transform[14] != 3 {
		t.Fatalf("expected the model matrix translation column to carry the object's position, got %v", inst.Transform)
	}
	if inst.Transform[0] != 2 {
		t.Fatalf("expected the model matrix to carry the object's scale, got %v", inst.Transform[0])
	}
	if inst.MaterialHash != 0xABC || inst.MeshHash != 0xDEF {
		t.Fatal("expected material/mesh hashes to pass through unchanged")
	}
	if inst.VertexBuffer != nil || inst.IndexBuffer != nil {
		t.Fatal("expected nil buffers when the object has no model")
	}
}
