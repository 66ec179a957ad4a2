package formats

import (
	"bytes"
	"testing"

	"github.com/oxyforge/corerender/engine/model"
)

func sampleModel() *Model {
	attrs := []AttributeDecl{
		{Name: "position", Type: AttributePosition},
		{Name: "normal", Type: AttributeNormal},
		{Name: "texcoord0", Type: AttributeTexCoord0},
	}
	verts := []model.GPUSkinnedVertex{
		{GPUVertex: model.GPUVertex{Position: [3]float32{0, 0, 0}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{0, 0}}},
		{GPUVertex: model.GPUVertex{Position: [3]float32{1, 0, 0}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{1, 0}}},
		{GPUVertex: model.GPUVertex{Position: [3]float32{0, 1, 0}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{0, 1}}},
	}
	stride := 12 + 12 + 8
	return &Model{
		Version:      1,
		Indices16Bit: false,
		MeshEntries: []MeshEntry{{
			MaterialName:         "default",
			AttributeArrayOffset: 0,
			AttributeArraySize:   int32(stride * len(verts)),
			IndicesOffset:        0,
			TriCount:             1,
			MeshName:             "tri",
			Attributes:           attrs,
		}},
		Imported: model.ImportedModel{
			Meshes: []model.ImportedMesh{{
				Name:     "tri",
				Vertices: verts,
				Indices:  []uint32{0, 1, 2},
			}},
		},
		LODs: []LOD{{ToMesh: 0, SquaredDistance: 100}},
	}
}

func TestModelRoundTrip(t *testing.T) {
	want := sampleModel()
	var buf bytes.Buffer
	if err := WriteModel(&buf, want); err != nil {
		t.Fatalf("WriteModel: %v", err)
	}

	got, err := ReadModel(&buf)
	if err != nil {
		t.Fatalf("ReadModel: %v", err)
	}

	if got.Version != want.Version || got.Indices16Bit != want.Indices16Bit {
		t.Fatalf("header mismatch: got %+v", got)
	}
	if len(got.Imported.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(got.Imported.Meshes))
	}
	gotMesh := got.Imported.Meshes[0]
	wantMesh := want.Imported.Meshes[0]
	if len(gotMesh.Vertices) != len(wantMesh.Vertices) {
		t.Fatalf("expected %d vertices, got %d", len(wantMesh.Vertices), len(gotMesh.Vertices))
	}
	for i := range wantMesh.Vertices {
		if gotMesh.Vertices[i].Position != wantMesh.Vertices[i].Position {
			t.Fatalf("vertex %d position mismatch: got %v want %v", i, gotMesh.Vertices[i].Position, wantMesh.Vertices[i].Position)
		}
		if gotMesh.Vertices[i].Normal != wantMesh.Vertices[i].Normal {
			t.Fatalf("vertex %d normal mismatch: got %v want %v", i, gotMesh.Vertices[i].Normal, wantMesh.Vertices[i].Normal)
		}
	}
	if len(gotMesh.Indices) != len(wantMesh.Indices) {
		t.Fatalf("expected %d indices, got %d", len(wantMesh.Indices), len(gotMesh.Indices))
	}
	if len(got.LODs) != 1 || got.LODs[0].SquaredDistance != 100 {
		t.Fatalf("LOD mismatch: got %+v", got.LODs)
	}
}

func TestModelRoundTripWith16BitIndices(t *testing.T) {
	want := sampleModel()
	want.Indices16Bit = true

	var buf bytes.Buffer
	if err := WriteModel(&buf, want); err != nil {
		t.Fatalf("WriteModel: %v", err)
	}
	got, err := ReadModel(&buf)
	if err != nil {
		t.Fatalf("ReadModel: %v", err)
	}
	if !got.Indices16Bit {
		t.Fatal("expected INDICES_16BIT flag to round-trip")
	}
	if len(got.Imported.Meshes[0].Indices) != 3 {
		t.Fatalf("expected 3 indices, got %d", len(got.Imported.Meshes[0].Indices))
	}
}

func TestModelWithSkeletonResolvesParentIndices(t *testing.T) {
	want := sampleModel()
	want.Imported.Skeleton = &model.Skeleton{
		Bones: []model.Bone{
			{Name: "root", ParentIndex: -1, LocalTransform: model.Transform{Scale: [3]float32{1, 1, 1}}},
			{Name: "child", ParentIndex: 0, LocalTransform: model.Transform{Scale: [3]float32{1, 1, 1}}},
		},
	}

	var buf bytes.Buffer
	if err := WriteModel(&buf, want); err != nil {
		t.Fatalf("WriteModel: %v", err)
	}
	got, err := ReadModel(&buf)
	if err != nil {
		t.Fatalf("ReadModel: %v", err)
	}
	if got.Imported.Skeleton == nil || len(got.Imported.Skeleton.Bones) != 2 {
		t.Fatalf("expected 2-bone skeleton, got %+v", got.Imported.Skeleton)
	}
	if got.Imported.Skeleton.Bones[0].ParentIndex != -1 {
		t.Fatalf("expected root bone parent index -1, got %d", got.Imported.Skeleton.Bones[0].ParentIndex)
	}
	if got.Imported.Skeleton.Bones[1].ParentIndex != 0 {
		t.Fatalf("expected child bone parent index 0, got %d", got.Imported.Skeleton.Bones[1].ParentIndex)
	}
}

func TestReadModelRejectsBadMagic(t *testing.T) {
	buf := bytes.NewReader([]byte{0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0})
	if _, err := ReadModel(buf); err == nil {
		t.Fatal("expected error for bad magic")
	}
}
