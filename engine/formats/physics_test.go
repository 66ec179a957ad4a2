package formats

import (
	"bytes"
	"testing"
)

func TestPhysicsGeometryRoundTripConvex(t *testing.T) {
	want := &PhysicsGeometry{
		Version: 1,
		Convex:  true,
		Vertices: [][3]float32{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1},
		},
	}
	var buf bytes.Buffer
	if err := WritePhysicsGeometry(&buf, want); err != nil {
		t.Fatalf("WritePhysicsGeometry: %v", err)
	}
	got, err := ReadPhysicsGeometry(&buf)
	if err != nil {
		t.Fatalf("ReadPhysicsGeometry: %v", err)
	}
	if !got.Convex {
		t.Fatal("expected convex flag to round-trip true")
	}
	if len(got.Indices) != 0 {
		t.Fatalf("expected no index array for convex geometry, got %d", len(got.Indices))
	}
	if len(got.Vertices) != len(want.Vertices) {
		t.Fatalf("expected %d vertices, got %d", len(want.Vertices), len(got.Vertices))
	}
	for i, v := range want.Vertices {
		if got.Vertices[i] != v {
			t.Fatalf("vertex %d mismatch: got %v want %v", i, got.Vertices[i], v)
		}
	}
}

func TestPhysicsGeometryRoundTripNonConvex(t *testing.T) {
	want := &PhysicsGeometry{
		Version:  2,
		Convex:   false,
		Vertices: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:  []uint32{0, 1, 2},
	}
	var buf bytes.Buffer
	if err := WritePhysicsGeometry(&buf, want); err != nil {
		t.Fatalf("WritePhysicsGeometry: %v", err)
	}
	got, err := ReadPhysicsGeometry(&buf)
	if err != nil {
		t.Fatalf("ReadPhysicsGeometry: %v", err)
	}
	if got.Convex {
		t.Fatal("expected convex flag to round-trip false")
	}
	if len(got.Indices) != 3 {
		t.Fatalf("expected 3 indices, got %d", len(got.Indices))
	}
}

func TestReadPhysicsGeometryRejectsBadMagic(t *testing.T) {
	buf := bytes.NewReader([]byte("BAD!" + "\x01\x00\x00\x00\x00\x00\x00\x00"))
	if _, err := ReadPhysicsGeometry(buf); err == nil {
		t.Fatal("expected error for bad magic")
	}
}
