package formats

import (
	"bytes"
	"math"
	"testing"
)

func TestAnimationClipRoundTrip(t *testing.T) {
	want := &AnimationClip{
		Version:             3,
		FPS:                 30,
		RootMotionBoneIndex: 2,
		FrameCount:          60,
		Tracks: []BoneTrack{
			{
				NameHash: BoneNameHash("hips"),
				PositionKeys: []PositionKey{
					{Time: 0, Value: [3]float32{0, 0, 0}},
					{Time: 1, Value: [3]float32{0.5, 1.25, -2}},
				},
				RotationKeys: []RotationKey{
					{Time: 0, Value: [4]float32{0, 0, 0, 1}},
					{Time: 1, Value: [4]float32{0.1, 0.2, 0.3, 0.9}},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteAnimationClip(&buf, want); err != nil {
		t.Fatalf("WriteAnimationClip: %v", err)
	}
	got, err := ReadAnimationClip(&buf)
	if err != nil {
		t.Fatalf("ReadAnimationClip: %v", err)
	}

	if got.Version != want.Version || got.FPS != want.FPS || got.FrameCount != want.FrameCount {
		t.Fatalf("header mismatch: got %+v", got)
	}
	if got.RootMotionBoneIndex != want.RootMotionBoneIndex {
		t.Fatalf("expected root motion bone index %d, got %d", want.RootMotionBoneIndex, got.RootMotionBoneIndex)
	}
	if len(got.Tracks) != 1 {
		t.Fatalf("expected 1 bone track, got %d", len(got.Tracks))
	}
	track := got.Tracks[0]
	if track.NameHash != BoneNameHash("hips") {
		t.Fatalf("expected bone track keyed by name hash")
	}
	for i, key := range want.Tracks[0].PositionKeys {
		for a := 0; a < 3; a++ {
			if !approxEqual(track.PositionKeys[i].Value[a], key.Value[a], positionQuantum/32767) {
				t.Fatalf("position key %d axis %d: got %v want %v", i, a, track.PositionKeys[i].Value[a], key.Value[a])
			}
		}
	}
	for i, key := range want.Tracks[0].RotationKeys {
		for a := 0; a < 4; a++ {
			if !approxEqual(track.RotationKeys[i].Value[a], key.Value[a], 1.0/32767) {
				t.Fatalf("rotation key %d component %d: got %v want %v", i, a, track.RotationKeys[i].Value[a], key.Value[a])
			}
		}
	}
}

func TestAnimationClipOmitsRootMotionBeforeV3(t *testing.T) {
	want := &AnimationClip{Version: 2, FPS: 24, RootMotionBoneIndex: -1, FrameCount: 10}
	var buf bytes.Buffer
	if err := WriteAnimationClip(&buf, want); err != nil {
		t.Fatalf("WriteAnimationClip: %v", err)
	}
	got, err := ReadAnimationClip(&buf)
	if err != nil {
		t.Fatalf("ReadAnimationClip: %v", err)
	}
	if got.RootMotionBoneIndex != -1 {
		t.Fatalf("expected root motion bone index -1 for version < 3, got %d", got.RootMotionBoneIndex)
	}
}

func TestBoneNameHashIsDeterministic(t *testing.T) {
	if BoneNameHash("spine_01") != BoneNameHash("spine_01") {
		t.Fatal("expected BoneNameHash to be deterministic for identical input")
	}
	if BoneNameHash("spine_01") == BoneNameHash("spine_02") {
		t.Fatal("expected different bone names to hash differently")
	}
}

func approxEqual(a, b, tolerance float32) bool {
	return math.Abs(float64(a-b)) <= float64(tolerance)*1.0001
}
