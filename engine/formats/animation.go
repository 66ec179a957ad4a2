package formats

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
)

// animationMagic is the 4-byte .ani magic, paralleling physics's "_LPF"
// (spec §6 names a generic "magic" without fixing its bytes).
var animationMagic = [4]byte{'_', 'L', 'A', 'F'}

// animationVersionRootMotion is the first .ani version that carries a
// root-motion bone index (spec §6: "root-motion bone index (i32 from v3)").
const animationVersionRootMotion = 3

// positionQuantum is the fixed-point scale applied to compressed position
// keys: a stored int16 s represents s/32767*positionQuantum meters. Chosen
// to cover typical character-rig travel per key (±32 m) at sub-millimeter
// precision; clips needing a larger range quantize with visible stepping,
// matching the lossy nature of "compressed" key streams named in spec §6.
const positionQuantum = 32.0

// BoneNameHash is the 32-bit FNV-1a hash of a bone name, used to key
// animation tracks independently of mesh skeleton bone indices (spec §6:
// "keyed by bone name hash").
func BoneNameHash(name string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return h.Sum32()
}

// PositionKey is one compressed translation keyframe.
type PositionKey struct {
	Time  float32
	Value [3]float32
}

// RotationKey is one compressed rotation keyframe (quaternion, x,y,z,w).
type RotationKey struct {
	Time  float32
	Value [4]float32
}

// BoneTrack is one bone's interleaved position/rotation key streams,
// keyed by BoneNameHash rather than a skeleton-relative index so an
// animation clip can be retargeted across skeletons that share bone
// names.
type BoneTrack struct {
	NameHash     uint32
	PositionKeys []PositionKey
	RotationKeys []RotationKey
}

// AnimationClip is the on-disk .ani payload.
type AnimationClip struct {
	Version             uint32
	FPS                 uint32
	RootMotionBoneIndex int32 // -1 when Version < animationVersionRootMotion
	FrameCount          int32

	Tracks []BoneTrack
}

// ReadAnimationClip parses a .ani file from r per spec §6's bit layout.
func ReadAnimationClip(r io.Reader) (*AnimationClip, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("formats: read .ani magic: %w", err)
	}
	if magic != animationMagic {
		return nil, fmt.Errorf("formats: bad .ani magic %q", magic)
	}

	var fixed struct{ Version, FPS uint32 }
	if err := binary.Read(r, binary.LittleEndian, &fixed); err != nil {
		return nil, fmt.Errorf("formats: read version/fps: %w", err)
	}

	clip := &AnimationClip{Version: fixed.Version, FPS: fixed.FPS, RootMotionBoneIndex: -1}

	if fixed.Version >= animationVersionRootMotion {
		if err := binary.Read(r, binary.LittleEndian, &clip.RootMotionBoneIndex); err != nil {
			return nil, fmt.Errorf("formats: read root_motion_bone_index: %w", err)
		}
	}

	var counts struct{ FrameCount, BoneCount int32 }
	if err := binary.Read(r, binary.LittleEndian, &counts); err != nil {
		return nil, fmt.Errorf("formats: read frame_count/bone_count: %w", err)
	}
	if counts.FrameCount < 0 || counts.BoneCount < 0 {
		return nil, fmt.Errorf("formats: negative frame_count/bone_count %d/%d", counts.FrameCount, counts.BoneCount)
	}
	clip.FrameCount = counts.FrameCount

	clip.Tracks = make([]BoneTrack, counts.BoneCount)
	for i := range clip.Tracks {
		t := &clip.Tracks[i]
		if err := binary.Read(r, binary.LittleEndian, &t.NameHash); err != nil {
			return nil, fmt.Errorf("formats: bone track %d name_hash: %w", i, err)
		}

		var posCount int32
		if err := binary.Read(r, binary.LittleEndian, &posCount); err != nil {
			return nil, fmt.Errorf("formats: bone track %d pos_key_count: %w", i, err)
		}
		t.PositionKeys = make([]PositionKey, posCount)
		for k := range t.PositionKeys {
			key, err := readCompressedPositionKey(r)
			if err != nil {
				return nil, fmt.Errorf("formats: bone track %d position key %d: %w", i, k, err)
			}
			t.PositionKeys[k] = key
		}

		var rotCount int32
		if err := binary.Read(r, binary.LittleEndian, &rotCount); err != nil {
			return nil, fmt.Errorf("formats: bone track %d rot_key_count: %w", i, err)
		}
		t.RotationKeys = make([]RotationKey, rotCount)
		for k := range t.RotationKeys {
			key, err := readCompressedRotationKey(r)
			if err != nil {
				return nil, fmt.Errorf("formats: bone track %d rotation key %d: %w", i, k, err)
			}
			t.RotationKeys[k] = key
		}
	}
	return clip, nil
}

// WriteAnimationClip serializes clip to the .ani layout, the inverse of
// ReadAnimationClip.
func WriteAnimationClip(w io.Writer, clip *AnimationClip) error {
	if _, err := w.Write(animationMagic[:]); err != nil {
		return fmt.Errorf("formats: write .ani magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, struct{ Version, FPS uint32 }{clip.Version, clip.FPS}); err != nil {
		return fmt.Errorf("formats: write version/fps: %w", err)
	}
	if clip.Version >= animationVersionRootMotion {
		if err := binary.Write(w, binary.LittleEndian, clip.RootMotionBoneIndex); err != nil {
			return fmt.Errorf("formats: write root_motion_bone_index: %w", err)
		}
	}
	counts := struct{ FrameCount, BoneCount int32 }{clip.FrameCount, int32(len(clip.Tracks))}
	if err := binary.Write(w, binary.LittleEndian, counts); err != nil {
		return fmt.Errorf("formats: write frame_count/bone_count: %w", err)
	}

	for i, t := range clip.Tracks {
		if err := binary.Write(w, binary.LittleEndian, t.NameHash); err != nil {
			return fmt.Errorf("formats: bone track %d name_hash: %w", i, err)
		}
		if err := binary.Write(w, binary.LittleEndian, int32(len(t.PositionKeys))); err != nil {
			return fmt.Errorf("formats: bone track %d pos_key_count: %w", i, err)
		}
		for k, key := range t.PositionKeys {
			if err := writeCompressedPositionKey(w, key); err != nil {
				return fmt.Errorf("formats: bone track %d position key %d: %w", i, k, err)
			}
		}
		if err := binary.Write(w, binary.LittleEndian, int32(len(t.RotationKeys))); err != nil {
			return fmt.Errorf("formats: bone track %d rot_key_count: %w", i, err)
		}
		for k, key := range t.RotationKeys {
			if err := writeCompressedRotationKey(w, key); err != nil {
				return fmt.Errorf("formats: bone track %d rotation key %d: %w", i, k, err)
			}
		}
	}
	return nil
}

func readCompressedPositionKey(r io.Reader) (PositionKey, error) {
	var raw struct {
		Time  float32
		Value [3]int16
	}
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return PositionKey{}, err
	}
	return PositionKey{
		Time: raw.Time,
		Value: [3]float32{
			dequantize(raw.Value[0]),
			dequantize(raw.Value[1]),
			dequantize(raw.Value[2]),
		},
	}, nil
}

func writeCompressedPositionKey(w io.Writer, key PositionKey) error {
	raw := struct {
		Time  float32
		Value [3]int16
	}{
		Time: key.Time,
		Value: [3]int16{
			quantize(key.Value[0]),
			quantize(key.Value[1]),
			quantize(key.Value[2]),
		},
	}
	return binary.Write(w, binary.LittleEndian, raw)
}

func readCompressedRotationKey(r io.Reader) (RotationKey, error) {
	var raw struct {
		Time  float32
		Value [4]int16
	}
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return RotationKey{}, err
	}
	return RotationKey{
		Time: raw.Time,
		Value: [4]float32{
			dequantizeUnit(raw.Value[0]),
			dequantizeUnit(raw.Value[1]),
			dequantizeUnit(raw.Value[2]),
			dequantizeUnit(raw.Value[3]),
		},
	}, nil
}

func writeCompressedRotationKey(w io.Writer, key RotationKey) error {
	raw := struct {
		Time  float32
		Value [4]int16
	}{
		Time: key.Time,
		Value: [4]int16{
			quantizeUnit(key.Value[0]),
			quantizeUnit(key.Value[1]),
			quantizeUnit(key.Value[2]),
			quantizeUnit(key.Value[3]),
		},
	}
	return binary.Write(w, binary.LittleEndian, raw)
}

func quantize(v float32) int16 {
	return int16(clampFloat(v/positionQuantum, -1, 1) * 32767)
}

func dequantize(v int16) float32 {
	return float32(v) / 32767 * positionQuantum
}

func quantizeUnit(v float32) int16 {
	return int16(clampFloat(v, -1, 1) * 32767)
}

func dequantizeUnit(v int16) float32 {
	return float32(v) / 32767
}

func clampFloat(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
