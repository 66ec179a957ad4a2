package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/oxyforge/corerender/engine/model"
)

// meshMagic is the .msh header magic, 0x5f4c4d4f ("OML_" little-endian).
const meshMagic uint32 = 0x5f4c4d4f

// indices16Bit is header.Flags bit 0: index buffer elements are u16 rather
// than u32.
const indices16Bit uint32 = 1 << 0

// AttributeType identifies a single per-vertex attribute stored in a .msh
// mesh's declared attribute list. The byte layout of each vertex is the
// concatenation of its declared attributes in order, so decoding a mesh
// requires walking its own attribute list rather than assuming a fixed
// vertex struct.
type AttributeType int32

const (
	AttributePosition AttributeType = iota
	AttributeNormal
	AttributeTangent
	AttributeTexCoord0
	AttributeColor
	AttributeBoneIndices
	AttributeBoneWeights
)

// byteSize returns the on-disk size of one instance of this attribute.
func (t AttributeType) byteSize() int {
	switch t {
	case AttributePosition, AttributeNormal:
		return 12
	case AttributeTangent, AttributeColor, AttributeBoneIndices, AttributeBoneWeights:
		return 16
	case AttributeTexCoord0:
		return 8
	default:
		return 0
	}
}

// AttributeDecl is one entry of a mesh's declared attribute list.
type AttributeDecl struct {
	Name string
	Type AttributeType
}

// MeshEntry is a single mesh's metadata record within a .msh file: offsets
// into the file's shared vertex/index geometry blob plus its own declared
// attribute layout.
type MeshEntry struct {
	MaterialName         string
	AttributeArrayOffset int32
	AttributeArraySize   int32
	IndicesOffset        int32
	TriCount             int32
	MeshName             string
	Attributes           []AttributeDecl
}

// LOD is one level-of-detail entry: the mesh index it switches to and the
// squared camera-distance threshold that triggers the switch.
type LOD struct {
	ToMesh          int32
	SquaredDistance float32
}

// Model is the on-disk .msh payload, decoded into engine-native types.
type Model struct {
	Version      uint32
	Indices16Bit bool

	MeshEntries []MeshEntry
	Imported    model.ImportedModel
	LODs        []LOD
}

// ReadModel parses a .msh file from r per spec §6's bit layout: mesh
// metadata records, a shared vertex/index geometry blob sliced per mesh,
// an optional skeleton, and an LOD table.
func ReadModel(r io.Reader) (*Model, error) {
	var hdr struct{ Magic, Version, Flags uint32 }
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("formats: read .msh header: %w", err)
	}
	if hdr.Magic != meshMagic {
		return nil, fmt.Errorf("formats: bad .msh magic %#x", hdr.Magic)
	}

	m := &Model{Version: hdr.Version, Indices16Bit: hdr.Flags&indices16Bit != 0}

	var meshCount int32
	if err := binary.Read(r, binary.LittleEndian, &meshCount); err != nil {
		return nil, fmt.Errorf("formats: read mesh_count: %w", err)
	}
	if meshCount < 0 {
		return nil, fmt.Errorf("formats: negative mesh_count %d", meshCount)
	}

	m.MeshEntries = make([]MeshEntry, meshCount)
	for i := range m.MeshEntries {
		e := &m.MeshEntries[i]
		var err error
		if e.MaterialName, err = readString(r); err != nil {
			return nil, fmt.Errorf("formats: mesh %d material_name: %w", i, err)
		}
		var fixed struct {
			AttributeArrayOffset, AttributeArraySize int32
			IndicesOffset, TriCount                  int32
		}
		if err := binary.Read(r, binary.LittleEndian, &fixed); err != nil {
			return nil, fmt.Errorf("formats: mesh %d offsets: %w", i, err)
		}
		e.AttributeArrayOffset = fixed.AttributeArrayOffset
		e.AttributeArraySize = fixed.AttributeArraySize
		e.IndicesOffset = fixed.IndicesOffset
		e.TriCount = fixed.TriCount
		if e.MeshName, err = readString(r); err != nil {
			return nil, fmt.Errorf("formats: mesh %d mesh_name: %w", i, err)
		}

		var attrCount int32
		if err := binary.Read(r, binary.LittleEndian, &attrCount); err != nil {
			return nil, fmt.Errorf("formats: mesh %d attribute_count: %w", i, err)
		}
		e.Attributes = make([]AttributeDecl, attrCount)
		for j := range e.Attributes {
			name, err := readString(r)
			if err != nil {
				return nil, fmt.Errorf("formats: mesh %d attribute %d name: %w", i, j, err)
			}
			var typ int32
			if err := binary.Read(r, binary.LittleEndian, &typ); err != nil {
				return nil, fmt.Errorf("formats: mesh %d attribute %d type: %w", i, j, err)
			}
			e.Attributes[j] = AttributeDecl{Name: name, Type: AttributeType(typ)}
		}
	}

	var indicesCount int32
	if err := binary.Read(r, binary.LittleEndian, &indicesCount); err != nil {
		return nil, fmt.Errorf("formats: read indices_count: %w", err)
	}
	if indicesCount < 0 {
		return nil, fmt.Errorf("formats: negative indices_count %d", indicesCount)
	}
	indices := make([]uint32, indicesCount)
	if m.Indices16Bit {
		raw := make([]uint16, indicesCount)
		if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
			return nil, fmt.Errorf("formats: read u16 indices: %w", err)
		}
		for i, v := range raw {
			indices[i] = uint32(v)
		}
	} else {
		if err := binary.Read(r, binary.LittleEndian, &indices); err != nil {
			return nil, fmt.Errorf("formats: read u32 indices: %w", err)
		}
	}

	var verticesSize int32
	if err := binary.Read(r, binary.LittleEndian, &verticesSize); err != nil {
		return nil, fmt.Errorf("formats: read vertices_size: %w", err)
	}
	if verticesSize < 0 {
		return nil, fmt.Errorf("formats: negative vertices_size %d", verticesSize)
	}
	vertexBlob := make([]byte, verticesSize)
	if _, err := io.ReadFull(r, vertexBlob); err != nil {
		return nil, fmt.Errorf("formats: read vertex blob: %w", err)
	}

	meshes := make([]model.ImportedMesh, meshCount)
	for i, e := range m.MeshEntries {
		verts, err := decodeVertices(vertexBlob, e)
		if err != nil {
			return nil, fmt.Errorf("formats: mesh %d vertices: %w", i, err)
		}
		lo := int(e.IndicesOffset)
		hi := lo + int(e.TriCount)*3
		if lo < 0 || hi > len(indices) || lo > hi {
			return nil, fmt.Errorf("formats: mesh %d index range [%d,%d) out of bounds (%d total)", i, lo, hi, len(indices))
		}
		meshIndices := append([]uint32(nil), indices[lo:hi]...)
		bmin, bmax := boundsOf(verts)
		meshes[i] = model.ImportedMesh{
			Name:        e.MeshName,
			Vertices:    verts,
			Indices:     meshIndices,
			BoundingMin: bmin,
			BoundingMax: bmax,
		}
	}

	skeleton, err := readSkeleton(r)
	if err != nil {
		return nil, fmt.Errorf("formats: skeleton: %w", err)
	}

	var lodCount int32
	if err := binary.Read(r, binary.LittleEndian, &lodCount); err != nil {
		return nil, fmt.Errorf("formats: read lod_count: %w", err)
	}
	m.LODs = make([]LOD, lodCount)
	if err := binary.Read(r, binary.LittleEndian, &m.LODs); err != nil {
		return nil, fmt.Errorf("formats: read lods: %w", err)
	}

	m.Imported = model.ImportedModel{
		Meshes:   meshes,
		Skeleton: skeleton,
	}
	return m, nil
}

// decodeVertices reads one mesh's vertex array from the shared blob,
// interpreting it per the mesh's own declared attribute order. An attribute
// type this package doesn't recognize counts as zero bytes (the file stores
// no per-attribute size), so vertex data for it is not skipped and the mesh
// fails the stride check or decodes misaligned.
func decodeVertices(blob []byte, e MeshEntry) ([]model.GPUSkinnedVertex, error) {
	stride := 0
	for _, a := range e.Attributes {
		stride += a.byteSize()
	}
	lo, hi := int(e.AttributeArrayOffset), int(e.AttributeArrayOffset)+int(e.AttributeArraySize)
	if lo < 0 || hi > len(blob) || lo > hi {
		return nil, fmt.Errorf("attribute range [%d,%d) out of bounds (%d total)", lo, hi, len(blob))
	}
	if stride == 0 {
		return nil, nil
	}
	region := blob[lo:hi]
	if len(region)%stride != 0 {
		return nil, fmt.Errorf("attribute array size %d not a multiple of vertex stride %d", len(region), stride)
	}
	count := len(region) / stride
	verts := make([]model.GPUSkinnedVertex, count)
	// Vertices lacking a bone attribute are rigid; weight the first
	// influence fully so the skinned and static shading paths agree.
	for i := range verts {
		verts[i].BoneWeights[0] = 1
	}

	for i := 0; i < count; i++ {
		r := bytes.NewReader(region[i*stride : (i+1)*stride])
		for _, a := range e.Attributes {
			if err := decodeAttribute(r, a.Type, &verts[i]); err != nil {
				return nil, fmt.Errorf("vertex %d attribute %s: %w", i, a.Name, err)
			}
		}
	}
	return verts, nil
}

func decodeAttribute(r io.Reader, t AttributeType, v *model.GPUSkinnedVertex) error {
	switch t {
	case AttributePosition:
		return binary.Read(r, binary.LittleEndian, &v.Position)
	case AttributeNormal:
		return binary.Read(r, binary.LittleEndian, &v.Normal)
	case AttributeTangent:
		return binary.Read(r, binary.LittleEndian, &v.Tangent)
	case AttributeTexCoord0:
		return binary.Read(r, binary.LittleEndian, &v.TexCoord)
	case AttributeColor:
		return binary.Read(r, binary.LittleEndian, &v.Color)
	case AttributeBoneIndices:
		return binary.Read(r, binary.LittleEndian, &v.BoneIndices)
	case AttributeBoneWeights:
		return binary.Read(r, binary.LittleEndian, &v.BoneWeights)
	default:
		// Unknown attribute type: byteSize is 0, so nothing is consumed.
		_, err := io.CopyN(io.Discard, r, int64(t.byteSize()))
		return err
	}
}

func boundsOf(verts []model.GPUSkinnedVertex) (min, max [3]float32) {
	if len(verts) == 0 {
		return min, max
	}
	min, max = verts[0].Position, verts[0].Position
	for _, v := range verts[1:] {
		for a := 0; a < 3; a++ {
			if v.Position[a] < min[a] {
				min[a] = v.Position[a]
			}
			if v.Position[a] > max[a] {
				max[a] = v.Position[a]
			}
		}
	}
	return min, max
}

func readSkeleton(r io.Reader) (*model.Skeleton, error) {
	var boneCount int32
	if err := binary.Read(r, binary.LittleEndian, &boneCount); err != nil {
		return nil, fmt.Errorf("read bone_count: %w", err)
	}
	if boneCount == 0 {
		return nil, nil
	}

	names := make([]string, boneCount)
	parentNames := make([]string, boneCount)
	skel := &model.Skeleton{
		Bones:           make([]model.Bone, boneCount),
		BoneNameToIndex: make(map[string]int32, boneCount),
	}
	for i := int32(0); i < boneCount; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("bone %d name: %w", i, err)
		}
		parent, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("bone %d parent name: %w", i, err)
		}
		pos, err := readVec3(r)
		if err != nil {
			return nil, fmt.Errorf("bone %d pos: %w", i, err)
		}
		rot, err := readVec4(r)
		if err != nil {
			return nil, fmt.Errorf("bone %d rot: %w", i, err)
		}
		names[i] = name
		parentNames[i] = parent
		skel.Bones[i] = model.Bone{
			Name:              name,
			InverseBindMatrix: identity4x4(),
			LocalTransform: model.Transform{
				Translation: pos,
				Rotation:    rot,
				Scale:       [3]float32{1, 1, 1},
			},
		}
		skel.BoneNameToIndex[name] = i
	}

	for i, parent := range parentNames {
		if parent == "" {
			skel.Bones[i].ParentIndex = -1
			skel.RootBoneIndices = append(skel.RootBoneIndices, int32(i))
			continue
		}
		idx, ok := skel.BoneNameToIndex[parent]
		if !ok {
			return nil, fmt.Errorf("bone %q references unknown parent %q", names[i], parent)
		}
		skel.Bones[i].ParentIndex = idx
	}
	return skel, nil
}

func identity4x4() [16]float32 {
	var m [16]float32
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	return m
}

// WriteModel serializes m back to the .msh layout, the inverse of
// ReadModel. Used by round-trip tests (spec §8).
func WriteModel(w io.Writer, m *Model) error {
	flags := uint32(0)
	if m.Indices16Bit {
		flags |= indices16Bit
	}
	hdr := struct{ Magic, Version, Flags uint32 }{meshMagic, m.Version, flags}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("formats: write header: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, int32(len(m.MeshEntries))); err != nil {
		return fmt.Errorf("formats: write mesh_count: %w", err)
	}
	for i, e := range m.MeshEntries {
		if err := writeString(w, e.MaterialName); err != nil {
			return fmt.Errorf("formats: mesh %d material_name: %w", i, err)
		}
		fixed := struct {
			AttributeArrayOffset, AttributeArraySize int32
			IndicesOffset, TriCount                  int32
		}{e.AttributeArrayOffset, e.AttributeArraySize, e.IndicesOffset, e.TriCount}
		if err := binary.Write(w, binary.LittleEndian, fixed); err != nil {
			return fmt.Errorf("formats: mesh %d offsets: %w", i, err)
		}
		if err := writeString(w, e.MeshName); err != nil {
			return fmt.Errorf("formats: mesh %d mesh_name: %w", i, err)
		}
		if err := binary.Write(w, binary.LittleEndian, int32(len(e.Attributes))); err != nil {
			return fmt.Errorf("formats: mesh %d attribute_count: %w", i, err)
		}
		for j, a := range e.Attributes {
			if err := writeString(w, a.Name); err != nil {
				return fmt.Errorf("formats: mesh %d attribute %d name: %w", i, j, err)
			}
			if err := binary.Write(w, binary.LittleEndian, int32(a.Type)); err != nil {
				return fmt.Errorf("formats: mesh %d attribute %d type: %w", i, j, err)
			}
		}
	}

	var indices []uint32
	var vertexBlob bytes.Buffer
	for _, mesh := range m.Imported.Meshes {
		indices = append(indices, mesh.Indices...)
		for _, v := range mesh.Vertices {
			if err := encodeVerticesForMesh(&vertexBlob, v, m.MeshEntries); err != nil {
				return err
			}
		}
	}

	if err := binary.Write(w, binary.LittleEndian, int32(len(indices))); err != nil {
		return fmt.Errorf("formats: write indices_count: %w", err)
	}
	if m.Indices16Bit {
		raw := make([]uint16, len(indices))
		for i, v := range indices {
			raw[i] = uint16(v)
		}
		if err := binary.Write(w, binary.LittleEndian, raw); err != nil {
			return fmt.Errorf("formats: write u16 indices: %w", err)
		}
	} else {
		if err := binary.Write(w, binary.LittleEndian, indices); err != nil {
			return fmt.Errorf("formats: write u32 indices: %w", err)
		}
	}

	if err := binary.Write(w, binary.LittleEndian, int32(vertexBlob.Len())); err != nil {
		return fmt.Errorf("formats: write vertices_size: %w", err)
	}
	if _, err := w.Write(vertexBlob.Bytes()); err != nil {
		return fmt.Errorf("formats: write vertex blob: %w", err)
	}

	if err := writeSkeleton(w, m.Imported.Skeleton); err != nil {
		return fmt.Errorf("formats: skeleton: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, int32(len(m.LODs))); err != nil {
		return fmt.Errorf("formats: write lod_count: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, m.LODs); err != nil {
		return fmt.Errorf("formats: write lods: %w", err)
	}
	return nil
}

// encodeVerticesForMesh writes one vertex using the attribute order of the
// first mesh entry (every mesh in a single .msh shares one vertex schema
// in practice; per-mesh attribute lists exist for additive-versioning
// tolerance on read, not divergent per-mesh schemas on write).
func encodeVerticesForMesh(w io.Writer, v model.GPUSkinnedVertex, entries []MeshEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, a := range entries[0].Attributes {
		if err := encodeAttribute(w, a.Type, v); err != nil {
			return err
		}
	}
	return nil
}

func encodeAttribute(w io.Writer, t AttributeType, v model.GPUSkinnedVertex) error {
	switch t {
	case AttributePosition:
		return writeVec3(w, v.Position)
	case AttributeNormal:
		return writeVec3(w, v.Normal)
	case AttributeTangent:
		return writeVec4(w, v.Tangent)
	case AttributeTexCoord0:
		return binary.Write(w, binary.LittleEndian, v.TexCoord)
	case AttributeColor:
		return writeVec4(w, v.Color)
	case AttributeBoneIndices:
		return binary.Write(w, binary.LittleEndian, v.BoneIndices)
	case AttributeBoneWeights:
		return binary.Write(w, binary.LittleEndian, v.BoneWeights)
	default:
		return fmt.Errorf("unknown attribute type %d", t)
	}
}

func writeSkeleton(w io.Writer, skel *model.Skeleton) error {
	if skel == nil {
		return binary.Write(w, binary.LittleEndian, int32(0))
	}
	if err := binary.Write(w, binary.LittleEndian, int32(len(skel.Bones))); err != nil {
		return err
	}
	for _, b := range skel.Bones {
		if err := writeString(w, b.Name); err != nil {
			return err
		}
		parent := ""
		if b.ParentIndex >= 0 && int(b.ParentIndex) < len(skel.Bones) {
			parent = skel.Bones[b.ParentIndex].Name
		}
		if err := writeString(w, parent); err != nil {
			return err
		}
		if err := writeVec3(w, b.LocalTransform.Translation); err != nil {
			return err
		}
		if err := writeVec4(w, b.LocalTransform.Rotation); err != nil {
			return err
		}
	}
	return nil
}
