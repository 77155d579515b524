package subdiv

import (
	"bytes"
	"encoding/binary"

	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// LoadGltfCage reads a control cage from a .gltf or .glb file.
func LoadGltfCage(path string) (*ObjMesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open gltf %s", path)
	}
	return ReadGltfCage(doc)
}

// ReadGltfCage collects the triangle primitives of every mesh into one
// control cage. Node transforms are ignored and vertices with identical
// positions are welded.
func ReadGltfCage(doc *gltf.Document) (*ObjMesh, error) {
	cage := &ObjMesh{}
	weld := make(map[vec3.T]int32)
	for mi, mh := range doc.Meshes {
		for pi, ps := range mh.Primitives {
			if ps.Mode != gltf.PrimitiveTriangles {
				continue
			}
			posIdx, ok := ps.Attributes["POSITION"]
			if !ok {
				return nil, errors.Errorf("mesh %d primitive %d has no positions", mi, pi)
			}
			pos, err := readPositions(doc, posIdx)
			if err != nil {
				return nil, errors.Wrapf(err, "mesh %d primitive %d", mi, pi)
			}
			var indices []uint32
			if ps.Indices != nil {
				if indices, err = readIndices(doc, *ps.Indices); err != nil {
					return nil, errors.Wrapf(err, "mesh %d primitive %d", mi, pi)
				}
			} else {
				indices = make([]uint32, len(pos))
				for i := range indices {
					indices[i] = uint32(i)
				}
			}

			local := make([]int32, len(pos))
			for i, p := range pos {
				v, ok := weld[p]
				if !ok {
					v = int32(len(cage.Positions))
					weld[p] = v
					cage.Positions = append(cage.Positions, p)
				}
				local[i] = v
			}
			for i := 0; i+2 < len(indices); i += 3 {
				face := make([]int32, 3)
				for k := 0; k < 3; k++ {
					if int(indices[i+k]) >= len(local) {
						return nil, errors.Errorf("mesh %d primitive %d: index %d out of range", mi, pi, indices[i+k])
					}
					face[k] = local[indices[i+k]]
				}
				cage.Faces = append(cage.Faces, face)
			}
		}
	}
	return cage, nil
}

func accessorBytes(doc *gltf.Document, idx uint32, elemSize int) ([]byte, int, int, error) {
	if int(idx) >= len(doc.Accessors) {
		return nil, 0, 0, errors.Errorf("accessor %d out of range", idx)
	}
	acc := doc.Accessors[idx]
	if acc.BufferView == nil {
		return nil, 0, 0, errors.Errorf("accessor %d has no buffer view", idx)
	}
	if int(*acc.BufferView) >= len(doc.BufferViews) || doc.BufferViews[*acc.BufferView] == nil {
		return nil, 0, 0, errors.Errorf("accessor %d: buffer view %d out of range", idx, *acc.BufferView)
	}
	view := doc.BufferViews[*acc.BufferView]
	if int(view.Buffer) >= len(doc.Buffers) || doc.Buffers[view.Buffer] == nil {
		return nil, 0, 0, errors.Errorf("accessor %d: buffer %d out of range", idx, view.Buffer)
	}
	data := doc.Buffers[view.Buffer].Data
	stride := int(view.ByteStride)
	if stride == 0 {
		stride = elemSize
	}
	start := int(view.ByteOffset + acc.ByteOffset)
	count := int(acc.Count)
	if start > len(data) || count > 0 && start+stride*(count-1)+elemSize > len(data) {
		return nil, 0, 0, errors.Errorf("accessor %d exceeds its buffer", idx)
	}
	return data[start:], stride, count, nil
}

func readPositions(doc *gltf.Document, idx uint32) ([]vec3.T, error) {
	if int(idx) >= len(doc.Accessors) {
		return nil, errors.Errorf("accessor %d out of range", idx)
	}
	if acc := doc.Accessors[idx]; acc.ComponentType != gltf.ComponentFloat || acc.Type != gltf.AccessorVec3 {
		return nil, errors.Errorf("accessor %d is not a float vec3", idx)
	}
	data, stride, count, err := accessorBytes(doc, idx, 12)
	if err != nil {
		return nil, err
	}
	pos := make([]vec3.T, count)
	for i := range pos {
		if err := readLittleByte(bytes.NewReader(data[i*stride:i*stride+12]), &pos[i]); err != nil {
			return nil, err
		}
	}
	return pos, nil
}

func readIndices(doc *gltf.Document, idx uint32) ([]uint32, error) {
	if int(idx) >= len(doc.Accessors) {
		return nil, errors.Errorf("accessor %d out of range", idx)
	}
	size := 0
	switch doc.Accessors[idx].ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, errors.Errorf("accessor %d has unsupported index type", idx)
	}
	data, stride, count, err := accessorBytes(doc, idx, size)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, count)
	for i := range out {
		b := data[i*stride:]
		switch size {
		case 1:
			out[i] = uint32(b[0])
		case 2:
			out[i] = uint32(binary.LittleEndian.Uint16(b))
		default:
			out[i] = binary.LittleEndian.Uint32(b)
		}
	}
	return out, nil
}
