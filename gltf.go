package subdiv

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

const GLTF_VERSION = "2.0"

// MeshToGltf tessellates every mesh into one glTF document.
func MeshToGltf(meshes []*Mesh) (*gltf.Document, error) {
	doc := CreateDoc()
	for _, m := range meshes {
		grids, err := m.Tessellate(true)
		if err != nil {
			return nil, err
		}
		if err := BuildGltf(doc, grids); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func CreateDoc() *gltf.Document {
	doc := &gltf.Document{}
	doc.Asset.Version = GLTF_VERSION
	doc.Asset.Generator = "go-subdiv"
	doc.Asset.Extras = map[string]string{"id": uuid.NewString()}
	srcIndex := uint32(0)
	doc.Scene = &srcIndex
	doc.Scenes = append(doc.Scenes, &gltf.Scene{})
	doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	return doc
}

type calcSizeWriter struct {
	writer io.Writer
	Size   int
}

func (w *calcSizeWriter) Write(p []byte) (n int, err error) {
	si := len(p)
	w.writer.Write(p)
	w.Size += int(si)
	return si, nil
}

func (w *calcSizeWriter) Bytes() []byte {
	return w.writer.(*bytes.Buffer).Bytes()
}

func newSizeWriter() calcSizeWriter {
	wt := bytes.NewBuffer([]byte{})
	return calcSizeWriter{Size: int(0), writer: wt}
}

func calcPadding(offset, paddingUnit int) int {
	padding := offset % paddingUnit
	if padding != 0 {
		padding = paddingUnit - padding
	}
	return padding
}

func GetGltfBinary(doc *gltf.Document, paddingUnit int) ([]byte, error) {
	w := newSizeWriter()
	enc := gltf.NewEncoder(&w)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	padding := calcPadding(w.Size, paddingUnit)
	if padding == 0 {
		return w.Bytes(), nil
	}
	pad := make([]byte, padding)
	for i := range pad {
		pad[i] = 0x20
	}
	w.Write(pad)
	return w.Bytes(), nil
}

func appendView(doc *gltf.Document, buf *bytes.Buffer, startLen uint32, data interface{}) uint32 {
	view := &gltf.BufferView{Buffer: 0}
	view.ByteOffset = uint32(buf.Len()) + startLen
	binary.Write(buf, binary.LittleEndian, data)
	view.ByteLength = uint32(buf.Len()) + startLen - view.ByteOffset
	doc.BufferViews = append(doc.BufferViews, view)
	return uint32(len(doc.BufferViews) - 1)
}

// BuildGltf appends the grids as one triangle mesh with positions, face uv
// and, when every grid carries them, normals.
func BuildGltf(doc *gltf.Document, grids []*TessellatedGrid) error {
	if len(doc.Buffers) == 0 {
		return errors.New("document has no buffer")
	}
	var (
		indices []uint32
		pos     []vec3.T
		nls     []vec3.T
		uvs     []vec2.T
	)
	hasNormals := len(grids) > 0
	for _, tg := range grids {
		hasNormals = hasNormals && tg.Grid.NX != nil
	}
	minP := []float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	maxP := []float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for _, tg := range grids {
		base := uint32(len(pos))
		g := tg.Grid
		for i := 0; i < tg.Width*tg.Height; i++ {
			p := g.Position(i)
			for k := 0; k < 3; k++ {
				minP[k] = float32(math.Min(float64(minP[k]), float64(p[k])))
				maxP[k] = float32(math.Max(float64(maxP[k]), float64(p[k])))
			}
			pos = append(pos, p)
			uvs = append(uvs, vec2.T{g.U[i], g.V[i]})
			if hasNormals {
				nl := vec3.T{g.NX[i], g.NY[i], g.NZ[i]}
				normalizeSafe(&nl)
				nls = append(nls, nl)
			}
		}
		w := uint32(tg.Width)
		for y := uint32(0); y+1 < uint32(tg.Height); y++ {
			for x := uint32(0); x+1 < w; x++ {
				a := base + y*w + x
				indices = append(indices, a, a+1, a+w+1, a, a+w+1, a+w)
			}
		}
	}
	if len(indices) == 0 {
		return nil
	}

	buffer := doc.Buffers[0]
	buf := bytes.NewBuffer(nil)
	startLen := buffer.ByteLength
	bvIndex := appendView(doc, buf, startLen, indices)
	bvPos := appendView(doc, buf, startLen, pos)
	bvTexc := appendView(doc, buf, startLen, uvs)
	var bvNl uint32
	if hasNormals {
		bvNl = appendView(doc, buf, startLen, nls)
	}
	buffer.ByteLength += uint32(buf.Len())
	buffer.Data = append(buffer.Data, buf.Bytes()...)

	idx := uint32(len(doc.Accessors))
	doc.Accessors = append(doc.Accessors,
		&gltf.Accessor{BufferView: &bvIndex, ComponentType: gltf.ComponentUint, Type: gltf.AccessorScalar, Count: uint32(len(indices))},
		&gltf.Accessor{BufferView: &bvPos, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorVec3, Count: uint32(len(pos)), Min: minP, Max: maxP},
		&gltf.Accessor{BufferView: &bvTexc, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorVec2, Count: uint32(len(uvs))},
	)
	ps := &gltf.Primitive{Attributes: make(gltf.Attribute), Mode: gltf.PrimitiveTriangles}
	ps.Indices = &idx
	ps.Attributes["POSITION"] = idx + 1
	ps.Attributes["TEXCOORD_0"] = idx + 2
	if hasNormals {
		doc.Accessors = append(doc.Accessors,
			&gltf.Accessor{BufferView: &bvNl, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorVec3, Count: uint32(len(nls))})
		ps.Attributes["NORMAL"] = idx + 3
	}

	meshID := uint32(len(doc.Meshes))
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Primitives: []*gltf.Primitive{ps}})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
	doc.Nodes = append(doc.Nodes, &gltf.Node{Mesh: &meshID})
	return nil
}
