package subdiv

import (
	"sync"
	"sync/atomic"

	"github.com/chewxy/math32"
	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/pkg/errors"
)

// Mesh 细分网格: 控制网格, 面片缓存, 代计数与位移
type Mesh struct {
	ID       uint32
	Topology *Topology
	Vertices VertexBuffer
	Displace DisplacementFunc
	UserData any

	cfg        Config
	opts       BuildOptions
	levels     []float32
	cache      *PatchCache
	entries    []CacheEntry
	generation atomic.Uint64

	treeMu    sync.RWMutex
	trees     []*Patch
	treeArena *Arena
}

func NewMesh(id uint32, faces [][]int32, vertices VertexBuffer, cfg Config) (*Mesh, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if vertices.Stride < 3 {
		return nil, errors.Errorf("vertex stride %d below 3", vertices.Stride)
	}
	topo, err := NewTopology(faces, vertices.Len())
	if err != nil {
		return nil, err
	}
	for f := range faces {
		if len(faces[f]) > maxGeneralSectors {
			return nil, errors.Wrapf(ErrMalformedTopology, "face %d has %d corners", f, len(faces[f]))
		}
	}
	m := &Mesh{
		ID:        id,
		Topology:  topo,
		Vertices:  vertices,
		cfg:       cfg,
		opts:      cfg.BuildOptions(),
		levels:    make([]float32, topo.NumEdges()),
		cache:     NewPatchCache(),
		entries:   make([]CacheEntry, topo.NumFaces()),
		treeArena: NewArena(),
	}
	for i := range m.levels {
		m.levels[i] = cfg.TessellationRate
	}
	m.Commit()
	return m, nil
}

func (m *Mesh) Config() Config {
	return m.cfg
}

func (m *Mesh) Cache() *PatchCache {
	return m.cache
}

func (m *Mesh) Generation() uint64 {
	return m.generation.Load()
}

func (m *Mesh) NumFaces() int {
	return m.Topology.NumFaces()
}

// Commit publishes vertex changes: cached patches are invalidated and eval
// trees rebuilt when enabled.
func (m *Mesh) Commit() {
	m.generation.Add(1)
	m.cache.Reset()
	if m.cfg.EvalTrees {
		m.BuildEvalTrees()
	} else {
		m.treeMu.Lock()
		m.trees = nil
		m.treeArena.Reset()
		m.treeMu.Unlock()
	}
}

func (m *Mesh) ref(face int) ControlMeshRef {
	return ControlMeshRef{Topology: m.Topology, Edge: m.Topology.FaceEdge(face), Vertices: m.Vertices}
}

// Eval evaluates the limit surface of face at (u, v).
func (m *Mesh) Eval(face int, u, v float32, out Outputs) error {
	if face < 0 || face >= m.NumFaces() {
		return errors.Errorf("face %d out of range", face)
	}
	if !EvalPoint(m.cache, &m.entries[face], m.generation.Load(), m.ref(face), u, v, out, m.opts) {
		return errors.Wrapf(ErrEvalFailed, "face %d at (%g, %g)", face, u, v)
	}
	return nil
}

// BuildEvalTrees precomputes a patch tree per face, used by the deferred
// grid regime instead of rebuilding neighbourhoods.
func (m *Mesh) BuildEvalTrees() {
	m.treeMu.Lock()
	defer m.treeMu.Unlock()
	m.treeArena.Reset()
	opts := m.opts
	opts.Deferred = false
	m.trees = make([]*Patch, m.NumFaces())
	for f := range m.trees {
		m.trees[f] = buildPatch(m.treeArena, m.ref(f), opts)
	}
	Logger().Debug("eval trees built", "geom", m.ID, "faces", len(m.trees), "nodes", m.treeArena.Len())
}

// lockEvalTree returns the eval tree of face, or nil, with the tree read lock
// held. The nodes stay valid until unlockEvalTree; a concurrent Commit waits.
func (m *Mesh) lockEvalTree(face int) *Patch {
	m.treeMu.RLock()
	if face < len(m.trees) {
		return m.trees[face]
	}
	return nil
}

func (m *Mesh) unlockEvalTree() {
	m.treeMu.RUnlock()
}

// SetEdgeLevel sets the tessellation level of a half-edge and its twin.
func (m *Mesh) SetEdgeLevel(h int32, level float32) {
	m.levels[h] = level
	if o := m.Topology.Opposite(h); o >= 0 {
		m.levels[o] = level
	}
}

func (m *Mesh) EdgeLevel(h int32) float32 {
	return m.levels[h]
}

// primLevel is the dicing level of half-edge h. Edges of non-quad faces are
// split between two sub-quads, so their level is rounded up to an even
// count on both sides.
func (m *Mesh) primLevel(h int32) float32 {
	l := m.levels[h]
	ngon := m.Topology.FaceSize(int(m.Topology.Face(h))) != 4
	if o := m.Topology.Opposite(h); o >= 0 {
		ngon = ngon || m.Topology.FaceSize(int(m.Topology.Face(o))) != 4
	}
	if ngon {
		l = 2 * math32.Ceil(roundLevel(l)/2)
	}
	return l
}

// Primitives builds the dicing primitives: one per quad face and one per
// corner of every other face.
func (m *Mesh) Primitives() ([]SubdivPatch1Base, error) {
	arena := NewArena()
	b := patchBuilder{arena: arena, opts: m.opts}
	var prims []SubdivPatch1Base
	for f := 0; f < m.NumFaces(); f++ {
		h0 := m.Topology.FaceEdge(f)
		n := m.Topology.FaceSize(f)
		if n == 4 {
			p := SubdivPatch1Base{Kind: PatchEval, Edge: h0, Face: int32(f), Geom: m.ID, UV: quadUV}
			for k := 0; k < 4; k++ {
				p.Level[k] = m.primLevel(h0 + int32(k))
			}
			if !m.opts.Deferred {
				cc, err := NewCatmullClarkPatch(m.ref(f))
				if err != nil {
					return nil, errors.Wrapf(err, "face %d", f)
				}
				if leaf := b.createLeaf(cc); leaf != nil {
					p.Kind, p.Patch = leaf.Kind, leaf
				}
			}
			prims = append(prims, p)
			continue
		}
		var mean float32
		for k := 0; k < n; k++ {
			mean += m.levels[h0+int32(k)]
		}
		inner := mean / float32(n) / 2
		for k := 0; k < n; k++ {
			prev := (k + n - 1) % n
			prims = append(prims, SubdivPatch1Base{
				Kind:     PatchEval,
				Edge:     h0 + int32(k),
				Face:     int32(f),
				Geom:     m.ID,
				SubPatch: k,
				Level:    [4]float32{m.primLevel(h0+int32(k)) / 2, inner, inner, m.primLevel(h0+int32(prev)) / 2},
				UV:       subQuadUV(k),
			})
		}
	}
	for i := range prims {
		prims[i].Prim = uint32(i)
		prims[i].updateStitching()
	}
	return prims, nil
}

// ComputeBBox joins the bounds of every primitive at full resolution.
func (m *Mesh) ComputeBBox() (dvec3.Box, error) {
	prims, err := m.Primitives()
	if err != nil {
		return dvec3.Box{}, err
	}
	if len(prims) == 0 {
		return dvec3.Box{}, nil
	}
	bbox := dvec3.MinBox
	for i := range prims {
		w, h := prims[i].GridSize()
		b, err := m.EvalGridBounds(&prims[i], 0, w-1, 0, h-1, w, h)
		if err != nil {
			return dvec3.Box{}, err
		}
		bbx := dvec3.Box{
			Min: dvec3.T{float64(b.Lower[0]), float64(b.Lower[1]), float64(b.Lower[2])},
			Max: dvec3.T{float64(b.Upper[0]), float64(b.Upper[1]), float64(b.Upper[2])},
		}
		bbox.Join(&bbx)
	}
	return bbox, nil
}

// TessellatedGrid 一个图元的完整采样网格
type TessellatedGrid struct {
	Prim   uint32
	Width  int
	Height int
	Grid   *Grid
}

// Tessellate evaluates every primitive at its full dicing resolution.
func (m *Mesh) Tessellate(normals bool) ([]*TessellatedGrid, error) {
	prims, err := m.Primitives()
	if err != nil {
		return nil, err
	}
	out := make([]*TessellatedGrid, len(prims))
	for i := range prims {
		w, h := prims[i].GridSize()
		g := NewGrid(w, h, normals)
		if err := m.EvalGrid(&prims[i], 0, w-1, 0, h-1, w, h, g); err != nil {
			return nil, err
		}
		out[i] = &TessellatedGrid{Prim: prims[i].Prim, Width: w, Height: h, Grid: g}
	}
	return out, nil
}
