package subdiv

import "github.com/pkg/errors"

// Topology is a half-edge view over a polygon mesh. Half-edges of a face are
// stored contiguously in face corner order.
type Topology struct {
	faces     [][]int32
	faceStart []int32
	edgeFace  []int32
	origin    []int32
	opposite  []int32
	outgoing  [][]int32
	vertices  int
}

func NewTopology(faces [][]int32, numVertices int) (*Topology, error) {
	t := &Topology{
		faces:     faces,
		faceStart: make([]int32, len(faces)),
		outgoing:  make([][]int32, numVertices),
		vertices:  numVertices,
	}
	var n int32
	for f, fc := range faces {
		if len(fc) < 3 {
			return nil, errors.Wrapf(ErrMalformedTopology, "face %d has %d corners", f, len(fc))
		}
		t.faceStart[f] = n
		for _, vi := range fc {
			if vi < 0 || int(vi) >= numVertices {
				return nil, errors.Wrapf(ErrMalformedTopology, "face %d references vertex %d", f, vi)
			}
			t.origin = append(t.origin, vi)
			t.edgeFace = append(t.edgeFace, int32(f))
			t.outgoing[vi] = append(t.outgoing[vi], n)
			n++
		}
	}

	directed := make(map[[2]int32]int32, n)
	for h := int32(0); h < n; h++ {
		key := [2]int32{t.origin[h], t.Dest(h)}
		if key[0] == key[1] {
			return nil, errors.Wrapf(ErrMalformedTopology, "degenerate edge at vertex %d", key[0])
		}
		if _, ok := directed[key]; ok {
			return nil, errors.Wrapf(ErrMalformedTopology, "non-manifold edge %d-%d", key[0], key[1])
		}
		directed[key] = h
	}
	t.opposite = make([]int32, n)
	for h := int32(0); h < n; h++ {
		if o, ok := directed[[2]int32{t.Dest(h), t.origin[h]}]; ok {
			t.opposite[h] = o
		} else {
			t.opposite[h] = -1
		}
	}
	return t, nil
}

func (t *Topology) NumFaces() int    { return len(t.faces) }
func (t *Topology) NumEdges() int    { return len(t.origin) }
func (t *Topology) NumVertices() int { return t.vertices }

func (t *Topology) FaceEdge(f int) int32 { return t.faceStart[f] }
func (t *Topology) FaceSize(f int) int   { return len(t.faces[f]) }
func (t *Topology) Face(h int32) int32   { return t.edgeFace[h] }
func (t *Topology) Origin(h int32) int32 { return t.origin[h] }

func (t *Topology) Dest(h int32) int32 { return t.origin[t.Next(h)] }

func (t *Topology) Next(h int32) int32 {
	f := t.edgeFace[h]
	s := t.faceStart[f]
	return s + (h-s+1)%int32(len(t.faces[f]))
}

func (t *Topology) Prev(h int32) int32 {
	f := t.edgeFace[h]
	s := t.faceStart[f]
	n := int32(len(t.faces[f]))
	return s + (h-s+n-1)%n
}

// Opposite returns the twin half-edge or -1 on a mesh border.
func (t *Topology) Opposite(h int32) int32 { return t.opposite[h] }

func (t *Topology) IsBoundary(h int32) bool { return t.opposite[h] < 0 }

// Outgoing lists the half-edges starting at vertex v.
func (t *Topology) Outgoing(v int32) []int32 { return t.outgoing[v] }

func (t *Topology) Valence(v int32) int { return len(t.outgoing[v]) }

// FaceVertices returns the corners of the face owning h, starting at Origin(h).
func (t *Topology) FaceVertices(h int32) []int32 {
	n := t.FaceSize(int(t.edgeFace[h]))
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		out[i] = t.origin[h]
		h = t.Next(h)
	}
	return out
}
