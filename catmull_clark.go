package subdiv

import (
	"github.com/chewxy/math32"
	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
)

// maxGeneralSectors is the number of cells of the 4x4 sector grid used to
// parameterize a non-quad face.
const maxGeneralSectors = 16

// maxGregoryValence bounds corner valence for Gregory patches built during
// feature-adaptive evaluation.
const maxGregoryValence = 64

// ControlMeshRef 控制网格引用: 拓扑, 起始半边, 顶点缓冲区
type ControlMeshRef struct {
	Topology *Topology
	Edge     int32
	Vertices VertexBuffer
}

type edgeRef struct {
	face   int32
	corner int32
}

// CatmullClarkPatch is the local neighbourhood of one face: the face itself
// (always Faces[0], corners counter-clockwise) plus every face touching one of
// its corners. Border marks true mesh boundary edges, indexed by the corner
// the edge starts at.
type CatmullClarkPatch struct {
	Vertices []vec3.T
	Faces    [][]int32
	Border   [][]bool

	edges  map[[2]int32]edgeRef
	vfaces [][]int32
}

func NewCatmullClarkPatch(ref ControlMeshRef) (*CatmullClarkPatch, error) {
	topo := ref.Topology
	if topo == nil {
		return nil, errors.Wrap(ErrMalformedTopology, "nil topology")
	}
	if ref.Edge < 0 || int(ref.Edge) >= topo.NumEdges() {
		return nil, errors.Wrapf(ErrMalformedTopology, "half-edge %d out of range", ref.Edge)
	}
	cc := &CatmullClarkPatch{}
	local := make(map[int32]int32)
	vertex := func(gv int32) int32 {
		if lv, ok := local[gv]; ok {
			return lv
		}
		lv := int32(len(cc.Vertices))
		local[gv] = lv
		cc.Vertices = append(cc.Vertices, ref.Vertices.At(gv))
		return lv
	}
	addFace := func(h int32) {
		n := topo.FaceSize(int(topo.Face(h)))
		face := make([]int32, n)
		border := make([]bool, n)
		for k := 0; k < n; k++ {
			face[k] = vertex(topo.Origin(h))
			border[k] = topo.IsBoundary(h)
			h = topo.Next(h)
		}
		cc.Faces = append(cc.Faces, face)
		cc.Border = append(cc.Border, border)
	}

	f0 := topo.Face(ref.Edge)
	seen := map[int32]bool{f0: true}
	addFace(ref.Edge)
	for _, c := range topo.FaceVertices(ref.Edge) {
		for _, h := range topo.Outgoing(c) {
			f := topo.Face(h)
			if seen[f] {
				continue
			}
			seen[f] = true
			addFace(h)
		}
	}
	cc.index()
	return cc, nil
}

func (cc *CatmullClarkPatch) index() {
	cc.edges = make(map[[2]int32]edgeRef)
	cc.vfaces = make([][]int32, len(cc.Vertices))
	for f, fc := range cc.Faces {
		n := len(fc)
		for k, v := range fc {
			cc.edges[[2]int32{v, fc[(k+1)%n]}] = edgeRef{face: int32(f), corner: int32(k)}
			cc.vfaces[v] = append(cc.vfaces[v], int32(f))
		}
	}
}

// Valence returns the number of corners of the evaluated face.
func (cc *CatmullClarkPatch) Valence() int {
	return len(cc.Faces[0])
}

func (cc *CatmullClarkPatch) IsQuad() bool {
	return len(cc.Faces[0]) == 4
}

func madd(acc *vec3.T, w float32, p *vec3.T) {
	acc[0] += w * p[0]
	acc[1] += w * p[1]
	acc[2] += w * p[2]
}

func rotateFace(fc []int32, start int) []int32 {
	n := len(fc)
	out := make([]int32, n)
	for i := range out {
		out[i] = fc[(start+i)%n]
	}
	return out
}

func (cc *CatmullClarkPatch) centroid(f int) vec3.T {
	var c vec3.T
	w := 1 / float32(len(cc.Faces[f]))
	for _, v := range cc.Faces[f] {
		madd(&c, w, &cc.Vertices[v])
	}
	return c
}

// across returns the face holding the directed edge b->a, rotated to start at b.
func (cc *CatmullClarkPatch) across(a, b int32) []int32 {
	e, ok := cc.edges[[2]int32{b, a}]
	if !ok {
		return nil
	}
	return rotateFace(cc.Faces[e.face], int(e.corner))
}

// diagonal returns the fourth corner of the quad holding c, x and y.
func (cc *CatmullClarkPatch) diagonal(c, x, y int32) (int32, bool) {
	for _, f := range cc.vfaces[c] {
		fc := cc.Faces[f]
		if len(fc) != 4 {
			continue
		}
		hasX, hasY := false, false
		for _, v := range fc {
			hasX = hasX || v == x
			hasY = hasY || v == y
		}
		if !hasX || !hasY {
			continue
		}
		for _, v := range fc {
			if v != c && v != x && v != y {
				return v, true
			}
		}
	}
	return -1, false
}

type vertexRing struct {
	faces      []edgeRef
	border     []int32
	incomplete bool
	quads      bool
}

func (cc *CatmullClarkPatch) ring(v int32) vertexRing {
	r := vertexRing{quads: true}
	for _, f := range cc.vfaces[v] {
		fc := cc.Faces[f]
		n := len(fc)
		k := 0
		for fc[k] != v {
			k++
		}
		r.faces = append(r.faces, edgeRef{face: f, corner: int32(k)})
		if n != 4 {
			r.quads = false
		}
		a := fc[(k+1)%n]
		p := (k + n - 1) % n
		b := fc[p]
		if cc.Border[f][k] {
			r.border = append(r.border, a)
		} else if _, ok := cc.edges[[2]int32{a, v}]; !ok {
			r.incomplete = true
		}
		if cc.Border[f][p] {
			r.border = append(r.border, b)
		} else if _, ok := cc.edges[[2]int32{v, b}]; !ok {
			r.incomplete = true
		}
	}
	return r
}

func (r *vertexRing) interior() bool {
	return !r.incomplete && len(r.border) == 0 && len(r.faces) > 0
}

func (cc *CatmullClarkPatch) vertexPoint(v int32, facePts []vec3.T) vec3.T {
	r := cc.ring(v)
	p := cc.Vertices[v]
	switch {
	case r.interior():
		n := float32(len(r.faces))
		var q, e vec3.T
		for _, fr := range r.faces {
			fc := cc.Faces[fr.face]
			madd(&q, 1/n, &facePts[fr.face])
			madd(&e, 1/n, &cc.Vertices[fc[(int(fr.corner)+1)%len(fc)]])
		}
		// (Q + 2R + (n-3)p)/n with R the mean edge midpoint
		var out vec3.T
		madd(&out, 1/n, &q)
		madd(&out, 1/n, &e)
		madd(&out, (n-2)/n, &p)
		return out
	case !r.incomplete && len(r.border) == 2 && len(r.faces) > 1:
		var out vec3.T
		madd(&out, 6.0/8, &p)
		madd(&out, 1.0/8, &cc.Vertices[r.border[0]])
		madd(&out, 1.0/8, &cc.Vertices[r.border[1]])
		return out
	}
	return p
}

// LimitPosition returns the limit surface point of local vertex v.
func (cc *CatmullClarkPatch) LimitPosition(v int32) vec3.T {
	r := cc.ring(v)
	p := cc.Vertices[v]
	switch {
	case r.interior() && r.quads:
		n := float32(len(r.faces))
		var out vec3.T
		w := 1 / (n * (n + 5))
		madd(&out, n*n*w, &p)
		for _, fr := range r.faces {
			fc := cc.Faces[fr.face]
			k := int(fr.corner)
			madd(&out, 4*w, &cc.Vertices[fc[(k+1)%4]])
			madd(&out, w, &cc.Vertices[fc[(k+2)%4]])
		}
		return out
	case r.interior():
		// non-quad ring: one step towards the limit
		facePts := make([]vec3.T, len(cc.Faces))
		for _, fr := range r.faces {
			facePts[fr.face] = cc.centroid(int(fr.face))
		}
		return cc.vertexPoint(v, facePts)
	case !r.incomplete && len(r.border) == 2 && len(r.faces) > 1:
		var out vec3.T
		madd(&out, 4.0/6, &p)
		madd(&out, 1.0/6, &cc.Vertices[r.border[0]])
		madd(&out, 1.0/6, &cc.Vertices[r.border[1]])
		return out
	}
	return p
}

// IsRegular reports whether the face is an interior quad whose corners all
// have valence four with quads around them.
func (cc *CatmullClarkPatch) IsRegular() bool {
	if !cc.IsQuad() {
		return false
	}
	for _, c := range cc.Faces[0] {
		r := cc.ring(c)
		if !r.interior() || !r.quads || len(r.faces) != 4 {
			return false
		}
	}
	return true
}

// IsGregory reports whether every corner has a closed all-quad ring of
// bounded valence.
func (cc *CatmullClarkPatch) IsGregory(maxValence int) bool {
	if !cc.IsQuad() {
		return false
	}
	for k := range cc.Faces[0] {
		e, _, ok := cc.cornerRing(k)
		if !ok || len(e) < 3 || len(e) > maxValence {
			return false
		}
	}
	return true
}

// cornerRing walks the quads around corner k of the face, starting with the
// face itself. e[i] are edge neighbours and f[i] the diagonal between e[i]
// and e[i+1]. e[0] is corner k+1, e[1] is corner k-1.
func (cc *CatmullClarkPatch) cornerRing(k int) (e, f []int32, ok bool) {
	cur := rotateFace(cc.Faces[0], k)
	c := cur[0]
	for i := 0; i < len(cc.Faces); i++ {
		if len(cur) != 4 {
			return nil, nil, false
		}
		e = append(e, cur[1])
		f = append(f, cur[2])
		next := cc.across(cur[3], c)
		if next == nil {
			return nil, nil, false
		}
		if next[1] == e[0] {
			return e, f, true
		}
		cur = next
	}
	return nil, nil, false
}

// BSplineControlPoints gathers the 4x4 control grid of a regular face,
// indexed [v][u].
func (cc *CatmullClarkPatch) BSplineControlPoints() (*[4][4]vec3.T, bool) {
	if !cc.IsRegular() {
		return nil, false
	}
	c := cc.Faces[0]
	var idx [4][4]int32
	idx[1][1], idx[1][2], idx[2][2], idx[2][1] = c[0], c[1], c[2], c[3]

	bottom := cc.across(c[0], c[1])
	right := cc.across(c[1], c[2])
	top := cc.across(c[2], c[3])
	left := cc.across(c[3], c[0])
	if bottom == nil || right == nil || top == nil || left == nil {
		return nil, false
	}
	idx[0][1], idx[0][2] = bottom[2], bottom[3]
	idx[1][3], idx[2][3] = right[2], right[3]
	idx[3][2], idx[3][1] = top[2], top[3]
	idx[2][0], idx[1][0] = left[2], left[3]

	var ok0, ok1, ok2, ok3 bool
	idx[0][0], ok0 = cc.diagonal(c[0], idx[0][1], idx[1][0])
	idx[0][3], ok1 = cc.diagonal(c[1], idx[0][2], idx[1][3])
	idx[3][3], ok2 = cc.diagonal(c[2], idx[2][3], idx[3][2])
	idx[3][0], ok3 = cc.diagonal(c[3], idx[3][1], idx[2][0])
	if !ok0 || !ok1 || !ok2 || !ok3 {
		return nil, false
	}
	var pts [4][4]vec3.T
	for r := 0; r < 4; r++ {
		for col := 0; col < 4; col++ {
			pts[r][col] = cc.Vertices[idx[r][col]]
		}
	}
	return &pts, true
}

// limitTangent returns the unnormalized limit tangent towards e[j] of a
// closed ring of valence n.
func limitTangent(vs []vec3.T, e, f []int32, j int) vec3.T {
	n := len(e)
	fn := float32(n)
	an := 1 + math32.Cos(2*math32.Pi/fn) + math32.Cos(math32.Pi/fn)*math32.Sqrt(2*(9+math32.Cos(2*math32.Pi/fn)))
	var t vec3.T
	for i := 0; i < n; i++ {
		m := float32((i - j + n) % n)
		ci := an * math32.Cos(2*math32.Pi*m/fn)
		di := math32.Cos(2*math32.Pi*m/fn) + math32.Cos(2*math32.Pi*(m+1)/fn)
		madd(&t, ci, &vs[e[i]])
		madd(&t, di, &vs[f[i]])
	}
	return t
}

// tangentScale maps limitTangent onto the derivative per parameter unit.
func tangentScale(n int) float32 {
	fn := float32(n)
	an := 1 + math32.Cos(2*math32.Pi/fn) + math32.Cos(math32.Pi/fn)*math32.Sqrt(2*(9+math32.Cos(2*math32.Pi/fn)))
	return fn * (an/2 + 1 + math32.Cos(2*math32.Pi/fn))
}

type refinement struct {
	vertices []vec3.T
	vertPts  []int32
	facePts  []int32
	edgePts  map[[2]int32]int32
	faces    [][]int32
	border   [][]bool
	owner    []int32
}

func edgeKey(a, b int32) [2]int32 {
	if a > b {
		a, b = b, a
	}
	return [2]int32{a, b}
}

// refine applies one Catmull-Clark step to the whole neighbourhood. Points
// far from the evaluated face may be inexact; only children touching the
// evaluated face's children are ever kept.
func (cc *CatmullClarkPatch) refine() *refinement {
	r := &refinement{
		vertPts: make([]int32, len(cc.Vertices)),
		facePts: make([]int32, len(cc.Faces)),
		edgePts: make(map[[2]int32]int32),
	}
	centroids := make([]vec3.T, len(cc.Faces))
	for f := range cc.Faces {
		centroids[f] = cc.centroid(f)
		r.facePts[f] = int32(len(r.vertices))
		r.vertices = append(r.vertices, centroids[f])
	}
	for v := range cc.Vertices {
		r.vertPts[v] = int32(len(r.vertices))
		r.vertices = append(r.vertices, cc.vertexPoint(int32(v), centroids))
	}
	for f, fc := range cc.Faces {
		n := len(fc)
		for k := 0; k < n; k++ {
			a, b := fc[k], fc[(k+1)%n]
			key := edgeKey(a, b)
			if _, ok := r.edgePts[key]; ok {
				continue
			}
			var ep vec3.T
			twin, ok := cc.edges[[2]int32{b, a}]
			if cc.Border[f][k] || !ok {
				madd(&ep, 0.5, &cc.Vertices[a])
				madd(&ep, 0.5, &cc.Vertices[b])
			} else {
				madd(&ep, 0.25, &cc.Vertices[a])
				madd(&ep, 0.25, &cc.Vertices[b])
				madd(&ep, 0.25, &centroids[f])
				madd(&ep, 0.25, &centroids[twin.face])
			}
			r.edgePts[key] = int32(len(r.vertices))
			r.vertices = append(r.vertices, ep)
		}
	}
	for f, fc := range cc.Faces {
		n := len(fc)
		for k := 0; k < n; k++ {
			c := fc[k]
			a := fc[(k+1)%n]
			p := (k + n - 1) % n
			b := fc[p]
			r.faces = append(r.faces, []int32{
				r.vertPts[c], r.edgePts[edgeKey(c, a)], r.facePts[f], r.edgePts[edgeKey(b, c)],
			})
			r.border = append(r.border, []bool{cc.Border[f][k], false, false, cc.Border[f][p]})
			r.owner = append(r.owner, int32(f))
		}
	}
	return r
}

// child extracts the neighbourhood of child face k of the evaluated face.
// Quad children are rotated so local (0,0) sits at the parent's quadrant
// origin; N-gon children start at the corner vertex.
func (r *refinement) child(k int, quad bool) *CatmullClarkPatch {
	start := 0
	if quad {
		start = (4 - k) % 4
	}
	target := r.faces[k]
	corners := map[int32]bool{target[0]: true, target[1]: true, target[2]: true, target[3]: true}

	out := &CatmullClarkPatch{}
	local := make(map[int32]int32)
	add := func(fc []int32, border []bool, rot int) {
		face := make([]int32, 4)
		bd := make([]bool, 4)
		for i := 0; i < 4; i++ {
			gv := fc[(i+rot)%4]
			lv, ok := local[gv]
			if !ok {
				lv = int32(len(out.Vertices))
				local[gv] = lv
				out.Vertices = append(out.Vertices, r.vertices[gv])
			}
			face[i] = lv
			bd[i] = border[(i+rot)%4]
		}
		out.Faces = append(out.Faces, face)
		out.Border = append(out.Border, bd)
	}
	add(target, r.border[k], start)
	for i, fc := range r.faces {
		if i == k {
			continue
		}
		if corners[fc[0]] || corners[fc[1]] || corners[fc[2]] || corners[fc[3]] {
			add(fc, r.border[i], 0)
		}
	}
	out.index()
	return out
}

// Subdivide returns one child neighbourhood per corner of the evaluated face.
func (cc *CatmullClarkPatch) Subdivide() []*CatmullClarkPatch {
	r := cc.refine()
	n := len(cc.Faces[0])
	children := make([]*CatmullClarkPatch, n)
	for k := range children {
		children[k] = r.child(k, n == 4)
	}
	return children
}

// SubdivideChild refines once and returns only child k.
func (cc *CatmullClarkPatch) SubdivideChild(k int) *CatmullClarkPatch {
	return cc.refine().child(k, len(cc.Faces[0]) == 4)
}
