package subdiv

import (
	"github.com/chewxy/math32"
	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
)

// Grid 求值网格, 各通道长度不小于 GridBufferSize
type Grid struct {
	X, Y, Z []float32
	U, V    []float32

	// NX, NY, NZ receive surface normals when non-nil.
	NX, NY, NZ []float32
}

// GridBufferSize rounds the sample count up to whole batches.
func GridBufferSize(dwidth, dheight int) int {
	return (dwidth*dheight + BatchSize - 1) / BatchSize * BatchSize
}

func NewGrid(dwidth, dheight int, normals bool) *Grid {
	n := GridBufferSize(dwidth, dheight)
	g := &Grid{
		X: make([]float32, n),
		Y: make([]float32, n),
		Z: make([]float32, n),
		U: make([]float32, n),
		V: make([]float32, n),
	}
	if normals {
		g.NX = make([]float32, n)
		g.NY = make([]float32, n)
		g.NZ = make([]float32, n)
	}
	return g
}

func (g *Grid) fits(size int) bool {
	if len(g.X) < size || len(g.Y) < size || len(g.Z) < size || len(g.U) < size || len(g.V) < size {
		return false
	}
	if g.NX != nil && (len(g.NX) < size || len(g.NY) < size || len(g.NZ) < size) {
		return false
	}
	return true
}

func (g *Grid) Position(i int) vec3.T {
	return vec3.T{g.X[i], g.Y[i], g.Z[i]}
}

func padLast(a []float32, n, size int) {
	if a == nil || n == 0 {
		return
	}
	last := a[n-1]
	for i := n; i < size; i++ {
		a[i] = last
	}
}

func normalizeSafe(n *vec3.T) {
	l := n.Length()
	if l > 0 && !math32.IsInf(l, 0) {
		n.Scale(1 / l)
	}
}

func checkGridRange(x0, x1, y0, y1, swidth, sheight int) error {
	if swidth < 2 || sheight < 2 || x0 < 0 || y0 < 0 || x0 > x1 || y0 > y1 || x1 >= swidth || y1 >= sheight {
		return errors.Wrapf(ErrGridRange, "[%d,%d]x[%d,%d] of %dx%d", x0, x1, y0, y1, swidth, sheight)
	}
	return nil
}

// EvalGrid evaluates the sub-grid [x0,x1]x[y0,y1] of the swidth x sheight
// dicing of p. Sample slots past dwidth*dheight repeat the last sample.
func (m *Mesh) EvalGrid(p *SubdivPatch1Base, x0, x1, y0, y1, swidth, sheight int, g *Grid) error {
	if err := checkGridRange(x0, x1, y0, y1, swidth, sheight); err != nil {
		return err
	}
	dwidth := x1 - x0 + 1
	dheight := y1 - y0 + 1
	size := GridBufferSize(dwidth, dheight)
	if !g.fits(size) {
		return errors.Wrapf(ErrGridTooSmall, "need %d samples", size)
	}
	if p.Kind == PatchEval || p.Patch == nil {
		return m.evalGridDeferred(p, x0, y0, dwidth, dheight, swidth, sheight, g)
	}
	m.evalGridRegular(p, x0, y0, dwidth, dheight, swidth, sheight, g.U, g.V, g.NX != nil,
		func(b int, x, y, z, nx, ny, nz []float32) {
			copy(g.X[b:], x)
			copy(g.Y[b:], y)
			copy(g.Z[b:], z)
			if g.NX != nil {
				copy(g.NX[b:], nx)
				copy(g.NY[b:], ny)
				copy(g.NZ[b:], nz)
			}
		})
	return nil
}

// gridBatchFunc receives the positions and normals of the samples
// [b, b+BatchSize). The slices are only valid during the call.
type gridBatchFunc func(b int, x, y, z, nx, ny, nz []float32)

// evalGridRegular evaluates the analytic leaf of p batch by batch. u and v
// receive the stitched and padded parameters; positions only live for one
// batch before they are handed to emit.
func (m *Mesh) evalGridRegular(p *SubdivPatch1Base, x0, y0, dwidth, dheight, swidth, sheight int, u, v []float32, wantNormals bool, emit gridBatchFunc) {
	n := dwidth * dheight
	size := GridBufferSize(dwidth, dheight)
	gridUVTessellator(swidth, sheight, x0, y0, dwidth, dheight, u, v)
	if p.NeedsStitching() {
		stitchUVGrid(p.Level, swidth, sheight, x0, y0, dwidth, dheight, u, v)
	}
	padLast(u, n, size)
	padLast(v, n, size)

	normals := m.Displace != nil || wantNormals
	var pos, du, dv vec3.T
	out := Outputs{P: &pos}
	if normals {
		out.Du, out.Dv = &du, &dv
	}
	for b := 0; b < size; b += BatchSize {
		var x, y, z, nx, ny, nz [BatchSize]float32
		for i := 0; i < BatchSize; i++ {
			j := b + i
			if !p.Patch.evalLeaf(u[j], v[j], 1, out) {
				pos, du, dv = vec3.T{}, vec3.T{}, vec3.T{}
			}
			x[i], y[i], z[i] = pos[0], pos[1], pos[2]
			if normals {
				nrm := vec3.Cross(&du, &dv)
				normalizeSafe(&nrm)
				nx[i], ny[i], nz[i] = nrm[0], nrm[1], nrm[2]
			}
		}
		if m.Displace != nil {
			e := b + BatchSize
			m.Displace(m.UserData, m.ID, p.Prim, u[b:e], v[b:e], nx[:], ny[:], nz[:], x[:], y[:], z[:])
		}
		emit(b, x[:], y[:], z[:], nx[:], ny[:], nz[:])
	}
}

func (m *Mesh) evalGridDeferred(p *SubdivPatch1Base, x0, y0, dwidth, dheight, swidth, sheight int, g *Grid) error {
	n := dwidth * dheight
	size := GridBufferSize(dwidth, dheight)
	gridUVTessellator(swidth, sheight, x0, y0, dwidth, dheight, g.U, g.V)
	if p.NeedsStitching() {
		stitchUVGrid(p.Level, swidth, sheight, x0, y0, dwidth, dheight, g.U, g.V)
	}

	tree := m.lockEvalTree(int(p.Face))
	defer m.unlockEvalTree()
	var cc *CatmullClarkPatch
	depth := 0
	if tree == nil {
		var err error
		if cc, err = NewCatmullClarkPatch(m.ref(int(p.Face))); err != nil {
			return errors.Wrapf(err, "primitive %d", p.Prim)
		}
		if !cc.IsQuad() {
			cc = cc.SubdivideChild(p.SubPatch)
			depth = 1
		}
	}

	normals := m.Displace != nil || g.NX != nil
	nx, ny, nz := g.NX, g.NY, g.NZ
	if normals && nx == nil {
		nx, ny, nz = make([]float32, size), make([]float32, size), make([]float32, size)
	}
	var pos, du, dv vec3.T
	out := Outputs{P: &pos}
	if normals {
		out.Du, out.Dv = &du, &dv
	}
	for i := 0; i < n; i++ {
		var ok bool
		if tree != nil {
			mu, mv := p.MacroUV(g.U[i], g.V[i])
			ok = evalPatch(tree, mu, mv, 1, 0, out, m.opts.MaxEvalDepth)
		} else {
			ok = cc.Eval(g.U[i], g.V[i], 1, depth, m.opts.MaxEvalDepth, out)
		}
		if !ok {
			pos, du, dv = vec3.T{}, vec3.T{}, vec3.T{}
		}
		g.X[i], g.Y[i], g.Z[i] = pos[0], pos[1], pos[2]
		if normals {
			nrm := vec3.Cross(&du, &dv)
			nx[i], ny[i], nz[i] = nrm[0], nrm[1], nrm[2]
		}
	}
	for i := 0; i < n; i++ {
		g.U[i], g.V[i] = p.MacroUV(g.U[i], g.V[i])
	}
	if m.Displace != nil {
		m.Displace(m.UserData, m.ID, p.Prim, g.U[:n], g.V[:n], nx[:n], ny[:n], nz[:n], g.X[:n], g.Y[:n], g.Z[:n])
	}
	for _, a := range [][]float32{g.U, g.V, g.X, g.Y, g.Z, g.NX, g.NY, g.NZ} {
		padLast(a, n, size)
	}
	return nil
}
