package subdiv

import (
	"github.com/chewxy/math32"
	"github.com/flywave/go3d/vec4"
	"github.com/pkg/errors"
)

// Bounds 轴对齐包围盒, 第四通道恒为 0
type Bounds struct {
	Lower vec4.T
	Upper vec4.T
}

func (b Bounds) valid() bool {
	for k := 0; k < 3; k++ {
		lo, hi := b.Lower[k], b.Upper[k]
		if math32.IsNaN(lo) || math32.IsNaN(hi) || math32.IsInf(lo, 0) || math32.IsInf(hi, 0) || lo > hi {
			return false
		}
	}
	return true
}

// boundsLanes keeps one running box per batch lane.
type boundsLanes struct {
	lo, hi [3][BatchSize]float32
}

func newBoundsLanes() *boundsLanes {
	l := &boundsLanes{}
	for k := 0; k < 3; k++ {
		for i := 0; i < BatchSize; i++ {
			l.lo[k][i] = math32.Inf(1)
			l.hi[k][i] = math32.Inf(-1)
		}
	}
	return l
}

func (l *boundsLanes) add(x, y, z []float32) {
	for k, c := range [3][]float32{x, y, z} {
		for i := 0; i < BatchSize; i++ {
			l.lo[k][i] = math32.Min(l.lo[k][i], c[i])
			l.hi[k][i] = math32.Max(l.hi[k][i], c[i])
		}
	}
}

func (l *boundsLanes) reduce() Bounds {
	var b Bounds
	for k := 0; k < 3; k++ {
		lo, hi := l.lo[k][0], l.hi[k][0]
		for i := 1; i < BatchSize; i++ {
			lo = math32.Min(lo, l.lo[k][i])
			hi = math32.Max(hi, l.hi[k][i])
		}
		b.Lower[k], b.Upper[k] = lo, hi
	}
	return b
}

// EvalGridBounds bounds the samples EvalGrid would produce for the same
// sub-grid. Analytic leaves are reduced batch by batch; deferred primitives
// go through scratch position buffers.
func (m *Mesh) EvalGridBounds(p *SubdivPatch1Base, x0, x1, y0, y1, swidth, sheight int) (Bounds, error) {
	if err := checkGridRange(x0, x1, y0, y1, swidth, sheight); err != nil {
		return Bounds{}, err
	}
	dwidth := x1 - x0 + 1
	dheight := y1 - y0 + 1
	size := GridBufferSize(dwidth, dheight)
	lanes := newBoundsLanes()
	if p.Kind == PatchEval || p.Patch == nil {
		g := NewGrid(dwidth, dheight, false)
		if err := m.evalGridDeferred(p, x0, y0, dwidth, dheight, swidth, sheight, g); err != nil {
			return Bounds{}, err
		}
		for b := 0; b < size; b += BatchSize {
			lanes.add(g.X[b:], g.Y[b:], g.Z[b:])
		}
	} else {
		u := make([]float32, size)
		v := make([]float32, size)
		m.evalGridRegular(p, x0, y0, dwidth, dheight, swidth, sheight, u, v, false,
			func(_ int, x, y, z, _, _, _ []float32) {
				lanes.add(x, y, z)
			})
	}

	bounds := lanes.reduce()
	if !bounds.valid() {
		contractViolation("invalid grid bounds", "geom", m.ID, "prim", p.Prim)
		return bounds, errors.Wrapf(ErrInvalidBounds, "geom %d prim %d", m.ID, p.Prim)
	}
	return bounds, nil
}
