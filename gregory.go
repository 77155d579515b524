package subdiv

import (
	"github.com/chewxy/math32"
	"github.com/flywave/go3d/vec3"
)

// GregoryPatch 20 控制点的 Gregory 面片. EPlus[k] 指向角点 k+1, EMinus[k] 指向角点 k-1
type GregoryPatch struct {
	P      [4]vec3.T
	EPlus  [4]vec3.T
	EMinus [4]vec3.T
	FPlus  [4]vec3.T
	FMinus [4]vec3.T
}

func newGregoryPatch(cc *CatmullClarkPatch, maxValence int) (GregoryPatch, bool) {
	var g GregoryPatch
	if !cc.IsQuad() {
		return g, false
	}
	var rings [4]struct{ e, f []int32 }
	var cs [4]float32
	for k := 0; k < 4; k++ {
		e, f, ok := cc.cornerRing(k)
		if !ok || len(e) < 3 || len(e) > maxValence {
			return g, false
		}
		n := len(e)
		rings[k].e, rings[k].f = e, f
		cs[k] = math32.Cos(2 * math32.Pi / float32(n))

		p := cc.LimitPosition(cc.Faces[0][k])
		s := 1 / (3 * tangentScale(n))
		tp := limitTangent(cc.Vertices, e, f, 0)
		tm := limitTangent(cc.Vertices, e, f, 1)
		g.P[k] = p
		g.EPlus[k] = p
		madd(&g.EPlus[k], s, &tp)
		g.EMinus[k] = p
		madd(&g.EMinus[k], s, &tm)
	}

	// interior points make the cross-edge derivatives of two patches sharing
	// an edge sum to a multiple of the edge tangent
	for k := 0; k < 4; k++ {
		e, f := rings[k].e, rings[k].f
		n := len(e)
		next, prev := (k+1)%4, (k+3)%4

		rp := crossEdgeTerm(cc.Vertices, e[1], e[n-1], f[0], f[n-1])
		g.FPlus[k] = gregoryFacePoint(&g.P[k], &g.EPlus[k], &g.EMinus[next], &rp, cs[k], cs[next])

		rm := crossEdgeTerm(cc.Vertices, e[0], e[2], f[0], f[1])
		g.FMinus[k] = gregoryFacePoint(&g.P[k], &g.EMinus[k], &g.EPlus[prev], &rm, cs[k], cs[prev])
	}
	return g, true
}

// crossEdgeTerm is the difference between the face on one side of a corner
// edge and the face across it: near and far are the ring vertices beside the
// edge, fn and ff the diagonals of the two faces.
func crossEdgeTerm(vs []vec3.T, near, far, fn, ff int32) vec3.T {
	var r vec3.T
	madd(&r, 2.0/6, &vs[near])
	madd(&r, -2.0/6, &vs[far])
	madd(&r, 1.0/6, &vs[fn])
	madd(&r, -1.0/6, &vs[ff])
	return r
}

// gregoryFacePoint places the interior point next to edge point e of corner
// p. o is the edge point of the opposite corner pointing back at p, c0 and
// c1 the cosines of the two corner valences.
func gregoryFacePoint(p, e, o, r *vec3.T, c0, c1 float32) vec3.T {
	out := *e
	madd(&out, c1/3, p)
	madd(&out, -(2*c0+c1)/3, e)
	madd(&out, 2*c0/3, o)
	madd(&out, 1.0/3, r)
	return out
}

func blend(a *vec3.T, wa float32, b *vec3.T, wb float32) vec3.T {
	var out vec3.T
	d := wa + wb
	if d == 0 {
		madd(&out, 0.5, a)
		madd(&out, 0.5, b)
		return out
	}
	madd(&out, wa/d, a)
	madd(&out, wb/d, b)
	return out
}

// Bezier returns the Bezier net with interior points blended at (u, v).
func (g *GregoryPatch) Bezier(u, v float32) BezierPatch {
	var b BezierPatch
	b.P[0] = [4]vec3.T{g.P[0], g.EPlus[0], g.EMinus[1], g.P[1]}
	b.P[1] = [4]vec3.T{
		g.EMinus[0],
		blend(&g.FPlus[0], u, &g.FMinus[0], v),
		blend(&g.FPlus[1], v, &g.FMinus[1], 1-u),
		g.EPlus[1],
	}
	b.P[2] = [4]vec3.T{
		g.EPlus[3],
		blend(&g.FPlus[3], 1-v, &g.FMinus[3], u),
		blend(&g.FPlus[2], 1-u, &g.FMinus[2], 1-v),
		g.EMinus[2],
	}
	b.P[3] = [4]vec3.T{g.P[3], g.EMinus[3], g.EPlus[2], g.P[2]}
	return b
}

func (g *GregoryPatch) Eval(u, v, dscale float32, out Outputs) {
	b := g.Bezier(u, v)
	b.Eval(u, v, dscale, out)
}
