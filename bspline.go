package subdiv

import "github.com/flywave/go3d/vec3"

// BSplinePatch 均匀双三次 B 样条面片, 控制点 [v][u]
type BSplinePatch struct {
	P [4][4]vec3.T
}

func bsplineBasis(t float32) (b, d, dd [4]float32) {
	s := 1 - t
	t2 := t * t
	t3 := t2 * t
	b = [4]float32{
		s * s * s / 6,
		(3*t3 - 6*t2 + 4) / 6,
		(-3*t3 + 3*t2 + 3*t + 1) / 6,
		t3 / 6,
	}
	d = [4]float32{
		-s * s / 2,
		1.5*t2 - 2*t,
		-1.5*t2 + t + 0.5,
		t2 / 2,
	}
	dd = [4]float32{s, 3*t - 2, 1 - 3*t, t}
	return
}

// evalTensor evaluates a bicubic tensor product. First derivatives are
// scaled by dscale and second derivatives by dscale squared.
func evalTensor(P *[4][4]vec3.T, bu, du, duu, bv, dv, dvv *[4]float32, dscale float32, out Outputs) {
	var p, pu, pv, puu, pvv, puv vec3.T
	s2 := dscale * dscale
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			cp := &P[r][c]
			if out.P != nil {
				madd(&p, bv[r]*bu[c], cp)
			}
			if out.Du != nil {
				madd(&pu, bv[r]*du[c]*dscale, cp)
			}
			if out.Dv != nil {
				madd(&pv, dv[r]*bu[c]*dscale, cp)
			}
			if out.Duu != nil {
				madd(&puu, bv[r]*duu[c]*s2, cp)
			}
			if out.Dvv != nil {
				madd(&pvv, dvv[r]*bu[c]*s2, cp)
			}
			if out.Duv != nil {
				madd(&puv, dv[r]*du[c]*s2, cp)
			}
		}
	}
	out.store(&p, &pu, &pv, &puu, &pvv, &puv)
}

func (b *BSplinePatch) Eval(u, v, dscale float32, out Outputs) {
	bu, du, duu := bsplineBasis(u)
	bv, dv, dvv := bsplineBasis(v)
	evalTensor(&b.P, &bu, &du, &duu, &bv, &dv, &dvv, dscale, out)
}

func bsplineToBezier(p0, p1, p2, p3 *vec3.T) [4]vec3.T {
	var b [4]vec3.T
	madd(&b[0], 1.0/6, p0)
	madd(&b[0], 4.0/6, p1)
	madd(&b[0], 1.0/6, p2)
	madd(&b[1], 2.0/3, p1)
	madd(&b[1], 1.0/3, p2)
	madd(&b[2], 1.0/3, p1)
	madd(&b[2], 2.0/3, p2)
	madd(&b[3], 1.0/6, p1)
	madd(&b[3], 4.0/6, p2)
	madd(&b[3], 1.0/6, p3)
	return b
}

// Bezier converts the patch to the equivalent Bezier control net.
func (b *BSplinePatch) Bezier() BezierPatch {
	var rows [4][4]vec3.T
	for r := 0; r < 4; r++ {
		rows[r] = bsplineToBezier(&b.P[r][0], &b.P[r][1], &b.P[r][2], &b.P[r][3])
	}
	var out BezierPatch
	for c := 0; c < 4; c++ {
		col := bsplineToBezier(&rows[0][c], &rows[1][c], &rows[2][c], &rows[3][c])
		for r := 0; r < 4; r++ {
			out.P[r][c] = col[r]
		}
	}
	return out
}
