package subdiv

import "github.com/flywave/go3d/vec3"

// BezierPatch 双三次 Bezier 面片, 控制点 [v][u]
type BezierPatch struct {
	P [4][4]vec3.T
}

func bezierBasis(t float32) (b, d, dd [4]float32) {
	s := 1 - t
	b = [4]float32{s * s * s, 3 * t * s * s, 3 * t * t * s, t * t * t}
	d = [4]float32{-3 * s * s, 3 * s * (s - 2*t), 3 * t * (2*s - t), 3 * t * t}
	dd = [4]float32{6 * s, 6*t - 12*s, 6*s - 12*t, 6 * t}
	return
}

func (b *BezierPatch) Eval(u, v, dscale float32, out Outputs) {
	bu, du, duu := bezierBasis(u)
	bv, dv, dvv := bezierBasis(v)
	evalTensor(&b.P, &bu, &du, &duu, &bv, &dv, &dvv, dscale, out)
}
