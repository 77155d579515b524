package subdiv

import "github.com/flywave/go3d/vec3"

// BilinearPatch 双线性面片, 角点逆时针
type BilinearPatch struct {
	P [4]vec3.T
}

func newBilinearPatch(cc *CatmullClarkPatch, limit bool) BilinearPatch {
	var b BilinearPatch
	for k, v := range cc.Faces[0][:4] {
		if limit {
			b.P[k] = cc.LimitPosition(v)
		} else {
			b.P[k] = cc.Vertices[v]
		}
	}
	return b
}

func (b *BilinearPatch) Eval(u, v, dscale float32, out Outputs) {
	if out.P != nil {
		var p vec3.T
		madd(&p, (1-u)*(1-v), &b.P[0])
		madd(&p, u*(1-v), &b.P[1])
		madd(&p, u*v, &b.P[2])
		madd(&p, (1-u)*v, &b.P[3])
		*out.P = p
	}
	if out.Du != nil {
		var d vec3.T
		madd(&d, -(1-v)*dscale, &b.P[0])
		madd(&d, (1-v)*dscale, &b.P[1])
		madd(&d, v*dscale, &b.P[2])
		madd(&d, -v*dscale, &b.P[3])
		*out.Du = d
	}
	if out.Dv != nil {
		var d vec3.T
		madd(&d, -(1-u)*dscale, &b.P[0])
		madd(&d, -u*dscale, &b.P[1])
		madd(&d, u*dscale, &b.P[2])
		madd(&d, (1-u)*dscale, &b.P[3])
		*out.Dv = d
	}
	if out.Duu != nil {
		*out.Duu = vec3.T{}
	}
	if out.Dvv != nil {
		*out.Dvv = vec3.T{}
	}
	if out.Duv != nil {
		var d vec3.T
		s := dscale * dscale
		madd(&d, s, &b.P[0])
		madd(&d, -s, &b.P[1])
		madd(&d, s, &b.P[2])
		madd(&d, -s, &b.P[3])
		*out.Duv = d
	}
}
