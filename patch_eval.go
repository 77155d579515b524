package subdiv

import (
	"github.com/chewxy/math32"
	"github.com/flywave/go3d/vec3"
)

// Outputs 求值输出, 为 nil 的字段跳过
type Outputs struct {
	P   *vec3.T
	Du  *vec3.T
	Dv  *vec3.T
	Duu *vec3.T
	Dvv *vec3.T
	Duv *vec3.T
}

func (o Outputs) store(p, du, dv, duu, dvv, duv *vec3.T) {
	if o.P != nil {
		*o.P = *p
	}
	if o.Du != nil {
		*o.Du = *du
	}
	if o.Dv != nil {
		*o.Dv = *dv
	}
	if o.Duu != nil {
		*o.Duu = *duu
	}
	if o.Dvv != nil {
		*o.Dvv = *dvv
	}
	if o.Duv != nil {
		*o.Duv = *duv
	}
}

// generalSector maps macro coordinates of a non-quad face onto the 4x4
// sector grid: sector 4*floor(4v)+floor(4u), local 2*frac(4u), 2*frac(4v).
func generalSector(u, v float32) (int, float32, float32) {
	fu := math32.Floor(4 * u)
	fv := math32.Floor(4 * v)
	l, h := int(fu), int(fv)
	if l < 0 || l > 3 || h < 0 || h > 3 {
		return maxGeneralSectors, 0, 0
	}
	return 4*h + l, 2 * (4*u - fu), 2 * (4*v - fv)
}

// quadrant selects the child of a subdivided quad and its local coordinates.
func quadrant(u, v float32) (int, float32, float32) {
	if v < 0.5 {
		if u < 0.5 {
			return 0, 2 * u, 2 * v
		}
		return 1, 2*u - 1, 2 * v
	}
	if u > 0.5 {
		return 2, 2*u - 1, 2*v - 1
	}
	return 3, 2 * u, 2*v - 1
}

// evalPatch descends the patch tree. dscale accumulates the parameter
// scaling of each level. It returns false when the tree cannot produce a
// value, leaving the caller to fall back.
func evalPatch(p *Patch, u, v, dscale float32, depth int, out Outputs, maxEvalDepth int) bool {
	if p == nil {
		return false
	}
	switch p.Kind {
	case PatchBilinear, PatchBSpline, PatchBezier, PatchGregory:
		return p.evalLeaf(u, v, dscale, out)
	case PatchSubdividedQuad:
		i, lu, lv := quadrant(u, v)
		if len(p.children) != 4 {
			return contractViolation("subdivided quad without four children", "children", len(p.children))
		}
		return evalPatch(p.children[i], lu, lv, 2*dscale, depth+1, out, maxEvalDepth)
	case PatchSubdividedGeneral:
		if dscale != 1 {
			return contractViolation("general patch below the root", "dscale", dscale)
		}
		i, lu, lv := generalSector(u, v)
		if i >= len(p.children) {
			return contractViolation("general patch sector out of range", "sector", i, "valence", len(p.children))
		}
		return evalPatch(p.children[i], lu, lv, 8*dscale, depth+1, out, maxEvalDepth)
	case PatchEval:
		cc, err := UnmarshalCatmullClarkPatch(p.eval)
		if err != nil {
			Logger().Warn("eval patch decode failed", "err", err)
			return false
		}
		return cc.Eval(u, v, dscale, depth, maxEvalDepth, out)
	}
	return contractViolation("unknown patch kind", "kind", p.Kind)
}

// EvalPoint evaluates the limit surface of the face owning ref.Edge at
// (u, v). The cached patch tree is tried first; any failure falls back to
// feature-adaptive evaluation. A nil cache skips the cache.
func EvalPoint(c *PatchCache, entry *CacheEntry, generation uint64, ref ControlMeshRef, u, v float32, out Outputs, opts BuildOptions) bool {
	if c != nil && entry != nil {
		p, ok := c.Lookup(entry, generation, func(a *Arena) *Patch {
			return buildPatch(a, ref, opts)
		})
		if ok && evalPatch(p, u, v, 1, 0, out, opts.MaxEvalDepth) {
			c.Unlock()
			return true
		}
		c.Unlock()
	}
	return FeatureAdaptiveEval(ref, u, v, out, opts.MaxEvalDepth)
}
