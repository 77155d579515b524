package subdiv

// FeatureAdaptiveEval evaluates the limit surface by recursive subdivision
// of the face's neighbourhood until a regular patch or the depth limit is
// reached.
func FeatureAdaptiveEval(ref ControlMeshRef, u, v float32, out Outputs, maxDepth int) bool {
	cc, err := NewCatmullClarkPatch(ref)
	if err != nil {
		Logger().Warn("feature adaptive eval failed", "edge", ref.Edge, "err", err)
		return false
	}
	return cc.Eval(u, v, 1, 0, maxDepth, out)
}

// Eval evaluates the neighbourhood at (u, v). dscale and depth describe how
// far the patch already is below the face it was built for.
func (cc *CatmullClarkPatch) Eval(u, v, dscale float32, depth, maxDepth int, out Outputs) bool {
	for {
		n := cc.Valence()
		if n != 4 {
			if dscale != 1 {
				return contractViolation("general patch below the root", "dscale", dscale)
			}
			i, lu, lv := generalSector(u, v)
			if i >= n {
				return contractViolation("general patch sector out of range", "sector", i, "valence", n)
			}
			cc = cc.SubdivideChild(i)
			u, v = lu, lv
			dscale *= 8
			depth++
			continue
		}
		if pts, ok := cc.BSplineControlPoints(); ok {
			bs := BSplinePatch{P: *pts}
			bs.Eval(u, v, dscale, out)
			return true
		}
		if depth >= maxDepth {
			if g, ok := newGregoryPatch(cc, maxGregoryValence); ok {
				g.Eval(u, v, dscale, out)
				return true
			}
			b := newBilinearPatch(cc, true)
			b.Eval(u, v, dscale, out)
			return true
		}
		i, lu, lv := quadrant(u, v)
		cc = cc.SubdivideChild(i)
		u, v = lu, lv
		dscale *= 2
		depth++
	}
}
