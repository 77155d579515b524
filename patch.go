package subdiv

// Patch is a node of a patch tree. Leaf kinds carry exactly one analytic
// payload; subdivided kinds own their children; PatchEval carries a
// serialized CatmullClarkPatch evaluated on demand.
type Patch struct {
	Kind PatchKind

	bilinear *BilinearPatch
	bspline  *BSplinePatch
	bezier   *BezierPatch
	gregory  *GregoryPatch
	children []*Patch
	eval     []byte
}

func (p *Patch) Children() []*Patch {
	return p.children
}

// Depth returns the height of the tree below p.
func (p *Patch) Depth() int {
	d := 0
	for _, c := range p.children {
		if c == nil {
			continue
		}
		if cd := c.Depth() + 1; cd > d {
			d = cd
		}
	}
	return d
}

// evalLeaf evaluates an analytic leaf. Non-leaf kinds return false.
func (p *Patch) evalLeaf(u, v, dscale float32, out Outputs) bool {
	switch p.Kind {
	case PatchBilinear:
		p.bilinear.Eval(u, v, dscale, out)
	case PatchBSpline:
		p.bspline.Eval(u, v, dscale, out)
	case PatchBezier:
		p.bezier.Eval(u, v, dscale, out)
	case PatchGregory:
		p.gregory.Eval(u, v, dscale, out)
	default:
		return false
	}
	return true
}

type patchBuilder struct {
	arena *Arena
	opts  BuildOptions
}

// buildPatch constructs the patch tree for the face owning ref.Edge. It
// returns nil when the neighbourhood cannot be represented.
func buildPatch(a *Arena, ref ControlMeshRef, opts BuildOptions) *Patch {
	cc, err := NewCatmullClarkPatch(ref)
	if err != nil {
		Logger().Warn("patch build failed", "edge", ref.Edge, "err", err)
		return nil
	}
	b := patchBuilder{arena: a, opts: opts}
	if opts.Deferred {
		return b.deferred(cc)
	}
	return b.create(cc, 0)
}

func (b *patchBuilder) deferred(cc *CatmullClarkPatch) *Patch {
	data, err := MarshalCatmullClarkPatch(cc)
	if err != nil {
		Logger().Warn("patch serialization failed", "err", err)
		return nil
	}
	return b.arena.newEval(data)
}

func (b *patchBuilder) create(cc *CatmullClarkPatch, depth int) *Patch {
	n := cc.Valence()
	if n != 4 {
		if depth > 0 || n > maxGeneralSectors {
			return nil
		}
		children := cc.Subdivide()
		p := b.arena.newPatch(PatchSubdividedGeneral)
		p.children = b.arena.newChildren(n)
		for i, ch := range children {
			if p.children[i] = b.create(ch, depth+1); p.children[i] == nil {
				return nil
			}
		}
		return p
	}

	if pts, ok := cc.BSplineControlPoints(); ok {
		if b.opts.Bezier {
			bs := BSplinePatch{P: *pts}
			return b.arena.newBezier(bs.Bezier())
		}
		return b.arena.newBSpline(pts)
	}
	if g, ok := newGregoryPatch(cc, b.opts.MaxValence); ok {
		return b.arena.newGregory(g)
	}
	if depth < b.opts.MaxCacheDepth {
		p := b.arena.newPatch(PatchSubdividedQuad)
		p.children = b.arena.newChildren(4)
		for i, ch := range cc.Subdivide() {
			if p.children[i] = b.create(ch, depth+1); p.children[i] == nil {
				return nil
			}
		}
		return p
	}
	return b.arena.newBilinear(newBilinearPatch(cc, true))
}

// createLeaf builds a single analytic patch for a quad face, or nil when the
// face needs subdivision.
func (b *patchBuilder) createLeaf(cc *CatmullClarkPatch) *Patch {
	if !cc.IsQuad() {
		return nil
	}
	lb := patchBuilder{arena: b.arena, opts: b.opts}
	lb.opts.MaxCacheDepth = 0
	p := lb.create(cc, 0)
	if p == nil || p.Kind == PatchBilinear {
		return nil
	}
	return p
}
