package subdiv

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/flywave/go3d/vec3"
)

// subdividedTree builds a quad tree of the given depth with B-spline leaves.
func subdividedTree(t *testing.T, a *Arena, cc *CatmullClarkPatch, depth int) *Patch {
	t.Helper()
	if depth == 0 {
		pts, ok := cc.BSplineControlPoints()
		if !ok {
			t.Fatal("expected a regular patch")
		}
		return a.newBSpline(pts)
	}
	p := a.newPatch(PatchSubdividedQuad)
	for _, ch := range cc.Subdivide() {
		p.children = append(p.children, subdividedTree(t, a, ch, depth-1))
	}
	return p
}

// TestEvalPatchSubdividedQuad 测试细分树求值与导数缩放
func TestEvalPatchSubdividedQuad(t *testing.T) {
	faces, pts := torusCage(6, 5)
	cc := testPatch(t, faces, pts, 3)
	cp, _ := cc.BSplineControlPoints()
	ref := BSplinePatch{P: *cp}

	for _, depth := range []int{1, 2} {
		a := NewArena()
		tree := subdividedTree(t, a, cc, depth)
		if tree.Depth() != depth {
			t.Errorf("Expected depth %d, got %d", depth, tree.Depth())
		}
		for _, uv := range [][2]float32{{0.1, 0.2}, {0.7, 0.3}, {0.6, 0.9}, {0.25, 0.75}, {0.5, 0.5}} {
			var got, want [6]vec3.T
			out := Outputs{P: &got[0], Du: &got[1], Dv: &got[2], Duu: &got[3], Dvv: &got[4], Duv: &got[5]}
			if !evalPatch(tree, uv[0], uv[1], 1, 0, out, DefaultMaxEvalDepth) {
				t.Fatalf("evalPatch failed at %v", uv)
			}
			ref.Eval(uv[0], uv[1], 1, Outputs{P: &want[0], Du: &want[1], Dv: &want[2], Duu: &want[3], Dvv: &want[4], Duv: &want[5]})
			eps := []float32{1e-4, 1e-3, 1e-3, 1e-2, 1e-2, 1e-2}
			for i := range got {
				if !vecNear(got[i], want[i], eps[i]) {
					t.Errorf("depth %d at %v output %d: %v != %v", depth, uv, i, got[i], want[i])
				}
			}
		}
	}
}

// TestQuadrant 测试象限选择
func TestQuadrant(t *testing.T) {
	tests := []struct {
		u, v   float32
		want   int
		lu, lv float32
	}{
		{0.1, 0.2, 0, 0.2, 0.4},
		{0.5, 0.2, 1, 0, 0.4},
		{0.75, 0.5, 2, 0.5, 0},
		{0.5, 0.5, 3, 1, 0},
		{0.2, 0.9, 3, 0.4, 0.8},
	}
	for _, tt := range tests {
		i, lu, lv := quadrant(tt.u, tt.v)
		if i != tt.want || math32.Abs(lu-tt.lu) > 1e-6 || math32.Abs(lv-tt.lv) > 1e-6 {
			t.Errorf("quadrant(%v,%v) = %d (%v,%v), want %d (%v,%v)", tt.u, tt.v, i, lu, lv, tt.want, tt.lu, tt.lv)
		}
	}
}

// TestGeneralSector 测试 4x4 扇区映射
func TestGeneralSector(t *testing.T) {
	tests := []struct {
		name   string
		u, v   float32
		want   int
		lu, lv float32
	}{
		{"Sector0", 0.1, 0.1, 0, 0.8, 0.8},
		{"Sector1", 0.3, 0.05, 1, 0.4, 0.4},
		{"Sector4", 0.0, 0.3, 4, 0, 0.4},
		{"Corner", 0.375, 0.125, 1, 1, 1},
		{"OutOfRange", 1.2, 0.1, maxGeneralSectors, 0, 0},
		{"Negative", -0.1, 0.1, maxGeneralSectors, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, lu, lv := generalSector(tt.u, tt.v)
			if i != tt.want {
				t.Fatalf("Expected sector %d, got %d", tt.want, i)
			}
			if math32.Abs(lu-tt.lu) > 1e-5 || math32.Abs(lv-tt.lv) > 1e-5 {
				t.Errorf("Expected local (%v,%v), got (%v,%v)", tt.lu, tt.lv, lu, lv)
			}
		})
	}
}

// TestEvalPatchGeneral 测试 N 边形面片求值及前置条件
func TestEvalPatchGeneral(t *testing.T) {
	faces, pts := prismCage()
	m := newTestMesh(t, faces, pts, DefaultConfig())
	a := NewArena()
	tree := buildPatch(a, m.ref(0), m.opts)
	if tree == nil || tree.Kind != PatchSubdividedGeneral {
		t.Fatalf("Expected general patch, got %v", tree)
	}
	if len(tree.Children()) != 3 {
		t.Errorf("Expected 3 children, got %d", len(tree.Children()))
	}

	var p vec3.T
	if !evalPatch(tree, 0.1, 0.1, 1, 0, Outputs{P: &p}, DefaultMaxEvalDepth) {
		t.Error("evalPatch failed in sector 0")
	}
	if evalPatch(tree, 0.1, 0.1, 2, 0, Outputs{P: &p}, DefaultMaxEvalDepth) {
		t.Error("Expected failure for scaled entry")
	}
	// sector 3 does not exist on a triangle
	if evalPatch(tree, 0.8, 0.1, 1, 0, Outputs{P: &p}, DefaultMaxEvalDepth) {
		t.Error("Expected failure for sector past the valence")
	}

	SetDebug(true)
	defer SetDebug(false)
	defer func() {
		if recover() == nil {
			t.Error("Expected panic in debug mode")
		}
	}()
	evalPatch(tree, 0.1, 0.1, 2, 0, Outputs{P: &p}, DefaultMaxEvalDepth)
}

// TestEvalPatchGeneralDerivativeScale 测试 N 边形扇区导数按 8 倍缩放
func TestEvalPatchGeneralDerivativeScale(t *testing.T) {
	faces, pts := prismCage()
	m := newTestMesh(t, faces, pts, DefaultConfig())
	tree := buildPatch(NewArena(), m.ref(0), m.opts)
	if tree == nil || tree.Kind != PatchSubdividedGeneral {
		t.Fatalf("Expected general patch, got %v", tree)
	}

	for _, uv := range [][2]float32{{0.1, 0.1}, {0.3, 0.05}, {0.02, 0.2}} {
		i, lu, lv := generalSector(uv[0], uv[1])
		var du, dv, duu, cdu, cdv, cduu vec3.T
		if !evalPatch(tree, uv[0], uv[1], 1, 0, Outputs{Du: &du, Dv: &dv, Duu: &duu}, DefaultMaxEvalDepth) {
			t.Fatalf("evalPatch failed at %v", uv)
		}
		if !evalPatch(tree.Children()[i], lu, lv, 1, 0, Outputs{Du: &cdu, Dv: &cdv, Duu: &cduu}, DefaultMaxEvalDepth) {
			t.Fatalf("child evalPatch failed at %v", uv)
		}
		for k := 0; k < 3; k++ {
			checks := [][2]float32{{du[k], 8 * cdu[k]}, {dv[k], 8 * cdv[k]}, {duu[k], 64 * cduu[k]}}
			for _, c := range checks {
				if math32.Abs(c[0]-c[1]) > 1e-4*(1+math32.Abs(c[1])) {
					t.Errorf("at %v axis %d: expected %v, got %v", uv, k, c[1], c[0])
				}
			}
		}
		if du.Length() == 0 {
			t.Errorf("at %v: zero tangent", uv)
		}
	}
}

// TestEvalPatchEval 测试延迟面片解码求值
func TestEvalPatchEval(t *testing.T) {
	faces, pts := torusCage(6, 5)
	m := newTestMesh(t, faces, pts, DefaultConfig())
	opts := m.opts
	opts.Deferred = true
	p := buildPatch(NewArena(), m.ref(4), opts)
	if p == nil || p.Kind != PatchEval {
		t.Fatal("Expected eval patch")
	}
	var a, b vec3.T
	if !evalPatch(p, 0.3, 0.4, 1, 0, Outputs{P: &a}, DefaultMaxEvalDepth) {
		t.Fatal("evalPatch failed")
	}
	if !FeatureAdaptiveEval(m.ref(4), 0.3, 0.4, Outputs{P: &b}, DefaultMaxEvalDepth) {
		t.Fatal("FeatureAdaptiveEval failed")
	}
	if a != b {
		t.Errorf("%v != %v", a, b)
	}

	p.eval = []byte("junk")
	if evalPatch(p, 0.3, 0.4, 1, 0, Outputs{P: &a}, DefaultMaxEvalDepth) {
		t.Error("Expected failure for corrupt data")
	}
	if evalPatch(nil, 0.3, 0.4, 1, 0, Outputs{P: &a}, DefaultMaxEvalDepth) {
		t.Error("Expected failure for nil patch")
	}
}

// TestEvalPointFallback 测试缓存为空时回退到自适应求值
func TestEvalPointFallback(t *testing.T) {
	faces, pts := cubeCage()
	m := newTestMesh(t, faces, pts, DefaultConfig())
	var a, b vec3.T
	if !EvalPoint(nil, nil, 0, m.ref(2), 0.3, 0.6, Outputs{P: &a}, m.opts) {
		t.Fatal("EvalPoint failed")
	}
	if !FeatureAdaptiveEval(m.ref(2), 0.3, 0.6, Outputs{P: &b}, m.opts.MaxEvalDepth) {
		t.Fatal("FeatureAdaptiveEval failed")
	}
	if a != b {
		t.Errorf("%v != %v", a, b)
	}

	// without topology both the build and the fallback fail
	c := NewPatchCache()
	var e CacheEntry
	ref := m.ref(2)
	ref.Topology = nil
	if EvalPoint(c, &e, 1, ref, 0.3, 0.6, Outputs{P: &a}, m.opts) {
		t.Error("Expected failure without topology")
	}
	if s := c.Stats(); s.Builds != 1 {
		t.Errorf("Expected one build, got %d", s.Builds)
	}
}
