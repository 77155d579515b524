package subdiv

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/flywave/go3d/vec2"
)

// TestGridUVTessellator 测试规则网格参数
func TestGridUVTessellator(t *testing.T) {
	u := make([]float32, 6)
	v := make([]float32, 6)
	gridUVTessellator(5, 3, 2, 1, 3, 2, u, v)
	wantU := []float32{0.5, 0.75, 1, 0.5, 0.75, 1}
	wantV := []float32{0.5, 0.5, 0.5, 1, 1, 1}
	for i := range u {
		if u[i] != wantU[i] || v[i] != wantV[i] {
			t.Errorf("sample %d: expected (%v,%v), got (%v,%v)", i, wantU[i], wantV[i], u[i], v[i])
		}
	}
}

// TestStitch 测试细边到粗边的索引映射
func TestStitch(t *testing.T) {
	tests := []struct {
		x, fine, coarse, want int
	}{
		{0, 4, 2, 0},
		{1, 4, 2, 0},
		{2, 4, 2, 1},
		{3, 4, 2, 1},
		{4, 4, 2, 2},
		{3, 6, 2, 1},
		{5, 6, 2, 1},
	}
	for _, tt := range tests {
		if got := stitch(tt.x, tt.fine, tt.coarse); got != tt.want {
			t.Errorf("stitch(%d,%d,%d) = %d, want %d", tt.x, tt.fine, tt.coarse, got, tt.want)
		}
	}
}

// TestStitchUVGridBottom 测试下边缘对齐, 相邻图元共享相同的采样
func TestStitchUVGridBottom(t *testing.T) {
	n := 5 * 3
	u := make([]float32, n)
	v := make([]float32, n)
	gridUVTessellator(5, 3, 0, 0, 5, 3, u, v)
	stitchUVGrid([4]float32{2, 2, 4, 2}, 5, 3, 0, 0, 5, 3, u, v)
	bottom := []float32{0, 0, 0.5, 0.5, 1}
	for x := 0; x < 5; x++ {
		if u[x] != bottom[x] {
			t.Errorf("bottom %d: expected %v, got %v", x, bottom[x], u[x])
		}
		if u[10+x] != float32(x)*0.25 {
			t.Errorf("top %d: expected %v, got %v", x, float32(x)*0.25, u[10+x])
		}
	}
}

// TestSubdivPatch1Base 测试图元参数与细分级别
func TestSubdivPatch1Base(t *testing.T) {
	p := SubdivPatch1Base{Level: [4]float32{0.3, 2.2, 3, 1}, UV: subQuadUV(6)}
	p.updateStitching()
	if p.Level != [4]float32{1, 3, 3, 1} {
		t.Errorf("unexpected rounded levels %v", p.Level)
	}
	if w, h := p.GridSize(); w != 4 || h != 4 {
		t.Errorf("Expected 4x4 grid, got %dx%d", w, h)
	}
	if !p.NeedsStitching() {
		t.Error("Expected stitching")
	}
	// sub-quad 6 sits at l=2, h=1
	want := [4]vec2.T{{0.5, 0.25}, {0.625, 0.25}, {0.625, 0.375}, {0.5, 0.375}}
	if p.UV != want {
		t.Errorf("Expected %v, got %v", want, p.UV)
	}
	mu, mv := p.MacroUV(0.5, 1)
	if math32.Abs(mu-0.5625) > 1e-6 || math32.Abs(mv-0.375) > 1e-6 {
		t.Errorf("MacroUV(0.5,1) = (%v,%v)", mu, mv)
	}

	q := SubdivPatch1Base{Level: [4]float32{4, 4, 4, 4}, UV: quadUV}
	q.updateStitching()
	if q.NeedsStitching() {
		t.Error("uniform levels need no stitching")
	}
	if mu, mv := q.MacroUV(0.3, 0.7); math32.Abs(mu-0.3) > 1e-6 || math32.Abs(mv-0.7) > 1e-6 {
		t.Errorf("identity MacroUV gave (%v,%v)", mu, mv)
	}
}

// TestArena 测试分配器的批量释放与复用
func TestArena(t *testing.T) {
	a := NewArena()
	first := a.newPatch(PatchEval)
	for i := 0; i < arenaBlockSize+10; i++ {
		a.newPatch(PatchSubdividedQuad)
	}
	if a.Len() != arenaBlockSize+11 {
		t.Errorf("Expected %d nodes, got %d", arenaBlockSize+11, a.Len())
	}
	a.Reset()
	if a.Len() != 0 {
		t.Errorf("Expected empty arena, got %d", a.Len())
	}
	again := a.newPatch(PatchBilinear)
	if again != first || again.Kind != PatchBilinear || again.children != nil {
		t.Error("Expected the first slot to be reused and cleared")
	}
}

// TestArenaPayloads 测试子节点槽位与延迟数据在分配器内复用
func TestArenaPayloads(t *testing.T) {
	a := NewArena()
	c := a.newChildren(4)
	c[0] = a.newPatch(PatchBSpline)
	if len(c) != 4 || cap(c) != 4 {
		t.Errorf("Expected 4 slots, got len %d cap %d", len(c), cap(c))
	}
	data := []byte{1, 2, 3, 4, 5}
	e := a.newEval(data)
	data[0] = 9
	if e.Kind != PatchEval || len(e.eval) != 5 || e.eval[0] != 1 {
		t.Errorf("Expected a private copy of the payload, got %v", e.eval)
	}

	a.Reset()
	c2 := a.newChildren(4)
	if &c2[0] != &c[0] || c2[0] != nil {
		t.Error("Expected child slots to be reused and cleared")
	}
	e2 := a.newEval([]byte{7})
	if &e2.eval[0] != &e.eval[0] {
		t.Error("Expected payload storage to be reused")
	}

	big := a.newEval(make([]byte, payloadBlockSize+1))
	if len(big.eval) != payloadBlockSize+1 {
		t.Errorf("unexpected payload size %d", len(big.eval))
	}

	faces, pts := prismCage()
	m := newTestMesh(t, faces, pts, DefaultConfig())
	tree := buildPatch(a, m.ref(0), m.opts)
	if tree == nil || len(tree.Children()) != 3 || cap(tree.Children()) != 3 {
		t.Fatalf("Expected three arena child slots, got %v", tree)
	}
}
