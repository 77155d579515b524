package subdiv

import "testing"

// TestTopology 测试半边结构
func TestTopology(t *testing.T) {
	faces, _ := planeCage(2)
	topo, err := NewTopology(faces, 9)
	if err != nil {
		t.Fatalf("NewTopology failed: %v", err)
	}
	if topo.NumFaces() != 4 || topo.NumEdges() != 16 || topo.NumVertices() != 9 {
		t.Errorf("unexpected counts %d %d %d", topo.NumFaces(), topo.NumEdges(), topo.NumVertices())
	}

	h := topo.FaceEdge(0)
	if topo.Origin(h) != 0 || topo.Dest(h) != 1 {
		t.Errorf("Expected edge 0->1, got %d->%d", topo.Origin(h), topo.Dest(h))
	}
	if !topo.IsBoundary(h) {
		t.Error("edge 0->1 lies on the border")
	}
	// edge 1->4 is shared with face 1
	h1 := topo.Next(h)
	o := topo.Opposite(h1)
	if o < 0 || topo.Face(o) != 1 || topo.Origin(o) != 4 || topo.Dest(o) != 1 {
		t.Errorf("unexpected twin %d of %d", o, h1)
	}
	if topo.Prev(topo.Next(h1)) != h1 {
		t.Error("Prev does not invert Next")
	}

	tests := []struct {
		v       int32
		valence int
	}{
		{0, 1},
		{1, 2},
		{4, 4},
		{8, 1},
	}
	for _, tt := range tests {
		if got := topo.Valence(tt.v); got != tt.valence {
			t.Errorf("vertex %d: expected valence %d, got %d", tt.v, tt.valence, got)
		}
	}

	fv := topo.FaceVertices(topo.FaceEdge(3) + 2)
	want := []int32{8, 7, 4, 5}
	for i := range want {
		if fv[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, fv)
		}
	}
}

// TestTopologyErrors 测试非法拓扑
func TestTopologyErrors(t *testing.T) {
	tests := []struct {
		name  string
		faces [][]int32
	}{
		{"TwoCorners", [][]int32{{0, 1}}},
		{"BadIndex", [][]int32{{0, 1, 4}}},
		{"NegativeIndex", [][]int32{{0, -1, 2}}},
		{"Degenerate", [][]int32{{0, 0, 1}}},
		{"NonManifold", [][]int32{{0, 1, 2}, {0, 1, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTopology(tt.faces, 4); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
