package subdiv

import (
	"strings"
	"testing"

	"github.com/flywave/go3d/vec3"
)

const cubeOBJ = `# cube
v -1 -1 -1
v 1 -1 -1
v 1 1 -1
v -1 1 -1
v -1 -1 1
v 1 -1 1
v 1 1 1
v -1 1 1
vt 0 0
vn 0 0 1
f 1 4 3 2
f 5/1 6/1 7/1 8/1
f 1//1 2//1 6//1 5//1
f 3/1/1 4/1/1 8/1/1 7/1/1
f -8 -4 -1 -5
f 2 3 7 6
`

// TestReadOBJ 测试读取 OBJ 控制网格
func TestReadOBJ(t *testing.T) {
	obj, err := ReadOBJ(strings.NewReader(cubeOBJ))
	if err != nil {
		t.Fatalf("ReadOBJ failed: %v", err)
	}
	if len(obj.Positions) != 8 || len(obj.Faces) != 6 {
		t.Fatalf("Expected 8 vertices and 6 faces, got %d and %d", len(obj.Positions), len(obj.Faces))
	}
	if obj.Positions[6] != (vec3.T{1, 1, 1}) {
		t.Errorf("unexpected position %v", obj.Positions[6])
	}
	want, _ := cubeCage()
	for f := range want {
		for k := range want[f] {
			if obj.Faces[f][k] != want[f][k] {
				t.Errorf("face %d: expected %v, got %v", f, want[f], obj.Faces[f])
				break
			}
		}
	}

	m, err := obj.NewMesh(3, DefaultConfig())
	if err != nil {
		t.Fatalf("NewMesh failed: %v", err)
	}
	var p vec3.T
	if err := m.Eval(1, 1, 1, Outputs{P: &p}); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if !vecNear(p, vec3.T{0.5, 0.5, 0.5}, 1e-5) {
		t.Errorf("Expected (0.5,0.5,0.5), got %v", p)
	}
}

// TestReadOBJErrors 测试非法 OBJ 输入
func TestReadOBJErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"ShortVertex", "v 1 2\n"},
		{"BadNumber", "v 1 a 2\n"},
		{"ShortFace", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{"IndexRange", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n"},
		{"BadIndex", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 x 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadOBJ(strings.NewReader(tt.input)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
