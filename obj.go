package subdiv

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
)

// ObjMesh 从 OBJ 读取的控制网格
type ObjMesh struct {
	Positions []vec3.T
	Faces     [][]int32
}

// ReadOBJ reads positions and polygon faces. Texture coordinates, normals
// and materials are skipped. Negative indices are relative to the end.
func ReadOBJ(rd io.Reader) (*ObjMesh, error) {
	mesh := &ObjMesh{}
	scanner := bufio.NewScanner(rd)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		ident, val := fields[0], fields[1:]
		switch ident {
		case "v":
			if len(val) < 3 {
				return nil, errors.Errorf("line %d: vertex needs 3 coordinates", line)
			}
			var p vec3.T
			for k := 0; k < 3; k++ {
				f, err := strconv.ParseFloat(val[k], 32)
				if err != nil {
					return nil, errors.Wrapf(err, "line %d", line)
				}
				p[k] = float32(f)
			}
			mesh.Positions = append(mesh.Positions, p)
		case "f":
			if len(val) < 3 {
				return nil, errors.Errorf("line %d: face needs 3 corners", line)
			}
			face := make([]int32, len(val))
			for k, s := range val {
				idx := strings.Split(s, "/")
				pos, err := strconv.ParseInt(idx[0], 10, 32)
				if err != nil {
					return nil, errors.Wrapf(err, "line %d", line)
				}
				// obj indices start at 1
				if pos < 0 {
					pos += int64(len(mesh.Positions))
				} else {
					pos--
				}
				if pos < 0 || pos >= int64(len(mesh.Positions)) {
					return nil, errors.Errorf("line %d: vertex index %s out of range", line, idx[0])
				}
				face[k] = int32(pos)
			}
			mesh.Faces = append(mesh.Faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read obj")
	}
	return mesh, nil
}

func LoadOBJ(path string) (*ObjMesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open obj %s", path)
	}
	defer f.Close()
	return ReadOBJ(f)
}

// NewMesh builds a subdivision mesh from the control cage.
func (o *ObjMesh) NewMesh(id uint32, cfg Config) (*Mesh, error) {
	return NewMesh(id, o.Faces, NewVertexBuffer(o.Positions), cfg)
}
