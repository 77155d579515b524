package subdiv

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
)

func toLittleByteOrder(v interface{}) []byte {
	var buf []byte
	b := bytes.NewBuffer(buf)
	e := binary.Write(b, binary.LittleEndian, v)
	if e != nil {
		return nil
	}
	return b.Bytes()
}

func writeLittleByte(wt io.Writer, v interface{}) error {
	buf := toLittleByteOrder(v)
	if buf == nil {
		return errors.Errorf("cannot encode %T", v)
	}
	_, err := wt.Write(buf)
	return err
}

func readLittleByte(rd io.Reader, v interface{}) error {
	return binary.Read(rd, binary.LittleEndian, v)
}

// CatmullClarkPatchMarshal writes the neighbourhood in little-endian order:
// signature, version, vertices, then faces with their border flags.
func CatmullClarkPatchMarshal(wt io.Writer, cc *CatmullClarkPatch) error {
	if _, err := wt.Write([]byte(PATCH_SIGNATURE)); err != nil {
		return err
	}
	if err := writeLittleByte(wt, PATCH_VERSION); err != nil {
		return err
	}
	if err := writeLittleByte(wt, uint32(len(cc.Vertices))); err != nil {
		return err
	}
	if err := writeLittleByte(wt, cc.Vertices); err != nil {
		return err
	}
	if err := writeLittleByte(wt, uint32(len(cc.Faces))); err != nil {
		return err
	}
	for f, fc := range cc.Faces {
		if err := writeLittleByte(wt, uint32(len(fc))); err != nil {
			return err
		}
		if err := writeLittleByte(wt, fc); err != nil {
			return err
		}
		border := make([]uint8, len(fc))
		for k, b := range cc.Border[f] {
			if b {
				border[k] = 1
			}
		}
		if err := writeLittleByte(wt, border); err != nil {
			return err
		}
	}
	return nil
}

func CatmullClarkPatchUnMarshal(rd io.Reader) (*CatmullClarkPatch, error) {
	sig := make([]byte, len(PATCH_SIGNATURE))
	if _, err := io.ReadFull(rd, sig); err != nil {
		return nil, errors.Wrap(err, "read signature")
	}
	if string(sig) != PATCH_SIGNATURE {
		return nil, ErrPatchSignature
	}
	var version, nv, nf uint32
	if err := readLittleByte(rd, &version); err != nil {
		return nil, errors.Wrap(err, "read version")
	}
	if version != PATCH_VERSION {
		return nil, errors.Wrapf(ErrPatchSignature, "version %d", version)
	}
	if err := readLittleByte(rd, &nv); err != nil {
		return nil, errors.Wrap(err, "read vertex count")
	}
	cc := &CatmullClarkPatch{Vertices: make([]vec3.T, nv)}
	if err := readLittleByte(rd, cc.Vertices); err != nil {
		return nil, errors.Wrap(err, "read vertices")
	}
	if err := readLittleByte(rd, &nf); err != nil {
		return nil, errors.Wrap(err, "read face count")
	}
	if nf == 0 {
		return nil, errors.Wrap(ErrMalformedTopology, "empty patch")
	}
	cc.Faces = make([][]int32, nf)
	cc.Border = make([][]bool, nf)
	for f := range cc.Faces {
		var n uint32
		if err := readLittleByte(rd, &n); err != nil {
			return nil, errors.Wrapf(err, "read face %d", f)
		}
		if n < 3 {
			return nil, errors.Wrapf(ErrMalformedTopology, "face %d has %d corners", f, n)
		}
		fc := make([]int32, n)
		if err := readLittleByte(rd, fc); err != nil {
			return nil, errors.Wrapf(err, "read face %d", f)
		}
		for _, v := range fc {
			if v < 0 || uint32(v) >= nv {
				return nil, errors.Wrapf(ErrMalformedTopology, "face %d references vertex %d", f, v)
			}
		}
		border := make([]uint8, n)
		if err := readLittleByte(rd, border); err != nil {
			return nil, errors.Wrapf(err, "read border %d", f)
		}
		cc.Faces[f] = fc
		cc.Border[f] = make([]bool, n)
		for k, b := range border {
			cc.Border[f][k] = b != 0
		}
	}
	cc.index()
	return cc, nil
}

func MarshalCatmullClarkPatch(cc *CatmullClarkPatch) ([]byte, error) {
	var buf bytes.Buffer
	if err := CatmullClarkPatchMarshal(&buf, cc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalCatmullClarkPatch(data []byte) (*CatmullClarkPatch, error) {
	return CatmullClarkPatchUnMarshal(bytes.NewReader(data))
}
