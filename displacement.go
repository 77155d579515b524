package subdiv

import (
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// DisplacementFunc moves batches of surface samples in place. u and v are
// face coordinates, (nx, ny, nz) the surface normal, which may be
// unnormalized. It may be called concurrently.
type DisplacementFunc func(userData any, geomID, primID uint32, u, v, nx, ny, nz, x, y, z []float32)

// Heightmap 灰度高度图, 取值 [0,1]
type Heightmap struct {
	Width  int
	Height int
	Data   []float32
}

func LoadHeightmap(name string) (*Heightmap, error) {
	reader, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open heightmap %s", name)
	}
	defer reader.Close()
	_, format, err := image.DecodeConfig(reader)
	if err != nil {
		return nil, errors.Wrapf(err, "decode heightmap %s", name)
	}
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	var img image.Image
	switch format {
	case "jpeg", "jpg":
		img, err = jpeg.Decode(reader)
	case "png":
		img, err = png.Decode(reader)
	case "gif":
		img, err = gif.Decode(reader)
	case "bmp":
		img, err = bmp.Decode(reader)
	case "tif", "tiff":
		img, err = tiff.Decode(reader)
	default:
		return nil, errors.Errorf("unknown heightmap format %s", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode heightmap %s", name)
	}
	return HeightmapFromImage(img), nil
}

func HeightmapFromImage(img image.Image) *Heightmap {
	bd := img.Bounds()
	h := &Heightmap{Width: bd.Dx(), Height: bd.Dy(), Data: make([]float32, bd.Dx()*bd.Dy())}
	for y := 0; y < bd.Dy(); y++ {
		for x := 0; x < bd.Dx(); x++ {
			g := color.Gray16Model.Convert(img.At(bd.Min.X+x, bd.Min.Y+y)).(color.Gray16)
			h.Data[y*h.Width+x] = float32(g.Y) / 65535
		}
	}
	return h
}

func (h *Heightmap) at(x, y int) float32 {
	x = min(max(x, 0), h.Width-1)
	y = min(max(y, 0), h.Height-1)
	return h.Data[y*h.Width+x]
}

// Sample returns the bilinearly filtered height at (u, v), v pointing up
// the image.
func (h *Heightmap) Sample(u, v float32) float32 {
	if h.Width == 0 || h.Height == 0 {
		return 0
	}
	fx := u*float32(h.Width-1)
	fy := (1 - v) * float32(h.Height-1)
	x0, y0 := math32.Floor(fx), math32.Floor(fy)
	tx, ty := fx-x0, fy-y0
	ix, iy := int(x0), int(y0)
	a := h.at(ix, iy)*(1-tx) + h.at(ix+1, iy)*tx
	b := h.at(ix, iy+1)*(1-tx) + h.at(ix+1, iy+1)*tx
	return a*(1-ty) + b*ty
}

// HeightmapDisplacement offsets samples along the normalized normal by
// scale times the sampled height.
func HeightmapDisplacement(h *Heightmap, scale float32) DisplacementFunc {
	return func(_ any, _, _ uint32, u, v, nx, ny, nz, x, y, z []float32) {
		for i := range x {
			l := math32.Sqrt(nx[i]*nx[i] + ny[i]*ny[i] + nz[i]*nz[i])
			if l == 0 {
				continue
			}
			d := h.Sample(u[i], v[i]) * scale / l
			x[i] += nx[i] * d
			y[i] += ny[i] * d
			z[i] += nz[i] * d
		}
	}
}
