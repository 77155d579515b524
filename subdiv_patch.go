package subdiv

import (
	"github.com/chewxy/math32"
	"github.com/flywave/go3d/vec2"
)

// SubdivPatch1Base is one dicing primitive: a quad face, or one sub-quad of
// an N-gon face. Kind is a leaf kind when Patch holds a prebuilt analytic
// patch, otherwise PatchEval and the surface is evaluated from the control
// mesh.
type SubdivPatch1Base struct {
	Kind     PatchKind
	Patch    *Patch
	Edge     int32
	Face     int32
	Geom     uint32
	Prim     uint32
	SubPatch int
	Level    [4]float32
	UV       [4]vec2.T

	stitching bool
}

var quadUV = [4]vec2.T{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

// subQuadUV returns the macro uv corners of sub-quad k of an N-gon face.
func subQuadUV(k int) [4]vec2.T {
	l := float32(k % 4)
	h := float32(k / 4)
	u0, v0 := l/4, h/4
	return [4]vec2.T{
		{u0, v0},
		{u0 + 0.125, v0},
		{u0 + 0.125, v0 + 0.125},
		{u0, v0 + 0.125},
	}
}

func roundLevel(l float32) float32 {
	return math32.Max(1, math32.Ceil(l))
}

// GridSize returns the full dicing resolution in samples.
func (p *SubdivPatch1Base) GridSize() (int, int) {
	w := int(math32.Max(p.Level[0], p.Level[2])) + 1
	h := int(math32.Max(p.Level[1], p.Level[3])) + 1
	return w, h
}

func (p *SubdivPatch1Base) NeedsStitching() bool {
	return p.stitching
}

func (p *SubdivPatch1Base) updateStitching() {
	for k := range p.Level {
		p.Level[k] = roundLevel(p.Level[k])
	}
	w, h := p.GridSize()
	p.stitching = int(p.Level[0])+1 < w || int(p.Level[2])+1 < w ||
		int(p.Level[1])+1 < h || int(p.Level[3])+1 < h
}

// lerp2 is the bilinear blend (1-u)((1-v)x0 + v x2) + u((1-v)x1 + v x3).
func lerp2(x0, x1, x2, x3, u, v float32) float32 {
	return (1-u)*((1-v)*x0+v*x2) + u*((1-v)*x1+v*x3)
}

// MacroUV maps primitive-local coordinates onto the coordinates of the face.
func (p *SubdivPatch1Base) MacroUV(u, v float32) (float32, float32) {
	return lerp2(p.UV[0][0], p.UV[1][0], p.UV[3][0], p.UV[2][0], u, v),
		lerp2(p.UV[0][1], p.UV[1][1], p.UV[3][1], p.UV[2][1], u, v)
}
