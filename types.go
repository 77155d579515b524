package subdiv

import "github.com/pkg/errors"

const PATCH_SIGNATURE string = "fwcc"
const PATCH_VERSION uint32 = 1

// BatchSize 批处理宽度, 网格缓冲区按此对齐
const BatchSize = 8

const (
	DefaultMaxCacheDepth    = 2
	DefaultMaxEvalDepth     = 4
	DefaultMaxValence       = 16
	DefaultTessellationRate = 4
)

// PatchKind 面片类型
type PatchKind uint8

const (
	PatchBilinear PatchKind = iota
	PatchBSpline
	PatchBezier
	PatchGregory
	PatchSubdividedQuad
	PatchSubdividedGeneral
	PatchEval
)

func (k PatchKind) String() string {
	switch k {
	case PatchBilinear:
		return "bilinear"
	case PatchBSpline:
		return "bspline"
	case PatchBezier:
		return "bezier"
	case PatchGregory:
		return "gregory"
	case PatchSubdividedQuad:
		return "subdivided-quad"
	case PatchSubdividedGeneral:
		return "subdivided-general"
	case PatchEval:
		return "eval"
	}
	return "unknown"
}

// IsLeaf reports whether the kind carries an analytic surface.
func (k PatchKind) IsLeaf() bool {
	return k <= PatchGregory
}

var (
	ErrMalformedTopology = errors.New("subdiv: malformed topology")
	ErrGridTooSmall      = errors.New("subdiv: grid buffer too small")
	ErrGridRange         = errors.New("subdiv: grid range outside dicing domain")
	ErrInvalidBounds     = errors.New("subdiv: invalid bounds")
	ErrInvalidConfig     = errors.New("subdiv: invalid config")
	ErrPatchSignature    = errors.New("subdiv: bad patch signature")
	ErrEvalFailed        = errors.New("subdiv: evaluation failed")
)
