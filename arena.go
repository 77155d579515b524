package subdiv

import (
	"sync"

	"github.com/flywave/go3d/vec3"
)

const (
	arenaBlockSize   = 256
	payloadBlockSize = 64 << 10
)

type pool[T any] struct {
	blocks [][]T
	block  int
	used   int
	size   int
}

func (p *pool[T]) blockSize() int {
	if p.size == 0 {
		return arenaBlockSize
	}
	return p.size
}

func (p *pool[T]) alloc() *T {
	return &p.allocN(1)[0]
}

// allocN returns n zeroed contiguous elements. Requests larger than a block
// get their own allocation outside the pool.
func (p *pool[T]) allocN(n int) []T {
	size := p.blockSize()
	if n > size {
		return make([]T, n)
	}
	if p.used+n > size {
		p.block++
		p.used = 0
	}
	if p.block == len(p.blocks) {
		p.blocks = append(p.blocks, make([]T, size))
	}
	s := p.blocks[p.block][p.used : p.used+n : p.used+n]
	clear(s)
	p.used += n
	if p.used == size {
		p.block++
		p.used = 0
	}
	return s
}

func (p *pool[T]) reset() {
	p.block, p.used = 0, 0
}

func (p *pool[T]) len() int {
	return p.block*p.blockSize() + p.used
}

// Arena is a bump allocator for patch trees. Everything allocated since the
// last Reset is released together; blocks are reused.
type Arena struct {
	mu        sync.Mutex
	patches   pool[Patch]
	bilinears pool[BilinearPatch]
	bsplines  pool[BSplinePatch]
	beziers   pool[BezierPatch]
	gregories pool[GregoryPatch]
	children  pool[*Patch]
	payloads  pool[byte]
}

func NewArena() *Arena {
	return &Arena{payloads: pool[byte]{size: payloadBlockSize}}
}

func (a *Arena) newPatch(kind PatchKind) *Patch {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.patches.alloc()
	p.Kind = kind
	return p
}

func (a *Arena) newBilinear(b BilinearPatch) *Patch {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.patches.alloc()
	p.Kind = PatchBilinear
	p.bilinear = a.bilinears.alloc()
	*p.bilinear = b
	return p
}

func (a *Arena) newBSpline(b *[4][4]vec3.T) *Patch {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.patches.alloc()
	p.Kind = PatchBSpline
	p.bspline = a.bsplines.alloc()
	p.bspline.P = *b
	return p
}

func (a *Arena) newBezier(b BezierPatch) *Patch {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.patches.alloc()
	p.Kind = PatchBezier
	p.bezier = a.beziers.alloc()
	*p.bezier = b
	return p
}

func (a *Arena) newGregory(g GregoryPatch) *Patch {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.patches.alloc()
	p.Kind = PatchGregory
	p.gregory = a.gregories.alloc()
	*p.gregory = g
	return p
}

// newChildren returns n nil child slots.
func (a *Arena) newChildren(n int) []*Patch {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.children.allocN(n)
}

// newEval stores a copy of a serialized neighbourhood in a PatchEval node.
func (a *Arena) newEval(data []byte) *Patch {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.patches.alloc()
	p.Kind = PatchEval
	p.eval = a.payloads.allocN(len(data))
	copy(p.eval, data)
	return p
}

// Len reports the number of live patch nodes.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.patches.len()
}

func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.patches.reset()
	a.bilinears.reset()
	a.bsplines.reset()
	a.beziers.reset()
	a.gregories.reset()
	a.children.reset()
	a.payloads.reset()
}
