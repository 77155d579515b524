package subdiv

import "github.com/flywave/go3d/vec3"

// VertexBuffer 顶点缓冲区, Stride 以 float32 为单位
type VertexBuffer struct {
	Data   []float32
	Stride int
}

func NewVertexBuffer(pts []vec3.T) VertexBuffer {
	data := make([]float32, 0, len(pts)*3)
	for _, p := range pts {
		data = append(data, p[0], p[1], p[2])
	}
	return VertexBuffer{Data: data, Stride: 3}
}

func (b VertexBuffer) Len() int {
	if b.Stride <= 0 {
		return 0
	}
	return len(b.Data) / b.Stride
}

func (b VertexBuffer) At(i int32) vec3.T {
	o := int(i) * b.Stride
	return vec3.T{b.Data[o], b.Data[o+1], b.Data[o+2]}
}

func (b VertexBuffer) Set(i int32, p vec3.T) {
	o := int(i) * b.Stride
	b.Data[o], b.Data[o+1], b.Data[o+2] = p[0], p[1], p[2]
}
