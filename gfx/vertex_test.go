package gfx

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectangle(t *testing.T) {
	q := Rectangle(mgl32.Vec3{1, 2, 0}, 3, 4, mgl32.Vec2{0.5, 0}, 0.5, 1, White)

	assert.Equal(t, [3]float32{1, 2, 0}, q.Vertices[0].Position)
	assert.Equal(t, [3]float32{4, 2, 0}, q.Vertices[1].Position)
	assert.Equal(t, [3]float32{4, 6, 0}, q.Vertices[2].Position)
	assert.Equal(t, [3]float32{1, 6, 0}, q.Vertices[3].Position)
	assert.Equal(t, [2]float32{1, 1}, q.Vertices[2].UV)
	assert.Equal(t, [6]uint16{0, 1, 2, 0, 2, 3}, q.Indices)
	assert.Equal(t, [4]float32(White), q.Vertices[3].Color)
}

func TestParallelogram(t *testing.T) {
	q := Parallelogram(
		mgl32.Vec3{0, 0, 1},
		mgl32.Vec3{1, 1, 0},
		mgl32.Vec3{-1, 1, 0},
		mgl32.Vec2{}, mgl32.Vec2{1, 0}, mgl32.Vec2{0, 1},
		Black,
	)
	assert.Equal(t, [3]float32{0, 2, 1}, q.Vertices[2].Position)
	assert.Equal(t, [3]float32{-1, 1, 1}, q.Vertices[3].Position)
}

func TestBatch_RebasesIndices(t *testing.T) {
	var b Batch
	b.Add(SolidRect(0, 0, 1, 1, White))
	b.Add(SolidRect(2, 0, 1, 1, White))

	require.Len(t, b.Vertices, 8)
	assert.Equal(t, []uint16{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7}, b.Indices)
	assert.Equal(t, 12, b.Len())

	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Vertices)
}

func TestBatch_Full(t *testing.T) {
	b := Batch{Vertices: make([]Vertex, maxBatchVertices-4)}
	assert.False(t, b.Full())
	b.Vertices = append(b.Vertices, Vertex{})
	assert.True(t, b.Full())
}

func TestVertexBufferLayout(t *testing.T) {
	layout := vertexBufferLayout(Vertex{}, wgpu.VertexStepModeVertex)

	assert.Equal(t, uint64(36), layout.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, layout.StepMode)
	assert.Equal(t, []wgpu.VertexAttribute{
		{ShaderLocation: 0, Offset: 0, Format: wgpu.VertexFormatFloat32x3},
		{ShaderLocation: 1, Offset: 12, Format: wgpu.VertexFormatFloat32x4},
		{ShaderLocation: 2, Offset: 28, Format: wgpu.VertexFormatFloat32x2},
	}, layout.Attributes)
}

func TestVertexBufferLayout_Instances(t *testing.T) {
	layout := vertexBufferLayout(TileInstance{}, wgpu.VertexStepModeInstance)

	assert.Equal(t, uint64(16), layout.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeInstance, layout.StepMode)
	assert.Equal(t, []wgpu.VertexAttribute{
		{ShaderLocation: 1, Offset: 0, Format: wgpu.VertexFormatFloat32x2},
		{ShaderLocation: 2, Offset: 8, Format: wgpu.VertexFormatUint32},
		{ShaderLocation: 3, Offset: 12, Format: wgpu.VertexFormatFloat32},
	}, layout.Attributes)
}

func TestVertexBufferLayout_RejectsNonStruct(t *testing.T) {
	assert.Panics(t, func() { vertexBufferLayout(3, wgpu.VertexStepModeVertex) })
	assert.Panics(t, func() { parseFormat("double") })
}
