package gfx

import (
	"reflect"
	"strconv"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex feeds the quad program. Fields tagged `gfx:"layout"` become vertex
// attributes at the given shader location.
type Vertex struct {
	Position [3]float32 `gfx:"layout" location:"0" format:"float3"`
	Color    [4]float32 `gfx:"layout" location:"1" format:"float4"`
	UV       [2]float32 `gfx:"layout" location:"2" format:"float2"`
}

type Color [4]float32

var (
	White = Color{1, 1, 1, 1}
	Black = Color{0, 0, 0, 1}
)

func RGBA(r, g, b, a float32) Color {
	return Color{r, g, b, a}
}

// WithAlpha returns the colour with its alpha replaced.
func (c Color) WithAlpha(a float32) Color {
	c[3] = a
	return c
}

func (c Color) Wgpu() wgpu.Color {
	return wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])}
}

// Quad is four corners wound counter-clockwise and the two triangles
// covering them.
type Quad struct {
	Vertices [4]Vertex
	Indices  [6]uint16
}

var quadIndices = [6]uint16{0, 1, 2, 0, 2, 3}

// Parallelogram spans edge1 and edge2 from position, mapping the uv
// parallelogram spanned by uvEdge1 and uvEdge2 onto it.
func Parallelogram(position, edge1, edge2 mgl32.Vec3, uv, uvEdge1, uvEdge2 mgl32.Vec2, color Color) Quad {
	v := func(p mgl32.Vec3, t mgl32.Vec2) Vertex {
		return Vertex{Position: p, Color: color, UV: t}
	}
	return Quad{
		Vertices: [4]Vertex{
			v(position, uv),
			v(position.Add(edge1), uv.Add(uvEdge1)),
			v(position.Add(edge1).Add(edge2), uv.Add(uvEdge1).Add(uvEdge2)),
			v(position.Add(edge2), uv.Add(uvEdge2)),
		},
		Indices: quadIndices,
	}
}

// Rectangle is an axis aligned Parallelogram.
func Rectangle(position mgl32.Vec3, width, height float32, uv mgl32.Vec2, uvWidth, uvHeight float32, color Color) Quad {
	return Parallelogram(
		position,
		mgl32.Vec3{width, 0, 0},
		mgl32.Vec3{0, height, 0},
		uv,
		mgl32.Vec2{uvWidth, 0},
		mgl32.Vec2{0, uvHeight},
		color,
	)
}

// SolidRect is an untextured rectangle on the z=0 plane.
func SolidRect(x, y, width, height float32, color Color) Quad {
	return Rectangle(mgl32.Vec3{x, y, 0}, width, height, mgl32.Vec2{}, 1, 1, color)
}

// Batch accumulates quads into one indexed draw.
type Batch struct {
	Vertices []Vertex
	Indices  []uint16
}

// maxBatchVertices keeps rebased indices within uint16.
const maxBatchVertices = 1 << 16

func (b *Batch) Full() bool {
	return len(b.Vertices)+4 > maxBatchVertices
}

func (b *Batch) Add(q Quad) {
	base := uint16(len(b.Vertices))
	for _, i := range q.Indices {
		b.Indices = append(b.Indices, i+base)
	}
	b.Vertices = append(b.Vertices, q.Vertices[:]...)
}

func (b *Batch) Len() int {
	return len(b.Indices)
}

func (b *Batch) Reset() {
	b.Vertices = b.Vertices[:0]
	b.Indices = b.Indices[:0]
}

func parseFormat(name string) wgpu.VertexFormat {
	switch name {
	case "float":
		return wgpu.VertexFormatFloat32
	case "float2":
		return wgpu.VertexFormatFloat32x2
	case "float3":
		return wgpu.VertexFormatFloat32x3
	case "float4":
		return wgpu.VertexFormatFloat32x4
	case "uint":
		return wgpu.VertexFormatUint32
	default:
		panic("unsupported vertex layout format: " + name)
	}
}

// vertexBufferLayout derives a buffer layout from the struct tags of
// vertexType.
func vertexBufferLayout(vertexType any, stepMode wgpu.VertexStepMode) wgpu.VertexBufferLayout {
	t := reflect.TypeOf(vertexType)
	if t.Kind() != reflect.Struct {
		panic("vertex must be a struct")
	}

	var attributes []wgpu.VertexAttribute
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("gfx") != "layout" {
			continue
		}
		location, err := strconv.Atoi(field.Tag.Get("location"))
		if err != nil {
			panic(err)
		}
		attributes = append(attributes, wgpu.VertexAttribute{
			ShaderLocation: uint32(location),
			Offset:         uint64(field.Offset),
			Format:         parseFormat(field.Tag.Get("format")),
		})
	}

	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(t.Size()),
		StepMode:    stepMode,
		Attributes:  attributes,
	}
}
