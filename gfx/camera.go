package gfx

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera maps world coordinates to clip space for a target of the given
// size in pixels.
type Camera interface {
	Matrix(width, height float32) mgl32.Mat4
}

// Camera2D looks at Target with a per-axis Zoom. Offset is applied in clip
// space after zooming, Rotation (radians) before it.
type Camera2D struct {
	Target   mgl32.Vec2
	Zoom     mgl32.Vec2
	Offset   mgl32.Vec2
	Rotation float32
	FlipY    bool
}

// Camera2DFromRect shows exactly the world rectangle at (x, y) with the
// given size, y growing downwards.
func Camera2DFromRect(x, y, width, height float32) Camera2D {
	return Camera2D{
		Target: mgl32.Vec2{x + width/2, y + height/2},
		Zoom:   mgl32.Vec2{2 / width, -2 / height},
	}
}

func (c Camera2D) Matrix(_, _ float32) mgl32.Mat4 {
	flip := float32(1)
	if c.FlipY {
		flip = -1
	}
	return mgl32.Translate3D(c.Offset.X(), c.Offset.Y(), 0).
		Mul4(mgl32.Scale3D(c.Zoom.X(), c.Zoom.Y()*flip, 1)).
		Mul4(mgl32.HomogRotate3DZ(c.Rotation)).
		Mul4(mgl32.Translate3D(-c.Target.X(), -c.Target.Y(), 0))
}

const (
	camera3DNear = 0.01
	camera3DFar  = 10000
)

// Camera3D is a perspective camera; Fovy is in degrees.
type Camera3D struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	Fovy     float32
}

func (c Camera3D) Matrix(width, height float32) mgl32.Mat4 {
	aspect := float32(1)
	if height > 0 {
		aspect = width / height
	}
	projection := mgl32.Perspective(mgl32.DegToRad(c.Fovy), aspect, camera3DNear, camera3DFar)
	view := mgl32.LookAtV(c.Position, c.Target, c.Up)
	return projection.Mul4(view)
}

// WorldToView projects a world point to pixel coordinates, origin top left.
func WorldToView(c Camera, width, height float32, point mgl32.Vec3) mgl32.Vec2 {
	clip := mgl32.TransformCoordinate(point, c.Matrix(width, height))
	return mgl32.Vec2{
		(clip.X()/2 + 0.5) * width,
		(clip.Y()/-2 + 0.5) * height,
	}
}
