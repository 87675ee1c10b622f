// Package astro provides the vector math and camera projection used to draw
// planetary systems in the terminal.
package astro

import (
	"math"
)

// Vec3 represents a 3D vector in scene units.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the magnitude of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalized returns a unit vector in the same direction.
func (v Vec3) Normalized() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return Vec3{X: v.X / n, Y: v.Y / n, Z: v.Z / n}
}

// Scale returns the vector scaled by a factor.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Add returns the sum of two vectors.
func (v Vec3) Add(u Vec3) Vec3 {
	return Vec3{X: v.X + u.X, Y: v.Y + u.Y, Z: v.Z + u.Z}
}

// Sub returns the difference of two vectors.
func (v Vec3) Sub(u Vec3) Vec3 {
	return Vec3{X: v.X - u.X, Y: v.Y - u.Y, Z: v.Z - u.Z}
}

// Dot returns the scalar product.
func (v Vec3) Dot(u Vec3) float64 {
	return v.X*u.X + v.Y*u.Y + v.Z*u.Z
}

// Cross returns the vector product v × u.
func (v Vec3) Cross(u Vec3) Vec3 {
	return Vec3{
		X: v.Y*u.Z - v.Z*u.Y,
		Y: v.Z*u.X - v.X*u.Z,
		Z: v.X*u.Y - v.Y*u.X,
	}
}

// ProjectedPoint is a position in normalized device coordinates.
type ProjectedPoint struct {
	X     float64 // -1 (left) to 1 (right)
	Y     float64 // -1 (bottom) to 1 (top)
	Depth float64 // distance along the view axis
}

// Camera limits, matching the interactive orbit controls.
const (
	MinCameraDistance = 5.0
	MaxCameraDistance = 20.0

	nearPlane = 0.1
)

// Camera is a perspective camera orbiting a target point.
type Camera struct {
	Position Vec3
	Target   Vec3
	Up       Vec3
	FovDeg   float64 // vertical field of view
}

// DefaultCamera looks down at the origin from slightly above the orbital
// plane.
func DefaultCamera() Camera {
	return Camera{
		Position: Vec3{X: 0, Y: 8, Z: 9},
		Target:   Vec3{},
		Up:       Vec3{Y: 1},
		FovDeg:   50,
	}
}

// basis returns the camera's right, up and forward unit vectors.
func (c Camera) basis() (right, up, fwd Vec3) {
	fwd = c.Target.Sub(c.Position).Normalized()
	right = fwd.Cross(c.Up).Normalized()
	up = right.Cross(fwd)
	return right, up, fwd
}

// Project maps p onto the image plane. aspect is the viewport's width/height
// ratio. ok is false for points behind the near plane.
func (c Camera) Project(p Vec3, aspect float64) (ProjectedPoint, bool) {
	right, up, fwd := c.basis()
	rel := p.Sub(c.Position)

	depth := rel.Dot(fwd)
	if depth <= nearPlane {
		return ProjectedPoint{}, false
	}
	if aspect <= 0 {
		aspect = 1
	}

	tanHalf := math.Tan(degToRad(c.FovDeg) / 2)
	return ProjectedPoint{
		X:     rel.Dot(right) / (depth * tanHalf * aspect),
		Y:     rel.Dot(up) / (depth * tanHalf),
		Depth: depth,
	}, true
}

// ProjectedSize returns the vertical NDC extent of a length r at depth.
func (c Camera) ProjectedSize(r, depth float64) float64 {
	if depth <= nearPlane {
		return 0
	}
	return r / (depth * math.Tan(degToRad(c.FovDeg)/2))
}

// Distance returns how far the camera sits from its target.
func (c Camera) Distance() float64 {
	return c.Position.Sub(c.Target).Norm()
}

// Zoom scales the camera distance by factor, clamped to the allowed range.
func (c Camera) Zoom(factor float64) Camera {
	if factor <= 0 {
		return c
	}
	off := c.Position.Sub(c.Target)
	d := off.Norm()
	if d == 0 {
		return c
	}
	nd := math.Min(MaxCameraDistance, math.Max(MinCameraDistance, d*factor))
	c.Position = c.Target.Add(off.Scale(nd / d))
	return c
}

// Orbit rotates the camera about the target's vertical axis by deg degrees.
func (c Camera) Orbit(deg float64) Camera {
	off := c.Position.Sub(c.Target)
	a := degToRad(deg)
	cosA, sinA := math.Cos(a), math.Sin(a)
	off = Vec3{
		X: off.X*cosA + off.Z*sinA,
		Y: off.Y,
		Z: -off.X*sinA + off.Z*cosA,
	}
	c.Position = c.Target.Add(off)
	return c
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
