package astro

import (
	"math"
	"testing"
)

func TestVec3Norm(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
		want float64
	}{
		{"zero", Vec3{0, 0, 0}, 0},
		{"unit x", Vec3{1, 0, 0}, 1},
		{"3-4-5", Vec3{3, 4, 0}, 5},
		{"negative", Vec3{-3, -4, 0}, 5},
		{"3D", Vec3{1, 2, 2}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.Norm()
			if math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("Norm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVec3Normalized(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
		want Vec3
	}{
		{"unit x", Vec3{5, 0, 0}, Vec3{1, 0, 0}},
		{"diagonal", Vec3{1, 1, 0}, Vec3{1 / math.Sqrt(2), 1 / math.Sqrt(2), 0}},
		{"zero", Vec3{0, 0, 0}, Vec3{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !vecNear(tt.v.Normalized(), tt.want) {
				t.Errorf("Normalized() = %v, want %v", tt.v.Normalized(), tt.want)
			}
		})
	}
}

func TestVec3Cross(t *testing.T) {
	x, y, z := Vec3{X: 1}, Vec3{Y: 1}, Vec3{Z: 1}
	if got := x.Cross(y); got != z {
		t.Errorf("x × y = %v, want %v", got, z)
	}
	if got := y.Cross(x); got != z.Scale(-1) {
		t.Errorf("y × x = %v, want -z", got)
	}
	if got := x.Dot(y); got != 0 {
		t.Errorf("x · y = %v, want 0", got)
	}
}

func TestCameraProject(t *testing.T) {
	cam := DefaultCamera()

	origin, ok := cam.Project(Vec3{}, 2)
	if !ok {
		t.Fatal("origin should be visible")
	}
	if math.Abs(origin.X) > 1e-9 || math.Abs(origin.Y) > 1e-9 {
		t.Errorf("target should project to center, got %+v", origin)
	}
	if math.Abs(origin.Depth-cam.Distance()) > 1e-9 {
		t.Errorf("depth = %v, want %v", origin.Depth, cam.Distance())
	}

	// +X is screen right, far side of the orbit (-Z) is screen up.
	right, _ := cam.Project(Vec3{X: 2}, 1)
	if right.X <= 0 || math.Abs(right.Y) > 1e-9 {
		t.Errorf("+X projected to %+v", right)
	}
	far, _ := cam.Project(Vec3{Z: -2}, 1)
	near, _ := cam.Project(Vec3{Z: 2}, 1)
	if far.Y <= 0 || near.Y >= 0 {
		t.Errorf("far=%+v near=%+v", far, near)
	}
	if far.Depth <= near.Depth {
		t.Error("far point should be deeper")
	}

	if _, ok := cam.Project(Vec3{Y: 16, Z: 18}, 1); ok {
		t.Error("point behind the camera should not project")
	}
}

func TestCameraProjectAspect(t *testing.T) {
	cam := DefaultCamera()
	wide, _ := cam.Project(Vec3{X: 1}, 2)
	square, _ := cam.Project(Vec3{X: 1}, 1)
	if math.Abs(wide.X*2-square.X) > 1e-9 {
		t.Errorf("aspect 2 should halve X: %v vs %v", wide.X, square.X)
	}
}

func TestCameraZoom(t *testing.T) {
	cam := DefaultCamera()
	d := cam.Distance()

	closer := cam.Zoom(0.9)
	if math.Abs(closer.Distance()-d*0.9) > 1e-9 {
		t.Errorf("zoom distance = %v, want %v", closer.Distance(), d*0.9)
	}
	if got := cam.Zoom(0.01).Distance(); math.Abs(got-MinCameraDistance) > 1e-9 {
		t.Errorf("zoom in clamp = %v", got)
	}
	if got := cam.Zoom(100).Distance(); math.Abs(got-MaxCameraDistance) > 1e-9 {
		t.Errorf("zoom out clamp = %v", got)
	}
}

func TestCameraOrbit(t *testing.T) {
	cam := DefaultCamera()
	turned := cam.Orbit(90)

	if math.Abs(turned.Distance()-cam.Distance()) > 1e-9 {
		t.Error("orbit should keep distance")
	}
	if math.Abs(turned.Position.Y-cam.Position.Y) > 1e-9 {
		t.Error("orbit should keep height")
	}
	if !vecNear(turned.Position, Vec3{X: 9, Y: 8, Z: 0}) {
		t.Errorf("orbit(90) position = %v", turned.Position)
	}
	if !vecNear(turned.Orbit(270).Position, cam.Position) {
		t.Error("full turn should return to start")
	}
}

func vecNear(a, b Vec3) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9 && math.Abs(a.Z-b.Z) < 1e-9
}
