package picking

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/matview/internal/engine/camera"
	"github.com/Faultbox/matview/internal/engine/material"
	"github.com/Faultbox/matview/internal/engine/scene"
)

func TestIntersectBounds(t *testing.T) {
	box := scene.Bounds{Min: [3]float32{-1, -1, -1}, Max: [3]float32{1, 1, 1}}
	tests := []struct {
		name  string
		ray   Ray
		hit   bool
		wantT float32
	}{
		{"front", Ray{mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, -1}}, true, 4},
		{"inside", Ray{mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}}, true, 1},
		{"miss", Ray{mgl32.Vec3{3, 0, 5}, mgl32.Vec3{0, 0, -1}}, false, 0},
		{"behind", Ray{mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 1}}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := tt.ray.IntersectBounds(box)
			if hit != tt.hit {
				t.Fatalf("hit = %v, want %v", hit, tt.hit)
			}
			if hit && mgl32.Abs(got-tt.wantT) > 1e-4 {
				t.Errorf("t = %v, want %v", got, tt.wantT)
			}
		})
	}
}

func TestPickNearest(t *testing.T) {
	s := scene.New()
	near := scene.NewMesh("near", scene.Box(1), material.Default())
	far := scene.NewMesh("far", scene.Box(1), material.Default())
	far.Transform.Position = mgl32.Vec3{0, 0, -5}
	hidden := scene.NewMesh("hidden", scene.Box(1), material.Default())
	hidden.Transform.Position = mgl32.Vec3{0, 0, 2}
	hidden.Visible = false
	s.Add(far)
	s.Add(near)
	s.Add(hidden)

	cam := camera.NewPerspective(50, 1, 0.1, 100)
	cam.Position = mgl32.Vec3{0, 0, 10}
	cam.Resize(200, 200)

	r, ok := FromCamera(cam, 100, 100)
	if !ok {
		t.Fatal("FromCamera failed")
	}
	n, _ := Pick(s, r)
	if n == nil || n.Name != "near" {
		t.Fatalf("picked %v, want near", n)
	}

	r, _ = FromCamera(cam, 0, 0)
	if n, _ := Pick(s, r); n != nil {
		t.Errorf("corner ray picked %s", n.Name)
	}
}
