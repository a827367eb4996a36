package shadow

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/matview/internal/engine/scene"
)

func TestLightMatrixCoversBounds(t *testing.T) {
	b := scene.Bounds{Min: [3]float32{-1, 0, -2}, Max: [3]float32{3, 2, 1}}
	dirs := []mgl32.Vec3{
		{5, 5, 5},
		{0, 1, 0},
		{-1, 0.2, 0},
	}
	for _, dir := range dirs {
		m := LightMatrix(dir, b)
		for _, x := range []float32{b.Min[0], b.Max[0]} {
			for _, y := range []float32{b.Min[1], b.Max[1]} {
				for _, z := range []float32{b.Min[2], b.Max[2]} {
					p := m.Mul4x1(mgl32.Vec4{x, y, z, 1})
					for i := 0; i < 3; i++ {
						if v := p[i] / p[3]; v < -1 || v > 1 {
							t.Errorf("dir %v: corner (%v,%v,%v) outside light volume: %v", dir, x, y, z, p)
						}
					}
				}
			}
		}
	}
}

func TestLightMatrixEmptyBounds(t *testing.T) {
	m := LightMatrix(mgl32.Vec3{}, scene.EmptyBounds())
	p := m.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if p[0] < -1 || p[0] > 1 || p[1] < -1 || p[1] > 1 {
		t.Errorf("origin outside light volume: %v", p)
	}
}

func TestBiasMatrix(t *testing.T) {
	got := BiasMatrix().Mul4x1(mgl32.Vec4{-1, 1, 0, 1})
	want := mgl32.Vec4{0, 1, 0.5, 1}
	if !got.ApproxEqual(want) {
		t.Errorf("bias = %v, want %v", got, want)
	}
}
