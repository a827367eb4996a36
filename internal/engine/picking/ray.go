// Package picking casts rays from the viewport into the scene.
package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/matview/internal/engine/camera"
	"github.com/Faultbox/matview/internal/engine/scene"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3 // Normalized direction
}

// ScreenToRay converts pixel coordinates in a viewportW x viewportH surface to a
// world-space ray. invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj mgl32.Mat4) Ray {
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH // Flip Y

	near := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, 1, 1})
	if near[3] != 0 {
		near = near.Mul(1 / near[3])
	}
	if far[3] != 0 {
		far = far.Mul(1 / far[3])
	}

	origin := near.Vec3()
	dir := far.Vec3().Sub(origin)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return Ray{Origin: origin, Direction: dir}
}

// FromCamera builds the ray under pixel (x, y) of the camera's surface.
func FromCamera(cam *camera.Perspective, x, y float32) (Ray, bool) {
	w, h := cam.Size()
	if w <= 0 || h <= 0 {
		return Ray{}, false
	}
	inv := cam.ViewProjection().Inv()
	return ScreenToRay(x, y, float32(w), float32(h), inv), true
}

// IntersectBounds tests the ray against a box using the slab method. It returns
// the entry distance, or the exit distance when the ray starts inside.
func (r Ray) IntersectBounds(box scene.Bounds) (t float32, hit bool) {
	tmin := float32(-math.MaxFloat32)
	tmax := float32(math.MaxFloat32)

	for axis := 0; axis < 3; axis++ {
		o, d := r.Origin[axis], r.Direction[axis]
		if d == 0 {
			if o < box.Min[axis] || o > box.Max[axis] {
				return 0, false
			}
			continue
		}
		t1 := (box.Min[axis] - o) / d
		t2 := (box.Max[axis] - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// Pick returns the nearest visible mesh whose world bounds the ray hits, or nil.
func Pick(s *scene.Scene, r Ray) (*scene.Node, float32) {
	var (
		best  *scene.Node
		bestT = float32(math.MaxFloat32)
	)
	s.Traverse(func(n *scene.Node) bool {
		if !n.Visible {
			return false
		}
		if !n.HasMaterial() || n.Mesh.Geometry == nil {
			return true
		}
		box := n.Mesh.Geometry.Bounds.Transform(n.WorldMatrix())
		if t, ok := r.IntersectBounds(box); ok && t < bestT {
			best, bestT = n, t
		}
		return true
	})
	if best == nil {
		return nil, 0
	}
	return best, bestT
}
