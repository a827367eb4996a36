package shadow

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/matview/internal/engine/scene"
)

// LightMatrix computes the view-projection of a directional light that covers
// bounds. lightDir points toward the light. Empty bounds give a unit volume at
// the origin.
func LightMatrix(lightDir mgl32.Vec3, bounds scene.Bounds) mgl32.Mat4 {
	center := mgl32.Vec3{}
	radius := float32(1)
	if !bounds.IsEmpty() {
		center = bounds.Center()
		radius = math32.Max(bounds.Radius(), 0.01)
	}

	dir := lightDir
	if dir.Len() < 1e-6 {
		dir = mgl32.Vec3{0, 1, 0}
	}
	dir = dir.Normalize()

	lightDistance := radius * 2
	eye := center.Add(dir.Mul(lightDistance))

	up := mgl32.Vec3{0, 1, 0}
	if math32.Abs(dir.Y()) > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}
	view := mgl32.LookAtV(eye, center, up)

	// Pad the box so PCF taps at the edge stay inside the map.
	halfSize := radius * 1.1
	near := float32(0.01)
	far := lightDistance + halfSize
	proj := mgl32.Ortho(-halfSize, halfSize, -halfSize, halfSize, near, far)

	return proj.Mul4(view)
}

// BiasMatrix maps clip space [-1, 1] to texture space [0, 1].
func BiasMatrix() mgl32.Mat4 {
	return mgl32.Translate3D(0.5, 0.5, 0.5).Mul4(mgl32.Scale3D(0.5, 0.5, 0.5))
}
