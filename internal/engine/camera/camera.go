// Package camera provides the perspective camera and the orbit controls that drive it.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Perspective is a pinhole camera looking from Position at Target.
type Perspective struct {
	FOV    float32 // vertical field of view, degrees
	Aspect float32
	Near   float32
	Far    float32

	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	width, height int
	projection    mgl32.Mat4
}

// NewPerspective creates a camera at (0, 0, 5) looking at the origin.
func NewPerspective(fov, aspect, near, far float32) *Perspective {
	c := &Perspective{
		FOV:      fov,
		Aspect:   aspect,
		Near:     near,
		Far:      far,
		Position: mgl32.Vec3{0, 0, 5},
		Up:       mgl32.Vec3{0, 1, 0},
	}
	c.UpdateProjection()
	return c
}

// SetAspect changes the aspect ratio and rebuilds the projection.
func (c *Perspective) SetAspect(aspect float32) {
	c.Aspect = aspect
	c.UpdateProjection()
}

// UpdateProjection rebuilds the projection matrix after FOV, Aspect, Near or Far change.
func (c *Perspective) UpdateProjection() {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	c.projection = mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// Resize matches the camera to a w x h drawing surface. Repeated calls with the same
// size leave the camera unchanged.
func (c *Perspective) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	c.width, c.height = w, h
	c.SetAspect(float32(w) / float32(h))
}

// Size returns the drawing surface size set by Resize.
func (c *Perspective) Size() (w, h int) {
	return c.width, c.height
}

// Projection returns the projection matrix.
func (c *Perspective) Projection() mgl32.Mat4 {
	return c.projection
}

// View returns the view matrix.
func (c *Perspective) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// ViewProjection returns Projection * View.
func (c *Perspective) ViewProjection() mgl32.Mat4 {
	return c.projection.Mul4(c.View())
}

// Forward returns the unit view direction.
func (c *Perspective) Forward() mgl32.Vec3 {
	d := c.Target.Sub(c.Position)
	if d.Len() < 1e-8 {
		return mgl32.Vec3{0, 0, -1}
	}
	return d.Normalize()
}

// FitDistance returns the distance at which a sphere of the given radius fills the
// vertical field of view.
func (c *Perspective) FitDistance(radius float32) float32 {
	half := mgl32.DegToRad(c.FOV) / 2
	return radius / math32.Sin(half)
}
