package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// polarEpsilon keeps the camera off the poles, where the view matrix degenerates.
const polarEpsilon = 1e-4

// OrbitControls orbit a camera around a target point. Input is accumulated by the
// Handle methods and applied in Update, with optional exponential damping.
type OrbitControls struct {
	Camera *Perspective
	Target mgl32.Vec3

	EnableDamping bool
	DampingFactor float32 // fraction of pending motion applied per 60 Hz frame

	MinDistance   float32
	MaxDistance   float32
	MinPolarAngle float32 // radians from +Y
	MaxPolarAngle float32

	RotateSpeed        float32 // radians per pixel
	ZoomSpeed          float32
	ScreenSpacePanning bool

	// Spherical coordinates of Camera.Position around Target
	radius float32
	theta  float32 // azimuth around +Y, from +Z
	phi    float32 // polar angle from +Y

	// Pending motion
	deltaTheta float32
	deltaPhi   float32
	zoomScale  float32
	panOffset  mgl32.Vec3
}

// NewOrbitControls creates controls for cam orbiting its current target.
func NewOrbitControls(cam *Perspective) *OrbitControls {
	o := &OrbitControls{
		Camera:        cam,
		Target:        cam.Target,
		DampingFactor: 0.05,
		MinDistance:   0,
		MaxDistance:   math32.Inf(1),
		MinPolarAngle: 0,
		MaxPolarAngle: math32.Pi,
		RotateSpeed:   0.005,
		ZoomSpeed:     0.1,
		zoomScale:     1,
	}
	o.syncFromCamera()
	return o
}

// syncFromCamera derives the spherical coordinates from the camera position.
func (o *OrbitControls) syncFromCamera() {
	offset := o.Camera.Position.Sub(o.Target)
	o.radius = offset.Len()
	if o.radius < 1e-8 {
		o.radius = 1
		o.theta, o.phi = 0, math32.Pi/2
		return
	}
	o.theta = math32.Atan2(offset[0], offset[2])
	o.phi = math32.Acos(mgl32.Clamp(offset[1]/o.radius, -1, 1))
}

// HandleDrag queues a rotation for a pointer drag of (dx, dy) pixels.
func (o *OrbitControls) HandleDrag(dx, dy float32) {
	o.deltaTheta -= dx * o.RotateSpeed
	o.deltaPhi -= dy * o.RotateSpeed
}

// HandleZoom queues a dolly; positive delta moves closer.
func (o *OrbitControls) HandleZoom(delta float32) {
	scale := 1 - delta*o.ZoomSpeed
	if scale < 0.1 {
		scale = 0.1
	}
	o.zoomScale *= scale
}

// HandlePan queues a target translation for a drag of (dx, dy) pixels.
func (o *OrbitControls) HandlePan(dx, dy float32) {
	_, h := o.Camera.Size()
	if h <= 0 {
		h = 1
	}
	// world units per pixel at the target distance
	scale := 2 * o.radius * math32.Tan(mgl32.DegToRad(o.Camera.FOV)/2) / float32(h)

	forward := o.Camera.Forward()
	right := forward.Cross(o.Camera.Up)
	if right.Len() < 1e-8 {
		right = mgl32.Vec3{1, 0, 0}
	}
	right = right.Normalize()

	var up mgl32.Vec3
	if o.ScreenSpacePanning {
		up = right.Cross(forward).Normalize()
	} else {
		up = o.Camera.Up.Cross(right).Normalize()
	}

	o.panOffset = o.panOffset.Add(right.Mul(-dx * scale)).Add(up.Mul(dy * scale))
}

// Update applies pending motion and moves the camera. dt is the frame time in
// seconds. It reports whether the camera moved.
func (o *OrbitControls) Update(dt float32) bool {
	f := float32(1)
	if o.EnableDamping {
		f = 1 - math32.Pow(1-o.DampingFactor, dt*60)
	}

	before := o.Camera.Position
	beforeTarget := o.Target

	o.theta += o.deltaTheta * f
	o.phi += o.deltaPhi * f
	o.phi = mgl32.Clamp(o.phi, o.MinPolarAngle, o.MaxPolarAngle)
	o.phi = mgl32.Clamp(o.phi, polarEpsilon, math32.Pi-polarEpsilon)

	o.radius = mgl32.Clamp(o.radius*o.zoomScale, o.MinDistance, o.MaxDistance)
	o.zoomScale = 1

	o.Target = o.Target.Add(o.panOffset.Mul(f))

	if o.EnableDamping {
		o.deltaTheta *= 1 - f
		o.deltaPhi *= 1 - f
		o.panOffset = o.panOffset.Mul(1 - f)
	} else {
		o.deltaTheta, o.deltaPhi = 0, 0
		o.panOffset = mgl32.Vec3{}
	}

	o.apply()
	return !before.ApproxEqualThreshold(o.Camera.Position, 1e-6) ||
		!beforeTarget.ApproxEqualThreshold(o.Target, 1e-6)
}

// apply writes the spherical coordinates back to the camera.
func (o *OrbitControls) apply() {
	sinPhi := math32.Sin(o.phi)
	offset := mgl32.Vec3{
		o.radius * sinPhi * math32.Sin(o.theta),
		o.radius * math32.Cos(o.phi),
		o.radius * sinPhi * math32.Cos(o.theta),
	}
	o.Camera.Position = o.Target.Add(offset)
	o.Camera.Target = o.Target
}

// Settled reports whether no damped motion is pending.
func (o *OrbitControls) Settled() bool {
	const eps = 1e-5
	return math32.Abs(o.deltaTheta) < eps && math32.Abs(o.deltaPhi) < eps &&
		o.panOffset.Len() < eps && o.zoomScale == 1
}

// Distance returns the current orbit radius.
func (o *OrbitControls) Distance() float32 {
	return o.radius
}

// SetTarget moves the orbit center without changing the view direction.
func (o *OrbitControls) SetTarget(t mgl32.Vec3) {
	o.Target = t
	o.apply()
}

// FitToBounds centers the orbit on a bounding sphere and backs the camera off until
// the sphere fills the view. The current viewing angle is kept.
func (o *OrbitControls) FitToBounds(center mgl32.Vec3, radius float32) {
	if radius <= 0 {
		radius = 1
	}
	dist := o.Camera.FitDistance(radius) * 1.1
	if dist > o.MaxDistance {
		o.MaxDistance = dist * 2
	}
	o.radius = max(dist, o.MinDistance)
	if far := o.radius + radius*2; far > o.Camera.Far {
		o.Camera.Far = far
		o.Camera.UpdateProjection()
	}

	o.Target = center
	o.deltaTheta, o.deltaPhi = 0, 0
	o.panOffset = mgl32.Vec3{}
	o.zoomScale = 1
	o.apply()
}
