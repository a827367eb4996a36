// Package lighting builds the viewer's light rig and packs scene lights for the shaders.
package lighting

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/matview/internal/engine/scene"
)

// Rig is the fixed ambient + directional light pair.
type Rig struct {
	Ambient     *scene.Node
	Directional *scene.Node
}

// Options configures a rig.
type Options struct {
	AmbientColor         [3]float32
	AmbientIntensity     float32
	DirectionalColor     [3]float32
	DirectionalIntensity float32
	DirectionalPosition  [3]float32
}

// DefaultOptions is white ambient at 0.5 plus a white directional light at (5, 5, 5).
func DefaultOptions() Options {
	return Options{
		AmbientColor:         [3]float32{1, 1, 1},
		AmbientIntensity:     0.5,
		DirectionalColor:     [3]float32{1, 1, 1},
		DirectionalIntensity: 1,
		DirectionalPosition:  [3]float32{5, 5, 5},
	}
}

// DefaultRig returns the rig built from DefaultOptions.
func DefaultRig() *Rig {
	return NewRig(DefaultOptions())
}

// NewRig creates the two light nodes.
func NewRig(o Options) *Rig {
	return &Rig{
		Ambient:     scene.NewAmbientLight("ambient", o.AmbientColor, o.AmbientIntensity),
		Directional: scene.NewDirectionalLight("directional", o.DirectionalColor, o.DirectionalIntensity, o.DirectionalPosition),
	}
}

// AddTo adds both lights to s as top-level nodes.
func (r *Rig) AddTo(s *scene.Scene) {
	s.Add(r.Ambient)
	s.Add(r.Directional)
}

// SetShadows toggles shadow casting on the directional light.
func (r *Rig) SetShadows(on bool) {
	r.Directional.Light.CastShadow = on
}

// Direction returns the unit vector a directional light shines along.
func Direction(n *scene.Node) mgl32.Vec3 {
	d := n.Light.Target.Sub(n.WorldPosition())
	if d.Len() < 1e-8 {
		return mgl32.Vec3{0, -1, 0}
	}
	return d.Normalize()
}

// Uniforms is the light state uploaded to the shading programs.
type Uniforms struct {
	Ambient    [3]float32 // color * intensity, summed over ambient lights
	LightDir   [3]float32 // toward the light
	LightColor [3]float32 // color * intensity of the primary directional light
	HasSun     bool
	Shadows    bool
	Sun        *scene.Node
}

// Collect packs the visible lights of s. The first visible directional light is the
// primary light; the shaders take one.
func Collect(s *scene.Scene) Uniforms {
	var u Uniforms
	for _, n := range s.Lights() {
		if !n.VisibleInTree() {
			continue
		}
		l := n.Light
		switch n.Kind {
		case scene.KindAmbientLight:
			for i := range u.Ambient {
				u.Ambient[i] += l.Color[i] * l.Intensity
			}
		case scene.KindDirectionalLight:
			if u.HasSun {
				continue
			}
			dir := Direction(n).Mul(-1)
			u.LightDir = dir
			u.LightColor = [3]float32{l.Color[0] * l.Intensity, l.Color[1] * l.Intensity, l.Color[2] * l.Intensity}
			u.HasSun = true
			u.Shadows = l.CastShadow
			u.Sun = n
		}
	}
	return u
}

// Elevation returns the angle of the light direction above the horizon, in degrees.
func (u Uniforms) Elevation() float32 {
	return mgl32.RadToDeg(math32.Asin(mgl32.Clamp(u.LightDir[1], -1, 1)))
}
