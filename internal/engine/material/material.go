// Package material defines the physically based material used by every mesh and the
// factory that builds one from a catalog preset.
package material

import (
	"image"

	"github.com/jinzhu/copier"
)

// Side selects which faces are rasterized.
type Side int

const (
	SideFront Side = iota
	SideDouble
)

// Wrap is a texture coordinate wrap mode.
type Wrap int

const (
	WrapRepeat Wrap = iota
	WrapClamp
	WrapMirror
)

// Texture is one texture slot. Image is nil until the asynchronous load completes.
type Texture struct {
	Path   string
	Repeat [2]float32
	WrapS  Wrap
	WrapT  Wrap
	SRGB   bool // color data; false for normal and roughness data

	image   image.Image
	version uint64
}

// NewTexture returns an unloaded texture with repeat wrapping.
func NewTexture(path string, repeat [2]float32, srgb bool) *Texture {
	return &Texture{
		Path:   path,
		Repeat: repeat,
		WrapS:  WrapRepeat,
		WrapT:  WrapRepeat,
		SRGB:   srgb,
	}
}

// NewTextureFromImage returns a texture that is ready immediately.
func NewTextureFromImage(name string, img image.Image, srgb bool) *Texture {
	t := NewTexture(name, [2]float32{1, 1}, srgb)
	t.SetImage(img)
	return t
}

// SetImage stores decoded pixels. Must run on the main thread.
func (t *Texture) SetImage(img image.Image) {
	t.image = img
	t.version++
}

// Image returns the decoded pixels, or nil while loading.
func (t *Texture) Image() image.Image {
	return t.image
}

// Ready reports whether the texture has pixels.
func (t *Texture) Ready() bool {
	return t != nil && t.image != nil
}

// Version changes every time the pixels change. The renderer re-uploads on change.
func (t *Texture) Version() uint64 {
	return t.version
}

// Material is a metal/rough PBR material with clearcoat.
type Material struct {
	Name string

	Color     [3]float32
	Metalness float32
	Roughness float32

	Opacity     float32
	Transparent bool
	AlphaTest   float32
	DepthWrite  bool
	DepthTest   bool
	Side        Side

	Emissive          [3]float32
	EmissiveIntensity float32

	Clearcoat          float32
	ClearcoatRoughness float32
	Reflectivity       float32
	AOMapIntensity     float32
	NormalScale        [2]float32

	Map          *Texture
	RoughnessMap *Texture
	MetalnessMap *Texture
	NormalMap    *Texture
	EmissiveMap  *Texture

	version uint64
}

// Default returns the material assigned to meshes that declare none.
func Default() *Material {
	return &Material{
		Name:              "default",
		Color:             [3]float32{1, 1, 1},
		Metalness:         0,
		Roughness:         1,
		Opacity:           1,
		DepthWrite:        true,
		DepthTest:         true,
		Side:              SideFront,
		EmissiveIntensity: 1,
		Reflectivity:      0.5,
		AOMapIntensity:    1,
		NormalScale:       [2]float32{1, 1},
	}
}

// Solid returns an opaque untextured material of the given color.
func Solid(name string, color [3]float32) *Material {
	m := Default()
	m.Name = name
	m.Color = color
	m.Roughness = 0.6
	return m
}

// Touch marks the material as changed.
func (m *Material) Touch() {
	m.version++
}

// Version changes whenever a texture slot is filled or Touch is called.
func (m *Material) Version() uint64 {
	return m.version
}

// Textures returns the non-nil texture slots.
func (m *Material) Textures() []*Texture {
	var out []*Texture
	for _, t := range []*Texture{m.Map, m.RoughnessMap, m.MetalnessMap, m.NormalMap, m.EmissiveMap} {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// Clone returns a copy with its own scalar parameters. Texture slots are shared.
func (m *Material) Clone() *Material {
	c := *m
	return &c
}

// Params is the comparable snapshot of a material's scalar state.
type Params struct {
	Name               string
	Color              [3]float32
	Metalness          float32
	Roughness          float32
	Opacity            float32
	Transparent        bool
	AlphaTest          float32
	DepthWrite         bool
	DepthTest          bool
	Side               Side
	Emissive           [3]float32
	EmissiveIntensity  float32
	Clearcoat          float32
	ClearcoatRoughness float32
	Reflectivity       float32
	AOMapIntensity     float32
	MapPath            string
	MapRepeat          [2]float32
	RoughnessMapPath   string
	RoughnessRepeat    [2]float32
	NormalMapPath      string
	NormalRepeat       [2]float32
}

// Scalars returns the comparable snapshot of m.
func (m *Material) Scalars() Params {
	// Params mirrors the scalar fields by name; copier fails only on nil or
	// non-struct arguments.
	var p Params
	_ = copier.Copy(&p, m)
	if m.Map != nil {
		p.MapPath, p.MapRepeat = m.Map.Path, m.Map.Repeat
	}
	if m.RoughnessMap != nil {
		p.RoughnessMapPath, p.RoughnessRepeat = m.RoughnessMap.Path, m.RoughnessMap.Repeat
	}
	if m.NormalMap != nil {
		p.NormalMapPath, p.NormalRepeat = m.NormalMap.Path, m.NormalMap.Repeat
	}
	return p
}
