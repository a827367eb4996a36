// Package catalog loads material preset catalogs: keyed JSON documents mapping a preset
// name to texture paths and shading parameters.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/maruel/natural"

	"github.com/Faultbox/matview/internal/assets"
)

// ErrInvalidPreset marks a record that cannot produce a material.
var ErrInvalidPreset = errors.New("invalid preset")

// Preset is one material preset with every optional field resolved to its default.
type Preset struct {
	Name string

	DiffuseMap string
	GlossMap   string
	NormalMap  string

	DiffuseMapTiling [2]float32
	GlossMapTiling   [2]float32
	NormalMapTiling  [2]float32

	Metalness  float32
	SheenGloss float32 // Roughness is 1 - SheenGloss

	Opacity           float32
	TwoSidedLighting  bool
	AlphaTest         float32
	DepthWrite        bool
	DepthTest         bool
	Diffuse           [3]float32
	Emissive          [3]float32
	EmissiveIntensity float32

	Clearcoat          float32
	ClearcoatRoughness float32
	Reflectivity       float32
}

// Roughness returns the roughness derived from the gloss value.
func (p Preset) Roughness() float32 {
	return 1 - p.SheenGloss
}

// record mirrors the JSON layout. Pointers distinguish absent fields from zero values.
type record struct {
	DiffuseMap string `json:"diffuseMap"`
	GlossMap   string `json:"glossMap"`
	NormalMap  string `json:"normalMap"`

	DiffuseMapTiling []float32 `json:"diffuseMapTiling"`
	GlossMapTiling   []float32 `json:"glossMapTiling"`
	NormalMapTiling  []float32 `json:"normalMapTiling"`

	Metalness  *float32 `json:"metalness"`
	SheenGloss *float32 `json:"sheenGloss"`

	Opacity           *float32  `json:"opacity"`
	TwoSidedLighting  bool      `json:"twoSidedLighting"`
	AlphaTest         *float32  `json:"alphaTest"`
	DepthWrite        *bool     `json:"depthWrite"`
	DepthTest         *bool     `json:"depthTest"`
	Diffuse           []float32 `json:"diffuse"`
	Emissive          []float32 `json:"emissive"`
	EmissiveIntensity *float32  `json:"emissiveIntensity"`

	Clearcoat          *float32 `json:"clearcoat"`
	ClearcoatRoughness *float32 `json:"clearcoatRoughness"`
	Reflectivity       *float32 `json:"reflectivity"`
}

// Catalog maps preset names to presets. It is immutable after Parse.
type Catalog struct {
	source  string
	presets map[string]Preset
	names   []string
}

// Parse decodes a catalog document. Relative texture paths are resolved against base,
// the directory or base URL the document was loaded from. Any invalid record fails the
// whole document; there is no partial catalog.
func Parse(data []byte, base string) (*Catalog, error) {
	var raw map[string]record
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("catalog has no presets")
	}

	c := &Catalog{
		source:  base,
		presets: make(map[string]Preset, len(raw)),
		names:   make([]string, 0, len(raw)),
	}

	var errs []error
	for name, r := range raw {
		p, err := r.preset(name, base)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c.presets[name] = p
		c.names = append(c.names, name)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.Slice(c.names, func(i, j int) bool { return naturalLess(c.names[i], c.names[j]) })
	return c, nil
}

func (r record) preset(name, base string) (Preset, error) {
	if strings.TrimSpace(name) == "" {
		return Preset{}, fmt.Errorf("%w: empty preset name", ErrInvalidPreset)
	}
	if r.Metalness == nil {
		return Preset{}, fmt.Errorf("%w %q: metalness is required", ErrInvalidPreset, name)
	}
	if r.SheenGloss == nil {
		return Preset{}, fmt.Errorf("%w %q: sheenGloss is required", ErrInvalidPreset, name)
	}

	p := Preset{
		Name:               name,
		DiffuseMap:         assets.Resolve(base, r.DiffuseMap),
		GlossMap:           assets.Resolve(base, r.GlossMap),
		NormalMap:          assets.Resolve(base, r.NormalMap),
		Metalness:          *r.Metalness,
		SheenGloss:         *r.SheenGloss,
		Opacity:            orFloat(r.Opacity, 1),
		TwoSidedLighting:   r.TwoSidedLighting,
		AlphaTest:          orFloat(r.AlphaTest, 0),
		DepthWrite:         orBool(r.DepthWrite, true),
		DepthTest:          orBool(r.DepthTest, true),
		EmissiveIntensity:  orFloat(r.EmissiveIntensity, 1),
		Clearcoat:          orFloat(r.Clearcoat, 0),
		ClearcoatRoughness: orFloat(r.ClearcoatRoughness, 0),
		Reflectivity:       orFloat(r.Reflectivity, 0.5),
	}

	var err error
	if p.DiffuseMapTiling, err = vec2(r.DiffuseMapTiling, [2]float32{1, 1}); err != nil {
		return Preset{}, fmt.Errorf("%w %q: diffuseMapTiling: %v", ErrInvalidPreset, name, err)
	}
	if p.GlossMapTiling, err = vec2(r.GlossMapTiling, [2]float32{1, 1}); err != nil {
		return Preset{}, fmt.Errorf("%w %q: glossMapTiling: %v", ErrInvalidPreset, name, err)
	}
	if p.NormalMapTiling, err = vec2(r.NormalMapTiling, [2]float32{1, 1}); err != nil {
		return Preset{}, fmt.Errorf("%w %q: normalMapTiling: %v", ErrInvalidPreset, name, err)
	}
	if p.Diffuse, err = vec3(r.Diffuse, [3]float32{1, 1, 1}); err != nil {
		return Preset{}, fmt.Errorf("%w %q: diffuse: %v", ErrInvalidPreset, name, err)
	}
	if p.Emissive, err = vec3(r.Emissive, [3]float32{0, 0, 0}); err != nil {
		return Preset{}, fmt.Errorf("%w %q: emissive: %v", ErrInvalidPreset, name, err)
	}
	return p, nil
}

func orFloat(v *float32, def float32) float32 {
	if v == nil {
		return def
	}
	return *v
}

func orBool(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func vec2(v []float32, def [2]float32) ([2]float32, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 2:
		return [2]float32{v[0], v[1]}, nil
	default:
		return def, fmt.Errorf("want 2 components, got %d", len(v))
	}
}

func vec3(v []float32, def [3]float32) ([3]float32, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 3:
		return [3]float32{v[0], v[1], v[2]}, nil
	default:
		return def, fmt.Errorf("want 3 components, got %d", len(v))
	}
}

// Source returns the location the catalog's relative paths were resolved against.
func (c *Catalog) Source() string {
	return c.source
}

// Names returns preset names in natural order ("material2" before "material10").
// The returned slice is a copy.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Get returns the preset with the given name.
func (c *Catalog) Get(name string) (Preset, bool) {
	p, ok := c.presets[name]
	return p, ok
}

// Len returns the number of presets.
func (c *Catalog) Len() int {
	return len(c.names)
}

// naturalLess orders names so that embedded numbers compare numerically.
// Names equal under natural order (m1, m01) fall back to byte order.
func naturalLess(a, b string) bool {
	if natural.Less(a, b) {
		return true
	}
	if natural.Less(b, a) {
		return false
	}
	return a < b
}
