package scene

import (
	"strings"

	"github.com/Faultbox/matview/internal/engine/material"
)

// PlaceholderPrefix names the stand-in node added when a model fails to load.
const PlaceholderPrefix = "placeholder:"

// Model is one loaded model file: a group root owning its mesh nodes.
type Model struct {
	Root     *Node
	Source   string
	Meshes   []*Node  // in file order
	Variants []string // KHR_materials_variants names declared by the file
}

// NewModel collects the mesh nodes under root.
func NewModel(source string, root *Node, variants []string) *Model {
	m := &Model{Root: root, Source: source, Variants: variants}
	root.Traverse(func(n *Node) bool {
		if n.HasMaterial() {
			m.Meshes = append(m.Meshes, n)
		}
		return true
	})
	return m
}

// Placeholder returns a model holding a single red unit cube, shown in place of a
// model that failed to load.
func Placeholder(source string) *Model {
	root := NewGroup(PlaceholderPrefix + source)
	cube := NewMesh(PlaceholderPrefix+source+"/cube", Box(1), material.Solid("placeholder", [3]float32{1, 0, 0}))
	cube.Mesh.CastShadow = true
	root.Add(cube)
	return NewModel(source, root, nil)
}

// IsPlaceholder reports whether m stands in for a failed load.
func (m *Model) IsPlaceholder() bool {
	return strings.HasPrefix(m.Root.Name, PlaceholderPrefix)
}

// Bounds returns the model's world-space box.
func (m *Model) Bounds() Bounds {
	b := EmptyBounds()
	for _, n := range m.Meshes {
		if n.Mesh.Geometry != nil {
			b = b.Union(n.Mesh.Geometry.Bounds.Transform(n.WorldMatrix()))
		}
	}
	return b
}

// HasVariant reports whether the file declares the named variant.
func (m *Model) HasVariant(name string) bool {
	for _, v := range m.Variants {
		if v == name {
			return true
		}
	}
	return false
}
