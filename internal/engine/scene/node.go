package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/matview/internal/engine/material"
)

// Kind tags what a node carries.
type Kind int

const (
	KindGroup Kind = iota
	KindMesh
	KindAmbientLight
	KindDirectionalLight
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindMesh:
		return "mesh"
	case KindAmbientLight:
		return "ambient"
	case KindDirectionalLight:
		return "directional"
	default:
		return "unknown"
	}
}

// ShaderKind selects the shading program for a mesh.
type ShaderKind int

const (
	ShaderStandard ShaderKind = iota
	ShaderSubsurface
)

// Transform is a translation, rotation and scale.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Matrix returns T * R * S.
func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2]).
		Mul4(t.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// Mesh is the payload of a KindMesh node.
type Mesh struct {
	Geometry *Geometry
	Material *material.Material
	// Original is the material the mesh had when loaded. Swaps never mutate it.
	Original *material.Material
	// Variants maps KHR_materials_variants names to materials.
	Variants      map[string]*material.Material
	Shader        ShaderKind
	CastShadow    bool
	ReceiveShadow bool
}

// RestoreOriginal puts the load-time material back.
func (m *Mesh) RestoreOriginal() {
	if m.Original != nil {
		m.Material = m.Original
	}
}

// Light is the payload of the light kinds.
type Light struct {
	Color      [3]float32
	Intensity  float32
	CastShadow bool
	Target     mgl32.Vec3 // directional lights shine from the node position toward Target
}

// Node is a scene graph node. Only the payload matching Kind is set.
type Node struct {
	Name      string
	Kind      Kind
	Transform Transform
	Visible   bool

	Mesh  *Mesh
	Light *Light

	parent   *Node
	children []*Node
}

// NewGroup creates an empty group node.
func NewGroup(name string) *Node {
	return &Node{Name: name, Kind: KindGroup, Transform: Identity(), Visible: true}
}

// NewMesh creates a mesh node. A nil material gets the default material.
func NewMesh(name string, geom *Geometry, mat *material.Material) *Node {
	if mat == nil {
		mat = material.Default()
	}
	return &Node{
		Name:      name,
		Kind:      KindMesh,
		Transform: Identity(),
		Visible:   true,
		Mesh: &Mesh{
			Geometry:      geom,
			Material:      mat,
			Original:      mat.Clone(),
			ReceiveShadow: true,
		},
	}
}

// NewAmbientLight creates an ambient light node.
func NewAmbientLight(name string, color [3]float32, intensity float32) *Node {
	return &Node{
		Name:      name,
		Kind:      KindAmbientLight,
		Transform: Identity(),
		Visible:   true,
		Light:     &Light{Color: color, Intensity: intensity},
	}
}

// NewDirectionalLight creates a directional light at pos shining toward the origin.
func NewDirectionalLight(name string, color [3]float32, intensity float32, pos mgl32.Vec3) *Node {
	n := &Node{
		Name:      name,
		Kind:      KindDirectionalLight,
		Transform: Identity(),
		Visible:   true,
		Light:     &Light{Color: color, Intensity: intensity},
	}
	n.Transform.Position = pos
	return n
}

// HasMaterial reports whether the node is a mesh with a material slot.
func (n *Node) HasMaterial() bool {
	return n.Kind == KindMesh && n.Mesh != nil
}

// CastsShadow reports whether the node contributes to the shadow map.
func (n *Node) CastsShadow() bool {
	switch n.Kind {
	case KindMesh:
		return n.Mesh != nil && n.Mesh.CastShadow
	case KindDirectionalLight:
		return n.Light != nil && n.Light.CastShadow
	default:
		return false
	}
}

// IsLight reports whether the node is a light.
func (n *Node) IsLight() bool {
	return n.Kind == KindAmbientLight || n.Kind == KindDirectionalLight
}

// Add attaches child, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child. It reports whether child was attached to n.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// WorldMatrix returns the transform from node space to world space.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.Transform.Matrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.Transform.Matrix().Mul4(m)
	}
	return m
}

// WorldPosition returns the node origin in world space.
func (n *Node) WorldPosition() mgl32.Vec3 {
	return n.WorldMatrix().Col(3).Vec3()
}

// Traverse visits n and its descendants depth-first. Returning false from fn
// skips the visited node's children.
func (n *Node) Traverse(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// VisibleInTree reports whether n and all its ancestors are visible.
func (n *Node) VisibleInTree() bool {
	for p := n; p != nil; p = p.parent {
		if !p.Visible {
			return false
		}
	}
	return true
}

// Find returns the first node named name in n's subtree.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Traverse(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Name == name {
			found = c
			return false
		}
		return true
	})
	return found
}
