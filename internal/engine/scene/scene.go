// Package scene holds the viewer's scene graph: tagged nodes, mesh payloads with
// swappable materials, and the loaded models.
//
// The scene is owned by the main thread. Workers never touch it directly; they post
// continuations through an async.Dispatcher.
package scene

import (
	"image"
)

// Environment is an equirectangular environment map used for image-based lighting.
type Environment struct {
	Name      string
	Map       image.Image
	Intensity float32
}

// Scene is the set of top-level nodes plus global appearance.
type Scene struct {
	Background  [3]float32
	environment *Environment
	roots       []*Node
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{}
}

// Add appends a top-level node. Adding a node that is already a root is a no-op.
func (s *Scene) Add(n *Node) {
	if n == nil {
		return
	}
	for _, r := range s.roots {
		if r == n {
			return
		}
	}
	if n.parent != nil {
		n.parent.Remove(n)
	}
	s.roots = append(s.roots, n)
}

// Remove detaches a top-level node.
func (s *Scene) Remove(n *Node) bool {
	for i, r := range s.roots {
		if r == n {
			s.roots = append(s.roots[:i], s.roots[i+1:]...)
			return true
		}
	}
	return false
}

// Roots returns a copy of the top-level node list in insertion order.
func (s *Scene) Roots() []*Node {
	return append([]*Node(nil), s.roots...)
}

// Traverse visits every node depth-first, roots in insertion order.
func (s *Scene) Traverse(fn func(*Node) bool) {
	for _, r := range s.roots {
		r.Traverse(fn)
	}
}

// Meshes returns every mesh node.
func (s *Scene) Meshes() []*Node {
	var out []*Node
	s.Traverse(func(n *Node) bool {
		if n.HasMaterial() {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Lights returns every light node.
func (s *Scene) Lights() []*Node {
	var out []*Node
	s.Traverse(func(n *Node) bool {
		if n.IsLight() {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Bounds returns the world-space box around all visible meshes.
func (s *Scene) Bounds() Bounds {
	b := EmptyBounds()
	s.Traverse(func(n *Node) bool {
		if !n.Visible {
			return false
		}
		if n.HasMaterial() && n.Mesh.Geometry != nil {
			b = b.Union(n.Mesh.Geometry.Bounds.Transform(n.WorldMatrix()))
		}
		return true
	})
	return b
}

// SetEnvironment replaces the environment map. nil removes it.
func (s *Scene) SetEnvironment(env *Environment) {
	s.environment = env
}

// Environment returns the current environment map, or nil.
func (s *Scene) Environment() *Environment {
	return s.environment
}

// FindByName returns the first node with the given name.
func (s *Scene) FindByName(name string) *Node {
	for _, r := range s.roots {
		if n := r.Find(name); n != nil {
			return n
		}
	}
	return nil
}
