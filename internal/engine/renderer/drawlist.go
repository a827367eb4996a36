package renderer

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/matview/internal/engine/scene"
)

// drawItem is one visible mesh with its world transform.
type drawItem struct {
	node        *scene.Node
	world       mgl32.Mat4
	distance    float32 // squared distance from the eye to the world-space center
	transparent bool
}

// buildDrawList collects the visible meshes of s. Opaque meshes come first,
// sorted front to back; transparent meshes follow, sorted back to front.
func buildDrawList(s *scene.Scene, eye mgl32.Vec3) []drawItem {
	var items []drawItem
	s.Traverse(func(n *scene.Node) bool {
		if !n.Visible {
			return false
		}
		if !n.HasMaterial() || n.Mesh.Geometry == nil || len(n.Mesh.Geometry.Indices) == 0 {
			return true
		}
		world := n.WorldMatrix()
		center := n.Mesh.Geometry.Bounds.Transform(world).Center()
		m := n.Mesh.Material
		items = append(items, drawItem{
			node:        n,
			world:       world,
			distance:    center.Sub(eye).LenSqr(),
			transparent: m.Transparent && m.Opacity < 1,
		})
		return true
	})

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.transparent != b.transparent {
			return !a.transparent
		}
		if a.transparent {
			return a.distance > b.distance
		}
		return a.distance < b.distance
	})
	return items
}

// shadowCasters filters items down to meshes that cast shadows.
func shadowCasters(items []drawItem) []drawItem {
	out := items[:0:0]
	for _, it := range items {
		if it.node.Mesh.CastShadow {
			out = append(out, it)
		}
	}
	return out
}
