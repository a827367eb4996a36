package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is one interleaved mesh vertex.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
	Tangent  [4]float32 // xyz tangent, w handedness
}

// Geometry holds indexed triangle data ready for GPU upload.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// Bounds is an axis-aligned bounding box. The zero value is not empty; use
// EmptyBounds for an accumulator.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// EmptyBounds returns an inverted box that any Extend call replaces.
func EmptyBounds() Bounds {
	const inf = math.MaxFloat32
	return Bounds{
		Min: [3]float32{inf, inf, inf},
		Max: [3]float32{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box contains no points.
func (b Bounds) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Extend grows the box to include p.
func (b Bounds) Extend(p [3]float32) Bounds {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
	return b
}

// Union returns the box enclosing both boxes.
func (b Bounds) Union(o Bounds) Bounds {
	if o.IsEmpty() {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Center returns the box midpoint.
func (b Bounds) Center() mgl32.Vec3 {
	return mgl32.Vec3{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Size returns the box extent along each axis.
func (b Bounds) Size() mgl32.Vec3 {
	return mgl32.Vec3{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}

// Radius returns the radius of the bounding sphere.
func (b Bounds) Radius() float32 {
	return b.Size().Len() / 2
}

// Transform returns the box enclosing all eight transformed corners.
func (b Bounds) Transform(m mgl32.Mat4) Bounds {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBounds()
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		out = out.Extend(mgl32.TransformCoordinate(corner, m))
	}
	return out
}

// ComputeBounds recalculates Bounds from the vertex positions.
func (g *Geometry) ComputeBounds() {
	b := EmptyBounds()
	for i := range g.Vertices {
		b = b.Extend(g.Vertices[i].Position)
	}
	g.Bounds = b
}

// TriangleCount returns the number of indexed triangles.
func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// ComputeNormals replaces vertex normals with area-weighted face normals.
func (g *Geometry) ComputeNormals() {
	normals := make([]mgl32.Vec3, len(g.Vertices))
	for t := 0; t+2 < len(g.Indices); t += 3 {
		i0, i1, i2 := g.Indices[t], g.Indices[t+1], g.Indices[t+2]
		p0 := mgl32.Vec3(g.Vertices[i0].Position)
		e1 := mgl32.Vec3(g.Vertices[i1].Position).Sub(p0)
		e2 := mgl32.Vec3(g.Vertices[i2].Position).Sub(p0)
		n := e1.Cross(e2)
		normals[i0] = normals[i0].Add(n)
		normals[i1] = normals[i1].Add(n)
		normals[i2] = normals[i2].Add(n)
	}
	for i, n := range normals {
		g.Vertices[i].Normal = safeNormalize(n, mgl32.Vec3{0, 1, 0})
	}
}

// ComputeTangents derives per-vertex tangents from UVs for normal mapping.
// Vertices without usable UVs get an arbitrary tangent orthogonal to the normal.
func (g *Geometry) ComputeTangents() {
	tan := make([]mgl32.Vec3, len(g.Vertices))
	bitan := make([]mgl32.Vec3, len(g.Vertices))

	for t := 0; t+2 < len(g.Indices); t += 3 {
		i0, i1, i2 := g.Indices[t], g.Indices[t+1], g.Indices[t+2]
		v0, v1, v2 := &g.Vertices[i0], &g.Vertices[i1], &g.Vertices[i2]

		e1 := mgl32.Vec3(v1.Position).Sub(mgl32.Vec3(v0.Position))
		e2 := mgl32.Vec3(v2.Position).Sub(mgl32.Vec3(v0.Position))
		du1, dv1 := v1.TexCoord[0]-v0.TexCoord[0], v1.TexCoord[1]-v0.TexCoord[1]
		du2, dv2 := v2.TexCoord[0]-v0.TexCoord[0], v2.TexCoord[1]-v0.TexCoord[1]

		det := du1*dv2 - du2*dv1
		if det > -1e-8 && det < 1e-8 {
			continue
		}
		r := 1 / det
		sdir := e1.Mul(dv2).Sub(e2.Mul(dv1)).Mul(r)
		tdir := e2.Mul(du1).Sub(e1.Mul(du2)).Mul(r)
		for _, i := range [3]uint32{i0, i1, i2} {
			tan[i] = tan[i].Add(sdir)
			bitan[i] = bitan[i].Add(tdir)
		}
	}

	for i := range g.Vertices {
		n := mgl32.Vec3(g.Vertices[i].Normal)
		t := tan[i]
		// Gram-Schmidt
		t = t.Sub(n.Mul(n.Dot(t)))
		if t.Len() < 1e-6 {
			t = orthogonal(n)
		}
		t = t.Normalize()
		w := float32(1)
		if n.Cross(t).Dot(bitan[i]) < 0 {
			w = -1
		}
		g.Vertices[i].Tangent = [4]float32{t[0], t[1], t[2], w}
	}
}

func safeNormalize(v, fallback mgl32.Vec3) [3]float32 {
	if v.Len() < 1e-8 {
		return fallback
	}
	return v.Normalize()
}

// orthogonal returns a unit vector perpendicular to n.
func orthogonal(n mgl32.Vec3) mgl32.Vec3 {
	axis := mgl32.Vec3{1, 0, 0}
	if n[0] > 0.9 || n[0] < -0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	return n.Cross(axis).Normalize()
}

// Box returns a unit cube centered at the origin with per-face normals and UVs.
func Box(size float32) *Geometry {
	h := size / 2
	faces := []struct {
		normal, u, v mgl32.Vec3
	}{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	}

	g := &Geometry{}
	for _, f := range faces {
		base := uint32(len(g.Vertices))
		for _, c := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := f.normal.Add(f.u.Mul(c[0])).Add(f.v.Mul(c[1])).Mul(h)
			g.Vertices = append(g.Vertices, Vertex{
				Position: p,
				Normal:   f.normal,
				TexCoord: [2]float32{(c[0] + 1) / 2, (1 - c[1]) / 2},
			})
		}
		g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	g.ComputeTangents()
	g.ComputeBounds()
	return g
}
