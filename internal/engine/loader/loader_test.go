package loader

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/matview/internal/assets"
	"github.com/Faultbox/matview/internal/engine/material"
)

func f64(v float64) *float64 { return &v }
func idx(v int) *int         { return &v }

// writeModel saves a one-triangle sofa model as .glb in dir. mod may adjust the
// document before it is written.
func writeModel(t *testing.T, dir, name string, mod func(*gltf.Document)) string {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {1, 0}, {0, 1}})
	ind := modeler.WriteIndices(doc, []uint16{0, 1, 2})

	doc.Materials = []*gltf.Material{
		{
			Name: "Fabric",
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float64{1, 0, 0, 1},
				MetallicFactor:  f64(0.5),
				RoughnessFactor: f64(0.25),
			},
			DoubleSided: true,
		},
		{Name: "Navy"},
	}
	doc.Meshes = []*gltf.Mesh{{
		Name: "cushion",
		Primitives: []*gltf.Primitive{{
			Indices:    idx(ind),
			Attributes: map[string]int{gltf.POSITION: pos, gltf.TEXCOORD_0: uv},
			Material:   idx(0),
		}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "Sofa", Children: []int{1}},
		{Name: "cushion", Mesh: idx(0), Translation: [3]float64{0, 1, 0}},
	}
	doc.Scenes[0].Nodes = []int{0}

	if mod != nil {
		mod(doc)
	}
	p := filepath.Join(dir, name)
	if err := gltf.SaveBinary(doc, p); err != nil {
		t.Fatalf("SaveBinary: %v", err)
	}
	return p
}

func newLoader(t *testing.T) (*GLTFLoader, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return NewGLTFLoader(assets.NewManager(time.Second)), ctx
}

func TestLoadModel(t *testing.T) {
	p := writeModel(t, t.TempDir(), "sofa.glb", nil)
	l, ctx := newLoader(t)

	m, err := l.Load(ctx, p).Await(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if m.Root.Name != "sofa" || m.Source != p {
		t.Errorf("unexpected root %q source %q", m.Root.Name, m.Source)
	}
	if len(m.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(m.Meshes))
	}
	cushion := m.Meshes[0]
	if cushion.Name != "cushion" || cushion.Parent().Name != "Sofa" {
		t.Errorf("unexpected hierarchy: %q under %q", cushion.Name, cushion.Parent().Name)
	}
	if pos := cushion.WorldPosition(); math.Abs(float64(pos[1]-1)) > 1e-5 {
		t.Errorf("translation lost: %v", pos)
	}

	mat := cushion.Mesh.Material
	if mat.Name != "Fabric" || mat.Color != [3]float32{1, 0, 0} || mat.Metalness != 0.5 || mat.Roughness != 0.25 {
		t.Errorf("unexpected material %+v", mat.Scalars())
	}
	if mat.Side != material.SideDouble {
		t.Error("double-sided material lost")
	}
	if cushion.Mesh.Original == nil || cushion.Mesh.Original.Scalars() != mat.Scalars() {
		t.Error("original snapshot missing")
	}

	g := cushion.Mesh.Geometry
	if len(g.Vertices) != 3 || g.TriangleCount() != 1 {
		t.Errorf("unexpected geometry: %d vertices", len(g.Vertices))
	}
	if n := g.Vertices[0].Normal; math.Abs(float64(n[2]-1)) > 1e-5 {
		t.Errorf("missing normals should be computed, got %v", n)
	}
	if g.Vertices[0].Tangent[3] == 0 {
		t.Error("tangents should be computed")
	}
}

func TestLoadVariants(t *testing.T) {
	p := writeModel(t, t.TempDir(), "sofa.glb", func(doc *gltf.Document) {
		doc.ExtensionsUsed = []string{variantsExtension}
		doc.Extensions = gltf.Extensions{
			variantsExtension: map[string]any{
				"variants": []map[string]any{{"name": "beige"}, {"name": "navy"}},
			},
		}
		doc.Meshes[0].Primitives[0].Extensions = gltf.Extensions{
			variantsExtension: map[string]any{
				"mappings": []map[string]any{{"material": 1, "variants": []int{1}}},
			},
		}
	})
	l, ctx := newLoader(t)

	m, err := l.Load(ctx, p).Await(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Variants) != 2 || m.Variants[0] != "beige" || m.Variants[1] != "navy" {
		t.Fatalf("unexpected variants %v", m.Variants)
	}
	v := m.Meshes[0].Mesh.Variants
	if v["navy"] == nil || v["navy"].Name != "Navy" {
		t.Errorf("navy mapping missing: %v", v)
	}
	if _, ok := v["beige"]; ok {
		t.Error("beige is unmapped for this primitive")
	}
}

func TestLoadExternalTexture(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "albedo.png"), buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	p := writeModel(t, dir, "sofa.glb", func(doc *gltf.Document) {
		doc.Images = []*gltf.Image{{URI: "albedo.png"}}
		doc.Samplers = []*gltf.Sampler{{WrapS: gltf.WrapClampToEdge, WrapT: gltf.WrapMirroredRepeat}}
		doc.Textures = []*gltf.Texture{{Source: idx(0), Sampler: idx(0)}}
		doc.Materials[0].PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: 0}
	})
	l, ctx := newLoader(t)

	m, err := l.Load(ctx, p).Await(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tex := m.Meshes[0].Mesh.Material.Map
	if !tex.Ready() || tex.Image().Bounds().Dx() != 4 {
		t.Fatal("base color texture should be decoded during load")
	}
	if !tex.SRGB || tex.WrapS != material.WrapClamp || tex.WrapT != material.WrapMirror {
		t.Errorf("unexpected texture settings %+v", tex)
	}
}

func TestLoadRejectsDraco(t *testing.T) {
	p := writeModel(t, t.TempDir(), "packed.glb", func(doc *gltf.Document) {
		doc.ExtensionsUsed = []string{"KHR_draco_mesh_compression"}
		doc.ExtensionsRequired = []string{"KHR_draco_mesh_compression"}
	})
	l, ctx := newLoader(t)

	_, err := l.Load(ctx, p).Await(ctx)
	if !errors.Is(err, ErrUnsupportedExtension) {
		t.Errorf("expected ErrUnsupportedExtension, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "missing.glb")
	l, ctx := newLoader(t)

	_, err := l.Load(ctx, p).Await(ctx)
	if !errors.Is(err, assets.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDecompose(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(90))).
		Mul4(mgl32.Scale3D(2, 3, 4))

	tr := decompose(m)
	if !tr.Position.ApproxEqualThreshold(mgl32.Vec3{1, 2, 3}, 1e-5) {
		t.Errorf("unexpected position %v", tr.Position)
	}
	if !tr.Scale.ApproxEqualThreshold(mgl32.Vec3{2, 3, 4}, 1e-5) {
		t.Errorf("unexpected scale %v", tr.Scale)
	}
	if !tr.Matrix().ApproxEqualThreshold(m, 1e-4) {
		t.Errorf("recomposed matrix differs:\n%v\n%v", tr.Matrix(), m)
	}
}

func TestLoadRejectsBadIndices(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*gltf.Document)
	}{
		{"position accessor", func(doc *gltf.Document) {
			doc.Meshes[0].Primitives[0].Attributes[gltf.POSITION] = 99
		}},
		{"uv accessor", func(doc *gltf.Document) {
			doc.Meshes[0].Primitives[0].Attributes[gltf.TEXCOORD_0] = -1
		}},
		{"index accessor", func(doc *gltf.Document) {
			doc.Meshes[0].Primitives[0].Indices = idx(42)
		}},
		{"buffer view", func(doc *gltf.Document) {
			doc.Accessors[0].BufferView = idx(17)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeModel(t, t.TempDir(), "broken.glb", tt.mod)
			l, ctx := newLoader(t)
			m, err := l.Load(ctx, p).Await(ctx)
			if !errors.Is(err, errBadIndex) {
				t.Fatalf("expected errBadIndex, got model %v err %v", m, err)
			}
		})
	}
}
