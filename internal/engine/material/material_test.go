package material

import (
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/Faultbox/matview/internal/async"
	"github.com/Faultbox/matview/internal/catalog"
)

type fakeLoader struct {
	fail  map[string]bool
	calls []string
}

func (l *fakeLoader) Load(path string) *async.Future[image.Image] {
	l.calls = append(l.calls, path)
	if l.fail[path] {
		return async.Failed[image.Image](errors.New("decode failed"))
	}
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	return async.Resolved[image.Image](img)
}

// drain pumps q until n continuations have run.
func drain(t *testing.T, q *async.Queue, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for ran := 0; ran < n; {
		select {
		case <-q.Ready():
			ran += q.Drain()
		case <-deadline:
			t.Fatalf("timed out after %d of %d continuations", ran, n)
		}
	}
}

func testPreset() catalog.Preset {
	return catalog.Preset{
		Name:               "material1",
		DiffuseMap:         "tex/diffuse.jpg",
		GlossMap:           "tex/gloss.jpg",
		NormalMap:          "tex/normal.jpg",
		DiffuseMapTiling:   [2]float32{2, 2},
		GlossMapTiling:     [2]float32{3, 3},
		NormalMapTiling:    [2]float32{4, 4},
		Metalness:          0.2,
		SheenGloss:         0.75,
		Opacity:            0.9,
		TwoSidedLighting:   true,
		AlphaTest:          0.1,
		DepthWrite:         true,
		DepthTest:          true,
		Diffuse:            [3]float32{1, 0.5, 0.25},
		EmissiveIntensity:  1,
		Clearcoat:          0.4,
		ClearcoatRoughness: 0.1,
		Reflectivity:       0.5,
	}
}

func TestCreateDeterministic(t *testing.T) {
	f := NewFactory(&fakeLoader{}, async.NewQueue())
	p := testPreset()

	a, b := f.Create(p), f.Create(p)
	if a == b {
		t.Fatal("expected distinct materials")
	}
	if a.Scalars() != b.Scalars() {
		t.Errorf("same preset produced different parameters:\n%+v\n%+v", a.Scalars(), b.Scalars())
	}
}

func TestCreateMapsPreset(t *testing.T) {
	f := NewFactory(nil, async.NewQueue())
	m := f.Create(testPreset())

	if m.Roughness != 0.25 {
		t.Errorf("expected roughness 0.25, got %f", m.Roughness)
	}
	if m.Side != SideDouble {
		t.Error("two-sided preset must be double sided")
	}
	if !m.Transparent {
		t.Error("preset materials are transparent")
	}
	if m.Color != [3]float32{1, 0.5, 0.25} || m.Opacity != 0.9 || m.AlphaTest != 0.1 {
		t.Errorf("unexpected color params %+v", m.Scalars())
	}

	tests := []struct {
		name   string
		tex    *Texture
		path   string
		repeat [2]float32
		srgb   bool
	}{
		{"map", m.Map, "tex/diffuse.jpg", [2]float32{2, 2}, true},
		{"roughness", m.RoughnessMap, "tex/gloss.jpg", [2]float32{3, 3}, false},
		{"normal", m.NormalMap, "tex/normal.jpg", [2]float32{4, 4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tex == nil {
				t.Fatal("slot is nil")
			}
			if tt.tex.Path != tt.path || tt.tex.Repeat != tt.repeat || tt.tex.SRGB != tt.srgb {
				t.Errorf("unexpected texture %+v", tt.tex)
			}
			if tt.tex.WrapS != WrapRepeat || tt.tex.WrapT != WrapRepeat {
				t.Error("expected repeat wrapping")
			}
		})
	}
}

func TestCreateSingleSided(t *testing.T) {
	p := testPreset()
	p.TwoSidedLighting = false
	p.NormalMap = ""

	m := NewFactory(nil, async.NewQueue()).Create(p)
	if m.Side != SideFront {
		t.Error("expected front side")
	}
	if m.NormalMap != nil {
		t.Error("empty path must leave slot empty")
	}
}

func TestTexturesFillOnMainThread(t *testing.T) {
	q := async.NewQueue()
	loader := &fakeLoader{fail: map[string]bool{"tex/normal.jpg": true}}
	m := NewFactory(loader, q).Create(testPreset())

	if m.Map.Ready() {
		t.Fatal("texture must not be ready before the queue drains")
	}
	v := m.Version()

	drain(t, q, 3)

	if !m.Map.Ready() || !m.RoughnessMap.Ready() {
		t.Error("loaded textures should be ready")
	}
	if m.NormalMap.Ready() {
		t.Error("failed texture must stay unready")
	}
	if m.Version() != v+2 {
		t.Errorf("expected two version bumps, got %d", m.Version()-v)
	}
	if len(loader.calls) != 3 {
		t.Errorf("expected 3 loads, got %d", len(loader.calls))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := NewFactory(nil, async.NewQueue()).Create(testPreset())
	c := m.Clone()

	if c == m || c.Scalars() != m.Scalars() {
		t.Fatal("clone should be an equal copy")
	}
	if c.Map != m.Map {
		t.Error("clone should share texture slots")
	}

	c.Roughness = 0.9
	c.Color[0] = 0
	if m.Roughness == 0.9 || m.Color[0] == 0 {
		t.Error("mutating the clone changed the source")
	}
}

func TestScalarsSnapshot(t *testing.T) {
	rough := NewTexture("rough.png", [2]float32{2, 3}, false)
	tests := []struct {
		name string
		mat  Material
		want Params
	}{
		{
			name: "scalars",
			mat: Material{
				Name: "Oak", Color: [3]float32{0.5, 0.4, 0.3}, Metalness: 0.1, Roughness: 0.7,
				Opacity: 0.8, Transparent: true, AlphaTest: 0.2, DepthWrite: true, DepthTest: true,
				Side: SideDouble, Emissive: [3]float32{1, 0, 0}, EmissiveIntensity: 2,
				Clearcoat: 0.3, ClearcoatRoughness: 0.4, Reflectivity: 0.5, AOMapIntensity: 0.6,
				NormalScale: [2]float32{9, 9},
			},
			want: Params{
				Name: "Oak", Color: [3]float32{0.5, 0.4, 0.3}, Metalness: 0.1, Roughness: 0.7,
				Opacity: 0.8, Transparent: true, AlphaTest: 0.2, DepthWrite: true, DepthTest: true,
				Side: SideDouble, Emissive: [3]float32{1, 0, 0}, EmissiveIntensity: 2,
				Clearcoat: 0.3, ClearcoatRoughness: 0.4, Reflectivity: 0.5, AOMapIntensity: 0.6,
			},
		},
		{
			name: "texture slots",
			mat:  Material{Name: "Rough", RoughnessMap: rough},
			want: Params{Name: "Rough", RoughnessMapPath: "rough.png", RoughnessRepeat: [2]float32{2, 3}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mat.Scalars(); got != tt.want {
				t.Errorf("Scalars:\n got %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

func TestCloneKeepsVersion(t *testing.T) {
	m := Default()
	m.Touch()
	c := m.Clone()
	if c.Version() != m.Version() {
		t.Errorf("clone version %d, want %d", c.Version(), m.Version())
	}
	c.Touch()
	if c.Version() == m.Version() {
		t.Error("bumping the clone changed the source version")
	}
}

func TestApplyOverride(t *testing.T) {
	q := async.NewQueue()
	f := NewFactory(&fakeLoader{}, q)

	m := Default()
	m.Map = NewTexture("orig.png", [2]float32{5, 5}, true)
	f.ApplyOverride(m, catalog.Override{Name: "Fabric", AlbedoMap: "fabric.png", RoughnessMap: "rough.png"})

	if m.Map.Path != "fabric.png" || m.Map.Repeat != [2]float32{5, 5} {
		t.Errorf("albedo override should keep tiling, got %+v", m.Map)
	}
	if m.RoughnessMap == nil || m.RoughnessMap.Path != "rough.png" {
		t.Error("roughness override missing")
	}
	if m.NormalMap != nil {
		t.Error("normal map should be untouched")
	}

	drain(t, q, 2)
	if !m.Map.Ready() || !m.RoughnessMap.Ready() {
		t.Error("override textures should load")
	}
}

func TestDefaultAndSolid(t *testing.T) {
	d := Default()
	if d.Roughness != 1 || d.Opacity != 1 || !d.DepthWrite || d.Transparent {
		t.Errorf("unexpected default %+v", d.Scalars())
	}
	s := Solid("placeholder", [3]float32{1, 0, 0})
	if s.Color != [3]float32{1, 0, 0} || s.Name != "placeholder" {
		t.Errorf("unexpected solid %+v", s.Scalars())
	}
	if len(s.Textures()) != 0 {
		t.Error("solid material has no textures")
	}
}
