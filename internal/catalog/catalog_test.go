package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Faultbox/matview/internal/assets"
)

const sampleCatalog = `{
  "material1": {
    "diffuseMap": "tex/oak_diffuse.jpg",
    "glossMap": "tex/oak_gloss.jpg",
    "normalMap": "tex/oak_normal.jpg",
    "diffuseMapTiling": [2, 2],
    "glossMapTiling": [2, 2],
    "normalMapTiling": [4, 4],
    "metalness": 0.1,
    "sheenGloss": 0.7,
    "opacity": 1,
    "twoSidedLighting": true,
    "alphaTest": 0.5,
    "depthWrite": false,
    "depthTest": true,
    "diffuse": [0.9, 0.8, 0.7],
    "emissive": [0, 0, 0.1],
    "emissiveIntensity": 2,
    "clearcoat": 0.3,
    "clearcoatRoughness": 0.2,
    "reflectivity": 0.9
  },
  "material10": {"metalness": 1, "sheenGloss": 0.2},
  "material2": {"metalness": 0, "sheenGloss": 0}
}`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog), "MaterialData")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if c.Len() != 3 {
		t.Fatalf("expected 3 presets, got %d", c.Len())
	}
	if got := strings.Join(c.Names(), ","); got != "material1,material2,material10" {
		t.Errorf("expected natural order, got %s", got)
	}

	p, ok := c.Get("material1")
	if !ok {
		t.Fatal("material1 missing")
	}
	if p.DiffuseMap != filepath.Join("MaterialData", "tex/oak_diffuse.jpg") {
		t.Errorf("diffuse map not resolved against base: %s", p.DiffuseMap)
	}
	if p.NormalMapTiling != [2]float32{4, 4} {
		t.Errorf("unexpected normal tiling %v", p.NormalMapTiling)
	}
	if p.Roughness() < 0.299 || p.Roughness() > 0.301 {
		t.Errorf("expected roughness 0.3, got %f", p.Roughness())
	}
	if !p.TwoSidedLighting || p.DepthWrite || !p.DepthTest {
		t.Errorf("unexpected flags %+v", p)
	}
	if p.Diffuse != [3]float32{0.9, 0.8, 0.7} || p.EmissiveIntensity != 2 {
		t.Errorf("unexpected colors %+v", p)
	}
	if p.Clearcoat != 0.3 || p.ClearcoatRoughness != 0.2 || p.Reflectivity != 0.9 {
		t.Errorf("unexpected clearcoat params %+v", p)
	}
}

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte(`{"plain": {"metalness": 0.25, "sheenGloss": 0.5}}`), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p, _ := c.Get("plain")

	if p.Opacity != 1 || p.AlphaTest != 0 || !p.DepthWrite || !p.DepthTest {
		t.Errorf("unexpected blending defaults %+v", p)
	}
	if p.Diffuse != [3]float32{1, 1, 1} || p.Emissive != [3]float32{} || p.EmissiveIntensity != 1 {
		t.Errorf("unexpected color defaults %+v", p)
	}
	if p.Clearcoat != 0 || p.ClearcoatRoughness != 0 || p.Reflectivity != 0.5 {
		t.Errorf("unexpected clearcoat defaults %+v", p)
	}
	if p.DiffuseMapTiling != [2]float32{1, 1} {
		t.Errorf("unexpected tiling default %v", p.DiffuseMapTiling)
	}
	if p.DiffuseMap != "" {
		t.Errorf("expected no diffuse map, got %q", p.DiffuseMap)
	}
}

func TestParseExplicitZeroKept(t *testing.T) {
	c, err := Parse([]byte(`{"m": {"metalness": 0, "sheenGloss": 1, "reflectivity": 0, "opacity": 0}}`), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p, _ := c.Get("m")
	if p.Reflectivity != 0 || p.Opacity != 0 {
		t.Errorf("explicit zeros must not be replaced by defaults: %+v", p)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"not json", `{"a": `, "decoding"},
		{"empty", `{}`, "no presets"},
		{"missing metalness", `{"a": {"sheenGloss": 1}}`, "metalness is required"},
		{"missing gloss", `{"a": {"metalness": 1}}`, "sheenGloss is required"},
		{"bad tiling", `{"a": {"metalness": 1, "sheenGloss": 1, "glossMapTiling": [1]}}`, "glossMapTiling"},
		{"bad color", `{"a": {"metalness": 1, "sheenGloss": 1, "diffuse": [1, 1]}}`, "diffuse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.doc), "")
			if err == nil {
				t.Fatal("expected error")
			}
			if c != nil {
				t.Error("expected no partial catalog")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParseOneBadRecordFailsAll(t *testing.T) {
	doc := `{"good": {"metalness": 0, "sheenGloss": 1}, "bad": {"sheenGloss": 1}}`
	_, err := Parse([]byte(doc), "")
	if !errors.Is(err, ErrInvalidPreset) {
		t.Errorf("expected ErrInvalidPreset, got %v", err)
	}
}

func TestNamesIsCopy(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog), "")
	if err != nil {
		t.Fatal(err)
	}
	names := c.Names()
	names[0] = "mutated"
	if c.Names()[0] != "material1" {
		t.Error("catalog names mutated through returned slice")
	}
}

func TestFetchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "MaterialData.json")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Fetch(context.Background(), assets.NewManager(time.Second), path)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	p, _ := c.Get("material1")
	if p.GlossMap != filepath.Join(dir, "tex/oak_gloss.jpg") {
		t.Errorf("gloss map not resolved against catalog dir: %s", p.GlossMap)
	}
	if c.Source() != dir {
		t.Errorf("expected source %s, got %s", dir, c.Source())
	}
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/MaterialData/MaterialData.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleCatalog))
	}))
	defer srv.Close()

	c, err := Fetch(context.Background(), assets.NewManager(time.Second), srv.URL+"/MaterialData/MaterialData.json")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	p, _ := c.Get("material1")
	if p.NormalMap != srv.URL+"/MaterialData/tex/oak_normal.jpg" {
		t.Errorf("normal map not resolved against base URL: %s", p.NormalMap)
	}
}

func TestFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), assets.NewManager(time.Second), srv.URL+"/catalog.json")
	if err == nil {
		t.Fatal("expected error for failed fetch")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestOverrides(t *testing.T) {
	doc := `{"materials": [
		{"name": "Fabric", "albedoMap": "fabric_albedo.png", "normalMap": "fabric_normal.png"},
		{"name": "Wood", "roughnessMap": "https://cdn.example.com/wood_rough.png"}
	]}`

	o, err := ParseOverrides([]byte(doc), "src")
	if err != nil {
		t.Fatalf("ParseOverrides: %v", err)
	}
	if o.Len() != 2 {
		t.Fatalf("expected 2 overrides, got %d", o.Len())
	}

	fabric, ok := o.Lookup("Fabric")
	if !ok {
		t.Fatal("Fabric override missing")
	}
	if fabric.AlbedoMap != filepath.Join("src", "fabric_albedo.png") || fabric.RoughnessMap != "" {
		t.Errorf("unexpected fabric override %+v", fabric)
	}

	wood, _ := o.Lookup("Wood")
	if wood.RoughnessMap != "https://cdn.example.com/wood_rough.png" {
		t.Errorf("absolute URL must be kept, got %s", wood.RoughnessMap)
	}

	if _, ok := o.Lookup("Metal"); ok {
		t.Error("unexpected override for Metal")
	}

	var none *Overrides
	if _, ok := none.Lookup("Fabric"); ok || none.Len() != 0 {
		t.Error("nil overrides table must be empty")
	}
}

func TestOverridesRejectUnnamed(t *testing.T) {
	if _, err := ParseOverrides([]byte(`{"materials": [{"albedoMap": "a.png"}]}`), ""); err == nil {
		t.Error("expected error for unnamed override")
	}
}

func TestNamesOrderStable(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{"leading zeros", []string{"m01", "m1", "m001"}, "m001,m01,m1"},
		{"numeric runs", []string{"oak10", "oak2", "oak1"}, "oak1,oak2,oak10"},
		{"mixed", []string{"b", "a10", "a9", "A1"}, "A1,a9,a10,b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc strings.Builder
			doc.WriteString("{")
			for i, n := range tt.names {
				if i > 0 {
					doc.WriteString(",")
				}
				doc.WriteString(`"` + n + `": {"metalness": 0, "sheenGloss": 0}`)
			}
			doc.WriteString("}")

			for i := 0; i < 50; i++ {
				c, err := Parse([]byte(doc.String()), "MaterialData")
				if err != nil {
					t.Fatalf("Parse: %v", err)
				}
				if got := strings.Join(c.Names(), ","); got != tt.want {
					t.Fatalf("run %d: got %s, want %s", i, got, tt.want)
				}
			}
		})
	}
}
