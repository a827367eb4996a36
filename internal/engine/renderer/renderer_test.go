package renderer

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/matview/internal/engine/material"
	"github.com/Faultbox/matview/internal/engine/scene"
)

func TestCacheRebuildsOnVersionChange(t *testing.T) {
	var released []int
	c := newCache[string](func(v int) { released = append(released, v) })

	builds := 0
	build := func() (int, error) {
		builds++
		return builds, nil
	}

	v, _ := c.get("albedo", 1, build)
	if v != 1 {
		t.Fatalf("first get = %d", v)
	}
	v, _ = c.get("albedo", 1, build)
	if v != 1 || builds != 1 {
		t.Errorf("same version rebuilt: value %d, builds %d", v, builds)
	}
	v, _ = c.get("albedo", 2, build)
	if v != 2 {
		t.Errorf("new version = %d", v)
	}
	if len(released) != 1 || released[0] != 1 {
		t.Errorf("released = %v", released)
	}
}

func TestCacheKeepsOldValueOnBuildError(t *testing.T) {
	c := newCache[string](func(int) {})
	c.get("n", 1, func() (int, error) { return 7, nil })

	v, err := c.get("n", 2, func() (int, error) { return 0, errors.New("upload failed") })
	if err == nil {
		t.Fatal("expected an error")
	}
	if v != 7 {
		t.Errorf("value after failed rebuild = %d, want 7", v)
	}

	if _, err := c.get("missing", 1, func() (int, error) { return 0, errors.New("boom") }); err == nil {
		t.Error("expected an error for a failed first build")
	}
	if c.len() != 1 {
		t.Errorf("len = %d", c.len())
	}
}

func TestCacheSweep(t *testing.T) {
	var released []string
	c := newCache[string](func(v string) { released = append(released, v) })
	keep := func() (string, error) { return "keep", nil }
	drop := func() (string, error) { return "drop", nil }

	c.get("a", 0, keep)
	c.get("b", 0, drop)
	if n := c.sweep(); n != 0 {
		t.Fatalf("first sweep released %d", n)
	}

	c.get("a", 0, keep)
	if n := c.sweep(); n != 1 {
		t.Fatalf("second sweep released %d", n)
	}
	if len(released) != 1 || released[0] != "drop" || c.len() != 1 {
		t.Errorf("released %v, len %d", released, c.len())
	}

	c.clear()
	if c.len() != 0 {
		t.Errorf("len after clear = %d", c.len())
	}
}

func meshAt(name string, z float32, mat *material.Material) *scene.Node {
	n := scene.NewMesh(name, scene.Box(1), mat)
	n.Transform.Position = mgl32.Vec3{0, 0, z}
	return n
}

func TestDrawListOrder(t *testing.T) {
	glass := material.Solid("glass", [3]float32{1, 1, 1})
	glass.Transparent = true
	glass.Opacity = 0.5

	s := scene.New()
	s.Add(meshAt("far", -10, nil))
	s.Add(meshAt("near", -2, nil))
	s.Add(meshAt("glass-near", -3, glass))
	s.Add(meshAt("glass-far", -8, glass))
	hidden := meshAt("hidden", -1, nil)
	hidden.Visible = false
	s.Add(hidden)

	items := buildDrawList(s, mgl32.Vec3{0, 0, 0})
	var got []string
	for _, it := range items {
		got = append(got, it.node.Name)
	}
	want := []string{"near", "far", "glass-far", "glass-near"}
	if len(got) != len(want) {
		t.Fatalf("draw list = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("draw list = %v, want %v", got, want)
		}
	}
}

func TestDrawListSkipsHiddenSubtrees(t *testing.T) {
	group := scene.NewGroup("cushions")
	group.Add(meshAt("cushion", 0, nil))
	group.Visible = false

	s := scene.New()
	s.Add(group)
	s.Add(scene.NewAmbientLight("ambient", [3]float32{1, 1, 1}, 1))

	if items := buildDrawList(s, mgl32.Vec3{0, 0, 5}); len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestShadowCasters(t *testing.T) {
	a := meshAt("a", 0, nil)
	a.Mesh.CastShadow = true
	b := meshAt("b", 1, nil)

	s := scene.New()
	s.Add(a)
	s.Add(b)
	items := buildDrawList(s, mgl32.Vec3{})
	casters := shadowCasters(items)
	if len(casters) != 1 || casters[0].node != a {
		t.Errorf("casters = %v", casters)
	}
	if len(items) != 2 {
		t.Error("filtering must not modify the draw list")
	}
}
