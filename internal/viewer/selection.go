package viewer

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/matview/internal/catalog"
	"github.com/Faultbox/matview/internal/engine/material"
	"github.com/Faultbox/matview/internal/engine/scene"
	"github.com/Faultbox/matview/internal/logger"
)

var (
	// ErrNotReady is returned by selection calls made before the model queue completes.
	ErrNotReady = errors.New("models are still loading")
	// ErrNoCatalog is returned when the material catalog failed to load.
	ErrNoCatalog = errors.New("no material catalog")
	// ErrUnknownPreset is returned for a preset name missing from the catalog.
	ErrUnknownPreset = errors.New("unknown preset")
	// ErrUnknownVariant is returned for a variant no loaded model declares.
	ErrUnknownVariant = errors.New("unknown variant")
)

// MaterialFactory builds a material for a preset. *material.Factory satisfies it.
type MaterialFactory interface {
	Create(p catalog.Preset) *material.Material
}

// Selection binds the active preset or variant to the loaded models. It runs on
// the main thread.
type Selection struct {
	catalog    *catalog.Catalog
	factory    MaterialFactory
	exceptions map[string]bool

	models  []*scene.Model
	ready   bool
	current string
	variant string
	log     *zap.Logger
}

// NewSelection creates a selection. Meshes named in exceptions, or nested under a
// node so named, keep their original material whatever preset is active.
func NewSelection(f MaterialFactory, exceptions []string) *Selection {
	ex := make(map[string]bool, len(exceptions))
	for _, name := range exceptions {
		ex[name] = true
	}
	return &Selection{
		factory:    f,
		exceptions: ex,
		log:        logger.Named("selection"),
	}
}

// SetCatalog installs the catalog once it has loaded.
func (s *Selection) SetCatalog(c *catalog.Catalog) {
	s.catalog = c
}

// Catalog returns the installed catalog, or nil.
func (s *Selection) Catalog() *catalog.Catalog {
	return s.catalog
}

// AddModel registers a model for material assignment.
func (s *Selection) AddModel(m *scene.Model) {
	s.models = append(s.models, m)
}

// MarkReady opens the selection once every queued model has been added.
func (s *Selection) MarkReady() {
	s.ready = true
}

// Ready reports whether selection calls are accepted.
func (s *Selection) Ready() bool {
	return s.ready
}

// Enabled reports whether preset switching can succeed.
func (s *Selection) Enabled() bool {
	return s.ready && s.catalog != nil
}

// Current returns the active preset name, or "".
func (s *Selection) Current() string {
	return s.current
}

// Variant returns the active variant name, or "".
func (s *Selection) Variant() string {
	return s.variant
}

// Presets returns the catalog's preset names, or nil without a catalog.
func (s *Selection) Presets() []string {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.Names()
}

// Variants returns the variant names declared by the loaded models, first
// declaration order, without duplicates.
func (s *Selection) Variants() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range s.models {
		for _, v := range m.Variants {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// Exceptions returns the exception names, sorted.
func (s *Selection) Exceptions() []string {
	out := make([]string, 0, len(s.exceptions))
	for name := range s.exceptions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Select builds a fresh material for the named preset and assigns it to every
// eligible mesh. Exception meshes get their original material back. Nothing
// changes when an error is returned.
func (s *Selection) Select(name string) error {
	if !s.ready {
		return ErrNotReady
	}
	if s.catalog == nil {
		return ErrNoCatalog
	}
	p, ok := s.catalog.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}

	mat := s.factory.Create(p)
	assigned, restored := 0, 0
	s.eachMesh(func(n *scene.Node, exception bool) {
		if exception {
			n.Mesh.RestoreOriginal()
			restored++
			return
		}
		n.Mesh.Material = mat
		assigned++
	})

	s.current = name
	s.variant = ""
	s.log.Info("preset applied",
		zap.String("preset", name),
		zap.Int("meshes", assigned),
		zap.Int("exceptions", restored),
	)
	return nil
}

// SelectVariant assigns each mesh its material for the named glTF variant, or its
// original material when the mesh has no mapping. "" restores every original.
// Exception meshes always keep their original.
func (s *Selection) SelectVariant(name string) error {
	if !s.ready {
		return ErrNotReady
	}
	if name != "" && !s.hasVariant(name) {
		return fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}

	s.eachMesh(func(n *scene.Node, exception bool) {
		if v, ok := n.Mesh.Variants[name]; ok && !exception && name != "" {
			n.Mesh.Material = v
			return
		}
		n.Mesh.RestoreOriginal()
	})

	s.variant = name
	s.current = ""
	s.log.Info("variant applied", zap.String("variant", name))
	return nil
}

// Cycle selects the preset delta steps from the current one, wrapping around.
func (s *Selection) Cycle(delta int) error {
	names := s.Presets()
	if len(names) == 0 {
		if !s.ready {
			return ErrNotReady
		}
		return ErrNoCatalog
	}
	return s.Select(names[step(names, s.current, delta)])
}

// CycleVariant selects the variant delta steps from the current one. The cycle
// includes "" (the originals).
func (s *Selection) CycleVariant(delta int) error {
	names := append([]string{""}, s.Variants()...)
	return s.SelectVariant(names[step(names, s.variant, delta)])
}

// step returns the index delta steps from cur; an unknown cur counts as index -1
// for forward steps and len for backward ones.
func step(names []string, cur string, delta int) int {
	i := -1
	for j, n := range names {
		if n == cur {
			i = j
			break
		}
	}
	if i < 0 && delta < 0 {
		i = len(names)
	}
	n := len(names)
	return ((i+delta)%n + n) % n
}

func (s *Selection) hasVariant(name string) bool {
	for _, m := range s.models {
		if m.HasVariant(name) {
			return true
		}
	}
	return false
}

// eachMesh visits the meshes of real models. Placeholders are skipped.
func (s *Selection) eachMesh(fn func(n *scene.Node, exception bool)) {
	for _, m := range s.models {
		if m.IsPlaceholder() {
			continue
		}
		for _, n := range m.Meshes {
			fn(n, s.isException(n, m.Root))
		}
	}
}

// IsException reports whether n keeps its original material on preset swaps.
func (s *Selection) IsException(n *scene.Node) bool {
	for p := n; p != nil && p.Parent() != nil; p = p.Parent() {
		if s.exceptions[p.Name] {
			return true
		}
	}
	return false
}

func (s *Selection) isException(n, root *scene.Node) bool {
	for p := n; p != nil && p != root; p = p.Parent() {
		if s.exceptions[p.Name] {
			return true
		}
	}
	return false
}
