package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Faultbox/matview/internal/assets"
)

// Override lists replacement textures for one material of a loaded model,
// matched by the material's name in the model file.
type Override struct {
	Name         string `json:"name"`
	AlbedoMap    string `json:"albedoMap,omitempty"`
	NormalMap    string `json:"normalMap,omitempty"`
	RoughnessMap string `json:"roughnessMap,omitempty"`
}

// Overrides is a table of per-material texture overrides.
type Overrides struct {
	byName map[string]Override
}

type overridesDoc struct {
	Materials []Override `json:"materials"`
}

// ParseOverrides decodes a {"materials": [...]} document. Texture paths are
// resolved against base. Later entries with a repeated name win.
func ParseOverrides(data []byte, base string) (*Overrides, error) {
	var doc overridesDoc
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding overrides: %w", err)
	}

	o := &Overrides{byName: make(map[string]Override, len(doc.Materials))}
	for i, m := range doc.Materials {
		if m.Name == "" {
			return nil, fmt.Errorf("override %d: missing name", i)
		}
		m.AlbedoMap = assets.Resolve(base, m.AlbedoMap)
		m.NormalMap = assets.Resolve(base, m.NormalMap)
		m.RoughnessMap = assets.Resolve(base, m.RoughnessMap)
		o.byName[m.Name] = m
	}
	return o, nil
}

// FetchOverrides loads and parses an overrides document.
func FetchOverrides(ctx context.Context, src Source, path string) (*Overrides, error) {
	data, err := src.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading overrides %s: %w", path, err)
	}
	o, err := ParseOverrides(data, assets.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("parsing overrides %s: %w", path, err)
	}
	return o, nil
}

// Lookup returns the override for a model material name.
// A nil table has no overrides.
func (o *Overrides) Lookup(materialName string) (Override, bool) {
	if o == nil {
		return Override{}, false
	}
	ov, ok := o.byName[materialName]
	return ov, ok
}

// Len returns the number of overrides.
func (o *Overrides) Len() int {
	if o == nil {
		return 0
	}
	return len(o.byName)
}
