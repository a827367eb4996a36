package loader

import (
	"github.com/qmuntal/gltf"

	"github.com/Faultbox/matview/internal/engine/material"
)

const variantsExtension = "KHR_materials_variants"

type variantsRoot struct {
	Variants []struct {
		Name string `json:"name"`
	} `json:"variants"`
}

type variantsPrimitive struct {
	Mappings []struct {
		Material int   `json:"material"`
		Variants []int `json:"variants"`
	} `json:"mappings"`
}

// rootVariants returns the variant names declared by the document, in index order.
func rootVariants(doc *gltf.Document) []string {
	var root variantsRoot
	if !decodeExtension(doc.Extensions, variantsExtension, &root) {
		return nil
	}
	names := make([]string, len(root.Variants))
	for i, v := range root.Variants {
		names[i] = v.Name
	}
	return names
}

// primitiveVariants maps variant names to the primitive's material for that variant.
func (b *builder) primitiveVariants(prim *gltf.Primitive) map[string]*material.Material {
	var ext variantsPrimitive
	if !decodeExtension(prim.Extensions, variantsExtension, &ext) {
		return nil
	}
	out := make(map[string]*material.Material)
	for _, m := range ext.Mappings {
		if m.Material < 0 || m.Material >= len(b.materials) {
			continue
		}
		for _, v := range m.Variants {
			if v >= 0 && v < len(b.variants) {
				out[b.variants[v]] = b.materials[m.Material]
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
