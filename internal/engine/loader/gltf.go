// Package loader turns glTF 2.0 files (.glb and .gltf) into scene models.
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"path"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/matview/internal/assets"
	"github.com/Faultbox/matview/internal/async"
	"github.com/Faultbox/matview/internal/engine/material"
	"github.com/Faultbox/matview/internal/engine/scene"
	"github.com/Faultbox/matview/internal/engine/texture"
	"github.com/Faultbox/matview/internal/logger"
)

// ErrUnsupportedExtension is returned for files that require an extension the
// loader cannot decode, such as Draco mesh compression.
var ErrUnsupportedExtension = errors.New("unsupported glTF extension")

// unsupportedRequired lists extensions whose data cannot be read without a decoder.
var unsupportedRequired = map[string]bool{
	"KHR_draco_mesh_compression": true,
	"KHR_texture_basisu":         true,
	"EXT_meshopt_compression":    true,
}

// Source loads raw bytes. *assets.Manager satisfies it.
type Source interface {
	Load(ctx context.Context, path string) ([]byte, error)
}

// GLTFLoader loads glTF models on worker goroutines.
type GLTFLoader struct {
	src Source
	log *zap.Logger
}

// NewGLTFLoader creates a loader reading model files and their resources from src.
func NewGLTFLoader(src Source) *GLTFLoader {
	return &GLTFLoader{src: src, log: logger.Named("loader")}
}

// Load starts loading the model at p.
func (l *GLTFLoader) Load(ctx context.Context, p string) *async.Future[*scene.Model] {
	return async.Go(ctx, func(ctx context.Context) (*scene.Model, error) {
		start := time.Now()
		m, err := l.load(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("loading model %s: %w", p, err)
		}
		l.log.Info("model loaded",
			zap.String("path", p),
			zap.Int("meshes", len(m.Meshes)),
			zap.Strings("variants", m.Variants),
			zap.Duration("took", time.Since(start)),
		)
		return m, nil
	})
}

func (l *GLTFLoader) load(ctx context.Context, p string) (*scene.Model, error) {
	data, err := l.src.Load(ctx, p)
	if err != nil {
		return nil, err
	}

	base := assets.Dir(p)
	doc := new(gltf.Document)
	dec := gltf.NewDecoderFS(bytes.NewReader(data), &sourceFS{ctx: ctx, src: l.src, base: base})
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding glTF: %w", err)
	}

	for _, ext := range doc.ExtensionsRequired {
		if unsupportedRequired[ext] {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedExtension, ext)
		}
	}

	b := &builder{ctx: ctx, doc: doc, src: l.src, base: base, log: l.log}
	return b.build(p)
}

// builder converts one decoded document.
type builder struct {
	ctx  context.Context
	doc  *gltf.Document
	src  Source
	base string
	log  *zap.Logger

	images    map[int]image.Image
	materials []*material.Material
	variants  []string
}

func (b *builder) build(p string) (*scene.Model, error) {
	b.images = make(map[int]image.Image)
	b.variants = rootVariants(b.doc)

	b.materials = make([]*material.Material, len(b.doc.Materials))
	for i, gm := range b.doc.Materials {
		b.materials[i] = b.material(i, gm)
	}

	nodes := make([]*scene.Node, len(b.doc.Nodes))
	for i, gn := range b.doc.Nodes {
		n, err := b.node(i, gn)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	for i, gn := range b.doc.Nodes {
		for _, c := range gn.Children {
			if c >= 0 && c < len(nodes) && c != i {
				nodes[i].Add(nodes[c])
			}
		}
	}

	root := scene.NewGroup(strings.TrimSuffix(path.Base(p), path.Ext(p)))
	for _, idx := range b.rootNodes() {
		if idx >= 0 && idx < len(nodes) {
			root.Add(nodes[idx])
		}
	}
	return scene.NewModel(p, root, b.variants), nil
}

// rootNodes returns the default scene's nodes, or every parentless node when the
// file declares no scene.
func (b *builder) rootNodes() []int {
	doc := b.doc
	if len(doc.Scenes) > 0 {
		s := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			s = *doc.Scene
		}
		return doc.Scenes[s].Nodes
	}

	hasParent := make([]bool, len(doc.Nodes))
	for _, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if c >= 0 && c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func (b *builder) node(i int, gn *gltf.Node) (*scene.Node, error) {
	name := gn.Name
	if name == "" {
		name = fmt.Sprintf("node_%d", i)
	}

	var n *scene.Node
	if gn.Mesh != nil && *gn.Mesh >= 0 && *gn.Mesh < len(b.doc.Meshes) {
		meshes, err := b.mesh(name, b.doc.Meshes[*gn.Mesh])
		if err != nil {
			return nil, err
		}
		switch len(meshes) {
		case 0:
			n = scene.NewGroup(name)
		case 1:
			n = meshes[0]
		default:
			n = scene.NewGroup(name)
			for _, m := range meshes {
				n.Add(m)
			}
		}
	} else {
		n = scene.NewGroup(name)
	}

	n.Transform = nodeTransform(gn)
	return n, nil
}

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// nodeTransform reads TRS, decomposing the matrix form when present.
func nodeTransform(gn *gltf.Node) scene.Transform {
	t := scene.Identity()
	m := gn.MatrixOrDefault()
	if m != identityMatrix {
		var mat mgl32.Mat4
		for i, v := range m {
			mat[i] = float32(v)
		}
		return decompose(mat)
	}

	tr := gn.TranslationOrDefault()
	r := gn.RotationOrDefault()
	s := gn.ScaleOrDefault()
	t.Position = mgl32.Vec3{float32(tr[0]), float32(tr[1]), float32(tr[2])}
	t.Rotation = mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}.Normalize()
	t.Scale = mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])}
	return t
}

// decompose splits a column-major affine matrix into TRS. Shear is dropped.
func decompose(m mgl32.Mat4) scene.Transform {
	t := scene.Identity()
	t.Position = m.Col(3).Vec3()
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	if m.Mat3().Det() < 0 {
		sx = -sx
	}
	t.Scale = mgl32.Vec3{sx, sy, sz}
	if sx == 0 || sy == 0 || sz == 0 {
		return t
	}

	var rot mgl32.Mat4
	rot.SetCol(0, m.Col(0).Mul(1/sx))
	rot.SetCol(1, m.Col(1).Mul(1/sy))
	rot.SetCol(2, m.Col(2).Mul(1/sz))
	rot.SetCol(3, mgl32.Vec4{0, 0, 0, 1})
	t.Rotation = mgl32.Mat4ToQuat(rot).Normalize()
	return t
}

// mesh converts each triangle primitive to a mesh node.
func (b *builder) mesh(nodeName string, gm *gltf.Mesh) ([]*scene.Node, error) {
	var out []*scene.Node
	for pi, prim := range gm.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			b.log.Debug("skipping non-triangle primitive",
				zap.String("node", nodeName), zap.Int("primitive", pi))
			continue
		}
		geom, err := b.geometry(prim)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", gm.Name, pi, err)
		}

		var mat *material.Material
		if prim.Material != nil && *prim.Material >= 0 && *prim.Material < len(b.materials) {
			mat = b.materials[*prim.Material]
		}

		name := nodeName
		if len(gm.Primitives) > 1 {
			name = fmt.Sprintf("%s_%d", nodeName, pi)
		}
		n := scene.NewMesh(name, geom, mat)
		n.Mesh.CastShadow = true
		n.Mesh.Variants = b.primitiveVariants(prim)
		out = append(out, n)
	}
	return out, nil
}

func (b *builder) geometry(prim *gltf.Primitive) (*scene.Geometry, error) {
	doc := b.doc
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, errors.New("no POSITION attribute")
	}
	acc, err := b.accessor(posIdx)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	positions, err := modeler.ReadPosition(doc, acc, nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if acc, err = b.accessor(idx); err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
		if normals, err = modeler.ReadNormal(doc, acc, nil); err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
	}
	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if acc, err = b.accessor(idx); err != nil {
			return nil, fmt.Errorf("uvs: %w", err)
		}
		if uvs, err = modeler.ReadTextureCoord(doc, acc, nil); err != nil {
			return nil, fmt.Errorf("uvs: %w", err)
		}
	}
	var tangents [][4]float32
	if idx, ok := prim.Attributes[gltf.TANGENT]; ok {
		if acc, err = b.accessor(idx); err != nil {
			return nil, fmt.Errorf("tangents: %w", err)
		}
		if tangents, err = modeler.ReadTangent(doc, acc, nil); err != nil {
			return nil, fmt.Errorf("tangents: %w", err)
		}
	}

	g := &scene.Geometry{Vertices: make([]scene.Vertex, len(positions))}
	for i, p := range positions {
		v := scene.Vertex{Position: p, Normal: [3]float32{0, 1, 0}}
		if i < len(normals) {
			v.Normal = normals[i]
		}
		if i < len(uvs) {
			v.TexCoord = uvs[i]
		}
		if i < len(tangents) {
			v.Tangent = tangents[i]
		}
		g.Vertices[i] = v
	}

	if prim.Indices != nil {
		if acc, err = b.accessor(*prim.Indices); err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
		if g.Indices, err = modeler.ReadIndices(doc, acc, nil); err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
		for _, idx := range g.Indices {
			if int(idx) >= len(g.Vertices) {
				return nil, fmt.Errorf("index %d out of range (%d vertices)", idx, len(g.Vertices))
			}
		}
	} else {
		g.Indices = make([]uint32, len(positions))
		for i := range g.Indices {
			g.Indices[i] = uint32(i)
		}
	}

	if len(normals) == 0 {
		g.ComputeNormals()
	}
	if len(tangents) == 0 {
		g.ComputeTangents()
	}
	g.ComputeBounds()
	return g, nil
}

// errBadIndex marks a file that references an accessor or buffer view it does not have.
var errBadIndex = errors.New("index out of range")

func (b *builder) accessor(i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(b.doc.Accessors) || b.doc.Accessors[i] == nil {
		return nil, fmt.Errorf("accessor %d: %w (%d accessors)", i, errBadIndex, len(b.doc.Accessors))
	}
	acc := b.doc.Accessors[i]
	if acc.BufferView != nil {
		if _, err := b.bufferView(*acc.BufferView); err != nil {
			return nil, fmt.Errorf("accessor %d: %w", i, err)
		}
	}
	return acc, nil
}

func (b *builder) bufferView(i int) (*gltf.BufferView, error) {
	if i < 0 || i >= len(b.doc.BufferViews) || b.doc.BufferViews[i] == nil {
		return nil, fmt.Errorf("buffer view %d: %w (%d views)", i, errBadIndex, len(b.doc.BufferViews))
	}
	bv := b.doc.BufferViews[i]
	if bv.Buffer < 0 || bv.Buffer >= len(b.doc.Buffers) {
		return nil, fmt.Errorf("buffer %d: %w (%d buffers)", bv.Buffer, errBadIndex, len(b.doc.Buffers))
	}
	return bv, nil
}

// material converts a glTF metal/rough material.
func (b *builder) material(i int, gm *gltf.Material) *material.Material {
	m := material.Default()
	m.Name = gm.Name
	if m.Name == "" {
		m.Name = fmt.Sprintf("material_%d", i)
	}

	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		c := pbr.BaseColorFactorOrDefault()
		m.Color = [3]float32{float32(c[0]), float32(c[1]), float32(c[2])}
		m.Opacity = float32(c[3])
		m.Metalness = float32(pbr.MetallicFactorOrDefault())
		m.Roughness = float32(pbr.RoughnessFactorOrDefault())
		if pbr.BaseColorTexture != nil {
			m.Map = b.texture(pbr.BaseColorTexture.Index, true)
		}
		if pbr.MetallicRoughnessTexture != nil {
			t := b.texture(pbr.MetallicRoughnessTexture.Index, false)
			m.RoughnessMap, m.MetalnessMap = t, t
		}
	}
	if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
		m.NormalMap = b.texture(*gm.NormalTexture.Index, false)
		s := float32(gm.NormalTexture.ScaleOrDefault())
		m.NormalScale = [2]float32{s, s}
	}
	if gm.EmissiveTexture != nil {
		m.EmissiveMap = b.texture(gm.EmissiveTexture.Index, true)
	}
	m.Emissive = [3]float32{float32(gm.EmissiveFactor[0]), float32(gm.EmissiveFactor[1]), float32(gm.EmissiveFactor[2])}

	switch gm.AlphaMode {
	case gltf.AlphaBlend:
		m.Transparent = true
	case gltf.AlphaMask:
		m.AlphaTest = float32(gm.AlphaCutoffOrDefault())
	}
	if gm.DoubleSided {
		m.Side = material.SideDouble
	}

	var cc clearcoatExt
	if decodeExtension(gm.Extensions, "KHR_materials_clearcoat", &cc) {
		m.Clearcoat = cc.Factor
		m.ClearcoatRoughness = cc.Roughness
	}
	return m
}

type clearcoatExt struct {
	Factor    float32 `json:"clearcoatFactor"`
	Roughness float32 `json:"clearcoatRoughnessFactor"`
}

// texture decodes the image behind a glTF texture index. Images are decoded once
// and shared between textures. A failed image leaves the slot unset.
func (b *builder) texture(idx int, srgb bool) *material.Texture {
	doc := b.doc
	if idx < 0 || idx >= len(doc.Textures) || doc.Textures[idx].Source == nil {
		return nil
	}
	gt := doc.Textures[idx]
	src := *gt.Source
	if src < 0 || src >= len(doc.Images) {
		return nil
	}

	img, ok := b.images[src]
	if !ok {
		var err error
		img, err = b.image(doc.Images[src])
		if err != nil {
			b.log.Warn("texture image failed",
				zap.Int("image", src), zap.String("uri", doc.Images[src].URI), zap.Error(err))
		}
		b.images[src] = img
	}
	if img == nil {
		return nil
	}

	name := doc.Images[src].Name
	if name == "" {
		name = doc.Images[src].URI
	}
	if name == "" || strings.HasPrefix(name, "data:") {
		name = fmt.Sprintf("image_%d", src)
	}
	t := material.NewTextureFromImage(name, img, srgb)
	if gt.Sampler != nil && *gt.Sampler >= 0 && *gt.Sampler < len(doc.Samplers) {
		s := doc.Samplers[*gt.Sampler]
		t.WrapS, t.WrapT = wrapMode(s.WrapS), wrapMode(s.WrapT)
	}
	return t
}

func (b *builder) image(gi *gltf.Image) (image.Image, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case gi.BufferView != nil:
		var bv *gltf.BufferView
		if bv, err = b.bufferView(*gi.BufferView); err == nil {
			data, err = modeler.ReadBufferView(b.doc, bv)
		}
	case gi.IsEmbeddedResource():
		data, err = gi.MarshalData()
	case gi.URI != "":
		data, err = b.src.Load(b.ctx, assets.Resolve(b.base, gi.URI))
	default:
		return nil, errors.New("image has no data")
	}
	if err != nil {
		return nil, err
	}
	img, err := texture.Decode(data, gi.URI)
	if err != nil {
		return nil, err
	}
	return texture.ToRGBA(img), nil
}

func wrapMode(w gltf.WrappingMode) material.Wrap {
	switch w {
	case gltf.WrapClampToEdge:
		return material.WrapClamp
	case gltf.WrapMirroredRepeat:
		return material.WrapMirror
	default:
		return material.WrapRepeat
	}
}

// decodeExtension decodes a named extension into v. Unregistered extensions are
// kept by the decoder as raw JSON; registered ones are re-encoded first.
func decodeExtension(exts gltf.Extensions, name string, v any) bool {
	raw, ok := exts[name]
	if !ok {
		return false
	}
	var data []byte
	switch r := raw.(type) {
	case json.RawMessage:
		data = r
	case []byte:
		data = r
	default:
		var err error
		if data, err = json.Marshal(r); err != nil {
			return false
		}
	}
	return json.Unmarshal(data, v) == nil
}
