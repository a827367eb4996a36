package material

import (
	"image"

	"go.uber.org/zap"

	"github.com/Faultbox/matview/internal/async"
	"github.com/Faultbox/matview/internal/catalog"
	"github.com/Faultbox/matview/internal/logger"
)

// TextureLoader starts an asynchronous image load. Implementations log their own
// failures; the factory only skips the slot.
type TextureLoader interface {
	Load(path string) *async.Future[image.Image]
}

// Factory builds materials from catalog presets.
type Factory struct {
	loader   TextureLoader
	dispatch async.Dispatcher
	log      *zap.Logger
}

// NewFactory creates a factory. Texture completions are applied through d so that
// material mutation stays on the main thread.
func NewFactory(loader TextureLoader, d async.Dispatcher) *Factory {
	return &Factory{
		loader:   loader,
		dispatch: d,
		log:      logger.Named("material"),
	}
}

// Create returns a new material for p. All visible properties are set before it
// returns; the three textures fill in later as their loads complete.
func (f *Factory) Create(p catalog.Preset) *Material {
	m := Default()
	m.Name = p.Name
	m.Color = p.Diffuse
	m.Metalness = p.Metalness
	m.Roughness = p.Roughness()
	m.Opacity = p.Opacity
	m.Transparent = true
	m.AlphaTest = p.AlphaTest
	m.DepthWrite = p.DepthWrite
	m.DepthTest = p.DepthTest
	m.Emissive = p.Emissive
	m.EmissiveIntensity = p.EmissiveIntensity
	m.Clearcoat = p.Clearcoat
	m.ClearcoatRoughness = p.ClearcoatRoughness
	m.Reflectivity = p.Reflectivity
	if p.TwoSidedLighting {
		m.Side = SideDouble
	}

	m.Map = f.load(m, p.DiffuseMap, p.DiffuseMapTiling, true)
	m.RoughnessMap = f.load(m, p.GlossMap, p.GlossMapTiling, false)
	m.NormalMap = f.load(m, p.NormalMap, p.NormalMapTiling, false)

	f.log.Debug("material created",
		zap.String("preset", p.Name),
		zap.Int("textures", len(m.Textures())),
	)
	return m
}

// ApplyOverride replaces texture slots of a loaded model's material with the
// override's textures. Each texture is loaded independently.
func (f *Factory) ApplyOverride(m *Material, o catalog.Override) {
	if o.AlbedoMap != "" {
		m.Map = f.load(m, o.AlbedoMap, repeatOf(m.Map), true)
	}
	if o.NormalMap != "" {
		m.NormalMap = f.load(m, o.NormalMap, repeatOf(m.NormalMap), false)
	}
	if o.RoughnessMap != "" {
		m.RoughnessMap = f.load(m, o.RoughnessMap, repeatOf(m.RoughnessMap), false)
	}
	m.Touch()
}

// LoadTexture starts a load for a texture that belongs to no material, such as a
// thumbnail source.
func (f *Factory) LoadTexture(path string, srgb bool) *Texture {
	return f.load(nil, path, [2]float32{1, 1}, srgb)
}

func (f *Factory) load(m *Material, path string, repeat [2]float32, srgb bool) *Texture {
	if path == "" {
		return nil
	}
	t := NewTexture(path, repeat, srgb)
	if f.loader == nil {
		return t
	}
	async.OnComplete(f.loader.Load(path), f.dispatch, func(img image.Image, err error) {
		if err != nil {
			return
		}
		t.SetImage(img)
		if m != nil {
			m.Touch()
		}
	})
	return t
}

func repeatOf(t *Texture) [2]float32 {
	if t == nil {
		return [2]float32{1, 1}
	}
	return t.Repeat
}
