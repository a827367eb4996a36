package viewer

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/matview/internal/async"
	"github.com/Faultbox/matview/internal/catalog"
	"github.com/Faultbox/matview/internal/engine/material"
	"github.com/Faultbox/matview/internal/engine/texture"
	"github.com/Faultbox/matview/internal/logger"
)

// Thumbnails builds a small preview image per preset: the diffuse map cropped
// and scaled, tinted by the preset color, or a flat swatch when there is no map
// or it fails to load. Results land on the main thread.
type Thumbnails struct {
	loader   material.TextureLoader
	dispatch async.Dispatcher
	size     int
	log      *zap.Logger

	mu      sync.Mutex
	images  map[string]*image.RGBA
	pending int
}

// NewThumbnails creates a thumbnail set of size x size images. A nil loader
// gives swatches only.
func NewThumbnails(loader material.TextureLoader, d async.Dispatcher, size int) *Thumbnails {
	if size <= 0 {
		size = 64
	}
	return &Thumbnails{
		loader:   loader,
		dispatch: d,
		size:     size,
		log:      logger.Named("thumbnails"),
		images:   make(map[string]*image.RGBA),
	}
}

// Request starts a thumbnail for every preset of c. Presets that already have
// one are skipped. Must run on the main thread.
func (t *Thumbnails) Request(c *catalog.Catalog) {
	for _, name := range c.Names() {
		p, _ := c.Get(name)
		if _, ok := t.Get(name); ok {
			continue
		}
		if p.DiffuseMap == "" || t.loader == nil {
			t.set(name, Swatch(p.Diffuse, t.size))
			continue
		}

		t.mu.Lock()
		t.pending++
		t.mu.Unlock()

		async.OnComplete(t.loader.Load(p.DiffuseMap), t.dispatch, func(img image.Image, err error) {
			t.mu.Lock()
			t.pending--
			t.mu.Unlock()
			if err != nil {
				t.log.Debug("thumbnail falls back to swatch", zap.String("preset", p.Name), zap.Error(err))
				t.set(p.Name, Swatch(p.Diffuse, t.size))
				return
			}
			t.set(p.Name, tint(texture.Thumbnail(img, t.size), p.Diffuse))
		})
	}
}

// Get returns the thumbnail for a preset once it is built.
func (t *Thumbnails) Get(name string) (*image.RGBA, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	img, ok := t.images[name]
	return img, ok
}

// Pending returns the number of thumbnails still loading.
func (t *Thumbnails) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

func (t *Thumbnails) set(name string, img *image.RGBA) {
	t.mu.Lock()
	t.images[name] = img
	t.mu.Unlock()
}

// Swatch returns a size x size image of one linear color.
func Swatch(c [3]float32, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: toRGBA(c)}, image.Point{}, draw.Src)
	return img
}

// tint multiplies img by c in place.
func tint(img *image.RGBA, c [3]float32) *image.RGBA {
	if c == [3]float32{1, 1, 1} {
		return img
	}
	for i := 0; i+3 < len(img.Pix); i += 4 {
		for ch := 0; ch < 3; ch++ {
			img.Pix[i+ch] = uint8(float32(img.Pix[i+ch]) * clamp01(c[ch]))
		}
	}
	return img
}

func toRGBA(c [3]float32) color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c[0])*255 + 0.5),
		G: uint8(clamp01(c[1])*255 + 0.5),
		B: uint8(clamp01(c[2])*255 + 0.5),
		A: 255,
	}
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}
