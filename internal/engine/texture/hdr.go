package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
)

// HDR is a linear floating-point RGB image, as read from a Radiance .hdr file.
type HDR struct {
	Pix    []float32 // RGB triplets, row-major, top row first
	Stride int       // floats per row
	Rect   image.Rectangle
}

// NewHDR allocates a black HDR image.
func NewHDR(w, h int) *HDR {
	return &HDR{
		Pix:    make([]float32, w*h*3),
		Stride: w * 3,
		Rect:   image.Rect(0, 0, w, h),
	}
}

func (h *HDR) ColorModel() color.Model { return color.RGBA64Model }

func (h *HDR) Bounds() image.Rectangle { return h.Rect }

// At returns the pixel clamped to [0,1]. Use RGB for unclamped radiance.
func (h *HDR) At(x, y int) color.Color {
	r, g, b := h.RGB(x, y)
	return color.RGBA64{R: clamp16(r), G: clamp16(g), B: clamp16(b), A: 0xffff}
}

// RGB returns the linear radiance at (x, y).
func (h *HDR) RGB(x, y int) (r, g, b float32) {
	if !(image.Point{x, y}.In(h.Rect)) {
		return 0, 0, 0
	}
	i := (y-h.Rect.Min.Y)*h.Stride + (x-h.Rect.Min.X)*3
	return h.Pix[i], h.Pix[i+1], h.Pix[i+2]
}

func clamp16(v float32) uint16 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 0xffff
	default:
		return uint16(v*0xffff + 0.5)
	}
}

// IsHDR reports whether data starts with a Radiance signature.
func IsHDR(data []byte) bool {
	return bytes.HasPrefix(data, []byte("#?RADIANCE")) || bytes.HasPrefix(data, []byte("#?RGBE"))
}

// DecodeHDR decodes a Radiance RGBE image into linear float radiance.
func DecodeHDR(r io.Reader) (*HDR, error) {
	m, err := rgbe.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("hdr: %w", err)
	}
	src, ok := any(m).(hdr.Image)
	if !ok {
		return nil, fmt.Errorf("hdr: unexpected image type %T", m)
	}

	b := src.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("hdr: invalid size %dx%d", b.Dx(), b.Dy())
	}
	img := NewHDR(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := src.HDRAt(b.Min.X+x, b.Min.Y+y).HDRRGBA()
			row[x*3], row[x*3+1], row[x*3+2] = float32(r), float32(g), float32(bl)
		}
	}
	return img, nil
}
