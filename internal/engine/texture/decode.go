package texture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"  // BMP decoder registration
	_ "golang.org/x/image/tiff" // TIFF decoder registration
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// sniffable lists the formats trusted from magic bytes alone.
var sniffable = map[string]bool{
	"png": true, "jpg": true, "gif": true, "bmp": true, "tif": true, "webp": true,
}

// Format names a detected image encoding.
func Format(data []byte, name string) string {
	if IsHDR(data) {
		return "hdr"
	}
	if kind, err := filetype.Match(data); err == nil && sniffable[kind.Extension] {
		return kind.Extension
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// Decode decodes an image, detecting the format from its magic bytes and falling
// back to the file extension of name for formats without one (TGA).
func Decode(data []byte, name string) (image.Image, error) {
	switch f := Format(data, name); f {
	case "hdr":
		return DecodeHDR(bytes.NewReader(data))
	case "tga":
		return DecodeTGA(data)
	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding %s (%s): %w", name, f, err)
		}
		return img, nil
	}
}

// ToRGBA returns img as *image.RGBA, copying only when needed.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	return clone.AsRGBA(img)
}

// FlipY returns a vertically flipped copy, matching OpenGL's bottom-up row order.
func FlipY(img image.Image) *image.RGBA {
	return transform.FlipV(img)
}

// Thumbnail returns a size x size preview of img, center-cropped to a square.
func Thumbnail(img image.Image, size int) *image.RGBA {
	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	if side == 0 || size <= 0 {
		return image.NewRGBA(image.Rect(0, 0, max(size, 0), max(size, 0)))
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	square := transform.Crop(img, image.Rect(x0, y0, x0+side, y0+side))
	return transform.Resize(square, size, size, transform.Linear)
}
