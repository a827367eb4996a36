// Package capture saves rendered frames as PNG files.
package capture

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
)

// Screenshots writes frames to a directory with timestamped names.
type Screenshots struct {
	outputDir string
	prefix    string
	now       func() time.Time
}

// New creates a screenshot writer. An empty outputDir writes to the working directory.
func New(outputDir, prefix string) *Screenshots {
	return &Screenshots{
		outputDir: outputDir,
		prefix:    prefix,
		now:       time.Now,
	}
}

// Filename returns the path a screenshot taken now would get. label, usually the
// active preset, is folded into the name.
func (s *Screenshots) Filename(label string) string {
	parts := []string{s.prefix}
	if label = sanitize(label); label != "" {
		parts = append(parts, label)
	}
	parts = append(parts, s.now().Format("2006-01-02_15-04-05"))
	name := strings.Join(parts, "_") + ".png"
	if s.outputDir != "" {
		name = filepath.Join(s.outputDir, name)
	}
	return name
}

// Save writes RGBA pixels read back from OpenGL. Rows are bottom-up and are
// flipped on the way out.
func (s *Screenshots) Save(pixels []byte, width, height int, label string) (string, error) {
	if len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}
	img := &image.RGBA{Pix: pixels, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	return s.SaveImage(transform.FlipV(img), label)
}

// SaveImage writes img as a PNG.
func (s *Screenshots) SaveImage(img image.Image, label string) (string, error) {
	if s.outputDir != "" {
		if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}
	filename := s.Filename(label)
	if err := imgio.Save(filename, img, imgio.PNGEncoder()); err != nil {
		return "", fmt.Errorf("saving %s: %w", filename, err)
	}
	return filename, nil
}

// sanitize keeps letters, digits, '-' and '_'.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ' || r == '.':
			return '-'
		}
		return -1
	}, s)
}
