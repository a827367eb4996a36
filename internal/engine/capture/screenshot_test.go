package capture

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
}

func TestFilename(t *testing.T) {
	tests := []struct {
		dir, label string
		want       string
	}{
		{"", "material1", "matview_material1_2026-03-14_09-26-53.png"},
		{"", "", "matview_2026-03-14_09-26-53.png"},
		{"shots", "oak wood.v2", filepath.Join("shots", "matview_oak-wood-v2_2026-03-14_09-26-53.png")},
		{"", "a/b", "matview_ab_2026-03-14_09-26-53.png"},
	}
	for _, tt := range tests {
		s := New(tt.dir, "matview")
		s.now = fixedClock
		if got := s.Filename(tt.label); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestSaveFlipsRows(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s := New(dir, "shot")
	s.now = fixedClock

	// 1x2 image: bottom row red, top row blue (OpenGL order).
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	path, err := s.Save(pixels, 1, 2, "test")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if r, _, b, _ := img.At(0, 0).RGBA(); r != 0 || b == 0 {
		t.Errorf("top row should be blue, got r=%d b=%d", r, b)
	}
	if r, _, _, _ := img.At(0, 1).RGBA(); r == 0 {
		t.Error("bottom row should be red")
	}
}

func TestSaveSizeMismatch(t *testing.T) {
	s := New(t.TempDir(), "shot")
	if _, err := s.Save(make([]byte, 7), 1, 2, ""); err == nil {
		t.Fatal("expected size mismatch error")
	}
}
