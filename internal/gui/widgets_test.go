package gui

import (
	"testing"

	"github.com/Faultbox/matview/internal/viewer"
)

func TestProgress(t *testing.T) {
	tests := []struct {
		done, total int
		frac        float32
		label       string
	}{
		{0, 0, 1, "no models"},
		{0, 3, 0, "loading 0/3"},
		{1, 4, 0.25, "loading 1/4"},
		{3, 3, 1, "3 models loaded"},
	}
	for _, tt := range tests {
		frac, label := progress(tt.done, tt.total)
		if frac != tt.frac || label != tt.label {
			t.Errorf("progress(%d, %d) = %v, %q; want %v, %q", tt.done, tt.total, frac, label, tt.frac, tt.label)
		}
	}
}

func TestIndexOf(t *testing.T) {
	names := []string{"material1", "material2", "material10"}
	tests := []struct {
		cur      string
		fallback int
		want     int
	}{
		{"material2", 0, 1},
		{"", 2, 2},
		{"gone", 7, 0},
		{"gone", -1, 0},
	}
	for _, tt := range tests {
		if got := indexOf(names, tt.cur, tt.fallback); got != tt.want {
			t.Errorf("indexOf(%q, %d) = %d, want %d", tt.cur, tt.fallback, got, tt.want)
		}
	}
	if at(names, 5) != "" || at(names, 0) != "material1" {
		t.Error("at out of range")
	}
}

func TestControlsDisabled(t *testing.T) {
	ready := viewer.NewSelection(nil, nil)
	ready.MarkReady()

	tests := []struct {
		name string
		st   *viewer.State
		want bool
	}{
		{"no selection", &viewer.State{}, true},
		{"loading", &viewer.State{Selection: viewer.NewSelection(nil, nil)}, true},
		{"selection ready before finalize", &viewer.State{Selection: ready}, true},
		{"ready", &viewer.State{Selection: ready, ModelsReady: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := controlsDisabled(tt.st); got != tt.want {
				t.Errorf("controlsDisabled = %v, want %v", got, tt.want)
			}
		})
	}
}
