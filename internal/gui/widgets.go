package gui

import (
	"fmt"

	"github.com/Faultbox/matview/internal/viewer"
)

// progress returns the bar fraction and label for done of total models.
func progress(done, total int) (float32, string) {
	if total <= 0 {
		return 1, "no models"
	}
	if done >= total {
		return 1, fmt.Sprintf("%d models loaded", total)
	}
	return float32(done) / float32(total), fmt.Sprintf("loading %d/%d", done, total)
}

// indexOf returns the index of cur in names, or fallback clamped into range when
// cur is absent.
func indexOf(names []string, cur string, fallback int) int {
	for i, n := range names {
		if n == cur {
			return i
		}
	}
	if fallback < 0 || fallback >= len(names) {
		return 0
	}
	return fallback
}

// at returns names[i], or "" when i is out of range.
func at(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return ""
	}
	return names[i]
}

// controlsDisabled reports whether preset and variant controls are greyed out.
// They stay disabled until every queued model is in the scene.
func controlsDisabled(st *viewer.State) bool {
	return st.Selection == nil || !st.ModelsReady || !st.Selection.Ready()
}
