package app

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func TestKeyAction(t *testing.T) {
	tests := []struct {
		key  sdl.Scancode
		want action
	}{
		{sdl.SCANCODE_ESCAPE, actionQuit},
		{sdl.SCANCODE_RIGHT, actionNextPreset},
		{sdl.SCANCODE_SPACE, actionNextPreset},
		{sdl.SCANCODE_LEFT, actionPrevPreset},
		{sdl.SCANCODE_V, actionNextVariant},
		{sdl.SCANCODE_R, actionResetCamera},
		{sdl.SCANCODE_S, actionScreenshot},
		{sdl.SCANCODE_A, actionNone},
	}
	for _, tt := range tests {
		if got := keyAction(tt.key); got != tt.want {
			t.Errorf("keyAction(%v) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
