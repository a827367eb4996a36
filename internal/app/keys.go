package app

import "github.com/veandco/go-sdl2/sdl"

// action is a kiosk keyboard command.
type action int

const (
	actionNone action = iota
	actionQuit
	actionNextPreset
	actionPrevPreset
	actionNextVariant
	actionResetCamera
	actionScreenshot
)

var keyActions = map[sdl.Scancode]action{
	sdl.SCANCODE_ESCAPE: actionQuit,
	sdl.SCANCODE_RIGHT:  actionNextPreset,
	sdl.SCANCODE_SPACE:  actionNextPreset,
	sdl.SCANCODE_LEFT:   actionPrevPreset,
	sdl.SCANCODE_V:      actionNextVariant,
	sdl.SCANCODE_R:      actionResetCamera,
	sdl.SCANCODE_S:      actionScreenshot,
}

// keyAction maps a pressed key to its kiosk command.
func keyAction(key sdl.Scancode) action {
	return keyActions[key]
}
