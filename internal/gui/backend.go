// Package gui is the desktop front end: an ImGui panel for preset, variant and
// post-processing control next to the rendered viewport.
package gui

import (
	"fmt"
	"image"
	"os"

	"github.com/AllenDang/cimgui-go/backend"
	"github.com/AllenDang/cimgui-go/backend/sdlbackend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/matview/internal/logger"
)

// fontPaths are tried in order; the first that exists replaces the built-in font.
var fontPaths = []string{
	"/System/Library/Fonts/SFNS.ttf",                      // macOS
	"/Library/Fonts/Arial Unicode.ttf",                    // macOS (symlink)
	"C:\\Windows\\Fonts\\segoeui.ttf",                     // Windows
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",     // Linux
	"/usr/share/fonts/TTF/DejaVuSans.ttf",                 // Linux alt
	"/usr/share/fonts/truetype/noto/NotoSans-Regular.ttf", // Linux alt
}

// Backend wraps the ImGui SDL backend.
type Backend struct {
	backend backend.Backend[sdlbackend.SDLWindowFlags]
	log     *zap.Logger
	ran     bool
}

// NewBackend creates the ImGui window and its OpenGL context.
func NewBackend(title string, width, height int) (*Backend, error) {
	b := &Backend{log: logger.Named("gui")}

	var err error
	b.backend, err = backend.CreateBackend(sdlbackend.NewSDLBackend())
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	b.backend.SetAfterCreateContextHook(b.loadFont)
	b.backend.SetBgColor(imgui.NewVec4(0.1, 0.1, 0.12, 1.0))
	b.backend.CreateWindow(title, width, height)

	if err := gl.Init(); err != nil {
		b.Destroy()
		return nil, fmt.Errorf("init opengl: %w", err)
	}
	return b, nil
}

func (b *Backend) loadFont() {
	for _, path := range fontPaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		fontCfg := imgui.NewFontConfig()
		defer fontCfg.Destroy()
		imgui.CurrentIO().Fonts().AddFontFromFileTTFV(path, 16.0, fontCfg, nil)
		b.log.Debug("font loaded", zap.String("path", path))
		return
	}
}

// Run runs the backend loop, calling frame once per frame, until the window closes.
func (b *Backend) Run(frame func()) {
	b.ran = true
	b.backend.Run(frame)
}

// Destroy closes a window whose loop never ran. The backend only tears down its
// window and GL context when its loop exits, so this runs a single empty frame
// with the close flag already set.
func (b *Backend) Destroy() {
	if b.ran {
		return
	}
	b.ran = true
	b.backend.SetShouldClose(true)
	b.backend.Run(func() {})
}

// OnDrop registers a handler for files dropped on the window.
func (b *Backend) OnDrop(fn func(paths []string)) {
	b.backend.SetDropCallback(fn)
}

// SetWindowTitle updates the window title.
func (b *Backend) SetWindowTitle(title string) {
	b.backend.SetWindowTitle(title)
}

// NewTexture uploads an RGBA image for use with imgui.Image.
func (b *Backend) NewTexture(img *image.RGBA) *backend.Texture {
	return backend.NewTextureFromRgba(img)
}
