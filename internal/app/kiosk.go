package app

import (
	"context"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/matview/internal/config"
	"github.com/Faultbox/matview/internal/engine/capture"
	"github.com/Faultbox/matview/internal/engine/framebuffer"
	"github.com/Faultbox/matview/internal/engine/input"
	"github.com/Faultbox/matview/internal/engine/window"
	"github.com/Faultbox/matview/internal/logger"
)

// Kiosk is a bare SDL window: the scene fills it and the keyboard cycles
// presets.
type Kiosk struct {
	cfg      *config.Config
	running  bool
	window   *window.Window
	input    *input.Input
	pipeline *pipeline
	core     *Core
	shots    *capture.Screenshots
	shoot    bool
	log      *zap.Logger
}

// NewKiosk opens the window and wires the viewer to it.
func NewKiosk(ctx context.Context, cfg *config.Config) (*Kiosk, error) {
	k := &Kiosk{
		cfg:   cfg,
		shots: capture.New(cfg.Viewer.ScreenshotDir, "matview"),
		log:   logger.Named("kiosk"),
	}
	k.log.Info("initializing kiosk",
		zap.String("title", cfg.Window.Title),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
	)

	var err error
	k.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The pipeline is created after the window, since the GL context must exist.
	w, h := k.window.DrawableSize()
	k.pipeline, err = newPipeline(cfg, w, h, false)
	if err != nil {
		k.window.Close()
		return nil, err
	}

	k.core, err = NewCore(ctx, cfg, k.pipeline.frameRenderer())
	if err != nil {
		k.pipeline.close()
		k.window.Close()
		return nil, err
	}
	k.core.Viewer.Resize(w, h)
	k.input = input.New()
	return k, nil
}

// Run starts loading and runs the frame loop until the window closes.
func (k *Kiosk) Run() error {
	k.core.Start()
	k.running = true

	var budget time.Duration
	if fps := k.cfg.Window.FPSLimit; fps > 0 {
		budget = time.Second / time.Duration(fps)
	}

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	k.log.Info("starting frame loop")
	for k.running {
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		if k.input.Update() {
			break
		}
		k.handleEvents()

		k.core.Viewer.Frame(float32(dt.Seconds()))
		if k.shoot {
			k.screenshot()
			k.shoot = false
		}
		k.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			k.log.Debug("fps", zap.Int("count", frameCount), zap.Duration("dt", dt))
			frameCount = 0
			fpsTimer = time.Now()
		}
		if budget > 0 {
			if spent := time.Since(now); spent < budget {
				time.Sleep(budget - spent)
			}
		}
	}
	return nil
}

func (k *Kiosk) handleEvents() {
	v := k.core.Viewer
	sel := v.State().Selection
	for _, e := range k.input.Events() {
		switch e.Type {
		case input.EventWindowResize:
			v.Resize(k.window.DrawableSize())
		case input.EventKeyDown:
			if e.Repeat {
				continue
			}
			var err error
			switch keyAction(e.Key) {
			case actionQuit:
				k.running = false
			case actionNextPreset:
				err = sel.Cycle(1)
			case actionPrevPreset:
				err = sel.Cycle(-1)
			case actionNextVariant:
				err = sel.CycleVariant(1)
			case actionResetCamera:
				v.ResetCamera()
			case actionScreenshot:
				k.shoot = true
			}
			if err != nil {
				k.log.Debug("key ignored", zap.Error(err))
			}
		case input.EventMouseMove:
			switch {
			case k.input.ButtonDown(sdl.BUTTON_LEFT):
				v.HandleDrag(e.DeltaX, e.DeltaY)
			case k.input.ButtonDown(sdl.BUTTON_RIGHT):
				v.HandlePan(e.DeltaX, e.DeltaY)
			}
		case input.EventMouseWheel:
			v.HandleZoom(e.DeltaY)
		case input.EventDropFile:
			if err := v.DropFile(e.Path); err != nil {
				k.log.Warn("dropped file rejected", zap.String("path", e.Path), zap.Error(err))
			}
		}
	}
}

// screenshot saves the back buffer before it is swapped.
func (k *Kiosk) screenshot() {
	w, h := k.window.DrawableSize()
	pixels := framebuffer.ReadPixels(int32(w), int32(h))
	path, err := k.shots.Save(pixels, w, h, k.core.Viewer.State().Selection.Current())
	if err != nil {
		k.log.Error("screenshot failed", zap.Error(err))
		return
	}
	k.log.Info("screenshot saved", zap.String("path", path))
}

// Close releases the viewer, GPU resources and the window.
func (k *Kiosk) Close() {
	k.log.Info("closing kiosk")
	if k.core != nil {
		k.core.Close()
	}
	if k.pipeline != nil {
		k.pipeline.close()
	}
	if k.window != nil {
		k.window.Close()
	}
}
