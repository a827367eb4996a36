package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/matview/internal/config"
	"github.com/Faultbox/matview/internal/engine/framebuffer"
	"github.com/Faultbox/matview/internal/gui"
	"github.com/Faultbox/matview/internal/logger"
)

// Desktop is the windowed front end: an ImGui control panel beside a viewport
// that shows the composed frame.
type Desktop struct {
	backend  *gui.Backend
	pipeline *pipeline
	core     *Core
	panel    *gui.Panel
	log      *zap.Logger
}

// NewDesktop creates the ImGui window and wires the viewer into it.
func NewDesktop(ctx context.Context, cfg *config.Config) (_ *Desktop, err error) {
	d := &Desktop{log: logger.Named("desktop")}
	var undo releaser
	defer func() {
		if err != nil {
			undo.release()
		}
	}()

	d.backend, err = gui.NewBackend(cfg.Window.Title, cfg.Window.Width, cfg.Window.Height)
	if err != nil {
		return nil, err
	}
	undo.add(d.backend.Destroy)

	w, h := cfg.Window.Width, cfg.Window.Height
	d.pipeline, err = newPipeline(cfg, w, h, true)
	if err != nil {
		return nil, err
	}
	// The composer owns its output once attached, so pipeline.close releases both.
	undo.add(d.pipeline.close)

	output, err := framebuffer.New(int32(w), int32(h), framebuffer.Options{})
	if err != nil {
		return nil, fmt.Errorf("viewport target: %w", err)
	}
	d.pipeline.composer.SetOutput(output)

	d.core, err = NewCore(ctx, cfg, d.pipeline.composer)
	if err != nil {
		return nil, err
	}
	d.panel = gui.NewPanel(d.backend, d.core.Viewer, d.pipeline.composer, output,
		d.core.Dispatch, cfg, d.core.Thumbs)
	undo.keep()
	return d, nil
}

// Run starts loading and blocks in the backend loop until the window closes.
func (d *Desktop) Run() error {
	d.core.Start()
	d.log.Info("starting frame loop")
	d.backend.Run(d.panel.Frame)
	return nil
}

// Close releases the viewer and GPU resources.
func (d *Desktop) Close() {
	d.log.Info("closing desktop")
	if d.core != nil {
		d.core.Close()
	}
	if d.pipeline != nil {
		d.pipeline.close()
	}
}
