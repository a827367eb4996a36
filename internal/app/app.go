// Package app assembles the viewer services and drives them from a window loop.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/matview/internal/assets"
	"github.com/Faultbox/matview/internal/async"
	"github.com/Faultbox/matview/internal/config"
	"github.com/Faultbox/matview/internal/engine/loader"
	"github.com/Faultbox/matview/internal/engine/postfx"
	"github.com/Faultbox/matview/internal/engine/renderer"
	"github.com/Faultbox/matview/internal/engine/texture"
	"github.com/Faultbox/matview/internal/logger"
	"github.com/Faultbox/matview/internal/viewer"
)

// Core holds everything that does not need a GPU: asset access, the loaders,
// the main-thread dispatcher and the viewer controller.
type Core struct {
	Assets   *assets.Manager
	Textures *texture.Loader
	Models   *loader.GLTFLoader
	Dispatch *async.Queue
	Viewer   *viewer.Controller
	Thumbs   *viewer.Thumbnails

	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

// NewCore wires the services for cfg. r may be nil for a headless viewer.
func NewCore(ctx context.Context, cfg *config.Config, r viewer.FrameRenderer) (*Core, error) {
	ctx, cancel := context.WithCancel(ctx)
	c := &Core{
		Assets:   assets.NewManager(cfg.Viewer.FetchTimeout),
		Dispatch: async.NewQueue(),
		ctx:      ctx,
		cancel:   cancel,
		log:      logger.Named("app"),
	}
	for _, root := range cfg.Viewer.AssetRoots {
		if err := c.Assets.AddRoot(root); err != nil {
			cancel()
			return nil, err
		}
	}

	c.Textures = texture.NewLoader(ctx, c.Assets)
	c.Models = loader.NewGLTFLoader(c.Assets)

	var err error
	c.Viewer, err = viewer.New(cfg, viewer.Deps{
		Assets:   c.Assets,
		Models:   c.Models,
		Textures: c.Textures,
		HDR:      c.Textures,
		Dispatch: c.Dispatch,
		Renderer: r,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create viewer: %w", err)
	}
	c.Thumbs = viewer.NewThumbnails(c.Textures, c.Dispatch, cfg.Viewer.ThumbnailSize)
	return c, nil
}

// Start begins loading the catalog and the model queue.
func (c *Core) Start() {
	c.log.Info("starting viewer")
	c.Viewer.Start(c.ctx)
}

// Close cancels outstanding loads and waits for the viewer's goroutines.
func (c *Core) Close() {
	c.cancel()
	c.Viewer.Close()
}

// pipeline is the GPU side: the rasterizer and, when post-processing is on,
// the compositor that drives it.
type pipeline struct {
	renderer *renderer.Renderer
	composer *postfx.Composer
}

// newPipeline creates the renderer for cfg. forceComposer builds the chain even
// with post-processing disabled, for callers that need an offscreen output.
func newPipeline(cfg *config.Config, width, height int, forceComposer bool) (*pipeline, error) {
	toneMap := cfg.Renderer.ToneMapping == "aces"
	usePost := cfg.PostFX.Enabled || forceComposer

	r, err := renderer.New(renderer.Config{
		Width:            width,
		Height:           height,
		Shadows:          cfg.Renderer.Shadows,
		ShadowResolution: cfg.Renderer.ShadowResolution,
		ToneMap:          toneMap && !usePost,
		Exposure:         cfg.Renderer.Exposure,
	})
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	p := &pipeline{renderer: r}
	if !usePost {
		return p, nil
	}

	p.composer, err = postfx.Build(r, width, height, postfx.Options{
		SSAO: cfg.PostFX.Enabled && cfg.PostFX.SSAO.Enabled,
		Params: postfx.SSAOParams{
			KernelRadius: cfg.PostFX.SSAO.KernelRadius,
			MinDistance:  cfg.PostFX.SSAO.MinDistance,
			MaxDistance:  cfg.PostFX.SSAO.MaxDistance,
		},
		FXAA:     cfg.PostFX.Enabled && cfg.PostFX.FXAA,
		Exposure: cfg.Renderer.Exposure,
		ToneMap:  toneMap,
	})
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("create post-processing: %w", err)
	}
	return p, nil
}

// frameRenderer returns what the viewer should call each frame.
func (p *pipeline) frameRenderer() viewer.FrameRenderer {
	if p.composer != nil {
		return p.composer
	}
	return p.renderer
}

func (p *pipeline) close() {
	if p.composer != nil {
		p.composer.Destroy()
	}
	p.renderer.Close()
}
