package postfx

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/matview/internal/engine/framebuffer"
)

// Options selects and tunes the standard chain.
type Options struct {
	SSAO     bool
	Params   SSAOParams
	FXAA     bool
	Exposure float32
	ToneMap  bool
}

// Build creates the standard chain: render, SSAO, FXAA, output. Disabled passes
// are still created so they can be toggled at runtime.
func Build(drawer SceneDrawer, width, height int, opts Options) (*Composer, error) {
	fbOpts := framebuffer.Options{HDR: true, DepthTexture: true}
	read, err := framebuffer.New(int32(width), int32(height), fbOpts)
	if err != nil {
		return nil, err
	}
	write, err := framebuffer.New(int32(width), int32(height), fbOpts)
	if err != nil {
		read.Destroy()
		return nil, err
	}

	c := NewComposer(read, write, width, height)
	c.AddPass(NewRenderPass(drawer))

	ssao, err := NewSSAOPass(opts.Params)
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("ssao pass: %w", err)
	}
	ssao.SetEnabled(opts.SSAO)
	c.AddPass(ssao)

	fxaa, err := NewFXAAPass()
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("fxaa pass: %w", err)
	}
	fxaa.SetEnabled(opts.FXAA)
	c.AddPass(fxaa)

	output, err := NewOutputPass(opts.Exposure, opts.ToneMap)
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("output pass: %w", err)
	}
	c.AddPass(output)

	c.log.Info("post-processing ready",
		zap.Bool("ssao", opts.SSAO),
		zap.Bool("fxaa", opts.FXAA),
	)
	return c, nil
}
