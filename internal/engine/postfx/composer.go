// Package postfx chains full-screen passes after the scene render: ambient
// occlusion, anti-aliasing and the tone-mapped output transform.
package postfx

import (
	"go.uber.org/zap"

	"github.com/Faultbox/matview/internal/engine/camera"
	"github.com/Faultbox/matview/internal/engine/scene"
	"github.com/Faultbox/matview/internal/logger"
)

// Target is an offscreen color+depth buffer. *framebuffer.Framebuffer satisfies it.
type Target interface {
	Bind()
	ColorTexture() uint32
	DepthTexture() uint32
	Resize(width, height int32)
	Destroy()
}

// Frame is what a pass sees. Passes read from Read and write to Write, or to
// Output when Final is set.
type Frame struct {
	Scene  *scene.Scene
	Camera *camera.Perspective
	Read   Target
	Write  Target
	// Output is the final destination; nil means the window.
	Output Target
	// Depth is the scene depth written by the render pass.
	Depth  uint32
	Width  int
	Height int
	Final  bool
}

// Pass is one step of the chain.
type Pass interface {
	Name() string
	Enabled() bool
	SetEnabled(bool)
	SetSize(width, height int)
	Render(f *Frame)
	// NeedsSwap reports whether the pass wrote to Write, making it the next Read.
	NeedsSwap() bool
}

// Base carries the state shared by every pass.
type Base struct {
	name    string
	enabled bool
	width   int
	height  int
}

// NewBase returns an enabled pass base.
func NewBase(name string) Base {
	return Base{name: name, enabled: true}
}

func (b *Base) Name() string              { return b.name }
func (b *Base) Enabled() bool             { return b.enabled }
func (b *Base) SetEnabled(on bool)        { b.enabled = on }
func (b *Base) Size() (w, h int)          { return b.width, b.height }
func (b *Base) SetSize(width, height int) { b.width, b.height = width, height }
func (b *Base) NeedsSwap() bool           { return true }

// Composer runs its passes in order over two ping-pong targets. The last enabled
// pass draws to the window.
type Composer struct {
	passes []Pass
	read   Target
	write  Target
	output Target
	width  int
	height int
	log    *zap.Logger
}

// NewComposer creates a composer over two targets sized w x h.
func NewComposer(read, write Target, width, height int) *Composer {
	return &Composer{
		read:   read,
		write:  write,
		width:  width,
		height: height,
		log:    logger.Named("postfx"),
	}
}

// AddPass appends p and sizes it to the composer.
func (c *Composer) AddPass(p Pass) {
	p.SetSize(c.width, c.height)
	c.passes = append(c.passes, p)
}

// Passes returns the passes in order.
func (c *Composer) Passes() []Pass {
	return append([]Pass(nil), c.passes...)
}

// Pass returns the pass with the given name.
func (c *Composer) Pass(name string) (Pass, bool) {
	for _, p := range c.passes {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// SetOutput directs the last pass into t instead of the window. nil restores
// the window.
func (c *Composer) SetOutput(t Target) {
	c.output = t
	if t != nil {
		t.Resize(int32(c.width), int32(c.height))
	}
}

// Output returns the offscreen destination, or nil for the window.
func (c *Composer) Output() Target {
	return c.output
}

// SetSize resizes the targets and every pass. Repeating the current size does nothing.
func (c *Composer) SetSize(width, height int) {
	if width <= 0 || height <= 0 || (width == c.width && height == c.height) {
		return
	}
	c.width, c.height = width, height
	c.read.Resize(int32(width), int32(height))
	c.write.Resize(int32(width), int32(height))
	if c.output != nil {
		c.output.Resize(int32(width), int32(height))
	}
	for _, p := range c.passes {
		p.SetSize(width, height)
	}
	c.log.Debug("composer resized", zap.Int("width", width), zap.Int("height", height))
}

// Size returns the current drawing size.
func (c *Composer) Size() (width, height int) {
	return c.width, c.height
}

// Resize is SetSize under the name the viewer expects.
func (c *Composer) Resize(width, height int) {
	c.SetSize(width, height)
}

// Render runs the enabled passes for one frame.
func (c *Composer) Render(s *scene.Scene, cam *camera.Perspective) {
	last := -1
	for i, p := range c.passes {
		if p.Enabled() {
			last = i
		}
	}
	if last < 0 {
		return
	}

	f := &Frame{
		Scene:  s,
		Camera: cam,
		Output: c.output,
		Width:  c.width,
		Height: c.height,
	}
	for i, p := range c.passes {
		if !p.Enabled() {
			continue
		}
		f.Read, f.Write = c.read, c.write
		f.Final = i == last
		p.Render(f)
		if p.NeedsSwap() && !f.Final {
			c.read, c.write = c.write, c.read
		}
	}
}

// Prepare forwards the scene to passes that keep per-scene state.
func (c *Composer) Prepare(s *scene.Scene) {
	for _, p := range c.passes {
		if pr, ok := p.(interface{ Prepare(*scene.Scene) }); ok {
			pr.Prepare(s)
		}
	}
}

// Destroy releases the targets and any pass resources.
func (c *Composer) Destroy() {
	for _, p := range c.passes {
		if d, ok := p.(interface{ Destroy() }); ok {
			d.Destroy()
		}
	}
	c.read.Destroy()
	c.write.Destroy()
	if c.output != nil {
		c.output.Destroy()
	}
}
