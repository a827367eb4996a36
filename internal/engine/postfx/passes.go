package postfx

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/matview/internal/engine/camera"
	"github.com/Faultbox/matview/internal/engine/scene"
	"github.com/Faultbox/matview/internal/engine/shader"
	"github.com/Faultbox/matview/internal/engine/shaders"
)

// Pass names.
const (
	NameRender = "render"
	NameSSAO   = "ssao"
	NameFXAA   = "fxaa"
	NameOutput = "output"
)

// SceneDrawer draws a scene into the bound framebuffer. *renderer.Renderer satisfies it.
type SceneDrawer interface {
	Draw(s *scene.Scene, cam *camera.Perspective, toneMap bool)
	Prepare(s *scene.Scene)
}

// RenderPass draws the scene in linear HDR into the write target.
type RenderPass struct {
	Base
	drawer SceneDrawer
}

// NewRenderPass wraps drawer.
func NewRenderPass(drawer SceneDrawer) *RenderPass {
	return &RenderPass{Base: NewBase(NameRender), drawer: drawer}
}

func (p *RenderPass) Render(f *Frame) {
	if f.Final {
		bindOutput(f)
		p.drawer.Draw(f.Scene, f.Camera, true)
		return
	}
	f.Write.Bind()
	p.drawer.Draw(f.Scene, f.Camera, false)
	f.Depth = f.Write.DepthTexture()
}

func (p *RenderPass) Prepare(s *scene.Scene) {
	p.drawer.Prepare(s)
}

// fullscreen is a program drawn over a screen-covering triangle.
type fullscreen struct {
	program *shader.Program
	vao     uint32
}

func newFullscreen(name, fragment string) (*fullscreen, error) {
	prog, err := shader.New(name, shaders.FullscreenVertexShader, fragment)
	if err != nil {
		return nil, err
	}
	fs := &fullscreen{program: prog}
	gl.GenVertexArrays(1, &fs.vao)
	return fs, nil
}

// begin binds the destination and the program, with the read color on unit 0.
func (fs *fullscreen) begin(f *Frame) *shader.Program {
	if f.Final {
		bindOutput(f)
	} else {
		f.Write.Bind()
	}
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)
	fs.program.Use()
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, f.Read.ColorTexture())
	fs.program.SetInt("uColor", 0)
	return fs.program
}

func (fs *fullscreen) draw() {
	gl.BindVertexArray(fs.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.Enable(gl.DEPTH_TEST)
}

func (fs *fullscreen) Destroy() {
	fs.program.Delete()
	if fs.vao != 0 {
		gl.DeleteVertexArrays(1, &fs.vao)
		fs.vao = 0
	}
}

// bindOutput targets the final destination of the chain.
func bindOutput(f *Frame) {
	if f.Output != nil {
		f.Output.Bind()
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(f.Width), int32(f.Height))
}

func texel(f *Frame) [2]float32 {
	return [2]float32{1 / float32(max(f.Width, 1)), 1 / float32(max(f.Height, 1))}
}

// SSAOParams tune the occlusion kernel. Distances are in linear depth [0, 1].
type SSAOParams struct {
	KernelRadius float32
	MinDistance  float32
	MaxDistance  float32
}

// DefaultSSAO returns kernel radius 16, min distance 0.01 and max distance 0.05.
func DefaultSSAO() SSAOParams {
	return SSAOParams{KernelRadius: 16, MinDistance: 0.01, MaxDistance: 0.05}
}

// SSAOPass darkens creases using the scene depth.
type SSAOPass struct {
	Base
	Params SSAOParams
	fs     *fullscreen
}

// NewSSAOPass compiles the occlusion shader.
func NewSSAOPass(params SSAOParams) (*SSAOPass, error) {
	fs, err := newFullscreen(NameSSAO, shaders.SSAOFragmentShader)
	if err != nil {
		return nil, err
	}
	return &SSAOPass{Base: NewBase(NameSSAO), Params: params, fs: fs}, nil
}

func (p *SSAOPass) Render(f *Frame) {
	prog := p.fs.begin(f)
	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_2D, f.Depth)
	prog.SetInt("uDepth", 1)
	prog.SetVec2("uTexel", texel(f))
	prog.SetFloat("uKernelRadius", p.Params.KernelRadius)
	prog.SetFloat("uMinDistance", p.Params.MinDistance)
	prog.SetFloat("uMaxDistance", p.Params.MaxDistance)
	prog.SetFloat("uNear", f.Camera.Near)
	prog.SetFloat("uFar", f.Camera.Far)
	p.fs.draw()
}

func (p *SSAOPass) Destroy() { p.fs.Destroy() }

// FXAAPass is fast approximate anti-aliasing.
type FXAAPass struct {
	Base
	fs *fullscreen
}

// NewFXAAPass compiles the anti-aliasing shader.
func NewFXAAPass() (*FXAAPass, error) {
	fs, err := newFullscreen(NameFXAA, shaders.FXAAFragmentShader)
	if err != nil {
		return nil, err
	}
	return &FXAAPass{Base: NewBase(NameFXAA), fs: fs}, nil
}

func (p *FXAAPass) Render(f *Frame) {
	prog := p.fs.begin(f)
	prog.SetVec2("uTexel", texel(f))
	p.fs.draw()
}

func (p *FXAAPass) Destroy() { p.fs.Destroy() }

// OutputPass applies exposure, optional ACES filmic tone mapping and sRGB encoding.
type OutputPass struct {
	Base
	Exposure float32
	ToneMap  bool
	fs       *fullscreen
}

// NewOutputPass compiles the output shader.
func NewOutputPass(exposure float32, toneMap bool) (*OutputPass, error) {
	fs, err := newFullscreen(NameOutput, shaders.OutputFragmentShader)
	if err != nil {
		return nil, err
	}
	return &OutputPass{Base: NewBase(NameOutput), Exposure: exposure, ToneMap: toneMap, fs: fs}, nil
}

func (p *OutputPass) Render(f *Frame) {
	prog := p.fs.begin(f)
	prog.SetFloat("uExposure", p.Exposure)
	prog.SetBool("uToneMap", p.ToneMap)
	p.fs.draw()
}

func (p *OutputPass) Destroy() { p.fs.Destroy() }
