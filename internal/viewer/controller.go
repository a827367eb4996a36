package viewer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/matview/internal/async"
	"github.com/Faultbox/matview/internal/catalog"
	"github.com/Faultbox/matview/internal/config"
	"github.com/Faultbox/matview/internal/engine/camera"
	"github.com/Faultbox/matview/internal/engine/lighting"
	"github.com/Faultbox/matview/internal/engine/material"
	"github.com/Faultbox/matview/internal/engine/picking"
	"github.com/Faultbox/matview/internal/engine/scene"
	"github.com/Faultbox/matview/internal/logger"
)

// FrameRenderer draws the scene. The post-processing composer and the direct
// renderer both satisfy it.
type FrameRenderer interface {
	Render(s *scene.Scene, cam *camera.Perspective)
	Resize(w, h int)
}

// Preparer is implemented by renderers that need a hook once the scene is final,
// for example to build shadow maps or environment lighting.
type Preparer interface {
	Prepare(s *scene.Scene)
}

// Deps are the collaborators a Controller drives.
type Deps struct {
	Assets   catalog.Source         // catalog and overrides documents
	Models   ModelLoader            // model files
	Textures material.TextureLoader // preset textures; nil skips texture loads
	HDR      lighting.HDRLoader     // environment map; nil skips it
	Dispatch *async.Queue           // main-thread queue, drained by Frame
	Renderer FrameRenderer          // nil for headless runs

	// OnModelAdded, when set, runs on the main thread after each model is added.
	OnModelAdded func(*scene.Model)
}

// Controller owns the viewer state and runs the startup flow:
// bootstrap, then catalog fetch and model sequencing in parallel, then finalize
// and the render loop.
type Controller struct {
	cfg     *config.Config
	deps    Deps
	state   *State
	factory *material.Factory
	seq     *Sequencer
	loop    Loop
	log     *zap.Logger

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	modelsReady chan struct{}
	catalogDone chan struct{}
	closeOnce   sync.Once
}

// New bootstraps the scene, camera, controls and lights from cfg.
func New(cfg *config.Config, deps Deps) (*Controller, error) {
	if deps.Dispatch == nil || deps.Models == nil || deps.Assets == nil {
		return nil, errors.New("viewer: Dispatch, Models and Assets are required")
	}

	bg, err := cfg.Renderer.Background.RGB()
	if err != nil {
		return nil, fmt.Errorf("renderer background: %w", err)
	}
	rig, err := newRig(cfg.Lighting)
	if err != nil {
		return nil, err
	}

	w, h := cfg.Window.Width, cfg.Window.Height
	cam := camera.NewPerspective(cfg.Camera.FOV, float32(w)/float32(h), cfg.Camera.Near, cfg.Camera.Far)
	cam.Position = cfg.Camera.Position
	cam.Target = cfg.Camera.Target
	cam.Resize(w, h)

	controls := camera.NewOrbitControls(cam)
	controls.EnableDamping = cfg.Controls.EnableDamping
	controls.DampingFactor = cfg.Controls.DampingFactor
	controls.ScreenSpacePanning = cfg.Controls.ScreenSpacePanning
	controls.MaxPolarAngle = cfg.Controls.MaxPolarAngle
	controls.MinDistance = cfg.Controls.MinDistance
	controls.MaxDistance = cfg.Controls.MaxDistance
	controls.RotateSpeed = cfg.Controls.RotateSpeed
	controls.ZoomSpeed = cfg.Controls.ZoomSpeed

	s := scene.New()
	s.Background = bg
	rig.AddTo(s)

	factory := material.NewFactory(deps.Textures, deps.Dispatch)
	queue := NewModelQueue(cfg.Viewer.Models)

	c := &Controller{
		cfg:     cfg,
		deps:    deps,
		factory: factory,
		log:     logger.Named("viewer"),
		state: &State{
			Scene:     s,
			Camera:    cam,
			Controls:  controls,
			Rig:       rig,
			Selection: NewSelection(factory, cfg.Viewer.ExceptionMeshes),
			Queue:     queue,
			Width:     w,
			Height:    h,
		},
		modelsReady: make(chan struct{}),
		catalogDone: make(chan struct{}),
	}
	c.seq = NewSequencer(queue, deps.Models, deps.Dispatch, c.addModel, c.finalize)
	return c, nil
}

func newRig(l config.LightingConfig) (*lighting.Rig, error) {
	ambient, err := l.AmbientColor.RGB()
	if err != nil {
		return nil, fmt.Errorf("ambient color: %w", err)
	}
	directional, err := l.DirectionalColor.RGB()
	if err != nil {
		return nil, fmt.Errorf("directional color: %w", err)
	}
	return lighting.NewRig(lighting.Options{
		AmbientColor:         ambient,
		AmbientIntensity:     l.AmbientIntensity,
		DirectionalColor:     directional,
		DirectionalIntensity: l.DirectionalIntensity,
		DirectionalPosition:  l.DirectionalPosition,
	}), nil
}

// Start launches the catalog fetch and the model sequencer. Their results are
// applied on the main thread as Frame drains the dispatcher.
func (c *Controller) Start(ctx context.Context) {
	c.ctx, c.cancel = context.WithCancel(ctx)
	d := c.deps.Dispatch

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		fetchCtx, cancel := context.WithTimeout(c.ctx, c.fetchTimeout())
		defer cancel()
		cat, err := catalog.Fetch(fetchCtx, c.deps.Assets, c.cfg.Viewer.Catalog)
		d.Post(func() { c.onCatalog(cat, err) })
	}()

	go func() {
		defer c.wg.Done()
		if p := c.cfg.Viewer.Overrides; p != "" {
			fetchCtx, cancel := context.WithTimeout(c.ctx, c.fetchTimeout())
			o, err := catalog.FetchOverrides(fetchCtx, c.deps.Assets, p)
			cancel()
			if err != nil {
				c.log.Warn("texture overrides unavailable", zap.Error(err))
			} else if err := d.Call(c.ctx, func() { c.state.Overrides = o }); err != nil {
				return
			}
		}
		if err := c.seq.Run(c.ctx); err != nil && c.ctx.Err() == nil {
			c.log.Error("model sequencer stopped", zap.Error(err))
		}
	}()

	c.log.Info("viewer started",
		zap.String("catalog", c.cfg.Viewer.Catalog),
		zap.Strings("models", c.state.Queue.Paths()),
	)
}

func (c *Controller) fetchTimeout() time.Duration {
	if t := c.cfg.Viewer.FetchTimeout; t > 0 {
		return t
	}
	return 30 * time.Second
}

// onCatalog runs on the main thread. A failed fetch leaves the viewer running
// with preset switching disabled.
func (c *Controller) onCatalog(cat *catalog.Catalog, err error) {
	defer close(c.catalogDone)
	if err != nil {
		c.state.CatalogFailed = true
		c.log.Error("material catalog unavailable, preset switching disabled", zap.Error(err))
		return
	}
	c.state.Catalog = cat
	c.state.Selection.SetCatalog(cat)
	c.applyDefaultPreset()
}

// addModel runs on the main thread for each sequenced model.
func (c *Controller) addModel(m *scene.Model) {
	c.state.Scene.Add(m.Root)
	c.state.Models = append(c.state.Models, m)
	c.state.Selection.AddModel(m)
	c.applyOverrides(m)

	c.log.Debug("model added",
		zap.String("source", m.Source),
		zap.Bool("placeholder", m.IsPlaceholder()),
		zap.Int("roots", len(c.state.Scene.Roots())),
	)
	if c.deps.OnModelAdded != nil {
		c.deps.OnModelAdded(m)
	}
}

// applyOverrides swaps in override textures for glTF materials matched by name.
// The original snapshot is refreshed so exception meshes keep the overridden look.
func (c *Controller) applyOverrides(m *scene.Model) {
	if c.state.Overrides.Len() == 0 {
		return
	}
	done := make(map[*material.Material]bool)
	for _, n := range m.Meshes {
		mat := n.Mesh.Material
		o, ok := c.state.Overrides.Lookup(mat.Name)
		if !ok {
			continue
		}
		if !done[mat] {
			c.factory.ApplyOverride(mat, o)
			done[mat] = true
		}
		n.Mesh.Original = mat.Clone()
	}
}

// finalize runs on the main thread once, after the last model is added.
func (c *Controller) finalize() {
	c.prepareModels(c.state.Models)
	c.state.Rig.SetShadows(c.cfg.Renderer.Shadows)

	if c.cfg.Camera.FitOnLoad {
		c.fitCamera()
	}
	c.loadEnvironment()

	if p, ok := c.deps.Renderer.(Preparer); ok {
		p.Prepare(c.state.Scene)
	}

	c.state.Selection.MarkReady()
	c.state.ModelsReady = true
	c.applyDefaultPreset()

	c.loop.Start()
	c.state.LoopStarted = true
	close(c.modelsReady)

	done, total := c.seq.Progress()
	c.log.Info("scene ready", zap.Int("models", done), zap.Int("queued", total), zap.Int("failed", c.seq.Failed()))
}

// prepareModels sets shadow flags and applies the special-mesh table.
func (c *Controller) prepareModels(models []*scene.Model) {
	special := make(map[string]config.SpecialMesh, len(c.cfg.Viewer.SpecialMeshes))
	for _, sm := range c.cfg.Viewer.SpecialMeshes {
		special[sm.Name] = sm
	}

	for _, m := range models {
		for _, n := range m.Meshes {
			n.Mesh.CastShadow = c.cfg.Renderer.Shadows
			n.Mesh.ReceiveShadow = c.cfg.Renderer.Shadows
		}
		m.Root.Traverse(func(n *scene.Node) bool {
			sm, ok := special[n.Name]
			if !ok {
				return true
			}
			if sm.Hidden {
				n.Visible = false
			}
			if sm.Shader == "subsurface" {
				n.Traverse(func(d *scene.Node) bool {
					if d.HasMaterial() {
						d.Mesh.Shader = scene.ShaderSubsurface
					}
					return true
				})
			}
			c.log.Debug("special mesh tagged", zap.String("name", n.Name), zap.String("shader", sm.Shader), zap.Bool("hidden", sm.Hidden))
			return true
		})
	}
}

func (c *Controller) fitCamera() {
	b := c.state.Scene.Bounds()
	if b.IsEmpty() {
		return
	}
	c.state.Controls.FitToBounds(b.Center(), b.Radius())
}

func (c *Controller) loadEnvironment() {
	p := c.cfg.Lighting.Environment
	if p == "" || c.deps.HDR == nil {
		return
	}
	f := lighting.LoadEnvironment(c.ctx, c.deps.HDR, p, c.cfg.Lighting.EnvironmentIntensity)
	async.OnComplete(f, c.deps.Dispatch, func(env *scene.Environment, err error) {
		if err != nil {
			c.log.Warn("environment map unavailable", zap.String("path", p), zap.Error(err))
			return
		}
		c.state.Scene.SetEnvironment(env)
		if pr, ok := c.deps.Renderer.(Preparer); ok {
			pr.Prepare(c.state.Scene)
		}
	})
}

// applyDefaultPreset selects the configured preset once both the catalog and the
// models are in, whichever arrives last.
func (c *Controller) applyDefaultPreset() {
	sel := c.state.Selection
	name := c.cfg.Viewer.DefaultPreset
	if name == "" || !sel.Enabled() || sel.Current() != "" || sel.Variant() != "" {
		return
	}
	if err := sel.Select(name); err != nil {
		c.log.Warn("default preset not applied", zap.String("preset", name), zap.Error(err))
	}
}

// Frame runs one loop iteration: drain completed work, then, once the loop has
// started, update the controls and draw. It reports whether a frame was drawn.
func (c *Controller) Frame(dt float32) bool {
	c.deps.Dispatch.Drain()
	if !c.loop.Started() {
		return false
	}
	c.state.Controls.Update(dt)
	if c.deps.Renderer != nil {
		c.deps.Renderer.Render(c.state.Scene, c.state.Camera)
	}
	c.loop.Tick()
	return true
}

// Resize matches the camera aspect and drawing surface to a w x h window.
func (c *Controller) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	sw, sh := c.state.Camera.Size()
	c.state.Camera.Resize(w, h)
	c.state.Width, c.state.Height = w, h
	if c.deps.Renderer != nil && (sw != w || sh != h) {
		c.deps.Renderer.Resize(w, h)
	}
}

// Select applies a catalog preset to the loaded models.
func (c *Controller) Select(name string) error {
	return c.state.Selection.Select(name)
}

// SelectVariant applies a glTF material variant; "" restores the originals.
func (c *Controller) SelectVariant(name string) error {
	return c.state.Selection.SelectVariant(name)
}

// DropPreset handles a thumbnail dropped on the viewport.
func (c *Controller) DropPreset(name string) error {
	c.log.Debug("preset dropped", zap.String("preset", name))
	return c.Select(name)
}

// DropFile handles a file dropped on the window. Model files are loaded and added;
// catalogs are ignored because the catalog is fixed for the session.
func (c *Controller) DropFile(p string) error {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".glb", ".gltf":
		return c.OpenModel(p)
	case ".json":
		c.log.Warn("catalog already loaded for this session, ignoring dropped file", zap.String("path", p))
		return nil
	default:
		return fmt.Errorf("unsupported file %s", p)
	}
}

// OpenModel loads one more model after startup. The active preset, if any, is
// applied to it once added.
func (c *Controller) OpenModel(p string) error {
	if !c.state.ModelsReady {
		return ErrNotReady
	}
	f := c.deps.Models.Load(c.ctx, p)
	async.OnComplete(f, c.deps.Dispatch, func(m *scene.Model, err error) {
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.log.Error("model load failed, adding placeholder", zap.String("path", p), zap.Error(err))
			m = scene.Placeholder(p)
		}
		c.addModel(m)
		c.prepareModels([]*scene.Model{m})
		if c.cfg.Camera.FitOnLoad {
			c.fitCamera()
		}
		if cur := c.state.Selection.Current(); cur != "" {
			if err := c.state.Selection.Select(cur); err != nil {
				c.log.Warn("preset not reapplied", zap.String("preset", cur), zap.Error(err))
			}
		}
	})
	return nil
}

// HandleDrag, HandleZoom and HandlePan forward pointer input to the orbit controls.
func (c *Controller) HandleDrag(dx, dy float32) { c.state.Controls.HandleDrag(dx, dy) }
func (c *Controller) HandleZoom(delta float32)  { c.state.Controls.HandleZoom(delta) }
func (c *Controller) HandlePan(dx, dy float32)  { c.state.Controls.HandlePan(dx, dy) }

// Pick returns the mesh under pixel (x, y) of the viewport, or nil.
func (c *Controller) Pick(x, y float32) *scene.Node {
	r, ok := picking.FromCamera(c.state.Camera, x, y)
	if !ok {
		return nil
	}
	n, _ := picking.Pick(c.state.Scene, r)
	return n
}

// ResetCamera re-frames the loaded models.
func (c *Controller) ResetCamera() {
	c.state.Controls.SetTarget(mgl32.Vec3(c.cfg.Camera.Target))
	c.fitCamera()
}

// State returns the viewer state. Read and mutate it on the main thread only.
func (c *Controller) State() *State {
	return c.state
}

// Loop returns the render loop state.
func (c *Controller) Loop() *Loop {
	return &c.loop
}

// Factory returns the material factory used for presets.
func (c *Controller) Factory() *material.Factory {
	return c.factory
}

// Progress returns how many queued models have been added.
func (c *Controller) Progress() (done, total int) {
	return c.seq.Progress()
}

// ModelsReady is closed after finalize.
func (c *Controller) ModelsReady() <-chan struct{} {
	return c.modelsReady
}

// CatalogDone is closed once the catalog fetch has succeeded or failed.
func (c *Controller) CatalogDone() <-chan struct{} {
	return c.catalogDone
}

// Close cancels outstanding work and waits for the background goroutines.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		c.wg.Wait()
		c.log.Info("viewer closed", zap.Uint64("frames", c.loop.Frames()))
	})
}
