package gui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/matview/internal/async"
	"github.com/Faultbox/matview/internal/config"
	"github.com/Faultbox/matview/internal/engine/capture"
	"github.com/Faultbox/matview/internal/engine/framebuffer"
	"github.com/Faultbox/matview/internal/engine/postfx"
	"github.com/Faultbox/matview/internal/engine/scene"
	"github.com/Faultbox/matview/internal/logger"
	"github.com/Faultbox/matview/internal/viewer"
)

const (
	panelWidth    = 320
	presetPayload = "MATVIEW_PRESET"
	thumbsPerRow  = 4
	thumbnailPx   = 56
)

// Panel draws the control window and the viewport image each frame.
type Panel struct {
	backend  *Backend
	viewer   *viewer.Controller
	composer *postfx.Composer
	output   *framebuffer.Framebuffer
	shots    *capture.Screenshots
	dispatch *async.Queue
	cfg      *config.Config
	thumbs   *viewer.Thumbnails
	log      *zap.Logger

	textures  map[string]*backend.Texture
	requested bool
	preset    int
	dragging  string
	lastMouse imgui.Vec2
	picked    *scene.Node
	status    string
}

// NewPanel wires the panel to a running viewer. The composer must render into
// output, which the panel shows as the viewport.
func NewPanel(b *Backend, v *viewer.Controller, composer *postfx.Composer, output *framebuffer.Framebuffer,
	d *async.Queue, cfg *config.Config, thumbs *viewer.Thumbnails) *Panel {
	p := &Panel{
		backend:  b,
		viewer:   v,
		composer: composer,
		output:   output,
		dispatch: d,
		cfg:      cfg,
		thumbs:   thumbs,
		shots:    capture.New(cfg.Viewer.ScreenshotDir, "matview"),
		log:      logger.Named("panel"),
		textures: make(map[string]*backend.Texture),
	}
	b.OnDrop(func(paths []string) {
		for _, path := range paths {
			if err := v.DropFile(path); err != nil {
				p.setStatus("drop %s: %v", path, err)
			}
		}
	})
	return p
}

// Frame is the backend callback: advance the viewer, then draw the UI.
func (p *Panel) Frame() {
	io := imgui.CurrentIO()
	p.viewer.Frame(io.DeltaTime())
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	st := p.viewer.State()
	if st.Catalog != nil && !p.requested {
		p.thumbs.Request(st.Catalog)
		p.requested = true
	}

	vp := imgui.MainViewport()
	pos, size := vp.WorkPos(), vp.WorkSize()

	imgui.SetNextWindowPos(pos)
	imgui.SetNextWindowSize(imgui.NewVec2(panelWidth, size.Y))
	if imgui.BeginV("Materials", nil, imgui.WindowFlagsNoResize|imgui.WindowFlagsNoMove|imgui.WindowFlagsNoCollapse) {
		p.drawControls()
	}
	imgui.End()

	imgui.SetNextWindowPos(imgui.NewVec2(pos.X+panelWidth, pos.Y))
	imgui.SetNextWindowSize(imgui.NewVec2(size.X-panelWidth, size.Y))
	flags := imgui.WindowFlagsNoResize | imgui.WindowFlagsNoMove | imgui.WindowFlagsNoCollapse |
		imgui.WindowFlagsNoScrollbar | imgui.WindowFlagsNoTitleBar
	if imgui.BeginV("Viewport", nil, flags) {
		p.drawViewport()
	}
	imgui.End()
}

func (p *Panel) drawControls() {
	st := p.viewer.State()
	sel := st.Selection

	done, total := p.viewer.Progress()
	frac, label := progress(done, total)
	imgui.ProgressBarV(frac, imgui.NewVec2(-1, 0), label)

	section("Preset")
	switch {
	case st.CatalogFailed:
		imgui.TextDisabled("Material catalog unavailable")
	case st.Catalog == nil:
		imgui.TextDisabled("Loading catalog...")
	default:
		names := sel.Presets()
		p.preset = indexOf(names, sel.Current(), p.preset)
		disabled := controlsDisabled(st)
		imgui.BeginDisabledV(disabled)
		if imgui.BeginChildStrV("PresetList", imgui.NewVec2(0, 120), imgui.ChildFlagsBorders, 0) {
			for i, name := range names {
				if imgui.SelectableBoolV(name, i == p.preset, 0, imgui.NewVec2(0, 0)) {
					p.preset = i
				}
			}
		}
		imgui.EndChild()
		if imgui.Button("Apply") {
			p.report(p.viewer.Select(at(names, p.preset)))
		}
		p.drawThumbnails(names)
		imgui.EndDisabled()
		if disabled {
			imgui.TextDisabled("Waiting for models...")
		}
	}

	if variants := sel.Variants(); len(variants) > 0 {
		section("Variant")
		imgui.BeginDisabledV(controlsDisabled(st))
		options := append([]string{"(original)"}, variants...)
		cur := 0
		if v := sel.Variant(); v != "" {
			cur = indexOf(variants, v, -1) + 1
		}
		for i, name := range options {
			if imgui.SelectableBoolV(name, i == cur, 0, imgui.NewVec2(0, 0)) && i != cur {
				v := ""
				if i > 0 {
					v = name
				}
				p.report(p.viewer.SelectVariant(v))
			}
		}
		imgui.EndDisabled()
	}

	if ex := sel.Exceptions(); len(ex) > 0 {
		section("Keeps original material")
		for _, name := range ex {
			imgui.Text("  " + name)
		}
	}

	if p.composer != nil {
		section("Post-processing")
		for _, name := range []string{postfx.NameSSAO, postfx.NameFXAA} {
			pass, ok := p.composer.Pass(name)
			if !ok {
				continue
			}
			on := pass.Enabled()
			if imgui.Checkbox(name, &on) {
				pass.SetEnabled(on)
			}
		}
	}

	section("Scene")
	if imgui.Button("Open model...") {
		p.openModelDialog()
	}
	imgui.SameLine()
	if imgui.Button("Reset view") {
		p.viewer.ResetCamera()
	}
	imgui.SameLine()
	if imgui.Button("Save settings") {
		p.saveConfig()
	}
	if imgui.Button("Screenshot") {
		p.screenshot()
	}

	if n := p.picked; n != nil {
		section("Picked mesh")
		imgui.Text(n.Name)
		if n.Mesh != nil && n.Mesh.Material != nil {
			imgui.TextDisabled("material: " + n.Mesh.Material.Name)
		}
		if sel.IsException(n) {
			imgui.TextDisabled("keeps its original material")
		}
	}

	imgui.Separator()
	imgui.Text(fmt.Sprintf("%.0f FPS  %d models", imgui.CurrentIO().Framerate(), len(st.Models)))
	if p.status != "" {
		imgui.TextWrapped(p.status)
	}
}

func (p *Panel) drawThumbnails(names []string) {
	for i, name := range names {
		tex := p.texture(name)
		if i%thumbsPerRow != 0 {
			imgui.SameLine()
		}
		if tex == nil {
			imgui.ButtonV(fmt.Sprintf("...##%s", name), imgui.NewVec2(thumbnailPx, thumbnailPx))
		} else {
			imgui.ImageWithBgV(tex.ID, imgui.NewVec2(thumbnailPx, thumbnailPx),
				imgui.NewVec2(0, 0), imgui.NewVec2(1, 1),
				imgui.NewVec4(0, 0, 0, 0), imgui.NewVec4(1, 1, 1, 1))
			if imgui.IsItemClicked() {
				p.report(p.viewer.Select(name))
			}
		}
		if imgui.IsItemHovered() {
			imgui.SetTooltip(name)
		}
		if imgui.BeginDragDropSource() {
			p.dragging = name
			imgui.SetDragDropPayload(presetPayload, 0, 0)
			imgui.Text(name)
			imgui.EndDragDropSource()
		}
	}
}

// texture returns the uploaded thumbnail for a preset, uploading it on first use.
func (p *Panel) texture(name string) *backend.Texture {
	if tex, ok := p.textures[name]; ok {
		return tex
	}
	img, ok := p.thumbs.Get(name)
	if !ok {
		return nil
	}
	tex := p.backend.NewTexture(img)
	p.textures[name] = tex
	return tex
}

func (p *Panel) drawViewport() {
	avail := imgui.ContentRegionAvail()
	w, h := int(avail.X), int(avail.Y)
	p.viewer.Resize(w, h)

	origin := imgui.CursorScreenPos()
	ref := imgui.NewTextureRefTextureID(imgui.TextureID(p.output.ColorTexture()))
	imgui.ImageWithBgV(*ref, avail,
		imgui.NewVec2(0, 1), // GL textures are bottom-up
		imgui.NewVec2(1, 0),
		imgui.NewVec4(0, 0, 0, 1),
		imgui.NewVec4(1, 1, 1, 1),
	)

	if imgui.BeginDragDropTarget() {
		if imgui.AcceptDragDropPayload(presetPayload) != nil && p.dragging != "" {
			p.report(p.viewer.DropPreset(p.dragging))
			p.dragging = ""
		}
		imgui.EndDragDropTarget()
	}

	if !imgui.IsItemHovered() {
		return
	}
	mouse := imgui.MousePos()
	if imgui.IsItemClicked() {
		p.picked = p.viewer.Pick(mouse.X-origin.X, mouse.Y-origin.Y)
	}
	switch {
	case imgui.IsMouseDragging(imgui.MouseButtonLeft):
		p.viewer.HandleDrag(mouse.X-p.lastMouse.X, mouse.Y-p.lastMouse.Y)
	case imgui.IsMouseDragging(imgui.MouseButtonRight):
		p.viewer.HandlePan(mouse.X-p.lastMouse.X, mouse.Y-p.lastMouse.Y)
	}
	p.lastMouse = mouse
	if wheel := imgui.CurrentIO().MouseWheel(); wheel != 0 {
		p.viewer.HandleZoom(wheel)
	}
}

// openModelDialog runs the native dialog off the main thread and posts the
// result back through the dispatcher.
func (p *Panel) openModelDialog() {
	go func() {
		filename, err := dialog.File().
			Filter("glTF models", "glb", "gltf").
			Filter("All Files", "*").
			Title("Open model").
			Load()
		if err != nil {
			if err != dialog.ErrCancelled {
				p.log.Warn("file dialog failed", zap.Error(err))
			}
			return
		}
		p.dispatch.Post(func() {
			p.report(p.viewer.OpenModel(filename))
		})
	}()
}

func (p *Panel) saveConfig() {
	sel := p.viewer.State().Selection
	if cur := sel.Current(); cur != "" {
		p.cfg.Viewer.DefaultPreset = cur
	}
	if p.composer != nil {
		if pass, ok := p.composer.Pass(postfx.NameSSAO); ok {
			p.cfg.PostFX.SSAO.Enabled = pass.Enabled()
		}
		if pass, ok := p.composer.Pass(postfx.NameFXAA); ok {
			p.cfg.PostFX.FXAA = pass.Enabled()
		}
	}
	path, err := p.cfg.Save()
	if err != nil {
		p.report(err)
		return
	}
	p.setStatus("settings saved to %s", path)
}

func (p *Panel) screenshot() {
	w, h := p.output.Size()
	path, err := p.shots.Save(p.output.ReadPixels(), int(w), int(h), p.viewer.State().Selection.Current())
	if err != nil {
		p.report(err)
		return
	}
	p.setStatus("screenshot saved to %s", path)
}

func (p *Panel) report(err error) {
	if err != nil {
		p.setStatus("%v", err)
		return
	}
	p.status = ""
}

func (p *Panel) setStatus(format string, args ...any) {
	p.status = fmt.Sprintf(format, args...)
	p.log.Info(p.status)
}

func section(title string) {
	imgui.Spacing()
	imgui.Separator()
	imgui.TextDisabled(title)
}
