// Package renderer draws a scene with OpenGL 4.1: metal/rough PBR shading, a
// subsurface variant, a directional shadow map and equirect environment lighting.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/matview/internal/engine/camera"
	"github.com/Faultbox/matview/internal/engine/lighting"
	"github.com/Faultbox/matview/internal/engine/material"
	"github.com/Faultbox/matview/internal/engine/scene"
	"github.com/Faultbox/matview/internal/engine/shader"
	"github.com/Faultbox/matview/internal/engine/shaders"
	"github.com/Faultbox/matview/internal/engine/shadow"
	"github.com/Faultbox/matview/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	Width            int
	Height           int
	Shadows          bool
	ShadowResolution int32
	// ToneMap applies ACES and sRGB in the mesh shader. Leave it off when a
	// post-processing chain does the output transform.
	ToneMap  bool
	Exposure float32
}

// Texture units.
const (
	unitMap = iota
	unitRoughness
	unitNormal
	unitMetalness
	unitEmissive
	unitShadow
	unitEnv
)

// Renderer handles all OpenGL drawing of a scene.
type Renderer struct {
	config Config
	log    *zap.Logger

	standard   *shader.Program
	subsurface *shader.Program
	depth      *shader.Program

	meshes   *cache[*scene.Geometry, *gpuMesh]
	textures *cache[*material.Texture, uint32]

	white      uint32
	flatNormal uint32
	black      uint32

	shadowMap *shadow.Map
	env       *scene.Environment
	envTex    uint32

	frames uint64
}

// New creates a renderer. The OpenGL context must be current.
func New(cfg Config) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r := &Renderer{
		config:   cfg,
		log:      logger.Named("renderer"),
		meshes:   newCache[*scene.Geometry](func(m *gpuMesh) { m.release() }),
		textures: newCache[*material.Texture](deleteTexture),
	}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	var err error
	if r.standard, err = shader.New("standard", shaders.MeshVertexShader, shaders.StandardFragmentShader); err != nil {
		return nil, err
	}
	if r.subsurface, err = shader.New("subsurface", shaders.MeshVertexShader, shaders.SubsurfaceFragmentShader); err != nil {
		r.Close()
		return nil, err
	}
	if r.depth, err = shader.New("depth", shaders.DepthVertexShader, shaders.DepthFragmentShader); err != nil {
		r.Close()
		return nil, err
	}

	r.white = solidTexture(255, 255, 255, 255)
	r.flatNormal = solidTexture(128, 128, 255, 255)
	r.black = solidTexture(0, 0, 0, 255)

	if cfg.Shadows {
		if r.shadowMap, err = shadow.NewMap(cfg.ShadowResolution); err != nil {
			r.log.Warn("shadows disabled", zap.Error(err))
		}
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	return r, nil
}

// Close releases all GPU resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer", zap.Uint64("frames", r.frames))
	r.meshes.clear()
	r.textures.clear()
	for _, p := range []*shader.Program{r.standard, r.subsurface, r.depth} {
		if p != nil {
			p.Delete()
		}
	}
	for _, id := range []uint32{r.white, r.flatNormal, r.black, r.envTex} {
		if id != 0 {
			deleteTexture(id)
		}
	}
	if r.shadowMap != nil {
		r.shadowMap.Destroy()
	}
}

// Resize sets the default framebuffer viewport.
func (r *Renderer) Resize(width, height int) {
	if width == r.config.Width && height == r.config.Height {
		return
	}
	r.config.Width = width
	r.config.Height = height
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Prepare uploads the scene environment when it changes.
func (r *Renderer) Prepare(s *scene.Scene) {
	env := s.Environment()
	if env == r.env {
		return
	}
	if r.envTex != 0 {
		deleteTexture(r.envTex)
		r.envTex = 0
	}
	r.env = env
	if env != nil && env.Map != nil {
		r.envTex = uploadEnvironment(env.Map)
		r.log.Info("environment uploaded", zap.String("name", env.Name))
	}
}

// Render draws s to the window with the direct tone-mapped path.
func (r *Renderer) Render(s *scene.Scene, cam *camera.Perspective) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(r.config.Width), int32(r.config.Height))
	r.Draw(s, cam, r.config.ToneMap)
}

// Draw renders s into the bound framebuffer. The caller sets the viewport.
func (r *Renderer) Draw(s *scene.Scene, cam *camera.Perspective, toneMap bool) {
	r.Prepare(s)

	bg := s.Background
	gl.ClearColor(bg[0], bg[1], bg[2], 1)
	gl.DepthMask(true)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	items := buildDrawList(s, cam.Position)
	lights := lighting.Collect(s)

	lightMatrix := mgl32.Ident4()
	shadowsOn := lights.Shadows && r.shadowMap.IsValid()
	if shadowsOn {
		lightMatrix = shadow.LightMatrix(mgl32.Vec3(lights.LightDir), s.Bounds())
		r.drawShadows(shadowCasters(items), lightMatrix)
	}

	viewProj := cam.ViewProjection()
	for _, p := range []*shader.Program{r.standard, r.subsurface} {
		p.Use()
		p.SetMat4("uViewProj", viewProj)
		p.SetMat4("uLightMatrix", shadow.BiasMatrix().Mul4(lightMatrix))
		p.SetVec3("uCameraPos", cam.Position)
		p.SetVec3("uAmbient", lights.Ambient)
		p.SetVec3("uLightDir", lights.LightDir)
		p.SetVec3("uLightColor", lights.LightColor)
		p.SetBool("uHasSun", lights.HasSun)
		p.SetBool("uShadows", shadowsOn)
		p.SetBool("uHasEnv", r.envTex != 0)
		p.SetFloat("uEnvIntensity", r.envIntensity())
		p.SetBool("uToneMap", toneMap)
		p.SetFloat("uExposure", r.config.Exposure)
		p.SetInt("uMap", unitMap)
		p.SetInt("uRoughnessMap", unitRoughness)
		p.SetInt("uNormalMap", unitNormal)
		p.SetInt("uMetalnessMap", unitMetalness)
		p.SetInt("uEmissiveMap", unitEmissive)
		p.SetInt("uShadowMap", unitShadow)
		p.SetInt("uEnvMap", unitEnv)
		if shadowsOn {
			p.SetFloat("uShadowTexel", 1/float32(r.shadowMap.Resolution))
		}
	}
	if p := r.subsurface; p != nil {
		p.Use()
		p.SetFloat("uWrap", 0.5)
		p.SetVec3("uSubsurfaceColor", [3]float32{1, 0.6, 0.5})
		p.SetFloat("uThickness", 0.35)
	}

	if shadowsOn {
		r.shadowMap.BindTexture(gl.TEXTURE0 + unitShadow)
	}
	gl.ActiveTexture(gl.TEXTURE0 + unitEnv)
	gl.BindTexture(gl.TEXTURE_2D, r.envTex)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	for _, it := range items {
		r.drawMesh(it)
	}
	gl.Disable(gl.BLEND)
	gl.DepthMask(true)
	gl.Enable(gl.DEPTH_TEST)
	gl.BindVertexArray(0)

	r.frames++
	if r.frames%600 == 0 {
		released := r.meshes.sweep() + r.textures.sweep()
		if released > 0 {
			r.log.Debug("released unused GPU resources", zap.Int("count", released))
		}
	}
}

func (r *Renderer) envIntensity() float32 {
	if r.env == nil {
		return 0
	}
	return r.env.Intensity
}

func (r *Renderer) drawShadows(items []drawItem, lightMatrix mgl32.Mat4) {
	if err := r.shadowMap.Bind(); err != nil {
		return
	}
	defer r.shadowMap.Unbind()

	r.depth.Use()
	r.depth.SetMat4("uLightMatrix", lightMatrix)
	gl.Disable(gl.CULL_FACE)
	for _, it := range items {
		m, err := r.meshes.get(it.node.Mesh.Geometry, 0, func() (*gpuMesh, error) {
			return uploadMesh(it.node.Mesh.Geometry)
		})
		if err != nil {
			continue
		}
		r.depth.SetMat4("uModel", it.world)
		gl.BindVertexArray(m.vao)
		gl.DrawElementsWithOffset(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, 0)
	}
}

func (r *Renderer) drawMesh(it drawItem) {
	mesh := it.node.Mesh
	gm, err := r.meshes.get(mesh.Geometry, 0, func() (*gpuMesh, error) {
		return uploadMesh(mesh.Geometry)
	})
	if err != nil {
		r.log.Debug("mesh skipped", zap.String("node", it.node.Name), zap.Error(err))
		return
	}

	p := r.standard
	if mesh.Shader == scene.ShaderSubsurface {
		p = r.subsurface
	}
	p.Use()

	m := mesh.Material
	p.SetMat4("uModel", it.world)
	p.SetMat3("uNormalMatrix", it.world.Mat3().Inv().Transpose())
	p.SetVec3("uColor", m.Color)
	p.SetFloat("uMetalness", m.Metalness)
	p.SetFloat("uRoughness", m.Roughness)
	p.SetFloat("uOpacity", m.Opacity)
	p.SetFloat("uAlphaTest", m.AlphaTest)
	p.SetVec3("uEmissive", m.Emissive)
	p.SetFloat("uEmissiveIntensity", m.EmissiveIntensity)
	p.SetFloat("uClearcoat", m.Clearcoat)
	p.SetFloat("uClearcoatRoughness", m.ClearcoatRoughness)
	p.SetFloat("uReflectivity", m.Reflectivity)
	p.SetVec2("uNormalScale", m.NormalScale)

	r.bindSlot(unitMap, m.Map, r.white)
	r.bindSlot(unitRoughness, m.RoughnessMap, r.white)
	r.bindSlot(unitMetalness, m.MetalnessMap, r.white)
	r.bindSlot(unitEmissive, m.EmissiveMap, r.white)
	hasNormal := r.bindSlot(unitNormal, m.NormalMap, r.flatNormal)
	p.SetBool("uHasNormalMap", hasNormal)
	p.SetVec2("uMapRepeat", repeat(m.Map))
	p.SetVec2("uRoughnessRepeat", repeat(m.RoughnessMap))
	p.SetVec2("uNormalRepeat", repeat(m.NormalMap))

	if m.Side == material.SideDouble {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
	if m.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(m.DepthWrite)

	gl.BindVertexArray(gm.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, gm.count, gl.UNSIGNED_INT, 0)
}

// bindSlot binds t to unit, or fallback while t is empty or loading. It reports
// whether t itself was bound.
func (r *Renderer) bindSlot(unit uint32, t *material.Texture, fallback uint32) bool {
	id := fallback
	bound := false
	if t.Ready() {
		tex, err := r.textures.get(t, t.Version(), func() (uint32, error) {
			return uploadTexture(t)
		})
		if err == nil {
			id, bound = tex, true
		}
	}
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, id)
	return bound
}

func repeat(t *material.Texture) [2]float32 {
	if t == nil {
		return [2]float32{1, 1}
	}
	return t.Repeat
}

// Stats returns the number of resident meshes and textures.
func (r *Renderer) Stats() (meshes, textures int) {
	return r.meshes.len(), r.textures.len()
}
