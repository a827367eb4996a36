// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Config holds all viewer settings.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Camera   CameraConfig   `yaml:"camera"`
	Controls ControlsConfig `yaml:"controls"`
	Renderer RendererConfig `yaml:"renderer"`
	PostFX   PostFXConfig   `yaml:"postfx"`
	Lighting LightingConfig `yaml:"lighting"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	FPSLimit   int    `yaml:"fps_limit"`
	Kiosk      bool   `yaml:"kiosk"` // SDL window without the ImGui panel
}

// CameraConfig holds the perspective camera setup.
type CameraConfig struct {
	FOV      float32    `yaml:"fov"` // Vertical field of view, degrees
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
	Position [3]float32 `yaml:"position"`
	Target   [3]float32 `yaml:"target"`
	// FitOnLoad re-frames the camera around the loaded models once the queue is done.
	FitOnLoad bool `yaml:"fit_on_load"`
}

// ControlsConfig holds orbit control behaviour.
type ControlsConfig struct {
	EnableDamping      bool    `yaml:"enable_damping"`
	DampingFactor      float32 `yaml:"damping_factor"`
	ScreenSpacePanning bool    `yaml:"screen_space_panning"`
	MaxPolarAngle      float32 `yaml:"max_polar_angle"` // Radians from the +Y axis
	MinDistance        float32 `yaml:"min_distance"`
	MaxDistance        float32 `yaml:"max_distance"`
	RotateSpeed        float32 `yaml:"rotate_speed"`
	ZoomSpeed          float32 `yaml:"zoom_speed"`
}

// RendererConfig holds rasterizer settings.
type RendererConfig struct {
	Background       Color   `yaml:"background"`
	Shadows          bool    `yaml:"shadows"`
	ShadowResolution int32   `yaml:"shadow_resolution"`
	ToneMapping      string  `yaml:"tone_mapping"` // "aces" or "none"
	Exposure         float32 `yaml:"exposure"`
}

// PostFXConfig holds compositor settings.
type PostFXConfig struct {
	Enabled bool       `yaml:"enabled"`
	SSAO    SSAOConfig `yaml:"ssao"`
	FXAA    bool       `yaml:"fxaa"`
}

// SSAOConfig holds ambient occlusion pass parameters.
type SSAOConfig struct {
	Enabled      bool    `yaml:"enabled"`
	KernelRadius float32 `yaml:"kernel_radius"`
	MinDistance  float32 `yaml:"min_distance"`
	MaxDistance  float32 `yaml:"max_distance"`
}

// LightingConfig holds the light rig and environment map.
type LightingConfig struct {
	AmbientColor         Color      `yaml:"ambient_color"`
	AmbientIntensity     float32    `yaml:"ambient_intensity"`
	DirectionalColor     Color      `yaml:"directional_color"`
	DirectionalIntensity float32    `yaml:"directional_intensity"`
	DirectionalPosition  [3]float32 `yaml:"directional_position"`
	Environment          string     `yaml:"environment"` // Radiance .hdr equirect
	EnvironmentIntensity float32    `yaml:"environment_intensity"`
}

// SpecialMesh tags a named sub-mesh for special treatment after loading.
type SpecialMesh struct {
	Name   string `yaml:"name"`
	Shader string `yaml:"shader"` // "standard" or "subsurface"
	Hidden bool   `yaml:"hidden"`
}

// ViewerConfig holds the catalog, model queue and selection rules.
type ViewerConfig struct {
	Catalog         string        `yaml:"catalog"`
	Overrides       string        `yaml:"overrides"` // Optional per-glTF-material texture table
	Models          []string      `yaml:"models"`
	DefaultPreset   string        `yaml:"default_preset"`
	ExceptionMeshes []string      `yaml:"exception_meshes"`
	SpecialMeshes   []SpecialMesh `yaml:"special_meshes"`
	AssetRoots      []string      `yaml:"asset_roots"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	ThumbnailSize   int           `yaml:"thumbnail_size"`
	ScreenshotDir   string        `yaml:"screenshot_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "matview",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Camera: CameraConfig{
			FOV:       40,
			Near:      0.1,
			Far:       1000,
			Position:  [3]float32{0, 0, 5},
			FitOnLoad: true,
		},
		Controls: ControlsConfig{
			EnableDamping: true,
			DampingFactor: 0.25,
			MaxPolarAngle: math.Pi / 2,
			MinDistance:   0.5,
			MaxDistance:   100,
			RotateSpeed:   0.005,
			ZoomSpeed:     0.1,
		},
		Renderer: RendererConfig{
			Background:       "#ffffff",
			Shadows:          true,
			ShadowResolution: 2048,
			ToneMapping:      "aces",
			Exposure:         0.25,
		},
		PostFX: PostFXConfig{
			Enabled: true,
			SSAO: SSAOConfig{
				Enabled:      true,
				KernelRadius: 16,
				MinDistance:  0.01,
				MaxDistance:  0.05,
			},
			FXAA: true,
		},
		Lighting: LightingConfig{
			AmbientColor:         "#ffffff",
			AmbientIntensity:     0.5,
			DirectionalColor:     "#ffffff",
			DirectionalIntensity: 1,
			DirectionalPosition:  [3]float32{5, 5, 5},
			Environment:          "hdri/gem_2.hdr",
			EnvironmentIntensity: 1,
		},
		Viewer: ViewerConfig{
			Catalog:       "MaterialData/MaterialData.json",
			Models:        []string{"models/Sofa1.glb"},
			DefaultPreset: "material1",
			AssetRoots:    []string{"."},
			FetchTimeout:  30 * time.Second,
			ThumbnailSize: 64,
			ScreenshotDir: "screenshots",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports the first setting that cannot produce a working viewer.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		errs = append(errs, fmt.Errorf("camera fov %.1f out of range (0, 180)", c.Camera.FOV))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera clip planes near=%g far=%g invalid", c.Camera.Near, c.Camera.Far))
	}
	if len(c.Viewer.Models) == 0 {
		errs = append(errs, errors.New("viewer.models is empty"))
	}
	for _, sm := range c.Viewer.SpecialMeshes {
		if sm.Shader != "" && sm.Shader != "standard" && sm.Shader != "subsurface" {
			errs = append(errs, fmt.Errorf("special mesh %q: unknown shader %q", sm.Name, sm.Shader))
		}
	}
	for _, col := range []Color{c.Renderer.Background, c.Lighting.AmbientColor, c.Lighting.DirectionalColor} {
		if _, err := col.RGB(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Color is a hex color string such as "#ffffff" or "0xffffff".
type Color string

// RGB returns the color as normalized components.
func (c Color) RGB() ([3]float32, error) {
	s := strings.TrimSpace(string(c))
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 6 {
		return [3]float32{}, fmt.Errorf("color %q: want 6 hex digits", string(c))
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return [3]float32{}, fmt.Errorf("color %q: %w", string(c), err)
	}
	return [3]float32{
		float32((v>>16)&0xff) / 255,
		float32((v>>8)&0xff) / 255,
		float32(v&0xff) / 255,
	}, nil
}

// MustRGB is RGB for values already checked by Validate.
func (c Color) MustRGB() [3]float32 {
	rgb, err := c.RGB()
	if err != nil {
		panic(err)
	}
	return rgb
}
