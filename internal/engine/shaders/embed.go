// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// MeshVertexShader transforms mesh vertices for the lit passes.
//
//go:embed mesh.vert
var MeshVertexShader string

// StandardFragmentShader is the metal/rough PBR shader.
//
//go:embed standard.frag
var StandardFragmentShader string

// SubsurfaceFragmentShader is the PBR shader with wrapped diffuse and
// transmitted back light, used for tagged meshes such as fabric.
//
//go:embed subsurface.frag
var SubsurfaceFragmentShader string

// DepthVertexShader renders meshes into the shadow map.
//
//go:embed depth.vert
var DepthVertexShader string

// DepthFragmentShader is the empty fragment stage of the depth pass.
//
//go:embed depth.frag
var DepthFragmentShader string

// FullscreenVertexShader draws a screen-covering triangle for post passes.
//
//go:embed fullscreen.vert
var FullscreenVertexShader string

// SSAOFragmentShader darkens creases using the depth buffer.
//
//go:embed ssao.frag
var SSAOFragmentShader string

// FXAAFragmentShader is fast approximate anti-aliasing.
//
//go:embed fxaa.frag
var FXAAFragmentShader string

// OutputFragmentShader applies exposure, tone mapping and sRGB encoding.
//
//go:embed output.frag
var OutputFragmentShader string
