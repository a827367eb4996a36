package renderer

import (
	"errors"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/matview/internal/engine/material"
	"github.com/Faultbox/matview/internal/engine/scene"
	"github.com/Faultbox/matview/internal/engine/texture"
)

// gpuMesh is an uploaded geometry.
type gpuMesh struct {
	vao, vbo, ebo uint32
	count         int32
}

func uploadMesh(g *scene.Geometry) (*gpuMesh, error) {
	if len(g.Vertices) == 0 || len(g.Indices) == 0 {
		return nil, errors.New("empty geometry")
	}
	m := &gpuMesh{count: int32(len(g.Indices))}

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	stride := int32(unsafe.Sizeof(scene.Vertex{}))
	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(g.Vertices)*int(stride), gl.Ptr(g.Vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(g.Indices)*4, gl.Ptr(g.Indices), gl.STATIC_DRAW)

	// Position
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, unsafe.Offsetof(scene.Vertex{}.Position))
	gl.EnableVertexAttribArray(0)
	// Normal
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, unsafe.Offsetof(scene.Vertex{}.Normal))
	gl.EnableVertexAttribArray(1)
	// TexCoord
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, unsafe.Offsetof(scene.Vertex{}.TexCoord))
	gl.EnableVertexAttribArray(2)
	// Tangent
	gl.VertexAttribPointerWithOffset(3, 4, gl.FLOAT, false, stride, unsafe.Offsetof(scene.Vertex{}.Tangent))
	gl.EnableVertexAttribArray(3)

	gl.BindVertexArray(0)
	return m, nil
}

func (m *gpuMesh) release() {
	gl.DeleteVertexArrays(1, &m.vao)
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteBuffers(1, &m.ebo)
}

func glWrap(w material.Wrap) int32 {
	switch w {
	case material.WrapClamp:
		return gl.CLAMP_TO_EDGE
	case material.WrapMirror:
		return gl.MIRRORED_REPEAT
	default:
		return gl.REPEAT
	}
}

// uploadTexture creates a mipmapped 2D texture from t's pixels.
func uploadTexture(t *material.Texture) (uint32, error) {
	img := t.Image()
	if img == nil {
		return 0, errors.New("texture not loaded")
	}
	internal := int32(gl.RGBA8)
	if t.SRGB {
		internal = gl.SRGB8_ALPHA8
	}
	id := uploadRGBA(texture.ToRGBA(img), internal)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, glWrap(t.WrapS))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, glWrap(t.WrapT))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return id, nil
}

func uploadRGBA(rgba *image.RGBA, internal int32) uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(rgba.Stride/4))
	b := rgba.Bounds()
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(b.Dx()), int32(b.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return id
}

// uploadEnvironment creates the equirect environment texture. Radiance maps keep
// their float range; anything else is treated as an sRGB image.
func uploadEnvironment(img image.Image) uint32 {
	hdr, ok := img.(*texture.HDR)
	if !ok {
		return uploadRGBA(texture.ToRGBA(img), gl.SRGB8_ALPHA8)
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(hdr.Stride/3))
	w, h := hdr.Rect.Dx(), hdr.Rect.Dy()
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB16F, int32(w), int32(h), 0, gl.RGB, gl.FLOAT, gl.Ptr(hdr.Pix))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return id
}

// solidTexture creates a 1x1 texture of one color, used for empty slots.
func solidTexture(r, g, b, a uint8) uint32 {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	copy(img.Pix, []uint8{r, g, b, a})
	return uploadRGBA(img, gl.RGBA8)
}

func deleteTexture(id uint32) {
	gl.DeleteTextures(1, &id)
}
