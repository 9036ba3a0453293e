// Package renderer implements the shared OpenGL surface every scene draws into.
//
// Scenes are composited into an offscreen target sized at the logical
// client size times the capped pixel ratio. Present scales that target
// onto the window, whose backbuffer follows the OS device ratio.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/multiscene/internal/engine/framebuffer"
	"github.com/Faultbox/multiscene/internal/engine/model"
	"github.com/Faultbox/multiscene/internal/engine/scene"
	"github.com/Faultbox/multiscene/internal/engine/shader"
	"github.com/Faultbox/multiscene/internal/engine/viewport"
	"github.com/Faultbox/multiscene/internal/logger"
)

// Context is the render context shared by all scenes. It must be created
// after the GL context exists and used only from the thread that owns it.
type Context struct {
	program  *shader.Program
	meshes   map[*model.Mesh]*gpuMesh
	textures map[*model.Image]uint32
	target   *framebuffer.Framebuffer

	width, height float32
	pixelRatio    float32
	clearColor    mgl32.Vec3
	scissor       bool

	log *zap.Logger
}

type gpuMesh struct {
	vao, vbo, ebo uint32
	parts         []model.Part
}

// New initialises GL and builds the mesh program. width and height are
// the logical client size of the canvas.
func New(width, height float32) (*Context, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	c := &Context{
		meshes:     make(map[*model.Mesh]*gpuMesh),
		textures:   make(map[*model.Image]uint32),
		width:      width,
		height:     height,
		pixelRatio: 1,
		log:        logger.Named("renderer"),
	}
	c.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	program, err := shader.Compile(meshVertexShader, meshFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("mesh program: %w", err)
	}
	c.program = program

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)

	return c, nil
}

// Close releases every GL object owned by the context.
func (c *Context) Close() {
	c.log.Info("closing renderer",
		zap.Int("meshes", len(c.meshes)),
		zap.Int("textures", len(c.textures)),
	)
	for m, g := range c.meshes {
		g.delete()
		delete(c.meshes, m)
	}
	for img, id := range c.textures {
		if id != 0 {
			gl.DeleteTextures(1, &id)
		}
		delete(c.textures, img)
	}
	if c.target != nil {
		c.target.Destroy()
		c.target = nil
	}
	if c.program != nil {
		c.program.Delete()
	}
}

// BeginFrame binds the offscreen target, resizing it to the current
// drawable size. All surface calls until Present draw into it.
func (c *Context) BeginFrame() error {
	w, h := c.DrawableSize()
	if c.target == nil {
		fb, err := framebuffer.New(int32(w), int32(h))
		if err != nil {
			return fmt.Errorf("offscreen target: %w", err)
		}
		c.target = fb
		c.log.Debug("offscreen target created", zap.Int("width", w), zap.Int("height", h))
	} else {
		c.target.Resize(int32(w), int32(h))
	}
	c.target.Bind()
	return nil
}

// Present scales the composited frame onto the window backbuffer of the
// given device size.
func (c *Context) Present(windowWidth, windowHeight int) {
	if c.target == nil {
		return
	}
	gl.Disable(gl.SCISSOR_TEST)
	c.target.BlitTo(int32(windowWidth), int32(windowHeight))
	if c.scissor {
		gl.Enable(gl.SCISSOR_TEST)
	}
}

// SetClearColor sets the colour used by Clear and by each scene's region clear.
func (c *Context) SetClearColor(color mgl32.Vec3) {
	c.clearColor = color
	gl.ClearColor(color.X(), color.Y(), color.Z(), 1)
}

// SetScissorTest toggles clipping to the scissor rectangle.
func (c *Context) SetScissorTest(enabled bool) {
	c.scissor = enabled
	if enabled {
		gl.Enable(gl.SCISSOR_TEST)
	} else {
		gl.Disable(gl.SCISSOR_TEST)
	}
}

// Clear clears the whole drawable regardless of the scissor rectangle.
func (c *Context) Clear() {
	if c.scissor {
		gl.Disable(gl.SCISSOR_TEST)
		defer gl.Enable(gl.SCISSOR_TEST)
	}
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// SetViewport sets the output viewport in logical pixels.
func (c *Context) SetViewport(r viewport.Region) {
	x, y, w, h := r.Pixels(c.pixelRatio)
	gl.Viewport(x, y, w, h)
}

// SetScissor sets the scissor rectangle in logical pixels.
func (c *Context) SetScissor(r viewport.Region) {
	x, y, w, h := r.Pixels(c.pixelRatio)
	gl.Scissor(x, y, w, h)
}

// SetPixelRatio sets the offscreen-to-logical pixel ratio.
func (c *Context) SetPixelRatio(ratio float32) {
	if ratio <= 0 {
		ratio = 1
	}
	c.pixelRatio = ratio
}

// PixelRatio returns the current pixel ratio.
func (c *Context) PixelRatio() float32 {
	return c.pixelRatio
}

// SetSize sets the logical client size and resets the viewport to cover it.
func (c *Context) SetSize(width, height float32) {
	c.width, c.height = width, height
	c.SetViewport(viewport.Region{Width: width, Height: height})
}

// ClientSize returns the logical client size.
func (c *Context) ClientSize() (width, height float32) {
	return c.width, c.height
}

// DrawableSize returns the size of the offscreen target in pixels. It is
// the region every SetViewport and SetScissor maps into.
func (c *Context) DrawableSize() (width, height int) {
	_, _, w, h := viewport.Region{Width: c.width, Height: c.height}.Pixels(c.pixelRatio)
	return int(w), int(h)
}

// Render draws one scene into the current viewport. The region is cleared
// first; a scene whose content has not loaded yet leaves it empty.
func (c *Context) Render(d *scene.Descriptor) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	content := d.Content()
	if content == nil || content.Model == nil || content.Model.Mesh == nil {
		return
	}
	mesh := c.upload(content.Model.Mesh)
	if mesh == nil {
		return
	}

	modelMat := content.Matrix()
	normalMat := modelMat.Mat3().Inv().Transpose()
	viewProj := d.Camera.ViewProjection()

	ambient := d.Lights.Ambient()
	if env, ok := d.Environment(); ok {
		ambient = ambient.Add(env)
	}
	lightDir := d.Lights.LightDirection()
	lightColor := d.Lights.Directional()

	c.program.Use()
	gl.UniformMatrix4fv(c.program.Uniform("uViewProj"), 1, false, &viewProj[0])
	gl.UniformMatrix4fv(c.program.Uniform("uModel"), 1, false, &modelMat[0])
	gl.UniformMatrix3fv(c.program.Uniform("uNormalMatrix"), 1, false, &normalMat[0])
	gl.Uniform3fv(c.program.Uniform("uAmbient"), 1, &ambient[0])
	gl.Uniform3fv(c.program.Uniform("uLightDir"), 1, &lightDir[0])
	gl.Uniform3fv(c.program.Uniform("uLightColor"), 1, &lightColor[0])
	gl.Uniform1i(c.program.Uniform("uBaseColor"), 0)

	gl.BindVertexArray(mesh.vao)
	gl.ActiveTexture(gl.TEXTURE0)
	for _, p := range mesh.parts {
		tex := c.partTexture(content.Model, p)
		hasTexture := int32(0)
		if tex != 0 {
			hasTexture = 1
		}
		gl.BindTexture(gl.TEXTURE_2D, tex)
		gl.Uniform1i(c.program.Uniform("uHasTexture"), hasTexture)
		gl.DrawElements(gl.TRIANGLES, int32(p.Count), gl.UNSIGNED_INT, gl.PtrOffset(int(p.First)*4))
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.BindVertexArray(0)
}

// drawParts returns the index ranges of a mesh, covering all indices with
// one untextured part when the mesh lists none.
func drawParts(m *model.Mesh) []model.Part {
	if len(m.Parts) > 0 {
		return m.Parts
	}
	return []model.Part{{Count: uint32(len(m.Indices)), Texture: model.NoTexture}}
}

func (c *Context) partTexture(m *model.Model, p model.Part) uint32 {
	if p.Texture < 0 || p.Texture >= len(m.Images) {
		return 0
	}
	return c.texture(m.Images[p.Texture])
}

// texture returns the GL texture of a decoded image, uploading it on first
// use. Images that failed to decode map to 0.
func (c *Context) texture(img *model.Image) uint32 {
	if id, ok := c.textures[img]; ok {
		return id
	}
	var id uint32
	if px := img.Pixels; px != nil && px.Rect.Dx() > 0 && px.Rect.Dy() > 0 && px.Stride == 4*px.Rect.Dx() {
		gl.GenTextures(1, &id)
		gl.BindTexture(gl.TEXTURE_2D, id)
		gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(px.Rect.Dx()), int32(px.Rect.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(px.Pix))
		gl.GenerateMipmap(gl.TEXTURE_2D)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		c.log.Debug("texture uploaded",
			zap.String("name", img.Name),
			zap.Int("width", px.Rect.Dx()),
			zap.Int("height", px.Rect.Dy()),
		)
	}
	c.textures[img] = id
	return id
}

// upload returns the GPU copy of a mesh, creating it on first use.
func (c *Context) upload(m *model.Mesh) *gpuMesh {
	if g, ok := c.meshes[m]; ok {
		return g
	}
	if len(m.Vertices) == 0 || len(m.Indices) == 0 {
		c.meshes[m] = nil
		return nil
	}

	g := &gpuMesh{parts: drawParts(m)}
	stride := int32(unsafe.Sizeof(model.Vertex{}))

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*int(stride), gl.Ptr(m.Vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.STATIC_DRAW)

	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(int(unsafe.Offsetof(model.Vertex{}.Position))))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(int(unsafe.Offsetof(model.Vertex{}.Normal))))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(2, 3, gl.FLOAT, false, stride, gl.PtrOffset(int(unsafe.Offsetof(model.Vertex{}.Color))))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(3, 2, gl.FLOAT, false, stride, gl.PtrOffset(int(unsafe.Offsetof(model.Vertex{}.UV))))
	gl.EnableVertexAttribArray(3)

	gl.BindVertexArray(0)

	c.log.Debug("mesh uploaded",
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("indices", len(m.Indices)),
		zap.Int("parts", len(g.parts)),
		zap.Uint32("vao", g.vao),
	)
	c.meshes[m] = g
	return g
}

func (g *gpuMesh) delete() {
	if g == nil {
		return
	}
	gl.DeleteVertexArrays(1, &g.vao)
	gl.DeleteBuffers(1, &g.vbo)
	gl.DeleteBuffers(1, &g.ebo)
}

// ReadPixels reads back the composited frame as bottom-up RGBA rows.
func (c *Context) ReadPixels() (pixels []byte, width, height int) {
	if c.target == nil {
		return nil, 0, 0
	}
	w, h := c.target.Size()
	return c.target.ReadPixels(), int(w), int(h)
}
