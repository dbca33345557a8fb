// Package renderer draws quadtree terrain tiles with OpenGL. The renderer is
// the quadtree's scene: leaf meshes are uploaded when attached and their GPU
// buffers freed when detached.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/quadterrain/internal/engine/shader"
	"github.com/Faultbox/quadterrain/internal/logger"
	"github.com/Faultbox/quadterrain/internal/quadtree"
	"github.com/Faultbox/quadterrain/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width     int
	Height    int
	Wireframe bool
	// MaxTiles caps GPU tile uploads; 0 for no cap.
	MaxTiles int
}

// gpuTile is the GPU copy of one leaf mesh.
type gpuTile struct {
	vao   uint32
	vbo   uint32
	count int32
	world math.Mat4
	color [4]float32
	lines bool
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config  Config
	program *shader.Program

	tiles map[quadtree.Handle]*gpuTile
	next  quadtree.Handle

	// Index buffers are shared per tile resolution.
	indexBuffers map[int]indexBuffer

	lightDir math.Vec3
}

type indexBuffer struct {
	ebo   uint32
	count int32
}

// FrameStats reports what the last Draw submitted.
type FrameStats struct {
	Tiles     int
	Triangles int
}

// New creates a new renderer.
// Must be called after the OpenGL context is created.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config:       cfg,
		tiles:        make(map[quadtree.Handle]*gpuTile),
		indexBuffers: make(map[int]indexBuffer),
		lightDir:     math.Vec3{X: -0.4, Y: 1, Z: -0.3}.Normalize(),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)

	var err error
	r.program, err = shader.CompileProgram(vertexShader, fragmentShader)
	if err != nil {
		return nil, fmt.Errorf("failed to create tile shader: %w", err)
	}

	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Close frees every uploaded tile and the shader program.
func (r *Renderer) Close() {
	logger.Info("closing renderer", zap.Int("tiles", len(r.tiles)))
	for h := range r.tiles {
		r.Detach(h)
	}
	for res, ib := range r.indexBuffers {
		gl.DeleteBuffers(1, &ib.ebo)
		delete(r.indexBuffers, res)
	}
	if r.program != nil {
		r.program.Delete()
	}
}

// Attach uploads a leaf mesh and returns the handle it is drawn under.
func (r *Renderer) Attach(t *quadtree.Tile, m *quadtree.Mesh) (quadtree.Handle, error) {
	if r.config.MaxTiles > 0 && len(r.tiles) >= r.config.MaxTiles {
		return 0, fmt.Errorf("tile cap %d reached", r.config.MaxTiles)
	}
	if len(m.Vertices) == 0 {
		return 0, fmt.Errorf("empty mesh for %v", t)
	}

	ib, err := r.indices(m)
	if err != nil {
		return 0, err
	}

	tile := &gpuTile{
		count: ib.count,
		world: m.World,
		color: m.Material.Color,
		lines: m.Material.Wireframe,
	}

	gl.GenVertexArrays(1, &tile.vao)
	gl.BindVertexArray(tile.vao)

	gl.GenBuffers(1, &tile.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, tile.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*int(vertexStride), unsafe.Pointer(&m.Vertices[0]), gl.STATIC_DRAW)

	for _, a := range vertexAttributes {
		gl.VertexAttribPointerWithOffset(a.location, a.size, gl.FLOAT, false, vertexStride, a.offset)
		gl.EnableVertexAttribArray(a.location)
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ib.ebo)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteVertexArrays(1, &tile.vao)
		gl.DeleteBuffers(1, &tile.vbo)
		return 0, fmt.Errorf("uploading %v: GL error 0x%x", t, code)
	}

	r.next++
	r.tiles[r.next] = tile
	return r.next, nil
}

// Detach frees the GPU buffers of a tile. Unknown handles are ignored.
func (r *Renderer) Detach(h quadtree.Handle) {
	tile, ok := r.tiles[h]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &tile.vao)
	gl.DeleteBuffers(1, &tile.vbo)
	delete(r.tiles, h)
}

// indices returns the shared element buffer for the mesh resolution,
// uploading it the first time it is needed.
func (r *Renderer) indices(m *quadtree.Mesh) (indexBuffer, error) {
	if ib, ok := r.indexBuffers[m.Resolution]; ok {
		return ib, nil
	}
	if len(m.Indices) == 0 {
		return indexBuffer{}, fmt.Errorf("mesh has no indices")
	}

	ib := indexBuffer{count: int32(len(m.Indices))}
	gl.GenBuffers(1, &ib.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ib.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, unsafe.Pointer(&m.Indices[0]), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)

	r.indexBuffers[m.Resolution] = ib
	logger.Debug("tile index buffer created",
		zap.Int("resolution", m.Resolution),
		zap.Int("indices", len(m.Indices)))
	return ib, nil
}

// SetWireframe overrides the per-material wireframe flag for every tile.
func (r *Renderer) SetWireframe(on bool) {
	r.config.Wireframe = on
}

// Wireframe reports whether tiles are drawn as lines.
func (r *Renderer) Wireframe() bool {
	return r.config.Wireframe
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Aspect returns the viewport aspect ratio.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Draw renders every attached tile.
func (r *Renderer) Draw(view, projection math.Mat4) FrameStats {
	var stats FrameStats

	r.program.Use()
	r.program.SetMat4("uView", view)
	r.program.SetMat4("uProjection", projection)
	r.program.SetVec3("uLightDir", r.lightDir)

	for _, tile := range r.tiles {
		lines := r.config.Wireframe && tile.lines
		if lines {
			gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		} else {
			gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
		}
		r.program.SetMat4("uModel", tile.world)
		r.program.SetVec4("uColor", tile.color)
		r.program.SetBool("uLit", !lines)

		gl.BindVertexArray(tile.vao)
		gl.DrawElementsWithOffset(gl.TRIANGLES, tile.count, gl.UNSIGNED_INT, 0)

		stats.Tiles++
		stats.Triangles += int(tile.count) / 3
	}

	gl.BindVertexArray(0)
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	return stats
}

// End finishes the current frame.
func (r *Renderer) End() {}

// ReadPixels returns the framebuffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	if len(pixels) == 0 {
		return pixels, w, h
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels, w, h
}

// TileCount returns the number of uploaded tiles.
func (r *Renderer) TileCount() int {
	return len(r.tiles)
}
