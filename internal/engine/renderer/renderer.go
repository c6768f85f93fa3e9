// Package renderer draws batch cache output with OpenGL. Renderer doubles as
// the gpu.Device the cache uploads through, so buffer handles are GL names.
package renderer

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/meshcache/internal/engine/shader"
	"github.com/Faultbox/meshcache/internal/gpu"
	"github.com/Faultbox/meshcache/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Renderer owns GL buffers, one VAO per live batch and the viewer programs.
// All methods must run on the thread that owns the GL context.
type Renderer struct {
	config Config
	log    *zap.Logger

	Surface *shader.Program
	Overlay *shader.Program

	vaos  map[*gpu.Batch]*vaoEntry
	frame uint64
	live  int
}

type vaoEntry struct {
	id       uint32
	lastUsed uint64
}

var _ gpu.Device = (*Renderer)(nil)

// New creates a renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
		log:    logger.Named("renderer"),
		vaos:   make(map[*gpu.Batch]*vaoEntry),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	var err error
	if r.Surface, err = shader.New(shader.SurfaceVertex, shader.SurfaceFragment); err != nil {
		return nil, fmt.Errorf("surface program: %w", err)
	}
	if r.Overlay, err = shader.New(shader.OverlayVertex, shader.OverlayFragment); err != nil {
		r.Surface.Delete()
		return nil, fmt.Errorf("overlay program: %w", err)
	}
	return r, nil
}

// Close releases VAOs and programs. Buffers belong to the batch caches and
// are released when those are freed.
func (r *Renderer) Close() {
	r.log.Info("closing renderer", zap.Int("live_buffers", r.live))
	for b, e := range r.vaos {
		gl.DeleteVertexArrays(1, &e.id)
		delete(r.vaos, b)
	}
	r.Surface.Delete()
	r.Overlay.Delete()
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
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
	r.frame++
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// End drops the VAOs of batches not drawn this frame. The cache replaces a
// batch object whenever it rebuilds it, so stale entries never come back.
func (r *Renderer) End() {
	for b, e := range r.vaos {
		if e.lastUsed != r.frame {
			gl.DeleteVertexArrays(1, &e.id)
			delete(r.vaos, b)
		}
	}
}

// Live returns the number of GL buffers currently allocated.
func (r *Renderer) Live() int { return r.live }

// UploadVerts creates a GL array buffer for v.
func (r *Renderer) UploadVerts(v *gpu.VertBuf) {
	gl.BindVertexArray(0)
	gl.GenBuffers(1, &v.Handle)
	gl.BindBuffer(gl.ARRAY_BUFFER, v.Handle)
	if data := v.Data(); len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	r.live++
}

// UploadIndices creates a GL element buffer for b.
func (r *Renderer) UploadIndices(b *gpu.IndexBuf) {
	gl.BindVertexArray(0)
	gl.GenBuffers(1, &b.Handle)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.Handle)
	if idx := b.Indices(); len(idx) > 0 {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(idx)*4, gl.Ptr(idx), gl.STATIC_DRAW)
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)
	r.live++
}

// ReleaseVerts deletes v's GL buffer.
func (r *Renderer) ReleaseVerts(v *gpu.VertBuf) {
	r.release(&v.Handle)
}

// ReleaseIndices deletes b's GL buffer.
func (r *Renderer) ReleaseIndices(b *gpu.IndexBuf) {
	r.release(&b.Handle)
}

func (r *Renderer) release(h *uint32) {
	if *h == 0 {
		return
	}
	gl.DeleteBuffers(1, h)
	*h = 0
	r.live--
}

func glMode(p gpu.Prim) uint32 {
	switch p {
	case gpu.PrimPoints:
		return gl.POINTS
	case gpu.PrimLines:
		return gl.LINES
	case gpu.PrimLinesAdj:
		return gl.LINES_ADJACENCY
	default:
		return gl.TRIANGLES
	}
}

// Draw issues b with the currently bound program. Nil batches are skipped.
func (r *Renderer) Draw(b *gpu.Batch) {
	if b == nil || b.Len() == 0 {
		return
	}
	gl.BindVertexArray(r.vao(b))
	mode := glMode(b.Prim)
	if b.Index != nil {
		gl.DrawElements(mode, int32(b.Index.Len()), gl.UNSIGNED_INT, gl.PtrOffset(b.Index.Start()*4))
	} else {
		gl.DrawArrays(mode, 0, int32(b.Len()))
	}
	gl.BindVertexArray(0)
}

// vao returns the vertex array of b, binding each vertex buffer attribute to
// the slot its name maps to.
func (r *Renderer) vao(b *gpu.Batch) uint32 {
	if e, ok := r.vaos[b]; ok {
		e.lastUsed = r.frame
		return e.id
	}
	e := &vaoEntry{lastUsed: r.frame}
	gl.GenVertexArrays(1, &e.id)
	gl.BindVertexArray(e.id)
	for _, v := range b.Verts {
		if v == nil {
			continue
		}
		f := v.Format()
		gl.BindBuffer(gl.ARRAY_BUFFER, v.Handle)
		off := 0
		for _, a := range f.Attrs() {
			if loc, ok := shader.AttribLocations[a.Name]; ok {
				gl.EnableVertexAttribArray(loc)
				gl.VertexAttribPointer(loc, int32(a.Comps), gl.FLOAT, false, int32(f.Stride()*4), gl.PtrOffset(off*4))
			}
			off += a.Comps
		}
	}
	if b.Index != nil {
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.Index.Owner().Handle)
	}
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	r.vaos[b] = e
	return e.id
}

// Screenshot reads back the color buffer of the current frame.
func (r *Renderer) Screenshot() *image.RGBA {
	w, h := r.config.Width, r.config.Height
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	buf := make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(buf))
	return flipRows(buf, w, h)
}

// flipRows converts bottom-up RGBA rows, as GL returns them, into an image.
func flipRows(buf []byte, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	row := w * 4
	for y := 0; y < h; y++ {
		src := buf[(h-1-y)*row : (h-y)*row]
		copy(img.Pix[y*img.Stride:y*img.Stride+row], src)
	}
	return img
}
