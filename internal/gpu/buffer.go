// Package gpu holds the CPU-side form of GPU vertex buffers, index buffers
// and batches. Uploading and drawing is delegated to a Device.
package gpu

import "fmt"

// Prim is a primitive topology.
type Prim uint8

const (
	PrimPoints Prim = iota
	PrimLines
	PrimTris
	PrimLinesAdj
)

func (p Prim) String() string {
	switch p {
	case PrimPoints:
		return "points"
	case PrimLines:
		return "lines"
	case PrimTris:
		return "tris"
	case PrimLinesAdj:
		return "lines_adj"
	default:
		return fmt.Sprintf("prim(%d)", uint8(p))
	}
}

// IndicesPerPrim returns how many indices make one primitive.
func (p Prim) IndicesPerPrim() int {
	switch p {
	case PrimLines:
		return 2
	case PrimTris:
		return 3
	case PrimLinesAdj:
		return 4
	default:
		return 1
	}
}

// Attr is a named float vertex attribute.
type Attr struct {
	Name  string
	Comps int
}

// Format describes the interleaved layout of a vertex buffer.
type Format struct {
	attrs  []Attr
	stride int
}

// NewFormat builds a format from attributes in declaration order.
func NewFormat(attrs ...Attr) Format {
	f := Format{attrs: attrs}
	for _, a := range attrs {
		f.stride += a.Comps
	}
	return f
}

// Attrs returns the attributes in order.
func (f Format) Attrs() []Attr { return f.attrs }

// Stride returns the number of floats per vertex.
func (f Format) Stride() int { return f.stride }

// Offset returns the float offset of the named attribute, or -1.
func (f Format) Offset(name string) int {
	off := 0
	for _, a := range f.attrs {
		if a.Name == name {
			return off
		}
		off += a.Comps
	}
	return -1
}

// VertBuf is an interleaved float vertex buffer.
type VertBuf struct {
	format Format
	data   []float32

	// Handle is assigned by the Device on upload; 0 means not resident.
	Handle uint32
}

// NewVertBuf allocates a zeroed buffer for n vertices.
func NewVertBuf(format Format, n int) *VertBuf {
	return &VertBuf{format: format, data: make([]float32, n*format.stride)}
}

// Format returns the buffer layout.
func (v *VertBuf) Format() Format { return v.format }

// Len returns the vertex count.
func (v *VertBuf) Len() int {
	if v.format.stride == 0 {
		return 0
	}
	return len(v.data) / v.format.stride
}

// Data returns the raw interleaved storage.
func (v *VertBuf) Data() []float32 { return v.data }

// Vertex returns the floats of vertex i.
func (v *VertBuf) Vertex(i int) []float32 {
	s := v.format.stride
	return v.data[i*s : (i+1)*s]
}

// Set writes vals starting at the first component of vertex i.
func (v *VertBuf) Set(i int, vals ...float32) {
	copy(v.Vertex(i), vals)
}

// SetAt writes vals starting at float offset off inside vertex i.
func (v *VertBuf) SetAt(i, off int, vals ...float32) {
	copy(v.Vertex(i)[off:], vals)
}

// IndexBuf is an index buffer or a sub-range view into one.
type IndexBuf struct {
	prim    Prim
	indices []uint32

	parent       *IndexBuf
	start, count int

	// Handle is assigned by the Device on upload; views share their parent's.
	Handle uint32
}

// NewIndexBuf wraps owned index storage.
func NewIndexBuf(prim Prim, indices []uint32) *IndexBuf {
	return &IndexBuf{prim: prim, indices: indices, count: len(indices)}
}

// NewSubRange returns a non-owning view of count indices of parent starting at start.
func NewSubRange(parent *IndexBuf, start, count int) *IndexBuf {
	if parent.parent != nil {
		panic("gpu: sub-range of a sub-range")
	}
	if start < 0 || count < 0 || start+count > len(parent.indices) {
		panic(fmt.Sprintf("gpu: sub-range [%d,%d) outside parent of %d indices", start, start+count, len(parent.indices)))
	}
	return &IndexBuf{prim: parent.prim, parent: parent, start: start, count: count}
}

// Prim returns the primitive topology.
func (b *IndexBuf) Prim() Prim { return b.prim }

// Len returns the index count.
func (b *IndexBuf) Len() int { return b.count }

// Start returns the first index of a view inside its parent (0 for owners).
func (b *IndexBuf) Start() int { return b.start }

// Parent returns the owning buffer of a view, or nil.
func (b *IndexBuf) Parent() *IndexBuf { return b.parent }

// Owner returns the buffer holding b's storage: its parent, or b itself.
func (b *IndexBuf) Owner() *IndexBuf {
	if b.parent != nil {
		return b.parent
	}
	return b
}

// IsView reports whether b shares storage with a parent.
func (b *IndexBuf) IsView() bool { return b.parent != nil }

// Indices returns the indices covered by b.
func (b *IndexBuf) Indices() []uint32 {
	if b.parent != nil {
		return b.parent.indices[b.start : b.start+b.count]
	}
	return b.indices
}

// Batch is a drawable unit: a primitive topology over vertex buffers,
// optionally indexed.
type Batch struct {
	Prim  Prim
	Index *IndexBuf
	Verts []*VertBuf
}

// NewBatch creates a batch. index may be nil for non-indexed draws.
func NewBatch(prim Prim, index *IndexBuf, verts ...*VertBuf) *Batch {
	return &Batch{Prim: prim, Index: index, Verts: verts}
}

// Len returns the number of vertices the batch draws.
func (b *Batch) Len() int {
	if b.Index != nil {
		return b.Index.Len()
	}
	if len(b.Verts) == 0 {
		return 0
	}
	return b.Verts[0].Len()
}

// Uses reports whether the batch references v.
func (b *Batch) Uses(v *VertBuf) bool {
	for _, vb := range b.Verts {
		if vb == v {
			return true
		}
	}
	return false
}
