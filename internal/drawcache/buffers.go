package drawcache

import (
	"fmt"

	"github.com/Faultbox/meshcache/internal/gpu"
)

// Variant selects which evaluated mesh a Buffer Set is extracted from.
type Variant uint8

const (
	VariantFinal Variant = iota
	VariantCage
	VariantUVCage

	variantCount
)

func (v Variant) String() string {
	switch v {
	case VariantFinal:
		return "final"
	case VariantCage:
		return "cage"
	case VariantUVCage:
		return "uv_cage"
	default:
		return fmt.Sprintf("variant(%d)", uint8(v))
	}
}

// VariantSet is a bitset of variants.
type VariantSet uint8

// Has reports whether v is in the set.
func (s VariantSet) Has(v Variant) bool { return s&(1<<v) != 0 }

func (s *VariantSet) add(v Variant) { *s |= 1 << v }

// VBOKind names a vertex buffer slot.
type VBOKind uint8

const (
	VBOPosNor VBOKind = iota
	VBOLNor
	VBOEdgeFac
	VBOWeights
	VBOUV
	VBOTan
	VBOVCol
	VBOSculptData
	VBOOrco
	VBOEditData
	VBOEditUVData
	VBOEditUVStretchArea
	VBOEditUVStretchAngle
	VBOMeshAnalysis
	VBOFDotsPos
	VBOFDotsNor
	VBOFDotsUV
	VBOFDotsEditUVData
	VBOSkinRoots
	VBOVertIdx
	VBOEdgeIdx
	VBOPolyIdx
	VBOFDotIdx

	vboCount
)

var vboNames = [vboCount]string{
	"pos_nor", "lnor", "edge_fac", "weights", "uv", "tan", "vcol",
	"sculpt_data", "orco", "edit_data", "edituv_data", "edituv_stretch_area",
	"edituv_stretch_angle", "mesh_analysis", "fdots_pos", "fdots_nor",
	"fdots_uv", "fdots_edituv_data", "skin_roots", "vert_idx", "edge_idx",
	"poly_idx", "fdot_idx",
}

func (k VBOKind) String() string {
	if k < vboCount {
		return vboNames[k]
	}
	return fmt.Sprintf("vbo(%d)", uint8(k))
}

// Extends reports whether the buffer uses the extended loop layout: one entry
// per loop, then two per loose edge, then one per loose vertex.
func (k VBOKind) Extends() bool {
	switch k {
	case VBOPosNor, VBOLNor, VBOEdgeFac, VBOWeights, VBOEditData, VBOVertIdx, VBOEdgeIdx:
		return true
	}
	return false
}

// IBOKind names an index buffer slot.
type IBOKind uint8

const (
	IBOTris IBOKind = iota
	IBOLines
	IBOLinesLoose
	IBOPoints
	IBOFDots
	IBOLinesPaintMask
	IBOLinesAdjacency
	IBOEditUVTris
	IBOEditUVLines
	IBOEditUVPoints
	IBOEditUVFDots

	iboCount

	iboNone = iboCount
)

var iboNames = [iboCount]string{
	"tris", "lines", "lines_loose", "points", "fdots", "lines_paint_mask",
	"lines_adjacency", "edituv_tris", "edituv_lines", "edituv_points",
	"edituv_fdots",
}

func (k IBOKind) String() string {
	if k < iboCount {
		return iboNames[k]
	}
	return "none"
}

// dim is a topology dimension a buffer's shape depends on.
type dim uint8

const (
	dimVerts dim = 1 << iota
	dimEdges
	dimFaces
	dimMats
)

const dimTopology = dimVerts | dimEdges | dimFaces

func (d dim) String() string {
	s := ""
	for _, b := range []struct {
		d    dim
		name string
	}{{dimVerts, "verts"}, {dimEdges, "edges"}, {dimFaces, "faces"}, {dimMats, "mats"}} {
		if d&b.d != 0 {
			if s != "" {
				s += "|"
			}
			s += b.name
		}
	}
	if s == "" {
		return "none"
	}
	return s
}

func vboDims(k VBOKind) dim {
	switch {
	case k.Extends():
		return dimTopology
	case k == VBOSkinRoots:
		return dimVerts
	default:
		return dimFaces
	}
}

func iboDims(k IBOKind) dim {
	switch k {
	case IBOTris:
		return dimFaces | dimMats
	case IBOLines, IBOLinesLoose, IBOLinesPaintMask:
		return dimEdges | dimFaces
	case IBOPoints:
		return dimTopology
	default:
		return dimFaces
	}
}

// BufferSet holds the vertex and index buffers extracted from one variant.
// A missing map entry means the buffer is not built.
type BufferSet struct {
	variant Variant
	vbo     map[VBOKind]*gpu.VertBuf
	ibo     map[IBOKind]*gpu.IndexBuf

	// trisPerMat are views into the tris buffer, one per material slot.
	trisPerMat []*gpu.IndexBuf

	counts Counts
	built  bool
}

func newBufferSet(v Variant) *BufferSet {
	return &BufferSet{
		variant: v,
		vbo:     make(map[VBOKind]*gpu.VertBuf),
		ibo:     make(map[IBOKind]*gpu.IndexBuf),
	}
}

// Variant returns which mesh the set is extracted from.
func (s *BufferSet) Variant() Variant { return s.variant }

// VBO returns a vertex buffer or nil.
func (s *BufferSet) VBO(k VBOKind) *gpu.VertBuf { return s.vbo[k] }

// IBO returns an index buffer or nil.
func (s *BufferSet) IBO(k IBOKind) *gpu.IndexBuf { return s.ibo[k] }

// TrisPerMat returns the per-material views of the tris buffer.
func (s *BufferSet) TrisPerMat() []*gpu.IndexBuf { return s.trisPerMat }

// Counts returns the topology the buffers were extracted for.
func (s *BufferSet) Counts() Counts { return s.counts }

// Len returns the number of built buffers, views excluded.
func (s *BufferSet) Len() int {
	n := len(s.vbo) + len(s.ibo)
	if s.ibo[IBOLinesLoose] != nil {
		n--
	}
	return n
}

func (s *BufferSet) freeVBO(k VBOKind, dev gpu.Device) bool {
	vb, ok := s.vbo[k]
	if !ok {
		return false
	}
	dev.ReleaseVerts(vb)
	delete(s.vbo, k)
	return true
}

// freeIBO releases an index buffer. Views go with their owner.
func (s *BufferSet) freeIBO(k IBOKind, dev gpu.Device) bool {
	switch k {
	case IBOLinesLoose:
		k = IBOLines
	case IBOTris:
		s.trisPerMat = nil
	}
	ib, ok := s.ibo[k]
	if !ok {
		return false
	}
	dev.ReleaseIndices(ib)
	delete(s.ibo, k)
	if k == IBOLines {
		delete(s.ibo, IBOLinesLoose)
	}
	return true
}

func (s *BufferSet) free(dev gpu.Device) {
	for k := range s.vbo {
		s.freeVBO(k, dev)
	}
	for k := range s.ibo {
		if k != IBOLinesLoose {
			s.freeIBO(k, dev)
		}
	}
	s.trisPerMat = nil
	s.counts = Counts{}
	s.built = false
}

// freeDims releases every buffer whose shape depends on d.
func (s *BufferSet) freeDims(d dim, dev gpu.Device) (vbos []VBOKind, ibos []IBOKind) {
	for k := range s.vbo {
		if vboDims(k)&d != 0 && s.freeVBO(k, dev) {
			vbos = append(vbos, k)
		}
	}
	for k := range s.ibo {
		if k != IBOLinesLoose && iboDims(k)&d != 0 && s.freeIBO(k, dev) {
			ibos = append(ibos, k)
		}
	}
	return vbos, ibos
}
