// Package drawcache maintains, per mesh, the GPU buffers and batches the
// viewport draws. Requests are accumulated between frames, then EnsureBatches
// extracts only the missing buffers (in parallel) and assembles the requested
// batches. Topology changes invalidate only what they touch.
package drawcache

import (
	"fmt"
	"math/bits"
	"slices"
	"strings"
)

// BatchFlag identifies one drawable batch kind. Flags combine as a bitset.
type BatchFlag uint32

const (
	Surface BatchFlag = 1 << iota
	SurfaceWeights
	EditTriangles
	EditVertices
	EditEdges
	EditVNor
	EditLNor
	EditFacedots
	EditMeshAnalysis
	EditUVFacesStretchArea
	EditUVFacesStretchAngle
	EditUVFaces
	EditUVEdges
	EditUVVerts
	EditUVFacedots
	EditSelectionVerts
	EditSelectionEdges
	EditSelectionFaces
	EditSelectionFacedots
	AllVerts
	AllEdges
	LooseEdges
	EdgeDetection
	WireEdges
	WireLoops
	WireLoopsUVs
	SkinRoots
	SculptOverlays

	batchFlagEnd
)

const batchCount = 28

const (
	// EditUV groups the UV editor batches.
	EditUV = EditUVFacesStretchArea | EditUVFacesStretchAngle | EditUVFaces |
		EditUVEdges | EditUVVerts | EditUVFacedots | WireLoopsUVs

	// EditModeOnly are batches that only exist while editing.
	EditModeOnly = EditTriangles | EditVertices | EditEdges | EditVNor |
		EditLNor | EditFacedots | EditMeshAnalysis | SkinRoots

	// AllBatches has every flag set.
	AllBatches = batchFlagEnd - 1
)

var batchNames = [batchCount]string{
	"surface", "surface_weights",
	"edit_triangles", "edit_vertices", "edit_edges", "edit_vnor", "edit_lnor",
	"edit_facedots", "edit_mesh_analysis",
	"edituv_faces_stretch_area", "edituv_faces_stretch_angle", "edituv_faces",
	"edituv_edges", "edituv_verts", "edituv_facedots",
	"edit_selection_verts", "edit_selection_edges", "edit_selection_faces",
	"edit_selection_facedots",
	"all_verts", "all_edges", "loose_edges", "edge_detection", "wire_edges",
	"wire_loops", "wire_loops_uvs", "skin_roots", "sculpt_overlays",
}

// Has reports whether every flag of o is set.
func (f BatchFlag) Has(o BatchFlag) bool { return f&o == o }

// Any reports whether some flag of o is set.
func (f BatchFlag) Any(o BatchFlag) bool { return f&o != 0 }

// Count returns the number of set flags.
func (f BatchFlag) Count() int { return bits.OnesCount32(uint32(f & AllBatches)) }

// Each calls fn for every set flag in declaration order.
func (f BatchFlag) Each(fn func(BatchFlag)) {
	f &= AllBatches
	for f != 0 {
		low := f & -f
		fn(low)
		f &^= low
	}
}

// index returns the position of a single flag.
func (f BatchFlag) index() int { return bits.TrailingZeros32(uint32(f)) }

func (f BatchFlag) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	f.Each(func(b BatchFlag) { names = append(names, batchNames[b.index()]) })
	return strings.Join(names, "|")
}

// ParseBatchFlags parses a "|" or "," separated list of batch names as
// printed by String. "all" selects every batch.
func ParseBatchFlags(s string) (BatchFlag, error) {
	var f BatchFlag
	for _, name := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		name = strings.TrimSpace(name)
		if name == "all" {
			f |= AllBatches
			continue
		}
		i := slices.Index(batchNames[:], name)
		if i < 0 {
			return 0, fmt.Errorf("unknown batch %q", name)
		}
		f |= 1 << i
	}
	return f, nil
}
