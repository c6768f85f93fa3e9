package drawcache

import "github.com/Faultbox/meshcache/internal/gpu"

// batchSpec is the static dependency of one batch kind on buffers of one
// variant.
type batchSpec struct {
	variant Variant
	prim    gpu.Prim
	index   IBOKind
	vbos    []VBOKind
	// layers adds the attribute layer VBOs selected by the used mask.
	layers bool
	// editMode batches need an edit mesh; uvEdit ones also need UV editing.
	editMode bool
	uvEdit   bool
}

var batchSpecs = [batchCount]batchSpec{
	// Surface
	{variant: VariantFinal, prim: gpu.PrimTris, index: IBOTris, vbos: []VBOKind{VBOPosNor, VBOLNor}, layers: true},
	// SurfaceWeights
	{variant: VariantFinal, prim: gpu.PrimTris, index: IBOTris, vbos: []VBOKind{VBOPosNor, VBOWeights}},
	// EditTriangles
	{variant: VariantCage, prim: gpu.PrimTris, index: IBOTris, vbos: []VBOKind{VBOPosNor, VBOEditData}, editMode: true},
	// EditVertices
	{variant: VariantCage, prim: gpu.PrimPoints, index: IBOPoints, vbos: []VBOKind{VBOPosNor, VBOEditData}, editMode: true},
	// EditEdges
	{variant: VariantCage, prim: gpu.PrimLines, index: IBOLines, vbos: []VBOKind{VBOPosNor, VBOEditData}, editMode: true},
	// EditVNor
	{variant: VariantCage, prim: gpu.PrimPoints, index: IBOPoints, vbos: []VBOKind{VBOPosNor}, editMode: true},
	// EditLNor
	{variant: VariantCage, prim: gpu.PrimTris, index: IBOTris, vbos: []VBOKind{VBOPosNor, VBOLNor}, editMode: true},
	// EditFacedots
	{variant: VariantCage, prim: gpu.PrimPoints, index: IBOFDots, vbos: []VBOKind{VBOFDotsPos, VBOFDotsNor}, editMode: true},
	// EditMeshAnalysis
	{variant: VariantCage, prim: gpu.PrimTris, index: IBOTris, vbos: []VBOKind{VBOPosNor, VBOMeshAnalysis}, editMode: true},
	// EditUVFacesStretchArea
	{variant: VariantUVCage, prim: gpu.PrimTris, index: IBOEditUVTris, vbos: []VBOKind{VBOUV, VBOEditUVData, VBOEditUVStretchArea}, editMode: true, uvEdit: true},
	// EditUVFacesStretchAngle
	{variant: VariantUVCage, prim: gpu.PrimTris, index: IBOEditUVTris, vbos: []VBOKind{VBOUV, VBOEditUVData, VBOEditUVStretchAngle}, editMode: true, uvEdit: true},
	// EditUVFaces
	{variant: VariantUVCage, prim: gpu.PrimTris, index: IBOEditUVTris, vbos: []VBOKind{VBOUV, VBOEditUVData}, editMode: true, uvEdit: true},
	// EditUVEdges
	{variant: VariantUVCage, prim: gpu.PrimLines, index: IBOEditUVLines, vbos: []VBOKind{VBOUV, VBOEditUVData}, editMode: true, uvEdit: true},
	// EditUVVerts
	{variant: VariantUVCage, prim: gpu.PrimPoints, index: IBOEditUVPoints, vbos: []VBOKind{VBOUV, VBOEditUVData}, editMode: true, uvEdit: true},
	// EditUVFacedots
	{variant: VariantUVCage, prim: gpu.PrimPoints, index: IBOEditUVFDots, vbos: []VBOKind{VBOFDotsUV, VBOFDotsEditUVData}, editMode: true, uvEdit: true},
	// EditSelectionVerts
	{variant: VariantCage, prim: gpu.PrimPoints, index: IBOPoints, vbos: []VBOKind{VBOPosNor, VBOVertIdx}},
	// EditSelectionEdges
	{variant: VariantCage, prim: gpu.PrimLines, index: IBOLines, vbos: []VBOKind{VBOPosNor, VBOEdgeIdx}},
	// EditSelectionFaces
	{variant: VariantCage, prim: gpu.PrimTris, index: IBOTris, vbos: []VBOKind{VBOPosNor, VBOPolyIdx}},
	// EditSelectionFacedots
	{variant: VariantCage, prim: gpu.PrimPoints, index: IBOFDots, vbos: []VBOKind{VBOFDotsPos, VBOFDotIdx}},
	// AllVerts
	{variant: VariantFinal, prim: gpu.PrimPoints, index: iboNone, vbos: []VBOKind{VBOPosNor}},
	// AllEdges
	{variant: VariantFinal, prim: gpu.PrimLines, index: IBOLines, vbos: []VBOKind{VBOPosNor}},
	// LooseEdges
	{variant: VariantFinal, prim: gpu.PrimLines, index: IBOLinesLoose, vbos: []VBOKind{VBOPosNor}},
	// EdgeDetection
	{variant: VariantFinal, prim: gpu.PrimLinesAdj, index: IBOLinesAdjacency, vbos: []VBOKind{VBOPosNor}},
	// WireEdges
	{variant: VariantFinal, prim: gpu.PrimLines, index: IBOLines, vbos: []VBOKind{VBOPosNor, VBOEdgeFac}},
	// WireLoops
	{variant: VariantFinal, prim: gpu.PrimLines, index: IBOLinesPaintMask, vbos: []VBOKind{VBOPosNor, VBOLNor}},
	// WireLoopsUVs
	{variant: VariantFinal, prim: gpu.PrimLines, index: IBOEditUVLines, vbos: []VBOKind{VBOUV}},
	// SkinRoots
	{variant: VariantCage, prim: gpu.PrimPoints, index: iboNone, vbos: []VBOKind{VBOSkinRoots}, editMode: true},
	// SculptOverlays
	{variant: VariantFinal, prim: gpu.PrimTris, index: IBOTris, vbos: []VBOKind{VBOPosNor, VBOSculptData}},
}

func specOf(f BatchFlag) *batchSpec { return &batchSpecs[f.index()] }

// layerVBOs returns the attribute layer buffers the used mask selects.
func layerVBOs(used AttrMask) []VBOKind {
	var out []VBOKind
	if used.UV() != 0 {
		out = append(out, VBOUV)
	}
	if used.Tan() != 0 || used.Has(MaskTanOrco) {
		out = append(out, VBOTan)
	}
	if used.VCol() != 0 || used.SculptVCol() != 0 {
		out = append(out, VBOVCol)
	}
	if used.Has(MaskOrco) {
		out = append(out, VBOOrco)
	}
	return out
}

// vbosFor returns every vertex buffer the batch reads under used.
func (s *batchSpec) vbosFor(used AttrMask) []VBOKind {
	if !s.layers {
		return s.vbos
	}
	return append(append([]VBOKind(nil), s.vbos...), layerVBOs(used)...)
}

// dependsOnVBO reports whether the batch may read k under any mask.
func (s *batchSpec) dependsOnVBO(k VBOKind) bool {
	for _, v := range s.vbos {
		if v == k {
			return true
		}
	}
	if s.layers {
		switch k {
		case VBOUV, VBOTan, VBOVCol, VBOOrco:
			return true
		}
	}
	return false
}

// dependsOnIBO reports whether the batch reads k, directly or through a view.
func (s *batchSpec) dependsOnIBO(k IBOKind) bool {
	if s.index == iboNone {
		return false
	}
	if s.index == k {
		return true
	}
	return s.index == IBOLinesLoose && k == IBOLines
}

// dims returns the topology dimensions the batch shape depends on.
func (s *batchSpec) dims() dim {
	var d dim
	if s.index != iboNone {
		d |= iboDims(s.index)
	}
	for _, k := range s.vbos {
		d |= vboDims(k)
	}
	if s.layers {
		d |= dimFaces
	}
	return d
}
