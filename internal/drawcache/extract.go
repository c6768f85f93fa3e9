package drawcache

import (
	"github.com/Faultbox/meshcache/internal/gpu"
	"github.com/Faultbox/meshcache/internal/mesh"
	"github.com/Faultbox/meshcache/pkg/math"
)

// dataType lists derived mesh data an extractor reads. The union over a pass
// is computed once before the fan-out and shared read-only.
type dataType uint8

const (
	dataLoopTris dataType = 1 << iota
	dataPolyNormals
	dataEdgeAdjacency
)

// edgeAdj summarises the faces around one edge.
type edgeAdj struct {
	faces     int
	selFaces  int
	firstLoop int
	polys     [2]int
}

// extractCtx is the read-only input of every extractor of one variant.
type extractCtx struct {
	variant Variant
	src     *mesh.Mesh
	final   *mesh.Mesh
	opts    *Options
	used    AttrMask
	counts  Counts

	looseVerts []int
	looseEdges []int

	loopPoly    []int
	tris        []mesh.Tri
	polyNormals []math.Vec3
	edges       []edgeAdj
}

// extractResult carries a buffer and any side outputs.
type extractResult struct {
	vbo *gpu.VertBuf
	ibo *gpu.IndexBuf

	matCounts  []int
	looseStart int

	manifold           bool
	totArea, totUVArea float32
}

type extractor struct {
	data  dataType
	loose bool
	run   func(x *extractCtx) extractResult
}

var vboExtractors = [vboCount]extractor{
	VBOPosNor:             {loose: true, run: extractPosNor},
	VBOLNor:               {loose: true, data: dataPolyNormals, run: extractLNor},
	VBOEdgeFac:            {loose: true, data: dataPolyNormals | dataEdgeAdjacency, run: extractEdgeFac},
	VBOWeights:            {loose: true, run: extractWeights},
	VBOUV:                 {run: extractUV},
	VBOTan:                {data: dataLoopTris | dataPolyNormals, run: extractTan},
	VBOVCol:               {run: extractVCol},
	VBOSculptData:         {run: extractSculptData},
	VBOOrco:               {run: extractOrco},
	VBOEditData:           {loose: true, run: extractEditData},
	VBOEditUVData:         {run: extractEditUVData},
	VBOEditUVStretchArea:  {run: extractStretchArea},
	VBOEditUVStretchAngle: {run: extractStretchAngle},
	VBOMeshAnalysis:       {data: dataPolyNormals, run: extractMeshAnalysis},
	VBOFDotsPos:           {run: extractFDotsPos},
	VBOFDotsNor:           {data: dataPolyNormals, run: extractFDotsNor},
	VBOFDotsUV:            {run: extractFDotsUV},
	VBOFDotsEditUVData:    {run: extractFDotsEditUVData},
	VBOSkinRoots:          {run: extractSkinRoots},
	VBOVertIdx:            {loose: true, run: extractVertIdx},
	VBOEdgeIdx:            {loose: true, run: extractEdgeIdx},
	VBOPolyIdx:            {run: extractPolyIdx},
	VBOFDotIdx:            {run: extractFDotIdx},
}

// IBOLinesLoose has no extractor: it is a view derived from IBOLines.
var iboExtractors = [iboCount]extractor{
	IBOTris:           {data: dataLoopTris, run: extractTris},
	IBOLines:          {loose: true, data: dataEdgeAdjacency, run: extractLines},
	IBOPoints:         {loose: true, run: extractPoints},
	IBOFDots:          {run: extractFDots},
	IBOLinesPaintMask: {data: dataEdgeAdjacency, run: extractLinesPaintMask},
	IBOLinesAdjacency: {data: dataLoopTris, run: extractLinesAdjacency},
	IBOEditUVTris:     {data: dataLoopTris, run: extractEditUVTris},
	IBOEditUVLines:    {run: extractEditUVLines},
	IBOEditUVPoints:   {run: extractEditUVPoints},
	IBOEditUVFDots:    {run: extractEditUVFDots},
}

// prepare computes the shared derived data the pass needs.
func (x *extractCtx) prepare(data dataType) {
	src := x.src
	x.loopPoly = make([]int, len(src.Loops))
	for i := range x.loopPoly {
		x.loopPoly[i] = -1
	}
	for p, poly := range src.Polys {
		for l := poly.LoopStart; l < poly.LoopStart+poly.LoopLen; l++ {
			x.loopPoly[l] = p
		}
	}
	if data&dataLoopTris != 0 {
		x.tris = src.LoopTris()
	}
	if data&dataPolyNormals != 0 {
		x.polyNormals = src.PolyNormals()
	}
	if data&dataEdgeAdjacency != 0 {
		x.edges = make([]edgeAdj, len(src.Edges))
		for i := range x.edges {
			x.edges[i] = edgeAdj{firstLoop: -1, polys: [2]int{-1, -1}}
		}
		for l, loop := range src.Loops {
			p := x.loopPoly[l]
			if p < 0 {
				continue
			}
			e := &x.edges[loop.E]
			if e.firstLoop < 0 {
				e.firstLoop = l
			}
			if e.faces < 2 {
				e.polys[e.faces] = p
			}
			e.faces++
			if src.Polys[p].Flag.Has(mesh.FlagSelect) {
				e.selFaces++
			}
		}
	}
}

func (x *extractCtx) extendLen() int {
	return x.counts.Loops + 2*len(x.looseEdges) + len(x.looseVerts)
}

// eachExtend visits every slot of the extended loop layout: loops, then both
// ends of each loose edge, then each loose vertex. e and p are -1 where the
// slot has no edge or face.
func (x *extractCtx) eachExtend(fn func(slot, v, e, p int)) {
	for l, loop := range x.src.Loops {
		fn(l, loop.V, loop.E, x.loopPoly[l])
	}
	base := x.counts.Loops
	for j, e := range x.looseEdges {
		ed := x.src.Edges[e]
		fn(base+2*j, ed.V[0], e, -1)
		fn(base+2*j+1, ed.V[1], e, -1)
	}
	base += 2 * len(x.looseEdges)
	for k, v := range x.looseVerts {
		fn(base+k, v, -1, -1)
	}
}

func (x *extractCtx) polyHidden(p int) bool {
	return x.opts.UseHide && x.src.Polys[p].Flag.Has(mesh.FlagHidden)
}

func (x *extractCtx) edgeHidden(e int) bool {
	return x.opts.UseHide && x.src.Edges[e].Flag.Has(mesh.FlagHidden)
}

func (x *extractCtx) vertHidden(v int) bool {
	return x.opts.UseHide && x.src.Verts[v].Flag.Has(mesh.FlagHidden)
}

// uvVisible reports whether a face shows in the UV editor.
func (x *extractCtx) uvVisible(p int) bool {
	f := x.src.Polys[p].Flag
	if f.Has(mesh.FlagHidden) {
		return false
	}
	if x.opts.EditMode && !x.opts.UVSyncSelect {
		return f.Has(mesh.FlagSelect)
	}
	return true
}

// editUVLayer returns the UV layer the editor works on, or -1.
func (x *extractCtx) editUVLayer() int {
	return x.src.UVLayerIndex("")
}

func (x *extractCtx) polyLoops(p int) (start, end int) {
	poly := x.src.Polys[p]
	return poly.LoopStart, poly.LoopStart + poly.LoopLen
}

// flagState folds hidden/selected/active into one attribute value.
func flagState(f mesh.Flag) float32 {
	switch {
	case f.Has(mesh.FlagHidden):
		return -1
	case f.Has(mesh.FlagActive):
		return 2
	case f.Has(mesh.FlagSelect):
		return 1
	}
	return 0
}
