package drawcache

import (
	"fmt"
	stdmath "math"

	"github.com/Faultbox/meshcache/internal/gpu"
	"github.com/Faultbox/meshcache/internal/mesh"
	"github.com/Faultbox/meshcache/pkg/math"
)

var (
	formatPosNor       = gpu.NewFormat(gpu.Attr{Name: "pos", Comps: 3}, gpu.Attr{Name: "nor", Comps: 4})
	formatLNor         = gpu.NewFormat(gpu.Attr{Name: "lnor", Comps: 4})
	formatEdgeFac      = gpu.NewFormat(gpu.Attr{Name: "wd", Comps: 1})
	formatWeight       = gpu.NewFormat(gpu.Attr{Name: "weight", Comps: 1})
	formatSculptData   = gpu.NewFormat(gpu.Attr{Name: "msk", Comps: 1}, gpu.Attr{Name: "fset", Comps: 3})
	formatOrco         = gpu.NewFormat(gpu.Attr{Name: "orco", Comps: 4})
	formatEditData     = gpu.NewFormat(gpu.Attr{Name: "data", Comps: 4})
	formatFlag         = gpu.NewFormat(gpu.Attr{Name: "flag", Comps: 1})
	formatRatio        = gpu.NewFormat(gpu.Attr{Name: "ratio", Comps: 1})
	formatAngle        = gpu.NewFormat(gpu.Attr{Name: "angle", Comps: 2})
	formatFDotsPos     = gpu.NewFormat(gpu.Attr{Name: "pos", Comps: 3})
	formatFDotsNor     = gpu.NewFormat(gpu.Attr{Name: "norAndFlag", Comps: 4})
	formatFDotsUV      = gpu.NewFormat(gpu.Attr{Name: "u", Comps: 2})
	formatSkinRoots    = gpu.NewFormat(gpu.Attr{Name: "local_pos", Comps: 3}, gpu.Attr{Name: "size", Comps: 1})
	formatIndex        = gpu.NewFormat(gpu.Attr{Name: "index", Comps: 1})
	formatMeshAnalysis = gpu.NewFormat(gpu.Attr{Name: "weight", Comps: 1})
)

// UV editor flag bits.
const (
	uvFlagVertSelect = 1 << iota
	uvFlagFaceSelect
	uvFlagFaceActive
	uvFlagFaceHidden
	uvFlagEdgeSeam
)

func extractPosNor(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatPosNor, x.extendLen())
	x.eachExtend(func(slot, v, _, _ int) {
		vert := &x.src.Verts[v]
		vb.Set(slot, vert.Co[0], vert.Co[1], vert.Co[2], vert.No[0], vert.No[1], vert.No[2], flagState(vert.Flag))
	})
	return extractResult{vbo: vb}
}

func extractLNor(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatLNor, x.extendLen())
	x.eachExtend(func(slot, v, _, p int) {
		vert := &x.src.Verts[v]
		if p < 0 {
			vb.Set(slot, vert.No[0], vert.No[1], vert.No[2], flagState(vert.Flag))
			return
		}
		poly := &x.src.Polys[p]
		n := math.V3(vert.No)
		if !poly.Flag.Has(mesh.FlagSmooth) {
			n = x.polyNormals[p]
		}
		vb.Set(slot, n.X, n.Y, n.Z, flagState(poly.Flag))
	})
	return extractResult{vbo: vb}
}

// edgeFactor is 0 for flat interior edges and grows to 1 as the adjacent
// faces fold onto each other. Boundary, non-manifold, sharp and seam edges
// are always 1.
func (x *extractCtx) edgeFactor(e int) float32 {
	ed := x.src.Edges[e]
	adj := x.edges[e]
	if adj.faces != 2 || ed.Flag.Has(mesh.FlagSharp) || ed.Flag.Has(mesh.FlagSeam) {
		return 1
	}
	return math.Angle(x.polyNormals[adj.polys[0]], x.polyNormals[adj.polys[1]]) / stdmath.Pi
}

func extractEdgeFac(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatEdgeFac, x.extendLen())
	fac := make([]float32, len(x.src.Edges))
	for e := range fac {
		fac[e] = x.edgeFactor(e)
	}
	x.eachExtend(func(slot, _, e, _ int) {
		if e >= 0 {
			vb.Set(slot, fac[e])
		}
	})
	return extractResult{vbo: vb}
}

func extractWeights(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatWeight, x.extendLen())
	w := &x.opts.Weights
	cache := make(map[int]float32)
	x.eachExtend(func(slot, v, _, _ int) {
		val, ok := cache[v]
		if !ok {
			val = w.vertWeight(x.src, v)
			cache[v] = val
		}
		vb.Set(slot, val)
	})
	return extractResult{vbo: vb}
}

func extractUV(x *extractCtx) extractResult {
	layers := layerIndices(x.used.UV())
	attrs := make([]gpu.Attr, len(layers))
	for i, l := range layers {
		attrs[i] = gpu.Attr{Name: fmt.Sprintf("u%d", l), Comps: 2}
	}
	vb := gpu.NewVertBuf(gpu.NewFormat(attrs...), x.counts.Loops)
	for i, layer := range layers {
		if layer >= len(x.src.UVs) {
			continue
		}
		uv := x.src.UVs[layer].UV
		for l := range x.src.Loops {
			vb.SetAt(l, 2*i, uv[l][0], uv[l][1])
		}
	}
	return extractResult{vbo: vb}
}

func extractTan(x *extractCtx) extractResult {
	layers := layerIndices(x.used.Tan())
	attrs := make([]gpu.Attr, 0, len(layers)+1)
	for _, l := range layers {
		attrs = append(attrs, gpu.Attr{Name: fmt.Sprintf("t%d", l), Comps: 4})
	}
	orco := x.used.Has(MaskTanOrco)
	if orco {
		attrs = append(attrs, gpu.Attr{Name: "t_orco", Comps: 4})
	}
	vb := gpu.NewVertBuf(gpu.NewFormat(attrs...), x.counts.Loops)
	off := 0
	for _, layer := range layers {
		if layer < len(x.src.UVs) {
			uv := x.src.UVs[layer].UV
			x.writeTangents(vb, off, func(l int) math.Vec2 { return math.V2(uv[l]) })
		}
		off += 4
	}
	if orco {
		x.writeTangents(vb, off, func(l int) math.Vec2 {
			co := x.orco(x.src.Loops[l].V)
			return math.Vec2{X: co[0], Y: co[1]}
		})
	}
	return extractResult{vbo: vb}
}

// writeTangents accumulates per-triangle tangents onto loops, then
// orthogonalizes against the face normal. w holds the bitangent sign.
func (x *extractCtx) writeTangents(vb *gpu.VertBuf, off int, uvOf func(l int) math.Vec2) {
	tan := make([]math.Vec3, x.counts.Loops)
	sign := make([]float32, x.counts.Loops)
	for _, t := range x.tris {
		p0 := math.V3(x.src.Verts[x.src.Loops[t.Loops[0]].V].Co)
		p1 := math.V3(x.src.Verts[x.src.Loops[t.Loops[1]].V].Co)
		p2 := math.V3(x.src.Verts[x.src.Loops[t.Loops[2]].V].Co)
		uv0, uv1, uv2 := uvOf(t.Loops[0]), uvOf(t.Loops[1]), uvOf(t.Loops[2])

		e1, e2 := p1.Sub(p0), p2.Sub(p0)
		d1, d2 := uv1.Sub(uv0), uv2.Sub(uv0)
		det := d1.Cross(d2)
		if det == 0 {
			continue
		}
		r := 1 / det
		tv := e1.Scale(d2.Y).Sub(e2.Scale(d1.Y)).Scale(r)
		bv := e2.Scale(d1.X).Sub(e1.Scale(d2.X)).Scale(r)
		n := x.polyNormals[t.Poly]
		s := float32(1)
		if n.Cross(tv).Dot(bv) < 0 {
			s = -1
		}
		for _, l := range t.Loops {
			tan[l] = tan[l].Add(tv)
			sign[l] = s
		}
	}
	for l := range tan {
		p := x.loopPoly[l]
		if p < 0 {
			continue
		}
		n := x.polyNormals[p]
		t := tan[l].Sub(n.Scale(n.Dot(tan[l]))).Normalize()
		vb.SetAt(l, off, t.X, t.Y, t.Z, sign[l])
	}
}

func (x *extractCtx) orco(v int) [3]float32 {
	if v < len(x.src.Orco) {
		return x.src.Orco[v]
	}
	return x.src.Verts[v].Co
}

func extractVCol(x *extractCtx) extractResult {
	vcol := layerIndices(x.used.VCol())
	svcol := layerIndices(x.used.SculptVCol())
	attrs := make([]gpu.Attr, 0, len(vcol)+len(svcol))
	for _, l := range vcol {
		attrs = append(attrs, gpu.Attr{Name: fmt.Sprintf("c%d", l), Comps: 4})
	}
	for _, l := range svcol {
		attrs = append(attrs, gpu.Attr{Name: fmt.Sprintf("s%d", l), Comps: 4})
	}
	vb := gpu.NewVertBuf(gpu.NewFormat(attrs...), x.counts.Loops)
	off := 0
	for _, layer := range vcol {
		if layer < len(x.src.Colors) {
			col := x.src.Colors[layer].Color
			for l := range x.src.Loops {
				vb.SetAt(l, off, col[l][:]...)
			}
		}
		off += 4
	}
	for _, layer := range svcol {
		if layer < len(x.src.SculptColors) {
			col := x.src.SculptColors[layer].Color
			for l, loop := range x.src.Loops {
				vb.SetAt(l, off, col[loop.V][:]...)
			}
		}
		off += 4
	}
	return extractResult{vbo: vb}
}

// faceSetColor maps a face set id to a stable color; id 0 is white.
func faceSetColor(id int) [3]float32 {
	if id == 0 {
		return [3]float32{1, 1, 1}
	}
	const golden = 0.618033988749895
	h := stdmath.Mod(float64(id)*golden, 1)
	return hsvToRGB(h, 0.5, 0.9)
}

func hsvToRGB(h, s, v float64) [3]float32 {
	i := int(h * 6)
	f := h*6 - float64(i)
	p, q, t := v*(1-s), v*(1-f*s), v*(1-(1-f)*s)
	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return [3]float32{float32(r), float32(g), float32(b)}
}

func extractSculptData(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatSculptData, x.counts.Loops)
	for l, loop := range x.src.Loops {
		var mask float32
		if loop.V < len(x.src.Mask) {
			mask = x.src.Mask[loop.V]
		}
		fset := [3]float32{1, 1, 1}
		if p := x.loopPoly[l]; p >= 0 && p < len(x.src.FaceSets) {
			fset = faceSetColor(x.src.FaceSets[p])
		}
		vb.Set(l, mask, fset[0], fset[1], fset[2])
	}
	return extractResult{vbo: vb}
}

func extractOrco(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatOrco, x.counts.Loops)
	for l, loop := range x.src.Loops {
		co := x.orco(loop.V)
		vb.Set(l, co[0], co[1], co[2], 0)
	}
	return extractResult{vbo: vb}
}

func extractEditData(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatEditData, x.extendLen())
	x.eachExtend(func(slot, v, e, p int) {
		var eflag, fflag, crease float32
		if e >= 0 {
			ed := &x.src.Edges[e]
			eflag, crease = float32(ed.Flag), ed.Crease
		}
		if p >= 0 {
			fflag = float32(x.src.Polys[p].Flag)
		}
		vb.Set(slot, float32(x.src.Verts[v].Flag), eflag, fflag, crease)
	})
	return extractResult{vbo: vb}
}

func (x *extractCtx) uvFaceFlag(p int) int {
	f := x.src.Polys[p].Flag
	flag := 0
	if f.Has(mesh.FlagSelect) {
		flag |= uvFlagFaceSelect
	}
	if f.Has(mesh.FlagActive) {
		flag |= uvFlagFaceActive
	}
	if !x.uvVisible(p) {
		flag |= uvFlagFaceHidden
	}
	return flag
}

func extractEditUVData(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatFlag, x.counts.Loops)
	for l, loop := range x.src.Loops {
		p := x.loopPoly[l]
		if p < 0 {
			continue
		}
		flag := x.uvFaceFlag(p)
		if loop.Flag.Has(mesh.FlagSelect) {
			flag |= uvFlagVertSelect
		}
		if x.src.Edges[loop.E].Flag.Has(mesh.FlagSeam) {
			flag |= uvFlagEdgeSeam
		}
		vb.Set(l, float32(flag))
	}
	return extractResult{vbo: vb}
}

func (x *extractCtx) polyUV(p, layer int) []math.Vec2 {
	start, end := x.polyLoops(p)
	pts := make([]math.Vec2, 0, end-start)
	for l := start; l < end; l++ {
		pts = append(pts, math.V2(x.src.UVs[layer].UV[l]))
	}
	return pts
}

func extractStretchArea(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatRatio, x.counts.Loops)
	layer := x.editUVLayer()
	area := make([]float32, len(x.src.Polys))
	uvArea := make([]float32, len(x.src.Polys))
	var tot, totUV float32
	for p := range x.src.Polys {
		area[p] = math.PolyArea(x.src.PolyCoords(p))
		tot += area[p]
		if layer >= 0 {
			uvArea[p] = math.PolyArea2(x.polyUV(p, layer))
			totUV += uvArea[p]
		}
	}
	for p := range x.src.Polys {
		var ratio float32
		if tot > 0 && totUV > 0 && area[p] > 0 {
			ratio = (uvArea[p] / totUV) / (area[p] / tot)
		}
		start, end := x.polyLoops(p)
		for l := start; l < end; l++ {
			vb.Set(l, ratio)
		}
	}
	return extractResult{vbo: vb, totArea: tot, totUVArea: totUV}
}

func extractStretchAngle(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatAngle, x.counts.Loops)
	layer := x.editUVLayer()
	for p := range x.src.Polys {
		start, end := x.polyLoops(p)
		for l := start; l < end; l++ {
			prev, next := x.src.PrevLoop(p, l), x.src.NextLoop(p, l)
			co := func(l int) math.Vec3 { return math.V3(x.src.Verts[x.src.Loops[l].V].Co) }
			a3 := math.Angle(co(prev).Sub(co(l)), co(next).Sub(co(l)))
			var auv float32
			if layer >= 0 {
				uv := func(l int) math.Vec2 { return math.V2(x.src.UVs[layer].UV[l]) }
				auv = math.Angle2(uv(prev).Sub(uv(l)), uv(next).Sub(uv(l)))
			}
			vb.Set(l, auv, a3)
		}
	}
	return extractResult{vbo: vb}
}

// extractMeshAnalysis writes the overhang factor: 1 for faces pointing
// straight down in world space, 0 from horizontal upward. Hidden faces get -1.
func extractMeshAnalysis(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatMeshAnalysis, x.counts.Loops)
	mat := x.opts.transform()
	down := math.Vec3{Z: -1}
	for p := range x.src.Polys {
		fac := float32(-1)
		if !x.src.Polys[p].Flag.Has(mesh.FlagHidden) {
			n := mat.TransformDirection(x.polyNormals[p]).Normalize()
			fac = max(0, 1-math.Angle(n, down)/(stdmath.Pi/2))
		}
		start, end := x.polyLoops(p)
		for l := start; l < end; l++ {
			vb.Set(l, fac)
		}
	}
	return extractResult{vbo: vb}
}

func extractFDotsPos(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatFDotsPos, x.counts.Polys)
	src := x.src
	if x.opts.SubsurfFacedots && x.final != nil && len(x.final.Polys) == len(src.Polys) {
		src = x.final
	}
	for p := range x.src.Polys {
		c := src.PolyCenter(p)
		vb.Set(p, c.X, c.Y, c.Z)
	}
	return extractResult{vbo: vb}
}

func extractFDotsNor(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatFDotsNor, x.counts.Polys)
	for p, poly := range x.src.Polys {
		n := x.polyNormals[p]
		vb.Set(p, n.X, n.Y, n.Z, flagState(poly.Flag))
	}
	return extractResult{vbo: vb}
}

func extractFDotsUV(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatFDotsUV, x.counts.Polys)
	layer := x.editUVLayer()
	if layer < 0 {
		return extractResult{vbo: vb}
	}
	for p := range x.src.Polys {
		var c math.Vec2
		pts := x.polyUV(p, layer)
		for _, pt := range pts {
			c = c.Add(pt)
		}
		c = c.Scale(1 / float32(len(pts)))
		vb.Set(p, c.X, c.Y)
	}
	return extractResult{vbo: vb}
}

func extractFDotsEditUVData(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatFlag, x.counts.Polys)
	for p := range x.src.Polys {
		vb.Set(p, float32(x.uvFaceFlag(p)))
	}
	return extractResult{vbo: vb}
}

func extractSkinRoots(x *extractCtx) extractResult {
	var roots []int
	for v, vert := range x.src.Verts {
		if vert.Flag.Has(mesh.FlagSkinRoot) {
			roots = append(roots, v)
		}
	}
	vb := gpu.NewVertBuf(formatSkinRoots, len(roots))
	for i, v := range roots {
		co := x.src.Verts[v].Co
		vb.Set(i, co[0], co[1], co[2], 1)
	}
	return extractResult{vbo: vb}
}

func extractVertIdx(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatIndex, x.extendLen())
	x.eachExtend(func(slot, v, _, _ int) { vb.Set(slot, float32(v)) })
	return extractResult{vbo: vb}
}

func extractEdgeIdx(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatIndex, x.extendLen())
	x.eachExtend(func(slot, _, e, _ int) { vb.Set(slot, float32(e)) })
	return extractResult{vbo: vb}
}

func extractPolyIdx(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatIndex, x.counts.Loops)
	for l := range x.src.Loops {
		vb.Set(l, float32(x.loopPoly[l]))
	}
	return extractResult{vbo: vb}
}

func extractFDotIdx(x *extractCtx) extractResult {
	vb := gpu.NewVertBuf(formatIndex, x.counts.Polys)
	for p := range x.src.Polys {
		vb.Set(p, float32(p))
	}
	return extractResult{vbo: vb}
}
