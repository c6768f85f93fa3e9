package drawcache

import (
	"github.com/Faultbox/meshcache/internal/gpu"
)

// extractTris groups fan triangles by material slot. matCounts holds the
// index count of each slot in order, so slot ranges tile the buffer.
func extractTris(x *extractCtx) extractResult {
	mats := max(1, x.counts.Mats)
	buckets := make([][]uint32, mats)
	for _, t := range x.tris {
		if x.polyHidden(t.Poly) {
			continue
		}
		m := x.src.PolyMat(t.Poly, mats)
		buckets[m] = append(buckets[m], uint32(t.Loops[0]), uint32(t.Loops[1]), uint32(t.Loops[2]))
	}
	idx := make([]uint32, 0, 3*len(x.tris))
	counts := make([]int, mats)
	for m, b := range buckets {
		idx = append(idx, b...)
		counts[m] = len(b)
	}
	return extractResult{ibo: gpu.NewIndexBuf(gpu.PrimTris, idx), matCounts: counts}
}

// extractLines emits every face edge once through its first loop, then the
// loose edges as a contiguous tail addressing their extended slots.
func extractLines(x *extractCtx) extractResult {
	idx := make([]uint32, 0, 2*len(x.src.Edges))
	for e, adj := range x.edges {
		if adj.faces == 0 || x.edgeHidden(e) {
			continue
		}
		l := adj.firstLoop
		idx = append(idx, uint32(l), uint32(x.src.NextLoop(x.loopPoly[l], l)))
	}
	looseStart := len(idx)
	base := x.counts.Loops
	for j, e := range x.looseEdges {
		if x.edgeHidden(e) {
			continue
		}
		idx = append(idx, uint32(base+2*j), uint32(base+2*j+1))
	}
	return extractResult{ibo: gpu.NewIndexBuf(gpu.PrimLines, idx), looseStart: looseStart}
}

// extractPoints emits one slot per vertex in vertex order: its first loop,
// else its first loose edge end, else its loose vertex slot.
func extractPoints(x *extractCtx) extractResult {
	slot := make([]int, len(x.src.Verts))
	for i := range slot {
		slot[i] = -1
	}
	for l, loop := range x.src.Loops {
		if slot[loop.V] < 0 && x.loopPoly[l] >= 0 {
			slot[loop.V] = l
		}
	}
	base := x.counts.Loops
	for j, e := range x.looseEdges {
		for k, v := range x.src.Edges[e].V {
			if slot[v] < 0 {
				slot[v] = base + 2*j + k
			}
		}
	}
	base += 2 * len(x.looseEdges)
	for k, v := range x.looseVerts {
		slot[v] = base + k
	}
	idx := make([]uint32, 0, len(slot))
	for v, s := range slot {
		if s >= 0 && !x.vertHidden(v) {
			idx = append(idx, uint32(s))
		}
	}
	return extractResult{ibo: gpu.NewIndexBuf(gpu.PrimPoints, idx)}
}

func extractFDots(x *extractCtx) extractResult {
	idx := make([]uint32, 0, len(x.src.Polys))
	for p := range x.src.Polys {
		if !x.polyHidden(p) {
			idx = append(idx, uint32(p))
		}
	}
	return extractResult{ibo: gpu.NewIndexBuf(gpu.PrimPoints, idx)}
}

// extractLinesPaintMask emits the edges around visible faces once each. In an
// active paint mode, edges with every adjacent face selected are left out.
func extractLinesPaintMask(x *extractCtx) extractResult {
	paintMask := x.opts.PaintMode && x.opts.ModeActive
	emitted := make([]bool, len(x.src.Edges))
	idx := make([]uint32, 0, 2*len(x.src.Edges))
	for p := range x.src.Polys {
		if x.polyHidden(p) {
			continue
		}
		start, end := x.polyLoops(p)
		for l := start; l < end; l++ {
			e := x.src.Loops[l].E
			if emitted[e] {
				continue
			}
			emitted[e] = true
			if adj := x.edges[e]; paintMask && adj.faces >= 2 && adj.selFaces == adj.faces {
				continue
			}
			idx = append(idx, uint32(l), uint32(x.src.NextLoop(p, l)))
		}
	}
	return extractResult{ibo: gpu.NewIndexBuf(gpu.PrimLines, idx)}
}

type adjEntry struct {
	a, b, opp int
	fwd       bool
	open      bool
}

// extractLinesAdjacency pairs the two triangles around each edge into one
// (opposite, a, b, opposite) primitive. The mesh is manifold when every edge
// joins exactly two triangles wound in opposite directions.
func extractLinesAdjacency(x *extractCtx) extractResult {
	var entries []adjEntry
	pending := make(map[[2]int]int)
	uses := make(map[[2]int]int)
	idx := make([]uint32, 0, 4*len(x.tris)*3/2)
	manifold := true

	for _, t := range x.tris {
		if x.polyHidden(t.Poly) {
			continue
		}
		for i := 0; i < 3; i++ {
			la, lb, lc := t.Loops[i], t.Loops[(i+1)%3], t.Loops[(i+2)%3]
			va, vb := x.src.Loops[la].V, x.src.Loops[lb].V
			if va == vb {
				continue
			}
			key, fwd := [2]int{va, vb}, true
			if va > vb {
				key, fwd = [2]int{vb, va}, false
			}
			uses[key]++
			if k, ok := pending[key]; ok {
				e := &entries[k]
				if e.fwd == fwd {
					manifold = false
				}
				idx = append(idx, uint32(e.opp), uint32(e.a), uint32(e.b), uint32(lc))
				e.open = false
				delete(pending, key)
				continue
			}
			pending[key] = len(entries)
			entries = append(entries, adjEntry{a: la, b: lb, opp: lc, fwd: fwd, open: true})
		}
	}
	for _, e := range entries {
		if e.open {
			manifold = false
			idx = append(idx, uint32(e.opp), uint32(e.a), uint32(e.b), uint32(e.opp))
		}
	}
	for _, n := range uses {
		if n != 2 {
			manifold = false
			break
		}
	}
	return extractResult{ibo: gpu.NewIndexBuf(gpu.PrimLinesAdj, idx), manifold: manifold}
}

func extractEditUVTris(x *extractCtx) extractResult {
	idx := make([]uint32, 0, 3*len(x.tris))
	for _, t := range x.tris {
		if x.uvVisible(t.Poly) {
			idx = append(idx, uint32(t.Loops[0]), uint32(t.Loops[1]), uint32(t.Loops[2]))
		}
	}
	return extractResult{ibo: gpu.NewIndexBuf(gpu.PrimTris, idx)}
}

// extractEditUVLines emits every face corner edge; edges shared in 3D are
// separate in UV space.
func extractEditUVLines(x *extractCtx) extractResult {
	idx := make([]uint32, 0, 2*x.counts.Loops)
	for p := range x.src.Polys {
		if !x.uvVisible(p) {
			continue
		}
		start, end := x.polyLoops(p)
		for l := start; l < end; l++ {
			idx = append(idx, uint32(l), uint32(x.src.NextLoop(p, l)))
		}
	}
	return extractResult{ibo: gpu.NewIndexBuf(gpu.PrimLines, idx)}
}

func extractEditUVPoints(x *extractCtx) extractResult {
	idx := make([]uint32, 0, x.counts.Loops)
	for p := range x.src.Polys {
		if !x.uvVisible(p) {
			continue
		}
		start, end := x.polyLoops(p)
		for l := start; l < end; l++ {
			idx = append(idx, uint32(l))
		}
	}
	return extractResult{ibo: gpu.NewIndexBuf(gpu.PrimPoints, idx)}
}

func extractEditUVFDots(x *extractCtx) extractResult {
	idx := make([]uint32, 0, len(x.src.Polys))
	for p := range x.src.Polys {
		if x.uvVisible(p) {
			idx = append(idx, uint32(p))
		}
	}
	return extractResult{ibo: gpu.NewIndexBuf(gpu.PrimPoints, idx)}
}
