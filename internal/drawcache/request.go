package drawcache

import (
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshcache/internal/gpu"
	"github.com/Faultbox/meshcache/internal/mesh"
)

// EnsureBatches requests flags, validates the cache against m and builds
// every requested batch that is not ready. Missing buffers are extracted in
// one parallel pass; buffers already present are reused. Requests that the
// current mode cannot serve are dropped.
func (c *BatchCache) EnsureBatches(m *mesh.Mesh, flags BatchFlag, opts Options) {
	start := time.Now()
	c.Request(flags)
	c.pass++
	stats := Stats{Pass: c.pass}

	c.Validate(m, &opts)
	src, _ := sources(m, &opts)

	req := BatchFlag(c.requested.Swap(0))
	req, stats.Skipped = filterRequests(req, &opts)

	c.RequestAttributes(src[VariantFinal], opts.Attributes)
	if req.Any(EditUV) {
		c.needed.Merge(editUVMask(src[VariantUVCage], req))
	}
	c.foldAttributes()
	c.syncWeights(opts.Weights)

	pending := req &^ c.ready
	if pending != 0 {
		c.build(pending, src, &opts, &stats)
	}

	stats.Duration = time.Since(start)
	c.stats = stats
	if pending != 0 {
		c.log.Debug("batches ensured",
			zap.Uint64("pass", stats.Pass),
			zap.Stringer("built", pending),
			zap.Int("vbos", stats.VBOs),
			zap.Int("ibos", stats.IBOs),
			zap.Int("loose_rescans", stats.LooseRescans),
			zap.Duration("took", stats.Duration))
	}
}

// filterRequests drops batch kinds the mode has no data for.
func filterRequests(req BatchFlag, opts *Options) (kept, skipped BatchFlag) {
	req.Each(func(f BatchFlag) {
		s := specOf(f)
		if (s.editMode && !opts.EditMode) || (s.uvEdit && !opts.UVEdit) {
			skipped |= f
			return
		}
		kept |= f
	})
	return kept, skipped
}

// editUVMask is the layer need of the UV editor batches in req.
func editUVMask(m *mesh.Mesh, req BatchFlag) AttrMask {
	var mask AttrMask
	if l := m.UVLayerIndex(""); l >= 0 {
		mask = mask.WithUV(l)
	}
	if req.Any(EditUV &^ WireLoopsUVs) {
		mask |= MaskEditUV
	}
	return mask
}

// foldAttributes moves the needed mask into the used mask. Layer buffers
// missing a needed layer are discarded so they are rebuilt with the union.
func (c *BatchCache) foldAttributes() {
	needed := c.needed.Swap(0)
	used := c.used.Load()
	if used.Contains(needed) {
		c.lastMatch = c.pass
	} else {
		var drop []VBOKind
		if needed.UV()&^used.UV() != 0 {
			drop = append(drop, VBOUV)
		}
		if needed.Tan()&^used.Tan() != 0 || (needed.Has(MaskTanOrco) && !used.Has(MaskTanOrco)) {
			drop = append(drop, VBOTan)
		}
		if needed.Has(MaskOrco) && !used.Has(MaskOrco) {
			drop = append(drop, VBOOrco)
		}
		if needed.Has(MaskSculptOverlays) && !used.Has(MaskSculptOverlays) {
			drop = append(drop, VBOSculptData)
		}
		if needed.VCol()&^used.VCol() != 0 || needed.SculptVCol()&^used.SculptVCol() != 0 {
			drop = append(drop, VBOVCol)
		}
		c.discardVBO(drop...)
		c.clearReady(Surface)
		c.used.Merge(needed)
		c.log.Debug("attribute layers grew",
			zap.Stringer("used", c.used.Load()),
			zap.Stringer("needed", needed))
	}
	c.usedOverTime.Merge(needed)
}

func (c *BatchCache) syncWeights(w WeightState) {
	if w.Equal(c.weights) {
		return
	}
	c.discardVBO(VBOWeights)
	c.weights = w.clone()
}

// loose returns the memoized loose elements of variant v.
func (c *BatchCache) loose(v Variant, src *mesh.Mesh, stats *Stats) (verts, edges []int) {
	verts, edges, rescanned := c.memos[v].Loose(src)
	if rescanned {
		stats.LooseRescans++
	}
	return verts, edges
}

// isEmpty reports whether a batch has nothing to draw on src. Empty batches
// are marked ready without extracting anything.
func (c *BatchCache) isEmpty(f BatchFlag, s *batchSpec, v Variant, src *mesh.Mesh, stats *Stats) bool {
	cnt := c.sets[v].counts
	if (s.uvEdit || f == WireLoopsUVs) && len(src.UVs) == 0 {
		return true
	}
	switch s.index {
	case IBOTris, IBOEditUVTris, IBOLinesAdjacency:
		return cnt.Tris == 0
	case IBOLines:
		return cnt.Edges == 0
	case IBOLinesLoose:
		_, edges := c.loose(v, src, stats)
		return len(edges) == 0
	case IBOPoints:
		return cnt.Verts == 0
	case IBOFDots, IBOEditUVFDots, IBOLinesPaintMask, IBOEditUVLines, IBOEditUVPoints:
		return cnt.Polys == 0
	case iboNone:
		if f == SkinRoots {
			return !src.HasSkinRoots()
		}
		return cnt.Verts == 0
	}
	return false
}

type extractJob struct {
	variant Variant
	vbo     VBOKind
	ibo     IBOKind
	isIBO   bool
	result  extractResult
}

type variantWant struct {
	vbo   [vboCount]bool
	ibo   [iboCount]bool
	data  dataType
	loose bool
	any   bool
}

func (w *variantWant) addVBO(k VBOKind) {
	if w.vbo[k] {
		return
	}
	w.vbo[k] = true
	w.data |= vboExtractors[k].data
	w.loose = w.loose || vboExtractors[k].loose
	w.any = true
}

func (w *variantWant) addIBO(k IBOKind) {
	if k == IBOLinesLoose {
		k = IBOLines
	}
	if w.ibo[k] {
		return
	}
	w.ibo[k] = true
	w.data |= iboExtractors[k].data
	w.loose = w.loose || iboExtractors[k].loose
	w.any = true
}

// build resolves pending batches to missing buffers, extracts them in one
// scheduler pass, derives the sub-range views and assembles the batches.
func (c *BatchCache) build(pending BatchFlag, src [variantCount]*mesh.Mesh, opts *Options, stats *Stats) {
	used := c.used.Load()
	var wants [variantCount]variantWant
	var build BatchFlag

	pending.Each(func(f BatchFlag) {
		s := specOf(f)
		v := c.resolved[s.variant]
		set := c.sets[v]
		if c.isEmpty(f, s, v, src[v], stats) {
			c.batches[f.index()] = nil
			if f == Surface {
				clear(c.surfacePerMat)
			}
			c.ready |= f
			stats.Empty |= f
			return
		}
		w := &wants[v]
		for _, k := range s.vbosFor(used) {
			if set.vbo[k] == nil {
				w.addVBO(k)
			}
		}
		if s.index != iboNone && set.ibo[s.index] == nil {
			w.addIBO(s.index)
		}
		build |= f
	})

	var ctxs [variantCount]*extractCtx
	var jobs []*extractJob
	for v := range variantCount {
		w := &wants[v]
		if !w.any {
			continue
		}
		x := &extractCtx{
			variant: v,
			src:     src[v],
			final:   src[VariantFinal],
			opts:    opts,
			used:    used,
			counts:  c.sets[v].counts,
		}
		if w.loose {
			x.looseVerts, x.looseEdges = c.loose(v, src[v], stats)
		}
		x.prepare(w.data)
		ctxs[v] = x
		for k := range vboCount {
			if w.vbo[k] {
				jobs = append(jobs, &extractJob{variant: v, vbo: k})
			}
		}
		for k := range iboCount {
			if w.ibo[k] {
				jobs = append(jobs, &extractJob{variant: v, ibo: k, isIBO: true})
			}
		}
	}

	fns := make([]func(), len(jobs))
	for i, j := range jobs {
		x := ctxs[j.variant]
		if j.isIBO {
			fns[i] = func() { j.result = iboExtractors[j.ibo].run(x) }
		} else {
			fns[i] = func() { j.result = vboExtractors[j.vbo].run(x) }
		}
	}
	c.cfg.Scheduler.Run(fns)

	for _, j := range jobs {
		c.install(j, stats)
	}
	if c.cfg.DebugChecks {
		for v, x := range ctxs {
			if x != nil {
				checkLayout(c.sets[v], src[v])
			}
		}
	}

	build.Each(func(f BatchFlag) {
		s := specOf(f)
		set := c.sets[c.resolved[s.variant]]
		vbos := make([]*gpu.VertBuf, 0, len(s.vbos)+4)
		for _, k := range s.vbosFor(used) {
			vbos = append(vbos, set.vbo[k])
		}
		var ib *gpu.IndexBuf
		if s.index != iboNone {
			ib = set.ibo[s.index]
		}
		b := gpu.NewBatch(s.prim, ib, vbos...)
		if b.Len() == 0 {
			b = nil
		}
		c.batches[f.index()] = b
		c.ready |= f
		stats.Batches++
		if f == Surface {
			c.buildSurfacePerMat(set, vbos)
		}
	})
}

// install stores an extracted buffer, uploads it and derives its views.
func (c *BatchCache) install(j *extractJob, stats *Stats) {
	set := c.sets[j.variant]
	dev := c.cfg.Device
	res := j.result
	if !j.isIBO {
		set.vbo[j.vbo] = res.vbo
		dev.UploadVerts(res.vbo)
		stats.VBOs++
		if j.vbo == VBOEditUVStretchArea {
			c.totArea, c.totUVArea, c.areasValid = res.totArea, res.totUVArea, true
		}
		return
	}
	set.ibo[j.ibo] = res.ibo
	dev.UploadIndices(res.ibo)
	stats.IBOs++
	switch j.ibo {
	case IBOTris:
		set.trisPerMat = make([]*gpu.IndexBuf, len(res.matCounts))
		start := 0
		for i, n := range res.matCounts {
			set.trisPerMat[i] = gpu.NewSubRange(res.ibo, start, n)
			start += n
		}
	case IBOLines:
		set.ibo[IBOLinesLoose] = gpu.NewSubRange(res.ibo, res.looseStart, res.ibo.Len()-res.looseStart)
	case IBOLinesAdjacency:
		c.manifold, c.manifoldValid = res.manifold, true
	}
}

func (c *BatchCache) buildSurfacePerMat(set *BufferSet, vbos []*gpu.VertBuf) {
	if len(c.surfacePerMat) != c.matLen {
		c.surfacePerMat = make([]*gpu.Batch, c.matLen)
	}
	for i := range c.surfacePerMat {
		c.surfacePerMat[i] = nil
		if i < len(set.trisPerMat) && set.trisPerMat[i].Len() > 0 {
			c.surfacePerMat[i] = gpu.NewBatch(gpu.PrimTris, set.trisPerMat[i], vbos...)
		}
	}
}
