package drawcache

import (
	"go.uber.org/zap"

	"github.com/Faultbox/meshcache/internal/gpu"
	"github.com/Faultbox/meshcache/internal/mesh"
)

// Validity reports what Validate threw away.
type Validity struct {
	// Valid is false when anything was invalidated.
	Valid bool
	// Full is set when the whole cache was rebuilt from scratch.
	Full bool
	// Invalidated lists the variants that lost buffers.
	Invalidated VariantSet
}

// sources picks the mesh each variant extracts from and which Buffer Set
// each declared variant resolves to. Without a distinct cage, cage batches
// share the final set; outside edit mode everything does.
func sources(m *mesh.Mesh, opts *Options) (src [variantCount]*mesh.Mesh, res [variantCount]Variant) {
	editing := opts.EditMode && m.Edit != nil
	final := m
	if editing && m.Edit.Final != nil {
		final = m.Edit.Final
	}
	cage := final
	if editing && m.Edit.Cage != nil {
		cage = m.Edit.Cage
	}
	src = [variantCount]*mesh.Mesh{final, cage, cage}
	res = [variantCount]Variant{VariantFinal, VariantFinal, VariantFinal}
	if cage != final {
		res[VariantCage] = VariantCage
	}
	if editing {
		res[VariantUVCage] = VariantUVCage
	}
	return src, res
}

// Validate compares the cache against m and the mode state and frees
// whatever no longer matches: everything after TagDirty(DirtyAll), the cage
// sets on an edit-mode toggle, edit-UV data on a UV sync toggle, index
// buffers on a hide toggle, and per variant the buffers whose topology
// dimensions changed.
func (c *BatchCache) Validate(m *mesh.Mesh, opts *Options) Validity {
	out := Validity{Valid: true}
	invalidate := func(v Variant) {
		out.Valid = false
		out.Invalidated.add(v)
	}

	if c.dirty.Swap(false) {
		c.log.Debug("full rebuild", zap.String("mesh", m.Name))
		c.Free()
		out.Full = true
		for v := range variantCount {
			invalidate(v)
		}
	}

	src, res := sources(m, opts)

	if c.initialized && opts.EditMode != c.editMode {
		c.freeVariant(VariantCage)
		c.freeVariant(VariantUVCage)
		invalidate(VariantCage)
		invalidate(VariantUVCage)
		c.log.Debug("edit mode toggled", zap.Bool("edit", opts.EditMode))
	}
	for d := range variantCount {
		if c.resolved[d] == res[d] {
			continue
		}
		// A set that stops or starts backing its own variant holds buffers
		// of another mesh.
		if c.resolved[d] == d || res[d] == d {
			c.freeVariant(d)
			if c.initialized {
				invalidate(d)
			}
		}
		c.clearReady(c.readyWhere(func(_ BatchFlag, s *batchSpec) bool { return s.variant == d }))
	}
	c.resolved = res
	c.editMode = opts.EditMode

	if c.initialized && opts.UVSyncSelect != c.uvSyncSelect {
		c.discardVBO(VBOEditUVData, VBOFDotsEditUVData)
		c.discardIBO(IBOEditUVTris, IBOEditUVLines, IBOEditUVPoints, IBOEditUVFDots)
		invalidate(res[VariantUVCage])
	}
	c.uvSyncSelect = opts.UVSyncSelect

	if c.initialized && opts.UseHide != c.useHide {
		c.discardIBO(IBOTris, IBOLines, IBOPoints, IBOFDots, IBOLinesPaintMask, IBOLinesAdjacency)
		invalidate(VariantFinal)
	}
	c.useHide = opts.UseHide

	matLen := src[VariantFinal].MatLen()
	for v := range variantCount {
		if res[v] != v {
			continue
		}
		set := c.sets[v]
		cnt := countsOf(src[v], matLen)
		if set.built {
			if d := set.counts.diff(cnt); d != 0 {
				c.invalidateDims(v, d)
				invalidate(v)
			}
		}
		set.counts = cnt
		set.built = true
	}

	if matLen != c.matLen {
		c.surfacePerMat = make([]*gpu.Batch, matLen)
		c.matLen = matLen
	}
	c.counts = c.sets[VariantFinal].counts
	c.initialized = true
	return out
}

// invalidateDims frees the buffers of variant v whose shape depends on d and
// clears the batches reading them.
func (c *BatchCache) invalidateDims(v Variant, d dim) {
	vbos, ibos := c.sets[v].freeDims(d, c.cfg.Device)
	for _, k := range vbos {
		if k == VBOEditUVStretchArea {
			c.areasValid = false
		}
	}
	for _, k := range ibos {
		if k == IBOLinesAdjacency {
			c.manifoldValid = false
		}
	}
	if d&dimTopology != 0 {
		c.memos[v].Invalidate()
	}
	c.clearReady(c.readyWhere(func(_ BatchFlag, s *batchSpec) bool {
		return c.resolved[s.variant] == v && s.dims()&d != 0
	}))
	c.log.Debug("topology changed",
		zap.Stringer("variant", v),
		zap.Stringer("dims", d),
		zap.Int("vbos", len(vbos)),
		zap.Int("ibos", len(ibos)))
}
