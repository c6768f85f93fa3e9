package drawcache

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshcache/internal/gpu"
	"github.com/Faultbox/meshcache/internal/logger"
	"github.com/Faultbox/meshcache/internal/mesh"
)

// Config wires a cache to its collaborators.
type Config struct {
	// Device receives uploads and releases. Defaults to a MemDevice.
	Device gpu.Device
	// Scheduler runs extraction jobs. Defaults to SerialScheduler.
	Scheduler Scheduler
	// Logger defaults to the global logger named "drawcache".
	Logger *zap.Logger
	// DebugChecks panics on violated buffer layout invariants.
	DebugChecks bool
}

func (c Config) withDefaults() Config {
	if c.Device == nil {
		c.Device = gpu.NewMemDevice()
	}
	if c.Scheduler == nil {
		c.Scheduler = SerialScheduler{}
	}
	if c.Logger == nil {
		c.Logger = logger.Named("drawcache")
	}
	return c
}

// Stats describes the work done by one EnsureBatches call.
type Stats struct {
	Pass         uint64
	VBOs         int
	IBOs         int
	LooseRescans int
	Batches      int
	Empty        BatchFlag
	Skipped      BatchFlag
	Duration     time.Duration
}

// BatchCache is the per-mesh cache of buffers and batches.
//
// Request and RequestAttributes may be called from any goroutine. All other
// methods must be serialized by the caller, and must not overlap mesh
// mutation.
type BatchCache struct {
	cfg Config
	log *zap.Logger

	sets    [variantCount]*BufferSet
	memos   [variantCount]ExtractionMemo
	batches [batchCount]*gpu.Batch

	surfacePerMat []*gpu.Batch

	requested atomic.Uint32
	ready     BatchFlag

	used         AtomicMask
	needed       AtomicMask
	usedOverTime AtomicMask
	lastMatch    uint64
	pass         uint64

	dirty atomic.Bool

	initialized  bool
	editMode     bool
	uvSyncSelect bool
	useHide      bool
	weights      WeightState

	resolved [variantCount]Variant
	counts   Counts
	matLen   int

	manifold      bool
	manifoldValid bool
	totArea       float32
	totUVArea     float32
	areasValid    bool

	stats Stats
}

// New creates an empty cache.
func New(cfg Config) *BatchCache {
	cfg = cfg.withDefaults()
	c := &BatchCache{cfg: cfg, log: cfg.Logger}
	for v := range c.sets {
		c.sets[v] = newBufferSet(Variant(v))
		c.resolved[v] = VariantFinal
	}
	return c
}

// Request marks batch kinds as wanted for the next EnsureBatches.
func (c *BatchCache) Request(flags BatchFlag) {
	for {
		old := c.requested.Load()
		next := old | uint32(flags&AllBatches)
		if old == next || c.requested.CompareAndSwap(old, next) {
			return
		}
	}
}

// Requested returns the pending requests.
func (c *BatchCache) Requested() BatchFlag { return BatchFlag(c.requested.Load()) }

// RequestAttributes unions the layers req resolves to on m into the needed mask.
func (c *BatchCache) RequestAttributes(m *mesh.Mesh, req AttrRequest) {
	c.needed.Merge(NeededMask(m, req))
}

// Ready returns the batch kinds that are current.
func (c *BatchCache) Ready() BatchFlag { return c.ready }

// Batch returns the batch for a single flag. A ready batch may still be nil
// when the mesh has nothing for it to draw.
func (c *BatchCache) Batch(f BatchFlag) *gpu.Batch {
	if f.Count() != 1 {
		return nil
	}
	return c.batches[f.index()]
}

// SurfacePerMaterial returns one surface batch per material slot.
func (c *BatchCache) SurfacePerMaterial() []*gpu.Batch { return c.surfacePerMat }

// BufferSet returns the buffers of a variant.
func (c *BatchCache) BufferSet(v Variant) *BufferSet { return c.sets[v] }

// Memo returns the extraction memo of a variant.
func (c *BatchCache) Memo(v Variant) *ExtractionMemo { return &c.memos[v] }

// UsedMask returns the layers the current buffers carry.
func (c *BatchCache) UsedMask() AttrMask { return c.used.Load() }

// NeededMask returns the layers requested since the last pass.
func (c *BatchCache) NeededMask() AttrMask { return c.needed.Load() }

// UsedOverTime returns every layer requested since the last full rebuild.
func (c *BatchCache) UsedOverTime() AttrMask { return c.usedOverTime.Load() }

// LastMatch returns the pass at which the needed mask was last covered by
// the used mask.
func (c *BatchCache) LastMatch() uint64 { return c.lastMatch }

// Manifold reports the edge-detection result. ok is false until the
// adjacency buffer has been extracted.
func (c *BatchCache) Manifold() (manifold, ok bool) { return c.manifold, c.manifoldValid }

// Areas returns the total 3D and UV areas from the stretch-area buffer.
func (c *BatchCache) Areas() (area, uvArea float32, ok bool) {
	return c.totArea, c.totUVArea, c.areasValid
}

// NoLooseWire reports whether the final mesh has no loose edges. Only
// meaningful once the final memo has been computed.
func (c *BatchCache) NoLooseWire() bool {
	return c.memos[VariantFinal].valid && len(c.memos[VariantFinal].looseEdges) == 0
}

// Counts returns the final mesh topology the cache was validated against.
func (c *BatchCache) Counts() Counts { return c.counts }

// MatLen returns the number of material slots.
func (c *BatchCache) MatLen() int { return c.matLen }

// LastStats returns what the last EnsureBatches did.
func (c *BatchCache) LastStats() Stats { return c.stats }

// Free releases every buffer and resets the cache to its initial state.
func (c *BatchCache) Free() {
	for v := range c.sets {
		c.sets[v].free(c.cfg.Device)
		c.memos[v].Invalidate()
	}
	c.batches = [batchCount]*gpu.Batch{}
	c.surfacePerMat = nil
	c.ready = 0
	c.used.Store(0)
	c.needed.Store(0)
	c.usedOverTime.Store(0)
	c.lastMatch = 0
	c.initialized = false
	c.weights = WeightState{}
	c.manifold, c.manifoldValid = false, false
	c.totArea, c.totUVArea, c.areasValid = 0, 0, false
	c.counts = Counts{}
	c.matLen = 0
}

// clearReady drops ready bits and the batches behind them.
func (c *BatchCache) clearReady(flags BatchFlag) {
	flags &= c.ready
	if flags == 0 {
		return
	}
	flags.Each(func(f BatchFlag) { c.batches[f.index()] = nil })
	if flags.Has(Surface) {
		for i := range c.surfacePerMat {
			c.surfacePerMat[i] = nil
		}
	}
	c.ready &^= flags
	c.log.Debug("batches invalidated", zap.Stringer("batches", flags))
}

// readyWhere returns the ready flags whose batchSpec satisfies pred.
func (c *BatchCache) readyWhere(pred func(f BatchFlag, s *batchSpec) bool) BatchFlag {
	var out BatchFlag
	c.ready.Each(func(f BatchFlag) {
		if pred(f, specOf(f)) {
			out |= f
		}
	})
	return out
}

// discardVBO frees k in every set and clears the batches reading it.
func (c *BatchCache) discardVBO(kinds ...VBOKind) {
	for _, k := range kinds {
		for _, s := range c.sets {
			s.freeVBO(k, c.cfg.Device)
		}
		if k == VBOEditUVStretchArea {
			c.areasValid = false
		}
		c.clearReady(c.readyWhere(func(_ BatchFlag, s *batchSpec) bool { return s.dependsOnVBO(k) }))
	}
}

// discardIBO frees k in every set and clears the batches reading it.
func (c *BatchCache) discardIBO(kinds ...IBOKind) {
	for _, k := range kinds {
		owner := k
		if k == IBOLinesLoose {
			owner = IBOLines
		}
		for _, s := range c.sets {
			s.freeIBO(owner, c.cfg.Device)
		}
		if owner == IBOLinesAdjacency {
			c.manifoldValid = false
		}
		c.clearReady(c.readyWhere(func(_ BatchFlag, s *batchSpec) bool { return s.dependsOnIBO(owner) }))
	}
}

// freeVariant releases a whole Buffer Set and the batches resolved to it.
func (c *BatchCache) freeVariant(v Variant) {
	c.sets[v].free(c.cfg.Device)
	c.memos[v].Invalidate()
	c.clearReady(c.readyWhere(func(_ BatchFlag, s *batchSpec) bool { return c.resolved[s.variant] == v }))
}
