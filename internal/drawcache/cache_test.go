package drawcache

import (
	"slices"
	"sync"
	"testing"

	"github.com/Faultbox/meshcache/internal/gpu"
	"github.com/Faultbox/meshcache/internal/mesh"
)

func newTestCache(t *testing.T) (*BatchCache, *gpu.MemDevice) {
	t.Helper()
	dev := gpu.NewMemDevice()
	return New(Config{Device: dev, DebugChecks: true}), dev
}

func TestEnsureBatchesIdempotent(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Cube(1)
	flags := Surface | AllEdges | WireEdges

	c.EnsureBatches(m, flags, Options{})
	first := c.LastStats()
	if first.VBOs != 3 || first.IBOs != 2 || first.Batches != 3 {
		t.Fatalf("first pass = %+v, want 3 VBOs, 2 IBOs, 3 batches", first)
	}
	surface := c.Batch(Surface)

	c.EnsureBatches(m, flags, Options{})
	second := c.LastStats()
	if second.VBOs != 0 || second.IBOs != 0 || second.Batches != 0 {
		t.Errorf("second pass = %+v, want no work", second)
	}
	if c.Batch(Surface) != surface {
		t.Error("surface batch was rebuilt")
	}
	if !c.Ready().Has(flags) {
		t.Errorf("Ready() = %v, want %v", c.Ready(), flags)
	}
	if c.Requested() != 0 {
		t.Errorf("Requested() = %v after pass, want none", c.Requested())
	}
}

func TestLooseVertexKeepsTris(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Cube(1)
	flags := Surface | AllVerts | LooseEdges

	c.EnsureBatches(m, flags, Options{})
	final := c.BufferSet(VariantFinal)
	tris := final.IBO(IBOTris)
	if got := len(c.Memo(VariantFinal).LooseVerts()); got != 0 {
		t.Fatalf("loose verts = %d, want 0", got)
	}

	m.AddVert([3]float32{4, 4, 4})
	c.EnsureBatches(m, flags, Options{})

	stats := c.LastStats()
	if got := c.Memo(VariantFinal).LooseVerts(); !slices.Equal(got, []int{8}) {
		t.Errorf("loose verts = %v, want [8]", got)
	}
	if final.IBO(IBOTris) != tris {
		t.Error("tris index buffer was re-extracted")
	}
	if stats.IBOs != 0 {
		t.Errorf("IBOs extracted = %d, want 0", stats.IBOs)
	}
	if stats.LooseRescans != 1 {
		t.Errorf("LooseRescans = %d, want 1", stats.LooseRescans)
	}
	if got := final.VBO(VBOPosNor).Len(); got != 25 {
		t.Errorf("pos_nor len = %d, want 24 loops + 1 loose vert", got)
	}
	if got := c.Batch(AllVerts).Len(); got != 25 {
		t.Errorf("all_verts draws %d, want 25", got)
	}
}

func TestKeptExtendedBuffersAcrossPasses(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Cube(1)
	m.AddVert([3]float32{4, 4, 4})

	c.EnsureBatches(m, AllVerts, Options{})
	pos := c.BufferSet(VariantFinal).VBO(VBOPosNor)
	if pos.Len() != 25 {
		t.Fatalf("pos_nor len = %d, want 24 loops + 1 loose vert", pos.Len())
	}

	// Edge detection needs no loose geometry, the kept pos_nor still
	// carries the loose vertex slot.
	c.EnsureBatches(m, EdgeDetection, Options{})
	if want := AllVerts | EdgeDetection; !c.Ready().Has(want) {
		t.Errorf("Ready() = %v, want %v", c.Ready(), want)
	}
	if c.BufferSet(VariantFinal).VBO(VBOPosNor) != pos {
		t.Error("pos_nor re-extracted")
	}
	if manifold, ok := c.Manifold(); !ok || !manifold {
		t.Errorf("Manifold() = %v, %v, want true", manifold, ok)
	}

	c.EnsureBatches(m, Surface|AllVerts, Options{})
	if got := c.Batch(AllVerts).Len(); got != 25 {
		t.Errorf("all_verts draws %d, want 25", got)
	}
}

func TestExtendedLayout(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Grid(1, 1, 1)
	a := m.AddVert([3]float32{5, 0, 0})
	b := m.AddVert([3]float32{6, 0, 0})
	m.AddEdge(a, b)
	lone := m.AddVert([3]float32{7, 0, 0})

	c.EnsureBatches(m, AllVerts|AllEdges|LooseEdges|EditSelectionVerts, Options{})
	set := c.BufferSet(VariantFinal)

	pos := set.VBO(VBOPosNor)
	if pos.Len() != 7 {
		t.Fatalf("pos_nor len = %d, want 4 loops + 2 + 1", pos.Len())
	}
	for slot, v := range map[int]int{4: a, 5: b, 6: lone} {
		want := m.Verts[v].Co
		if got := pos.Vertex(slot)[:3]; !slices.Equal(got, want[:]) {
			t.Errorf("slot %d = %v, want %v", slot, got, want)
		}
	}
	if got := set.VBO(VBOVertIdx).Vertex(6)[0]; got != float32(lone) {
		t.Errorf("vert_idx slot 6 = %v, want %d", got, lone)
	}

	loose := set.IBO(IBOLinesLoose)
	if got := loose.Indices(); !slices.Equal(got, []uint32{4, 5}) {
		t.Errorf("lines_loose = %v, want [4 5]", got)
	}
	if lines := set.IBO(IBOLines); loose.Parent() != lines || lines.Len() != 10 {
		t.Errorf("lines len = %d, want 4 face edges + 1 loose edge", lines.Len())
	}
	if got := set.IBO(IBOPoints).Indices(); !slices.Equal(got, []uint32{0, 1, 3, 2, 4, 5, 6}) {
		t.Errorf("points = %v", got)
	}
	if got := c.Batch(LooseEdges).Len(); got != 2 {
		t.Errorf("loose_edges draws %d, want 2", got)
	}
	if c.NoLooseWire() {
		t.Error("NoLooseWire() = true with a loose edge")
	}
}

func TestPerMaterialCoverage(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Grid(2, 2, 1)
	for p, mat := range []int{0, 2, 1, 7} {
		m.Polys[p].Mat = mat
	}
	m.MatCount = 3

	c.EnsureBatches(m, Surface, Options{})
	set := c.BufferSet(VariantFinal)
	tris := set.IBO(IBOTris)
	views := set.TrisPerMat()
	if len(views) != 3 {
		t.Fatalf("per-material views = %d, want 3", len(views))
	}

	total := 0
	for mat, view := range views {
		if view.Start() != total {
			t.Errorf("material %d starts at %d, want %d", mat, view.Start(), total)
		}
		total += view.Len()
		for _, l := range view.Indices() {
			p := int(l) / 4
			if got := m.PolyMat(p, 3); got != mat {
				t.Errorf("material %d range holds loop %d of poly %d in slot %d", mat, l, p, got)
			}
		}
	}
	if total != tris.Len() || total != 3*m.TriCount() {
		t.Errorf("ranges cover %d of %d indices", total, tris.Len())
	}
	if got := []int{views[0].Len(), views[1].Len(), views[2].Len()}; !slices.Equal(got, []int{6, 6, 12}) {
		t.Errorf("range lengths = %v, want [6 6 12]", got)
	}
	for i, b := range c.SurfacePerMaterial() {
		if b == nil || b.Index != views[i] {
			t.Errorf("surface batch %d does not draw its material range", i)
		}
	}
}

func TestZeroPolyMesh(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Points(3)
	flags := Surface | AllVerts | AllEdges | LooseEdges | EdgeDetection

	c.EnsureBatches(m, flags, Options{})

	if !c.Ready().Has(flags) {
		t.Errorf("Ready() = %v, want %v", c.Ready(), flags)
	}
	for _, f := range []BatchFlag{Surface, AllEdges, LooseEdges, EdgeDetection} {
		if c.Batch(f) != nil {
			t.Errorf("%v batch should be empty", f)
		}
	}
	if got := c.LastStats().Empty; got != Surface|AllEdges|LooseEdges|EdgeDetection {
		t.Errorf("Empty = %v", got)
	}
	if b := c.Batch(AllVerts); b == nil || b.Len() != 3 {
		t.Errorf("all_verts = %v, want 3 points", b)
	}
}

func TestEditModeToggleKeepsFinal(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Cube(1)
	m.Edit = &mesh.EditMesh{Cage: m.Clone()}

	c.EnsureBatches(m, Surface, Options{})
	surface := c.Batch(Surface)

	v := c.Validate(m, &Options{EditMode: true})
	if v.Valid || !v.Invalidated.Has(VariantCage) || v.Invalidated.Has(VariantFinal) {
		t.Errorf("Validate() entering edit mode = %+v", v)
	}
	c.EnsureBatches(m, Surface|EditVertices, Options{EditMode: true})
	stats := c.LastStats()
	if stats.VBOs != 2 || stats.IBOs != 1 {
		t.Errorf("entering edit mode extracted %d VBOs, %d IBOs, want cage pos_nor+edit_data, points", stats.VBOs, stats.IBOs)
	}
	if c.Batch(Surface) != surface {
		t.Error("surface rebuilt entering edit mode")
	}
	if c.BufferSet(VariantCage).VBO(VBOEditData) == nil {
		t.Error("edit data not extracted into the cage set")
	}

	c.EnsureBatches(m, Surface, Options{})
	stats = c.LastStats()
	if stats.VBOs != 0 || stats.IBOs != 0 {
		t.Errorf("leaving edit mode extracted %d VBOs, %d IBOs", stats.VBOs, stats.IBOs)
	}
	if c.Batch(Surface) != surface || !c.Ready().Has(Surface) {
		t.Error("surface lost leaving edit mode")
	}
	if c.Ready().Has(EditVertices) {
		t.Error("edit vertices still ready outside edit mode")
	}
	if n := c.BufferSet(VariantCage).Len(); n != 0 {
		t.Errorf("cage set holds %d buffers after leaving edit mode", n)
	}
}

func TestCageDetachAndReattach(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Cube(1)
	m.Edit = &mesh.EditMesh{Cage: mesh.Cube(1)}
	opts := Options{EditMode: true}

	c.EnsureBatches(m, EditVertices, opts)
	if c.BufferSet(VariantCage).VBO(VBOPosNor) == nil {
		t.Fatal("cage pos_nor not extracted")
	}

	m.Edit.Cage = nil
	c.EnsureBatches(m, EditVertices, opts)
	if c.BufferSet(VariantCage).VBO(VBOPosNor) != nil {
		t.Error("cage set kept buffers after the cage was detached")
	}
	if !c.Ready().Has(EditVertices) {
		t.Errorf("Ready() = %v, want edit_vertices", c.Ready())
	}

	m.Edit.Cage = mesh.Cube(5)
	c.EnsureBatches(m, EditVertices, opts)
	if got := c.LastStats().VBOs; got == 0 {
		t.Error("reattached cage extracted nothing")
	}
	pos := c.BufferSet(VariantCage).VBO(VBOPosNor)
	if pos == nil {
		t.Fatal("cage pos_nor missing after reattach")
	}
	for slot := range pos.Len() {
		for _, x := range pos.Vertex(slot)[:3] {
			if x != 5 && x != -5 {
				t.Fatalf("slot %d = %v, want corners of the new cage", slot, pos.Vertex(slot)[:3])
			}
		}
	}
}

func TestMaterialCountFollowsExtractedMesh(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Cube(1)
	m.MatCount = 2
	final := m.Clone()
	final.MatCount = 4
	m.Edit = &mesh.EditMesh{Final: final}

	c.EnsureBatches(m, Surface, Options{})
	if got := c.MatLen(); got != 2 {
		t.Errorf("MatLen() outside edit mode = %d, want 2", got)
	}
	if got := len(c.SurfacePerMaterial()); got != 2 {
		t.Errorf("per-material surfaces = %d, want 2", got)
	}

	c.EnsureBatches(m, Surface, Options{EditMode: true})
	if got := c.MatLen(); got != 4 {
		t.Errorf("MatLen() while editing = %d, want 4", got)
	}
	if got := len(c.SurfacePerMaterial()); got != 4 {
		t.Errorf("per-material surfaces = %d, want 4", got)
	}
}

func TestManifold(t *testing.T) {
	tests := []struct {
		name string
		mesh *mesh.Mesh
		want bool
	}{
		{"closed cube", mesh.Cube(1), true},
		{"open grid", mesh.Grid(1, 1, 1), false},
		{"no faces", mesh.Points(2), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCache(t)
			if _, ok := c.Manifold(); ok {
				t.Fatal("manifold valid before edge detection")
			}
			c.EnsureBatches(tt.mesh, EdgeDetection, Options{})
			got, ok := c.Manifold()
			if tt.mesh.TriCount() == 0 {
				// Empty batches extract nothing.
				if ok {
					t.Error("manifold valid without adjacency extraction")
				}
				return
			}
			if !ok || got != tt.want {
				t.Errorf("Manifold() = %v, %v, want %v", got, ok, tt.want)
			}
		})
	}
}

func TestCubeAdjacencyHasOneEntryPerEdge(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Cube(1)
	c.EnsureBatches(m, EdgeDetection, Options{})

	adj := c.BufferSet(VariantFinal).IBO(IBOLinesAdjacency)
	// 12 cube edges plus 6 quad diagonals.
	if adj.Len() != 4*18 {
		t.Errorf("adjacency indices = %d, want %d", adj.Len(), 4*18)
	}
}

func TestAttributeMaskMonotonic(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Cube(1)
	m.AddColorLayer("Col", [4]float32{1, 0, 0, 1})

	uvOnly := Options{Attributes: AttrRequest{UV: []string{""}}}
	uvCol := Options{Attributes: AttrRequest{UV: []string{""}, Colors: []string{""}}}

	c.EnsureBatches(m, Surface, uvOnly)
	uv := c.BufferSet(VariantFinal).VBO(VBOUV)
	if uv == nil || c.LastStats().VBOs != 3 {
		t.Fatalf("first pass VBOs = %d, uv = %v", c.LastStats().VBOs, uv)
	}

	c.EnsureBatches(m, Surface, uvCol)
	if got := c.LastStats().VBOs; got != 1 {
		t.Errorf("adding a color layer extracted %d VBOs, want only vcol", got)
	}
	if c.BufferSet(VariantFinal).VBO(VBOUV) != uv {
		t.Error("uv buffer re-extracted although its layers did not change")
	}
	want := AttrMask(0).WithUV(0).WithVCol(0)
	if c.UsedMask() != want {
		t.Errorf("UsedMask() = %v, want %v", c.UsedMask(), want)
	}

	c.EnsureBatches(m, Surface, uvOnly)
	if got := c.LastStats(); got.VBOs != 0 || got.Batches != 0 {
		t.Errorf("shrinking the request did work: %+v", got)
	}
	if c.UsedMask() != want || c.UsedOverTime() != want {
		t.Errorf("masks shrank: used %v, over time %v", c.UsedMask(), c.UsedOverTime())
	}
	if c.LastMatch() != 3 {
		t.Errorf("LastMatch() = %d, want pass 3", c.LastMatch())
	}
	if c.BufferSet(VariantFinal).VBO(VBOVCol) == nil {
		t.Error("vcol buffer discarded when the request shrank")
	}
}

func TestUnsupportedRequestsSkipped(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Cube(1)

	c.EnsureBatches(m, EditVertices|EditUVFaces|AllVerts, Options{})
	if got := c.LastStats().Skipped; got != EditVertices|EditUVFaces {
		t.Errorf("Skipped = %v", got)
	}
	if c.Ready().Any(EditVertices | EditUVFaces) {
		t.Errorf("Ready() = %v includes skipped batches", c.Ready())
	}
	if !c.Ready().Has(AllVerts) {
		t.Error("supported batch not built")
	}

	// UV batches need UV editing on top of edit mode.
	c.EnsureBatches(m, EditUVFaces, Options{EditMode: true})
	if got := c.LastStats().Skipped; got != EditUVFaces {
		t.Errorf("Skipped without UVEdit = %v", got)
	}
}

func TestTagDirtyAllRebuilds(t *testing.T) {
	c, dev := newTestCache(t)
	m := mesh.Cube(1)

	c.EnsureBatches(m, Surface, Options{Attributes: AttrRequest{UV: []string{""}}})
	c.TagDirty(DirtyAll)
	v := c.Validate(m, &Options{})
	if !v.Full || v.Valid {
		t.Errorf("Validate() after DirtyAll = %+v", v)
	}
	if c.UsedOverTime() != 0 {
		t.Errorf("UsedOverTime() = %v after rebuild, want empty", c.UsedOverTime())
	}

	c.EnsureBatches(m, Surface, Options{})
	if got := c.LastStats(); got.VBOs != 2 || got.IBOs != 1 {
		t.Errorf("rebuild = %+v, want pos_nor, lnor, tris", got)
	}
	if dev.Live() != 3 {
		t.Errorf("device holds %d buffers, want 3", dev.Live())
	}
}

func TestTagDirtySelect(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Cube(1)
	opts := Options{EditMode: true}

	c.EnsureBatches(m, EditVertices, opts)
	old := c.BufferSet(VariantFinal).VBO(VBOEditData)

	m.Verts[0].Flag |= mesh.FlagSelect
	c.TagDirty(DirtySelect)
	if c.Ready().Has(EditVertices) {
		t.Fatal("edit vertices still ready after selection change")
	}

	c.EnsureBatches(m, EditVertices, opts)
	data := c.BufferSet(VariantFinal).VBO(VBOEditData)
	if data == old {
		t.Fatal("edit data not re-extracted")
	}
	if c.BufferSet(VariantFinal).IBO(IBOPoints) == nil || c.LastStats().IBOs != 0 {
		t.Errorf("points re-extracted: %+v", c.LastStats())
	}
	if got := data.Vertex(0)[0]; got != float32(mesh.FlagSelect) {
		t.Errorf("edit data vflag = %v, want select", got)
	}
}

func TestWeightStateChange(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Cube(1)
	a, b := m.AddGroup("a"), m.AddGroup("b")
	for v := range m.Verts {
		m.Groups[a].Weights[v] = 0.25
		m.Groups[b].Weights[v] = 0.75
	}

	c.EnsureBatches(m, SurfaceWeights, Options{Weights: WeightState{ActiveGroup: a}})
	if got := c.BufferSet(VariantFinal).VBO(VBOWeights).Vertex(0)[0]; got != 0.25 {
		t.Errorf("weight = %v, want 0.25", got)
	}

	c.EnsureBatches(m, SurfaceWeights, Options{Weights: WeightState{ActiveGroup: b}})
	if got := c.LastStats(); got.VBOs != 1 || got.IBOs != 0 {
		t.Errorf("weight change = %+v, want only weights", got)
	}
	if got := c.BufferSet(VariantFinal).VBO(VBOWeights).Vertex(0)[0]; got != 0.75 {
		t.Errorf("weight = %v, want 0.75", got)
	}
}

func TestUVEditorBatches(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Cube(1)
	m.Edit = &mesh.EditMesh{}
	opts := Options{EditMode: true, UVEdit: true}
	flags := EditUVFaces | EditUVFacesStretchArea

	c.EnsureBatches(m, flags, opts)
	if !c.Ready().Has(flags) {
		t.Fatalf("Ready() = %v", c.Ready())
	}
	if c.Batch(EditUVFaces) != nil {
		t.Error("unselected faces visible in the UV editor without sync")
	}
	if !c.UsedMask().Has(MaskEditUV) {
		t.Errorf("UsedMask() = %v, want edit_uv", c.UsedMask())
	}
	area, uvArea, ok := c.Areas()
	if !ok || area != 24 || uvArea != 6 {
		t.Errorf("Areas() = %v, %v, %v, want 24, 6", area, uvArea, ok)
	}
	if c.BufferSet(VariantUVCage).IBO(IBOEditUVTris) == nil {
		t.Error("edit-UV tris not in the uv_cage set")
	}

	opts.UVSyncSelect = true
	c.EnsureBatches(m, flags, opts)
	if got := c.LastStats(); got.VBOs != 1 || got.IBOs != 1 {
		t.Errorf("sync toggle = %+v, want edituv data and tris", got)
	}
	if b := c.Batch(EditUVFaces); b == nil || b.Len() != 36 {
		t.Errorf("edituv faces = %v, want 36 indices", b)
	}
}

func TestHideToggle(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Cube(1)
	m.Polys[0].Flag |= mesh.FlagHidden

	c.EnsureBatches(m, Surface, Options{})
	if got := c.Batch(Surface).Len(); got != 36 {
		t.Fatalf("surface = %d indices, want 36", got)
	}
	c.EnsureBatches(m, Surface, Options{UseHide: true})
	if got := c.LastStats(); got.IBOs != 1 || got.VBOs != 0 {
		t.Errorf("hide toggle = %+v, want only tris", got)
	}
	if got := c.Batch(Surface).Len(); got != 30 {
		t.Errorf("surface = %d indices, want 30", got)
	}
}

func TestMaterialCountChange(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Cube(1)

	c.EnsureBatches(m, Surface, Options{})
	pos := c.BufferSet(VariantFinal).VBO(VBOPosNor)

	m.MatCount = 2
	m.Polys[5].Mat = 1
	c.EnsureBatches(m, Surface, Options{})
	if got := c.LastStats(); got.VBOs != 0 || got.IBOs != 1 {
		t.Errorf("material change = %+v, want only tris", got)
	}
	if c.BufferSet(VariantFinal).VBO(VBOPosNor) != pos {
		t.Error("pos_nor re-extracted on material change")
	}
	per := c.SurfacePerMaterial()
	if len(per) != 2 || per[1] == nil || per[1].Len() != 6 {
		t.Errorf("per-material surfaces = %v", per)
	}
}

func TestPoolSchedulerMatchesSerial(t *testing.T) {
	pool := NewPoolScheduler(4, 16, 0, 1)
	defer pool.Close()

	m := mesh.Grid(3, 3, 2)
	m.AddEdge(m.AddVert([3]float32{9, 9, 9}), m.AddVert([3]float32{8, 8, 8}))
	m.AddVert([3]float32{7, 7, 7})
	flags := Surface | AllVerts | AllEdges | LooseEdges | EdgeDetection |
		WireEdges | WireLoops | EditSelectionVerts | EditSelectionEdges | EditSelectionFaces

	serial := New(Config{DebugChecks: true})
	parallel := New(Config{Scheduler: pool, DebugChecks: true})
	serial.EnsureBatches(m, flags, Options{})
	parallel.EnsureBatches(m, flags, Options{})

	a, b := serial.BufferSet(VariantFinal), parallel.BufferSet(VariantFinal)
	for k := range vboCount {
		va, vb := a.VBO(k), b.VBO(k)
		if (va == nil) != (vb == nil) {
			t.Fatalf("%v present in one set only", k)
		}
		if va != nil && !slices.Equal(va.Data(), vb.Data()) {
			t.Errorf("%v differs between serial and pool extraction", k)
		}
	}
	for k := range iboCount {
		ia, ib := a.IBO(k), b.IBO(k)
		if (ia == nil) != (ib == nil) {
			t.Fatalf("%v present in one set only", k)
		}
		if ia != nil && !slices.Equal(ia.Indices(), ib.Indices()) {
			t.Errorf("%v differs between serial and pool extraction", k)
		}
	}
	if serial.Ready() != parallel.Ready() {
		t.Errorf("ready differs: %v vs %v", serial.Ready(), parallel.Ready())
	}
}

func TestConcurrentRequests(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Cube(1)
	m.AddColorLayer("Col", [4]float32{1, 1, 1, 1})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Request(BatchFlag(1) << i)
			if i%2 == 0 {
				c.RequestAttributes(m, AttrRequest{UV: []string{""}})
			} else {
				c.RequestAttributes(m, AttrRequest{Colors: []string{"Col"}})
			}
		}()
	}
	wg.Wait()

	if got := c.Requested(); got != BatchFlag(0xff) {
		t.Errorf("Requested() = %v", got)
	}
	if got, want := c.NeededMask(), AttrMask(0).WithUV(0).WithVCol(0); got != want {
		t.Errorf("NeededMask() = %v, want %v", got, want)
	}
}

func TestFreeReleasesEverything(t *testing.T) {
	c, dev := newTestCache(t)
	m := mesh.Cube(1)
	c.EnsureBatches(m, Surface|AllEdges|EdgeDetection, Options{})
	if dev.Live() == 0 {
		t.Fatal("nothing uploaded")
	}
	c.Free()
	if dev.Live() != 0 {
		t.Errorf("device holds %d buffers after Free", dev.Live())
	}
	if c.Ready() != 0 || c.Batch(Surface) != nil {
		t.Error("batches survive Free")
	}
}
