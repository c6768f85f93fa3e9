package drawcache

import (
	"testing"

	"github.com/Faultbox/meshcache/internal/mesh"
)

func TestDirtyModeString(t *testing.T) {
	if got := DirtyUVEditSelect.String(); got != "uvedit_select" {
		t.Errorf("String() = %q", got)
	}
	if got := DirtyMode(99).String(); got != "unknown" {
		t.Errorf("String() = %q", got)
	}
}

func TestTagDirtySelectPaint(t *testing.T) {
	c, _ := newTestCache(t)
	m := mesh.Grid(2, 2, 1)
	opts := Options{PaintMode: true, ModeActive: true}

	c.EnsureBatches(m, WireLoops|Surface, opts)
	tris := c.BufferSet(VariantFinal).IBO(IBOTris)

	m.Polys[0].Flag |= mesh.FlagSelect
	c.TagDirty(DirtySelectPaint)
	if c.Ready().Any(WireLoops | Surface) {
		t.Errorf("Ready() = %v after paint selection change", c.Ready())
	}

	c.EnsureBatches(m, WireLoops|Surface, opts)
	if got := c.LastStats(); got.VBOs != 2 || got.IBOs != 1 {
		t.Errorf("rebuild = %+v, want pos_nor, lnor, paint mask", got)
	}
	if c.BufferSet(VariantFinal).IBO(IBOTris) != tris {
		t.Error("tris re-extracted on paint selection change")
	}
}

func uvEditorCache(t *testing.T) (*BatchCache, *mesh.Mesh, Options) {
	t.Helper()
	c, _ := newTestCache(t)
	m := mesh.Cube(1)
	m.Edit = &mesh.EditMesh{}
	for p := range m.Polys {
		m.Polys[p].Flag |= mesh.FlagSelect
	}
	opts := Options{EditMode: true, UVEdit: true}
	c.EnsureBatches(m, EditUVFacesStretchArea|EditUVEdges|EditUVVerts|EditUVFacedots, opts)
	return c, m, opts
}

func TestTagDirtyUVEditAll(t *testing.T) {
	c, m, opts := uvEditorCache(t)
	if _, _, ok := c.Areas(); !ok {
		t.Fatal("areas not computed")
	}

	c.TagDirty(DirtyUVEditAll)
	if _, _, ok := c.Areas(); ok {
		t.Error("areas still valid after UV change")
	}
	if c.UsedMask().Has(MaskEditUV) {
		t.Error("edit_uv bit kept after UV change")
	}
	if c.Ready().Any(EditUV) {
		t.Errorf("Ready() = %v after UV change", c.Ready())
	}

	c.EnsureBatches(m, EditUVFacesStretchArea, opts)
	if _, uv, ok := c.Areas(); !ok || !approx(uv, 6) {
		t.Errorf("Areas() after rebuild = %v, %v", uv, ok)
	}
	if !c.UsedMask().Has(MaskEditUV) {
		t.Error("edit_uv bit not restored")
	}
}

func TestTagDirtyUVEditSelect(t *testing.T) {
	c, m, opts := uvEditorCache(t)
	set := c.BufferSet(VariantUVCage)
	stretch, data := set.VBO(VBOEditUVStretchArea), set.VBO(VBOEditUVData)

	c.TagDirty(DirtyUVEditSelect)
	if _, _, ok := c.Areas(); !ok {
		t.Error("areas dropped on a selection change")
	}

	c.EnsureBatches(m, EditUVFacesStretchArea, opts)
	if set.VBO(VBOEditUVStretchArea) != stretch {
		t.Error("stretch area re-extracted on a selection change")
	}
	if set.VBO(VBOEditUVData) == data {
		t.Error("edit-UV flags not re-extracted")
	}
	if got := c.LastStats(); got.VBOs != 1 || got.IBOs != 1 {
		t.Errorf("rebuild = %+v, want edituv data and tris", got)
	}
}
