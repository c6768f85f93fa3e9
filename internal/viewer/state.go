package viewer

import (
	"fmt"

	"github.com/Faultbox/meshcache/internal/drawcache"
	"github.com/Faultbox/meshcache/internal/mesh"
)

// State is the display mode the viewer turns into batch requests and cache
// options every frame.
type State struct {
	EditMode bool
	UVEdit   bool
	UVSync   bool
	Wire     bool
	Weights  bool
	UseHide  bool
}

// Action is one user command.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionToggleEdit
	ActionToggleUVEdit
	ActionToggleUVSync
	ActionToggleWire
	ActionToggleWeights
	ActionToggleHide
	ActionSelectAll
	ActionHideSelected
	ActionRevealAll
	ActionAddLooseVert
	ActionAddMaterial
	ActionScreenshot
)

var actionNames = [...]string{
	"none", "quit", "toggle_edit", "toggle_uv_edit", "toggle_uv_sync",
	"toggle_wire", "toggle_weights", "toggle_hide", "select_all",
	"hide_selected", "reveal_all", "add_loose_vert", "add_material",
	"screenshot",
}

func (a Action) String() string {
	if a >= 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Mode names the display mode for logs and the title bar.
func (s *State) Mode() string {
	switch {
	case s.EditMode && s.UVEdit:
		return "edit+uv"
	case s.EditMode:
		return "edit"
	case s.Weights:
		return "weights"
	}
	return "object"
}

// Flags returns the batches to request for m this frame.
func (s *State) Flags(m *mesh.Mesh) drawcache.BatchFlag {
	flags := drawcache.Surface | drawcache.LooseEdges
	if s.Weights {
		flags = drawcache.SurfaceWeights | drawcache.LooseEdges
	}
	if s.Wire {
		flags |= drawcache.WireEdges
	}
	if len(m.Polys) == 0 {
		flags |= drawcache.AllVerts
	}
	if s.EditMode {
		flags |= drawcache.EditVertices | drawcache.EditEdges
		if s.UVEdit {
			flags |= drawcache.EditUVFaces | drawcache.EditUVEdges | drawcache.EditUVFacesStretchArea
		}
	}
	return flags
}

// Options returns the cache options matching the state.
func (s *State) Options(m *mesh.Mesh) drawcache.Options {
	opts := drawcache.Options{
		EditMode:     s.EditMode,
		UVEdit:       s.EditMode && s.UVEdit,
		UVSyncSelect: s.UVSync,
		UseHide:      s.UseHide,
		Weights: drawcache.WeightState{
			GroupCount: len(m.Groups),
			Alert:      drawcache.AlertActive,
		},
	}
	if len(m.UVs) > 0 {
		opts.Attributes.UV = []string{""}
	}
	return opts
}

// Apply performs a onto the state, the mesh and its cache. It reports
// whether the viewer should keep running. ActionScreenshot is left to the
// caller.
func (s *State) Apply(a Action, m *mesh.Mesh, c *drawcache.BatchCache) bool {
	switch a {
	case ActionQuit:
		return false
	case ActionToggleEdit:
		s.EditMode = !s.EditMode
		if s.EditMode {
			m.Edit = &mesh.EditMesh{}
		} else {
			m.Edit = nil
		}
	case ActionToggleUVEdit:
		s.UVEdit = !s.UVEdit
	case ActionToggleUVSync:
		s.UVSync = !s.UVSync
	case ActionToggleWire:
		s.Wire = !s.Wire
	case ActionToggleWeights:
		s.Weights = !s.Weights
		if s.Weights && len(m.Groups) == 0 {
			heightWeights(m)
		}
	case ActionToggleHide:
		s.UseHide = !s.UseHide
	case ActionSelectAll:
		toggleSelectAll(m)
		c.TagDirty(drawcache.DirtySelect)
		c.TagDirty(drawcache.DirtyUVEditSelect)
	case ActionHideSelected:
		setHidden(m, true)
		c.TagDirty(drawcache.DirtyAll)
	case ActionRevealAll:
		setHidden(m, false)
		c.TagDirty(drawcache.DirtyAll)
	case ActionAddLooseVert:
		_, hi := m.Bounds()
		m.AddVert([3]float32{hi.X, hi.Y, hi.Z + 0.25*float32(len(m.Verts)%8+1)})
	case ActionAddMaterial:
		m.MatCount = max(m.MatCount, 1) + 1
		for p := range m.Polys {
			m.Polys[p].Mat = p % m.MatCount
		}
	}
	return true
}

// toggleSelectAll selects everything, or clears the selection when
// everything is already selected.
func toggleSelectAll(m *mesh.Mesh) {
	all := true
	for _, v := range m.Verts {
		if !v.Flag.Has(mesh.FlagSelect) {
			all = false
			break
		}
	}
	set := func(f *mesh.Flag) {
		if all {
			*f &^= mesh.FlagSelect
		} else {
			*f |= mesh.FlagSelect
		}
	}
	for i := range m.Verts {
		set(&m.Verts[i].Flag)
	}
	for i := range m.Edges {
		set(&m.Edges[i].Flag)
	}
	for i := range m.Loops {
		set(&m.Loops[i].Flag)
	}
	for i := range m.Polys {
		set(&m.Polys[i].Flag)
	}
}

// setHidden hides selected polygons and their vertices, or reveals
// everything.
func setHidden(m *mesh.Mesh, hide bool) {
	if !hide {
		for i := range m.Verts {
			m.Verts[i].Flag &^= mesh.FlagHidden
		}
		for i := range m.Edges {
			m.Edges[i].Flag &^= mesh.FlagHidden
		}
		for i := range m.Polys {
			m.Polys[i].Flag &^= mesh.FlagHidden
		}
		return
	}
	for p, poly := range m.Polys {
		if !poly.Flag.Has(mesh.FlagSelect) {
			continue
		}
		m.Polys[p].Flag |= mesh.FlagHidden
		for l := poly.LoopStart; l < poly.LoopStart+poly.LoopLen; l++ {
			m.Verts[m.Loops[l].V].Flag |= mesh.FlagHidden
			m.Edges[m.Loops[l].E].Flag |= mesh.FlagHidden
		}
	}
}

// heightWeights adds a group weighting each vertex by its height in the
// mesh bounds.
func heightWeights(m *mesh.Mesh) {
	g := m.AddGroup("height")
	lo, hi := m.Bounds()
	span := hi.Z - lo.Z
	for v := range m.Verts {
		if span > 0 {
			m.Groups[g].Weights[v] = (m.Verts[v].Co[2] - lo.Z) / span
		}
	}
}
