package drawcache

import (
	"slices"

	"github.com/Faultbox/meshcache/internal/mesh"
	"github.com/Faultbox/meshcache/pkg/math"
)

// Options carries the per-frame mode state EnsureBatches runs under.
type Options struct {
	// EditMode draws the edit mesh; cage and uv_cage variants come alive.
	EditMode bool
	// PaintMode and ModeActive together enable paint-mask selection on wire loops.
	PaintMode  bool
	ModeActive bool
	// UVEdit enables the UV editor batches.
	UVEdit bool
	// UVSyncSelect shows every visible face in the UV editor instead of only
	// selected ones.
	UVSyncSelect bool
	// SubsurfFacedots places cage face-dots at final mesh face centers.
	SubsurfFacedots bool
	// UseHide drops hidden elements from index buffers.
	UseHide bool

	// Transform is the object-to-world matrix mesh analysis runs in. The zero
	// value means identity.
	Transform math.Mat4

	Attributes AttrRequest
	Weights    WeightState
}

func (o *Options) transform() math.Mat4 {
	if o.Transform == (math.Mat4{}) {
		return math.Identity()
	}
	return o.Transform
}

// WeightFlag tunes how vertex group weights are combined.
type WeightFlag uint8

const (
	WeightMultipaint WeightFlag = 1 << iota
	WeightAutoNormalize
	WeightLockRelative
)

// AlertMode highlights vertices with no weight.
type AlertMode uint8

const (
	AlertNone AlertMode = iota
	AlertActive
	AlertAll
)

// WeightState describes how the weights VBO is computed. Any change
// invalidates it.
type WeightState struct {
	ActiveGroup int
	GroupCount  int
	Flags       WeightFlag
	Alert       AlertMode

	// Selected, Locked and Unlocked are per-group sets, indexed by group.
	Selected []bool
	Locked   []bool
	Unlocked []bool
}

// Equal compares all fields including the group sets.
func (w WeightState) Equal(o WeightState) bool {
	return w.ActiveGroup == o.ActiveGroup &&
		w.GroupCount == o.GroupCount &&
		w.Flags == o.Flags &&
		w.Alert == o.Alert &&
		slices.Equal(w.Selected, o.Selected) &&
		slices.Equal(w.Locked, o.Locked) &&
		slices.Equal(w.Unlocked, o.Unlocked)
}

func (w WeightState) clone() WeightState {
	w.Selected = slices.Clone(w.Selected)
	w.Locked = slices.Clone(w.Locked)
	w.Unlocked = slices.Clone(w.Unlocked)
	return w
}

func inSet(set []bool, i int) bool { return i >= 0 && i < len(set) && set[i] }

// weightAlert marks vertices flagged by the alert mode.
const weightAlert = -1

// vertWeight evaluates the displayed weight of vertex v.
func (w *WeightState) vertWeight(m *mesh.Mesh, v int) float32 {
	if len(m.Groups) == 0 {
		return 0
	}
	var weight float32
	assigned := false
	if w.Flags&WeightMultipaint != 0 {
		var total float32
		for g := range m.Groups {
			val := m.Groups[g].Weights[v]
			if val > 0 {
				assigned = true
			}
			if inSet(w.Selected, g) {
				weight += val
			}
			total += val
		}
		if w.Flags&WeightAutoNormalize != 0 && total > 0 {
			weight /= total
		}
	} else if w.ActiveGroup >= 0 && w.ActiveGroup < len(m.Groups) {
		weight = m.Groups[w.ActiveGroup].Weights[v]
		assigned = weight > 0
		if w.Alert == AlertAll && !assigned {
			for g := range m.Groups {
				if m.Groups[g].Weights[v] > 0 {
					assigned = true
					break
				}
			}
		}
	}
	if w.Flags&WeightLockRelative != 0 && len(w.Unlocked) > 0 {
		var unlocked float32
		for g := range m.Groups {
			if inSet(w.Unlocked, g) {
				unlocked += m.Groups[g].Weights[v]
			}
		}
		if unlocked > 0 {
			weight /= unlocked
		}
	}
	if !assigned && w.Alert != AlertNone {
		return weightAlert
	}
	return min(weight, 1)
}
