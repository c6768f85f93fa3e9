package drawcache

import (
	"fmt"
	"math/bits"
	"sync/atomic"

	"github.com/Faultbox/meshcache/internal/mesh"
)

// AttrMask records which optional attribute layers a draw needs. The low
// 32 bits are four 8-bit layer sets (UV, tangent, loop color, vertex color);
// single bits above them flag orco, tangents from orco, sculpt overlays and
// UV editing.
type AttrMask uint64

const maxLayers = 8

const (
	uvShift         = 0
	tanShift        = 8
	vcolShift       = 16
	sculptVColShift = 24
)

const (
	MaskOrco AttrMask = 1 << (32 + iota)
	MaskTanOrco
	MaskSculptOverlays
	MaskEditUV
)

func (m AttrMask) layers(shift uint) uint8 { return uint8(m >> shift) }

func (m AttrMask) withLayer(shift uint, layer int) AttrMask {
	if layer < 0 || layer >= maxLayers {
		return m
	}
	return m | AttrMask(1)<<(shift+uint(layer))
}

// UV returns the set of UV layers.
func (m AttrMask) UV() uint8 { return m.layers(uvShift) }

// Tan returns the set of UV layers tangents are built from.
func (m AttrMask) Tan() uint8 { return m.layers(tanShift) }

// VCol returns the set of loop color layers.
func (m AttrMask) VCol() uint8 { return m.layers(vcolShift) }

// SculptVCol returns the set of vertex color layers.
func (m AttrMask) SculptVCol() uint8 { return m.layers(sculptVColShift) }

// WithUV adds a UV layer. Layers past the eighth are ignored.
func (m AttrMask) WithUV(layer int) AttrMask { return m.withLayer(uvShift, layer) }

// WithTan adds a tangent layer.
func (m AttrMask) WithTan(layer int) AttrMask { return m.withLayer(tanShift, layer) }

// WithVCol adds a loop color layer.
func (m AttrMask) WithVCol(layer int) AttrMask { return m.withLayer(vcolShift, layer) }

// WithSculptVCol adds a vertex color layer.
func (m AttrMask) WithSculptVCol(layer int) AttrMask {
	return m.withLayer(sculptVColShift, layer)
}

// Has reports whether all bits of o are set.
func (m AttrMask) Has(o AttrMask) bool { return m&o == o }

// Contains reports whether o is a subset of m.
func (m AttrMask) Contains(o AttrMask) bool { return m&o == o }

// Union returns m | o.
func (m AttrMask) Union(o AttrMask) AttrMask { return m | o }

// Equal reports bitwise equality.
func (m AttrMask) Equal(o AttrMask) bool { return m == o }

// IsZero reports whether nothing is needed.
func (m AttrMask) IsZero() bool { return m == 0 }

func (m AttrMask) String() string {
	s := fmt.Sprintf("uv:%08b tan:%08b vcol:%08b svcol:%08b", m.UV(), m.Tan(), m.VCol(), m.SculptVCol())
	for _, b := range []struct {
		bit  AttrMask
		name string
	}{
		{MaskOrco, "orco"},
		{MaskTanOrco, "tan_orco"},
		{MaskSculptOverlays, "sculpt_overlays"},
		{MaskEditUV, "edit_uv"},
	} {
		if m.Has(b.bit) {
			s += " " + b.name
		}
	}
	return s
}

// layerIndices returns the set bits of a layer set in ascending order.
func layerIndices(set uint8) []int {
	out := make([]int, 0, bits.OnesCount8(set))
	for set != 0 {
		i := bits.TrailingZeros8(set)
		out = append(out, i)
		set &^= 1 << i
	}
	return out
}

// AtomicMask is an AttrMask safe for concurrent union.
type AtomicMask struct {
	v atomic.Uint64
}

// Load returns the current mask.
func (a *AtomicMask) Load() AttrMask { return AttrMask(a.v.Load()) }

// Store replaces the mask.
func (a *AtomicMask) Store(m AttrMask) { a.v.Store(uint64(m)) }

// Swap replaces the mask and returns the previous value.
func (a *AtomicMask) Swap(m AttrMask) AttrMask { return AttrMask(a.v.Swap(uint64(m))) }

// Merge unions m into the mask and returns the result.
func (a *AtomicMask) Merge(m AttrMask) AttrMask {
	for {
		old := a.v.Load()
		next := old | uint64(m)
		if old == next || a.v.CompareAndSwap(old, next) {
			return AttrMask(next)
		}
	}
}

// Clear removes the bits of m.
func (a *AtomicMask) Clear(m AttrMask) {
	for {
		old := a.v.Load()
		next := old &^ uint64(m)
		if old == next || a.v.CompareAndSwap(old, next) {
			return
		}
	}
}

// AttrRequest names the attribute layers a draw engine wants. An empty name
// selects the active layer; unknown names are ignored.
type AttrRequest struct {
	UV           []string
	Tangents     []string
	Colors       []string
	SculptColors []string

	Orco           bool
	SculptOverlays bool
}

// NeededMask resolves req against the layers m actually has.
func NeededMask(m *mesh.Mesh, req AttrRequest) AttrMask {
	var mask AttrMask
	for _, name := range req.UV {
		mask = mask.WithUV(m.UVLayerIndex(name))
	}
	for _, name := range req.Tangents {
		if i := m.UVLayerIndex(name); i >= 0 {
			mask = mask.WithTan(i)
		} else if len(m.UVs) == 0 {
			mask |= MaskTanOrco | MaskOrco
		}
	}
	for _, name := range req.Colors {
		mask = mask.WithVCol(m.ColorLayerIndex(name))
	}
	for _, name := range req.SculptColors {
		mask = mask.WithSculptVCol(m.SculptColorLayerIndex(name))
	}
	if req.Orco {
		mask |= MaskOrco
	}
	if req.SculptOverlays {
		mask |= MaskSculptOverlays
	}
	return mask
}
