// Package mesh is the read-only source geometry the draw cache extracts from:
// vertices, edges, face corners (loops) and polygons plus optional per-element
// attribute layers.
package mesh

import (
	"errors"
	"fmt"
)

var (
	// ErrBadIndex reports an element referencing something out of range.
	ErrBadIndex = errors.New("mesh: index out of range")
	// ErrEmptyFace reports a polygon with fewer than three corners.
	ErrEmptyFace = errors.New("mesh: face has fewer than 3 corners")
)

// Flag carries per-element state bits.
type Flag uint8

const (
	FlagSelect Flag = 1 << iota
	FlagHidden
	FlagActive
	FlagSeam     // edges
	FlagSharp    // edges
	FlagSkinRoot // vertices
	FlagSmooth   // polygons
)

// Has reports whether all bits of o are set.
func (f Flag) Has(o Flag) bool { return f&o == o }

type Vert struct {
	Co   [3]float32
	No   [3]float32
	Flag Flag
}

type Edge struct {
	V      [2]int
	Flag   Flag
	Crease float32
}

// Loop is a face corner: the vertex it sits on and the edge to the next corner.
type Loop struct {
	V, E int
	Flag Flag // FlagSelect marks a selected UV corner
}

type Poly struct {
	LoopStart int
	LoopLen   int
	Mat       int
	Flag      Flag
}

// UVLayer holds one UV coordinate per loop.
type UVLayer struct {
	Name string
	UV   [][2]float32
}

// ColorLayer holds one RGBA color per element (loops or verts, by owner).
type ColorLayer struct {
	Name  string
	Color [][4]float32
}

// DeformGroup holds one weight per vertex; 0 means not assigned.
type DeformGroup struct {
	Name    string
	Weights []float32
}

// EditMesh carries the evaluated meshes shown while editing. Final is the
// fully evaluated result, Cage the mesh whose elements are edited.
type EditMesh struct {
	Final *Mesh
	Cage  *Mesh
}

// Mesh is a polygon mesh with optional attribute layers.
type Mesh struct {
	Name string

	Verts []Vert
	Edges []Edge
	Loops []Loop
	Polys []Poly

	// MatCount is the number of material slots; 0 renders with one slot.
	MatCount int

	UVs          []UVLayer
	ActiveUV     int
	Colors       []ColorLayer // per loop
	ActiveColor  int
	SculptColors []ColorLayer // per vertex
	Orco         [][3]float32 // per vertex, nil when absent
	Groups       []DeformGroup
	Mask         []float32 // sculpt mask per vertex
	FaceSets     []int     // per polygon

	Edit *EditMesh

	edgeIndex map[[2]int]int
}

// New creates an empty mesh.
func New(name string) *Mesh {
	return &Mesh{Name: name}
}

// TriCount returns the number of triangles a fan triangulation produces.
func (m *Mesh) TriCount() int {
	n := 0
	for _, p := range m.Polys {
		if p.LoopLen >= 3 {
			n += p.LoopLen - 2
		}
	}
	return n
}

// MatLen returns the number of material slots to draw, never less than one.
func (m *Mesh) MatLen() int {
	return max(1, m.MatCount)
}

// PolyMat returns the material slot of polygon p clamped to [0, matLen).
func (m *Mesh) PolyMat(p, matLen int) int {
	return min(max(m.Polys[p].Mat, 0), matLen-1)
}

// NextLoop returns the loop after l inside polygon p.
func (m *Mesh) NextLoop(p, l int) int {
	poly := m.Polys[p]
	if l+1 == poly.LoopStart+poly.LoopLen {
		return poly.LoopStart
	}
	return l + 1
}

// PrevLoop returns the loop before l inside polygon p.
func (m *Mesh) PrevLoop(p, l int) int {
	poly := m.Polys[p]
	if l == poly.LoopStart {
		return poly.LoopStart + poly.LoopLen - 1
	}
	return l - 1
}

// UVLayerIndex returns the index of the named UV layer, the active layer for
// an empty name, or -1.
func (m *Mesh) UVLayerIndex(name string) int {
	if name == "" {
		if len(m.UVs) == 0 {
			return -1
		}
		return min(max(m.ActiveUV, 0), len(m.UVs)-1)
	}
	for i, l := range m.UVs {
		if l.Name == name {
			return i
		}
	}
	return -1
}

// ColorLayerIndex is UVLayerIndex for loop color layers.
func (m *Mesh) ColorLayerIndex(name string) int {
	return layerIndex(m.Colors, name, m.ActiveColor)
}

// SculptColorLayerIndex is UVLayerIndex for vertex color layers.
func (m *Mesh) SculptColorLayerIndex(name string) int {
	return layerIndex(m.SculptColors, name, 0)
}

func layerIndex(layers []ColorLayer, name string, active int) int {
	if name == "" {
		if len(layers) == 0 {
			return -1
		}
		return min(max(active, 0), len(layers)-1)
	}
	for i, l := range layers {
		if l.Name == name {
			return i
		}
	}
	return -1
}

// HasSkinRoots reports whether any vertex is a skin root.
func (m *Mesh) HasSkinRoots() bool {
	for _, v := range m.Verts {
		if v.Flag.Has(FlagSkinRoot) {
			return true
		}
	}
	return false
}

// Validate checks that every index is in range and every face is a polygon.
func (m *Mesh) Validate() error {
	nv, ne, nl := len(m.Verts), len(m.Edges), len(m.Loops)
	for i, e := range m.Edges {
		if e.V[0] < 0 || e.V[0] >= nv || e.V[1] < 0 || e.V[1] >= nv {
			return fmt.Errorf("edge %d: %w", i, ErrBadIndex)
		}
	}
	for i, l := range m.Loops {
		if l.V < 0 || l.V >= nv || l.E < 0 || l.E >= ne {
			return fmt.Errorf("loop %d: %w", i, ErrBadIndex)
		}
	}
	for i, p := range m.Polys {
		if p.LoopLen < 3 {
			return fmt.Errorf("poly %d: %w", i, ErrEmptyFace)
		}
		if p.LoopStart < 0 || p.LoopStart+p.LoopLen > nl {
			return fmt.Errorf("poly %d: %w", i, ErrBadIndex)
		}
	}
	for _, l := range m.UVs {
		if len(l.UV) != nl {
			return fmt.Errorf("uv layer %q has %d entries for %d loops: %w", l.Name, len(l.UV), nl, ErrBadIndex)
		}
	}
	for _, l := range m.Colors {
		if len(l.Color) != nl {
			return fmt.Errorf("color layer %q has %d entries for %d loops: %w", l.Name, len(l.Color), nl, ErrBadIndex)
		}
	}
	for _, l := range m.SculptColors {
		if len(l.Color) != nv {
			return fmt.Errorf("vertex color layer %q has %d entries for %d verts: %w", l.Name, len(l.Color), nv, ErrBadIndex)
		}
	}
	for _, g := range m.Groups {
		if len(g.Weights) != nv {
			return fmt.Errorf("group %q has %d weights for %d verts: %w", g.Name, len(g.Weights), nv, ErrBadIndex)
		}
	}
	return nil
}

// Clone returns a deep copy. The edit mesh, if any, is shared.
func (m *Mesh) Clone() *Mesh {
	c := *m
	c.Verts = append([]Vert(nil), m.Verts...)
	c.Edges = append([]Edge(nil), m.Edges...)
	c.Loops = append([]Loop(nil), m.Loops...)
	c.Polys = append([]Poly(nil), m.Polys...)
	c.UVs = make([]UVLayer, len(m.UVs))
	for i, l := range m.UVs {
		c.UVs[i] = UVLayer{Name: l.Name, UV: append([][2]float32(nil), l.UV...)}
	}
	c.Colors = cloneColors(m.Colors)
	c.SculptColors = cloneColors(m.SculptColors)
	c.Orco = append([][3]float32(nil), m.Orco...)
	c.Groups = make([]DeformGroup, len(m.Groups))
	for i, g := range m.Groups {
		c.Groups[i] = DeformGroup{Name: g.Name, Weights: append([]float32(nil), g.Weights...)}
	}
	c.Mask = append([]float32(nil), m.Mask...)
	c.FaceSets = append([]int(nil), m.FaceSets...)
	c.edgeIndex = nil
	return &c
}

func cloneColors(in []ColorLayer) []ColorLayer {
	out := make([]ColorLayer, len(in))
	for i, l := range in {
		out[i] = ColorLayer{Name: l.Name, Color: append([][4]float32(nil), l.Color...)}
	}
	return out
}
