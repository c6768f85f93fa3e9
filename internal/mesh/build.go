package mesh

import (
	"fmt"
	"slices"
)

// AddVert appends a vertex and returns its index.
func (m *Mesh) AddVert(co [3]float32) int {
	m.Verts = append(m.Verts, Vert{Co: co})
	for i := range m.SculptColors {
		m.SculptColors[i].Color = append(m.SculptColors[i].Color, [4]float32{1, 1, 1, 1})
	}
	for i := range m.Groups {
		m.Groups[i].Weights = append(m.Groups[i].Weights, 0)
	}
	if m.Orco != nil {
		m.Orco = append(m.Orco, co)
	}
	if m.Mask != nil {
		m.Mask = append(m.Mask, 0)
	}
	return len(m.Verts) - 1
}

// AddEdge returns the edge joining a and b, appending it if it does not exist.
func (m *Mesh) AddEdge(a, b int) int {
	if m.edgeIndex == nil {
		m.edgeIndex = make(map[[2]int]int, len(m.Edges))
		for i, e := range m.Edges {
			m.edgeIndex[edgeKey(e.V[0], e.V[1])] = i
		}
	}
	k := edgeKey(a, b)
	if i, ok := m.edgeIndex[k]; ok {
		return i
	}
	m.Edges = append(m.Edges, Edge{V: [2]int{a, b}})
	m.edgeIndex[k] = len(m.Edges) - 1
	return len(m.Edges) - 1
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// AddPoly appends a polygon over the given vertices, creating missing edges.
// Existing per-loop layers grow with default values.
func (m *Mesh) AddPoly(mat int, verts ...int) (int, error) {
	if len(verts) < 3 {
		return -1, fmt.Errorf("add poly with %d verts: %w", len(verts), ErrEmptyFace)
	}
	for _, v := range verts {
		if v < 0 || v >= len(m.Verts) {
			return -1, fmt.Errorf("add poly vertex %d: %w", v, ErrBadIndex)
		}
	}
	start := len(m.Loops)
	for i, v := range verts {
		e := m.AddEdge(v, verts[(i+1)%len(verts)])
		m.Loops = append(m.Loops, Loop{V: v, E: e})
	}
	for i := range m.UVs {
		m.UVs[i].UV = append(m.UVs[i].UV, make([][2]float32, len(verts))...)
	}
	for i := range m.Colors {
		for range verts {
			m.Colors[i].Color = append(m.Colors[i].Color, [4]float32{1, 1, 1, 1})
		}
	}
	m.Polys = append(m.Polys, Poly{LoopStart: start, LoopLen: len(verts), Mat: mat})
	if m.FaceSets != nil {
		m.FaceSets = append(m.FaceSets, 0)
	}
	if mat >= m.MatCount {
		m.MatCount = mat + 1
	}
	return len(m.Polys) - 1, nil
}

// AddUVLayer appends a UV layer initialised from uv, one entry per loop.
// A nil uv yields a zeroed layer.
func (m *Mesh) AddUVLayer(name string, uv [][2]float32) error {
	if uv == nil {
		uv = make([][2]float32, len(m.Loops))
	}
	if len(uv) != len(m.Loops) {
		return fmt.Errorf("uv layer %q: %d entries for %d loops: %w", name, len(uv), len(m.Loops), ErrBadIndex)
	}
	m.UVs = append(m.UVs, UVLayer{Name: name, UV: slices.Clone(uv)})
	return nil
}

// AddColorLayer appends a per-loop color layer filled with c.
func (m *Mesh) AddColorLayer(name string, c [4]float32) {
	col := make([][4]float32, len(m.Loops))
	for i := range col {
		col[i] = c
	}
	m.Colors = append(m.Colors, ColorLayer{Name: name, Color: col})
}

// AddSculptColorLayer appends a per-vertex color layer filled with c.
func (m *Mesh) AddSculptColorLayer(name string, c [4]float32) {
	col := make([][4]float32, len(m.Verts))
	for i := range col {
		col[i] = c
	}
	m.SculptColors = append(m.SculptColors, ColorLayer{Name: name, Color: col})
}

// AddGroup appends an empty deform group and returns its index.
func (m *Mesh) AddGroup(name string) int {
	m.Groups = append(m.Groups, DeformGroup{Name: name, Weights: make([]float32, len(m.Verts))})
	return len(m.Groups) - 1
}

// EnsureOrco fills original coordinates from the current positions.
func (m *Mesh) EnsureOrco() {
	if len(m.Orco) == len(m.Verts) {
		return
	}
	m.Orco = make([][3]float32, len(m.Verts))
	for i, v := range m.Verts {
		m.Orco[i] = v.Co
	}
}

// EnsureSculptData allocates the sculpt mask and face sets.
func (m *Mesh) EnsureSculptData() {
	if len(m.Mask) != len(m.Verts) {
		m.Mask = make([]float32, len(m.Verts))
	}
	if len(m.FaceSets) != len(m.Polys) {
		m.FaceSets = make([]int, len(m.Polys))
	}
}
