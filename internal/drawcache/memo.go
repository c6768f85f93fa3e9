package drawcache

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/Faultbox/meshcache/internal/mesh"
)

// Counts is the topology shape a Buffer Set was extracted for.
type Counts struct {
	Verts, Edges, Loops, Polys, Tris, Mats int
}

func countsOf(m *mesh.Mesh, mats int) Counts {
	return Counts{
		Verts: len(m.Verts),
		Edges: len(m.Edges),
		Loops: len(m.Loops),
		Polys: len(m.Polys),
		Tris:  m.TriCount(),
		Mats:  mats,
	}
}

// diff returns the dimensions whose counts differ.
func (c Counts) diff(o Counts) dim {
	var d dim
	if c.Verts != o.Verts {
		d |= dimVerts
	}
	if c.Edges != o.Edges {
		d |= dimEdges
	}
	if c.Loops != o.Loops || c.Polys != o.Polys || c.Tris != o.Tris {
		d |= dimFaces
	}
	if c.Mats != o.Mats {
		d |= dimMats
	}
	return d
}

// signature fingerprints the element counts that decide which elements are
// loose.
func (c Counts) signature() uint64 {
	var buf [8 * 5]byte
	b := buf[:0]
	for _, n := range []int{c.Verts, c.Edges, c.Loops, c.Polys, c.Tris} {
		b = binary.LittleEndian.AppendUint64(b, uint64(n))
	}
	return xxhash.Sum64(b)
}

// ExtractionMemo caches the loose vertices and loose edges of one variant.
// Lists are ascending and recomputed when the topology signature moves.
type ExtractionMemo struct {
	valid      bool
	signature  uint64
	looseVerts []int
	looseEdges []int
}

// Loose returns the loose vertex and edge lists of src, scanning only when
// the signature differs from the memoized one.
func (m *ExtractionMemo) Loose(src *mesh.Mesh) (verts, edges []int, rescanned bool) {
	sig := countsOf(src, 0).signature()
	if m.valid && m.signature == sig {
		return m.looseVerts, m.looseEdges, false
	}
	m.looseVerts, m.looseEdges = scanLoose(src)
	m.signature = sig
	m.valid = true
	return m.looseVerts, m.looseEdges, true
}

// Valid reports whether the memo holds a computed result.
func (m *ExtractionMemo) Valid() bool { return m.valid }

// LooseVerts returns the memoized loose vertex list.
func (m *ExtractionMemo) LooseVerts() []int { return m.looseVerts }

// LooseEdges returns the memoized loose edge list.
func (m *ExtractionMemo) LooseEdges() []int { return m.looseEdges }

// Invalidate forces the next Loose call to rescan.
func (m *ExtractionMemo) Invalidate() {
	m.valid = false
	m.looseVerts = nil
	m.looseEdges = nil
}

// scanLoose finds edges used by no face corner and vertices used by no edge.
func scanLoose(src *mesh.Mesh) (verts, edges []int) {
	edgeUsed := make([]bool, len(src.Edges))
	for _, l := range src.Loops {
		edgeUsed[l.E] = true
	}
	vertUsed := make([]bool, len(src.Verts))
	for i, e := range src.Edges {
		vertUsed[e.V[0]] = true
		vertUsed[e.V[1]] = true
		if !edgeUsed[i] {
			edges = append(edges, i)
		}
	}
	for _, l := range src.Loops {
		vertUsed[l.V] = true
	}
	for i, used := range vertUsed {
		if !used {
			verts = append(verts, i)
		}
	}
	return verts, edges
}
