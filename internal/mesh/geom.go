package mesh

import "github.com/Faultbox/meshcache/pkg/math"

// Tri is one triangle of a polygon's fan triangulation.
type Tri struct {
	Loops [3]int
	Poly  int
}

// LoopTris fan-triangulates every polygon in polygon order.
func (m *Mesh) LoopTris() []Tri {
	tris := make([]Tri, 0, m.TriCount())
	for p, poly := range m.Polys {
		for i := 1; i+1 < poly.LoopLen; i++ {
			tris = append(tris, Tri{
				Loops: [3]int{poly.LoopStart, poly.LoopStart + i, poly.LoopStart + i + 1},
				Poly:  p,
			})
		}
	}
	return tris
}

// PolyCoords returns the corner positions of polygon p.
func (m *Mesh) PolyCoords(p int) []math.Vec3 {
	poly := m.Polys[p]
	pts := make([]math.Vec3, poly.LoopLen)
	for i := range pts {
		pts[i] = math.V3(m.Verts[m.Loops[poly.LoopStart+i].V].Co)
	}
	return pts
}

// PolyNormal returns the unit normal of polygon p.
func (m *Mesh) PolyNormal(p int) math.Vec3 {
	return math.PolyNormal(m.PolyCoords(p))
}

// PolyCenter returns the average corner position of polygon p.
func (m *Mesh) PolyCenter(p int) math.Vec3 {
	var c math.Vec3
	pts := m.PolyCoords(p)
	for _, pt := range pts {
		c = c.Add(pt)
	}
	return c.Scale(1 / float32(len(pts)))
}

// PolyNormals returns the normal of every polygon.
func (m *Mesh) PolyNormals() []math.Vec3 {
	out := make([]math.Vec3, len(m.Polys))
	for p := range m.Polys {
		out[p] = m.PolyNormal(p)
	}
	return out
}

// RecalcNormals sets vertex normals to the normalized sum of adjacent polygon
// normals. Vertices without faces point along +Z.
func (m *Mesh) RecalcNormals() {
	acc := make([]math.Vec3, len(m.Verts))
	for p, poly := range m.Polys {
		n := m.PolyNormal(p)
		for l := poly.LoopStart; l < poly.LoopStart+poly.LoopLen; l++ {
			v := m.Loops[l].V
			acc[v] = acc[v].Add(n)
		}
	}
	for i := range m.Verts {
		n := acc[i].Normalize()
		if n == (math.Vec3{}) {
			n = math.Vec3{Z: 1}
		}
		m.Verts[i].No = n.Array()
	}
}

// Bounds returns the axis-aligned box around all vertices. An empty mesh
// yields two zero vectors.
func (m *Mesh) Bounds() (lo, hi math.Vec3) {
	if len(m.Verts) == 0 {
		return
	}
	lo = math.V3(m.Verts[0].Co)
	hi = lo
	for _, v := range m.Verts[1:] {
		lo = math.Vec3{X: min(lo.X, v.Co[0]), Y: min(lo.Y, v.Co[1]), Z: min(lo.Z, v.Co[2])}
		hi = math.Vec3{X: max(hi.X, v.Co[0]), Y: max(hi.Y, v.Co[1]), Z: max(hi.Z, v.Co[2])}
	}
	return lo, hi
}
