package mesh

// Cube builds a closed cube of half-size r centred at the origin with
// outward-facing quads and a "UVMap" layer.
func Cube(r float32) *Mesh {
	m := New("cube")
	for _, c := range [8][3]float32{
		{-r, -r, -r}, {r, -r, -r}, {r, r, -r}, {-r, r, -r},
		{-r, -r, r}, {r, -r, r}, {r, r, r}, {-r, r, r},
	} {
		m.AddVert(c)
	}
	for _, f := range [6][4]int{
		{0, 3, 2, 1}, // -Z
		{4, 5, 6, 7}, // +Z
		{0, 1, 5, 4}, // -Y
		{2, 3, 7, 6}, // +Y
		{0, 4, 7, 3}, // -X
		{1, 2, 6, 5}, // +X
	} {
		m.mustAddPoly(0, f[:]...)
	}
	uv := make([][2]float32, 0, len(m.Loops))
	for range m.Polys {
		uv = append(uv, [2]float32{0, 0}, [2]float32{1, 0}, [2]float32{1, 1}, [2]float32{0, 1})
	}
	_ = m.AddUVLayer("UVMap", uv)
	m.RecalcNormals()
	return m
}

// Grid builds an open nx by ny quad grid of the given size on the XY plane,
// facing +Z, with a "UVMap" layer spanning [0,1].
func Grid(nx, ny int, size float32) *Mesh {
	nx, ny = max(nx, 1), max(ny, 1)
	m := New("grid")
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			u, v := float32(i)/float32(nx), float32(j)/float32(ny)
			m.AddVert([3]float32{(u - 0.5) * size, (v - 0.5) * size, 0})
		}
	}
	row := nx + 1
	var uv [][2]float32
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			a := j*row + i
			m.mustAddPoly(0, a, a+1, a+1+row, a+row)
			for _, c := range []int{a, a + 1, a + 1 + row, a + row} {
				uv = append(uv, [2]float32{float32(c%row) / float32(nx), float32(c/row) / float32(ny)})
			}
		}
	}
	_ = m.AddUVLayer("UVMap", uv)
	m.RecalcNormals()
	return m
}

// Points builds a mesh of n unconnected vertices along the X axis.
func Points(n int) *Mesh {
	m := New("points")
	for i := 0; i < n; i++ {
		m.AddVert([3]float32{float32(i), 0, 0})
	}
	m.RecalcNormals()
	return m
}

// Primitive returns a built-in mesh by name: cube, grid or points.
func Primitive(name string) (*Mesh, bool) {
	switch name {
	case "cube":
		return Cube(1), true
	case "grid":
		return Grid(8, 8, 2), true
	case "points":
		return Points(64), true
	}
	return nil, false
}

func (m *Mesh) mustAddPoly(mat int, verts ...int) {
	if _, err := m.AddPoly(mat, verts...); err != nil {
		panic(err)
	}
}
