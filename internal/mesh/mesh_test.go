package mesh

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCubeTopology(t *testing.T) {
	m := Cube(1)

	if len(m.Verts) != 8 || len(m.Edges) != 12 || len(m.Loops) != 24 || len(m.Polys) != 6 {
		t.Fatalf("cube = %d verts, %d edges, %d loops, %d polys",
			len(m.Verts), len(m.Edges), len(m.Loops), len(m.Polys))
	}
	if got := m.TriCount(); got != 12 {
		t.Errorf("TriCount() = %d, want 12", got)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if m.UVLayerIndex("") != 0 || m.UVLayerIndex("UVMap") != 0 || m.UVLayerIndex("nope") != -1 {
		t.Error("UVLayerIndex did not resolve the UVMap layer")
	}
}

func TestCubeNormalsPointOutward(t *testing.T) {
	m := Cube(1)
	for p := range m.Polys {
		n := m.PolyNormal(p)
		c := m.PolyCenter(p)
		if n.Dot(c) <= 0 {
			t.Errorf("poly %d normal %v points inward (center %v)", p, n, c)
		}
	}
	for i, v := range m.Verts {
		co := v.Co
		no := v.No
		if co[0]*no[0]+co[1]*no[1]+co[2]*no[2] <= 0 {
			t.Errorf("vert %d normal %v points inward", i, no)
		}
	}
}

func TestLoopTrisFan(t *testing.T) {
	m := New("ngon")
	for i := 0; i < 5; i++ {
		m.AddVert([3]float32{float32(i), float32(i * i), 0})
	}
	if _, err := m.AddPoly(0, 0, 1, 2, 3, 4); err != nil {
		t.Fatal(err)
	}
	tris := m.LoopTris()
	want := []Tri{
		{Loops: [3]int{0, 1, 2}},
		{Loops: [3]int{0, 2, 3}},
		{Loops: [3]int{0, 3, 4}},
	}
	if len(tris) != len(want) {
		t.Fatalf("LoopTris() = %d tris, want %d", len(tris), len(want))
	}
	for i := range want {
		if tris[i] != want[i] {
			t.Errorf("tri %d = %+v, want %+v", i, tris[i], want[i])
		}
	}
}

func TestAddPolySharesEdges(t *testing.T) {
	m := New("two tris")
	for i := 0; i < 4; i++ {
		m.AddVert([3]float32{float32(i & 1), float32(i >> 1), 0})
	}
	m.mustAddPoly(0, 0, 1, 3)
	m.mustAddPoly(1, 0, 3, 2)

	if len(m.Edges) != 5 {
		t.Errorf("edges = %d, want 5", len(m.Edges))
	}
	if m.MatCount != 2 {
		t.Errorf("MatCount = %d, want 2", m.MatCount)
	}
	if m.Loops[2].E != m.Loops[3].E {
		t.Errorf("diagonal not shared: loop 2 edge %d, loop 3 edge %d", m.Loops[2].E, m.Loops[3].E)
	}
}

func TestAddPolyErrors(t *testing.T) {
	m := Points(3)
	tests := []struct {
		name  string
		verts []int
		want  error
	}{
		{"too few", []int{0, 1}, ErrEmptyFace},
		{"out of range", []int{0, 1, 7}, ErrBadIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.AddPoly(0, tt.verts...); !errors.Is(err, tt.want) {
				t.Errorf("AddPoly() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMatLen(t *testing.T) {
	m := Points(3)
	if m.MatLen() != 1 {
		t.Errorf("MatLen() with no slots = %d, want 1", m.MatLen())
	}
	m.MatCount = 3
	final := m.Clone()
	final.MatCount = 5
	m.Edit = &EditMesh{Final: final}
	if m.MatLen() != 3 {
		t.Errorf("MatLen() with an edit mesh attached = %d, want own 3", m.MatLen())
	}

	m.mustAddPoly(9, 0, 1, 2)
	if got := m.PolyMat(0, 3); got != 2 {
		t.Errorf("PolyMat() = %d, want clamped 2", got)
	}
}

func TestNextPrevLoop(t *testing.T) {
	m := Cube(1)
	p := m.Polys[1]
	last := p.LoopStart + p.LoopLen - 1
	if got := m.NextLoop(1, last); got != p.LoopStart {
		t.Errorf("NextLoop(last) = %d, want %d", got, p.LoopStart)
	}
	if got := m.PrevLoop(1, p.LoopStart); got != last {
		t.Errorf("PrevLoop(first) = %d, want %d", got, last)
	}
}

func TestValidateCatchesBadLayer(t *testing.T) {
	m := Cube(1)
	m.UVs[0].UV = m.UVs[0].UV[:3]
	if err := m.Validate(); !errors.Is(err, ErrBadIndex) {
		t.Errorf("Validate() = %v, want ErrBadIndex", err)
	}
}

func TestUVLayerIndexByName(t *testing.T) {
	m := Cube(1)
	if err := m.AddUVLayer("second", nil); err != nil {
		t.Fatalf("AddUVLayer() = %v", err)
	}
	tests := []struct {
		name string
		want int
	}{
		{"", 0},
		{"UVMap", 0},
		{"second", 1},
		{"missing", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.UVLayerIndex(tt.name); got != tt.want {
				t.Errorf("UVLayerIndex(%q) = %d, want %d", tt.name, got, tt.want)
			}
		})
	}

	m.ActiveUV = 1
	if got := m.UVLayerIndex(""); got != 1 {
		t.Errorf("UVLayerIndex(\"\") = %d, want active 1", got)
	}
}

func TestCloneKeepsLayerOrder(t *testing.T) {
	m := Cube(1)
	if err := m.AddUVLayer("second", nil); err != nil {
		t.Fatalf("AddUVLayer() = %v", err)
	}
	c := m.Clone()
	if len(c.UVs) != 2 || c.UVs[0].Name != "UVMap" || c.UVs[1].Name != "second" {
		t.Fatalf("clone UVs = %v, want [UVMap second]", c.UVs)
	}
	if c.UVs[1].UV[0] != m.UVs[1].UV[0] || len(c.UVs[1].UV) != len(m.Loops) {
		t.Error("clone UV data does not match")
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := Cube(1)
	c := m.Clone()
	c.AddVert([3]float32{5, 5, 5})
	c.UVs[0].UV[0] = [2]float32{9, 9}

	if len(m.Verts) != 8 {
		t.Errorf("original verts = %d, want 8", len(m.Verts))
	}
	if m.UVs[0].UV[0] == c.UVs[0].UV[0] {
		t.Error("UV layer storage is shared")
	}
	// The clone rebuilds its own edge index.
	if e := c.AddEdge(0, 1); e >= len(m.Edges) {
		t.Errorf("AddEdge on clone created duplicate edge %d", e)
	}
}

func TestGridAndPoints(t *testing.T) {
	g := Grid(2, 3, 1)
	if len(g.Verts) != 12 || len(g.Polys) != 6 {
		t.Errorf("grid = %d verts, %d polys", len(g.Verts), len(g.Polys))
	}
	if err := g.Validate(); err != nil {
		t.Errorf("grid Validate() = %v", err)
	}
	p := Points(3)
	if len(p.Verts) != 3 || len(p.Edges) != 0 || p.TriCount() != 0 {
		t.Errorf("points = %d verts, %d edges", len(p.Verts), len(p.Edges))
	}
	if _, ok := Primitive("torus"); ok {
		t.Error("Primitive(torus) should not exist")
	}
}

func TestBounds(t *testing.T) {
	lo, hi := Cube(2).Bounds()
	if lo.X != -2 || lo.Y != -2 || lo.Z != -2 || hi.X != 2 || hi.Y != 2 || hi.Z != 2 {
		t.Errorf("Cube(2).Bounds() = %v, %v", lo, hi)
	}
	lo, hi = New("empty").Bounds()
	if lo != hi || lo.X != 0 {
		t.Errorf("empty Bounds() = %v, %v, want zero", lo, hi)
	}
}

func TestLoadOBJ(t *testing.T) {
	src := `# quad and a wire
o sample
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 2 0 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
usemtl red
f 1/1 2/2 3/3 4/4
usemtl blue
f -4/1 -2/3 -1/4
l 3 5
`
	m, err := LoadOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadOBJ() error: %v", err)
	}
	if m.Name != "sample" {
		t.Errorf("Name = %q, want sample", m.Name)
	}
	if len(m.Verts) != 5 || len(m.Polys) != 2 || len(m.Loops) != 7 {
		t.Errorf("mesh = %d verts, %d polys, %d loops", len(m.Verts), len(m.Polys), len(m.Loops))
	}
	if m.MatCount != 2 || m.Polys[1].Mat != 1 {
		t.Errorf("materials = %d, poly 1 slot %d", m.MatCount, m.Polys[1].Mat)
	}
	if len(m.UVs) != 1 || m.UVs[0].UV[2] != [2]float32{1, 1} {
		t.Errorf("uv layer = %+v", m.UVs)
	}
	last := m.Edges[len(m.Edges)-1]
	if last.V != [2]int{2, 4} {
		t.Errorf("wire edge = %v, want [2 4]", last.V)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"vertex out of range", "v 0 0 0\nf 1 2 3\n", ErrBadIndex},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", ErrBadIndex},
		{"two corner face", "v 0 0 0\nv 1 0 0\nf 1 2\n", ErrEmptyFace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadOBJ(strings.NewReader(tt.src)); !errors.Is(err, tt.want) {
				t.Errorf("LoadOBJ() = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := LoadOBJ(strings.NewReader("v 0 x 0\n")); err == nil {
		t.Error("expected parse error for bad float")
	}
}

func TestLoadOBJByteOrderMark(t *testing.T) {
	src := "o tri\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"

	utf16le := []byte{0xFF, 0xFE}
	for _, r := range src {
		utf16le = append(utf16le, byte(r), 0)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"plain", []byte(src)},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, src...)},
		{"utf16le bom", utf16le},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := LoadOBJ(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("LoadOBJ() error: %v", err)
			}
			if m.Name != "tri" || len(m.Verts) != 3 || len(m.Polys) != 1 {
				t.Errorf("LoadOBJ() = %q, %d verts, %d polys", m.Name, len(m.Verts), len(m.Polys))
			}
		})
	}
}

func TestOpen(t *testing.T) {
	if m, err := Open("grid"); err != nil || len(m.Polys) != 64 {
		t.Errorf("Open(grid) = %v, %v", m, err)
	}

	path := filepath.Join(t.TempDir(), "tri.obj")
	if err := os.WriteFile(path, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0644); err != nil {
		t.Fatalf("failed to write obj: %v", err)
	}
	m, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s) error: %v", path, err)
	}
	if m.Name != "tri" || len(m.Polys) != 1 {
		t.Errorf("Open() = %q with %d polys", m.Name, len(m.Polys))
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.obj")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open(missing) = %v, want not-exist", err)
	}
}
