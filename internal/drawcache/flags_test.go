package drawcache

import "testing"

func TestBatchFlagString(t *testing.T) {
	tests := []struct {
		flags BatchFlag
		want  string
	}{
		{0, "none"},
		{Surface, "surface"},
		{Surface | LooseEdges, "surface|loose_edges"},
		{SculptOverlays, "sculpt_overlays"},
	}
	for _, tt := range tests {
		if got := tt.flags.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseBatchFlags(t *testing.T) {
	tests := []struct {
		in      string
		want    BatchFlag
		wantErr bool
	}{
		{"", 0, false},
		{"surface", Surface, false},
		{"surface|loose_edges", Surface | LooseEdges, false},
		{"edit_vertices, wire_edges", EditVertices | WireEdges, false},
		{"all", AllBatches, false},
		{"surface,bogus", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBatchFlags(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBatchFlags(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBatchFlags(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
	// String output parses back.
	f := EditUVEdges | SkinRoots | Surface
	if got, _ := ParseBatchFlags(f.String()); got != f {
		t.Errorf("ParseBatchFlags(%q) = %v", f.String(), got)
	}
}

func TestBatchFlagEachOrder(t *testing.T) {
	var got []BatchFlag
	(WireEdges | Surface | EditVertices).Each(func(f BatchFlag) { got = append(got, f) })
	want := []BatchFlag{Surface, EditVertices, WireEdges}
	if len(got) != len(want) {
		t.Fatalf("Each() visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Each()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBatchGroups(t *testing.T) {
	if n := AllBatches.Count(); n != batchCount {
		t.Errorf("AllBatches.Count() = %d, want %d", n, batchCount)
	}
	if n := EditUV.Count(); n != 7 {
		t.Errorf("EditUV.Count() = %d, want 7", n)
	}
	if !EditUV.Has(WireLoopsUVs) {
		t.Error("WireLoopsUVs belongs to the UV editor group")
	}
	if EditModeOnly.Any(EditUV) {
		t.Error("edit-only and UV editor groups overlap")
	}
}

func TestBatchSpecsComplete(t *testing.T) {
	AllBatches.Each(func(f BatchFlag) {
		s := specOf(f)
		if len(s.vbos) == 0 {
			t.Errorf("%v has no vertex buffers", f)
		}
		if s.uvEdit != (EditUV&^WireLoopsUVs).Has(f) {
			t.Errorf("%v uvEdit = %v", f, s.uvEdit)
		}
		if EditModeOnly.Has(f) && !s.editMode {
			t.Errorf("%v should be edit-mode only", f)
		}
	})
}

func TestBatchDependencies(t *testing.T) {
	tests := []struct {
		flag BatchFlag
		vbo  VBOKind
		ibo  IBOKind
	}{
		{Surface, VBOPosNor, IBOTris},
		{LooseEdges, VBOPosNor, IBOLinesLoose},
		{EdgeDetection, VBOPosNor, IBOLinesAdjacency},
		{EditSelectionFaces, VBOPolyIdx, IBOTris},
		{EditUVFaces, VBOEditUVData, IBOEditUVTris},
	}
	for _, tt := range tests {
		s := specOf(tt.flag)
		if !s.dependsOnVBO(tt.vbo) {
			t.Errorf("%v does not read %v", tt.flag, tt.vbo)
		}
		if !s.dependsOnIBO(tt.ibo) {
			t.Errorf("%v does not read %v", tt.flag, tt.ibo)
		}
	}
	if !specOf(LooseEdges).dependsOnIBO(IBOLines) {
		t.Error("loose_edges must depend on the lines buffer it views")
	}
}
