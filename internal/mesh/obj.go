package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Open returns a built-in primitive by name or loads an OBJ file, then
// validates the result.
func Open(name string) (*Mesh, error) {
	m, ok := Primitive(name)
	if !ok {
		var err error
		if m, err = LoadOBJFile(name); err != nil {
			return nil, err
		}
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}

// LoadOBJFile reads a Wavefront OBJ file.
func LoadOBJFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	m, err := LoadOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

// LoadOBJ parses OBJ geometry: v, vt, f and l statements plus usemtl for
// material slots. Normals are recomputed from the faces. Input is UTF-8
// unless a byte order mark says otherwise.
func LoadOBJ(r io.Reader) (*Mesh, error) {
	m := New("")
	var texcos [][2]float32
	var uv [][2]float32
	haveUV := false
	mats := map[string]int{}
	mat := 0

	// A leading BOM selects UTF-8 or UTF-16 and is stripped.
	text := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	scanner := bufio.NewScanner(text)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		ident, val := fields[0], fields[1:]
		switch ident {
		case "o":
			if len(val) > 0 {
				m.Name = val[0]
			}
		case "v":
			co, err := parseFloats(val, 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			m.AddVert([3]float32{co[0], co[1], co[2]})
		case "vt":
			st, err := parseFloats(val, 2)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			texcos = append(texcos, [2]float32{st[0], st[1]})
		case "usemtl":
			name := strings.Join(val, " ")
			slot, ok := mats[name]
			if !ok {
				slot = len(mats)
				mats[name] = slot
			}
			mat = slot
		case "f":
			verts := make([]int, len(val))
			corners := make([][2]float32, len(val))
			for i, s := range val {
				idx := strings.Split(s, "/")
				v, err := resolveIndex(idx[0], len(m.Verts))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				verts[i] = v
				if len(idx) > 1 && idx[1] != "" {
					t, err := resolveIndex(idx[1], len(texcos))
					if err != nil {
						return nil, fmt.Errorf("line %d: texcoord: %w", lineNo, err)
					}
					corners[i] = texcos[t]
					haveUV = true
				}
			}
			if _, err := m.AddPoly(mat, verts...); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			uv = append(uv, corners...)
		case "l":
			prev := -1
			for _, s := range val {
				v, err := resolveIndex(strings.Split(s, "/")[0], len(m.Verts))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				if prev >= 0 && prev != v {
					m.AddEdge(prev, v)
				}
				prev = v
			}
		default:
			// vn, s, g, mtllib and friends carry nothing the cache draws.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	if haveUV {
		if err := m.AddUVLayer("UVMap", uv); err != nil {
			return nil, err
		}
	}
	m.MatCount = max(m.MatCount, len(mats))
	m.RecalcNormals()
	return m, nil
}

func parseFloats(val []string, n int) ([]float32, error) {
	if len(val) < n {
		return nil, fmt.Errorf("want %d components, got %d", n, len(val))
	}
	out := make([]float32, n)
	for i := range out {
		f, err := strconv.ParseFloat(val[i], 32)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", val[i], err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// resolveIndex turns a 1-based or negative relative OBJ index into a 0-based one.
func resolveIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse index %q: %w", s, err)
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i += n
	default:
		return 0, fmt.Errorf("index 0: %w", ErrBadIndex)
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index %s of %d: %w", s, n, ErrBadIndex)
	}
	return i, nil
}
