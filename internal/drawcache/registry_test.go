package drawcache

import (
	"testing"

	"github.com/Faultbox/meshcache/internal/gpu"
	"github.com/Faultbox/meshcache/internal/mesh"
)

func TestRegistry(t *testing.T) {
	dev := gpu.NewMemDevice()
	r := NewRegistry(Config{Device: dev})
	cube, grid := mesh.Cube(1), mesh.Grid(2, 2, 1)

	c := r.Get(cube)
	if r.Get(cube) != c {
		t.Error("Get() created a second cache for the same mesh")
	}
	if _, ok := r.Lookup(grid); ok {
		t.Error("Lookup() created a cache")
	}
	r.Get(grid).EnsureBatches(grid, Surface, Options{})
	c.EnsureBatches(cube, Surface|AllEdges, Options{})
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}

	r.Free(cube)
	if _, ok := r.Lookup(cube); ok {
		t.Error("freed cache still registered")
	}
	if dev.Live() != 3 {
		t.Errorf("device holds %d buffers, want the grid's 3", dev.Live())
	}

	r.FreeAll()
	if r.Len() != 0 || dev.Live() != 0 {
		t.Errorf("after FreeAll: %d caches, %d buffers", r.Len(), dev.Live())
	}
}
