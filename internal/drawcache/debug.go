package drawcache

import (
	"fmt"

	"github.com/Faultbox/meshcache/internal/mesh"
)

// checkLayout panics when the buffers of set break the extended layout of
// src or the view tiling. Buffers kept from earlier passes are held to the
// same layout as fresh ones.
func checkLayout(set *BufferSet, src *mesh.Mesh) {
	looseVerts, looseEdges := scanLoose(src)
	want := set.counts.Loops + 2*len(looseEdges) + len(looseVerts)
	for k, vb := range set.vbo {
		if k.Extends() && vb.Len() != want {
			panic(fmt.Sprintf("drawcache: %s/%s has %d entries, extended layout needs %d",
				set.variant, k, vb.Len(), want))
		}
	}
	if tris := set.ibo[IBOTris]; tris != nil {
		next := 0
		for i, view := range set.trisPerMat {
			if view.Parent() != tris || view.Start() != next {
				panic(fmt.Sprintf("drawcache: %s material %d range starts at %d, want %d",
					set.variant, i, view.Start(), next))
			}
			next += view.Len()
		}
		if next != tris.Len() {
			panic(fmt.Sprintf("drawcache: %s material ranges cover %d of %d tri indices",
				set.variant, next, tris.Len()))
		}
	}
	if loose := set.ibo[IBOLinesLoose]; loose != nil {
		lines := set.ibo[IBOLines]
		if loose.Parent() != lines || loose.Start()+loose.Len() != lines.Len() || loose.Len() > 2*len(looseEdges) {
			panic(fmt.Sprintf("drawcache: %s loose lines view [%d,+%d) does not close lines of %d",
				set.variant, loose.Start(), loose.Len(), lines.Len()))
		}
	}
}
