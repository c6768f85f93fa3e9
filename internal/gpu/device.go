package gpu

import "sync"

// Device owns the GPU side of buffers. Upload is called once per freshly
// extracted buffer, Release once when the owner discards it. Views are never
// passed to a Device.
type Device interface {
	UploadVerts(v *VertBuf)
	UploadIndices(b *IndexBuf)
	ReleaseVerts(v *VertBuf)
	ReleaseIndices(b *IndexBuf)
}

// MemDevice is a Device that keeps everything in memory and counts traffic.
type MemDevice struct {
	mu       sync.Mutex
	next     uint32
	live     map[uint32]struct{}
	uploads  int
	releases int
}

var _ Device = (*MemDevice)(nil)

// NewMemDevice creates an empty in-memory device.
func NewMemDevice() *MemDevice {
	return &MemDevice{live: make(map[uint32]struct{})}
}

func (d *MemDevice) alloc() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	d.live[d.next] = struct{}{}
	d.uploads++
	return d.next
}

func (d *MemDevice) free(h uint32) {
	if h == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.live, h)
	d.releases++
}

// UploadVerts assigns a handle to v.
func (d *MemDevice) UploadVerts(v *VertBuf) { v.Handle = d.alloc() }

// UploadIndices assigns a handle to b.
func (d *MemDevice) UploadIndices(b *IndexBuf) { b.Handle = d.alloc() }

// ReleaseVerts drops v's handle.
func (d *MemDevice) ReleaseVerts(v *VertBuf) {
	d.free(v.Handle)
	v.Handle = 0
}

// ReleaseIndices drops b's handle.
func (d *MemDevice) ReleaseIndices(b *IndexBuf) {
	d.free(b.Handle)
	b.Handle = 0
}

// Live returns the number of resident buffers.
func (d *MemDevice) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// Uploads returns the total upload count.
func (d *MemDevice) Uploads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.uploads
}

// Releases returns the total release count.
func (d *MemDevice) Releases() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.releases
}
