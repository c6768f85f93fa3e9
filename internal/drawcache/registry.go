package drawcache

import (
	"sync"

	"github.com/Faultbox/meshcache/internal/mesh"
)

// Registry owns one BatchCache per mesh, created on first use.
type Registry struct {
	mu     sync.Mutex
	cfg    Config
	caches map[*mesh.Mesh]*BatchCache
}

// NewRegistry creates a registry whose caches share cfg.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		cfg:    cfg.withDefaults(),
		caches: make(map[*mesh.Mesh]*BatchCache),
	}
}

// Get returns the cache of m, creating it if needed.
func (r *Registry) Get(m *mesh.Mesh) *BatchCache {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.caches[m]
	if !ok {
		c = New(r.cfg)
		r.caches[m] = c
	}
	return c
}

// Lookup returns the cache of m without creating one.
func (r *Registry) Lookup(m *mesh.Mesh) (*BatchCache, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.caches[m]
	return c, ok
}

// Free releases and forgets the cache of m.
func (r *Registry) Free(m *mesh.Mesh) {
	r.mu.Lock()
	c, ok := r.caches[m]
	delete(r.caches, m)
	r.mu.Unlock()
	if ok {
		c.Free()
	}
}

// FreeAll releases every cache.
func (r *Registry) FreeAll() {
	r.mu.Lock()
	caches := r.caches
	r.caches = make(map[*mesh.Mesh]*BatchCache)
	r.mu.Unlock()
	for _, c := range caches {
		c.Free()
	}
}

// Len returns the number of live caches.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.caches)
}
