package ui

import (
	"hash/fnv"
	"sync"
)

// RenderCache memoizes expensive renders such as glamour markdown, keyed by
// a hash of the inputs.
type RenderCache struct {
	mu      sync.Mutex
	entries map[uint64]string
	order   []uint64
	maxSize int
}

// NewRenderCache creates a cache holding at most maxSize entries.
func NewRenderCache(maxSize int) *RenderCache {
	return &RenderCache{
		entries: make(map[uint64]string),
		maxSize: max(maxSize, 1),
	}
}

// ComputeKey generates a cache key from strings, ints and bools.
func ComputeKey(inputs ...interface{}) uint64 {
	h := fnv.New64a()
	for _, input := range inputs {
		switch v := input.(type) {
		case string:
			h.Write([]byte(v))
			h.Write([]byte{0})
		case int:
			u := uint64(v)
			h.Write([]byte{byte(u), byte(u >> 8), byte(u >> 16), byte(u >> 24),
				byte(u >> 32), byte(u >> 40), byte(u >> 48), byte(u >> 56)})
		case bool:
			if v {
				h.Write([]byte{1})
			} else {
				h.Write([]byte{0})
			}
		}
	}
	return h.Sum64()
}

// GetOrCompute returns the cached value for key, computing it if missing.
// The oldest entry is evicted once the cache is full.
func (rc *RenderCache) GetOrCompute(key uint64, compute func() string) string {
	rc.mu.Lock()
	if v, ok := rc.entries[key]; ok {
		rc.mu.Unlock()
		return v
	}
	rc.mu.Unlock()

	v := compute()

	rc.mu.Lock()
	defer rc.mu.Unlock()
	if _, ok := rc.entries[key]; !ok {
		if len(rc.order) >= rc.maxSize {
			delete(rc.entries, rc.order[0])
			rc.order = rc.order[1:]
		}
		rc.order = append(rc.order, key)
	}
	rc.entries[key] = v
	return v
}

// Len returns the number of cached entries.
func (rc *RenderCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.entries)
}
