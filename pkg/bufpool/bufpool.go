// Package bufpool pools the sector-aligned buffers chunk writes are
// assembled in. A write builds its whole on-disk image (payload header,
// compressed body, zero padding out to the sector boundary) in one buffer
// before handing it to the region file, so every request is for a whole
// number of 4096-byte sectors between one sector and the 255-sector
// in-region ceiling. Pooling those images instead of allocating per write
// keeps a steady write load from churning the GC with short-lived
// megabyte-scale garbage.
//
// Tiers are expressed in sectors, not bytes: a buffer is parked in the
// smallest tier whose sector capacity covers it. Requests above the
// largest tier (possible only for callers sizing off something other than
// an in-region payload) are allocated directly and never pooled.
//
// All operations are safe for concurrent use across cells and goroutines.
package bufpool

import (
	"sync"
)

// sectorSize matches the region file's on-disk allocation unit.
const sectorSize = 4096

// Default tier capacities, in sectors. One sector covers the common case
// (small payloads and table rewrites); sixteen covers mid-sized chunks;
// 255 is the largest image an in-region payload can occupy, so no
// well-formed chunk write ever falls through to direct allocation.
var defaultTiers = []int{1, 16, 255}

type tier struct {
	sectors int
	bytes   int
	pool    sync.Pool
}

// Pool hands out sector-aligned byte slices, reusing them across writes.
// Tiers are fixed at construction and ordered by capacity.
type Pool struct {
	tiers []*tier
}

// NewPool creates a pool with one tier per sector capacity given, e.g.
// NewPool(1, 16, 255). Capacities must be positive and strictly
// increasing; passing none uses the default tiers.
func NewPool(sectorTiers ...int) *Pool {
	if len(sectorTiers) == 0 {
		sectorTiers = defaultTiers
	}

	p := &Pool{tiers: make([]*tier, 0, len(sectorTiers))}
	for _, sectors := range sectorTiers {
		t := &tier{sectors: sectors, bytes: sectors * sectorSize}
		t.pool.New = func() any {
			buf := make([]byte, t.bytes)
			return &buf
		}
		p.tiers = append(p.tiers, t)
	}
	return p
}

// Get returns a byte slice of exactly the requested length, backed by the
// smallest tier whose capacity covers it. Requests larger than the
// largest tier are allocated directly and will not be pooled on Put.
//
// The caller must pass the buffer to Put when done; a buffer that is
// never returned is simply collected, at the cost of a fresh allocation
// for some later Get.
func (p *Pool) Get(size int) []byte {
	for _, t := range p.tiers {
		if size <= t.bytes {
			buf := *t.pool.Get().(*[]byte)
			return buf[:size]
		}
	}
	return make([]byte, size)
}

// Put returns a buffer obtained from Get to its tier. Buffers whose
// capacity matches no tier (direct allocations, or slices from elsewhere)
// are dropped for the GC to collect. The buffer must not be used after
// Put.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	for _, t := range p.tiers {
		if cap(buf) == t.bytes {
			full := buf[:t.bytes]
			t.pool.Put(&full)
			return
		}
	}
}

// globalPool serves the package-level Get/Put used by the chunk write
// path.
var globalPool = NewPool()

// Get returns a byte slice of exactly the requested length from the
// package-level pool.
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer to the package-level pool. Pair with Get, usually
// via defer.
func Put(buf []byte) {
	globalPool.Put(buf)
}
