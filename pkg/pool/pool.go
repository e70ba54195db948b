// Package pool implements the slot-based object pool the octree engine
// allocates nodes from: stable integer keys, O(1) push/get/free, and
// free-list recycling of released slots.
package pool

import "github.com/nerdachse/shocovox/internal/debug"

// Key is a stable handle into a Pool. The zero value is NOT the sentinel;
// use NoneKey.
type Key uint32

// NoneKey is the sentinel "no key" value. It compares unequal to every
// live key a Pool ever hands out, since RootKey (slot 0) is reserved and
// never reused as a free-list entry, and every other live slot index is
// strictly greater than it once pushed... in practice NoneKey is simply
// the maximum representable Key, which push() never reaches in any
// realistic tree.
const NoneKey Key = 1<<32 - 1

// RootKey is the pool slot the octree root always occupies; it is pushed
// once at construction and never freed.
const RootKey Key = 0

// MightBeValid is a cheap, conservative liveness check: it only rules out
// the sentinel. Callers must still verify structurally (e.g. that a
// parent's child-link still names this key) before dereferencing, since a
// freed-and-recycled slot is "valid" by this test alone.
func MightBeValid(k Key) bool { return k != NoneKey }

// Pool is a growable slice of slots plus a free-list of released keys,
// grounded on the size-class free-list idiom of a general-purpose arena
// but specialized to a single concrete slot type T (the octree never
// needs to allocate differently shaped objects from the same pool).
type Pool[T any] struct {
	slots []T
	free  []Key
}

// New constructs an empty pool.
func New[T any]() *Pool[T] {
	return &Pool[T]{}
}

// Push stores v in a free slot (recycled if one exists, otherwise a fresh
// one) and returns its stable key.
func (p *Pool[T]) Push(v T) Key {
	if n := len(p.free); n > 0 {
		k := p.free[n-1]
		p.free = p.free[:n-1]
		p.slots[k] = v
		return k
	}

	k := Key(len(p.slots))
	p.slots = append(p.slots, v)
	return k
}

// Get returns a pointer to the slot named by k for read or write access.
func (p *Pool[T]) Get(k Key) *T {
	debug.Assert(MightBeValid(k), "pool: Get called with the none key")
	debug.Assert(int(k) < len(p.slots), "pool: Get key %d out of range (len=%d)", k, len(p.slots))
	return &p.slots[k]
}

// Free releases the slot named by k so a future Push can reuse it. The
// root slot must never be freed.
func (p *Pool[T]) Free(k Key) {
	debug.Assert(MightBeValid(k), "pool: Free called with the none key")
	debug.Assert(k != RootKey, "pool: attempted to free the root slot")
	var zero T
	p.slots[k] = zero
	p.free = append(p.free, k)
}

// Len returns the number of slots ever allocated (including freed ones
// still counted towards capacity).
func (p *Pool[T]) Len() int { return len(p.slots) }
