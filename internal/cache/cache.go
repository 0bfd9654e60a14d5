// Package cache implements the bounded in-memory working set over the
// swap device (SPEC_FULL.md, Cache): two interchangeable eviction
// policies — a sharded hashtable adapted from the teacher's CLOCK-style
// cache, and a splay tree — behind one Handle/pin contract.
package cache

import (
	"sync/atomic"

	"github.com/bottledcode/kwirksearch/internal/node"
	"github.com/bottledcode/kwirksearch/internal/swap"
)

// Handle is a pinned reference to a cached Node record. A pinned record
// is never evicted (spec.md invariant 5); callers must Release every
// Handle they obtain.
type Handle struct {
	s *slot
}

// Ref returns the underlying node record. Mutations made through the
// returned pointer are only durable once the Handle was obtained via
// GetMut (or SetNode is called) and the cache later flushes the slot.
func (h *Handle) Ref() *node.Node { return &h.s.n }

// SetNode replaces the cached record and marks the slot dirty, so a
// later FlushAll (or eviction) writes it through to the swap device.
func (h *Handle) SetNode(n node.Node) {
	h.s.n = n
	h.s.dirty.Store(true)
}

// Cache is the common contract both eviction policies implement
// (spec.md §4.2).
type Cache interface {
	// Get returns a pinned handle to index i, loading from the swap
	// device on miss. Evicts at most one other unpinned, clean-or-
	// flushed slot to make room.
	Get(i node.NodeIndex) (*Handle, error)
	// GetMut is Get, additionally marking the slot dirty so a bare
	// mutation through Handle.Ref is flushed even without SetNode.
	GetMut(i node.NodeIndex) (*Handle, error)
	// Put write-through inserts a freshly allocated node (used by the
	// node store immediately after allocating a new index), returning
	// a pinned, dirty handle.
	Put(i node.NodeIndex, n node.Node) (*Handle, error)
	// Release unpins a handle. Once unpinned and the cache is at
	// capacity, the slot becomes eligible for eviction.
	Release(h *Handle)
	// FlushAll writes every dirty slot to the swap device.
	FlushAll() error
	// Stats returns a snapshot of the cache's counters.
	Stats() Stats
	// Device returns the backing swap device (for direct cold reads
	// during path reconstruction after the cache has been discarded).
	Device() swap.Device
	// Layout reports which Node record layout this cache was built for.
	Layout() node.Layout
}

type slot struct {
	index node.NodeIndex
	n     node.Node
	dirty atomic.Bool
	pins  atomic.Int32

	// bucketIdx is this slot's bucket within its shard, and bucketNext
	// chains slots within that one hash bucket — cloxcache shard
	// chaining, generalized from a fixed slot array to a dense-index
	// chained map since NodeIndex is sparse over the full uint32 range.
	bucketIdx  uint32
	bucketNext *slot

	// lruPrev/lruNext thread the slot into its shard's MRU..LRU list;
	// lastUsed is a per-shard logical clock used to find the least-
	// recently-used member of an over-long bucket chain without
	// walking the whole shard-wide LRU list.
	lruPrev, lruNext *slot
	lastUsed         uint64
}
