// Package store implements the global node table: monotonic NodeIndex
// allocation plus a partitioned hash lookup over it (SPEC_FULL.md, Node
// Store). It sits above a cache.Cache and never touches the swap device
// directly.
package store

import (
	"fmt"
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/bottledcode/kwirksearch/internal/cache"
	"github.com/bottledcode/kwirksearch/internal/kernel"
	"github.com/bottledcode/kwirksearch/internal/node"
)

// RewritePolicy selects whether LookupOrInsert ever updates an existing
// node's parent/step/frame when a cheaper path to the same state is
// found. The policy is an explicit choice made by whoever builds the
// Store rather than inferred from Layout; cmd/kwirksearch uses
// RewriteOnImprovement for both the BFS and the DFS driver.
type RewritePolicy int

const (
	// NeverRewrite always keeps the first discovery of a state, which is
	// enough for a strict BFS whose frame order is truly monotone.
	NeverRewrite RewritePolicy = iota
	// RewriteOnImprovement lets a strictly cheaper frame count overwrite
	// the stored parent/step/frame in place (required by DFS).
	RewriteOnImprovement
)

// DefaultLookupBits is H, the log2 size of the lookup-table head array
// (spec.md §4.3).
const DefaultLookupBits = 28

// partitionSpan sizes the number of mutex partitions from the node
// capacity (spec.md §4.3: P = ceil((capacity+1)/256)); each partition
// then guards a contiguous span of 2^H/P lookup-table heads.
const partitionSpan = 256

// Config assembles the fixed parameters of a Store.
type Config struct {
	// Capacity is the maximum number of nodes the store may allocate.
	Capacity uint32
	// LookupBits is H; 0 selects DefaultLookupBits.
	LookupBits int
	// Layout selects the Node record shape (and therefore which Cache
	// this store was built to drive).
	Layout node.Layout
	// Rewrite selects whether a cheaper rediscovery updates an existing
	// node.
	Rewrite RewritePolicy
}

// partition guards a contiguous span of lookup-table heads.
type partition struct {
	mu sync.Mutex
}

// Store is the global node table, grounded in spec.md §4.3: a 2^H head
// array divided into P mutex-guarded partitions, plus a monotonic
// allocation counter shared across all partitions.
type Store struct {
	cache   cache.Cache
	kern    kernel.Kernel
	layout  node.Layout
	rewrite RewritePolicy

	capacity   uint32
	lookupMask uint32
	lookup     []node.NodeIndex // head of the hash chain for each bucket
	partitions []partition
	partSpan   uint32

	nodeCount atomic.Uint32
}

// New builds an empty Store backed by c, using kern to canonicalize and
// compare states (via kernel.State.Canonicalize/Equal, never by
// inspecting bytes directly — spec.md testable property 2).
func New(c cache.Cache, kern kernel.Kernel, cfg Config) *Store {
	h := cfg.LookupBits
	if h <= 0 {
		h = DefaultLookupBits
	}
	numHeads := uint32(1) << uint(h)
	numPartitions := (int(cfg.Capacity) + 1 + partitionSpan - 1) / partitionSpan
	if numPartitions < 1 {
		numPartitions = 1
	}
	s := &Store{
		cache:      c,
		kern:       kern,
		layout:     cfg.Layout,
		rewrite:    cfg.Rewrite,
		capacity:   cfg.Capacity,
		lookupMask: numHeads - 1,
		lookup:     make([]node.NodeIndex, numHeads),
		partitions: make([]partition, numPartitions),
		partSpan:   (numHeads + uint32(numPartitions) - 1) / uint32(numPartitions),
	}
	s.nodeCount.Store(1) // index 0 is node.NilIndex, reserved
	return s
}

func (s *Store) bucketOf(h uint32) uint32 { return h & s.lookupMask }

func (s *Store) partitionOf(bucket uint32) *partition {
	idx := bucket / s.partSpan
	if int(idx) >= len(s.partitions) {
		idx = uint32(len(s.partitions) - 1)
	}
	return &s.partitions[idx]
}

// Count returns the number of nodes allocated so far, including the
// reserved NilIndex slot.
func (s *Store) Count() uint32 { return s.nodeCount.Load() }

// LookupOrInsert implements spec.md §4.3's algorithm: find an existing
// node for state, or allocate and publish a new one. Returns ErrFull if
// the store is at capacity. The third return, improved, is true
// whenever the call's frame is now the authoritative stored frame for
// this state — always true for a fresh node, and true for a rediscovery
// that strictly improved the stored frame under RewriteOnImprovement;
// callers (the DFS driver in particular) use it to decide whether the
// state is worth re-expanding.
func (s *Store) LookupOrInsert(state kernel.State, parent node.NodeIndex, step kernel.Step, frame int32) (idx node.NodeIndex, fresh bool, improved bool, err error) {
	state.Canonicalize()
	h := state.Hash()
	bucket := s.bucketOf(h)
	part := s.partitionOf(bucket)

	encodedStep, err := step.Encode()
	if err != nil {
		return 0, false, false, fmt.Errorf("store: encode step: %w", err)
	}

	part.mu.Lock()
	defer part.mu.Unlock()

	for cur := s.lookup[bucket]; cur != node.NilIndex; {
		h2, err := s.cache.Get(cur)
		if err != nil {
			return 0, false, false, fmt.Errorf("store: chain walk at %d: %w", cur, err)
		}
		existing := h2.Ref()
		existingState := s.kern.Decode(existing.State)
		existingState.Canonicalize()
		if existingState.Equal(state) {
			found := cur
			rewrote := false
			if s.rewrite == RewriteOnImprovement && frame < existing.Frame {
				h2.SetNode(node.Node{
					State:  existing.State,
					Parent: parent,
					Step:   encodedStep,
					Frame:  frame,
					Next:   existing.Next,
				})
				rewrote = true
			}
			s.cache.Release(h2)
			return found, false, rewrote, nil
		}
		next := existing.Next
		s.cache.Release(h2)
		cur = next
	}

	next := s.nodeCount.Load()
	if next >= s.capacity {
		return 0, false, false, fmt.Errorf("%w: nodeCount %d, capacity %d", ErrFull, next, s.capacity)
	}
	i := s.nodeCount.Add(1) - 1
	if i >= s.capacity {
		return 0, false, false, fmt.Errorf("%w: nodeCount %d, capacity %d", ErrFull, i, s.capacity)
	}

	n := node.Node{
		State:  state.Bytes(),
		Parent: parent,
		Step:   encodedStep,
		Frame:  frame,
		Next:   s.lookup[bucket],
	}
	handle, err := s.cache.Put(i, n)
	if err != nil {
		return 0, false, false, fmt.Errorf("%w: %v", ErrSwapIO, err)
	}
	s.cache.Release(handle)
	s.lookup[bucket] = i
	return i, true, true, nil
}

// Get returns a pinned handle to node i. Callers must Release it.
func (s *Store) Get(i node.NodeIndex) (*cache.Handle, error) {
	return s.cache.Get(i)
}

// Release unpins a handle previously obtained from Get.
func (s *Store) Release(h *cache.Handle) { s.cache.Release(h) }

// FlushAll writes every dirty cached node through to the swap device.
func (s *Store) FlushAll() error { return s.cache.FlushAll() }

// suggestLookupBits picks H so that the head array averages a small
// constant chain length for the given expected node count, without
// exceeding DefaultLookupBits — a sizing helper for choosing
// Config.LookupBits from a node capacity.
func suggestLookupBits(expectedNodes uint32) int {
	if expectedNodes < 2 {
		return 1
	}
	h := bits.Len32(expectedNodes)
	if h > DefaultLookupBits {
		h = DefaultLookupBits
	}
	return h
}

// SuggestLookupBits exposes suggestLookupBits for callers assembling a
// Config from a capacity. cmd/kwirksearch does not call it; its Store
// uses DefaultLookupBits.
func SuggestLookupBits(expectedNodes uint32) int { return suggestLookupBits(expectedNodes) }
