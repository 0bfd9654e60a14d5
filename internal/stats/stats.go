// Package stats holds the search-layer counters that sit above
// cache.Stats in spec.md §4.7's diagnostics: one set of atomic counts
// per search run, shared by all of its worker goroutines, distinct from
// (but reported alongside) the cache's own hit/miss/eviction counters.
package stats

import "sync/atomic"

// Stats is an immutable snapshot of search-level counters.
type Stats struct {
	NodesCreated uint64
	GoalsSeen    uint64
	// BFSRewrites counts LookupOrInsert calls under the BFS driver that
	// rewrote an already-published node's parent/step/frame (spec.md §9,
	// Open Question #1: BFS's monotone frame order should make this path
	// dead, but the store keeps it available per §4.4c). Any nonzero
	// value here is worth investigating; see internal/search's debug build tag
	// for a harder failure mode.
	BFSRewrites uint64
}

// Counters are the live, concurrently-updated counters a search driver
// accumulates across its worker goroutines.
type Counters struct {
	NodesCreated atomic.Uint64
	GoalsSeen    atomic.Uint64
	BFSRewrites  atomic.Uint64
}

// Snapshot reads the current counter values.
func (c *Counters) Snapshot() Stats {
	return Stats{
		NodesCreated: c.NodesCreated.Load(),
		GoalsSeen:    c.GoalsSeen.Load(),
		BFSRewrites:  c.BFSRewrites.Load(),
	}
}

// Merge sums two snapshots, used to combine per-worker-pool totals with
// any higher-level accounting (spec.md §4.7: "accumulated per-thread
// and merged at termination").
func Merge(a, b Stats) Stats {
	return Stats{
		NodesCreated: a.NodesCreated + b.NodesCreated,
		GoalsSeen:    a.GoalsSeen + b.GoalsSeen,
		BFSRewrites:  a.BFSRewrites + b.BFSRewrites,
	}
}
