package cache

import "sync/atomic"

// Stats are the cache-layer counters that feed into spec.md §4.7's
// overall diagnostics (hits, misses, reads, writes, evictions, chain
// trims). There is no collision counter or chain-length histogram.
type Stats struct {
	Hits       uint64
	Misses     uint64
	Reads      uint64
	Writes     uint64
	Evictions  uint64
	ChainTrims uint64
}

type statCounters struct {
	hits, misses, reads, writes, evictions, chainTrims atomic.Uint64
}

func (c *statCounters) snapshot() Stats {
	return Stats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Reads:      c.reads.Load(),
		Writes:     c.writes.Load(),
		Evictions:  c.evictions.Load(),
		ChainTrims: c.chainTrims.Load(),
	}
}

// Merge sums two Stats snapshots, used when combining per-thread counters
// at termination (spec.md §4.7).
func Merge(a, b Stats) Stats {
	return Stats{
		Hits:       a.Hits + b.Hits,
		Misses:     a.Misses + b.Misses,
		Reads:      a.Reads + b.Reads,
		Writes:     a.Writes + b.Writes,
		Evictions:  a.Evictions + b.Evictions,
		ChainTrims: a.ChainTrims + b.ChainTrims,
	}
}
