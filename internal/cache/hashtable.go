package cache

import (
	"fmt"
	"math/bits"
	"sync"

	"github.com/bottledcode/kwirksearch/internal/node"
	"github.com/bottledcode/kwirksearch/internal/swap"
	"github.com/zeebo/xxh3"
)

// hashtableCache is a sharded, chained-bucket cache adapted from
// cloxcache's shard[K,V] layout (bottledcode-cloxcache/cache/cloxcache.go):
// the same array-of-shards, mutex-per-shard-for-structural-changes shape,
// generalized from cloxcache's frequency/admission eviction to the pin-
// aware, write-back LRU eviction spec.md §4.2 requires. Each shard keeps
// its own bounded doubly-linked MRU..LRU list and its own array of L
// bucket-chain heads, trimmed to at most trim elements per chain.
type hashtableCache struct {
	dev        swap.Device
	layout     node.Layout
	recordSize int

	shards    []cacheShard
	numShards int
	shardBits int
	trim      int

	stats statCounters
}

type cacheShard struct {
	mu       sync.Mutex
	buckets  []*slot // chain heads, one per bucket within this shard
	mask     uint32
	capacity int
	size     int
	clock    uint64
	lruHead  *slot
	lruTail  *slot
}

// HashtableConfig configures a hashtable-policy Cache.
type HashtableConfig struct {
	// Capacity is the total number of node records the cache may hold
	// (spec.md's C).
	Capacity int
	// Shards is the number of independent partitions (power of 2).
	Shards int
	// BucketsPerShard is the number of chain heads per shard (power of
	// 2); spec.md's L lookup heads, divided across shards.
	BucketsPerShard int
	// ChainTrim is T, the max chain length before LRU-tail eviction.
	ChainTrim int
}

// NewHashtable builds a hashtable-policy Cache over dev.
func NewHashtable(dev swap.Device, layout node.Layout, cfg HashtableConfig) (Cache, error) {
	if cfg.Shards <= 0 || cfg.Shards&(cfg.Shards-1) != 0 {
		return nil, fmt.Errorf("cache: Shards must be a positive power of 2, got %d", cfg.Shards)
	}
	if cfg.BucketsPerShard <= 0 || cfg.BucketsPerShard&(cfg.BucketsPerShard-1) != 0 {
		return nil, fmt.Errorf("cache: BucketsPerShard must be a positive power of 2, got %d", cfg.BucketsPerShard)
	}
	if cfg.ChainTrim < 1 || cfg.ChainTrim > 16 {
		return nil, fmt.Errorf("cache: ChainTrim must be in [1,16], got %d", cfg.ChainTrim)
	}
	perShardCap := cfg.Capacity / cfg.Shards
	if perShardCap < 1 {
		perShardCap = 1
	}
	c := &hashtableCache{
		dev:        dev,
		layout:     layout,
		recordSize: dev.RecordSize(),
		shards:     make([]cacheShard, cfg.Shards),
		numShards:  cfg.Shards,
		shardBits:  bits.Len(uint(cfg.Shards - 1)),
		trim:       cfg.ChainTrim,
	}
	for i := range c.shards {
		c.shards[i].buckets = make([]*slot, cfg.BucketsPerShard)
		c.shards[i].mask = uint32(cfg.BucketsPerShard - 1)
		c.shards[i].capacity = perShardCap
	}
	return c, nil
}

func hashIndex(i node.NodeIndex) uint64 {
	var b [4]byte
	b[0], b[1], b[2], b[3] = byte(i), byte(i>>8), byte(i>>16), byte(i>>24)
	return xxh3.Hash(b[:])
}

func (c *hashtableCache) locate(i node.NodeIndex) (*cacheShard, uint32) {
	h := hashIndex(i)
	shardID := uint32(h) & uint32(c.numShards-1)
	bucketID := uint32(h>>uint(c.shardBits)) & c.shards[shardID].mask
	return &c.shards[shardID], bucketID
}

func (sh *cacheShard) find(bucketID uint32, i node.NodeIndex) *slot {
	for s := sh.buckets[bucketID]; s != nil; s = s.bucketNext {
		if s.index == i {
			return s
		}
	}
	return nil
}

func (sh *cacheShard) touch(s *slot) {
	sh.clock++
	s.lastUsed = sh.clock
	if sh.lruHead == s {
		return
	}
	sh.unlinkLRU(s)
	s.lruPrev = nil
	s.lruNext = sh.lruHead
	if sh.lruHead != nil {
		sh.lruHead.lruPrev = s
	}
	sh.lruHead = s
	if sh.lruTail == nil {
		sh.lruTail = s
	}
}

func (sh *cacheShard) unlinkLRU(s *slot) {
	if s.lruPrev != nil {
		s.lruPrev.lruNext = s.lruNext
	} else if sh.lruHead == s {
		sh.lruHead = s.lruNext
	}
	if s.lruNext != nil {
		s.lruNext.lruPrev = s.lruPrev
	} else if sh.lruTail == s {
		sh.lruTail = s.lruPrev
	}
	s.lruPrev, s.lruNext = nil, nil
}

func (sh *cacheShard) insert(bucketID uint32, s *slot) {
	s.bucketIdx = bucketID
	s.bucketNext = sh.buckets[bucketID]
	sh.buckets[bucketID] = s
	sh.size++
	sh.touch(s)
}

// unlink detaches s from both its bucket chain and the LRU list, without
// flushing it. Caller holds sh.mu.
func (sh *cacheShard) unlink(s *slot) {
	prev := (*slot)(nil)
	for cur := sh.buckets[s.bucketIdx]; cur != nil; cur = cur.bucketNext {
		if cur == s {
			if prev == nil {
				sh.buckets[s.bucketIdx] = cur.bucketNext
			} else {
				prev.bucketNext = cur.bucketNext
			}
			break
		}
		prev = cur
	}
	sh.unlinkLRU(s)
	sh.size--
}

// evictVictim finds the least-recently-used unpinned slot, starting from
// the LRU tail, skipping pinned slots (spec.md invariant 5).
func (sh *cacheShard) evictVictim() *slot {
	for s := sh.lruTail; s != nil; s = s.lruPrev {
		if s.pins.Load() == 0 {
			return s
		}
	}
	return nil
}

// flushSlot writes s to the device if dirty. Writing without the shard
// lock is not safe, since s.n may still be referenced by other code
// paths, so flushSlot is always called with sh.mu held.
func (c *hashtableCache) flushSlot(s *slot) error {
	if !s.dirty.Load() {
		return nil
	}
	buf := make([]byte, c.recordSize)
	s.n.Encode(c.layout, buf)
	if err := c.dev.Write(s.index, buf); err != nil {
		return fmt.Errorf("cache: flush index %d: %w", s.index, err)
	}
	s.dirty.Store(false)
	c.stats.writes.Add(1)
	return nil
}

// evictOne removes and flushes one unpinned LRU-tail slot from sh, to
// make room for a new insertion. Returns ErrPinnedCapacity if every
// slot is pinned.
func (c *hashtableCache) evictOne(sh *cacheShard) error {
	victim := sh.evictVictim()
	if victim == nil {
		return ErrPinnedCapacity
	}
	if err := c.flushSlot(victim); err != nil {
		return err
	}
	sh.unlink(victim)
	c.stats.evictions.Add(1)
	return nil
}

// enforceLimits trims the bucket chain containing the just-inserted slot
// down to c.trim entries, then enforces the shard-wide capacity. Caller
// holds sh.mu.
func (c *hashtableCache) enforceLimits(sh *cacheShard, bucketID uint32) error {
	for chainLen(sh.buckets[bucketID]) > c.trim {
		victim := leastRecentInChain(sh.buckets[bucketID])
		if victim == nil || victim.pins.Load() != 0 {
			break // nothing evictable in this chain right now
		}
		if err := c.flushSlot(victim); err != nil {
			return err
		}
		sh.unlink(victim)
		c.stats.evictions.Add(1)
		c.stats.chainTrims.Add(1)
	}
	for sh.size > sh.capacity {
		if err := c.evictOne(sh); err != nil {
			if err == ErrPinnedCapacity {
				break // capacity slack tolerated while heavily pinned
			}
			return err
		}
	}
	return nil
}

func chainLen(head *slot) int {
	n := 0
	for s := head; s != nil; s = s.bucketNext {
		n++
	}
	return n
}

func leastRecentInChain(head *slot) *slot {
	var victim *slot
	for s := head; s != nil; s = s.bucketNext {
		if victim == nil || s.lastUsed < victim.lastUsed {
			victim = s
		}
	}
	return victim
}

func (c *hashtableCache) loadFromDevice(i node.NodeIndex) (node.Node, error) {
	buf := make([]byte, c.recordSize)
	if err := c.dev.Read(i, buf); err != nil {
		return node.Node{}, fmt.Errorf("cache: read index %d: %w", i, err)
	}
	c.stats.reads.Add(1)
	return node.DecodeNode(c.layout, buf), nil
}

func (c *hashtableCache) get(i node.NodeIndex, markDirty bool) (*Handle, error) {
	sh, bucketID := c.locate(i)

	sh.mu.Lock()
	if s := sh.find(bucketID, i); s != nil {
		s.pins.Add(1)
		sh.touch(s)
		if markDirty {
			s.dirty.Store(true)
		}
		sh.mu.Unlock()
		c.stats.hits.Add(1)
		return &Handle{s: s}, nil
	}
	sh.mu.Unlock()
	c.stats.misses.Add(1)

	n, err := c.loadFromDevice(i)
	if err != nil {
		return nil, err
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if s := sh.find(bucketID, i); s != nil {
		// Lost the race: another goroutine loaded this index first.
		s.pins.Add(1)
		sh.touch(s)
		if markDirty {
			s.dirty.Store(true)
		}
		return &Handle{s: s}, nil
	}
	s := &slot{index: i, n: n}
	sh.insert(bucketID, s)
	s.pins.Store(1)
	if markDirty {
		s.dirty.Store(true)
	}
	if err := c.enforceLimits(sh, bucketID); err != nil {
		return nil, err
	}
	return &Handle{s: s}, nil
}

func (c *hashtableCache) Get(i node.NodeIndex) (*Handle, error)    { return c.get(i, false) }
func (c *hashtableCache) GetMut(i node.NodeIndex) (*Handle, error) { return c.get(i, true) }

func (c *hashtableCache) Put(i node.NodeIndex, n node.Node) (*Handle, error) {
	sh, bucketID := c.locate(i)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if s := sh.find(bucketID, i); s != nil {
		s.n = n
		s.dirty.Store(true)
		s.pins.Add(1)
		sh.touch(s)
		return &Handle{s: s}, nil
	}
	s := &slot{index: i, n: n}
	s.dirty.Store(true)
	sh.insert(bucketID, s)
	s.pins.Store(1)
	if err := c.enforceLimits(sh, bucketID); err != nil {
		return nil, err
	}
	return &Handle{s: s}, nil
}

func (c *hashtableCache) Release(h *Handle) {
	h.s.pins.Add(-1)
}

func (c *hashtableCache) FlushAll() error {
	for i := range c.shards {
		sh := &c.shards[i]
		sh.mu.Lock()
		for s := sh.lruHead; s != nil; s = s.lruNext {
			if err := c.flushSlot(s); err != nil {
				sh.mu.Unlock()
				return err
			}
		}
		sh.mu.Unlock()
	}
	return nil
}

func (c *hashtableCache) Stats() Stats       { return c.stats.snapshot() }
func (c *hashtableCache) Device() swap.Device { return c.dev }
func (c *hashtableCache) Layout() node.Layout { return c.layout }
