package cache

import (
	"fmt"
	"sync"

	"github.com/bottledcode/kwirksearch/internal/node"
	"github.com/bottledcode/kwirksearch/internal/swap"
)

// splayCache is a top-down splay tree keyed by NodeIndex: recent access
// hoists the accessed node to the root, so hot records stay cheap to
// reach while the tree self-balances under skewed access patterns
// (spec.md §4.2). It has no teacher precedent in cloxcache (which is
// hash-only); the shape is new work grounded directly in the spec's
// "keyed by dense integer, recent access hoists near the root"
// description, sharing the same Handle/pin contract as the hashtable
// variant.
type splayCache struct {
	dev        swap.Device
	layout     node.Layout
	recordSize int
	capacity   int

	mu   sync.Mutex
	root *splayNode
	size int

	stats statCounters
}

type splayNode struct {
	s           *slot
	left, right *splayNode
}

// NewSplay builds a splay-tree-policy Cache over dev with room for
// capacity node records.
func NewSplay(dev swap.Device, layout node.Layout, capacity int) Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &splayCache{dev: dev, layout: layout, recordSize: dev.RecordSize(), capacity: capacity}
}

// splay performs a top-down splay of key to the root, grounded in the
// classic recursive top-down splay algorithm; returns the (possibly
// unchanged) new root.
func splay(n *splayNode, key node.NodeIndex) *splayNode {
	if n == nil {
		return nil
	}
	if key < n.s.index {
		if n.left == nil {
			return n
		}
		if key < n.left.s.index {
			n.left.left = splay(n.left.left, key)
			n = rotateRight(n)
		} else if key > n.left.s.index {
			n.left.right = splay(n.left.right, key)
			if n.left.right != nil {
				n.left = rotateLeft(n.left)
			}
		}
		if n.left == nil {
			return n
		}
		return rotateRight(n)
	} else if key > n.s.index {
		if n.right == nil {
			return n
		}
		if key > n.right.s.index {
			n.right.right = splay(n.right.right, key)
			n = rotateLeft(n)
		} else if key < n.right.s.index {
			n.right.left = splay(n.right.left, key)
			if n.right.left != nil {
				n.right = rotateRight(n.right)
			}
		}
		if n.right == nil {
			return n
		}
		return rotateLeft(n)
	}
	return n
}

func rotateLeft(n *splayNode) *splayNode {
	r := n.right
	n.right = r.left
	r.left = n
	return r
}

func rotateRight(n *splayNode) *splayNode {
	l := n.left
	n.left = l.right
	l.right = n
	return l
}

func (c *splayCache) find(i node.NodeIndex) *slot {
	if c.root == nil {
		return nil
	}
	c.root = splay(c.root, i)
	if c.root.s.index == i {
		return c.root.s
	}
	return nil
}

// insert splays key to the root (or finds its insertion point) and
// attaches a new node there. Caller holds c.mu.
func (c *splayCache) insert(s *slot) {
	n := &splayNode{s: s}
	if c.root == nil {
		c.root = n
		c.size++
		return
	}
	c.root = splay(c.root, s.index)
	switch {
	case s.index < c.root.s.index:
		n.left = c.root.left
		n.right = c.root
		c.root.left = nil
	case s.index > c.root.s.index:
		n.right = c.root.right
		n.left = c.root
		c.root.right = nil
	default:
		// Already present (should not happen: callers check find first).
		c.root.s = s
		return
	}
	c.root = n
	c.size++
}

// remove splices out the node currently at the root (must already be
// splayed to the key being removed).
func (c *splayCache) removeRoot() {
	if c.root.left == nil {
		c.root = c.root.right
	} else {
		right := c.root.right
		c.root = splay(c.root.left, c.root.s.index)
		c.root.right = right
	}
	c.size--
}

func (c *splayCache) flushSlot(s *slot) error {
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

// evictOne finds an unpinned node by walking the tree (least-recently-
// splayed nodes tend toward the fringes) and removes it. Caller holds
// c.mu.
func (c *splayCache) evictOne() error {
	victim := findUnpinned(c.root)
	if victim == nil {
		return ErrPinnedCapacity
	}
	if err := c.flushSlot(victim.s); err != nil {
		return err
	}
	c.root = splay(c.root, victim.s.index)
	c.removeRoot()
	c.stats.evictions.Add(1)
	return nil
}

func findUnpinned(n *splayNode) *splayNode {
	if n == nil {
		return nil
	}
	if v := findUnpinned(n.left); v != nil {
		return v
	}
	if n.s.pins.Load() == 0 {
		return n
	}
	return findUnpinned(n.right)
}

func (c *splayCache) loadFromDevice(i node.NodeIndex) (node.Node, error) {
	buf := make([]byte, c.recordSize)
	if err := c.dev.Read(i, buf); err != nil {
		return node.Node{}, fmt.Errorf("cache: read index %d: %w", i, err)
	}
	c.stats.reads.Add(1)
	return node.DecodeNode(c.layout, buf), nil
}

func (c *splayCache) get(i node.NodeIndex, markDirty bool) (*Handle, error) {
	c.mu.Lock()
	if s := c.find(i); s != nil {
		s.pins.Add(1)
		if markDirty {
			s.dirty.Store(true)
		}
		c.mu.Unlock()
		c.stats.hits.Add(1)
		return &Handle{s: s}, nil
	}
	c.mu.Unlock()
	c.stats.misses.Add(1)

	n, err := c.loadFromDevice(i)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s := c.find(i); s != nil {
		s.pins.Add(1)
		if markDirty {
			s.dirty.Store(true)
		}
		return &Handle{s: s}, nil
	}
	s := &slot{index: i, n: n}
	if c.size >= c.capacity {
		if err := c.evictOne(); err != nil && err != ErrPinnedCapacity {
			return nil, err
		}
	}
	c.insert(s)
	s.pins.Store(1)
	if markDirty {
		s.dirty.Store(true)
	}
	return &Handle{s: s}, nil
}

func (c *splayCache) Get(i node.NodeIndex) (*Handle, error)    { return c.get(i, false) }
func (c *splayCache) GetMut(i node.NodeIndex) (*Handle, error) { return c.get(i, true) }

func (c *splayCache) Put(i node.NodeIndex, n node.Node) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s := c.find(i); s != nil {
		s.n = n
		s.dirty.Store(true)
		s.pins.Add(1)
		return &Handle{s: s}, nil
	}
	if c.size >= c.capacity {
		if err := c.evictOne(); err != nil && err != ErrPinnedCapacity {
			return nil, err
		}
	}
	s := &slot{index: i, n: n}
	s.dirty.Store(true)
	c.insert(s)
	s.pins.Store(1)
	return &Handle{s: s}, nil
}

func (c *splayCache) Release(h *Handle) {
	h.s.pins.Add(-1)
}

func (c *splayCache) FlushAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return flushTree(c, c.root)
}

func flushTree(c *splayCache, n *splayNode) error {
	if n == nil {
		return nil
	}
	if err := flushTree(c, n.left); err != nil {
		return err
	}
	if err := c.flushSlot(n.s); err != nil {
		return err
	}
	return flushTree(c, n.right)
}

func (c *splayCache) Stats() Stats        { return c.stats.snapshot() }
func (c *splayCache) Device() swap.Device { return c.dev }
func (c *splayCache) Layout() node.Layout { return c.layout }
