// Package search implements the two frontier-driver variants over a
// store.Store: a frame-bucketed BFS and a bounded-frame DFS
// (SPEC_FULL.md, Search Driver — BFS / DFS). Neither driver touches the
// cache or swap device directly; both only call store.Store and
// kernel.Kernel.
package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/bottledcode/kwirksearch/internal/kernel"
	"github.com/bottledcode/kwirksearch/internal/node"
	"github.com/bottledcode/kwirksearch/internal/stats"
	"github.com/bottledcode/kwirksearch/internal/store"
)

// ErrNotFound is returned when the search exhausts its frame budget
// without reaching a goal state (spec.md §4.4 step 3).
var ErrNotFound = fmt.Errorf("search: no solution within frame budget")

// Result is a completed search's outcome.
type Result struct {
	Goal   node.NodeIndex
	Frame  int32
	// Frames is how many frame values the run reached: BFS counts frames
	// 0 through the last one drained, DFS counts the distinct frames at
	// which it expanded a node. Per-frame expansion counts are not
	// returned.
	Frames int
	Stats  stats.Stats
}

// BFSConfig configures one BFS run.
type BFSConfig struct {
	// MaxFrames bounds the search (spec.md's maxFrames argument).
	MaxFrames int32
	// Workers is T, the number of goroutines draining each frame
	// bucket; 1 if unset.
	Workers int
}

// bfsDriver runs the frame-bucketed frontier. Unlike spec.md §4.4's
// literal description, the frontier here is a plain map keyed by
// absolute frame number (see drainFrame/expandOne below), not an
// intrusive singly-linked list threaded through node.Node.Next — that
// field is reserved for the node store's own hash-bucket chain (see
// internal/node/node.go), which both drivers share.
type bfsDriver struct {
	st     *store.Store
	kern   kernel.Kernel
	cfg    BFSConfig
	w      int32 // kernel.MaxFrameCost(), at least 1
	counts stats.Counters
}

// RunBFS implements spec.md §4.4's main loop: a frontier map keyed by
// absolute frame (kernel.MaxFrameCost() only sizes its initial
// allocation), T worker goroutines draining the current frame's bucket
// via a shared mutex-guarded cursor, and a
// WaitGroup barrier between frames — the teacher's (cloxcache's)
// preference for plain sync primitives over a goroutine-pool library,
// the one deliberate standard-library choice on the engine's hot path
// (see DESIGN.md).
func RunBFS(ctx context.Context, st *store.Store, kern kernel.Kernel, cfg BFSConfig) (Result, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	w := kern.MaxFrameCost()
	if w < 1 {
		w = 1
	}
	d := &bfsDriver{st: st, kern: kern, cfg: cfg, w: w}

	buckets := make(map[int32][]node.NodeIndex, w+1)
	initial := kern.Initial()
	initIdx, _, _, err := st.LookupOrInsert(initial, node.NilIndex, kernel.Step{}, 0)
	if err != nil {
		return Result{}, fmt.Errorf("search: seed initial state: %w", err)
	}
	buckets[0] = append(buckets[0], initIdx)

	framesExpanded := make([]int, 0, cfg.MaxFrames+1)

	for currentFrame := int32(0); currentFrame <= cfg.MaxFrames; currentFrame++ {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		bucket := buckets[currentFrame]
		delete(buckets, currentFrame)
		for len(framesExpanded) <= int(currentFrame) {
			framesExpanded = append(framesExpanded, 0)
		}

		if len(bucket) == 0 {
			continue
		}

		goalIdx, goalFrame, nextBuckets, expanded, err := d.drainFrame(currentFrame, bucket)
		framesExpanded[currentFrame] += expanded
		if err != nil {
			return Result{}, err
		}
		for frame, indices := range nextBuckets {
			buckets[frame] = append(buckets[frame], indices...)
		}
		if goalIdx != node.NilIndex {
			return Result{
				Goal:   goalIdx,
				Frame:  goalFrame,
				Frames: len(framesExpanded),
				Stats:  d.counts.Snapshot(),
			}, nil
		}
	}
	return Result{Frames: len(framesExpanded), Stats: d.counts.Snapshot()}, ErrNotFound
}

// drainFrame expands every node in bucket using cfg.Workers goroutines
// pulling from a shared mutex-guarded cursor, then barriers on their
// completion (spec.md §4.4's per-frame barrier) before returning the
// aggregated next-frame buckets.
func (d *bfsDriver) drainFrame(currentFrame int32, bucket []node.NodeIndex) (node.NodeIndex, int32, map[int32][]node.NodeIndex, int, error) {
	var cursor int
	var mu sync.Mutex
	next := make(map[int32][]node.NodeIndex)
	var goalIdx node.NodeIndex
	var goalFrame int32
	var firstErr error
	expanded := 0

	var wg sync.WaitGroup
	for w := 0; w < d.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				mu.Lock()
				if cursor >= len(bucket) || goalIdx != node.NilIndex || firstErr != nil {
					mu.Unlock()
					return
				}
				idx := bucket[cursor]
				cursor++
				mu.Unlock()

				done, frame, localNext, err := d.expandOne(idx, currentFrame)

				mu.Lock()
				expanded++
				if err != nil && firstErr == nil {
					firstErr = err
				}
				if done && goalIdx == node.NilIndex {
					goalIdx = idx
					goalFrame = frame
				}
				for f, indices := range localNext {
					next[f] = append(next[f], indices...)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return 0, 0, nil, expanded, firstErr
	}
	return goalIdx, goalFrame, next, expanded, nil
}

// expandOne re-materializes node idx's state, tests the goal predicate,
// and (if not a goal) enumerates successors into per-next-frame
// buckets, each via store.Store.LookupOrInsert.
func (d *bfsDriver) expandOne(idx node.NodeIndex, currentFrame int32) (bool, int32, map[int32][]node.NodeIndex, error) {
	h, err := d.st.Get(idx)
	if err != nil {
		return false, 0, nil, fmt.Errorf("search: get node %d: %w", idx, err)
	}
	stateBytes := append([]byte(nil), h.Ref().State...)
	d.st.Release(h)

	state := d.kern.Decode(stateBytes)
	if state.IsGoal() {
		d.counts.GoalsSeen.Add(1)
		return true, currentFrame, nil, nil
	}

	next := make(map[int32][]node.NodeIndex)
	for _, succ := range d.kern.LegalActions(state) {
		newFrame := currentFrame + succ.Frames
		if newFrame > d.cfg.MaxFrames {
			continue
		}
		step := kernel.Step{Action: succ.Action, X: xOf(succ.Next), Y: yOf(succ.Next), ExtraSteps: succ.ExtraSteps}
		childIdx, fresh, improved, err := d.st.LookupOrInsert(succ.Next, idx, step, newFrame)
		if err != nil {
			return false, 0, nil, fmt.Errorf("search: expand node %d: %w", idx, err)
		}
		if fresh {
			d.counts.NodesCreated.Add(1)
		}
		if !fresh && improved {
			// A rediscovery that rewrote an existing node: legal per
			// spec.md §4.4c but expected dead under BFS's monotone frame
			// order (spec.md §9, Open Question #1). Count it always;
			// under -tags kwirksearch_debug, treat it as a hard failure.
			d.counts.BFSRewrites.Add(1)
			assertBFSNeverRewrites(childIdx, newFrame)
		}
		// spec.md §4.4c: a fresh discovery is bucketed at its frame; a
		// rediscovery that strictly improved the stored frame is
		// re-bucketed too (rare under BFS's monotone frame order, but
		// legal). The frontier here is a map keyed by absolute frame
		// number, not the fixed-size circular array spec.md describes,
		// so successors are bucketed by their true frame directly — no
		// modulo-W wraparound to reconcile with the outer loop's own
		// absolute-frame keys.
		if fresh || improved {
			next[newFrame] = append(next[newFrame], childIdx)
		}
	}
	return false, 0, next, nil
}

// xOf and yOf bridge a successor's resulting state to the coordinates
// a kernel.Step records. kernel.State doesn't expose coordinates (it is
// deliberately opaque to the engine); a kernel that wants accurate
// Step.X/Y implements this narrow optional interface, as miniblock does.
func xOf(s kernel.State) uint8 {
	if p, ok := s.(interface{ PlayerX() uint8 }); ok {
		return p.PlayerX()
	}
	return 0
}

func yOf(s kernel.State) uint8 {
	if p, ok := s.(interface{ PlayerY() uint8 }); ok {
		return p.PlayerY()
	}
	return 0
}
