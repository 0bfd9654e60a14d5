package search

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bottledcode/kwirksearch/internal/kernel"
	"github.com/bottledcode/kwirksearch/internal/node"
	"github.com/bottledcode/kwirksearch/internal/stats"
	"github.com/bottledcode/kwirksearch/internal/store"
)

// DFSConfig configures one bounded-frame DFS run.
type DFSConfig struct {
	// MaxFrames bounds the search.
	MaxFrames int32
	// Workers is the number of goroutines sharing the work stack
	// (spec.md §4.5: "work-stealing deque per thread or a single
	// shared stack depending on build" — this module picks the shared
	// stack, the simpler of the two legal choices, and records the
	// choice as an Open-Question decision in DESIGN.md).
	Workers int
}

// dfsFrame is one unit of pending DFS work.
type dfsFrame struct {
	idx   node.NodeIndex
	frame int32
}

// dfsDriver runs spec.md §4.5's bounded-frame DFS: nodes carry their
// best-known frame (store.RewriteOnImprovement), and a successor is
// only pushed when it strictly improves on any previously recorded
// frame for that state, or is newly discovered.
type dfsDriver struct {
	st     *store.Store
	kern   kernel.Kernel
	cfg    DFSConfig
	counts stats.Counters

	mu          sync.Mutex
	stack       []dfsFrame
	bestGoal    atomic.Int64 // encodes int32 frame, initialized to max
	goalIdx     atomic.Uint32
	expandedPer map[int32]int
	expMu       sync.Mutex
}

const noGoalYet = int64(1) << 40

// RunDFS implements spec.md §4.5: a bounded-frame DFS over a shared
// stack drained by cfg.Workers goroutines, pruning any successor whose
// frame exceeds MaxFrames or is no better than the best goal frame
// found so far.
func RunDFS(ctx context.Context, st *store.Store, kern kernel.Kernel, cfg DFSConfig) (Result, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	d := &dfsDriver{st: st, kern: kern, cfg: cfg, expandedPer: map[int32]int{}}
	d.bestGoal.Store(noGoalYet)

	initial := kern.Initial()
	initIdx, _, _, err := st.LookupOrInsert(initial, node.NilIndex, kernel.Step{}, 0)
	if err != nil {
		return Result{}, fmt.Errorf("search: seed initial state: %w", err)
	}
	d.stack = append(d.stack, dfsFrame{idx: initIdx, frame: 0})

	var wg sync.WaitGroup
	var firstErr error
	var errMu sync.Mutex
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					errMu.Lock()
					if firstErr == nil {
						firstErr = ctx.Err()
					}
					errMu.Unlock()
					return
				default:
				}
				work, ok := d.pop()
				if !ok {
					return
				}
				if err := d.visit(work); err != nil {
					errMu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					errMu.Unlock()
					return
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return Result{}, firstErr
	}
	d.expMu.Lock()
	framesTouched := len(d.expandedPer)
	d.expMu.Unlock()
	if d.bestGoal.Load() == noGoalYet {
		return Result{Frames: framesTouched, Stats: d.counts.Snapshot()}, ErrNotFound
	}
	return Result{
		Goal:   node.NodeIndex(d.goalIdx.Load()),
		Frame:  int32(d.bestGoal.Load()),
		Frames: framesTouched,
		Stats:  d.counts.Snapshot(),
	}, nil
}

func (d *dfsDriver) pop() (dfsFrame, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.stack) == 0 {
		return dfsFrame{}, false
	}
	top := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]
	return top, true
}

func (d *dfsDriver) push(f dfsFrame) {
	d.mu.Lock()
	d.stack = append(d.stack, f)
	d.mu.Unlock()
}

func (d *dfsDriver) recordExpansion(frame int32) {
	d.expMu.Lock()
	d.expandedPer[frame]++
	d.expMu.Unlock()
}

func (d *dfsDriver) visit(work dfsFrame) error {
	if work.frame > d.cfg.MaxFrames {
		return nil
	}
	if best := d.bestGoal.Load(); best != noGoalYet && work.frame >= int32(best) {
		return nil
	}

	h, err := d.st.Get(work.idx)
	if err != nil {
		return fmt.Errorf("search: get node %d: %w", work.idx, err)
	}
	stateBytes := append([]byte(nil), h.Ref().State...)
	d.st.Release(h)

	state := d.kern.Decode(stateBytes)
	d.recordExpansion(work.frame)

	if state.IsGoal() {
		d.counts.GoalsSeen.Add(1)
		for {
			best := d.bestGoal.Load()
			if best != noGoalYet && int32(best) <= work.frame {
				break
			}
			if d.bestGoal.CompareAndSwap(best, int64(work.frame)) {
				d.goalIdx.Store(uint32(work.idx))
				break
			}
		}
		return nil
	}

	for _, succ := range d.kern.LegalActions(state) {
		newFrame := work.frame + succ.Frames
		if newFrame > d.cfg.MaxFrames {
			continue
		}
		if best := d.bestGoal.Load(); best != noGoalYet && newFrame >= int32(best) {
			continue
		}
		step := kernel.Step{Action: succ.Action, X: xOf(succ.Next), Y: yOf(succ.Next), ExtraSteps: succ.ExtraSteps}
		childIdx, fresh, improved, err := d.st.LookupOrInsert(succ.Next, work.idx, step, newFrame)
		if err != nil {
			return fmt.Errorf("search: expand node %d: %w", work.idx, err)
		}
		if fresh {
			d.counts.NodesCreated.Add(1)
		}
		// Only re-expand a rediscovered state when this path strictly
		// improved its best-known frame (spec.md §4.5: "the visited set
		// is in fact a best-so-far set").
		if fresh || improved {
			d.push(dfsFrame{idx: childIdx, frame: newFrame})
		}
	}
	return nil
}
