// Package pathrecon turns a goal node into a playable action sequence
// (SPEC_FULL.md, Path Reconstruction): walk parent links backward
// collecting Steps, then replay them forward through the puzzle kernel
// to recover true coordinates and frame costs.
package pathrecon

import (
	"fmt"

	"github.com/bottledcode/kwirksearch/internal/kernel"
	"github.com/bottledcode/kwirksearch/internal/node"
	"github.com/bottledcode/kwirksearch/internal/store"
)

// Move is one replayed step of the solution, enriched with the frame
// cost the kernel actually charged for it.
type Move struct {
	Step   kernel.Step
	Frames int32
}

// Path is a complete, replay-verified solution.
type Path struct {
	Moves      []Move
	TotalFrame int32
}

// Reconstruct walks goal's parent chain back to the root, then replays
// it forward from kern.Initial() (spec.md §4.6). It returns
// store.ErrIllegalReplay, wrapping kernel.ErrIllegalMove, if a recorded
// step no longer applies during replay — evidence of node-store
// corruption rather than a bug in the search itself.
func Reconstruct(st *store.Store, kern kernel.Kernel, goal node.NodeIndex) (Path, error) {
	steps, err := collectSteps(st, goal)
	if err != nil {
		return Path{}, err
	}

	state := kern.Initial()
	var moves []Move
	var total int32
	for _, step := range steps {
		frames, err := kern.ReplayStep(state, step)
		if err != nil {
			return Path{}, fmt.Errorf("%w: %w", store.ErrIllegalReplay, err)
		}
		total += frames
		moves = append(moves, Move{Step: step, Frames: frames})
	}
	return Path{Moves: moves, TotalFrame: total}, nil
}

// collectSteps walks goal's Parent chain back to node.NilIndex,
// collecting each hop's decoded Step, then reverses the result into
// root-to-goal order.
func collectSteps(st *store.Store, goal node.NodeIndex) ([]kernel.Step, error) {
	var reversed []kernel.Step
	cur := goal
	for cur != node.NilIndex {
		h, err := st.Get(cur)
		if err != nil {
			return nil, fmt.Errorf("pathrecon: get node %d: %w", cur, err)
		}
		step := h.Ref().DecodedStep()
		parent := h.Ref().Parent
		st.Release(h)

		reversed = append(reversed, step)
		cur = parent
	}
	// reversed currently runs goal -> ... -> root; the root's entry is
	// not a move (its Step is the zero value recorded at seeding), so
	// drop the last entry and reverse.
	if len(reversed) > 0 {
		reversed = reversed[:len(reversed)-1]
	}
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	return reversed, nil
}
