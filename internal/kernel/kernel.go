// Package kernel defines the narrow interface the search engine consumes
// from a puzzle implementation. The engine never depends on a concrete
// puzzle; it only depends on this interface and the Step/State wire types.
package kernel

import "errors"

// ErrStepOverflow is returned by Step.Encode when a field (extraSteps
// included) exceeds its bit width. The original C++ source truncated
// silently; this module returns this error instead (see SPEC_FULL.md,
// Open Questions). The search drivers do not skip such a move: the error
// reaches them through store.Store.LookupOrInsert and ends the search.
var ErrStepOverflow = errors.New("kernel: step extraSteps overflow")

// Action identifies one of a bounded set of player actions (push, walk,
// rotate, switch, ...). The concrete meaning of each value is owned by
// the puzzle implementation.
type Action uint8

// MaxAction is the exclusive upper bound for Action values (spec: 0..7).
const MaxAction = 8

// State is an opaque, comparable, hashable puzzle position. Implementations
// are expected to be small, fixed-size value types so that Clone is cheap.
type State interface {
	// Canonicalize normalizes equivalent representations in place (e.g.
	// sorting interchangeable block identities) so Hash/Equal agree for
	// states that differ only in irrelevant labeling.
	Canonicalize()
	// Hash returns a 32-bit digest of the canonical state. Replacing it
	// with a weaker hash must never change which states are discovered,
	// only performance (spec.md testable property 2).
	Hash() uint32
	// Equal reports whether two canonicalized states denote the same
	// position.
	Equal(other State) bool
	// IsGoal reports whether the state satisfies the puzzle's win
	// condition.
	IsGoal() bool
	// Bytes returns the fixed-size encoded form stored in a Node record.
	Bytes() []byte
	// Clone returns an independent deep copy.
	Clone() State
}

// Successor describes one legal move out of a state.
type Successor struct {
	Action     Action
	Next       State
	ExtraSteps uint8 // walking detour beyond Manhattan distance
	Frames     int32 // frames added by this move; always > 0
}

// Kernel is the puzzle-specific collaborator the search engine consumes.
// It is deliberately narrow: the engine never inspects board geometry,
// only calls these methods.
type Kernel interface {
	// Initial returns the starting state for the configured level.
	Initial() State
	// Decode reconstructs a State from its fixed-size Bytes() encoding.
	Decode([]byte) State
	// LegalActions enumerates the legal successors of state.
	LegalActions(state State) []Successor
	// ReplayStep re-derives the true frame cost of a recorded Step by
	// re-simulating it against state, mutating state in place. It
	// returns ErrIllegalMove if the kernel rejects the step, which
	// indicates node-store corruption during path reconstruction.
	ReplayStep(state State, step Step) (frames int32, err error)
	// DelayMove is the frame cost charged per tile walked (DELAY_MOVE).
	DelayMove() int32
	// MaxFrameCost is the largest frames value any single move can add;
	// the BFS driver uses it to size its frontier map's initial allocation.
	MaxFrameCost() int32
	// Level identifies the board for diagnostics and node-dump naming.
	Level() int
}

// ErrIllegalMove is returned by Kernel.ReplayStep when a recorded Step no
// longer applies to the given state — a sign of node-store corruption.
var ErrIllegalMove = errors.New("kernel: illegal move on replay")
