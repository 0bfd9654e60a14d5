package miniblock

import (
	"sort"

	"github.com/bottledcode/kwirksearch/internal/kernel"
)

// State is a miniblock position: player location plus the (unordered)
// set of crate locations. Crates carry no identity, so Canonicalize
// sorts them — two states differing only in crate labeling must hash
// and compare equal.
type State struct {
	board  *Board
	player Pos
	crates []Pos
}

func (s *State) crateAt(p Pos) int {
	for i, c := range s.crates {
		if c == p {
			return i
		}
	}
	return -1
}

// Canonicalize sorts the crate slice into a stable order.
func (s *State) Canonicalize() {
	sort.Slice(s.crates, func(i, j int) bool {
		if s.crates[i].Y != s.crates[j].Y {
			return s.crates[i].Y < s.crates[j].Y
		}
		return s.crates[i].X < s.crates[j].X
	})
}

// Hash computes an FNV-1a digest of the encoded bytes. Testable property
// 2 (hash-independence) requires that swapping this for a weaker hash —
// e.g. Bytes()[0] — changes only performance, never which states the
// search discovers, because the node store always confirms with Equal.
func (s *State) Hash() uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for _, b := range s.Bytes() {
		h ^= uint32(b)
		h *= prime32
	}
	return h
}

func (s *State) Equal(other kernel.State) bool {
	o, ok := other.(*State)
	if !ok || len(s.crates) != len(o.crates) {
		return false
	}
	if s.player != o.player {
		return false
	}
	for i := range s.crates {
		if s.crates[i] != o.crates[i] {
			return false
		}
	}
	return true
}

// PlayerX and PlayerY expose the player's coordinates so the search
// driver can populate kernel.Step's positional fields without knowing
// miniblock's state layout.
func (s *State) PlayerX() uint8 { return s.player.X }
func (s *State) PlayerY() uint8 { return s.player.Y }

func (s *State) IsGoal() bool {
	for _, c := range s.crates {
		if !s.board.Goals[c] {
			return false
		}
	}
	return true
}

// Bytes encodes player position followed by each crate position, two
// bytes apiece, in canonical (sorted) order — a fixed size for a given
// crate count, as the Node store requires.
func (s *State) Bytes() []byte {
	buf := make([]byte, 2+2*len(s.crates))
	buf[0], buf[1] = s.player.X, s.player.Y
	for i, c := range s.crates {
		buf[2+2*i] = c.X
		buf[2+2*i+1] = c.Y
	}
	return buf
}

func decodeState(board *Board, b []byte) *State {
	s := &State{board: board, player: Pos{X: b[0], Y: b[1]}}
	for i := 2; i+1 < len(b); i += 2 {
		s.crates = append(s.crates, Pos{X: b[i], Y: b[i+1]})
	}
	return s
}

func (s *State) Clone() kernel.State {
	return &State{
		board:  s.board,
		player: s.player,
		crates: append([]Pos(nil), s.crates...),
	}
}
