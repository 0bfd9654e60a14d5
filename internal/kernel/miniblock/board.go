// Package miniblock is a small reference puzzle kernel used to exercise
// the search engine end to end in tests: one player walks a grid and
// pushes crates onto goal tiles. It is a test/demo fixture, not a real
// Kwirk level loader — swapping it for one is the documented external
// collaborator seam (SPEC_FULL.md, Puzzle Kernel Interface).
package miniblock

import (
	"fmt"

	"github.com/bottledcode/kwirksearch/internal/kernel"
)

const (
	delayMove     = 1
	pushOverhead  = 2
	maxFrameCost  = delayMove + pushOverhead
	up       uint8 = 0
	down     uint8 = 1
	left     uint8 = 2
	right    uint8 = 3
)

var deltas = [4][2]int8{
	up:    {0, -1},
	down:  {0, 1},
	left:  {-1, 0},
	right: {1, 0},
}

// Pos is an (x, y) grid coordinate.
type Pos struct{ X, Y uint8 }

// Board is the static (immutable during search) level layout shared by
// every State produced from it.
type Board struct {
	Width, Height int
	Walls         map[Pos]bool
	Goals         map[Pos]bool
	level         int
}

// NewBoard constructs a board from an ASCII layout: '#' wall, '@' player,
// '$' crate, '.' goal, '*' crate-on-goal, '+' player-on-goal, ' ' floor.
func NewBoard(level int, rows []string) (*Board, Pos, []Pos) {
	b := &Board{
		Width:  0,
		Height: len(rows),
		Walls:  map[Pos]bool{},
		Goals:  map[Pos]bool{},
		level:  level,
	}
	var player Pos
	var crates []Pos
	for y, row := range rows {
		if len(row) > b.Width {
			b.Width = len(row)
		}
		for x, ch := range row {
			p := Pos{X: uint8(x), Y: uint8(y)}
			switch ch {
			case '#':
				b.Walls[p] = true
			case '@':
				player = p
			case '$':
				crates = append(crates, p)
			case '.':
				b.Goals[p] = true
			case '*':
				crates = append(crates, p)
				b.Goals[p] = true
			case '+':
				player = p
				b.Goals[p] = true
			}
		}
	}
	return b, player, crates
}

func (b *Board) inBounds(p Pos) bool {
	return int(p.X) < b.Width && int(p.Y) < b.Height
}

func (b *Board) blocked(p Pos) bool {
	return !b.inBounds(p) || b.Walls[p]
}

// Kernel adapts a Board into the kernel.Kernel interface.
type Kernel struct {
	board        *Board
	initialState *State
}

// New builds a Kernel and its initial state from an ASCII layout.
func New(level int, rows []string) *Kernel {
	board, player, crates := NewBoard(level, rows)
	s := &State{board: board, player: player, crates: append([]Pos(nil), crates...)}
	s.Canonicalize()
	return &Kernel{board: board, initialState: s}
}

func (k *Kernel) Initial() kernel.State { return k.initialState.Clone() }

func (k *Kernel) Decode(b []byte) kernel.State {
	return decodeState(k.board, b)
}

func (k *Kernel) DelayMove() int32    { return delayMove }
func (k *Kernel) MaxFrameCost() int32 { return maxFrameCost }
func (k *Kernel) Level() int          { return k.board.level }

// LegalActions enumerates the up to four single-tile moves available
// from state: a plain walk onto an empty floor tile, or a push of a
// crate directly ahead onto the tile beyond it.
func (k *Kernel) LegalActions(s kernel.State) []kernel.Successor {
	st := s.(*State)
	var out []kernel.Successor
	for a := uint8(0); a < 4; a++ {
		d := deltas[a]
		dst := Pos{X: uint8(int(st.player.X) + int(d[0])), Y: uint8(int(st.player.Y) + int(d[1]))}
		if int(st.player.X)+int(d[0]) < 0 || int(st.player.Y)+int(d[1]) < 0 {
			continue
		}
		if k.board.blocked(dst) {
			continue
		}
		if idx := st.crateAt(dst); idx >= 0 {
			beyond := Pos{X: uint8(int(dst.X) + int(d[0])), Y: uint8(int(dst.Y) + int(d[1]))}
			if int(dst.X)+int(d[0]) < 0 || int(dst.Y)+int(d[1]) < 0 {
				continue
			}
			if k.board.blocked(beyond) || st.crateAt(beyond) >= 0 {
				continue
			}
			next := st.Clone().(*State)
			next.player = dst
			next.crates[idx] = beyond
			next.Canonicalize()
			out = append(out, kernel.Successor{
				Action: kernel.Action(a), Next: next, ExtraSteps: 0,
				Frames: delayMove + pushOverhead,
			})
			continue
		}
		next := st.Clone().(*State)
		next.player = dst
		next.Canonicalize()
		out = append(out, kernel.Successor{
			Action: kernel.Action(a), Next: next, ExtraSteps: 0, Frames: delayMove,
		})
	}
	return out
}

// ReplayStep re-derives the frame cost of a recorded Step by re-applying
// it to state, matching the original's replayStep: it re-walks the
// Manhattan distance (corrected by extraSteps) then performs the action.
func (k *Kernel) ReplayStep(s kernel.State, step kernel.Step) (int32, error) {
	st := s.(*State)
	d := deltas[step.Action]
	nx, ny := int(st.player.X)+int(d[0]), int(st.player.Y)+int(d[1])
	if nx < 0 || ny < 0 || uint8(nx) != step.X || uint8(ny) != step.Y {
		return 0, kernel.ErrIllegalMove
	}
	dst := Pos{X: step.X, Y: step.Y}
	if k.board.blocked(dst) {
		return 0, kernel.ErrIllegalMove
	}
	steps := int32(abs(int(st.player.X)-nx)+abs(int(st.player.Y)-ny)) + int32(step.ExtraSteps)
	var res int32
	if idx := st.crateAt(dst); idx >= 0 {
		beyond := Pos{X: uint8(int(dst.X) + int(d[0])), Y: uint8(int(dst.Y) + int(d[1]))}
		if k.board.blocked(beyond) || st.crateAt(beyond) >= 0 {
			return 0, kernel.ErrIllegalMove
		}
		st.crates[idx] = beyond
		res = pushOverhead
	}
	st.player = dst
	st.Canonicalize()
	return steps*delayMove + res, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func (b *Board) String() string {
	return fmt.Sprintf("miniblock level %d (%dx%d)", b.level, b.Width, b.Height)
}
