package miniblock

import (
	"testing"

	"github.com/bottledcode/kwirksearch/internal/kernel"
	"github.com/stretchr/testify/require"
)

func newTestKernel() *Kernel {
	return New(1, []string{
		"#####",
		"#@$.#",
		"#####",
	})
}

func TestInitialStateNotGoal(t *testing.T) {
	k := newTestKernel()
	require.False(t, k.Initial().IsGoal())
}

func TestCanonicalizeOrdersCratesRegardlessOfInputOrder(t *testing.T) {
	b := &Board{Width: 5, Height: 3}
	a := &State{board: b, crates: []Pos{{X: 3, Y: 1}, {X: 1, Y: 1}}}
	c := &State{board: b, crates: []Pos{{X: 1, Y: 1}, {X: 3, Y: 1}}}
	a.Canonicalize()
	c.Canonicalize()
	require.True(t, a.Equal(c))
	require.Equal(t, a.Hash(), c.Hash())
}

func TestLegalActionsPushesCrateOntoGoal(t *testing.T) {
	k := newTestKernel()
	succs := k.LegalActions(k.Initial())
	require.Len(t, succs, 1) // only "right" is unblocked: up/down/left hit walls
	require.Equal(t, right, uint8(succs[0].Action))
	require.True(t, succs[0].Next.IsGoal())
	require.Equal(t, int32(delayMove+pushOverhead), succs[0].Frames)
}

func TestLegalActionsExcludesPushIntoWallBeyondCrate(t *testing.T) {
	k := New(1, []string{
		"####",
		"#@$#",
		"####",
	})
	succs := k.LegalActions(k.Initial())
	require.Empty(t, succs)
}

func TestLegalActionsExcludesPushIntoAnotherCrate(t *testing.T) {
	k := New(1, []string{
		"#####",
		"#@$$#",
		"#####",
	})
	succs := k.LegalActions(k.Initial())
	require.Empty(t, succs)
}

func TestReplayStepMatchesLegalActionsFrameCost(t *testing.T) {
	k := newTestKernel()
	state := k.Initial()
	succs := k.LegalActions(state)
	require.Len(t, succs, 1)
	succ := succs[0]

	next := succ.Next.(*State)
	step := kernel.Step{Action: succ.Action, X: next.player.X, Y: next.player.Y, ExtraSteps: succ.ExtraSteps}

	frames, err := k.ReplayStep(state, step)
	require.NoError(t, err)
	require.Equal(t, succ.Frames, frames)
	require.True(t, state.IsGoal())
}

func TestReplayStepRejectsMismatchedDestination(t *testing.T) {
	k := newTestKernel()
	state := k.Initial()
	bogus := kernel.Step{Action: kernel.Action(right), X: 0, Y: 0}
	_, err := k.ReplayStep(state, bogus)
	require.ErrorIs(t, err, kernel.ErrIllegalMove)
}

func TestBytesRoundTripsThroughDecode(t *testing.T) {
	k := newTestKernel()
	s := k.Initial().(*State)
	decoded := k.Decode(s.Bytes())
	require.True(t, s.Equal(decoded))
}
