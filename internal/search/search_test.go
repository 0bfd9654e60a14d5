package search

import (
	"context"
	"testing"

	"github.com/bottledcode/kwirksearch/internal/cache"
	"github.com/bottledcode/kwirksearch/internal/kernel/miniblock"
	"github.com/bottledcode/kwirksearch/internal/node"
	"github.com/bottledcode/kwirksearch/internal/store"
	"github.com/bottledcode/kwirksearch/internal/swap"
	"github.com/stretchr/testify/require"
)

func newOneMoveKernel() *miniblock.Kernel {
	return miniblock.New(1, []string{
		"#####",
		"#@$.#",
		"#####",
	})
}

func newBFSStore(t *testing.T, k *miniblock.Kernel, capacity uint32) *store.Store {
	stateSize := len(k.Initial().Bytes())
	recordSize := node.RecordSize(node.LayoutBFS, stateSize)
	dev := swap.NewRAM(capacity, recordSize)
	c, err := cache.NewHashtable(dev, node.LayoutBFS, cache.HashtableConfig{
		Capacity: int(capacity), Shards: 4, BucketsPerShard: 4, ChainTrim: 4,
	})
	require.NoError(t, err)
	return store.New(c, k, store.Config{Capacity: capacity, Layout: node.LayoutBFS, Rewrite: store.RewriteOnImprovement})
}

func TestRunBFSSolvesOneMovePuzzle(t *testing.T) {
	k := newOneMoveKernel()
	st := newBFSStore(t, k, 64)

	res, err := RunBFS(context.Background(), st, k, BFSConfig{MaxFrames: 10, Workers: 2})
	require.NoError(t, err)
	require.NotEqual(t, node.NilIndex, res.Goal)
	require.Equal(t, int32(3), res.Frame) // delayMove(1) + pushOverhead(2)
}

func TestRunBFSReportsNotFoundWhenBudgetTooSmall(t *testing.T) {
	k := newOneMoveKernel()
	st := newBFSStore(t, k, 64)

	_, err := RunBFS(context.Background(), st, k, BFSConfig{MaxFrames: 1, Workers: 1})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRunBFSTrivialPuzzleAlreadySolved(t *testing.T) {
	k := miniblock.New(1, []string{
		"###",
		"#+#",
		"###",
	})
	st := newBFSStore(t, k, 16)

	res, err := RunBFS(context.Background(), st, k, BFSConfig{MaxFrames: 5, Workers: 1})
	require.NoError(t, err)
	require.Equal(t, int32(0), res.Frame)
}

func TestRunDFSSolvesOneMovePuzzle(t *testing.T) {
	k := newOneMoveKernel()
	stateSize := len(k.Initial().Bytes())
	recordSize := node.RecordSize(node.LayoutDFS, stateSize)
	dev := swap.NewRAM(64, recordSize)
	c := cache.NewSplay(dev, node.LayoutDFS, 64)
	st := store.New(c, k, store.Config{Capacity: 64, Layout: node.LayoutDFS, Rewrite: store.RewriteOnImprovement})

	res, err := RunDFS(context.Background(), st, k, DFSConfig{MaxFrames: 10, Workers: 2})
	require.NoError(t, err)
	require.NotEqual(t, node.NilIndex, res.Goal)
	require.Equal(t, int32(3), res.Frame)
}
