package pathrecon

import (
	"context"
	"testing"

	"github.com/bottledcode/kwirksearch/internal/cache"
	"github.com/bottledcode/kwirksearch/internal/kernel/miniblock"
	"github.com/bottledcode/kwirksearch/internal/node"
	"github.com/bottledcode/kwirksearch/internal/search"
	"github.com/bottledcode/kwirksearch/internal/store"
	"github.com/bottledcode/kwirksearch/internal/swap"
	"github.com/stretchr/testify/require"
)

func TestReconstructReplaysOneMoveSolution(t *testing.T) {
	k := miniblock.New(1, []string{
		"#####",
		"#@$.#",
		"#####",
	})
	stateSize := len(k.Initial().Bytes())
	recordSize := node.RecordSize(node.LayoutBFS, stateSize)
	dev := swap.NewRAM(64, recordSize)
	c, err := cache.NewHashtable(dev, node.LayoutBFS, cache.HashtableConfig{
		Capacity: 64, Shards: 4, BucketsPerShard: 4, ChainTrim: 4,
	})
	require.NoError(t, err)
	st := store.New(c, k, store.Config{Capacity: 64, Layout: node.LayoutBFS, Rewrite: store.RewriteOnImprovement})

	res, err := search.RunBFS(context.Background(), st, k, search.BFSConfig{MaxFrames: 10, Workers: 1})
	require.NoError(t, err)

	path, err := Reconstruct(st, k, res.Goal)
	require.NoError(t, err)
	require.Len(t, path.Moves, 1)
	require.Equal(t, res.Frame, path.TotalFrame)
}

func TestReconstructTrivialPathIsEmpty(t *testing.T) {
	k := miniblock.New(1, []string{
		"###",
		"#+#",
		"###",
	})
	stateSize := len(k.Initial().Bytes())
	recordSize := node.RecordSize(node.LayoutBFS, stateSize)
	dev := swap.NewRAM(16, recordSize)
	c, err := cache.NewHashtable(dev, node.LayoutBFS, cache.HashtableConfig{
		Capacity: 16, Shards: 2, BucketsPerShard: 2, ChainTrim: 4,
	})
	require.NoError(t, err)
	st := store.New(c, k, store.Config{Capacity: 16, Layout: node.LayoutBFS, Rewrite: store.RewriteOnImprovement})

	res, err := search.RunBFS(context.Background(), st, k, search.BFSConfig{MaxFrames: 5, Workers: 1})
	require.NoError(t, err)

	path, err := Reconstruct(st, k, res.Goal)
	require.NoError(t, err)
	require.Empty(t, path.Moves)
	require.Equal(t, int32(0), path.TotalFrame)
}
