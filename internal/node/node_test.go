package node

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodeEncodeDecodeBFS(t *testing.T) {
	n := Node{State: []byte{1, 2, 3, 4}, Parent: 7, Step: 0x1234, Frame: 99, Next: 42}
	buf := make([]byte, RecordSize(LayoutBFS, len(n.State)))
	n.Encode(LayoutBFS, buf)

	got := DecodeNode(LayoutBFS, buf)
	require.Equal(t, n.Parent, got.Parent)
	require.Equal(t, n.Step, got.Step)
	require.Equal(t, n.Frame, got.Frame)
	require.Equal(t, n.Next, got.Next)
	require.Equal(t, n.State, got.State)
}

func TestNodeEncodeDecodeDFS(t *testing.T) {
	// Next must round-trip under LayoutDFS too: it is the node store's
	// global hash-bucket chain link, consumed by LookupOrInsert's dedup
	// walk regardless of search mode, not a BFS-only frame-bucket link.
	n := Node{State: []byte{9, 9}, Parent: 3, Step: 0xAB, Frame: -1, Next: 42}
	buf := make([]byte, RecordSize(LayoutDFS, len(n.State)))
	n.Encode(LayoutDFS, buf)

	got := DecodeNode(LayoutDFS, buf)
	require.Equal(t, n.Parent, got.Parent)
	require.Equal(t, n.Step, got.Step)
	require.Equal(t, n.Frame, got.Frame)
	require.Equal(t, n.Next, got.Next)
	require.Equal(t, n.State, got.State)
}

func TestRecordSizeSameAcrossLayouts(t *testing.T) {
	// Both layouts share one on-disk shape: Next is required by the
	// store's hash chain under either search mode (see Node's doc
	// comment), so there is no longer a size difference to assert.
	require.Equal(t, RecordSize(LayoutBFS, 4), RecordSize(LayoutDFS, 4))
}
