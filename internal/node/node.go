// Package node defines the persisted Node record shared by the cache,
// the swap device, and the node store, kept in its own package so those
// three can depend on the record format without depending on each other.
package node

import (
	"encoding/binary"

	"github.com/bottledcode/kwirksearch/internal/kernel"
)

// NodeIndex is a dense node identifier. 0 (NilIndex) means "no node".
type NodeIndex = uint32

// NilIndex is the reserved "no node" sentinel.
const NilIndex NodeIndex = 0

// Node is the persisted record for one visited state plus predecessor
// metadata. Next is the node store's global hash-bucket chain link
// (spec.md §3.1: "chain links live inside Node"), walked by
// store.Store.LookupOrInsert's dedup lookup — it is required by every
// search mode, not just one, because LookupOrInsert itself is shared by
// both drivers. BFS's own frame-bucket frontier is a separate, in-memory
// structure (see internal/search/bfs.go) and does not reuse this field,
// so despite the original's node_fw.h/node_bw.h split carrying an extra
// link only on the forward (BFS) side, this port's two Layouts share one
// on-disk shape; Layout is kept as a named choice for documentation and
// in case a future variant needs a field one mode doesn't.
type Node struct {
	State  []byte // fixed-size kernel.State encoding
	Parent NodeIndex
	Step   uint16 // encoded kernel.Step
	Frame  int32
	Next   NodeIndex // hash-bucket chain link; required under every Layout
}

// Layout names which search mode a Store was built for. It no longer
// changes the on-disk record shape (both modes need Next), but is kept
// as an explicit choice threaded through Store/Cache construction.
type Layout int

const (
	LayoutBFS Layout = iota
	LayoutDFS
)

const nodeHeaderSize = 4 + 2 + 4 + 4 // Parent + Step + Frame + Next

// RecordSize returns the fixed on-disk size of a Node for the given
// layout and state byte size.
func RecordSize(layout Layout, stateSize int) int {
	return nodeHeaderSize + stateSize
}

// Encode serializes n into dst, which must have length
// RecordSize(layout, len(n.State)).
func (n *Node) Encode(layout Layout, dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], n.Parent)
	binary.LittleEndian.PutUint16(dst[4:6], n.Step)
	binary.LittleEndian.PutUint32(dst[6:10], uint32(n.Frame))
	binary.LittleEndian.PutUint32(dst[10:14], n.Next)
	copy(dst[14:], n.State)
}

// DecodeNode deserializes a record produced by Encode. The returned
// Node's State slice aliases src; callers that retain it beyond the
// buffer's lifetime must copy.
func DecodeNode(layout Layout, src []byte) Node {
	var n Node
	n.Parent = binary.LittleEndian.Uint32(src[0:4])
	n.Step = binary.LittleEndian.Uint16(src[4:6])
	n.Frame = int32(binary.LittleEndian.Uint32(src[6:10]))
	n.Next = binary.LittleEndian.Uint32(src[10:14])
	n.State = append([]byte(nil), src[14:]...)
	return n
}

// DecodedStep returns the decoded Step field.
func (n *Node) DecodedStep() kernel.Step { return kernel.DecodeStep(n.Step) }
