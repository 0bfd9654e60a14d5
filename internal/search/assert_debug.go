//go:build kwirksearch_debug

package search

import "fmt"

// assertBFSNeverRewrites is compiled in under `-tags kwirksearch_debug`
// (SPEC_FULL.md Open Question #1, mirroring the
// calvinalkan-agent-task pkg/slotcache convention of a named build tag
// switching between a stub and a real implementation): it turns a BFS
// rewrite — which should be unreachable under BFS's monotone frame
// order — into a hard failure instead of a silently incremented counter.
func assertBFSNeverRewrites(idx uint32, frame int32) {
	panic(fmt.Sprintf("search: BFS rewrote node %d at frame %d; spec.md §9 expects this path dead under BFS", idx, frame))
}
