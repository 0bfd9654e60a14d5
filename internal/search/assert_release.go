//go:build !kwirksearch_debug

package search

// assertBFSNeverRewrites is a no-op outside the kwirksearch_debug build
// tag. The rewrite is still recorded in stats.Stats.BFSRewrites for
// non-debug visibility (internal/stats/stats.go).
func assertBFSNeverRewrites(idx uint32, frame int32) {}
