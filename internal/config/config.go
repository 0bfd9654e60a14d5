// Package config assembles the runtime tunables the original source
// carried as build-time #defines (MAX_NODES, MAX_FRAMES, THREADS,
// search mode, cache mode, swap mode) into one struct built once in
// main and passed down (SPEC_FULL.md, Configuration), matching
// cloxcache's Config-struct-at-construction idiom.
package config

import "fmt"

// SearchMode selects the frontier driver.
type SearchMode string

const (
	SearchBFS SearchMode = "bfs"
	SearchDFS SearchMode = "dfs"
)

// CacheMode selects the cache eviction policy.
type CacheMode string

const (
	CacheHashtable CacheMode = "hashtable"
	CacheSplay     CacheMode = "splay"
	CacheNone      CacheMode = "none"
)

// SwapMode selects the swap device backend.
type SwapMode string

const (
	SwapRAM  SwapMode = "ram"
	SwapFile SwapMode = "file"
	SwapMmap SwapMode = "mmap"
)

// Config is the fully-resolved set of tunables for one search run.
type Config struct {
	MaxFrames int32
	MaxNodes  uint32
	Threads   int

	Search SearchMode
	Cache  CacheMode
	Swap   SwapMode

	SwapPath  string
	DumpNodes bool

	// CacheCapacity is the number of node records the cache may hold;
	// 0 selects an automatic size derived from Threads and MaxNodes via
	// cache.FromCapacity/cache.ClampCapacity.
	CacheCapacity int
}

// Default returns the compiled-in defaults, matching the original
// source's #define values where it still provides a reasonable
// sensible starting point for this reimplementation.
func Default() Config {
	return Config{
		MaxFrames:     0,
		MaxNodes:      1 << 20,
		Threads:       1,
		Search:        SearchBFS,
		Cache:         CacheHashtable,
		Swap:          SwapRAM,
		CacheCapacity: 0,
	}
}

// Validate checks the resolved configuration for internally
// inconsistent choices the flag parser itself cannot catch (e.g. a
// file/mmap swap mode with no path).
func (c Config) Validate() error {
	if c.Threads < 1 {
		return fmt.Errorf("config: threads must be >= 1, got %d", c.Threads)
	}
	if c.MaxNodes < 2 {
		return fmt.Errorf("config: max-nodes must be >= 2, got %d", c.MaxNodes)
	}
	switch c.Search {
	case SearchBFS, SearchDFS:
	default:
		return fmt.Errorf("config: unknown search mode %q", c.Search)
	}
	switch c.Cache {
	case CacheHashtable, CacheSplay, CacheNone:
	default:
		return fmt.Errorf("config: unknown cache mode %q", c.Cache)
	}
	switch c.Swap {
	case SwapRAM:
	case SwapFile, SwapMmap:
		if c.SwapPath == "" {
			return fmt.Errorf("config: swap mode %q requires --swap-path", c.Swap)
		}
	default:
		return fmt.Errorf("config: unknown swap mode %q", c.Swap)
	}
	return nil
}
