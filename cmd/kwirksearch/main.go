// Command kwirksearch runs an exhaustive state-space search over a
// puzzle kernel (SPEC_FULL.md, CLI surface). The only positional
// argument is maxFrames, matching the original source's `program
// [maxFrames]` surface; every other tunable is an additive flag.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	atomicfile "github.com/natefinch/atomic"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/bottledcode/kwirksearch/internal/cache"
	"github.com/bottledcode/kwirksearch/internal/config"
	"github.com/bottledcode/kwirksearch/internal/kernel"
	"github.com/bottledcode/kwirksearch/internal/kernel/miniblock"
	"github.com/bottledcode/kwirksearch/internal/node"
	"github.com/bottledcode/kwirksearch/internal/pathrecon"
	"github.com/bottledcode/kwirksearch/internal/search"
	"github.com/bottledcode/kwirksearch/internal/store"
	"github.com/bottledcode/kwirksearch/internal/swap"
)

// Exit codes, matching spec.md §9's BadArguments/NotFound/Full
// distinctions (the original source only distinguished success from
// generic failure; this reimplementation enriches that per
// SPEC_FULL.md's supplemented-features allowance).
const (
	exitOK           = 0
	exitNotFound     = 1
	exitCapacityFull = 2
	exitBadArguments = 3
	exitInternalError = 4
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, extra, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, "kwirksearch:", err)
		return exitBadArguments
	}
	if len(extra) > 1 {
		fmt.Fprintln(stderr, "kwirksearch: too many arguments")
		return exitBadArguments
	}
	if len(extra) == 1 {
		v, err := strconv.ParseInt(extra[0], 10, 32)
		if err != nil {
			fmt.Fprintln(stderr, "kwirksearch: invalid maxFrames:", err)
			return exitBadArguments
		}
		cfg.MaxFrames = int32(v)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, "kwirksearch:", err)
		return exitBadArguments
	}

	kern := demoKernel()
	logger.Info().
		Int("level", kern.Level()).
		Str("search", string(cfg.Search)).
		Str("cache", string(cfg.Cache)).
		Str("swap", string(cfg.Swap)).
		Int32("max_frames", cfg.MaxFrames).
		Uint32("max_nodes", cfg.MaxNodes).
		Int("threads", cfg.Threads).
		Msg("starting search")

	layout := node.LayoutBFS
	if cfg.Search == config.SearchDFS {
		layout = node.LayoutDFS
	}
	// Both drivers open the store with RewriteOnImprovement (DESIGN.md,
	// Node Store Open Question decision): spec.md §4.4c keeps the
	// rewrite path available to BFS too, even though it should be dead
	// under BFS's monotone frame advance.
	rewrite := store.RewriteOnImprovement

	stateSize := len(kern.Initial().Bytes())
	recordSize := node.RecordSize(layout, stateSize)

	dev, err := openDevice(cfg, recordSize)
	if err != nil {
		fmt.Fprintln(stderr, "kwirksearch:", err)
		return exitInternalError
	}
	defer dev.Close()

	c, err := openCache(cfg, dev, layout)
	if err != nil {
		fmt.Fprintln(stderr, "kwirksearch:", err)
		return exitInternalError
	}

	st := store.New(c, kern, store.Config{
		Capacity: cfg.MaxNodes,
		Layout:   layout,
		Rewrite:  rewrite,
	})

	start := time.Now()
	var res search.Result
	if cfg.Search == config.SearchDFS {
		res, err = search.RunDFS(context.Background(), st, kern, search.DFSConfig{MaxFrames: cfg.MaxFrames, Workers: cfg.Threads})
	} else {
		res, err = search.RunBFS(context.Background(), st, kern, search.BFSConfig{MaxFrames: cfg.MaxFrames, Workers: cfg.Threads})
	}
	elapsed := time.Since(start)

	if cfg.DumpNodes {
		if dumpErr := dumpNodes(st, kern, layout); dumpErr != nil {
			logger.Error().Err(dumpErr).Msg("node dump failed")
		}
	}

	if err != nil {
		if errors.Is(err, search.ErrNotFound) {
			logger.Warn().Dur("elapsed", elapsed).Msg("no solution within frame budget")
			return exitNotFound
		}
		if errors.Is(err, store.ErrFull) {
			logger.Error().Dur("elapsed", elapsed).Msg("node store exhausted")
			return exitCapacityFull
		}
		logger.Error().Err(err).Dur("elapsed", elapsed).Msg("search failed")
		return exitInternalError
	}

	path, err := pathrecon.Reconstruct(st, kern, res.Goal)
	if err != nil {
		logger.Error().Err(err).Msg("path reconstruction failed")
		return exitInternalError
	}

	logger.Info().
		Int32("goal_frame", res.Frame).
		Int("moves", len(path.Moves)).
		Uint64("nodes_created", res.Stats.NodesCreated).
		Uint64("bfs_rewrites", res.Stats.BFSRewrites).
		Dur("elapsed", elapsed).
		Msg("solved")
	return exitOK
}

// parseFlags builds a config.Config from defaults plus the CLI's
// additive flags (SPEC_FULL.md CLI surface), grounded in
// calvinalkan-agent-task/internal/cli's per-command
// flag.NewFlagSet(name, flag.ContinueOnError) convention.
func parseFlags(args []string) (config.Config, []string, error) {
	cfg := config.Default()
	fs := flag.NewFlagSet("kwirksearch", flag.ContinueOnError)

	threads := fs.Int("threads", cfg.Threads, "number of worker goroutines")
	maxNodes := fs.Uint32("max-nodes", cfg.MaxNodes, "node store capacity")
	searchMode := fs.String("search", string(cfg.Search), "search driver: bfs|dfs")
	cacheMode := fs.String("cache", string(cfg.Cache), "cache policy: hashtable|splay|none")
	swapMode := fs.String("swap", string(cfg.Swap), "swap backend: ram|file|mmap")
	swapPath := fs.String("swap-path", "", "path for file/mmap swap backends")
	dumpNodes := fs.Bool("dump-nodes", false, "write nodes-<LEVEL>.bin after the search")

	if err := fs.Parse(args); err != nil {
		return config.Config{}, nil, err
	}

	cfg.Threads = *threads
	cfg.MaxNodes = *maxNodes
	cfg.Search = config.SearchMode(*searchMode)
	cfg.Cache = config.CacheMode(*cacheMode)
	cfg.Swap = config.SwapMode(*swapMode)
	cfg.SwapPath = *swapPath
	cfg.DumpNodes = *dumpNodes

	return cfg, fs.Args(), nil
}

func openDevice(cfg config.Config, recordSize int) (swap.Device, error) {
	switch cfg.Swap {
	case config.SwapFile:
		return swap.OpenFile(cfg.SwapPath, cfg.MaxNodes, recordSize)
	case config.SwapMmap:
		return swap.OpenMmap(cfg.SwapPath, cfg.MaxNodes, recordSize)
	default:
		return swap.NewRAM(cfg.MaxNodes, recordSize), nil
	}
}

func openCache(cfg config.Config, dev swap.Device, layout node.Layout) (cache.Cache, error) {
	capacity := cfg.CacheCapacity
	if capacity <= 0 {
		capacity = int(cache.ClampCapacity(int(cfg.MaxNodes)/4, cfg.Threads, int(cfg.MaxNodes)))
	}
	if cfg.Cache == config.CacheNone {
		// "none" still needs a Cache to sit in front of the swap
		// device (store.Store always talks to one); size it to the
		// full node-store capacity so eviction never actually triggers
		// in practice, matching the original's no-swap build mode.
		capacity = int(cfg.MaxNodes)
	}
	switch cfg.Cache {
	case config.CacheSplay:
		return cache.NewSplay(dev, layout, capacity), nil
	default:
		htCfg := cache.FromCapacity(capacity)
		return cache.NewHashtable(dev, layout, htCfg)
	}
}

// demoKernel builds the bundled reference puzzle (internal/kernel/miniblock)
// used to exercise the engine end to end; a real deployment swaps this
// for a genuine Kwirk level loader (the documented external-collaborator
// seam, SPEC_FULL.md Puzzle Kernel Interface).
func demoKernel() kernel.Kernel {
	return miniblock.New(1, []string{
		"########",
		"#@  $ .#",
		"#      #",
		"########",
	})
}

// dumpNodes writes every allocated node record (indices 1..count-1) to
// nodes-<LEVEL>.bin, atomically (SPEC_FULL.md, Persisted state / node
// dump), grounded in calvinalkan-agent-task's direct dependency on
// github.com/natefinch/atomic for whole-file-or-nothing writes.
func dumpNodes(st *store.Store, kern kernel.Kernel, layout node.Layout) error {
	count := st.Count()
	var buf []byte
	for i := node.NodeIndex(1); i < count; i++ {
		h, err := st.Get(i)
		if err != nil {
			return fmt.Errorf("dump: get node %d: %w", i, err)
		}
		recordSize := node.RecordSize(layout, len(h.Ref().State))
		rec := make([]byte, recordSize)
		h.Ref().Encode(layout, rec)
		st.Release(h)
		buf = append(buf, rec...)
	}
	name := fmt.Sprintf("nodes-%d.bin", kern.Level())
	return atomicfile.WriteFile(name, bytes.NewReader(buf))
}
