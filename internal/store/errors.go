package store

import "errors"

// Sentinel error classification, grounded in pkg/slotcache/errors.go's
// errors.New-plus-errors.Is convention rather than bespoke error types.
var (
	// ErrFull is returned when nodeCount would exceed the static
	// capacity (spec.md §4.3, CapacityExceeded).
	ErrFull = errors.New("store: full")
	// ErrSwapIO wraps a swap-device failure surfaced through the store.
	ErrSwapIO = errors.New("store: swap io failed")
	// ErrIllegalReplay wraps kernel.ErrIllegalMove when path
	// reconstruction's forward replay rejects a recorded step, meaning
	// the stored parent/step chain does not reproduce a legal move
	// sequence.
	ErrIllegalReplay = errors.New("store: illegal move on path replay")
)
