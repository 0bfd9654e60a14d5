package cache

import "errors"

// ErrPinnedCapacity is returned when every slot eligible for eviction is
// pinned and the cache cannot make room for a new or loaded record.
// Under the node store's partition locking this should not happen in
// practice (at most one goroutine per partition ever pins concurrently
// more than a small bounded number of slots), but it is surfaced rather
// than deadlocking.
var ErrPinnedCapacity = errors.New("cache: no evictable slot, all pinned")
