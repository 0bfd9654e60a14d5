// Package swap implements the fixed-capacity append-mostly node archive
// that backs the cache (SPEC_FULL.md, Swap Device). Three interchangeable
// backends share one on-disk record format; callers address records by
// dense NodeIndex and never iterate.
package swap

import "errors"

// ErrOutOfRange is a programming error: the caller addressed an index
// outside [0, capacity).
var ErrOutOfRange = errors.New("swap: index out of range")

// ErrIOFailed wraps an underlying I/O failure from a file-backed or
// mmap-backed device (spec.md §7, SwapIOError).
var ErrIOFailed = errors.New("swap: io failed")

// ErrCorrupt indicates a record's CRC32-C trailer did not match its
// payload — the on-disk analogue of node-store corruption.
var ErrCorrupt = errors.New("swap: record corrupt")

// Device is the narrow contract the cache's eviction path and the node
// store's cold-path reads consume. Implementations must be safe for
// concurrent Read/Write on distinct indices; a backend that cannot
// guarantee that must serialize internally.
type Device interface {
	// Read copies record i into out, which must have length RecordSize().
	Read(i uint32, out []byte) error
	// Write persists record i from in, which must have length RecordSize().
	Write(i uint32, in []byte) error
	// RecordSize is the fixed payload size in bytes, excluding the
	// device's own CRC trailer.
	RecordSize() int
	// Capacity is the fixed number of addressable records.
	Capacity() uint32
	// Close releases any underlying resources (files, mappings).
	Close() error
}
