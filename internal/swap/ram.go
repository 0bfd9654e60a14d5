package swap

import "fmt"

// RAM is a slice-backed swap device used for tests and for the SWAP_RAM
// build mode in the original source (swap_ram.cpp): no real persistence,
// same contract as the file/mmap backends, grounded in cloxcache's plain
// slice-of-shards storage pattern.
type RAM struct {
	recordSize int
	records    [][]byte
}

// NewRAM allocates a RAM-backed device with the given capacity and
// per-record payload size.
func NewRAM(capacity uint32, recordSize int) *RAM {
	records := make([][]byte, capacity)
	for i := range records {
		records[i] = make([]byte, recordSize)
	}
	return &RAM{recordSize: recordSize, records: records}
}

func (d *RAM) RecordSize() int  { return d.recordSize }
func (d *RAM) Capacity() uint32 { return uint32(len(d.records)) }

func (d *RAM) Read(i uint32, out []byte) error {
	if i >= uint32(len(d.records)) {
		return fmt.Errorf("%w: index %d capacity %d", ErrOutOfRange, i, len(d.records))
	}
	if len(out) != d.recordSize {
		return fmt.Errorf("%w: buffer length %d, want %d", ErrOutOfRange, len(out), d.recordSize)
	}
	copy(out, d.records[i])
	return nil
}

func (d *RAM) Write(i uint32, in []byte) error {
	if i >= uint32(len(d.records)) {
		return fmt.Errorf("%w: index %d capacity %d", ErrOutOfRange, i, len(d.records))
	}
	if len(in) != d.recordSize {
		return fmt.Errorf("%w: buffer length %d, want %d", ErrOutOfRange, len(in), d.recordSize)
	}
	copy(d.records[i], in)
	return nil
}

func (d *RAM) Close() error { return nil }
