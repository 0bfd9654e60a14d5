package swap

import (
	"fmt"
	"os"
	"sync"
)

// File is a direct-I/O swap device: every Read/Write is a positioned
// os.File.ReadAt/WriteAt call, grounded in the original source's
// swap_file_posix.cpp backend. Concurrent Read/Write on distinct indices
// is safe (the kernel guarantees non-overlapping pread/pwrite do not
// race); a single mutex only serializes Close.
type File struct {
	f          *os.File
	recordSize int
	capacity   uint32
	mu         sync.Mutex
}

// OpenFile creates (or truncates) a file-backed swap device sized for
// capacity records of recordSize bytes, writing the shared header.
func OpenFile(path string, capacity uint32, recordSize int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailed, err)
	}
	totalSize := headerSize + int64(capacity)*strideSize(recordSize)
	if err := f.Truncate(totalSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrIOFailed, err)
	}
	hdr := encodeHeader(header{recordSize: uint32(recordSize), capacity: capacity})
	if _, err := f.WriteAt(hdr, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrIOFailed, err)
	}
	return &File{f: f, recordSize: recordSize, capacity: capacity}, nil
}

func (d *File) RecordSize() int  { return d.recordSize }
func (d *File) Capacity() uint32 { return d.capacity }

func (d *File) Read(i uint32, out []byte) error {
	if i >= d.capacity {
		return fmt.Errorf("%w: index %d capacity %d", ErrOutOfRange, i, d.capacity)
	}
	buf := make([]byte, strideSize(d.recordSize))
	if _, err := d.f.ReadAt(buf, recordOffset(i, d.recordSize)); err != nil {
		if err2 := d.retryRead(i, buf); err2 != nil {
			return fmt.Errorf("%w: %v", ErrIOFailed, err2)
		}
	}
	return decodeRecord(out, buf)
}

func (d *File) retryRead(i uint32, buf []byte) error {
	_, err := d.f.ReadAt(buf, recordOffset(i, d.recordSize))
	return err
}

func (d *File) Write(i uint32, in []byte) error {
	if i >= d.capacity {
		return fmt.Errorf("%w: index %d capacity %d", ErrOutOfRange, i, d.capacity)
	}
	buf := make([]byte, strideSize(d.recordSize))
	encodeRecord(buf, in)
	if _, err := d.f.WriteAt(buf, recordOffset(i, d.recordSize)); err != nil {
		if _, err2 := d.f.WriteAt(buf, recordOffset(i, d.recordSize)); err2 != nil {
			return fmt.Errorf("%w: %v", ErrIOFailed, err2)
		}
	}
	return nil
}

func (d *File) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.f.Close()
}
