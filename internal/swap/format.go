package swap

import (
	"encoding/binary"
	"hash/crc32"
)

// File header layout, grounded in pkg/slotcache/format.go's magic+version+
// CRC header convention. A 32-byte fixed header precedes the flat record
// array; each record is followed by a 4-byte CRC32-C (Castagnoli) trailer
// so a torn or corrupted write is detected on read rather than silently
// replayed into the search.
const (
	magic      = "KWND"
	formatVersion = 1
	headerSize = 32

	offMagic      = 0
	offVersion    = 4
	offRecordSize = 8
	offCapacity   = 12
	// bytes 16..31 reserved, zero.
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

type header struct {
	recordSize uint32
	capacity   uint32
}

func encodeHeader(h header) []byte {
	buf := make([]byte, headerSize)
	copy(buf[offMagic:], magic)
	binary.LittleEndian.PutUint32(buf[offVersion:], formatVersion)
	binary.LittleEndian.PutUint32(buf[offRecordSize:], h.recordSize)
	binary.LittleEndian.PutUint32(buf[offCapacity:], h.capacity)
	return buf
}

func decodeHeader(buf []byte) (header, error) {
	if len(buf) < headerSize || string(buf[offMagic:offMagic+4]) != magic {
		return header{}, ErrCorrupt
	}
	if binary.LittleEndian.Uint32(buf[offVersion:]) != formatVersion {
		return header{}, ErrCorrupt
	}
	return header{
		recordSize: binary.LittleEndian.Uint32(buf[offRecordSize:]),
		capacity:   binary.LittleEndian.Uint32(buf[offCapacity:]),
	}, nil
}

// strideSize is the on-disk footprint of one record: payload plus its
// CRC32-C trailer.
func strideSize(recordSize int) int64 { return int64(recordSize) + 4 }

func recordOffset(i uint32, recordSize int) int64 {
	return headerSize + int64(i)*strideSize(recordSize)
}

// encodeRecord appends a CRC32-C trailer to payload, writing into dst
// (which must have length len(payload)+4).
func encodeRecord(dst, payload []byte) {
	copy(dst, payload)
	crc := crc32.Checksum(payload, crcTable)
	binary.LittleEndian.PutUint32(dst[len(payload):], crc)
}

// decodeRecord validates src's trailer and copies the payload into out
// (length len(src)-4). A record that was never written is all zero
// bytes, trailer included, and reads back as a zero payload, as on the
// RAM backend. Returns ErrCorrupt on any other mismatch.
func decodeRecord(out, src []byte) error {
	payload := src[:len(src)-4]
	wantCRC := binary.LittleEndian.Uint32(src[len(payload):])
	if wantCRC == 0 {
		untouched := true
		for _, b := range payload {
			if b != 0 {
				untouched = false
				break
			}
		}
		if untouched {
			copy(out, payload)
			return nil
		}
	}
	if crc32.Checksum(payload, crcTable) != wantCRC {
		return ErrCorrupt
	}
	copy(out, payload)
	return nil
}
