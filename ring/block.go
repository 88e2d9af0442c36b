// Package ring implements the lock-free chunk transports that move encoded
// log records from producer threads to the single consumer worker: a
// single-producer/single-consumer variant (Buffer) and a
// multi-producer/single-consumer variant (MISOBuffer).
package ring

import "encoding/binary"

// BlockSize is the fixed storage granularity of the ring buffer, one cache
// sub-line. All allocations round up to a whole number of blocks.
const BlockSize = 32

// HeaderSize is the size in bytes of the chunk header stored in the first
// block of every chunk.
const HeaderSize = 8

// FirstBlockPayload is the number of payload bytes available in a chunk's
// first block once the header is accounted for.
const FirstBlockPayload = BlockSize - HeaderSize

// byteOrder is the wire order of the chunk header fields. The header is a
// ring-internal bookkeeping structure, never exposed across process
// boundaries, so a fixed order (rather than the pluggable endian.EndianEngine
// used by the record format) is sufficient.
var byteOrder = binary.LittleEndian

// neededBlocks returns the number of whole blocks required to store size
// payload bytes plus the chunk header.
func neededBlocks(size int) uint32 {
	if size <= FirstBlockPayload {
		return 1
	}

	remaining := size - FirstBlockPayload
	extra := (remaining + BlockSize - 1) / BlockSize

	return uint32(1 + extra)
}

// chunkHeader is the 8-byte header written into the first block of a chunk.
type chunkHeader struct {
	blockNum uint32
	dataSize uint32
}

func encodeChunkHeader(dst []byte, h chunkHeader) {
	byteOrder.PutUint32(dst[0:4], h.blockNum)
	byteOrder.PutUint32(dst[4:8], h.dataSize)
}

func decodeChunkHeader(src []byte) chunkHeader {
	return chunkHeader{
		blockNum: byteOrder.Uint32(src[0:4]),
		dataSize: byteOrder.Uint32(src[4:8]),
	}
}

// cursorDistance returns b-a interpreted as a forward distance modulo 2^32,
// i.e. how many blocks b is ahead of a on the wrapping cursor space.
func cursorDistance(a, b uint32) uint32 {
	return b - a
}
