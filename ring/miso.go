package ring

import (
	"sync/atomic"

	"github.com/swiftlog/swiftlog/errs"
)

// MISOBuffer is the multi-producer/single-consumer ring buffer variant.
// Producers CAS-reserve a cursor range, write into their reserved blocks
// concurrently, then publish a per-chunk visibility marker; the consumer
// walks from its reading cursor and stops at the first unpublished chunk,
// so chunks are consumed in reservation order: a chunk committed early is
// not visible until every chunk reserved before it has been committed.
type MISOBuffer struct {
	blockCount uint32
	mask       uint32
	blocks     []byte

	writingCursor atomic.Uint32
	_             [60]byte
	readingCursor atomic.Uint32
	_             [60]byte

	// published[i] is set once the chunk starting at block i has been
	// fully written and is safe for the consumer to read.
	published []atomic.Uint32

	rtReadingCursor      uint32
	rtWritingCursorCache uint32
}

// NewMISOBuffer creates a MISOBuffer with blockCount blocks (rounded up to
// the next power of two).
func NewMISOBuffer(blockCount uint32) *MISOBuffer {
	bc := nextPowerOfTwo(blockCount)

	return &MISOBuffer{
		blockCount: bc,
		mask:       bc - 1,
		blocks:     make([]byte, bc*BlockSize),
		published:  make([]atomic.Uint32, bc),
	}
}

// BlockCount reports the number of blocks backing the buffer.
func (b *MISOBuffer) BlockCount() uint32 { return b.blockCount }

// AllocWriteChunk reserves size bytes of payload space for the calling
// producer goroutine. Safe for concurrent use by multiple producers.
func (b *MISOBuffer) AllocWriteChunk(size int) (WriteHandle, error) {
	if size < 0 {
		return WriteHandle{}, errs.ErrAllocSizeInvalid
	}

	for {
		cur := b.writingCursor.Load()
		pos := cur & b.mask
		tailToEnd := b.blockCount - pos
		contiguousNeed := neededBlocks(size)

		var startBlock uint32
		var totalBlocks uint32
		var split bool

		if tailToEnd >= contiguousNeed {
			startBlock = pos
			totalBlocks = contiguousNeed
		} else {
			totalBlocks = contiguousNeed + tailToEnd
			if contiguousNeed > b.blockCount {
				return WriteHandle{}, errs.ErrAllocSizeInvalid
			}

			startBlock = 0
			split = true
		}

		reading := b.readingCursor.Load()
		left := (reading - cur) + b.blockCount
		if left < totalBlocks {
			return WriteHandle{}, errs.ErrNotEnoughSpace
		}

		if !b.writingCursor.CompareAndSwap(cur, cur+totalBlocks) {
			continue
		}

		headerStart := int(startBlock) * BlockSize
		header := chunkHeader{blockNum: totalBlocks, dataSize: uint32(size)}
		if split {
			header.blockNum |= splitBit
		}

		// The visibility marker and the header the consumer reads both sit
		// at the cursor's block; a split chunk also carries a copy of the
		// header at blocks[0:], directly ahead of its payload.
		b.published[pos].Store(0)
		encodeChunkHeader(b.blocks[headerStart:headerStart+HeaderSize], header)
		if split {
			tailStart := int(pos) * BlockSize
			encodeChunkHeader(b.blocks[tailStart:tailStart+HeaderSize], header)
		}

		dataStart := headerStart + HeaderSize
		data := b.blocks[dataStart : dataStart+size : dataStart+size]

		return WriteHandle{Data: data, blockNum: totalBlocks, startBlock: pos}, nil
	}
}

// CommitWriteChunk publishes a visibility marker for the chunk, making it
// observable to the consumer. Chunks from different producers may commit
// in a different order than they were reserved, but the consumer still
// reads them in reservation order, waiting at any reserved chunk that is
// not yet committed; per-producer order is preserved.
func (b *MISOBuffer) CommitWriteChunk(h WriteHandle) {
	b.published[h.startBlock].Store(1)
}

// ReadChunk returns the oldest published, unreturned chunk, or
// ErrEmptyBuffer if none is available yet (either nothing has been
// committed, or the next chunk in line is reserved but not yet published).
func (b *MISOBuffer) ReadChunk() (ReadHandle, error) {
	left := cursorDistance(b.rtReadingCursor, b.rtWritingCursorCache)
	if left == 0 {
		b.rtWritingCursorCache = b.writingCursor.Load()
		left = cursorDistance(b.rtReadingCursor, b.rtWritingCursorCache)
		if left == 0 {
			return ReadHandle{}, errs.ErrEmptyBuffer
		}
	}

	pos := b.rtReadingCursor & b.mask
	if b.published[pos].Load() == 0 {
		return ReadHandle{}, errs.ErrEmptyBuffer
	}

	header := decodeChunkHeader(b.blocks[pos*BlockSize : pos*BlockSize+HeaderSize])
	blockNum := header.blockNum
	split := blockNum&splitBit != 0
	blockNum &^= splitBit

	var dataStart uint32
	if split {
		dataStart = HeaderSize
	} else {
		dataStart = pos*BlockSize + HeaderSize
	}

	data := b.blocks[dataStart : dataStart+header.dataSize : dataStart+header.dataSize]

	return ReadHandle{Data: data, blockNum: blockNum}, nil
}

// ReturnReadChunk advances the reading cursor past a chunk returned by
// ReadChunk and clears its visibility marker for reuse.
func (b *MISOBuffer) ReturnReadChunk(h ReadHandle) {
	pos := b.rtReadingCursor & b.mask
	b.published[pos].Store(0)

	b.rtReadingCursor += h.blockNum
	b.readingCursor.Store(b.rtReadingCursor)
}
