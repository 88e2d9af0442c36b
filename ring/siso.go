package ring

import (
	"runtime"
	"sync/atomic"

	"github.com/swiftlog/swiftlog/errs"
)

// Policy selects what a SISO Buffer does when a producer's alloc_write_chunk
// finds insufficient space.
type Policy uint8

const (
	// PolicyDiscard drops the entry; the producer observes ErrNotEnoughSpace
	// and moves on.
	PolicyDiscard Policy = iota
	// PolicyBlock spin-retries (with a brief relax) until space appears.
	PolicyBlock
	// PolicyExpand atomically installs a new, double-size backing array,
	// draining the old one first.
	PolicyExpand
)

// splitBit marks a chunk header's blockNum as describing a split (wrapped)
// chunk: the low bits carry the true block span, the payload itself starts
// at block 0 rather than at the block the cursor pointed to.
const splitBit = uint32(1) << 31

// WriteHandle is returned by AllocWriteChunk. Callers fill Data then pass the
// handle to CommitWriteChunk.
type WriteHandle struct {
	Data       []byte
	blockNum   uint32
	startBlock uint32
}

// ReadHandle is returned by ReadChunk. Callers consume Data then pass the
// handle to ReturnReadChunk.
type ReadHandle struct {
	Data     []byte
	blockNum uint32
}

// Buffer is a lock-free single-producer/single-consumer chunk queue backed
// by a fixed array of BlockSize blocks. The fast path (AllocWriteChunk /
// ReadChunk) uses only atomic loads/stores with acquire/release ordering on
// the shared cursors; cursor caches are local to their owning side and need
// no synchronization.
type Buffer struct {
	policy Policy

	blockCount uint32
	mask       uint32
	blocks     []byte

	// Shared cursors: writingCursor is published by the producer and
	// acquire-loaded by the consumer; readingCursor is published by the
	// consumer and acquire-loaded by the producer. Kept on separate cache
	// lines via padding to avoid false sharing.
	writingCursor atomic.Uint32
	_             [60]byte
	readingCursor atomic.Uint32
	_             [60]byte

	// Producer-local cache of the consumer's cursor; refreshed only when
	// the cached value suggests insufficient space.
	wtWritingCursor      uint32
	wtReadingCursorCache uint32

	// Consumer-local cache of the producer's cursor.
	rtReadingCursor      uint32
	rtWritingCursorCache uint32

	lowSpace atomic.Bool
}

// NewBuffer creates a Buffer with blockCount blocks (rounded up to the next
// power of two) and the given full-buffer policy.
func NewBuffer(blockCount uint32, policy Policy) *Buffer {
	bc := nextPowerOfTwo(blockCount)

	return &Buffer{
		policy:     policy,
		blockCount: bc,
		mask:       bc - 1,
		blocks:     make([]byte, bc*BlockSize),
	}
}

func nextPowerOfTwo(n uint32) uint32 {
	if n == 0 {
		return 1
	}

	p := uint32(1)
	for p < n {
		p <<= 1
	}

	return p
}

// BlockCount reports the current number of blocks backing the buffer.
func (b *Buffer) BlockCount() uint32 { return b.blockCount }

// IsLowSpace reports whether the buffer was at least half full as of the
// most recent allocation.
func (b *Buffer) IsLowSpace() bool { return b.lowSpace.Load() }

// AllocWriteChunk reserves size bytes of payload space and returns a handle
// whose Data field is ready to be filled by the caller. Must be called only
// from the single producer goroutine.
func (b *Buffer) AllocWriteChunk(size int) (WriteHandle, error) {
	for {
		h, err := b.tryAlloc(size)
		if err == nil {
			return h, nil
		}

		if err != errs.ErrNotEnoughSpace {
			return WriteHandle{}, err
		}

		switch b.policy {
		case PolicyDiscard:
			return WriteHandle{}, err
		case PolicyBlock:
			runtime.Gosched()

			continue
		case PolicyExpand:
			if err := b.expand(); err != nil {
				return WriteHandle{}, err
			}

			continue
		default:
			return WriteHandle{}, err
		}
	}
}

func (b *Buffer) tryAlloc(size int) (WriteHandle, error) {
	if size < 0 {
		return WriteHandle{}, errs.ErrAllocSizeInvalid
	}

	pos := b.wtWritingCursor & b.mask
	tailToEnd := b.blockCount - pos

	contiguousNeed := neededBlocks(size)

	var startBlock uint32
	var totalBlocks uint32
	var split bool

	if tailToEnd >= contiguousNeed {
		startBlock = pos
		totalBlocks = contiguousNeed
	} else {
		// The skipped tail blocks are counted into the chunk's block span
		// (so the cursor wraps past them). The chunk header is written at
		// the cursor's block, where ReadChunk looks for it, and again at
		// blocks[0:], directly ahead of the payload.
		totalBlocks = contiguousNeed + tailToEnd
		if contiguousNeed > b.blockCount {
			return WriteHandle{}, errs.ErrAllocSizeInvalid
		}

		startBlock = 0
		split = true
	}

	left := cursorDistance(b.wtWritingCursor, b.wtReadingCursorCache) + b.blockCount
	if left < totalBlocks {
		b.wtReadingCursorCache = b.readingCursor.Load()
		left = cursorDistance(b.wtWritingCursor, b.wtReadingCursorCache) + b.blockCount
		if left < totalBlocks {
			return WriteHandle{}, errs.ErrNotEnoughSpace
		}
	}

	headerStart := int(startBlock) * BlockSize
	header := chunkHeader{blockNum: totalBlocks, dataSize: uint32(size)}
	if split {
		header.blockNum |= splitBit
	}

	encodeChunkHeader(b.blocks[headerStart:headerStart+HeaderSize], header)
	if split {
		tailStart := int(pos) * BlockSize
		encodeChunkHeader(b.blocks[tailStart:tailStart+HeaderSize], header)
	}

	dataStart := headerStart + HeaderSize
	data := b.blocks[dataStart : dataStart+size : dataStart+size]

	if left*2 < b.blockCount {
		b.lowSpace.Store(true)
	} else {
		b.lowSpace.Store(false)
	}

	return WriteHandle{Data: data, blockNum: totalBlocks, startBlock: startBlock}, nil
}

// CommitWriteChunk publishes a previously allocated chunk, making it visible
// to the consumer. Must be called in the same order the chunks were
// allocated.
func (b *Buffer) CommitWriteChunk(h WriteHandle) {
	b.wtWritingCursor += h.blockNum
	b.writingCursor.Store(b.wtWritingCursor)
}

// ReadChunk returns the oldest committed, unreturned chunk, or
// ErrEmptyBuffer if the producer has nothing pending. Must be called only
// from the single consumer goroutine.
func (b *Buffer) ReadChunk() (ReadHandle, error) {
	left := cursorDistance(b.rtReadingCursor, b.rtWritingCursorCache)
	if left == 0 {
		b.rtWritingCursorCache = b.writingCursor.Load()
		left = cursorDistance(b.rtReadingCursor, b.rtWritingCursorCache)
		if left == 0 {
			return ReadHandle{}, errs.ErrEmptyBuffer
		}
	}

	pos := b.rtReadingCursor & b.mask
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
// ReadChunk. Read handles must be returned in the order they were read.
func (b *Buffer) ReturnReadChunk(h ReadHandle) {
	b.rtReadingCursor += h.blockNum
	b.readingCursor.Store(b.rtReadingCursor)
}

// expand installs a new backing array of double the current block count,
// draining and re-enqueueing any pending committed chunks first. Only valid
// under PolicyExpand, called from the producer goroutine.
func (b *Buffer) expand() error {
	pending := make([][]byte, 0)

	for {
		rh, err := b.ReadChunk()
		if err != nil {
			break
		}

		cp := make([]byte, len(rh.Data))
		copy(cp, rh.Data)
		pending = append(pending, cp)
		b.ReturnReadChunk(rh)
	}

	newCount := b.blockCount * 2
	b.blocks = make([]byte, newCount*BlockSize)
	b.blockCount = newCount
	b.mask = newCount - 1

	b.writingCursor.Store(0)
	b.readingCursor.Store(0)
	b.wtWritingCursor = 0
	b.wtReadingCursorCache = 0
	b.rtReadingCursor = 0
	b.rtWritingCursorCache = 0

	for _, data := range pending {
		wh, err := b.tryAlloc(len(data))
		if err != nil {
			return err
		}

		copy(wh.Data, data)
		b.CommitWriteChunk(wh)
	}

	return nil
}
