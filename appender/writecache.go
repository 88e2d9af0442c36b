package appender

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/swiftlog/swiftlog/errs"
)

// recoveryHeadFixedSize is the byte size of recoveryHead's fields before the
// variable-length file path: write_cache_size(8) + cache_write_finished_cursor(8)
// + cache_write_alignment_offset(1) + file_path_size(4).
const recoveryHeadFixedSize = 8 + 8 + 1 + 4

const recoveryAlignment = 32

func align32(n int) int { return (n + recoveryAlignment - 1) &^ (recoveryAlignment - 1) }

// recoveryHead is the mmap scratch file's header: enough to tell a
// WriteCache, on reopen, how much of the payload region holds bytes that
// were never flushed to the real log file before a crash.
type recoveryHead struct {
	writeCacheSize            uint64
	cacheWriteFinishedCursor  uint64
	cacheWriteAlignmentOffset uint8
	filePath                  string
}

func (h recoveryHead) headerSize() int {
	return align32(recoveryHeadFixedSize + len(h.filePath))
}

func (h recoveryHead) putBytes(dst []byte) {
	binary.LittleEndian.PutUint64(dst[0:8], h.writeCacheSize)
	binary.LittleEndian.PutUint64(dst[8:16], h.cacheWriteFinishedCursor)
	dst[16] = h.cacheWriteAlignmentOffset
	binary.LittleEndian.PutUint32(dst[17:21], uint32(len(h.filePath)))
	copy(dst[21:], h.filePath)
}

func parseRecoveryHead(src []byte) (recoveryHead, error) {
	if len(src) < recoveryHeadFixedSize {
		return recoveryHead{}, errs.ErrRecoveryCorrupt
	}

	h := recoveryHead{
		writeCacheSize:           binary.LittleEndian.Uint64(src[0:8]),
		cacheWriteFinishedCursor: binary.LittleEndian.Uint64(src[8:16]),
	}
	alignmentOffset := src[16]
	pathSize := binary.LittleEndian.Uint32(src[17:21])

	if recoveryHeadFixedSize+int(pathSize) > len(src) {
		return recoveryHead{}, errs.ErrRecoveryCorrupt
	}

	h.cacheWriteAlignmentOffset = alignmentOffset
	h.filePath = string(src[21 : 21+int(pathSize)])

	if int(h.cacheWriteAlignmentOffset) >= h.headerSize() {
		return recoveryHead{}, errs.ErrRecoveryCorrupt
	}

	return h, nil
}

// writeCache is a contiguous mmap-backed buffer laid out as
// [recoveryHead][padding][payload...]. AllocWriteCache hands the producer
// (the appender goroutine; there's only ever one writer per appender) a
// slice inside the payload region; ReturnWriteCache advances the logical
// cursor; MarkWriteFinished publishes that cursor into the mmap head so a
// restart can tell exactly how many payload bytes survived a crash.
type writeCache struct {
	path string
	file *os.File
	data []byte

	payloadOffset int
	cursor        uint64 // bytes of payload finished (published) so far
	pending       uint64 // bytes allocated since the last ReturnWriteCache
}

// openWriteCache opens (or creates) the mmap scratch file at path, sized to
// back a destination file at filePath. If a prior scratch file exists and
// is internally consistent, its state (and any un-flushed payload bytes) is
// recovered; the caller is told via recovered so it can emit "recovery
// begin/end" markers around the replayed bytes.
func openWriteCache(path, filePath string, initialSize int) (wc *writeCache, recovered bool, err error) {
	if info, statErr := os.Stat(path); statErr == nil && info.Size() >= recoveryHeadFixedSize {
		wc, err := reopenWriteCache(path, filePath, int(info.Size()))
		if err == nil {
			return wc, true, nil
		}
		// Fall through to a fresh scratch file if recovery was inconsistent.
	}

	wc, err = createWriteCache(path, filePath, initialSize)
	return wc, false, err
}

func createWriteCache(path, filePath string, initialSize int) (*writeCache, error) {
	head := recoveryHead{filePath: filePath}
	headerSize := head.headerSize()
	total := headerSize + initialSize

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("appender: create mmap scratch: %w", err)
	}

	if err := f.Truncate(int64(total)); err != nil {
		f.Close()
		return nil, fmt.Errorf("appender: size mmap scratch: %w", err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("appender: mmap scratch: %w", err)
	}

	head.writeCacheSize = uint64(initialSize)
	head.putBytes(data[:headerSize])

	return &writeCache{path: path, file: f, data: data, payloadOffset: headerSize}, nil
}

func reopenWriteCache(path, filePath string, size int) (*writeCache, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("appender: reopen mmap scratch: %w", err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("appender: mmap scratch: %w", err)
	}

	head, err := parseRecoveryHead(data)
	if err != nil {
		unix.Munmap(data)
		f.Close()
		return nil, err
	}

	headerSize := head.headerSize()
	if headerSize+int(head.writeCacheSize) != size || head.filePath != filePath {
		unix.Munmap(data)
		f.Close()
		return nil, errs.ErrRecoveryCorrupt
	}

	if _, statErr := os.Stat(filePath); statErr != nil {
		unix.Munmap(data)
		f.Close()
		return nil, errs.ErrFileNotFound
	}

	return &writeCache{
		path: path, file: f, data: data,
		payloadOffset: headerSize, cursor: head.cacheWriteFinishedCursor,
	}, nil
}

// allocWriteCache returns a slice of size bytes inside the payload region,
// growing the backing mmap (doubling until the request fits) if the
// unflushed portion doesn't have room. The caller must ReturnWriteCache
// before the next Alloc.
func (wc *writeCache) allocWriteCache(size int) ([]byte, error) {
	capacity := len(wc.data) - wc.payloadOffset
	for int(wc.cursor)+size > capacity {
		if err := wc.grow(); err != nil {
			return nil, err
		}
		capacity = len(wc.data) - wc.payloadOffset
	}

	start := wc.payloadOffset + int(wc.cursor)
	wc.pending = uint64(size)

	return wc.data[start : start+size], nil
}

func (wc *writeCache) grow() error {
	newTotal := len(wc.data) * 2
	if newTotal == 0 {
		newTotal = recoveryHeadFixedSize + 4096
	}

	if err := unix.Munmap(wc.data); err != nil {
		return fmt.Errorf("appender: unmap scratch for growth: %w", err)
	}
	if err := wc.file.Truncate(int64(newTotal)); err != nil {
		return fmt.Errorf("appender: grow scratch: %w", err)
	}

	data, err := unix.Mmap(int(wc.file.Fd()), 0, newTotal, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("appender: remap grown scratch: %w", err)
	}
	wc.data = data

	head, err := parseRecoveryHead(wc.data)
	if err != nil {
		return err
	}
	head.writeCacheSize = uint64(newTotal - wc.payloadOffset)
	head.putBytes(wc.data[:wc.payloadOffset])

	return nil
}

// returnWriteCache advances the logical cursor by usedLen (<= the last
// allocWriteCache's size).
func (wc *writeCache) returnWriteCache(usedLen int) {
	wc.cursor += uint64(usedLen)
	wc.pending = 0
}

// markWriteFinished publishes the current cursor into the mmap head: the
// durable watermark a restart replays from.
func (wc *writeCache) markWriteFinished() {
	head, _ := parseRecoveryHead(wc.data)
	head.cacheWriteFinishedCursor = wc.cursor
	head.putBytes(wc.data[:wc.payloadOffset])
	_ = unix.Msync(wc.data[:wc.payloadOffset], unix.MS_ASYNC)
}

// pendingBytes returns the payload bytes published (ReturnWriteCache'd) so
// far but not yet reset by resetCursor — what FileBase flushes to the real
// file.
func (wc *writeCache) pendingBytes() []byte {
	return wc.data[wc.payloadOffset : wc.payloadOffset+int(wc.cursor)]
}

// resetCursor is called after the pending bytes have been durably written
// to the destination file.
func (wc *writeCache) resetCursor() {
	wc.cursor = 0
	wc.markWriteFinished()
}

func (wc *writeCache) close() error {
	if wc.data != nil {
		_ = unix.Munmap(wc.data)
		wc.data = nil
	}

	return wc.file.Close()
}
