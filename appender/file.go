package appender

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/swiftlog/swiftlog/compress"
	"github.com/swiftlog/swiftlog/internal/pool"
)

// FileBase provides the write-cache, rotation, retention, capacity, and
// mmap-backed crash recovery machinery shared by the text, raw, and
// compressed file appenders. Embedders own their wire format and call
// WriteBytes for each encoded record.
type FileBase struct {
	cfg     Config
	ext     string
	logName string

	file      *os.File
	fileIndex int
	fileSize  int64
	rollAt    int64 // next-midnight threshold in epoch ms; 0 disables

	cache *writeCache

	// OnRecoveryBegin/OnRecoveryEnd let a binary appender wrap replayed
	// bytes in a dedicated recovery segment; nil is a no-op (the text
	// appender has no segment structure to mark).
	OnRecoveryBegin func()
	OnRecoveryEnd   func()

	// OnBeforeRotate lets a binary appender backpatch its current segment's
	// trailer before the file is closed. OnRotated lets it write a fresh
	// file header and open a new segment in the file rotate() just opened.
	// Both nil is a no-op (the text appender has no segment structure).
	OnBeforeRotate func()
	OnRotated      func() error
}

// NewFileBase constructs a FileBase for the given log, writing files with
// extension ext (e.g. ".log", ".lograw", ".logcompr").
func NewFileBase(logName, ext string, cfg Config) *FileBase {
	return &FileBase{cfg: cfg, ext: ext, logName: logName}
}

func (fb *FileBase) Name() string { return fb.cfg.Name }

// Init opens (creating if needed) this appender's current file, replaying
// any mmap scratch bytes left behind by a prior crash.
func (fb *FileBase) Init() error {
	if err := os.MkdirAll(fb.cfg.BaseDir, 0o755); err != nil {
		return fmt.Errorf("appender: create base dir: %w", err)
	}

	fb.fileIndex = fb.nextFileIndex()
	filePath := fb.currentFilePath(time.Now())

	scratchPath := mmapScratchPath(fb.logName, fb.cfg.Name)
	if err := os.MkdirAll(filepath.Dir(scratchPath), 0o755); err != nil {
		return fmt.Errorf("appender: create mmap scratch dir: %w", err)
	}

	cache, recovered, err := openWriteCache(scratchPath, filePath, pool.CacheBufferDefaultSize)
	if err != nil {
		return err
	}
	fb.cache = cache

	f, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("appender: open log file: %w", err)
	}
	fb.file = f

	if info, statErr := f.Stat(); statErr == nil {
		fb.fileSize = info.Size()
	}

	if recovered && cache.cursor > 0 {
		if fb.OnRecoveryBegin != nil {
			fb.OnRecoveryBegin()
		}
		if _, err := f.Write(cache.pendingBytes()); err != nil {
			return fmt.Errorf("appender: replay recovered bytes: %w", err)
		}
		fb.fileSize += int64(cache.cursor)
		cache.resetCursor()
		if fb.OnRecoveryEnd != nil {
			fb.OnRecoveryEnd()
		}
	}

	if fb.cfg.EnableRollingLogFile {
		fb.rollAt = fb.cfg.Zone.NextMidnight(time.Now().UnixMilli())
	}

	return nil
}

// WriteBytes appends b to the current file via the mmap write cache,
// rotating first if epochMs or the current size crosses a rotation
// threshold.
func (fb *FileBase) WriteBytes(epochMs int64, b []byte) error {
	if err := fb.checkRotation(epochMs); err != nil {
		return err
	}

	dst, err := fb.cache.allocWriteCache(len(b))
	if err != nil {
		return err
	}
	copy(dst, b)
	fb.cache.returnWriteCache(len(b))
	fb.cache.markWriteFinished()
	fb.fileSize += int64(len(b))

	return nil
}

// FlushCache writes the cache's pending bytes to the OS and resets it.
func (fb *FileBase) FlushCache() error {
	pending := fb.cache.pendingBytes()
	if len(pending) == 0 {
		return nil
	}

	if _, err := fb.file.Write(pending); err != nil {
		return fmt.Errorf("appender: flush write cache: %w", err)
	}
	fb.cache.resetCursor()

	return nil
}

func (fb *FileBase) Close() error {
	if err := fb.FlushCache(); err != nil {
		return err
	}
	if err := fb.file.Close(); err != nil {
		return err
	}

	return fb.cache.close()
}

func (fb *FileBase) checkRotation(epochMs int64) error {
	sizeExceeded := fb.cfg.MaxFileSize > 0 && fb.fileSize >= fb.cfg.MaxFileSize
	timeExceeded := fb.rollAt > 0 && epochMs >= fb.rollAt

	if !sizeExceeded && !timeExceeded {
		return nil
	}

	return fb.rotate()
}

func (fb *FileBase) rotate() error {
	if fb.OnBeforeRotate != nil {
		fb.OnBeforeRotate()
	}

	if err := fb.FlushCache(); err != nil {
		return err
	}

	closedPath := fb.file.Name()
	if err := fb.file.Close(); err != nil {
		return fmt.Errorf("appender: close rotated file: %w", err)
	}

	if fb.cfg.RotationCompressor != nil {
		if err := fb.compressRotated(closedPath); err != nil {
			return err
		}
	}

	if err := fb.applyRetention(); err != nil {
		return err
	}
	if err := fb.applyCapacity(); err != nil {
		return err
	}

	fb.fileIndex++
	newPath := fb.currentFilePath(time.Now())

	f, err := os.OpenFile(newPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("appender: open rotated file: %w", err)
	}
	fb.file = f
	fb.fileSize = 0

	head, err := parseRecoveryHead(fb.cache.data)
	if err == nil {
		head.filePath = newPath
		head.cacheWriteFinishedCursor = 0
		head.putBytes(fb.cache.data[:fb.cache.payloadOffset])
	}

	if fb.cfg.EnableRollingLogFile {
		fb.rollAt = fb.cfg.Zone.NextMidnight(time.Now().UnixMilli())
	}

	if fb.OnRotated != nil {
		return fb.OnRotated()
	}

	return nil
}

func rotationSuffix(kind compress.Kind) string {
	switch kind {
	case compress.KindZstd:
		return ".zst"
	case compress.KindS2:
		return ".s2"
	case compress.KindLZ4:
		return ".lz4"
	default:
		return ".raw"
	}
}

func (fb *FileBase) compressRotated(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("appender: read rotated file for compression: %w", err)
	}

	compressed, err := fb.cfg.RotationCompressor.Compress(data)
	if err != nil {
		return fmt.Errorf("appender: compress rotated file: %w", err)
	}

	archivePath := path + rotationSuffix(fb.cfg.RotationCompressionKind)
	if err := os.WriteFile(archivePath, compressed, 0o644); err != nil {
		return fmt.Errorf("appender: write compressed rotated file: %w", err)
	}

	return os.Remove(path)
}

// baseName is the rotation-date-qualified file stem, e.g. "app_20260730"
// when rolling is enabled, else just "app".
func (fb *FileBase) baseName(t time.Time) string {
	if fb.cfg.EnableRollingLogFile {
		return fb.cfg.FileName + "_" + t.Format("20060102")
	}

	return fb.cfg.FileName
}

func (fb *FileBase) currentFilePath(t time.Time) string {
	return filepath.Join(fb.cfg.BaseDir, fmt.Sprintf("%s_%d%s", fb.baseName(t), fb.fileIndex, fb.ext))
}

func (fb *FileBase) nextFileIndex() int {
	base := fb.baseName(time.Now())
	matches, _ := filepath.Glob(filepath.Join(fb.cfg.BaseDir, base+"_*"+fb.ext))

	maxIdx := -1
	for _, m := range matches {
		if idx, ok := parseFileIndex(m, base, fb.ext); ok && idx > maxIdx {
			maxIdx = idx
		}
	}

	if maxIdx < 0 {
		return 0
	}
	if fb.cfg.AlwaysCreateNewFile {
		return maxIdx + 1
	}

	return maxIdx
}

func parseFileIndex(path, base, ext string) (int, bool) {
	name := filepath.Base(path)
	prefix := base + "_"

	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
		return 0, false
	}

	idxStr := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext)

	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return 0, false
	}

	return idx, true
}

// applyRetention deletes files matching "<file_name>_*" older than
// ExpireTime by mtime.
func (fb *FileBase) applyRetention() error {
	if fb.cfg.ExpireTime <= 0 {
		return nil
	}

	matches, err := filepath.Glob(filepath.Join(fb.cfg.BaseDir, fb.cfg.FileName+"_*"))
	if err != nil {
		return nil //nolint:nilerr // a malformed glob pattern shouldn't abort rotation
	}

	threshold := time.Now().Add(-fb.cfg.ExpireTime)
	for _, m := range matches {
		info, statErr := os.Stat(m)
		if statErr != nil {
			continue
		}
		if info.ModTime().Before(threshold) {
			_ = os.Remove(m)
		}
	}

	return nil
}

// applyCapacity deletes the oldest matching files (by mtime) until total
// size is under CapacityLimit.
func (fb *FileBase) applyCapacity() error {
	if fb.cfg.CapacityLimit <= 0 {
		return nil
	}

	matches, err := filepath.Glob(filepath.Join(fb.cfg.BaseDir, fb.cfg.FileName+"_*"))
	if err != nil {
		return nil //nolint:nilerr
	}

	type fileInfo struct {
		path    string
		size    int64
		modTime time.Time
	}

	var files []fileInfo
	var total int64
	for _, m := range matches {
		info, statErr := os.Stat(m)
		if statErr != nil {
			continue
		}
		files = append(files, fileInfo{path: m, size: info.Size(), modTime: info.ModTime()})
		total += info.Size()
	}

	if total <= fb.cfg.CapacityLimit {
		return nil
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })

	for _, f := range files {
		if total <= fb.cfg.CapacityLimit {
			break
		}
		if err := os.Remove(f.path); err != nil {
			continue
		}
		total -= f.size
	}

	return nil
}

func mmapScratchPath(logName, appenderName string) string {
	return filepath.Join("bqlog_mmap", "mmap_"+logName, "appenders", appenderName+".mmap")
}
