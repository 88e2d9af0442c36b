// Package errs defines the sentinel error values shared across swiftlog's
// packages. No package panics or throws on a recoverable failure path; every
// such path returns one of these values, optionally wrapped with
// fmt.Errorf("...: %w", err) for added context.
package errs

import "errors"

// Transport (ring buffer) errors.
var (
	ErrEmptyBuffer       = errors.New("swiftlog: ring buffer is empty")
	ErrNotEnoughSpace    = errors.New("swiftlog: not enough space in ring buffer")
	ErrAllocSizeInvalid  = errors.New("swiftlog: requested allocation cannot fit in the ring buffer")
	ErrWaitAndRetry      = errors.New("swiftlog: MISO reservation lost the race, retry")
	ErrBufferNotInited   = errors.New("swiftlog: ring buffer is not initialized")
	ErrOutOfOrderRelease = errors.New("swiftlog: read chunk returned out of order")
)

// Record / layout errors.
var (
	ErrInvalidArgType     = errors.New("swiftlog: unrecognized argument type tag")
	ErrTruncatedRecord    = errors.New("swiftlog: record buffer truncated")
	ErrInvalidHeaderSize  = errors.New("swiftlog: invalid header size")
	ErrInvalidPlaceholder = errors.New("swiftlog: invalid format placeholder")
	ErrArgCountMismatch   = errors.New("swiftlog: not enough arguments for format template")
)

// VLQ errors.
var (
	ErrVLQOutOfRange  = errors.New("swiftlog: vlq encoded value out of range")
	ErrVLQTruncated   = errors.New("swiftlog: vlq buffer truncated")
	ErrVLQBufTooSmall = errors.New("swiftlog: destination buffer too small for vlq encoding")
)

// Time zone errors.
var ErrInvalidTimeZone = errors.New("swiftlog: invalid time zone string")

// Appender / file errors.
var (
	ErrAppenderClosed    = errors.New("swiftlog: appender is closed")
	ErrFileNotFound      = errors.New("swiftlog: backing file not found")
	ErrRecoveryCorrupt   = errors.New("swiftlog: mmap recovery region is inconsistent")
	ErrUnsupportedConfig = errors.New("swiftlog: unsupported appender configuration")
	ErrDiskFull          = errors.New("swiftlog: disk full")
)

// Encryption errors.
var (
	ErrMissingPrivateKey = errors.New("swiftlog: segment is encrypted but no private key was supplied")
	ErrDecryptFailed     = errors.New("swiftlog: failed to decrypt segment")
	ErrInvalidPublicKey  = errors.New("swiftlog: invalid RSA public key")
)

// Decoder errors.
var (
	ErrDecodeEOF           = errors.New("swiftlog: end of file")
	ErrDecodeIO            = errors.New("swiftlog: decoder I/O error")
	ErrDecodeInvalid       = errors.New("swiftlog: decoder encountered invalid or corrupt data")
	ErrDecodeInvalidHandle = errors.New("swiftlog: invalid decoder handle")
	ErrVersionMismatch     = errors.New("swiftlog: unsupported file format version")
)

// Log lifecycle errors.
var (
	ErrLogNotFound     = errors.New("swiftlog: log id not found or stale")
	ErrManagerShutdown = errors.New("swiftlog: log manager has been shut down")
	ErrCategoryUnknown = errors.New("swiftlog: unknown category")
)
