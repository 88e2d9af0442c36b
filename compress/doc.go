// Package compress provides compression codecs for archiving rotated appender files.
//
// The file-base appender (see package appender) can be configured to compress a
// file once it has been rotated out (closed and replaced by a new active file).
// This package defines the Compressor/Decompressor/Codec interfaces used for that
// and ships four implementations:
//
//   - NoOp:  bypasses compression entirely.
//   - LZ4:   fastest decompression, moderate ratio; good for hot retention windows.
//   - S2:    balanced speed/ratio (Snappy-compatible, faster than Snappy).
//   - Zstd:  best ratio, used for cold/long-term archival.
//
// # Selection guide
//
//	Workload              Recommended
//	---------------------  -----------
//	Hot retention window   LZ4 or S2
//	Cold/long-term archive Zstd
//	Debug / benchmarking   NoOp
//
// All codecs are safe for concurrent use. LZ4, S2 and Zstd allocate fresh output
// slices per call; NoOp returns its input slice.
package compress
