package record

import (
	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/errs"
)

// Record is a fully decoded log entry: the fixed head, the raw format
// template bytes (UTF-8 or UTF-16 per Head.FormatEncoding), the raw
// argument section, and the producer thread's identity.
//
// ArgsRaw is exposed rather than eagerly decoded into a slice: the args
// section is only 4-byte aligned as a whole (individual arguments have no
// length prefix that would let a reader distinguish real trailing bytes
// from alignment padding), so the only correct way to walk it is to pull
// exactly as many arguments as the format template's placeholders call
// for — which is what the layout engine's ArgReader usage does.
type Record struct {
	Head    Head
	Format  []byte
	ArgsRaw []byte
	ExtInfo ExtInfo
}

// NewArgReader returns a reader over this record's argument section.
func (r Record) NewArgReader(engine endian.EndianEngine) *ArgReader {
	return NewArgReader(r.ArgsRaw, engine)
}

// Encode lays out [head][format bytes, 4-aligned][args, 4-aligned][ext-info]
// into a single buffer, filling in Head.FormatLen/ArgsOffset/ExtInfoOffset
// from the actual section sizes.
func Encode(epochMs int64, level Level, category uint32, formatEnc FormatEncoding, formatBytes []byte, argBytes []byte, ext ExtInfo, engine endian.EndianEngine) []byte {
	extBytes := ext.Bytes(engine)

	formatSectionLen := align4(len(formatBytes))
	argsOffset := HeadSize + formatSectionLen
	argsSectionLen := align4(len(argBytes))
	extOffset := argsOffset + argsSectionLen

	total := extOffset + len(extBytes)
	buf := make([]byte, total)

	h := Head{
		EpochMs:        epochMs,
		Level:          level,
		Category:       category,
		FormatEncoding: formatEnc,
		FormatLen:      uint32(len(formatBytes)),
		ArgsOffset:     uint32(argsOffset),
		ExtInfoOffset:  uint32(extOffset),
	}
	h.Bytes(buf[:HeadSize], engine)

	copy(buf[HeadSize:], formatBytes)
	copy(buf[argsOffset:], argBytes)
	copy(buf[extOffset:], extBytes)

	return buf
}

// Decode parses a complete record previously produced by Encode (or
// reconstructed by the compressed appender's template-expansion path).
func Decode(buf []byte, engine endian.EndianEngine) (Record, error) {
	head, err := ParseHead(buf, engine)
	if err != nil {
		return Record{}, err
	}

	if int(head.ArgsOffset) > len(buf) || int(head.ExtInfoOffset) > len(buf) {
		return Record{}, errs.ErrTruncatedRecord
	}

	formatEnd := HeadSize + int(head.FormatLen)
	if formatEnd > len(buf) {
		return Record{}, errs.ErrTruncatedRecord
	}
	format := buf[HeadSize:formatEnd]

	argsBuf := buf[head.ArgsOffset:head.ExtInfoOffset]
	ext, err := ParseExtInfo(buf[head.ExtInfoOffset:], engine)
	if err != nil {
		return Record{}, err
	}

	return Record{Head: head, Format: format, ArgsRaw: argsBuf, ExtInfo: ext}, nil
}

// EstimateSize computes the producer-side total_size used to size a ring
// buffer allocation before any bytes are written: head + aligned format
// bytes + aligned args + ext-info (thread id + name).
func EstimateSize(formatLen, argsLen int, threadNameLen int) int {
	return HeadSize + align4(formatLen) + align4(argsLen) + 8 + 4 + threadNameLen
}
