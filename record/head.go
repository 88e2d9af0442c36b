package record

import (
	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/errs"
)

// Level identifies a log record's severity.
type Level uint8

// Recognized severity levels, ordered from least to most severe.
const (
	LevelVerbose Level = iota
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelVerbose:
		return "V"
	case LevelDebug:
		return "D"
	case LevelInfo:
		return "I"
	case LevelWarning:
		return "W"
	case LevelError:
		return "E"
	case LevelFatal:
		return "F"
	default:
		return "?"
	}
}

// FormatEncoding tags whether a record's format template bytes are UTF-8 or
// UTF-16.
type FormatEncoding uint8

const (
	FormatUTF8 FormatEncoding = iota
	FormatUTF16
)

// HeadSize is the byte size of the fixed record head: epoch(8) + level(1) +
// category(4) + format-type(1) + format-data length(4) + args-offset(4) +
// ext-info-offset(4), packed tightly with no inter-field padding.
const HeadSize = 8 + 1 + 4 + 1 + 4 + 4 + 4

// Head is the fixed-size header prefixing every encoded log record.
type Head struct {
	EpochMs        int64
	Level          Level
	Category       uint32
	FormatEncoding FormatEncoding
	FormatLen      uint32
	ArgsOffset     uint32
	ExtInfoOffset  uint32
}

// Bytes serializes the head into dst[:HeadSize]. dst must be at least
// HeadSize bytes.
func (h Head) Bytes(dst []byte, engine endian.EndianEngine) {
	engine.PutUint64(dst[0:8], uint64(h.EpochMs))
	dst[8] = byte(h.Level)
	engine.PutUint32(dst[9:13], h.Category)
	dst[13] = byte(h.FormatEncoding)
	engine.PutUint32(dst[14:18], h.FormatLen)
	engine.PutUint32(dst[18:22], h.ArgsOffset)
	engine.PutUint32(dst[22:26], h.ExtInfoOffset)
}

// ParseHead parses a Head from the first HeadSize bytes of src.
func ParseHead(src []byte, engine endian.EndianEngine) (Head, error) {
	if len(src) < HeadSize {
		return Head{}, errs.ErrInvalidHeaderSize
	}

	return Head{
		EpochMs:        int64(engine.Uint64(src[0:8])),
		Level:          Level(src[8]),
		Category:       engine.Uint32(src[9:13]),
		FormatEncoding: FormatEncoding(src[13]),
		FormatLen:      engine.Uint32(src[14:18]),
		ArgsOffset:     engine.Uint32(src[18:22]),
		ExtInfoOffset:  engine.Uint32(src[22:26]),
	}, nil
}
