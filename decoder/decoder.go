package decoder

import (
	"fmt"
	"math"
	"os"

	"github.com/swiftlog/swiftlog/cryptoenv"
	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/errs"
	"github.com/swiftlog/swiftlog/record"
	"github.com/swiftlog/swiftlog/vlq"
)

// Entry is one reconstructed log record plus the category text it was
// logged under.
type Entry struct {
	Record   record.Record
	Category string
}

// Decoder reads a file produced by appender's raw or compressed writer back
// into a sequence of Entry values the layout engine can render.
type Decoder struct {
	engine   endian.EndianEngine
	envelope *cryptoenv.Envelope
}

// New builds a Decoder. envelope may be nil if the file is known to be
// unencrypted; decoding an encrypted segment without one fails with
// errs.ErrMissingPrivateKey.
func New(engine endian.EndianEngine, envelope *cryptoenv.Envelope) *Decoder {
	return &Decoder{engine: engine, envelope: envelope}
}

// DecodeFile reads and fully decodes the file at path.
func (d *Decoder) DecodeFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrDecodeIO, err)
	}

	return d.Decode(data)
}

// Decode parses a complete in-memory file image.
func (d *Decoder) Decode(data []byte) ([]Entry, error) {
	hdr, err := parseFileHeader(data)
	if err != nil {
		return nil, err
	}
	if hdr.version != 1 {
		return nil, fmt.Errorf("%w: version %d", errs.ErrVersionMismatch, hdr.version)
	}

	var entries []Entry
	pos := fileHeaderSize

	for pos < len(data) {
		head, err := parseSegHead(data[pos:])
		if err != nil {
			return entries, err
		}
		cursor := pos + segHeadSize

		var xorBlob []byte
		if head.hasKey != 0 {
			keys, err := parseSegmentKeys(data[cursor:])
			if err != nil {
				return entries, err
			}
			cursor += segmentKeysSize

			if head.encType == encRSAAESXOR {
				if d.envelope == nil {
					return entries, errs.ErrMissingPrivateKey
				}
				blob, err := d.envelope.Open(keys)
				if err != nil {
					return entries, err
				}
				xorBlob = blob
			}
		}

		segEnd := len(data)
		if head.nextSegPos != 0 && int(head.nextSegPos) <= len(data) {
			segEnd = int(head.nextSegPos)
		}

		payload := append([]byte(nil), data[cursor:segEnd]...)
		if xorBlob != nil {
			cryptoenv.ApplyXOR(payload, xorBlob, 0)
		}

		segEntries, err := d.decodeSegmentPayload(hdr.format, payload)
		if err != nil {
			return entries, err
		}
		entries = append(entries, segEntries...)

		pos = segEnd
	}

	return entries, nil
}

func (d *Decoder) decodeSegmentPayload(format fileFormat, payload []byte) ([]Entry, error) {
	meta, metaLen, err := parsePayloadMeta(payload)
	if err != nil {
		return nil, err
	}
	_ = meta // time zone context is applied by the layout engine's caller

	body := payload[metaLen:]

	switch format {
	case formatRaw:
		return d.decodeRawBody(body)
	case formatCompressed:
		return d.decodeCompressedBody(body)
	default:
		return nil, fmt.Errorf("%w: file format %d", errs.ErrDecodeInvalid, format)
	}
}

func (d *Decoder) decodeRawBody(body []byte) ([]Entry, error) {
	var entries []Entry
	pos := 0

	for pos < len(body) {
		if pos+4 > len(body) {
			return entries, errs.ErrTruncatedRecord
		}
		n := int(d.engine.Uint32(body[pos : pos+4]))
		pos += 4
		if pos+n > len(body) {
			return entries, errs.ErrTruncatedRecord
		}

		rec, err := record.Decode(body[pos:pos+n], d.engine)
		if err != nil {
			return entries, err
		}
		pos += n

		entries = append(entries, Entry{Record: rec})
	}

	return entries, nil
}

type compressedEntryType uint8

const (
	entryDefineCategory compressedEntryType = 0
	entryDefineTemplate compressedEntryType = 1
	entryDefineThread   compressedEntryType = 2
	entryLog            compressedEntryType = 3
)

type templateInfo struct {
	level    record.Level
	catIdx   uint32
	hashVal  uint64
	encoding record.FormatEncoding
	format   []byte
}

func readVLQString(src []byte) (string, int, error) {
	n, consumed, err := vlq.Decode(src)
	if err != nil {
		return "", 0, err
	}
	total := consumed + int(n)
	if total > len(src) {
		return "", 0, errs.ErrTruncatedRecord
	}

	return string(src[consumed:total]), total, nil
}

func (d *Decoder) decodeCompressedBody(body []byte) ([]Entry, error) {
	categories := make(map[uint32]string)
	threads := make(map[uint32]record.ExtInfo)
	templates := make(map[uint32]templateInfo)

	var entries []Entry
	pos := 0
	lastEpochMs := int64(0)

	for pos < len(body) {
		tag := compressedEntryType(body[pos])
		pos++

		switch tag {
		case entryDefineCategory:
			idx, n, err := vlq.Decode(body[pos:])
			if err != nil {
				return entries, err
			}
			pos += n
			name, n, err := readVLQString(body[pos:])
			if err != nil {
				return entries, err
			}
			pos += n
			categories[uint32(idx)] = name

		case entryDefineThread:
			idx, n, err := vlq.Decode(body[pos:])
			if err != nil {
				return entries, err
			}
			pos += n
			threadID, n, err := vlq.Decode(body[pos:])
			if err != nil {
				return entries, err
			}
			pos += n
			name, n, err := readVLQString(body[pos:])
			if err != nil {
				return entries, err
			}
			pos += n
			threads[uint32(idx)] = record.ExtInfo{ThreadID: threadID, ThreadName: name}

		case entryDefineTemplate:
			idx, n, err := vlq.Decode(body[pos:])
			if err != nil {
				return entries, err
			}
			pos += n
			if pos >= len(body) {
				return entries, errs.ErrTruncatedRecord
			}
			lvl := record.Level(body[pos])
			pos++
			catIdx, n, err := vlq.Decode(body[pos:])
			if err != nil {
				return entries, err
			}
			pos += n
			if pos+8 > len(body) {
				return entries, errs.ErrTruncatedRecord
			}
			hashVal := d.engine.Uint64(body[pos : pos+8])
			pos += 8
			if pos >= len(body) {
				return entries, errs.ErrTruncatedRecord
			}
			enc := record.FormatEncoding(body[pos])
			pos++
			fmtLen, n, err := vlq.Decode(body[pos:])
			if err != nil {
				return entries, err
			}
			pos += n
			if pos+int(fmtLen) > len(body) {
				return entries, errs.ErrTruncatedRecord
			}
			format := append([]byte(nil), body[pos:pos+int(fmtLen)]...)
			pos += int(fmtLen)

			templates[uint32(idx)] = templateInfo{
				level: lvl, catIdx: uint32(catIdx), hashVal: hashVal, encoding: enc, format: format,
			}

		case entryLog:
			deltaMs, n, err := vlq.DecodeSigned(body[pos:])
			if err != nil {
				return entries, err
			}
			pos += n
			templateIdx, n, err := vlq.Decode(body[pos:])
			if err != nil {
				return entries, err
			}
			pos += n
			threadIdx, n, err := vlq.Decode(body[pos:])
			if err != nil {
				return entries, err
			}
			pos += n
			argCount, n, err := vlq.Decode(body[pos:])
			if err != nil {
				return entries, err
			}
			pos += n

			tmpl, ok := templates[uint32(templateIdx)]
			if !ok {
				return entries, fmt.Errorf("%w: unknown template index %d", errs.ErrDecodeInvalid, templateIdx)
			}
			ext, ok := threads[uint32(threadIdx)]
			if !ok {
				return entries, fmt.Errorf("%w: unknown thread index %d", errs.ErrDecodeInvalid, threadIdx)
			}

			argsRaw, consumed, err := decodeArgsVLQ(body[pos:], int(argCount), d.engine)
			if err != nil {
				return entries, err
			}
			pos += consumed

			epochMs := lastEpochMs + deltaMs
			lastEpochMs = epochMs

			recBytes := record.Encode(epochMs, tmpl.level, tmpl.catIdx, tmpl.encoding, tmpl.format, argsRaw, ext, d.engine)
			rec, err := record.Decode(recBytes, d.engine)
			if err != nil {
				return entries, err
			}

			entries = append(entries, Entry{Record: rec, Category: categories[tmpl.catIdx]})

		default:
			return entries, fmt.Errorf("%w: unknown compressed entry tag %d", errs.ErrDecodeInvalid, tag)
		}
	}

	return entries, nil
}

// decodeArgsVLQ is the inverse of appender's encodeArgsVLQ: it reconstructs
// the fixed-width, alignment-padded argument wire format from count
// zigzag/VLQ-encoded arguments.
func decodeArgsVLQ(src []byte, count int, engine endian.EndianEngine) ([]byte, int, error) {
	w := record.NewArgWriter(nil, engine)
	pos := 0

	for i := 0; i < count; i++ {
		if pos >= len(src) {
			return nil, 0, errs.ErrTruncatedRecord
		}
		t := record.ArgType(src[pos])
		pos++

		switch t {
		case record.TypeNull:
			w.WriteNull()
		case record.TypeBool:
			if pos >= len(src) {
				return nil, 0, errs.ErrTruncatedRecord
			}
			w.WriteBool(src[pos] != 0)
			pos++
		case record.TypePointer:
			u, n, err := vlq.Decode(src[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += n
			w.WritePointer(u)
		case record.TypeUint8, record.TypeUint16, record.TypeUint32, record.TypeUint64:
			u, n, err := vlq.Decode(src[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += n
			w.WriteUint(bitsForUintType(t), u)
		case record.TypeChar8:
			u, n, err := vlq.Decode(src[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += n
			w.WriteChar8(uint8(u))
		case record.TypeChar16:
			u, n, err := vlq.Decode(src[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += n
			w.WriteChar16(uint16(u))
		case record.TypeChar32:
			u, n, err := vlq.Decode(src[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += n
			w.WriteChar32(uint32(u))
		case record.TypeInt8, record.TypeInt16, record.TypeInt32, record.TypeInt64:
			v, n, err := vlq.DecodeSigned(src[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += n
			w.WriteInt(bitsForIntType(t), v)
		case record.TypeFloat32:
			u, n, err := vlq.Decode(src[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += n
			w.WriteFloat32(math.Float32frombits(uint32(u)))
		case record.TypeFloat64:
			u, n, err := vlq.Decode(src[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += n
			w.WriteFloat64(math.Float64frombits(u))
		case record.TypeStringUTF8, record.TypeStringUTF16:
			s, n, err := readVLQString(src[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += n
			w.WriteStringUTF8(s)
		default:
			return nil, 0, errs.ErrInvalidArgType
		}
	}

	return w.Bytes(), pos, nil
}

func bitsForUintType(t record.ArgType) int {
	switch t {
	case record.TypeUint8:
		return 8
	case record.TypeUint16:
		return 16
	case record.TypeUint32:
		return 32
	default:
		return 64
	}
}

func bitsForIntType(t record.ArgType) int {
	switch t {
	case record.TypeInt8:
		return 8
	case record.TypeInt16:
		return 16
	case record.TypeInt32:
		return 32
	default:
		return 64
	}
}
