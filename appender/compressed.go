package appender

import (
	"fmt"
	"math"
	"time"

	"github.com/swiftlog/swiftlog/cryptoenv"
	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/errs"
	"github.com/swiftlog/swiftlog/internal/hash"
	"github.com/swiftlog/swiftlog/internal/pool"
	"github.com/swiftlog/swiftlog/record"
	"github.com/swiftlog/swiftlog/vlq"
)

// TemplateHasher fingerprints a format template for the compressed
// appender's dedup map. Swapping it out lets a caller trade collision risk
// for speed differently than the xxHash64 default.
type TemplateHasher interface {
	Hash(format []byte) uint64
}

type defaultTemplateHasher struct{}

func (defaultTemplateHasher) Hash(format []byte) uint64 { return hash.ID(string(format)) }

// compressedEntryType tags each record written into a CompressedFileAppender
// segment.
type compressedEntryType uint8

const (
	entryDefineCategory compressedEntryType = 0
	entryDefineTemplate compressedEntryType = 1
	entryDefineThread   compressedEntryType = 2
	entryLog            compressedEntryType = 3
)

type templateKey struct {
	level record.Level
	catID uint32
	hash  uint64
}

// CompressedFileAppender writes records into a dense binary stream: format
// templates, thread identities, and categories are interned once and
// referenced afterward by a VLQ index, and every record's arguments are
// zigzag/VLQ re-encoded rather than carrying their natural on-wire padding.
type CompressedFileAppender struct {
	base   *FileBase
	engine endian.EndianEngine
	hasher TemplateHasher

	envelope *cryptoenv.Envelope
	xorBlob  []byte

	segHeadPos    int64
	payloadCursor int64

	categories  map[string]uint32
	templates   map[templateKey]uint32
	threads     map[uint64]uint32
	lastEpochMs int64
}

// NewCompressedFileAppender builds a CompressedFileAppender. envelope may be
// nil to write unencrypted segments; hasher may be nil to use the default
// xxHash64-based one.
func NewCompressedFileAppender(logName string, cfg Config, engine endian.EndianEngine, envelope *cryptoenv.Envelope, hasher TemplateHasher) *CompressedFileAppender {
	if hasher == nil {
		hasher = defaultTemplateHasher{}
	}

	a := &CompressedFileAppender{
		base:       NewFileBase(logName, ".logcompr", cfg),
		engine:     engine,
		hasher:     hasher,
		envelope:   envelope,
		segHeadPos: -1,
		categories: make(map[string]uint32),
		templates:  make(map[templateKey]uint32),
		threads:    make(map[uint64]uint32),
	}
	a.base.OnBeforeRotate = a.finalizeSegment
	a.base.OnRotated = func() error {
		now := time.Now().UnixMilli()
		hdr := fileHeader{version: fileVersion, format: formatCompressed}
		if err := a.writeRaw(now, hdr.bytes()); err != nil {
			return err
		}

		return a.openSegment(now)
	}

	return a
}

func (a *CompressedFileAppender) Name() string      { return a.base.Name() }
func (a *CompressedFileAppender) FlushCache() error { return a.base.FlushCache() }
func (a *CompressedFileAppender) Close() error {
	a.finalizeSegment()

	return a.base.Close()
}

func (a *CompressedFileAppender) Init() error {
	if err := a.base.Init(); err != nil {
		return err
	}

	if a.base.fileSize == 0 {
		now := time.Now().UnixMilli()
		hdr := fileHeader{version: fileVersion, format: formatCompressed}
		if err := a.writeRaw(now, hdr.bytes()); err != nil {
			return err
		}

		return a.openSegment(now)
	}

	return nil
}

func (a *CompressedFileAppender) openSegment(epochMs int64) error {
	// Interned tables reset per segment: the decoder walks one segment at
	// a time and never carries definitions across a segment boundary.
	a.categories = make(map[string]uint32)
	a.templates = make(map[templateKey]uint32)
	a.threads = make(map[uint64]uint32)
	a.lastEpochMs = epochMs

	a.segHeadPos = a.base.fileSize

	head := segHead{segType: segNormal}

	var keysBytes []byte
	if a.envelope != nil {
		blob, keys, err := a.envelope.Seal()
		if err != nil {
			return err
		}
		a.xorBlob = blob
		head.encType = encRSAAESXOR
		head.hasKey = 1
		keysBytes = segmentKeysBytes(keys)
	} else {
		a.xorBlob = nil
	}

	if err := a.writeRaw(epochMs, head.bytes()); err != nil {
		return err
	}
	if keysBytes != nil {
		if err := a.writeRaw(epochMs, keysBytes); err != nil {
			return err
		}
	}
	a.payloadCursor = 0

	meta := payloadMeta{
		useLocalTime: a.base.cfg.Zone.UseLocal(),
		gmtOffsetMin: a.base.cfg.Zone.OffsetMinutes(),
		timeZoneStr:  a.base.cfg.Zone.String(),
	}

	return a.writePayload(epochMs, meta.bytes())
}

func (a *CompressedFileAppender) finalizeSegment() {
	if a.segHeadPos < 0 {
		return
	}

	_ = a.base.FlushCache()

	var buf [8]byte
	a.engine.PutUint64(buf[:], uint64(a.base.fileSize))
	_, _ = a.base.file.WriteAt(buf[:], a.segHeadPos)

	a.segHeadPos = -1
}

func (a *CompressedFileAppender) writeRaw(epochMs int64, b []byte) error {
	return a.base.WriteBytes(epochMs, b)
}

func (a *CompressedFileAppender) writePayload(epochMs int64, b []byte) error {
	if a.xorBlob != nil {
		dup := append([]byte(nil), b...)
		cryptoenv.ApplyXOR(dup, a.xorBlob, a.payloadCursor)
		b = dup
	}
	a.payloadCursor += int64(len(b))

	return a.base.WriteBytes(epochMs, b)
}

func appendVLQString(dst []byte, s string) []byte {
	dst, _ = vlq.Encode(dst, uint64(len(s)))
	dst = append(dst, s...)

	return dst
}

func (a *CompressedFileAppender) internCategory(buf *pool.ByteBuffer, name string) uint32 {
	if idx, ok := a.categories[name]; ok {
		return idx
	}

	idx := uint32(len(a.categories))
	a.categories[name] = idx

	entry := []byte{byte(entryDefineCategory)}
	entry, _ = vlq.Encode(entry, uint64(idx))
	entry = appendVLQString(entry, name)
	buf.MustWrite(entry)

	return idx
}

func (a *CompressedFileAppender) internThread(buf *pool.ByteBuffer, threadID uint64, threadName string) uint32 {
	if idx, ok := a.threads[threadID]; ok {
		return idx
	}

	idx := uint32(len(a.threads))
	a.threads[threadID] = idx

	entry := []byte{byte(entryDefineThread)}
	entry, _ = vlq.Encode(entry, uint64(idx))
	entry, _ = vlq.Encode(entry, threadID)
	entry = appendVLQString(entry, threadName)
	buf.MustWrite(entry)

	return idx
}

func (a *CompressedFileAppender) internTemplate(buf *pool.ByteBuffer, lvl record.Level, catIdx uint32, format []byte, enc record.FormatEncoding) uint32 {
	key := templateKey{level: lvl, catID: catIdx, hash: a.hasher.Hash(format)}
	if idx, ok := a.templates[key]; ok {
		return idx
	}

	idx := uint32(len(a.templates))
	a.templates[key] = idx

	entry := []byte{byte(entryDefineTemplate)}
	entry, _ = vlq.Encode(entry, uint64(idx))
	entry = append(entry, byte(lvl))
	entry, _ = vlq.Encode(entry, uint64(catIdx))
	entry = a.engine.AppendUint64(entry, key.hash)
	entry = append(entry, byte(enc))
	entry, _ = vlq.Encode(entry, uint64(len(format)))
	entry = append(entry, format...)
	buf.MustWrite(entry)

	return idx
}

// encodeArgsVLQ re-encodes a record's argument section with zigzag/VLQ
// integers in place of the wire format's fixed-width, alignment-padded
// encoding.
func encodeArgsVLQ(dst []byte, args *record.ArgReader) ([]byte, int, error) {
	count := 0
	for !args.Done() {
		arg, err := args.Next()
		if err != nil {
			return nil, 0, err
		}
		count++

		dst = append(dst, byte(arg.Type))

		switch arg.Type {
		case record.TypeNull:
		case record.TypeBool:
			dst = append(dst, byte(arg.U64))
		case record.TypePointer, record.TypeUint8, record.TypeUint16, record.TypeUint32, record.TypeUint64,
			record.TypeChar8, record.TypeChar16, record.TypeChar32:
			dst, _ = vlq.Encode(dst, arg.U64)
		case record.TypeInt8, record.TypeInt16, record.TypeInt32, record.TypeInt64:
			dst, _ = vlq.EncodeSigned(dst, arg.I64)
		case record.TypeFloat32:
			dst, _ = vlq.Encode(dst, uint64(math.Float32bits(arg.F32)))
		case record.TypeFloat64:
			dst, _ = vlq.Encode(dst, math.Float64bits(arg.F64))
		case record.TypeStringUTF8, record.TypeStringUTF16:
			dst = appendVLQString(dst, arg.Str)
		default:
			return nil, 0, fmt.Errorf("appender: %w", errs.ErrInvalidArgType)
		}
	}

	return dst, count, nil
}

func (a *CompressedFileAppender) ConsumeRecord(rec record.Record, categoryText string) error {
	if !a.base.cfg.AcceptsLevel(rec.Head.Level) || !a.base.cfg.AcceptsCategory(rec.Head.Category) {
		return nil
	}

	buf := pool.GetRenderBuffer()
	defer pool.PutRenderBuffer(buf)
	buf.Reset()

	catIdx := a.internCategory(buf, categoryText)
	threadIdx := a.internThread(buf, rec.ExtInfo.ThreadID, rec.ExtInfo.ThreadName)
	templateIdx := a.internTemplate(buf, rec.Head.Level, catIdx, rec.Format, rec.Head.FormatEncoding)

	argsEncoded, argCount, err := encodeArgsVLQ(nil, rec.NewArgReader(a.engine))
	if err != nil {
		return fmt.Errorf("appender: encode compressed args: %w", err)
	}

	entry := []byte{byte(entryLog)}
	entry, _ = vlq.EncodeSigned(entry, rec.Head.EpochMs-a.lastEpochMs)
	a.lastEpochMs = rec.Head.EpochMs
	entry, _ = vlq.Encode(entry, uint64(templateIdx))
	entry, _ = vlq.Encode(entry, uint64(threadIdx))
	entry, _ = vlq.Encode(entry, uint64(argCount))
	entry = append(entry, argsEncoded...)

	buf.MustWrite(entry)

	return a.writePayload(rec.Head.EpochMs, buf.Bytes())
}
