package appender

import (
	"fmt"
	"time"

	"github.com/swiftlog/swiftlog/cryptoenv"
	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/internal/pool"
	"github.com/swiftlog/swiftlog/record"
)

// RawFileAppender writes each record verbatim as {length: u32}{record bytes}
// inside an optionally encrypted segment. It trades the compressed
// appender's template/thread dedup for simplicity: every record is
// self-contained.
type RawFileAppender struct {
	base   *FileBase
	engine endian.EndianEngine

	envelope *cryptoenv.Envelope
	xorBlob  []byte

	segHeadPos    int64 // file offset of the current segment's head, -1 if unknown
	payloadCursor int64 // bytes written to the current segment's payload, for XOR offset
}

// NewRawFileAppender builds a RawFileAppender. envelope may be nil to write
// unencrypted segments.
func NewRawFileAppender(logName string, cfg Config, engine endian.EndianEngine, envelope *cryptoenv.Envelope) *RawFileAppender {
	a := &RawFileAppender{base: NewFileBase(logName, ".lograw", cfg), engine: engine, envelope: envelope, segHeadPos: -1}
	a.base.OnBeforeRotate = a.finalizeSegment
	a.base.OnRotated = func() error {
		now := time.Now().UnixMilli()
		hdr := fileHeader{version: fileVersion, format: formatRaw}
		if err := a.writeRaw(now, hdr.bytes()); err != nil {
			return err
		}

		return a.openSegment(segNormal, now)
	}

	return a
}

func (a *RawFileAppender) Name() string      { return a.base.Name() }
func (a *RawFileAppender) FlushCache() error { return a.base.FlushCache() }
func (a *RawFileAppender) Close() error {
	a.finalizeSegment()

	return a.base.Close()
}

func (a *RawFileAppender) Init() error {
	if err := a.base.Init(); err != nil {
		return err
	}

	if a.base.fileSize == 0 {
		now := time.Now().UnixMilli()
		hdr := fileHeader{version: fileVersion, format: formatRaw}
		if err := a.writeRaw(now, hdr.bytes()); err != nil {
			return err
		}

		return a.openSegment(segNormal, now)
	}

	return nil
}

func (a *RawFileAppender) openSegment(st segType, epochMs int64) error {
	a.segHeadPos = a.base.fileSize

	head := segHead{segType: st}

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

// finalizeSegment backpatches the open segment's next_seg_pos with the
// current file size, if the segment's head offset is known.
func (a *RawFileAppender) finalizeSegment() {
	if a.segHeadPos < 0 {
		return
	}

	_ = a.base.FlushCache()

	var buf [8]byte
	a.engine.PutUint64(buf[:], uint64(a.base.fileSize))
	_, _ = a.base.file.WriteAt(buf[:], a.segHeadPos)

	a.segHeadPos = -1
}

// writeRaw appends unencrypted bytes (file/segment headers, key material)
// directly through FileBase, without advancing payloadCursor.
func (a *RawFileAppender) writeRaw(epochMs int64, b []byte) error {
	return a.base.WriteBytes(epochMs, b)
}

// writePayload appends bytes that belong to the current segment's
// encrypted region, keystreaming them first if an envelope is active.
func (a *RawFileAppender) writePayload(epochMs int64, b []byte) error {
	if a.xorBlob != nil {
		dup := append([]byte(nil), b...)
		cryptoenv.ApplyXOR(dup, a.xorBlob, a.payloadCursor)
		b = dup
	}
	a.payloadCursor += int64(len(b))

	return a.base.WriteBytes(epochMs, b)
}

func (a *RawFileAppender) ConsumeRecord(rec record.Record, categoryText string) error {
	if !a.base.cfg.AcceptsLevel(rec.Head.Level) || !a.base.cfg.AcceptsCategory(rec.Head.Category) {
		return nil
	}

	recBytes := record.Encode(rec.Head.EpochMs, rec.Head.Level, rec.Head.Category, rec.Head.FormatEncoding, rec.Format, rec.ArgsRaw, rec.ExtInfo, a.engine)

	buf := pool.GetRenderBuffer()
	defer pool.PutRenderBuffer(buf)
	buf.Reset()
	buf.MustWrite(a.engine.AppendUint32(nil, uint32(len(recBytes))))
	buf.MustWrite(recBytes)

	if err := a.writePayload(rec.Head.EpochMs, buf.Bytes()); err != nil {
		return fmt.Errorf("appender: write raw record: %w", err)
	}

	return nil
}
