package appender

import (
	"encoding/binary"

	"github.com/swiftlog/swiftlog/cryptoenv"
	"github.com/swiftlog/swiftlog/errs"
)

// fileHeaderSize is {version: u32}{format: u8}{padding: 3}.
const fileHeaderSize = 4 + 1 + 3

// fileFormat identifies which of the two binary appenders wrote a file.
type fileFormat uint8

const (
	formatRaw        fileFormat = 0
	formatCompressed fileFormat = 1
)

// fileVersion is the current binary file layout version.
const fileVersion uint32 = 1

type fileHeader struct {
	version uint32
	format  fileFormat
}

func (h fileHeader) bytes() []byte {
	buf := make([]byte, fileHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.version)
	buf[4] = byte(h.format)

	return buf
}

func parseFileHeader(src []byte) (fileHeader, error) {
	if len(src) < fileHeaderSize {
		return fileHeader{}, errs.ErrTruncatedRecord
	}

	return fileHeader{
		version: binary.LittleEndian.Uint32(src[0:4]),
		format:  fileFormat(src[4]),
	}, nil
}

// segEncType selects how a segment's payload bytes are protected.
type segEncType uint8

const (
	encNone      segEncType = 0
	encRSAAESXOR segEncType = 1
)

// segHeadSize is {next_seg_pos: u64}{seg_type: u8}{enc_type: u8}{has_key: u8}.
const segHeadSize = 8 + 1 + 1 + 1

// segType distinguishes a segment produced by normal writes from one that
// begins with bytes replayed from a crash-recovered write cache.
type segType uint8

const (
	segNormal   segType = 0
	segRecovery segType = 1
)

type segHead struct {
	nextSegPos uint64
	segType    segType
	encType    segEncType
	hasKey     uint8
}

func (h segHead) bytes() []byte {
	buf := make([]byte, segHeadSize)
	binary.LittleEndian.PutUint64(buf[0:8], h.nextSegPos)
	buf[8] = byte(h.segType)
	buf[9] = byte(h.encType)
	buf[10] = h.hasKey

	return buf
}

func parseSegHead(src []byte) (segHead, error) {
	if len(src) < segHeadSize {
		return segHead{}, errs.ErrTruncatedRecord
	}

	return segHead{
		nextSegPos: binary.LittleEndian.Uint64(src[0:8]),
		segType:    segType(src[8]),
		encType:    segEncType(src[9]),
		hasKey:     src[10],
	}, nil
}

// segmentKeysSize is the fixed wire size of a cryptoenv.SegmentKeys block.
const segmentKeysSize = cryptoenv.RSACiphertextSize + cryptoenv.IVSize + cryptoenv.XORBlobSize

func segmentKeysBytes(k cryptoenv.SegmentKeys) []byte {
	buf := make([]byte, 0, segmentKeysSize)
	buf = append(buf, k.RSACiphertext...)
	buf = append(buf, k.IV[:]...)
	buf = append(buf, k.XORBlobCipher...)

	return buf
}

// payloadMetaMagic marks the payload-metadata block that opens a file's
// first segment.
var payloadMetaMagic = [3]byte{0x02, 0x02, 0x07}

type payloadMeta struct {
	useLocalTime bool
	gmtOffsetMin int32
	timeZoneStr  string
}

func (m payloadMeta) bytes() []byte {
	buf := make([]byte, 0, 3+1+4+4+len(m.timeZoneStr))
	buf = append(buf, payloadMetaMagic[:]...)
	if m.useLocalTime {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(m.gmtOffsetMin))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.timeZoneStr)))
	buf = append(buf, m.timeZoneStr...)

	return buf
}

func parsePayloadMeta(src []byte) (payloadMeta, int, error) {
	if len(src) < 3+1+4+4 {
		return payloadMeta{}, 0, errs.ErrTruncatedRecord
	}
	if [3]byte(src[0:3]) != payloadMetaMagic {
		return payloadMeta{}, 0, errs.ErrDecodeInvalid
	}

	m := payloadMeta{useLocalTime: src[3] != 0}
	m.gmtOffsetMin = int32(binary.LittleEndian.Uint32(src[4:8]))
	nameLen := int(binary.LittleEndian.Uint32(src[8:12]))
	if len(src) < 12+nameLen {
		return payloadMeta{}, 0, errs.ErrTruncatedRecord
	}
	m.timeZoneStr = string(src[12 : 12+nameLen])

	return m, 12 + nameLen, nil
}
