// Package decoder is the read-side mirror of appender's raw and compressed
// binary writers: it walks a file's segments, decrypts them if needed, and
// reconstructs record.Record values the layout engine can render.
package decoder

import (
	"encoding/binary"

	"github.com/swiftlog/swiftlog/cryptoenv"
	"github.com/swiftlog/swiftlog/errs"
)

const fileHeaderSize = 4 + 1 + 3

type fileFormat uint8

const (
	formatRaw        fileFormat = 0
	formatCompressed fileFormat = 1
)

type fileHeader struct {
	version uint32
	format  fileFormat
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

const segHeadSize = 8 + 1 + 1 + 1

type segEncType uint8

const (
	encNone      segEncType = 0
	encRSAAESXOR segEncType = 1
)

type segHead struct {
	nextSegPos uint64
	segType    uint8
	encType    segEncType
	hasKey     uint8
}

func parseSegHead(src []byte) (segHead, error) {
	if len(src) < segHeadSize {
		return segHead{}, errs.ErrTruncatedRecord
	}

	return segHead{
		nextSegPos: binary.LittleEndian.Uint64(src[0:8]),
		segType:    src[8],
		encType:    segEncType(src[9]),
		hasKey:     src[10],
	}, nil
}

const segmentKeysSize = cryptoenv.RSACiphertextSize + cryptoenv.IVSize + cryptoenv.XORBlobSize

func parseSegmentKeys(src []byte) (cryptoenv.SegmentKeys, error) {
	if len(src) < segmentKeysSize {
		return cryptoenv.SegmentKeys{}, errs.ErrTruncatedRecord
	}

	var keys cryptoenv.SegmentKeys
	keys.RSACiphertext = append([]byte(nil), src[:cryptoenv.RSACiphertextSize]...)
	copy(keys.IV[:], src[cryptoenv.RSACiphertextSize:cryptoenv.RSACiphertextSize+cryptoenv.IVSize])
	blobStart := cryptoenv.RSACiphertextSize + cryptoenv.IVSize
	keys.XORBlobCipher = append([]byte(nil), src[blobStart:blobStart+cryptoenv.XORBlobSize]...)

	return keys, nil
}

var payloadMetaMagic = [3]byte{0x02, 0x02, 0x07}

type payloadMeta struct {
	useLocalTime bool
	gmtOffsetMin int32
	timeZoneStr  string
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
