// Package vlq implements the canonical variable-length integer encoding used
// throughout swiftlog's compressed binary appender format: a 1-9 byte
// prefix-coded unsigned integer, plus zigzag encoding for signed values.
//
// Encoding length is determined by counting the leading zero bits in the
// first byte up to (and including) the first 1 bit:
//
//	0b1xxxxxxx -> 1 byte,  7 payload bits  (0 leading zeros)
//	0b01xxxxxx -> 2 bytes, 14 payload bits (1 leading zero)
//	0b001xxxxx -> 3 bytes, 21 payload bits (2 leading zeros)
//	...
//	0b00000001 -> 8 bytes, 56 payload bits (7 leading zeros)
//	0b00000000 -> 9 bytes, 64 payload bits, all 8 following bytes are payload
//
// Each length encodes a disjoint range of values: the payload is biased by
// the minimum value representable at that length, so the mapping
// value<->encoding is canonical (exactly one encoded form per value).
package vlq

import "github.com/swiftlog/swiftlog/errs"

// minValueForLength[L] is the smallest uint64 value that requires L bytes to
// encode, i.e. the bias added to / subtracted from the payload of length L.
var minValueForLength = [10]uint64{
	0: 0,
	1: 0,
	2: 1 << 7,
	3: (1 << 7) + (1 << 14),
	4: (1 << 7) + (1 << 14) + (1 << 21),
	5: (1 << 7) + (1 << 14) + (1 << 21) + (1 << 28),
	6: (1 << 7) + (1 << 14) + (1 << 21) + (1 << 28) + (1 << 35),
	7: (1 << 7) + (1 << 14) + (1 << 21) + (1 << 28) + (1 << 35) + (1 << 42),
	8: (1 << 7) + (1 << 14) + (1 << 21) + (1 << 28) + (1 << 35) + (1 << 42) + (1 << 49),
	9: (1 << 7) + (1 << 14) + (1 << 21) + (1 << 28) + (1 << 35) + (1 << 42) + (1 << 49) + (1 << 56),
}

// payloadBits[L] is the number of payload bits length L bytes carry: 7*L for
// L in [1,8], and 64 for the 9-byte escape form.
var payloadBits = [10]uint{0, 7, 14, 21, 28, 35, 42, 49, 56, 64}

// EncodedLen returns the number of bytes needed to encode value in canonical form.
func EncodedLen(value uint64) int {
	for length := 1; length <= 8; length++ {
		span := value - minValueForLength[length]
		if span < (uint64(1) << payloadBits[length]) {
			return length
		}
	}

	return 9
}

// Encode appends the canonical VLQ encoding of value to dst and returns the
// extended slice along with the number of bytes written.
func Encode(dst []byte, value uint64) ([]byte, int) {
	length := EncodedLen(value)
	start := len(dst)

	if length == 9 {
		dst = append(dst, 0x00)
		for i := 7; i >= 0; i-- {
			dst = append(dst, byte(value>>(uint(i)*8)))
		}

		return dst, 9
	}

	biased := value - minValueForLength[length]

	// Fixed prefix for this length: (length-1) leading zero bits then a
	// single 1 bit; the remaining (8-length) bits of the first byte carry
	// the top payload bits.
	firstByteBits := 8 - length
	fixedPrefix := byte(1 << uint(firstByteBits))
	topShift := uint(length-1) * 8

	firstByte := fixedPrefix | byte((biased>>topShift)&((1<<uint(firstByteBits))-1))
	dst = append(dst, firstByte)

	for i := length - 2; i >= 0; i-- {
		dst = append(dst, byte(biased>>(uint(i)*8)))
	}

	return dst, len(dst) - start
}

// Decode reads a canonical VLQ value from the start of src.
// Returns the decoded value and the number of bytes consumed, or an error if
// src is truncated.
func Decode(src []byte) (uint64, int, error) {
	if len(src) == 0 {
		return 0, 0, errs.ErrVLQTruncated
	}

	first := src[0]
	length := 1
	mask := byte(0x80)
	for length <= 8 && first&mask == 0 {
		length++
		mask >>= 1
	}

	if len(src) < length {
		return 0, 0, errs.ErrVLQTruncated
	}

	if length == 9 {
		var v uint64
		for i := 1; i < 9; i++ {
			v = v<<8 | uint64(src[i])
		}

		return v, 9, nil
	}

	firstByteBits := 8 - length
	biased := uint64(first) & ((1 << uint(firstByteBits)) - 1)
	for i := 1; i < length; i++ {
		biased = biased<<8 | uint64(src[i])
	}

	return biased + minValueForLength[length], length, nil
}
