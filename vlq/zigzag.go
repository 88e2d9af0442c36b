package vlq

// EncodeZigZag maps a signed int64 onto the unsigned range so that small
// magnitude values (positive or negative) encode to small unsigned values,
// which in turn VLQ-encode to few bytes. 0, -1, 1, -2, 2 map to 0, 1, 2, 3, 4.
func EncodeZigZag(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63) //nolint:gosec
}

// DecodeZigZag is the inverse of EncodeZigZag.
func DecodeZigZag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// EncodeSigned appends the zigzag+VLQ encoding of a signed integer to dst.
func EncodeSigned(dst []byte, v int64) ([]byte, int) {
	return Encode(dst, EncodeZigZag(v))
}

// DecodeSigned is the inverse of EncodeSigned.
func DecodeSigned(src []byte) (int64, int, error) {
	u, n, err := Decode(src)
	if err != nil {
		return 0, 0, err
	}

	return DecodeZigZag(u), n, nil
}
