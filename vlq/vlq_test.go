package vlq

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeScenario_300(t *testing.T) {
	dst, n := Encode(nil, 300)
	require.Len(t, dst, 2)
	assert.Equal(t, 2, n)
	assert.Equal(t, byte(0b01000000), dst[0]&0b11000000)

	v, consumed, err := Decode(dst)
	require.NoError(t, err)
	assert.Equal(t, 2, consumed)
	assert.Equal(t, uint64(300), v)
}

func TestRoundTrip_BoundaryValues(t *testing.T) {
	values := []uint64{
		0, 1, math.MaxUint8, math.MaxUint16, math.MaxUint32, math.MaxUint64,
		127, 128, 129, 16511, 16512, 16513,
	}
	for _, v := range values {
		dst, n := Encode(nil, v)
		assert.Equal(t, EncodedLen(v), n)
		assert.Len(t, dst, n)

		got, consumed, err := Decode(dst)
		require.NoError(t, err)
		assert.Equal(t, n, consumed)
		assert.Equal(t, v, got)
	}
}

func TestRoundTrip_DenseSampling(t *testing.T) {
	for i := uint64(0); i < 50000; i++ {
		v := i * 104729 // prime stride to cover small and mid-range values densely
		dst, n := Encode(nil, v)
		got, consumed, err := Decode(dst)
		require.NoError(t, err)
		assert.Equal(t, n, consumed)
		assert.Equal(t, v, got)
	}

	// Sample across each length's boundary by shifting a 1-bit through every
	// power-of-two value up to 2^64-1.
	for shift := uint(0); shift < 64; shift++ {
		v := uint64(1) << shift
		dst, n := Encode(nil, v)
		got, consumed, err := Decode(dst)
		require.NoError(t, err)
		assert.Equal(t, n, consumed)
		assert.Equal(t, v, got)
	}
}

func TestDecode_Truncated(t *testing.T) {
	dst, _ := Encode(nil, math.MaxUint32)
	_, _, err := Decode(dst[:1])
	require.Error(t, err)

	_, _, err = Decode(nil)
	require.Error(t, err)
}

func TestZigZagScenarios(t *testing.T) {
	cases := []struct {
		signed   int64
		unsigned uint64
	}{
		{0, 0}, {-1, 1}, {1, 2}, {-2, 3}, {2, 4},
	}
	for _, c := range cases {
		assert.Equal(t, c.unsigned, EncodeZigZag(c.signed))
		assert.Equal(t, c.signed, DecodeZigZag(c.unsigned))
	}
}

func TestZigZagRoundTrip_Dense(t *testing.T) {
	for i := int64(-5000); i < 5000; i++ {
		u := EncodeZigZag(i)
		assert.Equal(t, i, DecodeZigZag(u))
	}
	extremes := []int64{math.MinInt64, math.MaxInt64, math.MinInt64 + 1, math.MaxInt64 - 1}
	for _, v := range extremes {
		u := EncodeZigZag(v)
		assert.Equal(t, v, DecodeZigZag(u))
	}
}

func TestEncodeSignedRoundTrip(t *testing.T) {
	values := []int64{0, -1, 1, -12345, 12345, math.MinInt64, math.MaxInt64}
	for _, v := range values {
		dst, n := EncodeSigned(nil, v)
		got, consumed, err := DecodeSigned(dst)
		require.NoError(t, err)
		assert.Equal(t, n, consumed)
		assert.Equal(t, v, got)
	}
}
