package compress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpCodec_RoundTrip(t *testing.T) {
	c := NewNoOpCompressor()
	data := []byte("rotated log file contents")

	compressed, err := c.Compress(data)
	require.NoError(t, err)
	assert.Equal(t, data, compressed)

	original, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, data, original)
}

func TestLZ4Codec_RoundTrip(t *testing.T) {
	c := NewLZ4Compressor()
	data := []byte("2026-07-30 10:00:00.123 UTC\t[I]\t[]\tconnect 9.134.131.77:18900\n")

	compressed, err := c.Compress(data)
	require.NoError(t, err)

	original, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, data, original)
}

func TestS2Codec_RoundTrip(t *testing.T) {
	c := NewS2Compressor()
	data := []byte("2026-07-30 10:00:00.123 UTC\t[I]\t[]\tconnect 9.134.131.77:18900\n")

	compressed, err := c.Compress(data)
	require.NoError(t, err)

	original, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, data, original)
}

func TestZstdCodec_RoundTrip(t *testing.T) {
	c := NewZstdCompressor()
	data := []byte("2026-07-30 10:00:00.123 UTC\t[I]\t[]\tconnect 9.134.131.77:18900\n")

	compressed, err := c.Compress(data)
	require.NoError(t, err)

	original, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, data, original)
}

func TestCodecEmptyInput(t *testing.T) {
	for _, c := range []Codec{NewNoOpCompressor(), NewLZ4Compressor(), NewS2Compressor(), NewZstdCompressor()} {
		compressed, err := c.Compress(nil)
		require.NoError(t, err)

		original, err := c.Decompress(compressed)
		require.NoError(t, err)
		assert.Empty(t, original)
	}
}

func TestCreateCodec(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		wantErr bool
	}{
		{"none", KindNone, false},
		{"zstd", KindZstd, false},
		{"s2", KindS2, false},
		{"lz4", KindLZ4, false},
		{"invalid", Kind(0xFF), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := CreateCodec(tt.kind, "archival")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, codec)
		})
	}
}

func TestGetCodec(t *testing.T) {
	codec, err := GetCodec(KindZstd)
	require.NoError(t, err)
	require.NotNil(t, codec)

	_, err = GetCodec(Kind(0xFF))
	require.Error(t, err)
}

func TestCompressionStats(t *testing.T) {
	stats := CompressionStats{Algorithm: KindZstd, OriginalSize: 1000, CompressedSize: 250}
	assert.InDelta(t, 0.25, stats.CompressionRatio(), 0.0001)
	assert.InDelta(t, 75.0, stats.SpaceSavings(), 0.0001)

	zero := CompressionStats{}
	assert.InDelta(t, 0.0, zero.CompressionRatio(), 0.0001)
}
