package compress

import (
	"strings"
	"testing"
)

func syntheticLogFile(lines int) []byte {
	var b strings.Builder
	for i := 0; i < lines; i++ {
		b.WriteString("2026-07-30 10:00:00.123 UTC\t[I]\t[ModuleA.SystemA]\tconnect 9.134.131.77:18900\n")
	}

	return []byte(b.String())
}

func BenchmarkCodecs_Compress(b *testing.B) {
	data := syntheticLogFile(2000)
	codecs := map[string]Codec{
		"NoOp": NewNoOpCompressor(),
		"LZ4":  NewLZ4Compressor(),
		"S2":   NewS2Compressor(),
		"Zstd": NewZstdCompressor(),
	}

	for name, codec := range codecs {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				_, _ = codec.Compress(data)
			}
		})
	}
}

func BenchmarkCodecs_Decompress(b *testing.B) {
	data := syntheticLogFile(2000)
	codecs := map[string]Codec{
		"NoOp": NewNoOpCompressor(),
		"LZ4":  NewLZ4Compressor(),
		"S2":   NewS2Compressor(),
		"Zstd": NewZstdCompressor(),
	}

	for name, codec := range codecs {
		compressed, err := codec.Compress(data)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				_, _ = codec.Decompress(compressed)
			}
		})
	}
}
