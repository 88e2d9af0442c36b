package record

import (
	"math"
	"unicode/utf16"
)

func float32bits(v float32) uint32     { return math.Float32bits(v) }
func float32frombits(b uint32) float32 { return math.Float32frombits(b) }
func float64bits(v float64) uint64     { return math.Float64bits(v) }
func float64frombits(b uint64) float64 { return math.Float64frombits(b) }

// utf16ToRunes decodes UTF-16 code units (as stored on the wire) into a rune
// slice suitable for building a Go string.
func utf16ToRunes(units []uint16) []rune {
	return utf16.Decode(units)
}
