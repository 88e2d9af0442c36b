package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftlog/swiftlog/endian"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	w := NewArgWriter(nil, engine)
	w.WriteInt(32, -7)
	w.WriteStringUTF8("hello")
	w.WriteFloat64(3.5)

	format := []byte("val={} name={} pi={}")
	ext := ExtInfo{ThreadID: 42, ThreadName: "worker-0"}

	buf := Encode(1000, LevelInfo, 3, FormatUTF8, format, w.Bytes(), ext, engine)

	rec, err := Decode(buf, engine)
	require.NoError(t, err)

	assert.Equal(t, int64(1000), rec.Head.EpochMs)
	assert.Equal(t, LevelInfo, rec.Head.Level)
	assert.Equal(t, uint32(3), rec.Head.Category)
	assert.Equal(t, format, rec.Format)
	assert.Equal(t, uint64(42), rec.ExtInfo.ThreadID)
	assert.Equal(t, "worker-0", rec.ExtInfo.ThreadName)

	r := rec.NewArgReader(engine)

	a1, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, TypeInt32, a1.Type)
	assert.Equal(t, int64(-7), a1.I64)

	a2, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, TypeStringUTF8, a2.Type)
	assert.Equal(t, "hello", a2.Str)

	a3, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, TypeFloat64, a3.Type)
	assert.InDelta(t, 3.5, a3.F64, 1e-9)
}

func TestArgWriterAlignment(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	w := NewArgWriter(nil, engine)
	w.WriteBool(true)
	w.WriteInt(64, 1234567890)

	r := NewArgReader(w.Bytes(), engine)
	a1, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, TypeBool, a1.Type)
	assert.Equal(t, uint64(1), a1.U64)

	a2, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, TypeInt64, a2.Type)
	assert.Equal(t, int64(1234567890), a2.I64)
}

func TestEstimateSizeMatchesActual(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	w := NewArgWriter(nil, engine)
	w.WriteInt(32, 1)
	w.WriteStringUTF8("abc")

	format := []byte("x={} y={}")
	ext := ExtInfo{ThreadID: 1, ThreadName: "t"}

	buf := Encode(0, LevelDebug, 0, FormatUTF8, format, w.Bytes(), ext, engine)
	estimated := EstimateSize(len(format), len(w.Bytes()), len(ext.ThreadName))

	assert.Equal(t, len(buf), estimated)
}
