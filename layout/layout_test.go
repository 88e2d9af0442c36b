package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/internal/pool"
	"github.com/swiftlog/swiftlog/record"
	"github.com/swiftlog/swiftlog/tzone"
)

func tzoneTestZone(t *testing.T) *tzone.Zone {
	t.Helper()

	z, err := tzone.Parse("UTC")
	require.NoError(t, err)

	return z
}

func renderBody(t *testing.T, format string, w *record.ArgWriter) string {
	t.Helper()

	engine := endian.GetLittleEndianEngine()
	buf := pool.NewByteBuffer(64)
	reader := record.NewArgReader(w.Bytes(), engine)

	err := RenderBody(buf, []byte(format), reader)
	require.NoError(t, err)

	return string(buf.Bytes())
}

func TestRenderBody_Escapes(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	w := record.NewArgWriter(nil, engine)

	got := renderBody(t, "a {{ b }} c", w)
	assert.Equal(t, "a { b } c", got)
}

func TestRenderBody_PositionalIndexIgnored(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	w := record.NewArgWriter(nil, engine)
	w.WriteStringUTF8("first")
	w.WriteStringUTF8("second")

	got := renderBody(t, "{1} {0}", w)
	assert.Equal(t, "first second", got)
}

func TestRenderBody_ConnectExample(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	w := record.NewArgWriter(nil, engine)
	w.WriteStringUTF8("9.134.131.77")
	w.WriteUint(16, 18900)

	got := renderBody(t, "connect {}:{}", w)
	assert.Equal(t, "connect 9.134.131.77:18900", got)
}

func TestRenderBody_HexWidthZeroPad(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	w := record.NewArgWriter(nil, engine)
	w.WriteUint(32, 0xDEAD)

	got := renderBody(t, "x={:08x}", w)
	assert.Equal(t, "x=0000dead", got)
}

func TestRenderBody_AltUppercaseHexZeroPad(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	w := record.NewArgWriter(nil, engine)
	w.WriteUint(32, 0xDEAD)

	got := renderBody(t, "x={:#08X}", w)
	assert.Equal(t, "x=0X00DEAD", got)
}

func TestRenderBody_SignedNegativeDecimal(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	w := record.NewArgWriter(nil, engine)
	w.WriteInt(32, -42)

	got := renderBody(t, "n={:+}", w)
	assert.Equal(t, "n=-42", got)

	w2 := record.NewArgWriter(nil, engine)
	w2.WriteInt(32, 42)
	got2 := renderBody(t, "n={:+}", w2)
	assert.Equal(t, "n=+42", got2)
}

func TestRenderBody_FloatFixedAndScientific(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	w := record.NewArgWriter(nil, engine)
	w.WriteFloat64(3.14159)
	got := renderBody(t, "{:.2f}", w)
	assert.Equal(t, "3.14", got)

	w2 := record.NewArgWriter(nil, engine)
	w2.WriteFloat64(1234.5)
	got2 := renderBody(t, "{:.2E}", w2)
	assert.Equal(t, "1.23E+03", got2)
}

func TestRenderBody_StringAlignAndWidth(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	w := record.NewArgWriter(nil, engine)
	w.WriteStringUTF8("hi")
	assert.Equal(t, "[hi    ]", renderBody(t, "[{:6}]", w))

	w2 := record.NewArgWriter(nil, engine)
	w2.WriteStringUTF8("hi")
	assert.Equal(t, "[    hi]", renderBody(t, "[{:>6}]", w2))

	w3 := record.NewArgWriter(nil, engine)
	w3.WriteStringUTF8("hi")
	assert.Equal(t, "[--hi--]", renderBody(t, "[{:-^6}]", w3))
}

func TestRenderBody_BinaryAndOctal(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	w := record.NewArgWriter(nil, engine)
	w.WriteUint(8, 5)
	assert.Equal(t, "0b101", renderBody(t, "{:#b}", w))

	w2 := record.NewArgWriter(nil, engine)
	w2.WriteUint(8, 8)
	assert.Equal(t, "10", renderBody(t, "{:o}", w2))
}

func TestRenderBody_MismatchedBrace(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	w := record.NewArgWriter(nil, engine)

	buf := pool.NewByteBuffer(16)
	reader := record.NewArgReader(w.Bytes(), engine)
	err := RenderBody(buf, []byte("oops {"), reader)
	assert.Error(t, err)
}

func TestRender_FullLine(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	w := record.NewArgWriter(nil, engine)
	w.WriteStringUTF8("9.134.131.77")
	w.WriteUint(16, 18900)

	format := []byte("connect {}:{}")
	ext := record.ExtInfo{ThreadID: 7, ThreadName: "io"}
	buf8 := record.Encode(1_700_000_000_000, record.LevelVerbose, 3, record.FormatUTF8, format, w.Bytes(), ext, engine)

	rec, err := record.Decode(buf8, engine)
	require.NoError(t, err)

	zone := tzoneTestZone(t)
	buf := pool.NewByteBuffer(128)
	err = Render(buf, zone, rec, "ModuleA.SystemA", engine)
	require.NoError(t, err)

	got := string(buf.Bytes())
	assert.Contains(t, got, "[V]\t[ModuleA.SystemA]\t[tid-7 io]\tconnect 9.134.131.77:18900")
}
