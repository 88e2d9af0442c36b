package decoder

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swiftlog/swiftlog/appender"
	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/record"
	"github.com/swiftlog/swiftlog/tzone"
)

func testConfig(t *testing.T, dir string) appender.Config {
	t.Helper()

	return appender.Config{
		Name:        "test",
		BaseDir:     dir,
		FileName:    "test",
		MaxFileSize: 64 * 1024 * 1024,
		LevelMask:   0x3F,
		Zone:        tzone.MustParse("UTC"),
	}
}

func globOne(t *testing.T, dir, pattern string) string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	return matches[0]
}

func TestDecodeRawFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	engine := endian.GetLittleEndianEngine()

	a := appender.NewRawFileAppender("test", testConfig(t, dir), engine, nil)
	require.NoError(t, a.Init())

	ext := record.ExtInfo{ThreadID: 1, ThreadName: "producer-0"}
	for i, format := range []string{"first {0}", "second {0}"} {
		argw := record.NewArgWriter(nil, engine)
		argw.WriteInt(32, int64(i))

		rec, err := record.Decode(record.Encode(int64(1000+i), record.LevelInfo, 0, record.FormatUTF8, []byte(format), argw.Bytes(), ext, engine), engine)
		require.NoError(t, err)

		require.NoError(t, a.ConsumeRecord(rec, "net"))
	}
	require.NoError(t, a.Close())

	path := globOne(t, dir, "*.lograw")

	dec := New(engine, nil)
	entries, err := dec.DecodeFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, "first {0}", string(entries[0].Record.Format))
	require.Equal(t, "second {0}", string(entries[1].Record.Format))
	require.Equal(t, uint64(1), entries[0].Record.ExtInfo.ThreadID)
}

func TestDecodeCompressedFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	engine := endian.GetLittleEndianEngine()

	a := appender.NewCompressedFileAppender("test", testConfig(t, dir), engine, nil, nil)
	require.NoError(t, a.Init())

	ext := record.ExtInfo{ThreadID: 2, ThreadName: "producer-1"}

	argw := record.NewArgWriter(nil, engine)
	argw.WriteStringUTF8("alpha")
	rec1, err := record.Decode(record.Encode(5000, record.LevelWarning, 0, record.FormatUTF8, []byte("msg={0}"), argw.Bytes(), ext, engine), engine)
	require.NoError(t, err)
	require.NoError(t, a.ConsumeRecord(rec1, "disk"))

	argw2 := record.NewArgWriter(nil, engine)
	argw2.WriteStringUTF8("beta")
	rec2, err := record.Decode(record.Encode(5050, record.LevelWarning, 0, record.FormatUTF8, []byte("msg={0}"), argw2.Bytes(), ext, engine), engine)
	require.NoError(t, err)
	require.NoError(t, a.ConsumeRecord(rec2, "disk"))

	require.NoError(t, a.Close())

	path := globOne(t, dir, "*.logcompr")

	dec := New(engine, nil)
	entries, err := dec.DecodeFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, "disk", entries[0].Category)
	require.Equal(t, record.LevelWarning, entries[0].Record.Head.Level)

	r := entries[0].Record.NewArgReader(engine)
	arg, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "alpha", arg.Str)

	require.Equal(t, uint64(2), entries[1].Record.ExtInfo.ThreadID)
}
