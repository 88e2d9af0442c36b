package tzone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	cases := []struct {
		in       string
		useLocal bool
		hours    int
		mins     int
	}{
		{"local", true, 0, 0},
		{"localtime", true, 0, 0},
		{"UTC", false, 0, 0},
		{"GMT", false, 0, 0},
		{"Z", false, 0, 0},
		{"UTC+8", false, 8, 0},
		{"UTC-5", false, -5, 0},
		{"UTC+5:30", false, 5, 30},
		{"UTC-9:45", false, -9, -45},
	}
	for _, c := range cases {
		z, err := Parse(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.useLocal, z.UseLocal(), c.in)
		if !c.useLocal {
			assert.Equal(t, c.hours, z.offsetHours, c.in)
			assert.Equal(t, c.mins, z.offsetMins, c.in)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	invalid := []string{"UTC+15", "UTC-13", "UTC+5:60", "PST", "UTC+"}
	for _, in := range invalid {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestFormatEpochMs_UTC(t *testing.T) {
	z := MustParse("UTC")
	ts := time.Date(2026, 7, 30, 10, 15, 30, 123_000_000, time.UTC).UnixMilli()
	assert.Equal(t, "2026-07-30 10:15:30.123", z.FormatEpochMs(ts))
}

func TestFormatEpochMs_CachesPerSecond(t *testing.T) {
	z := MustParse("UTC")
	base := time.Date(2026, 7, 30, 10, 15, 30, 0, time.UTC).UnixMilli()
	first := z.FormattedPrefix(base)
	second := z.FormattedPrefix(base + 500)
	assert.Equal(t, first, second)

	next := z.FormattedPrefix(base + 1000)
	assert.NotEqual(t, first, next)
}

func TestMillisecondTable(t *testing.T) {
	assert.Equal(t, "000", MillisecondText(0))
	assert.Equal(t, "007", MillisecondText(7))
	assert.Equal(t, "999", MillisecondText(999))
}

func TestNextMidnight_FixedOffset(t *testing.T) {
	z := MustParse("UTC+8")
	// 2026-07-30 23:00:00 UTC+8 -> next midnight is 2026-07-31 00:00:00 UTC+8
	ts := time.Date(2026, 7, 30, 23, 0, 0, 0, time.FixedZone("UTC+8", 8*3600)).UnixMilli()
	next := z.NextMidnight(ts)

	want := time.Date(2026, 7, 31, 0, 0, 0, 0, time.FixedZone("UTC+8", 8*3600)).UnixMilli()
	assert.Equal(t, want, next)
}
