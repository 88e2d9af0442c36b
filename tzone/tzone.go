// Package tzone parses the timezone configuration string used by swiftlog
// appenders and provides fast epoch-to-formatted-prefix conversion.
//
// Accepted strings: "local"/"localtime" (use the OS local timezone),
// "UTC"/"GMT"/"Z" (UTC), and "UTC±H[:MM]" with hour in [-12,14] and minute
// in [0,59].
package tzone

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/swiftlog/swiftlog/errs"
)

// millisecondTable holds the zero-padded decimal text for 0..999, so the
// layout engine never formats the millisecond component with fmt/strconv on
// the hot path.
var millisecondTable = buildMillisecondTable()

func buildMillisecondTable() [1000]string {
	var table [1000]string
	for i := range table {
		table[i] = fmt.Sprintf("%03d", i)
	}

	return table
}

// MillisecondText returns the zero-padded 3-digit text for ms in [0,999].
func MillisecondText(ms int) string {
	if ms < 0 || ms > 999 {
		ms = ((ms % 1000) + 1000) % 1000
	}

	return millisecondTable[ms]
}

// Zone represents a parsed timezone configuration.
type Zone struct {
	raw          string
	useLocal     bool
	offsetHours  int
	offsetMins   int
	offsetMillis int64

	mu          sync.Mutex
	cachedEpoch int64
	cachedText  string
}

// Parse parses a timezone configuration string into a Zone.
func Parse(s string) (*Zone, error) {
	trimmed := strings.TrimSpace(s)
	lower := strings.ToLower(trimmed)

	switch {
	case lower == "local" || lower == "localtime" || trimmed == "":
		return &Zone{raw: trimmed, useLocal: true}, nil
	case lower == "utc" || lower == "gmt" || trimmed == "Z":
		return &Zone{raw: trimmed, offsetHours: 0, offsetMins: 0}, nil
	}

	if !strings.HasPrefix(lower, "utc") {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidTimeZone, s)
	}

	rest := trimmed[3:]
	if rest == "" {
		return &Zone{raw: trimmed}, nil
	}

	sign := 1
	switch rest[0] {
	case '+':
		rest = rest[1:]
	case '-':
		sign = -1
		rest = rest[1:]
	default:
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidTimeZone, s)
	}

	hourPart, minPart, _ := strings.Cut(rest, ":")

	hours, err := strconv.Atoi(hourPart)
	if err != nil || sign*hours < -12 || sign*hours > 14 {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidTimeZone, s)
	}

	minutes := 0
	if minPart != "" {
		minutes, err = strconv.Atoi(minPart)
		if err != nil || minutes < 0 || minutes > 59 {
			return nil, fmt.Errorf("%w: %q", errs.ErrInvalidTimeZone, s)
		}
	}

	z := &Zone{
		raw:         trimmed,
		offsetHours: sign * hours,
		offsetMins:  sign * minutes,
	}
	z.offsetMillis = int64(z.offsetHours)*3600_000 + int64(z.offsetMins)*60_000

	return z, nil
}

// MustParse parses s and panics on error; intended for package-level
// defaults and tests only.
func MustParse(s string) *Zone {
	z, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return z
}

// String returns the original configuration string.
func (z *Zone) String() string { return z.raw }

// UseLocal reports whether this zone defers to the OS local timezone.
func (z *Zone) UseLocal() bool { return z.useLocal }

// OffsetMinutes returns the configured fixed UTC offset in minutes. Only
// meaningful when UseLocal is false.
func (z *Zone) OffsetMinutes() int32 {
	return int32(z.offsetHours*60 + z.offsetMins)
}

// timeFor converts an epoch-millisecond timestamp into a time.Time in this zone.
func (z *Zone) timeFor(epochMs int64) time.Time {
	sec := epochMs / 1000
	nsec := (epochMs % 1000) * int64(time.Millisecond)

	if z.useLocal {
		return time.UnixMilli(epochMs).Local()
	}

	t := time.Unix(sec, nsec).UTC()

	return t.Add(time.Duration(z.offsetMillis) * time.Millisecond)
}

// FormattedPrefix returns "YYYY-MM-DD HH:MM:SS." for the second containing
// epochMs. Consecutive calls within the same epoch-second reuse a cached
// string; callers append the millisecond text (MillisecondText) themselves.
func (z *Zone) FormattedPrefix(epochMs int64) string {
	epochSec := epochMs / 1000

	z.mu.Lock()
	defer z.mu.Unlock()

	if epochSec == z.cachedEpoch && z.cachedText != "" {
		return z.cachedText
	}

	t := z.timeFor(epochSec * 1000)
	z.cachedText = t.Format("2006-01-02 15:04:05.")
	z.cachedEpoch = epochSec

	return z.cachedText
}

// FormatEpochMs renders a full "YYYY-MM-DD HH:MM:SS.mmm" timestamp.
func (z *Zone) FormatEpochMs(epochMs int64) string {
	prefix := z.FormattedPrefix(epochMs)
	ms := int(epochMs % 1000)
	if ms < 0 {
		ms += 1000
	}

	return prefix + MillisecondText(ms)
}

// NextMidnight returns the epoch-millisecond timestamp of the next local
// midnight (in this zone) strictly after epochMs. Used by the file-base
// appender's rolling-file rotation check.
func (z *Zone) NextMidnight(epochMs int64) int64 {
	t := z.timeFor(epochMs)
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)

	if z.useLocal {
		return midnight.UnixMilli()
	}

	// timeFor shifted a UTC instant forward by offsetMillis purely to make
	// Format/Date render the target zone's wall clock; undo that shift to
	// recover the true absolute instant of the local midnight.
	return midnight.UnixMilli() - z.offsetMillis
}
