// Package layout renders decoded records into UTF-8 text lines: a fixed
// prefix (timestamp, level, category, thread) followed by a body produced
// by scanning the record's `{...}` format template against its argument
// sequence.
//
// The scan here is the scalar ground truth: a SIMD-accelerated brace
// scanner would dispatch by CPU feature and fall back to this path, but
// must always agree with it byte-for-byte.
package layout

import (
	"strconv"
	"unicode/utf16"

	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/errs"
	"github.com/swiftlog/swiftlog/internal/pool"
	"github.com/swiftlog/swiftlog/record"
	"github.com/swiftlog/swiftlog/tzone"
)

// WritePrefix appends "YYYY-MM-DD HH:MM:SS.mmm TZ\t[LEVEL]\t[CATEGORY]\t[tid-N name]\t"
// to buf. categoryText (and its surrounding brackets/tab) is omitted when empty.
func WritePrefix(buf *pool.ByteBuffer, zone *tzone.Zone, epochMs int64, level record.Level, categoryText string, threadID uint64, threadName string) {
	buf.MustWrite([]byte(zone.FormatEpochMs(epochMs)))
	buf.MustWrite([]byte(" "))
	buf.MustWrite([]byte(zone.String()))
	buf.MustWrite([]byte("\t["))
	buf.MustWrite([]byte(level.String()))
	buf.MustWrite([]byte("]\t"))

	if categoryText != "" {
		buf.MustWrite([]byte("["))
		buf.MustWrite([]byte(categoryText))
		buf.MustWrite([]byte("]\t"))
	}

	buf.MustWrite([]byte("[tid-"))
	buf.MustWrite([]byte(strconv.FormatUint(threadID, 10)))
	buf.MustWrite([]byte(" "))
	buf.MustWrite([]byte(threadName))
	buf.MustWrite([]byte("]\t"))
}

// decodeTemplate returns a record's format template as UTF-8 bytes
// regardless of Head.FormatEncoding, so RenderBody only ever scans UTF-8.
func decodeTemplate(format []byte, enc record.FormatEncoding, engine endian.EndianEngine) ([]byte, error) {
	if enc == record.FormatUTF8 {
		return format, nil
	}

	if len(format)%2 != 0 {
		return nil, errs.ErrTruncatedRecord
	}

	units := make([]uint16, len(format)/2)
	for i := range units {
		units[i] = engine.Uint16(format[i*2 : i*2+2])
	}

	return []byte(string(utf16.Decode(units))), nil
}

// RenderBody scans template for `{...}` placeholders and literal text,
// writing the rendered result to buf. `{{` and `}}` are literal-brace
// escapes. Each placeholder consumes the next argument from args in call
// order; any digits written inside the braces are accepted but ignored.
func RenderBody(buf *pool.ByteBuffer, template []byte, args *record.ArgReader) error {
	i := 0
	n := len(template)

	for i < n {
		c := template[i]

		switch c {
		case '{':
			if i+1 < n && template[i+1] == '{' {
				buf.MustWrite([]byte{'{'})
				i += 2
				continue
			}

			j := i + 1
			for j < n && template[j] != '}' {
				j++
			}
			if j >= n {
				return errs.ErrInvalidPlaceholder
			}

			spec, err := parsePlaceholder(template[i+1 : j])
			if err != nil {
				return err
			}

			arg, err := args.Next()
			if err != nil {
				return errs.ErrArgCountMismatch
			}

			rendered, err := renderArg(arg, spec)
			if err != nil {
				return err
			}
			buf.MustWrite([]byte(rendered))

			i = j + 1

		case '}':
			if i+1 < n && template[i+1] == '}' {
				buf.MustWrite([]byte{'}'})
				i += 2
				continue
			}
			return errs.ErrInvalidPlaceholder

		default:
			buf.MustWrite(template[i : i+1])
			i++
		}
	}

	return nil
}

// Render writes a complete text line for rec — prefix then body — with no
// trailing newline; the file-base appender owns line termination.
func Render(buf *pool.ByteBuffer, zone *tzone.Zone, rec record.Record, categoryText string, engine endian.EndianEngine) error {
	WritePrefix(buf, zone, rec.Head.EpochMs, rec.Head.Level, categoryText, rec.ExtInfo.ThreadID, rec.ExtInfo.ThreadName)

	template, err := decodeTemplate(rec.Format, rec.Head.FormatEncoding, engine)
	if err != nil {
		return err
	}

	return RenderBody(buf, template, rec.NewArgReader(engine))
}
