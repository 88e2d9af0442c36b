package swiftlog

import (
	"fmt"

	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/errs"
	"github.com/swiftlog/swiftlog/record"
)

// encodeArgs converts a Go argument list into the fixed-width, aligned
// wire form record.Encode expects, in call order. Supported types are nil,
// bool, the sized signed and unsigned integers, uintptr (as a pointer),
// float32/float64, string and fmt.Stringer; the char and UTF-16 string
// tags of record.ArgType are never produced here. Anything else is
// rejected before a partial record can be enqueued.
func encodeArgs(engine endian.EndianEngine, args []any) ([]byte, error) {
	w := record.NewArgWriter(nil, engine)

	for i, arg := range args {
		switch v := arg.(type) {
		case nil:
			w.WriteNull()
		case bool:
			w.WriteBool(v)
		case int:
			w.WriteInt(64, int64(v))
		case int8:
			w.WriteInt(8, int64(v))
		case int16:
			w.WriteInt(16, int64(v))
		case int32:
			w.WriteInt(32, int64(v))
		case int64:
			w.WriteInt(64, v)
		case uint:
			w.WriteUint(64, uint64(v))
		case uint8:
			w.WriteUint(8, uint64(v))
		case uint16:
			w.WriteUint(16, uint64(v))
		case uint32:
			w.WriteUint(32, uint64(v))
		case uint64:
			w.WriteUint(64, v)
		case uintptr:
			w.WritePointer(uint64(v))
		case float32:
			w.WriteFloat32(v)
		case float64:
			w.WriteFloat64(v)
		case string:
			w.WriteStringUTF8(v)
		case fmt.Stringer:
			w.WriteStringUTF8(v.String())
		default:
			return nil, fmt.Errorf("swiftlog: argument %d: %w", i, errs.ErrInvalidArgType)
		}
	}

	return w.Bytes(), nil
}
