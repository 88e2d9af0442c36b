package record

import (
	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/errs"
)

// ExtInfo carries the producer thread's identity, appended after a record's
// arguments. Populated once per producer thread (first-use) and reused for
// every subsequent record from that thread.
type ExtInfo struct {
	ThreadID   uint64
	ThreadName string
}

// Bytes serializes the ext-info block as {thread_id: u64}{name_len: u32}{name bytes}.
func (e ExtInfo) Bytes(engine endian.EndianEngine) []byte {
	buf := make([]byte, 0, 8+4+len(e.ThreadName))
	buf = engine.AppendUint64(buf, e.ThreadID)
	buf = engine.AppendUint32(buf, uint32(len(e.ThreadName)))
	buf = append(buf, e.ThreadName...)

	return buf
}

// ParseExtInfo parses an ExtInfo from src.
func ParseExtInfo(src []byte, engine endian.EndianEngine) (ExtInfo, error) {
	if len(src) < 12 {
		return ExtInfo{}, errs.ErrTruncatedRecord
	}

	id := engine.Uint64(src[0:8])
	nameLen := engine.Uint32(src[8:12])
	if len(src) < 12+int(nameLen) {
		return ExtInfo{}, errs.ErrTruncatedRecord
	}

	name := string(src[12 : 12+int(nameLen)])

	return ExtInfo{ThreadID: id, ThreadName: name}, nil
}
