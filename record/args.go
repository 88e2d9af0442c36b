package record

import (
	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/errs"
)

// Arg is a single decoded argument: Type selects which of the value fields
// is meaningful.
type Arg struct {
	Type ArgType
	I64  int64
	U64  uint64
	F32  float32
	F64  float64
	Str  string
}

// ArgWriter accumulates arguments into a caller-supplied buffer using the
// on-wire encoding: [type-tag: 1 byte][padding to natural alignment][payload],
// padded so the next argument starts aligned.
type ArgWriter struct {
	engine endian.EndianEngine
	buf    []byte
}

// NewArgWriter creates an ArgWriter appending into buf (which may be nil or
// have spare capacity already reserved by the caller's size precomputation).
func NewArgWriter(buf []byte, engine endian.EndianEngine) *ArgWriter {
	return &ArgWriter{engine: engine, buf: buf}
}

// Bytes returns the accumulated, 4-aligned argument section.
func (w *ArgWriter) Bytes() []byte { return w.buf }

func (w *ArgWriter) writeTag(t ArgType) {
	w.buf = append(w.buf, byte(t))
}

func (w *ArgWriter) pad(to int) {
	for len(w.buf)%to != 0 {
		w.buf = append(w.buf, 0)
	}
}

// WriteNull appends a null argument.
func (w *ArgWriter) WriteNull() { w.writeTag(TypeNull) }

// WriteBool appends a bool argument.
func (w *ArgWriter) WriteBool(v bool) {
	w.writeTag(TypeBool)
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// WritePointer appends a pointer-sized (u64) argument.
func (w *ArgWriter) WritePointer(v uint64) {
	w.writeTag(TypePointer)
	w.pad(alignOf(TypePointer))
	w.buf = w.engine.AppendUint64(w.buf, v)
}

// WriteInt writes the smallest signed integer tag that fits bits, one of
// 8/16/32/64.
func (w *ArgWriter) WriteInt(bits int, v int64) {
	switch bits {
	case 8:
		w.writeTag(TypeInt8)
		w.buf = append(w.buf, byte(v))
	case 16:
		w.writeTag(TypeInt16)
		w.pad(alignOf(TypeInt16))
		w.buf = w.engine.AppendUint16(w.buf, uint16(v))
	case 32:
		w.writeTag(TypeInt32)
		w.pad(alignOf(TypeInt32))
		w.buf = w.engine.AppendUint32(w.buf, uint32(v))
	default:
		w.writeTag(TypeInt64)
		w.pad(alignOf(TypeInt64))
		w.buf = w.engine.AppendUint64(w.buf, uint64(v))
	}
}

// WriteUint writes the smallest unsigned integer tag that fits bits.
func (w *ArgWriter) WriteUint(bits int, v uint64) {
	switch bits {
	case 8:
		w.writeTag(TypeUint8)
		w.buf = append(w.buf, byte(v))
	case 16:
		w.writeTag(TypeUint16)
		w.pad(alignOf(TypeUint16))
		w.buf = w.engine.AppendUint16(w.buf, uint16(v))
	case 32:
		w.writeTag(TypeUint32)
		w.pad(alignOf(TypeUint32))
		w.buf = w.engine.AppendUint32(w.buf, uint32(v))
	default:
		w.writeTag(TypeUint64)
		w.pad(alignOf(TypeUint64))
		w.buf = w.engine.AppendUint64(w.buf, v)
	}
}

// WriteChar8 appends a char8 argument.
func (w *ArgWriter) WriteChar8(v uint8) {
	w.writeTag(TypeChar8)
	w.buf = append(w.buf, v)
}

// WriteChar16 appends a char16 argument.
func (w *ArgWriter) WriteChar16(v uint16) {
	w.writeTag(TypeChar16)
	w.pad(alignOf(TypeChar16))
	w.buf = w.engine.AppendUint16(w.buf, v)
}

// WriteChar32 appends a char32 argument.
func (w *ArgWriter) WriteChar32(v uint32) {
	w.writeTag(TypeChar32)
	w.pad(alignOf(TypeChar32))
	w.buf = w.engine.AppendUint32(w.buf, v)
}

// WriteFloat32 appends a float32 argument.
func (w *ArgWriter) WriteFloat32(v float32) {
	w.writeTag(TypeFloat32)
	w.pad(alignOf(TypeFloat32))
	bits := float32bits(v)
	w.buf = w.engine.AppendUint32(w.buf, bits)
}

// WriteFloat64 appends a float64 argument.
func (w *ArgWriter) WriteFloat64(v float64) {
	w.writeTag(TypeFloat64)
	w.pad(alignOf(TypeFloat64))
	bits := float64bits(v)
	w.buf = w.engine.AppendUint64(w.buf, bits)
}

// WriteStringUTF8 appends a UTF-8 string argument as {len: u32}{bytes}.
func (w *ArgWriter) WriteStringUTF8(s string) {
	w.writeTag(TypeStringUTF8)
	w.pad(4)
	w.buf = w.engine.AppendUint32(w.buf, uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteStringUTF16 appends a UTF-16 string argument (already transcoded by
// the caller) as {len: u32}{bytes}. UTF-32 inputs must be transcoded to
// UTF-16 before calling this.
func (w *ArgWriter) WriteStringUTF16(units []uint16) {
	w.writeTag(TypeStringUTF16)
	w.pad(4)
	w.buf = w.engine.AppendUint32(w.buf, uint32(len(units)*2))
	for _, u := range units {
		w.buf = w.engine.AppendUint16(w.buf, u)
	}
}

// ArgReader walks a previously encoded argument section.
type ArgReader struct {
	engine endian.EndianEngine
	buf    []byte
	pos    int
}

// NewArgReader creates an ArgReader over buf.
func NewArgReader(buf []byte, engine endian.EndianEngine) *ArgReader {
	return &ArgReader{engine: engine, buf: buf}
}

// Done reports whether every byte of the argument section has been consumed.
func (r *ArgReader) Done() bool { return r.pos >= len(r.buf) }

func (r *ArgReader) alignTo(n int) {
	for r.pos%n != 0 && r.pos < len(r.buf) {
		r.pos++
	}
}

// Next decodes the next argument.
func (r *ArgReader) Next() (Arg, error) {
	if r.pos >= len(r.buf) {
		return Arg{}, errs.ErrTruncatedRecord
	}

	t := ArgType(r.buf[r.pos])
	r.pos++

	switch t {
	case TypeNull:
		return Arg{Type: t}, nil
	case TypeBool:
		if r.pos >= len(r.buf) {
			return Arg{}, errs.ErrTruncatedRecord
		}
		v := r.buf[r.pos] != 0
		r.pos++
		a := Arg{Type: t}
		if v {
			a.U64 = 1
		}
		return a, nil
	case TypeInt8:
		if r.pos >= len(r.buf) {
			return Arg{}, errs.ErrTruncatedRecord
		}
		v := int64(int8(r.buf[r.pos]))
		r.pos++
		return Arg{Type: t, I64: v}, nil
	case TypeUint8:
		if r.pos >= len(r.buf) {
			return Arg{}, errs.ErrTruncatedRecord
		}
		v := uint64(r.buf[r.pos])
		r.pos++
		return Arg{Type: t, U64: v}, nil
	case TypeInt16, TypeUint16, TypeChar16:
		r.alignTo(alignOf(TypeInt16))
		if r.pos+2 > len(r.buf) {
			return Arg{}, errs.ErrTruncatedRecord
		}
		u := r.engine.Uint16(r.buf[r.pos : r.pos+2])
		r.pos += 2
		a := Arg{Type: t}
		if t == TypeInt16 {
			a.I64 = int64(int16(u))
		} else {
			a.U64 = uint64(u)
		}
		return a, nil
	case TypeInt32, TypeUint32, TypeChar32:
		r.alignTo(alignOf(TypeInt32))
		if r.pos+4 > len(r.buf) {
			return Arg{}, errs.ErrTruncatedRecord
		}
		u := r.engine.Uint32(r.buf[r.pos : r.pos+4])
		r.pos += 4
		a := Arg{Type: t}
		if t == TypeInt32 {
			a.I64 = int64(int32(u))
		} else {
			a.U64 = uint64(u)
		}
		return a, nil
	case TypeFloat32:
		r.alignTo(alignOf(TypeFloat32))
		if r.pos+4 > len(r.buf) {
			return Arg{}, errs.ErrTruncatedRecord
		}
		bits := r.engine.Uint32(r.buf[r.pos : r.pos+4])
		r.pos += 4
		return Arg{Type: t, F32: float32frombits(bits)}, nil
	case TypeInt64, TypeUint64, TypePointer:
		r.alignTo(alignOf(TypeInt64))
		if r.pos+8 > len(r.buf) {
			return Arg{}, errs.ErrTruncatedRecord
		}
		u := r.engine.Uint64(r.buf[r.pos : r.pos+8])
		r.pos += 8
		a := Arg{Type: t}
		if t == TypeInt64 {
			a.I64 = int64(u)
		} else {
			a.U64 = u
		}
		return a, nil
	case TypeFloat64:
		r.alignTo(alignOf(TypeFloat64))
		if r.pos+8 > len(r.buf) {
			return Arg{}, errs.ErrTruncatedRecord
		}
		bits := r.engine.Uint64(r.buf[r.pos : r.pos+8])
		r.pos += 8
		return Arg{Type: t, F64: float64frombits(bits)}, nil
	case TypeChar8:
		if r.pos >= len(r.buf) {
			return Arg{}, errs.ErrTruncatedRecord
		}
		v := uint64(r.buf[r.pos])
		r.pos++
		return Arg{Type: t, U64: v}, nil
	case TypeStringUTF8:
		r.alignTo(4)
		if r.pos+4 > len(r.buf) {
			return Arg{}, errs.ErrTruncatedRecord
		}
		n := r.engine.Uint32(r.buf[r.pos : r.pos+4])
		r.pos += 4
		if r.pos+int(n) > len(r.buf) {
			return Arg{}, errs.ErrTruncatedRecord
		}
		s := string(r.buf[r.pos : r.pos+int(n)])
		r.pos += int(n)
		return Arg{Type: t, Str: s}, nil
	case TypeStringUTF16:
		r.alignTo(4)
		if r.pos+4 > len(r.buf) {
			return Arg{}, errs.ErrTruncatedRecord
		}
		byteLen := r.engine.Uint32(r.buf[r.pos : r.pos+4])
		r.pos += 4
		if r.pos+int(byteLen) > len(r.buf) {
			return Arg{}, errs.ErrTruncatedRecord
		}
		units := make([]uint16, byteLen/2)
		for i := range units {
			units[i] = r.engine.Uint16(r.buf[r.pos : r.pos+2])
			r.pos += 2
		}
		return Arg{Type: t, Str: string(utf16ToRunes(units))}, nil
	default:
		return Arg{}, errs.ErrInvalidArgType
	}
}
