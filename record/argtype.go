package record

// ArgType tags the wire representation of a single logged argument.
type ArgType uint8

// Recognized argument type tags.
const (
	TypeNull ArgType = iota
	TypePointer
	TypeBool
	TypeChar8
	TypeChar16
	TypeChar32
	TypeInt8
	TypeUint8
	TypeInt16
	TypeUint16
	TypeInt32
	TypeUint32
	TypeInt64
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeStringUTF8
	TypeStringUTF16
)

func (t ArgType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypePointer:
		return "pointer"
	case TypeBool:
		return "bool"
	case TypeChar8:
		return "char8"
	case TypeChar16:
		return "char16"
	case TypeChar32:
		return "char32"
	case TypeInt8:
		return "int8"
	case TypeUint8:
		return "uint8"
	case TypeInt16:
		return "int16"
	case TypeUint16:
		return "uint16"
	case TypeInt32:
		return "int32"
	case TypeUint32:
		return "uint32"
	case TypeInt64:
		return "int64"
	case TypeUint64:
		return "uint64"
	case TypeFloat32:
		return "float32"
	case TypeFloat64:
		return "float64"
	case TypeStringUTF8:
		return "string-utf8"
	case TypeStringUTF16:
		return "string-utf16"
	default:
		return "unknown"
	}
}

// FixedPayloadSize returns the natural payload size (before alignment
// padding) of a fixed-width argument type. Variable-width types (strings)
// return -1; their size is only known at call time.
func (t ArgType) FixedPayloadSize() int {
	switch t {
	case TypeNull:
		return 0
	case TypePointer, TypeInt64, TypeUint64, TypeFloat64:
		return 8
	case TypeBool, TypeChar8, TypeInt8, TypeUint8:
		return 1
	case TypeChar16, TypeInt16, TypeUint16:
		return 2
	case TypeChar32, TypeInt32, TypeUint32, TypeFloat32:
		return 4
	case TypeStringUTF8, TypeStringUTF16:
		return -1
	default:
		return -1
	}
}

// alignOf returns the natural alignment, in bytes, of an argument's payload.
// Each argument is padded so the *next* argument's payload begins at this
// boundary, up to a maximum of 4 bytes (the head/args section is itself
// only 4-byte aligned).
func alignOf(t ArgType) int {
	switch t.FixedPayloadSize() {
	case 8:
		return 4 // capped at 4: the enclosing record is only 4-aligned
	case 4:
		return 4
	case 2:
		return 2
	default:
		return 1
	}
}

func align4(n int) int {
	return (n + 3) &^ 3
}
