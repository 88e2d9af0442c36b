package layout

import (
	"github.com/swiftlog/swiftlog/errs"
	"github.com/swiftlog/swiftlog/record"
)

// renderArg dispatches a decoded argument by its wire type tag to the
// matching text rendering, then pads/aligns per the placeholder spec.
func renderArg(a record.Arg, spec placeholderSpec) (string, error) {
	switch a.Type {
	case record.TypeNull:
		return applyPadAlign("null", spec, false), nil

	case record.TypeBool:
		if spec.typ != 0 {
			return applyPadAlign(renderIntegerText(a.U64, false, spec), spec, true), nil
		}
		s := "false"
		if a.U64 != 0 {
			s = "true"
		}
		return applyPadAlign(s, spec, false), nil

	case record.TypePointer:
		ptrSpec := spec
		if ptrSpec.typ == 0 {
			ptrSpec.typ = 'x'
			ptrSpec.alt = true
		}
		return applyPadAlign(renderIntegerText(a.U64, false, ptrSpec), ptrSpec, true), nil

	case record.TypeChar8, record.TypeChar16, record.TypeChar32:
		return applyPadAlign(string(rune(a.U64)), spec, false), nil

	case record.TypeInt8, record.TypeInt16, record.TypeInt32, record.TypeInt64:
		negative := a.I64 < 0
		mag := uint64(a.I64)
		if negative {
			mag = uint64(-(a.I64 + 1)) + 1 // avoids overflow at math.MinInt64
		}
		return applyPadAlign(renderIntegerText(mag, negative, spec), spec, true), nil

	case record.TypeUint8, record.TypeUint16, record.TypeUint32, record.TypeUint64:
		return applyPadAlign(renderIntegerText(a.U64, false, spec), spec, true), nil

	case record.TypeFloat32:
		return applyPadAlign(renderFloatText(float64(a.F32), 32, spec), spec, true), nil

	case record.TypeFloat64:
		return applyPadAlign(renderFloatText(a.F64, 64, spec), spec, true), nil

	case record.TypeStringUTF8, record.TypeStringUTF16:
		s := a.Str
		if spec.precision >= 0 {
			r := []rune(s)
			if spec.precision < len(r) {
				s = string(r[:spec.precision])
			}
		}
		return applyPadAlign(s, spec, false), nil

	default:
		return "", errs.ErrInvalidArgType
	}
}
