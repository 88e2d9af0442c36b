package decoder

import (
	"errors"

	"github.com/swiftlog/swiftlog/errs"
)

// ResultCode classifies a decode failure for the CLI's exit status, which
// reports -int(code) on failure.
type ResultCode int

const (
	ResultOK ResultCode = iota
	ResultEOF
	ResultIOError
	ResultInvalid
	ResultInvalidHandle
	ResultVersionMismatch
)

// ClassifyError maps a decoder error to its ResultCode.
func ClassifyError(err error) ResultCode {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, errs.ErrDecodeEOF):
		return ResultEOF
	case errors.Is(err, errs.ErrDecodeIO):
		return ResultIOError
	case errors.Is(err, errs.ErrDecodeInvalidHandle):
		return ResultInvalidHandle
	case errors.Is(err, errs.ErrVersionMismatch):
		return ResultVersionMismatch
	default:
		return ResultInvalid
	}
}
