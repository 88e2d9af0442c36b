package layout

import (
	"strconv"

	"github.com/swiftlog/swiftlog/errs"
)

// placeholderSpec is the parsed contents of a `{...}` body, excluding the
// braces themselves: `":"[fill][align][sign]["#"][width]["." precision][type]`.
type placeholderSpec struct {
	fill      rune
	align     rune // 0, '<', '>', '^'
	sign      rune // 0, '+', '-'
	alt       bool
	zeroPad   bool // leading "0" before width: sign/prefix-aware zero fill
	width     int
	precision int // -1 if absent
	typ       rune
}

func isAlignRune(r rune) bool {
	return r == '<' || r == '>' || r == '^'
}

func isDigitRune(r rune) bool {
	return r >= '0' && r <= '9'
}

func isTypeRune(r rune) bool {
	switch r {
	case 'b', 'B', 'o', 'd', 'x', 'X', 'e', 'E', 'f', 'F':
		return true
	}

	return false
}

// parsePlaceholder parses the text between a `{` and its matching `}`.
// Leading decimal digits are a positional index accepted for compatibility
// but always discarded: every placeholder consumes the next argument in
// call order, never the one named by an in-brace index.
func parsePlaceholder(content []byte) (placeholderSpec, error) {
	spec := placeholderSpec{precision: -1}

	i := 0
	for i < len(content) && content[i] >= '0' && content[i] <= '9' {
		i++
	}
	rest := content[i:]

	if len(rest) == 0 {
		return spec, nil
	}
	if rest[0] != ':' {
		return spec, errs.ErrInvalidPlaceholder
	}

	r := []rune(string(rest[1:]))
	pos := 0

	if len(r) >= 2 && isAlignRune(r[1]) {
		spec.fill = r[0]
		spec.align = r[1]
		pos = 2
	} else if len(r) >= 1 && isAlignRune(r[0]) {
		spec.align = r[0]
		pos = 1
	}

	if pos < len(r) && (r[pos] == '+' || r[pos] == '-') {
		spec.sign = r[pos]
		pos++
	}

	if pos < len(r) && r[pos] == '#' {
		spec.alt = true
		pos++
	}

	zeroPad := false
	if pos < len(r) && r[pos] == '0' && spec.align == 0 {
		zeroPad = true
		pos++
	}

	widthStart := pos
	for pos < len(r) && isDigitRune(r[pos]) {
		pos++
	}
	if pos > widthStart {
		w, err := strconv.Atoi(string(r[widthStart:pos]))
		if err != nil || w < 1 || w > 99 {
			return spec, errs.ErrInvalidPlaceholder
		}
		spec.width = w
	} else if zeroPad {
		return spec, errs.ErrInvalidPlaceholder
	}
	spec.zeroPad = zeroPad

	if pos < len(r) && r[pos] == '.' {
		pos++
		precStart := pos
		for pos < len(r) && isDigitRune(r[pos]) {
			pos++
		}
		if pos == precStart {
			return spec, errs.ErrInvalidPlaceholder
		}
		p, err := strconv.Atoi(string(r[precStart:pos]))
		if err != nil {
			return spec, errs.ErrInvalidPlaceholder
		}
		spec.precision = p
	}

	if pos < len(r) {
		if !isTypeRune(r[pos]) {
			return spec, errs.ErrInvalidPlaceholder
		}
		spec.typ = r[pos]
		pos++
	}

	if pos != len(r) {
		return spec, errs.ErrInvalidPlaceholder
	}

	return spec, nil
}
