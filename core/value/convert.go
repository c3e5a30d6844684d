package value

import (
	"strconv"
	"strings"
)

// ToString renders v in its stable textual form: integers in decimal,
// reals with trailing zeros trimmed but the decimal point kept,
// undefined/frag/list references as empty strings (they carry no text of
// their own; printing one directly is usually a template bug the error log
// already warned about upstream in EXISTS/DEFINED checks).
func (v Value) ToString() string {
	switch v.kind {
	case KindUndefined:
		return ""
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindReal:
		return formatReal(v.r)
	case KindString, KindStringRef:
		return v.s
	case KindRegex:
		if v.regex != nil {
			return "/" + v.regex.Source + "/"
		}
		return ""
	default:
		return ""
	}
}

// formatReal renders a float64 "%#f"-style (always a decimal point) with
// trailing zeros trimmed but the point kept.
func formatReal(r float64) string {
	s := strconv.FormatFloat(r, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ToBool implements Teng's truthiness rule: non-empty string, non-zero
// number, non-null reference.
func (v Value) ToBool() bool {
	switch v.kind {
	case KindUndefined:
		return false
	case KindInteger:
		return v.i != 0
	case KindReal:
		return v.r != 0
	case KindString, KindStringRef:
		return v.s != ""
	case KindFragRef:
		return v.frag != nil
	case KindListRef:
		return v.list != nil
	case KindRegex:
		return v.regex != nil
	default:
		return false
	}
}

// ToNumber attempts the lazy string->number coercion arithmetic and
// comparison operators apply to non-numeric operands: on failure it
// returns (Undefined, false); the caller is responsible for logging the
// runtime diagnostic when suppression isn't in effect.
func (v Value) ToNumber() (Value, bool) {
	switch v.kind {
	case KindInteger, KindReal:
		return v, true
	case KindString, KindStringRef:
		s := strings.TrimSpace(v.s)
		if s == "" {
			return Undefined, false
		}
		if i, err := strconv.ParseInt(s, 0, 64); err == nil {
			return Int(i), true
		}
		if r, err := strconv.ParseFloat(s, 64); err == nil {
			return Real(r), true
		}
		return Undefined, false
	default:
		return Undefined, false
	}
}

// IsNumeric reports whether v already carries a numeric Kind.
func (v Value) IsNumeric() bool { return v.kind == KindInteger || v.kind == KindReal }
