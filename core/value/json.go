package value

import "strconv"

// JSONMode selects between JSON-proper escaping and JS-string escaping for
// the "/" character: JSON mode emits it verbatim, JS mode escapes it as
// "\/" to guard against a literal "</script>" breaking out of an inline
// <script> block.
type JSONMode int

const (
	JSONStrict JSONMode = iota
	JSONForJS
)

// AppendJSON appends v's JSON representation to buf and returns the
// extended slice. Scalars only: fragments/lists are serialized by
// (*Fragment).AppendJSON / (*FragmentList).AppendJSON.
func (v Value) AppendJSON(buf []byte, mode JSONMode) []byte {
	switch v.kind {
	case KindUndefined:
		return append(buf, "null"...)
	case KindInteger:
		return strconv.AppendInt(buf, v.i, 10)
	case KindReal:
		return strconv.AppendFloat(buf, v.r, 'g', -1, 64)
	case KindString, KindStringRef:
		return appendJSONString(buf, v.s, mode)
	case KindFragRef:
		if v.frag == nil {
			return append(buf, "null"...)
		}
		return v.frag.AppendJSON(buf, mode)
	case KindListRef:
		if v.list == nil {
			return append(buf, "null"...)
		}
		return v.list.AppendJSON(buf, mode)
	case KindRegex:
		src := ""
		if v.regex != nil {
			src = v.regex.Source
		}
		return appendJSONString(buf, src, mode)
	default:
		return append(buf, "null"...)
	}
}

// JSON renders v as a standalone RFC-8259 JSON value.
func (v Value) JSON() string {
	return string(v.AppendJSON(nil, JSONStrict))
}

// appendJSONString escapes s: control bytes 0x00-0x1F other than \n \r \t
// use their C escapes or \u00XX, '"' and '\' are escaped, and '/' is
// verbatim in JSON mode, "\/" in JS mode. encoding/json cannot be asked to
// do the JS-mode "/" escaping or guarantee the exact \u00XX form for every
// control byte, so this is hand-rolled.
func appendJSONString(buf []byte, s string, mode JSONMode) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			buf = append(buf, '\\', '"')
		case c == '\\':
			buf = append(buf, '\\', '\\')
		case c == '/':
			if mode == JSONForJS {
				buf = append(buf, '\\', '/')
			} else {
				buf = append(buf, '/')
			}
		case c == '\n':
			buf = append(buf, '\\', 'n')
		case c == '\r':
			buf = append(buf, '\\', 'r')
		case c == '\t':
			buf = append(buf, '\\', 't')
		case c < 0x20:
			buf = append(buf, '\\', 'u', '0', '0', hexDigit(c>>4), hexDigit(c&0xF))
		default:
			buf = append(buf, c)
		}
	}
	return append(buf, '"')
}

func hexDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'a' + (n - 10)
}

// AppendJSON serializes f as a JSON object in insertion order.
func (f *Fragment) AppendJSON(buf []byte, mode JSONMode) []byte {
	buf = append(buf, '{')
	for i, name := range f.order {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendJSONString(buf, name, mode)
		buf = append(buf, ':')
		buf = f.items[name].AppendJSON(buf, mode)
	}
	return append(buf, '}')
}

// JSON renders f as a standalone JSON object.
func (f *Fragment) JSON() string { return string(f.AppendJSON(nil, JSONStrict)) }

// AppendJSON serializes fv as its JSON value.
func (fv *FragmentValue) AppendJSON(buf []byte, mode JSONMode) []byte {
	switch fv.kind {
	case FragScalarString:
		return appendJSONString(buf, fv.str, mode)
	case FragScalarInt:
		return strconv.AppendInt(buf, fv.i, 10)
	case FragScalarReal:
		return strconv.AppendFloat(buf, fv.r, 'g', -1, 64)
	case FragNested:
		return fv.nested.AppendJSON(buf, mode)
	case FragList:
		return fv.list.AppendJSON(buf, mode)
	default:
		return append(buf, "null"...)
	}
}

// AppendJSON serializes l as a JSON array.
func (l *FragmentList) AppendJSON(buf []byte, mode JSONMode) []byte {
	buf = append(buf, '[')
	for i, f := range l.items {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = f.AppendJSON(buf, mode)
	}
	return append(buf, ']')
}

// JSON renders l as a standalone JSON array.
func (l *FragmentList) JSON() string { return string(l.AppendJSON(nil, JSONStrict)) }
