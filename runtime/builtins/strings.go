package builtins

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aledsdavies/teng/core/value"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// biLen implements len(s): byte length for a byte encoding, rune count for
// utf-8.
func biLen(args []value.Value, ctx *Context) value.Value {
	s := arg(args, 0).ToString()
	if ctx != nil && ctx.Encoding == "utf-8" {
		return value.Int(int64(utf8.RuneCountInString(s)))
	}
	return value.Int(int64(len(s)))
}

// codepoints returns s split into its encoding-appropriate units: runes
// for utf-8, bytes otherwise.
func codepoints(s string, ctx *Context) []string {
	if ctx != nil && ctx.Encoding == "utf-8" {
		out := make([]string, 0, len(s))
		for _, r := range s {
			out = append(out, string(r))
		}
		return out
	}
	out := make([]string, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = string(s[i])
	}
	return out
}

// biSubstr implements substr(s, start[, len]) with encoding-aware indexing.
func biSubstr(args []value.Value, ctx *Context) value.Value {
	s := arg(args, 0).ToString()
	units := codepoints(s, ctx)
	start := int(argInt(args, 1, 0))
	length := int(argInt(args, 2, int64(len(units))))
	if start < 0 {
		start = 0
	}
	if start >= len(units) {
		return value.Str("")
	}
	end := start + length
	if end > len(units) || length < 0 {
		end = len(units)
	}
	return value.Str(strings.Join(units[start:end], ""))
}

// biWordSubstr is substr's word-safe variant: it never splits the word the
// requested range straddles.
func biWordSubstr(args []value.Value, ctx *Context) value.Value {
	s := arg(args, 0).ToString()
	units := codepoints(s, ctx)
	start := int(argInt(args, 1, 0))
	length := int(argInt(args, 2, int64(len(units))))
	if start < 0 {
		start = 0
	}
	if start >= len(units) {
		return value.Str("")
	}
	end := start + length
	if end > len(units) || length < 0 {
		end = len(units)
	}
	// Extend start back to the nearest preceding whitespace, and end
	// forward to the nearest following whitespace, so no word is split.
	for start > 0 && !isWordBoundary(units[start-1]) {
		start--
	}
	for end < len(units) && end > 0 && !isWordBoundary(units[end-1]) {
		end++
	}
	return value.Str(strings.Join(units[start:end], ""))
}

func isWordBoundary(unit string) bool {
	return unit == " " || unit == "\t" || unit == "\n"
}

// biReplace implements replace(s, from, to): every literal occurrence of
// from in s is replaced by to.
func biReplace(args []value.Value, ctx *Context) value.Value {
	s := arg(args, 0).ToString()
	from := arg(args, 1).ToString()
	to := arg(args, 2).ToString()
	if from == "" {
		return value.Str(s)
	}
	return value.Str(strings.ReplaceAll(s, from, to))
}

// biRegexReplace implements regex_replace(s, pattern_value, replacement):
// pattern_value must be a KindRegex Value (a /pattern/flags literal), whose
// flags select global vs. first-match replace.
func biRegexReplace(args []value.Value, ctx *Context) value.Value {
	s := arg(args, 0).ToString()
	pv := arg(args, 1)
	to := arg(args, 2).ToString()
	if pv.Kind() != value.KindRegex || pv.AsRegex() == nil || pv.AsRegex().Program == nil {
		return value.Undefined
	}
	re := pv.AsRegex()
	count := 1
	if re.Flags.G {
		count = -1
	}
	// regexp2's Replace already understands $1/${name}-style backreference
	// templates natively, so the replacement string passes straight through.
	out, err := re.Program.Replace(s, to, 0, count)
	if err != nil {
		return value.Str(s)
	}
	return value.Str(out)
}

func biStrToLower(args []value.Value, ctx *Context) value.Value {
	return value.Str(cases.Lower(language.Und).String(arg(args, 0).ToString()))
}

func biStrToUpper(args []value.Value, ctx *Context) value.Value {
	return value.Str(cases.Upper(language.Und).String(arg(args, 0).ToString()))
}

// biNl2Br implements nl2br(s): every newline becomes "<br />\n".
func biNl2Br(args []value.Value, ctx *Context) value.Value {
	s := arg(args, 0).ToString()
	return value.Str(strings.ReplaceAll(s, "\n", "<br />\n"))
}

// biReorder implements sprintf-style positional substitution with "%1" and
// "%{1}" markers.
func biReorder(args []value.Value, ctx *Context) value.Value {
	tmpl := arg(args, 0).ToString()
	rest := args[1:]
	var buf strings.Builder
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '%' || i+1 >= len(tmpl) {
			buf.WriteByte(tmpl[i])
			continue
		}
		if tmpl[i+1] == '%' {
			buf.WriteByte('%')
			i++
			continue
		}
		if tmpl[i+1] == '{' {
			end := strings.IndexByte(tmpl[i+2:], '}')
			if end < 0 {
				buf.WriteByte(tmpl[i])
				continue
			}
			n, err := strconv.Atoi(tmpl[i+2 : i+2+end])
			if err == nil && n >= 1 && n <= len(rest) {
				buf.WriteString(rest[n-1].ToString())
			}
			i += 2 + end
			continue
		}
		j := i + 1
		for j < len(tmpl) && tmpl[j] >= '0' && tmpl[j] <= '9' {
			j++
		}
		if j > i+1 {
			n, _ := strconv.Atoi(tmpl[i+1 : j])
			if n >= 1 && n <= len(rest) {
				buf.WriteString(rest[n-1].ToString())
			}
			i = j - 1
			continue
		}
		buf.WriteByte(tmpl[i])
	}
	return value.Str(buf.String())
}

func biIsNumber(args []value.Value, ctx *Context) value.Value {
	if _, ok := arg(args, 0).ToNumber(); ok {
		return value.Int(1)
	}
	return value.Int(0)
}
