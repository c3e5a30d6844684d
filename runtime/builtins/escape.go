package builtins

import "github.com/aledsdavies/teng/core/value"

// biEscape implements escape(s): escapes s under the active content type.
func biEscape(args []value.Value, ctx *Context) value.Value {
	s := arg(args, 0).ToString()
	if ctx == nil || ctx.Escaper == nil {
		return value.Str(s)
	}
	return value.Str(ctx.Escaper.Escape(s))
}

// biUnescape implements unescape(s): the general runtime call, as opposed
// to the compile-time VAR-clearing peephole the parser applies directly to
// the preceding VAR instruction instead of emitting a FUNC call at all.
func biUnescape(args []value.Value, ctx *Context) value.Value {
	s := arg(args, 0).ToString()
	if ctx == nil || ctx.Escaper == nil {
		return value.Str(s)
	}
	return value.Str(ctx.Escaper.Unescape(s))
}
