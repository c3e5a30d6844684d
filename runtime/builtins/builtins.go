// Package builtins implements the reference built-in function library for
// external compatibility with the upstream template engine. The library is
// an external collaborator by design — only the invocation contract is
// fixed; this package is the in-module reference implementation the engine
// ships so the module runs end-to-end without a host supplying its own,
// behind the same Func contract a host is expected to extend or replace.
package builtins

import (
	"fmt"

	"github.com/aledsdavies/teng/core/value"
	"github.com/aledsdavies/teng/runtime/errlog"
	"github.com/aledsdavies/teng/runtime/escape"
)

// Context is what a built-in receives alongside its arguments: access to
// the error log, the render's declared encoding (affecting substr/len's
// byte-vs-codepoint semantics), and the active escaper stack (escape()/
// unescape() operate against its top content type). Whether a call site
// can be folded at compile time is not part of the Context; see
// Registry.IsPure.
type Context struct {
	Log      *errlog.Log
	Encoding string // lowercase label, e.g. "utf-8"
	Escaper  *escape.Stack
	LogPos   func(level errlog.Level, message string)
}

// Func is one built-in function's implementation.
type Func func(args []value.Value, ctx *Context) value.Value

// entry pairs a Func with whether it is pure (foldable at compile time;
// only RANDOM/NOW-style impure builtins must refuse folding).
type entry struct {
	fn   Func
	pure bool
}

// Registry is the set of built-in functions available to OpFunc
// instructions.
type Registry struct {
	funcs map[string]entry
}

// NewDefaultRegistry builds the registry with the minimum reference
// library.
func NewDefaultRegistry() *Registry {
	r := &Registry{funcs: map[string]entry{}}
	r.register("len", biLen, true)
	r.register("substr", biSubstr, true)
	r.register("wordsubstr", biWordSubstr, true)
	r.register("replace", biReplace, true)
	r.register("regex_replace", biRegexReplace, true)
	r.register("strtolower", biStrToLower, true)
	r.register("strtoupper", biStrToUpper, true)
	r.register("nl2br", biNl2Br, true)
	r.register("reorder", biReorder, true)
	r.register("escape", biEscape, true)
	r.register("unescape", biUnescape, true)
	r.register("urlescape", biURLEscape, true)
	r.register("round", biRound, true)
	r.register("numformat", biNumFormat, true)
	r.register("int", biInt, true)
	r.register("random", biRandom, false)
	r.register("now", biNow, false)
	r.register("date", biDate, true)
	r.register("sectotime", biSecToTime, true)
	r.register("isnumber", biIsNumber, true)
	return r
}

func (r *Registry) register(name string, fn Func, pure bool) {
	r.funcs[name] = entry{fn: fn, pure: pure}
}

// Call invokes name with args, logging an Error and returning Undefined for
// an unknown function.
func (r *Registry) Call(name string, args []value.Value, ctx *Context) value.Value {
	e, ok := r.funcs[name]
	if !ok {
		if ctx != nil && ctx.LogPos != nil {
			ctx.LogPos(errlog.Error, fmt.Sprintf("unknown function %q", name))
		}
		return value.Undefined
	}
	return e.fn(args, ctx)
}

// IsPure reports whether name is safe to evaluate at compile time: false
// for unregistered names so the optimizer never folds a call it cannot
// account for.
func (r *Registry) IsPure(name string) bool {
	e, ok := r.funcs[name]
	return ok && e.pure
}

// arg returns args[i], or Undefined if the call was short on arguments.
func arg(args []value.Value, i int) value.Value {
	if i < 0 || i >= len(args) {
		return value.Undefined
	}
	return args[i]
}

func argInt(args []value.Value, i int, def int64) int64 {
	v := arg(args, i)
	if n, ok := v.ToNumber(); ok {
		if n.Kind() == value.KindInteger {
			return n.AsInt()
		}
		return int64(n.AsReal())
	}
	return def
}
