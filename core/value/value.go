// Package value implements the Teng runtime value model: a tagged variant
// covering undefined, integer, real, string, string_ref, frag_ref, list_ref
// and regex, plus the Fragment/FragmentList data tree the host application
// builds and the engine reads from.
package value

import (
	"github.com/dlclark/regexp2"
)

// Kind tags which variant a Value currently holds.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindInteger
	KindReal
	KindString
	KindStringRef
	KindFragRef
	KindListRef
	KindRegex
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindString:
		return "string"
	case KindStringRef:
		return "string_ref"
	case KindFragRef:
		return "frag_ref"
	case KindListRef:
		return "list_ref"
	case KindRegex:
		return "regex"
	default:
		return "unknown"
	}
}

// RegexFlags mirrors the flag bits Teng regex literals carry: i
// (case-insensitive), g (global replace), m (multiline ^$), A (anchored),
// D (dollar-end-only), e (eval replacement), X (extended/free-spacing),
// U (ungreedy).
type RegexFlags struct {
	I, G, M, A, D, E, X, U bool
}

// Regex is a compiled pattern plus its flag bits.
type Regex struct {
	Source  string
	Flags   RegexFlags
	Program *regexp2.Regexp
}

// Value is the tagged runtime variant. The zero Value is KindUndefined.
//
// String and StringRef both carry their text in s: Go strings are immutable
// and garbage-collected, so there is no lifetime hazard distinguishing an
// "owned" string from a "borrowed" one the way there is in the C++ original;
// the two Kinds are kept distinct anyway so type()/REPR report the same
// variant a host built the data tree with, and so the render pipeline can
// still assert that a StringRef value never survives past the single
// render call that produced it, which matters once Fragments are
// pooled/reused across renders.
type Value struct {
	kind    Kind
	i       int64
	r       float64
	s       string
	frag    *Fragment
	list    *FragmentList
	listIdx int
	regex   *Regex
}

// Undefined is the shared sentinel for missing lookups.
var Undefined = Value{kind: KindUndefined}

// Int constructs an integer Value.
func Int(i int64) Value { return Value{kind: KindInteger, i: i} }

// Real constructs a real (double) Value.
func Real(r float64) Value { return Value{kind: KindReal, r: r} }

// Str constructs an owned string Value.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// StrRef constructs a borrowed string Value, scoped to the current render.
func StrRef(s string) Value { return Value{kind: KindStringRef, s: s} }

// FragRefVal constructs a Value referencing a fragment in the data tree.
func FragRefVal(f *Fragment) Value { return Value{kind: KindFragRef, frag: f} }

// ListRefVal constructs a Value iterating a fragment list starting at idx.
func ListRefVal(l *FragmentList, idx int) Value {
	return Value{kind: KindListRef, list: l, listIdx: idx}
}

// RegexVal constructs a regex Value.
func RegexVal(r *Regex) Value { return Value{kind: KindRegex, regex: r} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsUndefined reports whether v is the undefined sentinel.
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

// AsInt returns the integer payload; valid only when Kind() == KindInteger.
func (v Value) AsInt() int64 { return v.i }

// AsReal returns the real payload; valid only when Kind() == KindReal.
func (v Value) AsReal() float64 { return v.r }

// AsString returns the string payload for KindString/KindStringRef.
func (v Value) AsString() string { return v.s }

// AsFrag returns the referenced fragment for KindFragRef.
func (v Value) AsFrag() *Fragment { return v.frag }

// AsList returns the referenced list and current index for KindListRef.
func (v Value) AsList() (*FragmentList, int) { return v.list, v.listIdx }

// AsRegex returns the compiled regex for KindRegex.
func (v Value) AsRegex() *Regex { return v.regex }

// WithListIndex returns a copy of v (which must be KindListRef) advanced to idx.
func (v Value) WithListIndex(idx int) Value {
	v.listIdx = idx
	return v
}
