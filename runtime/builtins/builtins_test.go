package builtins

import (
	"testing"

	"github.com/aledsdavies/teng/core/value"
	"github.com/aledsdavies/teng/runtime/errlog"
	"github.com/dlclark/regexp2"
)

func TestLenUTF8(t *testing.T) {
	r := NewDefaultRegistry()
	ctx := &Context{Encoding: "utf-8"}
	got := r.Call("len", []value.Value{value.Str("héllo")}, ctx)
	if got.AsInt() != 5 {
		t.Errorf("len = %d, want 5", got.AsInt())
	}
}

func TestSubstr(t *testing.T) {
	r := NewDefaultRegistry()
	ctx := &Context{Encoding: "utf-8"}
	got := r.Call("substr", []value.Value{value.Str("hello world"), value.Int(6), value.Int(5)}, ctx)
	if got.ToString() != "world" {
		t.Errorf("substr = %q, want world", got.ToString())
	}
}

func TestReplace(t *testing.T) {
	r := NewDefaultRegistry()
	got := r.Call("replace", []value.Value{value.Str("a-b-c"), value.Str("-"), value.Str("+")}, nil)
	if got.ToString() != "a+b+c" {
		t.Errorf("replace = %q", got.ToString())
	}
}

func TestReorderPositional(t *testing.T) {
	r := NewDefaultRegistry()
	got := r.Call("reorder", []value.Value{value.Str("%2 before %1"), value.Str("a"), value.Str("b")}, nil)
	if got.ToString() != "b before a" {
		t.Errorf("reorder = %q", got.ToString())
	}
}

func TestRoundAndInt(t *testing.T) {
	r := NewDefaultRegistry()
	if got := r.Call("round", []value.Value{value.Real(3.456), value.Int(1)}, nil); got.AsReal() != 3.5 {
		t.Errorf("round = %v, want 3.5", got.AsReal())
	}
	if got := r.Call("int", []value.Value{value.Real(3.9)}, nil); got.AsInt() != 3 {
		t.Errorf("int = %d, want 3", got.AsInt())
	}
}

func TestNumFormat(t *testing.T) {
	r := NewDefaultRegistry()
	got := r.Call("numformat", []value.Value{value.Int(1234567), value.Str("."), value.Str(",")}, nil)
	if got.ToString() != "1,234,567" {
		t.Errorf("numformat = %q", got.ToString())
	}
}

func TestIsNumber(t *testing.T) {
	r := NewDefaultRegistry()
	if r.Call("isnumber", []value.Value{value.Str("42")}, nil).AsInt() != 1 {
		t.Error("isnumber('42') should be true")
	}
	if r.Call("isnumber", []value.Value{value.Str("abc")}, nil).AsInt() != 0 {
		t.Error("isnumber('abc') should be false")
	}
}

func TestRegexReplace(t *testing.T) {
	r := NewDefaultRegistry()
	prog := regexp2.MustCompile(`(\w+)@(\w+)`, regexp2.None)
	pattern := value.RegexVal(&value.Regex{
		Source:  `(\w+)@(\w+)`,
		Flags:   value.RegexFlags{G: true},
		Program: prog,
	})
	got := r.Call("regex_replace", []value.Value{value.Str("a@b c@d"), pattern, value.Str("$2@$1")}, nil)
	if got.ToString() != "b@a d@c" {
		t.Errorf("regex_replace = %q, want b@a d@c", got.ToString())
	}
}

func TestUnknownFunctionLogsError(t *testing.T) {
	r := NewDefaultRegistry()
	var logged string
	ctx := &Context{LogPos: func(lvl errlog.Level, msg string) { logged = msg }}
	got := r.Call("nope", nil, ctx)
	if !got.IsUndefined() {
		t.Error("unknown function should return undefined")
	}
	if logged == "" {
		t.Error("unknown function call should log an error")
	}
}

func TestPurityClassification(t *testing.T) {
	r := NewDefaultRegistry()
	if !r.IsPure("len") {
		t.Error("len should be pure")
	}
	if r.IsPure("random") {
		t.Error("random should not be pure")
	}
	if r.IsPure("now") {
		t.Error("now should not be pure")
	}
}
