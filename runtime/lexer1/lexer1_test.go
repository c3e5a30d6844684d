package lexer1

import (
	"testing"

	"github.com/aledsdavies/teng/core/source"
)

func lexAll(t *testing.T, src string, opts Options) []Token {
	t.Helper()
	interner := source.NewInterner()
	fname := interner.Intern("test.html")
	l := New(src, fname, opts)
	return Tokens(l)
}

func TestTextAndExpr(t *testing.T) {
	toks := lexAll(t, "hello ${name}!", Options{})
	if len(toks) != 4 { // TEXT, EXPR, TEXT, EOF
		t.Fatalf("got %d tokens: %+v", len(toks), toks)
	}
	if toks[0].Kind != TEXT || toks[0].Text != "hello " {
		t.Errorf("token 0 = %+v", toks[0])
	}
	if toks[1].Kind != EXPR || toks[1].Text != "name" {
		t.Errorf("token 1 = %+v", toks[1])
	}
	if toks[2].Kind != TEXT || toks[2].Text != "!" {
		t.Errorf("token 2 = %+v", toks[2])
	}
	if toks[3].Kind != END_OF_INPUT {
		t.Errorf("token 3 = %+v", toks[3])
	}
}

func TestDictAndTeng(t *testing.T) {
	toks := lexAll(t, `#{greeting}<?teng if x ?>yes<?teng endif ?>`, Options{})
	kinds := []Kind{DICT, TENG, TEXT, TENG, END_OF_INPUT}
	if len(toks) != len(kinds) {
		t.Fatalf("got %d tokens: %+v", len(toks), toks)
	}
	for i, k := range kinds {
		if toks[i].Kind != k {
			t.Errorf("token %d kind = %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestShortTagGatedByOption(t *testing.T) {
	toks := lexAll(t, `<? if x ?>`, Options{ShortTagEnabled: false})
	if toks[0].Kind != TEXT {
		t.Errorf("short tag should be literal text when disabled, got %+v", toks[0])
	}

	toks = lexAll(t, `<? if x ?>`, Options{ShortTagEnabled: true})
	if toks[0].Kind != TENG_SHORT {
		t.Errorf("short tag should lex when enabled, got %+v", toks[0])
	}
}

func TestEscapeDigraphs(t *testing.T) {
	toks := lexAll(t, `\${not expr\} and \#{not dict\} and \<?not directive\?>`, Options{})
	if len(toks) != 2 {
		t.Fatalf("got %d tokens: %+v", len(toks), toks)
	}
	want := "${not expr} and #{not dict} and <?not directive?>"
	if toks[0].Text != want {
		t.Errorf("Text = %q, want %q", toks[0].Text, want)
	}
}

func TestStringSuppressesDelimiters(t *testing.T) {
	toks := lexAll(t, `<?teng set x = "a ?> b" ?>`, Options{})
	if toks[0].Kind != TENG {
		t.Fatalf("expected TENG token, got %+v", toks[0])
	}
	want := ` set x = "a ?> b" `
	if toks[0].Text != want {
		t.Errorf("Text = %q, want %q", toks[0].Text, want)
	}
}

func TestBlockCommentRemoved(t *testing.T) {
	toks := lexAll(t, "a<!--- comment --->b", Options{})
	if len(toks) != 2 {
		t.Fatalf("got %d tokens: %+v", len(toks), toks)
	}
	if toks[0].Text != "ab" {
		t.Errorf("Text = %q, want %q", toks[0].Text, "ab")
	}
}

func TestUnterminatedCommentIsFatal(t *testing.T) {
	toks := lexAll(t, "a<!--- never closes", Options{})
	last := toks[len(toks)-1]
	if last.Kind != ERROR {
		t.Fatalf("expected ERROR token for unterminated comment, got %+v", last)
	}
}

func TestUnterminatedDirectiveIsFatal(t *testing.T) {
	toks := lexAll(t, "${unterminated", Options{})
	last := toks[len(toks)-1]
	if last.Kind != ERROR {
		t.Fatalf("expected ERROR token for unterminated directive, got %+v", last)
	}
}
