package lexer2

import "testing"

func typesOf(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func assertTypes(t *testing.T, src string, want ...TokenType) {
	t.Helper()
	toks := Tokens(New(src))
	got := typesOf(toks)
	if len(got) != len(want) {
		t.Fatalf("%q: got %v, want %v", src, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%q: token %d = %v, want %v", src, i, got[i], want[i])
		}
	}
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	assertTypes(t, "frag items", FRAG, IDENT, EOF)
	assertTypes(t, "if x == 1", IF, IDENT, EQEQ, INT, EOF)
	assertTypes(t, "_first", IDENT, EOF)
}

func TestNumberLiterals(t *testing.T) {
	toks := Tokens(New("42 0x1F 0b101 3.14 1e6 2.5e-3"))
	want := []TokenType{INT, INT, INT, REAL, REAL, REAL, EOF}
	got := typesOf(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStringEscapes(t *testing.T) {
	toks := Tokens(New(`"a\nb\"c"`))
	if toks[0].Type != STRING {
		t.Fatalf("expected STRING, got %v", toks[0].Type)
	}
	want := "a\nb\"c"
	if toks[0].Text != want {
		t.Errorf("Text = %q, want %q", toks[0].Text, want)
	}
}

func TestRegexLiteral(t *testing.T) {
	toks := Tokens(New(`/ab+c/img`))
	if toks[0].Type != REGEX {
		t.Fatalf("expected REGEX, got %v", toks[0].Type)
	}
	if toks[0].Text != "ab+c" || toks[0].RegexFlags != "img" {
		t.Errorf("got pattern=%q flags=%q", toks[0].Text, toks[0].RegexFlags)
	}
}

func TestDivisionVsRegexDisambiguation(t *testing.T) {
	// After an identifier, '/' is division, not a regex opener.
	assertTypes(t, "x / y", IDENT, SLASH, IDENT, EOF)
	// At the start of an expression, '/' opens a regex literal.
	assertTypes(t, "/x/", REGEX, EOF)
}

func TestWordOperators(t *testing.T) {
	assertTypes(t, "a eq b", IDENT, EQ_WORD, IDENT, EOF)
	assertTypes(t, "a and b or not c", IDENT, AND_WORD, IDENT, OR_WORD, NOT_WORD, IDENT, EOF)
}

func TestTwoCharOperators(t *testing.T) {
	assertTypes(t, `a ++ b =~ /x/ !~ /y/`, IDENT, CONCAT, IDENT, MATCH, REGEX, NOTMATCH, REGEX, EOF)
}

func TestInvalidToken(t *testing.T) {
	toks := Tokens(New("@"))
	if toks[0].Type != INVALID {
		t.Fatalf("expected INVALID, got %v", toks[0].Type)
	}
}
