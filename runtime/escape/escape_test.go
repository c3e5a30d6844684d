package escape

import "testing"

func TestHTMLRoundTrip(t *testing.T) {
	r := NewDefaultRegistry()
	ct, err := r.Lookup("text/html")
	if err != nil {
		t.Fatalf("lookup text/html: %v", err)
	}
	cases := []string{
		`<a href="x">y</a>`,
		"plain text with no specials",
		"&&&<<<>>>\"\"\"",
		"",
	}
	for _, c := range cases {
		esc := ct.EscapeString(c)
		got := ct.UnescapeString(esc)
		if got != c {
			t.Errorf("round-trip mismatch: input %q, escaped %q, got back %q", c, esc, got)
		}
	}
}

func TestHTMLEscape(t *testing.T) {
	r := NewDefaultRegistry()
	ct, _ := r.Lookup("html")
	got := ct.EscapeString("<a>")
	if got != "&lt;a&gt;" {
		t.Errorf("EscapeString(<a>) = %q, want &lt;a&gt;", got)
	}
}

func TestUnknownContentTypeFallsBackToDefault(t *testing.T) {
	r := NewDefaultRegistry()
	ct, err := r.Lookup("bogus/type")
	if err == nil {
		t.Fatal("expected ErrUnknownContentType")
	}
	if ct.Name != DefaultName {
		t.Errorf("fallback type = %q, want %q", ct.Name, DefaultName)
	}
	if ct.EscapeString("<a>") != "<a>" {
		t.Error("text/plain must not escape")
	}
}

func TestUnknownContentTypeSuggestsClosestMatch(t *testing.T) {
	r := NewDefaultRegistry()
	_, err := r.Lookup("hmtl")
	uct, ok := err.(*ErrUnknownContentType)
	if !ok {
		t.Fatalf("err = %T, want *ErrUnknownContentType", err)
	}
	if uct.Suggestion != "html" {
		t.Errorf("Suggestion = %q, want %q", uct.Suggestion, "html")
	}
}

func TestAliasesShareTheSameContentType(t *testing.T) {
	r := NewDefaultRegistry()
	a, _ := r.Lookup("text/html")
	b, _ := r.Lookup("html")
	if a != b {
		t.Error("html alias should resolve to the same *ContentType as text/html")
	}
}

func TestStackPushPop(t *testing.T) {
	r := NewDefaultRegistry()
	text, _ := r.Lookup("text/plain")
	html, _ := r.Lookup("html")

	s := NewStack(text)
	if s.Escape("<a>") != "<a>" {
		t.Error("initial type should be text/plain")
	}
	s.Push(html)
	if s.Escape("<a>") != "&lt;a&gt;" {
		t.Error("pushed type should escape")
	}
	s.Pop()
	if s.Escape("<a>") != "<a>" {
		t.Error("pop should restore text/plain")
	}
	s.Pop() // popping past depth 1 is a no-op
	if s.Depth() != 1 {
		t.Errorf("depth = %d, want 1", s.Depth())
	}
}
