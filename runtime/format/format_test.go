package format

import (
	"bytes"
	"testing"
)

func render(t *testing.T, mode Mode, chunks ...string) string {
	t.Helper()
	var buf bytes.Buffer
	f := New(&buf)
	f.Push(mode)
	for _, c := range chunks {
		if _, err := f.WriteString(c); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := f.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return buf.String()
}

func TestPassWhite(t *testing.T) {
	if got := render(t, PassWhite, "a  \n\tb"); got != "a  \n\tb" {
		t.Errorf("got %q", got)
	}
}

func TestNoWhite(t *testing.T) {
	if got := render(t, NoWhite, "a  \n\tb"); got != "ab" {
		t.Errorf("got %q", got)
	}
}

func TestOneSpace(t *testing.T) {
	if got := render(t, OneSpace, "a  \n\tb"); got != "a b" {
		t.Errorf("got %q", got)
	}
}

func TestStripLinesCollapsesRunWithNewline(t *testing.T) {
	if got := render(t, StripLines, "a \n \t b"); got != "a\nb" {
		t.Errorf("got %q", got)
	}
}

func TestStripLinesLeavesRunWithoutNewline(t *testing.T) {
	if got := render(t, StripLines, "a  b"); got != "a  b" {
		t.Errorf("got %q", got)
	}
}

func TestJoinLinesDropsAfterNewline(t *testing.T) {
	if got := render(t, JoinLines, "a  \n   b"); got != "a  b" {
		t.Errorf("got %q", got)
	}
}

func TestNoWhiteLinesKeepsFirstAndLast(t *testing.T) {
	if got := render(t, NoWhiteLines, "a\n\n\n\nb"); got != "a\n\nb" {
		t.Errorf("got %q", got)
	}
}

func TestRunSpanningMultipleWrites(t *testing.T) {
	if got := render(t, OneSpace, "a", " ", "\t", "\n", "b"); got != "a b" {
		t.Errorf("got %q", got)
	}
}

func TestPushPopBalanced(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf)
	if f.Depth() != 1 {
		t.Fatalf("initial depth = %d, want 1", f.Depth())
	}
	f.Push(NoWhite)
	f.WriteString("a  b")
	f.Pop()
	f.WriteString("  c")
	f.Flush()
	if f.Depth() != 1 {
		t.Errorf("depth after pop = %d, want 1", f.Depth())
	}
	if buf.String() != "ab  c" {
		t.Errorf("got %q", buf.String())
	}
}
