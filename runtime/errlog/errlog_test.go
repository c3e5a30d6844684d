package errlog

import (
	"testing"

	"github.com/aledsdavies/teng/core/source"
)

func TestDedupAndCap(t *testing.T) {
	interner := source.NewInterner()
	name := interner.Intern("a.html")
	pos := source.Position{Filename: name, Line: 2, Column: 1}

	log := New(2)
	log.Append(Warning, pos, "undefined variable")
	log.Append(Warning, pos, "undefined variable") // dup, collapsed
	log.Append(Warning, pos, "another message")
	log.Append(Warning, pos, "third message") // over cap, counted as ignored

	entries := log.Entries()
	if len(entries) != 3 { // 2 distinct + 1 synthesized "ignored" entry
		t.Fatalf("got %d entries, want 3: %+v", len(entries), entries)
	}
	if log.MaxLevel() != Warning {
		t.Errorf("max level = %v, want Warning", log.MaxLevel())
	}
}

func TestIsEmptyAndClear(t *testing.T) {
	log := New(0)
	if !log.IsEmpty() {
		t.Fatal("new log should be empty")
	}
	log.Append(Error, source.Position{}, "boom")
	if log.IsEmpty() {
		t.Fatal("log with an entry should not be empty")
	}
	log.Clear()
	if !log.IsEmpty() || log.MaxLevel() != Debug {
		t.Error("Clear should reset entries and max level")
	}
}

func TestEntriesSortedByPosition(t *testing.T) {
	interner := source.NewInterner()
	a := interner.Intern("a.html")
	b := interner.Intern("b.html")

	log := New(0)
	log.Append(Error, source.Position{Filename: b, Line: 1, Column: 1}, "in b")
	log.Append(Error, source.Position{Filename: a, Line: 5, Column: 1}, "in a line 5")
	log.Append(Error, source.Position{Filename: a, Line: 1, Column: 1}, "in a line 1")

	entries := log.Entries()
	if entries[0].Message != "in a line 1" || entries[1].Message != "in a line 5" || entries[2].Message != "in b" {
		t.Fatalf("unexpected order: %+v", entries)
	}
}
