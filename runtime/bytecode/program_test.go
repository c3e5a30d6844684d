package bytecode

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aledsdavies/teng/core/source"
	"github.com/aledsdavies/teng/core/value"
	"github.com/aledsdavies/teng/runtime/fs"
)

// valueComparer treats two value.Value as equal by their exported behavior:
// Value's fields are all unexported but comparable, so plain equality
// stands in for cmp's default (reflect-based, unexported-field-aware)
// comparison.
var valueComparer = cmp.Comparer(func(a, b value.Value) bool { return a == b })

func TestEmitAndTruncate(t *testing.T) {
	p := New()
	p.Emit(Instruction{Op: OpVal, Operand: value.Int(1)})
	mark := p.Len()
	p.Emit(Instruction{Op: OpPrint})
	p.Emit(Instruction{Op: OpHalt})
	if p.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", p.Len())
	}
	p.Truncate(mark)
	if p.Len() != 1 {
		t.Fatalf("after Truncate, Len() = %d, want 1", p.Len())
	}
}

func TestEmitProducesExpectedInstructionSequence(t *testing.T) {
	p := New()
	p.Emit(Instruction{Op: OpVal, Operand: value.Int(1)})
	p.Emit(Instruction{Op: OpVal, Operand: value.Int(2)})
	p.Emit(Instruction{Op: OpAdd})
	p.Emit(Instruction{Op: OpPrint})
	p.Emit(Instruction{Op: OpHalt})

	want := []Instruction{
		{Op: OpVal, Operand: value.Int(1)},
		{Op: OpVal, Operand: value.Int(2)},
		{Op: OpAdd},
		{Op: OpPrint},
		{Op: OpHalt},
	}
	if diff := cmp.Diff(want, p.Instructions, valueComparer); diff != "" {
		t.Errorf("Instructions mismatch (-want +got):\n%s", diff)
	}
}

func TestPatchRewritesJumpTarget(t *testing.T) {
	p := New()
	jmp := p.Emit(Instruction{Op: OpJmpIfNot, IntArg: -1})
	p.Emit(Instruction{Op: OpVal, Operand: value.Int(1)})
	target := p.Len()
	p.Patch(jmp, target)
	if p.Instructions[jmp].IntArg != target {
		t.Fatalf("IntArg = %d, want %d", p.Instructions[jmp].IntArg, target)
	}
}

func TestDisassembleFormatsOneLinePerInstruction(t *testing.T) {
	p := New()
	p.Emit(Instruction{Op: OpVal, Operand: value.Int(42), Pos: source.Position{Line: 1, Column: 1}})
	p.Emit(Instruction{Op: OpVar, Identifier: Identifier{Name: "name", Resolved: true, FrameOffset: 0, FragOffset: 2}})
	p.Emit(Instruction{Op: OpPrint})

	var buf strings.Builder
	p.Disassemble(&buf)
	out := buf.String()

	if !strings.Contains(out, "VAL") || !strings.Contains(out, "42") {
		t.Errorf("missing VAL operand in disassembly:\n%s", out)
	}
	if !strings.Contains(out, "VAR") || !strings.Contains(out, "name[0,2]") {
		t.Errorf("missing resolved identifier in disassembly:\n%s", out)
	}
	if !strings.Contains(out, "PRINT") {
		t.Errorf("missing PRINT in disassembly:\n%s", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
}

func TestSourceListDetectsUnchangedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.teng")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	reader := fs.NewLocalReader(dir)
	st, err := reader.Stat("a.teng")
	if err != nil {
		t.Fatal(err)
	}

	sl := fs.NewSourceList()
	sl.Add("a.teng", st)
	if sl.IsChanged(reader) {
		t.Fatal("IsChanged() = true right after Add, want false")
	}
	if got := sl.Paths(); len(got) != 1 || got[0] != "a.teng" {
		t.Fatalf("Paths() = %v, want [a.teng]", got)
	}
}

func TestSourceListDetectsEditedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.teng")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	reader := fs.NewLocalReader(dir)
	st, err := reader.Stat("a.teng")
	if err != nil {
		t.Fatal(err)
	}
	sl := fs.NewSourceList()
	sl.Add("a.teng", st)

	if err := os.WriteFile(path, []byte("hello world, much longer now"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !sl.IsChanged(reader) {
		t.Fatal("IsChanged() = false after edit, want true")
	}
}

func TestSourceListDetectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.teng")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	reader := fs.NewLocalReader(dir)
	st, err := reader.Stat("gone.teng")
	if err != nil {
		t.Fatal(err)
	}
	sl := fs.NewSourceList()
	sl.Add("gone.teng", st)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if !sl.IsChanged(reader) {
		t.Fatal("IsChanged() = false after removal, want true")
	}
}

func TestSideEffectingClassification(t *testing.T) {
	sideEffecting := []Opcode{OpPrint, OpSet, OpDebug, OpBytecode, OpOpenFrag, OpCloseFrag, OpRepeatFrag, OpPushFmt, OpPopFmt, OpPushCT, OpPopCT}
	for _, op := range sideEffecting {
		if !op.SideEffecting() {
			t.Errorf("%s.SideEffecting() = false, want true", op)
		}
	}
	pure := []Opcode{OpVal, OpAdd, OpFunc, OpConcat, OpNumEq}
	for _, op := range pure {
		if op.SideEffecting() {
			t.Errorf("%s.SideEffecting() = true, want false", op)
		}
	}
}
