package bytecode

import (
	"fmt"
	"io"

	"github.com/aledsdavies/teng/core/source"
	"github.com/aledsdavies/teng/core/value"
	"github.com/aledsdavies/teng/runtime/fs"
)

// Identifier is a resolved (or deferred) variable reference: FrameOffset/
// FragOffset index into the runtime's open-frame stack once resolution
// succeeds at compile time; Resolved is false when resolution had to be
// deferred to runtime.
type Identifier struct {
	Name        string
	FrameOffset int
	FragOffset  int
	Resolved    bool
	Absolute    bool // leading '.' path
}

// Instruction is one entry in a compiled program.
type Instruction struct {
	Op         Opcode
	Operand    value.Value
	Identifier Identifier
	IntArg     int // jump targets, argc, escape flag (0/1), content-type index
	StrArg     string
	Pos        source.Position
}

// Program is a flat, linear sequence of instructions plus the source files
// it was compiled from.
type Program struct {
	Instructions []Instruction
	Sources      *fs.SourceList
}

// New creates an empty program.
func New() *Program {
	return &Program{Sources: fs.NewSourceList()}
}

// Emit appends ins and returns its address.
func (p *Program) Emit(ins Instruction) int {
	p.Instructions = append(p.Instructions, ins)
	return len(p.Instructions) - 1
}

// Len returns the number of instructions.
func (p *Program) Len() int { return len(p.Instructions) }

// Truncate drops every instruction at or after addr, used by the parser's
// per-directive error recovery: the partial byte-code for a directive that
// fails to compile is truncated back to its start address.
func (p *Program) Truncate(addr int) {
	p.Instructions = p.Instructions[:addr]
}

// Patch overwrites the IntArg of the instruction at addr, used for
// back-patching forward jump targets.
func (p *Program) Patch(addr, intArg int) {
	p.Instructions[addr].IntArg = intArg
}

// IsStale reports whether any file this Program was compiled from has
// changed since, re-stat'ing each through reader. Satisfies
// runtime/cache.Staleable.
func (p *Program) IsStale(reader fs.Reader) bool {
	return p.Sources.IsChanged(reader)
}

// Disassemble writes one line per instruction: "addr: OPCODE operand ; pos",
// grounded on the teacher's one-step-per-line plan text formatter
// (core/planfmt/formatter/text.go), used by <?teng bytecode ?> and the
// `teng disasm` CLI subcommand.
func (p *Program) Disassemble(w io.Writer) {
	for addr, ins := range p.Instructions {
		fmt.Fprintf(w, "%4d: %-14s", addr, ins.Op)
		switch {
		case ins.Identifier.Name != "":
			fmt.Fprintf(w, " %s", ins.Identifier.Name)
			if ins.Identifier.Resolved {
				fmt.Fprintf(w, "[%d,%d]", ins.Identifier.FrameOffset, ins.Identifier.FragOffset)
			}
		case ins.StrArg != "":
			fmt.Fprintf(w, " %q", ins.StrArg)
		case !ins.Operand.IsUndefined():
			fmt.Fprintf(w, " %s", ins.Operand.ToString())
		case ins.IntArg != 0:
			fmt.Fprintf(w, " %d", ins.IntArg)
		}
		fmt.Fprintf(w, "  ; %s\n", ins.Pos)
	}
}
