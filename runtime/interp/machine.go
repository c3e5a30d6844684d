// Package interp implements Teng's byte-code interpreter: a single-threaded,
// stack-based machine that evaluates a compiled bytecode.Program against the
// open-frame stack, writing through the formatter and escaper. The same
// dispatch loop also serves as the parser's compile-time sub-evaluator for
// constant folding, run against a frame.Stub instead of a real frame.Stack —
// see fold.go.
package interp

import (
	"errors"
	"fmt"

	"github.com/aledsdavies/teng/core/source"
	"github.com/aledsdavies/teng/core/value"
	"github.com/aledsdavies/teng/internal/invariant"
	"github.com/aledsdavies/teng/runtime/builtins"
	"github.com/aledsdavies/teng/runtime/bytecode"
	"github.com/aledsdavies/teng/runtime/dictionary"
	"github.com/aledsdavies/teng/runtime/errlog"
	"github.com/aledsdavies/teng/runtime/escape"
	"github.com/aledsdavies/teng/runtime/format"
	"github.com/aledsdavies/teng/runtime/frame"
)

// ErrStackUnderflow is the fatal condition for an instruction that consumed
// a value the value (or program) stack did not have.
var ErrStackUnderflow = errors.New("interp: stack underflow")

// ErrIPOutOfRange is the fatal condition for a jump target or natural
// instruction pointer advance landing outside the program.
var ErrIPOutOfRange = errors.New("interp: instruction pointer out of range")

// Machine is the interpreter's machine state: instruction pointer (implicit
// in run's loop variable), value stack, program stack (PUSH/POP/STACK
// operand access), the open-frame resolver, the escaper stack, the
// formatter, the active dictionary, the built-in registry, and the error
// log.
//
// A Machine is single-use per render: each render gets its own interpreter
// state so concurrent renders never share mutable machine fields.
type Machine struct {
	Frames   frame.Resolver
	Escaper  *escape.Stack
	Fmt      *format.Formatter
	Dict     *dictionary.Dictionary
	Config   *dictionary.Config
	Registry *escape.Registry
	Builtins *builtins.Registry
	Log      *errlog.Log
	Encoding string

	valueStack []value.Value
	progStack  []value.Value
	err        error
}

// New creates a Machine ready to Run a program against data opened on
// resolver.
func New(resolver frame.Resolver, escaper *escape.Stack, fmt_ *format.Formatter, dict *dictionary.Dictionary, cfg *dictionary.Config, reg *escape.Registry, builtinsReg *builtins.Registry, log *errlog.Log, encoding string) *Machine {
	return &Machine{
		Frames: resolver, Escaper: escaper, Fmt: fmt_, Dict: dict, Config: cfg,
		Registry: reg, Builtins: builtinsReg, Log: log, Encoding: encoding,
	}
}

// Run executes prog from its first instruction to HALT or end-of-program.
// At exit it asserts the value/program stacks are empty and the
// escaper/format mode stacks are back at their initial depth. These, along
// with an out-of-range instruction pointer, are contract violations that
// indicate a bug in the engine itself rather than a template-author
// mistake, so they are checked with
// internal/invariant, which panics; Run recovers that panic at the render
// boundary (the teacher's template engines do the same at their own
// evaluation boundary, e.g. hoisie/mustache's recover-and-log around
// variable lookup) and reports it the same way as any other fatal
// condition: logged as FATAL, returned as an error, with any output
// already written kept.
func (m *Machine) Run(prog *bytecode.Program) (err error) {
	escDepth, fmtDepth := 0, 0
	if m.Escaper != nil {
		escDepth = m.Escaper.Depth()
	}
	if m.Fmt != nil {
		fmtDepth = m.Fmt.Depth()
	}

	defer func() {
		if r := recover(); r != nil {
			if m.Fmt != nil {
				m.Fmt.Flush()
			}
			err = m.fatal(source.Position{}, fmt.Sprintf("%v", r))
		}
	}()

	if runErr := m.run(prog, 0, prog.Len()); runErr != nil {
		if m.Fmt != nil {
			m.Fmt.Flush()
		}
		return runErr
	}

	invariant.Invariant(len(m.valueStack) == 0 && len(m.progStack) == 0, "stacks not balanced at HALT")
	if m.Escaper != nil {
		invariant.Invariant(m.Escaper.Depth() == escDepth, "escaper stack not balanced at HALT")
	}
	if m.Fmt != nil {
		m.Fmt.Flush()
		invariant.Invariant(m.Fmt.Depth() == fmtDepth, "format stack not balanced at HALT")
	}
	return nil
}

// run executes prog.Instructions[start:end], returning the first fatal
// error (if any). It is shared between the top-level Run and the
// compile-time folding driver (fold.go), which passes a sub-range and a
// frame.Stub resolver instead of a real frame.Stack.
func (m *Machine) run(prog *bytecode.Program, start, end int) error {
	ip := start
	for ip < end {
		ins := prog.Instructions[ip]
		next := ip + 1

		m.step(prog, ins, &next)
		if m.err != nil {
			return m.err
		}
		if ins.Op == bytecode.OpHalt {
			return nil
		}
		invariant.Invariant(next >= 0 && next <= len(prog.Instructions), "instruction pointer out of range at %s", ins.Pos)
		ip = next
	}
	return nil
}

func (m *Machine) fatal(pos source.Position, msg string) error {
	m.logf(errlog.Fatal, pos, msg)
	return fmt.Errorf("%w: %s at %s", ErrIPOutOfRange, msg, pos)
}

func (m *Machine) logf(level errlog.Level, pos source.Position, msg string) {
	if m.Log == nil {
		return
	}
	m.Log.Append(level, pos, msg)
}

// needsRuntime reports whether the active resolver (normally only the
// parser's frame.Stub) has refused an operation because it requires real
// application data. A real frame.Stack's Err() is always nil, so this is
// always false during an ordinary render.
func (m *Machine) needsRuntime() bool {
	return m.Frames != nil && m.Frames.Err() != nil
}

func (m *Machine) push(v value.Value) { m.valueStack = append(m.valueStack, v) }

func (m *Machine) pop() (value.Value, bool) {
	if len(m.valueStack) == 0 {
		if m.err == nil {
			m.err = ErrStackUnderflow
		}
		return value.Undefined, false
	}
	v := m.valueStack[len(m.valueStack)-1]
	m.valueStack = m.valueStack[:len(m.valueStack)-1]
	return v, true
}

func (m *Machine) peek() (value.Value, bool) {
	if len(m.valueStack) == 0 {
		if m.err == nil {
			m.err = ErrStackUnderflow
		}
		return value.Undefined, false
	}
	return m.valueStack[len(m.valueStack)-1], true
}

func boolVal(b bool) value.Value {
	if b {
		return value.Int(1)
	}
	return value.Int(0)
}
