package interp

import (
	"github.com/aledsdavies/teng/core/value"
	"github.com/aledsdavies/teng/runtime/builtins"
	"github.com/aledsdavies/teng/runtime/bytecode"
	"github.com/aledsdavies/teng/runtime/frame"
)

// Fold attempts compile-time constant folding of prog.Instructions[start:end]:
// the parser hands it a just-emitted sub-range once it has a complete
// expression, and on success replaces that range with a single VAL
// instruction carrying the computed value. It runs the same dispatch loop as
// a real render, but against a frame.Stub that refuses to read application
// data instead of a real frame.Stack, so any identifier or fragment access
// the sub-program depends on surfaces as ErrNeedsRuntime rather than a wrong
// answer.
//
// Folding also refuses a range containing any side-effecting opcode
// (bytecode.Opcode.SideEffecting) and an impure built-in call (RANDOM/NOW):
// only referentially transparent sub-expressions fold.
func Fold(prog *bytecode.Program, start, end int, reg *builtins.Registry) (folded value.Value, ok bool) {
	defer func() {
		if recover() != nil {
			// An invariant violation (e.g. instruction pointer out of range)
			// means this sub-range can't be folded standalone, not that
			// compilation as a whole is broken: fall back to emitting it
			// uncompiled, the same response as any other unfoldable range.
			folded, ok = value.Undefined, false
		}
	}()

	for i := start; i < end; i++ {
		ins := prog.Instructions[i]
		if ins.Op.SideEffecting() {
			return value.Undefined, false
		}
		if ins.Op == bytecode.OpFunc && reg != nil && !reg.IsPure(ins.StrArg) {
			return value.Undefined, false
		}
	}

	m := &Machine{Frames: frame.NewStub(), Builtins: reg}
	if err := m.run(prog, start, end); err != nil {
		return value.Undefined, false
	}
	if m.needsRuntime() {
		return value.Undefined, false
	}
	if len(m.valueStack) != 1 || len(m.progStack) != 0 {
		return value.Undefined, false
	}
	return m.valueStack[0], true
}
