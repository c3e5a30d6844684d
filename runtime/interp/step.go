package interp

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/teng/core/value"
	"github.com/aledsdavies/teng/runtime/builtins"
	"github.com/aledsdavies/teng/runtime/bytecode"
	"github.com/aledsdavies/teng/runtime/errlog"
	"github.com/aledsdavies/teng/runtime/format"
	"github.com/aledsdavies/teng/runtime/frame"
)

// step executes one instruction, mutating *next to redirect control flow
// (OpJmp/OpJmpIfNot/OpAnd/OpOr/OpOpenFrag/OpCloseFrag) and setting m.err on
// a fatal condition. Recoverable errors are logged and substitute Undefined
// rather than setting m.err — only stack underflow, an unbalanced resolver
// (needs-runtime escaping the parser's fold, which should never happen
// during a real render), and similar machine-integrity violations abort the
// run.
func (m *Machine) step(prog *bytecode.Program, ins bytecode.Instruction, next *int) {
	switch ins.Op {
	case bytecode.OpNop:
		// no-op

	case bytecode.OpVal:
		m.push(ins.Operand)

	case bytecode.OpPush:
		v, ok := m.pop()
		if !ok {
			return
		}
		m.progStack = append(m.progStack, v)

	case bytecode.OpPop:
		if len(m.progStack) == 0 {
			m.err = ErrStackUnderflow
			return
		}
		v := m.progStack[len(m.progStack)-1]
		m.progStack = m.progStack[:len(m.progStack)-1]
		m.push(v)

	case bytecode.OpStack:
		idx := len(m.progStack) - 1 - ins.IntArg
		if idx < 0 || idx >= len(m.progStack) {
			m.err = ErrStackUnderflow
			return
		}
		m.push(m.progStack[idx])

	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod,
		bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpBitXor:
		m.push(m.arith(ins.Op, ins.Pos))

	case bytecode.OpBitNot:
		a, ok := m.pop()
		if !ok {
			return
		}
		n, nok := a.ToNumber()
		if !nok {
			m.push(value.Undefined)
			return
		}
		m.push(value.Int(^truncToInt(n)))

	case bytecode.OpNeg:
		a, ok := m.pop()
		if !ok {
			return
		}
		if a.IsUndefined() {
			m.push(value.Undefined)
			return
		}
		n, nok := a.ToNumber()
		if !nok {
			m.push(value.Undefined)
			return
		}
		if n.Kind() == value.KindReal {
			m.push(value.Real(-n.AsReal()))
		} else {
			m.push(value.Int(-n.AsInt()))
		}

	case bytecode.OpNumEq, bytecode.OpNumGe, bytecode.OpNumGt:
		m.push(m.compareNumeric(ins.Op, ins.Pos))

	case bytecode.OpStrEq, bytecode.OpStrNe:
		b, ok1 := m.pop()
		a, ok2 := m.pop()
		if !ok1 || !ok2 {
			return
		}
		eq := a.ToString() == b.ToString()
		if ins.Op == bytecode.OpStrNe {
			eq = !eq
		}
		m.push(boolVal(eq))

	case bytecode.OpRegexMatch, bytecode.OpRegexNMatch:
		b, ok1 := m.pop()
		a, ok2 := m.pop()
		if !ok1 || !ok2 {
			return
		}
		if b.Kind() != value.KindRegex || b.AsRegex() == nil || b.AsRegex().Program == nil {
			m.logf(errlog.Error, ins.Pos, "right operand of a match operator is not a regex")
			m.push(value.Undefined)
			return
		}
		matched, err := b.AsRegex().Program.MatchString(a.ToString())
		if err != nil {
			m.logf(errlog.Error, ins.Pos, fmt.Sprintf("regex match failed: %v", err))
			m.push(value.Undefined)
			return
		}
		if ins.Op == bytecode.OpRegexNMatch {
			matched = !matched
		}
		m.push(boolVal(matched))

	case bytecode.OpAnd:
		v, ok := m.peek()
		if !ok {
			return
		}
		if !v.ToBool() {
			*next = ins.IntArg
		} else {
			m.pop()
		}

	case bytecode.OpOr:
		v, ok := m.peek()
		if !ok {
			return
		}
		if v.ToBool() {
			*next = ins.IntArg
		} else {
			m.pop()
		}

	case bytecode.OpNot:
		a, ok := m.pop()
		if !ok {
			return
		}
		m.push(boolVal(!a.ToBool()))

	case bytecode.OpConcat:
		b, ok1 := m.pop()
		a, ok2 := m.pop()
		if !ok1 || !ok2 {
			return
		}
		m.push(value.Str(a.ToString() + b.ToString()))

	case bytecode.OpRepeat:
		b, ok1 := m.pop()
		a, ok2 := m.pop()
		if !ok1 || !ok2 {
			return
		}
		n, nok := b.ToNumber()
		if !nok || n.Kind() != value.KindInteger || n.AsInt() < 0 {
			m.logf(errlog.Error, ins.Pos, "repeat count must be a non-negative integer")
			m.push(value.Undefined)
			return
		}
		m.push(value.Str(strings.Repeat(a.ToString(), int(n.AsInt()))))

	case bytecode.OpJmp:
		*next = ins.IntArg

	case bytecode.OpJmpIfNot:
		v, ok := m.pop()
		if !ok {
			return
		}
		if !v.ToBool() {
			*next = ins.IntArg
		}

	case bytecode.OpHalt:
		// run() checks for OpHalt explicitly and returns after this step.

	case bytecode.OpVar:
		m.doVar(ins)

	case bytecode.OpSet:
		m.doSet(ins)

	case bytecode.OpDictLookup:
		if m.Dict != nil {
			if v, ok := m.Dict.Get(ins.StrArg); ok {
				m.push(value.Str(v))
				return
			}
		}
		m.logf(errlog.Error, ins.Pos, fmt.Sprintf("missing dictionary entry %q", ins.StrArg))
		m.push(value.Undefined)

	case bytecode.OpOpenFrag:
		ok := m.Frames.OpenFrag(ins.Identifier.Name)
		if m.needsRuntime() {
			m.err = frame.ErrNeedsRuntime
			return
		}
		if !ok {
			*next = ins.IntArg
		}

	case bytecode.OpCloseFrag, bytecode.OpRepeatFrag:
		again := m.Frames.NextFrag()
		if m.needsRuntime() {
			m.err = frame.ErrNeedsRuntime
			return
		}
		if again {
			*next = ins.IntArg
		}

	case bytecode.OpFragCount, bytecode.OpNestedFragCount:
		_, size := m.Frames.ListPos(ins.Identifier.FrameOffset, ins.Identifier.FragOffset)
		if m.needsRuntime() {
			m.err = frame.ErrNeedsRuntime
			return
		}
		m.push(value.Int(int64(size)))

	case bytecode.OpFragIndex:
		idx, _ := m.Frames.ListPos(ins.Identifier.FrameOffset, ins.Identifier.FragOffset)
		if m.needsRuntime() {
			m.err = frame.ErrNeedsRuntime
			return
		}
		m.push(value.Int(int64(idx + 1)))

	case bytecode.OpFragFirst:
		idx, _ := m.Frames.ListPos(ins.Identifier.FrameOffset, ins.Identifier.FragOffset)
		if m.needsRuntime() {
			m.err = frame.ErrNeedsRuntime
			return
		}
		m.push(boolVal(idx == 0))

	case bytecode.OpFragLast:
		idx, size := m.Frames.ListPos(ins.Identifier.FrameOffset, ins.Identifier.FragOffset)
		if m.needsRuntime() {
			m.err = frame.ErrNeedsRuntime
			return
		}
		m.push(boolVal(idx == size-1))

	case bytecode.OpFragInner:
		idx, size := m.Frames.ListPos(ins.Identifier.FrameOffset, ins.Identifier.FragOffset)
		if m.needsRuntime() {
			m.err = frame.ErrNeedsRuntime
			return
		}
		m.push(boolVal(idx != 0 && idx != size-1))

	case bytecode.OpPrint:
		v, ok := m.pop()
		if !ok {
			return
		}
		if m.Fmt != nil {
			m.Fmt.WriteString(v.ToString())
			if m.Fmt.Err() != nil {
				m.logf(errlog.Fatal, ins.Pos, "writer failure")
				m.err = m.Fmt.Err()
			}
		}

	case bytecode.OpPushFmt:
		if m.Fmt != nil {
			m.Fmt.Push(format.Mode(ins.IntArg))
		}

	case bytecode.OpPopFmt:
		if m.Fmt != nil {
			m.Fmt.Pop()
		}

	case bytecode.OpPushCT:
		if m.Registry == nil || m.Escaper == nil {
			return
		}
		ct, err := m.Registry.Lookup(ins.StrArg)
		if err != nil {
			m.logf(errlog.Error, ins.Pos, err.Error())
		}
		m.Escaper.Push(ct)

	case bytecode.OpPopCT:
		if m.Escaper != nil {
			m.Escaper.Pop()
		}

	case bytecode.OpDebug:
		if m.Config != nil && m.Config.Enabled("debug") && m.Fmt != nil {
			m.Fmt.WriteString("<!-- debug: " + fmt.Sprint(m.Frames.FrameDepth()) + " frames open -->\n")
		}

	case bytecode.OpBytecode:
		if m.Config != nil && m.Config.Enabled("bytecode") && m.Fmt != nil {
			prog.Disassemble(m.Fmt)
		}

	case bytecode.OpExists:
		_, ok := m.Frames.GetVar(ins.Identifier.Name, ins.Identifier.FrameOffset, ins.Identifier.FragOffset)
		if m.needsRuntime() {
			m.err = frame.ErrNeedsRuntime
			return
		}
		m.push(boolVal(ok))

	case bytecode.OpDefined:
		m.logf(errlog.Warning, ins.Pos, "defined() is deprecated")
		v, ok := m.Frames.GetVar(ins.Identifier.Name, ins.Identifier.FrameOffset, ins.Identifier.FragOffset)
		if m.needsRuntime() {
			m.err = frame.ErrNeedsRuntime
			return
		}
		scalar := ok && isScalar(v)
		m.push(boolVal(scalar))

	case bytecode.OpIsEmpty:
		v, ok := m.Frames.GetVar(ins.Identifier.Name, ins.Identifier.FrameOffset, ins.Identifier.FragOffset)
		if m.needsRuntime() {
			m.err = frame.ErrNeedsRuntime
			return
		}
		m.push(boolVal(!ok || isEmptyValue(v)))

	case bytecode.OpRepr:
		v, ok := m.pop()
		if !ok {
			return
		}
		m.push(value.Str(repr(v)))

	case bytecode.OpType:
		v, ok := m.pop()
		if !ok {
			return
		}
		m.push(value.Str(v.Kind().String()))

	case bytecode.OpCount:
		v, ok := m.pop()
		if !ok {
			return
		}
		m.push(value.Int(int64(countOf(v))))

	case bytecode.OpJsonify:
		v, ok := m.pop()
		if !ok {
			return
		}
		m.push(value.Str(v.JSON()))

	case bytecode.OpGetAttr:
		base, ok := m.pop()
		if !ok {
			return
		}
		if base.Kind() != value.KindFragRef || base.AsFrag() == nil {
			m.logf(errlog.Warning, ins.Pos, fmt.Sprintf("cannot read attribute %q of a non-fragment value", ins.StrArg))
			m.push(value.Undefined)
			return
		}
		fv, ok := base.AsFrag().Get(ins.StrArg)
		if !ok {
			m.logf(errlog.Warning, ins.Pos, fmt.Sprintf("attribute %q is undefined", ins.StrArg))
			m.push(value.Undefined)
			return
		}
		m.push(fv.ToValue())

	case bytecode.OpAt:
		idxV, ok1 := m.pop()
		listV, ok2 := m.pop()
		if !ok1 || !ok2 {
			return
		}
		n, nok := idxV.ToNumber()
		if listV.Kind() != value.KindListRef || !nok {
			m.logf(errlog.Warning, ins.Pos, "index operator applied to a non-list value")
			m.push(value.Undefined)
			return
		}
		list, _ := listV.AsList()
		i := int(truncToInt(n))
		if list == nil || i < 0 || i >= list.Size() {
			m.logf(errlog.Warning, ins.Pos, "list index out of range")
			m.push(value.Undefined)
			return
		}
		m.push(value.FragRefVal(list.At(i)))

	case bytecode.OpFunc:
		m.doFunc(ins)

	default:
		m.logf(errlog.Fatal, ins.Pos, fmt.Sprintf("unknown opcode %s", ins.Op))
		m.err = fmt.Errorf("interp: unknown opcode %s", ins.Op)
	}
}

// doVar resolves an OpVar instruction's identifier: compile-time-resolved
// identifiers address the frame stack directly by (frameOffset, fragOffset);
// an unresolved identifier (deferred to runtime because the parser couldn't
// prove its position) is looked up at the innermost currently open position,
// which is exactly where it would have resolved had the parser known the
// data tree's shape. A missing variable logs a Warning and yields Undefined.
func (m *Machine) doVar(ins bytecode.Instruction) {
	id := ins.Identifier
	frameOff, fragOff := id.FrameOffset, id.FragOffset
	if !id.Resolved {
		frameOff, fragOff = m.Frames.FrameDepth()-1, m.Frames.FragDepth()-1
	}
	v, ok := m.Frames.GetVar(id.Name, frameOff, fragOff)
	if m.needsRuntime() {
		m.err = frame.ErrNeedsRuntime
		return
	}
	if !ok {
		m.logf(errlog.Warning, ins.Pos, fmt.Sprintf("Variable '.%s' is undefined", id.Name))
		v = value.Undefined
	}
	if ins.IntArg != 0 && m.Escaper != nil {
		v = value.Str(m.Escaper.Escape(v.ToString()))
	}
	m.push(v)
}

// doSet resolves and applies an OpSet instruction: the local may not shadow
// a name already present in the data tree at the same position.
func (m *Machine) doSet(ins bytecode.Instruction) {
	rhs, ok := m.pop()
	if !ok {
		return
	}
	id := ins.Identifier
	frameOff, fragOff := id.FrameOffset, id.FragOffset
	if !id.Resolved {
		frameOff, fragOff = m.Frames.FrameDepth()-1, m.Frames.FragDepth()-1
	}
	if !m.Frames.SetVar(id.Name, frameOff, fragOff, rhs) {
		m.logf(errlog.Error, ins.Pos, fmt.Sprintf("cannot set '%s': already present in the data tree", id.Name))
	}
	if m.needsRuntime() {
		m.err = frame.ErrNeedsRuntime
	}
}

// doFunc pops ins.IntArg arguments (in call order) and dispatches to the
// built-in registry.
func (m *Machine) doFunc(ins bytecode.Instruction) {
	argc := ins.IntArg
	if len(m.valueStack) < argc {
		m.err = ErrStackUnderflow
		return
	}
	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i], _ = m.pop()
	}
	pos := ins.Pos
	ctx := &builtins.Context{
		Log:      m.Log,
		Encoding: m.Encoding,
		Escaper:  m.Escaper,
		LogPos:   func(level errlog.Level, msg string) { m.logf(level, pos, msg) },
	}
	var reg *builtins.Registry
	if m.Builtins != nil {
		reg = m.Builtins
	} else {
		reg = builtins.NewDefaultRegistry()
		m.Builtins = reg
	}
	m.push(reg.Call(ins.StrArg, args, ctx))
}

func isScalar(v value.Value) bool {
	switch v.Kind() {
	case value.KindInteger, value.KindReal, value.KindString, value.KindStringRef:
		return true
	default:
		return false
	}
}

func isEmptyValue(v value.Value) bool {
	switch v.Kind() {
	case value.KindUndefined:
		return true
	case value.KindString, value.KindStringRef:
		return v.AsString() == ""
	case value.KindFragRef:
		f := v.AsFrag()
		return f == nil || f.Len() == 0
	case value.KindListRef:
		l, _ := v.AsList()
		return l == nil || l.Size() == 0
	default:
		return false
	}
}

func countOf(v value.Value) int {
	switch v.Kind() {
	case value.KindFragRef:
		if f := v.AsFrag(); f != nil {
			return f.Len()
		}
	case value.KindListRef:
		if l, _ := v.AsList(); l != nil {
			return l.Size()
		}
	}
	return 0
}

func repr(v value.Value) string {
	switch v.Kind() {
	case value.KindFragRef:
		if f := v.AsFrag(); f != nil {
			return fmt.Sprintf("fragment(%d)", f.Len())
		}
		return "fragment(nil)"
	case value.KindListRef:
		if l, _ := v.AsList(); l != nil {
			return fmt.Sprintf("list(%d)", l.Size())
		}
		return "list(nil)"
	case value.KindUndefined:
		return "undefined"
	default:
		return v.ToString()
	}
}
