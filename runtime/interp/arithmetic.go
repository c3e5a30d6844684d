package interp

import (
	"fmt"

	"github.com/aledsdavies/teng/core/source"
	"github.com/aledsdavies/teng/core/value"
	"github.com/aledsdavies/teng/runtime/bytecode"
	"github.com/aledsdavies/teng/runtime/errlog"
)

// numAsReal widens a numeric Value (integer or real) to float64.
func numAsReal(v value.Value) float64 {
	if v.Kind() == value.KindReal {
		return v.AsReal()
	}
	return float64(v.AsInt())
}

// truncToInt truncates a numeric Value to int64: MOD uses integer
// truncation, so a real modulo converts to integer first. Bitwise
// operators apply the same truncation to their operands.
func truncToInt(v value.Value) int64 {
	if v.Kind() == value.KindInteger {
		return v.AsInt()
	}
	return int64(v.AsReal())
}

// coerceNumeric applies the lazy string->number coercion arithmetic and
// comparison share to both operands of a binary numeric op, logging a
// warning for an operand that fails to coerce and is not itself undefined.
// ok is false whenever either side could not be coerced, in which case the
// caller must push Undefined.
func (m *Machine) coerceNumeric(a, b value.Value, pos source.Position) (value.Value, value.Value, bool) {
	an, aok := a.ToNumber()
	bn, bok := b.ToNumber()
	if !aok && !a.IsUndefined() {
		m.logf(errlog.Warning, pos, fmt.Sprintf("value %q is not numeric", a.ToString()))
	}
	if !bok && !b.IsUndefined() {
		m.logf(errlog.Warning, pos, fmt.Sprintf("value %q is not numeric", b.ToString()))
	}
	return an, bn, aok && bok
}

// arith evaluates a binary arithmetic/bitwise opcode, popping its two
// operands (right then left, matching left-to-right evaluation order) and
// pushing the result or Undefined.
func (m *Machine) arith(op bytecode.Opcode, pos source.Position) value.Value {
	b, ok1 := m.pop()
	a, ok2 := m.pop()
	if !ok1 || !ok2 {
		return value.Undefined
	}
	an, bn, ok := m.coerceNumeric(a, b, pos)
	if !ok {
		return value.Undefined
	}

	switch op {
	case bytecode.OpBitAnd:
		return value.Int(truncToInt(an) & truncToInt(bn))
	case bytecode.OpBitOr:
		return value.Int(truncToInt(an) | truncToInt(bn))
	case bytecode.OpBitXor:
		return value.Int(truncToInt(an) ^ truncToInt(bn))
	}

	real := an.Kind() == value.KindReal || bn.Kind() == value.KindReal
	switch op {
	case bytecode.OpAdd:
		if real {
			return value.Real(numAsReal(an) + numAsReal(bn))
		}
		return value.Int(an.AsInt() + bn.AsInt())
	case bytecode.OpSub:
		if real {
			return value.Real(numAsReal(an) - numAsReal(bn))
		}
		return value.Int(an.AsInt() - bn.AsInt())
	case bytecode.OpMul:
		if real {
			return value.Real(numAsReal(an) * numAsReal(bn))
		}
		return value.Int(an.AsInt() * bn.AsInt())
	case bytecode.OpDiv:
		if (real && numAsReal(bn) == 0) || (!real && bn.AsInt() == 0) {
			m.logf(errlog.Error, pos, "division by zero")
			return value.Undefined
		}
		if real {
			return value.Real(numAsReal(an) / numAsReal(bn))
		}
		return value.Int(an.AsInt() / bn.AsInt())
	case bytecode.OpMod:
		bi := truncToInt(bn)
		if bi == 0 {
			m.logf(errlog.Error, pos, "modulo by zero")
			return value.Undefined
		}
		return value.Int(truncToInt(an) % bi)
	}
	return value.Undefined
}

// compareNumeric evaluates OpNumEq/OpNumGe/OpNumGt, applying the same lazy
// string->number coercion as arith: a mixed string/number comparison coerces
// the string if it parses as a number, and otherwise yields undefined.
func (m *Machine) compareNumeric(op bytecode.Opcode, pos source.Position) value.Value {
	b, ok1 := m.pop()
	a, ok2 := m.pop()
	if !ok1 || !ok2 {
		return value.Undefined
	}
	an, bn, ok := m.coerceNumeric(a, b, pos)
	if !ok {
		return value.Undefined
	}
	af, bf := numAsReal(an), numAsReal(bn)
	switch op {
	case bytecode.OpNumEq:
		return boolVal(af == bf)
	case bytecode.OpNumGe:
		return boolVal(af >= bf)
	case bytecode.OpNumGt:
		return boolVal(af > bf)
	}
	return value.Undefined
}
