// Package bytecode defines Teng's compiled program representation: a flat
// instruction vector plus the source list used for change detection. The
// instruction shape and the disassembly style are grounded on the
// teacher's planner IR/emitter (runtime/planner/ir.go,
// runtime/planner/emitter.go) and its one-line-per-step plan formatter
// (core/planfmt/formatter/text.go).
package bytecode

// Opcode names one instruction in the byte-code program.
type Opcode int

const (
	OpNop Opcode = iota

	// Stack
	OpVal
	OpPush
	OpPop
	OpStack

	// Arithmetic / bitwise
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpBitNot
	OpNeg

	// Comparison
	OpNumEq
	OpNumGe
	OpNumGt
	OpStrEq
	OpStrNe
	OpRegexMatch
	OpRegexNMatch

	// Logic (short-circuit, jump operand patched post-emit)
	OpAnd
	OpOr
	OpNot

	// Concat/repeat
	OpConcat
	OpRepeat

	// Control
	OpJmp
	OpJmpIfNot
	OpHalt

	// Variables
	OpVar
	OpSet
	OpDictLookup

	// Fragments
	OpOpenFrag
	OpCloseFrag
	OpRepeatFrag
	OpFragCount
	OpFragIndex
	OpFragFirst
	OpFragInner
	OpFragLast
	OpNestedFragCount

	// I/O and mode
	OpPrint
	OpPushFmt
	OpPopFmt
	OpPushCT
	OpPopCT
	OpDebug
	OpBytecode

	// Reflection
	OpExists
	OpDefined
	OpIsEmpty
	OpRepr
	OpType
	OpCount
	OpJsonify

	// Attribute/index
	OpGetAttr
	OpAt

	// Function
	OpFunc
)

var opcodeNames = map[Opcode]string{
	OpNop: "NOP",
	OpVal: "VAL", OpPush: "PUSH", OpPop: "POP", OpStack: "STACK",
	OpAdd: "ADD", OpSub: "SUB", OpMul: "MUL", OpDiv: "DIV", OpMod: "MOD",
	OpBitAnd: "BITAND", OpBitOr: "BITOR", OpBitXor: "BITXOR", OpBitNot: "BITNOT", OpNeg: "NEG",
	OpNumEq: "NUMEQ", OpNumGe: "NUMGE", OpNumGt: "NUMGT",
	OpStrEq: "STREQ", OpStrNe: "STRNE",
	OpRegexMatch: "REGEX_MATCH", OpRegexNMatch: "REGEX_NMATCH",
	OpAnd: "AND", OpOr: "OR", OpNot: "NOT",
	OpConcat: "CONCAT", OpRepeat: "REPEAT",
	OpJmp: "JMP", OpJmpIfNot: "JMPIFNOT", OpHalt: "HALT",
	OpVar: "VAR", OpSet: "SET", OpDictLookup: "DICT_LOOKUP",
	OpOpenFrag: "OPEN_FRAG", OpCloseFrag: "CLOSE_FRAG", OpRepeatFrag: "REPEAT_FRAG",
	OpFragCount: "FRAG_COUNT", OpFragIndex: "FRAG_INDEX", OpFragFirst: "FRAG_FIRST",
	OpFragInner: "FRAG_INNER", OpFragLast: "FRAG_LAST", OpNestedFragCount: "NESTED_FRAG_COUNT",
	OpPrint: "PRINT", OpPushFmt: "PUSH_FMT", OpPopFmt: "POP_FMT",
	OpPushCT: "PUSH_CT", OpPopCT: "POP_CT", OpDebug: "DEBUG", OpBytecode: "BYTECODE",
	OpExists: "EXISTS", OpDefined: "DEFINED", OpIsEmpty: "ISEMPTY",
	OpRepr: "REPR", OpType: "TYPE", OpCount: "COUNT", OpJsonify: "JSONIFY",
	OpGetAttr: "GET_ATTR", OpAt: "AT", OpFunc: "FUNC",
}

func (o Opcode) String() string {
	if s, ok := opcodeNames[o]; ok {
		return s
	}
	return "UNKNOWN"
}

// SideEffecting reports whether an instruction's observable behavior goes
// beyond the value it pushes: these are never folded by the compile-time
// optimizer.
func (o Opcode) SideEffecting() bool {
	switch o {
	case OpPrint, OpSet, OpDebug, OpBytecode, OpOpenFrag, OpCloseFrag, OpRepeatFrag,
		OpPushFmt, OpPopFmt, OpPushCT, OpPopCT:
		return true
	default:
		return false
	}
}
