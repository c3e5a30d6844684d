package parser

import (
	"github.com/aledsdavies/teng/core/source"
	"github.com/aledsdavies/teng/core/value"
	"github.com/aledsdavies/teng/runtime/bytecode"
)

// exprParser is a precedence-climbing expression compiler: it emits
// byte-code directly as it parses rather than building an AST,
// the same single-pass style the teacher's devcmd grammar parser used for
// its own expression-ish constructs (runtime/lexer's shunting-yard value
// parsing), adapted here to Teng's operator set.
type exprParser struct {
	c    *Compiler
	toks []Token
	i    int
}

func (p *exprParser) atEnd() bool  { return p.i >= len(p.toks) || p.toks[p.i].Kind == TokEOF }
func (p *exprParser) peek() Token  { return p.tokAt(p.i) }
func (p *exprParser) peekAt(n int) Token { return p.tokAt(p.i + n) }

func (p *exprParser) tokAt(i int) Token {
	if i >= len(p.toks) {
		if len(p.toks) > 0 {
			last := p.toks[len(p.toks)-1]
			return Token{Kind: TokEOF, Pos: last.Pos}
		}
		return Token{Kind: TokEOF}
	}
	return p.toks[i]
}

func (p *exprParser) next() Token {
	t := p.peek()
	p.i++
	return t
}

func (p *exprParser) expect(k TokKind, what string) (Token, error) {
	t := p.peek()
	if t.Kind != k {
		return t, perr(t.Pos, "expected %s, got %q", what, t.Text)
	}
	return p.next(), nil
}

func (p *exprParser) emit(ins bytecode.Instruction) int { return p.c.prog.Emit(ins) }

// parseExpr is the grammar's entry point: the ternary `cond ? a : b` sits
// at the lowest precedence, above short-circuit or/and, above comparison,
// above the bitwise group, above additive/concat, above
// multiplicative/repeat, above unary, above postfix, above primary.
func (p *exprParser) parseExpr() error {
	return p.parseTernary()
}

func (p *exprParser) parseTernary() error {
	if err := p.parseOr(); err != nil {
		return err
	}
	if p.peek().Kind != TokQuestion {
		return nil
	}
	qpos := p.next().Pos
	// cond already on the stack: JMPIFNOT to the else-branch.
	jifAddr := p.emit(bytecode.Instruction{Op: bytecode.OpJmpIfNot, Pos: qpos})
	if err := p.parseTernary(); err != nil {
		return err
	}
	if _, err := p.expect(TokColon, "':'"); err != nil {
		return err
	}
	jendAddr := p.emit(bytecode.Instruction{Op: bytecode.OpJmp, Pos: qpos})
	p.c.prog.Patch(jifAddr, p.c.prog.Len())
	if err := p.parseTernary(); err != nil {
		return err
	}
	p.c.prog.Patch(jendAddr, p.c.prog.Len())
	return nil
}

// parseOr/parseAnd implement OR/AND's peek-and-short-circuit semantics
// (runtime/interp/step.go): the left operand stays on the stack; a
// falsy(AND)/truthy(OR) left short-circuits past the right operand,
// otherwise the left is popped and the right operand becomes the result.
func (p *exprParser) parseOr() error {
	if err := p.parseAnd(); err != nil {
		return err
	}
	for p.peek().Kind == TokOrOr || p.peek().Kind == TokKwOr {
		pos := p.next().Pos
		addr := p.emit(bytecode.Instruction{Op: bytecode.OpOr, Pos: pos})
		if err := p.parseAnd(); err != nil {
			return err
		}
		p.c.prog.Patch(addr, p.c.prog.Len())
	}
	return nil
}

func (p *exprParser) parseAnd() error {
	if err := p.parseNot(); err != nil {
		return err
	}
	for p.peek().Kind == TokAndAnd || p.peek().Kind == TokKwAnd {
		pos := p.next().Pos
		addr := p.emit(bytecode.Instruction{Op: bytecode.OpAnd, Pos: pos})
		if err := p.parseNot(); err != nil {
			return err
		}
		p.c.prog.Patch(addr, p.c.prog.Len())
	}
	return nil
}

func (p *exprParser) parseNot() error {
	if p.peek().Kind == TokBang || p.peek().Kind == TokKwNot {
		pos := p.next().Pos
		if err := p.parseNot(); err != nil {
			return err
		}
		p.emit(bytecode.Instruction{Op: bytecode.OpNot, Pos: pos})
		return nil
	}
	return p.parseComparison()
}

// parseComparison maps the source operators onto the opcode set
// runtime/bytecode actually defines (NUMEQ/NUMGE/NUMGT/STREQ/STRNE; there
// is no NUMNE/NUMLE/NUMLT), the same way the teacher's devcmd decorator
// matcher composes a handful of primitive comparisons instead of one per
// operator: `!=` is NOT(NUMEQ), `<=` is NOT(NUMGT), `<` is NOT(NUMGE).
// `==`/`!=`/`>=`/`<=`/`>`/`<` coerce numerically; `eq`/`ne` compare
// strings literally; `=~`/`!~` match a regex.
func (p *exprParser) parseComparison() error {
	if err := p.parseBitOr(); err != nil {
		return err
	}
	for {
		t := p.peek()
		switch t.Kind {
		case TokEqEq:
			p.next()
			if err := p.parseBitOr(); err != nil {
				return err
			}
			p.emit(bytecode.Instruction{Op: bytecode.OpNumEq, Pos: t.Pos})
		case TokNotEq:
			p.next()
			if err := p.parseBitOr(); err != nil {
				return err
			}
			p.emit(bytecode.Instruction{Op: bytecode.OpNumEq, Pos: t.Pos})
			p.emit(bytecode.Instruction{Op: bytecode.OpNot, Pos: t.Pos})
		case TokGtEq:
			p.next()
			if err := p.parseBitOr(); err != nil {
				return err
			}
			p.emit(bytecode.Instruction{Op: bytecode.OpNumGe, Pos: t.Pos})
		case TokLtEq:
			p.next()
			if err := p.parseBitOr(); err != nil {
				return err
			}
			p.emit(bytecode.Instruction{Op: bytecode.OpNumGt, Pos: t.Pos})
			p.emit(bytecode.Instruction{Op: bytecode.OpNot, Pos: t.Pos})
		case TokGt:
			p.next()
			if err := p.parseBitOr(); err != nil {
				return err
			}
			p.emit(bytecode.Instruction{Op: bytecode.OpNumGt, Pos: t.Pos})
		case TokLt:
			p.next()
			if err := p.parseBitOr(); err != nil {
				return err
			}
			p.emit(bytecode.Instruction{Op: bytecode.OpNumGe, Pos: t.Pos})
			p.emit(bytecode.Instruction{Op: bytecode.OpNot, Pos: t.Pos})
		case TokKwEq:
			p.next()
			if err := p.parseBitOr(); err != nil {
				return err
			}
			p.emit(bytecode.Instruction{Op: bytecode.OpStrEq, Pos: t.Pos})
		case TokKwNe:
			p.next()
			if err := p.parseBitOr(); err != nil {
				return err
			}
			p.emit(bytecode.Instruction{Op: bytecode.OpStrNe, Pos: t.Pos})
		case TokMatch:
			p.next()
			if err := p.parseBitOr(); err != nil {
				return err
			}
			p.emit(bytecode.Instruction{Op: bytecode.OpRegexMatch, Pos: t.Pos})
		case TokNotMatch:
			p.next()
			if err := p.parseBitOr(); err != nil {
				return err
			}
			p.emit(bytecode.Instruction{Op: bytecode.OpRegexNMatch, Pos: t.Pos})
		default:
			return nil
		}
	}
}

func (p *exprParser) parseBitOr() error {
	if err := p.parseBitXor(); err != nil {
		return err
	}
	for p.peek().Kind == TokPipe {
		pos := p.next().Pos
		if err := p.parseBitXor(); err != nil {
			return err
		}
		p.emit(bytecode.Instruction{Op: bytecode.OpBitOr, Pos: pos})
	}
	return nil
}

func (p *exprParser) parseBitXor() error {
	if err := p.parseBitAnd(); err != nil {
		return err
	}
	for p.peek().Kind == TokCaret {
		pos := p.next().Pos
		if err := p.parseBitAnd(); err != nil {
			return err
		}
		p.emit(bytecode.Instruction{Op: bytecode.OpBitXor, Pos: pos})
	}
	return nil
}

func (p *exprParser) parseBitAnd() error {
	if err := p.parseAdditive(); err != nil {
		return err
	}
	for p.peek().Kind == TokAmp {
		pos := p.next().Pos
		if err := p.parseAdditive(); err != nil {
			return err
		}
		p.emit(bytecode.Instruction{Op: bytecode.OpBitAnd, Pos: pos})
	}
	return nil
}

// parseAdditive handles +, -, and ++ (concat). The `*`-repeat-vs-MUL
// decision is entirely local to parseMultiplicative, since multiplicative
// binds tighter than additive and so never spans a `++`/`+`/`-` boundary.
func (p *exprParser) parseAdditive() error {
	if _, err := p.parseMultiplicative(); err != nil {
		return err
	}
	for {
		t := p.peek()
		switch t.Kind {
		case TokPlus:
			p.next()
			if _, err := p.parseMultiplicative(); err != nil {
				return err
			}
			p.emit(bytecode.Instruction{Op: bytecode.OpAdd, Pos: t.Pos})
		case TokMinus:
			p.next()
			if _, err := p.parseMultiplicative(); err != nil {
				return err
			}
			p.emit(bytecode.Instruction{Op: bytecode.OpSub, Pos: t.Pos})
		case TokPlusPlus:
			p.next()
			if _, err := p.parseMultiplicative(); err != nil {
				return err
			}
			p.emit(bytecode.Instruction{Op: bytecode.OpConcat, Pos: t.Pos})
		default:
			return nil
		}
	}
}

// parseMultiplicative returns whether its result is statically a string,
// propagated up to parseAdditive for the `*`-repeat decision.
func (p *exprParser) parseMultiplicative() (bool, error) {
	leftStr, err := p.parseUnary()
	if err != nil {
		return false, err
	}
	for {
		t := p.peek()
		switch t.Kind {
		case TokStar:
			p.next()
			if _, err := p.parseUnary(); err != nil {
				return false, err
			}
			if leftStr {
				// REPEAT's result is itself a string: "a"*2*3 chains.
				p.emit(bytecode.Instruction{Op: bytecode.OpRepeat, Pos: t.Pos})
			} else {
				p.emit(bytecode.Instruction{Op: bytecode.OpMul, Pos: t.Pos})
			}
		case TokSlash:
			p.next()
			if _, err := p.parseUnary(); err != nil {
				return false, err
			}
			p.emit(bytecode.Instruction{Op: bytecode.OpDiv, Pos: t.Pos})
			leftStr = false
		case TokPercent:
			p.next()
			if _, err := p.parseUnary(); err != nil {
				return false, err
			}
			p.emit(bytecode.Instruction{Op: bytecode.OpMod, Pos: t.Pos})
			leftStr = false
		default:
			return leftStr, nil
		}
	}
}

func (p *exprParser) parseUnary() (bool, error) {
	t := p.peek()
	switch t.Kind {
	case TokMinus:
		p.next()
		if _, err := p.parseUnary(); err != nil {
			return false, err
		}
		p.emit(bytecode.Instruction{Op: bytecode.OpNeg, Pos: t.Pos})
		return false, nil
	case TokTilde:
		p.next()
		if _, err := p.parseUnary(); err != nil {
			return false, err
		}
		p.emit(bytecode.Instruction{Op: bytecode.OpBitNot, Pos: t.Pos})
		return false, nil
	case TokBang, TokKwNot:
		p.next()
		if _, err := p.parseUnary(); err != nil {
			return false, err
		}
		p.emit(bytecode.Instruction{Op: bytecode.OpNot, Pos: t.Pos})
		return false, nil
	default:
		return p.parsePostfix()
	}
}

func (p *exprParser) parsePostfix() (bool, error) {
	isStr, err := p.parsePrimary()
	if err != nil {
		return false, err
	}
	for {
		t := p.peek()
		switch t.Kind {
		case TokDot:
			p.next()
			name, err := p.expect(TokIdent, "attribute name")
			if err != nil {
				return false, err
			}
			p.emit(bytecode.Instruction{Op: bytecode.OpGetAttr, StrArg: name.Text, Pos: t.Pos})
			isStr = false
		case TokLBracket:
			p.next()
			if err := p.parseExpr(); err != nil {
				return false, err
			}
			if _, err := p.expect(TokRBracket, "']'"); err != nil {
				return false, err
			}
			p.emit(bytecode.Instruction{Op: bytecode.OpAt, Pos: t.Pos})
			isStr = false
		default:
			return isStr, nil
		}
	}
}

// identOpcodes maps the reserved iteration-context identifiers to their
// dedicated opcodes; any other bare identifier is an ordinary variable
// reference.
var identOpcodes = map[string]bytecode.Opcode{
	"_first": bytecode.OpFragFirst,
	"_inner": bytecode.OpFragInner,
	"_last":  bytecode.OpFragLast,
	"_index": bytecode.OpFragIndex,
	"_count": bytecode.OpFragCount,
}

// reflectionFuncs maps reserved built-in "function-looking" reflection
// operators straight onto their opcode, bypassing OpFunc/the
// builtins.Registry entirely since they read interpreter state (the value
// stack, the escaper) rather than behaving as pure functions.
var reflectionFuncs = map[string]bytecode.Opcode{
	"exists":   bytecode.OpExists,
	"defined":  bytecode.OpDefined,
	"isempty":  bytecode.OpIsEmpty,
	"repr":     bytecode.OpRepr,
	"type":     bytecode.OpType,
	"count":    bytecode.OpCount,
	"jsonify":  bytecode.OpJsonify,
}

func (p *exprParser) parsePrimary() (bool, error) {
	t := p.peek()
	switch t.Kind {
	case TokInt:
		p.next()
		p.emit(bytecode.Instruction{Op: bytecode.OpVal, Operand: value.Int(t.Int), Pos: t.Pos})
		return false, nil
	case TokReal:
		p.next()
		p.emit(bytecode.Instruction{Op: bytecode.OpVal, Operand: value.Real(t.Real), Pos: t.Pos})
		return false, nil
	case TokString:
		p.next()
		p.emit(bytecode.Instruction{Op: bytecode.OpVal, Operand: value.Str(t.Str), Pos: t.Pos})
		return true, nil
	case TokRegex:
		p.next()
		re, err := compileRegex(t.Str, t.Text, t.Pos)
		if err != nil {
			return false, err
		}
		p.emit(bytecode.Instruction{Op: bytecode.OpVal, Operand: value.RegexVal(re), Pos: t.Pos})
		return false, nil
	case TokLParen:
		p.next()
		if err := p.parseExpr(); err != nil {
			return false, err
		}
		if _, err := p.expect(TokRParen, "')'"); err != nil {
			return false, err
		}
		return false, nil
	case TokDot:
		return p.parseVarPath()
	case TokIdent:
		if op, ok := identOpcodes[t.Text]; ok {
			p.next()
			id := p.c.currentIdentifier(t.Text)
			p.emit(bytecode.Instruction{Op: op, Identifier: id, Pos: t.Pos})
			return false, nil
		}
		if p.peekAt(1).Kind == TokLParen {
			return p.parseCallOrReflection()
		}
		return p.parseVarPath()
	default:
		return false, perr(t.Pos, "unexpected token %q in expression", t.Text)
	}
}

// parseCallOrReflection compiles `name(args…)`: one of the reflection
// operators (exists/defined/isempty/repr/type/count/jsonify), compiled
// straight to its opcode, or an ordinary built-in call compiled to OpFunc.
func (p *exprParser) parseCallOrReflection() (bool, error) {
	name := p.next() // ident
	if _, err := p.expect(TokLParen, "'('"); err != nil {
		return false, err
	}
	argc := 0
	if p.peek().Kind != TokRParen {
		for {
			if err := p.parseExpr(); err != nil {
				return false, err
			}
			argc++
			if p.peek().Kind != TokComma {
				break
			}
			p.next()
		}
	}
	if _, err := p.expect(TokRParen, "')'"); err != nil {
		return false, err
	}
	if op, ok := reflectionFuncs[name.Text]; ok {
		if argc != 1 {
			return false, perr(name.Pos, "%s() takes exactly one argument", name.Text)
		}
		p.emit(bytecode.Instruction{Op: op, Pos: name.Pos})
		return name.Text == "repr" || name.Text == "jsonify", nil
	}
	p.emit(bytecode.Instruction{Op: bytecode.OpFunc, StrArg: name.Text, IntArg: argc, Pos: name.Pos})
	return false, nil
}

// parseVarPath compiles a variable path: absolute (leading '.'), relative,
// or local. The head segment resolves through OpVar (frame-based, using
// the compiler's compile-time frame-offset tracker); every further
// `.segment` chains through OpGetAttr against the value OpVar produced,
// since frame.Resolver.GetVar only ever resolves one flat name at a given
// open-frame position and has no notion of a nested path. With the
// alwaysescape flag enabled, OpVar carries the escape flag, but only when
// no `.segment` follows the head.
func (p *exprParser) parseVarPath() (bool, error) {
	absolute := false
	if p.peek().Kind == TokDot {
		absolute = true
		p.next()
	}
	head, err := p.expect(TokIdent, "identifier")
	if err != nil {
		return false, err
	}
	id := p.c.currentIdentifier(head.Text)
	id.Absolute = absolute
	if absolute {
		id.FrameOffset, id.FragOffset = 0, 0
	}
	addr := p.emit(bytecode.Instruction{Op: bytecode.OpVar, Identifier: id, Pos: head.Pos})
	segments := 0
	for p.peek().Kind == TokDot && p.peekAt(1).Kind == TokIdent {
		p.next()
		seg := p.next()
		p.emit(bytecode.Instruction{Op: bytecode.OpGetAttr, StrArg: seg.Text, Pos: seg.Pos})
		segments++
	}
	if segments == 0 && p.c.Config != nil && p.c.Config.Enabled("alwaysescape") {
		p.c.prog.Instructions[addr].IntArg = 1
	}
	return false, nil
}

// currentIdentifier resolves name against the compiler's compile-time
// open-frame depth, matching runtime/frame.Stack's layout where every
// open fragment is its own single-record frame.
func (c *Compiler) currentIdentifier(name string) bytecode.Identifier {
	off := c.frameDepth - 1
	if off < 0 {
		off = 0
	}
	return bytecode.Identifier{Name: name, FrameOffset: off, FragOffset: 0, Resolved: true}
}

func compileRegex(source_, text string, pos source.Position) (*value.Regex, error) {
	flags := value.RegexFlags{}
	for _, ch := range text {
		switch ch {
		case 'i':
			flags.I = true
		case 'g':
			flags.G = true
		case 'm':
			flags.M = true
		case 'a':
			flags.A = true
		case 'd':
			flags.D = true
		case 'e':
			flags.E = true
		case 'x':
			flags.X = true
		case 'u':
			flags.U = true
		}
	}
	prog, err := compileRegexProgram(source_, flags)
	if err != nil {
		return nil, perr(pos, "invalid regex /%s/: %v", source_, err)
	}
	return &value.Regex{Source: source_, Flags: flags, Program: prog}, nil
}
