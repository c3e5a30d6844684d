// Package parser implements Teng's two-level lexer and single-pass
// compiler: level-1 splits a template into text/`${…}`/`#{…}`/
// `<?teng…?>` segments (lex1.go), level-2 tokenizes a segment's body
// (lex2.go, token.go), and Compiler walks both, emitting a
// bytecode.Program directly — there is no intermediate AST, matching
// the teacher's own single-pass devcmd grammar parser this package
// replaces.
package parser

import (
	"fmt"

	"github.com/aledsdavies/teng/core/source"
	"github.com/aledsdavies/teng/core/value"
	"github.com/aledsdavies/teng/runtime/builtins"
	"github.com/aledsdavies/teng/runtime/bytecode"
	"github.com/aledsdavies/teng/runtime/dictionary"
	"github.com/aledsdavies/teng/runtime/errlog"
	"github.com/aledsdavies/teng/runtime/escape"
	"github.com/aledsdavies/teng/runtime/fs"
	"github.com/aledsdavies/teng/runtime/interp"
)

// parseError signals a recoverable syntax error within a single directive:
// the compiler logs it, truncates the partial byte-code for that directive
// back to its start address, and resumes at the next directive boundary. A
// second one in direct succession abandons the whole program — see
// Compiler.fatal2x.
type parseError struct {
	pos source.Position
	msg string
}

func (e *parseError) Error() string { return e.msg }

func perr(pos source.Position, format_ string, args ...interface{}) error {
	return &parseError{pos: pos, msg: fmt.Sprintf(format_, args...)}
}

// blockKind names the directive construct a blockFrame is tracking.
type blockKind int

const (
	blockIf blockKind = iota
	blockFrag
	blockFormat
	blockCtype
)

// blockFrame is one entry on the compiler's nesting stack, used to
// back-patch forward jump targets once the matching end-directive is seen.
type blockFrame struct {
	kind blockKind
	pos  source.Position

	// blockIf
	jmpIfNotAddr int   // address of the pending JMPIFNOT, -1 once consumed by `else`
	endJmps      []int // JMP addresses to patch to the final `endif` address

	// blockFrag
	openAddr int // address of OPEN_FRAG, patched at `endfrag` to the skip target
}

// Compiler compiles Teng source into a bytecode.Program. One Compiler
// compiles one top-level template; includes recurse into the
// same instance, sharing its program, include stack and error log.
type Compiler struct {
	Reader   fs.Reader
	Dict     *dictionary.Dictionary
	Config   *dictionary.Config
	CTReg    *escape.Registry
	Builtins *builtins.Registry
	Log      *errlog.Log

	prog     *bytecode.Program
	includes *source.IncludeStack
	interner *source.Interner

	// frameDepth is the compile-time open-frame nesting counter. It starts
	// at 1 for the root frame, matching runtime/frame.Stack.FrameDepth().
	// Every `<?teng frag?>` pushes a brand-new frame holding exactly one
	// record (runtime/frame/frame.go's Stack.OpenFrag never appends a Record
	// to an existing Frame), so FragOffset is always 0 and FrameOffset is
	// simply this counter minus one — no need to replicate the runtime's
	// fuller nested-frame/record bookkeeping at parse time.
	frameDepth int

	blocks []blockFrame

	consecutiveErrors int
}

// NewCompiler creates a Compiler. cfg may be nil (NewConfig()'s defaults
// apply); dict may be nil (no compile-time dictionary folding, #{KEY}
// always emits DICT_LOOKUP).
func NewCompiler(reader fs.Reader, dict *dictionary.Dictionary, cfg *dictionary.Config, ctReg *escape.Registry, builtinsReg *builtins.Registry, log *errlog.Log) *Compiler {
	if cfg == nil {
		cfg = dictionary.NewConfig()
	}
	return &Compiler{
		Reader: reader, Dict: dict, Config: cfg, CTReg: ctReg, Builtins: builtinsReg, Log: log,
		interner:   source.NewInterner(),
		frameDepth: 1,
	}
}

// CompileFile compiles the file at path (and, transitively, every file it
// includes) into a single bytecode.Program.
func (c *Compiler) CompileFile(path string) (*bytecode.Program, error) {
	src, err := c.Reader.Read(path)
	if err != nil {
		return nil, fmt.Errorf("parser: reading %s: %w", path, err)
	}
	prog, err := c.CompileString(path, string(src))
	if err != nil {
		return nil, err
	}
	if st, statErr := c.Reader.Stat(path); statErr == nil {
		prog.Sources.Add(path, st)
	}
	return prog, nil
}

// CompileString compiles src as a top-level template named name (used only
// for diagnostics and for include-cycle detection).
func (c *Compiler) CompileString(name, src string) (*bytecode.Program, error) {
	c.prog = bytecode.New()
	maxDepth := 0
	if c.Config != nil {
		maxDepth = c.Config.MaxIncludeDepth
	}
	c.includes = source.NewIncludeStack(maxDepth)
	if err := c.includes.Push(name, source.Position{}); err != nil {
		return nil, err
	}
	if err := c.compileSource(name, src); err != nil {
		return nil, err
	}
	c.includes.Pop()
	if len(c.blocks) > 0 {
		c.logf(errlog.Error, source.Position{}, "unclosed %s at end of template", blockName(c.blocks[len(c.blocks)-1].kind))
	}
	c.prog.Emit(bytecode.Instruction{Op: bytecode.OpHalt})
	return c.prog, nil
}

func blockName(k blockKind) string {
	switch k {
	case blockIf:
		return "if"
	case blockFrag:
		return "frag"
	case blockFormat:
		return "format"
	case blockCtype:
		return "ctype"
	default:
		return "block"
	}
}

func (c *Compiler) logf(level errlog.Level, pos source.Position, format_ string, args ...interface{}) {
	if c.Log == nil {
		return
	}
	c.Log.Append(level, pos, fmt.Sprintf(format_, args...))
}

func (c *Compiler) shortTagEnabled() bool {
	return c.Config != nil && c.Config.Enabled(dictionary.FlagShortTag)
}

// compileSource runs the level-1 lexer over src and dispatches every
// segment, recovering from per-directive syntax errors: on error the
// partial byte-code for that directive is truncated back to
// its start address and compilation resumes at the next segment. Two
// syntax errors in direct succession abandon the rest of this source.
func (c *Compiler) compileSource(filename, src string) error {
	name := c.interner.Intern(filename)
	l1 := newLexer1(src, name, c.shortTagEnabled())
	segs := l1.segments()

	for _, seg := range segs {
		switch seg.Kind {
		case SegEOF:
			return nil
		case SegError:
			c.logf(errlog.Error, seg.Pos, "%s", seg.Text)
			return nil
		case SegText:
			c.emitText(seg.Text)
			c.consecutiveErrors = 0
		case SegExpr:
			if err := c.recover(seg.Pos, func() error { return c.compileExprSegment(seg) }); err != nil {
				return err
			}
		case SegDict:
			if err := c.recover(seg.Pos, func() error { return c.compileDictSegment(seg) }); err != nil {
				return err
			}
		case SegTeng, SegTengShort:
			if err := c.recover(seg.Pos, func() error { return c.compileDirective(seg) }); err != nil {
				return err
			}
		}
	}
	return nil
}

// recover runs fn, truncating the program back to its pre-call length and
// logging a Diag entry if fn returns a *parseError. A second consecutive
// parseError aborts the whole compile.
func (c *Compiler) recover(pos source.Position, fn func() error) error {
	start := c.prog.Len()
	err := fn()
	if err == nil {
		c.consecutiveErrors = 0
		return nil
	}
	pe, ok := err.(*parseError)
	if !ok {
		return err
	}
	c.prog.Truncate(start)
	c.logf(errlog.Diag, pe.pos, "%s", pe.msg)
	c.consecutiveErrors++
	if c.consecutiveErrors >= 2 {
		return fmt.Errorf("parser: too many consecutive syntax errors, aborting near %s: %w", pe.pos, pe)
	}
	return nil
}

func (c *Compiler) emitText(text string) {
	if text == "" {
		return
	}
	c.prog.Emit(bytecode.Instruction{Op: bytecode.OpVal, Operand: value.Str(text)})
	c.prog.Emit(bytecode.Instruction{Op: bytecode.OpPrint})
}

// compileExprSegment compiles `${EXPR}`, folding it to a literal at
// compile time when possible and otherwise emitting OpPrint over the live
// expression.
func (c *Compiler) compileExprSegment(seg Segment) error {
	toks, lexErrs := c.lex(seg)
	if len(lexErrs) > 0 {
		return perr(seg.Pos, "%s", lexErrs[0])
	}
	if err := c.parseAndFold(toks); err != nil {
		return err
	}
	c.prog.Emit(bytecode.Instruction{Op: bytecode.OpPrint, Pos: seg.Pos})
	return nil
}

// parseAndFold parses a complete expression from toks (erroring if
// anything trails it), emitting its byte-code and then attempting
// compile-time constant folding over exactly the range it emitted.
func (c *Compiler) parseAndFold(toks []Token) error {
	p := &exprParser{c: c, toks: toks}
	start := c.prog.Len()
	if err := p.parseExpr(); err != nil {
		return err
	}
	if !p.atEnd() {
		return perr(p.peek().Pos, "unexpected %q after expression", p.peek().Text)
	}
	c.fold(start)
	return nil
}

// fold replaces prog.Instructions[start:] with a single VAL instruction
// when it can be evaluated entirely at compile time.
func (c *Compiler) fold(start int) {
	end := c.prog.Len()
	if start >= end {
		return
	}
	v, ok := interp.Fold(c.prog, start, end, c.Builtins)
	if !ok {
		return
	}
	pos := c.prog.Instructions[start].Pos
	c.prog.Truncate(start)
	c.prog.Emit(bytecode.Instruction{Op: bytecode.OpVal, Operand: v, Pos: pos})
}

// compileDictSegment compiles `#{KEY}`: a literal key resolves against the
// active dictionary at compile time when one is loaded; otherwise it
// defers to the runtime OpDictLookup opcode.
func (c *Compiler) compileDictSegment(seg Segment) error {
	key := seg.Text
	if c.Dict != nil {
		if v, ok := c.Dict.Get(key); ok {
			c.prog.Emit(bytecode.Instruction{Op: bytecode.OpVal, Operand: value.Str(v), Pos: seg.Pos})
			c.prog.Emit(bytecode.Instruction{Op: bytecode.OpPrint, Pos: seg.Pos})
			return nil
		}
	}
	c.prog.Emit(bytecode.Instruction{Op: bytecode.OpDictLookup, StrArg: key, Pos: seg.Pos})
	c.prog.Emit(bytecode.Instruction{Op: bytecode.OpPrint, Pos: seg.Pos})
	return nil
}

// lex runs the level-2 lexer over a segment's body.
func (c *Compiler) lex(seg Segment) ([]Token, []string) {
	l2 := newLexer2(seg.Text, seg.Pos.Filename, seg.Pos.Line, seg.Pos.Column)
	return l2.tokens()
}

