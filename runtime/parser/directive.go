package parser

import (
	"strings"

	"github.com/aledsdavies/teng/core/source"
	"github.com/aledsdavies/teng/runtime/bytecode"
	"github.com/aledsdavies/teng/runtime/errlog"
	"github.com/aledsdavies/teng/runtime/format"
)

// formatModes maps a `format space="…"` mode name onto its format.Mode;
// both the underscored constant spelling (PassWhite, …) and the bare
// spelling a directive attribute is more likely to carry are accepted.
var formatModes = map[string]format.Mode{
	"pass_white": format.PassWhite, "passwhite": format.PassWhite,
	"no_white": format.NoWhite, "nowhite": format.NoWhite,
	"one_space": format.OneSpace, "onespace": format.OneSpace,
	"strip_lines": format.StripLines, "striplines": format.StripLines,
	"join_lines": format.JoinLines, "joinlines": format.JoinLines,
	"no_white_lines": format.NoWhiteLines, "nowhitelines": format.NoWhiteLines,
}

// compileDirective dispatches one `<?teng…?>`/`<?…?>` body.
func (c *Compiler) compileDirective(seg Segment) error {
	toks, lexErrs := c.lex(seg)
	if len(lexErrs) > 0 {
		return perr(seg.Pos, "%s", lexErrs[0])
	}
	p := &exprParser{c: c, toks: toks}
	if p.atEnd() {
		return nil // an empty `<?teng ?>` is allowed, a no-op
	}

	kw := p.next()
	switch kw.Kind {
	case TokKwFrag:
		return c.compileFrag(p, kw.Pos)
	case TokKwEndfrag:
		return c.compileEndfrag(p, kw.Pos)
	case TokKwIf:
		return c.compileIf(p, kw.Pos)
	case TokKwElseif:
		return c.compileElseif(p, kw.Pos)
	case TokKwElse:
		return c.compileElse(p, kw.Pos)
	case TokKwEndif:
		return c.compileEndif(p, kw.Pos)
	case TokKwSet:
		return c.compileSet(p, kw.Pos)
	case TokKwFormat:
		return c.compileFormat(p, kw.Pos)
	case TokKwEndformat:
		return c.compileEndformat(p, kw.Pos)
	case TokKwCtype:
		return c.compileCtype(p, kw.Pos)
	case TokKwEndctype:
		return c.compileEndctype(p, kw.Pos)
	case TokKwInclude:
		return c.compileInclude(p, kw.Pos)
	case TokKwDebug:
		p.emit(bytecode.Instruction{Op: bytecode.OpDebug, Pos: kw.Pos})
		return nil
	case TokKwBytecode:
		p.emit(bytecode.Instruction{Op: bytecode.OpBytecode, Pos: kw.Pos})
		return nil
	case TokKwCase, TokKwDefault:
		// No grounding for case/default's runtime semantics survived in
		// the retrieved original source (only a token-name stringifier),
		// so rather than invent behavior these are rejected with a clear
		// diagnostic — see DESIGN.md.
		return perr(kw.Pos, "%s directive is not supported", kw.Text)
	default:
		return perr(kw.Pos, "unexpected directive keyword %q", kw.Text)
	}
}

func (c *Compiler) pushBlock(b blockFrame) { c.blocks = append(c.blocks, b) }

// popBlock pops the innermost block, requiring it to be of kind want.
func (c *Compiler) popBlock(want blockKind, pos source.Position) (blockFrame, error) {
	if len(c.blocks) == 0 {
		return blockFrame{}, perr(pos, "unmatched end%s", blockName(want))
	}
	top := c.blocks[len(c.blocks)-1]
	if top.kind != want {
		return blockFrame{}, perr(pos, "mismatched end%s: innermost open block is %s", blockName(want), blockName(top.kind))
	}
	c.blocks = c.blocks[:len(c.blocks)-1]
	return top, nil
}

// peekBlock returns the innermost block without popping it.
func (c *Compiler) peekBlock(want blockKind, pos source.Position) (*blockFrame, error) {
	if len(c.blocks) == 0 || c.blocks[len(c.blocks)-1].kind != want {
		return nil, perr(pos, "%s outside matching block", blockName(want))
	}
	return &c.blocks[len(c.blocks)-1], nil
}

// compileFrag compiles `<?teng frag NAME ?>`: OpOpenFrag is emitted with a
// placeholder skip address, patched at the matching endfrag to the address
// one past OpCloseFrag.
func (c *Compiler) compileFrag(p *exprParser, pos source.Position) error {
	name, err := p.expect(TokIdent, "fragment name")
	if err != nil {
		return err
	}
	if !p.atEnd() {
		return perr(p.peek().Pos, "unexpected %q after frag name", p.peek().Text)
	}
	addr := p.emit(bytecode.Instruction{Op: bytecode.OpOpenFrag, Identifier: bytecode.Identifier{Name: name.Text}, Pos: pos})
	c.frameDepth++
	c.pushBlock(blockFrame{kind: blockFrag, pos: pos, openAddr: addr})
	return nil
}

// compileEndfrag emits OpCloseFrag(back=openAddr+1, the first body
// instruction) and patches OpOpenFrag's skip address to the instruction
// right after OpCloseFrag.
func (c *Compiler) compileEndfrag(p *exprParser, pos source.Position) error {
	if !p.atEnd() {
		return perr(p.peek().Pos, "unexpected %q after endfrag", p.peek().Text)
	}
	b, err := c.popBlock(blockFrag, pos)
	if err != nil {
		return err
	}
	c.frameDepth--
	p.emit(bytecode.Instruction{Op: bytecode.OpCloseFrag, IntArg: b.openAddr + 1, Pos: pos})
	c.prog.Patch(b.openAddr, c.prog.Len())
	return nil
}

// compileIf compiles `<?teng if COND ?>`: the condition is evaluated and
// OpJmpIfNot's target is back-patched once the matching elseif/else/endif
// is seen.
func (c *Compiler) compileIf(p *exprParser, pos source.Position) error {
	start := c.prog.Len()
	if err := p.parseExpr(); err != nil {
		return err
	}
	if !p.atEnd() {
		return perr(p.peek().Pos, "unexpected %q after if condition", p.peek().Text)
	}
	c.fold(start)
	addr := p.emit(bytecode.Instruction{Op: bytecode.OpJmpIfNot, Pos: pos})
	c.pushBlock(blockFrame{kind: blockIf, pos: pos, jmpIfNotAddr: addr})
	return nil
}

// compileElseif closes the previous branch with a JMP to the eventual
// endif, patches the previous condition's JMPIFNOT to land here, then
// compiles the new condition the same way compileIf does.
func (c *Compiler) compileElseif(p *exprParser, pos source.Position) error {
	b, err := c.peekBlock(blockIf, pos)
	if err != nil {
		return err
	}
	if b.jmpIfNotAddr < 0 {
		return perr(pos, "elseif after else")
	}
	jend := p.emit(bytecode.Instruction{Op: bytecode.OpJmp, Pos: pos})
	b.endJmps = append(b.endJmps, jend)
	c.prog.Patch(b.jmpIfNotAddr, c.prog.Len())

	start := c.prog.Len()
	if err := p.parseExpr(); err != nil {
		return err
	}
	if !p.atEnd() {
		return perr(p.peek().Pos, "unexpected %q after elseif condition", p.peek().Text)
	}
	c.fold(start)
	b.jmpIfNotAddr = p.emit(bytecode.Instruction{Op: bytecode.OpJmpIfNot, Pos: pos})
	return nil
}

// compileElse closes the previous branch and marks jmpIfNotAddr consumed
// (an else body always runs, so there is nothing left to patch at endif
// beyond the JMP this emits).
func (c *Compiler) compileElse(p *exprParser, pos source.Position) error {
	b, err := c.peekBlock(blockIf, pos)
	if err != nil {
		return err
	}
	if b.jmpIfNotAddr < 0 {
		return perr(pos, "duplicate else")
	}
	if !p.atEnd() {
		return perr(p.peek().Pos, "unexpected %q after else", p.peek().Text)
	}
	jend := p.emit(bytecode.Instruction{Op: bytecode.OpJmp, Pos: pos})
	b.endJmps = append(b.endJmps, jend)
	c.prog.Patch(b.jmpIfNotAddr, c.prog.Len())
	b.jmpIfNotAddr = -1
	return nil
}

// compileEndif patches every pending jump (the final condition's
// JMPIFNOT, if no else was seen, plus every branch's closing JMP) to the
// address right after the whole if/elseif/.../endif construct.
func (c *Compiler) compileEndif(p *exprParser, pos source.Position) error {
	if !p.atEnd() {
		return perr(p.peek().Pos, "unexpected %q after endif", p.peek().Text)
	}
	b, err := c.popBlock(blockIf, pos)
	if err != nil {
		return err
	}
	end := c.prog.Len()
	if b.jmpIfNotAddr >= 0 {
		c.prog.Patch(b.jmpIfNotAddr, end)
	}
	for _, addr := range b.endJmps {
		c.prog.Patch(addr, end)
	}
	return nil
}

// compileSet compiles `<?teng set NAME = EXPR ?>`: EXPR is compiled (and
// fold-attempted) before OpSet, matching the stack order
// runtime/interp/step.go's doSet expects (value already on top).
func (c *Compiler) compileSet(p *exprParser, pos source.Position) error {
	absolute := false
	if p.peek().Kind == TokDot {
		absolute = true
		p.next()
	}
	name, err := p.expect(TokIdent, "variable name")
	if err != nil {
		return err
	}
	if _, err := p.expect(TokAssign, "'='"); err != nil {
		return err
	}
	start := c.prog.Len()
	if err := p.parseExpr(); err != nil {
		return err
	}
	if !p.atEnd() {
		return perr(p.peek().Pos, "unexpected %q after set expression", p.peek().Text)
	}
	c.fold(start)
	id := c.currentIdentifier(name.Text)
	id.Absolute = absolute
	if absolute {
		id.FrameOffset, id.FragOffset = 0, 0
	}
	p.emit(bytecode.Instruction{Op: bytecode.OpSet, Identifier: id, Pos: pos})
	return nil
}

// compileFormat compiles `<?teng format space="mode" ?>`.
func (c *Compiler) compileFormat(p *exprParser, pos source.Position) error {
	if _, err := p.expect(TokIdent, "'space'"); err != nil {
		return err
	}
	if _, err := p.expect(TokAssign, "'='"); err != nil {
		return err
	}
	modeTok, err := p.expect(TokString, "mode name")
	if err != nil {
		return err
	}
	if !p.atEnd() {
		return perr(p.peek().Pos, "unexpected %q after format mode", p.peek().Text)
	}
	mode, ok := formatModes[strings.ToLower(modeTok.Str)]
	if !ok {
		return perr(modeTok.Pos, "unknown format mode %q", modeTok.Str)
	}
	p.emit(bytecode.Instruction{Op: bytecode.OpPushFmt, IntArg: int(mode), Pos: pos})
	c.pushBlock(blockFrame{kind: blockFormat, pos: pos})
	return nil
}

func (c *Compiler) compileEndformat(p *exprParser, pos source.Position) error {
	if !p.atEnd() {
		return perr(p.peek().Pos, "unexpected %q after endformat", p.peek().Text)
	}
	if _, err := c.popBlock(blockFormat, pos); err != nil {
		return err
	}
	p.emit(bytecode.Instruction{Op: bytecode.OpPopFmt, Pos: pos})
	return nil
}

// compileCtype compiles `<?teng ctype "name" ?>`, validating the content
// type against the registry at compile time when one is available so a
// typo surfaces immediately rather than as a runtime ErrUnknownContentType
// fallback.
func (c *Compiler) compileCtype(p *exprParser, pos source.Position) error {
	nameTok, err := p.expect(TokString, "content type name")
	if err != nil {
		return err
	}
	if !p.atEnd() {
		return perr(p.peek().Pos, "unexpected %q after ctype name", p.peek().Text)
	}
	if c.CTReg != nil {
		if _, lookErr := c.CTReg.Lookup(nameTok.Str); lookErr != nil {
			c.logf(errlog.Warning, pos, "ctype %q: %v", nameTok.Str, lookErr)
		}
	}
	p.emit(bytecode.Instruction{Op: bytecode.OpPushCT, StrArg: nameTok.Str, Pos: pos})
	c.pushBlock(blockFrame{kind: blockCtype, pos: pos})
	return nil
}

func (c *Compiler) compileEndctype(p *exprParser, pos source.Position) error {
	if !p.atEnd() {
		return perr(p.peek().Pos, "unexpected %q after endctype", p.peek().Text)
	}
	if _, err := c.popBlock(blockCtype, pos); err != nil {
		return err
	}
	p.emit(bytecode.Instruction{Op: bytecode.OpPopCT, Pos: pos})
	return nil
}

// compileInclude compiles `<?teng include file="path" ?>` by expanding
// the included file's contents inline at parse time: there is no runtime
// include opcode, matching the original's design of resolving includes
// entirely during compilation.
func (c *Compiler) compileInclude(p *exprParser, pos source.Position) error {
	if _, err := p.expect(TokIdent, "'file'"); err != nil {
		return err
	}
	if _, err := p.expect(TokAssign, "'='"); err != nil {
		return err
	}
	pathTok, err := p.expect(TokString, "include path")
	if err != nil {
		return err
	}
	if !p.atEnd() {
		return perr(p.peek().Pos, "unexpected %q after include path", p.peek().Text)
	}
	if c.Reader == nil {
		return perr(pos, "include %q: no filesystem reader configured", pathTok.Str)
	}
	src, readErr := c.Reader.Read(pathTok.Str)
	if readErr != nil {
		return perr(pos, "include %q: %v", pathTok.Str, readErr)
	}
	if st, statErr := c.Reader.Stat(pathTok.Str); statErr == nil {
		c.prog.Sources.Add(pathTok.Str, st)
	}
	if pushErr := c.includes.Push(pathTok.Str, pos); pushErr != nil {
		return perr(pos, "include %q: %v", pathTok.Str, pushErr)
	}
	if err := c.compileSource(pathTok.Str, string(src)); err != nil {
		return err
	}
	c.includes.Pop()
	return nil
}
